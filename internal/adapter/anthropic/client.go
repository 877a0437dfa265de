// Package anthropic provides the runtime adapter for the Anthropic HTTP API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
	"github.com/overseer-hq/overseer/internal/resilience"
)

// ProviderID is the id this adapter registers under.
const ProviderID = "anthropic"

const (
	defaultBaseURL = "https://api.anthropic.com"
	// defaultVersion is sent in the anthropic-version header on every request.
	defaultVersion = "2023-06-01"
	// DefaultTimeout bounds every request via context cancellation.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the Anthropic models and messages endpoints.
type Client struct {
	baseURL    string
	version    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates an Anthropic runtime adapter. Empty baseURL and
// version select the production defaults; a non-positive timeout selects
// DefaultTimeout.
func NewClient(baseURL, version string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if version == "" {
		version = defaultVersion
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		version:    version,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// ID implements the runtime adapter port.
func (c *Client) ID() string { return ProviderID }

// SupportsTokenSession implements the runtime adapter port. Anthropic
// accepts both API keys and bearer token sessions.
func (c *Client) SupportsTokenSession() bool { return true }

// ListModels returns the models available to the resolved credential.
func (c *Client) ListModels(ctx context.Context, auth pr.AuthResolution) ([]pr.ModelInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/models", auth, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, pr.NewRuntimeError(ProviderID, pr.ErrUnexpected,
			fmt.Sprintf("unmarshal models response: %v", err))
	}

	models := make([]pr.ModelInfo, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, pr.ModelInfo{ID: m.ID, DisplayName: m.DisplayName, Provider: ProviderID})
	}
	return models, nil
}

// Execute sends one prompt through the messages endpoint.
func (c *Client) Execute(ctx context.Context, auth pr.AuthResolution, req pr.ExecuteRequest) (*pr.ExecuteResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	payload := map[string]any{
		"model":      req.ModelID,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pr.NewRuntimeError(ProviderID, pr.ErrUnexpected,
			fmt.Sprintf("marshal messages request: %v", err))
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/messages", auth, body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, pr.NewRuntimeError(ProviderID, pr.ErrUnexpected,
			fmt.Sprintf("unmarshal messages response: %v", err))
	}

	output := ""
	for _, block := range result.Content {
		if block.Type == "text" {
			output += block.Text
		}
	}

	return &pr.ExecuteResult{
		ProviderID:  ProviderID,
		ModelID:     req.ModelID,
		RuntimeMode: runtimeMode(auth),
		Output:      output,
		TokensIn:    result.Usage.InputTokens,
		TokensOut:   result.Usage.OutputTokens,
	}, nil
}

// runtimeMode reports which runtime path served the call: native for API
// keys, pi for interactive token sessions.
func runtimeMode(auth pr.AuthResolution) pr.RuntimeMode {
	if auth.ResolvedMode == pr.ModeTokenSession {
		return pr.RuntimePi
	}
	return pr.RuntimeNative
}

func (c *Client) doRequest(ctx context.Context, method, path string, auth pr.AuthResolution, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return pr.NewRuntimeError(ProviderID, pr.ErrUnexpected, fmt.Sprintf("create request: %v", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("anthropic-version", c.version)
		switch auth.ResolvedMode {
		case pr.ModeTokenSession:
			req.Header.Set("Authorization", "Bearer "+auth.SessionID)
		default:
			req.Header.Set("x-api-key", auth.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return pr.NewRuntimeError(ProviderID, pr.ErrProviderUnavailable,
					fmt.Sprintf("request to %s timed out after %s", path, c.timeout))
			}
			return pr.MapError(ProviderID, err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return pr.MapError(ProviderID, fmt.Errorf("read response: %w", err))
		}

		if resp.StatusCode >= 400 {
			return pr.FromHTTPStatus(ProviderID, resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, pr.MapError(ProviderID, err)
	}
	return result, nil
}
