// Package openai provides the runtime adapter for the OpenAI HTTP API.
package openai

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
const ProviderID = "openai"

const (
	defaultBaseURL = "https://api.openai.com"
	// DefaultTimeout matches the Anthropic adapter so both runtimes
	// share the same latency bound.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the OpenAI models and chat-completion endpoints.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates an OpenAI runtime adapter. An empty baseURL selects
// the production default; a non-positive timeout selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
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

// SupportsTokenSession implements the runtime adapter port. OpenAI is
// API-key only.
func (c *Client) SupportsTokenSession() bool { return false }

// ListModels returns the models available to the resolved credential.
func (c *Client) ListModels(ctx context.Context, auth pr.AuthResolution) ([]pr.ModelInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/models", auth, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, pr.NewRuntimeError(ProviderID, pr.ErrUnexpected,
			fmt.Sprintf("unmarshal models response: %v", err))
	}

	models := make([]pr.ModelInfo, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, pr.ModelInfo{ID: m.ID, Provider: ProviderID})
	}
	return models, nil
}

// Execute sends one prompt through the chat-completions endpoint.
func (c *Client) Execute(ctx context.Context, auth pr.AuthResolution, req pr.ExecuteRequest) (*pr.ExecuteResult, error) {
	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	payload := map[string]any{
		"model":    req.ModelID,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		payload["max_completion_tokens"] = req.MaxTokens
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pr.NewRuntimeError(ProviderID, pr.ErrUnexpected,
			fmt.Sprintf("marshal chat request: %v", err))
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/chat/completions", auth, body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, pr.NewRuntimeError(ProviderID, pr.ErrUnexpected,
			fmt.Sprintf("unmarshal chat response: %v", err))
	}

	output := ""
	if len(result.Choices) > 0 {
		output = result.Choices[0].Message.Content
	}

	return &pr.ExecuteResult{
		ProviderID:  ProviderID,
		ModelID:     req.ModelID,
		RuntimeMode: pr.RuntimeNative,
		Output:      output,
		TokensIn:    result.Usage.PromptTokens,
		TokensOut:   result.Usage.CompletionTokens,
	}, nil
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
		req.Header.Set("Authorization", "Bearer "+auth.APIKey)

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
