// Package mcpcontext implements the context provider port over a Model
// Context Protocol server's search tool.
package mcpcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpprotocol "github.com/mark3labs/mcp-go/mcp"

	"github.com/overseer-hq/overseer/internal/domain/retrieval"
	"github.com/overseer-hq/overseer/internal/port/contextprovider"
)

// ProviderID is the id this provider registers under.
const ProviderID = "mcp"

// TransportType identifies the communication transport to the MCP server.
type TransportType string

const (
	TransportStdio          TransportType = "stdio"
	TransportSSE            TransportType = "sse"
	TransportStreamableHTTP TransportType = "streamable_http"
)

const (
	defaultSearchTool = "search"
	defaultTimeout    = 15 * time.Second
)

// Config describes the MCP server the provider talks to. ID is the id the
// provider registers under; it defaults to "mcp" so a single-server setup
// needs no explicit naming.
type Config struct {
	ID         string
	Transport  TransportType
	Command    string
	Args       []string
	Env        map[string]string
	URL        string
	Headers    map[string]string
	SearchTool string
	Timeout    time.Duration
}

// Provider retrieves snippets by calling an MCP server's search tool.
// Each retrieval opens a fresh connection: handshake, one tool call, close.
type Provider struct {
	cfg Config
}

var _ contextprovider.Provider = (*Provider)(nil)

// New creates an MCP context provider for the given server config.
func New(cfg Config) *Provider {
	if cfg.ID == "" {
		cfg.ID = ProviderID
	}
	if cfg.SearchTool == "" {
		cfg.SearchTool = defaultSearchTool
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{cfg: cfg}
}

// ID implements contextprovider.Provider.
func (p *Provider) ID() string { return p.cfg.ID }

// snippetPayload is the wire shape the search tool returns per snippet.
type snippetPayload struct {
	Path    string  `json:"path"`
	Source  string  `json:"source,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Retrieve implements contextprovider.Provider. Transport and handshake
// failures surface as provider_unavailable; a tool-reported failure is an
// io_failure. Nothing panics across this boundary.
func (p *Provider) Retrieve(ctx context.Context, query retrieval.Query) ([]retrieval.Snippet, *retrieval.Error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	client, err := p.createClient()
	if err != nil {
		return nil, p.unavailable(fmt.Sprintf("create MCP client: %v", err))
	}
	defer client.Close() //nolint:errcheck // best-effort cleanup

	initReq := mcpprotocol.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpprotocol.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpprotocol.Implementation{
		Name:    "overseer",
		Version: "1.0.0",
	}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		return nil, p.unavailable(fmt.Sprintf("MCP initialize failed: %v", err))
	}

	callReq := mcpprotocol.CallToolRequest{}
	callReq.Params.Name = p.cfg.SearchTool
	callReq.Params.Arguments = map[string]any{
		"query": query.Prompt,
		"limit": query.Limit,
	}
	result, err := client.CallTool(ctx, callReq)
	if err != nil {
		return nil, p.unavailable(fmt.Sprintf("MCP tool %q failed: %v", p.cfg.SearchTool, err))
	}
	if result.IsError {
		return nil, &retrieval.Error{
			Code:        retrieval.ErrIOFailure,
			Message:     fmt.Sprintf("MCP tool %q reported an error: %s", p.cfg.SearchTool, firstText(result)),
			Remediation: "Check the MCP server logs and rerun.",
			Retryable:   true,
			ProviderID:  p.cfg.ID,
		}
	}

	return parseSnippets(p.cfg.ID, firstText(result)), nil
}

// createClient builds an mcp-go client for the configured transport.
func (p *Provider) createClient() (mcpclient.MCPClient, error) {
	switch p.cfg.Transport {
	case TransportStdio:
		return mcpclient.NewStdioMCPClient(p.cfg.Command, envMapToSlice(p.cfg.Env), p.cfg.Args...)

	case TransportSSE:
		var opts []transport.ClientOption
		if len(p.cfg.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(p.cfg.Headers))
		}
		return mcpclient.NewSSEMCPClient(p.cfg.URL, opts...)

	case TransportStreamableHTTP:
		var opts []transport.StreamableHTTPCOption
		if len(p.cfg.Headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(p.cfg.Headers))
		}
		return mcpclient.NewStreamableHttpClient(p.cfg.URL, opts...)

	default:
		return nil, fmt.Errorf("unsupported transport: %s", p.cfg.Transport)
	}
}

// parseSnippets decodes the tool's text payload. A JSON array is expected;
// any other text becomes a single snippet so a plain-text server still works.
func parseSnippets(providerID, text string) []retrieval.Snippet {
	if text == "" {
		return nil
	}

	var payloads []snippetPayload
	if err := json.Unmarshal([]byte(text), &payloads); err != nil {
		payloads = []snippetPayload{{Path: providerID, Content: text, Score: 1}}
	}

	snippets := make([]retrieval.Snippet, 0, len(payloads))
	for _, pl := range payloads {
		if pl.Content == "" && pl.Path == "" {
			continue
		}
		source := pl.Source
		if source == "" {
			source = providerID
		}
		snippets = append(snippets, retrieval.Snippet{
			ID:       uuid.NewString(),
			Provider: providerID,
			Path:     pl.Path,
			Source:   source,
			Content:  pl.Content,
			Score:    pl.Score,
		})
	}
	return snippets
}

func firstText(result *mcpprotocol.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(mcpprotocol.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func (p *Provider) unavailable(message string) *retrieval.Error {
	return &retrieval.Error{
		Code:        retrieval.ErrProviderUnavailable,
		Message:     message,
		Remediation: "Check that the MCP server is running and reachable, then retry.",
		Retryable:   true,
		ProviderID:  p.cfg.ID,
	}
}

// envMapToSlice converts a map to the KEY=VALUE slice format expected by exec.Cmd.
func envMapToSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
