// Package retrieval defines the context retrieval domain: snippets,
// typed retrieval errors, and provider resolution.
package retrieval

// DefaultProviderID is the hard default context provider.
const DefaultProviderID = "filesystem"

// Snippet is a retrieved excerpt used to ground a run's execution.
type Snippet struct {
	ID       string  `json:"id"`
	Provider string  `json:"provider"`
	Path     string  `json:"path"`
	Source   string  `json:"source"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// ErrorCode classifies a context retrieval failure.
type ErrorCode string

const (
	ErrProviderUnavailable ErrorCode = "provider_unavailable"
	ErrUnsupportedProvider ErrorCode = "unsupported_provider"
	ErrInvalidQuery        ErrorCode = "invalid_query"
	ErrInvalidRootPath     ErrorCode = "invalid_root_path"
	ErrIOFailure           ErrorCode = "io_failure"
)

// Error is a typed context retrieval failure. It is returned as a value,
// never panicked, so callers can render actionable guidance.
type Error struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Remediation string    `json:"remediation"`
	Retryable   bool      `json:"retryable"`
	ProviderID  string    `json:"providerId,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Query describes one retrieval request against a provider.
type Query struct {
	Prompt   string
	RootPath string
	Limit    int
}

// Result is the extended retrieval envelope. OK is true when retrieval
// succeeded, even if it produced zero snippets.
type Result struct {
	OK                     bool      `json:"ok"`
	ProviderID             string    `json:"providerId"`
	Snippets               []Snippet `json:"snippets"`
	FallbackFromProviderID string    `json:"fallbackFromProviderId,omitempty"`
	Err                    *Error    `json:"error,omitempty"`
}

// ResolveProviderID picks the effective context provider for a run.
// A session-level override wins over the space-level one, which wins
// over the hard default.
func ResolveProviderID(spaceProvider, sessionProvider string) string {
	if sessionProvider != "" {
		return sessionProvider
	}
	if spaceProvider != "" {
		return spaceProvider
	}
	return DefaultProviderID
}
