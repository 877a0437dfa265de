// Package providerruntime defines the model-provider runtime domain:
// auth modes and resolution, the runtime error taxonomy, and the records
// shared by every vendor adapter.
package providerruntime

// AuthMode is a provider-credential strategy.
type AuthMode string

const (
	ModeAPIKey       AuthMode = "api_key"
	ModeTokenSession AuthMode = "token_session"
)

// SessionStatus is the state of a token session.
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionExpired SessionStatus = "expired"
)

// TokenSession is an interactive sign-in session offered as a credential.
type TokenSession struct {
	ID     string        `json:"id"`
	Status SessionStatus `json:"status"`
}

// Credentials holds everything a caller can offer to authenticate
// against a provider. Session is nil when no session was offered.
type Credentials struct {
	APIKey  string
	Session *TokenSession
}

// RuntimeMode describes which runtime path served an execution.
type RuntimeMode string

const (
	RuntimeNative RuntimeMode = "native"
	RuntimePi     RuntimeMode = "pi"
)

// ExecutionStatus is the outcome of one provider execution.
type ExecutionStatus string

const (
	ExecutionSucceeded ExecutionStatus = "succeeded"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ExecutionRecord is the telemetry stored on a run for one provider execution.
type ExecutionRecord struct {
	ProviderID  string          `json:"providerId"`
	ModelID     string          `json:"modelId"`
	RuntimeMode RuntimeMode     `json:"runtimeMode"`
	Status      ExecutionStatus `json:"status"`
	ErrorCode   string          `json:"errorCode,omitempty"`
	Remediation string          `json:"remediation,omitempty"`
	Retryable   bool            `json:"retryable,omitempty"`
}

// ModelInfo describes one model exposed by a provider.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider"`
}

// ExecuteRequest is a uniform prompt-execution request across adapters.
type ExecuteRequest struct {
	ModelID   string `json:"model_id"`
	Prompt    string `json:"prompt"`
	System    string `json:"system,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// ExecuteResult is a uniform prompt-execution result across adapters.
type ExecuteResult struct {
	ProviderID  string      `json:"provider_id"`
	ModelID     string      `json:"model_id"`
	RuntimeMode RuntimeMode `json:"runtime_mode"`
	Output      string      `json:"output"`
	TokensIn    int         `json:"tokens_in,omitempty"`
	TokensOut   int         `json:"tokens_out,omitempty"`
}
