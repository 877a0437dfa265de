package providerruntime

import "fmt"

// AuthStatus is the outcome of an auth resolution.
type AuthStatus string

const (
	AuthOK    AuthStatus = "ok"
	AuthError AuthStatus = "error"
)

// FailureCode classifies a failed auth resolution.
type FailureCode string

const (
	FailureMissingAuth    FailureCode = "missing_auth"
	FailureInvalidAuth    FailureCode = "invalid_auth"
	FailureSessionExpired FailureCode = "session_expired"
)

// AuthRequest describes one auth resolution over a provider's capabilities
// and the caller's credentials.
type AuthRequest struct {
	ProviderID           string
	Credentials          Credentials
	SupportsTokenSession bool
	// PreferredMode overrides the default requested mode. The default is
	// token_session when the provider supports it, api_key otherwise.
	PreferredMode AuthMode
	// DisableFallback keeps a token_session request from degrading to
	// api_key; the failure codes are surfaced instead.
	DisableFallback bool
}

// AuthResolution is the decision produced by ResolveAuth. ResolvedMode is
// empty when resolution failed.
type AuthResolution struct {
	ProviderID      string      `json:"provider_id"`
	RequestedMode   AuthMode    `json:"requested_mode"`
	ResolvedMode    AuthMode    `json:"resolved_mode,omitempty"`
	Status          AuthStatus  `json:"status"`
	FallbackApplied bool        `json:"fallback_applied"`
	FailureCode     FailureCode `json:"failure_code,omitempty"`
	Reason          string      `json:"reason"`
	// APIKey or SessionID carries the credential actually selected.
	APIKey    string `json:"-"`
	SessionID string `json:"-"`
}

// ResolveAuth maps a requested auth mode plus credentials to a resolved mode
// or a typed failure. Pure decision table; it never touches the network.
func ResolveAuth(req AuthRequest) AuthResolution {
	requested := req.PreferredMode
	if requested == "" {
		if req.SupportsTokenSession {
			requested = ModeTokenSession
		} else {
			requested = ModeAPIKey
		}
	}

	res := AuthResolution{
		ProviderID:    req.ProviderID,
		RequestedMode: requested,
	}

	if requested == ModeAPIKey {
		if req.Credentials.APIKey != "" {
			return resolved(res, ModeAPIKey, false, req.Credentials)
		}
		return failed(res, FailureMissingAuth,
			fmt.Sprintf("No API key configured for provider %q.", req.ProviderID))
	}

	// Requested token_session from here on.
	if !req.SupportsTokenSession {
		if req.Credentials.APIKey != "" && !req.DisableFallback {
			return resolved(res, ModeAPIKey, true, req.Credentials)
		}
		return failed(res, FailureMissingAuth,
			fmt.Sprintf("Provider %q does not support token sessions and no usable API key was selected.", req.ProviderID))
	}

	session := req.Credentials.Session
	switch {
	case session != nil && session.Status == SessionActive:
		if session.ID != "" {
			return resolved(res, ModeTokenSession, false, req.Credentials)
		}
		if req.Credentials.APIKey != "" && !req.DisableFallback {
			return resolved(res, ModeAPIKey, true, req.Credentials)
		}
		return failed(res, FailureInvalidAuth,
			fmt.Sprintf("Token session for provider %q has no id.", req.ProviderID))

	case session != nil: // present but expired
		if req.Credentials.APIKey != "" && !req.DisableFallback {
			return resolved(res, ModeAPIKey, true, req.Credentials)
		}
		return failed(res, FailureSessionExpired,
			fmt.Sprintf("Token session for provider %q has expired.", req.ProviderID))

	default: // no session offered
		if req.Credentials.APIKey != "" && !req.DisableFallback {
			return resolved(res, ModeAPIKey, true, req.Credentials)
		}
		return failed(res, FailureMissingAuth,
			fmt.Sprintf("No token session or API key available for provider %q.", req.ProviderID))
	}
}

func resolved(res AuthResolution, mode AuthMode, fallback bool, creds Credentials) AuthResolution {
	res.Status = AuthOK
	res.ResolvedMode = mode
	res.FallbackApplied = fallback
	switch mode {
	case ModeAPIKey:
		res.APIKey = creds.APIKey
		res.Reason = fmt.Sprintf("Resolved api_key auth for provider %q.", res.ProviderID)
		if fallback {
			res.Reason = fmt.Sprintf("Fell back to api_key auth for provider %q.", res.ProviderID)
		}
	case ModeTokenSession:
		res.SessionID = creds.Session.ID
		res.Reason = fmt.Sprintf("Resolved token_session auth for provider %q.", res.ProviderID)
	}
	return res
}

func failed(res AuthResolution, code FailureCode, reason string) AuthResolution {
	res.Status = AuthError
	res.FailureCode = code
	res.Reason = reason
	return res
}
