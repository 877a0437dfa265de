package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/overseer-hq/overseer/internal/config"
	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
)

func runtimeCfg() config.Runtime {
	return config.Runtime{
		AnthropicAPIKey: "sk-anthropic",
		OpenAIAPIKey:    "sk-openai",
	}
}

func TestResolveAuth_APIKeyFromConfig(t *testing.T) {
	svc := newRuntimeService(runtimeCfg(), &stubAdapter{id: "anthropic", tokenSessions: true})

	res, rtErr := svc.ResolveAuth("anthropic", nil)
	if rtErr != nil {
		t.Fatalf("unexpected error %v", rtErr)
	}
	if res.ResolvedMode != pr.ModeAPIKey || !res.FallbackApplied {
		t.Fatalf("expected api_key fallback without a session, got %+v", res)
	}
	if res.APIKey != "sk-anthropic" {
		t.Fatalf("expected configured key, got %q", res.APIKey)
	}
}

func TestResolveAuth_SessionWins(t *testing.T) {
	svc := newRuntimeService(runtimeCfg(), &stubAdapter{id: "anthropic", tokenSessions: true})

	res, rtErr := svc.ResolveAuth("anthropic", &pr.TokenSession{ID: "sess-1", Status: pr.SessionActive})
	if rtErr != nil {
		t.Fatalf("unexpected error %v", rtErr)
	}
	if res.ResolvedMode != pr.ModeTokenSession || res.SessionID != "sess-1" {
		t.Fatalf("expected token session, got %+v", res)
	}
}

func TestResolveAuth_ExpiredSessionFallsBack(t *testing.T) {
	svc := newRuntimeService(runtimeCfg(), &stubAdapter{id: "anthropic", tokenSessions: true})

	res, rtErr := svc.ResolveAuth("anthropic", &pr.TokenSession{ID: "sess-1", Status: pr.SessionExpired})
	if rtErr != nil {
		t.Fatalf("unexpected error %v", rtErr)
	}
	if res.ResolvedMode != pr.ModeAPIKey || !res.FallbackApplied {
		t.Fatalf("expected api_key fallback for expired session, got %+v", res)
	}
}

func TestResolveAuth_ExpiredSessionNoFallback(t *testing.T) {
	cfg := runtimeCfg()
	cfg.DisableFallback = true
	svc := newRuntimeService(cfg, &stubAdapter{id: "anthropic", tokenSessions: true})

	_, rtErr := svc.ResolveAuth("anthropic", &pr.TokenSession{ID: "sess-1", Status: pr.SessionExpired})
	if rtErr == nil {
		t.Fatal("expected typed failure with fallback disabled")
	}
	if rtErr.Code != pr.ErrSessionExpired {
		t.Fatalf("expected session_expired, got %s", rtErr.Code)
	}
}

func TestResolveAuth_MissingEverything(t *testing.T) {
	svc := newRuntimeService(config.Runtime{}, &stubAdapter{id: "anthropic", tokenSessions: true})

	_, rtErr := svc.ResolveAuth("anthropic", nil)
	if rtErr == nil {
		t.Fatal("expected failure with no credentials at all")
	}
	if rtErr.Code != pr.ErrMissingAuth {
		t.Fatalf("expected missing_auth, got %s", rtErr.Code)
	}
}

func TestResolveAuth_UnknownProvider(t *testing.T) {
	svc := newRuntimeService(runtimeCfg())

	_, rtErr := svc.ResolveAuth("mystery", nil)
	if rtErr == nil || rtErr.Code != pr.ErrProviderUnavailable {
		t.Fatalf("expected provider_unavailable for unknown provider, got %v", rtErr)
	}
}

func TestExecute_WrapsAdapterFailures(t *testing.T) {
	svc := newRuntimeService(runtimeCfg(), &stubAdapter{
		id:  "openai",
		err: errors.New("429 too many requests: rate limit exceeded"),
	})

	_, err := svc.Execute(context.Background(), "openai", nil, pr.ExecuteRequest{ModelID: "gpt-4o", Prompt: "p"})
	var rtErr *pr.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected typed runtime error, got %v", err)
	}
	if rtErr.Code != pr.ErrRateLimited {
		t.Fatalf("expected rate_limited from substring mapping, got %s", rtErr.Code)
	}
}

func TestListAllModels_OneDeadProviderDoesNotHideOthers(t *testing.T) {
	svc := newRuntimeService(runtimeCfg(),
		&stubAdapter{id: "anthropic", tokenSessions: true, models: []pr.ModelInfo{{ID: "claude-sonnet-4-20250514", Provider: "anthropic"}}},
		&stubAdapter{id: "openai", err: errors.New("503 service unavailable")},
	)

	models, failures := svc.ListAllModels(context.Background())
	if len(models["anthropic"]) != 1 {
		t.Fatalf("expected anthropic models, got %+v", models)
	}
	if failures["openai"] == nil {
		t.Fatal("expected openai failure to be collected")
	}
}
