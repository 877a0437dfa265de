package providerruntime_test

import (
	"errors"
	"fmt"
	"testing"

	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
)

func TestMapError_PassesThroughTypedErrors(t *testing.T) {
	typed := pr.NewRuntimeError("anthropic", pr.ErrRateLimited, "slow down")
	got := pr.MapError("anthropic", fmt.Errorf("execute: %w", typed))
	if got != typed {
		t.Fatalf("expected the typed error unchanged, got %+v", got)
	}
}

func TestMapError_Classification(t *testing.T) {
	cases := []struct {
		message   string
		wantCode  pr.ErrorCode
		wantRetry bool
	}{
		{"401 token expired", pr.ErrSessionExpired, true},
		{"Session expired, sign in again", pr.ErrSessionExpired, true},
		{"401 unauthorized", pr.ErrInvalidAuth, false},
		{"Invalid API key provided", pr.ErrInvalidAuth, false},
		{"no api key configured", pr.ErrMissingAuth, false},
		{"auth missing for request", pr.ErrMissingAuth, false},
		{"rate limit exceeded", pr.ErrRateLimited, true},
		{"got 429 from upstream", pr.ErrRateLimited, true},
		{"connection refused", pr.ErrProviderUnavailable, true},
		{"context deadline exceeded", pr.ErrProviderUnavailable, true},
	}

	for _, tc := range cases {
		got := pr.MapError("p1", errors.New(tc.message))
		if got.Code != tc.wantCode {
			t.Fatalf("%q: expected code %s, got %s", tc.message, tc.wantCode, got.Code)
		}
		if got.Retryable != tc.wantRetry {
			t.Fatalf("%q: expected retryable=%v", tc.message, tc.wantRetry)
		}
		if got.Remediation == "" {
			t.Fatalf("%q: expected a fixed remediation", tc.message)
		}
		if got.ProviderID != "p1" {
			t.Fatalf("%q: expected provider id carried, got %q", tc.message, got.ProviderID)
		}
	}
}

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status   int
		wantCode pr.ErrorCode
	}{
		{401, pr.ErrInvalidAuth},
		{403, pr.ErrInvalidAuth},
		{429, pr.ErrRateLimited},
		{500, pr.ErrProviderUnavailable},
		{503, pr.ErrProviderUnavailable},
		{529, pr.ErrProviderUnavailable},
		{404, pr.ErrUnexpected},
		{418, pr.ErrUnexpected},
	}

	for _, tc := range cases {
		got := pr.FromHTTPStatus("p1", tc.status, `{"error":"boom"}`)
		if got.Code != tc.wantCode {
			t.Fatalf("status %d: expected %s, got %s", tc.status, tc.wantCode, got.Code)
		}
	}
}

func TestRuntimeError_Error(t *testing.T) {
	err := pr.NewRuntimeError("p1", pr.ErrMissingAuth, "no credentials")
	if err.Error() != "missing_auth: no credentials" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}
