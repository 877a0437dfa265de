package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/overseer-hq/overseer/internal/config"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
	"github.com/overseer-hq/overseer/internal/port/cache"
	"github.com/overseer-hq/overseer/internal/port/contextprovider"
)

// ContextService resolves context providers and retrieves snippets for
// runs. A failing non-default provider falls back to the default one;
// results are memoized per provider and query.
type ContextService struct {
	registry *contextprovider.Registry
	cache    cache.Cache // nil disables memoization
	ttl      time.Duration
	limit    int
	group    singleflight.Group
}

// NewContextService creates a ContextService. A nil cache disables
// retrieval memoization.
func NewContextService(registry *contextprovider.Registry, c cache.Cache, cfg config.Retrieval) *ContextService {
	return &ContextService{
		registry: registry,
		cache:    c,
		ttl:      cfg.CacheTTL,
		limit:    cfg.SnippetLimit,
	}
}

// Retrieve runs one retrieval against the requested provider, falling
// back to the default provider when the requested one fails. The result
// envelope is always returned; retrieval never panics and never errors
// at the Go level.
func (s *ContextService) Retrieve(ctx context.Context, providerID string, q retrieval.Query) retrieval.Result {
	if q.Limit == 0 {
		q.Limit = s.limit
	}

	res := s.retrieveOne(ctx, providerID, q)
	if res.OK || providerID == retrieval.DefaultProviderID {
		return res
	}

	slog.Warn("context provider failed, falling back",
		"provider", providerID,
		"fallback", retrieval.DefaultProviderID,
		"code", res.Err.Code)

	fb := s.retrieveOne(ctx, retrieval.DefaultProviderID, q)
	if !fb.OK {
		// Surface the originally requested provider's failure.
		return res
	}
	fb.FallbackFromProviderID = providerID
	return fb
}

// RetrieveSnippets is the legacy retrieval surface: a bare snippet list
// on success, a typed retrieval error otherwise. When no provider
// resolves at all it returns an empty success; only the extended
// Retrieve shape reports that case as a typed failure.
func (s *ContextService) RetrieveSnippets(ctx context.Context, providerID string, q retrieval.Query) ([]retrieval.Snippet, *retrieval.Error) {
	res := s.Retrieve(ctx, providerID, q)
	if !res.OK {
		if res.Err.Code == retrieval.ErrUnsupportedProvider {
			return nil, nil
		}
		return nil, res.Err
	}
	return res.Snippets, nil
}

// Available returns the ids of all registered context providers.
func (s *ContextService) Available() []string {
	return s.registry.Available()
}

func (s *ContextService) retrieveOne(ctx context.Context, providerID string, q retrieval.Query) retrieval.Result {
	provider, ok := s.registry.Get(providerID)
	if !ok {
		return retrieval.Result{
			ProviderID: providerID,
			Err: &retrieval.Error{
				Code:        retrieval.ErrUnsupportedProvider,
				Message:     fmt.Sprintf("unknown context provider %q", providerID),
				Remediation: "Pick a registered context provider or clear the override to use the default.",
				Retryable:   false,
				ProviderID:  providerID,
			},
		}
	}

	key := cacheKey(providerID, q)
	if snippets, hit := s.cached(ctx, key); hit {
		return retrieval.Result{OK: true, ProviderID: providerID, Snippets: snippets}
	}

	// Concurrent identical queries share one provider call.
	v, _, _ := s.group.Do(key, func() (any, error) {
		snippets, rerr := provider.Retrieve(ctx, q)
		if rerr != nil {
			return retrieval.Result{ProviderID: providerID, Err: rerr}, nil
		}
		s.store(ctx, key, snippets)
		return retrieval.Result{OK: true, ProviderID: providerID, Snippets: snippets}, nil
	})
	return v.(retrieval.Result)
}

func (s *ContextService) cached(ctx context.Context, key string) ([]retrieval.Snippet, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return nil, false
	}
	var snippets []retrieval.Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, false
	}
	return snippets, true
}

func (s *ContextService) store(ctx context.Context, key string, snippets []retrieval.Snippet) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(snippets)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		slog.Debug("retrieval cache set failed", "error", err)
	}
}

func cacheKey(providerID string, q retrieval.Query) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%d", q.Prompt, q.RootPath, q.Limit))
	return fmt.Sprintf("retrieval:%s:%x", providerID, sum[:12])
}
