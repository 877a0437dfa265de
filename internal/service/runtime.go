package service

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/overseer-hq/overseer/internal/config"
	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
	portpr "github.com/overseer-hq/overseer/internal/port/providerruntime"
)

// RuntimeService fronts every provider runtime adapter with uniform auth
// resolution and the typed error taxonomy. Configured API keys are the
// baseline credentials; callers may offer a token session on top.
type RuntimeService struct {
	registry *portpr.Registry
	cfg      config.Runtime
}

// NewRuntimeService creates a RuntimeService.
func NewRuntimeService(registry *portpr.Registry, cfg config.Runtime) *RuntimeService {
	return &RuntimeService{registry: registry, cfg: cfg}
}

// Available returns the ids of all registered runtime adapters.
func (s *RuntimeService) Available() []string {
	ids := s.registry.Available()
	sort.Strings(ids)
	return ids
}

// ResolveAuth resolves credentials for a provider. A nil session means
// only the configured API key is on offer.
func (s *RuntimeService) ResolveAuth(providerID string, session *pr.TokenSession) (pr.AuthResolution, *pr.RuntimeError) {
	adapter, rtErr := s.registry.Get(providerID)
	if rtErr != nil {
		return pr.AuthResolution{ProviderID: providerID, Status: pr.AuthError}, rtErr
	}

	res := pr.ResolveAuth(pr.AuthRequest{
		ProviderID: providerID,
		Credentials: pr.Credentials{
			APIKey:  s.apiKeyFor(providerID),
			Session: session,
		},
		SupportsTokenSession: adapter.SupportsTokenSession(),
		DisableFallback:      s.cfg.DisableFallback,
	})
	if res.Status != pr.AuthOK {
		return res, authFailure(providerID, res)
	}
	return res, nil
}

// ListModels lists the models offered by one provider.
func (s *RuntimeService) ListModels(ctx context.Context, providerID string, session *pr.TokenSession) ([]pr.ModelInfo, error) {
	adapter, rtErr := s.registry.Get(providerID)
	if rtErr != nil {
		return nil, rtErr
	}
	auth, rtErr := s.ResolveAuth(providerID, session)
	if rtErr != nil {
		return nil, rtErr
	}

	models, err := adapter.ListModels(ctx, auth)
	if err != nil {
		return nil, pr.MapError(providerID, err)
	}
	return models, nil
}

// ListAllModels fans out across every registered adapter. Providers that
// fail resolve to an empty list with their error collected per provider;
// one dead provider never hides the others.
func (s *RuntimeService) ListAllModels(ctx context.Context) (map[string][]pr.ModelInfo, map[string]error) {
	var (
		mu       sync.Mutex
		models   = make(map[string][]pr.ModelInfo)
		failures = make(map[string]error)
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range s.registry.Available() {
		g.Go(func() error {
			list, err := s.ListModels(ctx, id, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[id] = err
				return nil
			}
			models[id] = list
			return nil
		})
	}
	_ = g.Wait()
	return models, failures
}

// Execute runs one prompt through a provider. All failures carry the
// runtime error taxonomy.
func (s *RuntimeService) Execute(ctx context.Context, providerID string, session *pr.TokenSession, req pr.ExecuteRequest) (*pr.ExecuteResult, error) {
	adapter, rtErr := s.registry.Get(providerID)
	if rtErr != nil {
		return nil, rtErr
	}
	auth, rtErr := s.ResolveAuth(providerID, session)
	if rtErr != nil {
		return nil, rtErr
	}

	result, err := adapter.Execute(ctx, auth, req)
	if err != nil {
		return nil, pr.MapError(providerID, err)
	}
	return result, nil
}

func (s *RuntimeService) apiKeyFor(providerID string) string {
	switch providerID {
	case "anthropic":
		return s.cfg.AnthropicAPIKey
	case "openai":
		return s.cfg.OpenAIAPIKey
	default:
		return ""
	}
}

// authFailure converts a failed auth resolution into the matching typed
// runtime error.
func authFailure(providerID string, res pr.AuthResolution) *pr.RuntimeError {
	code := pr.ErrMissingAuth
	switch res.FailureCode {
	case pr.FailureInvalidAuth:
		code = pr.ErrInvalidAuth
	case pr.FailureSessionExpired:
		code = pr.ErrSessionExpired
	}
	return pr.NewRuntimeError(providerID, code, res.Reason)
}
