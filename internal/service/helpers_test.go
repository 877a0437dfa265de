package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/overseer-hq/overseer/internal/config"
	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
	"github.com/overseer-hq/overseer/internal/domain/state"
	"github.com/overseer-hq/overseer/internal/port/contextprovider"
	portpr "github.com/overseer-hq/overseer/internal/port/providerruntime"
	"github.com/overseer-hq/overseer/internal/port/statestore"
	"github.com/overseer-hq/overseer/internal/service"
)

// memStore is an in-memory statestore.Store that counts saves.
type memStore struct {
	mu    sync.Mutex
	doc   *state.Document
	saves int
	fail  bool
}

func (m *memStore) Load(_ context.Context) (*state.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, statestore.ErrNotFound
	}
	return m.doc, nil
}

func (m *memStore) Save(_ context.Context, doc *state.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return context.DeadlineExceeded
	}
	m.doc = doc
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// openState builds a StateService over a fresh memStore.
func openState(ctx context.Context) (*service.StateService, *memStore, error) {
	store := &memStore{}
	st := service.NewStateService(store)
	return st, store, st.Open(ctx, time.Now().UTC())
}

// stubProvider is a scripted context provider.
type stubProvider struct {
	id       string
	snippets []retrieval.Snippet
	err      *retrieval.Error
	calls    int
}

func (p *stubProvider) ID() string { return p.id }

func (p *stubProvider) Retrieve(_ context.Context, _ retrieval.Query) ([]retrieval.Snippet, *retrieval.Error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.snippets, nil
}

func snippet(provider, path, content string) retrieval.Snippet {
	return retrieval.Snippet{
		ID:       path,
		Provider: provider,
		Path:     path,
		Source:   provider,
		Content:  content,
		Score:    1,
	}
}

func newContextService(providers ...contextprovider.Provider) *service.ContextService {
	registry := contextprovider.NewRegistry()
	for _, p := range providers {
		registry.Register(p)
	}
	return service.NewContextService(registry, nil, config.Retrieval{SnippetLimit: 5, CacheTTL: time.Minute})
}

// stubAdapter is a scripted runtime adapter.
type stubAdapter struct {
	id            string
	tokenSessions bool
	models        []pr.ModelInfo
	result        *pr.ExecuteResult
	err           error
}

func (a *stubAdapter) ID() string                 { return a.id }
func (a *stubAdapter) SupportsTokenSession() bool { return a.tokenSessions }

func (a *stubAdapter) ListModels(_ context.Context, _ pr.AuthResolution) ([]pr.ModelInfo, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.models, nil
}

func (a *stubAdapter) Execute(_ context.Context, auth pr.AuthResolution, req pr.ExecuteRequest) (*pr.ExecuteResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.result != nil {
		return a.result, nil
	}
	mode := pr.RuntimeNative
	if auth.ResolvedMode == pr.ModeTokenSession {
		mode = pr.RuntimePi
	}
	return &pr.ExecuteResult{
		ProviderID:  a.id,
		ModelID:     req.ModelID,
		RuntimeMode: mode,
		Output:      "ok",
	}, nil
}

func newRuntimeService(cfg config.Runtime, adapters ...portpr.Adapter) *service.RuntimeService {
	registry := portpr.NewRegistry()
	for _, a := range adapters {
		registry.Register(a)
	}
	return service.NewRuntimeService(registry, cfg)
}
