package http

import (
	"net/http"
	"strconv"

	"github.com/overseer-hq/overseer/internal/adapter/ws"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
	"github.com/overseer-hq/overseer/internal/domain/session"
	"github.com/overseer-hq/overseer/internal/domain/space"
	"github.com/overseer-hq/overseer/internal/service"
)

const maxPromptLength = 20000

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Orchestrator *service.OrchestratorService
	Context      *service.ContextService
	Runtime      *service.RuntimeService
	Spaces       *service.SpaceService
	Sessions     *service.SessionService
	Hub          *ws.Hub
}

// --- Runs ---

// SubmitRun handles POST /api/runs. The run executes synchronously; the
// response carries its terminal record.
func (h *Handlers) SubmitRun(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.SubmitRequest](w, r)
	if !ok {
		return
	}
	if len(req.Prompt) > maxPromptLength {
		writeError(w, http.StatusBadRequest, "prompt exceeds maximum length")
		return
	}

	rec, err := h.Orchestrator.SubmitPrompt(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "space or session not found")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListRuns handles GET /api/runs.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.ListRuns(r.Context()))
}

// GetRun handles GET /api/runs/{id}.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Orchestrator.GetRun(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetRunView handles GET /api/runs/{id}/view.
func (h *Handlers) GetRunView(w http.ResponseWriter, r *http.Request) {
	view, err := h.Orchestrator.GetView(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// InterruptRun handles POST /api/runs/{id}/interrupt.
func (h *Handlers) InterruptRun(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Orchestrator.Interrupt(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// --- Context retrieval ---

// SearchContext handles POST /api/context/search. An empty provider_id
// resolves to the default provider.
func (h *Handlers) SearchContext(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		ProviderID string `json:"provider_id"`
		Prompt     string `json:"prompt"`
		RootPath   string `json:"root_path"`
		Limit      int    `json:"limit"`
	}](w, r)
	if !ok {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	providerID := req.ProviderID
	if providerID == "" {
		providerID = retrieval.DefaultProviderID
	}
	res := h.Context.Retrieve(r.Context(), providerID, retrieval.Query{
		Prompt:   req.Prompt,
		RootPath: req.RootPath,
		Limit:    req.Limit,
	})
	writeJSON(w, http.StatusOK, res)
}

// ListContextProviders handles GET /api/context/providers.
func (h *Handlers) ListContextProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": h.Context.Available(),
		"default":   retrieval.DefaultProviderID,
	})
}

// --- Provider runtimes ---

// ListProviders handles GET /api/providers.
func (h *Handlers) ListProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.Runtime.Available()})
}

// ListProviderModels handles GET /api/providers/{id}/models.
func (h *Handlers) ListProviderModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.Runtime.ListModels(r.Context(), urlParam(r, "id"), nil)
	if err != nil {
		writeDomainError(w, err, "provider not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

// ListAllModels handles GET /api/models. Dead providers surface as
// per-provider error strings next to the models of the healthy ones.
func (h *Handlers) ListAllModels(w http.ResponseWriter, r *http.Request) {
	models, failures := h.Runtime.ListAllModels(r.Context())
	errs := make(map[string]string, len(failures))
	for id, err := range failures {
		errs[id] = err.Error()
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models, "errors": errs})
}

// --- Spaces ---

// CreateSpace handles POST /api/spaces.
func (h *Handlers) CreateSpace(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[space.CreateRequest](w, r)
	if !ok {
		return
	}
	sp, err := h.Spaces.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "space not found")
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

// ListSpaces handles GET /api/spaces.
func (h *Handlers) ListSpaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Spaces.List(r.Context()))
}

// GetSpace handles GET /api/spaces/{id}.
func (h *Handlers) GetSpace(w http.ResponseWriter, r *http.Request) {
	sp, err := h.Spaces.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "space not found")
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

// --- Sessions ---

// CreateSession handles POST /api/sessions.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[session.CreateRequest](w, r)
	if !ok {
		return
	}
	sess, err := h.Sessions.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "space not found")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// ListSessions handles GET /api/sessions with an optional space_id filter.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	spaceID := r.URL.Query().Get("space_id")
	writeJSON(w, http.StatusOK, h.Sessions.List(r.Context(), spaceID))
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// --- Health ---

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","connections":` +
		strconv.Itoa(h.connectionCount()) + `}`))
}

func (h *Handlers) connectionCount() int {
	if h.Hub == nil {
		return 0
	}
	return h.Hub.ConnectionCount()
}
