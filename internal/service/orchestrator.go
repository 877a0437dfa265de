package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/overseer-hq/overseer/internal/adapter/otel"
	"github.com/overseer-hq/overseer/internal/adapter/ws"
	"github.com/overseer-hq/overseer/internal/domain"
	"github.com/overseer-hq/overseer/internal/domain/delegation"
	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
	"github.com/overseer-hq/overseer/internal/domain/run"
	"github.com/overseer-hq/overseer/internal/domain/state"
	"github.com/overseer-hq/overseer/internal/port/broadcast"
	"github.com/overseer-hq/overseer/internal/port/messagequeue"
)

// SubmitRequest carries one prompt submission. Session credentials are
// optional; without them providers fall back to configured API keys.
type SubmitRequest struct {
	SpaceID      string           `json:"space_id"`
	SessionID    string           `json:"session_id"`
	Prompt       string           `json:"prompt"`
	TokenSession *pr.TokenSession `json:"token_session,omitempty"`
}

// OrchestratorService drives the end-to-end run pipeline: lifecycle
// transitions, context retrieval, provider execution, and delegation.
type OrchestratorService struct {
	state   *StateService
	context *ContextService
	runtime *RuntimeService
	engine  *delegation.Engine
	hub     broadcast.Broadcaster
	queue   messagequeue.Queue // nil disables run event publishing
	metrics *otel.Metrics      // nil disables metrics

	now func() time.Time
}

// NewOrchestratorService creates an OrchestratorService. queue and
// metrics may be nil.
func NewOrchestratorService(st *StateService, ctxSvc *ContextService, rt *RuntimeService,
	engine *delegation.Engine, hub broadcast.Broadcaster, queue messagequeue.Queue,
	metrics *otel.Metrics) *OrchestratorService {
	return &OrchestratorService{
		state:   st,
		context: ctxSvc,
		runtime: rt,
		engine:  engine,
		hub:     hub,
		queue:   queue,
		metrics: metrics,
		now:     time.Now,
	}
}

// SubmitPrompt validates the submission, persists a queued run, and
// drives it through retrieval, execution, and delegation to a terminal
// status. The returned record is the run's final state.
func (s *OrchestratorService) SubmitPrompt(ctx context.Context, req SubmitRequest) (*run.Record, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required: %w", domain.ErrValidation)
	}

	doc := s.state.Snapshot()
	sp, ok := doc.FindSpace(req.SpaceID)
	if !ok {
		return nil, fmt.Errorf("space %s: %w", req.SpaceID, domain.ErrNotFound)
	}
	sess, ok := doc.FindSession(req.SessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, domain.ErrNotFound)
	}
	if sess.SpaceID != sp.ID {
		return nil, fmt.Errorf("session %s does not belong to space %s: %w",
			sess.ID, sp.ID, domain.ErrValidation)
	}

	startedAt := s.now().UTC()
	rec := run.New(uuid.NewString(), sp.ID, sess.ID, req.Prompt, startedAt)
	if err := s.persist(ctx, rec); err != nil {
		return nil, err
	}
	s.countRun(ctx, run.StatusQueued)
	s.announce(ctx, rec, messagequeue.SubjectRunStarted)

	ctx, span := otel.StartRunSpan(ctx, rec.ID, rec.SpaceID, rec.SessionID)
	defer span.End()

	rec, err := s.transition(ctx, rec, run.StatusRunning, "")
	if err != nil {
		return nil, err
	}

	// Context retrieval. A retrieval failure is recorded on the run but
	// never fails it.
	providerID := retrieval.ResolveProviderID(sp.ContextProviderID, sess.ContextProviderID)
	rec = s.retrieve(ctx, rec, providerID, sp.RootPath)

	// Provider execution, when the space names a model provider.
	var execFailure string
	rec, execFailure = s.execute(ctx, rec, sp.ProviderID, sp.ModelID, req.TokenSession)

	// Delegation. A blocking task failure wins over the execution failure
	// as the run-level error.
	tasks, taskFailure := s.engine.Build(rec.ID, rec.Prompt, s.now().UTC())
	rec.DelegatedTasks = tasks
	for _, task := range tasks {
		taskCtx, taskSpan := otel.StartDelegationSpan(ctx, rec.ID, string(task.Type))
		s.hub.BroadcastEvent(taskCtx, ws.EventTaskStatus, ws.TaskStatusEvent{
			RunID:  rec.ID,
			TaskID: task.ID,
			Type:   string(task.Type),
			Status: string(task.Status),
			Error:  task.ErrorMessage,
		})
		taskSpan.End()
	}

	failure := taskFailure
	if failure == "" {
		failure = execFailure
	}

	if failure != "" {
		rec, err = s.transition(ctx, rec, run.StatusFailed, failure)
		if err != nil {
			return nil, err
		}
		s.countRun(ctx, run.StatusFailed)
		s.announce(ctx, rec, messagequeue.SubjectRunFailed)
	} else {
		rec.Draft = draftFor(rec)
		rec, err = s.transition(ctx, rec, run.StatusCompleted, "")
		if err != nil {
			return nil, err
		}
		s.countRun(ctx, run.StatusCompleted)
		s.announce(ctx, rec, messagequeue.SubjectRunCompleted)
	}

	if s.metrics != nil {
		s.metrics.RunDuration.Record(ctx, s.now().UTC().Sub(startedAt).Seconds())
	}
	slog.Info("run finished", "run_id", rec.ID, "status", rec.Status, "error", rec.ErrorMessage)
	return &rec, nil
}

// Interrupt forces a non-terminal run to interrupted.
func (s *OrchestratorService) Interrupt(ctx context.Context, runID string) (*run.Record, error) {
	rec, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	next, err := run.Transition(*rec, run.StatusInterrupted, s.now().UTC(), "")
	if err != nil {
		return nil, fmt.Errorf("interrupt run %s: %w", runID, err)
	}
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.countRun(ctx, run.StatusInterrupted)
	s.announce(ctx, next, messagequeue.SubjectRunInterrupted)
	return &next, nil
}

// GetRun returns a run by id.
func (s *OrchestratorService) GetRun(_ context.Context, id string) (*run.Record, error) {
	rec, ok := s.state.Snapshot().FindRun(id)
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return &rec, nil
}

// ListRuns returns all runs, newest first.
func (s *OrchestratorService) ListRuns(_ context.Context) []run.Record {
	runs := s.state.Snapshot().OrchestratorRuns
	out := make([]run.Record, len(runs))
	copy(out, runs)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// GetView returns the display projection of a run.
func (s *OrchestratorService) GetView(ctx context.Context, id string) (*run.View, error) {
	rec, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	view := run.BuildView(*rec)
	return &view, nil
}

func (s *OrchestratorService) retrieve(ctx context.Context, rec run.Record, providerID, rootPath string) run.Record {
	ctx, span := otel.StartRetrievalSpan(ctx, providerID)
	defer span.End()

	start := s.now()
	res := s.context.Retrieve(ctx, providerID, retrieval.Query{
		Prompt:   rec.Prompt,
		RootPath: rootPath,
	})
	if s.metrics != nil {
		s.metrics.RetrievalTime.Record(ctx, s.now().Sub(start).Seconds())
	}

	rec.ResolvedProviderID = res.ProviderID
	rec.FallbackFromProviderID = res.FallbackFromProviderID
	if !res.OK {
		rec.ContextRetrievalError = res.Err
		slog.Warn("context retrieval failed", "run_id", rec.ID,
			"provider", providerID, "code", res.Err.Code)
		return rec
	}

	rec.ContextSnippets = res.Snippets
	if s.metrics != nil {
		s.metrics.SnippetsServed.Add(ctx, int64(len(res.Snippets)))
	}
	return rec
}

// execute runs the prompt through the space's model provider. The
// second return value is the run-level failure message, empty on success
// or when the space has no provider configured.
func (s *OrchestratorService) execute(ctx context.Context, rec run.Record, providerID, modelID string, session *pr.TokenSession) (run.Record, string) {
	if providerID == "" || modelID == "" {
		return rec, ""
	}

	ctx, span := otel.StartExecuteSpan(ctx, providerID, modelID)
	defer span.End()

	result, err := s.runtime.Execute(ctx, providerID, session, pr.ExecuteRequest{
		ModelID: modelID,
		Prompt:  rec.Prompt,
	})
	if err != nil {
		rtErr := pr.MapError(providerID, err)
		rec.ProviderExecution = &pr.ExecutionRecord{
			ProviderID:  providerID,
			ModelID:     modelID,
			Status:      pr.ExecutionFailed,
			ErrorCode:   string(rtErr.Code),
			Remediation: rtErr.Remediation,
			Retryable:   rtErr.Retryable,
		}
		return rec, rtErr.Message
	}

	rec.ProviderExecution = &pr.ExecutionRecord{
		ProviderID:  providerID,
		ModelID:     modelID,
		RuntimeMode: result.RuntimeMode,
		Status:      pr.ExecutionSucceeded,
	}
	return rec, ""
}

// transition applies one lifecycle step, persists it, and broadcasts the
// new status.
func (s *OrchestratorService) transition(ctx context.Context, rec run.Record, next run.Status, failureMessage string) (run.Record, error) {
	out, err := run.Transition(rec, next, s.now().UTC(), failureMessage)
	if err != nil {
		return rec, fmt.Errorf("run %s: %w", rec.ID, err)
	}
	if err := s.persist(ctx, out); err != nil {
		return rec, err
	}
	return out, nil
}

func (s *OrchestratorService) persist(ctx context.Context, rec run.Record) error {
	err := s.state.Update(ctx, func(doc *state.Document) error {
		doc.UpsertRun(rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist run %s: %w", rec.ID, err)
	}
	s.hub.BroadcastEvent(ctx, ws.EventRunStatus, ws.RunStatusEvent{
		RunID:     rec.ID,
		SpaceID:   rec.SpaceID,
		SessionID: rec.SessionID,
		Status:    string(rec.Status),
		Error:     rec.ErrorMessage,
	})
	return nil
}

// announce publishes one run lifecycle event; failures are logged only.
func (s *OrchestratorService) announce(ctx context.Context, rec run.Record, subject string) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(messagequeue.RunEventPayload{
		RunID:      rec.ID,
		SpaceID:    rec.SpaceID,
		SessionID:  rec.SessionID,
		Status:     string(rec.Status),
		Error:      rec.ErrorMessage,
		ProviderID: rec.ResolvedProviderID,
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, subject, payload); err != nil {
		slog.Warn("run event publish failed", "run_id", rec.ID, "subject", subject, "error", err)
	}
}

func (s *OrchestratorService) countRun(ctx context.Context, status run.Status) {
	if s.metrics == nil {
		return
	}
	switch status {
	case run.StatusQueued:
		s.metrics.RunsStarted.Add(ctx, 1)
	case run.StatusCompleted:
		s.metrics.RunsCompleted.Add(ctx, 1)
	case run.StatusFailed:
		s.metrics.RunsFailed.Add(ctx, 1)
	case run.StatusInterrupted:
		s.metrics.RunsInterrupted.Add(ctx, 1)
	}
}

// draftFor builds the pull-request draft attached to a completed run.
func draftFor(rec run.Record) *run.Draft {
	title := rec.Prompt
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	title = strings.TrimSpace(title)
	if runes := []rune(title); len(runes) > 72 {
		title = string(runes[:69]) + "..."
	}

	body := fmt.Sprintf("Automated run %s resolved this prompt with %d context snippets.",
		rec.ID, len(rec.ContextSnippets))
	return &run.Draft{Title: title, Body: body}
}
