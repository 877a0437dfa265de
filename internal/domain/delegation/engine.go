package delegation

import (
	"fmt"
	"strings"
	"time"
)

// FaultPolicy decides whether delegating a given task type should fail for a
// prompt. The production wiring uses PromptKeywordPolicy for compatibility
// with existing clients; tests can substitute their own policy.
type FaultPolicy interface {
	Evaluate(prompt string, taskType TaskType) (failed bool, message string)
}

// PromptKeywordPolicy fails delegation when the prompt carries the
// "delegate-fail" marker. Inherited contract: the verify task also fails on
// the bare marker, without the literal word "verify".
type PromptKeywordPolicy struct{}

// Evaluate implements FaultPolicy.
func (PromptKeywordPolicy) Evaluate(prompt string, taskType TaskType) (bool, string) {
	normalized := strings.ToLower(strings.TrimSpace(prompt))
	if !strings.Contains(normalized, "delegate-fail") {
		return false, ""
	}
	if strings.Contains(normalized, string(taskType)) || taskType == TypeVerify {
		return true, failureMessage(taskType)
	}
	return false, ""
}

func failureMessage(t TaskType) string {
	return fmt.Sprintf("Delegation failed for %s. Retry with a narrower %s scope and rerun.", t, t)
}

// Engine deterministically produces the three canonical delegated-task
// records for a run. Execution is synchronous: a task either completes
// immediately or records a failure that blocks every later task.
type Engine struct {
	policy FaultPolicy
}

// NewEngine creates an Engine with the given fault policy.
// A nil policy means no task ever fails.
func NewEngine(policy FaultPolicy) *Engine {
	return &Engine{policy: policy}
}

// Build creates exactly three task records in the fixed order
// implement, verify, debug. The first failing task blocks all subsequent
// ones. The returned failure message is the first blocking failure's
// message, or empty when every task completed.
func (e *Engine) Build(runID, prompt string, at time.Time) ([]Record, string) {
	tasks := make([]Record, 0, len(OrderedTypes))
	blocking := ""

	for _, typ := range OrderedTypes {
		task := Record{
			ID:             fmt.Sprintf("%s-%s", runID, typ),
			RunID:          runID,
			Type:           typ,
			Specialist:     SpecialistFor(typ),
			Status:         StatusQueued,
			StatusTimeline: []TaskStatus{StatusQueued},
			CreatedAt:      at,
			UpdatedAt:      at,
		}
		task.advance(StatusDelegating, at)

		switch {
		case blocking != "":
			task.advance(StatusFailed, at)
			task.ErrorMessage = fmt.Sprintf("Skipped because an earlier delegation failed: %s", blocking)
			completed := at
			task.CompletedAt = &completed

		default:
			failed, msg := e.evaluate(prompt, typ)
			if failed {
				task.advance(StatusFailed, at)
				task.ErrorMessage = msg
				completed := at
				task.CompletedAt = &completed
				blocking = msg
				break
			}
			task.advance(StatusDelegated, at)
			task.advance(StatusRunning, at)
			task.advance(StatusCompleted, at)
			completed := at
			task.CompletedAt = &completed
		}

		tasks = append(tasks, task)
	}

	return tasks, blocking
}

func (e *Engine) evaluate(prompt string, typ TaskType) (bool, string) {
	if e.policy == nil {
		return false, ""
	}
	return e.policy.Evaluate(prompt, typ)
}
