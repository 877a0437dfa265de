// Package delegation defines the fixed specialist sub-tasks spawned per run
// and the engine that sequences them with failure short-circuiting.
package delegation

import "time"

// TaskType identifies one of the three fixed specialist sub-tasks.
type TaskType string

const (
	TypeImplement TaskType = "implement"
	TypeVerify    TaskType = "verify"
	TypeDebug     TaskType = "debug"
)

// OrderedTypes is the fixed delegation order. Every run delegates exactly
// these three types, in this order.
var OrderedTypes = []TaskType{TypeImplement, TypeVerify, TypeDebug}

// specialists maps each task type 1:1 to its specialist label.
var specialists = map[TaskType]string{
	TypeImplement: "Implementation specialist",
	TypeVerify:    "Verification specialist",
	TypeDebug:     "Debugging specialist",
}

// SpecialistFor returns the specialist label for a task type.
func SpecialistFor(t TaskType) string {
	return specialists[t]
}

// TaskStatus represents the current state of a delegated task.
type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusDelegating TaskStatus = "delegating"
	StatusDelegated  TaskStatus = "delegated"
	StatusRunning    TaskStatus = "running"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Record is one delegated specialist sub-task of a run.
type Record struct {
	ID             string       `json:"id"`
	RunID          string       `json:"runId"`
	Type           TaskType     `json:"type"`
	Specialist     string       `json:"specialist"`
	Status         TaskStatus   `json:"status"`
	StatusTimeline []TaskStatus `json:"statusTimeline"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
	ErrorMessage   string       `json:"errorMessage,omitempty"`
}

func (r *Record) advance(status TaskStatus, at time.Time) {
	r.Status = status
	r.StatusTimeline = append(r.StatusTimeline, status)
	r.UpdatedAt = at
}
