// Package state defines the persisted application document and the
// load-time normalization and crash-recovery rules applied to it.
package state

import (
	"time"

	"github.com/overseer-hq/overseer/internal/domain/run"
	"github.com/overseer-hq/overseer/internal/domain/session"
	"github.com/overseer-hq/overseer/internal/domain/space"
)

// CurrentVersion is the persisted document schema version.
const CurrentVersion = 1

// Document is the single structured record the store persists. It owns
// the canonical copy of all application state.
type Document struct {
	Version          int               `json:"version"`
	ActiveView       string            `json:"activeView,omitempty"`
	ActiveSpaceID    string            `json:"activeSpaceId,omitempty"`
	ActiveSessionID  string            `json:"activeSessionId,omitempty"`
	Spaces           []space.Space     `json:"spaces"`
	Sessions         []session.Session `json:"sessions"`
	OrchestratorRuns []run.Record      `json:"orchestratorRuns"`
	LastOpenedAt     *time.Time        `json:"lastOpenedAt,omitempty"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() *Document {
	return &Document{
		Version:          CurrentVersion,
		Spaces:           []space.Space{},
		Sessions:         []session.Session{},
		OrchestratorRuns: []run.Record{},
	}
}

// FindRun returns a copy of the run with the given id.
func (d *Document) FindRun(id string) (run.Record, bool) {
	for _, r := range d.OrchestratorRuns {
		if r.ID == id {
			return r, true
		}
	}
	return run.Record{}, false
}

// UpsertRun inserts the run or replaces the record with the same id.
func (d *Document) UpsertRun(rec run.Record) {
	for i, r := range d.OrchestratorRuns {
		if r.ID == rec.ID {
			d.OrchestratorRuns[i] = rec
			return
		}
	}
	d.OrchestratorRuns = append(d.OrchestratorRuns, rec)
}

// FindSpace returns a copy of the space with the given id.
func (d *Document) FindSpace(id string) (space.Space, bool) {
	for _, s := range d.Spaces {
		if s.ID == id {
			return s, true
		}
	}
	return space.Space{}, false
}

// FindSession returns a copy of the session with the given id.
func (d *Document) FindSession(id string) (session.Session, bool) {
	for _, s := range d.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return session.Session{}, false
}
