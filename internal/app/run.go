package app

import (
	"sync"
	"time"

	"assessment-scoring-service/internal/domain"
)

// RunRegistry abstracts how live recalculation runs are tracked (in-memory,
// Redis-marked, etc).
type RunRegistry interface {
	GetOrCreate(runID string) *Run
	Get(runID string) (*Run, bool)
	DeleteIfDone(runID string)
}

// Run is the in-memory state of one recalculation operation: per-outcome
// counters plus a progress snapshot for subscribers.
type Run struct {
	id        string
	startedAt time.Time
	now       func() time.Time

	mu           sync.RWMutex
	recalculated int
	skipped      int
	failed       int
	done         bool
}

// NewRun is exported for infrastructure layers that need to seed runs.
func NewRun(id string) *Run {
	return newRunWithClock(id, time.Now)
}

// NewRunWithClock is test-only for deterministic timestamps.
func NewRunWithClock(id string, now func() time.Time) *Run {
	return newRunWithClock(id, now)
}

func newRunWithClock(id string, now func() time.Time) *Run {
	return &Run{
		id:        id,
		startedAt: now(),
		now:       now,
	}
}

// Record counts one participant outcome and returns the updated snapshot.
func (r *Run) Record(participantID, outcome string) domain.RunUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case domain.OutcomeRecalculated:
		r.recalculated++
	case domain.OutcomeSkipped:
		r.skipped++
	case domain.OutcomeFailed:
		r.failed++
	}
	u := r.snapshotLocked()
	u.ParticipantID = participantID
	u.Outcome = outcome
	return u
}

// Finish marks the run terminal and returns the closing snapshot.
func (r *Run) Finish() domain.RunUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	return r.snapshotLocked()
}

// IsDone reports whether the run has finished.
func (r *Run) IsDone() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done
}

// Snapshot returns the current progress view.
func (r *Run) Snapshot() domain.RunUpdate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Counts returns the recalculated and skipped totals.
func (r *Run) Counts() (recalculated, skipped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recalculated, r.skipped
}

func (r *Run) snapshotLocked() domain.RunUpdate {
	return domain.RunUpdate{
		RunID:             r.id,
		RecalculatedCount: r.recalculated,
		SkippedCount:      r.skipped,
		Done:              r.done,
		UpdatedAt:         r.now(),
	}
}
