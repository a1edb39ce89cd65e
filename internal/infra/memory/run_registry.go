package memory

import (
	"sync"

	"assessment-scoring-service/internal/app"
)

// RunRegistry is an in-memory implementation of app.RunRegistry.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*app.Run
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{
		runs: make(map[string]*app.Run),
	}
}

func (r *RunRegistry) GetOrCreate(runID string) *app.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[runID]; ok {
		return run
	}
	run := app.NewRun(runID)
	r.runs[runID] = run
	return run
}

func (r *RunRegistry) Get(runID string) (*app.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[runID]
	return run, ok
}

func (r *RunRegistry) DeleteIfDone(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return
	}
	if run.IsDone() {
		delete(r.runs, runID)
	}
}
