package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"assessment-scoring-service/internal/domain"
	"assessment-scoring-service/internal/metrics"
	"assessment-scoring-service/internal/scoring"
)

// Store abstracts the persistence the recalculation engine reads and writes.
type Store interface {
	// ListCandidates returns the completed participants matched by scope.
	ListCandidates(ctx context.Context, scope domain.RecalcScope) ([]domain.Participant, error)
	// Responses returns every response of one participant.
	Responses(ctx context.Context, participantID string) ([]domain.Response, error)
	// SaveOutcome persists the re-evaluated responses and the overwritten
	// summary as one logical unit for the participant.
	SaveOutcome(ctx context.Context, participantID string, responses []domain.Response, summary domain.ScoreSummary) error
}

// AssessmentRepository loads assessment content (from cache/backing store).
type AssessmentRepository interface {
	GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// Option configures a RecalcService.
type Option func(*RecalcService)

// WithTierTable substitutes the categorical label table.
func WithTierTable(table scoring.TierTable) Option {
	return func(s *RecalcService) {
		if len(table) > 0 {
			s.table = table
		}
	}
}

// WithWorkers bounds the per-participant fan-out. Values below 2 keep the
// sequential path.
func WithWorkers(n int) Option {
	return func(s *RecalcService) {
		if n > 1 {
			s.workers = n
		}
	}
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *RecalcService) { s.now = now }
}

// WithRunIDs is test-only for deterministic run identifiers.
func WithRunIDs(newID func() string) Option {
	return func(s *RecalcService) { s.newID = newID }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *RecalcService) { s.metrics = m }
}

// RecalcService orchestrates score recalculation: it resolves a scope,
// re-runs evaluation and aggregation per participant, persists each outcome
// immediately, and reports what changed.
type RecalcService struct {
	store       Store
	assessments AssessmentRepository
	runs        RunRegistry
	table       scoring.TierTable
	workers     int
	now         func() time.Time
	newID       func() string
	metrics     *metrics.Manager

	subMu       sync.Mutex
	subscribers map[chan domain.RunUpdate]struct{}
}

func NewRecalcService(store Store, assessments AssessmentRepository, runs RunRegistry, opts ...Option) *RecalcService {
	s := &RecalcService{
		store:       store,
		assessments: assessments,
		runs:        runs,
		table:       scoring.DefaultTierTable(),
		workers:     1,
		now:         time.Now,
		newID:       uuid.NewString,
		subscribers: make(map[chan domain.RunUpdate]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recalculate runs one recalculation over the scoped participants.
//
// Failure isolation: a participant whose reads or writes fail is logged and
// absent from both counters; the run continues. Only scope validation and
// candidate listing abort the whole operation. Callers must not run two
// recalculations over overlapping scopes concurrently; participants within
// one run share no mutable state.
func (s *RecalcService) Recalculate(ctx context.Context, scope domain.RecalcScope) (domain.RecalcReport, error) {
	if err := scope.Validate(); err != nil {
		return domain.RecalcReport{}, err
	}

	candidates, err := s.store.ListCandidates(ctx, scope)
	if err != nil {
		return domain.RecalcReport{}, fmt.Errorf("list candidates: %w", err)
	}

	runID := s.newID()
	run := s.runs.GetOrCreate(runID)
	start := s.now()
	s.metrics.RunStarted()

	var (
		resMu   sync.Mutex
		results []domain.RecalcResult
	)
	process := func(p domain.Participant) {
		result, outcome := s.processParticipant(ctx, p)
		update := run.Record(p.ID, outcome)
		s.publish(update)
		switch outcome {
		case domain.OutcomeRecalculated:
			s.metrics.ParticipantRecalculated()
			resMu.Lock()
			results = append(results, result)
			resMu.Unlock()
		case domain.OutcomeSkipped:
			s.metrics.ParticipantSkipped()
		case domain.OutcomeFailed:
			s.metrics.StoreError()
		}
	}

	if s.workers > 1 {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, p := range candidates {
			p := p
			g.Go(func() error {
				process(p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, p := range candidates {
			process(p)
		}
	}

	final := run.Finish()
	s.publish(final)
	s.runs.DeleteIfDone(runID)
	s.metrics.ObserveRunDuration(s.now().Sub(start))

	recalculated, skipped := run.Counts()
	if gap := len(candidates) - recalculated - skipped; gap > 0 {
		log.Printf("recalculation run %s: %d participant(s) failed and are absent from counters", runID, gap)
	}

	return domain.RecalcReport{
		RunID:             runID,
		RecalculatedCount: recalculated,
		SkippedCount:      skipped,
		Results:           results,
	}, nil
}

// processParticipant computes one participant's outcome. It never returns an
// error; failures are folded into the outcome so one participant can never
// block another.
func (s *RecalcService) processParticipant(ctx context.Context, p domain.Participant) (domain.RecalcResult, string) {
	assessment, err := s.assessments.GetAssessment(ctx, p.AssessmentID)
	if err != nil {
		log.Printf("recalc participant %s: load assessment %s: %v", p.ID, p.AssessmentID, err)
		return domain.RecalcResult{}, domain.OutcomeFailed
	}
	if !assessment.IsGraded {
		return domain.RecalcResult{}, domain.OutcomeSkipped
	}
	questions := scoring.Normalize(assessment.Questions)
	if !scoring.HasPercentageQuestions(questions) {
		return domain.RecalcResult{}, domain.OutcomeSkipped
	}

	responses, err := s.store.Responses(ctx, p.ID)
	if err != nil {
		log.Printf("recalc participant %s: load responses: %v", p.ID, err)
		return domain.RecalcResult{}, domain.OutcomeFailed
	}

	evals := scoring.EvaluateAll(s.table, questions, responses)
	summary := scoring.Aggregate(evals, s.now())
	updated := applyEvaluations(responses, evals)

	if err := s.store.SaveOutcome(ctx, p.ID, updated, summary); err != nil {
		log.Printf("recalc participant %s: persist outcome: %v", p.ID, err)
		return domain.RecalcResult{}, domain.OutcomeFailed
	}

	return domain.RecalcResult{
		ParticipantID: p.ID,
		OldSummary:    p.ScoreSummary,
		NewSummary:    &summary,
	}, domain.OutcomeRecalculated
}

// applyEvaluations rewrites the evaluator-owned fields on each response.
// Responses that contributed nothing are reset to zero so stale values from
// earlier runs never survive.
func applyEvaluations(responses []domain.Response, evals []scoring.Evaluation) []domain.Response {
	byID := make(map[string]scoring.Evaluation, len(evals))
	for _, ev := range evals {
		byID[ev.ResponseID] = ev
	}
	out := make([]domain.Response, len(responses))
	for i, r := range responses {
		ev := byID[r.ID]
		r.IsCorrect = ev.Counted && ev.IsCorrect
		if ev.Counted {
			r.ScoreValue = ev.ScoreValue
		} else {
			r.ScoreValue = 0
		}
		out[i] = r
	}
	return out
}

// Subscribe returns a channel receiving progress updates for every run this
// service executes. The caller must invoke the returned cancel function to
// avoid leaks.
func (s *RecalcService) Subscribe() (<-chan domain.RunUpdate, func()) {
	ch := make(chan domain.RunUpdate, 16)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *RecalcService) publish(u domain.RunUpdate) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Drop the oldest update so slow readers never block a run.
			select {
			case <-ch:
			default:
			}
			ch <- u
		}
	}
}
