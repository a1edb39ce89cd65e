package memory

import (
	"context"
	"sync"

	"assessment-scoring-service/internal/domain"
)

// Store is an in-memory implementation of app.Store, used when no Postgres
// is configured and as the fixture store in tests.
type Store struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
	responses    map[string][]domain.Response
}

func NewStore() *Store {
	return &Store{
		participants: make(map[string]domain.Participant),
		responses:    make(map[string][]domain.Response),
	}
}

// PutParticipant seeds or replaces a participant record.
func (s *Store) PutParticipant(p domain.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
}

// PutResponses seeds a participant's response rows.
func (s *Store) PutResponses(participantID string, responses []domain.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[participantID] = append([]domain.Response(nil), responses...)
}

// Participant returns the current record for assertions.
func (s *Store) Participant(id string) (domain.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	return p, ok
}

func (s *Store) ListCandidates(_ context.Context, scope domain.RecalcScope) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Participant
	for _, p := range s.participants {
		if p.Status != domain.StatusCompleted {
			continue
		}
		switch {
		case scope.ParticipantID != "":
			if p.ID != scope.ParticipantID {
				continue
			}
		case scope.GroupID != "":
			if p.GroupID != scope.GroupID {
				continue
			}
		case scope.OrganizationID != "":
			if p.OrganizationID != scope.OrganizationID {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) Responses(_ context.Context, participantID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Response(nil), s.responses[participantID]...), nil
}

func (s *Store) SaveOutcome(_ context.Context, participantID string, responses []domain.Response, summary domain.ScoreSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	s.responses[participantID] = append([]domain.Response(nil), responses...)
	p.ScoreSummary = &summary
	s.participants[participantID] = p
	return nil
}
