package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-scoring-service/internal/domain"
)

// Store implements app.Store on Postgres. Each participant's outcome is
// written in its own transaction so a crashed run leaves previously
// processed participants durably updated.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListCandidates(ctx context.Context, scope domain.RecalcScope) ([]domain.Participant, error) {
	query := `SELECT id, group_id, organization_id, assessment_id, status, score_summary
		FROM participants WHERE status = 'completed' AND `
	var arg string
	switch {
	case scope.ParticipantID != "":
		query += `id = $1`
		arg = scope.ParticipantID
	case scope.GroupID != "":
		query += `group_id = $1`
		arg = scope.GroupID
	case scope.OrganizationID != "":
		query += `organization_id = $1`
		arg = scope.OrganizationID
	default:
		return nil, domain.ErrInvalidScope
	}

	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var (
			p          domain.Participant
			status     string
			rawSummary []byte
		)
		if err := rows.Scan(&p.ID, &p.GroupID, &p.OrganizationID, &p.AssessmentID, &status, &rawSummary); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Status = domain.ParticipantStatus(status)
		if len(rawSummary) > 0 {
			var summary domain.ScoreSummary
			if err := json.Unmarshal(rawSummary, &summary); err != nil {
				return nil, fmt.Errorf("unmarshal summary for %s: %w", p.ID, err)
			}
			p.ScoreSummary = &summary
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Responses(ctx context.Context, participantID string) ([]domain.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, participant_id, question_id, answer_data, is_correct, score_value
		 FROM responses WHERE participant_id = $1`, participantID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()

	var out []domain.Response
	for rows.Next() {
		var (
			r       domain.Response
			rawData []byte
		)
		if err := rows.Scan(&r.ID, &r.ParticipantID, &r.QuestionID, &rawData, &r.IsCorrect, &r.ScoreValue); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if len(rawData) > 0 {
			if err := json.Unmarshal(rawData, &r.AnswerData); err != nil {
				return nil, fmt.Errorf("unmarshal answer data for %s: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SaveOutcome(ctx context.Context, participantID string, responses []domain.Response, summary domain.ScoreSummary) error {
	rawSummary, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		for _, r := range responses {
			if _, err := tx.Exec(ctx,
				`UPDATE responses SET is_correct = $1, score_value = $2 WHERE id = $3`,
				r.IsCorrect, r.ScoreValue, r.ID); err != nil {
				return fmt.Errorf("update response %s: %w", r.ID, err)
			}
		}
		tag, err := tx.Exec(ctx,
			`UPDATE participants SET score_summary = $1 WHERE id = $2`,
			rawSummary, participantID)
		if err != nil {
			return fmt.Errorf("update summary: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrParticipantNotFound
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
