package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionKind tags how a question is scored. Legacy records persisted before
// the tag existed carry KindUnknown and are classified once at load time.
type QuestionKind string

const (
	KindUnknown      QuestionKind = ""
	KindSingleChoice QuestionKind = "single_choice"
	KindMultiChoice  QuestionKind = "multi_choice"
	KindRanked       QuestionKind = "ranked"
	KindTrait        QuestionKind = "trait"
)

// Option is one selectable choice within a question.
type Option struct {
	Text string `json:"text"`
	// Value is the Likert weight fed into trait averages.
	Value *float64 `json:"value,omitempty"`
	// Score is the explicit point value for ranked-option scoring.
	Score *float64 `json:"score,omitempty"`
	// ScoreCategory is the legacy effectiveness label, consulted only
	// when Score is absent.
	ScoreCategory string `json:"scoreCategory,omitempty"`
}

// Question models one assessment item. Options are ordered; answers address
// them by index.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionKind `json:"type,omitempty"`
	Trait         string       `json:"trait,omitempty"`
	Options       []Option     `json:"options"`
	CorrectAnswer *AnswerValue `json:"correctAnswer,omitempty"`
}

// Assessment is a frozen question set plus grading flag.
type Assessment struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	IsGraded  bool       `json:"isGraded"`
	Questions []Question `json:"questions"`
}

// AnswerValue is the polymorphic answer payload: a scalar (selected index or
// Likert scale value, depending on the question kind) or a list of selected
// indices. A nil AnswerValue means unanswered.
type AnswerValue struct {
	Number  *float64
	Indices []int
}

// Scalar returns the numeric payload, reporting false when absent.
func (v *AnswerValue) Scalar() (float64, bool) {
	if v == nil || v.Number == nil {
		return 0, false
	}
	return *v.Number, true
}

// Index returns the scalar payload truncated to an option index.
func (v *AnswerValue) Index() (int, bool) {
	n, ok := v.Scalar()
	if !ok {
		return 0, false
	}
	return int(n), true
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		v.Number = &n
		v.Indices = nil
		return nil
	}
	var idx []int
	if err := json.Unmarshal(data, &idx); err == nil {
		v.Number = nil
		v.Indices = idx
		return nil
	}
	return fmt.Errorf("answer value is neither number nor index list: %s", data)
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.Number != nil {
		return json.Marshal(*v.Number)
	}
	if v.Indices != nil {
		return json.Marshal(v.Indices)
	}
	return []byte("null"), nil
}

// AnswerData wraps the answer payload the way submission persists it.
type AnswerData struct {
	Value *AnswerValue `json:"value"`
}

// Response is one participant's answer to one question. IsCorrect and
// ScoreValue are owned by the evaluator; they are recomputed, never
// user-supplied.
type Response struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participantId"`
	QuestionID    string     `json:"questionId"`
	AnswerData    AnswerData `json:"answerData"`
	IsCorrect     bool       `json:"isCorrect"`
	ScoreValue    float64    `json:"scoreValue"`
}

// Answered reports whether the response carries any answer payload.
func (r Response) Answered() bool {
	return r.AnswerData.Value != nil &&
		(r.AnswerData.Value.Number != nil || r.AnswerData.Value.Indices != nil)
}

// ParticipantStatus is the lifecycle state of a participant.
type ParticipantStatus string

const (
	StatusInvited    ParticipantStatus = "invited"
	StatusInProgress ParticipantStatus = "in_progress"
	StatusCompleted  ParticipantStatus = "completed"
)

// Participant is one assessment-taking identity within a group.
type Participant struct {
	ID             string            `json:"id"`
	GroupID        string            `json:"groupId"`
	OrganizationID string            `json:"organizationId"`
	AssessmentID   string            `json:"assessmentId"`
	Status         ParticipantStatus `json:"status"`
	ScoreSummary   *ScoreSummary     `json:"scoreSummary,omitempty"`
}

// SummaryKind tags the shape of a score summary.
type SummaryKind string

const (
	SummaryPercentage SummaryKind = "percentage"
	SummaryTrait      SummaryKind = "trait"
	// SummaryMixed carries both sub-summaries for participants whose
	// responses span graded and trait questions.
	SummaryMixed SummaryKind = "mixed"
)

// PercentageSummary is the graded half of a score summary.
type PercentageSummary struct {
	TotalScore     float64   `json:"totalScore"`
	TotalPossible  float64   `json:"totalPossible"`
	CorrectCount   int       `json:"correctCount"`
	Percentage     int       `json:"percentage"`
	Grade          string    `json:"grade"`
	RecalculatedAt time.Time `json:"recalculatedAt"`
}

// ScoreSummary is the canonical derived record attached to a participant.
// It is a cache: always fully reproducible by replaying the participant's
// responses through the aggregator.
type ScoreSummary struct {
	Kind       SummaryKind        `json:"kind"`
	Percentage *PercentageSummary `json:"percentage,omitempty"`
	Traits     map[string]float64 `json:"traits,omitempty"`
}

// RecalcScope selects which participants a recalculation touches. Exactly
// one field must be set.
type RecalcScope struct {
	ParticipantID  string `json:"participantId,omitempty"`
	GroupID        string `json:"groupId,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Validate enforces scope exclusivity.
func (s RecalcScope) Validate() error {
	set := 0
	for _, id := range []string{s.ParticipantID, s.GroupID, s.OrganizationID} {
		if id != "" {
			set++
		}
	}
	if set != 1 {
		return ErrInvalidScope
	}
	return nil
}

// RecalcResult pairs a participant's summary before and after recalculation
// for audit review.
type RecalcResult struct {
	ParticipantID string        `json:"participantId"`
	OldSummary    *ScoreSummary `json:"oldSummary"`
	NewSummary    *ScoreSummary `json:"newSummary"`
}

// RecalcReport is the outcome of one recalculation run.
type RecalcReport struct {
	RunID             string         `json:"runId"`
	RecalculatedCount int            `json:"recalculatedCount"`
	SkippedCount      int            `json:"skippedCount"`
	Results           []RecalcResult `json:"results"`
}

// RunUpdate is the progress signal broadcast while a run executes.
type RunUpdate struct {
	RunID             string    `json:"runId"`
	ParticipantID     string    `json:"participantId,omitempty"`
	Outcome           string    `json:"outcome,omitempty"`
	RecalculatedCount int       `json:"recalculatedCount"`
	SkippedCount      int       `json:"skippedCount"`
	Done              bool      `json:"done"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Run outcomes carried in RunUpdate.Outcome.
const (
	OutcomeRecalculated = "recalculated"
	OutcomeSkipped      = "skipped"
	OutcomeFailed       = "failed"
)
