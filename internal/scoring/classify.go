package scoring

import "assessment-scoring-service/internal/domain"

// Classify resolves the scoring kind of a question. An explicit type tag
// always wins. Legacy records persisted before the tag existed are
// shape-sniffed: a first option carrying a score or score category marks
// ranked-option scoring, a correct answer marks choice scoring, and
// anything else is a trait-scale item.
func Classify(q domain.Question) domain.QuestionKind {
	if q.Type != domain.KindUnknown {
		return q.Type
	}
	if len(q.Options) > 0 {
		first := q.Options[0]
		if first.Score != nil || first.ScoreCategory != "" {
			return domain.KindRanked
		}
	}
	if q.CorrectAnswer != nil {
		if q.CorrectAnswer.Indices != nil {
			return domain.KindMultiChoice
		}
		return domain.KindSingleChoice
	}
	return domain.KindTrait
}

// Normalize returns a copy of the question set with every question's kind
// resolved. Classification happens exactly once here, at data-load time;
// the evaluator never re-sniffs option shapes.
func Normalize(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Type = Classify(q)
		out[i] = q
	}
	return out
}

// IsPercentageKind reports whether a question kind feeds the percentage
// summary (as opposed to trait averages).
func IsPercentageKind(kind domain.QuestionKind) bool {
	switch kind {
	case domain.KindRanked, domain.KindSingleChoice, domain.KindMultiChoice:
		return true
	}
	return false
}

// HasPercentageQuestions reports whether any question in a normalized set is
// percentage-scored. Assessments without one are outside the recalculation
// engine's reach.
func HasPercentageQuestions(questions []domain.Question) bool {
	for _, q := range questions {
		if IsPercentageKind(q.Type) {
			return true
		}
	}
	return false
}
