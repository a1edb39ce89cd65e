package scoring

import (
	"sort"

	"assessment-scoring-service/internal/domain"
)

// Evaluation is the outcome of scoring one response against its question.
// Counted marks a contribution to the percentage totals; HasTrait marks a
// contribution to a trait average. An unanswered or unresolvable response
// sets neither, so it never moves a total.
type Evaluation struct {
	ResponseID string
	Kind       domain.QuestionKind

	Counted    bool
	IsCorrect  bool
	ScoreValue float64
	// MaxScore is this response's contribution to totalPossible: the best
	// option score for ranked questions, 1 for choice questions.
	MaxScore float64

	HasTrait   bool
	Trait      string
	TraitValue float64
}

// Evaluate scores one response against its (normalized) question. Data
// inconsistencies -- an index outside the option range, a missing correct
// answer on a choice question -- yield a zero-contribution evaluation
// rather than an error, so one bad response never sinks an aggregate.
func Evaluate(table TierTable, q domain.Question, r domain.Response) Evaluation {
	ev := Evaluation{ResponseID: r.ID, Kind: q.Type}
	if !r.Answered() {
		return ev
	}

	switch q.Type {
	case domain.KindRanked:
		idx, ok := r.AnswerData.Value.Index()
		if !ok || idx < 0 || idx >= len(q.Options) {
			return ev
		}
		max := MaxOptionScore(table, q)
		ev.ScoreValue = OptionScore(table, q.Options[idx])
		// Correct means "picked a best-scoring option": ties at the
		// maximum all count.
		ev.IsCorrect = ev.ScoreValue == max
		ev.MaxScore = max
		ev.Counted = true

	case domain.KindSingleChoice:
		if q.CorrectAnswer == nil {
			return ev
		}
		idx, ok := r.AnswerData.Value.Index()
		if !ok || idx < 0 || idx >= len(q.Options) {
			return ev
		}
		want, wantOK := q.CorrectAnswer.Index()
		ev.IsCorrect = wantOK && idx == want
		if ev.IsCorrect {
			ev.ScoreValue = 1
		}
		ev.MaxScore = 1
		ev.Counted = true

	case domain.KindMultiChoice:
		if q.CorrectAnswer == nil || r.AnswerData.Value.Indices == nil {
			return ev
		}
		ev.IsCorrect = sameIndexSet(r.AnswerData.Value.Indices, q.CorrectAnswer.Indices)
		if ev.IsCorrect {
			ev.ScoreValue = 1
		}
		ev.MaxScore = 1
		ev.Counted = true

	case domain.KindTrait:
		if q.Trait == "" {
			return ev
		}
		idx, ok := r.AnswerData.Value.Index()
		if !ok {
			return ev
		}
		if idx >= 0 && idx < len(q.Options) && q.Options[idx].Value != nil {
			ev.TraitValue = *q.Options[idx].Value
		} else {
			// Legacy records store the raw scale value instead of an
			// option index.
			ev.TraitValue, _ = r.AnswerData.Value.Scalar()
		}
		ev.Trait = q.Trait
		ev.HasTrait = true
	}
	return ev
}

// sameIndexSet compares two index selections as sets: order- and
// duplicate-insensitive.
func sameIndexSet(a, b []int) bool {
	as := dedupeSorted(a)
	bs := dedupeSorted(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func dedupeSorted(in []int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
