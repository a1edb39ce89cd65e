package scoring

import (
	"math"
	"time"

	"assessment-scoring-service/internal/domain"
)

// Aggregate folds a participant's evaluated responses into one score
// summary. Percentage contributions and trait contributions are partitioned;
// the summary kind reflects which parts are present, with "mixed" carrying
// both side by side.
func Aggregate(evals []Evaluation, now time.Time) domain.ScoreSummary {
	var (
		totalScore    float64
		totalPossible float64
		correctCount  int
		counted       bool
	)
	traitSums := make(map[string]float64)
	traitCounts := make(map[string]int)

	for _, ev := range evals {
		if ev.Counted {
			counted = true
			totalScore += ev.ScoreValue
			totalPossible += ev.MaxScore
			if ev.IsCorrect {
				correctCount++
			}
		}
		if ev.HasTrait {
			traitSums[ev.Trait] += ev.TraitValue
			traitCounts[ev.Trait]++
		}
	}

	summary := domain.ScoreSummary{}
	if len(traitSums) > 0 {
		traits := make(map[string]float64, len(traitSums))
		for name, sum := range traitSums {
			traits[name] = sum / float64(traitCounts[name])
		}
		summary.Traits = traits
		summary.Kind = domain.SummaryTrait
	}
	if counted || len(traitSums) == 0 {
		pct := 0
		if totalPossible > 0 {
			pct = int(math.Round(100 * totalScore / totalPossible))
		}
		summary.Percentage = &domain.PercentageSummary{
			TotalScore:     totalScore,
			TotalPossible:  totalPossible,
			CorrectCount:   correctCount,
			Percentage:     pct,
			Grade:          GradeOf(pct),
			RecalculatedAt: now,
		}
		if summary.Kind == domain.SummaryTrait {
			summary.Kind = domain.SummaryMixed
		} else {
			summary.Kind = domain.SummaryPercentage
		}
	}
	return summary
}

// EvaluateAll scores every response against its question and returns the
// evaluations in response order. Responses referencing a question that is
// not in the set contribute nothing.
func EvaluateAll(table TierTable, questions []domain.Question, responses []domain.Response) []Evaluation {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	evals := make([]Evaluation, 0, len(responses))
	for _, r := range responses {
		q, ok := byID[r.QuestionID]
		if !ok {
			evals = append(evals, Evaluation{ResponseID: r.ID})
			continue
		}
		evals = append(evals, Evaluate(table, q, r))
	}
	return evals
}
