// Package scoring turns raw participant responses into canonical score
// summaries. Everything here is pure: the same inputs always produce the
// same outputs, with the aggregation timestamp injected by the caller.
package scoring

import "assessment-scoring-service/internal/domain"

// TierTable maps legacy effectiveness labels to point values. It is injected
// into scoring rather than read from a package global so alternate tiering
// schemes can be substituted in tests.
type TierTable map[string]float64

// DefaultTierTable returns the canonical four-tier vocabulary.
func DefaultTierTable() TierTable {
	return TierTable{
		"Most Effective":  4,
		"Effective":       3,
		"Ineffective":     2,
		"Least Effective": 1,
	}
}

// OptionScore resolves the point value of one option: an explicit score wins,
// then the tier label, then zero. Total over its input shape.
func OptionScore(table TierTable, opt domain.Option) float64 {
	if opt.Score != nil {
		return *opt.Score
	}
	if opt.ScoreCategory != "" {
		return table[opt.ScoreCategory]
	}
	return 0
}

// MaxOptionScore returns the best achievable score across a question's options.
func MaxOptionScore(table TierTable, q domain.Question) float64 {
	max := 0.0
	for _, opt := range q.Options {
		if s := OptionScore(table, opt); s > max {
			max = s
		}
	}
	return max
}
