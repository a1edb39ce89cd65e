package scoring

import (
	"testing"

	"assessment-scoring-service/internal/domain"
)

func TestOptionScorePrecedence(t *testing.T) {
	table := DefaultTierTable()
	explicit := 2.5

	cases := []struct {
		name string
		opt  domain.Option
		want float64
	}{
		{"explicit score wins over category", domain.Option{Score: &explicit, ScoreCategory: "Most Effective"}, 2.5},
		{"category resolved from table", domain.Option{ScoreCategory: "Most Effective"}, 4},
		{"second tier", domain.Option{ScoreCategory: "Effective"}, 3},
		{"third tier", domain.Option{ScoreCategory: "Ineffective"}, 2},
		{"lowest tier", domain.Option{ScoreCategory: "Least Effective"}, 1},
		{"unknown category scores zero", domain.Option{ScoreCategory: "Pretty Good"}, 0},
		{"bare option scores zero", domain.Option{Text: "whatever"}, 0},
	}
	for _, tc := range cases {
		if got := OptionScore(table, tc.opt); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOptionScoreAlternateTierTable(t *testing.T) {
	table := TierTable{"Best": 10, "Worst": 1}
	if got := OptionScore(table, domain.Option{ScoreCategory: "Best"}); got != 10 {
		t.Fatalf("expected substituted table to apply, got %v", got)
	}
	// Canonical labels mean nothing under a substituted table.
	if got := OptionScore(table, domain.Option{ScoreCategory: "Most Effective"}); got != 0 {
		t.Fatalf("expected 0 for unlisted label, got %v", got)
	}
}

func TestMaxOptionScore(t *testing.T) {
	s := func(v float64) *float64 { return &v }
	q := domain.Question{Options: []domain.Option{
		{Score: s(1)},
		{ScoreCategory: "Most Effective"},
		{Score: s(3)},
	}}
	if got := MaxOptionScore(DefaultTierTable(), q); got != 4 {
		t.Fatalf("expected max 4, got %v", got)
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		pct  int
		want string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"},
		{59, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		if got := GradeOf(tc.pct); got != tc.want {
			t.Errorf("GradeOf(%d) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}
