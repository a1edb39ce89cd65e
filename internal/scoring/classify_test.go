package scoring

import (
	"testing"

	"assessment-scoring-service/internal/domain"
)

func TestClassifyTagWins(t *testing.T) {
	s := 4.0
	// Tagged trait question shaped like a ranked one: the tag is authoritative.
	q := domain.Question{
		Type:    domain.KindTrait,
		Options: []domain.Option{{Score: &s}},
	}
	if got := Classify(q); got != domain.KindTrait {
		t.Fatalf("expected tag to win, got %s", got)
	}
}

func TestClassifyLegacyShapes(t *testing.T) {
	score := 3.0
	idx := 1.0

	cases := []struct {
		name string
		q    domain.Question
		want domain.QuestionKind
	}{
		{
			"first option with explicit score marks ranked",
			domain.Question{Options: []domain.Option{{Score: &score}, {}}},
			domain.KindRanked,
		},
		{
			"first option with category marks ranked",
			domain.Question{Options: []domain.Option{{ScoreCategory: "Effective"}}},
			domain.KindRanked,
		},
		{
			"scalar correct answer marks single choice",
			domain.Question{
				Options:       []domain.Option{{}, {}},
				CorrectAnswer: &domain.AnswerValue{Number: &idx},
			},
			domain.KindSingleChoice,
		},
		{
			"index-set correct answer marks multi choice",
			domain.Question{
				Options:       []domain.Option{{}, {}, {}},
				CorrectAnswer: &domain.AnswerValue{Indices: []int{0, 2}},
			},
			domain.KindMultiChoice,
		},
		{
			"neither shape marks trait",
			domain.Question{Options: []domain.Option{{}, {}}},
			domain.KindTrait,
		},
	}
	for _, tc := range cases {
		if got := Classify(tc.q); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestNormalizeResolvesOnce(t *testing.T) {
	score := 4.0
	in := []domain.Question{
		{ID: "q1", Options: []domain.Option{{Score: &score}}},
		{ID: "q2", Type: domain.KindTrait, Trait: "empathy"},
	}
	out := Normalize(in)
	if out[0].Type != domain.KindRanked {
		t.Fatalf("expected legacy question normalized to ranked, got %s", out[0].Type)
	}
	if out[1].Type != domain.KindTrait {
		t.Fatalf("expected tagged question untouched, got %s", out[1].Type)
	}
	if in[0].Type != domain.KindUnknown {
		t.Fatalf("expected input left unmodified")
	}
}

func TestHasPercentageQuestions(t *testing.T) {
	if HasPercentageQuestions([]domain.Question{{Type: domain.KindTrait}, {Type: domain.KindTrait}}) {
		t.Fatalf("pure trait set should have no percentage questions")
	}
	if !HasPercentageQuestions([]domain.Question{{Type: domain.KindTrait}, {Type: domain.KindMultiChoice}}) {
		t.Fatalf("mixed set should report percentage questions")
	}
}
