package selection

import (
	"testing"

	"mykafa-quiz-service/internal/models"
)

func question(id string, difficulty models.Difficulty) models.Question {
	return models.Question{ID: id, Difficulty: difficulty, Topic: "rukun-iman"}
}

func TestPick_MatchesTargetDifficulty(t *testing.T) {
	s := NewSelectorWithSeed(1)
	candidates := []models.Question{
		question("e1", models.DifficultyEasy),
		question("m1", models.DifficultyMedium),
		question("m2", models.DifficultyMedium),
		question("h1", models.DifficultyHard),
	}

	for i := 0; i < 20; i++ {
		q, ok := s.Pick(candidates, models.DifficultyMedium, nil)
		if !ok {
			t.Fatal("expected a pick")
		}
		if q.Difficulty != models.DifficultyMedium {
			t.Fatalf("expected a medium question, got %s (%s)", q.Difficulty, q.ID)
		}
	}
}

func TestPick_ExcludesServedQuestions(t *testing.T) {
	s := NewSelectorWithSeed(7)
	candidates := []models.Question{
		question("m1", models.DifficultyMedium),
		question("m2", models.DifficultyMedium),
		question("m3", models.DifficultyMedium),
	}

	exclude := []string{}
	for i := 0; i < 3; i++ {
		q, ok := s.Pick(candidates, models.DifficultyMedium, exclude)
		if !ok {
			t.Fatalf("pick %d: expected a question", i)
		}
		for _, id := range exclude {
			if q.ID == id {
				t.Fatalf("pick %d: question %s repeated", i, q.ID)
			}
		}
		exclude = append(exclude, q.ID)
	}

	if _, ok := s.Pick(candidates, models.DifficultyMedium, exclude); ok {
		t.Fatal("expected no pick once every candidate is excluded")
	}
}

func TestPick_FallsBackToNearestTier(t *testing.T) {
	testCases := []struct {
		name       string
		target     models.Difficulty
		candidates []models.Question
		wantID     string
	}{
		{
			"hard target falls back to medium",
			models.DifficultyHard,
			[]models.Question{question("e1", models.DifficultyEasy), question("m1", models.DifficultyMedium)},
			"m1",
		},
		{
			"easy target falls back to medium",
			models.DifficultyEasy,
			[]models.Question{question("m1", models.DifficultyMedium), question("h1", models.DifficultyHard)},
			"m1",
		},
		{
			"medium target prefers easier on tie",
			models.DifficultyMedium,
			[]models.Question{question("e1", models.DifficultyEasy), question("h1", models.DifficultyHard)},
			"e1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSelectorWithSeed(3)
			q, ok := s.Pick(tc.candidates, tc.target, nil)
			if !ok {
				t.Fatal("expected a pick")
			}
			if q.ID != tc.wantID {
				t.Errorf("expected %s, got %s", tc.wantID, q.ID)
			}
		})
	}
}

func TestPick_EmptyPool(t *testing.T) {
	s := NewSelectorWithSeed(3)
	if _, ok := s.Pick(nil, models.DifficultyMedium, nil); ok {
		t.Fatal("expected no pick from an empty pool")
	}
}

func TestPickWeakTopic_PrefersLargestPool(t *testing.T) {
	s := NewSelectorWithSeed(3)

	topic, ok := s.PickWeakTopic([]string{"solat", "zakat"}, map[string]int{"solat": 2, "zakat": 5})
	if !ok || topic != "zakat" {
		t.Errorf("expected zakat (largest pool), got %q ok=%v", topic, ok)
	}

	if _, ok := s.PickWeakTopic([]string{"solat"}, map[string]int{}); ok {
		t.Error("expected no topic when no questions exist")
	}
}
