package adaptive

import (
	"errors"
	"math"
	"testing"

	"mykafa-quiz-service/internal/models"
)

func newTestSession(total int, ability float64) *models.QuizSession {
	return models.NewQuizSession("test-session", "user-1", "akidah", 2024, "rukun-iman", total, ability, nil)
}

func singleQuestion(id string, difficulty models.Difficulty) *models.Question {
	return &models.Question{
		ID:   id,
		Text: "?",
		Type: "single",
		Options: []models.Option{
			{ID: "a", Text: "A"}, {ID: "b", Text: "B"},
			{ID: "c", Text: "C"}, {ID: "d", Text: "D"},
		},
		CorrectAnswers:   []string{"b"},
		Difficulty:       difficulty,
		Subject:          "akidah",
		Year:             2024,
		Topic:            "rukun-iman",
		Hints:            []string{"hint one", "hint two"},
		TimeLimitSeconds: 60,
		Points:           10,
	}
}

func multiQuestion(id string) *models.Question {
	q := singleQuestion(id, models.DifficultyMedium)
	q.Type = "multiple"
	q.CorrectAnswers = []string{"a", "b"}
	return q
}

func TestEvaluateAnswer_FullCorrectRunScores45(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(3, 0.5)

	for i, id := range []string{"q1", "q2", "q3"} {
		q := singleQuestion(id, models.DifficultyMedium)
		engine.MarkServed(session, q, false)

		result, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("b"), 30)
		if err != nil {
			t.Fatalf("question %d: unexpected error: %v", i+1, err)
		}
		if !result.IsCorrect {
			t.Fatalf("question %d: expected correct", i+1)
		}
		if result.TotalPoints != 15 {
			t.Errorf("question %d: expected 15 points (10 correct + 5 time bonus), got %.1f", i+1, result.TotalPoints)
		}
		if !result.AnsweredWithinTime {
			t.Errorf("question %d: expected answered within time", i+1)
		}
	}

	if session.TotalScore != 45 {
		t.Errorf("expected total score 45, got %.1f", session.TotalScore)
	}
	if session.QuestionsAnswered != 3 {
		t.Errorf("expected 3 questions answered, got %d", session.QuestionsAnswered)
	}
	if !engine.BudgetExhausted(session) {
		t.Error("expected budget exhausted after 3 of 3 questions")
	}
}

func TestEvaluateAnswer_AbilityStaysClamped(t *testing.T) {
	testCases := []struct {
		name       string
		ability    float64
		difficulty models.Difficulty
		correct    bool
	}{
		{"correct on hard near ceiling", 0.98, models.DifficultyHard, true},
		{"incorrect on easy near floor", 0.02, models.DifficultyEasy, false},
		{"correct on easy mid", 0.5, models.DifficultyEasy, true},
		{"incorrect on hard mid", 0.5, models.DifficultyHard, false},
	}

	settings := DefaultSettings()
	settings.Adjustment = AdjustAggressive
	settings.MaxAttemptsPerQuestion = 1
	engine := NewEngine(settings)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session := newTestSession(10, tc.ability)
			q := singleQuestion("q1", tc.difficulty)
			engine.MarkServed(session, q, false)

			answer := models.SingleAnswer("b")
			if !tc.correct {
				answer = models.SingleAnswer("a")
			}
			if _, err := engine.EvaluateAnswer(session, q, answer, 10); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if session.AbilityEstimate < 0 || session.AbilityEstimate > 1 {
				t.Errorf("ability %.3f out of [0,1]", session.AbilityEstimate)
			}
			if tc.correct && session.AbilityEstimate <= tc.ability && tc.ability < 1 {
				t.Errorf("expected ability to rise from %.3f, got %.3f", tc.ability, session.AbilityEstimate)
			}
			if !tc.correct && session.AbilityEstimate >= tc.ability && tc.ability > 0 {
				t.Errorf("expected ability to fall from %.3f, got %.3f", tc.ability, session.AbilityEstimate)
			}
		})
	}
}

func TestEvaluateAnswer_AbilityStepScalesWithDifficulty(t *testing.T) {
	engine := NewEngine(nil)

	gain := func(d models.Difficulty) float64 {
		session := newTestSession(10, 0.5)
		q := singleQuestion("q1", d)
		engine.MarkServed(session, q, false)
		if _, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("b"), 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return session.AbilityEstimate - 0.5
	}

	if !(gain(models.DifficultyHard) > gain(models.DifficultyMedium) && gain(models.DifficultyMedium) > gain(models.DifficultyEasy)) {
		t.Error("expected correct-on-hard to move ability more than medium, and medium more than easy")
	}
}

func TestGradeAnswer_PartialCredit(t *testing.T) {
	testCases := []struct {
		name        string
		selected    []string
		wantPartial float64
		wantCorrect bool
	}{
		{"both correct options", []string{"a", "b"}, 1, true},
		{"one correct option", []string{"a"}, 0.5, false},
		{"one correct one wrong", []string{"a", "c"}, 0, false},
		{"all correct plus one wrong", []string{"a", "b", "c"}, 0.5, false},
		{"only wrong options", []string{"c", "d"}, 0, false},
		{"empty", nil, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := multiQuestion("mq")
			partial, correct := gradeAnswer(q, models.MultipleAnswer(tc.selected...))
			if math.Abs(partial-tc.wantPartial) > 1e-9 {
				t.Errorf("expected partial %.2f, got %.2f", tc.wantPartial, partial)
			}
			if correct != tc.wantCorrect {
				t.Errorf("expected correct=%v, got %v", tc.wantCorrect, correct)
			}
		})
	}
}

func TestEvaluateAnswer_PartialCreditScoresWithoutTimeBonus(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxAttemptsPerQuestion = 1
	engine := NewEngine(settings)
	session := newTestSession(5, 0.5)

	q := multiQuestion("mq")
	engine.MarkServed(session, q, false)

	result, err := engine.EvaluateAnswer(session, q, models.MultipleAnswer("a"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsCorrect {
		t.Error("expected partially correct answer to not be fully correct")
	}
	if result.BaseScore != 5 {
		t.Errorf("expected base score 5 (10 x 0.5), got %.1f", result.BaseScore)
	}
	if result.TimeBonus != 0 {
		t.Errorf("expected no time bonus on partial credit, got %.1f", result.TimeBonus)
	}
	if session.TotalScore != 5 {
		t.Errorf("expected total score 5, got %.1f", session.TotalScore)
	}
}

func TestEvaluateAnswer_StaleAnswerLeavesStateUntouched(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(5, 0.5)
	current := singleQuestion("q1", models.DifficultyMedium)
	engine.MarkServed(session, current, false)

	other := singleQuestion("q2", models.DifficultyMedium)
	_, err := engine.EvaluateAnswer(session, other, models.SingleAnswer("b"), 10)

	var staleErr *StaleAnswerError
	if !errors.As(err, &staleErr) {
		t.Fatalf("expected StaleAnswerError, got %v", err)
	}
	if staleErr.CurrentID != "q1" {
		t.Errorf("expected current question q1 in error, got %q", staleErr.CurrentID)
	}
	if session.TotalScore != 0 || session.QuestionsAnswered != 0 {
		t.Error("expected session state unchanged after stale answer")
	}
}

func TestEvaluateAnswer_CompletedSessionRejected(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(5, 0.5)
	q := singleQuestion("q1", models.DifficultyMedium)
	engine.MarkServed(session, q, false)
	session.IsCompleted = true

	if _, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("b"), 10); !errors.Is(err, ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted, got %v", err)
	}
}

func TestEvaluateAnswer_NoTimeBonusWhenOverLimit(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxAttemptsPerQuestion = 1
	engine := NewEngine(settings)
	session := newTestSession(5, 0.5)
	q := singleQuestion("q1", models.DifficultyMedium)
	engine.MarkServed(session, q, false)

	result, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("b"), 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AnsweredWithinTime {
		t.Error("expected answered_within_time=false past the limit")
	}
	if result.TimeBonus != 0 {
		t.Errorf("expected no time bonus, got %.1f", result.TimeBonus)
	}
	if result.TotalPoints != 10 {
		t.Errorf("expected 10 points, got %.1f", result.TotalPoints)
	}
}

func TestDispenseHint_TieredGate(t *testing.T) {
	testCases := []struct {
		name             string
		ability          float64
		wrongSubmissions int
		wantGranted      bool
	}{
		{"low tier gets hint immediately", 0.2, 0, true},
		{"medium tier blocked before one wrong", 0.5, 0, false},
		{"medium tier unlocked after one wrong", 0.5, 1, true},
		{"high tier blocked before two wrong", 0.9, 1, false},
		{"high tier unlocked after two wrong", 0.9, 2, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(nil)
			session := newTestSession(5, tc.ability)
			q := singleQuestion("q1", models.DifficultyMedium)
			engine.MarkServed(session, q, false)
			session.AttemptFor(q.ID).WrongSubmissions = tc.wrongSubmissions

			result, err := engine.DispenseHint(session, q)
			if tc.wantGranted {
				if err != nil {
					t.Fatalf("expected hint, got error: %v", err)
				}
				if result.Hint != "hint one" || result.HintIndex != 0 {
					t.Errorf("expected first hint, got %q at index %d", result.Hint, result.HintIndex)
				}
				if result.HintsRemaining != 1 {
					t.Errorf("expected 1 hint remaining, got %d", result.HintsRemaining)
				}
			} else if !errors.Is(err, ErrNoHintsAvailable) {
				t.Fatalf("expected ErrNoHintsAvailable, got %v", err)
			}
		})
	}
}

func TestDispenseHint_PenaltyIsMonotonic(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(5, 0.2)
	session.TotalScore = 30
	q := singleQuestion("q1", models.DifficultyMedium)
	engine.MarkServed(session, q, false)

	previous := session.TotalScore
	for i := 0; i < len(q.Hints); i++ {
		result, err := engine.DispenseHint(session, q)
		if err != nil {
			t.Fatalf("hint %d: unexpected error: %v", i, err)
		}
		if result.TotalScore > previous {
			t.Errorf("hint %d: score rose from %.1f to %.1f", i, previous, result.TotalScore)
		}
		previous = result.TotalScore
	}

	if _, err := engine.DispenseHint(session, q); !errors.Is(err, ErrNoHintsAvailable) {
		t.Fatalf("expected ErrNoHintsAvailable once exhausted, got %v", err)
	}
	if session.TotalScore != 28 {
		t.Errorf("expected 30 - 2x1 = 28, got %.1f", session.TotalScore)
	}
}

func TestEvaluateAnswer_HintPenaltyReducesQuestionPoints(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(5, 0.2)
	q := singleQuestion("q1", models.DifficultyMedium)
	engine.MarkServed(session, q, false)

	if _, err := engine.DispenseHint(session, q); err != nil {
		t.Fatalf("unexpected hint error: %v", err)
	}

	result, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("b"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalPoints != 14 {
		t.Errorf("expected 10 + 5 - 1 = 14 net points, got %.1f", result.TotalPoints)
	}
	// Penalty was charged at dispense time; the award itself is 15.
	if session.TotalScore != 14 {
		t.Errorf("expected session total 14, got %.1f", session.TotalScore)
	}
	if session.CurrentHintsUsed != 0 {
		t.Errorf("expected hint counter reset after retirement, got %d", session.CurrentHintsUsed)
	}
}

func TestTargetDifficulty_Banding(t *testing.T) {
	testCases := []struct {
		name       string
		ability    float64
		adjustment DifficultyAdjustment
		wrongRun   int
		history    []models.QuestionRecord
		want       models.Difficulty
	}{
		{"low ability targets easy", 0.2, AdjustModerate, 0, nil, models.DifficultyEasy},
		{"mid ability targets medium", 0.55, AdjustModerate, 0, nil, models.DifficultyMedium},
		{"high ability targets hard", 0.85, AdjustModerate, 0, nil, models.DifficultyHard},
		{"conservative backs off on wrong streak", 0.55, AdjustConservative, 2, nil, models.DifficultyEasy},
		{
			"aggressive climbs after one correct", 0.55, AdjustAggressive, 0,
			[]models.QuestionRecord{{QuestionID: "q0", Correct: true, Difficulty: models.DifficultyMedium}},
			models.DifficultyHard,
		},
		{
			"aggressive drops after one wrong", 0.55, AdjustAggressive, 1,
			[]models.QuestionRecord{{QuestionID: "q0", Correct: false, Difficulty: models.DifficultyMedium}},
			models.DifficultyEasy,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Adjustment = tc.adjustment
			settings.Distribution = nil // isolate banding from quota balancing
			engine := NewEngine(settings)

			session := newTestSession(10, tc.ability)
			session.ConsecutiveWrong = tc.wrongRun
			session.History = tc.history

			if got := engine.TargetDifficulty(session); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTargetDifficulty_DistributionQuotaShifts(t *testing.T) {
	settings := DefaultSettings()
	settings.Distribution = map[models.Difficulty]float64{
		models.DifficultyEasy:   0.5,
		models.DifficultyMedium: 0.5,
		models.DifficultyHard:   0,
	}
	engine := NewEngine(settings)

	session := newTestSession(4, 0.2)
	session.History = []models.QuestionRecord{
		{QuestionID: "q1", Difficulty: models.DifficultyEasy},
		{QuestionID: "q2", Difficulty: models.DifficultyEasy},
	}

	if got := engine.TargetDifficulty(session); got != models.DifficultyMedium {
		t.Errorf("expected shift to medium once the easy quota is spent, got %s", got)
	}
}

func TestWeakTopics_FlagAndClear(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(10, 0.5)

	wrong := singleQuestion("q1", models.DifficultyMedium)
	wrong.Topic = "solat"
	engine.MarkServed(session, wrong, false)
	if _, err := engine.EvaluateAnswer(session, wrong, models.SubmittedAnswer{}, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.HasWeakTopic("solat") {
		t.Fatal("expected topic flagged weak after an incorrect answer")
	}

	// Two consecutive correct remedial answers clear the flag.
	for i, id := range []string{"r1", "r2"} {
		remedial := singleQuestion(id, models.DifficultyEasy)
		remedial.Topic = "solat"
		engine.MarkServed(session, remedial, true)
		if _, err := engine.EvaluateAnswer(session, remedial, models.SingleAnswer("b"), 10); err != nil {
			t.Fatalf("remedial %d: unexpected error: %v", i+1, err)
		}
	}
	if session.HasWeakTopic("solat") {
		t.Error("expected weak topic cleared after the clear streak")
	}
}

func TestNeedsRemediation(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(10, 0.5)
	session.WeakTopics = []string{"solat"}

	session.ConsecutiveWrong = 2
	if engine.NeedsRemediation(session) {
		t.Error("expected no remediation below the streak threshold")
	}
	session.ConsecutiveWrong = 3
	if !engine.NeedsRemediation(session) {
		t.Error("expected remediation at the streak threshold")
	}

	session.WeakTopics = nil
	if engine.NeedsRemediation(session) {
		t.Error("expected no remediation without flagged topics")
	}
}
