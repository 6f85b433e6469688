package adaptive

import (
	"errors"
	"testing"

	"mykafa-quiz-service/internal/models"
)

// Edge cases and multi-step scenarios.

func TestEvaluateAnswer_RetryUntilAttemptsExhausted(t *testing.T) {
	engine := NewEngine(nil) // default allows 3 attempts
	session := newTestSession(5, 0.5)
	q := singleQuestion("q1", models.DifficultyMedium)
	engine.MarkServed(session, q, false)

	for attempt := 1; attempt <= 2; attempt++ {
		result, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("a"), 10)
		if err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", attempt, err)
		}
		if result.Retired {
			t.Fatalf("attempt %d: question should still be open", attempt)
		}
		if result.AttemptsRemaining != 3-attempt {
			t.Errorf("attempt %d: expected %d attempts remaining, got %d", attempt, 3-attempt, result.AttemptsRemaining)
		}
		if session.QuestionsAnswered != 0 {
			t.Fatalf("attempt %d: open question must not count as answered", attempt)
		}
	}

	result, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("a"), 10)
	if err != nil {
		t.Fatalf("final attempt: unexpected error: %v", err)
	}
	if !result.Retired {
		t.Fatal("expected question retired after the final attempt")
	}
	if session.QuestionsAnswered != 1 {
		t.Errorf("expected 1 question answered, got %d", session.QuestionsAnswered)
	}
	if len(session.History) != 1 || session.History[0].Correct {
		t.Error("expected one incorrect history record")
	}
	if session.ConsecutiveWrong != 1 {
		t.Errorf("expected wrong streak 1 after retirement, got %d", session.ConsecutiveWrong)
	}
}

func TestEvaluateAnswer_EmptyAnswerRetiresImmediately(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(5, 0.5)
	q := singleQuestion("q1", models.DifficultyMedium)
	engine.MarkServed(session, q, false)

	// Timer-driven auto-submit sends an empty answer; no retry is offered.
	result, err := engine.EvaluateAnswer(session, q, models.SubmittedAnswer{}, 75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Retired {
		t.Fatal("expected empty answer to retire the question")
	}
	if result.IsCorrect || result.AnsweredWithinTime {
		t.Error("expected incorrect and past the time limit")
	}
	if result.TotalPoints != 0 {
		t.Errorf("expected 0 points, got %.1f", result.TotalPoints)
	}
}

func TestEvaluateAnswer_NoHistoryDuplicates(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(6, 0.5)

	ids := []string{"q1", "q2", "q3", "q1x", "q2x", "q3x"}
	for _, id := range ids {
		q := singleQuestion(id, models.DifficultyMedium)
		engine.MarkServed(session, q, false)
		if _, err := engine.EvaluateAnswer(session, q, models.SingleAnswer("b"), 5); err != nil {
			t.Fatalf("question %s: unexpected error: %v", id, err)
		}
	}

	seen := map[string]bool{}
	for _, rec := range session.History {
		if seen[rec.QuestionID] {
			t.Fatalf("question %s appears twice in history", rec.QuestionID)
		}
		seen[rec.QuestionID] = true
	}
	if session.QuestionsAnswered > session.TotalQuestions {
		t.Errorf("answered %d exceeds budget %d", session.QuestionsAnswered, session.TotalQuestions)
	}
}

func TestBudgetExhausted_TimeLimit(t *testing.T) {
	settings := DefaultSettings()
	settings.TimeLimitSeconds = 300
	engine := NewEngine(settings)

	session := newTestSession(10, 0.5)
	session.TimeSpentSeconds = 299
	if engine.BudgetExhausted(session) {
		t.Error("expected budget open just under the time limit")
	}
	session.TimeSpentSeconds = 300
	if !engine.BudgetExhausted(session) {
		t.Error("expected budget exhausted at the time limit")
	}
}

func TestFinalize_SeparatesRemedialFromCurrentTopic(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(5, 0.5)
	session.TotalScore = 50
	session.History = []models.QuestionRecord{
		{QuestionID: "q1", Topic: "rukun-iman", Difficulty: models.DifficultyEasy, Correct: true, PointsEarned: 15},
		{QuestionID: "q2", Topic: "rukun-iman", Difficulty: models.DifficultyMedium, Correct: true, PointsEarned: 15},
		{QuestionID: "q3", Topic: "rukun-iman", Difficulty: models.DifficultyMedium, Correct: false},
		{QuestionID: "r1", Topic: "solat", Difficulty: models.DifficultyEasy, Correct: true, PointsEarned: 15, Remedial: true},
		{QuestionID: "r2", Topic: "solat", Difficulty: models.DifficultyEasy, Correct: false, Remedial: true},
	}
	session.QuestionsAnswered = 5
	session.WeakTopics = []string{"solat"}

	summary := engine.Finalize(session)

	if summary.CurrentTopicQuestions != 3 || summary.WeakTopicQuestions != 2 {
		t.Errorf("expected 3 current + 2 remedial, got %d + %d", summary.CurrentTopicQuestions, summary.WeakTopicQuestions)
	}
	if summary.CurrentTopicQuestions+summary.WeakTopicQuestions != summary.QuestionsAnswered {
		t.Error("current + remedial must equal total questions served")
	}
	if summary.CurrentTopicCorrect != 2 {
		t.Errorf("expected 2 correct on current topic, got %d", summary.CurrentTopicCorrect)
	}
	if summary.WeakTopicScore != 15 {
		t.Errorf("expected weak topic score 15, got %.1f", summary.WeakTopicScore)
	}
	wantPct := 100 * 2.0 / 3.0
	if summary.CurrentTopicPercentage < wantPct-0.01 || summary.CurrentTopicPercentage > wantPct+0.01 {
		t.Errorf("expected %.2f%%, got %.2f%%", wantPct, summary.CurrentTopicPercentage)
	}
	if summary.QuizPassed {
		t.Error("66.7%% must not pass a 75%% threshold")
	}
	if !session.IsCompleted {
		t.Error("expected session marked completed")
	}

	byDiff := summary.ByDifficulty
	if byDiff[models.DifficultyEasy].Attempted != 3 || byDiff[models.DifficultyMedium].Attempted != 2 {
		t.Errorf("unexpected difficulty breakdown: %+v", byDiff)
	}
}

func TestFinalize_PassAtThreshold(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(4, 0.5)
	for i, correct := range []bool{true, true, true, false} {
		session.History = append(session.History, models.QuestionRecord{
			QuestionID: string(rune('a' + i)),
			Topic:      session.Topic,
			Difficulty: models.DifficultyMedium,
			Correct:    correct,
		})
	}
	session.QuestionsAnswered = 4

	summary := engine.Finalize(session)
	if summary.CurrentTopicPercentage != 75 {
		t.Fatalf("expected exactly 75%%, got %.2f%%", summary.CurrentTopicPercentage)
	}
	if !summary.QuizPassed {
		t.Error("expected pass at exactly the threshold")
	}
}

func TestDispenseHint_RejectsWhenNoCurrentQuestion(t *testing.T) {
	engine := NewEngine(nil)
	session := newTestSession(5, 0.2)
	q := singleQuestion("q1", models.DifficultyMedium)

	if _, err := engine.DispenseHint(session, q); !errors.Is(err, ErrNoHintsAvailable) {
		t.Fatalf("expected ErrNoHintsAvailable without a served question, got %v", err)
	}
}

func TestConservativeModeIntervenesEarlier(t *testing.T) {
	settings := DefaultSettings()
	settings.Adjustment = AdjustConservative
	engine := NewEngine(settings)

	session := newTestSession(10, 0.5)
	session.WeakTopics = []string{"solat"}
	session.ConsecutiveWrong = 2

	if !engine.NeedsRemediation(session) {
		t.Error("expected conservative mode to trigger remediation one answer earlier")
	}
}
