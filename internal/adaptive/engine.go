package adaptive

import (
	"math"
	"time"

	"mykafa-quiz-service/internal/models"
)

// Engine implements the adaptive quiz rules: target difficulty, answer
// evaluation and ability updates, hint gating, and session finalization.
// It is pure state-machine logic over a QuizSession; persistence and
// concurrency live in the service layer.
type Engine struct {
	settings *Settings
}

func NewEngine(settings *Settings) *Engine {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &Engine{settings: settings}
}

func (e *Engine) Settings() *Settings {
	return e.settings
}

// AbilityTier maps an ability estimate onto the low/medium/high band.
func (e *Engine) AbilityTier(ability float64) Tier {
	switch {
	case ability < e.settings.EasyBandMax:
		return TierLow
	case ability > e.settings.HardBandMin:
		return TierHigh
	default:
		return TierMedium
	}
}

// TargetDifficulty picks the difficulty tier for the next question from the
// ability bands, adjusted by the configured aggressiveness and by the target
// difficulty distribution.
func (e *Engine) TargetDifficulty(session *models.QuizSession) models.Difficulty {
	target := e.bandFor(session.AbilityEstimate)

	switch e.settings.Adjustment {
	case AdjustConservative:
		// Back off one tier once a wrong streak forms.
		if session.ConsecutiveWrong >= 2 {
			target = easier(target)
		}
	case AdjustAggressive:
		// React to the single most recent answer.
		if last, ok := lastAnswer(session); ok {
			if last.Correct {
				target = harder(target)
			} else {
				target = easier(target)
			}
		}
	}

	return e.applyDistribution(session, target)
}

// NeedsRemediation reports whether the next question should be pulled from a
// flagged weak topic instead of the session topic.
func (e *Engine) NeedsRemediation(session *models.QuizSession) bool {
	return len(session.WeakTopics) > 0 &&
		session.ConsecutiveWrong >= e.settings.remediationStreak()
}

// MarkServed records q as the current question and resets per-question hint
// state.
func (e *Engine) MarkServed(session *models.QuizSession, q *models.Question, remedial bool) {
	session.CurrentQuestionID = q.ID
	session.CurrentIsRemedial = remedial
	session.CurrentHintsUsed = 0
	session.AttemptFor(q.ID)
}

// BudgetExhausted reports whether the session has served its full question
// budget or run out its optional time limit.
func (e *Engine) BudgetExhausted(session *models.QuizSession) bool {
	if session.QuestionsAnswered >= session.TotalQuestions {
		return true
	}
	if e.settings.TimeLimitSeconds > 0 && session.TimeSpentSeconds >= e.settings.TimeLimitSeconds {
		return true
	}
	return false
}

// EvaluateAnswer grades a submission against the current question and updates
// the session. A wholly wrong, non-empty submission with attempts left keeps
// the question open for another try; everything else retires the question
// into the history.
func (e *Engine) EvaluateAnswer(session *models.QuizSession, q *models.Question, answer models.SubmittedAnswer, timeSpentSeconds int) (*models.AnswerResult, error) {
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if session.CurrentQuestionID == "" || session.CurrentQuestionID != q.ID {
		return nil, &StaleAnswerError{SubmittedID: q.ID, CurrentID: session.CurrentQuestionID}
	}

	attempt := session.AttemptFor(q.ID)
	partial, correct := gradeAnswer(q, answer)
	withinTime := q.TimeLimitSeconds <= 0 || timeSpentSeconds <= q.TimeLimitSeconds
	remedial := session.CurrentIsRemedial

	whollyWrong := partial == 0
	if whollyWrong && !answer.IsEmpty() && attempt.WrongSubmissions+1 < e.settings.MaxAttemptsPerQuestion {
		// Question stays open; no score or ability movement yet. The wrong
		// submission still counts toward the hint gate.
		attempt.WrongSubmissions++
		return &models.AnswerResult{
			IsCorrect:           false,
			AnsweredWithinTime:  withinTime,
			Feedback:            "Incorrect, try again.",
			AbilityEstimate:     session.AbilityEstimate,
			IsWeakTopicQuestion: remedial,
			AttemptsRemaining:   e.settings.MaxAttemptsPerQuestion - attempt.WrongSubmissions,
			SessionProgress:     session.Progress(),
			TotalScore:          session.TotalScore,
		}, nil
	}

	if whollyWrong {
		attempt.WrongSubmissions++
	}
	attempt.Retired = true

	rules := e.settings.Scoring
	var baseScore float64
	if partial > 0 {
		baseScore = rules.CorrectPoints * partial
	} else {
		baseScore = -rules.IncorrectPenalty
	}

	var timeBonus float64
	if correct && withinTime {
		timeBonus = rules.TimeBonus
	}

	hintsUsed := session.CurrentHintsUsed
	totalPoints := math.Max(0, baseScore+timeBonus-rules.HintPenalty*float64(hintsUsed))

	// Hint penalties were already charged against the running total when the
	// hints were dispensed, so only the positive award is added here.
	session.TotalScore += math.Max(0, baseScore+timeBonus)

	e.updateAbility(session, q.Difficulty, correct)

	if correct {
		session.ConsecutiveWrong = 0
	} else {
		session.ConsecutiveWrong++
	}

	e.updateWeakTopics(session, q.Topic, remedial, correct)

	session.History = append(session.History, models.QuestionRecord{
		QuestionID:       q.ID,
		Topic:            q.Topic,
		Difficulty:       q.Difficulty,
		Correct:          correct,
		PartialCredit:    partial,
		PointsEarned:     totalPoints,
		TimeSpentSeconds: timeSpentSeconds,
		HintsUsed:        hintsUsed,
		Remedial:         remedial,
	})
	session.QuestionsAnswered++
	session.TimeSpentSeconds += timeSpentSeconds
	session.CurrentQuestionID = ""
	session.CurrentIsRemedial = false
	session.CurrentHintsUsed = 0

	return &models.AnswerResult{
		IsCorrect:           correct,
		PartialCredit:       partial,
		BaseScore:           baseScore,
		TimeBonus:           timeBonus,
		TotalPoints:         totalPoints,
		AnsweredWithinTime:  withinTime,
		Feedback:            feedbackFor(correct, partial),
		AbilityEstimate:     session.AbilityEstimate,
		IsWeakTopicQuestion: remedial,
		Retired:             true,
		SessionCompleted:    e.BudgetExhausted(session),
		SessionProgress:     session.Progress(),
		TotalScore:          session.TotalScore,
	}, nil
}

// DispenseHint reveals the next hint for the current question if the ability
// tiered attempt gate has been met, charging the hint penalty immediately so
// the client can show the live score impact.
func (e *Engine) DispenseHint(session *models.QuizSession, q *models.Question) (*models.HintResult, error) {
	if session.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if session.CurrentQuestionID == "" || session.CurrentQuestionID != q.ID {
		return nil, ErrNoHintsAvailable
	}
	if session.CurrentHintsUsed >= len(q.Hints) {
		return nil, ErrNoHintsAvailable
	}

	tier := e.AbilityTier(session.AbilityEstimate)
	attempt := session.AttemptFor(q.ID)
	if attempt.WrongSubmissions < e.settings.HintThresholds.For(tier) {
		return nil, ErrNoHintsAvailable
	}

	index := session.CurrentHintsUsed
	session.CurrentHintsUsed++
	attempt.HintsUsed++

	penalty := e.settings.Scoring.HintPenalty
	session.TotalScore -= penalty

	return &models.HintResult{
		Hint:           q.Hints[index],
		HintIndex:      index,
		Penalty:        penalty,
		TotalScore:     session.TotalScore,
		HintsRemaining: len(q.Hints) - session.CurrentHintsUsed,
	}, nil
}

// Finalize aggregates the history into a summary and marks the session
// completed. Remedial questions count toward weakTopicScore, not the pass
// decision for the current topic.
func (e *Engine) Finalize(session *models.QuizSession) *models.QuizSummary {
	summary := &models.QuizSummary{
		SessionID:         session.ID,
		UserID:            session.UserID,
		Subject:           session.Subject,
		Year:              session.Year,
		Topic:             session.Topic,
		QuestionsAnswered: session.QuestionsAnswered,
		TotalScore:        session.TotalScore,
		FinalAbility:      session.AbilityEstimate,
		TimeSpentSeconds:  session.TimeSpentSeconds,
		WeakTopics:        append([]string{}, session.WeakTopics...),
		ByDifficulty:      map[models.Difficulty]models.DifficultyBreakdown{},
		CompletedAt:       time.Now().UTC(),
	}

	for _, rec := range session.History {
		bd := summary.ByDifficulty[rec.Difficulty]
		bd.Attempted++
		if rec.Correct {
			bd.Correct++
		}
		summary.ByDifficulty[rec.Difficulty] = bd

		if rec.Remedial {
			summary.WeakTopicQuestions++
			summary.WeakTopicScore += rec.PointsEarned
			if rec.Correct {
				summary.WeakTopicCorrect++
			}
			continue
		}
		summary.CurrentTopicQuestions++
		if rec.Correct {
			summary.CurrentTopicCorrect++
		}
	}

	if summary.CurrentTopicQuestions > 0 {
		summary.CurrentTopicPercentage = 100 * float64(summary.CurrentTopicCorrect) / float64(summary.CurrentTopicQuestions)
		summary.QuizPassed = summary.CurrentTopicPercentage >= e.settings.PassThreshold
	}

	session.IsCompleted = true
	session.CurrentQuestionID = ""
	session.CurrentIsRemedial = false

	return summary
}

func (e *Engine) updateAbility(session *models.QuizSession, difficulty models.Difficulty, correct bool) {
	step := e.settings.stepBase()
	if correct {
		session.AbilityEstimate += step * e.settings.CorrectWeights[difficulty]
	} else {
		session.AbilityEstimate -= step * e.settings.IncorrectWeights[difficulty]
	}
	session.AbilityEstimate = clamp01(session.AbilityEstimate)
}

func (e *Engine) updateWeakTopics(session *models.QuizSession, topic string, remedial, correct bool) {
	if !correct {
		session.AddWeakTopic(topic)
		if remedial {
			session.WeakTopicStreaks[topic] = 0
		}
		return
	}
	if remedial && session.HasWeakTopic(topic) {
		session.WeakTopicStreaks[topic]++
		if session.WeakTopicStreaks[topic] >= e.settings.WeakTopicClearStreak {
			session.RemoveWeakTopic(topic)
			delete(session.WeakTopicStreaks, topic)
		}
	}
}

// applyDistribution shifts the target tier when its quota of the question
// budget is already spent and a neighbor still has room.
func (e *Engine) applyDistribution(session *models.QuizSession, target models.Difficulty) models.Difficulty {
	if len(e.settings.Distribution) == 0 || session.TotalQuestions == 0 {
		return target
	}

	served := map[models.Difficulty]int{}
	for _, rec := range session.History {
		served[rec.Difficulty]++
	}

	quota := func(d models.Difficulty) int {
		share, ok := e.settings.Distribution[d]
		if !ok {
			return session.TotalQuestions
		}
		return int(math.Ceil(share * float64(session.TotalQuestions)))
	}

	if served[target] < quota(target) {
		return target
	}
	for _, candidate := range []models.Difficulty{easier(target), harder(target)} {
		if candidate != target && served[candidate] < quota(candidate) {
			return candidate
		}
	}
	return target
}

func (e *Engine) bandFor(ability float64) models.Difficulty {
	switch {
	case ability < e.settings.EasyBandMax:
		return models.DifficultyEasy
	case ability > e.settings.HardBandMin:
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}

// gradeAnswer returns the partial credit in [0,1] and whether the answer is
// fully correct. Multi-answer credit is the fraction of correct options
// selected minus the fraction of incorrect options selected, floored at 0.
func gradeAnswer(q *models.Question, answer models.SubmittedAnswer) (partial float64, correct bool) {
	if answer.IsEmpty() || len(q.CorrectAnswers) == 0 {
		return 0, false
	}

	correctSet := map[string]bool{}
	for _, id := range q.CorrectAnswers {
		correctSet[id] = true
	}

	selected := map[string]bool{}
	for _, id := range answer.Selected {
		selected[id] = true
	}

	hits := 0
	for id := range selected {
		if correctSet[id] {
			hits++
		}
	}
	misses := len(selected) - hits

	correct = hits == len(correctSet) && misses == 0
	if correct {
		return 1, true
	}

	if !q.IsMultipleAnswer() {
		return 0, false
	}

	incorrectOptions := len(q.Options) - len(correctSet)
	partial = float64(hits) / float64(len(correctSet))
	if incorrectOptions > 0 {
		partial -= float64(misses) / float64(incorrectOptions)
	} else if misses > 0 {
		partial = 0
	}
	return math.Max(0, partial), false
}

func feedbackFor(correct bool, partial float64) string {
	switch {
	case correct:
		return "Correct!"
	case partial > 0:
		return "Partially correct."
	default:
		return "Incorrect."
	}
}

func lastAnswer(session *models.QuizSession) (models.QuestionRecord, bool) {
	if len(session.History) == 0 {
		return models.QuestionRecord{}, false
	}
	return session.History[len(session.History)-1], true
}

func easier(d models.Difficulty) models.Difficulty {
	switch d {
	case models.DifficultyHard:
		return models.DifficultyMedium
	case models.DifficultyMedium:
		return models.DifficultyEasy
	}
	return models.DifficultyEasy
}

func harder(d models.Difficulty) models.Difficulty {
	switch d {
	case models.DifficultyEasy:
		return models.DifficultyMedium
	case models.DifficultyMedium:
		return models.DifficultyHard
	}
	return models.DifficultyHard
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
