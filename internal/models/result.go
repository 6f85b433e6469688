package models

import "time"

// AnswerResult is returned for every answer submission. A wholly wrong
// submission may leave the question open for another attempt; Retired tells
// the client whether the question has been consumed.
type AnswerResult struct {
	IsCorrect          bool     `json:"is_correct"`
	PartialCredit      float64  `json:"partial_credit"`
	BaseScore          float64  `json:"base_score"`
	TimeBonus          float64  `json:"time_bonus"`
	TotalPoints        float64  `json:"total_points"`
	AnsweredWithinTime bool     `json:"answered_within_time"`
	Feedback           string   `json:"feedback"`
	AbilityEstimate    float64  `json:"ability_estimate"`
	IsWeakTopicQuestion bool    `json:"is_weak_topic_question"`
	Retired            bool     `json:"retired"`
	AttemptsRemaining  int      `json:"attempts_remaining"`
	SessionCompleted   bool     `json:"session_completed"`
	SessionProgress    Progress `json:"session_progress"`
	TotalScore         float64  `json:"total_score"`
}

// HintResult is returned when a hint is dispensed.
type HintResult struct {
	Hint           string  `json:"hint"`
	HintIndex      int     `json:"hint_index"`
	Penalty        float64 `json:"penalty"`
	TotalScore     float64 `json:"total_score"`
	HintsRemaining int     `json:"hints_remaining"`
}

// DifficultyBreakdown counts served questions per difficulty tier.
type DifficultyBreakdown struct {
	Attempted int `bson:"attempted" json:"attempted"`
	Correct   int `bson:"correct" json:"correct"`
}

// QuizSummary is the finalized view of a completed session. Remedial
// questions are tracked apart from the current topic so weak-topic practice
// does not distort the pass decision.
type QuizSummary struct {
	SessionID              string                             `bson:"session_id" json:"session_id"`
	UserID                 string                             `bson:"user_id" json:"user_id"`
	Subject                string                             `bson:"subject" json:"subject"`
	Year                   int                                `bson:"year" json:"year"`
	Topic                  string                             `bson:"topic" json:"topic"`
	QuestionsAnswered      int                                `bson:"questions_answered" json:"questions_answered"`
	CurrentTopicQuestions  int                                `bson:"current_topic_questions" json:"current_topic_questions"`
	CurrentTopicCorrect    int                                `bson:"current_topic_correct" json:"current_topic_correct"`
	CurrentTopicPercentage float64                            `bson:"current_topic_percentage" json:"current_topic_percentage"`
	WeakTopicQuestions     int                                `bson:"weak_topic_questions" json:"weak_topic_questions"`
	WeakTopicCorrect       int                                `bson:"weak_topic_correct" json:"weak_topic_correct"`
	WeakTopicScore         float64                            `bson:"weak_topic_score" json:"weak_topic_score"`
	QuizPassed             bool                               `bson:"quiz_passed" json:"quiz_passed"`
	TotalScore             float64                            `bson:"total_score" json:"total_score"`
	FinalAbility           float64                            `bson:"final_ability" json:"final_ability"`
	TimeSpentSeconds       int                                `bson:"time_spent_seconds" json:"time_spent_seconds"`
	WeakTopics             []string                           `bson:"weak_topics" json:"weak_topics"`
	ByDifficulty           map[Difficulty]DifficultyBreakdown `bson:"by_difficulty" json:"by_difficulty"`
	CompletedAt            time.Time                          `bson:"completed_at" json:"completed_at"`
}
