package models

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Rank orders difficulties so the selector can fall back to the nearest tier.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	}
	return 1
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type Question struct {
	ID               string     `bson:"_id,omitempty" json:"id"`
	Text             string     `bson:"text" json:"text"`
	Type             string     `bson:"type" json:"type"` // "single" or "multiple"
	Options          []Option   `bson:"options" json:"options"`
	CorrectAnswers   []string   `bson:"correct_answers" json:"correct_answers"`
	Difficulty       Difficulty `bson:"difficulty" json:"difficulty"`
	Subject          string     `bson:"subject" json:"subject"`
	Year             int        `bson:"year" json:"year"`
	Topic            string     `bson:"topic" json:"topic"`
	Hints            []string   `bson:"hints" json:"hints"`
	TimeLimitSeconds int        `bson:"time_limit_seconds" json:"time_limit_seconds"`
	Points           int        `bson:"points" json:"points"`
	IsActive         bool       `bson:"is_active" json:"is_active"`
}

func (q *Question) IsMultipleAnswer() bool {
	return q.Type == "multiple"
}

// QuestionView is the client-facing shape of a question. The correct answers
// stay server-side; hints are dispensed one at a time so only the count is
// exposed here.
type QuestionView struct {
	ID                  string     `json:"id"`
	Text                string     `json:"text"`
	Type                string     `json:"type"`
	Options             []Option   `json:"options"`
	Difficulty          Difficulty `json:"difficulty"`
	Topic               string     `json:"topic"`
	HintCount           int        `json:"hint_count"`
	TimeLimitSeconds    int        `json:"time_limit_seconds"`
	Points              int        `json:"points"`
	IsWeakTopicQuestion bool       `json:"is_weak_topic_question"`
	Progress            Progress   `json:"progress"`
}

// Progress reports where the session stands.
type Progress struct {
	Current         int     `json:"current"`
	Total           int     `json:"total"`
	AbilityEstimate float64 `json:"ability_estimate"`
}

// View builds the client-facing shape of q.
func (q *Question) View(remedial bool, progress Progress) *QuestionView {
	return &QuestionView{
		ID:                  q.ID,
		Text:                q.Text,
		Type:                q.Type,
		Options:             q.Options,
		Difficulty:          q.Difficulty,
		Topic:               q.Topic,
		HintCount:           len(q.Hints),
		TimeLimitSeconds:    q.TimeLimitSeconds,
		Points:              q.Points,
		IsWeakTopicQuestion: remedial,
		Progress:            progress,
	}
}
