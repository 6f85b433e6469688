package models

import "time"

// QuestionRecord is one entry of the ordered answer log. A question id
// appears at most once per session.
type QuestionRecord struct {
	QuestionID       string     `bson:"question_id" json:"question_id"`
	Topic            string     `bson:"topic" json:"topic"`
	Difficulty       Difficulty `bson:"difficulty" json:"difficulty"`
	Correct          bool       `bson:"correct" json:"correct"`
	PartialCredit    float64    `bson:"partial_credit" json:"partial_credit"`
	PointsEarned     float64    `bson:"points_earned" json:"points_earned"`
	TimeSpentSeconds int        `bson:"time_spent_seconds" json:"time_spent_seconds"`
	HintsUsed        int        `bson:"hints_used" json:"hints_used"`
	Remedial         bool       `bson:"remedial" json:"remedial"`
}

// QuestionAttempt tracks in-session state for a single question: how many
// wrong submissions were made (gates hint visibility) and whether the
// question has been retired into the history.
type QuestionAttempt struct {
	WrongSubmissions int  `bson:"wrong_submissions" json:"wrong_submissions"`
	HintsUsed        int  `bson:"hints_used" json:"hints_used"`
	Retired          bool `bson:"retired" json:"retired"`
}

type QuizSession struct {
	ID                string     `bson:"_id,omitempty" json:"id"`
	UserID            string     `bson:"user_id" json:"user_id"`
	Subject           string     `bson:"subject" json:"subject"`
	Year              int        `bson:"year" json:"year"`
	Topic             string     `bson:"topic" json:"topic"`
	TotalQuestions    int        `bson:"total_questions" json:"total_questions"`
	AbilityEstimate   float64    `bson:"ability_estimate" json:"ability_estimate"`
	ConsecutiveWrong  int        `bson:"consecutive_wrong" json:"consecutive_wrong"`
	CurrentHintsUsed  int        `bson:"current_hints_used" json:"current_hints_used"`
	QuestionsAnswered int        `bson:"questions_answered" json:"questions_answered"`
	TotalScore        float64    `bson:"total_score" json:"total_score"`
	TimeSpentSeconds  int        `bson:"time_spent_seconds" json:"time_spent_seconds"`
	IsCompleted       bool       `bson:"is_completed" json:"is_completed"`
	WeakTopics        []string   `bson:"weak_topics" json:"weak_topics"`
	History           []QuestionRecord `bson:"history" json:"history"`

	// Current question state, reset each time a new question is served.
	CurrentQuestionID string `bson:"current_question_id" json:"current_question_id"`
	CurrentIsRemedial bool   `bson:"current_is_remedial" json:"current_is_remedial"`

	Attempts map[string]*QuestionAttempt `bson:"attempts" json:"attempts"`

	// Consecutive correct remedial answers per weak topic, used to decide
	// when a flagged topic has been remediated.
	WeakTopicStreaks map[string]int `bson:"weak_topic_streaks" json:"weak_topic_streaks"`

	StartedAt time.Time `bson:"started_at" json:"started_at"`
}

func NewQuizSession(id, userID, subject string, year int, topic string, totalQuestions int, ability float64, weakTopics []string) *QuizSession {
	if weakTopics == nil {
		weakTopics = []string{}
	}
	return &QuizSession{
		ID:               id,
		UserID:           userID,
		Subject:          subject,
		Year:             year,
		Topic:            topic,
		TotalQuestions:   totalQuestions,
		AbilityEstimate:  ability,
		WeakTopics:       weakTopics,
		History:          []QuestionRecord{},
		Attempts:         map[string]*QuestionAttempt{},
		WeakTopicStreaks: map[string]int{},
		StartedAt:        time.Now().UTC(),
	}
}

// HasAnswered reports whether the question has already been retired into the
// history for this session.
func (s *QuizSession) HasAnswered(questionID string) bool {
	for _, rec := range s.History {
		if rec.QuestionID == questionID {
			return true
		}
	}
	return false
}

// UsedQuestionIDs returns every question id that must not be served again:
// retired questions plus the currently served one.
func (s *QuizSession) UsedQuestionIDs() []string {
	ids := make([]string, 0, len(s.History)+1)
	for _, rec := range s.History {
		ids = append(ids, rec.QuestionID)
	}
	if s.CurrentQuestionID != "" {
		ids = append(ids, s.CurrentQuestionID)
	}
	return ids
}

func (s *QuizSession) HasWeakTopic(topic string) bool {
	for _, t := range s.WeakTopics {
		if t == topic {
			return true
		}
	}
	return false
}

func (s *QuizSession) AddWeakTopic(topic string) {
	if topic == "" || s.HasWeakTopic(topic) {
		return
	}
	s.WeakTopics = append(s.WeakTopics, topic)
}

func (s *QuizSession) RemoveWeakTopic(topic string) {
	for i, t := range s.WeakTopics {
		if t == topic {
			s.WeakTopics = append(s.WeakTopics[:i], s.WeakTopics[i+1:]...)
			return
		}
	}
}

// AttemptFor returns the attempt record for a question, creating it on first
// access.
func (s *QuizSession) AttemptFor(questionID string) *QuestionAttempt {
	if s.Attempts == nil {
		s.Attempts = map[string]*QuestionAttempt{}
	}
	att, ok := s.Attempts[questionID]
	if !ok {
		att = &QuestionAttempt{}
		s.Attempts[questionID] = att
	}
	return att
}

func (s *QuizSession) Progress() Progress {
	return Progress{
		Current:         s.QuestionsAnswered,
		Total:           s.TotalQuestions,
		AbilityEstimate: s.AbilityEstimate,
	}
}
