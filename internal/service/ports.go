package service

import (
	"context"

	"mykafa-quiz-service/internal/models"
)

// QuestionCatalog is the read-only content store the engine selects from.
type QuestionCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	FindByTopic(ctx context.Context, subject string, year int, topic string) ([]models.Question, error)
	FindByTopics(ctx context.Context, subject string, year int, topics []string) ([]models.Question, error)
	CountByTopic(ctx context.Context, subject string, year int, topic string) (int64, error)
}

// AbilityStore persists the per-(user, subject, year) ability estimate.
type AbilityStore interface {
	Get(ctx context.Context, userID, subject string, year int) (float64, bool, error)
	Set(ctx context.Context, userID, subject string, year int, ability float64) error
}

// WeakTopicStore persists the set of topics flagged for remediation per user.
type WeakTopicStore interface {
	Get(ctx context.Context, userID string) ([]string, error)
	Update(ctx context.Context, userID string, topics []string) error
}

// ResultArchive stores finalized session summaries.
type ResultArchive interface {
	Create(ctx context.Context, summary *models.QuizSummary) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.QuizSummary, error)
	FindByUser(ctx context.Context, userID string, limit int64) ([]models.QuizSummary, error)
}

// EventSink publishes domain events. A nil sink disables publishing.
type EventSink interface {
	Publish(eventType string, payload any) error
}
