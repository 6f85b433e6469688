// Package store holds live session state. The engine never touches a global
// registry; a SessionStore is injected into the service so tests can run
// against the in-memory implementation and deployments can share state
// through redis.
package store

import (
	"context"
	"errors"

	"mykafa-quiz-service/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.QuizSession, error)
	Put(ctx context.Context, session *models.QuizSession) error
	Delete(ctx context.Context, sessionID string) error
}
