package store

import (
	"context"
	"encoding/json"
	"sync"

	"mykafa-quiz-service/internal/models"
)

// MemoryStore keeps sessions in a process-local map. Sessions are stored as
// deep copies so callers cannot mutate shared state behind the store's back.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*models.QuizSession, error) {
	m.mu.RLock()
	raw, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var session models.QuizSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *MemoryStore) Put(_ context.Context, session *models.QuizSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[session.ID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}
