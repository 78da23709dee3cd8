// Package session holds the per-session working set: current state, the
// compare state of the last comparison and the turn history.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/history"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// ErrNoID is returned when a session without an ID is stored.
var ErrNoID = errors.New("session id required")

// #region session
// Session is read and rewritten once per turn.
type Session struct {
	ID           string                   `json:"id"`
	UserID       string                   `json:"user_id"`
	State        state.ConversationState  `json:"state"`
	CompareState *state.ConversationState `json:"compare_state,omitempty"`
	History      history.History          `json:"history"`
	Turns        int                      `json:"turns"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// New returns an empty session.
func New(id, userID string) Session {
	return Session{ID: id, UserID: userID, History: history.History{}}
}

// #endregion session

// #region store
// Store persists sessions between turns. Get reports false for unknown IDs.
type Store interface {
	Get(ctx context.Context, id string) (Session, bool, error)
	Put(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

// #endregion store

// #region memory
// MemoryStore keeps sessions in process. Used by the CLI, replay and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false, nil
	}
	s.History = append(history.History(nil), s.History...)
	if s.CompareState != nil {
		cs := *s.CompareState
		s.CompareState = &cs
	}
	return s, true, nil
}

func (m *MemoryStore) Put(_ context.Context, s Session) error {
	if s.ID == "" {
		return ErrNoID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// #endregion memory
