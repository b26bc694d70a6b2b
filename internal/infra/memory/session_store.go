package memory

import (
	"context"
	"sync"

	"ffquiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionRecord
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.SessionRecord),
	}
}

func (s *SessionStore) Load(_ context.Context, userID string) (domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[userID]
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return copyRecord(rec), nil
}

func (s *SessionStore) Save(_ context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.UserID] = copyRecord(rec)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func copyRecord(rec domain.SessionRecord) domain.SessionRecord {
	if rec.Selected != nil {
		v := *rec.Selected
		rec.Selected = &v
	}
	if rec.Result != nil {
		r := *rec.Result
		rec.Result = &r
	}
	return rec
}
