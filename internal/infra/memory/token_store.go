package memory

import (
	"context"
	"sync"

	"quizboard-service/internal/domain"
)

// TokenStore is an in-memory implementation of app.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	byKey  map[string]int64
	byUser map[int64]string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		byKey:  make(map[string]int64),
		byUser: make(map[int64]string),
	}
}

func (s *TokenStore) Issue(_ context.Context, userID int64, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byUser[userID]; ok {
		return existing, nil
	}
	s.byUser[userID] = token
	s.byKey[token] = userID
	return token, nil
}

func (s *TokenStore) Lookup(_ context.Context, token string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byKey[token]
	if !ok {
		return 0, domain.ErrUnauthenticated
	}
	return userID, nil
}

func (s *TokenStore) Revoke(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.byUser[userID]; ok {
		delete(s.byKey, token)
		delete(s.byUser, userID)
	}
	return nil
}
