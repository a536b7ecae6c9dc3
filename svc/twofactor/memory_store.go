package twofactor

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is a Store kept in process memory. It is meant for tests and
// single-process development setups.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]*Credential
	attempts    []Attempt
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{credentials: make(map[string]*Credential)}
}

func (s *MemoryStore) GetCredential(_ context.Context, userID string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cred.Clone(), nil
}

func (s *MemoryStore) CreatePending(_ context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := int64(1)
	if existing, ok := s.credentials[cred.UserID]; ok {
		if existing.Enabled {
			return ErrAlreadyEnabled
		}
		version = existing.Version + 1
	}

	cred.Version = version
	s.credentials[cred.UserID] = cred.Clone()
	return nil
}

func (s *MemoryStore) UpdateCredential(_ context.Context, cred *Credential, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.credentials[cred.UserID]
	if !ok || existing.Version != expectedVersion {
		return ErrVersionConflict
	}

	cred.Version = expectedVersion + 1
	s.credentials[cred.UserID] = cred.Clone()
	return nil
}

func (s *MemoryStore) DeleteCredential(_ context.Context, userID string, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.credentials[userID]
	if !ok || existing.Version != expectedVersion {
		return ErrVersionConflict
	}

	delete(s.credentials, userID)
	return nil
}

func (s *MemoryStore) RecordAttempt(_ context.Context, attempt Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts = append(s.attempts, attempt)
	return nil
}

// Attempts returns the recorded attempts of userID in insertion order.
func (s *MemoryStore) Attempts(userID string) []Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.DeleteFunc(slices.Clone(s.attempts), func(a Attempt) bool {
		return a.UserID != userID
	})
}

// PruneAttempts drops attempts created before cutoff.
func (s *MemoryStore) PruneAttempts(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.attempts)
	s.attempts = slices.DeleteFunc(s.attempts, func(a Attempt) bool {
		return a.CreatedAt.Before(cutoff)
	})
	return int64(before - len(s.attempts)), nil
}
