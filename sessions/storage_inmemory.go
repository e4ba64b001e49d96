package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
)

var (
	_ Storage = (*InMemoryStorage)(nil)
	_ Expirer = (*InMemoryStorage)(nil)
)

type scopeEntry struct {
	values  map[string][]byte
	touched time.Time
}

// InMemoryStorage keeps every browser scope in process memory
type InMemoryStorage struct {
	mu      sync.RWMutex
	scopes  map[string]*scopeEntry
	idleTTL time.Duration
	closed  bool
	now     func() time.Time
}

// NewInMemoryStorage creates an in-memory storage. Scopes neither read nor written for idleTTL are
// swept by CleanupExpired; a zero idleTTL keeps them forever.
func NewInMemoryStorage(idleTTL time.Duration) *InMemoryStorage {
	return &InMemoryStorage{
		scopes:  make(map[string]*scopeEntry),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

func (s *InMemoryStorage) Get(_ context.Context, scope, key string) ([]byte, error) {
	// Reads refresh the idle clock
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, apperrors.ErrStoreClosed
	}
	entry, ok := s.scopes[scope]
	if !ok {
		return nil, fmt.Errorf("scope %s: %w", scope, apperrors.ErrSessionNotFound)
	}
	value, ok := entry.values[key]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, apperrors.ErrSessionNotFound)
	}
	entry.touched = s.now()

	// Copy so callers can't mutate stored bytes
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *InMemoryStorage) Set(_ context.Context, scope, key string, value []byte) error {
	if scope == "" {
		return apperrors.ErrInvalidScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrStoreClosed
	}
	entry, ok := s.scopes[scope]
	if !ok {
		entry = &scopeEntry{values: make(map[string][]byte)}
		s.scopes[scope] = entry
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	entry.values[key] = stored
	entry.touched = s.now()
	return nil
}

func (s *InMemoryStorage) Delete(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrStoreClosed
	}
	entry, ok := s.scopes[scope]
	if !ok {
		return nil // Already doesn't exist, no error
	}
	delete(entry.values, key)

	// Clean up empty scope map
	if len(entry.values) == 0 {
		delete(s.scopes, scope)
	}
	return nil
}

// CleanupExpired drops scopes that have not been used for longer than the idle TTL
func (s *InMemoryStorage) CleanupExpired(_ context.Context) (int, error) {
	if s.idleTTL <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	removed := 0
	for scope, entry := range s.scopes {
		if entry.touched.Before(cutoff) {
			delete(s.scopes, scope)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.scopes = make(map[string]*scopeEntry)
	return nil
}
