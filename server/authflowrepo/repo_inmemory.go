package authflowrepo

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrEmptyState    = errors.New("state cannot be empty")
	ErrStateNotFound = errors.New("state not found")
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]AuthFlowState
	ttl    time.Duration
	now    func() time.Time
}

// NewInMemoryRepo creates a repo whose states expire after ttl
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]AuthFlowState),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return ErrEmptyState
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *authState
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	r.states[state] = stored
	return nil
}

func (r *InMemoryRepo) Take(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrEmptyState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	delete(r.states, state)

	if r.expired(authState) {
		return nil, ErrStateNotFound
	}
	return &authState, nil
}

func (r *InMemoryRepo) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, st := range r.states {
		if r.expired(st) {
			delete(r.states, key)
			removed++
		}
	}
	return removed
}

func (r *InMemoryRepo) expired(st AuthFlowState) bool {
	return r.ttl > 0 && r.now().Sub(st.CreatedAt) > r.ttl
}
