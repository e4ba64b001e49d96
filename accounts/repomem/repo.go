package repomem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-rift-portal/accounts"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
)

var _ accounts.Repo = (*Repo)(nil)

// Repo is an in-memory account store. It hands out copies so callers can't mutate stored accounts.
type Repo struct {
	accounts map[string]*accounts.Account
	emailIds map[string]string // email to account id
	lock     sync.RWMutex
}

func New() *Repo {
	return &Repo{
		accounts: make(map[string]*accounts.Account),
		emailIds: make(map[string]string),
	}
}

func (r *Repo) Create(_ context.Context, account *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	account.Email = accounts.NormalizeEmail(account.Email)
	if account.Email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrInvalidInput)
	}
	if _, taken := r.emailIds[account.Email]; taken {
		return fmt.Errorf("%s: %w", account.Email, apperrors.ErrAccountExists)
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Provider == "" {
		account.Provider = accounts.ProviderPassword
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := *account
	r.accounts[account.ID] = &stored
	r.emailIds[account.Email] = account.ID
	return nil
}

func (r *Repo) Update(_ context.Context, account *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	existing, ok := r.accounts[account.ID]
	if !ok {
		return fmt.Errorf("%s: %w", account.ID, apperrors.ErrAccountNotFound)
	}
	account.Email = accounts.NormalizeEmail(account.Email)
	if account.Email != existing.Email {
		if _, taken := r.emailIds[account.Email]; taken {
			return fmt.Errorf("%s: %w", account.Email, apperrors.ErrAccountExists)
		}
		delete(r.emailIds, existing.Email)
		r.emailIds[account.Email] = account.ID
	}
	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = time.Now().UTC()

	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *Repo) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.emailIds[accounts.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", email, apperrors.ErrAccountNotFound)
	}
	out := *r.accounts[id]
	return &out, nil
}

func (r *Repo) GetByID(_ context.Context, id string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, apperrors.ErrAccountNotFound)
	}
	out := *account
	return &out, nil
}

func (r *Repo) GetBySubject(_ context.Context, provider accounts.Provider, subject string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, account := range r.accounts {
		if account.Provider == provider && account.Subject == subject && subject != "" {
			out := *account
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%s/%s: %w", provider, subject, apperrors.ErrAccountNotFound)
}

func (r *Repo) SetVerified(_ context.Context, email string, verified bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	id, ok := r.emailIds[accounts.NormalizeEmail(email)]
	if !ok {
		return fmt.Errorf("%s: %w", email, apperrors.ErrAccountNotFound)
	}
	r.accounts[id].Verified = verified
	r.accounts[id].UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	existing, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, apperrors.ErrAccountNotFound)
	}
	delete(r.emailIds, existing.Email)
	delete(r.accounts, id)
	return nil
}
