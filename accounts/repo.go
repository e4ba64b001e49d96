package accounts

import "context"

// Repo stores accounts. Emails are compared after NormalizeEmail.
type Repo interface {
	// Create assigns an ID when empty and fails with ErrAccountExists on a taken email
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	GetBySubject(ctx context.Context, provider Provider, subject string) (*Account, error)
	SetVerified(ctx context.Context, email string, verified bool) error
	// Delete fails with ErrAccountNotFound for an unknown id
	Delete(ctx context.Context, id string) error
}
