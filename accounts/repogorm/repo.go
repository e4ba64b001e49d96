package repogorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-rift-portal/accounts"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"gorm.io/gorm"
)

var _ accounts.Repo = (*Repo)(nil)

// Repo stores accounts through gorm (SQLite in practice)
type Repo struct {
	db *gorm.DB
}

// New migrates the accounts table and returns the repository
func New(db *gorm.DB) (*Repo, error) {
	if err := db.AutoMigrate(&accounts.Account{}); err != nil {
		return nil, fmt.Errorf("[repogorm New] migrate: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Create(ctx context.Context, account *accounts.Account) error {
	account.Email = accounts.NormalizeEmail(account.Email)
	if account.Email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrInvalidInput)
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Provider == "" {
		account.Provider = accounts.ProviderPassword
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&accounts.Account{}).Where("email = ?", account.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("[repogorm Create] lookup: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%s: %w", account.Email, apperrors.ErrAccountExists)
		}
		if err := tx.Create(account).Error; err != nil {
			return fmt.Errorf("[repogorm Create] insert: %w", err)
		}
		return nil
	})
}

func (r *Repo) Update(ctx context.Context, account *accounts.Account) error {
	account.Email = accounts.NormalizeEmail(account.Email)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing accounts.Account
		if err := tx.Where("id = ?", account.ID).First(&existing).Error; err != nil {
			return notFound(err, account.ID)
		}
		if existing.Email != account.Email {
			var count int64
			if err := tx.Model(&accounts.Account{}).Where("email = ?", account.Email).Count(&count).Error; err != nil {
				return fmt.Errorf("[repogorm Update] lookup: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%s: %w", account.Email, apperrors.ErrAccountExists)
			}
		}
		account.CreatedAt = existing.CreatedAt
		if err := tx.Save(account).Error; err != nil {
			return fmt.Errorf("[repogorm Update] save: %w", err)
		}
		return nil
	})
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	var account accounts.Account
	err := r.db.WithContext(ctx).Where("email = ?", accounts.NormalizeEmail(email)).First(&account).Error
	if err != nil {
		return nil, notFound(err, email)
	}
	return &account, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*accounts.Account, error) {
	var account accounts.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, notFound(err, id)
	}
	return &account, nil
}

func (r *Repo) GetBySubject(ctx context.Context, provider accounts.Provider, subject string) (*accounts.Account, error) {
	if subject == "" {
		return nil, fmt.Errorf("empty subject: %w", apperrors.ErrAccountNotFound)
	}
	var account accounts.Account
	err := r.db.WithContext(ctx).
		Where("provider = ? AND subject = ?", provider, subject).
		First(&account).Error
	if err != nil {
		return nil, notFound(err, subject)
	}
	return &account, nil
}

func (r *Repo) SetVerified(ctx context.Context, email string, verified bool) error {
	res := r.db.WithContext(ctx).
		Model(&accounts.Account{}).
		Where("email = ?", accounts.NormalizeEmail(email)).
		Update("verified", verified)
	if res.Error != nil {
		return fmt.Errorf("[repogorm SetVerified] %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", email, apperrors.ErrAccountNotFound)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&accounts.Account{})
	if res.Error != nil {
		return fmt.Errorf("[repogorm Delete] %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", id, apperrors.ErrAccountNotFound)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperrors.ErrAccountNotFound)
	}
	return fmt.Errorf("[repogorm] %s: %w", what, err)
}
