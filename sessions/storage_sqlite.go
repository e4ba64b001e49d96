package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Expirer = (*SQLiteStorage)(nil)
)

// ScopeValue is one key of one browser scope
type ScopeValue struct {
	Scope     string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"primaryKey;size:64"`
	Value     []byte
	UpdatedAt time.Time `gorm:"index"`
}

func (ScopeValue) TableName() string {
	return "scope_values"
}

// SQLiteStorage keeps scopes in a gorm database (SQLite in practice)
type SQLiteStorage struct {
	db      *gorm.DB
	idleTTL time.Duration
	now     func() time.Time
}

// NewSQLiteStorage migrates the scope_values table and returns the storage
func NewSQLiteStorage(db *gorm.DB, idleTTL time.Duration) (*SQLiteStorage, error) {
	if err := db.AutoMigrate(&ScopeValue{}); err != nil {
		return nil, fmt.Errorf("[sessions NewSQLiteStorage] migrate: %w", err)
	}
	return &SQLiteStorage{
		db:      db,
		idleTTL: idleTTL,
		now:     time.Now,
	}, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var row ScopeValue
	err := s.db.WithContext(ctx).
		Where("scope = ? AND name = ?", scope, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("key %s: %w", key, apperrors.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	if err := s.touch(ctx, scope); err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, scope, key string, value []byte) error {
	if scope == "" {
		return apperrors.ErrInvalidScope
	}
	row := ScopeValue{
		Scope:     scope,
		Name:      key,
		Value:     value,
		UpdatedAt: s.now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return s.touch(ctx, scope)
}

// touch moves every key of the scope to now so the scope ages as one unit
func (s *SQLiteStorage) touch(ctx context.Context, scope string) error {
	err := s.db.WithContext(ctx).
		Model(&ScopeValue{}).
		Where("scope = ?", scope).
		UpdateColumn("updated_at", s.now()).Error
	if err != nil {
		return fmt.Errorf("sqlite touch: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, scope, key string) error {
	err := s.db.WithContext(ctx).
		Where("scope = ? AND name = ?", scope, key).
		Delete(&ScopeValue{}).Error
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// CleanupExpired removes scopes whose last read or write is older than the idle TTL
func (s *SQLiteStorage) CleanupExpired(ctx context.Context) (int, error) {
	if s.idleTTL <= 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("updated_at < ?", s.now().Add(-s.idleTTL)).
		Delete(&ScopeValue{})
	if res.Error != nil {
		return 0, fmt.Errorf("sqlite cleanup: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Close is a no-op, the database handle belongs to the caller
func (s *SQLiteStorage) Close() error {
	return nil
}
