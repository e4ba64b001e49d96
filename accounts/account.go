package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-rift-portal/sessions"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the only password rule enforced at signup
const MinPasswordLength = 8

// Provider records how an account signs in
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderOIDC     Provider = "oidc"
)

type Account struct {
	ID           string    `json:"id,omitempty" gorm:"primaryKey;size:36"`
	Email        string    `json:"email,omitempty" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-"` // Never serialize
	Provider     Provider  `json:"provider,omitempty" gorm:"size:16;not null;default:password"`
	Subject      string    `json:"-" gorm:"index;size:255"` // Subject at the external provider
	Username     string    `json:"username,omitempty" gorm:"size:32"`
	DisplayName  string    `json:"display_name,omitempty" gorm:"size:64"`
	Avatar       string    `json:"avatar,omitempty"`
	RiotID       string    `json:"riot_id,omitempty" gorm:"size:40"`
	Verified     bool      `json:"verified,omitempty" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// HasProfile reports whether onboarding produced a display name
func (a *Account) HasProfile() bool {
	return a.DisplayName != ""
}

// HasRiotAccount reports whether a Riot ID was linked
func (a *Account) HasRiotAccount() bool {
	return a.RiotID != ""
}

// Record is the session record stored for this account
func (a *Account) Record() sessions.Record {
	return sessions.Record{
		IdentityID:  a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Avatar:      a.Avatar,
	}
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword checks the signup password rule
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword compares password against the stored hash
func (a *Account) CheckPassword(password string) bool {
	return a.PasswordHash != "" && CheckPasswordHash(password, a.PasswordHash)
}
