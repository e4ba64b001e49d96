package config

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-rift-portal/internal/errors"
)

// DefaultScopeSecret only exists so DEV and TEST run without setup
const DefaultScopeSecret = "dev-only-scope-secret-change-me"

type SecurityConfig interface {
	GetScopeSecret() string
	GetScopeCookieMaxAge() time.Duration
	GetSecureCookies() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetScopeSecret is the HMAC key used to sign the browser scope cookie
func (Security) GetScopeSecret() string {
	return GetEnv("SCOPE_SECRET", DefaultScopeSecret)
}

func (Security) GetScopeCookieMaxAge() time.Duration {
	return GetEnvDuration("SCOPE_COOKIE_MAX_AGE", 365*24*time.Hour)
}

func (Security) GetSecureCookies() bool {
	return GetEnvBool("SECURE_COOKIES", false)
}

// ValidateSecurity refuses the built-in scope secret outside DEV and TEST
func ValidateSecurity(c Config) error {
	switch c.GetEnv() {
	case "DEV", "TEST":
		return nil
	}
	if c.GetScopeSecret() == DefaultScopeSecret {
		return fmt.Errorf("SCOPE_SECRET must be set when ENV=%s: %w", c.GetEnv(), errors.ErrInsecureConfig)
	}
	return nil
}
