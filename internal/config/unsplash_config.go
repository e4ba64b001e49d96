package config

import "time"

type UnsplashConfig interface {
	GetUnsplashBaseURL() string
	GetUnsplashAccessKey() string
	GetUnsplashTimeout() time.Duration
}

type Unsplash struct{}

var _ UnsplashConfig = Unsplash{}

func (Unsplash) GetUnsplashBaseURL() string {
	return GetEnv("UNSPLASH_BASE_URL", "https://api.unsplash.com")
}

// GetUnsplashAccessKey is sent as "Client-ID <key>" on every request
func (Unsplash) GetUnsplashAccessKey() string {
	return GetEnv("UNSPLASH_ACCESS_KEY", "")
}

func (Unsplash) GetUnsplashTimeout() time.Duration {
	return GetEnvDuration("UNSPLASH_TIMEOUT", 10*time.Second)
}
