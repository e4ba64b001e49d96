package config

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	StorageConfig
	UnsplashConfig
	OIDCConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
	GetRoutesFile() string
	GetMCPSSEEnabled() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Storage
	Unsplash
	OIDC
}

func New() Config {
	return mainConfig{}
}
