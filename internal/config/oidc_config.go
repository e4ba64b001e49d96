package config

type OIDCConfig interface {
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	OIDCEnabled() bool
}

// OIDC configures the optional external identity provider used by /auth/callback
type OIDC struct{}

var _ OIDCConfig = OIDC{}

func (OIDC) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (OIDC) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (OIDC) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (o OIDC) OIDCEnabled() bool {
	return o.GetOIDCIssuer() != "" && o.GetOIDCClientID() != ""
}
