package authflowrepo

import "time"

// AuthFlowState is what the external sign-in redirect must bring back
type AuthFlowState struct {
	Scope        string // Browser scope that started the flow
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	// Take returns the state and removes it so it can only be used once
	Take(state string) (*AuthFlowState, error)
	// Purge drops states older than the repo's time to live
	Purge() int
}
