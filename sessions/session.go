package sessions

import "github.com/jrsteele09/go-rift-portal/internal/utils"

// RecordKey is the storage key the session record is kept under, inside each browser scope
const RecordKey = "user"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences are the user's UI choices
type Preferences struct {
	Theme         Theme `json:"theme,omitempty"`
	Notifications *bool `json:"notifications,omitempty"`
}

// Record is the signed-in identity of a browser. A stored record means the browser is authenticated.
type Record struct {
	IdentityID  string       `json:"identity_id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// HasProfile reports whether onboarding has produced a display name
func (r Record) HasProfile() bool {
	return r.DisplayName != ""
}

// NotificationsEnabled defaults to true when the preference was never set
func (r Record) NotificationsEnabled() bool {
	if r.Preferences == nil {
		return true
	}
	return utils.ValueOr(r.Preferences.Notifications, true)
}

// ThemeOrDefault returns the chosen theme, light when unset
func (r Record) ThemeOrDefault() Theme {
	if r.Preferences == nil || r.Preferences.Theme == "" {
		return ThemeLight
	}
	return r.Preferences.Theme
}
