package models

// ThemeMode is the colour scheme persisted for the dashboard.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// ThemeState reports the active mode and whether it came from a stored preference
// rather than the ambient system setting.
type ThemeState struct {
	Mode     ThemeMode `json:"mode"`
	Explicit bool      `json:"explicit"`
}

// TrustedUser is an entry in the static trusted-user directory.
type TrustedUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LastActive string `json:"lastActive"`
	Online     bool   `json:"online"`
}
