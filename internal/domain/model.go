package domain

import "time"

// Preset is one of the named lifetimes offered by the settings dropdown.
type Preset struct {
	Seconds int
	Label   string
}

// Session is a logged-in admin session, stored server side and referenced
// by the session cookie.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Remember  bool      `json:"remember"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpirationRes describes the configured remember-me lifetime.
type ExpirationRes struct {
	Option  string `json:"option"`
	Value   string `json:"value"`
	Seconds int    `json:"seconds"`
	Label   string `json:"label,omitempty"`
}

// ExpirationReq updates the remember-me lifetime. Value accepts any JSON
// type; decode with UseNumber so numbers keep their literal text.
type ExpirationReq struct {
	Value any `json:"value"`
}
