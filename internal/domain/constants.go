package domain

import "time"

const (
	// ExpirationOption is the option key holding the remember-me lifetime in
	// seconds.
	ExpirationOption = "lolo_login_expiration_length"

	// DefaultExpiration is the lifetime stored when a submission is not
	// numeric, and the preset selected when nothing is stored (two weeks).
	DefaultExpiration = 1210000

	// RememberedLifetime and SessionLifetime are the platform defaults offered
	// to the lifetime override, with and without "remember me".
	RememberedLifetime = 14 * 24 * 60 * 60
	SessionLifetime    = 2 * 24 * 60 * 60

	// GeneralPage is the settings page the expiration field is shown on.
	GeneralPage = "general"

	// MaxRequestBodySize is the maximum allowed request body size.
	MaxRequestBodySize = 16 * 1024

	// MaxLoginAttempts is the number of login POSTs allowed per window and
	// client before requests are rejected.
	MaxLoginAttempts = 10

	// LoginAttemptWindow is the window MaxLoginAttempts applies to.
	LoginAttemptWindow = 15 * time.Minute
)
