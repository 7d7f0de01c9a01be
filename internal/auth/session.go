// Package auth issues and checks admin login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/smallwat3r/longerlogin/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	// CookieName is the name of the session cookie.
	CookieName   = "longerlogin_session"
	sessionIDKey = "sid"

	// MinSecretLength is the minimum size of the cookie signing secret.
	MinSecretLength = 32

	// longest lifetime representable as a time.Duration
	maxTTLSeconds = math.MaxInt64 / int64(time.Second)
)

var (
	// ErrNoSession is returned when the request carries no valid session.
	ErrNoSession = errors.New("no session")

	// ErrLifetimeNotPositive is returned when the configured lifetime would
	// expire the session before it is used.
	ErrLifetimeNotPositive = errors.New("session lifetime is not positive")
)

// ExpirationFunc returns the cookie lifetime in seconds given the platform
// default for the kind of login.
type ExpirationFunc func(ctx context.Context, platformDefault int) int

// Issuer creates, reads and revokes admin sessions.
type Issuer struct {
	cookies    *sessions.CookieStore
	repo       domain.SessionRepository
	expiration ExpirationFunc
	secure     bool
	now        func() time.Time
}

// NewIssuer returns an Issuer signing cookies with secret. Cookies are marked
// Secure when secure is set.
func NewIssuer(secret []byte, repo domain.SessionRepository, expiration ExpirationFunc, secure bool) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	cookies := sessions.NewCookieStore(secret)
	// expiry is enforced by the session TTL, not the cookie timestamp
	cookies.MaxAge(0)

	return &Issuer{
		cookies:    cookies,
		repo:       repo,
		expiration: expiration,
		secure:     secure,
		now:        time.Now,
	}, nil
}

// Issue starts a session for username. The lifetime comes from the
// expiration func, offered two weeks for remembered logins and two days
// otherwise. Remembered sessions get a persistent cookie of that lifetime;
// others get a browser-session cookie while the server side still expires
// after the lifetime.
func (i *Issuer) Issue(ctx context.Context, w http.ResponseWriter, r *http.Request, username string, remember bool) (domain.Session, error) {
	platformDefault := domain.SessionLifetime
	if remember {
		platformDefault = domain.RememberedLifetime
	}
	lifetime := i.expiration(ctx, platformDefault)
	if lifetime <= 0 {
		return domain.Session{}, ErrLifetimeNotPositive
	}

	now := i.now().UTC()
	s := domain.Session{
		ID:       uuid.NewString(),
		Username: username,
		Remember: remember,
		IssuedAt: now,
	}

	var ttl time.Duration
	if int64(lifetime) < maxTTLSeconds {
		ttl = time.Duration(lifetime) * time.Second
		s.ExpiresAt = now.Add(ttl)
	}
	// ttl stays zero beyond the Duration range: the session never expires

	if err := i.repo.StoreSession(ctx, s, ttl); err != nil {
		return domain.Session{}, err
	}

	// a stale or tampered cookie decodes to a fresh session
	cs, _ := i.cookies.Get(r, CookieName)
	cs.Values[sessionIDKey] = s.ID
	cs.Options = i.cookieOptions(0)
	if remember {
		cs.Options.MaxAge = cookieMaxAge(lifetime)
	}

	if err := cs.Save(r, w); err != nil {
		return domain.Session{}, fmt.Errorf("save cookie: %w", err)
	}
	return s, nil
}

// cookieMaxAge caps lifetime so the cookie Expires attribute stays within the
// Duration range. The stored option is left as configured.
func cookieMaxAge(lifetime int) int {
	if int64(lifetime) > maxTTLSeconds {
		return int(maxTTLSeconds)
	}
	return lifetime
}

// Current returns the session referenced by the request cookie.
func (i *Issuer) Current(ctx context.Context, r *http.Request) (domain.Session, error) {
	id, ok := i.sessionID(r)
	if !ok {
		return domain.Session{}, ErrNoSession
	}
	s, err := i.repo.GetSession(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, ErrNoSession
	}
	return s, err
}

// Revoke deletes the server-side session and clears the cookie.
func (i *Issuer) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if id, ok := i.sessionID(r); ok {
		if err := i.repo.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}

	cs, _ := i.cookies.New(r, CookieName)
	cs.Options = i.cookieOptions(-1)
	return cs.Save(r, w)
}

func (i *Issuer) sessionID(r *http.Request) (string, bool) {
	cs, err := i.cookies.Get(r, CookieName)
	if err != nil || cs.IsNew {
		return "", false
	}
	id, ok := cs.Values[sessionIDKey].(string)
	return id, ok && id != ""
}

func (i *Issuer) cookieOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
