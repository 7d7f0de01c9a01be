package auth

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/expiration"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("k", MinSecretLength))

type fixture struct {
	mr     *miniredis.Miniredis
	repo   *domain.RedisRepository
	issuer *Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	repo := domain.NewRedisRepository(rdb)
	resolver := expiration.NewResolver(repo)
	issuer, err := NewIssuer(testSecret, repo, resolver.CookieExpiration, false)
	require.NoError(t, err)

	return &fixture{mr: mr, repo: repo, issuer: issuer}
}

func (f *fixture) issue(t *testing.T, remember bool) (domain.Session, *http.Cookie) {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)

	s, err := f.issuer.Issue(context.Background(), rr, req, "admin", remember)
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return s, cookies[0]
}

func TestNewIssuer_ShortSecret(t *testing.T) {
	_, err := NewIssuer([]byte("short"), nil, nil, false)
	assert.Error(t, err)
}

func TestIssue_DefaultLifetimes(t *testing.T) {
	f := newFixture(t)

	s, cookie := f.issue(t, true)
	assert.Equal(t, domain.RememberedLifetime, cookie.MaxAge)
	assert.Equal(t, time.Duration(domain.RememberedLifetime)*time.Second, f.mr.TTL("session:"+s.ID))

	s, cookie = f.issue(t, false)
	assert.Equal(t, 0, cookie.MaxAge, "non-remembered logins get a browser-session cookie")
	assert.Equal(t, time.Duration(domain.SessionLifetime)*time.Second, f.mr.TTL("session:"+s.ID))
}

func TestIssue_ConfiguredLifetime(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.SetOption(context.Background(), domain.ExpirationOption, "2630000"))

	s, cookie := f.issue(t, true)
	assert.Equal(t, 2630000, cookie.MaxAge)
	assert.Equal(t, 2630000*time.Second, f.mr.TTL("session:"+s.ID))
	assert.Equal(t, s.IssuedAt.Add(2630000*time.Second), s.ExpiresAt)

	s, _ = f.issue(t, false)
	assert.Equal(t, 2630000*time.Second, f.mr.TTL("session:"+s.ID))
}

func TestIssue_OutOfPresetLifetime(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.SetOption(context.Background(), domain.ExpirationOption, "999"))

	s, cookie := f.issue(t, true)
	assert.Equal(t, 999, cookie.MaxAge)
	assert.Equal(t, 999*time.Second, f.mr.TTL("session:"+s.ID))
}

func TestIssue_NonNumericFallsBack(t *testing.T) {
	f := newFixture(t)
	f.mr.Set("option:"+domain.ExpirationOption, "abc")

	_, cookie := f.issue(t, true)
	assert.Equal(t, domain.RememberedLifetime, cookie.MaxAge)
}

func TestIssue_BeyondDurationRange(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.SetOption(context.Background(), domain.ExpirationOption, "99999999999"))

	s, cookie := f.issue(t, true)
	assert.Equal(t, int(maxTTLSeconds), cookie.MaxAge)
	assert.True(t, cookie.Expires.After(time.Now().AddDate(200, 0, 0)),
		"expires %v should be far in the future", cookie.Expires)
	assert.Equal(t, time.Duration(0), f.mr.TTL("session:"+s.ID))
	assert.True(t, s.ExpiresAt.IsZero())

	stored, err := f.repo.GetOption(context.Background(), domain.ExpirationOption)
	require.NoError(t, err)
	assert.Equal(t, "99999999999", stored)
}

func TestCookieMaxAge(t *testing.T) {
	assert.Equal(t, 86400, cookieMaxAge(86400))
	assert.Equal(t, int(maxTTLSeconds), cookieMaxAge(int(maxTTLSeconds)))
	assert.Equal(t, int(maxTTLSeconds), cookieMaxAge(math.MaxInt))
}

func TestIssue_NonPositiveLifetime(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.SetOption(context.Background(), domain.ExpirationOption, "-5"))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	_, err := f.issuer.Issue(context.Background(), rr, req, "admin", true)

	assert.True(t, errors.Is(err, ErrLifetimeNotPositive))
	assert.Empty(t, rr.Result().Cookies())
}

func TestCurrentAndRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, cookie := f.issue(t, true)

	req := httptest.NewRequest(http.MethodGet, "/admin/options-general", nil)
	req.AddCookie(cookie)
	got, err := f.issuer.Current(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "admin", got.Username)

	rr := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	require.NoError(t, f.issuer.Revoke(ctx, rr, req))
	assert.False(t, f.mr.Exists("session:"+s.ID))

	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)

	req = httptest.NewRequest(http.MethodGet, "/admin/options-general", nil)
	req.AddCookie(cookie)
	_, err = f.issuer.Current(ctx, req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrent_NoCookie(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := f.issuer.Current(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrent_TamperedCookie(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged"})

	_, err := f.issuer.Current(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrent_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.SetOption(context.Background(), domain.ExpirationOption, "86400"))
	_, cookie := f.issue(t, true)

	f.mr.FastForward(86401 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err := f.issuer.Current(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoSession)
}
