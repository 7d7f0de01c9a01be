package expiration

import (
	"context"
	"errors"
	"testing"

	"github.com/smallwat3r/longerlogin/internal/domain"

	"github.com/stretchr/testify/assert"
)

type stubOptions struct {
	values map[string]string
	err    error
	reads  int
}

func (s *stubOptions) GetOption(_ context.Context, key string) (string, error) {
	s.reads++
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrOptionNotFound
	}
	return v, nil
}

func (s *stubOptions) SetOption(_ context.Context, key, value string) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func TestResolve(t *testing.T) {
	const def = domain.DefaultExpiration

	testCases := []struct {
		name    string
		stored  string
		present bool
		want    int
	}{
		{"absent", "", false, def},
		{"empty", "", true, def},
		{"zero", "0", true, def},
		{"alphabetic", "abc", true, def},
		{"numeric prefix", "12abc", true, def},
		{"preset", "2630000", true, 2630000},
		{"out of preset", "999", true, 999},
		{"large", "999999999", true, 999999999},
		{"negative", "-5", true, -5},
		{"decimal truncates", "86400.9", true, 86400},
		{"exponent", "1e5", true, 100000},
		{"padded", " 604800", true, 604800},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.stored, tc.present, def))
		})
	}
}

func TestResolve_KeepsPlatformDefault(t *testing.T) {
	assert.Equal(t, 172800, Resolve("abc", true, 172800))
	assert.Equal(t, 172800, Resolve("", false, 172800))
}

func TestResolver_CookieExpiration(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		opts := &stubOptions{}
		r := NewResolver(opts)
		assert.Equal(t, 1210000, r.CookieExpiration(ctx, 1210000))
		assert.Equal(t, 1, opts.reads)
	})

	t.Run("non-numeric stored", func(t *testing.T) {
		opts := &stubOptions{values: map[string]string{domain.ExpirationOption: "abc"}}
		assert.Equal(t, 1210000, NewResolver(opts).CookieExpiration(ctx, 1210000))
	})

	t.Run("numeric stored", func(t *testing.T) {
		opts := &stubOptions{values: map[string]string{domain.ExpirationOption: "2630000"}}
		assert.Equal(t, 2630000, NewResolver(opts).CookieExpiration(ctx, 1210000))
	})

	t.Run("overrides both platform defaults", func(t *testing.T) {
		opts := &stubOptions{values: map[string]string{domain.ExpirationOption: "604800"}}
		r := NewResolver(opts)
		assert.Equal(t, 604800, r.CookieExpiration(ctx, domain.RememberedLifetime))
		assert.Equal(t, 604800, r.CookieExpiration(ctx, domain.SessionLifetime))
	})

	t.Run("store failure", func(t *testing.T) {
		opts := &stubOptions{err: errors.New("connection refused")}
		assert.Equal(t, 172800, NewResolver(opts).CookieExpiration(ctx, 172800))
	})
}
