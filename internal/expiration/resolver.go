// Package expiration decides how long a login cookie lives.
package expiration

import (
	"context"

	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/utility"
)

// Resolve returns the stored lifetime when one is present and numeric, and
// platformDefault otherwise. Empty and "0" values count as not configured.
// The stored value is trusted as is: no bounds are applied.
func Resolve(stored string, present bool, platformDefault int) int {
	if !present || stored == "" || stored == "0" || !utility.IsNumeric(stored) {
		return platformDefault
	}
	return utility.ToSeconds(stored)
}

// Resolver answers the lifetime override from the option store.
type Resolver struct {
	options domain.OptionRepository
}

func NewResolver(options domain.OptionRepository) *Resolver {
	return &Resolver{options: options}
}

// CookieExpiration returns the lifetime in seconds for a cookie whose
// platform default is platformDefault. A store failure is treated like an
// unset option.
func (r *Resolver) CookieExpiration(ctx context.Context, platformDefault int) int {
	v, err := r.options.GetOption(ctx, domain.ExpirationOption)
	return Resolve(v, err == nil, platformDefault)
}
