package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

// ErrUnauthenticated means the request carries no usable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityResolver extracts the authenticated user from a request. The
// handler never authenticates users itself.
type IdentityResolver interface {
	Resolve(r *http.Request) (twofactor.Identity, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(r *http.Request) (twofactor.Identity, error)

func (f IdentityResolverFunc) Resolve(r *http.Request) (twofactor.Identity, error) {
	return f(r)
}

// Default headers set by an authenticating gateway.
const (
	DefaultUserIDHeader      = "X-User-ID"
	DefaultAccountNameHeader = "X-User-Email"
)

// HeaderIdentityResolver trusts identity headers injected by an upstream
// gateway. Only use it when clients cannot reach the service directly.
type HeaderIdentityResolver struct {
	UserIDHeader      string
	AccountNameHeader string
}

// NewHeaderIdentityResolver returns a resolver reading the default headers.
func NewHeaderIdentityResolver() HeaderIdentityResolver {
	return HeaderIdentityResolver{
		UserIDHeader:      DefaultUserIDHeader,
		AccountNameHeader: DefaultAccountNameHeader,
	}
}

func (h HeaderIdentityResolver) Resolve(r *http.Request) (twofactor.Identity, error) {
	uid := strings.TrimSpace(r.Header.Get(h.UserIDHeader))
	if uid == "" {
		return twofactor.Identity{}, ErrUnauthenticated
	}
	return twofactor.Identity{
		UserID:      uid,
		AccountName: strings.TrimSpace(r.Header.Get(h.AccountNameHeader)),
	}, nil
}
