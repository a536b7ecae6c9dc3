package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/twofactor/core"
	"github.com/dmitrymomot/twofactor/handler"
	"github.com/dmitrymomot/twofactor/pkg/binder"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

var (
	errUnauthenticated = core.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	errValidation      = core.NewHTTPError(http.StatusUnprocessableEntity, "validation")
	errCredentialState = core.NewHTTPError(http.StatusConflict, "credential_state")
	errVerification    = core.NewHTTPError(http.StatusUnauthorized, "verification_failed")
	errRateLimited     = core.NewHTTPError(http.StatusTooManyRequests, "rate_limited")
	errInternal        = core.NewHTTPError(http.StatusInternalServerError, "internal")
)

// httpError maps binder and service errors to responses. Storage and
// cipher failures fall through to errInternal; the service has already
// logged their cause.
func httpError(err error) core.HTTPError {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return errUnauthenticated
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return core.ErrUnsupportedMediaType
	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrBodyTooLarge):
		return errValidation
	}

	switch twofactor.KindOf(err) {
	case twofactor.KindValidation:
		return errValidation
	case twofactor.KindCredentialState:
		return errCredentialState
	case twofactor.KindVerification:
		return errVerification
	case twofactor.KindRateLimit:
		return errRateLimited
	default:
		return errInternal
	}
}

// exposeError reports whether the error text helps the client fix its
// request.
func exposeError(err error) bool {
	switch httpError(err) {
	case errValidation, errCredentialState:
		return true
	}
	return false
}

func errorOptions(err error) []handler.JSONOption {
	var rl *twofactor.RateLimitError
	if !errors.As(err, &rl) {
		return nil
	}
	secs := rl.RetryAfterSeconds()
	return []handler.JSONOption{
		handler.WithJSONHeader("Retry-After", strconv.Itoa(secs)),
		handler.WithJSONMeta(map[string]any{"retry_after": secs}),
	}
}
