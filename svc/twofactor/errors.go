package twofactor

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Caller-visible error kinds. Every error returned by Service matches exactly
// one of them with errors.Is.
var (
	ErrValidation         = errors.New("invalid input")
	ErrCredentialState    = errors.New("operation not allowed in current two-factor state")
	ErrVerificationFailed = errors.New("verification failed")
	ErrRateLimitExceeded  = errors.New("too many verification attempts")
	ErrStorage            = errors.New("two-factor storage failure")
	ErrCipher             = errors.New("two-factor cipher failure")
)

// Store contract errors. Service translates them before returning.
var (
	ErrNotFound        = errors.New("two-factor credential not found")
	ErrVersionConflict = errors.New("two-factor credential was modified concurrently")
	ErrAlreadyEnabled  = errors.New("two-factor credential already enabled")
)

// RateLimitError is returned when the throttle refuses an attempt.
// It matches ErrRateLimitExceeded.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrRateLimitExceeded, e.RetryAfterSeconds())
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum one.
func (e *RateLimitError) RetryAfterSeconds() int {
	return max(1, int(math.Ceil(e.RetryAfter.Seconds())))
}

// Kind classifies an error for transports that map kinds to status codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindCredentialState
	KindVerification
	KindRateLimit
	KindStorage
	KindCipher
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCredentialState:
		return "credential_state"
	case KindVerification:
		return "verification"
	case KindRateLimit:
		return "rate_limit"
	case KindStorage:
		return "storage"
	case KindCipher:
		return "cipher"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrCredentialState):
		return KindCredentialState
	case errors.Is(err, ErrVerificationFailed):
		return KindVerification
	case errors.Is(err, ErrRateLimitExceeded):
		return KindRateLimit
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrCipher):
		return KindCipher
	default:
		return KindUnknown
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
