// Package service holds the use cases of the booking platform.  Services
// take the acting account explicitly, consult the access predicates and
// translate storage failures into the error taxonomy below.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/advocate-booking/internal/repository"
)

var (
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrNotFound          = errors.New("not found")
	ErrBadCredential     = errors.New("bad credential")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyReviewed   = errors.New("booking already reviewed")
	ErrNotCompleted      = errors.New("booking not completed")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAdvocateInactive  = errors.New("advocate is not active")
	ErrPaymentInvalid    = errors.New("payment verification failed")
)

// invalid wraps ErrInvalidInput with a field-level message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound maps repository.ErrNotFound onto ErrNotFound and passes every
// other error through.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
