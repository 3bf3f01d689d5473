package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested account does not exist.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateAccount indicates an account already exists for the email.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrInvalidCredentials indicates login failure. The same value is
	// returned for unknown emails and wrong passwords so callers cannot
	// probe for account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a malformed, badly signed or expired token.
	// A well signed token that no longer matches the account's token slot
	// produces no error at all: the gate simply withholds the principal.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnauthorized indicates a protected route reached without a principal.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden indicates the principal lacks the required role.
	ErrForbidden = errors.New("insufficient role")
	// ErrRateLimited indicates the per-identity quota was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNotification indicates the notify service could not deliver.
	ErrNotification = errors.New("notification delivery failed")
)

// StorageError wraps a failed database operation. The original cause is kept
// for diagnostics but never rendered to the caller verbatim.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err with the failed operation name.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
