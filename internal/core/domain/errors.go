package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuth       = errors.New("missing or invalid credential")
	ErrNetwork    = errors.New("remote request failed")
	ErrNotFound   = errors.New("remote document not found")
	ErrValidation = errors.New("validation failed")
	ErrDecode     = errors.New("payload could not be decoded")
)

var (
	ErrMissingCredentials = fmt.Errorf("%w: token and document id are required", ErrAuth)
	ErrMissingToken       = fmt.Errorf("%w: token is required", ErrAuth)
)

// SyncError is returned by RemoteStore implementations. It always unwraps to
// one of ErrAuth, ErrNetwork, ErrNotFound or ErrDecode.
type SyncError struct {
	Op     string
	Status int
	Err    error
}

func (e *SyncError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
