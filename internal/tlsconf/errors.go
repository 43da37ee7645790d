package tlsconf

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPrivateKey is returned when a credential source holds no supported private key.
	ErrNoPrivateKey = errors.New("no private key was provided")

	// ErrDuplicatePrivateKey is returned when a credential source holds more than one
	// supported private key. The load fails rather than picking one.
	ErrDuplicatePrivateKey = errors.New("more than one private key was provided")
)

// DirError reports a credential directory that could not be opened or listed.
type DirError struct {
	Dir string
	Err error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("failed to open TLS config directory %s: %v", e.Dir, e.Err)
}

func (e *DirError) Unwrap() error {
	return e.Err
}
