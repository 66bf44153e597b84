package favoritestore

import (
	"errors"
	"fmt"
)

// ErrSessionExpired indicates the remote store rejected the caller's session
// (401-equivalent). It is not retryable by repeating the same call.
var ErrSessionExpired = errors.New("favorite store: session expired")

// RemoteStoreError is the single failure type returned by Store implementations
// for transport, permission and backend errors. The store is a black box to the
// sync engine, so there is no further taxonomy.
type RemoteStoreError struct {
	Op  string
	Err error
}

func (e *RemoteStoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("favorite store %s failed", e.Op)
	}
	return fmt.Sprintf("favorite store %s: %v", e.Op, e.Err)
}

func (e *RemoteStoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap converts err into a *RemoteStoreError for op. It passes through nil,
// ErrSessionExpired and values that already are a *RemoteStoreError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSessionExpired) {
		return err
	}
	var rse *RemoteStoreError
	if errors.As(err, &rse) {
		return err
	}
	return &RemoteStoreError{Op: op, Err: err}
}
