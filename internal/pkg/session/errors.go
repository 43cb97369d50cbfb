package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredential means an access token failed signature, expiry or shape checks.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredOrRevoked means a refresh token has no active durable record.
	ErrExpiredOrRevoked = errors.New("refresh token expired or revoked")
	// ErrTokenConsumed means a refresh token was already revoked by a concurrent or
	// earlier rotation.
	ErrTokenConsumed = errors.New("refresh token already consumed")
	// ErrDuplicateToken is returned by stores on a token uniqueness violation.
	ErrDuplicateToken = errors.New("duplicate refresh token")
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage unavailable")
	// ErrNoOwnerLookup is returned by Rotate when the Manager has no OwnerLookup.
	ErrNoOwnerLookup = errors.New("owner lookup not configured")
)

// StorageError wraps a cache or durable store failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorage.Error(), e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
