package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrBackendUnavailable wraps any failure of the key-value backend.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrMalformedRecord is returned when a stored value cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrConflict is returned when an atomic update kept losing to concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
)

func backendErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}

func malformedErr(key string, err error) error {
	return fmt.Errorf("decode %s: %w: %w", key, ErrMalformedRecord, err)
}
