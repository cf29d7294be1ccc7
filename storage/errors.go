package storage

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("storage: record not found")

	// ErrDuplicateKey is returned when creating a uniquely-keyed record
	// whose identifier already exists. Regeneration is the caller's
	// responsibility; backends never overwrite.
	ErrDuplicateKey = errors.New("storage: duplicate key")

	// ErrCodeAlreadyUsed is returned by ConsumeAuthorizationCode when the
	// code was already consumed, including by a concurrent exchange.
	ErrCodeAlreadyUsed = errors.New("storage: authorization code already used")
)
