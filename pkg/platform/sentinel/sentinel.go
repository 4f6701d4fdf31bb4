// Package sentinel holds the errors stores and adapters return. Services
// match them with errors.Is and translate them into domain errors once.
package sentinel

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrExpired marks an authorization code or session past its expiry.
	ErrExpired = errors.New("expired")
	// ErrAlreadyUsed marks a one-time artifact, such as an authorization
	// code, that has been redeemed.
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict is returned when an optimistic write lost to a concurrent one.
	ErrConflict = errors.New("concurrent modification")
)
