// Package services defines the business logic for the ride registry and the
// join-request workflow. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import (
	"errors"

	"github.com/campusride/go-ride-backend/internal/repo"
)

// Ride registry errors.
var (
	// ErrRideNotFound indicates that the ride id is malformed or does not
	// resolve to an existing ride (possibly TTL-evicted).
	ErrRideNotFound = errors.New("ride not found")

	// ErrNotRideOwner is returned when a caller tries to delete a ride they
	// did not create.
	ErrNotRideOwner = errors.New("only the ride owner may do this")
)

// Join-request workflow errors.
var (
	// ErrRequestNotFound indicates that no pending request matches the
	// (ride, requester) pair — it never existed or was already resolved.
	ErrRequestNotFound = errors.New("pending request not found")

	// ErrOwnRide is returned when a requester tries to join a ride they
	// created themselves.
	ErrOwnRide = errors.New("cannot request own ride")

	// ErrNoSeats is returned when a ride has no seats available, either on
	// submission or when an approval finds the capacity already consumed.
	ErrNoSeats = errors.New("no seats available")

	// ErrDuplicateRequest is returned when a pending request already exists
	// for the (ride, requester) pair.
	ErrDuplicateRequest = errors.New("request already pending")
)

// Profile errors.
var (
	// ErrProfileNotFound indicates that no profile exists for the user id.
	ErrProfileNotFound = errors.New("profile not found")
)

// isRepoNotFound detects the repository's not-found sentinel in a way that
// also tolerates wrapped errors.
func isRepoNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}

// isRepoDuplicate detects the repository's unique-violation sentinel.
func isRepoDuplicate(err error) bool {
	return errors.Is(err, repo.ErrDuplicate)
}
