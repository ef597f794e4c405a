/*
errors.go - Centralized error types for the parking engine

PURPOSE:
  All error kinds in one place. Callers classify failures with errors.Is /
  errors.As, never by scanning message text.

ERROR CATEGORIES:
  1. Validation errors - malformed input, caught before any mutation
  2. Conflict errors   - concurrent or logical state clashes (expected
     under contention; callers should re-query, not blindly retry)
  3. Not-found errors  - unknown plate/spot/session/customer references
  4. State errors      - operation invalid for the current lifecycle state
  5. Persistence errors - store failures, wrapped with %w, never swallowed

USAGE:
  Handlers translate kinds into HTTP statuses:

    if parking.IsConflict(err) {
        // 409
    }
*/
package parking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed or missing parameters.
	// No mutation has occurred when this is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSpotNotFound is returned when (floor, number) names no configured spot.
	ErrSpotNotFound = errors.New("spot not found")

	// ErrSpotUnavailable is returned when a reserve targets a spot that is
	// occupied or under maintenance. Exactly one of any set of concurrent
	// reservers of an empty spot avoids this error.
	ErrSpotUnavailable = errors.New("spot unavailable")

	// ErrSpotNotHeld is returned when a release names a session that is not
	// the recorded holder of the spot. This guards against releasing a spot
	// on behalf of the wrong session.
	ErrSpotNotHeld = errors.New("spot not held by session")

	// ErrSessionAlreadyOpen is returned when a plate already has an open
	// visit. At most one session per plate is open at any instant.
	ErrSessionAlreadyOpen = errors.New("session already open for plate")

	// ErrVehicleNotParked is returned when a close targets a plate with no
	// open visit.
	ErrVehicleNotParked = errors.New("vehicle not parked")

	// ErrSessionNotFound is returned for an unknown session reference.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotClosed is returned when settlement targets a still-open
	// visit.
	ErrSessionNotClosed = errors.New("session not closed")

	// ErrSessionAlreadyPaid is returned on a second settlement attempt.
	// Settlement is exactly-once.
	ErrSessionAlreadyPaid = errors.New("session already paid")

	// ErrCustomerNotFound is returned for an unknown customer reference.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrVehicleNotFound is returned for an unknown vehicle reference.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrDuplicatePlate is returned when registering a plate that already
	// exists. Plate uniqueness is a hard store constraint.
	ErrDuplicatePlate = errors.New("plate already registered")

	// ErrUnknownPlan is returned when a subscription names no configured plan.
	ErrUnknownPlan = errors.New("unknown subscription plan")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SpotConflictError reports which spot could not be reserved and why.
type SpotConflictError struct {
	Key   SpotKey
	State SpotState
}

func (e *SpotConflictError) Error() string {
	return fmt.Sprintf("spot %s unavailable: %s", e.Key, e.State)
}

func (e *SpotConflictError) Unwrap() error { return ErrSpotUnavailable }

// OpenSessionConflictError reports the existing open visit blocking a new
// entry for the same plate.
type OpenSessionConflictError struct {
	Plate      string
	ExistingID SessionID
	Spot       SpotKey
}

func (e *OpenSessionConflictError) Error() string {
	return fmt.Sprintf("plate %s already parked at %s (session %s)", e.Plate, e.Spot, e.ExistingID)
}

func (e *OpenSessionConflictError) Unwrap() error { return ErrSessionAlreadyOpen }

// ReleaseFault is surfaced by CloseSession when the spot release fails after
// the close has been recorded. The close stands; the fault is for operator
// attention, not rollback: the vehicle must not be re-trapped.
type ReleaseFault struct {
	Session SessionID
	Spot    SpotKey
	Cause   error
}

func (e *ReleaseFault) Error() string {
	return fmt.Sprintf("session %s closed but spot %s not released: %v", e.Session, e.Spot, e.Cause)
}

func (e *ReleaseFault) Unwrap() error { return e.Cause }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsConflict reports whether err is a concurrent or logical state clash.
// Expected under contention; callers should re-query state before retrying.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSpotUnavailable) ||
		errors.Is(err, ErrSessionAlreadyOpen) ||
		errors.Is(err, ErrSessionAlreadyPaid) ||
		errors.Is(err, ErrDuplicatePlate)
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSpotNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrVehicleNotFound)
}

// IsStateError reports whether err means the operation is invalid for the
// record's current lifecycle state.
func IsStateError(err error) bool {
	return errors.Is(err, ErrVehicleNotParked) ||
		errors.Is(err, ErrSessionNotClosed) ||
		errors.Is(err, ErrSpotNotHeld)
}

// IsClientError reports whether err is recoverable by fixing the request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnknownPlan) ||
		IsConflict(err) || IsNotFound(err) || IsStateError(err)
}
