/*
store.go - Persistence interfaces for the occupancy and billing engine

PURPOSE:
  Defines the interface between the engine and the database. The engine is
  specified against this abstract transactional store, not a database
  product; SQLite and in-memory implementations exist.

KEY INTERFACES:
  Store:   Typed accessors for every record kind, plus the two atomic
           compare-and-set primitives the allocator requires
  TxStore: Serializable unit-of-work wrapper (WithTx)

ATOMICITY CONTRACT:
  ReserveSpot and ReleaseSpot are compare-and-set operations: the check and
  the transition happen as one step with respect to concurrent callers.
  At most one caller reserves a given empty spot; losers get
  ErrSpotUnavailable immediately (no queuing).

  WithTx provides the serializable boundary for multi-step operations
  (open session: duplicate check + vehicle materialization + reserve +
  insert). If fn returns an error the transaction rolls back, so a reserved
  spot is never orphaned by a later failure.

MUTATION DISCIPLINE:
  Sessions are insert-then-mutate: InsertSession on open, then only
  CloseSession and MarkSessionPaid. No session is ever deleted; history is
  append-only. Payments are insert-only.

IMPLEMENTATIONS:
  - store/sqlite: production store; CAS via conditional UPDATE, constraints
    via unique and partial unique indexes
  - parking/store: in-memory store for tests and dev mode

SEE ALSO:
  - allocator.go: Uses the CAS primitives
  - ledger.go:    Uses WithTx for open/close
*/
package parking

import (
	"context"
	"time"
)

// Store is the abstract transactional store the engine runs against.
// Implementations must return the sentinel errors declared in errors.go for
// the failure conditions documented per method; any other failure is a
// persistence error and must be returned wrapped, never swallowed.
type Store interface {
	// --- Spots ---

	// GetSpot returns the spot or ErrSpotNotFound.
	GetSpot(ctx context.Context, key SpotKey) (*Spot, error)

	// ListSpots returns spots ordered by floor then number. Floor 0 means
	// all floors.
	ListSpots(ctx context.Context, floor int) ([]Spot, error)

	// SaveSpot creates or replaces a spot definition (facility configuration).
	SaveSpot(ctx context.Context, spot Spot) error

	// ReserveSpot atomically transitions key from Empty to Occupied and
	// records holder. Returns ErrSpotNotFound, or ErrSpotUnavailable
	// (wrapped in *SpotConflictError) if the spot is not Empty.
	ReserveSpot(ctx context.Context, key SpotKey, holder SessionID) error

	// ReleaseSpot atomically transitions key from Occupied to Empty, but
	// only when the recorded holder matches. Returns ErrSpotNotFound or
	// ErrSpotNotHeld.
	ReleaseSpot(ctx context.Context, key SpotKey, holder SessionID) error

	// SetSpotMaintenance toggles Empty <-> Maintenance. Returns
	// ErrSpotUnavailable if the spot is Occupied.
	SetSpotMaintenance(ctx context.Context, key SpotKey, down bool) error

	// --- Customers ---

	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)
	SaveCustomer(ctx context.Context, c Customer) error
	ListCustomers(ctx context.Context) ([]Customer, error)
	// SearchCustomers matches a name/surname/plate fragment.
	SearchCustomers(ctx context.Context, query string) ([]Customer, error)

	// --- Vehicles ---

	// GetVehicleByPlate returns the vehicle or ErrVehicleNotFound.
	GetVehicleByPlate(ctx context.Context, plate string) (*Vehicle, error)
	// SaveVehicle inserts a vehicle. Returns ErrDuplicatePlate when the
	// plate already exists.
	SaveVehicle(ctx context.Context, v Vehicle) error
	ListVehicles(ctx context.Context, owner *CustomerID) ([]Vehicle, error)

	// --- Sessions ---

	GetSession(ctx context.Context, id SessionID) (*Session, error)
	// GetOpenSessionByPlate returns the plate's open visit or
	// ErrSessionNotFound when none is open.
	GetOpenSessionByPlate(ctx context.Context, plate string) (*Session, error)
	InsertSession(ctx context.Context, s Session) error
	// CloseSession records exit time and fee on an open session.
	CloseSession(ctx context.Context, id SessionID, exit time.Time, fee Money, waived bool) error
	// MarkSessionPaid flips the paid flag. The caller guarantees the
	// exactly-once check inside a transaction.
	MarkSessionPaid(ctx context.Context, id SessionID) error
	ListOpenSessions(ctx context.Context) ([]Session, error)
	// ListUnpaidSessions returns closed, unpaid, non-waived sessions.
	ListUnpaidSessions(ctx context.Context) ([]Session, error)
	// SessionsBetween returns sessions with EntryTime in [from, to).
	SessionsBetween(ctx context.Context, from, to time.Time) ([]Session, error)

	// --- Subscriptions ---

	InsertSubscription(ctx context.Context, sub Subscription) error
	ListSubscriptions(ctx context.Context, customer *CustomerID) ([]Subscription, error)
	// HasActiveSubscription reports whether any subscription of the customer
	// is Active with now inside its validity window.
	HasActiveSubscription(ctx context.Context, customer CustomerID, now time.Time) (bool, error)
	CancelSubscription(ctx context.Context, id SubscriptionID) error
	// ExpireSubscriptions marks Active subscriptions whose window ended
	// before asOf as Expired and returns how many were flipped.
	ExpireSubscriptions(ctx context.Context, asOf time.Time) (int, error)

	// --- Payments ---

	// InsertPayment records a settlement. At most one payment per session
	// is a hard constraint.
	InsertPayment(ctx context.Context, p Payment) error
	PaymentsBetween(ctx context.Context, from, to time.Time) ([]Payment, error)

	// --- Staff / shifts (record-keeping only) ---

	SaveStaff(ctx context.Context, st Staff) error
	ListStaff(ctx context.Context) ([]Staff, error)
	SaveShift(ctx context.Context, sh Shift) error
	ListShifts(ctx context.Context, date time.Time) ([]Shift, error)
}

// TxStore wraps Store with a serializable unit-of-work boundary.
// Each engine operation runs inside exactly one WithTx call.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed. The Store passed to
	// fn must only be used inside fn.
	WithTx(ctx context.Context, fn func(Store) error) error
}
