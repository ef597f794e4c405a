/*
Package parking provides the core occupancy and billing engine for a
multi-floor parking facility.

PURPOSE:
  This package contains the domain types and the components that carry the
  facility's correctness invariants: spot allocation, the per-plate session
  lifecycle, duration-based fee computation, subscription fee waivers, and
  payment settlement.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An exact monetary amount (decimal, never float)
  - SpotKey: A physical spot identified by floor + number
  - Session: One parked-vehicle visit from entry to exit
  - Subscription: A validity window that waives per-visit billing
  - Customer/Vehicle/Payment/Staff: Registry records around the core

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point money errors
  2. Explicitness: Walk-in vehicles have a nil owner, not a sentinel ID
  3. Append-then-mutate: Sessions are never deleted; only ExitTime, Fee
     and Paid change after creation, and only through the engine
  4. Typed errors: No operation reports failure as text to be sniffed

SEE ALSO:
  - allocator.go: Atomic spot reserve/release
  - ledger.go:    Session lifecycle (open/close)
  - tariff.go:    Elapsed time to fee conversion
  - store.go:     Persistence interfaces
*/
package parking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact monetary amount
// =============================================================================

// Money is an exact monetary amount. The facility bills in a single
// configured currency, so Money carries no currency code.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

// ParseMoney parses a decimal string such as "20" or "12.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustMoney is ParseMoney for literals in configuration presets and tests.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money          { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) MulInt(n int64) Money       { return Money{Value: m.Value.Mul(decimal.NewFromInt(n))} }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsPositive() bool           { return m.Value.IsPositive() }
func (m Money) LessThan(o Money) bool      { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool         { return m.Value.Equal(o.Value) }
func (m Money) String() string             { return m.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	CustomerID     string
	VehicleID      string
	SessionID      string
	SubscriptionID string
	PaymentID      string
	StaffID        string
)

// SpotKey identifies one physical parking spot. The (Floor, Number) pair is
// unique across the facility.
type SpotKey struct {
	Floor  int `json:"floor"`
	Number int `json:"number"`
}

func (k SpotKey) String() string { return fmt.Sprintf("%d/%d", k.Floor, k.Number) }

// =============================================================================
// SPOT - Physical parking location
// =============================================================================

type SpotState string

const (
	SpotEmpty       SpotState = "empty"
	SpotOccupied    SpotState = "occupied"
	SpotMaintenance SpotState = "maintenance"
)

// Spot is one physical parking location. Status is mutated only through the
// allocator (Empty <-> Occupied) or the operator maintenance toggle
// (Empty <-> Maintenance).
type Spot struct {
	Key       SpotKey
	Status    SpotState
	// HeldBy is the session currently occupying the spot. Empty unless
	// Status == SpotOccupied.
	HeldBy SessionID
}

// =============================================================================
// REGISTRY RECORDS
// =============================================================================

type Customer struct {
	ID         CustomerID
	Name       string
	Surname    string
	NationalID string
	Phone      string
	Email      string
	Address    string
	CreatedAt  time.Time
}

type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleSUV        VehicleType = "suv"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleVan        VehicleType = "van"
)

// Vehicle is identified by its plate, unique across the system. OwnerID is
// nil for unregistered/walk-in vehicles materialized on first entry.
type Vehicle struct {
	ID        VehicleID
	Plate     string
	Brand     string
	Model     string
	Color     string
	Type      VehicleType
	OwnerID   *CustomerID
	CreatedAt time.Time
}

// =============================================================================
// SESSION - One visit from entry to exit
// =============================================================================

// Session records one parked-vehicle visit. ExitTime and Fee are set when the
// visit closes; Paid flips exactly once on settlement. Sessions are
// append-only history and are never deleted.
type Session struct {
	ID        SessionID
	VehicleID VehicleID
	Plate     string
	Spot      SpotKey
	EntryTime time.Time
	ExitTime  *time.Time
	Fee       *Money
	// FeeWaived marks a session whose fee was zeroed by an active
	// subscription. Waived sessions never enter the unpaid queue.
	FeeWaived bool
	Paid      bool
}

// Open reports whether the visit is still in progress.
func (s *Session) Open() bool { return s.ExitTime == nil }

// ElapsedMinutes returns whole minutes between entry and now, clamped at zero.
func (s *Session) ElapsedMinutes(now time.Time) int64 {
	mins := int64(now.Sub(s.EntryTime) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}

// =============================================================================
// SUBSCRIPTION - Flat-rate arrangement that waives per-visit billing
// =============================================================================

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	ID         SubscriptionID
	CustomerID CustomerID
	// Type names the plan (e.g. "monthly"); the window is derived from the
	// plan when the subscription is registered.
	Type      string
	StartDate time.Time
	EndDate   time.Time
	Status    SubscriptionStatus
	Fee       Money
	CreatedAt time.Time
}

// ActiveAt reports whether the subscription waives billing at the given
// instant: status Active and now within [StartDate, EndDate].
func (s *Subscription) ActiveAt(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// =============================================================================
// PAYMENT - Settlement record
// =============================================================================

type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCard     PaymentMethod = "card"
	PayTransfer PaymentMethod = "transfer"
)

// ValidPaymentMethod reports whether m names a supported settlement method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayCash, PayCard, PayTransfer:
		return true
	}
	return false
}

// Payment is created exactly once per paid session.
type Payment struct {
	ID        PaymentID
	SessionID SessionID
	Amount    Money
	Method    PaymentMethod
	PaidAt    time.Time
}

// =============================================================================
// STAFF / SHIFT - Scheduling records (reporting context only)
// =============================================================================

type ShiftType string

const (
	ShiftMorning ShiftType = "morning"
	ShiftEvening ShiftType = "evening"
	ShiftNight   ShiftType = "night"
)

type Staff struct {
	ID         StaffID
	Name       string
	Surname    string
	NationalID string
	Phone      string
	Position   string
	Salary     Money
	CreatedAt  time.Time
}

// Shift assigns one staff member to one shift on one date.
type Shift struct {
	ID      string
	StaffID StaffID
	Date    time.Time // date only; time-of-day is implied by Type
	Type    ShiftType
}
