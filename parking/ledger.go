/*
ledger.go - Session lifecycle: open and close visits

PURPOSE:
  The SessionLedger drives the per-plate state machine
  NoActiveSession -> Open -> Closed. Closed is terminal for a visit; the
  next entry of the same plate starts a fresh one.

OPEN SESSION (one atomic unit):
  1. Reject with ErrSessionAlreadyOpen if the plate has an open visit
  2. Resolve or materialize the vehicle (unknown plates are registered as
     walk-ins with no owner, never silently dropped)
  3. Reserve the spot; ErrSpotUnavailable rejects with no further mutation
  4. Insert the session with EntryTime = now
  All four steps run inside one store transaction, so a failure after the
  reserve rolls everything back - no orphaned reservations.

CLOSE SESSION:
  1. Locate the open visit (ErrVehicleNotParked otherwise)
  2. Compute elapsed minutes (clamped at zero) and the fee via the
     TariffEngine (subscription waiver applies here)
  3. Record ExitTime and Fee
  4. Release the spot
  Steps 3-4 run in one transaction. If the release reports ErrSpotNotHeld
  (an internal consistency violation) the close still commits and the fault
  is surfaced on the result for operator attention - the vehicle must not be
  re-trapped by a failed release.

CONCURRENCY:
  The duplicate-plate check and the spot reserve are check-then-act
  sequences; both are protected by the store transaction plus the store's
  CAS primitives. Concurrent opens for the same plate or same spot resolve
  with exactly one winner.
*/
package parking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionLedger opens and closes vehicle visits.
type SessionLedger struct {
	store     TxStore
	allocator *SpotAllocator
	tariff    *TariffEngine
}

func NewSessionLedger(store TxStore, allocator *SpotAllocator, tariff *TariffEngine) *SessionLedger {
	return &SessionLedger{store: store, allocator: allocator, tariff: tariff}
}

// CloseResult is the outcome of a close: the settled session plus elapsed
// minutes and, when the spot release failed after the close was recorded,
// the warning-level fault.
type CloseResult struct {
	Session        Session
	ElapsedMinutes int64
	// Fault is non-nil when the spot release failed. The close stands.
	Fault *ReleaseFault
}

// NormalizePlate uppercases and trims a plate. Plates are stored and matched
// in this canonical form.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// OpenSession records a vehicle arriving at the given spot.
func (l *SessionLedger) OpenSession(ctx context.Context, plate string, spot SpotKey, now time.Time) (*Session, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate required", ErrInvalidInput)
	}
	if spot.Floor <= 0 || spot.Number <= 0 {
		return nil, fmt.Errorf("%w: floor and spot number must be positive", ErrInvalidInput)
	}

	var session Session
	err := l.store.WithTx(ctx, func(s Store) error {
		// One open visit per plate.
		if existing, err := s.GetOpenSessionByPlate(ctx, plate); err == nil {
			return &OpenSessionConflictError{Plate: plate, ExistingID: existing.ID, Spot: existing.Spot}
		} else if !errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("check open session: %w", err)
		}

		vehicle, err := l.materializeVehicle(ctx, s, plate)
		if err != nil {
			return err
		}

		session = Session{
			ID:        SessionID(uuid.NewString()),
			VehicleID: vehicle.ID,
			Plate:     plate,
			Spot:      spot,
			EntryTime: now,
		}

		alloc := NewSpotAllocator(s)
		if err := alloc.Reserve(ctx, spot, session.ID); err != nil {
			return err
		}
		if err := s.InsertSession(ctx, session); err != nil {
			// Rolls back the reservation too.
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// materializeVehicle resolves the plate to a vehicle, registering an
// ownerless walk-in record when the plate is unknown. Runs inside the open
// transaction so the uniqueness check and the insert are one step.
func (l *SessionLedger) materializeVehicle(ctx context.Context, s Store, plate string) (*Vehicle, error) {
	vehicle, err := s.GetVehicleByPlate(ctx, plate)
	if err == nil {
		return vehicle, nil
	}
	if !errors.Is(err, ErrVehicleNotFound) {
		return nil, fmt.Errorf("resolve vehicle: %w", err)
	}

	walkIn := Vehicle{
		ID:        VehicleID(uuid.NewString()),
		Plate:     plate,
		Type:      VehicleCar,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveVehicle(ctx, walkIn); err != nil {
		return nil, fmt.Errorf("register walk-in vehicle: %w", err)
	}
	return &walkIn, nil
}

// CloseSession records a vehicle leaving.
func (l *SessionLedger) CloseSession(ctx context.Context, plate string, now time.Time) (*CloseResult, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate required", ErrInvalidInput)
	}

	var result CloseResult
	err := l.store.WithTx(ctx, func(s Store) error {
		session, err := s.GetOpenSessionByPlate(ctx, plate)
		if errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("%w: %s", ErrVehicleNotParked, plate)
		}
		if err != nil {
			return fmt.Errorf("locate open session: %w", err)
		}

		elapsed := session.ElapsedMinutes(now)

		var owner *CustomerID
		if vehicle, err := s.GetVehicleByPlate(ctx, plate); err == nil {
			owner = vehicle.OwnerID
		} else if !errors.Is(err, ErrVehicleNotFound) {
			return fmt.Errorf("resolve vehicle: %w", err)
		}

		fee, waived, err := l.tariff.ComputeFee(ctx, s, owner, elapsed, now)
		if err != nil {
			return fmt.Errorf("compute fee: %w", err)
		}

		if err := s.CloseSession(ctx, session.ID, now, fee, waived); err != nil {
			return fmt.Errorf("close session: %w", err)
		}

		exit := now
		session.ExitTime = &exit
		session.Fee = &fee
		session.FeeWaived = waived
		// Waived sessions have nothing outstanding.
		session.Paid = waived
		if waived {
			if err := s.MarkSessionPaid(ctx, session.ID); err != nil {
				return fmt.Errorf("mark waived session settled: %w", err)
			}
		}

		result = CloseResult{Session: *session, ElapsedMinutes: elapsed}

		alloc := NewSpotAllocator(s)
		if err := alloc.Release(ctx, session.Spot, session.ID); err != nil {
			if errors.Is(err, ErrSpotNotHeld) || errors.Is(err, ErrSpotNotFound) {
				// Consistency violation: record the close anyway and
				// surface the fault for operator attention.
				result.Fault = &ReleaseFault{Session: session.ID, Spot: session.Spot, Cause: err}
				return nil
			}
			return fmt.Errorf("release spot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
