/*
allocator.go - Atomic spot reserve/release

PURPOSE:
  The SpotAllocator owns every transition of a spot's status. It is the only
  way a spot moves between Empty and Occupied, and it refuses to reserve a
  spot that is not Empty (occupied or under maintenance).

ATOMICITY:
  Reserve and Release delegate to the store's compare-and-set primitives, so
  the check and the transition are one step. Two concurrent reserves of the
  same empty spot resolve with exactly one winner; the loser receives
  ErrSpotUnavailable immediately. There is no waiting or queuing.

HOLDER CHECK:
  Release only succeeds when the recorded holder matches the releasing
  session. A mismatch is an internal consistency violation reported as
  ErrSpotNotHeld, never silently absorbed.
*/
package parking

import "context"

// SpotAllocator tracks per-spot state and performs atomic reserve/release.
type SpotAllocator struct {
	store Store
}

func NewSpotAllocator(store Store) *SpotAllocator {
	return &SpotAllocator{store: store}
}

// Reserve transitions the spot from Empty to Occupied and records the
// holding session. At most one caller succeeds for a given spot while it is
// non-Empty; the rest receive ErrSpotUnavailable.
func (a *SpotAllocator) Reserve(ctx context.Context, key SpotKey, holder SessionID) error {
	if key.Floor <= 0 || key.Number <= 0 {
		return ErrInvalidInput
	}
	return a.store.ReserveSpot(ctx, key, holder)
}

// Release transitions Occupied to Empty only if the recorded holder matches.
func (a *SpotAllocator) Release(ctx context.Context, key SpotKey, holder SessionID) error {
	return a.store.ReleaseSpot(ctx, key, holder)
}

// StatusOf returns a read-only snapshot of the spot's state.
func (a *SpotAllocator) StatusOf(ctx context.Context, key SpotKey) (SpotState, error) {
	spot, err := a.store.GetSpot(ctx, key)
	if err != nil {
		return "", err
	}
	return spot.Status, nil
}

// SetMaintenance is the operator toggle between Empty and Maintenance.
// An occupied spot cannot be taken down.
func (a *SpotAllocator) SetMaintenance(ctx context.Context, key SpotKey, down bool) error {
	return a.store.SetSpotMaintenance(ctx, key, down)
}
