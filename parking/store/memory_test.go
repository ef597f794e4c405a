package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valet/parking-engine/parking"
	"github.com/valet/parking-engine/parking/store"
)

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestMemory_WithTx_RollbackRestoresState(t *testing.T) {
	// GIVEN: An empty spot
	// WHEN: A transaction reserves it and inserts a session, then fails
	// THEN: The spot is empty again and the session never existed

	m := store.NewMemory()
	ctx := context.Background()
	key := parking.SpotKey{Floor: 1, Number: 1}
	if err := m.SaveSpot(ctx, parking.Spot{Key: key, Status: parking.SpotEmpty}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx parking.Store) error {
		if err := tx.ReserveSpot(ctx, key, "sess-1"); err != nil {
			return err
		}
		if err := tx.InsertSession(ctx, parking.Session{
			ID:        "sess-1",
			VehicleID: "veh-1",
			Plate:     "34TXN01",
			Spot:      key,
			EntryTime: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	spot, err := m.GetSpot(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if spot.Status != parking.SpotEmpty || spot.HeldBy != "" {
		t.Errorf("spot after rollback = %+v, want empty and unheld", spot)
	}
	if _, err := m.GetSession(ctx, "sess-1"); !errors.Is(err, parking.ErrSessionNotFound) {
		t.Errorf("GetSession after rollback = %v, want ErrSessionNotFound", err)
	}
}

func TestMemory_WithTx_CommitPersists(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	key := parking.SpotKey{Floor: 1, Number: 1}
	if err := m.SaveSpot(ctx, parking.Spot{Key: key, Status: parking.SpotEmpty}); err != nil {
		t.Fatal(err)
	}

	err := m.WithTx(ctx, func(tx parking.Store) error {
		return tx.ReserveSpot(ctx, key, "sess-1")
	})
	if err != nil {
		t.Fatal(err)
	}

	spot, err := m.GetSpot(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if spot.Status != parking.SpotOccupied || spot.HeldBy != "sess-1" {
		t.Errorf("spot after commit = %+v, want occupied by sess-1", spot)
	}
}

// =============================================================================
// CONSTRAINT TESTS
// =============================================================================

func TestMemory_ReserveSpot_SecondReservationConflicts(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	key := parking.SpotKey{Floor: 2, Number: 7}
	if err := m.SaveSpot(ctx, parking.Spot{Key: key, Status: parking.SpotEmpty}); err != nil {
		t.Fatal(err)
	}

	if err := m.ReserveSpot(ctx, key, "sess-1"); err != nil {
		t.Fatal(err)
	}

	err := m.ReserveSpot(ctx, key, "sess-2")
	if !errors.Is(err, parking.ErrSpotUnavailable) {
		t.Fatalf("second reservation = %v, want ErrSpotUnavailable", err)
	}
	var conflict *parking.SpotConflictError
	if !errors.As(err, &conflict) {
		t.Fatal("second reservation should carry a SpotConflictError")
	}
	if conflict.State != parking.SpotOccupied {
		t.Errorf("conflict state = %s, want occupied", conflict.State)
	}
}

func TestMemory_ReleaseSpot_WrongHolderRejected(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	key := parking.SpotKey{Floor: 1, Number: 3}
	if err := m.SaveSpot(ctx, parking.Spot{Key: key, Status: parking.SpotEmpty}); err != nil {
		t.Fatal(err)
	}
	if err := m.ReserveSpot(ctx, key, "sess-1"); err != nil {
		t.Fatal(err)
	}

	if err := m.ReleaseSpot(ctx, key, "sess-2"); !errors.Is(err, parking.ErrSpotNotHeld) {
		t.Errorf("release by wrong holder = %v, want ErrSpotNotHeld", err)
	}
	if err := m.ReleaseSpot(ctx, key, "sess-1"); err != nil {
		t.Errorf("release by holder = %v, want nil", err)
	}
}

func TestMemory_SaveVehicle_DuplicatePlateRejected(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	v := parking.Vehicle{ID: "veh-1", Plate: "34DUP01", Type: parking.VehicleCar, CreatedAt: time.Now().UTC()}
	if err := m.SaveVehicle(ctx, v); err != nil {
		t.Fatal(err)
	}

	dup := parking.Vehicle{ID: "veh-2", Plate: "34DUP01", Type: parking.VehicleSUV, CreatedAt: time.Now().UTC()}
	if err := m.SaveVehicle(ctx, dup); !errors.Is(err, parking.ErrDuplicatePlate) {
		t.Errorf("duplicate plate = %v, want ErrDuplicatePlate", err)
	}
}

func TestMemory_InsertPayment_DuplicateSessionRejected(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()
	p := parking.Payment{ID: "pay-1", SessionID: "sess-1", Amount: parking.MustMoney("60"), Method: parking.PayCash, PaidAt: now}
	if err := m.InsertPayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	again := parking.Payment{ID: "pay-2", SessionID: "sess-1", Amount: parking.MustMoney("60"), Method: parking.PayCard, PaidAt: now}
	if err := m.InsertPayment(ctx, again); !errors.Is(err, parking.ErrSessionAlreadyPaid) {
		t.Errorf("duplicate settlement = %v, want ErrSessionAlreadyPaid", err)
	}
}

func TestMemory_InsertSession_OpenPlateUniqueness(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	open := parking.Session{ID: "sess-1", VehicleID: "veh-1", Plate: "34UNQ01", Spot: parking.SpotKey{Floor: 1, Number: 1}, EntryTime: now}
	if err := m.InsertSession(ctx, open); err != nil {
		t.Fatal(err)
	}

	second := parking.Session{ID: "sess-2", VehicleID: "veh-1", Plate: "34UNQ01", Spot: parking.SpotKey{Floor: 1, Number: 2}, EntryTime: now}
	if err := m.InsertSession(ctx, second); !errors.Is(err, parking.ErrSessionAlreadyOpen) {
		t.Fatalf("second open session = %v, want ErrSessionAlreadyOpen", err)
	}

	// Closing frees the plate for a fresh session.
	if err := m.CloseSession(ctx, "sess-1", now.Add(time.Hour), parking.MustMoney("20"), false); err != nil {
		t.Fatal(err)
	}
	if err := m.InsertSession(ctx, second); err != nil {
		t.Errorf("session after close = %v, want nil", err)
	}
}

func TestMemory_ListShifts_DateFilterInsideTx(t *testing.T) {
	// GIVEN: Shifts on two different dates
	m := store.NewMemory()
	ctx := context.Background()
	mar10 := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	mar11 := mar10.AddDate(0, 0, 1)

	if err := m.SaveShift(ctx, parking.Shift{ID: "sh-1", StaffID: "staff-1", Date: mar10, Type: parking.ShiftMorning}); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveShift(ctx, parking.Shift{ID: "sh-2", StaffID: "staff-2", Date: mar11, Type: parking.ShiftEvening}); err != nil {
		t.Fatal(err)
	}

	// WHEN/THEN: The date filter applies inside a transaction as outside
	err := m.WithTx(ctx, func(tx parking.Store) error {
		shifts, err := tx.ListShifts(ctx, mar10)
		if err != nil {
			return err
		}
		if len(shifts) != 1 || shifts[0].ID != "sh-1" {
			t.Errorf("filtered shifts in tx = %+v, want only sh-1", shifts)
		}
		all, err := tx.ListShifts(ctx, time.Time{})
		if err != nil {
			return err
		}
		if len(all) != 2 {
			t.Errorf("unfiltered shifts in tx = %d, want 2", len(all))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemory_SaveShift_UpsertsPerStaffAndDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	if err := m.SaveShift(ctx, parking.Shift{ID: "sh-1", StaffID: "staff-1", Date: day, Type: parking.ShiftMorning}); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveShift(ctx, parking.Shift{ID: "sh-2", StaffID: "staff-1", Date: day, Type: parking.ShiftNight}); err != nil {
		t.Fatal(err)
	}

	shifts, err := m.ListShifts(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(shifts) != 1 {
		t.Fatalf("shift count = %d, want 1 (re-assignment replaces)", len(shifts))
	}
	if shifts[0].Type != parking.ShiftNight {
		t.Errorf("shift type = %s, want night", shifts[0].Type)
	}
}

func TestMemory_Reset_ClearsEverything(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	if err := m.SaveSpot(ctx, parking.Spot{Key: parking.SpotKey{Floor: 1, Number: 1}, Status: parking.SpotEmpty}); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveCustomer(ctx, parking.Customer{ID: "cust-1", Name: "Ada", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	spots, err := m.ListSpots(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	customers, err := m.ListCustomers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(spots) != 0 || len(customers) != 0 {
		t.Errorf("after reset: %d spots, %d customers, want 0 and 0", len(spots), len(customers))
	}
}
