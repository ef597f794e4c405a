package parking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valet/parking-engine/parking"
	"github.com/valet/parking-engine/parking/store"
)

// =============================================================================
// OCCUPANCY TESTS
// =============================================================================

func TestOccupancyReporter_Snapshot_Census(t *testing.T) {
	// GIVEN: Two floors of four spots; two occupied on floor 1, one under
	//        maintenance on floor 2
	// WHEN: Taking the facility snapshot
	// THEN: Totals, per-floor breakdown and ratios reflect the spot states

	eng := newTestEngine(t)
	ctx := context.Background()
	seedSpots(t, eng.store, 2, 4)
	now := time.Now().UTC()

	if _, err := eng.ledger.OpenSession(ctx, "34OCC01", parking.SpotKey{Floor: 1, Number: 1}, now); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.ledger.OpenSession(ctx, "34OCC02", parking.SpotKey{Floor: 1, Number: 2}, now); err != nil {
		t.Fatal(err)
	}
	if err := eng.allocator.SetMaintenance(ctx, parking.SpotKey{Floor: 2, Number: 4}, true); err != nil {
		t.Fatal(err)
	}

	reporter := parking.NewOccupancyReporter(eng.store)
	snap, err := reporter.Snapshot(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}

	if snap.Total != 8 || snap.Occupied != 2 || snap.Maintenance != 1 || snap.Empty != 5 {
		t.Errorf("snapshot = %+v, want total 8, occupied 2, maintenance 1, empty 5", snap)
	}
	if snap.Ratio != 0.25 {
		t.Errorf("ratio = %f, want 0.25", snap.Ratio)
	}

	if len(snap.Floors) != 2 {
		t.Fatalf("floor count = %d, want 2", len(snap.Floors))
	}
	f1 := snap.Floors[0]
	if f1.Floor != 1 || f1.Occupied != 2 || f1.Ratio != 0.5 {
		t.Errorf("floor 1 = %+v, want 2 occupied of 4", f1)
	}

	// Single-floor view.
	snap, err = reporter.Snapshot(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Total != 4 || snap.Occupied != 0 || snap.Maintenance != 1 {
		t.Errorf("floor 2 snapshot = %+v, want total 4, maintenance 1", snap)
	}
}

// =============================================================================
// REVENUE TESTS
// =============================================================================

func TestOccupancyReporter_DailyRevenue_WindowAndWaived(t *testing.T) {
	// GIVEN: Two settled visits on March 10, one waived exit, and one payment
	//        the day after
	// WHEN: Reporting March 10
	// THEN: Only that day's payments sum; the waived exit is counted apart

	eng := newTestEngine(t)
	ctx := context.Background()
	seedSpots(t, eng.store, 1, 6)
	reporter := parking.NewOccupancyReporter(eng.store)
	processor := parking.NewPaymentProcessor(eng.store)

	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	settle := func(plate string, spotN int, entry time.Time, parked time.Duration) {
		t.Helper()
		if _, err := eng.ledger.OpenSession(ctx, plate, parking.SpotKey{Floor: 1, Number: spotN}, entry); err != nil {
			t.Fatal(err)
		}
		result, err := eng.ledger.CloseSession(ctx, plate, entry.Add(parked))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := processor.Settle(ctx, result.Session.ID, parking.PayCash, entry.Add(parked)); err != nil {
			t.Fatal(err)
		}
	}

	settle("34REV01", 1, day.Add(9*time.Hour), 130*time.Minute)  // 60
	settle("34REV02", 2, day.Add(14*time.Hour), 30*time.Minute)  // 20
	settle("34REV03", 3, day.Add(26*time.Hour), 130*time.Minute) // next day, excluded

	// Waived exit on the report day.
	customer := seedOwnedVehicle(t, eng.store, "34REV04")
	if _, err := eng.subs.Register(ctx, eng.store, customer, "monthly", day.AddDate(0, 0, -5)); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.ledger.OpenSession(ctx, "34REV04", parking.SpotKey{Floor: 1, Number: 4}, day.Add(10*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.ledger.CloseSession(ctx, "34REV04", day.Add(12*time.Hour)); err != nil {
		t.Fatal(err)
	}

	report, err := reporter.DailyRevenue(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Total.Equal(parking.MustMoney("80")) {
		t.Errorf("total = %s, want 80", report.Total)
	}
	if report.PaymentCount != 2 {
		t.Errorf("payment count = %d, want 2", report.PaymentCount)
	}
	if report.WaivedSessions != 1 {
		t.Errorf("waived sessions = %d, want 1", report.WaivedSessions)
	}

	// The monthly rollup covers both days.
	monthly, err := reporter.MonthlyRevenue(ctx, 2026, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if !monthly.Total.Equal(parking.MustMoney("140")) {
		t.Errorf("monthly total = %s, want 140", monthly.Total)
	}
}

func TestOccupancyReporter_WaivedOvernightVisit_CountsOnEntryDay(t *testing.T) {
	// GIVEN: A subscriber who entered before midnight and left the next morning
	eng := newTestEngine(t)
	ctx := context.Background()
	seedSpots(t, eng.store, 1, 2)
	reporter := parking.NewOccupancyReporter(eng.store)

	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	customer := seedOwnedVehicle(t, eng.store, "34NGT01")
	if _, err := eng.subs.Register(ctx, eng.store, customer, "monthly", day.AddDate(0, 0, -5)); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.ledger.OpenSession(ctx, "34NGT01", parking.SpotKey{Floor: 1, Number: 1}, day.Add(23*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.ledger.CloseSession(ctx, "34NGT01", day.Add(31*time.Hour)); err != nil {
		t.Fatal(err)
	}

	// WHEN/THEN: The waived visit is anchored to its entry day
	entryDay, err := reporter.DailyRevenue(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if entryDay.WaivedSessions != 1 {
		t.Errorf("entry-day waived = %d, want 1", entryDay.WaivedSessions)
	}

	exitDay, err := reporter.DailyRevenue(ctx, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if exitDay.WaivedSessions != 0 {
		t.Errorf("exit-day waived = %d, want 0", exitDay.WaivedSessions)
	}
}

// =============================================================================
// TOP CUSTOMERS TESTS
// =============================================================================

func TestOccupancyReporter_TopCustomers_ExcludesWalkIns(t *testing.T) {
	// GIVEN: A registered customer with three visits, another with one, and
	//        walk-in traffic in between
	// WHEN: Ranking customers for the window
	// THEN: Registered customers rank by visit count; walk-ins never appear

	eng := newTestEngine(t)
	ctx := context.Background()
	seedSpots(t, eng.store, 1, 5)
	reporter := parking.NewOccupancyReporter(eng.store)

	frequent := seedOwnedVehicle(t, eng.store, "34TOP01")
	occasional := seedOwnedVehicle(t, eng.store, "34TOP02")

	day := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	visit := func(plate string, entry time.Time) {
		t.Helper()
		if _, err := eng.ledger.OpenSession(ctx, plate, parking.SpotKey{Floor: 1, Number: 1}, entry); err != nil {
			t.Fatal(err)
		}
		if _, err := eng.ledger.CloseSession(ctx, plate, entry.Add(time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	visit("34TOP01", day)
	visit("34TOP01", day.AddDate(0, 0, 3))
	visit("34TOP01", day.AddDate(0, 0, 6))
	visit("34TOP02", day.AddDate(0, 0, 1))
	visit("34WLK01", day.AddDate(0, 0, 2))
	visit("34WLK02", day.AddDate(0, 0, 4))

	rows, err := reporter.TopCustomers(ctx, day, day.AddDate(0, 1, 0), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2 (walk-ins excluded)", len(rows))
	}
	if rows[0].CustomerID != frequent || rows[0].Visits != 3 {
		t.Errorf("top row = %+v, want %s with 3 visits", rows[0], frequent)
	}
	if rows[1].CustomerID != occasional || rows[1].Visits != 1 {
		t.Errorf("second row = %+v, want %s with 1 visit", rows[1], occasional)
	}
	if rows[0].Name == "" {
		t.Error("rows should carry the customer name")
	}

	// Limit trims from the bottom.
	rows, err = reporter.TopCustomers(ctx, day, day.AddDate(0, 1, 0), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].CustomerID != frequent {
		t.Errorf("limited rows = %+v, want only %s", rows, frequent)
	}
}

// vehicleLookupFailingStore fails every plate lookup with a fixed error.
type vehicleLookupFailingStore struct {
	*store.Memory
	lookupErr error
}

func (s *vehicleLookupFailingStore) GetVehicleByPlate(_ context.Context, _ string) (*parking.Vehicle, error) {
	return nil, s.lookupErr
}

func TestOccupancyReporter_TopCustomers_LookupFailurePropagates(t *testing.T) {
	// GIVEN: A store whose vehicle lookups fail with a persistence error
	m := store.NewMemory()
	ctx := context.Background()
	entry := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	err := m.InsertSession(ctx, parking.Session{
		ID:        "sess-1",
		VehicleID: "veh-1",
		Plate:     "34ERR01",
		Spot:      parking.SpotKey{Floor: 1, Number: 1},
		EntryTime: entry,
	})
	if err != nil {
		t.Fatal(err)
	}

	lookupErr := errors.New("disk I/O error")
	failing := &vehicleLookupFailingStore{Memory: m, lookupErr: lookupErr}
	reporter := parking.NewOccupancyReporter(failing)

	// WHEN/THEN: The failure surfaces instead of silently dropping the row
	_, err = reporter.TopCustomers(ctx, entry.AddDate(0, 0, -1), entry.AddDate(0, 0, 1), 10)
	if !errors.Is(err, lookupErr) {
		t.Errorf("TopCustomers error = %v, want the lookup failure", err)
	}
}

func TestOccupancyReporter_TopCustomers_MissingVehicleRecordSkipped(t *testing.T) {
	// GIVEN: A session whose vehicle record no longer exists
	m := store.NewMemory()
	ctx := context.Background()
	entry := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	err := m.InsertSession(ctx, parking.Session{
		ID:        "sess-1",
		VehicleID: "veh-gone",
		Plate:     "34GONE1",
		Spot:      parking.SpotKey{Floor: 1, Number: 1},
		EntryTime: entry,
	})
	if err != nil {
		t.Fatal(err)
	}

	// WHEN/THEN: The visit is treated as a walk-in, not an error
	reporter := parking.NewOccupancyReporter(m)
	rows, err := reporter.TopCustomers(ctx, entry.AddDate(0, 0, -1), entry.AddDate(0, 0, 1), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %+v, want none", rows)
	}
}

func TestOccupancyReporter_VehicleTypeCounts(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	reporter := parking.NewOccupancyReporter(eng.store)

	types := []parking.VehicleType{parking.VehicleCar, parking.VehicleCar, parking.VehicleSUV, parking.VehicleMotorcycle}
	for i, vt := range types {
		err := eng.store.SaveVehicle(ctx, parking.Vehicle{
			ID:        parking.VehicleID(string(rune('a' + i))),
			Plate:     "34TYP0" + string(rune('1'+i)),
			Type:      vt,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	counts, err := reporter.VehicleTypeCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[parking.VehicleCar] != 2 || counts[parking.VehicleSUV] != 1 || counts[parking.VehicleMotorcycle] != 1 {
		t.Errorf("counts = %v, want car:2 suv:1 motorcycle:1", counts)
	}
}
