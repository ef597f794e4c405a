package parking_test

import (
	"context"
	"testing"
	"time"

	"github.com/valet/parking-engine/parking"
	"github.com/valet/parking-engine/parking/store"
)

// =============================================================================
// BILLING UNIT TESTS
// =============================================================================

func TestTariff_BillingUnits_CeilingRounding(t *testing.T) {
	// GIVEN: A 60-minute billing unit
	// WHEN: Converting elapsed minutes to billed units
	// THEN: Rounding is always upward and zero elapsed bills one unit

	tariff := standardTariff()

	cases := []struct {
		elapsed int64
		units   int64
	}{
		{0, 1},
		{1, 1},
		{59, 1},
		{60, 1},
		{61, 2},
		{120, 2},
		{121, 3},
		{130, 3},
		{1440, 24},
	}
	for _, tc := range cases {
		if got := tariff.BillingUnits(tc.elapsed); got != tc.units {
			t.Errorf("BillingUnits(%d) = %d, want %d", tc.elapsed, got, tc.units)
		}
	}
}

func TestTariff_BillingUnits_OddUnitSize(t *testing.T) {
	tariff := parking.Tariff{
		RatePerUnit: parking.MustMoney("5"),
		UnitMinutes: 45,
	}
	if got := tariff.BillingUnits(45); got != 1 {
		t.Errorf("45 minutes on a 45-minute unit = %d units, want 1", got)
	}
	if got := tariff.BillingUnits(46); got != 2 {
		t.Errorf("46 minutes on a 45-minute unit = %d units, want 2", got)
	}
}

func TestTariff_Validate(t *testing.T) {
	bad := parking.Tariff{RatePerUnit: parking.MustMoney("20"), UnitMinutes: 0}
	if err := bad.Validate(); err == nil {
		t.Error("zero billing unit should not validate")
	}
	if err := standardTariff().Validate(); err != nil {
		t.Errorf("standard tariff should validate, got %v", err)
	}
}

// =============================================================================
// FEE COMPUTATION TESTS
// =============================================================================

func TestTariffEngine_Fee_Monotonic(t *testing.T) {
	// GIVEN: The standard tariff
	// WHEN: Elapsed time grows
	// THEN: The fee never decreases

	eng := newTestEngine(t)
	ctx := context.Background()
	now := time.Now().UTC()

	prev := parking.ZeroMoney()
	for _, elapsed := range []int64{0, 1, 59, 60, 61, 120, 130, 600} {
		fee, waived, err := eng.tariff.ComputeFee(ctx, eng.store, nil, elapsed, now)
		if err != nil {
			t.Fatalf("ComputeFee(%d): %v", elapsed, err)
		}
		if waived {
			t.Fatalf("walk-in fee at %d minutes should not be waived", elapsed)
		}
		if fee.LessThan(prev) {
			t.Errorf("fee decreased: %s after %s at %d minutes", fee, prev, elapsed)
		}
		prev = fee
	}
}

func TestTariffEngine_MinimumCharge_Applied(t *testing.T) {
	// GIVEN: A tariff whose minimum exceeds one unit's rate
	// WHEN: A short visit is billed
	// THEN: The minimum charge applies

	subs := parking.NewSubscriptionRegistry(nil)
	engine := parking.NewTariffEngine(parking.Tariff{
		RatePerUnit:   parking.MustMoney("10"),
		UnitMinutes:   60,
		MinimumCharge: parking.MustMoney("35"),
	}, subs)

	m := store.NewMemory()
	fee, _, err := engine.ComputeFee(context.Background(), m, nil, 30, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if !fee.Equal(parking.MustMoney("35")) {
		t.Errorf("fee = %s, want minimum charge 35", fee)
	}

	// Long enough to clear the minimum on its own.
	fee, _, err = engine.ComputeFee(context.Background(), m, nil, 300, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if !fee.Equal(parking.MustMoney("50")) {
		t.Errorf("fee = %s, want 50 (5 units of 10)", fee)
	}
}

func TestTariffEngine_ActiveSubscription_Waives(t *testing.T) {
	// GIVEN: A customer with an active monthly subscription
	// WHEN: Their fee is computed at any duration
	// THEN: The fee is zero and reported as waived

	eng := newTestEngine(t)
	ctx := context.Background()

	customer := seedOwnedVehicle(t, eng.store, "34WVR01")
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if _, err := eng.subs.Register(ctx, eng.store, customer, "monthly", start); err != nil {
		t.Fatal(err)
	}

	inside := start.AddDate(0, 0, 15)
	fee, waived, err := eng.tariff.ComputeFee(ctx, eng.store, &customer, 1000, inside)
	if err != nil {
		t.Fatal(err)
	}
	if !waived || !fee.IsZero() {
		t.Errorf("active subscriber: fee=%s waived=%v, want zero/waived", fee, waived)
	}
}

func TestTariffEngine_ExpiredSubscription_Bills(t *testing.T) {
	// GIVEN: A customer whose monthly subscription window has passed
	// WHEN: Their fee is computed after the end date
	// THEN: The normal tariff applies

	eng := newTestEngine(t)
	ctx := context.Background()

	customer := seedOwnedVehicle(t, eng.store, "34EXP01")
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if _, err := eng.subs.Register(ctx, eng.store, customer, "monthly", start); err != nil {
		t.Fatal(err)
	}

	after := start.AddDate(0, 2, 0)
	fee, waived, err := eng.tariff.ComputeFee(ctx, eng.store, &customer, 90, after)
	if err != nil {
		t.Fatal(err)
	}
	if waived {
		t.Error("expired subscription must not waive")
	}
	if !fee.Equal(parking.MustMoney("40")) {
		t.Errorf("fee = %s, want 40 (2 units of 20)", fee)
	}
}
