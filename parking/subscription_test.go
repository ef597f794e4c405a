package parking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valet/parking-engine/parking"
)

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestSubscriptionRegistry_Register_WindowFromPlan(t *testing.T) {
	// GIVEN: The monthly plan
	// WHEN: A customer subscribes starting January 15
	// THEN: The subscription runs through February 15 with the plan's fee

	eng := newTestEngine(t)
	ctx := context.Background()
	customer := seedOwnedVehicle(t, eng.store, "34REG01")

	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	sub, err := eng.subs.Register(ctx, eng.store, customer, "monthly", start)
	if err != nil {
		t.Fatal(err)
	}

	wantEnd := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	if !sub.EndDate.Equal(wantEnd) {
		t.Errorf("end date = %s, want %s", sub.EndDate, wantEnd)
	}
	if sub.Status != parking.SubscriptionActive {
		t.Errorf("status = %s, want active", sub.Status)
	}
	if !sub.Fee.Equal(parking.MustMoney("750")) {
		t.Errorf("fee = %s, want 750", sub.Fee)
	}
}

func TestSubscriptionRegistry_PlanTypeCaseInsensitive(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	customer := seedOwnedVehicle(t, eng.store, "34CAS01")

	sub, err := eng.subs.Register(ctx, eng.store, customer, "MONTHLY", time.Now().UTC())
	if err != nil {
		t.Fatalf("uppercase plan type should resolve: %v", err)
	}
	if sub.Type != "monthly" {
		t.Errorf("stored type = %q, want canonical %q", sub.Type, "monthly")
	}
}

func TestSubscriptionRegistry_UnknownPlan_Rejected(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	customer := seedOwnedVehicle(t, eng.store, "34UNK01")

	if _, err := eng.subs.Register(ctx, eng.store, customer, "weekly", time.Now().UTC()); !errors.Is(err, parking.ErrUnknownPlan) {
		t.Errorf("got %v, want ErrUnknownPlan", err)
	}
}

func TestSubscriptionRegistry_UnknownCustomer_Rejected(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.subs.Register(ctx, eng.store, "nobody", "monthly", time.Now().UTC()); !errors.Is(err, parking.ErrCustomerNotFound) {
		t.Errorf("got %v, want ErrCustomerNotFound", err)
	}
}

// =============================================================================
// WAIVER WINDOW TESTS
// =============================================================================

func TestSubscriptionRegistry_HasActive_WindowBoundaries(t *testing.T) {
	// GIVEN: A monthly subscription from March 1
	// WHEN: Probing instants around the window
	// THEN: Both endpoints are inclusive; outside is inactive

	eng := newTestEngine(t)
	ctx := context.Background()
	customer := seedOwnedVehicle(t, eng.store, "34WIN02")

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if _, err := eng.subs.Register(ctx, eng.store, customer, "monthly", start); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		at     time.Time
		active bool
	}{
		{start.Add(-time.Second), false},
		{start, true},
		{start.AddDate(0, 0, 15), true},
		{start.AddDate(0, 1, 0), true},
		{start.AddDate(0, 1, 0).Add(time.Second), false},
	}
	for _, tc := range cases {
		got, err := eng.subs.HasActive(ctx, eng.store, customer, tc.at)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.active {
			t.Errorf("HasActive at %s = %v, want %v", tc.at, got, tc.active)
		}
	}
}

func TestSubscriptionRegistry_Cancelled_NoWaiver(t *testing.T) {
	// GIVEN: An active subscription that the operator cancels
	// WHEN: Waiver status is probed inside the original window
	// THEN: No waiver applies

	eng := newTestEngine(t)
	ctx := context.Background()
	customer := seedOwnedVehicle(t, eng.store, "34CNL01")

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	sub, err := eng.subs.Register(ctx, eng.store, customer, "monthly", start)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.store.CancelSubscription(ctx, sub.ID); err != nil {
		t.Fatal(err)
	}

	active, err := eng.subs.HasActive(ctx, eng.store, customer, start.AddDate(0, 0, 10))
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("cancelled subscription must not waive")
	}
}

func TestSubscriptionRegistry_MultipleSubscriptions_AnyActiveWaives(t *testing.T) {
	// GIVEN: An expired monthly plus a current yearly subscription
	// WHEN: Waiver status is probed today
	// THEN: The yearly one carries the waiver

	eng := newTestEngine(t)
	ctx := context.Background()
	customer := seedOwnedVehicle(t, eng.store, "34MLT01")

	old := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	if _, err := eng.subs.Register(ctx, eng.store, customer, "monthly", old); err != nil {
		t.Fatal(err)
	}
	recent := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if _, err := eng.subs.Register(ctx, eng.store, customer, "yearly", recent); err != nil {
		t.Fatal(err)
	}

	active, err := eng.subs.HasActive(ctx, eng.store, customer, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("current yearly subscription should waive")
	}
}
