/*
scheduler_test.go - Tests for the subscription expiry sweeper
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/valet/parking-engine/factory"
	"github.com/valet/parking-engine/parking"
	"github.com/valet/parking-engine/parking/store"
)

func TestExpirySweeper_FlipsEndedSubscriptions(t *testing.T) {
	// GIVEN: One subscription that ended last week and one still running
	h := NewHandler(store.NewMemory(), factory.DefaultConfig())
	ctx := context.Background()
	now := time.Now().UTC()

	ended := parking.Subscription{
		ID:         "sub-ended",
		CustomerID: "cust-1",
		Type:       "monthly",
		StartDate:  now.AddDate(0, -1, -7),
		EndDate:    now.AddDate(0, 0, -7),
		Status:     parking.SubscriptionActive,
		Fee:        parking.MustMoney("750"),
		CreatedAt:  now.AddDate(0, -1, -7),
	}
	running := parking.Subscription{
		ID:         "sub-running",
		CustomerID: "cust-2",
		Type:       "monthly",
		StartDate:  now.AddDate(0, 0, -10),
		EndDate:    now.AddDate(0, 0, 20),
		Status:     parking.SubscriptionActive,
		Fee:        parking.MustMoney("750"),
		CreatedAt:  now.AddDate(0, 0, -10),
	}
	for _, sub := range []parking.Subscription{ended, running} {
		if err := h.Store.InsertSubscription(ctx, sub); err != nil {
			t.Fatal(err)
		}
	}

	// WHEN: The sweeper runs
	sweeper := NewExpirySweeper(h.Store)
	sweeper.RunNow()

	// THEN: Only the ended subscription is flipped
	subs, err := h.Store.ListSubscriptions(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	statuses := make(map[parking.SubscriptionID]parking.SubscriptionStatus, len(subs))
	for _, sub := range subs {
		statuses[sub.ID] = sub.Status
	}
	if statuses["sub-ended"] != parking.SubscriptionExpired {
		t.Errorf("ended status = %s, want expired", statuses["sub-ended"])
	}
	if statuses["sub-running"] != parking.SubscriptionActive {
		t.Errorf("running status = %s, want active", statuses["sub-running"])
	}
}

func TestExpirySweeper_StartStop(t *testing.T) {
	h := NewHandler(store.NewMemory(), factory.DefaultConfig())

	sweeper := NewExpirySweeper(h.Store)
	sweeper.CheckInterval = time.Minute
	sweeper.Start()
	sweeper.Stop()

	// Disabled sweeper never spins up a goroutine; Stop is a no-op.
	idle := NewExpirySweeper(h.Store)
	idle.Enabled = false
	idle.Start()
	idle.Stop()
}
