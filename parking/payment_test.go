package parking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valet/parking-engine/parking"
)

// =============================================================================
// SETTLEMENT TESTS
// =============================================================================

func TestPaymentProcessor_Settle_ExactlyOnce(t *testing.T) {
	// GIVEN: A closed visit with an outstanding fee of 60
	// WHEN: It is settled in cash, then settled again
	// THEN: One payment of 60 exists; the second attempt is rejected with
	//       ErrSessionAlreadyPaid and records nothing

	eng := newTestEngine(t)
	ctx := context.Background()
	seedSpots(t, eng.store, 1, 1)

	entry := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	if _, err := eng.ledger.OpenSession(ctx, "34PAY01", parking.SpotKey{Floor: 1, Number: 1}, entry); err != nil {
		t.Fatal(err)
	}
	result, err := eng.ledger.CloseSession(ctx, "34PAY01", entry.Add(130*time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	processor := parking.NewPaymentProcessor(eng.store)
	paidAt := entry.Add(132 * time.Minute)
	payment, err := processor.Settle(ctx, result.Session.ID, parking.PayCash, paidAt)
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if !payment.Amount.Equal(parking.MustMoney("60")) {
		t.Errorf("payment amount = %s, want 60", payment.Amount)
	}
	if payment.Method != parking.PayCash {
		t.Errorf("payment method = %s, want cash", payment.Method)
	}

	session, err := eng.store.GetSession(ctx, result.Session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !session.Paid {
		t.Error("session should be marked paid")
	}

	// Second settlement must fail without a second record.
	if _, err := processor.Settle(ctx, result.Session.ID, parking.PayCard, paidAt.Add(time.Minute)); !errors.Is(err, parking.ErrSessionAlreadyPaid) {
		t.Errorf("second settle: got %v, want ErrSessionAlreadyPaid", err)
	}

	payments, err := eng.store.PaymentsBetween(ctx, entry, entry.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Errorf("payment count = %d, want 1", len(payments))
	}
}

func TestPaymentProcessor_OpenSession_Rejected(t *testing.T) {
	// GIVEN: A visit still in progress
	// WHEN: Settlement is attempted
	// THEN: ErrSessionNotClosed

	eng := newTestEngine(t)
	ctx := context.Background()
	seedSpots(t, eng.store, 1, 1)

	session, err := eng.ledger.OpenSession(ctx, "34OPN01", parking.SpotKey{Floor: 1, Number: 1}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}

	processor := parking.NewPaymentProcessor(eng.store)
	if _, err := processor.Settle(ctx, session.ID, parking.PayCard, time.Now().UTC()); !errors.Is(err, parking.ErrSessionNotClosed) {
		t.Errorf("got %v, want ErrSessionNotClosed", err)
	}
}

func TestPaymentProcessor_WaivedSession_NothingOutstanding(t *testing.T) {
	// GIVEN: A visit whose fee was waived by a subscription
	// WHEN: Settlement is attempted anyway
	// THEN: ErrSessionAlreadyPaid (waived sessions settle at close)

	eng := newTestEngine(t)
	ctx := context.Background()
	seedSpots(t, eng.store, 1, 1)

	customer := seedOwnedVehicle(t, eng.store, "34WVP01")
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if _, err := eng.subs.Register(ctx, eng.store, customer, "monthly", start); err != nil {
		t.Fatal(err)
	}

	entry := start.AddDate(0, 0, 5)
	if _, err := eng.ledger.OpenSession(ctx, "34WVP01", parking.SpotKey{Floor: 1, Number: 1}, entry); err != nil {
		t.Fatal(err)
	}
	result, err := eng.ledger.CloseSession(ctx, "34WVP01", entry.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	processor := parking.NewPaymentProcessor(eng.store)
	if _, err := processor.Settle(ctx, result.Session.ID, parking.PayCash, entry.Add(2*time.Hour)); !errors.Is(err, parking.ErrSessionAlreadyPaid) {
		t.Errorf("got %v, want ErrSessionAlreadyPaid", err)
	}
}

func TestPaymentProcessor_Validation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	processor := parking.NewPaymentProcessor(eng.store)
	now := time.Now().UTC()

	if _, err := processor.Settle(ctx, "", parking.PayCash, now); !errors.Is(err, parking.ErrInvalidInput) {
		t.Errorf("empty session: got %v, want ErrInvalidInput", err)
	}
	if _, err := processor.Settle(ctx, "some-id", "bitcoin", now); !errors.Is(err, parking.ErrInvalidInput) {
		t.Errorf("bad method: got %v, want ErrInvalidInput", err)
	}
	if _, err := processor.Settle(ctx, "missing", parking.PayCash, now); !errors.Is(err, parking.ErrSessionNotFound) {
		t.Errorf("unknown session: got %v, want ErrSessionNotFound", err)
	}
}
