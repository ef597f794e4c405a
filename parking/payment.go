/*
payment.go - Settlement of closed sessions

PURPOSE:
  The PaymentProcessor settles the outstanding fee of a closed, unpaid visit.
  Settlement is exactly-once: the second attempt on the same session returns
  ErrSessionAlreadyPaid and records nothing.

ATOMICITY:
  The paid flag and the payment record are written in one transaction; a
  session marked paid without its payment row (or the reverse) cannot occur.
*/
package parking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentProcessor settles fees against closed sessions.
type PaymentProcessor struct {
	store TxStore
}

func NewPaymentProcessor(store TxStore) *PaymentProcessor {
	return &PaymentProcessor{store: store}
}

// Settle records payment for a closed, unpaid session.
func (p *PaymentProcessor) Settle(ctx context.Context, sessionID SessionID, method PaymentMethod, now time.Time) (*Payment, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session reference required", ErrInvalidInput)
	}
	if !ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidInput, method)
	}

	var payment Payment
	err := p.store.WithTx(ctx, func(s Store) error {
		session, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Open() {
			return fmt.Errorf("%w: %s", ErrSessionNotClosed, sessionID)
		}
		if session.Paid {
			return fmt.Errorf("%w: %s", ErrSessionAlreadyPaid, sessionID)
		}

		amount := ZeroMoney()
		if session.Fee != nil {
			amount = *session.Fee
		}
		payment = Payment{
			ID:        PaymentID(uuid.NewString()),
			SessionID: session.ID,
			Amount:    amount,
			Method:    method,
			PaidAt:    now,
		}
		if err := s.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := s.MarkSessionPaid(ctx, session.ID); err != nil {
			return fmt.Errorf("mark session paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
