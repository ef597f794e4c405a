/*
tariff.go - Elapsed time to fee conversion

PURPOSE:
  The TariffEngine converts elapsed minutes into a monetary fee, consulting
  the SubscriptionRegistry first: an active subscription is a hard waiver,
  fee zero regardless of duration.

BILLING RULES:
  fee = ratePerUnit * ceil(elapsed / unitMinutes)

  - Rounding is always upward (ceiling), never nearest or downward.
    61 minutes on a 60-minute unit bills two units.
  - Elapsed time of exactly zero still bills one unit: a session always
    incurs at least one billing unit unless exempt.
  - A configured minimum charge applies when the computed fee falls below it.

  Billing unit, rate and minimum charge are facility configuration (see the
  factory package), never hardcoded here.
*/
package parking

import (
	"context"
	"fmt"
	"time"
)

// Tariff is the facility's billing configuration.
type Tariff struct {
	// RatePerUnit is charged for each started billing unit.
	RatePerUnit Money
	// UnitMinutes is the billing granularity, e.g. 60.
	UnitMinutes int64
	// MinimumCharge is the floor for any non-waived fee.
	MinimumCharge Money
}

// Validate checks the tariff is usable: positive unit, non-negative amounts.
func (t Tariff) Validate() error {
	if t.UnitMinutes <= 0 {
		return fmt.Errorf("%w: billing unit must be positive, got %d", ErrInvalidInput, t.UnitMinutes)
	}
	if t.RatePerUnit.Value.IsNegative() || t.MinimumCharge.Value.IsNegative() {
		return fmt.Errorf("%w: tariff amounts must be non-negative", ErrInvalidInput)
	}
	return nil
}

// BillingUnits returns how many units the elapsed minutes occupy, rounding
// up. Zero elapsed minutes occupy one unit.
func (t Tariff) BillingUnits(elapsedMinutes int64) int64 {
	if elapsedMinutes <= 0 {
		return 1
	}
	units := elapsedMinutes / t.UnitMinutes
	if elapsedMinutes%t.UnitMinutes != 0 {
		units++
	}
	return units
}

// TariffEngine computes session fees.
type TariffEngine struct {
	tariff        Tariff
	subscriptions *SubscriptionRegistry
}

func NewTariffEngine(tariff Tariff, subs *SubscriptionRegistry) *TariffEngine {
	return &TariffEngine{tariff: tariff, subscriptions: subs}
}

// Tariff returns the engine's billing configuration.
func (e *TariffEngine) Tariff() Tariff { return e.tariff }

// ComputeFee returns the fee for a visit of elapsedMinutes by a vehicle
// owned by owner (nil for walk-ins). The second return reports whether the
// fee was waived by an active subscription.
//
// Walk-in vehicles have no owner and therefore can never hold a
// subscription; the registry is not consulted for them.
func (e *TariffEngine) ComputeFee(ctx context.Context, store Store, owner *CustomerID, elapsedMinutes int64, now time.Time) (Money, bool, error) {
	if owner != nil {
		active, err := e.subscriptions.HasActive(ctx, store, *owner, now)
		if err != nil {
			return Money{}, false, err
		}
		if active {
			return ZeroMoney(), true, nil
		}
	}

	fee := e.tariff.RatePerUnit.MulInt(e.tariff.BillingUnits(elapsedMinutes))
	if fee.LessThan(e.tariff.MinimumCharge) {
		fee = e.tariff.MinimumCharge
	}
	return fee, false, nil
}
