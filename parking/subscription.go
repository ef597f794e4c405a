/*
subscription.go - Subscription registry and fee waivers

PURPOSE:
  Registration and lookup of flat-rate subscriptions. An active subscription
  for a customer waives billing for all of that customer's vehicle sessions
  while it is active.

SEMANTICS:
  - Registering a new subscription never deactivates prior ones; multiple
    concurrent subscriptions are permitted.
  - HasActive is true if ANY subscription qualifies: status Active and the
    instant inside [StartDate, EndDate].
  - Expiry is derived at read time from the window; Cancelled is an explicit
    operator action.
*/
package parking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan describes a subscription product: a named duration with a flat fee.
type Plan struct {
	Type   string
	Months int
	Fee    Money
}

// SubscriptionRegistry registers subscriptions and answers waiver lookups.
type SubscriptionRegistry struct {
	plans map[string]Plan
}

func NewSubscriptionRegistry(plans []Plan) *SubscriptionRegistry {
	byType := make(map[string]Plan, len(plans))
	for _, p := range plans {
		byType[strings.ToLower(p.Type)] = p
	}
	return &SubscriptionRegistry{plans: byType}
}

// Plans returns the configured plan set.
func (r *SubscriptionRegistry) Plans() []Plan {
	out := make([]Plan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	return out
}

// Register creates a new subscription for the customer starting at startDate.
// The validity window is derived from the plan's duration. Prior
// subscriptions are left untouched.
func (r *SubscriptionRegistry) Register(ctx context.Context, store Store, customer CustomerID, planType string, startDate time.Time) (*Subscription, error) {
	if customer == "" {
		return nil, fmt.Errorf("%w: customer reference required", ErrInvalidInput)
	}
	plan, ok := r.plans[strings.ToLower(planType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planType)
	}
	if _, err := store.GetCustomer(ctx, customer); err != nil {
		return nil, err
	}

	sub := Subscription{
		ID:         SubscriptionID(uuid.NewString()),
		CustomerID: customer,
		Type:       plan.Type,
		StartDate:  startDate,
		EndDate:    startDate.AddDate(0, plan.Months, 0),
		Status:     SubscriptionActive,
		Fee:        plan.Fee,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.InsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	return &sub, nil
}

// HasActive reports whether the customer holds any subscription that waives
// billing at the given instant.
func (r *SubscriptionRegistry) HasActive(ctx context.Context, store Store, customer CustomerID, now time.Time) (bool, error) {
	return store.HasActiveSubscription(ctx, customer, now)
}
