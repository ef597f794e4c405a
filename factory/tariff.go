/*
Package factory provides JSON to Go tariff and plan conversion.

PURPOSE:
  Converts JSON billing configuration into parking.Tariff and parking.Plan
  values. This keeps fares out of code - an operator can change the rate,
  billing unit or plan durations without a rebuild.

JSON SCHEMA:
  {
    "tariff": {
      "rate_per_unit": "20",
      "billing_unit_minutes": 60,
      "minimum_charge": "20"
    },
    "plans": [
      {"type": "monthly", "months": 1, "fee": "750"},
      {"type": "yearly", "months": 12, "fee": "7500"}
    ]
  }

  Monetary values are decimal strings, never floats.

USAGE:
  cfg, err := factory.ParseConfig(data)
  engine := parking.NewTariffEngine(cfg.Tariff, parking.NewSubscriptionRegistry(cfg.Plans))

SEE ALSO:
  - parking/tariff.go:       Tariff semantics (ceiling rounding, minimum charge)
  - parking/subscription.go: Plan semantics
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/valet/parking-engine/parking"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of the facility's billing setup.
type ConfigJSON struct {
	Tariff TariffJSON `json:"tariff"`
	Plans  []PlanJSON `json:"plans,omitempty"`
}

// TariffJSON represents the per-visit billing configuration.
type TariffJSON struct {
	RatePerUnit        string `json:"rate_per_unit"`
	BillingUnitMinutes int64  `json:"billing_unit_minutes"`
	MinimumCharge      string `json:"minimum_charge,omitempty"`
}

// PlanJSON represents one subscription product.
type PlanJSON struct {
	Type   string `json:"type"`
	Months int    `json:"months"`
	Fee    string `json:"fee,omitempty"`
}

// Config is the parsed billing setup.
type Config struct {
	Tariff parking.Tariff
	Plans  []parking.Plan
}

// =============================================================================
// PARSING
// =============================================================================

// ParseConfig parses and validates a billing configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var doc ConfigJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse billing config: %w", err)
	}

	tariff, err := parseTariff(doc.Tariff)
	if err != nil {
		return nil, err
	}

	plans := make([]parking.Plan, 0, len(doc.Plans))
	for i, pj := range doc.Plans {
		plan, err := parsePlan(pj)
		if err != nil {
			return nil, fmt.Errorf("plan %d: %w", i, err)
		}
		plans = append(plans, plan)
	}

	return &Config{Tariff: tariff, Plans: plans}, nil
}

func parseTariff(tj TariffJSON) (parking.Tariff, error) {
	rate, err := parking.ParseMoney(tj.RatePerUnit)
	if err != nil {
		return parking.Tariff{}, fmt.Errorf("rate_per_unit: %w", err)
	}
	min := parking.ZeroMoney()
	if tj.MinimumCharge != "" {
		min, err = parking.ParseMoney(tj.MinimumCharge)
		if err != nil {
			return parking.Tariff{}, fmt.Errorf("minimum_charge: %w", err)
		}
	}
	tariff := parking.Tariff{
		RatePerUnit:   rate,
		UnitMinutes:   tj.BillingUnitMinutes,
		MinimumCharge: min,
	}
	if err := tariff.Validate(); err != nil {
		return parking.Tariff{}, err
	}
	return tariff, nil
}

func parsePlan(pj PlanJSON) (parking.Plan, error) {
	if pj.Type == "" {
		return parking.Plan{}, fmt.Errorf("%w: plan type required", parking.ErrInvalidInput)
	}
	if pj.Months <= 0 {
		return parking.Plan{}, fmt.Errorf("%w: plan duration must be positive months", parking.ErrInvalidInput)
	}
	fee := parking.ZeroMoney()
	if pj.Fee != "" {
		var err error
		fee, err = parking.ParseMoney(pj.Fee)
		if err != nil {
			return parking.Plan{}, fmt.Errorf("fee: %w", err)
		}
	}
	return parking.Plan{Type: pj.Type, Months: pj.Months, Fee: fee}, nil
}

// =============================================================================
// PRESETS
// =============================================================================

// StandardConfigJSON returns a complete billing document: hourly billing
// with a one-unit minimum and the monthly/quarterly/yearly plan set.
func StandardConfigJSON(ratePerHour, minimumCharge string) string {
	return fmt.Sprintf(`{
  "tariff": {
    "rate_per_unit": %q,
    "billing_unit_minutes": 60,
    "minimum_charge": %q
  },
  "plans": [
    {"type": "monthly", "months": 1, "fee": "750"},
    {"type": "quarterly", "months": 3, "fee": "2000"},
    {"type": "yearly", "months": 12, "fee": "7500"}
  ]
}`, ratePerHour, minimumCharge)
}

// DefaultConfig is the fallback used when no billing file is supplied.
func DefaultConfig() *Config {
	cfg, err := ParseConfig([]byte(StandardConfigJSON("20", "20")))
	if err != nil {
		panic(err) // preset is static; a failure here is a programming error
	}
	return cfg
}
