/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates spots, customers,
	vehicles and sessions that demonstrate specific features.

AVAILABLE SCENARIOS:

	quiet-morning:    Small facility, a few vehicles parked
	busy-evening:     Ground floor nearly full, unpaid exits queued
	subscriber-fleet: Registered customers on plans, waived exits

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create the spot inventory
 3. Register customers and vehicles
 4. Drive entries/exits through the ledger with backdated clocks
 5. Optionally settle some sessions

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-evening"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared handler context and helpers
  - factory/tariff.go: Billing configuration
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/valet/parking-engine/parking"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "quiet-morning",
		Name:        "Quiet Morning",
		Description: "Small facility with a handful of vehicles parked",
	},
	{
		ID:          "busy-evening",
		Name:        "Busy Evening",
		Description: "Ground floor nearly full, several exits awaiting settlement",
	},
	{
		ID:          "subscriber-fleet",
		Name:        "Subscriber Fleet",
		Description: "Registered customers on plans, exits waived by subscription",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "quiet-morning":
		err = h.loadQuietMorningScenario(ctx)
	case "busy-evening":
		err = h.loadBusyEveningScenario(ctx)
	case "subscriber-fleet":
		err = h.loadSubscriberFleetScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedSpots creates floors of empty spots numbered 1..perFloor.
func (h *Handler) seedSpots(ctx context.Context, floors, perFloor int) error {
	for f := 1; f <= floors; f++ {
		for n := 1; n <= perFloor; n++ {
			spot := parking.Spot{
				Key:    parking.SpotKey{Floor: f, Number: n},
				Status: parking.SpotEmpty,
			}
			if err := h.Store.SaveSpot(ctx, spot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handler) seedCustomer(ctx context.Context, name, surname, phone string) (parking.CustomerID, error) {
	c := parking.Customer{
		ID:        parking.CustomerID(uuid.NewString()),
		Name:      name,
		Surname:   surname,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	return c.ID, h.Store.SaveCustomer(ctx, c)
}

func (h *Handler) seedVehicle(ctx context.Context, plate string, vtype parking.VehicleType, owner *parking.CustomerID) error {
	v := parking.Vehicle{
		ID:        parking.VehicleID(uuid.NewString()),
		Plate:     parking.NormalizePlate(plate),
		Type:      vtype,
		OwnerID:   owner,
		CreatedAt: time.Now().UTC(),
	}
	return h.Store.SaveVehicle(ctx, v)
}

// loadQuietMorningScenario: two floors, three vehicles parked for under an
// hour each, one staff member on the morning shift.
func (h *Handler) loadQuietMorningScenario(ctx context.Context) error {
	if err := h.seedSpots(ctx, 2, 10); err != nil {
		return err
	}

	ali, err := h.seedCustomer(ctx, "Ali", "Demir", "+90-532-111-0001")
	if err != nil {
		return err
	}
	if err := h.seedVehicle(ctx, "34ABC01", parking.VehicleCar, &ali); err != nil {
		return err
	}

	now := time.Now().UTC()
	entries := []struct {
		plate string
		spot  parking.SpotKey
		ago   time.Duration
	}{
		{"34ABC01", parking.SpotKey{Floor: 1, Number: 1}, 50 * time.Minute},
		{"34XYZ22", parking.SpotKey{Floor: 1, Number: 4}, 35 * time.Minute},
		{"06KLM77", parking.SpotKey{Floor: 2, Number: 2}, 10 * time.Minute},
	}
	for _, e := range entries {
		if _, err := h.Ledger.OpenSession(ctx, e.plate, e.spot, now.Add(-e.ago)); err != nil {
			return err
		}
	}

	guard := parking.Staff{
		ID:        parking.StaffID(uuid.NewString()),
		Name:      "Kemal",
		Surname:   "Aksoy",
		Position:  "attendant",
		Salary:    parking.MustMoney("17000"),
		CreatedAt: now,
	}
	if err := h.Store.SaveStaff(ctx, guard); err != nil {
		return err
	}
	return h.Store.SaveShift(ctx, parking.Shift{
		ID:      uuid.NewString(),
		StaffID: guard.ID,
		Date:    now,
		Type:    parking.ShiftMorning,
	})
}

// loadBusyEveningScenario: ground floor nearly full, two closed visits still
// unpaid, one already settled.
func (h *Handler) loadBusyEveningScenario(ctx context.Context) error {
	if err := h.seedSpots(ctx, 3, 8); err != nil {
		return err
	}

	now := time.Now().UTC()

	// Fill most of floor 1 with walk-ins that have been parked for a while.
	for n := 1; n <= 6; n++ {
		plate := fmt.Sprintf("34EVN%02d", n)
		spot := parking.SpotKey{Floor: 1, Number: n}
		if _, err := h.Ledger.OpenSession(ctx, plate, spot, now.Add(-time.Duration(30+15*n)*time.Minute)); err != nil {
			return err
		}
	}

	// Two vehicles left earlier today; their fees are still unpaid.
	for i, plate := range []string{"34OUT01", "34OUT02"} {
		spot := parking.SpotKey{Floor: 2, Number: i + 1}
		if _, err := h.Ledger.OpenSession(ctx, plate, spot, now.Add(-5*time.Hour)); err != nil {
			return err
		}
		if _, err := h.Ledger.CloseSession(ctx, plate, now.Add(-2*time.Hour)); err != nil {
			return err
		}
	}

	// One vehicle left and settled in cash.
	if _, err := h.Ledger.OpenSession(ctx, "34PAY01", parking.SpotKey{Floor: 3, Number: 1}, now.Add(-3*time.Hour)); err != nil {
		return err
	}
	result, err := h.Ledger.CloseSession(ctx, "34PAY01", now.Add(-time.Hour))
	if err != nil {
		return err
	}
	processor := parking.NewPaymentProcessor(h.Store)
	_, err = processor.Settle(ctx, result.Session.ID, parking.PayCash, now.Add(-time.Hour))
	return err
}

// loadSubscriberFleetScenario: registered customers on monthly plans whose
// exits are waived, plus one walk-in billed normally for contrast.
func (h *Handler) loadSubscriberFleetScenario(ctx context.Context) error {
	if err := h.seedSpots(ctx, 2, 12); err != nil {
		return err
	}

	now := time.Now().UTC()

	subscribers := []struct {
		name, surname, plate string
	}{
		{"Zeynep", "Kaya", "34SUB01"},
		{"Murat", "Yilmaz", "34SUB02"},
	}
	for i, s := range subscribers {
		id, err := h.seedCustomer(ctx, s.name, s.surname, fmt.Sprintf("+90-532-222-%04d", i))
		if err != nil {
			return err
		}
		if err := h.seedVehicle(ctx, s.plate, parking.VehicleCar, &id); err != nil {
			return err
		}
		if _, err := h.Subscriptions.Register(ctx, h.Store, id, "monthly", now.AddDate(0, 0, -10)); err != nil {
			return err
		}
	}

	// First subscriber came and went; the exit was waived.
	if _, err := h.Ledger.OpenSession(ctx, "34SUB01", parking.SpotKey{Floor: 1, Number: 1}, now.Add(-4*time.Hour)); err != nil {
		return err
	}
	if _, err := h.Ledger.CloseSession(ctx, "34SUB01", now.Add(-2*time.Hour)); err != nil {
		return err
	}

	// Second subscriber is currently parked.
	if _, err := h.Ledger.OpenSession(ctx, "34SUB02", parking.SpotKey{Floor: 1, Number: 2}, now.Add(-30*time.Minute)); err != nil {
		return err
	}

	// Walk-in for contrast: billed the standard tariff on exit.
	if _, err := h.Ledger.OpenSession(ctx, "34WLK99", parking.SpotKey{Floor: 2, Number: 5}, now.Add(-90*time.Minute)); err != nil {
		return err
	}
	_, err := h.Ledger.CloseSession(ctx, "34WLK99", now)
	return err
}
