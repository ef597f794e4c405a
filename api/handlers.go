/*
handlers.go - HTTP API handlers for the parking engine

PURPOSE:
  Exposes the occupancy and billing engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Gate:
    POST   /api/gate/entry             Vehicle arrives at a spot
    POST   /api/gate/exit              Vehicle leaves, fee computed

  Sessions:
    GET    /api/sessions/active        Vehicles currently parked
    GET    /api/sessions/unpaid        Closed visits awaiting settlement
    GET    /api/sessions/{id}          Single visit
    POST   /api/sessions/{id}/settle   Record payment

  Customers / Vehicles:
    GET    /api/customers              List customers
    POST   /api/customers              Register customer
    GET    /api/customers/search?q=    Search by name/phone/plate
    POST   /api/vehicles               Register vehicle

  Subscriptions:
    POST   /api/customers/{id}/subscriptions  Subscribe to a plan
    POST   /api/subscriptions/{id}/cancel     Cancel

  Reports:
    GET    /api/reports/occupancy      Occupancy snapshot
    GET    /api/reports/revenue/daily  Daily revenue
    GET    /api/reports/dashboard      Operator landing-page aggregate

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (transactional)
  - Ledger/Allocator/Tariff/Subscriptions/Reporter: Domain components

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (ledger, allocator, reporter)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Domain error kinds map to HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (occupied spot, double entry, double settlement)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/valet/parking-engine/factory"
	"github.com/valet/parking-engine/parking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API layer needs: the engine's transactional
// contract plus the destructive reset used by scenario loading.
type Store interface {
	parking.TxStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         Store
	Ledger        *parking.SessionLedger
	Allocator     *parking.SpotAllocator
	Tariff        *parking.TariffEngine
	Subscriptions *parking.SubscriptionRegistry
	Reporter      *parking.OccupancyReporter

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler wires the domain components over the given store using the
// parsed billing configuration.
func NewHandler(store Store, cfg *factory.Config) *Handler {
	subs := parking.NewSubscriptionRegistry(cfg.Plans)
	allocator := parking.NewSpotAllocator(store)
	tariff := parking.NewTariffEngine(cfg.Tariff, subs)
	return &Handler{
		Store:         store,
		Ledger:        parking.NewSessionLedger(store, allocator, tariff),
		Allocator:     allocator,
		Tariff:        tariff,
		Subscriptions: subs,
		Reporter:      parking.NewOccupancyReporter(store),
	}
}

// =============================================================================
// GATE HANDLERS
// =============================================================================

// GateEntry records a vehicle arriving at a spot.
// POST /api/gate/entry
func (h *Handler) GateEntry(w http.ResponseWriter, r *http.Request) {
	var req GateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	session, err := h.Ledger.OpenSession(r.Context(),
		req.Plate, parking.SpotKey{Floor: req.Floor, Number: req.Number}, time.Now().UTC())
	if err != nil {
		writeDomainError(w, "Failed to open session", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionDTO(*session, time.Now().UTC()))
}

// GateExit records a vehicle leaving and returns the computed fee.
// POST /api/gate/exit
func (h *Handler) GateExit(w http.ResponseWriter, r *http.Request) {
	var req GateExitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	now := time.Now().UTC()
	result, err := h.Ledger.CloseSession(r.Context(), req.Plate, now)
	if err != nil {
		writeDomainError(w, "Failed to close session", err)
		return
	}

	resp := GateExitResponse{
		Session:        toSessionDTO(result.Session, now),
		ElapsedMinutes: result.ElapsedMinutes,
		FeeWaived:      result.Session.FeeWaived,
	}
	if result.Session.Fee != nil {
		resp.Fee = result.Session.Fee.String()
	}
	if result.Fault != nil {
		resp.Warning = result.Fault.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// ListActiveSessions returns vehicles currently parked.
// GET /api/sessions/active
func (h *Handler) ListActiveSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Store.ListOpenSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions, time.Now().UTC()))
}

// ListUnpaidSessions returns closed visits awaiting settlement.
// GET /api/sessions/unpaid
func (h *Handler) ListUnpaidSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Store.ListUnpaidSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions, time.Now().UTC()))
}

// GetSession returns a single visit.
// GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := parking.SessionID(chi.URLParam(r, "id"))

	session, err := h.Store.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get session", err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(*session, time.Now().UTC()))
}

// SettleSession records payment for a closed visit.
// POST /api/sessions/{id}/settle
func (h *Handler) SettleSession(w http.ResponseWriter, r *http.Request) {
	id := parking.SessionID(chi.URLParam(r, "id"))

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	processor := parking.NewPaymentProcessor(h.Store)
	payment, err := processor.Settle(r.Context(), id, parking.PaymentMethod(req.Method), time.Now().UTC())
	if err != nil {
		writeDomainError(w, "Failed to settle session", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentDTO(*payment))
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

// ListCustomers returns all customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}

	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCustomer registers a new customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Surname == "" {
		writeError(w, http.StatusBadRequest, "name and surname are required", nil)
		return
	}

	customer := parking.Customer{
		ID:         parking.CustomerID(uuid.NewString()),
		Name:       req.Name,
		Surname:    req.Surname,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.Store.SaveCustomer(r.Context(), customer); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create customer", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCustomerDTO(customer))
}

// SearchCustomers matches customers by name, surname, phone or plate fragment.
// GET /api/customers/search?q=
func (h *Handler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required", nil)
		return
	}

	customers, err := h.Store.SearchCustomers(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search customers", err)
		return
	}

	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCustomer returns a single customer.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := parking.CustomerID(chi.URLParam(r, "id"))

	customer, err := h.Store.GetCustomer(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get customer", err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(*customer))
}

// ListCustomerVehicles returns vehicles registered to a customer.
func (h *Handler) ListCustomerVehicles(w http.ResponseWriter, r *http.Request) {
	id := parking.CustomerID(chi.URLParam(r, "id"))

	vehicles, err := h.Store.ListVehicles(r.Context(), &id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vehicles", err)
		return
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListCustomerSubscriptions returns a customer's subscription history.
func (h *Handler) ListCustomerSubscriptions(w http.ResponseWriter, r *http.Request) {
	id := parking.CustomerID(chi.URLParam(r, "id"))

	subs, err := h.Store.ListSubscriptions(r.Context(), &id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list subscriptions", err)
		return
	}

	dtos := make([]SubscriptionDTO, len(subs))
	for i, s := range subs {
		dtos[i] = toSubscriptionDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Subscribe registers a subscription for a customer.
// POST /api/customers/{id}/subscriptions
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	id := parking.CustomerID(chi.URLParam(r, "id"))

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
		startDate = parsed
	}

	sub, err := h.Subscriptions.Register(r.Context(), h.Store, id, req.PlanType, startDate)
	if err != nil {
		writeDomainError(w, "Failed to register subscription", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubscriptionDTO(*sub))
}

// =============================================================================
// VEHICLE HANDLERS
// =============================================================================

// ListVehicles returns all vehicles, optionally filtered by owner.
// GET /api/vehicles?owner_id=
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	var owner *parking.CustomerID
	if q := r.URL.Query().Get("owner_id"); q != "" {
		id := parking.CustomerID(q)
		owner = &id
	}

	vehicles, err := h.Store.ListVehicles(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vehicles", err)
		return
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RegisterVehicle registers a vehicle, optionally linked to a customer.
func (h *Handler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	var req RegisterVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if parking.NormalizePlate(req.Plate) == "" {
		writeError(w, http.StatusBadRequest, "plate is required", nil)
		return
	}

	vtype := parking.VehicleType(req.Type)
	if vtype == "" {
		vtype = parking.VehicleCar
	}

	vehicle := parking.Vehicle{
		ID:        parking.VehicleID(uuid.NewString()),
		Plate:     parking.NormalizePlate(req.Plate),
		Brand:     req.Brand,
		Model:     req.Model,
		Color:     req.Color,
		Type:      vtype,
		CreatedAt: time.Now().UTC(),
	}
	if req.OwnerID != "" {
		owner := parking.CustomerID(req.OwnerID)
		if _, err := h.Store.GetCustomer(r.Context(), owner); err != nil {
			writeDomainError(w, "Failed to resolve owner", err)
			return
		}
		vehicle.OwnerID = &owner
	}

	if err := h.Store.SaveVehicle(r.Context(), vehicle); err != nil {
		writeDomainError(w, "Failed to register vehicle", err)
		return
	}

	writeJSON(w, http.StatusCreated, toVehicleDTO(vehicle))
}

// GetVehicle returns a vehicle by plate.
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	plate := chi.URLParam(r, "plate")

	vehicle, err := h.Store.GetVehicleByPlate(r.Context(), plate)
	if err != nil {
		writeDomainError(w, "Failed to get vehicle", err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleDTO(*vehicle))
}

// =============================================================================
// SUBSCRIPTION HANDLERS
// =============================================================================

// ListSubscriptions returns all subscriptions.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Store.ListSubscriptions(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list subscriptions", err)
		return
	}

	dtos := make([]SubscriptionDTO, len(subs))
	for i, s := range subs {
		dtos[i] = toSubscriptionDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CancelSubscription cancels a subscription.
// POST /api/subscriptions/{id}/cancel
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	id := parking.SubscriptionID(chi.URLParam(r, "id"))

	if err := h.Store.CancelSubscription(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to cancel subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ListPlans returns the subscription product catalogue.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.Subscriptions.Plans()
	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = PlanDTO{Type: p.Type, Months: p.Months, Fee: p.Fee.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SPOT HANDLERS
// =============================================================================

// ListSpots returns the spot inventory, optionally for one floor and/or
// one state (e.g. status=empty lists free spots).
// GET /api/spots?floor=&status=
func (h *Handler) ListSpots(w http.ResponseWriter, r *http.Request) {
	floor := 0
	if q := r.URL.Query().Get("floor"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid floor", err)
			return
		}
		floor = parsed
	}

	var status parking.SpotState
	if q := r.URL.Query().Get("status"); q != "" {
		status = parking.SpotState(q)
		switch status {
		case parking.SpotEmpty, parking.SpotOccupied, parking.SpotMaintenance:
		default:
			writeError(w, http.StatusBadRequest, "status must be empty, occupied or maintenance", nil)
			return
		}
	}

	spots, err := h.Store.ListSpots(r.Context(), floor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list spots", err)
		return
	}

	dtos := make([]SpotDTO, 0, len(spots))
	for _, s := range spots {
		if status != "" && s.Status != status {
			continue
		}
		dtos = append(dtos, toSpotDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSpots adds a contiguous run of empty spots on one floor.
func (h *Handler) CreateSpots(w http.ResponseWriter, r *http.Request) {
	var req CreateSpotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Floor < 1 || req.From < 1 || req.To < req.From {
		writeError(w, http.StatusBadRequest, "floor, from and to must describe a positive range", nil)
		return
	}

	count := 0
	for n := req.From; n <= req.To; n++ {
		spot := parking.Spot{
			Key:    parking.SpotKey{Floor: req.Floor, Number: n},
			Status: parking.SpotEmpty,
		}
		if err := h.Store.SaveSpot(r.Context(), spot); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create spots", err)
			return
		}
		count++
	}

	writeJSON(w, http.StatusCreated, map[string]int{"created": count})
}

// SetSpotMaintenance toggles a spot in or out of maintenance.
// POST /api/spots/maintenance
func (h *Handler) SetSpotMaintenance(w http.ResponseWriter, r *http.Request) {
	var req MaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	key := parking.SpotKey{Floor: req.Floor, Number: req.Number}
	if err := h.Allocator.SetMaintenance(r.Context(), key, req.Down); err != nil {
		writeDomainError(w, "Failed to update spot", err)
		return
	}

	spot, err := h.Store.GetSpot(r.Context(), key)
	if err != nil {
		writeDomainError(w, "Failed to read spot back", err)
		return
	}
	writeJSON(w, http.StatusOK, toSpotDTO(*spot))
}

// =============================================================================
// STAFF / SHIFT HANDLERS
// =============================================================================

// ListStaff returns all staff members.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.ListStaff(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list staff", err)
		return
	}

	dtos := make([]StaffDTO, len(staff))
	for i, s := range staff {
		dtos[i] = StaffDTO{
			ID:         string(s.ID),
			Name:       s.Name,
			Surname:    s.Surname,
			NationalID: s.NationalID,
			Phone:      s.Phone,
			Position:   s.Position,
			Salary:     s.Salary.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStaff adds a staff member.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Surname == "" {
		writeError(w, http.StatusBadRequest, "name and surname are required", nil)
		return
	}

	salary := parking.ZeroMoney()
	if req.Salary != "" {
		parsed, err := parking.ParseMoney(req.Salary)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid salary", err)
			return
		}
		salary = parsed
	}

	staff := parking.Staff{
		ID:         parking.StaffID(uuid.NewString()),
		Name:       req.Name,
		Surname:    req.Surname,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		Position:   req.Position,
		Salary:     salary,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.Store.SaveStaff(r.Context(), staff); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create staff", err)
		return
	}

	writeJSON(w, http.StatusCreated, StaffDTO{
		ID:       string(staff.ID),
		Name:     staff.Name,
		Surname:  staff.Surname,
		Position: staff.Position,
		Salary:   staff.Salary.String(),
	})
}

// ListShifts returns shift assignments, optionally for one date.
// GET /api/shifts?date=YYYY-MM-DD
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = parsed
	}

	shifts, err := h.Store.ListShifts(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = ShiftDTO{
			ID:      s.ID,
			StaffID: string(s.StaffID),
			Date:    s.Date.Format("2006-01-02"),
			Type:    string(s.Type),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AssignShift assigns a staff member to a shift. Re-assigning the same staff
// and date replaces the shift type.
func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var req AssignShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	shiftType := parking.ShiftType(req.Type)
	switch shiftType {
	case parking.ShiftMorning, parking.ShiftEvening, parking.ShiftNight:
	default:
		writeError(w, http.StatusBadRequest, "type must be morning, evening or night", nil)
		return
	}

	shift := parking.Shift{
		ID:      uuid.NewString(),
		StaffID: parking.StaffID(req.StaffID),
		Date:    date,
		Type:    shiftType,
	}
	if err := h.Store.SaveShift(r.Context(), shift); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assign shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, ShiftDTO{
		ID:      shift.ID,
		StaffID: req.StaffID,
		Date:    req.Date,
		Type:    req.Type,
	})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// OccupancyReport returns the occupancy snapshot, optionally for one floor.
// GET /api/reports/occupancy?floor=
func (h *Handler) OccupancyReport(w http.ResponseWriter, r *http.Request) {
	floor := 0
	if q := r.URL.Query().Get("floor"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid floor", err)
			return
		}
		floor = parsed
	}

	snapshot, err := h.Reporter.Snapshot(r.Context(), floor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build occupancy report", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// RevenueReport returns revenue for an arbitrary window.
// GET /api/reports/revenue?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) RevenueReport(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	report, err := h.Reporter.Revenue(r.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build revenue report", err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueDTO(*report))
}

// DailyRevenueReport returns revenue for one day (defaults to today).
// GET /api/reports/revenue/daily?date=YYYY-MM-DD
func (h *Handler) DailyRevenueReport(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = parsed
	}

	report, err := h.Reporter.DailyRevenue(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build revenue report", err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueDTO(*report))
}

// MonthlyRevenueReport returns revenue for one month (defaults to current).
// GET /api/reports/revenue/monthly?year=&month=
func (h *Handler) MonthlyRevenueReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()

	if q := r.URL.Query().Get("year"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}
	if q := r.URL.Query().Get("month"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 || parsed > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		month = time.Month(parsed)
	}

	report, err := h.Reporter.MonthlyRevenue(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build revenue report", err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueDTO(*report))
}

// TopCustomersReport returns the most frequent visitors in a window.
// GET /api/reports/top-customers?from=&to=&limit=
func (h *Handler) TopCustomersReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now

	if q := r.URL.Query().Get("from"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		from = parsed
	}
	if q := r.URL.Query().Get("to"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	rows, err := h.Reporter.TopCustomers(r.Context(), from, to, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build top-customers report", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// VehicleTypeReport returns registered vehicle counts per type.
// GET /api/reports/vehicle-types
func (h *Handler) VehicleTypeReport(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Reporter.VehicleTypeCounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build vehicle-type report", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// Dashboard returns the operator landing-page aggregate.
// GET /api/reports/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	snapshot, err := h.Reporter.Snapshot(ctx, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	open, err := h.Store.ListOpenSessions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	unpaid, err := h.Store.ListUnpaidSessions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	revenue, err := h.Reporter.DailyRevenue(ctx, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	counts, err := h.Reporter.VehicleTypeCounts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	subs, err := h.Store.ListSubscriptions(ctx, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	activeSubs := 0
	for i := range subs {
		if subs[i].ActiveAt(now) {
			activeSubs++
		}
	}

	types := make(map[string]int, len(counts))
	for t, n := range counts {
		types[string(t)] = n
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		Occupancy:           *snapshot,
		OpenSessions:        len(open),
		UnpaidSessions:      len(unpaid),
		TodayRevenue:        revenue.Total.String(),
		TodayWaived:         revenue.WaivedSessions,
		ActiveSubscriptions: activeSubs,
		VehicleTypes:        types,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error kinds to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case parking.IsConflict(err) || parking.IsStateError(err):
		return http.StatusConflict
	case parking.IsNotFound(err):
		return http.StatusNotFound
	case parking.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
