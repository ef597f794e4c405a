/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY REPRESENTATION:
  Monetary amounts cross the wire as decimal strings ("60", "12.50"),
  never as floats. Clients that need arithmetic parse them with a
  decimal library on their side.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/tariff.go: Billing configuration JSON
*/
package api

import (
	"time"

	"github.com/valet/parking-engine/parking"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SpotDTO represents one parking spot in API responses.
type SpotDTO struct {
	Floor  int    `json:"floor"`
	Number int    `json:"number"`
	Status string `json:"status"`
	HeldBy string `json:"held_by,omitempty"`
}

// CreateSpotsRequest adds a contiguous run of spots on one floor.
type CreateSpotsRequest struct {
	Floor int `json:"floor"`
	From  int `json:"from"`
	To    int `json:"to"`
}

// MaintenanceRequest toggles a spot in or out of maintenance.
type MaintenanceRequest struct {
	Floor  int  `json:"floor"`
	Number int  `json:"number"`
	Down   bool `json:"down"`
}

// CustomerDTO represents a customer in API responses.
type CustomerDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	NationalID string `json:"national_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreateCustomerRequest is the request to register a customer.
type CreateCustomerRequest struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	NationalID string `json:"national_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

// VehicleDTO represents a vehicle in API responses.
type VehicleDTO struct {
	ID        string `json:"id"`
	Plate     string `json:"plate"`
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	Color     string `json:"color,omitempty"`
	Type      string `json:"type"`
	OwnerID   string `json:"owner_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// RegisterVehicleRequest is the request to register a vehicle. OwnerID may be
// empty for a vehicle with no customer on file.
type RegisterVehicleRequest struct {
	Plate   string `json:"plate"`
	Brand   string `json:"brand,omitempty"`
	Model   string `json:"model,omitempty"`
	Color   string `json:"color,omitempty"`
	Type    string `json:"type"`
	OwnerID string `json:"owner_id,omitempty"`
}

// SessionDTO represents one visit in API responses.
type SessionDTO struct {
	ID             string `json:"id"`
	Plate          string `json:"plate"`
	VehicleID      string `json:"vehicle_id"`
	Floor          int    `json:"floor"`
	Number         int    `json:"number"`
	EntryTime      string `json:"entry_time"`
	ExitTime       string `json:"exit_time,omitempty"`
	ElapsedMinutes int64  `json:"elapsed_minutes"`
	Fee            string `json:"fee,omitempty"`
	FeeWaived      bool   `json:"fee_waived"`
	Paid           bool   `json:"paid"`
}

// GateEntryRequest records a vehicle arriving at a spot.
type GateEntryRequest struct {
	Plate  string `json:"plate"`
	Floor  int    `json:"floor"`
	Number int    `json:"number"`
}

// GateExitRequest records a vehicle leaving.
type GateExitRequest struct {
	Plate string `json:"plate"`
}

// GateExitResponse carries the closed visit plus its computed fee. Warning is
// set when the spot release failed after the close was recorded; the exit
// stands and the spot needs operator attention.
type GateExitResponse struct {
	Session        SessionDTO `json:"session"`
	ElapsedMinutes int64      `json:"elapsed_minutes"`
	Fee            string     `json:"fee"`
	FeeWaived      bool       `json:"fee_waived"`
	Warning        string     `json:"warning,omitempty"`
}

// SettleRequest settles a closed visit.
type SettleRequest struct {
	Method string `json:"method"` // cash, card, transfer
}

// PaymentDTO represents a settlement record.
type PaymentDTO struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	PaidAt    string `json:"paid_at"`
}

// SubscribeRequest registers a subscription for a customer.
type SubscribeRequest struct {
	PlanType  string `json:"plan_type"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to today
}

// SubscriptionDTO represents a subscription in API responses.
type SubscriptionDTO struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	PlanType   string `json:"plan_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status"`
	Fee        string `json:"fee"`
}

// PlanDTO represents one subscription product.
type PlanDTO struct {
	Type   string `json:"type"`
	Months int    `json:"months"`
	Fee    string `json:"fee"`
}

// StaffDTO represents a staff member.
type StaffDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	NationalID string `json:"national_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Position   string `json:"position,omitempty"`
	Salary     string `json:"salary"`
}

// CreateStaffRequest is the request to add a staff member.
type CreateStaffRequest struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	NationalID string `json:"national_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Position   string `json:"position,omitempty"`
	Salary     string `json:"salary"`
}

// ShiftDTO represents one shift assignment.
type ShiftDTO struct {
	ID      string `json:"id"`
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
	Type    string `json:"type"`
}

// AssignShiftRequest assigns a staff member to a shift.
type AssignShiftRequest struct {
	StaffID string `json:"staff_id"`
	Date    string `json:"date"` // YYYY-MM-DD
	Type    string `json:"type"` // morning, evening, night
}

// RevenueDTO represents a revenue window in API responses.
type RevenueDTO struct {
	From           string `json:"from"`
	To             string `json:"to"`
	Total          string `json:"total"`
	PaymentCount   int    `json:"payment_count"`
	WaivedSessions int    `json:"waived_sessions"`
}

// DashboardDTO is the operator landing-page aggregate.
type DashboardDTO struct {
	Occupancy           parking.OccupancySnapshot `json:"occupancy"`
	OpenSessions        int                       `json:"open_sessions"`
	UnpaidSessions      int                       `json:"unpaid_sessions"`
	TodayRevenue        string                    `json:"today_revenue"`
	TodayWaived         int                       `json:"today_waived"`
	ActiveSubscriptions int                       `json:"active_subscriptions"`
	VehicleTypes        map[string]int            `json:"vehicle_types"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toSpotDTO(s parking.Spot) SpotDTO {
	return SpotDTO{
		Floor:  s.Key.Floor,
		Number: s.Key.Number,
		Status: string(s.Status),
		HeldBy: string(s.HeldBy),
	}
}

func toCustomerDTO(c parking.Customer) CustomerDTO {
	return CustomerDTO{
		ID:         string(c.ID),
		Name:       c.Name,
		Surname:    c.Surname,
		NationalID: c.NationalID,
		Phone:      c.Phone,
		Email:      c.Email,
		Address:    c.Address,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

func toVehicleDTO(v parking.Vehicle) VehicleDTO {
	dto := VehicleDTO{
		ID:        string(v.ID),
		Plate:     v.Plate,
		Brand:     v.Brand,
		Model:     v.Model,
		Color:     v.Color,
		Type:      string(v.Type),
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
	if v.OwnerID != nil {
		dto.OwnerID = string(*v.OwnerID)
	}
	return dto
}

// toSessionDTO renders a visit. For open visits the elapsed minutes run
// against now; closed visits report entry-to-exit.
func toSessionDTO(s parking.Session, now time.Time) SessionDTO {
	dto := SessionDTO{
		ID:        string(s.ID),
		Plate:     s.Plate,
		VehicleID: string(s.VehicleID),
		Floor:     s.Spot.Floor,
		Number:    s.Spot.Number,
		EntryTime: s.EntryTime.Format(time.RFC3339),
		FeeWaived: s.FeeWaived,
		Paid:      s.Paid,
	}
	if s.ExitTime != nil {
		dto.ExitTime = s.ExitTime.Format(time.RFC3339)
		dto.ElapsedMinutes = s.ElapsedMinutes(*s.ExitTime)
	} else {
		dto.ElapsedMinutes = s.ElapsedMinutes(now)
	}
	if s.Fee != nil {
		dto.Fee = s.Fee.String()
	}
	return dto
}

func toSessionDTOs(sessions []parking.Session, now time.Time) []SessionDTO {
	dtos := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		dtos[i] = toSessionDTO(s, now)
	}
	return dtos
}

func toSubscriptionDTO(s parking.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:         string(s.ID),
		CustomerID: string(s.CustomerID),
		PlanType:   s.Type,
		StartDate:  s.StartDate.Format("2006-01-02"),
		EndDate:    s.EndDate.Format("2006-01-02"),
		Status:     string(s.Status),
		Fee:        s.Fee.String(),
	}
}

func toPaymentDTO(p parking.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        string(p.ID),
		SessionID: string(p.SessionID),
		Amount:    p.Amount.String(),
		Method:    string(p.Method),
		PaidAt:    p.PaidAt.Format(time.RFC3339),
	}
}

func toRevenueDTO(r parking.RevenueReport) RevenueDTO {
	return RevenueDTO{
		From:           r.From.Format(time.RFC3339),
		To:             r.To.Format(time.RFC3339),
		Total:          r.Total.String(),
		PaymentCount:   r.PaymentCount,
		WaivedSessions: r.WaivedSessions,
	}
}
