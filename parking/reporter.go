/*
reporter.go - Read-side occupancy and revenue aggregates

PURPOSE:
  The OccupancyReporter computes facility statistics from current spot and
  session state. It is strictly read-only: no aggregate here ever mutates a
  session, spot or payment.

AGGREGATES:
  - Occupancy ratio facility-wide and per floor
  - Daily/monthly revenue: sum of payment amounts inside the window;
    subscription-waived sessions contribute zero and are counted separately
  - Top customers by visit count over a bounded window with a caller limit
  - Vehicle type distribution
*/
package parking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// FloorOccupancy is the spot census of one floor.
type FloorOccupancy struct {
	Floor       int     `json:"floor"`
	Total       int     `json:"total"`
	Occupied    int     `json:"occupied"`
	Empty       int     `json:"empty"`
	Maintenance int     `json:"maintenance"`
	Ratio       float64 `json:"ratio"`
}

// OccupancySnapshot is the facility-wide census plus per-floor breakdown.
type OccupancySnapshot struct {
	Total       int              `json:"total"`
	Occupied    int              `json:"occupied"`
	Empty       int              `json:"empty"`
	Maintenance int              `json:"maintenance"`
	Ratio       float64          `json:"ratio"`
	Floors      []FloorOccupancy `json:"floors"`
}

// RevenueReport aggregates settled payments inside a window. Sessions whose
// fee was waived by a subscription contribute nothing and are reported
// separately for transparency.
type RevenueReport struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Total          Money     `json:"-"`
	PaymentCount   int       `json:"payment_count"`
	WaivedSessions int       `json:"waived_sessions"`
}

// CustomerVisits is one row of the top-customers report.
type CustomerVisits struct {
	CustomerID CustomerID `json:"customer_id"`
	Name       string     `json:"name"`
	Surname    string     `json:"surname"`
	Visits     int        `json:"visits"`
}

// OccupancyReporter aggregates spot/session/payment state on demand.
type OccupancyReporter struct {
	store Store
}

func NewOccupancyReporter(store Store) *OccupancyReporter {
	return &OccupancyReporter{store: store}
}

// Snapshot returns the current occupancy census. Floor 0 means all floors.
func (r *OccupancyReporter) Snapshot(ctx context.Context, floor int) (*OccupancySnapshot, error) {
	spots, err := r.store.ListSpots(ctx, floor)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}

	snap := &OccupancySnapshot{}
	byFloor := make(map[int]*FloorOccupancy)
	for _, spot := range spots {
		fo := byFloor[spot.Key.Floor]
		if fo == nil {
			fo = &FloorOccupancy{Floor: spot.Key.Floor}
			byFloor[spot.Key.Floor] = fo
		}
		snap.Total++
		fo.Total++
		switch spot.Status {
		case SpotOccupied:
			snap.Occupied++
			fo.Occupied++
		case SpotMaintenance:
			snap.Maintenance++
			fo.Maintenance++
		default:
			snap.Empty++
			fo.Empty++
		}
	}

	floors := make([]int, 0, len(byFloor))
	for f := range byFloor {
		floors = append(floors, f)
	}
	sort.Ints(floors)
	for _, f := range floors {
		fo := byFloor[f]
		if fo.Total > 0 {
			fo.Ratio = float64(fo.Occupied) / float64(fo.Total)
		}
		snap.Floors = append(snap.Floors, *fo)
	}
	if snap.Total > 0 {
		snap.Ratio = float64(snap.Occupied) / float64(snap.Total)
	}
	return snap, nil
}

// DailyRevenue reports revenue for the calendar day containing date (UTC).
func (r *OccupancyReporter) DailyRevenue(ctx context.Context, date time.Time) (*RevenueReport, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return r.Revenue(ctx, from, from.AddDate(0, 0, 1))
}

// MonthlyRevenue reports revenue for the given calendar month (UTC).
func (r *OccupancyReporter) MonthlyRevenue(ctx context.Context, year int, month time.Month) (*RevenueReport, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return r.Revenue(ctx, from, from.AddDate(0, 1, 0))
}

// Revenue sums payments settled in [from, to) and counts the waived
// sessions entered in the same window. A waived visit has no settlement
// instant, so its entry time anchors it to a reporting day.
func (r *OccupancyReporter) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	payments, err := r.store.PaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	report := &RevenueReport{From: from, To: to, Total: ZeroMoney()}
	for _, p := range payments {
		report.Total = report.Total.Add(p.Amount)
		report.PaymentCount++
	}

	sessions, err := r.store.SessionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	for _, s := range sessions {
		if s.FeeWaived {
			report.WaivedSessions++
		}
	}
	return report, nil
}

// TopCustomers returns the customers with the most visits started inside
// [from, to), limited to the caller-supplied count. Walk-in sessions have no
// customer and are excluded.
func (r *OccupancyReporter) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerVisits, error) {
	if limit <= 0 {
		limit = 10
	}
	sessions, err := r.store.SessionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	visitsByOwner := make(map[CustomerID]int)
	vehicleOwner := make(map[VehicleID]*CustomerID)
	for _, s := range sessions {
		owner, seen := vehicleOwner[s.VehicleID]
		if !seen {
			vehicle, err := r.store.GetVehicleByPlate(ctx, s.Plate)
			if errors.Is(err, ErrVehicleNotFound) {
				// Vehicle record gone; treat the visit as a walk-in.
				vehicleOwner[s.VehicleID] = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("resolve vehicle %s: %w", s.Plate, err)
			}
			owner = vehicle.OwnerID
			vehicleOwner[s.VehicleID] = owner
		}
		if owner != nil {
			visitsByOwner[*owner]++
		}
	}

	rows := make([]CustomerVisits, 0, len(visitsByOwner))
	for id, visits := range visitsByOwner {
		row := CustomerVisits{CustomerID: id, Visits: visits}
		c, err := r.store.GetCustomer(ctx, id)
		if err != nil && !errors.Is(err, ErrCustomerNotFound) {
			return nil, fmt.Errorf("resolve customer %s: %w", id, err)
		}
		if err == nil {
			row.Name = c.Name
			row.Surname = c.Surname
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Visits != rows[j].Visits {
			return rows[i].Visits > rows[j].Visits
		}
		return rows[i].CustomerID < rows[j].CustomerID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// VehicleTypeCounts returns how many registered vehicles exist per type.
func (r *OccupancyReporter) VehicleTypeCounts(ctx context.Context) (map[VehicleType]int, error) {
	vehicles, err := r.store.ListVehicles(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	counts := make(map[VehicleType]int)
	for _, v := range vehicles {
		counts[v.Type]++
	}
	return counts, nil
}
