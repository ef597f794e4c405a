// Package store provides the in-memory Store implementation (for testing/dev).
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valet/parking-engine/parking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements parking.TxStore with mutex-guarded maps. The single
// store lock makes every check-then-act sequence atomic, which is exactly
// the serializable boundary the engine requires; contention granularity is
// coarser than a per-spot lock but the observable semantics are the same.
type Memory struct {
	mu sync.RWMutex

	spots            map[parking.SpotKey]parking.Spot
	customers        map[parking.CustomerID]parking.Customer
	vehiclesByPlate  map[string]parking.Vehicle
	sessions         map[parking.SessionID]parking.Session
	openByPlate      map[string]parking.SessionID
	subscriptions    map[parking.SubscriptionID]parking.Subscription
	payments         map[parking.PaymentID]parking.Payment
	paymentBySession map[parking.SessionID]parking.PaymentID
	staff            map[parking.StaffID]parking.Staff
	shifts           []parking.Shift
}

func NewMemory() *Memory {
	return &Memory{
		spots:            make(map[parking.SpotKey]parking.Spot),
		customers:        make(map[parking.CustomerID]parking.Customer),
		vehiclesByPlate:  make(map[string]parking.Vehicle),
		sessions:         make(map[parking.SessionID]parking.Session),
		openByPlate:      make(map[string]parking.SessionID),
		subscriptions:    make(map[parking.SubscriptionID]parking.Subscription),
		payments:         make(map[parking.PaymentID]parking.Payment),
		paymentBySession: make(map[parking.SessionID]parking.PaymentID),
		staff:            make(map[parking.StaffID]parking.Staff),
	}
}

// Reset clears all data. Used by demo scenario loaders.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spots = make(map[parking.SpotKey]parking.Spot)
	m.customers = make(map[parking.CustomerID]parking.Customer)
	m.vehiclesByPlate = make(map[string]parking.Vehicle)
	m.sessions = make(map[parking.SessionID]parking.Session)
	m.openByPlate = make(map[string]parking.SessionID)
	m.subscriptions = make(map[parking.SubscriptionID]parking.Subscription)
	m.payments = make(map[parking.PaymentID]parking.Payment)
	m.paymentBySession = make(map[parking.SessionID]parking.PaymentID)
	m.staff = make(map[parking.StaffID]parking.Staff)
	m.shifts = nil
	return nil
}

// =============================================================================
// SPOTS
// =============================================================================

func (m *Memory) GetSpot(_ context.Context, key parking.SpotKey) (*parking.Spot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getSpotLocked(key)
}

func (m *Memory) getSpotLocked(key parking.SpotKey) (*parking.Spot, error) {
	spot, ok := m.spots[key]
	if !ok {
		return nil, parking.ErrSpotNotFound
	}
	return &spot, nil
}

func (m *Memory) ListSpots(_ context.Context, floor int) ([]parking.Spot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSpotsLocked(floor)
}

func (m *Memory) listSpotsLocked(floor int) ([]parking.Spot, error) {
	var out []parking.Spot
	for _, spot := range m.spots {
		if floor != 0 && spot.Key.Floor != floor {
			continue
		}
		out = append(out, spot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Floor != out[j].Key.Floor {
			return out[i].Key.Floor < out[j].Key.Floor
		}
		return out[i].Key.Number < out[j].Key.Number
	})
	return out, nil
}

func (m *Memory) SaveSpot(_ context.Context, spot parking.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveSpotLocked(spot)
}

func (m *Memory) saveSpotLocked(spot parking.Spot) error {
	m.spots[spot.Key] = spot
	return nil
}

func (m *Memory) ReserveSpot(_ context.Context, key parking.SpotKey, holder parking.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveSpotLocked(key, holder)
}

func (m *Memory) reserveSpotLocked(key parking.SpotKey, holder parking.SessionID) error {
	spot, ok := m.spots[key]
	if !ok {
		return parking.ErrSpotNotFound
	}
	if spot.Status != parking.SpotEmpty {
		return &parking.SpotConflictError{Key: key, State: spot.Status}
	}
	spot.Status = parking.SpotOccupied
	spot.HeldBy = holder
	m.spots[key] = spot
	return nil
}

func (m *Memory) ReleaseSpot(_ context.Context, key parking.SpotKey, holder parking.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseSpotLocked(key, holder)
}

func (m *Memory) releaseSpotLocked(key parking.SpotKey, holder parking.SessionID) error {
	spot, ok := m.spots[key]
	if !ok {
		return parking.ErrSpotNotFound
	}
	if spot.Status != parking.SpotOccupied || spot.HeldBy != holder {
		return parking.ErrSpotNotHeld
	}
	spot.Status = parking.SpotEmpty
	spot.HeldBy = ""
	m.spots[key] = spot
	return nil
}

func (m *Memory) SetSpotMaintenance(_ context.Context, key parking.SpotKey, down bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setSpotMaintenanceLocked(key, down)
}

func (m *Memory) setSpotMaintenanceLocked(key parking.SpotKey, down bool) error {
	spot, ok := m.spots[key]
	if !ok {
		return parking.ErrSpotNotFound
	}
	if spot.Status == parking.SpotOccupied {
		return &parking.SpotConflictError{Key: key, State: spot.Status}
	}
	if down {
		spot.Status = parking.SpotMaintenance
	} else {
		spot.Status = parking.SpotEmpty
	}
	m.spots[key] = spot
	return nil
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (m *Memory) GetCustomer(_ context.Context, id parking.CustomerID) (*parking.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCustomerLocked(id)
}

func (m *Memory) getCustomerLocked(id parking.CustomerID) (*parking.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, parking.ErrCustomerNotFound
	}
	return &c, nil
}

func (m *Memory) SaveCustomer(_ context.Context, c parking.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.ID] = c
	return nil
}

func (m *Memory) ListCustomers(_ context.Context) ([]parking.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]parking.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SearchCustomers(_ context.Context, query string) ([]parking.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searchCustomersLocked(query)
}

func (m *Memory) searchCustomersLocked(query string) ([]parking.Customer, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []parking.Customer
	for _, c := range m.customers {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Surname), q) ||
			strings.Contains(strings.ToLower(c.Phone), q) {
			out = append(out, c)
			continue
		}
		// Plate fragment match across the customer's vehicles.
		for _, v := range m.vehiclesByPlate {
			if v.OwnerID != nil && *v.OwnerID == c.ID && strings.Contains(strings.ToLower(v.Plate), q) {
				out = append(out, c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// VEHICLES
// =============================================================================

func (m *Memory) GetVehicleByPlate(_ context.Context, plate string) (*parking.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getVehicleLocked(plate)
}

func (m *Memory) getVehicleLocked(plate string) (*parking.Vehicle, error) {
	v, ok := m.vehiclesByPlate[parking.NormalizePlate(plate)]
	if !ok {
		return nil, parking.ErrVehicleNotFound
	}
	return &v, nil
}

func (m *Memory) SaveVehicle(_ context.Context, v parking.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveVehicleLocked(v)
}

func (m *Memory) saveVehicleLocked(v parking.Vehicle) error {
	v.Plate = parking.NormalizePlate(v.Plate)
	if _, exists := m.vehiclesByPlate[v.Plate]; exists {
		return parking.ErrDuplicatePlate
	}
	m.vehiclesByPlate[v.Plate] = v
	return nil
}

func (m *Memory) ListVehicles(_ context.Context, owner *parking.CustomerID) ([]parking.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []parking.Vehicle
	for _, v := range m.vehiclesByPlate {
		if owner != nil && (v.OwnerID == nil || *v.OwnerID != *owner) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

func (m *Memory) GetSession(_ context.Context, id parking.SessionID) (*parking.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getSessionLocked(id)
}

func (m *Memory) getSessionLocked(id parking.SessionID) (*parking.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, parking.ErrSessionNotFound
	}
	return &s, nil
}

func (m *Memory) GetOpenSessionByPlate(_ context.Context, plate string) (*parking.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getOpenSessionLocked(plate)
}

func (m *Memory) getOpenSessionLocked(plate string) (*parking.Session, error) {
	id, ok := m.openByPlate[parking.NormalizePlate(plate)]
	if !ok {
		return nil, parking.ErrSessionNotFound
	}
	s := m.sessions[id]
	return &s, nil
}

func (m *Memory) InsertSession(_ context.Context, s parking.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertSessionLocked(s)
}

func (m *Memory) insertSessionLocked(s parking.Session) error {
	s.Plate = parking.NormalizePlate(s.Plate)
	if _, open := m.openByPlate[s.Plate]; open {
		return parking.ErrSessionAlreadyOpen
	}
	m.sessions[s.ID] = s
	m.openByPlate[s.Plate] = s.ID
	return nil
}

func (m *Memory) CloseSession(_ context.Context, id parking.SessionID, exit time.Time, fee parking.Money, waived bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeSessionLocked(id, exit, fee, waived)
}

func (m *Memory) closeSessionLocked(id parking.SessionID, exit time.Time, fee parking.Money, waived bool) error {
	s, ok := m.sessions[id]
	if !ok {
		return parking.ErrSessionNotFound
	}
	if !s.Open() {
		return parking.ErrVehicleNotParked
	}
	s.ExitTime = &exit
	s.Fee = &fee
	s.FeeWaived = waived
	m.sessions[id] = s
	delete(m.openByPlate, s.Plate)
	return nil
}

func (m *Memory) MarkSessionPaid(_ context.Context, id parking.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markSessionPaidLocked(id)
}

func (m *Memory) markSessionPaidLocked(id parking.SessionID) error {
	s, ok := m.sessions[id]
	if !ok {
		return parking.ErrSessionNotFound
	}
	s.Paid = true
	m.sessions[id] = s
	return nil
}

func (m *Memory) ListOpenSessions(_ context.Context) ([]parking.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []parking.Session
	for _, id := range m.openByPlate {
		out = append(out, m.sessions[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.Before(out[j].EntryTime) })
	return out, nil
}

func (m *Memory) ListUnpaidSessions(_ context.Context) ([]parking.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []parking.Session
	for _, s := range m.sessions {
		if !s.Open() && !s.Paid && !s.FeeWaived {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.Before(out[j].EntryTime) })
	return out, nil
}

func (m *Memory) SessionsBetween(_ context.Context, from, to time.Time) ([]parking.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionsBetweenLocked(from, to)
}

func (m *Memory) sessionsBetweenLocked(from, to time.Time) ([]parking.Session, error) {
	var out []parking.Session
	for _, s := range m.sessions {
		if !s.EntryTime.Before(from) && s.EntryTime.Before(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.Before(out[j].EntryTime) })
	return out, nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func (m *Memory) InsertSubscription(_ context.Context, sub parking.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[sub.ID] = sub
	return nil
}

func (m *Memory) ListSubscriptions(_ context.Context, customer *parking.CustomerID) ([]parking.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []parking.Subscription
	for _, sub := range m.subscriptions {
		if customer != nil && sub.CustomerID != *customer {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) HasActiveSubscription(_ context.Context, customer parking.CustomerID, now time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasActiveSubscriptionLocked(customer, now)
}

func (m *Memory) hasActiveSubscriptionLocked(customer parking.CustomerID, now time.Time) (bool, error) {
	for _, sub := range m.subscriptions {
		if sub.CustomerID == customer && sub.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CancelSubscription(_ context.Context, id parking.SubscriptionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return parking.ErrInvalidInput
	}
	sub.Status = parking.SubscriptionCancelled
	m.subscriptions[id] = sub
	return nil
}

func (m *Memory) ExpireSubscriptions(_ context.Context, asOf time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expireSubscriptionsLocked(asOf)
}

func (m *Memory) expireSubscriptionsLocked(asOf time.Time) (int, error) {
	n := 0
	for id, sub := range m.subscriptions {
		if sub.Status == parking.SubscriptionActive && asOf.After(sub.EndDate) {
			sub.Status = parking.SubscriptionExpired
			m.subscriptions[id] = sub
			n++
		}
	}
	return n, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) InsertPayment(_ context.Context, p parking.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPaymentLocked(p)
}

func (m *Memory) insertPaymentLocked(p parking.Payment) error {
	if _, exists := m.paymentBySession[p.SessionID]; exists {
		return parking.ErrSessionAlreadyPaid
	}
	m.payments[p.ID] = p
	m.paymentBySession[p.SessionID] = p.ID
	return nil
}

func (m *Memory) PaymentsBetween(_ context.Context, from, to time.Time) ([]parking.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []parking.Payment
	for _, p := range m.payments {
		if !p.PaidAt.Before(from) && p.PaidAt.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

// =============================================================================
// STAFF / SHIFTS
// =============================================================================

func (m *Memory) SaveStaff(_ context.Context, st parking.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[st.ID] = st
	return nil
}

func (m *Memory) ListStaff(_ context.Context) ([]parking.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]parking.Staff, 0, len(m.staff))
	for _, st := range m.staff {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveShift(_ context.Context, sh parking.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveShiftLocked(sh)
}

// saveShiftLocked upserts on (staff, date): one shift per staff per day.
func (m *Memory) saveShiftLocked(sh parking.Shift) error {
	day := sh.Date.Format("2006-01-02")
	for i := range m.shifts {
		if m.shifts[i].StaffID == sh.StaffID && m.shifts[i].Date.Format("2006-01-02") == day {
			m.shifts[i].Type = sh.Type
			return nil
		}
	}
	m.shifts = append(m.shifts, sh)
	return nil
}

func (m *Memory) ListShifts(_ context.Context, date time.Time) ([]parking.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listShiftsLocked(date)
}

func (m *Memory) listShiftsLocked(date time.Time) ([]parking.Shift, error) {
	var out []parking.Shift
	day := date.Format("2006-01-02")
	for _, sh := range m.shifts {
		if date.IsZero() || sh.Date.Format("2006-01-02") == day {
			out = append(out, sh)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction. The store lock is held for the
// whole of fn, which serializes concurrent units of work; rollback is
// simulated with a snapshot + restore on error.
func (m *Memory) WithTx(_ context.Context, fn func(parking.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	view := &txView{parent: m}
	if err := fn(view); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	spots            map[parking.SpotKey]parking.Spot
	customers        map[parking.CustomerID]parking.Customer
	vehiclesByPlate  map[string]parking.Vehicle
	sessions         map[parking.SessionID]parking.Session
	openByPlate      map[string]parking.SessionID
	subscriptions    map[parking.SubscriptionID]parking.Subscription
	payments         map[parking.PaymentID]parking.Payment
	paymentBySession map[parking.SessionID]parking.PaymentID
	staff            map[parking.StaffID]parking.Staff
	shifts           []parking.Shift
}

func (m *Memory) snapshot() memorySnapshot {
	return memorySnapshot{
		spots:            copyMap(m.spots),
		customers:        copyMap(m.customers),
		vehiclesByPlate:  copyMap(m.vehiclesByPlate),
		sessions:         copyMap(m.sessions),
		openByPlate:      copyMap(m.openByPlate),
		subscriptions:    copyMap(m.subscriptions),
		payments:         copyMap(m.payments),
		paymentBySession: copyMap(m.paymentBySession),
		staff:            copyMap(m.staff),
		shifts:           append([]parking.Shift(nil), m.shifts...),
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.spots = s.spots
	m.customers = s.customers
	m.vehiclesByPlate = s.vehiclesByPlate
	m.sessions = s.sessions
	m.openByPlate = s.openByPlate
	m.subscriptions = s.subscriptions
	m.payments = s.payments
	m.paymentBySession = s.paymentBySession
	m.staff = s.staff
	m.shifts = s.shifts
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// txView routes Store calls to the parent's unlocked internals. Only valid
// while the parent's lock is held by WithTx.
type txView struct {
	parent *Memory
}

func (tv *txView) GetSpot(_ context.Context, key parking.SpotKey) (*parking.Spot, error) {
	return tv.parent.getSpotLocked(key)
}

func (tv *txView) ListSpots(_ context.Context, floor int) ([]parking.Spot, error) {
	return tv.parent.listSpotsLocked(floor)
}

func (tv *txView) SaveSpot(_ context.Context, spot parking.Spot) error {
	return tv.parent.saveSpotLocked(spot)
}

func (tv *txView) ReserveSpot(_ context.Context, key parking.SpotKey, holder parking.SessionID) error {
	return tv.parent.reserveSpotLocked(key, holder)
}

func (tv *txView) ReleaseSpot(_ context.Context, key parking.SpotKey, holder parking.SessionID) error {
	return tv.parent.releaseSpotLocked(key, holder)
}

func (tv *txView) SetSpotMaintenance(_ context.Context, key parking.SpotKey, down bool) error {
	return tv.parent.setSpotMaintenanceLocked(key, down)
}

func (tv *txView) GetCustomer(_ context.Context, id parking.CustomerID) (*parking.Customer, error) {
	return tv.parent.getCustomerLocked(id)
}

func (tv *txView) SaveCustomer(_ context.Context, c parking.Customer) error {
	tv.parent.customers[c.ID] = c
	return nil
}

func (tv *txView) ListCustomers(ctx context.Context) ([]parking.Customer, error) {
	var out []parking.Customer
	for _, c := range tv.parent.customers {
		out = append(out, c)
	}
	return out, nil
}

func (tv *txView) SearchCustomers(_ context.Context, query string) ([]parking.Customer, error) {
	return tv.parent.searchCustomersLocked(query)
}

func (tv *txView) GetVehicleByPlate(_ context.Context, plate string) (*parking.Vehicle, error) {
	return tv.parent.getVehicleLocked(plate)
}

func (tv *txView) SaveVehicle(_ context.Context, v parking.Vehicle) error {
	return tv.parent.saveVehicleLocked(v)
}

func (tv *txView) ListVehicles(_ context.Context, owner *parking.CustomerID) ([]parking.Vehicle, error) {
	var out []parking.Vehicle
	for _, v := range tv.parent.vehiclesByPlate {
		if owner != nil && (v.OwnerID == nil || *v.OwnerID != *owner) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (tv *txView) GetSession(_ context.Context, id parking.SessionID) (*parking.Session, error) {
	return tv.parent.getSessionLocked(id)
}

func (tv *txView) GetOpenSessionByPlate(_ context.Context, plate string) (*parking.Session, error) {
	return tv.parent.getOpenSessionLocked(plate)
}

func (tv *txView) InsertSession(_ context.Context, s parking.Session) error {
	return tv.parent.insertSessionLocked(s)
}

func (tv *txView) CloseSession(_ context.Context, id parking.SessionID, exit time.Time, fee parking.Money, waived bool) error {
	return tv.parent.closeSessionLocked(id, exit, fee, waived)
}

func (tv *txView) MarkSessionPaid(_ context.Context, id parking.SessionID) error {
	return tv.parent.markSessionPaidLocked(id)
}

func (tv *txView) ListOpenSessions(ctx context.Context) ([]parking.Session, error) {
	var out []parking.Session
	for _, id := range tv.parent.openByPlate {
		out = append(out, tv.parent.sessions[id])
	}
	return out, nil
}

func (tv *txView) ListUnpaidSessions(ctx context.Context) ([]parking.Session, error) {
	var out []parking.Session
	for _, s := range tv.parent.sessions {
		if !s.Open() && !s.Paid && !s.FeeWaived {
			out = append(out, s)
		}
	}
	return out, nil
}

func (tv *txView) SessionsBetween(_ context.Context, from, to time.Time) ([]parking.Session, error) {
	return tv.parent.sessionsBetweenLocked(from, to)
}

func (tv *txView) InsertSubscription(_ context.Context, sub parking.Subscription) error {
	tv.parent.subscriptions[sub.ID] = sub
	return nil
}

func (tv *txView) ListSubscriptions(_ context.Context, customer *parking.CustomerID) ([]parking.Subscription, error) {
	var out []parking.Subscription
	for _, sub := range tv.parent.subscriptions {
		if customer != nil && sub.CustomerID != *customer {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (tv *txView) HasActiveSubscription(_ context.Context, customer parking.CustomerID, now time.Time) (bool, error) {
	return tv.parent.hasActiveSubscriptionLocked(customer, now)
}

func (tv *txView) CancelSubscription(_ context.Context, id parking.SubscriptionID) error {
	sub, ok := tv.parent.subscriptions[id]
	if !ok {
		return parking.ErrInvalidInput
	}
	sub.Status = parking.SubscriptionCancelled
	tv.parent.subscriptions[id] = sub
	return nil
}

func (tv *txView) ExpireSubscriptions(_ context.Context, asOf time.Time) (int, error) {
	return tv.parent.expireSubscriptionsLocked(asOf)
}

func (tv *txView) InsertPayment(_ context.Context, p parking.Payment) error {
	return tv.parent.insertPaymentLocked(p)
}

func (tv *txView) PaymentsBetween(_ context.Context, from, to time.Time) ([]parking.Payment, error) {
	var out []parking.Payment
	for _, p := range tv.parent.payments {
		if !p.PaidAt.Before(from) && p.PaidAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tv *txView) SaveStaff(_ context.Context, st parking.Staff) error {
	tv.parent.staff[st.ID] = st
	return nil
}

func (tv *txView) ListStaff(ctx context.Context) ([]parking.Staff, error) {
	var out []parking.Staff
	for _, st := range tv.parent.staff {
		out = append(out, st)
	}
	return out, nil
}

func (tv *txView) SaveShift(_ context.Context, sh parking.Shift) error {
	return tv.parent.saveShiftLocked(sh)
}

func (tv *txView) ListShifts(_ context.Context, date time.Time) ([]parking.Shift, error) {
	return tv.parent.listShiftsLocked(date)
}
