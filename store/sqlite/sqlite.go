/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements parking.Store and parking.TxStore using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

HARD CONSTRAINTS (enforced by schema, not application code):
  - vehicles.plate is UNIQUE
  - at most one open session per plate   (partial unique index)
  - at most one open session per spot    (partial unique index)
  - at most one payment per session      (unique session_id)

ATOMIC PRIMITIVES:
  Reserve and release are conditional UPDATEs whose WHERE clause carries the
  expected current state; RowsAffected tells a won race from a lost one.
  Combined with the transaction wrapping in WithTx this gives the engine its
  compare-and-set semantics without advisory locks.

CONCURRENCY:
  A store-level mutex serializes write transactions. SQLite allows a single
  writer at a time; taking the lock up front avoids SQLITE_BUSY churn.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

REPRESENTATION:
  Timestamps are RFC3339 TEXT in UTC. Monetary amounts are decimal strings,
  round-tripped through parking.Money - never floats.

USAGE:
  store, err := sqlite.New("./data/parking.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := parking.NewSessionLedger(store, allocator, tariff)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - parking/store.go: Interface definitions
  - parking/ledger.go: Higher-level session ledger using TxStore
  - parking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/valet/parking-engine/parking"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so every accessor works
// inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn carries the full parking.Store implementation over a querier.
type conn struct {
	q querier
}

// Store implements parking.TxStore using SQLite.
type Store struct {
	conn
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and sidesteps
	// writer contention on file databases.
	db.SetMaxOpenConns(1)

	store := &Store{conn: conn{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS spots (
		floor INTEGER NOT NULL,
		number INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'empty',
		held_by TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (floor, number)
	);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		national_id TEXT,
		phone TEXT,
		email TEXT,
		address TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		plate TEXT NOT NULL UNIQUE,
		brand TEXT,
		model TEXT,
		color TEXT,
		vehicle_type TEXT NOT NULL,
		owner_id TEXT REFERENCES customers(id),
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vehicles_owner ON vehicles(owner_id);

	-- Sessions are append-only history: rows gain exit_time/fee/paid over
	-- their lifecycle but are never deleted.
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL,
		plate TEXT NOT NULL,
		floor INTEGER NOT NULL,
		number INTEGER NOT NULL,
		entry_time TEXT NOT NULL,
		exit_time TEXT,
		fee TEXT,
		fee_waived INTEGER NOT NULL DEFAULT 0,
		paid INTEGER NOT NULL DEFAULT 0
	);

	-- CRITICAL: one open session per plate and per spot at any instant.
	CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_open_plate
		ON sessions(plate) WHERE exit_time IS NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_open_spot
		ON sessions(floor, number) WHERE exit_time IS NULL;

	CREATE INDEX IF NOT EXISTS idx_sessions_entry ON sessions(entry_time);
	CREATE INDEX IF NOT EXISTS idx_sessions_unpaid
		ON sessions(paid) WHERE exit_time IS NOT NULL;

	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		plan_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		fee TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_customer
		ON subscriptions(customer_id, status);

	-- Settlement is exactly-once: one payment per session, by constraint.
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE REFERENCES sessions(id),
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		paid_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_paid_at ON payments(paid_at);

	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		national_id TEXT,
		phone TEXT,
		position TEXT,
		salary TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL REFERENCES staff(id),
		shift_date TEXT NOT NULL,
		shift_type TEXT NOT NULL,
		UNIQUE (staff_id, shift_date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn inside a single database transaction. Rolled back when
// fn returns an error, committed otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(parking.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&conn{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// SPOTS
// =============================================================================

func (c *conn) GetSpot(ctx context.Context, key parking.SpotKey) (*parking.Spot, error) {
	var spot parking.Spot
	var status, heldBy string
	err := c.q.QueryRowContext(ctx,
		`SELECT floor, number, status, held_by FROM spots WHERE floor = ? AND number = ?`,
		key.Floor, key.Number,
	).Scan(&spot.Key.Floor, &spot.Key.Number, &status, &heldBy)
	if err == sql.ErrNoRows {
		return nil, parking.ErrSpotNotFound
	}
	if err != nil {
		return nil, err
	}
	spot.Status = parking.SpotState(status)
	spot.HeldBy = parking.SessionID(heldBy)
	return &spot, nil
}

func (c *conn) ListSpots(ctx context.Context, floor int) ([]parking.Spot, error) {
	query := `SELECT floor, number, status, held_by FROM spots ORDER BY floor, number`
	args := []any{}
	if floor != 0 {
		query = `SELECT floor, number, status, held_by FROM spots WHERE floor = ? ORDER BY number`
		args = append(args, floor)
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []parking.Spot
	for rows.Next() {
		var spot parking.Spot
		var status, heldBy string
		if err := rows.Scan(&spot.Key.Floor, &spot.Key.Number, &status, &heldBy); err != nil {
			return nil, err
		}
		spot.Status = parking.SpotState(status)
		spot.HeldBy = parking.SessionID(heldBy)
		spots = append(spots, spot)
	}
	return spots, rows.Err()
}

func (c *conn) SaveSpot(ctx context.Context, spot parking.Spot) error {
	if spot.Status == "" {
		spot.Status = parking.SpotEmpty
	}
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO spots (floor, number, status, held_by) VALUES (?, ?, ?, ?)
		 ON CONFLICT(floor, number) DO UPDATE SET status = excluded.status, held_by = excluded.held_by`,
		spot.Key.Floor, spot.Key.Number, string(spot.Status), string(spot.HeldBy))
	return err
}

// ReserveSpot is the compare-and-set: the WHERE clause carries the expected
// prior state, RowsAffected separates the winner from everyone else.
func (c *conn) ReserveSpot(ctx context.Context, key parking.SpotKey, holder parking.SessionID) error {
	res, err := c.q.ExecContext(ctx,
		`UPDATE spots SET status = ?, held_by = ? WHERE floor = ? AND number = ? AND status = ?`,
		string(parking.SpotOccupied), string(holder), key.Floor, key.Number, string(parking.SpotEmpty))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	spot, err := c.GetSpot(ctx, key)
	if err != nil {
		return err
	}
	return &parking.SpotConflictError{Key: key, State: spot.Status}
}

func (c *conn) ReleaseSpot(ctx context.Context, key parking.SpotKey, holder parking.SessionID) error {
	res, err := c.q.ExecContext(ctx,
		`UPDATE spots SET status = ?, held_by = '' WHERE floor = ? AND number = ? AND status = ? AND held_by = ?`,
		string(parking.SpotEmpty), key.Floor, key.Number, string(parking.SpotOccupied), string(holder))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := c.GetSpot(ctx, key); err != nil {
		return err
	}
	return parking.ErrSpotNotHeld
}

func (c *conn) SetSpotMaintenance(ctx context.Context, key parking.SpotKey, down bool) error {
	from, to := parking.SpotEmpty, parking.SpotMaintenance
	if !down {
		from, to = parking.SpotMaintenance, parking.SpotEmpty
	}
	res, err := c.q.ExecContext(ctx,
		`UPDATE spots SET status = ? WHERE floor = ? AND number = ? AND status = ?`,
		string(to), key.Floor, key.Number, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	spot, err := c.GetSpot(ctx, key)
	if err != nil {
		return err
	}
	if spot.Status == to {
		// Already in the requested state, treat as success.
		return nil
	}
	return &parking.SpotConflictError{Key: key, State: spot.Status}
}

// =============================================================================
// CUSTOMERS
// =============================================================================

const customerColumns = `id, name, surname, national_id, phone, email, address, created_at`

func (c *conn) GetCustomer(ctx context.Context, id parking.CustomerID) (*parking.Customer, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, string(id))
	cust, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, parking.ErrCustomerNotFound
	}
	return cust, err
}

func (c *conn) SaveCustomer(ctx context.Context, cust parking.Customer) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, surname = excluded.surname,
			national_id = excluded.national_id, phone = excluded.phone,
			email = excluded.email, address = excluded.address`,
		string(cust.ID), cust.Name, cust.Surname, cust.NationalID,
		cust.Phone, cust.Email, cust.Address, formatTime(cust.CreatedAt))
	return err
}

func (c *conn) ListCustomers(ctx context.Context) ([]parking.Customer, error) {
	return c.queryCustomers(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at, id`)
}

func (c *conn) SearchCustomers(ctx context.Context, query string) ([]parking.Customer, error) {
	like := "%" + strings.TrimSpace(query) + "%"
	return c.queryCustomers(ctx,
		`SELECT DISTINCT c.id, c.name, c.surname, c.national_id, c.phone, c.email, c.address, c.created_at
		 FROM customers c
		 LEFT JOIN vehicles v ON v.owner_id = c.id
		 WHERE c.name LIKE ? OR c.surname LIKE ? OR c.phone LIKE ? OR v.plate LIKE ?
		 ORDER BY c.id`,
		like, like, like, strings.ToUpper(like))
}

func (c *conn) queryCustomers(ctx context.Context, query string, args ...any) ([]parking.Customer, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Customer
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cust)
	}
	return out, rows.Err()
}

// rowScanner lets scan helpers serve both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*parking.Customer, error) {
	var cust parking.Customer
	var id, createdAt string
	var nationalID, phone, email, address sql.NullString
	if err := row.Scan(&id, &cust.Name, &cust.Surname, &nationalID, &phone, &email, &address, &createdAt); err != nil {
		return nil, err
	}
	cust.ID = parking.CustomerID(id)
	cust.NationalID = nationalID.String
	cust.Phone = phone.String
	cust.Email = email.String
	cust.Address = address.String
	cust.CreatedAt = parseTime(createdAt)
	return &cust, nil
}

// =============================================================================
// VEHICLES
// =============================================================================

const vehicleColumns = `id, plate, brand, model, color, vehicle_type, owner_id, created_at`

func (c *conn) GetVehicleByPlate(ctx context.Context, plate string) (*parking.Vehicle, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE plate = ?`, parking.NormalizePlate(plate))
	v, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, parking.ErrVehicleNotFound
	}
	return v, err
}

func (c *conn) SaveVehicle(ctx context.Context, v parking.Vehicle) error {
	var owner any
	if v.OwnerID != nil {
		owner = string(*v.OwnerID)
	}
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO vehicles (`+vehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(v.ID), parking.NormalizePlate(v.Plate), v.Brand, v.Model, v.Color,
		string(v.Type), owner, formatTime(v.CreatedAt))
	if isUniqueViolation(err, "vehicles.plate") {
		return parking.ErrDuplicatePlate
	}
	return err
}

func (c *conn) ListVehicles(ctx context.Context, owner *parking.CustomerID) ([]parking.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY plate`
	args := []any{}
	if owner != nil {
		query = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE owner_id = ? ORDER BY plate`
		args = append(args, string(*owner))
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanVehicle(row rowScanner) (*parking.Vehicle, error) {
	var v parking.Vehicle
	var id, vtype, createdAt string
	var brand, model, color, owner sql.NullString
	if err := row.Scan(&id, &v.Plate, &brand, &model, &color, &vtype, &owner, &createdAt); err != nil {
		return nil, err
	}
	v.ID = parking.VehicleID(id)
	v.Brand = brand.String
	v.Model = model.String
	v.Color = color.String
	v.Type = parking.VehicleType(vtype)
	if owner.Valid {
		cid := parking.CustomerID(owner.String)
		v.OwnerID = &cid
	}
	v.CreatedAt = parseTime(createdAt)
	return &v, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

const sessionColumns = `id, vehicle_id, plate, floor, number, entry_time, exit_time, fee, fee_waived, paid`

func (c *conn) GetSession(ctx context.Context, id parking.SessionID) (*parking.Session, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, string(id))
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, parking.ErrSessionNotFound
	}
	return s, err
}

func (c *conn) GetOpenSessionByPlate(ctx context.Context, plate string) (*parking.Session, error) {
	row := c.q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE plate = ? AND exit_time IS NULL`,
		parking.NormalizePlate(plate))
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, parking.ErrSessionNotFound
	}
	return s, err
}

func (c *conn) InsertSession(ctx context.Context, s parking.Session) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO sessions (id, vehicle_id, plate, floor, number, entry_time) VALUES (?, ?, ?, ?, ?, ?)`,
		string(s.ID), string(s.VehicleID), parking.NormalizePlate(s.Plate),
		s.Spot.Floor, s.Spot.Number, formatTime(s.EntryTime))
	if isUniqueViolation(err, "sessions.plate") {
		return parking.ErrSessionAlreadyOpen
	}
	if isUniqueViolation(err, "sessions.floor") {
		return &parking.SpotConflictError{Key: s.Spot, State: parking.SpotOccupied}
	}
	return err
}

func (c *conn) CloseSession(ctx context.Context, id parking.SessionID, exit time.Time, fee parking.Money, waived bool) error {
	res, err := c.q.ExecContext(ctx,
		`UPDATE sessions SET exit_time = ?, fee = ?, fee_waived = ? WHERE id = ? AND exit_time IS NULL`,
		formatTime(exit), fee.String(), boolToInt(waived), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := c.GetSession(ctx, id); err != nil {
		return err
	}
	return parking.ErrVehicleNotParked
}

func (c *conn) MarkSessionPaid(ctx context.Context, id parking.SessionID) error {
	res, err := c.q.ExecContext(ctx,
		`UPDATE sessions SET paid = 1 WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return parking.ErrSessionNotFound
	}
	return nil
}

func (c *conn) ListOpenSessions(ctx context.Context) ([]parking.Session, error) {
	return c.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE exit_time IS NULL ORDER BY entry_time`)
}

func (c *conn) ListUnpaidSessions(ctx context.Context) ([]parking.Session, error) {
	return c.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE exit_time IS NOT NULL AND paid = 0 AND fee_waived = 0
		 ORDER BY entry_time`)
}

func (c *conn) SessionsBetween(ctx context.Context, from, to time.Time) ([]parking.Session, error) {
	return c.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE entry_time >= ? AND entry_time < ? ORDER BY entry_time`,
		formatTime(from), formatTime(to))
}

func (c *conn) querySessions(ctx context.Context, query string, args ...any) ([]parking.Session, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSession(row rowScanner) (*parking.Session, error) {
	var s parking.Session
	var id, vehicleID, entry string
	var exit, fee sql.NullString
	var waived, paid int
	if err := row.Scan(&id, &vehicleID, &s.Plate, &s.Spot.Floor, &s.Spot.Number,
		&entry, &exit, &fee, &waived, &paid); err != nil {
		return nil, err
	}
	s.ID = parking.SessionID(id)
	s.VehicleID = parking.VehicleID(vehicleID)
	s.EntryTime = parseTime(entry)
	if exit.Valid {
		t := parseTime(exit.String)
		s.ExitTime = &t
	}
	if fee.Valid {
		m, err := parking.ParseMoney(fee.String)
		if err != nil {
			return nil, fmt.Errorf("session %s: bad fee: %w", id, err)
		}
		s.Fee = &m
	}
	s.FeeWaived = waived != 0
	s.Paid = paid != 0
	return &s, nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

const subscriptionColumns = `id, customer_id, plan_type, start_date, end_date, status, fee, created_at`

func (c *conn) InsertSubscription(ctx context.Context, sub parking.Subscription) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sub.ID), string(sub.CustomerID), sub.Type,
		formatTime(sub.StartDate), formatTime(sub.EndDate),
		string(sub.Status), sub.Fee.String(), formatTime(sub.CreatedAt))
	return err
}

func (c *conn) ListSubscriptions(ctx context.Context, customer *parking.CustomerID) ([]parking.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at, id`
	args := []any{}
	if customer != nil {
		query = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE customer_id = ? ORDER BY created_at, id`
		args = append(args, string(*customer))
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Subscription
	for rows.Next() {
		var sub parking.Subscription
		var id, custID, status, start, end, fee, created string
		if err := rows.Scan(&id, &custID, &sub.Type, &start, &end, &status, &fee, &created); err != nil {
			return nil, err
		}
		sub.ID = parking.SubscriptionID(id)
		sub.CustomerID = parking.CustomerID(custID)
		sub.StartDate = parseTime(start)
		sub.EndDate = parseTime(end)
		sub.Status = parking.SubscriptionStatus(status)
		m, err := parking.ParseMoney(fee)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: bad fee: %w", id, err)
		}
		sub.Fee = m
		sub.CreatedAt = parseTime(created)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (c *conn) HasActiveSubscription(ctx context.Context, customer parking.CustomerID, now time.Time) (bool, error) {
	var n int
	err := c.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions
		 WHERE customer_id = ? AND status = ? AND start_date <= ? AND end_date >= ?`,
		string(customer), string(parking.SubscriptionActive), formatTime(now), formatTime(now),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *conn) CancelSubscription(ctx context.Context, id parking.SubscriptionID) error {
	res, err := c.q.ExecContext(ctx,
		`UPDATE subscriptions SET status = ? WHERE id = ?`,
		string(parking.SubscriptionCancelled), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("subscription %s: %w", id, parking.ErrInvalidInput)
	}
	return nil
}

func (c *conn) ExpireSubscriptions(ctx context.Context, asOf time.Time) (int, error) {
	res, err := c.q.ExecContext(ctx,
		`UPDATE subscriptions SET status = ? WHERE status = ? AND end_date < ?`,
		string(parking.SubscriptionExpired), string(parking.SubscriptionActive), formatTime(asOf))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (c *conn) InsertPayment(ctx context.Context, p parking.Payment) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO payments (id, session_id, amount, method, paid_at) VALUES (?, ?, ?, ?, ?)`,
		string(p.ID), string(p.SessionID), p.Amount.String(), string(p.Method), formatTime(p.PaidAt))
	if isUniqueViolation(err, "payments.session_id") {
		return parking.ErrSessionAlreadyPaid
	}
	return err
}

func (c *conn) PaymentsBetween(ctx context.Context, from, to time.Time) ([]parking.Payment, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT id, session_id, amount, method, paid_at FROM payments
		 WHERE paid_at >= ? AND paid_at < ? ORDER BY paid_at`,
		formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Payment
	for rows.Next() {
		var p parking.Payment
		var id, sessionID, amount, method, paidAt string
		if err := rows.Scan(&id, &sessionID, &amount, &method, &paidAt); err != nil {
			return nil, err
		}
		p.ID = parking.PaymentID(id)
		p.SessionID = parking.SessionID(sessionID)
		m, err := parking.ParseMoney(amount)
		if err != nil {
			return nil, fmt.Errorf("payment %s: bad amount: %w", id, err)
		}
		p.Amount = m
		p.Method = parking.PaymentMethod(method)
		p.PaidAt = parseTime(paidAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// STAFF / SHIFTS
// =============================================================================

func (c *conn) SaveStaff(ctx context.Context, st parking.Staff) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO staff (id, name, surname, national_id, phone, position, salary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, surname = excluded.surname,
			national_id = excluded.national_id, phone = excluded.phone,
			position = excluded.position, salary = excluded.salary`,
		string(st.ID), st.Name, st.Surname, st.NationalID, st.Phone,
		st.Position, st.Salary.String(), formatTime(st.CreatedAt))
	return err
}

func (c *conn) ListStaff(ctx context.Context) ([]parking.Staff, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT id, name, surname, national_id, phone, position, salary, created_at FROM staff ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Staff
	for rows.Next() {
		var st parking.Staff
		var id, salary, created string
		var nationalID, phone, position sql.NullString
		if err := rows.Scan(&id, &st.Name, &st.Surname, &nationalID, &phone, &position, &salary, &created); err != nil {
			return nil, err
		}
		st.ID = parking.StaffID(id)
		st.NationalID = nationalID.String
		st.Phone = phone.String
		st.Position = position.String
		m, err := parking.ParseMoney(salary)
		if err != nil {
			return nil, fmt.Errorf("staff %s: bad salary: %w", id, err)
		}
		st.Salary = m
		st.CreatedAt = parseTime(created)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (c *conn) SaveShift(ctx context.Context, sh parking.Shift) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO shifts (id, staff_id, shift_date, shift_type) VALUES (?, ?, ?, ?)
		 ON CONFLICT(staff_id, shift_date) DO UPDATE SET shift_type = excluded.shift_type`,
		sh.ID, string(sh.StaffID), formatDate(sh.Date), string(sh.Type))
	return err
}

func (c *conn) ListShifts(ctx context.Context, date time.Time) ([]parking.Shift, error) {
	query := `SELECT id, staff_id, shift_date, shift_type FROM shifts ORDER BY shift_date, staff_id`
	args := []any{}
	if !date.IsZero() {
		query = `SELECT id, staff_id, shift_date, shift_type FROM shifts WHERE shift_date = ? ORDER BY staff_id`
		args = append(args, formatDate(date))
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Shift
	for rows.Next() {
		var sh parking.Shift
		var staffID, shiftDate, shiftType string
		if err := rows.Scan(&sh.ID, &staffID, &shiftDate, &shiftType); err != nil {
			return nil, err
		}
		sh.StaffID = parking.StaffID(staffID)
		if t, err := time.Parse("2006-01-02", shiftDate); err == nil {
			sh.Date = t
		}
		sh.Type = parking.ShiftType(shiftType)
		out = append(out, sh)
	}
	return out, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data. Used by the demo scenario loaders only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{"payments", "shifts", "staff", "subscriptions", "sessions", "vehicles", "customers", "spots"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// timeLayout is fixed-width so stored timestamps compare correctly as
// strings in SQL. RFC3339Nano drops trailing zeros, which breaks
// lexicographic ordering for sub-second values.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation matches go-sqlite3's text for UNIQUE constraint errors.
// The indicator narrows the check to the specific column or index.
func isUniqueViolation(err error, indicator string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, indicator)
}
