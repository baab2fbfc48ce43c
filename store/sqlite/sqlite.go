/*
Package sqlite provides the SQLite persistence of the payroll engine.

PURPOSE:
  Stores pay periods (with their shifts and manual line items), the last
  calculated statement of each period, and custom holidays. The engine
  itself is pure; this package only keeps its inputs and outputs around
  between requests.

KEY TABLES:
  pay_periods:       Period-level inputs (employee, dates, base salary)
  period_shifts:     Shifts of a period, in entry order
  period_line_items: Other income and other deductions, in entry order
  payroll_results:   Last calculated Result per period (JSON)
  holidays:          Custom holidays layered over the national calendar

DECIMALS:
  Money is stored as TEXT (decimal.Decimal.String()) so no precision is lost
  to REAL columns.

HOLIDAY SOURCE:
  Store implements calendar.Source over the holidays table, so custom
  holidays can be unioned with the computed or remote national calendar.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SQLite allows one writer at a time.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers do not block the
  writer.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  provider := calendar.NewProvider(calendar.Union(calendar.Colombia(), store))

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - payroll/types.go: PayPeriod and Result
  - calendar/source.go: Source interface
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// Store persists periods, results and custom holidays in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
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

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		apply_transport_allowance BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pay_periods_employee
		ON pay_periods(employee_id, period_start);

	CREATE TABLE IF NOT EXISTS period_shifts (
		period_id TEXT NOT NULL REFERENCES pay_periods(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		crosses_midnight BOOLEAN NOT NULL DEFAULT FALSE,
		has_break BOOLEAN NOT NULL DEFAULT FALSE,
		break_start TEXT NOT NULL DEFAULT '',
		break_end TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (period_id, position)
	);

	CREATE TABLE IF NOT EXISTS period_line_items (
		period_id TEXT NOT NULL REFERENCES pay_periods(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('income', 'deduction')),
		position INTEGER NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (period_id, kind, position)
	);

	CREATE TABLE IF NOT EXISTS payroll_results (
		period_id TEXT PRIMARY KEY REFERENCES pay_periods(id) ON DELETE CASCADE,
		result_json TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		holiday_data_degraded BOOLEAN NOT NULL DEFAULT FALSE,
		calculated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PAY PERIODS
// =============================================================================

// PeriodRecord is a stored pay period.
type PeriodRecord struct {
	ID        string
	Period    payroll.PayPeriod
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	lineItemIncome    = "income"
	lineItemDeduction = "deduction"
)

// SavePeriod inserts or replaces a period. Shifts and line items are
// replaced atomically with the period row.
func (s *Store) SavePeriod(ctx context.Context, id string, p payroll.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO pay_periods (id, employee_id, period_start, period_end, base_salary,
		                         apply_transport_allowance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			base_salary = excluded.base_salary,
			apply_transport_allowance = excluded.apply_transport_allowance,
			updated_at = excluded.updated_at
	`,
		id,
		p.EmployeeID,
		p.PeriodStart.String(),
		p.PeriodEnd.String(),
		p.BaseSalary.String(),
		p.ApplyTransportAllowance,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save period: %w", err)
	}

	for _, table := range []string{"period_shifts", "period_line_items"} {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table+" WHERE period_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, sh := range p.Shifts {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO period_shifts (period_id, position, date, start_time, end_time,
			                           crosses_midnight, has_break, break_start, break_end)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i, sh.Date.String(), sh.Start, sh.End, sh.CrossesMidnight, sh.HasBreak, sh.BreakStart, sh.BreakEnd)
		if err != nil {
			return fmt.Errorf("failed to save shift %d: %w", i, err)
		}
	}

	if err := insertLineItems(ctx, sqlTx, id, lineItemIncome, p.OtherIncome); err != nil {
		return err
	}
	if err := insertLineItems(ctx, sqlTx, id, lineItemDeduction, p.OtherDeductions); err != nil {
		return err
	}

	// A stored result no longer matches the new inputs.
	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM payroll_results WHERE period_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear stale result: %w", err)
	}

	return sqlTx.Commit()
}

func insertLineItems(ctx context.Context, tx *sql.Tx, periodID, kind string, items []payroll.LineItem) error {
	for i, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO period_line_items (period_id, kind, position, amount, description)
			VALUES (?, ?, ?, ?, ?)
		`, periodID, kind, i, it.Amount.String(), it.Description)
		if err != nil {
			return fmt.Errorf("failed to save %s item %d: %w", kind, i, err)
		}
	}
	return nil
}

// GetPeriod retrieves a period by ID. It returns nil, nil when missing.
func (s *Store) GetPeriod(ctx context.Context, id string) (*PeriodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, period_start, period_end, base_salary,
		       apply_transport_allowance, created_at, updated_at
		FROM pay_periods WHERE id = ?
	`, id)
	rec, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadPeriodChildren(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListPeriods returns the stored periods, newest period first. An empty
// employeeID lists every employee.
func (s *Store) ListPeriods(ctx context.Context, employeeID string) ([]PeriodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, period_start, period_end, base_salary,
		       apply_transport_allowance, created_at, updated_at
		FROM pay_periods
		WHERE ? = '' OR employee_id = ?
		ORDER BY period_start DESC, employee_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, employeeID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}

	var records []PeriodRecord
	for rows.Next() {
		rec, err := scanPeriod(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		if err := s.loadPeriodChildren(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// DeletePeriod removes a period with its shifts, line items and result.
// It reports whether the period existed.
func (s *Store) DeletePeriod(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM pay_periods WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete period: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (PeriodRecord, error) {
	var rec PeriodRecord
	var periodStart, periodEnd, baseSalary, createdAt, updatedAt string
	err := row.Scan(&rec.ID, &rec.Period.EmployeeID, &periodStart, &periodEnd, &baseSalary,
		&rec.Period.ApplyTransportAllowance, &createdAt, &updatedAt)
	if err != nil {
		return PeriodRecord{}, err
	}

	if rec.Period.PeriodStart, err = calendar.ParseDate(periodStart); err != nil {
		return PeriodRecord{}, fmt.Errorf("period %s: %w", rec.ID, err)
	}
	if rec.Period.PeriodEnd, err = calendar.ParseDate(periodEnd); err != nil {
		return PeriodRecord{}, fmt.Errorf("period %s: %w", rec.ID, err)
	}
	if rec.Period.BaseSalary, err = decimal.NewFromString(baseSalary); err != nil {
		return PeriodRecord{}, fmt.Errorf("period %s: base salary: %w", rec.ID, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return rec, nil
}

func (s *Store) loadPeriodChildren(ctx context.Context, rec *PeriodRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, start_time, end_time, crosses_midnight, has_break, break_start, break_end
		FROM period_shifts WHERE period_id = ? ORDER BY position
	`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to query shifts: %w", err)
	}
	rec.Period.Shifts, err = scanShifts(rows)
	rows.Close()
	if err != nil {
		return fmt.Errorf("period %s: %w", rec.ID, err)
	}

	items, err := s.db.QueryContext(ctx, `
		SELECT kind, amount, description
		FROM period_line_items WHERE period_id = ? ORDER BY kind, position
	`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to query line items: %w", err)
	}
	defer items.Close()

	for items.Next() {
		var kind, amount string
		var it payroll.LineItem
		if err := items.Scan(&kind, &amount, &it.Description); err != nil {
			return err
		}
		if it.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("period %s: line item amount: %w", rec.ID, err)
		}
		if kind == lineItemIncome {
			rec.Period.OtherIncome = append(rec.Period.OtherIncome, it)
		} else {
			rec.Period.OtherDeductions = append(rec.Period.OtherDeductions, it)
		}
	}
	return items.Err()
}

func scanShifts(rows *sql.Rows) ([]payroll.ShiftInput, error) {
	shifts := []payroll.ShiftInput{}
	for rows.Next() {
		var sh payroll.ShiftInput
		var date string
		if err := rows.Scan(&date, &sh.Start, &sh.End, &sh.CrossesMidnight, &sh.HasBreak, &sh.BreakStart, &sh.BreakEnd); err != nil {
			return nil, err
		}
		d, err := calendar.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("shift date: %w", err)
		}
		sh.Date = d
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// =============================================================================
// RESULTS
// =============================================================================

// ResultRecord is the last calculated statement of a period.
type ResultRecord struct {
	PeriodID     string
	Result       payroll.Result
	CalculatedAt time.Time
}

// SaveResult stores the statement of a period, replacing any previous one.
func (s *Store) SaveResult(ctx context.Context, periodID string, r payroll.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payroll_results (period_id, result_json, net_pay, holiday_data_degraded, calculated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(period_id) DO UPDATE SET
			result_json = excluded.result_json,
			net_pay = excluded.net_pay,
			holiday_data_degraded = excluded.holiday_data_degraded,
			calculated_at = excluded.calculated_at
	`, periodID, string(data), r.NetPay.String(), r.HolidayDataDegraded, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult retrieves the statement of a period. It returns nil, nil when
// the period was never calculated.
func (s *Store) GetResult(ctx context.Context, periodID string) (*ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data, calculatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT result_json, calculated_at FROM payroll_results WHERE period_id = ?",
		periodID,
	).Scan(&data, &calculatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := ResultRecord{PeriodID: periodID}
	if err := json.Unmarshal([]byte(data), &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result of period %s: %w", periodID, err)
	}
	rec.CalculatedAt, _ = time.Parse(time.RFC3339, calculatedAt)
	return &rec, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a custom holiday.
type Holiday struct {
	Date      calendar.Date
	Name      string
	CreatedAt time.Time
}

// SaveHoliday adds a custom holiday or renames an existing one.
func (s *Store) SaveHoliday(ctx context.Context, h Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (date, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name
	`, h.Date.String(), h.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes a custom holiday and reports whether it existed.
func (s *Store) DeleteHoliday(ctx context.Context, d calendar.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE date = ?", d.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete holiday: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListHolidays returns the custom holidays in date order. A zero year lists
// all of them.
func (s *Store) ListHolidays(ctx context.Context, year int) ([]Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT date, name, created_at FROM holidays ORDER BY date ASC"
	var args []any
	if year != 0 {
		query = "SELECT date, name, created_at FROM holidays WHERE substr(date, 1, 4) = ? ORDER BY date ASC"
		args = append(args, fmt.Sprintf("%04d", year))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		var date, createdAt string
		if err := rows.Scan(&date, &h.Name, &createdAt); err != nil {
			return nil, err
		}
		if h.Date, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("holiday %q: %w", date, err)
		}
		h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// Holidays implements calendar.Source over the custom holidays of a year.
func (s *Store) Holidays(ctx context.Context, year int) ([]calendar.Date, error) {
	list, err := s.ListHolidays(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("custom holidays %d: %w", year, err)
	}
	dates := make([]calendar.Date, len(list))
	for i, h := range list {
		dates[i] = h.Date
	}
	return dates, nil
}

var _ calendar.Source = (*Store)(nil)
