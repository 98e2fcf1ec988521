/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements credit.Store and credit.UserStore using SQLite. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

AGGREGATE PERSISTENCE:
  A credit is stored as ONE row: scalar columns for indexed fields (client,
  status, dates) and JSON columns for the product list and payment history.
  SaveCredit replaces the whole row, which gives the load-modify-save cycle
  its all-or-nothing behavior: a failed operation in memory is simply never
  written.

KEY TABLES:
  clients:  Identity records (unique national id)
  credits:  One row per credit aggregate
  users:    Operator accounts (bcrypt hash only)

MONEY AND DATES:
  Amounts are stored as decimal strings, never floats. Timestamps are
  RFC3339 text, always UTC on disk; the engine re-localizes through its
  Calendar.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, plus WAL mode for better read
  concurrency. Per-row replacement is the only serialization point;
  concurrent writers to the same credit are last-write-wins.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/credits.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - credit/store.go: Interface definitions
  - credit/store/memory.go: In-memory implementation for testing
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

	"github.com/crediario/credit-engine/credit"
)

// Store implements credit.Store and credit.UserStore using SQLite.
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
	if dbPath == ":memory:" {
		// An in-memory database exists per connection; pin the pool to
		// one so every query sees the same data.
		db.SetMaxOpenConns(1)
	}

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Clients (identity records, never deleted)
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		national_id TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		address TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Credits (one row per aggregate; products/history as JSON)
	CREATE TABLE IF NOT EXISTS credits (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id),
		products_json TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		installments INTEGER NOT NULL,
		remaining_installments INTEGER NOT NULL,
		status TEXT NOT NULL,
		payment_frequency TEXT NOT NULL,
		payment_day_of_week INTEGER NOT NULL DEFAULT 0,
		payment_days_of_month_json TEXT NOT NULL DEFAULT '[]',
		next_payment_date TEXT,
		completion_date TEXT,
		payment_history_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_credits_client
		ON credits(client_id);
	CREATE INDEX IF NOT EXISTS idx_credits_status
		ON credits(status);
	CREATE INDEX IF NOT EXISTS idx_credits_completion
		ON credits(completion_date) WHERE completion_date IS NOT NULL;

	-- Operator accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) SaveClient(ctx context.Context, c *credit.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO clients
			(id, full_name, national_id, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FullName, c.NationalID, c.Phone, c.Address,
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*credit.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, national_id, phone, address, created_at, updated_at
		FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]*credit.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, national_id, phone, address, created_at, updated_at
		FROM clients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []*credit.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(r rowScanner) (*credit.Client, error) {
	var c credit.Client
	var createdAt, updatedAt string
	if err := r.Scan(&c.ID, &c.FullName, &c.NationalID, &c.Phone, &c.Address, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// CREDITS
// =============================================================================

func (s *Store) SaveCredit(ctx context.Context, c *credit.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	productsJSON, err := json.Marshal(c.Products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}
	historyJSON, err := json.Marshal(c.PaymentHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal payment history: %w", err)
	}
	daysJSON, err := json.Marshal(c.PaymentDaysOfMonth)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule days: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO credits
			(id, client_id, products_json, original_amount, total_amount,
			 installments, remaining_installments, status, payment_frequency,
			 payment_day_of_week, payment_days_of_month_json,
			 next_payment_date, completion_date, payment_history_json,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, string(productsJSON),
		c.OriginalAmount.String(), c.TotalAmount.String(),
		c.Installments, c.RemainingInstallments,
		string(c.Status), string(c.PaymentFrequency),
		c.PaymentDayOfWeek, string(daysJSON),
		nullableTime(c.NextPaymentDate), nullableTime(c.CompletionDate),
		string(historyJSON),
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save credit: %w", err)
	}
	return nil
}

const creditColumns = `id, client_id, products_json, original_amount, total_amount,
	installments, remaining_installments, status, payment_frequency,
	payment_day_of_week, payment_days_of_month_json,
	next_payment_date, completion_date, payment_history_json,
	created_at, updated_at`

func (s *Store) GetCredit(ctx context.Context, id string) (*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE id = ?`, id)
	c, err := scanCredit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit: %w", err)
	}
	return c, nil
}

func (s *Store) ListCredits(ctx context.Context, status credit.Status) ([]*credit.Credit, error) {
	return s.queryCredits(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE status = ? ORDER BY created_at, id`,
		string(status))
}

func (s *Store) ListAllCredits(ctx context.Context) ([]*credit.Credit, error) {
	return s.queryCredits(ctx,
		`SELECT `+creditColumns+` FROM credits ORDER BY created_at, id`)
}

func (s *Store) ListCreditsByClient(ctx context.Context, clientID string) ([]*credit.Credit, error) {
	return s.queryCredits(ctx,
		`SELECT `+creditColumns+` FROM credits WHERE client_id = ? ORDER BY created_at, id`,
		clientID)
}

func (s *Store) DeleteCredit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM credits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return credit.ErrCreditNotFound
	}
	return nil
}

func (s *Store) queryCredits(ctx context.Context, query string, args ...any) ([]*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credits: %w", err)
	}
	defer rows.Close()

	var out []*credit.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCredit(r rowScanner) (*credit.Credit, error) {
	var c credit.Credit
	var productsJSON, historyJSON, daysJSON string
	var originalAmount, totalAmount string
	var status, frequency string
	var nextPayment, completion sql.NullString
	var createdAt, updatedAt string

	err := r.Scan(
		&c.ID, &c.ClientID, &productsJSON, &originalAmount, &totalAmount,
		&c.Installments, &c.RemainingInstallments, &status, &frequency,
		&c.PaymentDayOfWeek, &daysJSON,
		&nextPayment, &completion, &historyJSON,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(productsJSON), &c.Products); err != nil {
		return nil, fmt.Errorf("corrupt products column: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &c.PaymentHistory); err != nil {
		return nil, fmt.Errorf("corrupt payment history column: %w", err)
	}
	if err := json.Unmarshal([]byte(daysJSON), &c.PaymentDaysOfMonth); err != nil {
		return nil, fmt.Errorf("corrupt schedule days column: %w", err)
	}
	if c.PaymentHistory == nil {
		c.PaymentHistory = []credit.PaymentEntry{}
	}

	if c.OriginalAmount, err = decimal.NewFromString(originalAmount); err != nil {
		return nil, fmt.Errorf("corrupt original amount: %w", err)
	}
	if c.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, fmt.Errorf("corrupt total amount: %w", err)
	}

	c.Status = credit.Status(status)
	c.PaymentFrequency = credit.Frequency(frequency)

	if c.NextPaymentDate, err = parseNullableTime(nextPayment); err != nil {
		return nil, err
	}
	if c.CompletionDate, err = parseNullableTime(completion); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u *credit.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash,
		u.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*credit.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u credit.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullableTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
