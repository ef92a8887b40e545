package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
)

// SQLite extended result codes for constraint failures.
const (
	codeConstraint           = 19
	codeConstraintUnique     = 2067
	codeConstraintPrimaryKey = 1555
)

// Store owns the database handle and the transaction primitive every ledger
// mutation goes through. It is opened once at process start and injected
// into the repositories and services.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func Open(dsn string) (*Store, error) {
	// The pragmas ride the DSN so every connection the pool opens carries
	// them, not just the one that happened to run an Exec.
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// A single connection serializes writers. WithTx units read then write;
	// on a second connection that write would need a snapshot upgrade, which
	// SQLite refuses with SQLITE_BUSY rather than waiting out the timeout.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for read-only queries by the repositories.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn inside a single database transaction. Every statement in fn
// commits together or none do; on any error the transaction is rolled back
// and the error is returned mapped through MapError, so no partial
// application of a multi-statement unit is ever observable.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return MapError(err)
	}

	if err := tx.Commit(); err != nil {
		return MapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// MapError converts driver-level errors into the store's typed taxonomy.
// Unique-key collisions become a ConstraintViolation with Unique set, other
// constraint failures a plain ConstraintViolation; errors already typed pass
// through unchanged. Anything else is a TransactionFailed.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cv *domain.ConstraintViolation
	if errors.As(err, &cv) {
		return err
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		return err
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case codeConstraintUnique, codeConstraintPrimaryKey:
			return &domain.ConstraintViolation{Unique: true, Err: err}
		case codeConstraint:
			return &domain.ConstraintViolation{Err: err}
		}
		// Extended constraint codes share the low byte 19.
		if se.Code()&0xff == codeConstraint {
			if strings.Contains(se.Error(), "UNIQUE") {
				return &domain.ConstraintViolation{Unique: true, Err: err}
			}
			return &domain.ConstraintViolation{Err: err}
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candidates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			passport_number TEXT UNIQUE NOT NULL,
			phone TEXT,
			email TEXT,
			package_amount TEXT NOT NULL DEFAULT '0',
			total_paid TEXT NOT NULL DEFAULT '0',
			due_amount TEXT NOT NULL DEFAULT '0',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_agent ON candidates(agent_id)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_id INTEGER NOT NULL,
			amount TEXT NOT NULL,
			payment_type TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			transaction_id TEXT,
			notes TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (candidate_id) REFERENCES candidates(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_candidate ON payments(candidate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_transaction ON payments(transaction_id)`,

		`CREATE TABLE IF NOT EXISTS gateway_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_id INTEGER NOT NULL,
			amount TEXT NOT NULL,
			payment_type TEXT NOT NULL,
			tran_id TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (candidate_id) REFERENCES candidates(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gateway_txns_candidate ON gateway_transactions(candidate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gateway_txns_status ON gateway_transactions(status)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
