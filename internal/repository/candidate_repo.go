package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
)

type CandidateRepo struct {
	store *Store
}

func NewCandidateRepo(store *Store) *CandidateRepo {
	return &CandidateRepo{store: store}
}

const candidateCols = `id, agent_id, name, passport_number, phone, email,
	package_amount, total_paid, due_amount, status, created_at`

// Insert is the intake boundary: it is used by the startup seed and by
// tests, never by the ledger core itself.
func (r *CandidateRepo) Insert(c *domain.Candidate) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := r.store.db.Exec(
		`INSERT INTO candidates
		(agent_id, name, passport_number, phone, email,
		 package_amount, total_paid, due_amount, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.AgentID, c.Name, c.PassportNumber, c.Phone, c.Email,
		c.PackageAmount.String(), c.TotalPaid.String(), c.DueAmount.String(),
		string(c.Status), c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, MapError(fmt.Errorf("insert candidate: %w", err))
	}
	return res.LastInsertId()
}

func (r *CandidateRepo) Count() (int, error) {
	var count int
	err := r.store.db.QueryRow("SELECT COUNT(*) FROM candidates").Scan(&count)
	return count, err
}

func (r *CandidateRepo) GetByID(id int64) (*domain.Candidate, error) {
	row := r.store.db.QueryRow(
		"SELECT "+candidateCols+" FROM candidates WHERE id = ?", id)
	return scanCandidate(row)
}

// GetByIDTx reads the candidate inside an open transaction so the totals
// update in the same unit sees a consistent snapshot.
func (r *CandidateRepo) GetByIDTx(tx *sql.Tx, id int64) (*domain.Candidate, error) {
	row := tx.QueryRow(
		"SELECT "+candidateCols+" FROM candidates WHERE id = ?", id)
	return scanCandidate(row)
}

// UpdateTotalsTx writes the recomputed running totals. Tx-scoped: only the
// payment recorder calls this, always in the same transaction as the payment
// insert.
func (r *CandidateRepo) UpdateTotalsTx(tx *sql.Tx, id int64, totalPaid, dueAmount decimal.Decimal) error {
	res, err := tx.Exec(
		"UPDATE candidates SET total_paid = ?, due_amount = ? WHERE id = ?",
		totalPaid.String(), dueAmount.String(), id,
	)
	if err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("candidate %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*domain.Candidate, error) {
	var c domain.Candidate
	var pkg, paid, due, status, createdAt string
	var phone, email sql.NullString

	err := row.Scan(
		&c.ID, &c.AgentID, &c.Name, &c.PassportNumber, &phone, &email,
		&pkg, &paid, &due, &status, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	c.Phone = phone.String
	c.Email = email.String
	c.Status = domain.CandidateStatus(status)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if c.PackageAmount, err = decimal.NewFromString(pkg); err != nil {
		return nil, fmt.Errorf("parse package_amount: %w", err)
	}
	if c.TotalPaid, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("parse total_paid: %w", err)
	}
	if c.DueAmount, err = decimal.NewFromString(due); err != nil {
		return nil, fmt.Errorf("parse due_amount: %w", err)
	}

	return &c, nil
}
