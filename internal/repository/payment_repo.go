package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
)

type PaymentRepo struct {
	store *Store
}

func NewPaymentRepo(store *Store) *PaymentRepo {
	return &PaymentRepo{store: store}
}

const paymentCols = `id, candidate_id, amount, payment_type, payment_method,
	transaction_id, notes, created_at`

// InsertTx appends one payment row. Tx-scoped: the insert is only ever valid
// as part of the same unit that updates the candidate's totals.
func (r *PaymentRepo) InsertTx(tx *sql.Tx, p *domain.Payment) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := tx.Exec(
		`INSERT INTO payments
		(candidate_id, amount, payment_type, payment_method, transaction_id, notes, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		p.CandidateID, p.Amount.String(), string(p.PaymentType),
		string(p.PaymentMethod), nullIfEmpty(p.TransactionID),
		nullIfEmpty(p.Notes), p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return res.LastInsertId()
}

func (r *PaymentRepo) ListByCandidate(candidateID int64) ([]domain.Payment, error) {
	rows, err := r.store.db.Query(
		"SELECT "+paymentCols+" FROM payments WHERE candidate_id = ? ORDER BY created_at DESC, id DESC",
		candidateID,
	)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// GetByTransactionID finds the payment credited for a gateway transaction.
// Used for receipt lookup after an online payment completes.
func (r *PaymentRepo) GetByTransactionID(tranID string) (*domain.Payment, error) {
	row := r.store.db.QueryRow(
		"SELECT "+paymentCols+" FROM payments WHERE transaction_id = ?", tranID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// SumByCandidate totals every payment recorded for the candidate. The
// invariant checked in tests: this sum always equals the candidate's
// total_paid column.
func (r *PaymentRepo) SumByCandidate(candidateID int64) (decimal.Decimal, error) {
	rows, err := r.store.db.Query(
		"SELECT amount FROM payments WHERE candidate_id = ?", candidateID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query amounts: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount: %w", err)
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

func (r *PaymentRepo) CountByCandidate(candidateID int64) (int, error) {
	var count int
	err := r.store.db.QueryRow(
		"SELECT COUNT(*) FROM payments WHERE candidate_id = ?", candidateID).Scan(&count)
	return count, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var amount, ptype, method, createdAt string
	var tranID, notes sql.NullString

	err := row.Scan(
		&p.ID, &p.CandidateID, &amount, &ptype, &method,
		&tranID, &notes, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	p.PaymentType = domain.PaymentType(ptype)
	p.PaymentMethod = domain.PaymentMethod(method)
	p.TransactionID = tranID.String
	p.Notes = notes.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}

	return &p, nil
}
