package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
)

type GatewayTxnRepo struct {
	store *Store
}

func NewGatewayTxnRepo(store *Store) *GatewayTxnRepo {
	return &GatewayTxnRepo{store: store}
}

const gatewayTxnCols = `id, candidate_id, amount, payment_type, tran_id, status, created_at`

// InsertPending records the durable intent of an online payment before the
// gateway is contacted. A duplicate tran_id surfaces as a unique
// ConstraintViolation.
func (r *GatewayTxnRepo) InsertPending(t *domain.GatewayTransaction) (int64, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.Status = domain.TxnPending
	res, err := r.store.db.Exec(
		`INSERT INTO gateway_transactions
		(candidate_id, amount, payment_type, tran_id, status, created_at)
		VALUES (?,?,?,?,?,?)`,
		t.CandidateID, t.Amount.String(), string(t.PaymentType),
		t.TranID, string(t.Status), t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, MapError(fmt.Errorf("insert gateway transaction: %w", err))
	}
	return res.LastInsertId()
}

func (r *GatewayTxnRepo) GetByTranID(tranID string) (*domain.GatewayTransaction, error) {
	row := r.store.db.QueryRow(
		"SELECT "+gatewayTxnCols+" FROM gateway_transactions WHERE tran_id = ?", tranID)
	return scanGatewayTxn(row)
}

func (r *GatewayTxnRepo) GetByTranIDTx(tx *sql.Tx, tranID string) (*domain.GatewayTransaction, error) {
	row := tx.QueryRow(
		"SELECT "+gatewayTxnCols+" FROM gateway_transactions WHERE tran_id = ?", tranID)
	return scanGatewayTxn(row)
}

// MarkTerminalIfPendingTx performs the guarded state transition: the status
// is written only if the row is still pending, and the caller learns from
// the return value whether this invocation won the transition. Two
// concurrent callbacks for the same tran_id therefore resolve to exactly one
// winner (first-writer-wins).
func (r *GatewayTxnRepo) MarkTerminalIfPendingTx(tx *sql.Tx, tranID string, to domain.TxnStatus) (bool, error) {
	if !to.Terminal() {
		return false, fmt.Errorf("non-terminal target status %q", to)
	}
	res, err := tx.Exec(
		"UPDATE gateway_transactions SET status = ? WHERE tran_id = ? AND status = ?",
		string(to), tranID, string(domain.TxnPending),
	)
	if err != nil {
		return false, fmt.Errorf("mark %s: %w", to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanGatewayTxn(row rowScanner) (*domain.GatewayTransaction, error) {
	var t domain.GatewayTransaction
	var amount, ptype, status, createdAt string

	err := row.Scan(
		&t.ID, &t.CandidateID, &amount, &ptype, &t.TranID, &status, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	t.PaymentType = domain.PaymentType(ptype)
	t.Status = domain.TxnStatus(status)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}

	return &t, nil
}
