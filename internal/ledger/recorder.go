// Package ledger applies payment events to candidate accounts. Every credit
// is one atomic unit: the payment row and the candidate's running totals are
// never observable out of step with each other.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/repository"
)

// Recorder is the only component that mutates candidate financial state.
type Recorder struct {
	store      *repository.Store
	candidates *repository.CandidateRepo
	payments   *repository.PaymentRepo
}

func NewRecorder(
	store *repository.Store,
	candidates *repository.CandidateRepo,
	payments *repository.PaymentRepo,
) *Recorder {
	return &Recorder{
		store:      store,
		candidates: candidates,
		payments:   payments,
	}
}

// RecordInput is one funds-received event.
type RecordInput struct {
	CandidateID   int64
	Amount        decimal.Decimal
	PaymentType   domain.PaymentType
	PaymentMethod domain.PaymentMethod
	TransactionID string
	Notes         string
}

// Record validates the event, checks ownership, and applies it atomically:
// insert the payment row, re-read the candidate's totals inside the same
// transaction, and write back total_paid and due_amount. Due going negative
// is an accepted overpayment, not an error.
func (r *Recorder) Record(ctx context.Context, p domain.Principal, in RecordInput) (int64, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}

	// Ownership and existence are checked before any mutation.
	candidate, err := r.candidates.GetByID(in.CandidateID)
	if err != nil {
		return 0, err
	}
	if !p.Role.CanRecordPayment() || !p.CanAccessCandidate(candidate) {
		return 0, domain.ErrForbidden
	}

	var paymentID int64
	err = r.store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := r.CreditTx(tx, in)
		if err != nil {
			return err
		}
		paymentID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[ledger] Recorded payment %d: candidate=%d amount=%s type=%s method=%s",
		paymentID, in.CandidateID, in.Amount.String(), in.PaymentType, in.PaymentMethod)

	return paymentID, nil
}

// CreditTx applies the credit inside an already-open transaction. The
// callback reconciler uses this to make the pending→success transition and
// the payment credit one unit.
func (r *Recorder) CreditTx(tx *sql.Tx, in RecordInput) (int64, error) {
	candidate, err := r.candidates.GetByIDTx(tx, in.CandidateID)
	if err != nil {
		return 0, err
	}

	paymentID, err := r.payments.InsertTx(tx, &domain.Payment{
		CandidateID:   in.CandidateID,
		Amount:        in.Amount,
		PaymentType:   in.PaymentType,
		PaymentMethod: in.PaymentMethod,
		TransactionID: in.TransactionID,
		Notes:         in.Notes,
	})
	if err != nil {
		return 0, err
	}

	newTotalPaid := candidate.TotalPaid.Add(in.Amount)
	newDue := candidate.PackageAmount.Sub(newTotalPaid)

	if err := r.candidates.UpdateTotalsTx(tx, in.CandidateID, newTotalPaid, newDue); err != nil {
		return 0, err
	}

	return paymentID, nil
}

// ListByCandidate returns the candidate's payment history, newest first.
func (r *Recorder) ListByCandidate(p domain.Principal, candidateID int64) ([]domain.Payment, error) {
	candidate, err := r.candidates.GetByID(candidateID)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessCandidate(candidate) {
		return nil, domain.ErrForbidden
	}
	return r.payments.ListByCandidate(candidateID)
}

// Receipt looks up the payment credited for a gateway transaction id.
func (r *Recorder) Receipt(p domain.Principal, tranID string) (*domain.Payment, error) {
	payment, err := r.payments.GetByTransactionID(tranID)
	if err != nil {
		return nil, err
	}
	candidate, err := r.candidates.GetByID(payment.CandidateID)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessCandidate(candidate) {
		return nil, domain.ErrForbidden
	}
	return payment, nil
}

func validateInput(in RecordInput) error {
	if in.CandidateID <= 0 {
		return &domain.ValidationError{Field: "candidate_id", Reason: "required"}
	}
	if !in.Amount.IsPositive() {
		return &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !domain.ValidPaymentType(in.PaymentType) {
		return &domain.ValidationError{Field: "payment_type", Reason: fmt.Sprintf("unknown type %q", in.PaymentType)}
	}
	if !domain.ValidPaymentMethod(in.PaymentMethod) {
		return &domain.ValidationError{Field: "payment_method", Reason: fmt.Sprintf("unknown method %q", in.PaymentMethod)}
	}
	return nil
}
