package gateway

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/ledger"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/repository"
)

// OutcomeCode classifies what a callback delivery actually did, so the HTTP
// layer can pick the right landing-page redirect without seeing raw errors.
type OutcomeCode string

const (
	// OutcomeCredited: this delivery won the pending→success transition and
	// the payment was applied.
	OutcomeCredited OutcomeCode = "credited"
	// OutcomeAlreadyCredited: the transaction was already success; no
	// additional mutation was performed.
	OutcomeAlreadyCredited OutcomeCode = "already_credited"
	// OutcomeMarked: this delivery won the transition to failed/cancelled.
	OutcomeMarked OutcomeCode = "marked"
	// OutcomeAlreadyTerminal: a different notification got there first; the
	// recorded status stands.
	OutcomeAlreadyTerminal OutcomeCode = "already_terminal"
	// OutcomeInvalid: the gateway did not assert the validity sentinel.
	OutcomeInvalid OutcomeCode = "invalid"
	// OutcomeNotFound: no transaction with this tran_id exists.
	OutcomeNotFound OutcomeCode = "not_found"
	// OutcomeReconcileError: an internal failure rolled the unit back; the
	// transaction remains pending. Distinct from a gateway-reported failure.
	OutcomeReconcileError OutcomeCode = "reconcile_error"
	// OutcomeAcknowledged: an IPN that carried no actionable status.
	OutcomeAcknowledged OutcomeCode = "acknowledged"
)

// Outcome is the result of processing one gateway notification.
type Outcome struct {
	Code        OutcomeCode
	TranID      string
	CandidateID int64
	Status      domain.TxnStatus
	Reason      string
}

// Reconciler converts asynchronous gateway notifications into ledger credits
// exactly once per successful transaction. All state decisions ride on the
// guarded conditional update in the gateway transaction repo, so concurrent
// deliveries for the same tran_id resolve to a single winner.
type Reconciler struct {
	store    *repository.Store
	txns     *repository.GatewayTxnRepo
	recorder *ledger.Recorder
}

func NewReconciler(
	store *repository.Store,
	txns *repository.GatewayTxnRepo,
	recorder *ledger.Recorder,
) *Reconciler {
	return &Reconciler{store: store, txns: txns, recorder: recorder}
}

// HandleSuccess processes a success notification. Re-deliveries of the same
// notification are no-ops that still report a success-equivalent outcome;
// deliveries that lose the race to a fail/cancel report the standing status.
func (r *Reconciler) HandleSuccess(ctx context.Context, tranID, validity string) Outcome {
	out := Outcome{TranID: tranID}

	if validity != ValiditySentinel {
		out.Code = OutcomeInvalid
		out.Reason = "Payment Validation Failed"
		log.Printf("[reconciler] Rejected success for %s: validity=%q", tranID, validity)
		return out
	}

	txn, err := r.txns.GetByTranID(tranID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			out.Code = OutcomeNotFound
			out.Reason = "Transaction Not Found"
			log.Printf("[reconciler] Success callback for unknown tran_id %s", tranID)
			return out
		}
		out.Code = OutcomeReconcileError
		out.Reason = "Database Lookup Failed"
		log.Printf("[reconciler] Lookup failed for %s: %v", tranID, err)
		return out
	}

	out.CandidateID = txn.CandidateID

	// Fast path: redelivery of an already-applied success.
	if txn.Status == domain.TxnSuccess {
		out.Code = OutcomeAlreadyCredited
		out.Status = domain.TxnSuccess
		return out
	}
	if txn.Status.Terminal() {
		out.Code = OutcomeAlreadyTerminal
		out.Status = txn.Status
		out.Reason = "Transaction Already " + string(txn.Status)
		return out
	}

	// The transition and the credit are one atomic unit. The conditional
	// update is the race guard: only the invocation that flips the row off
	// pending applies the payment.
	var won bool
	var standing domain.TxnStatus
	err = r.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		won, err = r.txns.MarkTerminalIfPendingTx(tx, tranID, domain.TxnSuccess)
		if err != nil {
			return err
		}
		if !won {
			current, err := r.txns.GetByTranIDTx(tx, tranID)
			if err != nil {
				return err
			}
			standing = current.Status
			return nil
		}
		_, err = r.recorder.CreditTx(tx, ledger.RecordInput{
			CandidateID:   txn.CandidateID,
			Amount:        txn.Amount,
			PaymentType:   txn.PaymentType,
			PaymentMethod: domain.MethodGateway,
			TransactionID: tranID,
			Notes:         "Online gateway payment",
		})
		return err
	})
	if err != nil {
		// Rolled back: the row is still pending and a later delivery can
		// retry the credit.
		out.Code = OutcomeReconcileError
		out.Reason = "Database Update Failed"
		log.Printf("[reconciler] Credit failed for %s, left pending: %v", tranID, err)
		return out
	}

	if !won {
		if standing == domain.TxnSuccess {
			out.Code = OutcomeAlreadyCredited
		} else {
			out.Code = OutcomeAlreadyTerminal
			out.Reason = "Transaction Already " + string(standing)
		}
		out.Status = standing
		return out
	}

	out.Code = OutcomeCredited
	out.Status = domain.TxnSuccess
	log.Printf("[reconciler] Credited payment for %s (candidate=%d amount=%s)",
		tranID, txn.CandidateID, txn.Amount.String())
	return out
}

// HandleFail marks the transaction failed. First-writer-wins: if any
// terminal state is already recorded it stands, and no payment is ever
// written for a failed transaction.
func (r *Reconciler) HandleFail(ctx context.Context, tranID string) Outcome {
	return r.markTerminal(ctx, tranID, domain.TxnFailed)
}

// HandleCancel marks the transaction cancelled, with the same idempotency
// property as HandleFail.
func (r *Reconciler) HandleCancel(ctx context.Context, tranID string) Outcome {
	return r.markTerminal(ctx, tranID, domain.TxnCancelled)
}

// HandleIPN processes the out-of-band confirmation channel. A notification
// asserting validity drives the same idempotent success logic as the browser
// redirect; anything else is acknowledged without a state change.
func (r *Reconciler) HandleIPN(ctx context.Context, tranID, status string) Outcome {
	switch status {
	case ValiditySentinel, "VALIDATED":
		return r.HandleSuccess(ctx, tranID, ValiditySentinel)
	case "FAILED":
		return r.HandleFail(ctx, tranID)
	case "CANCELLED":
		return r.HandleCancel(ctx, tranID)
	default:
		log.Printf("[reconciler] IPN acknowledged without action: tran_id=%s status=%q", tranID, status)
		return Outcome{Code: OutcomeAcknowledged, TranID: tranID}
	}
}

func (r *Reconciler) markTerminal(ctx context.Context, tranID string, to domain.TxnStatus) Outcome {
	out := Outcome{TranID: tranID}

	txn, err := r.txns.GetByTranID(tranID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			out.Code = OutcomeNotFound
			out.Reason = "Transaction Not Found"
			return out
		}
		out.Code = OutcomeReconcileError
		out.Reason = "Database Lookup Failed"
		log.Printf("[reconciler] Lookup failed for %s: %v", tranID, err)
		return out
	}

	out.CandidateID = txn.CandidateID

	var won bool
	err = r.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		won, err = r.txns.MarkTerminalIfPendingTx(tx, tranID, to)
		return err
	})
	if err != nil {
		out.Code = OutcomeReconcileError
		out.Reason = "Database Update Failed"
		log.Printf("[reconciler] Mark %s failed for %s: %v", to, tranID, err)
		return out
	}

	if !won {
		out.Code = OutcomeAlreadyTerminal
		current, err := r.txns.GetByTranID(tranID)
		if err != nil {
			out.Reason = "Transaction Already Settled"
			log.Printf("[reconciler] Status re-read failed for %s: %v", tranID, err)
			return out
		}
		out.Status = current.Status
		out.Reason = "Transaction Already " + string(current.Status)
		return out
	}

	out.Code = OutcomeMarked
	out.Status = to
	log.Printf("[reconciler] Marked %s as %s", tranID, to)
	return out
}
