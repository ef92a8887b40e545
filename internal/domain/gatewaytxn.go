package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxnStatus string

const (
	TxnPending   TxnStatus = "pending"
	TxnSuccess   TxnStatus = "success"
	TxnFailed    TxnStatus = "failed"
	TxnCancelled TxnStatus = "cancelled"
)

// Terminal reports whether s is a final state. A gateway transaction leaves
// pending exactly once and never transitions out of a terminal state.
func (s TxnStatus) Terminal() bool {
	return s == TxnSuccess || s == TxnFailed || s == TxnCancelled
}

// GatewayTransaction tracks one external payment attempt. The row is created
// in pending state before the gateway is ever contacted, so every callback
// the gateway later delivers has a durable record to reconcile against.
// TranID is globally unique and serves as the idempotency key for the whole
// callback protocol.
type GatewayTransaction struct {
	ID          int64           `json:"id"`
	CandidateID int64           `json:"candidate_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentType PaymentType     `json:"payment_type"`
	TranID      string          `json:"tran_id"`
	Status      TxnStatus       `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}
