package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeVisa    PaymentType = "visa"
	PaymentTypeMedical PaymentType = "medical"
	PaymentTypeTicket  PaymentType = "ticket"
	PaymentTypeService PaymentType = "service"
)

// ValidPaymentType reports whether t is one of the known payment categories.
func ValidPaymentType(t PaymentType) bool {
	switch t {
	case PaymentTypeVisa, PaymentTypeMedical, PaymentTypeTicket, PaymentTypeService:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash    PaymentMethod = "cash"
	MethodGateway PaymentMethod = "gateway"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	return m == MethodCash || m == MethodGateway
}

// Payment is an immutable funds-received record. Rows are append-only; the
// candidate's running totals are updated in the same database transaction
// that inserts the row.
type Payment struct {
	ID            int64           `json:"id"`
	CandidateID   int64           `json:"candidate_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentType   PaymentType     `json:"payment_type"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
