package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CandidateStatus string

const (
	CandidatePending    CandidateStatus = "pending"
	CandidateProcessing CandidateStatus = "processing"
	CandidateCompleted  CandidateStatus = "completed"
)

// Candidate is one recruitment case. The financial fields form the ledger:
// total_paid is the sum of all recorded payments and due_amount is always
// package_amount - total_paid. Only the payment recorder writes those two
// fields; intake owns everything else.
type Candidate struct {
	ID             int64           `json:"id"`
	AgentID        int64           `json:"agent_id"`
	Name           string          `json:"name"`
	PassportNumber string          `json:"passport_number"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	PackageAmount  decimal.Decimal `json:"package_amount"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	DueAmount      decimal.Decimal `json:"due_amount"`
	Status         CandidateStatus `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
