package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/repository"
)

// SessionManager opens online payment sessions. It persists the pending
// transaction record before the outbound call, so the reconciler always has
// a durable row to resolve a later callback against. It never mutates
// candidate or payment rows.
type SessionManager struct {
	candidates *repository.CandidateRepo
	txns       *repository.GatewayTxnRepo
	client     *Client

	// newTranID is swappable in tests to force collisions.
	newTranID func() string
}

func NewSessionManager(
	candidates *repository.CandidateRepo,
	txns *repository.GatewayTxnRepo,
	client *Client,
) *SessionManager {
	return &SessionManager{
		candidates: candidates,
		txns:       txns,
		client:     client,
		newTranID:  NewTranID,
	}
}

// NewTranID generates a fresh correlation token for one payment attempt.
func NewTranID() string {
	return "SSLC_" + strings.ToUpper(uuid.NewString()[:8])
}

// InitSession opens a gateway payment session for the candidate and returns
// the redirect URL for the hosted payment page. The pending transaction row
// is written first; if the gateway call then fails the row simply stays
// pending and the error carries the gateway's reported reason.
func (m *SessionManager) InitSession(
	ctx context.Context,
	p domain.Principal,
	candidateID int64,
	amount decimal.Decimal,
	paymentType domain.PaymentType,
	callbackBaseURL string,
) (string, error) {
	if !amount.IsPositive() {
		return "", &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !domain.ValidPaymentType(paymentType) {
		return "", &domain.ValidationError{Field: "payment_type", Reason: fmt.Sprintf("unknown type %q", paymentType)}
	}

	candidate, err := m.candidates.GetByID(candidateID)
	if err != nil {
		return "", err
	}
	if !p.Role.CanInitiateSession() || !p.CanAccessCandidate(candidate) {
		return "", domain.ErrForbidden
	}

	tranID, err := m.insertPending(candidateID, amount, paymentType)
	if err != nil {
		return "", err
	}

	base := strings.TrimRight(callbackBaseURL, "/")
	req := SessionRequest{
		TranID:        tranID,
		Amount:        amount,
		ProductName:   string(paymentType),
		CustomerName:  candidate.Name,
		CustomerEmail: candidate.Email,
		CustomerPhone: candidate.Phone,
		Callbacks: CallbackURLs{
			Success: base + "/api/v1/gateway/success",
			Fail:    base + "/api/v1/gateway/fail",
			Cancel:  base + "/api/v1/gateway/cancel",
			IPN:     base + "/api/v1/gateway/ipn",
		},
	}

	redirectURL, err := m.client.CreateSession(ctx, req)
	if err != nil {
		log.Printf("[gateway] Session init failed for %s: %v", tranID, err)
		return "", err
	}

	log.Printf("[gateway] Session opened: tran_id=%s candidate=%d amount=%s",
		tranID, candidateID, amount.String())

	return redirectURL, nil
}

// insertPending writes the pending row, retrying once with a fresh token if
// the generated tran_id collides with an existing one.
func (m *SessionManager) insertPending(
	candidateID int64,
	amount decimal.Decimal,
	paymentType domain.PaymentType,
) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		tranID := m.newTranID()
		_, err := m.txns.InsertPending(&domain.GatewayTransaction{
			CandidateID: candidateID,
			Amount:      amount,
			PaymentType: paymentType,
			TranID:      tranID,
		})
		if err == nil {
			return tranID, nil
		}

		var cv *domain.ConstraintViolation
		if errors.As(err, &cv) && cv.Unique && attempt == 0 {
			log.Printf("[gateway] tran_id collision on %s, retrying with a fresh id", tranID)
			continue
		}
		return "", err
	}
	return "", &domain.ConstraintViolation{Unique: true,
		Err: errors.New("tran_id collision persisted after retry")}
}
