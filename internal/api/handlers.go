package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/gateway"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/ledger"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	recorder   *ledger.Recorder
	sessions   *gateway.SessionManager
	reconciler *gateway.Reconciler
	appURL     string
	validate   *validator.Validate
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// writeLedgerError maps the error taxonomy onto HTTP statuses for the
// authenticated API surface.
func writeLedgerError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		log.Printf("[api] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "transaction failed")
	}
}

// --- CreatePayment ---

type createPaymentRequest struct {
	CandidateID   int64  `json:"candidate_id" validate:"required,gt=0"`
	Amount        string `json:"amount" validate:"required"`
	PaymentType   string `json:"payment_type" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	TransactionID string `json:"transaction_id"`
	Notes         string `json:"notes"`
}

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no principal")
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	paymentID, err := h.recorder.Record(r.Context(), p, ledger.RecordInput{
		CandidateID:   req.CandidateID,
		Amount:        amount,
		PaymentType:   domain.PaymentType(req.PaymentType),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"payment_id": paymentID,
		"message":    "Payment recorded successfully",
	})
}

// --- ListCandidatePayments ---

func (h *Handlers) ListCandidatePayments(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no principal")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid candidate id")
		return
	}

	payments, err := h.recorder.ListByCandidate(p, id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}

	writeJSON(w, http.StatusOK, payments)
}

// --- GetReceipt ---

func (h *Handlers) GetReceipt(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no principal")
		return
	}

	tranID := chi.URLParam(r, "tranID")
	payment, err := h.recorder.Receipt(p, tranID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// --- InitGatewaySession ---

type initSessionRequest struct {
	CandidateID int64  `json:"candidate_id" validate:"required,gt=0"`
	Amount      string `json:"amount" validate:"required"`
	PaymentType string `json:"payment_type" validate:"required"`
}

func (h *Handlers) InitGatewaySession(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no principal")
		return
	}

	var req initSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	redirectURL, err := h.sessions.InitSession(r.Context(), p,
		req.CandidateID, amount, domain.PaymentType(req.PaymentType), h.appURL)
	if err != nil {
		var ge *domain.GatewayError
		if errors.As(err, &ge) {
			// A declared rejection from the gateway is a 400 carrying its
			// reason; network-level failures are server errors.
			status := http.StatusBadRequest
			if ge.Err != nil {
				status = http.StatusInternalServerError
			}
			writeError(w, status, ge.Reason)
			return
		}
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirectURL})
}
