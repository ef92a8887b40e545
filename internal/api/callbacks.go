package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/gateway"
)

// Gateway callback handlers. The caller here is an external browser redirect
// or the gateway's notification service, never an API client: raw errors are
// never surfaced, every outcome becomes a redirect to a landing page with a
// human-readable reason in the query string.

func (h *Handlers) GatewaySuccess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectFail(w, r, "Malformed Callback", "", 0)
		return
	}
	tranID := r.Form.Get("tran_id")
	validity := r.Form.Get("status")

	out := h.reconciler.HandleSuccess(r.Context(), tranID, validity)
	switch out.Code {
	case gateway.OutcomeCredited, gateway.OutcomeAlreadyCredited:
		h.redirectSuccess(w, r, out.TranID, out.CandidateID)
	default:
		h.redirectFail(w, r, out.Reason, out.TranID, out.CandidateID)
	}
}

func (h *Handlers) GatewayFail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectFail(w, r, "Malformed Callback", "", 0)
		return
	}
	tranID := r.Form.Get("tran_id")

	out := h.reconciler.HandleFail(r.Context(), tranID)
	h.redirectFail(w, r, "Payment Failed", out.TranID, out.CandidateID)
}

func (h *Handlers) GatewayCancel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectFail(w, r, "Malformed Callback", "", 0)
		return
	}
	tranID := r.Form.Get("tran_id")

	out := h.reconciler.HandleCancel(r.Context(), tranID)

	q := url.Values{}
	if out.CandidateID != 0 {
		q.Set("candidate_id", strconv.FormatInt(out.CandidateID, 10))
	}
	http.Redirect(w, r, h.appURL+"/payment/cancel?"+q.Encode(), http.StatusSeeOther)
}

// GatewayIPN acknowledges the out-of-band notification channel with a bare
// 200 regardless of outcome; the gateway only needs delivery confirmation.
func (h *Handlers) GatewayIPN(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	tranID := r.Form.Get("tran_id")
	status := r.Form.Get("status")

	h.reconciler.HandleIPN(r.Context(), tranID, status)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) redirectSuccess(w http.ResponseWriter, r *http.Request, tranID string, candidateID int64) {
	q := url.Values{}
	q.Set("candidate_id", strconv.FormatInt(candidateID, 10))
	http.Redirect(w, r,
		h.appURL+"/payment/success/"+url.PathEscape(tranID)+"?"+q.Encode(),
		http.StatusSeeOther)
}

func (h *Handlers) redirectFail(w http.ResponseWriter, r *http.Request, reason, tranID string, candidateID int64) {
	if reason == "" {
		reason = "Payment Failed"
	}
	q := url.Values{}
	q.Set("msg", reason)
	if tranID != "" {
		q.Set("tran_id", tranID)
	}
	if candidateID != 0 {
		q.Set("candidate_id", strconv.FormatInt(candidateID, 10))
	}
	http.Redirect(w, r, h.appURL+"/payment/fail?"+q.Encode(), http.StatusSeeOther)
}
