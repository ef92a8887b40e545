package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/gateway"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/ledger"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/repository"
)

const (
	testSecret = "test-secret"
	testAppURL = "https://app.example.com"
)

type testServer struct {
	srv        *httptest.Server
	client     *http.Client
	candidates *repository.CandidateRepo
	payments   *repository.PaymentRepo
	txns       *repository.GatewayTxnRepo
}

// newTestServer wires the full stack over a temp database, with a stub
// standing in for the external gateway.
func newTestServer(t *testing.T, gatewayResponse map[string]string) *testServer {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := repository.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	candidates := repository.NewCandidateRepo(store)
	payments := repository.NewPaymentRepo(store)
	txns := repository.NewGatewayTxnRepo(store)
	recorder := ledger.NewRecorder(store, candidates, payments)

	if gatewayResponse == nil {
		gatewayResponse = map[string]string{
			"status":         "SUCCESS",
			"GatewayPageURL": "https://gateway.example.com/pay/abc",
		}
	}
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gatewayResponse)
	}))
	t.Cleanup(stub.Close)

	client := gateway.NewClient(gateway.ClientConfig{
		StoreID:       "testbox",
		StorePassword: "qwerty",
		EndpointURL:   stub.URL,
	})
	sessions := gateway.NewSessionManager(candidates, txns, client)
	reconciler := gateway.NewReconciler(store, txns, recorder)

	router := NewRouter(recorder, sessions, reconciler, testAppURL, testSecret)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		srv: srv,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		candidates: candidates,
		payments:   payments,
		txns:       txns,
	}
}

var passportSeq int

func (ts *testServer) seedCandidate(t *testing.T, agentID int64, packageAmount string) int64 {
	t.Helper()

	passportSeq++
	pkg, err := decimal.NewFromString(packageAmount)
	if err != nil {
		t.Fatalf("bad amount %q: %v", packageAmount, err)
	}
	id, err := ts.candidates.Insert(&domain.Candidate{
		AgentID:        agentID,
		Name:           "Test Candidate",
		PassportNumber: fmt.Sprintf("BD%08d", passportSeq),
		PackageAmount:  pkg,
		TotalPaid:      decimal.Zero,
		DueAmount:      pkg,
		Status:         domain.CandidatePending,
	})
	if err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return id
}

func (ts *testServer) seedPendingTxn(t *testing.T, candidateID int64, amount, tranID string) {
	t.Helper()

	amt, _ := decimal.NewFromString(amount)
	if _, err := ts.txns.InsertPending(&domain.GatewayTransaction{
		CandidateID: candidateID,
		Amount:      amt,
		PaymentType: domain.PaymentTypeVisa,
		TranID:      tranID,
	}); err != nil {
		t.Fatalf("seed pending txn: %v", err)
	}
}

func signToken(t *testing.T, userID int64, role domain.Role) string {
	t.Helper()

	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}

func TestCreatePaymentEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	token := signToken(t, 1, domain.RoleAdmin)

	resp := ts.doJSON(t, http.MethodPost, "/api/v1/payments", token, map[string]any{
		"candidate_id":   id,
		"amount":         "50000",
		"payment_type":   "service",
		"payment_method": "cash",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["payment_id"] == nil {
		t.Error("response missing payment_id")
	}

	c, _ := ts.candidates.GetByID(id)
	if c.TotalPaid.String() != "50000" {
		t.Errorf("total_paid = %s, want 50000", c.TotalPaid)
	}
}

func TestCreatePaymentErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	admin := signToken(t, 1, domain.RoleAdmin)

	cases := []struct {
		name   string
		token  string
		body   map[string]any
		status int
	}{
		{"no token", "", map[string]any{
			"candidate_id": id, "amount": "100",
			"payment_type": "visa", "payment_method": "cash"},
			http.StatusUnauthorized},
		{"foreign agent", signToken(t, 99, domain.RoleAgent), map[string]any{
			"candidate_id": id, "amount": "100",
			"payment_type": "visa", "payment_method": "cash"},
			http.StatusForbidden},
		{"data entry role", signToken(t, 2, domain.RoleDataEntry), map[string]any{
			"candidate_id": id, "amount": "100",
			"payment_type": "visa", "payment_method": "cash"},
			http.StatusForbidden},
		{"unknown candidate", admin, map[string]any{
			"candidate_id": 4242, "amount": "100",
			"payment_type": "visa", "payment_method": "cash"},
			http.StatusNotFound},
		{"non-numeric amount", admin, map[string]any{
			"candidate_id": id, "amount": "lots",
			"payment_type": "visa", "payment_method": "cash"},
			http.StatusBadRequest},
		{"negative amount", admin, map[string]any{
			"candidate_id": id, "amount": "-50",
			"payment_type": "visa", "payment_method": "cash"},
			http.StatusBadRequest},
		{"unknown type", admin, map[string]any{
			"candidate_id": id, "amount": "100",
			"payment_type": "rent", "payment_method": "cash"},
			http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.doJSON(t, http.MethodPost, "/api/v1/payments", tc.token, tc.body)
			resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}

	// None of the rejected requests may have written a row.
	count, _ := ts.payments.CountByCandidate(id)
	if count != 0 {
		t.Errorf("rejected requests wrote %d payment rows", count)
	}
}

func TestListAndReceiptEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	admin := signToken(t, 1, domain.RoleAdmin)

	resp := ts.doJSON(t, http.MethodPost, "/api/v1/payments", admin, map[string]any{
		"candidate_id": id, "amount": "20000",
		"payment_type": "visa", "payment_method": "gateway",
		"transaction_id": "SSLC_RCPT",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup payment: status %d", resp.StatusCode)
	}

	resp = ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/payments/candidate/%d", id), admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var payments []domain.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payments); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(payments) != 1 {
		t.Errorf("list returned %d payments, want 1", len(payments))
	}

	resp = ts.doJSON(t, http.MethodGet, "/api/v1/payments/transaction/SSLC_RCPT", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("receipt status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Foreign agent gets 403 on the same receipt.
	foreign := signToken(t, 99, domain.RoleAgent)
	resp = ts.doJSON(t, http.MethodGet, "/api/v1/payments/transaction/SSLC_RCPT", foreign, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign receipt status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInitGatewaySessionEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	token := signToken(t, 1, domain.RoleAccountant)

	resp := ts.doJSON(t, http.MethodPost, "/api/v1/gateway/init", token, map[string]any{
		"candidate_id": id,
		"amount":       "100000",
		"payment_type": "visa",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["redirect_url"] != "https://gateway.example.com/pay/abc" {
		t.Errorf("redirect_url = %v", body["redirect_url"])
	}

	// Candidate totals untouched by initiation.
	c, _ := ts.candidates.GetByID(id)
	if !c.TotalPaid.IsZero() {
		t.Errorf("total_paid = %s, want 0", c.TotalPaid)
	}
}

func TestInitGatewaySessionRejected(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"status":       "FAILED",
		"failedreason": "invalid store credentials",
	})
	id := ts.seedCandidate(t, 3, "450000")
	token := signToken(t, 1, domain.RoleAdmin)

	resp := ts.doJSON(t, http.MethodPost, "/api/v1/gateway/init", token, map[string]any{
		"candidate_id": id,
		"amount":       "100000",
		"payment_type": "visa",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "invalid store credentials" {
		t.Errorf("error = %v, want gateway reason", body["error"])
	}
}

func TestSuccessCallbackRedirects(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	ts.seedPendingTxn(t, id, "100000", "SSLC_CB1")

	resp := ts.postForm(t, "/api/v1/gateway/success", url.Values{
		"tran_id": {"SSLC_CB1"},
		"status":  {"VALID"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}

	loc := resp.Header.Get("Location")
	wantPrefix := testAppURL + "/payment/success/SSLC_CB1"
	if !strings.HasPrefix(loc, wantPrefix) {
		t.Errorf("location = %q, want prefix %q", loc, wantPrefix)
	}
	if !strings.Contains(loc, fmt.Sprintf("candidate_id=%d", id)) {
		t.Errorf("location %q missing candidate_id", loc)
	}

	// And the ledger was credited.
	c, _ := ts.candidates.GetByID(id)
	if c.TotalPaid.String() != "100000" {
		t.Errorf("total_paid = %s, want 100000", c.TotalPaid)
	}
}

func TestSuccessCallbackUnknownTransaction(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.postForm(t, "/api/v1/gateway/success", url.Values{
		"tran_id": {"SSLC_GHOST"},
		"status":  {"VALID"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/payment/fail" {
		t.Errorf("path = %q, want /payment/fail", loc.Path)
	}
	if loc.Query().Get("msg") != "Transaction Not Found" {
		t.Errorf("msg = %q", loc.Query().Get("msg"))
	}
}

func TestSuccessCallbackInvalidFlag(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	ts.seedPendingTxn(t, id, "100000", "SSLC_CB2")

	resp := ts.postForm(t, "/api/v1/gateway/success", url.Values{
		"tran_id": {"SSLC_CB2"},
		"status":  {"FAILED"},
	})
	resp.Body.Close()

	loc, _ := url.Parse(resp.Header.Get("Location"))
	if loc.Path != "/payment/fail" {
		t.Errorf("path = %q, want /payment/fail", loc.Path)
	}
	if loc.Query().Get("msg") != "Payment Validation Failed" {
		t.Errorf("msg = %q", loc.Query().Get("msg"))
	}

	count, _ := ts.payments.CountByCandidate(id)
	if count != 0 {
		t.Errorf("invalid callback credited %d payments", count)
	}
}

func TestFailAndCancelCallbacks(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	ts.seedPendingTxn(t, id, "100000", "SSLC_CB3")
	ts.seedPendingTxn(t, id, "50000", "SSLC_CB4")

	resp := ts.postForm(t, "/api/v1/gateway/fail", url.Values{"tran_id": {"SSLC_CB3"}})
	resp.Body.Close()
	loc, _ := url.Parse(resp.Header.Get("Location"))
	if loc.Path != "/payment/fail" {
		t.Errorf("fail path = %q", loc.Path)
	}
	if loc.Query().Get("candidate_id") != fmt.Sprintf("%d", id) {
		t.Errorf("fail candidate_id = %q", loc.Query().Get("candidate_id"))
	}
	txn, _ := ts.txns.GetByTranID("SSLC_CB3")
	if txn.Status != domain.TxnFailed {
		t.Errorf("status = %s, want failed", txn.Status)
	}

	resp = ts.postForm(t, "/api/v1/gateway/cancel", url.Values{"tran_id": {"SSLC_CB4"}})
	resp.Body.Close()
	loc, _ = url.Parse(resp.Header.Get("Location"))
	if loc.Path != "/payment/cancel" {
		t.Errorf("cancel path = %q", loc.Path)
	}
	txn, _ = ts.txns.GetByTranID("SSLC_CB4")
	if txn.Status != domain.TxnCancelled {
		t.Errorf("status = %s, want cancelled", txn.Status)
	}
}

func TestIPNEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.seedCandidate(t, 3, "450000")
	ts.seedPendingTxn(t, id, "100000", "SSLC_IPNHTTP")

	resp := ts.postForm(t, "/api/v1/gateway/ipn", url.Values{
		"tran_id": {"SSLC_IPNHTTP"},
		"status":  {"VALID"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// The IPN is authoritative: the credit landed.
	c, _ := ts.candidates.GetByID(id)
	if c.TotalPaid.String() != "100000" {
		t.Errorf("total_paid = %s, want 100000", c.TotalPaid)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.doJSON(t, http.MethodPost, "/api/v1/payments", "not-a-token", map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
