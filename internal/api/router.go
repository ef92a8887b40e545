package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/gateway"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/ledger"
)

// NewRouter creates the Chi router with all API routes mounted. Staff routes
// require a bearer token; gateway callback routes are open, as the external
// processor delivers them unauthenticated.
func NewRouter(
	recorder *ledger.Recorder,
	sessions *gateway.SessionManager,
	reconciler *gateway.Reconciler,
	appURL string,
	jwtSecret string,
) http.Handler {
	h := &Handlers{
		recorder:   recorder,
		sessions:   sessions,
		reconciler: reconciler,
		appURL:     appURL,
		validate:   validator.New(),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Staff ledger operations.
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(jwtSecret))

			r.Post("/payments", h.CreatePayment)
			r.Get("/payments/candidate/{id}", h.ListCandidatePayments)
			r.Get("/payments/transaction/{tranID}", h.GetReceipt)

			r.Post("/gateway/init", h.InitGatewaySession)
		})

		// Gateway notifications.
		r.Post("/gateway/success", h.GatewaySuccess)
		r.Post("/gateway/fail", h.GatewayFail)
		r.Post("/gateway/cancel", h.GatewayCancel)
		r.Post("/gateway/ipn", h.GatewayIPN)
	})

	return r
}
