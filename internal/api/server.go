// Package api provides the local HTTP surface for the ledger.
// Handlers are glue: writes go through the mutation service, reads through
// a ledger engine built from the current store snapshot.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/akywe-ledger/akywe/internal/app/ledger"
	"github.com/akywe-ledger/akywe/internal/app/mutation"
	"github.com/akywe-ledger/akywe/internal/app/notify"
	"github.com/akywe-ledger/akywe/internal/app/store"
	"github.com/akywe-ledger/akywe/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is the ledger HTTP API server.
type Server struct {
	store          *store.Store
	svc            *mutation.Service
	notices        *notify.Queue
	log            *slog.Logger
	now            func() time.Time
	metricsEnabled bool
	corsOrigins    []string
	shop           string
	currency       string
	statementFont  string
}

// NewServer creates a new API server.
func NewServer(st *store.Store, svc *mutation.Service, q *notify.Queue) *Server {
	return &Server{
		store:    st,
		svc:      svc,
		notices:  q,
		log:      slog.Default(),
		now:      time.Now,
		shop:     "Bakery",
		currency: "Ks",
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetCORSOrigins sets the browser origins allowed to call the API.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// SetLogger sets the request logger.
func (s *Server) SetLogger(l *slog.Logger) { s.log = l }

// SetClock sets the clock used for "today" in dashboard views.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// SetStatementLabels sets the shop name and currency printed on statements.
func (s *Server) SetStatementLabels(shop, currency string) {
	s.shop, s.currency = shop, currency
}

// SetStatementFont sets the UTF-8 font file used for statements.
func (s *Server) SetStatementFont(path string) {
	s.statementFont = path
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", s.handleListCustomers)
			r.Post("/", s.handleAddCustomer)
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateCustomer)
				r.Delete("/", s.handleDeleteCustomer)
				r.Get("/balance", s.handleCustomerBalance)
				r.Get("/history", s.handleCustomerHistory)
				r.Get("/statement", s.handleCustomerStatement)
			})
		})
		r.Route("/debts", func(r chi.Router) {
			r.Get("/", s.handleListDebts)
			r.Post("/", s.handleAddDebt)
			r.Patch("/{id}", s.handleUpdateDebt)
			r.Delete("/{id}", s.handleDeleteDebt)
		})
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", s.handleListPayments)
			r.Post("/", s.handleAddPayment)
			r.Patch("/{id}", s.handleUpdatePayment)
			r.Delete("/{id}", s.handleDeletePayment)
		})
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/top", s.handleTopDebtors)
			r.Get("/payments", s.handlePaymentsOnDate)
			r.Get("/debts", s.handleDebtsInMonth)
		})
		r.Route("/notices", func(r chi.Router) {
			r.Get("/", s.handleListNotices)
			r.Get("/stream", s.handleNoticeStream)
			r.Get("/events", s.handleNoticeEvents)
			r.Delete("/{id}", s.handleDismissNotice)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

// engine returns a ledger engine over the current snapshot.
func (s *Server) engine() *ledger.Engine {
	return ledger.New(s.store.Snapshot())
}

// ─── Responses ──────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"status":  status,
		},
	})
}

// writeMutationError maps a mutation error to its HTTP status.
func (s *Server) writeMutationError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := s.svc.Describe(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoOutstandingDebt),
		errors.Is(err, domain.ErrAmountExceedsBalance),
		errors.Is(err, domain.ErrBalanceLimit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ─── Requests ───────────────────────────────────────────────────────────────

// decode reads a JSON body into v. It writes a 400 and returns false on
// failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// amountInput is an amount from a request body: a JSON number or a
// numeric string. Unlike persisted data, garbage is rejected.
type amountInput struct {
	set bool
	v   domain.Amount
	err error
}

func (a *amountInput) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	a.set = true
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			a.err = domain.ErrInvalidAmount
			return nil
		}
		s = unq
	}
	a.v, a.err = domain.ParseAmount(s)
	return nil
}

// required returns the amount, or ErrInvalidAmount when absent or invalid.
func (a amountInput) required() (domain.Amount, error) {
	if !a.set {
		return 0, domain.ErrInvalidAmount
	}
	return a.v, a.err
}

// optional returns nil when absent.
func (a amountInput) optional() (*domain.Amount, error) {
	if !a.set {
		return nil, nil
	}
	if a.err != nil {
		return nil, a.err
	}
	v := a.v
	return &v, nil
}
