package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akywe-ledger/akywe/internal/app/statement"
	"github.com/akywe-ledger/akywe/internal/domain"
)

// ─── Customers API ──────────────────────────────────────────────────────────
//
// GET    /api/customers?q=               list or search customers
// POST   /api/customers                  add a customer
// PATCH  /api/customers/{id}             update name/phone
// DELETE /api/customers/{id}             delete a customer
// GET    /api/customers/{id}/balance     outstanding balance
// GET    /api/customers/{id}/history     debts and payments, newest first
// GET    /api/customers/{id}/statement   PDF statement

type customerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine().SearchCustomers(r.URL.Query().Get("q")))
}

func (s *Server) handleAddCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.svc.AddCustomer(r.Context(), req.Name, req.Phone)
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var u domain.CustomerUpdate
	if !decode(w, r, &u) {
		return
	}
	c, err := s.svc.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCustomerBalance returns the balance for any id; unknown ids are 0.
func (s *Server) handleCustomerBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customerId": id,
		"balance":    s.engine().OutstandingBalance(id),
	})
}

func (s *Server) handleCustomerHistory(w http.ResponseWriter, r *http.Request) {
	h, ok := s.engine().History(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleCustomerStatement(w http.ResponseWriter, r *http.Request) {
	h, ok := s.engine().History(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	var buf bytes.Buffer
	err := statement.Render(&buf, statement.Data{
		Shop:        s.shop,
		Currency:    s.currency,
		GeneratedAt: s.now(),
		History:     h,
		FontPath:    s.statementFont,
	})
	if err != nil {
		s.log.Error("render statement", "customer", h.Customer.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not render statement")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="statement-`+h.Customer.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
