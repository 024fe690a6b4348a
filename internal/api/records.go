package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akywe-ledger/akywe/internal/domain"
)

// ─── Debts & Payments API ───────────────────────────────────────────────────
//
// GET    /api/debts?q=          debts matching customer name or item, newest first
// POST   /api/debts             record a debt
// PATCH  /api/debts/{id}        update item/amount/date
// DELETE /api/debts/{id}        delete a debt
// GET    /api/payments?q=       payments matching customer name, newest first
// POST   /api/payments          record a payment
// PATCH  /api/payments/{id}     update amount/date
// DELETE /api/payments/{id}     delete a payment

type debtRequest struct {
	CustomerID string      `json:"customerId"`
	Item       string      `json:"item"`
	Amount     amountInput `json:"amount"`
	Date       string      `json:"date"`
}

type debtPatch struct {
	Item   *string     `json:"item"`
	Amount amountInput `json:"amount"`
	Date   *string     `json:"date"`
}

type paymentRequest struct {
	CustomerID string      `json:"customerId"`
	Amount     amountInput `json:"amount"`
	Date       string      `json:"date"`
}

type paymentPatch struct {
	Amount amountInput `json:"amount"`
	Date   *string     `json:"date"`
}

// ─── Debts ──────────────────────────────────────────────────────────────────

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine().SearchDebts(r.URL.Query().Get("q")))
}

func (s *Server) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if !decode(w, r, &req) {
		return
	}
	amount, err := req.Amount.required()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := s.svc.AddDebt(r.Context(), req.CustomerID, req.Item, amount, req.Date)
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtPatch
	if !decode(w, r, &req) {
		return
	}
	amount, err := req.Amount.optional()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := s.svc.UpdateDebt(r.Context(), chi.URLParam(r, "id"), domain.DebtUpdate{
		Item:   req.Item,
		Amount: amount,
		Date:   req.Date,
	})
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDebt(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Payments ───────────────────────────────────────────────────────────────

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine().SearchPayments(r.URL.Query().Get("q")))
}

func (s *Server) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}
	amount, err := req.Amount.required()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.svc.AddPayment(r.Context(), req.CustomerID, amount, req.Date)
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentPatch
	if !decode(w, r, &req) {
		return
	}
	amount, err := req.Amount.optional()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.svc.UpdatePayment(r.Context(), chi.URLParam(r, "id"), domain.PaymentUpdate{
		Amount: amount,
		Date:   req.Date,
	})
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
