package api

import (
	"net/http"
	"strconv"

	"github.com/akywe-ledger/akywe/internal/app/ledger"
	"github.com/akywe-ledger/akywe/internal/domain"
)

// ─── Ledger Views API ───────────────────────────────────────────────────────
//
// GET /api/ledger/summary           dashboard metrics for today
// GET /api/ledger/top?n=5           top debtors, highest balance first
// GET /api/ledger/payments?date=    payments on a date (default today)
// GET /api/ledger/debts?month=      debts in a YYYY-MM month (default this month)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine().Summary(s.now()))
}

func (s *Server) handleTopDebtors(w http.ResponseWriter, r *http.Request) {
	n := ledger.DashboardTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "n must be an integer")
			return
		}
		n = v
	}
	writeJSON(w, http.StatusOK, s.engine().TopDebtors(n))
}

func (s *Server) handlePaymentsOnDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = domain.DateOf(s.now())
	}
	writeJSON(w, http.StatusOK, s.engine().PaymentsOnDate(date))
}

func (s *Server) handleDebtsInMonth(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = domain.MonthOf(s.now())
	}
	writeJSON(w, http.StatusOK, s.engine().DebtsInMonth(month))
}
