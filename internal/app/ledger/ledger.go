// Package ledger computes balances and aggregates from a snapshot.
//
// Everything here is a pure read over the snapshot handed to New: no
// caching, no side effects, safe to call repeatedly and concurrently.
package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/akywe-ledger/akywe/internal/domain"
)

// UnknownCustomer is the display name for a customer id with no record,
// which happens after a customer is deleted without cascading.
const UnknownCustomer = "Unknown"

// DashboardTopN is how many debtors the dashboard summary lists.
const DashboardTopN = 5

// Engine answers ledger queries over one snapshot.
type Engine struct {
	snap domain.Snapshot
}

// New returns an engine over snap. The engine does not copy snap; callers
// pass a snapshot they will not mutate (store.Snapshot returns a copy).
func New(snap domain.Snapshot) *Engine {
	return &Engine{snap: snap}
}

// DebtorBalance pairs a customer with their outstanding balance.
type DebtorBalance struct {
	Customer domain.Customer `json:"customer"`
	Balance  domain.Amount   `json:"balance"`
}

// ─── Balances ───────────────────────────────────────────────────────────────

// OutstandingBalance is the sum of the customer's debt totals minus the
// sum of their payments. An unknown id has a balance of 0.
func (e *Engine) OutstandingBalance(customerID string) domain.Amount {
	var bal domain.Amount
	for _, d := range e.snap.Debts {
		if d.CustomerID == customerID {
			bal = bal.Add(d.Total)
		}
	}
	for _, p := range e.snap.Payments {
		if p.CustomerID == customerID {
			bal = bal.Sub(p.Amount)
		}
	}
	return bal
}

// PortfolioTotalOutstanding sums OutstandingBalance over every customer.
// Records of deleted customers are not included.
func (e *Engine) PortfolioTotalOutstanding() domain.Amount {
	var total domain.Amount
	for _, bal := range e.balances() {
		total = total.Add(bal)
	}
	return total
}

// TopDebtors returns up to n customers with a positive balance, highest
// first. Equal balances keep customer insertion order.
func (e *Engine) TopDebtors(n int) []DebtorBalance {
	if n <= 0 {
		return []DebtorBalance{}
	}
	bals := e.balances()
	out := make([]DebtorBalance, 0, len(bals))
	for i, c := range e.snap.Customers {
		if bals[i] > 0 {
			out = append(out, DebtorBalance{Customer: c, Balance: bals[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Balance > out[j].Balance })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// balances computes every customer's balance in one pass, indexed like
// snap.Customers.
func (e *Engine) balances() []domain.Amount {
	byID := make(map[string]domain.Amount, len(e.snap.Customers))
	for _, d := range e.snap.Debts {
		byID[d.CustomerID] = byID[d.CustomerID].Add(d.Total)
	}
	for _, p := range e.snap.Payments {
		byID[p.CustomerID] = byID[p.CustomerID].Sub(p.Amount)
	}
	out := make([]domain.Amount, len(e.snap.Customers))
	for i, c := range e.snap.Customers {
		out[i] = byID[c.ID]
	}
	return out
}

// ─── Date Queries ───────────────────────────────────────────────────────────

// PaymentsOnDate returns payments whose date string equals date exactly.
func (e *Engine) PaymentsOnDate(date string) []domain.Payment {
	out := []domain.Payment{}
	for _, p := range e.snap.Payments {
		if p.Date == date {
			out = append(out, p)
		}
	}
	return out
}

// DebtsInMonth returns debts whose date starts with yyyymm ("2024-01").
func (e *Engine) DebtsInMonth(yyyymm string) []domain.Debt {
	out := []domain.Debt{}
	for _, d := range e.snap.Debts {
		if strings.HasPrefix(d.Date, yyyymm) {
			out = append(out, d)
		}
	}
	return out
}

// ─── Lookups ────────────────────────────────────────────────────────────────

// Customer returns the customer with id.
func (e *Engine) Customer(id string) (domain.Customer, bool) {
	if i := e.snap.CustomerIndex(id); i >= 0 {
		return e.snap.Customers[i], true
	}
	return domain.Customer{}, false
}

// CustomerName resolves a customer id to a name, or UnknownCustomer.
func (e *Engine) CustomerName(id string) string {
	if c, ok := e.Customer(id); ok {
		return c.Name
	}
	return UnknownCustomer
}

// ─── Dashboard ──────────────────────────────────────────────────────────────

// PaymentEntry is a payment annotated with its customer's name.
type PaymentEntry struct {
	domain.Payment
	CustomerName string `json:"customerName"`
}

// DebtEntry is a debt annotated with its customer's name.
type DebtEntry struct {
	domain.Debt
	CustomerName string `json:"customerName"`
}

// Summary is the dashboard view.
type Summary struct {
	TotalOutstanding domain.Amount   `json:"totalOutstanding"`
	TodayPayments    domain.Amount   `json:"todayPayments"`
	CustomerCount    int             `json:"customerCount"`
	MonthDebts       domain.Amount   `json:"monthDebts"`
	TopDebtors       []DebtorBalance `json:"topDebtors"`
	TodayActivity    []PaymentEntry  `json:"todayActivity"`
}

// Summary builds the dashboard for the calendar day of today.
// TodayActivity lists today's payments newest first.
func (e *Engine) Summary(today time.Time) Summary {
	date := domain.DateOf(today)
	s := Summary{
		TotalOutstanding: e.PortfolioTotalOutstanding(),
		CustomerCount:    len(e.snap.Customers),
		TopDebtors:       e.TopDebtors(DashboardTopN),
		TodayActivity:    []PaymentEntry{},
	}

	todays := e.PaymentsOnDate(date)
	for i := len(todays) - 1; i >= 0; i-- {
		p := todays[i]
		s.TodayPayments = s.TodayPayments.Add(p.Amount)
		s.TodayActivity = append(s.TodayActivity, PaymentEntry{Payment: p, CustomerName: e.CustomerName(p.CustomerID)})
	}
	for _, d := range e.DebtsInMonth(domain.MonthOf(today)) {
		s.MonthDebts = s.MonthDebts.Add(d.Total)
	}
	return s
}

// ─── Customer History ───────────────────────────────────────────────────────

// History is one customer's activity, newest first.
type History struct {
	Customer domain.Customer  `json:"customer"`
	Balance  domain.Amount    `json:"balance"`
	Debts    []domain.Debt    `json:"debts"`
	Payments []domain.Payment `json:"payments"`
}

// History returns the customer's debts and payments sorted by date,
// newest first. The bool is false when the customer does not exist.
func (e *Engine) History(customerID string) (History, bool) {
	c, ok := e.Customer(customerID)
	if !ok {
		return History{}, false
	}
	h := History{
		Customer: c,
		Balance:  e.OutstandingBalance(customerID),
		Debts:    []domain.Debt{},
		Payments: []domain.Payment{},
	}
	for _, d := range e.snap.Debts {
		if d.CustomerID == customerID {
			h.Debts = append(h.Debts, d)
		}
	}
	for _, p := range e.snap.Payments {
		if p.CustomerID == customerID {
			h.Payments = append(h.Payments, p)
		}
	}
	sort.SliceStable(h.Debts, func(i, j int) bool { return h.Debts[i].Date > h.Debts[j].Date })
	sort.SliceStable(h.Payments, func(i, j int) bool { return h.Payments[i].Date > h.Payments[j].Date })
	return h, true
}

// ─── Search ─────────────────────────────────────────────────────────────────

// SearchCustomers matches a case-insensitive name substring or a phone
// substring. An empty term returns every customer.
func (e *Engine) SearchCustomers(term string) []domain.Customer {
	term = strings.TrimSpace(term)
	lower := strings.ToLower(term)
	out := []domain.Customer{}
	for _, c := range e.snap.Customers {
		if term == "" ||
			strings.Contains(strings.ToLower(c.Name), lower) ||
			(c.Phone != "" && strings.Contains(c.Phone, term)) {
			out = append(out, c)
		}
	}
	return out
}

// SearchDebts matches the customer name or the item, case-insensitively,
// and returns the newest debts first. Orphaned records match on item only.
func (e *Engine) SearchDebts(term string) []DebtEntry {
	lower := strings.ToLower(strings.TrimSpace(term))
	out := []DebtEntry{}
	for _, d := range e.snap.Debts {
		c, _ := e.Customer(d.CustomerID)
		if strings.Contains(strings.ToLower(c.Name), lower) ||
			strings.Contains(strings.ToLower(d.Item), lower) {
			out = append(out, DebtEntry{Debt: d, CustomerName: e.CustomerName(d.CustomerID)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// SearchPayments matches the customer name case-insensitively and returns
// the newest payments first.
func (e *Engine) SearchPayments(term string) []PaymentEntry {
	lower := strings.ToLower(strings.TrimSpace(term))
	out := []PaymentEntry{}
	for _, p := range e.snap.Payments {
		c, _ := e.Customer(p.CustomerID)
		if strings.Contains(strings.ToLower(c.Name), lower) {
			out = append(out, PaymentEntry{Payment: p, CustomerName: e.CustomerName(p.CustomerID)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
