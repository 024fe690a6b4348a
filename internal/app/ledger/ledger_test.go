package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akywe-ledger/akywe/internal/domain"
)

func debt(id, customerID, item string, total domain.Amount, date string) domain.Debt {
	return domain.Debt{ID: id, CustomerID: customerID, Item: item, Amount: total, Total: total, Date: date}
}

func payment(id, customerID string, amount domain.Amount, date string) domain.Payment {
	return domain.Payment{ID: id, CustomerID: customerID, Amount: amount, Date: date}
}

// fixture builds customers whose balances are [0, 200, 500, -100, 300].
func fixture() domain.Snapshot {
	return domain.Snapshot{
		Customers: []domain.Customer{
			{ID: "a", Name: "Aye"},
			{ID: "b", Name: "Bo Bo", Phone: "09-222"},
			{ID: "c", Name: "Chit"},
			{ID: "d", Name: "Daw Hla"},
			{ID: "e", Name: "Ei Ei"},
		},
		Debts: []domain.Debt{
			debt("d1", "a", "bread", 100, "2024-01-05"),
			debt("d2", "b", "cake", 200, "2024-01-10"),
			debt("d3", "c", "bread", 700, "2024-02-01"),
			debt("d4", "e", "buns", 300, "2024-02-14"),
			debt("d5", "gone", "pastry", 50, "2024-02-20"),
		},
		Payments: []domain.Payment{
			payment("p1", "a", 100, "2024-01-06"),
			payment("p2", "c", 200, "2024-02-02"),
			payment("p3", "d", 100, "2024-02-02"),
			payment("p4", "gone", 10, "2024-02-21"),
		},
	}
}

// ─── Balances ───────────────────────────────────────────────────────────────

func TestOutstandingBalance(t *testing.T) {
	e := New(fixture())

	tests := []struct {
		id   string
		want domain.Amount
	}{
		{"a", 0},
		{"b", 200},
		{"c", 500},
		{"d", -100},
		{"e", 300},
		{"gone", 40},
		{"never-existed", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, e.OutstandingBalance(tt.id))
		})
	}
}

func TestOutstandingBalance_RecomputedFromSnapshot(t *testing.T) {
	snap := fixture()
	before := New(snap).OutstandingBalance("b")

	snap.Payments = append(snap.Payments, payment("p9", "b", 50, "2024-03-01"))
	after := New(snap).OutstandingBalance("b")

	assert.Equal(t, domain.Amount(200), before)
	assert.Equal(t, domain.Amount(150), after)
}

func TestOutstandingBalance_SaturatesInsteadOfWrapping(t *testing.T) {
	e := New(domain.Snapshot{
		Customers: []domain.Customer{{ID: "m", Name: "Mya"}, {ID: "n", Name: "Nu"}},
		Debts: []domain.Debt{
			debt("d1", "m", "cake", math.MaxInt64, "2024-01-01"),
			debt("d2", "m", "bread", 10, "2024-01-02"),
			debt("d3", "n", "cake", math.MaxInt64, "2024-01-01"),
		},
	})

	assert.Equal(t, domain.Amount(math.MaxInt64), e.OutstandingBalance("m"))
	assert.Equal(t, domain.Amount(math.MaxInt64), e.PortfolioTotalOutstanding())
	top := e.TopDebtors(5)
	require.Len(t, top, 2)
	assert.Equal(t, "m", top[0].Customer.ID)
}

func TestPortfolioTotalOutstanding(t *testing.T) {
	// 0 + 200 + 500 - 100 + 300; the orphaned "gone" records are excluded.
	assert.Equal(t, domain.Amount(900), New(fixture()).PortfolioTotalOutstanding())
}

func TestPortfolioTotalOutstanding_Empty(t *testing.T) {
	assert.Equal(t, domain.Amount(0), New(domain.Snapshot{}).PortfolioTotalOutstanding())
}

// ─── Top Debtors ────────────────────────────────────────────────────────────

func TestTopDebtors_PositiveOnlyDescending(t *testing.T) {
	top := New(fixture()).TopDebtors(5)

	require.Len(t, top, 3)
	assert.Equal(t, domain.Amount(500), top[0].Balance)
	assert.Equal(t, domain.Amount(300), top[1].Balance)
	assert.Equal(t, domain.Amount(200), top[2].Balance)
	assert.Equal(t, "c", top[0].Customer.ID)
}

func TestTopDebtors_Truncates(t *testing.T) {
	top := New(fixture()).TopDebtors(2)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].Customer.ID)
	assert.Equal(t, "e", top[1].Customer.ID)
}

func TestTopDebtors_TiesKeepInsertionOrder(t *testing.T) {
	snap := domain.Snapshot{
		Customers: []domain.Customer{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}, {ID: "z", Name: "Z"}},
		Debts: []domain.Debt{
			debt("1", "z", "i", 100, "2024-01-01"),
			debt("2", "x", "i", 100, "2024-01-01"),
			debt("3", "y", "i", 100, "2024-01-01"),
		},
	}
	top := New(snap).TopDebtors(3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"x", "y", "z"}, []string{top[0].Customer.ID, top[1].Customer.ID, top[2].Customer.ID})
}

func TestTopDebtors_NonPositiveN(t *testing.T) {
	assert.Empty(t, New(fixture()).TopDebtors(0))
	assert.Empty(t, New(fixture()).TopDebtors(-1))
}

// ─── Date Queries ───────────────────────────────────────────────────────────

func TestPaymentsOnDate_ExactMatch(t *testing.T) {
	e := New(fixture())

	got := e.PaymentsOnDate("2024-02-02")
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)

	assert.Empty(t, e.PaymentsOnDate("2024-02"))
	assert.Empty(t, e.PaymentsOnDate("2024-02-02T00:00:00Z"))
}

func TestDebtsInMonth_Prefix(t *testing.T) {
	e := New(fixture())

	jan := e.DebtsInMonth("2024-01")
	require.Len(t, jan, 2)
	assert.Equal(t, "d1", jan[0].ID)

	assert.Len(t, e.DebtsInMonth("2024-02"), 3)
	assert.Empty(t, e.DebtsInMonth("2023-12"))
}

// ─── Lookups ────────────────────────────────────────────────────────────────

func TestCustomerName_Orphan(t *testing.T) {
	e := New(fixture())
	assert.Equal(t, "Chit", e.CustomerName("c"))
	assert.Equal(t, UnknownCustomer, e.CustomerName("gone"))
}

// ─── Dashboard ──────────────────────────────────────────────────────────────

func TestSummary(t *testing.T) {
	today := time.Date(2024, 2, 2, 18, 30, 0, 0, time.UTC)
	s := New(fixture()).Summary(today)

	assert.Equal(t, domain.Amount(900), s.TotalOutstanding)
	assert.Equal(t, domain.Amount(300), s.TodayPayments)
	assert.Equal(t, 5, s.CustomerCount)
	assert.Equal(t, domain.Amount(1050), s.MonthDebts)
	assert.Len(t, s.TopDebtors, 3)

	require.Len(t, s.TodayActivity, 2)
	assert.Equal(t, "p3", s.TodayActivity[0].ID, "newest first")
	assert.Equal(t, "Daw Hla", s.TodayActivity[0].CustomerName)
}

func TestSummary_QuietDay(t *testing.T) {
	s := New(fixture()).Summary(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, domain.Amount(0), s.TodayPayments)
	assert.Equal(t, domain.Amount(0), s.MonthDebts)
	assert.NotNil(t, s.TodayActivity)
	assert.Empty(t, s.TodayActivity)
}

// ─── History ────────────────────────────────────────────────────────────────

func TestHistory(t *testing.T) {
	snap := fixture()
	snap.Debts = append(snap.Debts, debt("d6", "c", "tea", 50, "2024-03-01"))
	h, ok := New(snap).History("c")

	require.True(t, ok)
	assert.Equal(t, domain.Amount(550), h.Balance)
	require.Len(t, h.Debts, 2)
	assert.Equal(t, "d6", h.Debts[0].ID)
	require.Len(t, h.Payments, 1)
}

func TestHistory_UnknownCustomer(t *testing.T) {
	_, ok := New(fixture()).History("gone")
	assert.False(t, ok)
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestSearchCustomers(t *testing.T) {
	e := New(fixture())

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"a", "b", "c", "d", "e"}},
		{"ei", []string{"e"}},
		{"BO", []string{"b"}},
		{"222", []string{"b"}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			var ids []string
			for _, c := range e.SearchCustomers(tt.term) {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSearchDebts(t *testing.T) {
	e := New(fixture())

	bread := e.SearchDebts("BREAD")
	require.Len(t, bread, 2)
	assert.Equal(t, "d3", bread[0].ID, "newest first")

	orphan := e.SearchDebts("pastry")
	require.Len(t, orphan, 1)
	assert.Equal(t, UnknownCustomer, orphan[0].CustomerName)

	assert.Empty(t, e.SearchDebts("unknown"), "orphans do not match on the placeholder name")
	assert.Len(t, e.SearchDebts(""), 5)
}

func TestSearchPayments(t *testing.T) {
	e := New(fixture())

	got := e.SearchPayments("chit")
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)

	all := e.SearchPayments("")
	require.Len(t, all, 4)
	assert.Equal(t, "p4", all[0].ID)
}
