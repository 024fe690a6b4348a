// Package domain contains pure ledger types with ZERO infrastructure imports.
// This is the innermost ring: records, snapshots, update sets and errors.
package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ─── Amount ─────────────────────────────────────────────────────────────────

// Amount is a quantity of money in whole currency units.
type Amount int64

// MaxAmount bounds a single debt or payment and a customer's outstanding
// balance. Sums of bounded amounts stay far inside int64.
const MaxAmount Amount = 1_000_000_000_000_000

// Valid reports whether a is a storable debt or payment amount.
func (a Amount) Valid() bool { return a >= 0 && a <= MaxAmount }

// Add returns a+b, saturating at the int64 limits instead of wrapping.
func (a Amount) Add(b Amount) Amount {
	sum := a + b
	switch {
	case b > 0 && sum < a:
		return math.MaxInt64
	case b < 0 && sum > a:
		return math.MinInt64
	}
	return sum
}

// Sub returns a-b, saturating like Add.
func (a Amount) Sub(b Amount) Amount {
	if b == math.MinInt64 {
		return a.Add(math.MaxInt64).Add(1)
	}
	return a.Add(-b)
}

// UnmarshalJSON accepts a JSON number or a numeric string.
// Stored form input used to be kept verbatim, so "5000" and 5000 both
// appear in persisted data. A string that is not a number decodes as 0,
// the same value the balance reduction would have used for it. Values
// beyond MaxAmount in either direction are clamped to it.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*a = 0
		return nil
	}
	if s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*a = 0
		return nil
	}
	switch f = math.Round(f); {
	case f > float64(MaxAmount):
		*a = MaxAmount
	case f < -float64(MaxAmount):
		*a = -MaxAmount
	default:
		*a = Amount(f)
	}
	return nil
}

// ParseAmount parses user input such as "5000" or "5,000".
// Anything that is not a whole number in [0, MaxAmount] is ErrInvalidAmount.
func ParseAmount(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || !Amount(n).Valid() {
		return 0, ErrInvalidAmount
	}
	return Amount(n), nil
}

// ─── Records ────────────────────────────────────────────────────────────────

// Customer is a person who can owe the shop money.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Debt is an amount a customer owes for an item.
// Total mirrors Amount; there is no tax or discount logic.
type Debt struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Item       string `json:"item"`
	Amount     Amount `json:"amount"`
	Total      Amount `json:"total"`
	Date       string `json:"date"`
}

// Payment reduces a customer's outstanding balance.
type Payment struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Amount     Amount `json:"amount"`
	Date       string `json:"date"`
}

// ─── Update Sets ────────────────────────────────────────────────────────────
// A nil field means "leave unchanged".

// CustomerUpdate holds the mutable customer fields.
type CustomerUpdate struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// DebtUpdate holds the mutable debt fields. Changing Amount also changes Total.
type DebtUpdate struct {
	Item   *string `json:"item,omitempty"`
	Amount *Amount `json:"amount,omitempty"`
	Date   *string `json:"date,omitempty"`
}

// PaymentUpdate holds the mutable payment fields.
type PaymentUpdate struct {
	Amount *Amount `json:"amount,omitempty"`
	Date   *string `json:"date,omitempty"`
}

// Apply returns c with the update merged in.
func (u CustomerUpdate) Apply(c Customer) Customer {
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Phone != nil {
		c.Phone = strings.TrimSpace(*u.Phone)
	}
	return c
}

// Apply returns d with the update merged in.
func (u DebtUpdate) Apply(d Debt) Debt {
	if u.Item != nil {
		d.Item = strings.TrimSpace(*u.Item)
	}
	if u.Amount != nil {
		d.Amount = *u.Amount
		d.Total = *u.Amount
	}
	if u.Date != nil {
		d.Date = *u.Date
	}
	return d
}

// Apply returns p with the update merged in.
func (u PaymentUpdate) Apply(p Payment) Payment {
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.Date != nil {
		p.Date = *u.Date
	}
	return p
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

// Snapshot is the full record set at one point in time.
// Each collection keeps insertion order.
type Snapshot struct {
	Customers []Customer `json:"customers"`
	Debts     []Debt     `json:"debts"`
	Payments  []Payment  `json:"payments"`
}

// Clone returns a deep copy so callers can mutate it freely.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Customers: append([]Customer(nil), s.Customers...),
		Debts:     append([]Debt(nil), s.Debts...),
		Payments:  append([]Payment(nil), s.Payments...),
	}
}

// CustomerIndex returns the position of the customer with id, or -1.
func (s Snapshot) CustomerIndex(id string) int {
	for i, c := range s.Customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// DebtIndex returns the position of the debt with id, or -1.
func (s Snapshot) DebtIndex(id string) int {
	for i, d := range s.Debts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// PaymentIndex returns the position of the payment with id, or -1.
func (s Snapshot) PaymentIndex(id string) int {
	for i, p := range s.Payments {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ─── Dates ──────────────────────────────────────────────────────────────────

// DateOf formats t as an ISO calendar date (YYYY-MM-DD).
func DateOf(t time.Time) string {
	return t.Format(time.DateOnly)
}

// MonthOf formats t as YYYY-MM.
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
