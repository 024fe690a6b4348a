// Package mutation is the only write path into the record store.
//
// Every operation validates against the current snapshot, commits through
// store.Commit and pushes exactly one notice describing the outcome.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/akywe-ledger/akywe/internal/app/ledger"
	"github.com/akywe-ledger/akywe/internal/app/notify"
	"github.com/akywe-ledger/akywe/internal/app/store"
	"github.com/akywe-ledger/akywe/internal/domain"
	"github.com/akywe-ledger/akywe/internal/infra/observability"
)

// Policy toggles checks the ledger skips by default.
type Policy struct {
	// StrictUpdates re-runs the create-time checks on updates: name
	// uniqueness for customers, non-negative balance for debts and payments.
	StrictUpdates bool
	// CascadeDelete removes a customer's debts and payments with the customer.
	CascadeDelete bool
}

// Service performs validated mutations.
type Service struct {
	store    *store.Store
	notices  *notify.Queue
	policy   Policy
	log      *slog.Logger
	now      func() time.Time
	currency string
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the update and delete policy.
func WithPolicy(p Policy) Option { return func(s *Service) { s.policy = p } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock sets the clock used for default dates.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithCurrency sets the currency label used in notices.
func WithCurrency(c string) Option { return func(s *Service) { s.currency = c } }

// New returns a service writing to st and reporting to q.
func New(st *store.Store, q *notify.Queue, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notices:  q,
		log:      slog.Default(),
		now:      time.Now,
		currency: "Ks",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ─── Customers ──────────────────────────────────────────────────────────────

// AddCustomer creates a customer. The name is trimmed and must be unique
// case-insensitively.
func (s *Service) AddCustomer(ctx context.Context, name, phone string) (domain.Customer, error) {
	name = strings.TrimSpace(name)
	var c domain.Customer
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		if name == "" {
			return domain.ErrInvalidName
		}
		if nameTaken(snap, name, "") {
			return fmt.Errorf("%q: %w", name, domain.ErrDuplicateName)
		}
		c = domain.Customer{ID: s.store.NewID(), Name: name, Phone: strings.TrimSpace(phone)}
		snap.Customers = append(snap.Customers, c)
		return nil
	})
	return c, s.finish("add_customer", fmt.Sprintf("Customer %s added", name), err)
}

// UpdateCustomer merges u into the customer with id.
func (s *Service) UpdateCustomer(ctx context.Context, id string, u domain.CustomerUpdate) (domain.Customer, error) {
	var c domain.Customer
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		i := snap.CustomerIndex(id)
		if i < 0 {
			return fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
		}
		next := u.Apply(snap.Customers[i])
		if s.policy.StrictUpdates {
			if next.Name == "" {
				return domain.ErrInvalidName
			}
			if nameTaken(snap, next.Name, id) {
				return fmt.Errorf("%q: %w", next.Name, domain.ErrDuplicateName)
			}
		}
		snap.Customers[i] = next
		c = next
		return nil
	})
	return c, s.finish("update_customer", "Customer updated", err)
}

// DeleteCustomer removes the customer with id. Their debts and payments
// stay unless the policy cascades.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		i := snap.CustomerIndex(id)
		if i < 0 {
			return fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
		}
		snap.Customers = append(snap.Customers[:i], snap.Customers[i+1:]...)
		if s.policy.CascadeDelete {
			snap.Debts = filter(snap.Debts, func(d domain.Debt) bool { return d.CustomerID != id })
			snap.Payments = filter(snap.Payments, func(p domain.Payment) bool { return p.CustomerID != id })
		}
		return nil
	})
	return s.finish("delete_customer", "Customer deleted", err)
}

// ─── Debts ──────────────────────────────────────────────────────────────────

// AddDebt records a debt. An empty date means today.
func (s *Service) AddDebt(ctx context.Context, customerID, item string, amount domain.Amount, date string) (domain.Debt, error) {
	var d domain.Debt
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		if !amount.Valid() {
			return domain.ErrInvalidAmount
		}
		day, err := s.dateOrToday(date)
		if err != nil {
			return err
		}
		d = domain.Debt{
			ID:         s.store.NewID(),
			CustomerID: customerID,
			Item:       strings.TrimSpace(item),
			Amount:     amount,
			Total:      amount,
			Date:       day,
		}
		snap.Debts = append(snap.Debts, d)
		return checkLimit(snap, customerID)
	})
	return d, s.finish("add_debt", fmt.Sprintf("Debt of %s recorded", s.money(amount)), err)
}

// UpdateDebt merges u into the debt with id. A new amount also becomes the total.
func (s *Service) UpdateDebt(ctx context.Context, id string, u domain.DebtUpdate) (domain.Debt, error) {
	var (
		d   domain.Debt
		bal domain.Amount
	)
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		i := snap.DebtIndex(id)
		if i < 0 {
			return fmt.Errorf("debt %s: %w", id, domain.ErrNotFound)
		}
		if u.Amount != nil && !u.Amount.Valid() {
			return domain.ErrInvalidAmount
		}
		if u.Date != nil && !domain.ValidDate(*u.Date) {
			return domain.ErrInvalidDate
		}
		next := u.Apply(snap.Debts[i])
		snap.Debts[i] = next
		if err := checkLimit(snap, next.CustomerID); err != nil {
			return err
		}
		bal = ledger.New(*snap).OutstandingBalance(next.CustomerID)
		if s.policy.StrictUpdates && bal < 0 {
			return &domain.BalanceError{CustomerID: next.CustomerID, Balance: bal, Amount: next.Total}
		}
		d = next
		return nil
	})
	return d, s.finishUpdate("update_debt", "Debt updated", bal, err)
}

// DeleteDebt removes the debt with id.
func (s *Service) DeleteDebt(ctx context.Context, id string) error {
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		i := snap.DebtIndex(id)
		if i < 0 {
			return fmt.Errorf("debt %s: %w", id, domain.ErrNotFound)
		}
		snap.Debts = append(snap.Debts[:i], snap.Debts[i+1:]...)
		return nil
	})
	return s.finish("delete_debt", "Debt deleted", err)
}

// ─── Payments ───────────────────────────────────────────────────────────────

// AddPayment records a payment against the customer's outstanding balance.
// The amount may equal the balance but never exceed it.
func (s *Service) AddPayment(ctx context.Context, customerID string, amount domain.Amount, date string) (domain.Payment, error) {
	var p domain.Payment
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		if !amount.Valid() {
			return domain.ErrInvalidAmount
		}
		bal := ledger.New(*snap).OutstandingBalance(customerID)
		if bal <= 0 {
			return domain.ErrNoOutstandingDebt
		}
		if amount > bal {
			return &domain.BalanceError{CustomerID: customerID, Balance: bal, Amount: amount}
		}
		day, err := s.dateOrToday(date)
		if err != nil {
			return err
		}
		p = domain.Payment{ID: s.store.NewID(), CustomerID: customerID, Amount: amount, Date: day}
		snap.Payments = append(snap.Payments, p)
		return nil
	})
	return p, s.finish("add_payment", fmt.Sprintf("Payment of %s recorded", s.money(amount)), err)
}

// UpdatePayment merges u into the payment with id.
func (s *Service) UpdatePayment(ctx context.Context, id string, u domain.PaymentUpdate) (domain.Payment, error) {
	var (
		p   domain.Payment
		bal domain.Amount
	)
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		i := snap.PaymentIndex(id)
		if i < 0 {
			return fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
		}
		if u.Amount != nil && !u.Amount.Valid() {
			return domain.ErrInvalidAmount
		}
		if u.Date != nil && !domain.ValidDate(*u.Date) {
			return domain.ErrInvalidDate
		}
		next := u.Apply(snap.Payments[i])
		snap.Payments[i] = next
		if err := checkLimit(snap, next.CustomerID); err != nil {
			return err
		}
		bal = ledger.New(*snap).OutstandingBalance(next.CustomerID)
		if s.policy.StrictUpdates && bal < 0 {
			return &domain.BalanceError{CustomerID: next.CustomerID, Balance: bal.Add(next.Amount), Amount: next.Amount}
		}
		p = next
		return nil
	})
	return p, s.finishUpdate("update_payment", "Payment updated", bal, err)
}

// DeletePayment removes the payment with id.
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	err := s.store.Commit(ctx, func(snap *domain.Snapshot) error {
		i := snap.PaymentIndex(id)
		if i < 0 {
			return fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
		}
		customerID := snap.Payments[i].CustomerID
		snap.Payments = append(snap.Payments[:i], snap.Payments[i+1:]...)
		return checkLimit(snap, customerID)
	})
	return s.finish("delete_payment", "Payment deleted", err)
}

// ─── Outcomes ───────────────────────────────────────────────────────────────

// rejections are caller mistakes; anything else is a failure of the service.
var rejections = []error{
	domain.ErrDuplicateName,
	domain.ErrInvalidName,
	domain.ErrInvalidAmount,
	domain.ErrInvalidDate,
	domain.ErrNoOutstandingDebt,
	domain.ErrAmountExceedsBalance,
	domain.ErrBalanceLimit,
	domain.ErrNotFound,
}

// IsRejection reports whether err is a validation or lookup failure rather
// than a storage failure.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// finish pushes the outcome notice, records the metric and logs.
func (s *Service) finish(op, success string, err error) error {
	return s.finishAs(op, notify.Success, success, err)
}

// finishUpdate warns when an accepted update leaves the customer owing
// less than nothing, which only the relaxed policy allows.
func (s *Service) finishUpdate(op, success string, bal domain.Amount, err error) error {
	if err == nil && bal < 0 {
		return s.finishAs(op, notify.Warning,
			fmt.Sprintf("%s, balance is now %s", success, s.money(bal)), nil)
	}
	return s.finish(op, success, err)
}

func (s *Service) finishAs(op string, sev notify.Severity, success string, err error) error {
	switch {
	case err == nil:
		observability.RecordMutation(op, observability.OutcomeOK)
		observability.OutstandingTotal.Set(float64(ledger.New(s.store.Snapshot()).PortfolioTotalOutstanding()))
		s.notices.Push(success, sev)
		s.log.Debug("mutation applied", "op", op)
	case IsRejection(err):
		observability.RecordMutation(op, observability.OutcomeRejected)
		s.notices.Error(s.Describe(err))
		s.log.Info("mutation rejected", "op", op, "reason", err)
	default:
		observability.RecordMutation(op, observability.OutcomeFailed)
		s.notices.Error("Could not save changes: " + err.Error())
		s.log.Error("mutation failed", "op", op, "error", err)
	}
	return err
}

// Describe renders err as a user-facing message.
func (s *Service) Describe(err error) string {
	var be *domain.BalanceError
	switch {
	case errors.As(err, &be) && be.Balance < 0:
		return fmt.Sprintf("Change would leave a negative balance of %s", s.money(be.Balance))
	case errors.As(err, &be):
		return fmt.Sprintf("Amount exceeds the outstanding balance of %s", s.money(be.Balance))
	case errors.Is(err, domain.ErrNoOutstandingDebt):
		return "This customer has no outstanding debt"
	case errors.Is(err, domain.ErrDuplicateName):
		return "A customer with this name already exists"
	default:
		return err.Error()
	}
}

func (s *Service) money(a domain.Amount) string {
	return humanize.Comma(int64(a)) + " " + s.currency
}

func (s *Service) dateOrToday(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return domain.DateOf(s.now()), nil
	}
	if !domain.ValidDate(date) {
		return "", domain.ErrInvalidDate
	}
	return date, nil
}

// checkLimit rejects a change that takes the customer's balance past
// MaxAmount.
func checkLimit(snap *domain.Snapshot, customerID string) error {
	if ledger.New(*snap).OutstandingBalance(customerID) > domain.MaxAmount {
		return domain.ErrBalanceLimit
	}
	return nil
}

func nameTaken(snap *domain.Snapshot, name, exceptID string) bool {
	for _, c := range snap.Customers {
		if c.ID != exceptID && strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return true
		}
	}
	return false
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
