// Package store owns the authoritative customer, debt and payment
// collections and their durable persistence.
//
// The store keeps the current snapshot in memory and writes it through to
// a domain.KVStore after every commit. Readers get deep copies; writers go
// through Commit, which is serialised so at most one mutation runs at a time.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/akywe-ledger/akywe/internal/domain"
	"github.com/akywe-ledger/akywe/internal/infra/observability"
)

// Keys under which each collection is persisted.
const (
	KeyCustomers = "bakery_customers"
	KeyDebts     = "bakery_debts"
	KeyPayments  = "bakery_payments"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the record store.
type Store struct {
	mu   sync.RWMutex
	kv   domain.KVStore
	snap domain.Snapshot
	log  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open loads the snapshot from kv and returns a ready store.
// Unreadable collections start empty and are logged; they never fail Open.
func Open(ctx context.Context, kv domain.KVStore, opts ...Option) (*Store, error) {
	s := &Store{kv: kv, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrPersistenceRead) {
			return nil, err
		}
		for _, e := range ReadErrors(err) {
			s.log.Warn("collection unreadable, starting empty",
				"collection", e.Collection, "error", e.Err)
			observability.LoadIssues.WithLabelValues(e.Collection).Inc()
		}
	}

	s.snap = snap
	s.observe()
	s.log.Debug("store loaded",
		"customers", len(snap.Customers),
		"debts", len(snap.Debts),
		"payments", len(snap.Payments))
	return s, nil
}

// ─── Persistence ────────────────────────────────────────────────────────────

// Load reads all three collections from the medium.
//
// The returned snapshot is always usable. A missing key yields an empty
// collection silently; a malformed value or a read failure yields an empty
// collection and a *domain.CollectionReadError, joined into err. One bad
// collection never affects the other two.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	customers, errC := decode[domain.Customer](ctx, s.kv, KeyCustomers)
	debts, errD := decode[domain.Debt](ctx, s.kv, KeyDebts)
	payments, errP := decode[domain.Payment](ctx, s.kv, KeyPayments)

	snap := domain.Snapshot{Customers: customers, Debts: debts, Payments: payments}
	return snap, errors.Join(errC, errD, errP)
}

// Save writes all three collections. Media that support batched writes
// receive them in one atomic batch.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) (err error) {
	start := time.Now()
	defer func() { observability.ObservePersist(start, err) }()

	entries := make(map[string][]byte, 3)
	for key, v := range map[string]any{
		KeyCustomers: nonNil(snap.Customers),
		KeyDebts:     nonNil(snap.Debts),
		KeyPayments:  nonNil(snap.Payments),
	} {
		data, err := codec.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %w", domain.ErrPersistenceWrite, key, err)
		}
		entries[key] = data
	}

	if batch, ok := s.kv.(domain.BatchKVStore); ok {
		if err := batch.PutMany(ctx, entries); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrPersistenceWrite, err)
		}
		return nil
	}
	for _, key := range []string{KeyCustomers, KeyDebts, KeyPayments} {
		if err := s.kv.Put(ctx, key, entries[key]); err != nil {
			return fmt.Errorf("%w: put %s: %w", domain.ErrPersistenceWrite, key, err)
		}
	}
	return nil
}

// ─── Access ─────────────────────────────────────────────────────────────────

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Commit applies fn to a copy of the current snapshot and, if fn succeeds,
// persists the result and makes it current. If fn fails or the write
// fails, the current snapshot is left untouched.
func (s *Store) Commit(ctx context.Context, fn func(*domain.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.Save(ctx, next); err != nil {
		s.log.Error("persist snapshot", "error", err)
		return err
	}
	s.snap = next
	s.observe()
	return nil
}

// NewID returns an identifier that is unique across all collections.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// LastSaved returns the latest write time the medium recorded for any
// collection. The bool is false when the medium keeps no timestamps or
// nothing has been saved yet.
func (s *Store) LastSaved(ctx context.Context) (time.Time, bool) {
	stamped, ok := s.kv.(domain.StampedKVStore)
	if !ok {
		return time.Time{}, false
	}
	var last time.Time
	for _, key := range []string{KeyCustomers, KeyDebts, KeyPayments} {
		t, err := stamped.UpdatedAt(ctx, key)
		if err == nil && t.After(last) {
			last = t
		}
	}
	return last, !last.IsZero()
}

// Close closes the medium.
func (s *Store) Close() error {
	return s.kv.Close()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Store) observe() {
	observability.Records.WithLabelValues("customers").Set(float64(len(s.snap.Customers)))
	observability.Records.WithLabelValues("debts").Set(float64(len(s.snap.Debts)))
	observability.Records.WithLabelValues("payments").Set(float64(len(s.snap.Payments)))
}

func decode[T any](ctx context.Context, kv domain.KVStore, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return []T{}, &domain.CollectionReadError{Collection: key, Err: err}
	}

	var out []T
	if err := codec.Unmarshal(raw, &out); err != nil {
		return []T{}, &domain.CollectionReadError{Collection: key, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ReadErrors extracts the per-collection failures from a Load error.
func ReadErrors(err error) []*domain.CollectionReadError {
	var out []*domain.CollectionReadError
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return out
	}
	for _, e := range joined.Unwrap() {
		var c *domain.CollectionReadError
		if errors.As(e, &c) {
			out = append(out, c)
		}
	}
	return out
}
