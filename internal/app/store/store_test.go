package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akywe-ledger/akywe/internal/domain"
	"github.com/akywe-ledger/akywe/internal/infra/memkv"
	"github.com/akywe-ledger/akywe/internal/infra/sqlite"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Customers: []domain.Customer{
			{ID: "c1", Name: "Mya", Phone: "09-111"},
			{ID: "c2", Name: "Aye"},
		},
		Debts: []domain.Debt{
			{ID: "d1", CustomerID: "c1", Item: "bread", Amount: 5000, Total: 5000, Date: "2024-01-01"},
			{ID: "d2", CustomerID: "c2", Item: "cake", Amount: 1200, Total: 1200, Date: "2024-01-03"},
		},
		Payments: []domain.Payment{
			{ID: "p1", CustomerID: "c1", Amount: 2000, Date: "2024-01-02"},
		},
	}
}

func TestOpen_EmptyMedium(t *testing.T) {
	s, err := Open(context.Background(), memkv.New())
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Empty(t, snap.Customers)
	assert.Empty(t, snap.Debts)
	assert.Empty(t, snap.Payments)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	s, err := Open(ctx, kv)
	require.NoError(t, err)

	want := sampleSnapshot()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveLoad_RoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.Open(dir)
	require.NoError(t, err)
	s, err := Open(ctx, db)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, func(snap *domain.Snapshot) error {
		*snap = sampleSnapshot()
		return nil
	}))
	require.NoError(t, s.Close())

	db, err = sqlite.Open(dir)
	require.NoError(t, err)
	s, err = Open(ctx, db)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, sampleSnapshot(), s.Snapshot())
}

func TestLastSaved(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, memkv.New())
	require.NoError(t, err)
	_, ok := mem.LastSaved(ctx)
	assert.False(t, ok, "memory medium keeps no timestamps")

	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	s, err := Open(ctx, db)
	require.NoError(t, err)
	defer s.Close()

	_, ok = s.LastSaved(ctx)
	assert.False(t, ok, "nothing saved yet")

	require.NoError(t, s.Commit(ctx, func(snap *domain.Snapshot) error {
		*snap = sampleSnapshot()
		return nil
	}))
	saved, ok := s.LastSaved(ctx)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), saved, time.Minute)
}

func TestLoad_CorruptCollectionIsolated(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	s, err := Open(ctx, kv)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	require.NoError(t, kv.Put(ctx, KeyDebts, []byte(`[{"id":"d1",`)))

	snap, err := s.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistenceRead))

	issues := ReadErrors(err)
	require.Len(t, issues, 1)
	assert.Equal(t, KeyDebts, issues[0].Collection)

	assert.Empty(t, snap.Debts)
	assert.Len(t, snap.Customers, 2)
	assert.Len(t, snap.Payments, 1)
}

func TestOpen_ToleratesCorruption(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	require.NoError(t, kv.Put(ctx, KeyCustomers, []byte(`not json`)))
	require.NoError(t, kv.Put(ctx, KeyPayments, []byte(`[{"id":"p1","customerId":"c1","amount":"300","date":"2024-01-01"}]`)))

	s, err := Open(ctx, kv)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Empty(t, snap.Customers)
	require.Len(t, snap.Payments, 1)
	assert.Equal(t, domain.Amount(300), snap.Payments[0].Amount)
}

func TestLoad_NullCollection(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	require.NoError(t, kv.Put(ctx, KeyCustomers, []byte(`null`)))

	s, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.NotNil(t, s.Snapshot().Customers)
	assert.Empty(t, s.Snapshot().Customers)
}

func TestSave_EmptyCollectionsWriteArrays(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	s, err := Open(ctx, kv)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, domain.Snapshot{}))
	raw, err := kv.Get(ctx, KeyDebts)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestCommit_FnErrorLeavesState(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, memkv.New())
	require.NoError(t, err)

	boom := errors.New("validation failed")
	err = s.Commit(ctx, func(snap *domain.Snapshot) error {
		snap.Customers = append(snap.Customers, domain.Customer{ID: "x", Name: "X"})
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Snapshot().Customers)
}

func TestCommit_PersistFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	s, err := Open(ctx, kv)
	require.NoError(t, err)

	kv.FailPut = errors.New("disk full")
	err = s.Commit(ctx, func(snap *domain.Snapshot) error {
		snap.Customers = append(snap.Customers, domain.Customer{ID: "x", Name: "X"})
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrPersistenceWrite)
	assert.Empty(t, s.Snapshot().Customers)
}

func TestSnapshot_IsCopy(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, memkv.New())
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, func(snap *domain.Snapshot) error {
		*snap = sampleSnapshot()
		return nil
	}))

	snap := s.Snapshot()
	snap.Customers[0].Name = "changed"
	assert.Equal(t, "Mya", s.Snapshot().Customers[0].Name)
}

func TestNewID_Unique(t *testing.T) {
	s, err := Open(context.Background(), memkv.New())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := s.NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	s, err := Open(context.Background(), memkv.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
