package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// ─── Mutation Metrics ───────────────────────────────────────────────────────

func TestRecordMutation(t *testing.T) {
	c := MutationsTotal.WithLabelValues("add_debt", OutcomeOK)
	before := testutil.ToFloat64(c)

	RecordMutation("add_debt", OutcomeOK)
	RecordMutation("add_debt", OutcomeOK)

	if got := testutil.ToFloat64(c) - before; got != 2 {
		t.Errorf("add_debt/ok delta = %v, want 2", got)
	}
}

func TestRecordMutation_SeparatesOutcomes(t *testing.T) {
	ok := MutationsTotal.WithLabelValues("add_payment", OutcomeOK)
	rej := MutationsTotal.WithLabelValues("add_payment", OutcomeRejected)
	okBefore, rejBefore := testutil.ToFloat64(ok), testutil.ToFloat64(rej)

	RecordMutation("add_payment", OutcomeRejected)

	if testutil.ToFloat64(ok) != okBefore {
		t.Error("ok counter moved on a rejection")
	}
	if testutil.ToFloat64(rej)-rejBefore != 1 {
		t.Error("rejected counter did not move")
	}
}

// ─── Store Metrics ──────────────────────────────────────────────────────────

func TestObservePersist_CountsFailures(t *testing.T) {
	before := testutil.ToFloat64(PersistFailures)

	ObservePersist(time.Now(), nil)
	ObservePersist(time.Now(), errors.New("disk full"))

	if got := testutil.ToFloat64(PersistFailures) - before; got != 1 {
		t.Errorf("PersistFailures delta = %v, want 1", got)
	}
}

func TestGauges_Settable(t *testing.T) {
	Records.WithLabelValues("customers").Set(3)
	OutstandingTotal.Set(5000)
	NoticesActive.Set(1)

	if got := testutil.ToFloat64(Records.WithLabelValues("customers")); got != 3 {
		t.Errorf("Records{customers} = %v, want 3", got)
	}
	if got := testutil.ToFloat64(OutstandingTotal); got != 5000 {
		t.Errorf("OutstandingTotal = %v, want 5000", got)
	}
}
