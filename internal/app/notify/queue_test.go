package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush_InsertionOrder(t *testing.T) {
	q := New(time.Minute)
	defer q.Close()

	a := q.Success("customer added")
	b := q.Error("amount exceeds outstanding balance")
	c := q.Push("heads up", Warning)

	got := q.List()
	require.Len(t, got, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, Success, got[0].Severity)
	assert.Equal(t, Error, got[1].Severity)
	assert.Equal(t, Warning, got[2].Severity)
	assert.Less(t, a.ID, b.ID)
}

func TestNotice_Expires(t *testing.T) {
	q := New(20 * time.Millisecond)
	defer q.Close()

	q.Success("saved")
	require.Equal(t, 1, q.Len())

	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDismiss_Idempotent(t *testing.T) {
	q := New(time.Minute)
	defer q.Close()

	n := q.Success("saved")
	keep := q.Error("other")

	q.Dismiss(n.ID)
	q.Dismiss(n.ID)
	q.Dismiss(9999)

	got := q.List()
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func TestDismiss_RacesWithExpiry(t *testing.T) {
	q := New(time.Millisecond)
	defer q.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		n := q.Success("x")
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Dismiss(n.ID)
		}()
	}
	wg.Wait()
	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestNew_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(0).TTL())
	assert.Equal(t, 3*time.Second, DefaultTTL)
}

func TestSubscribe(t *testing.T) {
	q := New(time.Minute)
	defer q.Close()

	ch, cancel := q.Subscribe()
	q.Success("one")

	select {
	case n := <-ch:
		assert.Equal(t, "one", n.Message)
	case <-time.After(time.Second):
		t.Fatal("no notice delivered")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Pushing after cancel must not panic on the closed channel.
	q.Success("two")
}
