// Package notify keeps short-lived notices about mutation outcomes.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akywe-ledger/akywe/internal/infra/observability"
)

// DefaultTTL is how long a notice stays queued before it expires.
const DefaultTTL = 3 * time.Second

// Severity classifies a notice.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Notice is one transient message.
type Notice struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
}

// Queue holds notices in insertion order until they expire or are
// dismissed. It is safe for concurrent use.
type Queue struct {
	ttl    time.Duration
	nextID atomic.Int64

	mu      sync.Mutex
	notices []Notice
	timers  map[int64]*time.Timer
	subs    map[chan Notice]struct{}
}

// New returns a queue whose notices expire after ttl.
// A non-positive ttl means DefaultTTL.
func New(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[int64]*time.Timer),
		subs:   make(map[chan Notice]struct{}),
	}
}

// TTL returns the expiry applied to new notices.
func (q *Queue) TTL() time.Duration { return q.ttl }

// Push appends a notice and schedules its removal.
func (q *Queue) Push(message string, sev Severity) Notice {
	n := Notice{
		ID:        q.nextID.Add(1),
		Message:   message,
		Severity:  sev,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.notices = append(q.notices, n)
	q.timers[n.ID] = time.AfterFunc(q.ttl, func() { q.Dismiss(n.ID) })
	observability.NoticesActive.Set(float64(len(q.notices)))
	for ch := range q.subs {
		select {
		case ch <- n:
		default:
			// slow subscriber; it misses this notice
		}
	}
	q.mu.Unlock()
	return n
}

// Success pushes a success notice.
func (q *Queue) Success(message string) Notice { return q.Push(message, Success) }

// Error pushes an error notice.
func (q *Queue) Error(message string) Notice { return q.Push(message, Error) }

// Dismiss removes the notice with id. Unknown or already expired ids are
// ignored.
func (q *Queue) Dismiss(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	for i, n := range q.notices {
		if n.ID == id {
			q.notices = append(q.notices[:i], q.notices[i+1:]...)
			break
		}
	}
	observability.NoticesActive.Set(float64(len(q.notices)))
}

// List returns the queued notices, oldest first.
func (q *Queue) List() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notice, len(q.notices))
	copy(out, q.notices)
	return out
}

// Len returns the number of queued notices.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notices)
}

// Subscribe returns a channel that receives every notice pushed after the
// call, and a function that ends the subscription and closes the channel.
func (q *Queue) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, 16)
	q.mu.Lock()
	q.subs[ch] = struct{}{}
	q.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.subs, ch)
			q.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Close stops all pending expiry timers and clears the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.notices = nil
	observability.NoticesActive.Set(0)
}
