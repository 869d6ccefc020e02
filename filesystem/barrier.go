package filesystem

import (
	"sync"

	"github.com/tobimo/brackets/metrics"
)

// WriteBarrier is acquired by handles around every self-initiated
// mutation. Implementations must allow nesting.
type WriteBarrier interface {
	BeginWrite()
	EndWrite()
}

// drainer is implemented by barriers that can report when the last write
// finished. The registry only defers change events behind barriers that
// implement it.
type drainer interface {
	Active() int
	OnDrain(fn func())
}

// Barrier is a counted write barrier. The zero value is ready to use.
type Barrier struct {
	mu      sync.Mutex
	count   int
	drain   []func()
	metrics *metrics.Collector
}

// NewBarrier returns a Barrier that reports its count to m. m may be nil.
func NewBarrier(m *metrics.Collector) *Barrier {
	return &Barrier{metrics: m}
}

// BeginWrite increments the in-flight count.
func (b *Barrier) BeginWrite() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count++
	b.metrics.SetWritesInFlight(b.count)
}

// EndWrite decrements the in-flight count. When it reaches zero every
// drain callback runs, outside the lock, in registration order.
// EndWrite panics if called without a matching BeginWrite.
func (b *Barrier) EndWrite() {
	b.mu.Lock()
	if b.count == 0 {
		b.mu.Unlock()
		panic("filesystem: EndWrite called without matching BeginWrite")
	}
	b.count--
	// The gauge is set under the lock so it never lags a later update.
	b.metrics.SetWritesInFlight(b.count)
	var callbacks []func()
	if b.count == 0 {
		callbacks = append(callbacks, b.drain...)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Active returns the number of writes in flight.
func (b *Barrier) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// OnDrain registers fn to run every time the count returns to zero.
func (b *Barrier) OnDrain(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drain = append(b.drain, fn)
}

var _ WriteBarrier = (*Barrier)(nil)
var _ drainer = (*Barrier)(nil)
