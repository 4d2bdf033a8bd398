package t32uart

import (
	"context"
	"sync/atomic"
	"time"

	"t32hal-go/x/mathx"
	"t32hal-go/x/shmring"
)

// rxQueue moves received bytes out of the interrupt path. The interrupt
// handler is the only producer; a dedicated goroutine is the only consumer
// and invokes the callback in arrival order.
type rxQueue struct {
	ring *shmring.Ring
	fn   func(byte)

	pushed    atomic.Uint64
	delivered atomic.Uint64

	progress chan struct{} // coalesced: a batch was delivered
	stop     chan struct{}
	done     chan struct{}
}

func rxQueueSize(n int) int {
	if n <= 0 {
		n = DefaultRxQueueSize
	}
	n = mathx.Clamp(n, MinRxQueueSize, MaxRxQueueSize)
	return int(mathx.NextPow2(uint(n)))
}

func newRxQueue(size int, fn func(byte)) *rxQueue {
	return &rxQueue{
		ring:     shmring.New(rxQueueSize(size)),
		fn:       fn,
		progress: make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (q *rxQueue) start() { go q.run() }

// put enqueues b from the interrupt path. It never blocks.
func (q *rxQueue) put(b byte) bool {
	if !q.ring.TryPut(b) {
		return false
	}
	q.pushed.Add(1)
	return true
}

// putAll enqueues as much of p as fits and returns the count.
func (q *rxQueue) putAll(p []byte) int {
	n := q.ring.TryWriteFrom(p)
	q.pushed.Add(uint64(n))
	return n
}

func (q *rxQueue) run() {
	defer close(q.done)
	var buf [32]byte
	for {
		if q.deliver(buf[:]) > 0 {
			continue
		}
		select {
		case <-q.ring.Readable():
		case <-q.stop:
			for q.deliver(buf[:]) > 0 {
			}
			return
		}
	}
}

func (q *rxQueue) deliver(buf []byte) int {
	n := q.ring.TryReadInto(buf)
	if n == 0 {
		return 0
	}
	for _, b := range buf[:n] {
		q.fn(b)
	}
	q.delivered.Add(uint64(n))
	select {
	case q.progress <- struct{}{}:
	default:
	}
	return n
}

// sync blocks until every byte queued before the call has been delivered.
func (q *rxQueue) sync(ctx context.Context) error {
	target := q.pushed.Load()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for q.delivered.Load() < target {
		select {
		case <-q.progress:
		case <-tick.C:
		case <-q.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// close stops the consumer after delivering what is queued. It must not be
// called with the instance lock held: the callback may re-enter the driver.
func (q *rxQueue) close() {
	close(q.stop)
	<-q.done
}
