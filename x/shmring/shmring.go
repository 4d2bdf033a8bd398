// Package shmring provides a lock-free single-producer, single-consumer byte
// ring. The producer may run in interrupt context: no producer method blocks
// or allocates.
package shmring

import "sync/atomic"

// Ring is a single-producer, single-consumer byte ring.
// Indices are monotonic; the buffer size is a power of two.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index
	wr   atomic.Uint32 // producer index

	readable chan struct{} // coalesced: data published
}

// New allocates a ring of size bytes. size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Available returns readable bytes from the consumer's point of view.
func (r *Ring) Available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// ---- Producer side ----

// TryPut appends one byte. It reports false when the ring is full.
func (r *Ring) TryPut(b byte) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr-rd == r.size() {
		return false
	}
	r.buf[wr&r.mask] = b
	r.wr.Store(wr + 1) // publish
	r.signal(r.readable)
	return true
}

// TryWriteFrom copies as much of src as fits and returns the count.
func (r *Ring) TryWriteFrom(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	n := int(r.size() - (wr - rd))
	if n <= 0 {
		return 0
	}
	if len(src) < n {
		n = len(src)
	}

	idx := wr & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(r.buf[idx:idx+uint32(first)], src[:first])
	if rest := n - first; rest > 0 {
		copy(r.buf[:rest], src[first:n])
	}
	r.wr.Store(wr + uint32(n)) // publish
	r.signal(r.readable)
	return n
}

// ---- Consumer side ----

// TryReadInto copies up to len(dst) queued bytes and returns the count.
func (r *Ring) TryReadInto(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	avail := int(wr - rd)
	if avail <= 0 {
		return 0
	}
	n := avail
	if len(dst) < n {
		n = len(dst)
	}

	idx := rd & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[idx:idx+uint32(first)])
	if rest := n - first; rest > 0 {
		copy(dst[first:n], r.buf[:rest])
	}
	r.rd.Store(rd + uint32(n)) // release
	return n
}

// Readable is signalled after every publish. Tokens coalesce, so a waiter
// must re-check Available after waking.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

func (r *Ring) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
