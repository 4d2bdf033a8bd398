package t32uart

import "sync/atomic"

// Stats is a snapshot of per-instance counters.
type Stats struct {
	Interrupts     uint32 // HandleInterrupt entries while initialised
	RxQueued       uint32 // bytes accepted by the deferred delivery queue
	RxDropped      uint32 // bytes lost to a full delivery queue
	DMARxBytes     uint32 // bytes drained from the receive DMA buffer
	TxBytes        uint32 // bytes written by raw transmit
	DMATxTransfers uint32 // completed DMA transmits
	LineErrors     uint32 // line-status interrupts
	Unexpected     uint32 // interrupts that matched no known cause
}

type counters struct {
	interrupts atomic.Uint32
	rxQueued   atomic.Uint32
	rxDropped  atomic.Uint32
	dmaRxBytes atomic.Uint32
	txBytes    atomic.Uint32
	dmaTx      atomic.Uint32
	lineErrors atomic.Uint32
	unexpected atomic.Uint32
}

func (c *counters) snapshot() Stats {
	return Stats{
		Interrupts:     c.interrupts.Load(),
		RxQueued:       c.rxQueued.Load(),
		RxDropped:      c.rxDropped.Load(),
		DMARxBytes:     c.dmaRxBytes.Load(),
		TxBytes:        c.txBytes.Load(),
		DMATxTransfers: c.dmaTx.Load(),
		LineErrors:     c.lineErrors.Load(),
		Unexpected:     c.unexpected.Load(),
	}
}

func (c *counters) reset() {
	c.interrupts.Store(0)
	c.rxQueued.Store(0)
	c.rxDropped.Store(0)
	c.dmaRxBytes.Store(0)
	c.txBytes.Store(0)
	c.dmaTx.Store(0)
	c.lineErrors.Store(0)
	c.unexpected.Store(0)
}

// Stats returns the counters of instance id. Invalid ids yield zeros.
func (d *Driver) Stats(id ID) Stats {
	if !d.v.validID(id) {
		return Stats{}
	}
	return d.inst[id].stats.snapshot()
}

// ResetStats zeroes the counters of instance id.
func (d *Driver) ResetStats(id ID) {
	if d.v.validID(id) {
		d.inst[id].stats.reset()
	}
}
