package t32uart

import (
	"context"
	"sync/atomic"

	"tinygo.org/x/drivers"

	"t32hal-go/errcode"
	"t32hal-go/x/shmring"
)

var _ drivers.UART = (*Port)(nil)

// Port presents one instance as a byte stream. Received bytes land in a
// ring filled by the receive callback; writes use raw or DMA transmit
// depending on the instance configuration.
type Port struct {
	d  *Driver
	id ID

	rx      *shmring.Ring
	dropped atomic.Uint32
	txDone  chan Event
}

// NewPort returns a port for instance id with an rxSize-byte receive ring
// (rounded up to a power of two). Attach must be applied to the instance
// configuration before Init.
func NewPort(d *Driver, id ID, rxSize int) *Port {
	return &Port{
		d:      d,
		id:     id,
		rx:     shmring.New(rxQueueSize(rxSize)),
		txDone: make(chan Event, 1),
	}
}

// ID returns the instance the port is bound to.
func (p *Port) ID() ID { return p.id }

// Attach installs the port's receive callback into cfg and wraps the event
// handler so the end of a DMA transmit reaches the port. A handler already
// in cfg keeps receiving every event.
func (p *Port) Attach(cfg *Config) {
	next := cfg.EventHandler
	cfg.RxCallback = p.onByte
	cfg.EventHandler = func(ev Event) {
		if tx := ev & (EventDMATxComplete | EventDMATxAborted); tx != 0 {
			select {
			case p.txDone <- tx:
			default:
			}
		}
		if next != nil {
			next(ev)
		}
	}
}

func (p *Port) onByte(b byte) {
	if !p.rx.TryPut(b) {
		p.dropped.Add(1)
	}
}

// Dropped returns the number of bytes lost to a full receive ring.
func (p *Port) Dropped() uint32 { return p.dropped.Load() }

// Buffered returns the number of received bytes waiting to be read.
func (p *Port) Buffered() int { return p.rx.Available() }

// Read copies buffered bytes into b without blocking.
func (p *Port) Read(b []byte) (int, error) { return p.rx.TryReadInto(b), nil }

// Readable is signalled whenever bytes are added to the receive ring.
func (p *Port) Readable() <-chan struct{} { return p.rx.Readable() }

// RecvSomeContext blocks until at least one byte is available or ctx ends.
func (p *Port) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	for {
		if n := p.rx.TryReadInto(b); n > 0 {
			return n, nil
		}
		select {
		case <-p.rx.Readable():
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// WriteByte transmits c.
func (p *Port) WriteByte(c byte) error {
	_, err := p.Write([]byte{c})
	return err
}

// Write transmits b. With DMA transmit it waits for the completion
// interrupt, which requires EnableInterrupts.
func (p *Port) Write(b []byte) (int, error) {
	return p.WriteContext(context.Background(), b)
}

// WriteContext is Write with cancellation of the DMA completion wait. The
// transfer itself cannot be aborted. A deadline reports errcode.Timeout;
// powering the instance off mid-transfer reports errcode.NotPowered.
func (p *Port) WriteContext(ctx context.Context, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	cfg, err := p.d.Config(p.id)
	if err != nil {
		return 0, err
	}
	if !cfg.TxDMA {
		if err := p.d.RawTxBuffer(p.id, b); err != nil {
			return 0, err
		}
		return len(b), nil
	}

	select {
	case <-p.txDone:
	default:
	}
	if err := p.d.DMATxBytesInBuffer(p.id, b); err != nil {
		return 0, err
	}
	select {
	case ev := <-p.txDone:
		if ev&EventDMATxComplete == 0 {
			return 0, errcode.Wrap(errcode.NotPowered, "write", nil)
		}
		return len(b), nil
	case <-ctx.Done():
		if err := ctx.Err(); err == context.DeadlineExceeded {
			return 0, errcode.Wrap(errcode.Timeout, "write", err)
		}
		return 0, ctx.Err()
	}
}
