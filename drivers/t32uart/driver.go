// Package t32uart drives the UART blocks of the T32CM11 and T32CZ20
// microcontroller families.
//
// One Driver owns every instance of a chip. Operations called from the main
// context mask the instance's interrupt line and take a per-instance lock,
// so they never interleave with HandleInterrupt for the same instance.
// Received bytes destined for a callback are queued from the interrupt path
// and delivered on a goroutine, in order.
package t32uart

import (
	"context"
	"sync"
	"sync/atomic"

	"t32hal-go/errcode"
)

// State is the lifecycle state of one instance.
type State uint8

const (
	Uninitialized State = iota
	Powered
	PoweredOff
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Powered:
		return "powered"
	case PoweredOff:
		return "powered-off"
	}
	return "invalid"
}

type instance struct {
	mu    sync.Mutex
	state State
	cfg   Config

	// irqOn is the desired controller mask state; exit applies it.
	irqOn atomic.Bool

	// depth counts main-context callers between enter and exit. The line
	// is unmasked only when it drops to zero.
	maskMu sync.Mutex
	depth  int

	rx       *rxQueue // non-nil when RxCallback is set
	rxCursor int      // next undelivered index of cfg.RxDMABuffer
	txDMA    []byte   // buffer lent to the transmit DMA engine

	stats counters
}

// Driver owns all UART instances of one chip.
type Driver struct {
	v    *Variant
	p    Platform
	inst [MaxInstances]instance
}

// New returns a Driver for variant v on platform p. p.Regs must hold one
// entry per instance.
func New(v *Variant, p Platform) *Driver {
	if len(p.Regs) < v.Instances {
		panic("t32uart: platform has fewer register blocks than instances")
	}
	return &Driver{v: v, p: p}
}

// Variant returns the chip variant the driver was built for.
func (d *Driver) Variant() *Variant { return d.v }

// State returns the lifecycle state of id.
func (d *Driver) State(id ID) State {
	if !d.v.validID(id) {
		return Uninitialized
	}
	in, _ := d.enter(id)
	defer d.exit(id, in)
	return in.state
}

// Config returns a copy of the configuration id was initialised with.
func (d *Driver) Config(id ID) (Config, error) {
	in, err := d.enter(id)
	if err != nil {
		return Config{}, err
	}
	defer d.exit(id, in)
	if in.state == Uninitialized {
		return Config{}, errcode.NotInitialized
	}
	return in.cfg, nil
}

// Validate checks cfg for id on this driver's variant.
func (d *Driver) Validate(id ID, cfg *Config) error { return d.v.Validate(id, cfg) }

// CheckPinsValid reports whether (tx, rx) is a legal pad pair for id.
func (d *Driver) CheckPinsValid(id ID, tx, rx Pin) bool { return d.v.CheckPinsValid(id, tx, rx) }

// enter masks the interrupt line of id and takes the instance lock. Every
// enter must be paired with exit.
func (d *Driver) enter(id ID) (*instance, error) {
	if !d.v.validID(id) {
		return nil, errcode.InvalidID
	}
	in := &d.inst[id]
	in.maskMu.Lock()
	in.depth++
	d.p.IRQ.Disable(id)
	in.maskMu.Unlock()
	in.mu.Lock()
	return in, nil
}

// exit releases the instance lock. The last caller out restores the
// interrupt line to the state recorded in irqOn.
func (d *Driver) exit(id ID, in *instance) {
	in.mu.Unlock()
	in.maskMu.Lock()
	in.depth--
	in.maskMu.Unlock()
	d.unmask(id, in)
}

// unmask enables the line of id if no main-context caller is inside and
// interrupts are configured on.
func (d *Driver) unmask(id ID, in *instance) {
	in.maskMu.Lock()
	on := in.depth == 0 && in.irqOn.Load()
	in.maskMu.Unlock()
	if on {
		d.p.IRQ.Enable(id)
	}
}

// SyncRx blocks until every byte received on id before the call has been
// handed to the receive callback. It returns immediately without one.
func (d *Driver) SyncRx(ctx context.Context, id ID) error {
	in, err := d.enter(id)
	if err != nil {
		return err
	}
	q := in.rx
	d.exit(id, in)
	if q == nil {
		return nil
	}
	return q.sync(ctx)
}
