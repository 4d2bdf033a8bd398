package sim

import (
	"fmt"
	"sync"

	"t32hal-go/drivers/t32uart"
)

const memBase = 0x2000_0000

type region struct {
	addr uint32
	buf  []byte
}

// Memory hands out fake bus addresses for buffers and resolves them back
// for the DMA engines.
type Memory struct {
	mu      sync.Mutex
	next    uint32
	regions []region
}

func NewMemory() *Memory { return &Memory{next: memBase} }

// Addr implements t32uart.AddressSpace.
func (m *Memory) Addr(buf []byte) uint32 {
	if len(buf) == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.regions {
		if &r.buf[0] == &buf[0] {
			if len(buf) > len(r.buf) {
				m.regions[i].buf = buf
			}
			return r.addr
		}
	}
	addr := m.next
	m.next += (uint32(len(buf))+0xFF)&^0xFF + 0x100
	m.regions = append(m.regions, region{addr: addr, buf: buf})
	return addr
}

func (m *Memory) slice(addr, n uint32) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regions {
		if addr < r.addr || addr >= r.addr+uint32(len(r.buf)) {
			continue
		}
		off := addr - r.addr
		end := min(off+n, uint32(len(r.buf)))
		return r.buf[off:end]
	}
	return nil
}

// Pins records pad assignments.
type Pins struct {
	mu    sync.Mutex
	modes map[t32uart.Pin]t32uart.PinFunction
	fail  map[t32uart.Pin]error
	calls int
}

func NewPins() *Pins {
	return &Pins{
		modes: map[t32uart.Pin]t32uart.PinFunction{},
		fail:  map[t32uart.Pin]error{},
	}
}

func (p *Pins) SetPinMode(pin t32uart.Pin, fn t32uart.PinFunction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.fail[pin]; err != nil {
		return err
	}
	p.modes[pin] = fn
	return nil
}

// Mode returns the function assigned to pin and whether it was ever set.
func (p *Pins) Mode(pin t32uart.Pin) (t32uart.PinFunction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn, ok := p.modes[pin]
	return fn, ok
}

// FailPin makes SetPinMode on pin return err.
func (p *Pins) FailPin(pin t32uart.Pin, err error) {
	p.mu.Lock()
	p.fail[pin] = err
	p.mu.Unlock()
}

// Calls returns the number of SetPinMode calls.
func (p *Pins) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Clocks records clock gating and mux selections.
type Clocks struct {
	mu       sync.Mutex
	enabled  [t32uart.MaxInstances]bool
	mux      [t32uart.MaxInstances]uint8
	sleep    map[t32uart.ClockSource]bool
	sleepErr error
}

func NewClocks() *Clocks { return &Clocks{sleep: map[t32uart.ClockSource]bool{}} }

func (c *Clocks) EnableClock(id t32uart.ID) {
	c.mu.Lock()
	c.enabled[id] = true
	c.mu.Unlock()
}

func (c *Clocks) DisableClock(id t32uart.ID) {
	c.mu.Lock()
	c.enabled[id] = false
	c.mu.Unlock()
}

func (c *Clocks) SelectSource(id t32uart.ID, mux uint8) {
	c.mu.Lock()
	c.mux[id] = mux
	c.mu.Unlock()
}

func (c *Clocks) EnableSleepClock(src t32uart.ClockSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sleepErr != nil {
		return c.sleepErr
	}
	c.sleep[src] = true
	return nil
}

// Enabled reports whether id's clock is running.
func (c *Clocks) Enabled(id t32uart.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled[id]
}

// Mux returns the last source selection for id.
func (c *Clocks) Mux(id t32uart.ID) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mux[id]
}

// SleepEnabled reports whether src was kept running for sleep.
func (c *Clocks) SleepEnabled(src t32uart.ClockSource) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleep[src]
}

// FailSleep makes EnableSleepClock return err.
func (c *Clocks) FailSleep(err error) {
	c.mu.Lock()
	c.sleepErr = err
	c.mu.Unlock()
}

// IRQ models a nested interrupt controller: a raised line is taken at once
// when enabled and idle, otherwise it pends until Enable or the running
// handler returns.
type IRQ struct {
	mu       sync.Mutex
	enabled  [t32uart.MaxInstances]bool
	pending  [t32uart.MaxInstances]bool
	active   [t32uart.MaxInstances]bool
	prio     [t32uart.MaxInstances]uint8
	cleared  [t32uart.MaxInstances]int
	handlers [t32uart.MaxInstances]func()
}

func NewIRQ() *IRQ { return &IRQ{} }

func (q *IRQ) ClearPending(id t32uart.ID) {
	q.mu.Lock()
	q.pending[id] = false
	q.cleared[id]++
	q.mu.Unlock()
}

func (q *IRQ) Enable(id t32uart.ID) {
	q.mu.Lock()
	q.enabled[id] = true
	q.mu.Unlock()
	q.dispatch(id)
}

func (q *IRQ) Disable(id t32uart.ID) {
	q.mu.Lock()
	q.enabled[id] = false
	q.mu.Unlock()
}

// SetPending marks id pending without taking it; it runs on the next
// Enable.
func (q *IRQ) SetPending(id t32uart.ID) {
	q.mu.Lock()
	q.pending[id] = true
	q.mu.Unlock()
}

func (q *IRQ) SetPriority(id t32uart.ID, prio uint8) {
	q.mu.Lock()
	q.prio[id] = prio
	q.mu.Unlock()
}

// Handle installs the vector for id.
func (q *IRQ) Handle(id t32uart.ID, fn func()) {
	q.mu.Lock()
	q.handlers[id] = fn
	q.mu.Unlock()
}

// Raise asserts the line of id.
func (q *IRQ) Raise(id t32uart.ID) {
	q.mu.Lock()
	q.pending[id] = true
	q.mu.Unlock()
	q.dispatch(id)
}

func (q *IRQ) dispatch(id t32uart.ID) {
	q.mu.Lock()
	for q.pending[id] && q.enabled[id] && !q.active[id] && q.handlers[id] != nil {
		q.pending[id] = false
		q.active[id] = true
		h := q.handlers[id]
		q.mu.Unlock()
		h()
		q.mu.Lock()
		q.active[id] = false
	}
	q.mu.Unlock()
}

// Enabled reports whether id is unmasked.
func (q *IRQ) Enabled(id t32uart.ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled[id]
}

// Priority returns the priority last set for id.
func (q *IRQ) Priority(id t32uart.ID) uint8 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.prio[id]
}

// Cleared returns how many times the pending state of id was cleared.
func (q *IRQ) Cleared(id t32uart.ID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cleared[id]
}

// Board is a simulated chip: one UART block per instance and the shared
// collaborators.
type Board struct {
	Variant *t32uart.Variant
	UART    []*UART
	Mem     *Memory
	Pins    *Pins
	Clocks  *Clocks
	IRQ     *IRQ
}

// NewBoard builds a board for v.
func NewBoard(v *t32uart.Variant) *Board {
	b := &Board{
		Variant: v,
		Mem:     NewMemory(),
		Pins:    NewPins(),
		Clocks:  NewClocks(),
		IRQ:     NewIRQ(),
	}
	for i := 0; i < v.Instances; i++ {
		b.UART = append(b.UART, NewUART(v.Family, b.Mem))
	}
	return b
}

// Platform returns the driver collaborators backed by this board.
func (b *Board) Platform() t32uart.Platform {
	regs := make([]t32uart.Registers, len(b.UART))
	for i, u := range b.UART {
		regs[i] = u
	}
	return t32uart.Platform{Regs: regs, Pins: b.Pins, Clocks: b.Clocks, IRQ: b.IRQ, Mem: b.Mem}
}

// maxReentry bounds how often one vector entry re-runs the handler while
// the line stays asserted. A condition nobody services stays pending
// instead of spinning.
const maxReentry = 4

// Wire routes every block's interrupt line through the controller to
// d.HandleInterrupt. The line is level-sensitive: the handler is re-entered
// while the block still asserts, which matters on the T32CM11 where each
// entry reports only the highest-priority cause. Once wired, tests must not
// call HandleInterrupt directly.
func (b *Board) Wire(d *t32uart.Driver) {
	for i, u := range b.UART {
		id := t32uart.ID(i)
		b.IRQ.Handle(id, func() {
			for n := 0; n < maxReentry && b.IRQ.Enabled(id) && u.Asserted(); n++ {
				d.HandleInterrupt(id)
			}
		})
		u.OnAssert(func() { b.IRQ.Raise(id) })
	}
}

func (b *Board) String() string {
	return fmt.Sprintf("sim.Board(%s, %d uarts)", b.Variant.Name, len(b.UART))
}
