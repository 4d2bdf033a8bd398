package t32uart_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"t32hal-go/drivers/t32uart"
	"t32hal-go/drivers/t32uart/sim"
)

var variants = []*t32uart.Variant{t32uart.T32CM11, t32uart.T32CZ20}

type recorder struct {
	mu     sync.Mutex
	events []t32uart.Event
	bytes  []byte
}

func (r *recorder) event(ev t32uart.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) rx(b byte) {
	r.mu.Lock()
	r.bytes = append(r.bytes, b)
	r.mu.Unlock()
}

func (r *recorder) Events() []t32uart.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]t32uart.Event(nil), r.events...)
}

func (r *recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.bytes...)
}

func pinsFor(id t32uart.ID) (tx, rx t32uart.Pin) {
	switch id {
	case t32uart.UART1:
		return 28, 29
	case t32uart.UART2:
		return 30, 31
	}
	return 17, 16
}

func baseConfig(id t32uart.ID) t32uart.Config {
	cfg := t32uart.DefaultConfig(pinsFor(id))
	cfg.EnableInterrupts = true
	return cfg
}

// setup initialises instance id on a fresh simulated board and clears the
// register log so tests see only their own traffic.
func setup(t *testing.T, v *t32uart.Variant, id t32uart.ID, mut func(*t32uart.Config)) (*t32uart.Driver, *sim.Board, *recorder) {
	t.Helper()
	b := sim.NewBoard(v)
	d := t32uart.New(v, b.Platform())
	rec := &recorder{}
	cfg := baseConfig(id)
	cfg.EventHandler = rec.event
	if mut != nil {
		mut(&cfg)
	}
	if err := d.Init(id, &cfg); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = d.Uninit(id) })
	b.UART[id].ClearLog()
	return d, b, rec
}

func syncRx(t *testing.T, d *t32uart.Driver, id t32uart.ID) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.SyncRx(ctx, id); err != nil {
		t.Fatalf("sync rx: %v", err)
	}
}

func seq(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 7) // includes zero bytes
	}
	return p
}
