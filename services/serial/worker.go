package serial

import (
	"context"
	"errors"
	"sync"
	"time"

	"t32hal-go/x/mathx"
	"t32hal-go/x/util"
)

const (
	dirRX = "rx"
	dirTX = "tx"

	minFrame     = 16
	maxFrame     = 256
	maxIdleFlush = 2 * time.Second
	recvBound    = 250 * time.Millisecond
)

var errNoPort = errors.New("serial: nil port")

// Event is one framed chunk of traffic. Data is borrowed from a pool; call
// Release once done with it.
type Event struct {
	DevID string
	Dir   string // "rx" | "tx"
	Data  []byte
	TS    time.Time

	pool *sync.Pool
}

// Release returns the event and its buffer to the worker pool. The event
// must not be used afterwards.
func (e *Event) Release() {
	if e == nil || e.pool == nil {
		return
	}
	p := e.pool
	e.Data = e.Data[:0]
	e.DevID, e.Dir, e.TS = "", "", time.Time{}
	p.Put(e)
}

type ReaderCfg struct {
	DevID     string
	Port      Port
	Mode      Mode
	MaxFrame  int           // clamp 16..256
	IdleFlush time.Duration // clamp 0..2s (lines mode)
}

type Worker struct {
	outQ chan *Event

	mu     sync.Mutex
	frames map[string]int
	pools  map[int]*sync.Pool
}

func New(outBuf int) *Worker {
	if outBuf <= 0 {
		outBuf = 64
	}
	return &Worker{
		outQ:   make(chan *Event, outBuf),
		frames: map[string]int{},
		pools:  map[int]*sync.Pool{},
	}
}

func (w *Worker) Events() <-chan *Event { return w.outQ }

func (w *Worker) pool(size int) *sync.Pool {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.pools[size]
	if !ok {
		p = &sync.Pool{}
		p.New = func() any { return &Event{Data: make([]byte, 0, size), pool: p} }
		w.pools[size] = p
	}
	return p
}

func (w *Worker) frameFor(devID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n, ok := w.frames[devID]; ok {
		return n
	}
	return maxFrame
}

// emit copies data into a pooled event and queues it, dropping when the
// consumer is slow.
func (w *Worker) emit(p *sync.Pool, devID, dir string, data []byte, now time.Time) bool {
	ev := p.Get().(*Event)
	ev.DevID, ev.Dir, ev.TS = devID, dir, now
	ev.Data = append(ev.Data[:0], data...)
	select {
	case w.outQ <- ev:
		return true
	default:
		ev.Release()
		return false
	}
}

// Register starts a bounded reader goroutine for a UART port. Returns cancel.
func (w *Worker) Register(ctx context.Context, cfg ReaderCfg) (func(), error) {
	if cfg.Port == nil {
		return nil, errNoPort
	}
	mode, ok := ParseMode(string(cfg.Mode))
	if !ok {
		return nil, errors.New("serial: unknown mode " + string(cfg.Mode))
	}
	max := mathx.Clamp(cfg.MaxFrame, minFrame, maxFrame)
	if cfg.MaxFrame <= 0 {
		max = maxFrame
	}
	idle := mathx.Clamp(cfg.IdleFlush, 0, maxIdleFlush)

	w.mu.Lock()
	w.frames[cfg.DevID] = max
	w.mu.Unlock()
	pool := w.pool(max)

	cctx, cancel := context.WithCancel(ctx)
	go w.read(cctx, cfg.DevID, cfg.Port, mode, max, idle, pool)
	return cancel, nil
}

func (w *Worker) read(ctx context.Context, devID string, port Port, mode Mode, max int, idle time.Duration, pool *sync.Pool) {
	buf := make([]byte, max)
	line := make([]byte, 0, max)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		util.DrainTimer(timer)
	}
	defer timer.Stop()

	flush := func(now time.Time) {
		if len(line) == 0 {
			return
		}
		w.emit(pool, devID, dirRX, line, now)
		line = line[:0]
	}

	for {
		// Arm idle flush only when needed.
		if mode == ModeLines && len(line) > 0 && idle > 0 {
			util.ResetTimer(timer, idle)
		} else {
			util.ResetTimer(timer, time.Hour)
		}
		select {
		case <-ctx.Done():
			return
		case <-port.Readable():
		case <-timer.C:
			flush(time.Now())
			continue
		}
		// Readable is edge-triggered; drain everything already buffered.
		for {
			rctx, rcancel := context.WithTimeout(ctx, recvBound)
			n, _ := port.RecvSomeContext(rctx, buf)
			rcancel()
			if n <= 0 {
				break
			}
			now := time.Now()
			if mode == ModeLines {
				for _, b := range buf[:n] {
					switch b {
					case '\n':
						flush(now)
					case '\r':
					default:
						if len(line) < max {
							line = append(line, b)
						}
					}
				}
			} else {
				w.emit(pool, devID, dirRX, buf[:n], now)
			}
			if port.Buffered() == 0 {
				break
			}
		}
	}
}

// EmitTX publishes a TX echo event, chunked to the device's frame size.
func (w *Worker) EmitTX(devID string, data []byte) {
	max := w.frameFor(devID)
	pool := w.pool(max)
	now := time.Now()
	for len(data) > 0 {
		n := min(len(data), max)
		if !w.emit(pool, devID, dirTX, data[:n], now) {
			return
		}
		data = data[n:]
	}
}
