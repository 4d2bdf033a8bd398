// Command uart-sim runs the UART driver against the simulated chip: board
// config is loaded, every UART gets a Port and a serial reader, traffic is
// injected into the receivers, and the framed events and stats are printed.
package main

import (
	"context"
	"os"
	"time"

	"t32hal-go/drivers/t32uart"
	"t32hal-go/drivers/t32uart/sim"
	"t32hal-go/services/config"
	"t32hal-go/services/serial"
)

const (
	defaultBoard = "t32cz20-evk"
	portRing     = 256
	collectFor   = 300 * time.Millisecond
)

type line struct {
	name string
	id   t32uart.ID
	port *t32uart.Port
}

func main() {
	board := defaultBoard
	if len(os.Args) > 1 {
		board = os.Args[1]
	}
	println("[uart-sim] board", board)

	bc, err := config.Load(board)
	if err != nil {
		println("[uart-sim] FAIL:", err.Error())
		os.Exit(1)
	}
	v := bc.Chip()
	hw := sim.NewBoard(v)
	d := t32uart.New(v, hw.Platform())
	hw.Wire(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := serial.New(32)

	var lines []line
	for _, p := range bc.UARTs {
		cfg, err := p.Config(v)
		if err != nil {
			println("[uart-sim] skip", p.Name+":", err.Error())
			continue
		}
		name := p.Name
		cfg.EventHandler = func(ev t32uart.Event) {
			if ev&(t32uart.EventOverrunError|t32uart.EventParityError|t32uart.EventFramingError|t32uart.EventBreak|t32uart.EventUnexpected) != 0 {
				println("[uart-sim]", name, "event", ev.String())
			}
		}
		port := t32uart.NewPort(d, p.Instance(), portRing)
		port.Attach(&cfg)
		if err := d.Init(p.Instance(), &cfg); err != nil {
			println("[uart-sim] init", name+":", err.Error())
			continue
		}
		stop, err := w.Register(ctx, serial.ReaderCfg{
			DevID:     name,
			Port:      port,
			Mode:      serial.Mode(p.Mode),
			MaxFrame:  p.MaxFrame,
			IdleFlush: p.IdleFlush(),
		})
		if err != nil {
			println("[uart-sim] reader", name+":", err.Error())
			_ = d.Uninit(p.Instance())
			continue
		}
		defer stop()
		println("[uart-sim]", name, "on", p.Instance().String(), cfg.Baud.String(), "state", d.State(p.Instance()).String())
		lines = append(lines, line{name: name, id: p.Instance(), port: port})
	}

	for _, l := range lines {
		u := hw.UART[l.id]
		u.Feed([]byte("hello " + l.name + "\r\n")...)
		u.Feed(0x10, 0x20)
		u.InjectCharTimeout()
		u.InjectLineError(t32uart.LSRParity)

		msg := []byte("ack " + l.name + "\r\n")
		wctx, wcancel := context.WithTimeout(ctx, time.Second)
		if _, err := l.port.WriteContext(wctx, msg); err != nil {
			println("[uart-sim] write", l.name+":", err.Error())
		} else {
			w.EmitTX(l.name, msg)
		}
		wcancel()
	}

	deadline := time.After(collectFor)
collect:
	for {
		select {
		case ev := <-w.Events():
			println("[uart-sim]", ev.DevID, ev.Dir, len(ev.Data), "bytes", quote(ev.Data))
			ev.Release()
		case <-deadline:
			break collect
		}
	}

	for _, l := range lines {
		if v.SupportsPowerModes() {
			if err := d.SetPowerMode(l.id, t32uart.PowerModeLiteSleep); err != nil {
				println("[uart-sim] sleep", l.name+":", err.Error())
			} else {
				println("[uart-sim]", l.name, "lite sleep, mux", hw.Clocks.Mux(l.id))
				_ = d.SetPowerMode(l.id, t32uart.PowerModeWake)
			}
		}
		s := d.Stats(l.id)
		println("[uart-sim]", l.name, "irq", s.Interrupts, "rx", s.RxQueued, "dropped", s.RxDropped,
			"tx", s.TxBytes, "dma_tx", s.DMATxTransfers, "line_err", s.LineErrors)
		_ = d.Uninit(l.id)
	}
}

func quote(p []byte) string {
	const hex = "0123456789abcdef"
	out := make([]byte, 0, len(p)+2)
	out = append(out, '"')
	for _, b := range p {
		if b >= 0x20 && b < 0x7f && b != '"' {
			out = append(out, b)
			continue
		}
		out = append(out, '\\', 'x', hex[b>>4], hex[b&0xF])
	}
	return string(append(out, '"'))
}
