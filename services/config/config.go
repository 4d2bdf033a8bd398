// Package config resolves embedded board descriptions into driver
// configurations.
package config

import (
	"time"

	"t32hal-go/drivers/t32uart"
	"t32hal-go/errcode"
	"t32hal-go/x/util"
)

const op = "config"

const (
	NotFound Code = "config_not_found"
	Invalid  Code = "config_invalid"
)

// Code aliases errcode.Code so callers can match config failures without
// importing errcode.
type Code = errcode.Code

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// Boards lists the embedded board names.
func Boards() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	return out
}

// Board is one decoded board description.
type Board struct {
	Variant string       `json:"variant"`
	UARTs   []UARTParams `json:"uarts"`
}

// UARTParams is the JSON form of one UART instance. Zero values select
// 115200 8N1 with a one-byte trigger.
type UARTParams struct {
	Name string `json:"name"`
	ID   uint8  `json:"id"`
	TX   uint8  `json:"tx"`
	RX   uint8  `json:"rx"`
	RTS  *uint8 `json:"rts,omitempty"`
	CTS  *uint8 `json:"cts,omitempty"`

	Baud     uint32 `json:"baud,omitempty"`
	DataBits uint8  `json:"data_bits,omitempty"`
	StopBits uint8  `json:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
	Trigger  uint8  `json:"trigger,omitempty"`
	Clock    string `json:"clock,omitempty"`

	FlowControl     bool `json:"flow_control,omitempty"`
	Interrupts      bool `json:"interrupts,omitempty"`
	RxDMA           int  `json:"rx_dma,omitempty"` // buffer size in bytes; 0 disables
	TxDMA           bool `json:"tx_dma,omitempty"`
	WakeOnInterrupt bool `json:"wake_on_interrupt,omitempty"`

	RunWhenSleeping bool   `json:"run_when_sleeping,omitempty"`
	SleepClock      string `json:"sleep_clock,omitempty"`
	SleepBaud       uint32 `json:"sleep_baud,omitempty"`

	Priority uint8 `json:"priority,omitempty"`
	RxQueue  int   `json:"rx_queue,omitempty"`

	// Serial worker framing.
	Mode        string `json:"mode,omitempty"`
	MaxFrame    int    `json:"max_frame,omitempty"`
	IdleFlushMS int    `json:"idle_flush_ms,omitempty"`
}

// Lookup returns the raw JSON for board.
func Lookup(board string) ([]byte, bool) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// Load decodes the embedded description of board.
func Load(board string) (*Board, error) {
	raw, ok := Lookup(board)
	if !ok {
		return nil, &errcode.E{C: NotFound, Op: op, Msg: board}
	}
	var b Board
	if err := util.DecodeJSON(raw, &b); err != nil {
		return nil, &errcode.E{C: Invalid, Op: op, Msg: board, Err: err}
	}
	if _, ok := t32uart.VariantByName(b.Variant); !ok {
		return nil, &errcode.E{C: Invalid, Op: op, Msg: "unknown variant " + b.Variant}
	}
	return &b, nil
}

// Chip resolves the board's variant.
func (b *Board) Chip() *t32uart.Variant {
	v, _ := t32uart.VariantByName(b.Variant)
	return v
}

// UART returns the params named name.
func (b *Board) UART(name string) (UARTParams, bool) {
	for _, u := range b.UARTs {
		if u.Name == name {
			return u, true
		}
	}
	return UARTParams{}, false
}

// Instance returns the driver instance id.
func (p UARTParams) Instance() t32uart.ID { return t32uart.ID(p.ID) }

// IdleFlush returns the lines-mode idle flush interval.
func (p UARTParams) IdleFlush() time.Duration {
	return time.Duration(p.IdleFlushMS) * time.Millisecond
}

// Config converts p into a driver configuration and validates it against
// v. A receive DMA buffer is allocated when RxDMA is non-zero.
func (p UARTParams) Config(v *t32uart.Variant) (t32uart.Config, error) {
	cfg := t32uart.DefaultConfig(t32uart.Pin(p.TX), t32uart.Pin(p.RX))
	fail := func(c errcode.Code, what string) (t32uart.Config, error) {
		return t32uart.Config{}, &errcode.E{C: c, Op: op, Msg: p.Name + ": " + what}
	}

	if p.RTS != nil {
		cfg.RTS = t32uart.Pin(*p.RTS)
	}
	if p.CTS != nil {
		cfg.CTS = t32uart.Pin(*p.CTS)
	}
	if p.Baud != 0 {
		if cfg.Baud = t32uart.BaudRateFromValue(p.Baud); cfg.Baud == t32uart.BaudInvalid {
			return fail(errcode.InvalidBaudRate, "baud")
		}
	}
	if p.DataBits != 0 {
		if cfg.DataBits = t32uart.DataBitsFromValue(p.DataBits); cfg.DataBits == t32uart.DataBitsInvalid {
			return fail(errcode.InvalidDataBits, "data_bits")
		}
	}
	if p.StopBits != 0 {
		if cfg.StopBits = t32uart.StopBitsFromValue(p.StopBits); cfg.StopBits == t32uart.StopBitsInvalid {
			return fail(errcode.InvalidStopBits, "stop_bits")
		}
	}
	if p.Parity != "" {
		if cfg.Parity = t32uart.ParseParity(p.Parity); cfg.Parity == t32uart.ParityInvalid {
			return fail(errcode.InvalidParity, "parity")
		}
	}
	if p.Trigger != 0 {
		cfg.Trigger = t32uart.Trigger(p.Trigger)
	}
	if cfg.ClockSource = t32uart.ParseClockSource(p.Clock); cfg.ClockSource == t32uart.ClockInvalid {
		return fail(errcode.InvalidClockSource, "clock")
	}
	if p.SleepClock != "" {
		if cfg.SleepClockSource = t32uart.ParseClockSource(p.SleepClock); cfg.SleepClockSource == t32uart.ClockInvalid {
			return fail(errcode.InvalidClockSource, "sleep_clock")
		}
	}
	if p.SleepBaud != 0 {
		if cfg.SleepBaud = t32uart.BaudRateFromValue(p.SleepBaud); cfg.SleepBaud == t32uart.BaudInvalid {
			return fail(errcode.InvalidBaudRate, "sleep_baud")
		}
	}

	cfg.HWFlowControl = p.FlowControl
	cfg.EnableInterrupts = p.Interrupts
	cfg.TxDMA = p.TxDMA
	cfg.WakeOnInterrupt = p.WakeOnInterrupt
	cfg.RunWhenSleeping = p.RunWhenSleeping
	cfg.Priority = p.Priority
	cfg.RxQueueSize = p.RxQueue
	if p.RxDMA > 0 {
		cfg.RxDMA = true
		cfg.RxDMABuffer = make([]byte, p.RxDMA)
	}

	if err := v.Validate(p.Instance(), &cfg); err != nil {
		return t32uart.Config{}, &errcode.E{C: errcode.Of(err), Op: op, Msg: p.Name, Err: err}
	}
	return cfg, nil
}
