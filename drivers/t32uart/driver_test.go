package t32uart_test

import (
	"errors"
	"reflect"
	"testing"

	"t32hal-go/drivers/t32uart"
	"t32hal-go/drivers/t32uart/sim"
	"t32hal-go/errcode"
)

func TestBaudRateFromValueRoundTrip(t *testing.T) {
	for _, v := range []uint32{2400, 4800, 9600, 14400, 19200, 28800, 38400, 57600,
		76800, 115200, 230400, 500000, 1000000, 2000000} {
		b := t32uart.BaudRateFromValue(v)
		if b == t32uart.BaudInvalid || b.Value() != v {
			t.Errorf("BaudRateFromValue(%d) = %v", v, b)
		}
	}
	if got := t32uart.BaudRateFromValue(12345); got != t32uart.BaudInvalid {
		t.Errorf("unlisted rate mapped to %v", got)
	}
	if t32uart.DataBitsFromValue(9) != t32uart.DataBitsInvalid || t32uart.DataBitsFromValue(7).Value() != 7 {
		t.Error("data bits lookup")
	}
	if t32uart.StopBitsFromValue(3) != t32uart.StopBitsInvalid || t32uart.StopBitsFromValue(2) != t32uart.StopBits2 {
		t.Error("stop bits lookup")
	}
}

func TestValidateRejectsEachViolation(t *testing.T) {
	type tc struct {
		name string
		id   t32uart.ID
		mut  func(*t32uart.Config)
		want errcode.Code
	}
	common := []tc{
		{"instance", 3, nil, errcode.InvalidID},
		{"pins", 0, func(c *t32uart.Config) { c.TX, c.RX = 16, 17 }, errcode.InvalidPins},
		{"pins of another instance", 0, func(c *t32uart.Config) { c.TX, c.RX = 28, 29 }, errcode.InvalidPins},
		{"baud sentinel", 0, func(c *t32uart.Config) { c.Baud = t32uart.BaudInvalid }, errcode.InvalidBaudRate},
		{"dma buffer missing", 0, func(c *t32uart.Config) { c.RxDMA = true }, errcode.DMABufferMissing},
		{"dma buffer small", 0, func(c *t32uart.Config) { c.RxDMA, c.RxDMABuffer = true, make([]byte, 16) }, errcode.DMABufferTooSmall},
		{"dma buffer misaligned", 0, func(c *t32uart.Config) { c.RxDMA, c.RxDMABuffer = true, make([]byte, 34) }, errcode.DMABufferMisaligned},
		{"trigger", 0, func(c *t32uart.Config) { c.Trigger = 3 }, errcode.InvalidTrigger},
		{"flow control instance", 0, func(c *t32uart.Config) { c.HWFlowControl = true }, errcode.FlowControlUnsupported},
		{"data bits", 0, func(c *t32uart.Config) { c.DataBits = t32uart.DataBitsInvalid }, errcode.InvalidDataBits},
	}
	perVariant := map[string][]tc{
		"t32cm11": {
			{"baud above fixed set", 0, func(c *t32uart.Config) { c.Baud = t32uart.Baud2000000 }, errcode.InvalidBaudRate},
		},
		"t32cz20": {
			{"clock source", 0, func(c *t32uart.Config) { c.ClockSource = t32uart.ClockInvalid }, errcode.InvalidClockSource},
			{"baud for clock", 0, func(c *t32uart.Config) {
				c.ClockSource, c.Baud = t32uart.ClockRCO16M, t32uart.Baud2000000
			}, errcode.InvalidBaudRate},
			{"sleep baud", 0, func(c *t32uart.Config) {
				c.RunWhenSleeping, c.SleepClockSource, c.SleepBaud = true, t32uart.ClockRCO32K, t32uart.Baud115200
			}, errcode.InvalidBaudRate},
		},
	}

	for _, v := range variants {
		t.Run(v.Name, func(t *testing.T) {
			for _, c := range append(common, perVariant[v.Name]...) {
				t.Run(c.name, func(t *testing.T) {
					b := sim.NewBoard(v)
					d := t32uart.New(v, b.Platform())
					cfg := baseConfig(0)
					if c.mut != nil {
						c.mut(&cfg)
					}
					if err := d.Validate(c.id, &cfg); !errors.Is(err, c.want) {
						t.Fatalf("validate: got %v want %v", err, c.want)
					}
					if err := d.Init(c.id, &cfg); !errors.Is(err, c.want) {
						t.Fatalf("init: got %v want %v", err, c.want)
					}
					for i, u := range b.UART {
						if w := u.Writes(); len(w) != 0 {
							t.Fatalf("uart%d saw writes: %v", i, w)
						}
					}
					if b.Pins.Calls() != 0 {
						t.Fatal("pads touched by failed init")
					}
				})
			}
		})
	}

	d := t32uart.New(t32uart.T32CM11, sim.NewBoard(t32uart.T32CM11).Platform())
	if err := d.Init(0, nil); !errors.Is(err, errcode.NullConfig) {
		t.Fatalf("nil config: %v", err)
	}
}

func TestValidateAcceptsFlowControlOnUART1(t *testing.T) {
	for _, v := range variants {
		cfg := baseConfig(t32uart.UART1)
		cfg.HWFlowControl = true
		cfg.RTS, cfg.CTS = 20, 21
		if err := v.Validate(t32uart.UART1, &cfg); err != nil {
			t.Fatalf("%s: %v", v.Name, err)
		}
		cfg.RTS = 22
		if err := v.Validate(t32uart.UART1, &cfg); !errors.Is(err, errcode.InvalidPins) {
			t.Fatalf("%s: bad rts accepted: %v", v.Name, err)
		}
	}
}

func TestInitProgramsDivisorBehindDLAB(t *testing.T) {
	_, b, _ := setup(t, t32uart.T32CM11, 0, nil)
	u := b.UART[0]
	if dll, dlm := u.Peek(t32uart.RegDLL), u.Peek(t32uart.RegDLM); dll != 17 || dlm != 0 {
		t.Fatalf("divisor = %d:%d, want 0:17", dlm, dll)
	}
	if lcr := u.Peek(t32uart.RegLCR); lcr != 0x03 {
		t.Fatalf("LCR = %#x, want 0x03", lcr)
	}
}

func TestInitWriteOrderCM11(t *testing.T) {
	b := sim.NewBoard(t32uart.T32CM11)
	d := t32uart.New(t32uart.T32CM11, b.Platform())
	cfg := baseConfig(0)
	cfg.Parity = t32uart.ParityEven
	cfg.StopBits = t32uart.StopBits2
	cfg.Trigger = t32uart.Trigger8
	if err := d.Init(0, &cfg); err != nil {
		t.Fatal(err)
	}
	var lcr, fcr []uint32
	for _, w := range b.UART[0].Writes() {
		switch w.Reg {
		case t32uart.RegLCR:
			lcr = append(lcr, w.Val)
		case t32uart.RegFCR:
			fcr = append(fcr, w.Val)
		}
	}
	wantLCR := []uint32{t32uart.LCRDLAB | 0x03, 0x03 | t32uart.LCRStopBits2 | t32uart.LCRParityOn | t32uart.LCREvenParity}
	if !reflect.DeepEqual(lcr, wantLCR) {
		t.Fatalf("LCR writes = %#x, want %#x", lcr, wantLCR)
	}
	wantFCR := []uint32{0, t32uart.FCRClearBoth, t32uart.FCREnable | 2<<t32uart.FCRTriggerShift}
	if !reflect.DeepEqual(fcr, wantFCR) {
		t.Fatalf("FCR writes = %#x, want %#x", fcr, wantFCR)
	}
	if !b.Clocks.Enabled(0) || !b.IRQ.Enabled(0) {
		t.Fatal("clock or interrupt left off")
	}
	if fn, _ := b.Pins.Mode(17); fn == t32uart.FuncGPIO {
		t.Fatal("tx pad left as GPIO")
	}
}

func TestInitCZ20ClockAndEnable(t *testing.T) {
	_, b, _ := setup(t, t32uart.T32CZ20, 0, func(c *t32uart.Config) {
		c.RxDMA, c.RxDMABuffer = true, make([]byte, 64)
		c.Trigger = t32uart.Trigger4
	})
	u := b.UART[0]
	if got := u.Peek(t32uart.RegEN); got != t32uart.ENUart|t32uart.ENWake {
		t.Fatalf("EN = %#x", got)
	}
	if u.Peek(t32uart.RegDLL) != 17 || u.Peek(t32uart.RegFDL) != 3 || u.Peek(t32uart.RegLSM) != 0 {
		t.Fatalf("divisor %d.%d/8 lsm %d", u.Peek(t32uart.RegDLL), u.Peek(t32uart.RegFDL), u.Peek(t32uart.RegLSM))
	}
	want := uint32(t32uart.FCRDMASelect | t32uart.FCREnable | 1<<t32uart.FCRTriggerShift)
	if got := u.Peek(t32uart.RegFCR); got != want {
		t.Fatalf("FCR = %#x, want %#x", got, want)
	}
	if b.Clocks.Mux(0) != uint8(t32uart.ClockPeri32M) {
		t.Fatal("mux not programmed")
	}
}

// Every legal clock/rate pair must land within 4% of the requested rate.
func TestDivisorAccuracy(t *testing.T) {
	t.Run("t32cm11", func(t *testing.T) {
		for br := t32uart.Baud2400; br <= t32uart.Baud1000000; br++ {
			_, b, _ := setup(t, t32uart.T32CM11, 0, func(c *t32uart.Config) { c.Baud = br })
			div := b.UART[0].Peek(t32uart.RegDLM)<<8 | b.UART[0].Peek(t32uart.RegDLL)
			checkRate(t, br, float64(t32uart.T32CM11UARTClockHz)/float64(16*div))
		}
	})
	t.Run("t32cz20", func(t *testing.T) {
		hz := map[t32uart.ClockSource]float64{
			t32uart.ClockPeri32M: 32e6, t32uart.ClockRCO16M: 16e6,
			t32uart.ClockRCO1M: 1e6, t32uart.ClockRCO32K: 32768,
		}
		for src := t32uart.ClockPeri32M; src < t32uart.ClockInvalid; src++ {
			for br := t32uart.Baud2400; br < t32uart.BaudInvalid; br++ {
				cfg := baseConfig(0)
				cfg.ClockSource, cfg.Baud = src, br
				if t32uart.T32CZ20.Validate(0, &cfg) != nil {
					continue
				}
				_, b, _ := setup(t, t32uart.T32CZ20, 0, func(c *t32uart.Config) { c.ClockSource, c.Baud = src, br })
				u := b.UART[0]
				eighths := (u.Peek(t32uart.RegDLM)<<8|u.Peek(t32uart.RegDLL))*8 + u.Peek(t32uart.RegFDL)
				over := 16.0
				if u.Peek(t32uart.RegLSM) != 0 {
					over = 1
				}
				checkRate(t, br, hz[src]*8/(over*float64(eighths)))
			}
		}
	})
}

func checkRate(t *testing.T, br t32uart.BaudRate, got float64) {
	t.Helper()
	want := float64(br.Value())
	if got < want*0.96 || got > want*1.04 {
		t.Errorf("%v: effective rate %.0f", br, got)
	}
}

func TestPowerOffIsIdempotent(t *testing.T) {
	for _, v := range variants {
		t.Run(v.Name, func(t *testing.T) {
			d, b, _ := setup(t, v, 0, nil)
			u := b.UART[0]
			if err := d.PowerOff(0); err != nil {
				t.Fatal(err)
			}
			first := u.Writes()
			if d.State(0) != t32uart.PoweredOff || b.Clocks.Enabled(0) || b.IRQ.Enabled(0) {
				t.Fatal("instance not quiesced")
			}
			if u.Peek(t32uart.RegIER) != 0 {
				t.Fatal("IER left armed without wake-on-interrupt")
			}
			if err := d.PowerOff(0); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(first, u.Writes()) {
				t.Fatal("second power off touched registers")
			}

			if err := d.PowerOn(0); err != nil {
				t.Fatal(err)
			}
			if d.State(0) != t32uart.Powered || !b.Clocks.Enabled(0) || !b.IRQ.Enabled(0) {
				t.Fatal("instance not restored")
			}
			want := uint32(t32uart.IERLineStatus | t32uart.IERTHREmpty | t32uart.IERRxData)
			if got := u.Peek(t32uart.RegIER); got != want {
				t.Fatalf("IER = %#x, want %#x", got, want)
			}
			if err := d.PowerOn(0); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestPowerOffKeepsWakeInterrupts(t *testing.T) {
	d, b, _ := setup(t, t32uart.T32CM11, 0, func(c *t32uart.Config) { c.WakeOnInterrupt = true })
	if err := d.PowerOff(0); err != nil {
		t.Fatal(err)
	}
	if b.UART[0].Peek(t32uart.RegIER) == 0 {
		t.Fatal("IER cleared despite wake-on-interrupt")
	}
}

func TestLifecycleErrors(t *testing.T) {
	d := t32uart.New(t32uart.T32CM11, sim.NewBoard(t32uart.T32CM11).Platform())
	for name, f := range map[string]func() error{
		"power off": func() error { return d.PowerOff(1) },
		"power on":  func() error { return d.PowerOn(1) },
		"uninit":    func() error { return d.Uninit(1) },
		"raw rx":    func() error { _, _, err := d.RawRxOneByte(1); return err },
		"raw tx":    func() error { return d.RawTxOneByte(1, 'x') },
	} {
		if err := f(); !errors.Is(err, errcode.NotInitialized) {
			t.Errorf("%s: got %v", name, err)
		}
	}
	if err := d.PowerOff(7); !errors.Is(err, errcode.InvalidID) {
		t.Errorf("invalid id: %v", err)
	}

	d2, _, _ := setup(t, t32uart.T32CM11, 0, nil)
	_ = d2.PowerOff(0)
	if _, _, err := d2.RawRxOneByte(0); !errors.Is(err, errcode.NotPowered) {
		t.Fatalf("powered off rx: %v", err)
	}
	if err := d2.DMATxBytesInBuffer(0, []byte("x")); !errors.Is(err, errcode.NotPowered) {
		t.Fatalf("powered off dma: %v", err)
	}
}

func TestInitPinFailureLeavesInstanceUninitialized(t *testing.T) {
	b := sim.NewBoard(t32uart.T32CZ20)
	d := t32uart.New(t32uart.T32CZ20, b.Platform())
	pad := errors.New("pad locked")
	b.Pins.FailPin(16, pad)
	cfg := baseConfig(0)
	err := d.Init(0, &cfg)
	if !errors.Is(err, errcode.PinModeFailed) || !errors.Is(err, pad) {
		t.Fatalf("got %v", err)
	}
	if d.State(0) != t32uart.Uninitialized {
		t.Fatal("failed init left instance initialised")
	}
}

func TestUninitRevertsPins(t *testing.T) {
	d, b, _ := setup(t, t32uart.T32CM11, t32uart.UART1, func(c *t32uart.Config) {
		c.HWFlowControl = true
		c.RTS, c.CTS = 20, 21
	})
	if err := d.Uninit(t32uart.UART1); err != nil {
		t.Fatal(err)
	}
	for _, p := range []t32uart.Pin{28, 29, 20, 21} {
		if fn, _ := b.Pins.Mode(p); fn != t32uart.FuncGPIO {
			t.Errorf("pin %d left in function %d", p, fn)
		}
	}
	if d.State(t32uart.UART1) != t32uart.Uninitialized {
		t.Fatal("state not cleared")
	}
	if err := d.Uninit(t32uart.UART1); !errors.Is(err, errcode.NotInitialized) {
		t.Fatalf("second uninit: %v", err)
	}
}

func TestSetPins(t *testing.T) {
	d, b, _ := setup(t, t32uart.T32CM11, t32uart.UART1, nil)
	if err := d.SetTxRxPins(t32uart.UART1, 4, 5); err != nil {
		t.Fatal(err)
	}
	if fn, _ := b.Pins.Mode(28); fn != t32uart.FuncGPIO {
		t.Fatal("old tx pad not released")
	}
	if fn, _ := b.Pins.Mode(4); fn == t32uart.FuncGPIO {
		t.Fatal("new tx pad not routed")
	}
	if cfg, _ := d.Config(t32uart.UART1); cfg.TX != 4 || cfg.RX != 5 {
		t.Fatalf("stored pins %d/%d", cfg.TX, cfg.RX)
	}
	if err := d.SetTxRxPins(t32uart.UART1, 17, 16); !errors.Is(err, errcode.InvalidPins) {
		t.Fatalf("foreign pins: %v", err)
	}
	if err := d.SetRtsCtsPins(t32uart.UART0, 20, 21); !errors.Is(err, errcode.FlowControlUnsupported) {
		t.Fatalf("rts on uart0: %v", err)
	}
	if err := d.SetRtsCtsPins(t32uart.UART1, 14, 15); err != nil {
		t.Fatal(err)
	}
	if !d.CheckPinsValid(t32uart.UART2, 8, 9) || d.CheckPinsValid(t32uart.UART2, 9, 8) {
		t.Fatal("pin table lookup")
	}
}

func TestSetPowerMode(t *testing.T) {
	d, _, _ := setup(t, t32uart.T32CM11, 0, nil)
	if err := d.SetPowerMode(0, t32uart.PowerModeLiteSleep); !errors.Is(err, errcode.Unsupported) {
		t.Fatalf("t32cm11: %v", err)
	}

	d, b, _ := setup(t, t32uart.T32CZ20, 0, func(c *t32uart.Config) {
		c.RunWhenSleeping = true
		c.SleepClockSource, c.SleepBaud = t32uart.ClockRCO32K, t32uart.Baud9600
	})
	u := b.UART[0]
	if err := d.SetPowerMode(0, t32uart.PowerModeLiteSleep); err != nil {
		t.Fatal(err)
	}
	if !b.Clocks.SleepEnabled(t32uart.ClockRCO32K) || b.Clocks.Mux(0) != uint8(t32uart.ClockRCO32K) {
		t.Fatal("sleep clock not selected")
	}
	if u.Peek(t32uart.RegLSM) != t32uart.LSMLowSpeed || u.Peek(t32uart.RegDLL) != 3 || u.Peek(t32uart.RegFDL) != 3 {
		t.Fatalf("sleep divisor %d.%d/8", u.Peek(t32uart.RegDLL), u.Peek(t32uart.RegFDL))
	}
	if err := d.SetPowerMode(0, t32uart.PowerModeWake); err != nil {
		t.Fatal(err)
	}
	if u.Peek(t32uart.RegLSM) != 0 || u.Peek(t32uart.RegDLL) != 17 || b.Clocks.Mux(0) != 0 {
		t.Fatal("wake did not restore the normal clock")
	}
	if err := d.SetPowerMode(0, t32uart.PowerModeDeepSleep); !errors.Is(err, errcode.InvalidPowerMode) {
		t.Fatalf("deep sleep: %v", err)
	}
	if err := d.SetPowerMode(1, t32uart.PowerModeWake); !errors.Is(err, errcode.NotInitialized) {
		t.Fatalf("uninitialised: %v", err)
	}

	b.Clocks.FailSleep(errors.New("pmu busy"))
	if err := d.SetPowerMode(0, t32uart.PowerModeLiteSleep); !errors.Is(err, errcode.ClockFailed) {
		t.Fatalf("sleep clock failure: %v", err)
	}
}

func TestSetPowerModeWithoutSleepRunIsNoop(t *testing.T) {
	d, b, _ := setup(t, t32uart.T32CZ20, 0, nil)
	if err := d.SetPowerMode(0, t32uart.PowerModeLiteSleep); err != nil {
		t.Fatal(err)
	}
	if w := b.UART[0].Writes(); len(w) != 0 {
		t.Fatalf("unexpected writes %v", w)
	}
}

func TestRawRxTriState(t *testing.T) {
	for _, v := range variants {
		t.Run(v.Name, func(t *testing.T) {
			d, b, _ := setup(t, v, 0, nil)
			u := b.UART[0]

			if _, st, err := d.RawRxOneByte(0); err != nil || st != t32uart.RxNoData {
				t.Fatalf("empty: %v %v", st, err)
			}
			u.Feed('a')
			if c, st, _ := d.RawRxOneByte(0); c != 'a' || st != t32uart.RxDrained {
				t.Fatalf("one byte: %q %v", c, st)
			}
			u.Feed('b', 'c')
			if c, st, _ := d.RawRxOneByte(0); c != 'b' || st != t32uart.RxMore {
				t.Fatalf("two bytes: %q %v", c, st)
			}
			if c, st, _ := d.RawRxOneByte(0); c != 'c' || st != t32uart.RxDrained {
				t.Fatalf("second of two: %q %v", c, st)
			}

			u.Feed('x', 'y', 'z')
			buf := make([]byte, 2)
			if n, st, _ := d.RawRxAvailableBytes(0, buf); n != 2 || st != t32uart.RxMore || string(buf) != "xy" {
				t.Fatalf("partial drain: %d %v %q", n, st, buf)
			}
			if n, st, _ := d.RawRxAvailableBytes(0, buf); n != 1 || st != t32uart.RxDrained || buf[0] != 'z' {
				t.Fatalf("final drain: %d %v", n, st)
			}
			if n, st, _ := d.RawRxAvailableBytes(0, buf); n != 0 || st != t32uart.RxNoData {
				t.Fatalf("empty drain: %d %v", n, st)
			}
		})
	}
}

func TestRawRxRefusedWhenCallbackOwnsReception(t *testing.T) {
	for _, v := range variants {
		t.Run(v.Name, func(t *testing.T) {
			rec := &recorder{}
			d, b, _ := setup(t, v, 0, func(c *t32uart.Config) { c.RxCallback = rec.rx })
			u := b.UART[0]
			u.Feed('q')
			u.ClearLog()
			if _, _, err := d.RawRxOneByte(0); !errors.Is(err, errcode.RxOwnedByCallback) {
				t.Fatalf("one byte: %v", err)
			}
			if _, _, err := d.RawRxAvailableBytes(0, make([]byte, 4)); !errors.Is(err, errcode.RxOwnedByCallback) {
				t.Fatalf("available: %v", err)
			}
			if r := u.Reads(); len(r) != 0 {
				t.Fatalf("registers read: %v", r)
			}
			if u.FIFOLen() != 1 {
				t.Fatal("byte consumed")
			}
		})
	}

	d, _, _ := setup(t, t32uart.T32CM11, 0, func(c *t32uart.Config) {
		c.RxDMA, c.RxDMABuffer = true, make([]byte, 32)
	})
	if _, _, err := d.RawRxOneByte(0); !errors.Is(err, errcode.RxOwnedByDMA) {
		t.Fatalf("dma owned: %v", err)
	}
}

func TestRawTx(t *testing.T) {
	d, b, _ := setup(t, t32uart.T32CZ20, 0, nil)
	if err := d.RawTxBuffer(0, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := d.RawTxOneByte(0, '!'); err != nil {
		t.Fatal(err)
	}
	if got := string(b.UART[0].Transmitted()); got != "hello!" {
		t.Fatalf("line saw %q", got)
	}
	if d.Stats(0).TxBytes != 6 {
		t.Fatalf("stats %+v", d.Stats(0))
	}

	d2, _, _ := setup(t, t32uart.T32CZ20, 0, func(c *t32uart.Config) { c.TxDMA = true })
	if err := d2.RawTxOneByte(0, 'x'); !errors.Is(err, errcode.TxOwnedByDMA) {
		t.Fatalf("dma owned tx: %v", err)
	}
}

func TestTxActive(t *testing.T) {
	b := sim.NewBoard(t32uart.T32CM11)
	d := t32uart.New(t32uart.T32CM11, b.Platform())
	if busy, err := d.TxActive(2); err != nil || busy {
		t.Fatalf("idle uninitialised: %v %v", busy, err)
	}
	b.UART[2].SetTxBusy(true)
	if busy, _ := d.TxActive(2); !busy {
		t.Fatal("busy transmitter reported idle")
	}
	if _, err := d.TxActive(3); !errors.Is(err, errcode.InvalidID) {
		t.Fatalf("invalid id: %v", err)
	}
}

func TestDMATransmit(t *testing.T) {
	for _, v := range variants {
		t.Run(v.Name, func(t *testing.T) {
			d, b, _ := setup(t, v, 0, func(c *t32uart.Config) { c.TxDMA = true })
			if err := d.DMATxBytesInBuffer(0, []byte("dma!")); err != nil {
				t.Fatal(err)
			}
			if got := string(b.UART[0].Transmitted()); got != "dma!" {
				t.Fatalf("line saw %q", got)
			}
		})
	}
	d, _, _ := setup(t, t32uart.T32CM11, 0, nil)
	if err := d.DMATxBytesInBuffer(0, []byte("x")); !errors.Is(err, errcode.DMANotEnabled) {
		t.Fatalf("dma disabled: %v", err)
	}
	if _, err := d.DMAReceiveBufferNumBytesLeft(0); !errors.Is(err, errcode.DMANotEnabled) {
		t.Fatalf("rx dma disabled: %v", err)
	}
	if err := d.DMAChangeRxBuffer(0, make([]byte, 64)); !errors.Is(err, errcode.DMANotEnabled) {
		t.Fatalf("rx dma disabled: %v", err)
	}
}

func TestDMAChangeRxBufferDeliversPendingBytes(t *testing.T) {
	for _, v := range variants {
		t.Run(v.Name, func(t *testing.T) {
			rec := &recorder{}
			d, b, _ := setup(t, v, 0, func(c *t32uart.Config) {
				c.RxDMA, c.RxDMABuffer = true, make([]byte, 64)
				c.RxCallback = rec.rx
			})
			u := b.UART[0]

			first := seq(10)
			u.Feed(first...)
			if left, _ := d.DMAReceiveBufferNumBytesLeft(0); left != 54 {
				t.Fatalf("remaining %d", left)
			}
			if err := d.DMAChangeRxBuffer(0, make([]byte, 16)); !errors.Is(err, errcode.DMABufferTooSmall) {
				t.Fatalf("small buffer: %v", err)
			}
			if err := d.DMAChangeRxBuffer(0, make([]byte, 64)); err != nil {
				t.Fatal(err)
			}
			syncRx(t, d, 0)
			if got := rec.Bytes(); !reflect.DeepEqual(got, first) {
				t.Fatalf("after swap got %v want %v", got, first)
			}

			u.Feed(5, 6, 0, 7)
			d.HandleInterrupt(0)
			syncRx(t, d, 0)
			want := append(append([]byte(nil), first...), 5, 6, 0, 7)
			if got := rec.Bytes(); !reflect.DeepEqual(got, want) {
				t.Fatalf("after interrupt got %v want %v", got, want)
			}
		})
	}
}

func TestStatsReset(t *testing.T) {
	d, _, _ := setup(t, t32uart.T32CM11, 0, nil)
	d.HandleInterrupt(0)
	if d.Stats(0).Interrupts != 1 {
		t.Fatalf("stats %+v", d.Stats(0))
	}
	d.ResetStats(0)
	if d.Stats(0) != (t32uart.Stats{}) {
		t.Fatal("reset left counters")
	}
	if d.Stats(9) != (t32uart.Stats{}) {
		t.Fatal("invalid id")
	}
}
