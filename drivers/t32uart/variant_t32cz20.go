package t32uart

import (
	"t32hal-go/errcode"
	"t32hal-go/x/mathx"
)

// T32CZ20 pad functions.
const (
	cz20UART0TX PinFunction = 0x11 + iota
	cz20UART0RX
	cz20UART1TX
	cz20UART1RX
	cz20UART2TX
	cz20UART2RX
	cz20UART1RTS
	cz20UART1CTS
)

// Nominal frequency of each T32CZ20 UART clock source.
var cz20ClockHz = [ClockInvalid]uint32{32_000_000, 16_000_000, 1_000_000, 32_768}

// Highest legal rate per clock source.
var cz20MaxBaud = [ClockInvalid]BaudRate{Baud2000000, Baud1000000, Baud38400, Baud9600}

// T32CZ20 is the mux-clocked family: direct divisor and fractional divisor
// registers, a selectable reference clock and a bitmask IIR that also
// carries the DMA completion bits.
var T32CZ20 = &Variant{
	Name:          "t32cz20",
	Family:        FamilyCZ20,
	Instances:     3,
	FlowControlID: UART1,
	Bases:         [MaxInstances]uintptr{0x40010000, 0x40011000, 0x40012000},
	txrx: [MaxInstances][]PinPair{
		{{17, 16}},
		{{28, 29}, {24, 25}, {6, 7}},
		{{30, 31}, {26, 27}, {8, 9}},
	},
	rtscts:  []PinPair{{20, 21}, {12, 13}},
	txFunc:  [MaxInstances]PinFunction{cz20UART0TX, cz20UART1TX, cz20UART2TX},
	rxFunc:  [MaxInstances]PinFunction{cz20UART0RX, cz20UART1RX, cz20UART2RX},
	rtsFunc: cz20UART1RTS,
	ctsFunc: cz20UART1CTS,
	offsets: cz20Offsets(),
	clock:   newMuxClock(),
	status:  bitmaskStatus{},
}

func cz20Offsets() [NumRegs]uint16 {
	o := newOffsets()
	o[RegRBR], o[RegTHR] = 0x00, 0x00
	o[RegIER] = 0x04
	o[RegIIR] = 0x08
	o[RegFCR] = 0x0C
	o[RegLCR] = 0x10
	o[RegMCR] = 0x14
	o[RegLSR] = 0x18
	o[RegMSR] = 0x1C
	o[RegSCR] = 0x20
	o[RegDLL] = 0x24
	o[RegDLM] = 0x28
	o[RegFDL] = 0x2C
	o[RegLSM] = 0x30
	o[RegEN] = 0x34
	o[RegDMAIER] = 0x40
	o[RegDMARxAddr] = 0x44
	o[RegDMARxLen] = 0x48
	o[RegDMARxEn] = 0x4C
	o[RegDMARxRemain] = 0x50
	o[RegDMATxAddr] = 0x54
	o[RegDMATxLen] = 0x58
	o[RegDMATxEn] = 0x5C
	o[RegDMATxRemain] = 0x60
	return o
}

// baudDivisor is an integer divisor plus a fraction in eighths. The zero
// value marks an unsupported clock/rate pair.
type baudDivisor struct {
	div  uint16
	frac uint8
}

// muxClock holds one divisor block per clock source, indexed by BaudRate.
type muxClock struct {
	table [int(ClockInvalid) * numBauds]baudDivisor
}

func newMuxClock() *muxClock {
	c := &muxClock{}
	for src := ClockSource(0); src < ClockInvalid; src++ {
		over := uint32(16)
		if src == ClockRCO32K {
			over = 1
		}
		for b := BaudRate(0); b <= cz20MaxBaud[src]; b++ {
			eighths := mathx.RoundDiv(cz20ClockHz[src]*8, over*b.Value())
			c.table[int(src)*numBauds+int(b)] = baudDivisor{
				div:  uint16(eighths >> 3),
				frac: uint8(eighths & 7),
			}
		}
	}
	return c
}

func (c *muxClock) lookup(src ClockSource, b BaudRate) baudDivisor {
	if src >= ClockInvalid || b >= BaudInvalid {
		return baudDivisor{}
	}
	return c.table[int(src)*numBauds+int(b)]
}

func (c *muxClock) checkBaud(src ClockSource, b BaudRate) error {
	if src >= ClockInvalid {
		return errcode.InvalidClockSource
	}
	if c.lookup(src, b) == (baudDivisor{}) {
		return errcode.InvalidBaudRate
	}
	return nil
}

func (c *muxClock) program(r Registers, clk ClockGate, id ID, src ClockSource, b BaudRate, lcr uint32) {
	d := c.lookup(src, b)
	clk.SelectSource(id, uint8(src))
	var lsm uint32
	if src == ClockRCO32K {
		lsm = LSMLowSpeed
	}
	r.Set(RegLSM, lsm)
	r.Set(RegDLL, uint32(d.div)&0xFF)
	r.Set(RegDLM, uint32(d.div)>>8)
	r.Set(RegFDL, uint32(d.frac))
	r.Set(RegLCR, lcr)
}

func (*muxClock) enable(r Registers) { r.Set(RegEN, ENUart|ENWake) }

func (*muxClock) powerModes() bool { return true }

// bitmaskStatus decodes the T32CZ20 IIR, where every cause has its own bit
// and the DMA completion bits are write-one-to-clear.
type bitmaskStatus struct{}

func (bitmaskStatus) latch(r Registers) uint32 { return r.Get(RegIIR) }

func (bitmaskStatus) dmaTxDone(s uint32) bool { return s&IIRBitDMATx != 0 }
func (bitmaskStatus) dmaRxDone(s uint32) bool { return s&IIRBitDMARx != 0 }

func (bitmaskStatus) ackDMATx(r Registers) { r.Set(RegIIR, IIRBitDMATx) }
func (bitmaskStatus) ackDMARx(r Registers) { r.Set(RegIIR, IIRBitDMARx) }

func (bitmaskStatus) pending(_ Registers, s uint32) conditions {
	s &= IIRBitsMask
	var c conditions
	if s&IIRBitRxData != 0 {
		c |= condRxData
	}
	if s&IIRBitTHREmpty != 0 {
		c |= condTHREmpty
	}
	if s&IIRBitLineStatus != 0 {
		c |= condLineStatus
	}
	if s&IIRBitCharTimeout != 0 {
		c |= condCharTimeout
	}
	if s&IIRBitModemStatus != 0 {
		c |= condModemStatus
	}
	if c == 0 {
		c = condUnknown
	}
	return c
}

func (bitmaskStatus) ackLineStatus(r Registers) { r.Set(RegLSR, LSRClearLatch) }

func (bitmaskStatus) resetDMA(r Registers) { r.Set(RegIIR, IIRBitDMARx|IIRBitDMATx) }

func (bitmaskStatus) dmaSelect() bool       { return true }
func (bitmaskStatus) quietUnexpected() bool { return true }
