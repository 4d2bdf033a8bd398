package t32uart

// Family distinguishes the register models a Variant can have.
type Family uint8

const (
	FamilyCM11 Family = iota // 16550 style: DLAB, priority IIR, separate DMA status
	FamilyCZ20               // direct divisors, clock mux, bitmask IIR
)

// PinPair is one legal TX/RX (or RTS/CTS) pad assignment.
type PinPair struct{ A, B Pin }

// Variant describes one chip family: its pad tables, register layout and
// the two behaviours that differ between families (clock programming and
// interrupt status decoding).
type Variant struct {
	Name      string
	Family    Family
	Instances int

	// FlowControlID is the only instance wired for RTS/CTS.
	FlowControlID ID

	// Bases holds the MMIO base address per instance.
	Bases [MaxInstances]uintptr

	txrx    [MaxInstances][]PinPair
	rtscts  []PinPair
	txFunc  [MaxInstances]PinFunction
	rxFunc  [MaxInstances]PinFunction
	rtsFunc PinFunction
	ctsFunc PinFunction
	offsets [NumRegs]uint16
	clock   clockProgrammer
	status  statusModel
}

// clockProgrammer owns baud-rate legality and divisor programming.
type clockProgrammer interface {
	checkBaud(src ClockSource, b BaudRate) error
	// program writes the divisor for b on src and leaves LCR equal to lcr.
	program(r Registers, clk ClockGate, id ID, src ClockSource, b BaudRate, lcr uint32)
	// enable runs as the last init step.
	enable(r Registers)
	powerModes() bool
}

// conditions is the decoded set of non-DMA interrupt causes.
type conditions uint8

const (
	condRxData conditions = 1 << iota
	condTHREmpty
	condLineStatus
	condCharTimeout
	condModemStatus
	condUnknown
)

// statusModel owns the interrupt status layout.
type statusModel interface {
	// latch reads the interrupt status once on interrupt entry.
	latch(r Registers) uint32
	dmaTxDone(s uint32) bool
	dmaRxDone(s uint32) bool
	ackDMATx(r Registers)
	ackDMARx(r Registers)
	// pending decodes the non-DMA conditions.
	pending(r Registers, s uint32) conditions
	ackLineStatus(r Registers)
	resetDMA(r Registers)
	// dmaSelect reports whether the FIFO must be switched to DMA mode.
	dmaSelect() bool
	// quietUnexpected suppresses EventUnexpected when other events fired.
	quietUnexpected() bool
}

// VariantByName returns the variant registered under name.
func VariantByName(name string) (*Variant, bool) {
	switch name {
	case T32CM11.Name:
		return T32CM11, true
	case T32CZ20.Name:
		return T32CZ20, true
	}
	return nil, false
}

// SupportsPowerModes reports whether SetPowerMode is implemented.
func (v *Variant) SupportsPowerModes() bool { return v.clock.powerModes() }

func (v *Variant) validID(id ID) bool { return int(id) < v.Instances }

// CheckPinsValid reports whether (tx, rx) is a legal pad pair for id.
func (v *Variant) CheckPinsValid(id ID, tx, rx Pin) bool {
	if !v.validID(id) {
		return false
	}
	return pairListed(v.txrx[id], tx, rx)
}

// CheckFlowPinsValid reports whether (rts, cts) is a legal pad pair for id.
func (v *Variant) CheckFlowPinsValid(id ID, rts, cts Pin) bool {
	if id != v.FlowControlID || !v.validID(id) {
		return false
	}
	return pairListed(v.rtscts, rts, cts)
}

func pairListed(pairs []PinPair, a, b Pin) bool {
	for _, p := range pairs {
		if p.A == a && p.B == b {
			return true
		}
	}
	return false
}

// newOffsets returns an offset table with every register unimplemented.
func newOffsets() (o [NumRegs]uint16) {
	for i := range o {
		o[i] = noReg
	}
	return o
}
