package t32uart

// PinGate routes pads to peripheral functions.
type PinGate interface {
	SetPinMode(pin Pin, fn PinFunction) error
}

// ClockGate controls per-instance peripheral clocks and, on variants with a
// mux, the UART reference clock selection.
type ClockGate interface {
	EnableClock(id ID)
	DisableClock(id ID)
	SelectSource(id ID, mux uint8)
	// EnableSleepClock keeps src running while the system sleeps.
	EnableSleepClock(src ClockSource) error
}

// InterruptController masks and prioritises the per-instance interrupt line.
type InterruptController interface {
	ClearPending(id ID)
	Enable(id ID)
	Disable(id ID)
	SetPending(id ID)
	SetPriority(id ID, prio uint8)
}

// AddressSpace converts a buffer into the bus address the DMA engine uses.
type AddressSpace interface {
	Addr(buf []byte) uint32
}

// Platform bundles the collaborators a Driver needs. Regs is indexed by ID.
type Platform struct {
	Regs   []Registers
	Pins   PinGate
	Clocks ClockGate
	IRQ    InterruptController
	Mem    AddressSpace
}
