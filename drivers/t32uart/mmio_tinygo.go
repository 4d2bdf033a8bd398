//go:build tinygo

package t32uart

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO accesses a memory-mapped UART block through the variant offset table.
type MMIO struct {
	base uintptr
	off  *[NumRegs]uint16
}

// NewMMIO returns the register block of instance id on variant v.
func NewMMIO(v *Variant, id ID) MMIO {
	return MMIO{base: v.Bases[id], off: &v.offsets}
}

func (m MMIO) reg(r Reg) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(m.base + uintptr(m.off[r])))
}

func (m MMIO) Get(r Reg) uint32 {
	if r >= NumRegs || m.off[r] == noReg {
		return 0
	}
	return m.reg(r).Get()
}

func (m MMIO) Set(r Reg, v uint32) {
	if r >= NumRegs || m.off[r] == noReg {
		return
	}
	m.reg(r).Set(v)
}

type sram struct{}

func (sram) Addr(buf []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
}

// SRAM is the identity address space of on-chip memory.
var SRAM AddressSpace = sram{}

// HardwarePlatform wires MMIO register blocks for every instance of v with
// the supplied board collaborators.
func HardwarePlatform(v *Variant, pins PinGate, clocks ClockGate, irq InterruptController) Platform {
	regs := make([]Registers, v.Instances)
	for i := range regs {
		regs[i] = NewMMIO(v, ID(i))
	}
	return Platform{Regs: regs, Pins: pins, Clocks: clocks, IRQ: irq, Mem: SRAM}
}
