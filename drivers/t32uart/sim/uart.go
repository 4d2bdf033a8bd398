// Package sim models the T32 UART register blocks and their board
// collaborators on the host. Register side effects follow the hardware:
// reads of RBR, IIR, LSR and MSR clear what they clear on silicon, DMA
// engines latch address and length on the enable edge, and interrupt
// conditions are gated by the enable registers.
package sim

import (
	"sync"

	"t32hal-go/drivers/t32uart"
)

// Access is one logged register write.
type Access struct {
	Reg t32uart.Reg
	Val uint32
}

type dmaRx struct {
	on     bool
	buf    []byte
	pos    int
	remain uint32
}

// UART is one simulated register block.
type UART struct {
	mu     sync.Mutex
	family t32uart.Family
	mem    *Memory

	regs [t32uart.NumRegs]uint32

	fifo    []byte
	trigger int
	lsrErr  uint32
	msr     uint32
	thre    bool
	cto     bool
	ms      bool
	txBusy  bool
	forced  *uint32 // one-shot IIR override

	rx       dmaRx
	txOn     bool
	txStall  bool
	txArmed  bool
	txRemain uint32
	dmaRxIRQ bool
	dmaTxIRQ bool

	tx     []byte
	writes []Access
	reads  []t32uart.Reg

	hook func()
}

// NewUART returns a block of the given family resolving DMA addresses in mem.
func NewUART(f t32uart.Family, mem *Memory) *UART {
	return &UART{family: f, mem: mem, trigger: 1}
}

// OnAssert installs fn, called without the block lock held whenever a
// change leaves an enabled interrupt condition asserted.
func (u *UART) OnAssert(fn func()) {
	u.mu.Lock()
	u.hook = fn
	u.mu.Unlock()
}

func (u *UART) cm11() bool { return u.family == t32uart.FamilyCM11 }

func (u *UART) dlab() bool { return u.cm11() && u.regs[t32uart.RegLCR]&t32uart.LCRDLAB != 0 }

// alias folds the T32CM11 shared addresses onto the register they reach.
func (u *UART) alias(r t32uart.Reg, write bool) t32uart.Reg {
	if !u.cm11() {
		return r
	}
	if u.dlab() {
		switch r {
		case t32uart.RegRBR, t32uart.RegTHR:
			return t32uart.RegDLL
		case t32uart.RegIER:
			return t32uart.RegDLM
		}
		return r
	}
	switch r {
	case t32uart.RegRBR, t32uart.RegTHR, t32uart.RegDLL:
		if write {
			return t32uart.RegTHR
		}
		return t32uart.RegRBR
	case t32uart.RegDLM:
		return t32uart.RegIER
	case t32uart.RegIIR, t32uart.RegFCR:
		if write {
			return t32uart.RegFCR
		}
		return t32uart.RegIIR
	}
	return r
}

// Get implements t32uart.Registers.
func (u *UART) Get(r t32uart.Reg) uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.reads = append(u.reads, r)
	return u.get(u.alias(r, false))
}

func (u *UART) get(r t32uart.Reg) uint32 {
	switch r {
	case t32uart.RegRBR:
		u.cto = false
		if len(u.fifo) == 0 {
			return 0
		}
		b := u.fifo[0]
		u.fifo = u.fifo[1:]
		return uint32(b)
	case t32uart.RegIIR:
		if u.cm11() {
			code := u.iirCode()
			if code == t32uart.IIRTHREmpty {
				u.thre = false
			}
			return code | 0xC0
		}
		bits := u.iirBits()
		if bits&t32uart.IIRBitTHREmpty != 0 {
			u.thre = false
		}
		return bits
	case t32uart.RegLSR:
		v := u.lsrErr
		if len(u.fifo) > 0 {
			v |= t32uart.LSRDataReady
		}
		if !u.txBusy {
			v |= t32uart.LSRTHREmpty | t32uart.LSRTxEmpty
		}
		if u.cm11() {
			u.lsrErr = 0
		}
		return v
	case t32uart.RegMSR:
		u.ms = false
		return u.msr
	case t32uart.RegDMAStatus:
		var v uint32
		if u.dmaRxIRQ {
			v |= t32uart.DMAIntRx
		}
		if u.dmaTxIRQ {
			v |= t32uart.DMAIntTx
		}
		return v
	case t32uart.RegDMARxRemain:
		return u.rx.remain
	case t32uart.RegDMATxRemain:
		return u.txRemain
	}
	return u.regs[r]
}

// Set implements t32uart.Registers.
func (u *UART) Set(r t32uart.Reg, v uint32) {
	u.mu.Lock()
	u.writes = append(u.writes, Access{Reg: r, Val: v})
	u.set(u.alias(r, true), v)
	fire := u.assertedLocked() && u.hook != nil
	hook := u.hook
	u.mu.Unlock()
	if fire {
		hook()
	}
}

func (u *UART) set(r t32uart.Reg, v uint32) {
	switch r {
	case t32uart.RegTHR:
		u.tx = append(u.tx, byte(v))
		u.thre = true
		return
	case t32uart.RegDLL, t32uart.RegDLM:
		v &= 0xFF
	case t32uart.RegFCR:
		if v&t32uart.FCRRxReset != 0 {
			u.fifo = nil
			u.cto = false
		}
		u.trigger = [...]int{1, 4, 8, 14}[(v&t32uart.FCRTriggerMask)>>t32uart.FCRTriggerShift]
	case t32uart.RegLSR:
		if !u.cm11() {
			u.lsrErr &^= v
		}
		return
	case t32uart.RegMSR, t32uart.RegDMARxRemain, t32uart.RegDMATxRemain:
		return
	case t32uart.RegIIR:
		if !u.cm11() {
			u.ackDMA(v>>5&1 != 0, v>>6&1 != 0)
		}
		return
	case t32uart.RegDMAStatus:
		u.ackDMA(v&t32uart.DMAIntRx != 0, v&t32uart.DMAIntTx != 0)
		return
	case t32uart.RegDMARxEn:
		on := v&1 != 0
		if on && !u.rx.on {
			n := u.regs[t32uart.RegDMARxLen]
			u.rx = dmaRx{buf: u.mem.slice(u.regs[t32uart.RegDMARxAddr], n), remain: n}
		}
		u.rx.on = on
	case t32uart.RegDMATxEn:
		on := v&1 != 0
		was := u.txOn
		u.txOn = on
		if !on {
			u.txArmed = false
		}
		if on && !was {
			u.txRemain = u.regs[t32uart.RegDMATxLen]
			u.txArmed = true
			u.runDMATx()
		}
	}
	u.regs[r] = v
}

// runDMATx moves an armed transmit to the line unless the engine is stalled.
func (u *UART) runDMATx() {
	if !u.txArmed || u.txStall {
		return
	}
	u.txArmed = false
	u.tx = append(u.tx, u.mem.slice(u.regs[t32uart.RegDMATxAddr], u.txRemain)...)
	u.txRemain = 0
	u.dmaTxIRQ = true
}

func (u *UART) ackDMA(rx, tx bool) {
	if rx {
		u.dmaRxIRQ = false
	}
	if tx {
		u.dmaTxIRQ = false
	}
}

func (u *UART) ier(mask uint32) bool { return u.regs[t32uart.RegIER]&mask != 0 }

func (u *UART) dmaIER(mask uint32) bool { return u.regs[t32uart.RegDMAIER]&mask != 0 }

func (u *UART) rdaOn() bool  { return len(u.fifo) >= u.trigger && u.ier(t32uart.IERRxData) }
func (u *UART) ctoOn() bool  { return u.cto && u.ier(t32uart.IERRxData) }
func (u *UART) rlsOn() bool  { return u.lsrErr != 0 && u.ier(t32uart.IERLineStatus) }
func (u *UART) threOn() bool { return u.thre && u.ier(t32uart.IERTHREmpty) }
func (u *UART) msOn() bool   { return u.ms && u.ier(t32uart.IERModemStatus) }

func (u *UART) iirCode() uint32 {
	if u.forced != nil {
		v := *u.forced
		u.forced = nil
		return v
	}
	switch {
	case u.rlsOn():
		return t32uart.IIRLineStatus
	case u.rdaOn():
		return t32uart.IIRRxData
	case u.ctoOn():
		return t32uart.IIRCharTimeout
	case u.threOn():
		return t32uart.IIRTHREmpty
	case u.msOn():
		return t32uart.IIRModemStatus
	}
	return t32uart.IIRNonePending
}

func (u *UART) iirBits() uint32 {
	if u.forced != nil {
		v := *u.forced
		u.forced = nil
		return v
	}
	var v uint32
	if u.rdaOn() {
		v |= t32uart.IIRBitRxData
	}
	if u.threOn() {
		v |= t32uart.IIRBitTHREmpty
	}
	if u.rlsOn() {
		v |= t32uart.IIRBitLineStatus
	}
	if u.msOn() {
		v |= t32uart.IIRBitModemStatus
	}
	if u.ctoOn() {
		v |= t32uart.IIRBitCharTimeout
	}
	if u.dmaRxIRQ && u.dmaIER(t32uart.DMAIntRx) {
		v |= t32uart.IIRBitDMARx
	}
	if u.dmaTxIRQ && u.dmaIER(t32uart.DMAIntTx) {
		v |= t32uart.IIRBitDMATx
	}
	return v
}

func (u *UART) assertedLocked() bool {
	return u.forced != nil || u.rdaOn() || u.ctoOn() || u.rlsOn() || u.threOn() || u.msOn() ||
		(u.dmaRxIRQ && u.dmaIER(t32uart.DMAIntRx)) ||
		(u.dmaTxIRQ && u.dmaIER(t32uart.DMAIntTx))
}

// Asserted reports whether any enabled interrupt condition is pending.
func (u *UART) Asserted() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.assertedLocked()
}

// change runs f under the lock and then notifies the hook if needed.
func (u *UART) change(f func()) {
	u.mu.Lock()
	f()
	fire := u.assertedLocked() && u.hook != nil
	hook := u.hook
	u.mu.Unlock()
	if fire {
		hook()
	}
}

// Feed delivers bytes from the line. With receive DMA running they are
// written to the DMA buffer until it is full and the rest is discarded;
// otherwise they enter the FIFO.
func (u *UART) Feed(p ...byte) {
	u.change(func() {
		if !u.rx.on {
			u.fifo = append(u.fifo, p...)
			return
		}
		n := copy(u.rx.buf[u.rx.pos:], p)
		u.rx.pos += n
		u.rx.remain -= uint32(n)
		if n > 0 {
			u.dmaRxIRQ = true
		}
	})
}

// InjectLineError latches LSR error bits.
func (u *UART) InjectLineError(bits uint32) {
	u.change(func() { u.lsrErr |= bits & t32uart.LSRErrorMask })
}

// InjectCharTimeout raises a character timeout.
func (u *UART) InjectCharTimeout() { u.change(func() { u.cto = true }) }

// InjectModemStatus changes the modem status register.
func (u *UART) InjectModemStatus(msr uint32) {
	u.change(func() {
		u.msr = msr
		u.ms = true
	})
}

// InjectTHREmpty raises the transmit holding register empty condition.
func (u *UART) InjectTHREmpty() { u.change(func() { u.thre = true }) }

// ForceIIR makes the next IIR read return v.
func (u *UART) ForceIIR(v uint32) { u.change(func() { u.forced = &v }) }

// SetTxBusy holds the transmitter busy, clearing THRE and TEMT in LSR.
func (u *UART) SetTxBusy(busy bool) {
	u.mu.Lock()
	u.txBusy = busy
	u.mu.Unlock()
}

// StallDMATx holds an armed DMA transmit in flight. Releasing the stall
// completes it and raises the DMA transmit interrupt.
func (u *UART) StallDMATx(stall bool) {
	u.change(func() {
		u.txStall = stall
		u.runDMATx()
	})
}

// Peek returns the stored value of r without read side effects.
func (u *UART) Peek(r t32uart.Reg) uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regs[r]
}

// FIFOLen returns the number of bytes waiting in the receive FIFO.
func (u *UART) FIFOLen() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.fifo)
}

// Transmitted returns a copy of every byte written to the line.
func (u *UART) Transmitted() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.tx...)
}

// Writes returns a copy of the register write log.
func (u *UART) Writes() []Access {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Access(nil), u.writes...)
}

// Reads returns a copy of the register read log.
func (u *UART) Reads() []t32uart.Reg {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]t32uart.Reg(nil), u.reads...)
}

// ClearLog forgets logged reads and writes.
func (u *UART) ClearLog() {
	u.mu.Lock()
	u.writes = nil
	u.reads = nil
	u.mu.Unlock()
}
