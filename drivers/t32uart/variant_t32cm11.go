package t32uart

import (
	"t32hal-go/errcode"
	"t32hal-go/x/mathx"
)

// T32CM11 pad functions.
const (
	cm11UART0TX PinFunction = 1 + iota
	cm11UART0RX
	cm11UART1TX
	cm11UART1RX
	cm11UART2TX
	cm11UART2RX
	cm11UART1RTS
	cm11UART1CTS
)

// T32CM11UARTClockHz is the fixed UART reference clock.
const T32CM11UARTClockHz = 32_000_000

// T32CM11 is the 16550-style family: DLAB divisor access, a single fixed
// reference clock, priority-encoded IIR and a separate DMA status register.
var T32CM11 = &Variant{
	Name:          "t32cm11",
	Family:        FamilyCM11,
	Instances:     3,
	FlowControlID: UART1,
	Bases:         [MaxInstances]uintptr{0x40005000, 0x40006000, 0x40007000},
	txrx: [MaxInstances][]PinPair{
		{{17, 16}},
		{{28, 29}, {4, 5}, {10, 11}},
		{{30, 31}, {6, 7}, {8, 9}},
	},
	rtscts:  []PinPair{{20, 21}, {14, 15}},
	txFunc:  [MaxInstances]PinFunction{cm11UART0TX, cm11UART1TX, cm11UART2TX},
	rxFunc:  [MaxInstances]PinFunction{cm11UART0RX, cm11UART1RX, cm11UART2RX},
	rtsFunc: cm11UART1RTS,
	ctsFunc: cm11UART1CTS,
	offsets: cm11Offsets(),
	clock:   dlabClock{hz: T32CM11UARTClockHz},
	status:  priorityStatus{},
}

func cm11Offsets() [NumRegs]uint16 {
	o := newOffsets()
	o[RegRBR], o[RegTHR], o[RegDLL] = 0x00, 0x00, 0x00
	o[RegIER], o[RegDLM] = 0x04, 0x04
	o[RegIIR], o[RegFCR] = 0x08, 0x08
	o[RegLCR] = 0x0C
	o[RegMCR] = 0x10
	o[RegLSR] = 0x14
	o[RegMSR] = 0x18
	o[RegSCR] = 0x1C
	o[RegDMAIER] = 0x30
	o[RegDMAStatus] = 0x34
	o[RegDMARxAddr] = 0x38
	o[RegDMARxLen] = 0x3C
	o[RegDMARxEn] = 0x40
	o[RegDMARxRemain] = 0x44
	o[RegDMATxAddr] = 0x48
	o[RegDMATxLen] = 0x4C
	o[RegDMATxEn] = 0x50
	o[RegDMATxRemain] = 0x54
	return o
}

// dlabClock programs the divisor latch behind LCR.DLAB.
type dlabClock struct{ hz uint32 }

func (c dlabClock) checkBaud(_ ClockSource, b BaudRate) error {
	if b > Baud1000000 {
		return errcode.InvalidBaudRate
	}
	return nil
}

// divisor returns the 16x-oversampled divisor for b.
func (c dlabClock) divisor(b BaudRate) uint32 {
	return mathx.RoundDiv(c.hz, 16*b.Value())
}

func (c dlabClock) program(r Registers, _ ClockGate, _ ID, _ ClockSource, b BaudRate, lcr uint32) {
	div := c.divisor(b)
	r.Set(RegLCR, LCRDLAB|(lcr&LCRWordLenMask))
	r.Set(RegDLL, div&0xFF)
	r.Set(RegDLM, (div>>8)&0xFF)
	r.Set(RegLCR, lcr)
}

func (dlabClock) enable(Registers) {}

func (dlabClock) powerModes() bool { return false }

// priorityStatus decodes the 16550 IIR code and the W1C DMA status register.
type priorityStatus struct{}

func (priorityStatus) latch(r Registers) uint32 { return r.Get(RegDMAStatus) }

func (priorityStatus) dmaTxDone(s uint32) bool { return s&DMAIntTx != 0 }
func (priorityStatus) dmaRxDone(s uint32) bool { return s&DMAIntRx != 0 }

func (priorityStatus) ackDMATx(r Registers) { r.Set(RegDMAStatus, DMAIntTx) }
func (priorityStatus) ackDMARx(r Registers) { r.Set(RegDMAStatus, DMAIntRx) }

func (priorityStatus) pending(r Registers, _ uint32) conditions {
	switch r.Get(RegIIR) & IIRCodeMask {
	case IIRNonePending:
		return 0
	case IIRRxData:
		return condRxData
	case IIRTHREmpty:
		return condTHREmpty
	case IIRLineStatus:
		return condLineStatus
	case IIRCharTimeout:
		return condCharTimeout
	case IIRModemStatus:
		return condModemStatus
	}
	return condUnknown
}

// Reading LSR clears the latched errors.
func (priorityStatus) ackLineStatus(Registers) {}

func (priorityStatus) resetDMA(r Registers) { r.Set(RegDMAStatus, DMAIntRx|DMAIntTx) }

func (priorityStatus) dmaSelect() bool       { return false }
func (priorityStatus) quietUnexpected() bool { return false }
