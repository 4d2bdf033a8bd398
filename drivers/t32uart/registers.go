package t32uart

// Reg identifies a UART register independently of its bus offset. Each
// Variant maps the ids it implements onto its own offset table.
type Reg uint8

const (
	RegRBR       Reg = iota // receive buffer (read)
	RegTHR                  // transmit holding (write)
	RegDLL                  // divisor latch, low byte
	RegDLM                  // divisor latch, high byte
	RegIER                  // interrupt enable
	RegIIR                  // interrupt identification (read; W1C DMA bits on T32CZ20)
	RegFCR                  // FIFO control (write)
	RegLCR                  // line control
	RegMCR                  // modem control
	RegLSR                  // line status
	RegMSR                  // modem status
	RegSCR                  // scratch
	RegFDL                  // fractional divisor in eighths (T32CZ20)
	RegLSM                  // low-speed sampling mode (T32CZ20)
	RegEN                   // master and wake enable (T32CZ20)
	RegDMAIER               // DMA interrupt enable
	RegDMAStatus            // DMA interrupt status, W1C (T32CM11)
	RegDMARxAddr
	RegDMARxLen
	RegDMARxEn
	RegDMARxRemain
	RegDMATxAddr
	RegDMATxLen
	RegDMATxEn
	RegDMATxRemain

	NumRegs
)

var regNames = [NumRegs]string{
	"RBR", "THR", "DLL", "DLM", "IER", "IIR", "FCR", "LCR", "MCR", "LSR", "MSR",
	"SCR", "FDL", "LSM", "EN", "DMA_IER", "DMA_STATUS", "DMA_RX_ADDR",
	"DMA_RX_LEN", "DMA_RX_EN", "DMA_RX_REMAIN", "DMA_TX_ADDR", "DMA_TX_LEN",
	"DMA_TX_EN", "DMA_TX_REMAIN",
}

func (r Reg) String() string {
	if r < NumRegs {
		return regNames[r]
	}
	return "REG?"
}

// noReg marks a register id the variant does not implement.
const noReg = 0xFFFF

// IER bits.
const (
	IERRxData      = 1 << 0
	IERTHREmpty    = 1 << 1
	IERLineStatus  = 1 << 2
	IERModemStatus = 1 << 3
)

// FCR bits. The receive trigger level occupies bits 7:6.
const (
	FCREnable    = 1 << 0
	FCRRxReset   = 1 << 1
	FCRTxReset   = 1 << 2
	FCRDMASelect = 1 << 3 // T32CZ20 only

	FCRClearBoth    = FCRRxReset | FCRTxReset
	FCRTriggerShift = 6
	FCRTriggerMask  = 0x3 << FCRTriggerShift
)

// LCR bits.
const (
	LCRWordLenMask = 0x03 // 0..3 = 5..8 data bits
	LCRStopBits2   = 1 << 2
	LCRParityOn    = 1 << 3
	LCREvenParity  = 1 << 4
	LCRStickParity = 1 << 5
	LCRDLAB        = 1 << 7 // divisor latch access (T32CM11)
)

// MCR bits.
const (
	MCRRTS      = 1 << 1
	MCRAutoFlow = 1 << 5
)

// LSR bits.
const (
	LSRDataReady  = 1 << 0
	LSROverrun    = 1 << 1
	LSRParity     = 1 << 2
	LSRFraming    = 1 << 3
	LSRBreak      = 1 << 4
	LSRTHREmpty   = 1 << 5
	LSRTxEmpty    = 1 << 6
	LSRErrorMask  = LSROverrun | LSRParity | LSRFraming | LSRBreak
	LSRClearLatch = LSRErrorMask // write-back pattern on T32CZ20
)

// IIR on T32CM11: priority-encoded value in bits 3:0.
const (
	IIRCodeMask    = 0x0F
	IIRModemStatus = 0x00
	IIRNonePending = 0x01
	IIRTHREmpty    = 0x02
	IIRRxData      = 0x04
	IIRLineStatus  = 0x06
	IIRCharTimeout = 0x0C
)

// IIR on T32CZ20: independent pending bits.
const (
	IIRBitRxData      = 1 << 0
	IIRBitTHREmpty    = 1 << 1
	IIRBitLineStatus  = 1 << 2
	IIRBitModemStatus = 1 << 3
	IIRBitCharTimeout = 1 << 4
	IIRBitDMARx       = 1 << 5
	IIRBitDMATx       = 1 << 6

	IIRBitsMask = IIRBitRxData | IIRBitTHREmpty | IIRBitLineStatus |
		IIRBitModemStatus | IIRBitCharTimeout
)

// DMA interrupt enable / status bits.
const (
	DMAIntRx = 1 << 0
	DMAIntTx = 1 << 1
)

// EN bits (T32CZ20).
const (
	ENUart = 1 << 0
	ENWake = 1 << 1
)

// LSM bits (T32CZ20).
const LSMLowSpeed = 1 << 0

// Registers is the access primitive for one UART instance. Implementations
// are the MMIO block on hardware and the simulator on host builds. Get and
// Set must be safe to call from the interrupt path.
type Registers interface {
	Get(r Reg) uint32
	Set(r Reg, v uint32)
}

func hasBits(r Registers, reg Reg, mask uint32) bool { return r.Get(reg)&mask != 0 }
