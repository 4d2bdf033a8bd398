package t32uart

// DMA receive constraints.
const (
	MinRxDMABuffer = 32 // smallest accepted receive DMA buffer, bytes
	RxDMAAlign     = 4  // receive DMA buffer length granularity
	RxDMALowWater  = 16 // remaining-byte threshold for EventDMARxBufferLow
)

// Deferred receive queue sizing. Sizes are rounded up to a power of two.
const (
	DefaultRxQueueSize = 256
	MinRxQueueSize     = 16
	MaxRxQueueSize     = 4096
)

// Config describes one UART instance. Init copies it; later changes to the
// caller's value have no effect until the next Init.
type Config struct {
	TX, RX   Pin
	RTS, CTS Pin // used only with HWFlowControl on the flow-control instance

	Baud     BaudRate
	DataBits DataBits
	StopBits StopBits
	Parity   Parity
	Trigger  Trigger

	// ClockSource is honoured by variants with a clock mux and ignored
	// otherwise.
	ClockSource ClockSource

	HWFlowControl    bool
	EnableInterrupts bool // chip-level interrupt enables and controller unmask
	RxDMA            bool
	TxDMA            bool
	WakeOnInterrupt  bool // keep IER armed across PowerOff

	// RunWhenSleeping switches to SleepClockSource and SleepBaud when
	// SetPowerMode enters a sleep mode.
	RunWhenSleeping  bool
	SleepClockSource ClockSource
	SleepBaud        BaudRate

	// RxDMABuffer is the receive DMA target. Its length must be at least
	// MinRxDMABuffer and a multiple of RxDMAAlign.
	RxDMABuffer []byte

	// RxCallback, when set, owns reception. Bytes are queued from the
	// interrupt path and delivered in order on a dedicated goroutine.
	RxCallback func(b byte)

	// EventHandler receives the event mask of each interrupt that produced
	// at least one event. It runs after the instance lock is released.
	EventHandler func(ev Event)

	Priority    uint8
	RxQueueSize int // deferred delivery queue; 0 selects DefaultRxQueueSize
}

// DefaultConfig returns 115200 8N1 with a one-byte trigger on the given
// pins, using polled I/O.
func DefaultConfig(tx, rx Pin) Config {
	return Config{
		TX:               tx,
		RX:               rx,
		RTS:              NoPin,
		CTS:              NoPin,
		Baud:             Baud115200,
		DataBits:         DataBits8,
		StopBits:         StopBits1,
		Parity:           ParityNone,
		Trigger:          Trigger1,
		ClockSource:      ClockPeri32M,
		SleepClockSource: ClockRCO32K,
		SleepBaud:        Baud9600,
	}
}

// lineControl returns the LCR value for the configured character format
// with DLAB clear.
func lineControl(c *Config) uint32 {
	lcr := uint32(c.DataBits) & LCRWordLenMask
	if c.StopBits == StopBits2 {
		lcr |= LCRStopBits2
	}
	switch c.Parity {
	case ParityOdd:
		lcr |= LCRParityOn
	case ParityEven:
		lcr |= LCRParityOn | LCREvenParity
	case ParityMark:
		lcr |= LCRParityOn | LCRStickParity
	case ParitySpace:
		lcr |= LCRParityOn | LCREvenParity | LCRStickParity
	}
	return lcr
}
