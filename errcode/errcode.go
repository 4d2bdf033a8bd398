package errcode

// Code is a stable error identifier returned by the HAL drivers.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK          Code = "ok"
	Unsupported Code = "unsupported"
	Timeout     Code = "timeout"

	// Configuration errors, detected before any register is touched.
	InvalidID              Code = "invalid_id"
	NullConfig             Code = "null_config"
	InvalidPins            Code = "invalid_pins"
	InvalidBaudRate        Code = "invalid_baud_rate"
	InvalidClockSource     Code = "invalid_clock_source"
	InvalidDataBits        Code = "invalid_data_bits"
	InvalidStopBits        Code = "invalid_stop_bits"
	InvalidParity          Code = "invalid_parity"
	InvalidTrigger         Code = "invalid_trigger"
	DMABufferMissing       Code = "dma_buffer_missing"
	DMABufferTooSmall      Code = "dma_buffer_too_small"
	DMABufferMisaligned    Code = "dma_buffer_misaligned"
	FlowControlUnsupported Code = "flow_control_unsupported"

	// Lifecycle and ownership errors.
	NotInitialized    Code = "not_initialized"
	NotPowered        Code = "not_powered"
	RxOwnedByCallback Code = "rx_owned_by_callback"
	RxOwnedByDMA      Code = "rx_owned_by_dma"
	TxOwnedByDMA      Code = "tx_owned_by_dma"
	DMANotEnabled     Code = "dma_not_enabled"
	InvalidPowerMode  Code = "invalid_power_mode"

	// Collaborator failures.
	PinModeFailed Code = "pin_mode_failed"
	ClockFailed   Code = "clock_failed"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the failing operation and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, code) match a wrapped E against its bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap returns an *E for op carrying c and cause err.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
