package t32uart

import "strconv"

// ID selects one of the UART instances.
type ID uint8

const (
	UART0 ID = iota
	UART1
	UART2

	MaxInstances = 3
)

func (id ID) String() string { return "uart" + strconv.Itoa(int(id)) }

// BaudRate is a closed set of supported line rates. BaudInvalid is the
// sentinel produced by BaudRateFromValue for anything outside the set.
type BaudRate uint8

const (
	Baud2400 BaudRate = iota
	Baud4800
	Baud9600
	Baud14400
	Baud19200
	Baud28800
	Baud38400
	Baud57600
	Baud76800
	Baud115200
	Baud230400
	Baud500000
	Baud1000000
	Baud2000000

	BaudInvalid
)

const numBauds = int(BaudInvalid)

var baudValues = [numBauds]uint32{
	2400, 4800, 9600, 14400, 19200, 28800, 38400, 57600, 76800,
	115200, 230400, 500000, 1000000, 2000000,
}

// Value returns the rate in bits per second, or 0 for BaudInvalid.
func (b BaudRate) Value() uint32 {
	if b >= BaudInvalid {
		return 0
	}
	return baudValues[b]
}

func (b BaudRate) String() string {
	if b >= BaudInvalid {
		return "invalid"
	}
	return strconv.FormatUint(uint64(baudValues[b]), 10)
}

// BaudRateFromValue maps a numeric rate onto the enumeration.
func BaudRateFromValue(v uint32) BaudRate {
	for i, bv := range baudValues {
		if bv == v {
			return BaudRate(i)
		}
	}
	return BaudInvalid
}

// DataBits is the character width.
type DataBits uint8

const (
	DataBits5 DataBits = iota
	DataBits6
	DataBits7
	DataBits8

	DataBitsInvalid
)

// Value returns the number of data bits, or 0 for DataBitsInvalid.
func (d DataBits) Value() uint8 {
	if d >= DataBitsInvalid {
		return 0
	}
	return uint8(d) + 5
}

func DataBitsFromValue(v uint8) DataBits {
	if v < 5 || v > 8 {
		return DataBitsInvalid
	}
	return DataBits(v - 5)
}

// StopBits is the number of stop bits.
type StopBits uint8

const (
	StopBits1 StopBits = iota
	StopBits2

	StopBitsInvalid
)

func (s StopBits) Value() uint8 {
	if s >= StopBitsInvalid {
		return 0
	}
	return uint8(s) + 1
}

func StopBitsFromValue(v uint8) StopBits {
	switch v {
	case 1:
		return StopBits1
	case 2:
		return StopBits2
	}
	return StopBitsInvalid
}

// Parity selects the parity scheme.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace

	ParityInvalid
)

var parityNames = [...]string{"none", "odd", "even", "mark", "space"}

func (p Parity) String() string {
	if p >= ParityInvalid {
		return "invalid"
	}
	return parityNames[p]
}

// ParseParity maps a lower-case name onto Parity.
func ParseParity(s string) Parity {
	for i, n := range parityNames {
		if n == s {
			return Parity(i)
		}
	}
	return ParityInvalid
}

// Trigger is the receive FIFO level, in bytes, that raises a data-ready
// interrupt. Only 1, 4, 8 and 14 are legal.
type Trigger uint8

const (
	Trigger1  Trigger = 1
	Trigger4  Trigger = 4
	Trigger8  Trigger = 8
	Trigger14 Trigger = 14
)

// fcrBits returns the FCR trigger field and whether t is legal.
func (t Trigger) fcrBits() (uint32, bool) {
	switch t {
	case Trigger1:
		return 0 << FCRTriggerShift, true
	case Trigger4:
		return 1 << FCRTriggerShift, true
	case Trigger8:
		return 2 << FCRTriggerShift, true
	case Trigger14:
		return 3 << FCRTriggerShift, true
	}
	return 0, false
}

// ClockSource selects the UART reference clock on variants with a mux.
type ClockSource uint8

const (
	ClockPeri32M ClockSource = iota
	ClockRCO16M
	ClockRCO1M
	ClockRCO32K

	ClockInvalid
)

var clockNames = [...]string{"peri32m", "rco16m", "rco1m", "rco32k"}

func (c ClockSource) String() string {
	if c >= ClockInvalid {
		return "invalid"
	}
	return clockNames[c]
}

// ParseClockSource maps a lower-case name onto ClockSource. The empty
// string selects ClockPeri32M.
func ParseClockSource(s string) ClockSource {
	if s == "" {
		return ClockPeri32M
	}
	for i, n := range clockNames {
		if n == s {
			return ClockSource(i)
		}
	}
	return ClockInvalid
}

// PowerMode is a system power mode for SetPowerMode.
type PowerMode uint8

const (
	PowerModeWake PowerMode = iota
	PowerModeLiteSleep
	PowerModeDeepSleep
)

// RxStatus is the tri-state outcome of a raw receive.
type RxStatus uint8

const (
	RxNoData  RxStatus = iota // nothing was available
	RxMore                    // data returned and more remains
	RxDrained                 // data returned and the FIFO is now empty
)

func (s RxStatus) String() string {
	switch s {
	case RxNoData:
		return "no-data"
	case RxMore:
		return "more"
	case RxDrained:
		return "drained"
	}
	return "invalid"
}

// Pin is a GPIO pad number.
type Pin uint8

// NoPin marks an unused pin slot.
const NoPin Pin = 0xFF

// PinFunction is a variant-specific pad multiplexer selection.
type PinFunction uint8

// FuncGPIO returns a pad to plain GPIO on every variant.
const FuncGPIO PinFunction = 0
