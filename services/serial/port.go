// Package serial frames bytes received on a UART port into events.
package serial

import "context"

// Port is the byte-stream surface a UART exposes to services.
type Port interface {
	WriteByte(b byte) error
	Write(p []byte) (int, error)
	Buffered() int
	Read(p []byte) (int, error)
	Readable() <-chan struct{}
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Mode selects how received bytes are framed.
type Mode string

const (
	ModeBytes Mode = "bytes"
	ModeLines Mode = "lines"
)

// ParseMode maps a config string to a Mode. Empty selects bytes.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeBytes:
		return ModeBytes, true
	case ModeLines:
		return ModeLines, true
	}
	return "", false
}
