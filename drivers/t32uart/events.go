package t32uart

import "strings"

// Event is the bitmask handed to Config.EventHandler after each interrupt.
// Several bits may be set at once.
type Event uint32

const (
	EventDMATxComplete   Event = 1 << iota // DMA transmit finished; buffer released
	EventDMARxBufferLow                    // fewer than RxDMALowWater bytes left in the DMA buffer
	EventDMARxToCallback                   // DMA bytes forwarded to the receive callback
	EventDMARxReady                        // DMA bytes waiting for the application
	EventRxToCallback                      // FIFO bytes forwarded to the receive callback
	EventRxReady                           // FIFO data ready to be polled
	EventTxComplete                        // transmit holding register empty
	EventOverrunError
	EventParityError
	EventFramingError
	EventBreak
	EventRxEndedNoData     // character timeout with an empty FIFO
	EventRxEndedToCallback // character timeout drained into the callback
	EventRxMaybeReady      // character timeout without a callback
	EventFlowControl       // modem status change
	EventUnexpected        // no known condition matched
	EventRxQueueOverflow   // the deferred delivery queue dropped bytes
	EventDMATxAborted      // power-off stopped a DMA transmit before it finished
)

var eventNames = [...]string{
	"dma-tx-complete", "dma-rx-buffer-low", "dma-rx-to-callback", "dma-rx-ready",
	"rx-to-callback", "rx-ready", "tx-complete", "overrun", "parity", "framing",
	"break", "rx-ended-no-data", "rx-ended-to-callback", "rx-maybe-ready",
	"flow-control", "unexpected", "rx-queue-overflow", "dma-tx-aborted",
}

// Has reports whether every bit of f is set in e.
func (e Event) Has(f Event) bool { return e&f == f }

func (e Event) String() string {
	if e == 0 {
		return "none"
	}
	var sb strings.Builder
	for i, n := range eventNames {
		if e&(1<<i) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(n)
	}
	return sb.String()
}
