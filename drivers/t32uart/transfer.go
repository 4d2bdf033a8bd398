package t32uart

import (
	"runtime"

	"t32hal-go/errcode"
)

// ready enters the critical section for id and checks that the instance
// can move data. On success the caller must exit.
func (d *Driver) ready(id ID) (*instance, error) {
	in, err := d.enter(id)
	if err != nil {
		return nil, err
	}
	switch in.state {
	case Uninitialized:
		d.exit(id, in)
		return nil, errcode.NotInitialized
	case PoweredOff:
		d.exit(id, in)
		return nil, errcode.NotPowered
	}
	return in, nil
}

func (in *instance) rxOwned() error {
	if in.cfg.RxCallback != nil {
		return errcode.RxOwnedByCallback
	}
	if in.cfg.RxDMA {
		return errcode.RxOwnedByDMA
	}
	return nil
}

func rxStatus(r Registers) RxStatus {
	if hasBits(r, RegLSR, LSRDataReady) {
		return RxMore
	}
	return RxDrained
}

// RawRxOneByte polls one byte from the receive FIFO. RxNoData is a normal
// outcome, not an error.
func (d *Driver) RawRxOneByte(id ID) (byte, RxStatus, error) {
	in, err := d.ready(id)
	if err != nil {
		return 0, RxNoData, err
	}
	defer d.exit(id, in)
	if err := in.rxOwned(); err != nil {
		return 0, RxNoData, err
	}
	r := d.p.Regs[id]
	if !hasBits(r, RegLSR, LSRDataReady) {
		return 0, RxNoData, nil
	}
	b := byte(r.Get(RegRBR))
	return b, rxStatus(r), nil
}

// RawRxAvailableBytes drains the receive FIFO into buf until it is full or
// the FIFO is empty, returning the count read.
func (d *Driver) RawRxAvailableBytes(id ID, buf []byte) (int, RxStatus, error) {
	in, err := d.ready(id)
	if err != nil {
		return 0, RxNoData, err
	}
	defer d.exit(id, in)
	if err := in.rxOwned(); err != nil {
		return 0, RxNoData, err
	}
	r := d.p.Regs[id]
	n := 0
	for n < len(buf) && hasBits(r, RegLSR, LSRDataReady) {
		buf[n] = byte(r.Get(RegRBR))
		n++
	}
	st := rxStatus(r)
	if n == 0 && st == RxDrained {
		return 0, RxNoData, nil
	}
	return n, st, nil
}

// RawTxOneByte writes b once the transmit holding register is empty. It
// blocks without a timeout.
func (d *Driver) RawTxOneByte(id ID, b byte) error {
	return d.RawTxBuffer(id, []byte{b})
}

// RawTxBuffer writes p byte by byte, waiting for the transmit holding
// register before each one. It blocks without a timeout.
func (d *Driver) RawTxBuffer(id ID, p []byte) error {
	in, err := d.ready(id)
	if err != nil {
		return err
	}
	dma := in.cfg.TxDMA
	d.exit(id, in)
	if dma {
		return errcode.TxOwnedByDMA
	}

	r := d.p.Regs[id]
	for _, b := range p {
		for !hasBits(r, RegLSR, LSRTHREmpty) {
			runtime.Gosched()
		}
		r.Set(RegTHR, uint32(b))
	}
	in.stats.txBytes.Add(uint32(len(p)))
	return nil
}

// TxActive reports whether the transmitter is still shifting data. It works
// on any valid instance, initialised or not.
func (d *Driver) TxActive(id ID) (bool, error) {
	if !d.v.validID(id) {
		return false, errcode.InvalidID
	}
	return !hasBits(d.p.Regs[id], RegLSR, LSRTxEmpty), nil
}

// DMATxBytesInBuffer starts a DMA transmit of buf and returns at once.
// EventDMATxComplete signals that buf may be reused.
func (d *Driver) DMATxBytesInBuffer(id ID, buf []byte) error {
	in, err := d.ready(id)
	if err != nil {
		return err
	}
	defer d.exit(id, in)
	if !in.cfg.TxDMA {
		return errcode.DMANotEnabled
	}
	if len(buf) == 0 {
		return nil
	}
	r := d.p.Regs[id]
	in.txDMA = buf
	r.Set(RegDMATxEn, 0)
	r.Set(RegDMATxAddr, d.p.Mem.Addr(buf))
	r.Set(RegDMATxLen, uint32(len(buf)))
	r.Set(RegDMATxEn, 1)
	return nil
}

// DMAChangeRxBuffer points the receive DMA engine at buf. With a receive
// callback, bytes already written to the old buffer are delivered first.
// Without one, the caller must have consumed the old buffer.
func (d *Driver) DMAChangeRxBuffer(id ID, buf []byte) error {
	in, err := d.ready(id)
	if err != nil {
		return err
	}
	defer d.exit(id, in)
	if !in.cfg.RxDMA {
		return errcode.DMANotEnabled
	}
	if len(buf) < MinRxDMABuffer {
		return errcode.DMABufferTooSmall
	}
	r := d.p.Regs[id]
	if in.rx != nil {
		d.drainRxDMA(r, in)
	}
	// Address and length latch only on the disabled-to-enabled edge.
	r.Set(RegDMARxEn, 0)
	r.Set(RegDMARxAddr, d.p.Mem.Addr(buf))
	r.Set(RegDMARxLen, uint32(len(buf)))
	r.Set(RegDMARxEn, 1)
	in.cfg.RxDMABuffer = buf
	in.rxCursor = 0
	return nil
}

// DMAReceiveBufferNumBytesLeft returns the receive DMA remaining count.
func (d *Driver) DMAReceiveBufferNumBytesLeft(id ID) (uint32, error) {
	in, err := d.ready(id)
	if err != nil {
		return 0, err
	}
	defer d.exit(id, in)
	if !in.cfg.RxDMA {
		return 0, errcode.DMANotEnabled
	}
	return d.p.Regs[id].Get(RegDMARxRemain), nil
}

// SetTxRxPins moves instance id to another legal pad pair. On an
// initialised instance the previous pads are returned to GPIO.
func (d *Driver) SetTxRxPins(id ID, tx, rx Pin) error {
	if !d.v.validID(id) {
		return errcode.InvalidID
	}
	if !d.v.CheckPinsValid(id, tx, rx) {
		return errcode.InvalidPins
	}
	in, _ := d.enter(id)
	defer d.exit(id, in)
	return d.movePins(in, &in.cfg.TX, &in.cfg.RX, tx, rx, d.v.txFunc[id], d.v.rxFunc[id])
}

// SetRtsCtsPins moves the flow-control pads of the flow-control instance.
func (d *Driver) SetRtsCtsPins(id ID, rts, cts Pin) error {
	if !d.v.validID(id) {
		return errcode.InvalidID
	}
	if id != d.v.FlowControlID {
		return errcode.FlowControlUnsupported
	}
	if !d.v.CheckFlowPinsValid(id, rts, cts) {
		return errcode.InvalidPins
	}
	in, _ := d.enter(id)
	defer d.exit(id, in)
	return d.movePins(in, &in.cfg.RTS, &in.cfg.CTS, rts, cts, d.v.rtsFunc, d.v.ctsFunc)
}

func (d *Driver) movePins(in *instance, curA, curB *Pin, a, b Pin, fa, fb PinFunction) error {
	pins := d.p.Pins
	if err := pins.SetPinMode(a, fa); err != nil {
		return errcode.Wrap(errcode.PinModeFailed, "set pins", err)
	}
	if err := pins.SetPinMode(b, fb); err != nil {
		return errcode.Wrap(errcode.PinModeFailed, "set pins", err)
	}
	if in.state == Uninitialized {
		return nil
	}
	if *curA != a && *curA != b && *curA != NoPin {
		_ = pins.SetPinMode(*curA, FuncGPIO)
	}
	if *curB != a && *curB != b && *curB != NoPin {
		_ = pins.SetPinMode(*curB, FuncGPIO)
	}
	*curA, *curB = a, b
	return nil
}
