package t32uart

import "t32hal-go/errcode"

// Init validates cfg, programs instance id and marks it powered. Init on an
// initialised instance reconfigures it. On failure the instance is left
// uninitialised and the hardware in an unspecified state.
func (d *Driver) Init(id ID, cfg *Config) error {
	if err := d.v.Validate(id, cfg); err != nil {
		return err
	}
	c := *cfg

	in, err := d.enter(id)
	if err != nil {
		return err
	}
	ev, handler := d.settleTxLocked(d.p.Regs[id], in), in.cfg.EventHandler
	old := in.rx
	in.rx = nil
	in.state = Uninitialized
	in.irqOn.Store(false)
	err = d.initLocked(id, in, &c)
	var q *rxQueue
	if err == nil && c.RxCallback != nil {
		// Not started until the old consumer has finished, so callbacks
		// never overlap. The interrupt path may fill it meanwhile.
		q = newRxQueue(c.RxQueueSize, c.RxCallback)
		in.rx = q
	}
	d.exit(id, in)

	if old != nil {
		old.close()
	}
	if q != nil {
		q.start()
	}
	if handler != nil && ev != 0 {
		handler(ev)
	}
	return err
}

func (d *Driver) initLocked(id ID, in *instance, c *Config) error {
	v, r := d.v, d.p.Regs[id]

	if err := d.p.Pins.SetPinMode(c.TX, v.txFunc[id]); err != nil {
		return errcode.Wrap(errcode.PinModeFailed, "init", err)
	}
	if err := d.p.Pins.SetPinMode(c.RX, v.rxFunc[id]); err != nil {
		return errcode.Wrap(errcode.PinModeFailed, "init", err)
	}
	if c.HWFlowControl && id == v.FlowControlID {
		if err := d.p.Pins.SetPinMode(c.RTS, v.rtsFunc); err != nil {
			return errcode.Wrap(errcode.PinModeFailed, "init", err)
		}
		if err := d.p.Pins.SetPinMode(c.CTS, v.ctsFunc); err != nil {
			return errcode.Wrap(errcode.PinModeFailed, "init", err)
		}
	}

	d.p.IRQ.ClearPending(id)
	d.p.Clocks.EnableClock(id)

	r.Set(RegFCR, 0)
	r.Set(RegFCR, FCRClearBoth)
	r.Set(RegIER, 0)

	lcr := lineControl(c)
	v.clock.program(r, d.p.Clocks, id, c.ClockSource, c.Baud, lcr)

	_ = r.Get(RegRBR)
	r.Set(RegMCR, 0)

	r.Set(RegDMARxEn, 0)
	r.Set(RegDMARxLen, 0)
	r.Set(RegDMATxEn, 0)
	r.Set(RegDMATxLen, 0)
	r.Set(RegDMAIER, 0)
	v.status.resetDMA(r)

	if c.RxDMA {
		clear(c.RxDMABuffer)
	}
	fcr := d.armDMA(r, c)
	d.armInterrupts(r, c)

	trig, _ := c.Trigger.fcrBits()
	r.Set(RegFCR, fcr|FCREnable|trig)

	if c.EnableInterrupts {
		d.p.IRQ.SetPriority(id, c.Priority)
		in.irqOn.Store(true)
	} else {
		in.irqOn.Store(false)
	}

	in.cfg = *c
	in.rxCursor = 0
	in.txDMA = nil
	in.state = Powered

	v.clock.enable(r)
	return nil
}

// armDMA enables the DMA interrupts and the receive engine per c. It
// returns the FCR bits the FIFO must keep.
func (d *Driver) armDMA(r Registers, c *Config) uint32 {
	var fcr, ier uint32
	if c.TxDMA {
		ier |= DMAIntTx
		r.Set(RegDMAIER, ier)
		if d.v.status.dmaSelect() {
			fcr |= FCRDMASelect
			r.Set(RegFCR, fcr)
		}
	}
	if c.RxDMA {
		ier |= DMAIntRx
		r.Set(RegDMAIER, ier)
		if d.v.status.dmaSelect() {
			fcr |= FCRDMASelect
			r.Set(RegFCR, fcr)
		}
		r.Set(RegDMARxAddr, d.p.Mem.Addr(c.RxDMABuffer))
		r.Set(RegDMARxLen, uint32(len(c.RxDMABuffer)))
		r.Set(RegDMARxEn, 1)
	}
	return fcr
}

func (d *Driver) armInterrupts(r Registers, c *Config) {
	var ier uint32
	if c.HWFlowControl {
		r.Set(RegMCR, MCRRTS|MCRAutoFlow)
		ier |= IERLineStatus | IERModemStatus
		r.Set(RegIER, ier)
	}
	if c.EnableInterrupts {
		ier |= IERLineStatus | IERTHREmpty | IERRxData
		r.Set(RegIER, ier)
	}
}

// Uninit powers id off, returns its pads to GPIO and forgets it. Pending
// callback deliveries complete before Uninit returns.
func (d *Driver) Uninit(id ID) error {
	in, err := d.enter(id)
	if err != nil {
		return err
	}
	if in.state == Uninitialized {
		d.exit(id, in)
		return errcode.NotInitialized
	}
	handler := in.cfg.EventHandler
	ev := d.powerOffLocked(id, in)

	pins := d.p.Pins
	_ = pins.SetPinMode(in.cfg.TX, FuncGPIO)
	_ = pins.SetPinMode(in.cfg.RX, FuncGPIO)
	if in.cfg.HWFlowControl {
		_ = pins.SetPinMode(in.cfg.RTS, FuncGPIO)
		_ = pins.SetPinMode(in.cfg.CTS, FuncGPIO)
	}
	in.state = Uninitialized
	q := in.rx
	in.rx = nil
	d.exit(id, in)

	if q != nil {
		q.close()
	}
	if handler != nil && ev != 0 {
		handler(ev)
	}
	return nil
}

// PowerOff gates id's clock and quiesces its FIFO, DMA and interrupts. The
// configuration is kept for PowerOn. Powering off an instance that is
// already off succeeds without touching hardware. A DMA transmit still in
// flight is reported to the event handler as EventDMATxAborted.
func (d *Driver) PowerOff(id ID) error {
	in, err := d.enter(id)
	if err != nil {
		return err
	}
	switch in.state {
	case Uninitialized:
		d.exit(id, in)
		return errcode.NotInitialized
	case PoweredOff:
		d.exit(id, in)
		return nil
	}
	handler := in.cfg.EventHandler
	ev := d.powerOffLocked(id, in)
	d.exit(id, in)

	if handler != nil && ev != 0 {
		handler(ev)
	}
	return nil
}

// powerOffLocked quiesces a powered instance and returns the transmit
// event the caller must deliver once the lock is released.
func (d *Driver) powerOffLocked(id ID, in *instance) Event {
	if in.state != Powered {
		return 0
	}
	r := d.p.Regs[id]

	// Bytes already written by DMA would otherwise be lost when the
	// engine restarts at the top of the buffer.
	if in.cfg.RxDMA && in.rx != nil {
		d.drainRxDMA(r, in)
	}

	d.p.IRQ.Disable(id)
	d.p.IRQ.ClearPending(id)
	in.irqOn.Store(false)
	d.p.Clocks.DisableClock(id)

	ev := d.settleTxLocked(r, in)
	r.Set(RegDMARxEn, 0)
	r.Set(RegDMARxLen, 0)
	r.Set(RegDMATxEn, 0)
	r.Set(RegDMATxLen, 0)

	r.Set(RegFCR, 0)
	r.Set(RegFCR, FCRClearBoth)
	if !in.cfg.WakeOnInterrupt {
		r.Set(RegIER, 0)
	}
	in.state = PoweredOff
	return ev
}

// settleTxLocked releases a DMA transmit buffer the interrupt path has not
// yet retired. A transfer that ran to completion whose interrupt was never
// serviced counts as complete.
func (d *Driver) settleTxLocked(r Registers, in *instance) Event {
	if in.txDMA == nil || in.state != Powered {
		return 0
	}
	in.txDMA = nil
	if r.Get(RegDMATxRemain) == 0 {
		in.stats.dmaTx.Add(1)
		return EventDMATxComplete
	}
	return EventDMATxAborted
}

// PowerOn restores a powered-off instance from its stored configuration
// without revalidating it or touching its pads.
func (d *Driver) PowerOn(id ID) error {
	in, err := d.enter(id)
	if err != nil {
		return err
	}
	defer d.exit(id, in)
	switch in.state {
	case Uninitialized:
		return errcode.NotInitialized
	case Powered:
		return nil
	}
	r, c := d.p.Regs[id], &in.cfg

	d.p.IRQ.ClearPending(id)
	d.p.Clocks.EnableClock(id)
	r.Set(RegFCR, 0)
	r.Set(RegFCR, FCRClearBoth)

	if c.RxDMA {
		clear(c.RxDMABuffer)
	}
	fcr := d.armDMA(r, c)
	d.armInterrupts(r, c)

	trig, _ := c.Trigger.fcrBits()
	r.Set(RegFCR, fcr|FCREnable|trig)

	if c.EnableInterrupts {
		d.p.IRQ.SetPriority(id, c.Priority)
		in.irqOn.Store(true)
	}
	in.rxCursor = 0
	in.state = Powered
	return nil
}

// SetPowerMode retargets the baud-rate clock for a system power mode. In
// PowerModeLiteSleep an instance configured with RunWhenSleeping moves to
// its sleep clock and rate; other instances are left alone. PowerModeWake
// restores the normal clock and rate.
func (d *Driver) SetPowerMode(id ID, mode PowerMode) error {
	if !d.v.SupportsPowerModes() {
		return errcode.Unsupported
	}
	in, err := d.enter(id)
	if err != nil {
		return err
	}
	defer d.exit(id, in)
	if in.state == Uninitialized {
		return errcode.NotInitialized
	}
	r, c := d.p.Regs[id], &in.cfg
	switch mode {
	case PowerModeWake:
		d.v.clock.program(r, d.p.Clocks, id, c.ClockSource, c.Baud, lineControl(c))
	case PowerModeLiteSleep:
		if !c.RunWhenSleeping {
			return nil
		}
		if err := d.p.Clocks.EnableSleepClock(c.SleepClockSource); err != nil {
			return errcode.Wrap(errcode.ClockFailed, "set power mode", err)
		}
		d.v.clock.program(r, d.p.Clocks, id, c.SleepClockSource, c.SleepBaud, lineControl(c))
	default:
		return errcode.InvalidPowerMode
	}
	return nil
}
