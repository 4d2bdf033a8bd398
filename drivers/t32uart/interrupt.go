package t32uart

// HandleInterrupt services one interrupt entry of instance id. Board code
// calls it from the instance's interrupt vector. The accumulated events are
// passed to Config.EventHandler after the instance lock is released.
func (d *Driver) HandleInterrupt(id ID) {
	if !d.v.validID(id) {
		return
	}
	in := &d.inst[id]
	if !in.mu.TryLock() {
		// A main-context caller holds the instance with the line briefly
		// unmasked. Leave the interrupt pending and masked; that caller's
		// exit unmasks it and the vector runs again.
		d.p.IRQ.Disable(id)
		d.p.IRQ.SetPending(id)
		d.unmask(id, in)
		return
	}
	if in.state != Powered {
		in.mu.Unlock()
		return
	}
	ev := d.classify(d.p.Regs[id], in)
	handler := in.cfg.EventHandler
	in.mu.Unlock()

	if handler != nil && ev != 0 {
		handler(ev)
	}
}

func (d *Driver) classify(r Registers, in *instance) Event {
	st := d.v.status
	in.stats.interrupts.Add(1)

	var ev Event
	s := st.latch(r)

	if in.cfg.TxDMA && st.dmaTxDone(s) {
		st.ackDMATx(r)
		r.Set(RegDMATxEn, 0)
		in.txDMA = nil
		in.stats.dmaTx.Add(1)
		ev |= EventDMATxComplete
	}

	if in.cfg.RxDMA && st.dmaRxDone(s) {
		st.ackDMARx(r)
		if r.Get(RegDMARxRemain) < RxDMALowWater {
			ev |= EventDMARxBufferLow
		}
		if in.rx != nil {
			ev |= d.drainRxDMA(r, in) | EventDMARxToCallback
		} else {
			ev |= EventDMARxReady
		}
	}

	c := st.pending(r, s)

	if c&condRxData != 0 {
		if in.rx != nil {
			in.queue(byte(r.Get(RegRBR)), &ev)
			d.drainFIFO(r, in, &ev)
			ev |= EventRxToCallback
		} else {
			ev |= EventRxReady
		}
	}

	if c&condTHREmpty != 0 {
		ev |= EventTxComplete
	}

	if c&condLineStatus != 0 {
		lsr := r.Get(RegLSR)
		if lsr&LSROverrun != 0 {
			ev |= EventOverrunError
		}
		if lsr&LSRParity != 0 {
			ev |= EventParityError
		}
		if lsr&LSRFraming != 0 {
			ev |= EventFramingError
		}
		if lsr&LSRBreak != 0 {
			ev |= EventBreak
		}
		st.ackLineStatus(r)
		in.stats.lineErrors.Add(1)
	}

	if c&condCharTimeout != 0 {
		if in.rx != nil {
			if d.drainFIFO(r, in, &ev) == 0 {
				_ = r.Get(RegRBR)
				ev |= EventRxEndedNoData
			} else {
				ev |= EventRxEndedToCallback
			}
		} else {
			ev |= EventRxMaybeReady
		}
	}

	if c&condModemStatus != 0 {
		_ = r.Get(RegMSR)
		ev |= EventFlowControl
	}

	if c&condUnknown != 0 && (ev == 0 || !st.quietUnexpected()) {
		in.stats.unexpected.Add(1)
		ev |= EventUnexpected
	}
	return ev
}

// queue hands b to the delivery queue, flagging an overflow on failure.
func (in *instance) queue(b byte, ev *Event) {
	if in.rx.put(b) {
		in.stats.rxQueued.Add(1)
		return
	}
	in.stats.rxDropped.Add(1)
	*ev |= EventRxQueueOverflow
}

// drainFIFO queues bytes while the FIFO reports data and returns the count.
func (d *Driver) drainFIFO(r Registers, in *instance, ev *Event) int {
	n := 0
	for hasBits(r, RegLSR, LSRDataReady) {
		in.queue(byte(r.Get(RegRBR)), ev)
		n++
	}
	return n
}

// drainRxDMA queues the bytes the DMA engine has written past the cursor.
// The remaining-count register bounds the scan, so zero bytes are payload
// like any other.
func (d *Driver) drainRxDMA(r Registers, in *instance) Event {
	buf := in.cfg.RxDMABuffer
	written := len(buf) - int(r.Get(RegDMARxRemain))
	if written < 0 {
		written = 0
	}
	if in.rxCursor >= written {
		return 0
	}
	chunk := buf[in.rxCursor:written]
	in.rxCursor = written
	in.stats.dmaRxBytes.Add(uint32(len(chunk)))

	n := in.rx.putAll(chunk)
	in.stats.rxQueued.Add(uint32(n))
	if dropped := len(chunk) - n; dropped > 0 {
		in.stats.rxDropped.Add(uint32(dropped))
		return EventRxQueueOverflow
	}
	return 0
}
