package t32uart

import "t32hal-go/errcode"

// Validate checks cfg for instance id without touching hardware. Checks run
// in a fixed order and the first failure wins: instance, pins, baud rate
// and clock, DMA buffer, trigger level, flow control, character format,
// sleep parameters.
func (v *Variant) Validate(id ID, cfg *Config) error {
	if !v.validID(id) {
		return errcode.InvalidID
	}
	if cfg == nil {
		return errcode.NullConfig
	}
	if !v.CheckPinsValid(id, cfg.TX, cfg.RX) {
		return errcode.InvalidPins
	}
	if err := v.clock.checkBaud(cfg.ClockSource, cfg.Baud); err != nil {
		return err
	}
	if cfg.RxDMA {
		switch n := len(cfg.RxDMABuffer); {
		case cfg.RxDMABuffer == nil:
			return errcode.DMABufferMissing
		case n < MinRxDMABuffer:
			return errcode.DMABufferTooSmall
		case n%RxDMAAlign != 0:
			return errcode.DMABufferMisaligned
		}
	}
	if _, ok := cfg.Trigger.fcrBits(); !ok {
		return errcode.InvalidTrigger
	}
	if cfg.HWFlowControl {
		if id != v.FlowControlID {
			return errcode.FlowControlUnsupported
		}
		if !v.CheckFlowPinsValid(id, cfg.RTS, cfg.CTS) {
			return errcode.InvalidPins
		}
	}
	if cfg.DataBits >= DataBitsInvalid {
		return errcode.InvalidDataBits
	}
	if cfg.StopBits >= StopBitsInvalid {
		return errcode.InvalidStopBits
	}
	if cfg.Parity >= ParityInvalid {
		return errcode.InvalidParity
	}
	if cfg.RunWhenSleeping && v.SupportsPowerModes() {
		if err := v.clock.checkBaud(cfg.SleepClockSource, cfg.SleepBaud); err != nil {
			return err
		}
	}
	return nil
}
