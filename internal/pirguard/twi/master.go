package twi

// Master transmits frames as bus controller. It is not safe for concurrent
// use; one Transmit owns the registers until it returns.
type Master struct {
	regs Registers
	cfg  config
}

// Result summarises one transmission.
type Result struct {
	// Status is the last status register value read.
	Status Status
	// Sent counts data bytes clocked out, terminator included.
	Sent int
}

func NewMaster(regs Registers, opts ...Option) *Master {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Master{regs: regs, cfg: cfg}
}

// Init sets the bit rate and enables the controller.
func (m *Master) Init() {
	m.regs.Write(TWSR, 0x00)
	m.regs.Write(TWBR, BitRateDivider(CPUHz, SCLHz))
	m.regs.Write(TWCR, TWEN)
}

// Transmit addresses the 7-bit slave addr for writing and clocks out data
// until a null byte has been sent, MaxFrame bytes have gone out or data is
// exhausted. A stop condition always ends the transfer, including when it
// aborts early.
func (m *Master) Transmit(addr uint8, data []byte) (res Result, err error) {
	defer m.stop()

	m.regs.Write(TWCR, TWINT|TWSTA|TWEN)
	if res.Status, err = m.await(PhaseStart); err != nil {
		return res, err
	}
	if res.Status != StatusStart && res.Status != StatusRepStart {
		return res, m.fail(PhaseStart, res.Status)
	}

	m.regs.Write(TWDR, addr<<1)
	m.regs.Write(TWCR, TWINT|TWEN)
	if res.Status, err = m.await(PhaseAddress); err != nil {
		return res, err
	}
	if res.Status != StatusMTSlaAck {
		return res, m.fail(PhaseAddress, res.Status)
	}

	n := len(data)
	if n > MaxFrame {
		n = MaxFrame
	}
	for i := 0; i < n; i++ {
		b := data[i]
		m.regs.Write(TWDR, b)
		m.regs.Write(TWCR, TWINT|TWEN)
		if res.Status, err = m.await(PhaseData); err != nil {
			return res, err
		}
		res.Sent++

		last := b == 0 || i == n-1
		switch res.Status {
		case StatusMTDataAck:
		case StatusMTDataNack:
			// the receiver refuses the byte that fills its buffer
			if !last {
				return res, m.fail(PhaseData, res.Status)
			}
		default:
			return res, m.fail(PhaseData, res.Status)
		}
		if last {
			break
		}
	}
	return res, nil
}

func (m *Master) await(p Phase) (Status, error) {
	if !m.cfg.waiter.flag(m.regs) {
		st := readStatus(m.regs)
		return st, &StatusError{Phase: p, Status: st, Err: ErrBusTimeout}
	}
	return readStatus(m.regs), nil
}

func (m *Master) fail(p Phase, st Status) error {
	switch st {
	case StatusMTSlaNack, StatusMTDataNack:
		return &StatusError{Phase: p, Status: st, Err: ErrLinkNack}
	case StatusArbLost:
		return &StatusError{Phase: p, Status: st, Err: ErrArbitrationLost}
	default:
		return &StatusError{Phase: p, Status: st, Err: ErrUnexpectedStatus}
	}
}

func (m *Master) stop() {
	m.regs.Write(TWCR, TWINT|TWSTO|TWEN)
}
