// Package sim models one master and one slave two-wire controller sharing
// a bus, so both transport roles can run against each other in-process.
package sim

import (
	"sync"

	"github.com/pirguard/pirguard/internal/pirguard/twi"
)

type eventKind int

const (
	evAddress eventKind = iota
	evData
	evStop
)

type event struct {
	kind eventKind
	data byte
	gc   bool
}

type phase int

const (
	phaseIdle phase = iota
	phaseStart
	phaseData
	phaseNacked
)

// Bus is a simulated two-wire bus. A byte sent by the master completes
// only once the slave has cleared TWINT, the way the slave holds SCL low
// on real hardware.
type Bus struct {
	mu        sync.Mutex
	master    *Port
	slave     *Port
	held      bool
	phase     phase
	addressed bool
	gc        bool
	queue     []event
}

// Port is the register file of one controller on the bus.
type Port struct {
	bus      *Bus
	isMaster bool
	regs     [5]uint8
}

func New() *Bus {
	b := &Bus{}
	b.master = &Port{bus: b, isMaster: true}
	b.slave = &Port{bus: b}
	b.master.regs[twi.TWSR] = uint8(twi.StatusNoInfo)
	b.slave.regs[twi.TWSR] = uint8(twi.StatusNoInfo)
	return b
}

// Master returns the register file of the controlling node.
func (b *Bus) Master() *Port { return b.master }

// Slave returns the register file of the addressed node.
func (b *Bus) Slave() *Port { return b.slave }

func (p *Port) Read(r twi.Reg) uint8 {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	return p.regs[r]
}

func (p *Port) Write(r twi.Reg, v uint8) {
	b := p.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r {
	case twi.TWCR:
		if p.isMaster {
			b.masterControl(v)
		} else {
			b.slaveControl(v)
		}
	case twi.TWSR:
		// only the prescaler bits are writable
		p.regs[r] = p.regs[r]&0xF8 | v&0x03
	default:
		p.regs[r] = v
	}
	b.deliver()
}

func setStatus(p *Port, st twi.Status, raise bool) {
	p.regs[twi.TWSR] = p.regs[twi.TWSR]&0x03 | uint8(st)
	if raise {
		p.regs[twi.TWCR] |= twi.TWINT
	}
}

func (b *Bus) masterControl(v uint8) {
	m := b.master
	if v&twi.TWINT == 0 {
		m.regs[twi.TWCR] = v | m.regs[twi.TWCR]&twi.TWINT
		return
	}
	m.regs[twi.TWCR] = v &^ twi.TWINT
	if v&twi.TWEN == 0 {
		return
	}

	switch {
	case v&twi.TWSTA != 0:
		st := twi.StatusStart
		if b.held {
			st = twi.StatusRepStart
		}
		b.held = true
		b.phase = phaseStart
		setStatus(m, st, true)

	case v&twi.TWSTO != 0:
		if b.held {
			b.queue = append(b.queue, event{kind: evStop})
		}
		b.held = false
		b.phase = phaseIdle
		m.regs[twi.TWCR] &^= twi.TWSTO
		setStatus(m, twi.StatusNoInfo, false)

	case b.held && b.phase == phaseStart:
		sla := m.regs[twi.TWDR]
		s := b.slave
		ctrl := s.regs[twi.TWCR]
		own := s.regs[twi.TWAR] >> 1
		gc := sla>>1 == 0 && s.regs[twi.TWAR]&twi.TWGCE != 0
		listening := ctrl&twi.TWEN != 0 && ctrl&twi.TWEA != 0
		if listening && sla&1 == 0 && (sla>>1 == own || gc) {
			b.addressed = true
			b.queue = append(b.queue, event{kind: evAddress, gc: gc})
			b.phase = phaseData
			setStatus(m, twi.StatusMTSlaAck, true)
		} else {
			b.phase = phaseNacked
			setStatus(m, twi.StatusMTSlaNack, true)
		}

	case b.held && b.phase == phaseData:
		// completes when the slave releases the clock
		b.queue = append(b.queue, event{kind: evData, data: m.regs[twi.TWDR]})

	case b.held && b.phase == phaseNacked:
		setStatus(m, twi.StatusMTDataNack, true)
	}
}

func (b *Bus) slaveControl(v uint8) {
	s := b.slave
	if v&twi.TWINT == 0 {
		s.regs[twi.TWCR] = v | s.regs[twi.TWCR]&twi.TWINT
		return
	}
	s.regs[twi.TWCR] = v &^ (twi.TWINT | twi.TWSTO)
}

// deliver hands queued bus events to the slave while it is not stretching
// the clock.
func (b *Bus) deliver() {
	s, m := b.slave, b.master
	for len(b.queue) > 0 {
		ctrl := s.regs[twi.TWCR]
		if ctrl&twi.TWEN == 0 || ctrl&twi.TWINT != 0 {
			return
		}
		ev := b.queue[0]
		b.queue = b.queue[1:]

		switch ev.kind {
		case evAddress:
			b.gc = ev.gc
			if ev.gc {
				setStatus(s, twi.StatusSRGCAck, true)
			} else {
				setStatus(s, twi.StatusSRSlaAck, true)
			}

		case evData:
			ack := ctrl&twi.TWEA != 0
			s.regs[twi.TWDR] = ev.data
			switch {
			case ack && b.gc:
				setStatus(s, twi.StatusSRGCDataAck, true)
			case ack:
				setStatus(s, twi.StatusSRDataAck, true)
			case b.gc:
				setStatus(s, twi.StatusSRGCDataNack, true)
			default:
				setStatus(s, twi.StatusSRDataNack, true)
			}
			if ack {
				setStatus(m, twi.StatusMTDataAck, true)
			} else {
				// a slave that returned NACK drops out of the transfer
				b.addressed = false
				setStatus(m, twi.StatusMTDataNack, true)
			}

		case evStop:
			if b.addressed {
				b.addressed = false
				setStatus(s, twi.StatusSRStop, true)
			}
		}
	}
}
