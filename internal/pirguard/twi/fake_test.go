package twi_test

import (
	"sync"

	"github.com/pirguard/pirguard/internal/pirguard/twi"
)

// step is one scripted bus outcome: the status (and received data byte)
// the controller reports the next time TWINT is cleared.
type step struct {
	status twi.Status
	data   byte
}

type write struct {
	reg twi.Reg
	val uint8
}

// scriptRegs is a register file that answers each TWINT clear with the
// next scripted step. Stop requests never raise TWINT. An exhausted script
// leaves TWINT clear so waits run into their limit.
type scriptRegs struct {
	mu     sync.Mutex
	regs   [5]uint8
	script []step
	writes []write
	stops  int
}

func newScriptRegs(steps ...step) *scriptRegs {
	r := &scriptRegs{script: steps}
	r.regs[twi.TWSR] = uint8(twi.StatusNoInfo)
	return r
}

// raise loads the first scripted step as if the peer had already acted.
func (r *scriptRegs) raise() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
}

func (r *scriptRegs) Read(reg twi.Reg) uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regs[reg]
}

func (r *scriptRegs) Write(reg twi.Reg, v uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, write{reg: reg, val: v})

	if reg != twi.TWCR {
		r.regs[reg] = v
		return
	}
	if v&twi.TWINT == 0 {
		r.regs[twi.TWCR] = v | r.regs[twi.TWCR]&twi.TWINT
		return
	}
	r.regs[twi.TWCR] = v &^ twi.TWINT
	if v&twi.TWSTO != 0 {
		r.stops++
		r.regs[twi.TWCR] &^= twi.TWSTO
		return
	}
	r.advance()
}

func (r *scriptRegs) advance() {
	if len(r.script) == 0 {
		return
	}
	s := r.script[0]
	r.script = r.script[1:]
	r.regs[twi.TWSR] = uint8(s.status)
	r.regs[twi.TWDR] = s.data
	r.regs[twi.TWCR] |= twi.TWINT
}

func (r *scriptRegs) stopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

func (r *scriptRegs) dataWrites() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []byte
	for _, w := range r.writes {
		if w.reg == twi.TWDR {
			out = append(out, w.val)
		}
	}
	return out
}

func (r *scriptRegs) controlWrites() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint8
	for _, w := range r.writes {
		if w.reg == twi.TWCR {
			out = append(out, w.val)
		}
	}
	return out
}

// fastWaiter keeps timeout tests short.
var fastWaiter = twi.Waiter{Limit: 50}
