// Package twi drives a two-wire (I2C-style) controller at register level,
// as bus master (transmitter) and as addressed slave (receiver).
package twi

import "fmt"

// Reg names one register of the two-wire controller.
type Reg uint8

const (
	TWBR Reg = iota // bit rate divider
	TWSR            // status (bits 7..3) and prescaler (bits 1..0)
	TWAR            // own slave address (bits 7..1), general call enable (bit 0)
	TWDR            // data
	TWCR            // control
)

func (r Reg) String() string {
	switch r {
	case TWBR:
		return "TWBR"
	case TWSR:
		return "TWSR"
	case TWAR:
		return "TWAR"
	case TWDR:
		return "TWDR"
	case TWCR:
		return "TWCR"
	default:
		return fmt.Sprintf("reg(%d)", uint8(r))
	}
}

// Registers is the register file of one two-wire controller. Writing TWCR
// with TWINT set clears the interrupt flag and starts the next bus action.
type Registers interface {
	Read(r Reg) uint8
	Write(r Reg, v uint8)
}

// TWCR bits.
const (
	TWIE  uint8 = 1 << 0
	TWEN  uint8 = 1 << 2
	TWWC  uint8 = 1 << 3
	TWSTO uint8 = 1 << 4
	TWSTA uint8 = 1 << 5
	TWEA  uint8 = 1 << 6
	TWINT uint8 = 1 << 7
)

// TWAR bit 0 enables general call recognition.
const TWGCE uint8 = 1 << 0

const statusMask = 0xF8

// Status is TWSR with the prescaler bits masked off.
type Status uint8

const (
	StatusBusError Status = 0x00
	StatusStart    Status = 0x08
	StatusRepStart Status = 0x10

	// master transmitter
	StatusMTSlaAck   Status = 0x18
	StatusMTSlaNack  Status = 0x20
	StatusMTDataAck  Status = 0x28
	StatusMTDataNack Status = 0x30
	StatusArbLost    Status = 0x38

	// slave receiver
	StatusSRSlaAck        Status = 0x60
	StatusSRArbLostSlaAck Status = 0x68
	StatusSRGCAck         Status = 0x70
	StatusSRArbLostGCAck  Status = 0x78
	StatusSRDataAck       Status = 0x80
	StatusSRDataNack      Status = 0x88
	StatusSRGCDataAck     Status = 0x90
	StatusSRGCDataNack    Status = 0x98
	StatusSRStop          Status = 0xA0

	StatusNoInfo Status = 0xF8 // bus idle, TWINT clear
)

func (s Status) String() string {
	switch s {
	case StatusBusError:
		return "bus_error"
	case StatusStart:
		return "start"
	case StatusRepStart:
		return "repeated_start"
	case StatusMTSlaAck:
		return "sla_w_ack"
	case StatusMTSlaNack:
		return "sla_w_nack"
	case StatusMTDataAck:
		return "data_ack"
	case StatusMTDataNack:
		return "data_nack"
	case StatusArbLost:
		return "arbitration_lost"
	case StatusSRSlaAck:
		return "own_sla_w_ack"
	case StatusSRArbLostSlaAck:
		return "arb_lost_own_sla_w_ack"
	case StatusSRGCAck:
		return "general_call_ack"
	case StatusSRArbLostGCAck:
		return "arb_lost_general_call_ack"
	case StatusSRDataAck:
		return "rx_data_ack"
	case StatusSRDataNack:
		return "rx_data_nack"
	case StatusSRGCDataAck:
		return "rx_gc_data_ack"
	case StatusSRGCDataNack:
		return "rx_gc_data_nack"
	case StatusSRStop:
		return "stop_or_repeated_start"
	case StatusNoInfo:
		return "idle"
	default:
		return fmt.Sprintf("status(0x%02X)", uint8(s))
	}
}

func readStatus(regs Registers) Status {
	return Status(regs.Read(TWSR) & statusMask)
}

// MaxFrame is the longest message, in bytes, either side will move.
const MaxFrame = 16

const (
	// CPUHz is the controller clock both nodes run at.
	CPUHz = 16_000_000
	// SCLHz is the fixed bus clock.
	SCLHz = 400_000
)

// BitRateDivider returns the TWBR value for the given clocks with the
// prescaler at 1: SCL = CPU / (16 + 2*TWBR).
func BitRateDivider(cpuHz, sclHz uint32) uint8 {
	if sclHz == 0 || cpuHz/sclHz <= 16 {
		return 0
	}
	return uint8((cpuHz/sclHz - 16) / 2)
}
