package hci

import "fmt"

// Opcode identifies an HCI command: a 6-bit opcode group field and a 10-bit
// opcode command field packed into 16 bits. It is the correlation key between
// a command and its Command Complete / Command Status event.
type Opcode uint16

// NewOpcode packs an OGF/OCF pair.
func NewOpcode(ogf, ocf int) Opcode {
	return Opcode(ogf<<10 | (ocf & 0x03FF))
}

// OGF returns the opcode group field.
func (op Opcode) OGF() int {
	return int(op >> 10)
}

// OCF returns the opcode command field.
func (op Opcode) OCF() int {
	return int(op & 0x03FF)
}

func (op Opcode) String() string {
	return fmt.Sprintf("0x%04X", uint16(op))
}

// opcodeNop is the NOP opcode the controller reports in completion events
// used purely for command flow control [Vol 2, Part E, 4.4].
const opcodeNop Opcode = 0x0000
