package hci

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle/hci/evt"
)

// Packet is one framed HCI packet of any of the four kinds
// [Vol 4, Part A, 2]. Implementations are CommandPacket, EventPacket,
// ACLDataPacket and SCODataPacket; unknown codes within a kind decode to
// raw bytes rather than failing, to stay forward compatible with newer or
// vendor-specific controllers.
type Packet interface {
	// PacketType returns the packet indicator byte.
	PacketType() uint8

	// Marshal encodes the packet, including its indicator byte.
	Marshal() ([]byte, error)
}

// CommandPacket carries an opcode and up to 255 parameter bytes.
type CommandPacket struct {
	Opcode Opcode
	Params []byte
}

// EventPacket carries an event code and up to 255 parameter bytes.
type EventPacket struct {
	Code   uint8
	Params []byte
}

// ACLDataPacket carries asynchronous connection data: a 12-bit connection
// handle, packet-boundary and broadcast flags, and the data payload.
type ACLDataPacket struct {
	Handle uint16 // handle (12 bits) | PB flag (2 bits) | BC flag (2 bits)
	Data   []byte
}

// SCODataPacket carries synchronous connection data.
type SCODataPacket struct {
	Handle uint16 // handle (12 bits) | packet status flag (2 bits)
	Data   []byte
}

// PacketType implements Packet.
func (p *CommandPacket) PacketType() uint8 { return pktTypeCommand }

// PacketType implements Packet.
func (p *EventPacket) PacketType() uint8 { return pktTypeEvent }

// PacketType implements Packet.
func (p *ACLDataPacket) PacketType() uint8 { return pktTypeACLData }

// PacketType implements Packet.
func (p *SCODataPacket) PacketType() uint8 { return pktTypeSCOData }

// Marshal encodes the command as [0x01][opcode:2 LE][len:1][params].
func (p *CommandPacket) Marshal() ([]byte, error) {
	if len(p.Params) > maxParamLen {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "command %v, %d bytes", p.Opcode, len(p.Params))
	}
	b := make([]byte, 4+len(p.Params))
	b[0] = pktTypeCommand
	binary.LittleEndian.PutUint16(b[1:], uint16(p.Opcode))
	b[3] = byte(len(p.Params))
	copy(b[4:], p.Params)
	return b, nil
}

// Marshal encodes the event as [0x04][code:1][len:1][params].
func (p *EventPacket) Marshal() ([]byte, error) {
	if len(p.Params) > maxParamLen {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "event 0x%02X, %d bytes", p.Code, len(p.Params))
	}
	b := make([]byte, 3+len(p.Params))
	b[0] = pktTypeEvent
	b[1] = p.Code
	b[2] = byte(len(p.Params))
	copy(b[3:], p.Params)
	return b, nil
}

// Marshal encodes the ACL data packet as [0x02][handle+flags:2 LE][len:2 LE][data].
func (p *ACLDataPacket) Marshal() ([]byte, error) {
	if len(p.Data) > 0xFFFF {
		return nil, errors.Wrap(ErrPayloadTooLarge, "acl data")
	}
	b := make([]byte, 5+len(p.Data))
	b[0] = pktTypeACLData
	binary.LittleEndian.PutUint16(b[1:], p.Handle)
	binary.LittleEndian.PutUint16(b[3:], uint16(len(p.Data)))
	copy(b[5:], p.Data)
	return b, nil
}

// Marshal encodes the SCO data packet as [0x03][handle:2 LE][len:1][data].
func (p *SCODataPacket) Marshal() ([]byte, error) {
	if len(p.Data) > maxParamLen {
		return nil, errors.Wrap(ErrPayloadTooLarge, "sco data")
	}
	b := make([]byte, 4+len(p.Data))
	b[0] = pktTypeSCOData
	binary.LittleEndian.PutUint16(b[1:], p.Handle)
	b[3] = byte(len(p.Data))
	copy(b[4:], p.Data)
	return b, nil
}

// Subevent splits an LE Meta Event's parameters into the nested subevent
// code and subevent data. All LE-specific events travel through this one
// outer code [Vol 2, Part E, 7.7.65].
func (p *EventPacket) Subevent() (uint8, []byte, error) {
	if p.Code != evt.LEMetaCode {
		return 0, nil, errors.Errorf("hci: event 0x%02X is not an LE meta event", p.Code)
	}
	if len(p.Params) < 1 {
		return 0, nil, errors.Wrap(ErrLengthMismatch, "le meta event with no subevent code")
	}
	return p.Params[0], p.Params[1:], nil
}

// DecodePacket decodes one fully framed packet, indicator byte first.
// Transports that frame the packet kind out of band (USB endpoints) should
// use DecodePayload instead.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(ErrLengthMismatch, "empty packet")
	}
	return DecodePayload(b[0], b[1:])
}

// DecodePayload decodes a packet whose indicator byte was delivered out of
// band. The declared length field must match the remaining byte count
// exactly; a violation is a decode error, never a silent truncation.
func DecodePayload(typ uint8, b []byte) (Packet, error) {
	switch typ {
	case pktTypeCommand:
		if len(b) < 3 {
			return nil, errors.Wrap(ErrLengthMismatch, "short command header")
		}
		if int(b[2]) != len(b[3:]) {
			return nil, errors.Wrapf(ErrLengthMismatch, "command declares %d, has %d", b[2], len(b[3:]))
		}
		return &CommandPacket{
			Opcode: Opcode(binary.LittleEndian.Uint16(b)),
			Params: append([]byte(nil), b[3:]...),
		}, nil

	case pktTypeEvent:
		if len(b) < 2 {
			return nil, errors.Wrap(ErrLengthMismatch, "short event header")
		}
		if int(b[1]) != len(b[2:]) {
			return nil, errors.Wrapf(ErrLengthMismatch, "event 0x%02X declares %d, has %d", b[0], b[1], len(b[2:]))
		}
		return &EventPacket{
			Code:   b[0],
			Params: append([]byte(nil), b[2:]...),
		}, nil

	case pktTypeACLData:
		if len(b) < 4 {
			return nil, errors.Wrap(ErrLengthMismatch, "short acl header")
		}
		if int(binary.LittleEndian.Uint16(b[2:])) != len(b[4:]) {
			return nil, errors.Wrap(ErrLengthMismatch, "acl data")
		}
		return &ACLDataPacket{
			Handle: binary.LittleEndian.Uint16(b),
			Data:   append([]byte(nil), b[4:]...),
		}, nil

	case pktTypeSCOData:
		if len(b) < 3 {
			return nil, errors.Wrap(ErrLengthMismatch, "short sco header")
		}
		if int(b[2]) != len(b[3:]) {
			return nil, errors.Wrap(ErrLengthMismatch, "sco data")
		}
		return &SCODataPacket{
			Handle: binary.LittleEndian.Uint16(b),
			Data:   append([]byte(nil), b[3:]...),
		}, nil

	default:
		return nil, errors.Wrapf(ErrUnknownPacketType, "0x%02X", typ)
	}
}
