package adv

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle"
)

// ErrNotFit is returned when a field does not fit into the remaining
// advertising payload space.
var ErrNotFit = errors.New("adv: field does not fit")

// ErrInvalid is returned when a field's arguments are malformed.
var ErrInvalid = errors.New("adv: invalid field")

// Packet builds an advertising or scan response payload. Fields are
// appended in order; the payload never exceeds MaxEIRPacketLength.
// Refer to Supplement to Bluetooth Core Specification, Part A.
type Packet struct {
	b []byte
}

// NewPacket returns a packet holding the given fields.
func NewPacket(fields ...Field) (*Packet, error) {
	p := &Packet{b: make([]byte, 0, MaxEIRPacketLength)}
	for _, f := range fields {
		if err := f(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Bytes returns the built payload.
func (p *Packet) Bytes() []byte {
	return p.b
}

// Len returns the payload length.
func (p *Packet) Len() int {
	return len(p.b)
}

// A Field appends one AD element to a packet.
type Field func(p *Packet) error

// Append appends a field to the packet. It returns ErrNotFit if the field
// doesn't fit, and leaves the packet intact.
func (p *Packet) Append(f Field) error {
	return f(p)
}

func (p *Packet) append(typ byte, b []byte) error {
	if p.Len()+1+1+len(b) > MaxEIRPacketLength {
		return ErrNotFit
	}
	p.b = append(p.b, byte(len(b)+1))
	p.b = append(p.b, typ)
	p.b = append(p.b, b...)
	return nil
}

// Raw appends pre-encoded bytes, useful for rebroadcasting captured payloads.
func Raw(b []byte) Field {
	return func(p *Packet) error {
		if p.Len()+len(b) > MaxEIRPacketLength {
			return ErrNotFit
		}
		p.b = append(p.b, b...)
		return nil
	}
}

// AdvFlags appends a flags element.
func AdvFlags(f byte) Field {
	return func(p *Packet) error {
		return p.append(typeFlags, []byte{f})
	}
}

// ShortName appends a shortened local name.
func ShortName(n string) Field {
	return func(p *Packet) error {
		return p.append(typeShortName, []byte(n))
	}
}

// CompleteName appends a complete local name.
func CompleteName(n string) Field {
	return func(p *Packet) error {
		return p.append(typeFullName, []byte(n))
	}
}

// MfgData appends manufacturer specific data under the given company id.
func MfgData(id uint16, b []byte) Field {
	return func(p *Packet) error {
		d := append([]byte{uint8(id), uint8(id >> 8)}, b...)
		return p.append(typeManufacturerData, d)
	}
}

// AllUUID appends a UUID to the complete service UUID list.
func AllUUID(u btle.UUID) Field {
	return func(p *Packet) error {
		switch u.Len() {
		case 2:
			return p.append(typeAllUUID16, u)
		case 4:
			return p.append(typeAllUUID32, u)
		}
		return p.append(typeAllUUID128, u)
	}
}

// SomeUUID appends a UUID to the incomplete service UUID list.
func SomeUUID(u btle.UUID) Field {
	return func(p *Packet) error {
		switch u.Len() {
		case 2:
			return p.append(typeSomeUUID16, u)
		case 4:
			return p.append(typeSomeUUID32, u)
		}
		return p.append(typeSomeUUID128, u)
	}
}

// SvcData16 appends service data for a 16-bit service UUID.
func SvcData16(id uint16, b []byte) Field {
	return func(p *Packet) error {
		u := btle.UUID16(id)
		return p.append(typeServiceData16, append(append(btle.UUID{}, u...), b...))
	}
}

// TxPower appends a Tx power level element.
func TxPower(pwr int8) Field {
	return func(p *Packet) error {
		return p.append(typeTxPower, []byte{uint8(pwr)})
	}
}

// IBeaconData appends an iBeacon payload as Apple manufacturer data.
func IBeaconData(md []byte) Field {
	return func(p *Packet) error {
		return MfgData(0x004C, md)(p)
	}
}

// IBeacon appends a full iBeacon element with the given proximity UUID,
// major/minor and measured power.
func IBeacon(u btle.UUID, major, minor uint16, pwr int8) Field {
	return func(p *Packet) error {
		if u.Len() != 16 {
			return ErrInvalid
		}
		md := make([]byte, 23)
		md[0] = 0x02 // iBeacon type
		md[1] = 0x15 // 21 bytes follow
		copy(md[2:], btle.Reverse(u))
		binary.BigEndian.PutUint16(md[18:], major)
		binary.BigEndian.PutUint16(md[20:], minor)
		md[22] = uint8(pwr)
		return MfgData(0x004C, md)(p)
	}
}
