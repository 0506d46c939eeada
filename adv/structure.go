// Package adv decodes and builds BLE Advertising Data: the TLV payloads
// carried in advertising reports, and the batched LE Advertising Report
// events that deliver them.
package adv

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle"
)

// MaxEIRPacketLength is the maximum advertising or scan-response payload
// length.
const MaxEIRPacketLength = 31

// AD structure type ids, per the Bluetooth assigned numbers for the Generic
// Access Profile.
const (
	typeFlags            byte = 0x01
	typeSomeUUID16       byte = 0x02
	typeAllUUID16        byte = 0x03
	typeSomeUUID32       byte = 0x04
	typeAllUUID32        byte = 0x05
	typeSomeUUID128      byte = 0x06
	typeAllUUID128       byte = 0x07
	typeShortName        byte = 0x08
	typeFullName         byte = 0x09
	typeTxPower          byte = 0x0A
	typeServiceSol16     byte = 0x14
	typeServiceSol128    byte = 0x15
	typeServiceData16    byte = 0x16
	typeServiceSol32     byte = 0x1F
	typeServiceData32    byte = 0x20
	typeServiceData128   byte = 0x21
	typeManufacturerData byte = 0xFF
)

// ErrTruncatedStructure is returned when a TLV entry declares more bytes
// than the blob holds: the structure sum must account for the blob exactly.
var ErrTruncatedStructure = errors.New("adv: truncated ad structure")

// A Structure is one decoded AD element. The set is closed over the types
// the engine understands plus Unknown, which preserves novel or proprietary
// type ids byte-for-byte instead of failing decode.
type Structure interface {
	// ADType returns the element's assigned type id.
	ADType() byte
}

// Flags is the AD flags element (LE discoverability and BR/EDR support
// bits).
type Flags byte

func (Flags) ADType() byte { return typeFlags }

// LimitedDiscoverable reports the LE Limited Discoverable Mode bit.
func (f Flags) LimitedDiscoverable() bool { return f&0x01 != 0 }

// GeneralDiscoverable reports the LE General Discoverable Mode bit.
func (f Flags) GeneralDiscoverable() bool { return f&0x02 != 0 }

// ServiceUUIDs lists advertised service class UUIDs of one width.
type ServiceUUIDs struct {
	UUIDs    []btle.UUID
	Width    int // 2, 4, or 16 bytes
	Complete bool
}

func (s ServiceUUIDs) ADType() byte {
	switch {
	case s.Width == 2 && s.Complete:
		return typeAllUUID16
	case s.Width == 2:
		return typeSomeUUID16
	case s.Width == 4 && s.Complete:
		return typeAllUUID32
	case s.Width == 4:
		return typeSomeUUID32
	case s.Complete:
		return typeAllUUID128
	default:
		return typeSomeUUID128
	}
}

// SolicitedUUIDs lists service UUIDs the advertiser solicits from peers.
type SolicitedUUIDs struct {
	UUIDs []btle.UUID
	Width int
}

func (s SolicitedUUIDs) ADType() byte {
	switch s.Width {
	case 4:
		return typeServiceSol32
	case 16:
		return typeServiceSol128
	default:
		return typeServiceSol16
	}
}

// LocalName is the device name element, possibly shortened to fit the
// payload.
type LocalName struct {
	Name     string
	Complete bool
}

func (n LocalName) ADType() byte {
	if n.Complete {
		return typeFullName
	}
	return typeShortName
}

// ManufacturerData is a vendor-specific element: a company identifier
// followed by opaque bytes.
type ManufacturerData struct {
	CompanyID uint16
	Data      []byte
}

func (ManufacturerData) ADType() byte { return typeManufacturerData }

// TxPowerLevel is the advertised transmit power in dBm.
type TxPowerLevel int8

func (TxPowerLevel) ADType() byte { return typeTxPower }

// ServiceData carries a payload keyed by the service UUID it belongs to.
type ServiceData struct {
	UUID btle.UUID
	Data []byte
}

func (s ServiceData) ADType() byte {
	switch len(s.UUID) {
	case 4:
		return typeServiceData32
	case 16:
		return typeServiceData128
	default:
		return typeServiceData16
	}
}

// Unknown preserves an element the decoder has no structure for.
type Unknown struct {
	Type byte
	Data []byte
}

func (u Unknown) ADType() byte { return u.Type }

// ParseStructures decodes an AD blob as a sequence of TLV entries:
// [length:1][type:1][value: length-1 bytes], repeated to the exact end of
// the blob. A short or overrun entry fails the whole blob with
// ErrTruncatedStructure; there are no partial results.
func ParseStructures(b []byte) ([]Structure, error) {
	var out []Structure
	for i := 0; i < len(b); {
		length := int(b[i])
		if length < 1 {
			return nil, errors.Wrapf(ErrTruncatedStructure, "zero-length entry at %d", i)
		}
		if i+1+length > len(b) {
			return nil, errors.Wrapf(ErrTruncatedStructure, "entry at %d wants %d bytes, %d remain", i, length, len(b)-i-1)
		}
		typ := b[i+1]
		val := make([]byte, length-1)
		copy(val, b[i+2:i+1+length])

		s, err := decodeStructure(typ, val)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		i += 1 + length
	}
	return out, nil
}

func decodeStructure(typ byte, val []byte) (Structure, error) {
	switch typ {
	case typeFlags:
		if len(val) < 1 {
			return nil, errors.Wrap(ErrTruncatedStructure, "empty flags")
		}
		return Flags(val[0]), nil

	case typeSomeUUID16, typeAllUUID16:
		return parseUUIDs(val, 2, typ == typeAllUUID16)
	case typeSomeUUID32, typeAllUUID32:
		return parseUUIDs(val, 4, typ == typeAllUUID32)
	case typeSomeUUID128, typeAllUUID128:
		return parseUUIDs(val, 16, typ == typeAllUUID128)

	case typeServiceSol16, typeServiceSol32, typeServiceSol128:
		width := 2
		if typ == typeServiceSol32 {
			width = 4
		} else if typ == typeServiceSol128 {
			width = 16
		}
		s, err := parseUUIDs(val, width, false)
		if err != nil {
			return nil, err
		}
		return SolicitedUUIDs{UUIDs: s.(ServiceUUIDs).UUIDs, Width: width}, nil

	case typeShortName, typeFullName:
		return LocalName{Name: string(val), Complete: typ == typeFullName}, nil

	case typeTxPower:
		if len(val) < 1 {
			return nil, errors.Wrap(ErrTruncatedStructure, "empty tx power")
		}
		return TxPowerLevel(int8(val[0])), nil

	case typeManufacturerData:
		if len(val) < 2 {
			return nil, errors.Wrap(ErrTruncatedStructure, "manufacturer data without company id")
		}
		return ManufacturerData{
			CompanyID: binary.LittleEndian.Uint16(val),
			Data:      val[2:],
		}, nil

	case typeServiceData16, typeServiceData32, typeServiceData128:
		width := 2
		if typ == typeServiceData32 {
			width = 4
		} else if typ == typeServiceData128 {
			width = 16
		}
		if len(val) < width {
			return nil, errors.Wrap(ErrTruncatedStructure, "service data shorter than its uuid")
		}
		return ServiceData{
			UUID: btle.UUID(val[:width]),
			Data: val[width:],
		}, nil

	default:
		return Unknown{Type: typ, Data: val}, nil
	}
}

func parseUUIDs(val []byte, width int, complete bool) (Structure, error) {
	if len(val) == 0 || len(val)%width != 0 {
		return nil, errors.Wrapf(ErrTruncatedStructure, "uuid list not a multiple of %d", width)
	}
	uu := make([]btle.UUID, 0, len(val)/width)
	for i := 0; i < len(val); i += width {
		uu = append(uu, btle.UUID(val[i:i+width]))
	}
	return ServiceUUIDs{UUIDs: uu, Width: width, Complete: complete}, nil
}
