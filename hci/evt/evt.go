// Package evt provides typed accessors over raw HCI event parameter bytes.
//
// Each event is a named byte-slice type indexing directly into the received
// packet; accessors come in pairs, a plain form returning a zero value on
// malformed input and a WErr form reporting the error.
package evt

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Event codes handled by the engine [Vol 2, Part E, 7.7].
const (
	DisconnectionCompleteCode    = 0x05
	EncryptionChangeCode         = 0x08
	CommandCompleteCode          = 0x0E
	CommandStatusCode            = 0x0F
	HardwareErrorCode            = 0x10
	NumberOfCompletedPacketsCode = 0x13
	DataBufferOverflowCode       = 0x1A
	LEMetaCode                   = 0x3E
)

// LE Meta subevent codes [Vol 2, Part E, 7.7.65].
const (
	LEConnectionCompleteSubCode        = 0x01
	LEAdvertisingReportSubCode         = 0x02
	LEConnectionUpdateCompleteSubCode  = 0x03
	LELongTermKeyRequestSubCode        = 0x05
	LEExtendedAdvertisingReportSubCode = 0x0D
)

// CommandComplete is sent when the controller finished a command
// [Vol 2, Part E, 7.7.14]. Its NumHCICommandPackets field is the sole
// source of host-side command flow-control credit.
type CommandComplete []byte

func (e CommandComplete) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, 0, 0)
}

func (e CommandComplete) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, 1, 0xFFFF)
}

func (e CommandComplete) ReturnParametersWErr() ([]byte, error) {
	return getBytes(e, 3, -1)
}

func (e CommandComplete) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandComplete) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

func (e CommandComplete) ReturnParameters() []byte {
	v, _ := e.ReturnParametersWErr()
	return v
}

// Valid reports whether the event carries its fixed header.
func (e CommandComplete) Valid() bool {
	return len(e) >= 3
}

// CommandStatus reports that the controller accepted (or refused) a command
// that completes asynchronously [Vol 2, Part E, 7.7.15].
type CommandStatus []byte

func (e CommandStatus) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xFF)
}

func (e CommandStatus) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, 1, 0)
}

func (e CommandStatus) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, 2, 0xFFFF)
}

func (e CommandStatus) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e CommandStatus) NumHCICommandPackets() uint8 {
	v, _ := e.NumHCICommandPacketsWErr()
	return v
}

func (e CommandStatus) CommandOpcode() uint16 {
	v, _ := e.CommandOpcodeWErr()
	return v
}

func (e CommandStatus) Valid() bool {
	return len(e) == 4
}

// DisconnectionComplete [Vol 2, Part E, 7.7.5].
type DisconnectionComplete []byte

func (e DisconnectionComplete) Status() uint8 {
	v, _ := getByte(e, 0, 0xFF)
	return v
}

func (e DisconnectionComplete) ConnectionHandle() uint16 {
	v, _ := getUint16LE(e, 1, 0xFFFF)
	return v
}

func (e DisconnectionComplete) Reason() uint8 {
	v, _ := getByte(e, 3, 0)
	return v
}

// HardwareError [Vol 2, Part E, 7.7.16].
type HardwareError []byte

func (e HardwareError) Code() uint8 {
	v, _ := getByte(e, 0, 0)
	return v
}

// LEAdvertisingReport is the LE Advertising Report subevent, starting at the
// subevent code byte. One event may batch several device reports; fields are
// laid out column-major (all event types, then all address types, ...).
type LEAdvertisingReport []byte

func (e LEAdvertisingReport) SubeventCodeWErr() (uint8, error) {
	return getByte(e, 0, 0xFF)
}

func (e LEAdvertisingReport) NumReportsWErr() (uint8, error) {
	return getByte(e, 1, 0)
}

func (e LEAdvertisingReport) EventTypeWErr(i int) (uint8, error) {
	return getByte(e, 2+i, 0xFF)
}

func (e LEAdvertisingReport) AddressTypeWErr(i int) (uint8, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return 0xFF, err
	}
	return getByte(e, 2+int(nr)+i, 0xFF)
}

func (e LEAdvertisingReport) AddressWErr(i int) ([6]byte, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return [6]byte{}, err
	}
	bb, err := getBytes(e, 2+int(nr)*2+6*i, 6)
	if err != nil {
		return [6]byte{}, err
	}
	var out [6]byte
	copy(out[:], bb)
	return out, nil
}

func (e LEAdvertisingReport) LengthDataWErr(i int) (uint8, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return 0, err
	}
	return getByte(e, 2+int(nr)*8+i, 0)
}

func (e LEAdvertisingReport) DataWErr(i int) ([]byte, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return nil, err
	}
	off := 0
	for j := 0; j < i; j++ {
		ll, err := e.LengthDataWErr(j)
		if err != nil {
			return nil, err
		}
		off += int(ll)
	}
	ll, err := e.LengthDataWErr(i)
	if err != nil {
		return nil, err
	}
	return getBytes(e, 2+int(nr)*9+off, int(ll))
}

func (e LEAdvertisingReport) RSSIWErr(i int) (int8, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return 0, err
	}
	total := 0
	for j := 0; j < int(nr); j++ {
		ll, err := e.LengthDataWErr(j)
		if err != nil {
			return 0, err
		}
		total += int(ll)
	}
	v, err := getByte(e, 2+int(nr)*9+total+i, 0)
	return int8(v), err
}

func (e LEAdvertisingReport) SubeventCode() uint8 {
	v, _ := e.SubeventCodeWErr()
	return v
}

func (e LEAdvertisingReport) NumReports() uint8 {
	v, _ := e.NumReportsWErr()
	return v
}

func (e LEAdvertisingReport) EventType(i int) uint8 {
	v, _ := e.EventTypeWErr(i)
	return v
}

func (e LEAdvertisingReport) AddressType(i int) uint8 {
	v, _ := e.AddressTypeWErr(i)
	return v
}

func (e LEAdvertisingReport) Address(i int) [6]byte {
	v, _ := e.AddressWErr(i)
	return v
}

func (e LEAdvertisingReport) LengthData(i int) uint8 {
	v, _ := e.LengthDataWErr(i)
	return v
}

func (e LEAdvertisingReport) Data(i int) []byte {
	v, _ := e.DataWErr(i)
	return v
}

func (e LEAdvertisingReport) RSSI(i int) int8 {
	v, _ := e.RSSIWErr(i)
	return v
}

// get or default
func getByte(b []byte, i int, def byte) (byte, error) {
	bb, err := getBytes(b, i, 1)
	if err != nil {
		return def, err
	}
	return bb[0], nil
}

// get or default
func getUint16LE(b []byte, i int, def uint16) (uint16, error) {
	bb, err := getBytes(b, i, 2)
	if err != nil {
		return def, err
	}
	return binary.LittleEndian.Uint16(bb), nil
}

func getBytes(b []byte, start, count int) ([]byte, error) {
	if b == nil || start > len(b) {
		return nil, errors.New("index error")
	}
	if count < 0 {
		return b[start:], nil
	}
	if start+count > len(b) {
		return nil, errors.New("index error")
	}
	return b[start : start+count], nil
}
