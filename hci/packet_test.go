package hci

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle/hci/evt"
)

func TestCommandPacketRoundTrip(t *testing.T) {
	p := &CommandPacket{Opcode: 0x0C03, Params: nil}
	b, err := p.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	// indicator, opcode little-endian, param length
	want := []byte{0x01, 0x03, 0x0C, 0x00}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X, want % X", b, want)
	}

	pkt, err := DecodePacket(b)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := pkt.(*CommandPacket)
	if !ok {
		t.Fatalf("decoded %T, want *CommandPacket", pkt)
	}
	if c.Opcode != 0x0C03 || len(c.Params) != 0 {
		t.Fatalf("got opcode %v params % X", c.Opcode, c.Params)
	}
}

func TestCommandPacketParams(t *testing.T) {
	p := &CommandPacket{Opcode: 0x200C, Params: []byte{0x01, 0x00}}
	b, err := p.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x0C, 0x20, 0x02, 0x01, 0x00}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X, want % X", b, want)
	}
}

func TestCommandPacketTooLarge(t *testing.T) {
	p := &CommandPacket{Opcode: 0x0C03, Params: make([]byte, 256)}
	b, err := p.Marshal()
	if errors.Cause(err) != ErrPayloadTooLarge {
		t.Fatalf("got err %v, want ErrPayloadTooLarge", err)
	}
	if b != nil {
		t.Fatalf("partial marshal output % X", b)
	}
}

func TestEventPacketRoundTrip(t *testing.T) {
	// command complete for reset: 1 credit, opcode 0x0C03, status 0
	b := []byte{0x04, 0x0E, 0x04, 0x01, 0x03, 0x0C, 0x00}
	pkt, err := DecodePacket(b)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := pkt.(*EventPacket)
	if !ok {
		t.Fatalf("decoded %T, want *EventPacket", pkt)
	}
	if e.Code != evt.CommandCompleteCode {
		t.Fatalf("code 0x%02X", e.Code)
	}
	if len(e.Params) != 4 {
		t.Fatalf("params % X", e.Params)
	}

	out, err := e.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, b) {
		t.Fatalf("round trip got % X, want % X", out, b)
	}
}

func TestEventPacketLengthMismatch(t *testing.T) {
	for _, b := range [][]byte{
		{0x04, 0x0E, 0x04, 0x01},             // declares 4, carries 1
		{0x04, 0x0E, 0x01, 0x01, 0x02},       // declares 1, carries 2
		{0x04, 0x0E},                         // no length byte
		{0x01, 0x03},                         // command header cut short
		{0x02, 0x40, 0x00, 0x02, 0x00, 0xAA}, // acl declares 2, carries 1
	} {
		if _, err := DecodePacket(b); errors.Cause(err) != ErrLengthMismatch {
			t.Fatalf("% X: got err %v, want ErrLengthMismatch", b, err)
		}
	}
}

func TestDecodeUnknownPacketType(t *testing.T) {
	_, err := DecodePacket([]byte{0x07, 0x01, 0x02})
	if errors.Cause(err) != ErrUnknownPacketType {
		t.Fatalf("got err %v, want ErrUnknownPacketType", err)
	}
}

func TestDecodeUnknownEventCode(t *testing.T) {
	// unknown event codes still decode; interpretation is the caller's
	pkt, err := DecodePacket([]byte{0x04, 0xFE, 0x02, 0xAA, 0xBB})
	if err != nil {
		t.Fatal(err)
	}
	e := pkt.(*EventPacket)
	if e.Code != 0xFE || !bytes.Equal(e.Params, []byte{0xAA, 0xBB}) {
		t.Fatalf("got code 0x%02X params % X", e.Code, e.Params)
	}
}

func TestACLDataPacketRoundTrip(t *testing.T) {
	p := &ACLDataPacket{Handle: 0x2040, Data: []byte{0xDE, 0xAD}}
	b, err := p.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 0x40, 0x20, 0x02, 0x00, 0xDE, 0xAD}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X, want % X", b, want)
	}

	pkt, err := DecodePacket(b)
	if err != nil {
		t.Fatal(err)
	}
	a := pkt.(*ACLDataPacket)
	if a.Handle != 0x2040 || !bytes.Equal(a.Data, []byte{0xDE, 0xAD}) {
		t.Fatalf("got handle 0x%04X data % X", a.Handle, a.Data)
	}
}

func TestSCODataPacketRoundTrip(t *testing.T) {
	p := &SCODataPacket{Handle: 0x0001, Data: []byte{0x11}}
	b, err := p.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	pkt, err := DecodePacket(b)
	if err != nil {
		t.Fatal(err)
	}
	s := pkt.(*SCODataPacket)
	if s.Handle != 0x0001 || !bytes.Equal(s.Data, []byte{0x11}) {
		t.Fatalf("got handle 0x%04X data % X", s.Handle, s.Data)
	}
}

func TestSubevent(t *testing.T) {
	e := &EventPacket{Code: evt.LEMetaCode, Params: []byte{0x02, 0x01}}
	sub, data, err := e.Subevent()
	if err != nil {
		t.Fatal(err)
	}
	if sub != evt.LEAdvertisingReportSubCode || !bytes.Equal(data, []byte{0x01}) {
		t.Fatalf("got sub 0x%02X data % X", sub, data)
	}

	e = &EventPacket{Code: evt.CommandCompleteCode, Params: []byte{0x02}}
	if _, _, err := e.Subevent(); err == nil {
		t.Fatal("no error for non-meta event")
	}

	e = &EventPacket{Code: evt.LEMetaCode}
	if _, _, err := e.Subevent(); errors.Cause(err) != ErrLengthMismatch {
		t.Fatalf("got err %v, want ErrLengthMismatch", err)
	}
}

func TestOpcode(t *testing.T) {
	op := NewOpcode(0x08, 0x000C)
	if op != 0x200C {
		t.Fatalf("got 0x%04X", uint16(op))
	}
	if op.OGF() != 0x08 || op.OCF() != 0x000C {
		t.Fatalf("ogf 0x%02X ocf 0x%04X", op.OGF(), op.OCF())
	}
}
