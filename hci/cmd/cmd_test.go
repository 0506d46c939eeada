package cmd

import (
	"bytes"
	"io"
	"testing"
)

func TestMarshalScanParameters(t *testing.T) {
	c := &LESetScanParameters{
		LEScanType:           0x01,
		LEScanInterval:       0x0010,
		LEScanWindow:         0x0010,
		OwnAddressType:       0x00,
		ScanningFilterPolicy: 0x00,
	}
	b := make([]byte, c.Len())
	if err := c.Marshal(b); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x10, 0x00, 0x10, 0x00, 0x00, 0x00}
	if !bytes.Equal(b, want) {
		t.Fatalf("got % X, want % X", b, want)
	}
}

func TestMarshalShortBuffer(t *testing.T) {
	c := &LESetScanEnable{LEScanEnable: 0x01}
	if err := c.Marshal(make([]byte, 1)); err != io.ErrShortBuffer {
		t.Fatalf("got err %v, want io.ErrShortBuffer", err)
	}
}

func TestUnmarshalReadBDADDR(t *testing.T) {
	rp := ReadBDADDRRP{}
	if err := rp.Unmarshal([]byte{0x00, 0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA}); err != nil {
		t.Fatal(err)
	}
	if rp.Status != 0 {
		t.Fatalf("status 0x%02X", rp.Status)
	}
	if rp.BDADDR != [6]byte{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA} {
		t.Fatalf("bdaddr % X", rp.BDADDR)
	}
}

func TestUnmarshalLEReadBufferSize(t *testing.T) {
	rp := LEReadBufferSizeRP{}
	if err := rp.Unmarshal([]byte{0x00, 0xFB, 0x00, 0x0F}); err != nil {
		t.Fatal(err)
	}
	if rp.HCLEDataPacketLength != 0x00FB || rp.HCTotalNumLEDataPackets != 0x0F {
		t.Fatalf("geometry %d x %d", rp.HCLEDataPacketLength, rp.HCTotalNumLEDataPackets)
	}
}
