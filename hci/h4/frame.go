package h4

import (
	"time"

	"github.com/pkg/errors"
)

// H4 packet indicator bytes. Stream transports carry these in-band; the
// assembler keys its framing on them.
const (
	commandPacket byte = 0x01
	aclPacket     byte = 0x02
	scoPacket     byte = 0x03
	eventPacket   byte = 0x04
)

const (
	evtHeaderLen = 3 // type, event code, parameter length
	aclHeaderLen = 5 // type, handle+flags, 16-bit data length
	scoHeaderLen = 4 // type, handle, data length

	// reassemblyTimeout discards a partial frame when the rest of it never
	// arrives, resynchronizing on the next indicator byte.
	reassemblyTimeout = 500 * time.Millisecond
)

// frame reassembles HCI packets from an undelimited byte stream. A stream
// transport has no transfer boundaries, so the embedded length fields are
// the only framing: the assembler hunts for an indicator byte, reads the
// header to learn the total length, and emits exactly one whole packet
// (indicator byte included) per completed frame.
type frame struct {
	b       []byte
	typ     byte
	timeout time.Time
	out     chan []byte
}

func newFrame(out chan []byte) *frame {
	return &frame{
		b:   make([]byte, 0, 512),
		out: out,
	}
}

// Assemble consumes one chunk as read off the stream. Complete packets are
// sent to the out channel; leftover bytes are held for the next chunk.
func (f *frame) Assemble(b []byte) {
	if len(b) == 0 {
		return
	}

	if len(f.b) > 0 && !f.timeout.IsZero() && time.Now().After(f.timeout) {
		f.reset()
	}

	if len(f.b) == 0 {
		if !f.sync(b) {
			return
		}
	} else {
		f.b = append(f.b, b...)
	}

	total, err := f.frameLength()
	if err != nil {
		return // header not complete yet
	}
	if len(f.b) < total {
		return
	}

	out := make([]byte, total)
	copy(out, f.b[:total])
	f.out <- out

	rem := make([]byte, len(f.b)-total)
	copy(rem, f.b[total:])
	f.reset()
	f.Assemble(rem)
}

// sync scans for the first plausible indicator byte and starts a frame
// there, discarding leading garbage.
func (f *frame) sync(b []byte) bool {
	for i, v := range b {
		switch v {
		case eventPacket, aclPacket, scoPacket:
			f.typ = v
			f.timeout = time.Now().Add(reassemblyTimeout)
			f.b = append(f.b, b[i:]...)
			return true
		}
	}
	return false
}

// frameLength returns the total framed packet length once enough header
// bytes have arrived.
func (f *frame) frameLength() (int, error) {
	switch f.typ {
	case eventPacket:
		if len(f.b) < evtHeaderLen {
			return 0, errors.New("h4: incomplete event header")
		}
		return evtHeaderLen + int(f.b[2]), nil
	case aclPacket:
		if len(f.b) < aclHeaderLen {
			return 0, errors.New("h4: incomplete acl header")
		}
		dataLen := int(f.b[3]) | int(f.b[4])<<8
		return aclHeaderLen + dataLen, nil
	case scoPacket:
		if len(f.b) < scoHeaderLen {
			return 0, errors.New("h4: incomplete sco header")
		}
		return scoHeaderLen + int(f.b[3]), nil
	default:
		return 0, errors.Errorf("h4: invalid frame type 0x%02X", f.typ)
	}
}

func (f *frame) reset() {
	f.b = f.b[:0]
	f.typ = 0
	f.timeout = time.Time{}
}
