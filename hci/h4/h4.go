// Package h4 adapts undelimited byte streams (UART, TCP) to the one-packet-
// per-read framing the HCI engine expects, per the UART transport layer
// [Vol 4, Part A].
package h4

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

const rxQueueSize = 64

type h4 struct {
	stream io.ReadWriteCloser

	rmu sync.Mutex
	wmu sync.Mutex
	cmu sync.Mutex

	rxQueue chan []byte
	done    chan struct{}
}

// NewSerial opens an H4 UART at path and returns a packet-framed transport.
func NewSerial(path string) (io.ReadWriteCloser, error) {
	sp, err := serial.Open(serial.OpenOptions{
		PortName:              path,
		BaudRate:              1000000,
		DataBits:              8,
		StopBits:              1,
		RTSCTSFlowControl:     true,
		InterCharacterTimeout: 100,
		MinimumReadSize:       0,
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't open serial port")
	}
	return newH4(sp), nil
}

// NewSocket dials an H4 stream socket (a TCP-attached controller, e.g. an
// emulator or a network-bridged radio) and returns a packet-framed
// transport. The timeout bounds each individual read and write.
func NewSocket(addr string, timeout time.Duration) (io.ReadWriteCloser, error) {
	c, err := dialWithTimeout(addr, timeout)
	if err != nil {
		return nil, errors.Wrap(err, "can't dial h4 socket")
	}
	return newH4(c), nil
}

func newH4(stream io.ReadWriteCloser) *h4 {
	h := &h4{
		stream:  stream,
		rxQueue: make(chan []byte, rxQueueSize),
		done:    make(chan struct{}),
	}
	go h.rxLoop()
	return h
}

// Read returns one whole reassembled packet, indicator byte first. A return
// of (0, nil) is a read timeout; callers poll again.
func (h *h4) Read(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.rmu.Lock()
	defer h.rmu.Unlock()

	select {
	case <-h.done:
		return 0, io.EOF
	case b, ok := <-h.rxQueue:
		if !ok {
			return 0, io.EOF
		}
		if len(p) < len(b) {
			return 0, errors.Errorf("h4: read buffer too small, need %d", len(b))
		}
		return copy(p, b), nil
	case <-time.After(time.Second):
		return 0, nil
	}
}

func (h *h4) Write(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.wmu.Lock()
	defer h.wmu.Unlock()
	n, err := h.stream.Write(p)
	return n, errors.Wrap(err, "can't write h4 stream")
}

func (h *h4) Close() error {
	h.cmu.Lock()
	defer h.cmu.Unlock()

	select {
	case <-h.done:
		return nil
	default:
		close(h.done)
		return errors.Wrap(h.stream.Close(), "can't close h4 stream")
	}
}

func (h *h4) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// rxLoop reads raw chunks off the stream and feeds the frame assembler;
// completed packets land in rxQueue.
func (h *h4) rxLoop() {
	defer close(h.rxQueue)

	fr := newFrame(h.rxQueue)
	tmp := make([]byte, 512)
	for {
		select {
		case <-h.done:
			return
		default:
		}

		n, err := h.stream.Read(tmp)
		if err != nil {
			// An idle socket trips its read deadline; that is not a
			// transport failure.
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if h.isOpen() {
				h.Close()
			}
			return
		}
		if n == 0 {
			continue
		}
		fr.Assemble(tmp[:n])
	}
}
