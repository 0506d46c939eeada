package hci

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/bryanperris/btle/hci/h4"
	"github.com/bryanperris/btle/hci/socket"
)

// The engine is transport-agnostic: it requires only an io.ReadWriteCloser
// whose Read returns exactly one framed packet (indicator byte first) and
// whose Write takes one whole encoded packet. Packet-framed transports (the
// raw HCI user-channel socket, USB endpoints) already satisfy this; stream
// transports (H4 over UART or TCP) reassemble and resynchronize on the
// packet-type/length header before handing bytes up.

type transportHCISocket struct {
	id int
}

type transportH4Socket struct {
	addr    string
	timeout time.Duration
}

type transportH4Uart struct {
	path string
}

type transport struct {
	hci      *transportHCISocket
	h4socket *transportH4Socket
	h4uart   *transportH4Uart
}

func getTransport(t transport) (io.ReadWriteCloser, error) {
	switch {
	case t.hci != nil:
		s, err := socket.NewSocket(t.hci.id)
		if err != nil {
			return nil, err
		}
		return s, nil

	case t.h4socket != nil:
		return h4.NewSocket(t.h4socket.addr, t.h4socket.timeout)

	case t.h4uart != nil:
		return h4.NewSerial(t.h4uart.path)

	default:
		return nil, errors.New("hci: no transport configured")
	}
}
