package h4

import (
	"net"
	"time"
)

// connWithTimeout bounds every read and write on a stream socket so a
// wedged controller surfaces as a timeout instead of a hang.
type connWithTimeout struct {
	c       net.Conn
	timeout time.Duration
}

func dialWithTimeout(addr string, timeout time.Duration) (*connWithTimeout, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return &connWithTimeout{c: c, timeout: timeout}, nil
}

func (cwt *connWithTimeout) Read(b []byte) (int, error) {
	cwt.c.SetReadDeadline(time.Now().Add(cwt.timeout))
	return cwt.c.Read(b)
}

func (cwt *connWithTimeout) Write(b []byte) (int, error) {
	cwt.c.SetWriteDeadline(time.Now().Add(cwt.timeout))
	return cwt.c.Write(b)
}

func (cwt *connWithTimeout) Close() error {
	return cwt.c.Close()
}
