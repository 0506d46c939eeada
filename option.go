package btle

import (
	"time"
)

// EngineOption is the interface an HCI engine implements to accept
// configuration options.
type EngineOption interface {
	SetTransportHCISocket(id int) error
	SetTransportH4Socket(addr string, timeout time.Duration) error
	SetTransportH4Uart(path string) error

	SetCommandTimeout(d time.Duration) error
	SetErrorHandler(handler func(error)) error
	SetLoggerOption(l Logger) error
}

// An Option is a configuration function, which configures the engine.
type Option func(EngineOption) error

// OptTransportHCISocket uses the raw HCI user-channel socket of the given
// device id as the transport. This transport delivers whole packets per read.
func OptTransportHCISocket(id int) Option {
	return func(opt EngineOption) error {
		return opt.SetTransportHCISocket(id)
	}
}

// OptTransportH4Socket uses an H4 stream socket (e.g. a TCP-attached
// controller) as the transport. Stream framing is reassembled internally.
func OptTransportH4Socket(addr string, timeout time.Duration) Option {
	return func(opt EngineOption) error {
		return opt.SetTransportH4Socket(addr, timeout)
	}
}

// OptTransportH4Uart uses an H4 UART at the given device path as the
// transport.
func OptTransportH4Uart(path string) Option {
	return func(opt EngineOption) error {
		return opt.SetTransportH4Uart(path)
	}
}

// OptCommandTimeout overrides the default deadline applied to commands
// submitted without an explicit timeout.
func OptCommandTimeout(d time.Duration) Option {
	return func(opt EngineOption) error {
		return opt.SetCommandTimeout(d)
	}
}

// OptErrorHandler installs a handler for asynchronous engine errors and
// protocol anomalies.
func OptErrorHandler(handler func(error)) Option {
	return func(opt EngineOption) error {
		return opt.SetErrorHandler(handler)
	}
}

// OptLogger routes the engine's logging through l.
func OptLogger(l Logger) Option {
	return func(opt EngineOption) error {
		return opt.SetLoggerOption(l)
	}
}
