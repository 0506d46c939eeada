package hci

import (
	"fmt"

	"github.com/pkg/errors"
)

// Packet-level decode errors. These are local to the offending packet: the
// engine discards it and resumes on the next one.
var (
	// ErrPayloadTooLarge is returned when encoding a Command or Event whose
	// parameter block exceeds the 255-byte wire limit. Nothing is written.
	ErrPayloadTooLarge = errors.New("hci: parameter payload exceeds 255 bytes")

	// ErrLengthMismatch is returned when a packet's declared length field
	// does not equal the actual parameter byte count.
	ErrLengthMismatch = errors.New("hci: declared length does not match payload")

	// ErrUnknownPacketType is returned for a packet indicator byte outside
	// the four defined HCI packet kinds.
	ErrUnknownPacketType = errors.New("hci: unknown packet type")
)

// Command- and engine-level errors.
var (
	// ErrCommandTimeout resolves a submitted command whose deadline expired
	// before a matching Command Complete / Command Status arrived. Credit is
	// conservatively left unrestored and the engine reports itself degraded.
	ErrCommandTimeout = errors.New("hci: command timed out")

	// ErrCommandCancelled resolves a command the caller cancelled.
	ErrCommandCancelled = errors.New("hci: command cancelled")

	// ErrTransportClosed resolves every outstanding command and active
	// subscription when the transport dies. The engine instance is unusable
	// afterwards and must be reconstructed.
	ErrTransportClosed = errors.New("hci: transport closed")

	// ErrClosed is returned for operations on an engine shut down by the
	// caller.
	ErrClosed = errors.New("hci: engine closed")
)

// ErrCommand is an HCI status code returned in a completion event
// [Vol 2, Part D, 1.3].
type ErrCommand byte

func (e ErrCommand) Error() string {
	if s, ok := errCmd[e]; ok {
		return s
	}
	return fmt.Sprintf("hci: command error 0x%02X", byte(e))
}

// Status codes the engine cares to name; anything else renders numerically.
const (
	ErrUnknownCommand    ErrCommand = 0x01
	ErrConnID            ErrCommand = 0x02
	ErrAuthFailure       ErrCommand = 0x05
	ErrMemoryCapacity    ErrCommand = 0x07
	ErrConnectionTimeout ErrCommand = 0x08
	ErrLimitExceeded     ErrCommand = 0x09
	ErrACLExists         ErrCommand = 0x0B
	ErrDisallowed        ErrCommand = 0x0C
	ErrInvalidParams     ErrCommand = 0x12
	ErrRemoteUser        ErrCommand = 0x13
	ErrLocalHost         ErrCommand = 0x16
	ErrUnsupported       ErrCommand = 0x1A
	ErrLMPTimeout        ErrCommand = 0x22
	ErrUnspecified       ErrCommand = 0x2F
)

var errCmd = map[ErrCommand]string{
	0x00: "success",
	0x01: "unknown hci command",
	0x02: "unknown connection identifier",
	0x03: "hardware failure",
	0x05: "authentication failure",
	0x06: "pin or key missing",
	0x07: "memory capacity exceeded",
	0x08: "connection timeout",
	0x09: "connection limit exceeded",
	0x0B: "connection already exists",
	0x0C: "command disallowed",
	0x0D: "connection rejected due to limited resources",
	0x12: "invalid hci command parameters",
	0x13: "remote user terminated connection",
	0x16: "connection terminated by local host",
	0x1A: "unsupported remote feature",
	0x1E: "invalid lmp parameters",
	0x1F: "unspecified error",
	0x22: "lmp response timeout",
	0x28: "instant passed",
	0x2F: "insufficient security",
	0x3B: "unacceptable connection parameters",
	0x3C: "directed advertising timeout",
	0x3E: "connection failed to be established",
}
