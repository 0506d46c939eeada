// Package cmd defines HCI command parameter blocks and their return
// parameters. Commands marshal themselves into a caller-provided buffer;
// return parameters unmarshal from the Command Complete event payload.
package cmd

import (
	"bytes"
	"encoding/binary"
	"io"
)

// A Command is an HCI command parameter block that knows its opcode and
// wire length.
type Command interface {
	OpCode() int
	Len() int
	Marshal([]byte) error
}

// A CommandRP is the return-parameter block of a completed command.
type CommandRP interface {
	Unmarshal(b []byte) error
}

type command interface {
	Len() int
}

type commandRP interface {
	Unmarshal(b []byte) error
}

func marshal(c command, b []byte) error {
	buf := bytes.NewBuffer(b)
	buf.Reset()
	if buf.Cap() < c.Len() {
		return io.ErrShortBuffer
	}
	return binary.Write(buf, binary.LittleEndian, c)
}

func unmarshal(c commandRP, b []byte) error {
	return binary.Read(bytes.NewBuffer(b), binary.LittleEndian, c)
}
