package btle

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Addr represents a device address. It's a MAC address on Linux or a
// device UUID on OS X.
type Addr interface {
	String() string
	Bytes() []byte
}

// NewAddr creates an Addr from its string form.
func NewAddr(s string) Addr {
	return addr(strings.ToLower(s))
}

type addr string

func (a addr) String() string {
	return string(a)
}

func (a addr) Bytes() []byte {
	hexStr := strings.Replace(a.String(), ":", "", -1)

	out, err := hex.DecodeString(hexStr)
	if err != nil {
		GetLogger().Warn(fmt.Sprintf("error decoding address %q: %v", a.String(), err))
	}

	return out
}
