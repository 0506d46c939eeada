package btle

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// A UUID is a BLE UUID, stored in little endian order as it appears on the
// wire. It is 2, 4, or 16 bytes long.
type UUID []byte

// UUID16 returns a 16-bit UUID.
func UUID16(u uint16) UUID {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, u)
	return UUID(b)
}

// UUID32 returns a 32-bit UUID.
func UUID32(u uint32) UUID {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, u)
	return UUID(b)
}

// Parse parses a standard-format UUID string, like
// "1800" or "34DA3AD1-7110-41A1-B1EF-4430F509CDE7".
func Parse(s string) (UUID, error) {
	s = strings.Replace(s, "-", "", -1)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse uuid")
	}
	switch len(b) {
	case 2, 4, 16:
	default:
		return nil, errors.Errorf("invalid uuid length %d", len(b))
	}
	return UUID(Reverse(b)), nil
}

// MustParse parses a standard-format UUID string, panicking on failure.
// Intended for initializing package-level constants.
func MustParse(s string) UUID {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the length of the UUID in bytes.
func (u UUID) Len() int {
	return len(u)
}

// String hex-encodes the UUID in big endian display order.
func (u UUID) String() string {
	return hex.EncodeToString(Reverse(u))
}

// Equal tests if two UUIDs are equal.
func (u UUID) Equal(v UUID) bool {
	if len(u) != len(v) {
		return false
	}
	for i := range u {
		if u[i] != v[i] {
			return false
		}
	}
	return true
}

// Contains reports whether u is in the list l.
func Contains(l []UUID, u UUID) bool {
	for _, a := range l {
		if a.Equal(u) {
			return true
		}
	}
	return false
}

// Reverse returns a reversed copy of u, converting between wire order and
// display order.
func Reverse(u []byte) []byte {
	l := len(u)
	b := make([]byte, l)
	for i := 0; i < l/2+1; i++ {
		b[i], b[l-i-1] = u[l-i-1], u[i]
	}
	return b
}
