//go:build !linux

package socket

import (
	"io"

	"github.com/pkg/errors"
)

// NewSocket is only available on Linux; other platforms use an H4 transport
// or the native radio API.
func NewSocket(id int) (io.ReadWriteCloser, error) {
	return nil, errors.New("hci user-channel socket is only available on linux")
}
