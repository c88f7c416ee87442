package sds011

import (
	"github.com/pkg/errors"
)

var (
	// ErrFrameFormat indicates the head/tail markers or the byte count
	// do not match the frame layout.
	ErrFrameFormat = errors.New("frame format mismatch")
	// ErrChecksum indicates the computed checksum disagrees with the
	// transmitted one: transport corruption or a misaligned stream.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrTimeout indicates the full reply did not arrive within the
	// bounded wait.
	ErrTimeout = errors.New("reply timeout")
	// ErrDataTooLong indicates the request data exceeds the region
	// reserved before the address bytes. It is never truncated.
	ErrDataTooLong = errors.New("request data too long")
)

// IsProtocolError reports whether err is a frame validation failure,
// as opposed to a transport or timeout error.
func IsProtocolError(err error) bool {
	switch errors.Cause(err) {
	case ErrFrameFormat, ErrChecksum:
		return true
	}
	return false
}
