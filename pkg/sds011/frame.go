package sds011

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// FrameHead starts every frame in both directions.
	FrameHead byte = 0xAA
	// FrameTail ends every frame in both directions.
	FrameTail byte = 0xAB

	// RequestLen is the size of an outgoing command frame.
	RequestLen = 19
	// ReplyLen is the size of an incoming reply frame.
	ReplyLen = 10

	// requestMarker is the direction marker of outgoing frames. It sits
	// between the head and the data region, outside the checksum window.
	requestMarker byte = 0xB4

	// dataLen is the size of the request data region: operation code,
	// arguments, zero padding and the two address bytes.
	dataLen = 15
	// usableLen is the portion of the data region before the address.
	usableLen = dataLen - 2
)

// Command is the operation code carried in the first data byte of a
// request frame.
type Command byte

// Operation codes understood by the sensor.
const (
	CmdSetReportMode Command = 2
	CmdQueryData     Command = 4
	CmdSetDeviceID   Command = 5
	CmdSetSleepWork  Command = 6
)

// Address identifies a sensor on the line.
type Address uint16

// Broadcast addresses every sensor on the line, encoded as FF FF.
const Broadcast Address = 0xFFFF

// Bytes splits the address little-endian.
func (a Address) Bytes() (lo, hi byte) {
	return byte(a), byte(a >> 8)
}

// Checksum is the additive 8-bit checksum over b.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}

// BuildFrame assembles a full request frame around data, where data[0]
// is the operation code. Up to 13 bytes fit before the address slot;
// the rest of the region is zero padded. The checksum covers the data
// region only, never the markers or itself.
func BuildFrame(data []byte, addr Address) ([]byte, error) {
	if len(data) > usableLen {
		return nil, errors.Wrapf(ErrDataTooLong, "%d bytes, limit %d", len(data), usableLen)
	}
	frame := make([]byte, RequestLen)
	frame[0], frame[1] = FrameHead, requestMarker
	copy(frame[2:], data)
	frame[RequestLen-4], frame[RequestLen-3] = addr.Bytes()
	frame[RequestLen-2] = Checksum(frame[2 : RequestLen-2])
	frame[RequestLen-1] = FrameTail
	return frame, nil
}

// EncodeRequest builds the request frame for cmd with the given
// argument bytes.
func EncodeRequest(cmd Command, addr Address, args ...byte) ([]byte, error) {
	data := make([]byte, 0, len(args)+1)
	data = append(data, byte(cmd))
	data = append(data, args...)
	return BuildFrame(data, addr)
}

// Reply is a validated incoming frame. The measurement reply carries
// PM2.5, PM10 (both in tenths of µg/m³) and the device id as the
// three little-endian fields.
type Reply struct {
	Cmd      byte
	Fields   [3]uint16
	Checksum byte
}

// DecodeReply validates and unpacks a reply frame.
func DecodeReply(frame []byte) (*Reply, error) {
	if len(frame) != ReplyLen {
		return nil, errors.Wrapf(ErrFrameFormat, "reply is %d bytes, want %d", len(frame), ReplyLen)
	}
	if frame[0] != FrameHead || frame[ReplyLen-1] != FrameTail {
		return nil, errors.Wrapf(ErrFrameFormat, "bad head/tail %02x/%02x", frame[0], frame[ReplyLen-1])
	}
	if sum := Checksum(frame[2:8]); sum != frame[8] {
		return nil, errors.Wrapf(ErrChecksum, "computed %02x, received %02x", sum, frame[8])
	}
	r := &Reply{Cmd: frame[1], Checksum: frame[8]}
	for i := range r.Fields {
		r.Fields[i] = binary.LittleEndian.Uint16(frame[2+2*i:])
	}
	return r, nil
}

// Measurement is a decoded particulate reading in µg/m³.
type Measurement struct {
	PM25     float64
	PM10     float64
	DeviceID int
}

// Failed is the sentinel returned by Query when a reply cannot be
// decoded.
var Failed = Measurement{PM25: -1, PM10: -1, DeviceID: -1}

// Measurement converts the reply fields to a reading.
func (r *Reply) Measurement() Measurement {
	return Measurement{
		PM25:     float64(r.Fields[0]) / 10,
		PM10:     float64(r.Fields[1]) / 10,
		DeviceID: int(r.Fields[2]),
	}
}
