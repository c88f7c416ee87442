package sds011

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakePort replays canned reply bytes and records written frames.
// Bytes in stale simulate unsolicited active-reporting output buffered
// before the request; Drain discards them, like a real input flush.
type fakePort struct {
	stale  []byte
	in     bytes.Buffer
	out    bytes.Buffer
	drains int
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.stale) > 0 {
		n := copy(b, p.stale)
		p.stale = p.stale[n:]
		return n, nil
	}
	if p.in.Len() == 0 {
		return 0, io.EOF
	}
	return p.in.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.out.Write(b)
}

func (p *fakePort) Drain() error {
	p.drains++
	p.stale = nil
	return nil
}

func newTestSensor(port *fakePort) *Sensor {
	s := New(port)
	s.Timeout = 10 * time.Millisecond
	return s
}

func TestQuery(t *testing.T) {
	port := &fakePort{}
	port.in.Write(validReply())
	s := newTestSensor(port)

	m, err := s.Query(Broadcast)
	require.NoError(t, err)
	require.Equal(t, Measurement{PM25: 123.6, PM10: 261.8, DeviceID: 0x60a1}, m)
	require.Equal(t, 1, port.drains)

	expect, err := EncodeRequest(CmdQueryData, Broadcast)
	require.NoError(t, err)
	require.Equal(t, expect, port.out.Bytes())
}

func TestQueryDrainsStaleBytes(t *testing.T) {
	port := &fakePort{stale: []byte{0xaa, 0xc0, 1, 2, 3}}
	port.in.Write(validReply())
	s := newTestSensor(port)

	m, err := s.Query(Broadcast)
	require.NoError(t, err)
	require.Equal(t, 0x60a1, m.DeviceID)
}

func TestQueryDegradesOnBadReply(t *testing.T) {
	testCases := []struct {
		name  string
		reply []byte
	}{
		{"checksum", []byte{0xaa, 0xc0, 0xd4, 0x04, 0x3a, 0x0a, 0xa1, 0x60, 0x99, 0xab}},
		{"format", []byte{0x00, 0xc0, 0xd4, 0x04, 0x3a, 0x0a, 0xa1, 0x60, 0x1d, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			port := &fakePort{}
			port.in.Write(tc.reply)
			s := newTestSensor(port)

			m, err := s.Query(Broadcast)
			require.NoError(t, err)
			require.Equal(t, Failed, m)
		})
	}
}

func TestQueryTimeout(t *testing.T) {
	port := &fakePort{}
	port.in.Write(validReply()[:4]) // short reply never completes
	s := newTestSensor(port)

	_, err := s.Query(Broadcast)
	require.Error(t, err)
	require.Equal(t, ErrTimeout, errors.Cause(err))
}

func TestSetReportMode(t *testing.T) {
	port := &fakePort{}
	port.in.Write(validReply())
	s := newTestSensor(port)

	require.NoError(t, s.SetQueryMode(Broadcast))
	require.Equal(t,
		[]byte{0xaa, 0xb4, 2, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0x02, 0xab},
		port.out.Bytes())
}

func TestSetReportModeIgnoresMalformedAck(t *testing.T) {
	port := &fakePort{}
	port.in.Write(make([]byte, ReplyLen)) // all-zero ack fails validation
	s := newTestSensor(port)

	require.NoError(t, s.SetActiveMode(Broadcast))
}

func TestSetReportModeTimeout(t *testing.T) {
	port := &fakePort{}
	s := newTestSensor(port)

	err := s.SetReportMode(true, Broadcast)
	require.Error(t, err)
	require.Equal(t, ErrTimeout, errors.Cause(err))
}

func TestSetSleepWork(t *testing.T) {
	port := &fakePort{}
	port.in.Write(validReply())
	s := newTestSensor(port)

	require.NoError(t, s.Sleep(Address(0x1234)))
	frame := port.out.Bytes()
	require.Equal(t, []byte{6, 1, 0}, frame[2:5])
	require.Equal(t, []byte{0x34, 0x12}, frame[15:17])

	port.out.Reset()
	port.in.Write(validReply())
	require.NoError(t, s.Work(Address(0x1234)))
	frame = port.out.Bytes()
	require.Equal(t, []byte{6, 1, 1}, frame[2:5])
}

func TestSetDeviceID(t *testing.T) {
	port := &fakePort{}
	port.in.Write(validReply())
	s := newTestSensor(port)

	require.NoError(t, s.SetDeviceID(Address(0xa160)))
	frame := port.out.Bytes()
	require.Len(t, frame, RequestLen)
	require.Equal(t, byte(CmdSetDeviceID), frame[2])
	// new id in the last data slot, address slot broadcasts
	require.Equal(t, []byte{0x60, 0xa1}, frame[13:15])
	require.Equal(t, []byte{0xff, 0xff}, frame[15:17])
}
