package sds011

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Port is the duplex byte stream to the sensor line. Read must return
// within a bounded interval when no data is available (a serial port
// opened with a read timeout). Drain discards buffered unread bytes:
// in the factory-default active reporting mode the sensor streams
// unsolicited readings, and stale bytes must not be taken for the
// reply to the next request.
type Port interface {
	io.ReadWriter
	Drain() error
}

// DefaultTimeout bounds the wait for a full reply frame.
const DefaultTimeout = time.Second

// Sensor exposes the command API of an SDS011 on an open Port.
// Each call performs one synchronous request/response exchange. Frames
// carry no correlation id, so the internal lock keeps concurrent
// callers from interleaving exchanges on the shared line.
type Sensor struct {
	Timeout time.Duration

	port Port
	lock sync.Mutex
}

// New creates a Sensor bound to port.
func New(port Port) *Sensor {
	return &Sensor{Timeout: DefaultTimeout, port: port}
}

// Query requests a measurement from the addressed sensor. A reply that
// fails frame validation degrades to the Failed sentinel with a nil
// error: under active reporting a misaligned or corrupted reply is
// expected noise, not a fatal condition. Timeout and transport errors
// propagate.
func (s *Sensor) Query(addr Address) (Measurement, error) {
	reply, err := s.exchange(CmdQueryData, addr)
	if err != nil {
		if IsProtocolError(err) {
			glog.Warningf("dropping unreadable reply: %v", err)
			return Failed, nil
		}
		return Failed, err
	}
	return reply.Measurement(), nil
}

// SetReportMode selects query (true) or active (false) reporting.
// The sensor does not guarantee a meaningful body in configuration
// acks, so the reply is not validated beyond completing the exchange.
func (s *Sensor) SetReportMode(query bool, addr Address) error {
	_, err := s.exchange(CmdSetReportMode, addr, 1, bit(query))
	return configResult(err)
}

// SetQueryMode switches the sensor to report only when queried.
func (s *Sensor) SetQueryMode(addr Address) error {
	return s.SetReportMode(true, addr)
}

// SetActiveMode switches the sensor to stream readings unsolicited.
func (s *Sensor) SetActiveMode(addr Address) error {
	return s.SetReportMode(false, addr)
}

// SetSleepWork switches the fan and laser on (true) or off (false),
// with the same ack policy as SetReportMode.
func (s *Sensor) SetSleepWork(work bool, addr Address) error {
	_, err := s.exchange(CmdSetSleepWork, addr, 1, bit(work))
	return configResult(err)
}

// Sleep stops the fan and laser.
func (s *Sensor) Sleep(addr Address) error {
	return s.SetSleepWork(false, addr)
}

// Work starts the fan and laser.
func (s *Sensor) Work(addr Address) error {
	return s.SetSleepWork(true, addr)
}

// SetDeviceID assigns a new 16-bit device id. The new id bytes occupy
// the address slot of the frame, so the command always broadcasts.
func (s *Sensor) SetDeviceID(newID Address) error {
	args := make([]byte, usableLen-1)
	args[len(args)-2], args[len(args)-1] = newID.Bytes()
	_, err := s.exchange(CmdSetDeviceID, Broadcast, args...)
	return configResult(err)
}

func (s *Sensor) exchange(cmd Command, addr Address, args ...byte) (*Reply, error) {
	frame, err := EncodeRequest(cmd, addr, args...)
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.port.Drain(); err != nil {
		return nil, errors.Wrap(err, "drain")
	}
	if _, err := s.port.Write(frame); err != nil {
		return nil, errors.Wrap(err, "send")
	}
	raw, err := s.readReply()
	if err != nil {
		return nil, err
	}
	return DecodeReply(raw)
}

// readReply reads exactly ReplyLen bytes, giving up at the deadline.
// Short reads from the port's own read timeout are retried until then.
func (s *Sensor) readReply() ([]byte, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	buf := make([]byte, ReplyLen)
	got := 0
	for got < ReplyLen {
		n, err := s.port.Read(buf[got:])
		got += n
		if err != nil && err != io.EOF && !os.IsTimeout(err) {
			return nil, errors.Wrap(err, "receive")
		}
		if got >= ReplyLen {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, errors.Wrapf(ErrTimeout, "%d of %d bytes", got, ReplyLen)
		}
	}
	return buf, nil
}

// configResult applies the fire-and-forget policy of configuration
// commands: a malformed ack is ignored.
func configResult(err error) error {
	if err != nil && IsProtocolError(err) {
		glog.V(1).Infof("ignoring malformed ack: %v", err)
		return nil
	}
	return err
}

func bit(b bool) byte {
	if b {
		return 1
	}
	return 0
}
