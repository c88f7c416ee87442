// Package serial opens the byte-stream transport to the sensor line.
package serial

import (
	"time"

	tarm "github.com/tarm/serial"
)

// Config describes the sensor line.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0.
	Device string
	// Baud rate, fixed at 9600 by the sensor.
	Baud int
	// ReadTimeout bounds a single Read when no data is available, so
	// the session can aggregate partial reads under its own deadline.
	ReadTimeout time.Duration
}

// DefaultConfig returns the manufacturer-specified settings for the
// sensor: 9600 baud, 8 data bits, no parity, 1 stop bit.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        9600,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Port is an open serial connection. It satisfies the transport
// contract of the sds011 package.
type Port struct {
	conn *tarm.Port
}

// Open opens the serial device described by conf.
func Open(conf *Config) (*Port, error) {
	conn, err := tarm.OpenPort(&tarm.Config{
		Name:        conf.Device,
		Baud:        conf.Baud,
		ReadTimeout: conf.ReadTimeout,
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	})
	if err != nil {
		return nil, err
	}
	return &Port{conn: conn}, nil
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	return p.conn.Read(b)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.conn.Write(b)
}

// Drain discards buffered unread bytes.
func (p *Port) Drain() error {
	return p.conn.Flush()
}

// Close closes the device.
func (p *Port) Close() error {
	return p.conn.Close()
}
