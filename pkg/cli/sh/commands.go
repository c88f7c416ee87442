package sh

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dust.go/pkg/sds011"
)

var (
	// OpenCmd opens a sensor line.
	OpenCmd = ishell.Cmd{
		Name: "open",
		Help: "DEVICE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DEVICE required"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the sensor line.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Func: MustBeOpen(func(c *ishell.Context) {
			ShellFrom(c).Close()
		}),
	}

	// QueryCmd queries one measurement.
	QueryCmd = ishell.Cmd{
		Name:    "query",
		Aliases: []string{"q"},
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			m, err := s.Sensor.Query(s.Target)
			if err != nil {
				c.Err(err)
				return
			}
			if m == sds011.Failed {
				c.Err(fmt.Errorf("unreadable reply, is the sensor in query mode?"))
				return
			}
			s.PrintMeasurement(c, m)
		}),
	}

	// ModeCmd sets the reporting mode.
	ModeCmd = ishell.Cmd{
		Name: "mode",
		Help: "query|active",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("query or active required"))
				return
			}
			s := ShellFrom(c)
			var err error
			switch c.Args[0] {
			case "query":
				err = s.Sensor.SetQueryMode(s.Target)
			case "active":
				err = s.Sensor.SetActiveMode(s.Target)
			default:
				err = fmt.Errorf("unknown mode %q", c.Args[0])
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// SleepCmd stops the fan and laser.
	SleepCmd = ishell.Cmd{
		Name: "sleep",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			if err := s.Sensor.Sleep(s.Target); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// WorkCmd starts the fan and laser.
	WorkCmd = ishell.Cmd{
		Name: "work",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			if err := s.Sensor.Work(s.Target); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// SetIDCmd assigns a new device id. Broadcasts by design, see
	// Sensor.SetDeviceID.
	SetIDCmd = ishell.Cmd{
		Name: "setid",
		Help: "ID(hex)",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ID required"))
				return
			}
			val, err := strconv.ParseUint(c.Args[0], 16, 16)
			if err != nil {
				c.Err(fmt.Errorf("Invalid ID: %v", err))
				return
			}
			if err := ShellFrom(c).Sensor.SetDeviceID(sds011.Address(val)); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// TargetCmd selects which sensor on the line to address.
	TargetCmd = ishell.Cmd{
		Name: "target",
		Help: "ID(hex)|all",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) < 1 {
				if s.Target == sds011.Broadcast {
					c.Println("all")
				} else {
					c.Printf("%04x\n", uint16(s.Target))
				}
				return
			}
			if c.Args[0] == "all" {
				s.Target = sds011.Broadcast
				return
			}
			val, err := strconv.ParseUint(c.Args[0], 16, 16)
			if err != nil {
				c.Err(fmt.Errorf("Invalid ID: %v", err))
				return
			}
			s.Target = sds011.Address(val)
		},
	}
)
