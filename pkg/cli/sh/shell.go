// Package sh provides the ishell backed interactive shell for dustcli.
package sh

import (
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dust.go/pkg/sds011"
	"github.com/robotalks/dust.go/pkg/serial"
	"github.com/robotalks/dust.go/pkg/telemetry"
)

// Shell wraps ishell with the state of one open sensor line.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Port   *serial.Port
	Sensor *sds011.Sensor
	Target sds011.Address
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	device     string

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&QueryCmd,
		&ModeCmd,
		&SleepCmd,
		&WorkCmd,
		&SetIDCmd,
		&TargetCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&device, "device", device, "Serial device to open at startup.")
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Target: sds011.Broadcast,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command funcs requiring an open sensor line.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Sensor == nil {
			c.Err(fmt.Errorf("no device open"))
			return
		}
		fn(c)
	}
}

// Open opens the sensor line on dev.
func (s *Shell) Open(dev string) error {
	if s.Sensor != nil {
		s.Close()
	}
	port, err := serial.Open(serial.DefaultConfig(dev))
	if err != nil {
		return err
	}
	s.Port, s.Sensor = port, sds011.New(port)
	s.Shell.SetPrompt("[" + dev + "] > ")
	return nil
}

// Close closes the open sensor line, if any.
func (s *Shell) Close() {
	if s.Port != nil {
		s.Port.Close()
	}
	s.Port, s.Sensor = nil, nil
	s.Shell.SetPrompt(closedPrompt)
}

// PrintMeasurement prints m honoring the output mode.
func (s *Shell) PrintMeasurement(c *ishell.Context, m sds011.Measurement) {
	if s.OutputJSON {
		out, err := telemetry.NewReading(m).Encode()
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Printf("PM2.5 %.1f µg/m³  PM10 %.1f µg/m³  (device %04x)\n", m.PM25, m.PM10, m.DeviceID)
}

// Main runs the shell. Intended to be used directly in func main.
func Main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	s := New()
	defer s.Close()
	if device != "" {
		if err := s.Open(device); err != nil {
			log.Fatalln(err)
		}
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	if err := s.Shell.Process(flag.Args()...); err != nil {
		log.Fatalln(err)
	}
}
