package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robotalks/dust.go/pkg/sds011"
	"github.com/robotalks/dust.go/pkg/serial"
	"github.com/robotalks/dust.go/pkg/telemetry"
)

var (
	device   = "/dev/ttyUSB0"
	mqttURL  = "mqtt://localhost:1883/dust/"
	interval = time.Minute
)

func init() {
	if val := os.Getenv("DUST_DEVICE"); val != "" {
		device = val
	}
	if val := os.Getenv("DUST_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&device, "device", device, "Serial device of the sensor.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.DurationVar(&interval, "interval", interval, "Time between measurements.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	port, err := serial.Open(serial.DefaultConfig(device))
	if err != nil {
		log.Fatalln(err)
	}
	defer port.Close()
	sensor := sds011.New(port)

	if err := sensor.SetQueryMode(sds011.Broadcast); err != nil {
		log.Fatalln(err)
	}
	if err := sensor.Work(sds011.Broadcast); err != nil {
		log.Fatalln(err)
	}

	q, err := telemetry.NewQueueFromURL(mqttURL, telemetry.ClientID("dustmon"))
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	if err := q.Sub("ctl", func(topic string, payload []byte) {
		if err := control(sensor, q, string(payload)); err != nil {
			log.Printf("ctl %q: %v", payload, err)
		}
	}); err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		return poll(ctx, sensor, q)
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

func poll(ctx context.Context, sensor *sds011.Sensor, q *telemetry.Queue) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		publish(sensor, q)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func publish(sensor *sds011.Sensor, q *telemetry.Queue) {
	m, err := sensor.Query(sds011.Broadcast)
	if err != nil {
		log.Printf("query: %v", err)
		return
	}
	if m == sds011.Failed {
		log.Printf("query: unreadable reply, skipped")
		return
	}
	payload, err := telemetry.NewReading(m).Encode()
	if err != nil {
		log.Printf("encode: %v", err)
		return
	}
	if err := q.Pub("reading", payload); err != nil {
		log.Printf("publish: %v", err)
	}
}

func control(sensor *sds011.Sensor, q *telemetry.Queue, cmd string) error {
	switch strings.TrimSpace(cmd) {
	case "sleep":
		return sensor.Sleep(sds011.Broadcast)
	case "work":
		return sensor.Work(sds011.Broadcast)
	case "query":
		publish(sensor, q)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}
