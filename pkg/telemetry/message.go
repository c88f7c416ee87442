package telemetry

import (
	"encoding/json"
	"time"

	"github.com/robotalks/dust.go/pkg/sds011"
)

// Reading is the JSON document published for each measurement.
type Reading struct {
	PM25     float64   `json:"pm2_5"`
	PM10     float64   `json:"pm10"`
	DeviceID int       `json:"device_id"`
	Time     time.Time `json:"time"`
}

// NewReading wraps a measurement with the capture time.
func NewReading(m sds011.Measurement) *Reading {
	return &Reading{
		PM25:     m.PM25,
		PM10:     m.PM10,
		DeviceID: m.DeviceID,
		Time:     time.Now(),
	}
}

// Encode marshals the reading for publishing.
func (r *Reading) Encode() ([]byte, error) {
	return json.Marshal(r)
}
