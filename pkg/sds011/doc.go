// Package sds011 implements the wire protocol of the SDS011
// particulate-matter sensor.
package sds011

// The sensor speaks small fixed-length binary frames over a 9600 8N1
// serial line: 19-byte requests and 10-byte replies, both bounded by
// the 0xAA/0xAB markers with an additive 8-bit checksum over the data
// region.
//
// The codec (frame.go) is pure and has no knowledge of the transport.
// Sensor (sensor.go) binds it to an open Port and exposes the command
// API. One exchange is in flight at a time; operating mode
// (active/query reporting, sleep/work) is kept by the device itself,
// this package does not track it.
