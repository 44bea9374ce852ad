// Package hardware drives the robot's Arduino-controlled jaw and eye
// servos over a serial link.
package hardware

import "errors"

// ErrNotConnected is returned when a command is issued while the serial
// link is down and reconnection failed.
var ErrNotConnected = errors.New("hardware: not connected")

// Controller accepts jaw intensity commands.
//
// Intensity is 0 to 100 where 0 is fully closed and 100 is fully open.
type Controller interface {
	// SetJaw moves the jaw servo. Values outside 0-100 are clamped.
	SetJaw(intensity int) error

	// Connected reports whether the link is currently up.
	Connected() bool

	// Close releases the serial port.
	Close() error
}
