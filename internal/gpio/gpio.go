// Package gpio defines the minimal pin contract the sensor bridges need and
// provides a periph.io-backed implementation for the Raspberry Pi.
package gpio

import "errors"

// ErrHardware marks failures of the underlying GPIO access itself, as
// opposed to protocol-level failures of whatever is wired to the pin.
// Implementations wrap their errors with it so callers can dispatch with
// errors.Is.
var ErrHardware = errors.New("gpio: hardware access failed")

// Pin is a single GPIO line. The DHT22 capture drives it in both directions;
// the light probe only ever reads it.
type Pin interface {
	// Output switches the pin to output mode and drives the given level
	// (true = high).
	Output(high bool) error

	// Input switches the pin to input mode.
	Input() error

	// Read samples the current level of the pin (true = high).
	Read() (bool, error)
}
