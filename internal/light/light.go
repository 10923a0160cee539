// Package light reads a binary light-presence sensor on a GPIO pin.
package light

import (
	"fmt"

	"github.com/martabal/rpi-dht22-mqtt/internal/gpio"
)

// Probe takes a single reading of the pin: true means light is present.
// No debouncing happens here; callers decide what a state change means.
func Probe(pin gpio.Pin) (bool, error) {
	if err := pin.Input(); err != nil {
		return false, fmt.Errorf("light: %w", err)
	}
	high, err := pin.Read()
	if err != nil {
		return false, fmt.Errorf("light: %w", err)
	}
	return high, nil
}
