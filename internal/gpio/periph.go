package gpio

import (
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type periphPin struct {
	pin gpio.PinIO
}

// Open initializes the host drivers and looks up a pin by its BCM number.
// host.Init caches its state, so opening several pins is cheap.
func Open(number int) (Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host init: %v", ErrHardware, err)
	}

	p := gpioreg.ByName(strconv.Itoa(number))
	if p == nil {
		return nil, fmt.Errorf("%w: no pin %d", ErrHardware, number)
	}
	return &periphPin{pin: p}, nil
}

func (p *periphPin) Output(high bool) error {
	if err := p.pin.Out(gpio.Level(high)); err != nil {
		return fmt.Errorf("%w: out %s: %v", ErrHardware, p.pin.Name(), err)
	}
	return nil
}

func (p *periphPin) Input() error {
	// The DHT22 data line carries its own pull-up; the light sensor drives
	// the pin actively. Neither wants an internal pull.
	if err := p.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("%w: in %s: %v", ErrHardware, p.pin.Name(), err)
	}
	return nil
}

func (p *periphPin) Read() (bool, error) {
	return bool(p.pin.Read()), nil
}
