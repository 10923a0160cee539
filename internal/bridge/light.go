package bridge

import (
	"encoding/json"
	"log/slog"

	"github.com/martabal/rpi-dht22-mqtt/internal/gpio"
	"github.com/martabal/rpi-dht22-mqtt/internal/light"
)

type lightPayload struct {
	Light bool `json:"light"`
}

// NewLightSource returns a per-session source factory that probes the light
// pin and publishes only on state transitions. The previous observed state
// lives in the source, so it resets to unknown on every reconnect and the
// first probe of a session always publishes.
func NewLightSource(pin gpio.Pin, logger *slog.Logger) func() Source {
	return func() Source {
		return &lightSource{pin: pin, logger: logger}
	}
}

type lightSource struct {
	pin      gpio.Pin
	logger   *slog.Logger
	previous *bool
}

func (l *lightSource) Next() ([]byte, error) {
	lit, err := light.Probe(l.pin)
	if err != nil {
		return nil, err
	}

	if l.previous != nil && *l.previous == lit {
		l.logger.Debug("no change detected")
		return nil, nil
	}
	l.previous = &lit

	l.logger.Debug("light state changed", "light", lit)
	return json.Marshal(lightPayload{Light: lit})
}
