package bridge

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/martabal/rpi-dht22-mqtt/internal/dht22"
	"github.com/martabal/rpi-dht22-mqtt/internal/gpio"
)

// Values are pre-formatted to one decimal place, matching the sensor's
// resolution; subscribers get "12.4", never 12.39999.
type temperaturePayload struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
}

// NewTemperatureSource returns a per-session source factory that reads the
// DHT22 on pin.
func NewTemperatureSource(pin gpio.Pin, logger *slog.Logger) func() Source {
	return func() Source {
		return &temperatureSource{
			read:   func() (dht22.Reading, error) { return dht22.Read(pin) },
			logger: logger,
		}
	}
}

type temperatureSource struct {
	read   func() (dht22.Reading, error)
	logger *slog.Logger
}

func (t *temperatureSource) Next() ([]byte, error) {
	t.logger.Debug("reading temperature and humidity")
	reading, err := t.read()
	if err != nil {
		return nil, err
	}

	temperature := strconv.FormatFloat(reading.Temperature, 'f', 1, 64)
	humidity := strconv.FormatFloat(reading.Humidity, 'f', 1, 64)
	t.logger.Debug("reading acquired", "temperature", temperature, "humidity", humidity)

	return json.Marshal(temperaturePayload{
		Temperature: temperature,
		Humidity:    humidity,
	})
}
