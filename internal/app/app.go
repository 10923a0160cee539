package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/martabal/rpi-dht22-mqtt/internal/bridge"
	"github.com/martabal/rpi-dht22-mqtt/internal/config"
	"github.com/martabal/rpi-dht22-mqtt/internal/gpio"
	"github.com/martabal/rpi-dht22-mqtt/internal/mqtt"
)

const (
	// reconnectBackoff separates connection cycles after a session dies.
	reconnectBackoff = 10 * time.Second

	// dhtRecoveryDelay paces retries after a failed DHT22 read. The sensor
	// cannot be sampled more often than about every 2 seconds anyway.
	dhtRecoveryDelay = 10 * time.Second

	// lightTickInterval is the probe cadence of the light bridge.
	lightTickInterval = time.Second
)

// Run wires the pins, the MQTT clients and the two bridge supervisors, then
// blocks until ctx is canceled or wiring fails.
func Run(ctx context.Context, cfg config.Config) error {
	tlsConfig, err := mqtt.NewTLSConfig(cfg.CACertPath, cfg.ClientCertPath, cfg.ClientKeyPath)
	if err != nil {
		return fmt.Errorf("tls config: %w", err)
	}
	if tlsConfig != nil {
		slog.Info("using tls", "mtls", len(tlsConfig.Certificates) > 0)
	}

	lightPin, err := gpio.Open(cfg.LightPin)
	if err != nil {
		return fmt.Errorf("open light pin %d: %w", cfg.LightPin, err)
	}
	dhtPin, err := gpio.Open(cfg.TemperaturePin)
	if err != nil {
		return fmt.Errorf("open dht22 pin %d: %w", cfg.TemperaturePin, err)
	}

	// One session per bridge, each under its own client id, so a failure
	// in one bridge never tears down the other's session.
	lightLogger := slog.Default().With("bridge", "light")
	lightClient := mqtt.NewClient(mqtt.Options{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		ClientID: cfg.LightClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
		TLS:      tlsConfig,
	}, lightLogger)

	temperatureLogger := slog.Default().With("bridge", "temperature")
	temperatureClient := mqtt.NewClient(mqtt.Options{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		ClientID: cfg.TemperatureClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
		TLS:      tlsConfig,
	}, temperatureLogger)

	lightBridge := bridge.New(bridge.Config{
		Topic: cfg.LightTopic,
		Dial: func(ctx context.Context) (bridge.Session, error) {
			return lightClient.Dial(ctx)
		},
		NewSource:    bridge.NewLightSource(lightPin, lightLogger),
		TickInterval: lightTickInterval,
		Backoff:      reconnectBackoff,
		Logger:       lightLogger,
	})

	temperatureBridge := bridge.New(bridge.Config{
		Topic: cfg.TemperatureTopic,
		Dial: func(ctx context.Context) (bridge.Session, error) {
			return temperatureClient.Dial(ctx)
		},
		NewSource:     bridge.NewTemperatureSource(dhtPin, temperatureLogger),
		PublishDelay:  cfg.PublishDelay,
		RecoveryDelay: dhtRecoveryDelay,
		Backoff:       reconnectBackoff,
		Logger:        temperatureLogger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return lightBridge.Run(ctx) })
	g.Go(func() error { return temperatureBridge.Run(ctx) })
	return g.Wait()
}
