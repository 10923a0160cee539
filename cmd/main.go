package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/martabal/rpi-dht22-mqtt/internal/app"
	"github.com/martabal/rpi-dht22-mqtt/internal/config"
	"github.com/martabal/rpi-dht22-mqtt/internal/logging"
)

var version = "dev"
var appName = "rpi-dht22-mqtt"

func main() {
	// Optional .env file next to the binary; the environment wins.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)
	slog.Debug("configuration",
		"mqtt_host", cfg.MQTTHost,
		"mqtt_port", cfg.MQTTPort,
		"light_pin", cfg.LightPin,
		"dht_pin", cfg.TemperaturePin,
		"publish_delay", cfg.PublishDelay,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
