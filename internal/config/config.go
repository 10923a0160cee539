package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration. Everything comes from the
// environment; a .env file, if present, is loaded by main before this runs.
type Config struct {
	AppEnv   string
	LogLevel slog.Level

	MQTTHost     string
	MQTTPort     int
	MQTTUsername string
	MQTTPassword string

	LightPin      int
	LightClientID string
	LightTopic    string

	TemperaturePin      int
	TemperatureClientID string
	TemperatureTopic    string
	PublishDelay        time.Duration

	// TLS material paths. Empty CACertPath means plaintext; CA alone means
	// server-authenticated TLS; CA plus client cert and key means mTLS.
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string
}

// LoadFromEnv reads and validates the configuration. Any missing or
// malformed required variable is an error; the caller treats that as fatal
// before any broker session is attempted.
func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	mqttHost, err := require("MQTT_IP")
	if err != nil {
		return Config{}, err
	}
	mqttPort, err := requireInt("MQTT_PORT")
	if err != nil {
		return Config{}, err
	}
	if mqttPort < 1 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT out of range: %d", mqttPort)
	}
	mqttUsername, err := require("MQTT_USERNAME")
	if err != nil {
		return Config{}, err
	}
	mqttPassword, err := require("MQTT_PASSWORD")
	if err != nil {
		return Config{}, err
	}

	lightPin, err := requirePin("LIGHT_PIN")
	if err != nil {
		return Config{}, err
	}
	lightClientID, err := require("LIGHT_MQTT_CLIENT_ID")
	if err != nil {
		return Config{}, err
	}
	lightTopic, err := require("LIGHT_MQTT_TOPIC")
	if err != nil {
		return Config{}, err
	}

	temperaturePin, err := requirePin("TEMPERATURE_DHT_PIN")
	if err != nil {
		return Config{}, err
	}
	temperatureClientID, err := require("TEMPERATURE_MQTT_CLIENT_ID")
	if err != nil {
		return Config{}, err
	}
	temperatureTopic, err := require("TEMPERATURE_MQTT_TOPIC")
	if err != nil {
		return Config{}, err
	}
	delaySeconds, err := requireInt("TEMPERATURE_MQTT_DELAY")
	if err != nil {
		return Config{}, err
	}
	if delaySeconds <= 0 {
		return Config{}, fmt.Errorf("TEMPERATURE_MQTT_DELAY must be positive, got %d", delaySeconds)
	}

	caCertPath := strings.TrimSpace(os.Getenv("CERTIFICATE_AUTHORITY_PATH"))
	clientCertPath := strings.TrimSpace(os.Getenv("MTLS_CERT_PATH"))
	clientKeyPath := strings.TrimSpace(os.Getenv("MTLS_PKEY_PATH"))

	return Config{
		AppEnv:              appEnv,
		LogLevel:            level,
		MQTTHost:            mqttHost,
		MQTTPort:            mqttPort,
		MQTTUsername:        mqttUsername,
		MQTTPassword:        mqttPassword,
		LightPin:            lightPin,
		LightClientID:       lightClientID,
		LightTopic:          lightTopic,
		TemperaturePin:      temperaturePin,
		TemperatureClientID: temperatureClientID,
		TemperatureTopic:    temperatureTopic,
		PublishDelay:        time.Duration(delaySeconds) * time.Second,
		CACertPath:          caCertPath,
		ClientCertPath:      clientCertPath,
		ClientKeyPath:       clientKeyPath,
	}, nil
}

func require(name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", fmt.Errorf("%s not set", name)
	}
	return v, nil
}

func requireInt(name string) (int, error) {
	s, err := require(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return n, nil
}

func requirePin(name string) (int, error) {
	n, err := requireInt(name)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("%s out of range: %d", name, n)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
