// Package dht22 reads a DHT22 temperature/humidity sensor over a single GPIO
// line. The sensor speaks a self-clocked pulse-width protocol: after a wake
// handshake it emits 40 data bits, each encoded in the duration of a high
// pulse. Capture records the raw pulse durations by busy-wait sampling;
// Decode turns them into a reading.
//
// Bit-banged sampling like this is error-prone; expect a sizable fraction of
// captures to fail with ErrTimeout or ErrChecksum and retry. The sensor must
// not be sampled more often than about once every 2 seconds.
package dht22

import (
	"errors"
	"fmt"
	"time"

	"github.com/martabal/rpi-dht22-mqtt/internal/gpio"
)

var (
	// ErrTimeout means a pulse phase exceeded the sampling ceiling, which
	// usually means the sensor never answered or a pulse was missed.
	ErrTimeout = errors.New("dht22: timeout waiting for pulse")

	// ErrChecksum means the transmitted checksum byte did not match the
	// four data bytes.
	ErrChecksum = errors.New("dht22: checksum mismatch")
)

const (
	// Pulses is the number of low/high phase pairs the sensor emits: one
	// sync pair followed by 40 data bits.
	Pulses = 41

	// TrainLen is the number of phase counts in a full capture.
	TrainLen = 2 * Pulses

	// maxCount bounds the busy-wait iterations spent in any single phase.
	maxCount = 32000

	// settleSpins is the fixed spin count of the settle delay after
	// switching the pin to input. The line is sometimes briefly low before
	// the sensor's acknowledgment pulse; a few microseconds of spinning
	// skips that window. Tuning parameter, not a protocol constant.
	settleSpins = 50
)

// PulseTrain holds the duration, in busy-wait iterations, of every phase of
// one transmission: train[2i] is the i-th low phase, train[2i+1] the i-th
// high phase. Indices 0 and 1 are the sync pair.
type PulseTrain [TrainLen]uint32

// Reading is a decoded DHT22 measurement.
type Reading struct {
	Temperature float64
	Humidity    float64
}

// spinSink keeps the settle loop from being optimized away.
var spinSink uint32

func settle() {
	for i := 0; i < settleSpins; i++ {
		spinSink++
	}
}

// Capture runs the wake handshake and records the pulse train. The sampling
// loops are deliberately synchronous: the protocol has microsecond-scale
// timing, so this function must run to completion without yielding.
func Capture(pin gpio.Pin) (PulseTrain, error) {
	var train PulseTrain

	// Wake the sensor: hold the line high, then pull it low long enough
	// for the sensor to notice, then release it and listen.
	if err := pin.Output(true); err != nil {
		return train, fmt.Errorf("dht22: wake: %w", err)
	}
	time.Sleep(500 * time.Millisecond)

	if err := pin.Output(false); err != nil {
		return train, fmt.Errorf("dht22: wake: %w", err)
	}
	time.Sleep(20 * time.Millisecond)

	if err := pin.Input(); err != nil {
		return train, fmt.Errorf("dht22: listen: %w", err)
	}

	// The line is sometimes briefly low right after the direction switch.
	settle()

	// Wait out the acknowledgment high pulse.
	for count := 0; ; count++ {
		if count > maxCount {
			return train, ErrTimeout
		}
		high, err := pin.Read()
		if err != nil {
			return train, fmt.Errorf("dht22: sample: %w", err)
		}
		if !high {
			break
		}
	}

	for i := 0; i < Pulses; i++ {
		if err := countPhase(pin, &train[2*i], false); err != nil {
			return train, err
		}
		if err := countPhase(pin, &train[2*i+1], true); err != nil {
			return train, err
		}
	}

	return train, nil
}

// countPhase spins until the pin leaves the given level, accumulating the
// iteration count.
func countPhase(pin gpio.Pin, count *uint32, level bool) error {
	for {
		high, err := pin.Read()
		if err != nil {
			return fmt.Errorf("dht22: sample: %w", err)
		}
		if high != level {
			return nil
		}
		*count++
		if *count > maxCount {
			return ErrTimeout
		}
	}
}

// Read captures one transmission and decodes it.
func Read(pin gpio.Pin) (Reading, error) {
	train, err := Capture(pin)
	if err != nil {
		return Reading{}, err
	}
	return Decode(train)
}
