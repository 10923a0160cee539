package dht22

import (
	"errors"
	"fmt"
	"testing"

	"github.com/martabal/rpi-dht22-mqtt/internal/gpio"
)

// fakePin replays a scripted sequence of levels, one per Read call. Once the
// script runs out it keeps returning afterLevel.
type fakePin struct {
	levels     []bool
	pos        int
	afterLevel bool

	outs   []bool
	inputs int

	outErr  error
	readErr error
}

func (p *fakePin) Output(high bool) error {
	if p.outErr != nil {
		return p.outErr
	}
	p.outs = append(p.outs, high)
	return nil
}

func (p *fakePin) Input() error {
	p.inputs++
	return nil
}

func (p *fakePin) Read() (bool, error) {
	if p.readErr != nil {
		return false, p.readErr
	}
	if p.pos < len(p.levels) {
		v := p.levels[p.pos]
		p.pos++
		return v, nil
	}
	return p.afterLevel, nil
}

// sampleScript turns a pulse train into the level sequence a pin would show
// to the sampling loop. Every phase needs one extra sample: the read that
// detects a phase's end consumes the first sample of the next phase, and the
// acknowledgment wait consumes the first sample of the first low phase.
func sampleScript(train PulseTrain, ackHighs int) []bool {
	var script []bool
	for i := 0; i < ackHighs; i++ {
		script = append(script, true)
	}
	for i, count := range train {
		level := i%2 == 1
		for j := uint32(0); j < count+1; j++ {
			script = append(script, level)
		}
	}
	return script
}

func TestCapture(t *testing.T) {
	want := buildTrain([5]byte{2, 140, 1, 95, 238}, 3, 3, 2, 1, 5)
	pin := &fakePin{levels: sampleScript(want, 3)}

	got, err := Capture(pin)
	if err != nil {
		t.Fatalf("Capture() error = %v, want nil", err)
	}
	if got != want {
		t.Errorf("Capture() = %v, want %v", got, want)
	}

	// Wake sequence: drive high, drive low, then listen.
	wantOuts := []bool{true, false}
	if len(pin.outs) != len(wantOuts) || pin.outs[0] != wantOuts[0] || pin.outs[1] != wantOuts[1] {
		t.Errorf("output levels = %v, want %v", pin.outs, wantOuts)
	}
	if pin.inputs != 1 {
		t.Errorf("input switches = %d, want 1", pin.inputs)
	}
}

func TestCapture_TimeoutWaitingForAck(t *testing.T) {
	// The sensor never answers: the line stays high forever.
	pin := &fakePin{afterLevel: true}

	_, err := Capture(pin)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Capture() error = %v, want ErrTimeout", err)
	}
}

func TestCapture_TimeoutDuringPulse(t *testing.T) {
	// One acknowledgment sample, then the line sticks low: the first pulse
	// phase never ends.
	pin := &fakePin{levels: []bool{true}}

	_, err := Capture(pin)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Capture() error = %v, want ErrTimeout", err)
	}
}

func TestCapture_HardwareError(t *testing.T) {
	pin := &fakePin{outErr: fmt.Errorf("%w: out GPIO4: broken", gpio.ErrHardware)}

	_, err := Capture(pin)
	if !errors.Is(err, gpio.ErrHardware) {
		t.Fatalf("Capture() error = %v, want wrapped gpio.ErrHardware", err)
	}
}

func TestRead(t *testing.T) {
	train := buildTrain([5]byte{2, 140, 1, 95, 238}, 3, 3, 2, 1, 5)
	pin := &fakePin{levels: sampleScript(train, 3)}

	got, err := Read(pin)
	if err != nil {
		t.Fatalf("Read() error = %v, want nil", err)
	}
	if got.Humidity != 65.2 || got.Temperature != 35.1 {
		t.Errorf("Read() = %+v, want humidity 65.2, temperature 35.1", got)
	}
}
