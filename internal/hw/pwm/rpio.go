package pwm

import (
	"fmt"

	"github.com/cjeanneret/SkidGo/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// Raspberry Pi PWM clock limits accepted by go-rpio.
const (
	rpiMinClockHz = 4688
	rpiMaxClockHz = 9600000
)

// rpiPWMChannels maps the BCM pins wired to the hardware PWM block to
// their channel. Pins on the same channel output the same signal.
var rpiPWMChannels = map[int]int{
	12: 0,
	18: 0,
	13: 1,
	19: 1,
}

// RPiChannel returns the hardware PWM channel of a BCM pin.
func RPiChannel(pin int) (int, bool) {
	ch, ok := rpiPWMChannels[pin]
	return ch, ok
}

// RPiDriver is the real implementation for Raspberry Pi hardware PWM using go-rpio.
// Both PWM channels share one clock, so every pin must use the same freqHz*cycle.
type RPiDriver struct {
	pins    map[int]rpio.Pin
	cycles  map[int]uint32
	clockHz int
}

// NewRPiDriver opens /dev/gpiomem. PWM needs /dev/mem, i.e. running as root.
func NewRPiDriver() (*RPiDriver, error) {
	debug.Info("Initializing real PWM driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins:   make(map[int]rpio.Pin),
		cycles: make(map[int]uint32),
	}, nil
}

func (r *RPiDriver) SetupChannel(pin int, freqHz int, cycle uint32) error {
	debug.PWM("SetupChannel", pin, fmt.Sprintf("%dHz/%d", freqHz, cycle))

	if _, ok := RPiChannel(pin); !ok {
		return fmt.Errorf("pin %d has no hardware PWM (use 12, 13, 18 or 19)", pin)
	}
	if cycle == 0 || freqHz <= 0 {
		return fmt.Errorf("pin %d: frequency and cycle must be > 0", pin)
	}
	clock := freqHz * int(cycle)
	if clock < rpiMinClockHz || clock > rpiMaxClockHz {
		return fmt.Errorf("pin %d: PWM clock %d Hz (%d Hz x %d) outside %d-%d Hz", pin, clock, freqHz, cycle, rpiMinClockHz, rpiMaxClockHz)
	}
	if r.clockHz != 0 && r.clockHz != clock {
		return fmt.Errorf("pin %d: PWM clock %d Hz conflicts with %d Hz already in use", pin, clock, r.clockHz)
	}

	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)
	p.Freq(clock)
	p.DutyCycle(0, cycle)

	r.clockHz = clock
	r.pins[pin] = p
	r.cycles[pin] = cycle
	return nil
}

func (r *RPiDriver) WriteDuty(pin int, duty uint32) error {
	debug.PWM("WriteDuty", pin, duty)

	p, ok := r.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d not set up for PWM", pin)
	}
	cycle := r.cycles[pin]
	if duty > cycle {
		duty = cycle
	}
	p.DutyCycle(duty, cycle)
	return nil
}

func (r *RPiDriver) Close() error {
	debug.Trace("PWM Close (real driver)")

	// Stop output and reset all pins to input (safe state)
	for pin, p := range r.pins {
		debug.Verbose("Resetting pin %d to input", pin)
		p.DutyCycle(0, r.cycles[pin])
		p.Input()
	}

	return rpio.Close()
}
