package pwm

import (
	"fmt"
	"io"

	"github.com/cjeanneret/SkidGo/internal/debug"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

// PCA9685 limits: 16 outputs, 12-bit counter, prescaler range.
const (
	pca9685Channels = 16
	pca9685Counts   = 4096
	pca9685MinHz    = 24
	pca9685MaxHz    = 1526
)

// pwmBoard is the part of *pca9685.Dev the driver uses.
type pwmBoard interface {
	SetPwmFreq(freqHz physic.Frequency) error
	SetPwm(channel int, on, off gpio.Duty) error
}

// PCA9685Driver drives a PCA9685 16-channel PWM board over I2C (periph.io).
// The board has a single prescaler, so all channels share one frequency.
type PCA9685Driver struct {
	board  pwmBoard
	bus    io.Closer
	freqHz int
	cycles map[int]uint32
}

// NewPCA9685Driver initializes periph host drivers and opens the board.
// busName "" selects the first I2C bus found.
func NewPCA9685Driver(busName string, addr uint16) (*PCA9685Driver, error) {
	debug.Info("Initializing PCA9685 PWM driver (periph.io) bus=%q addr=%#x", busName, addr)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open pca9685 at %#x: %w", addr, err)
	}
	return newPCA9685Driver(dev, bus), nil
}

func newPCA9685Driver(board pwmBoard, bus io.Closer) *PCA9685Driver {
	return &PCA9685Driver{
		board:  board,
		bus:    bus,
		cycles: make(map[int]uint32),
	}
}

func (d *PCA9685Driver) SetupChannel(ch int, freqHz int, cycle uint32) error {
	debug.PWM("SetupChannel", ch, fmt.Sprintf("%dHz/%d", freqHz, cycle))

	if ch < 0 || ch >= pca9685Channels {
		return fmt.Errorf("pca9685 channel must be 0-%d, got %d", pca9685Channels-1, ch)
	}
	if cycle == 0 {
		return fmt.Errorf("channel %d: cycle must be > 0", ch)
	}
	if freqHz < pca9685MinHz || freqHz > pca9685MaxHz {
		return fmt.Errorf("channel %d: pca9685 frequency must be %d-%d Hz, got %d", ch, pca9685MinHz, pca9685MaxHz, freqHz)
	}
	if d.freqHz == 0 {
		if err := d.board.SetPwmFreq(physic.Frequency(freqHz) * physic.Hertz); err != nil {
			return fmt.Errorf("set pca9685 frequency: %w", err)
		}
		d.freqHz = freqHz
	} else if d.freqHz != freqHz {
		return fmt.Errorf("channel %d: %d Hz conflicts with board frequency %d Hz", ch, freqHz, d.freqHz)
	}

	d.cycles[ch] = cycle
	return d.board.SetPwm(ch, 0, 0)
}

func (d *PCA9685Driver) WriteDuty(ch int, duty uint32) error {
	debug.PWM("WriteDuty", ch, duty)

	cycle, ok := d.cycles[ch]
	if !ok {
		return fmt.Errorf("channel %d not set up", ch)
	}
	return d.board.SetPwm(ch, 0, gpio.Duty(scaleToCounts(duty, cycle)))
}

// scaleToCounts converts duty/cycle to the board's 12-bit off count.
// 100% maps to the last count, the register cannot hold 4096.
func scaleToCounts(duty, cycle uint32) uint32 {
	if duty >= cycle {
		return pca9685Counts - 1
	}
	counts := (uint64(duty)*pca9685Counts + uint64(cycle)/2) / uint64(cycle)
	if counts >= pca9685Counts {
		counts = pca9685Counts - 1
	}
	return uint32(counts)
}

func (d *PCA9685Driver) Close() error {
	debug.Trace("PWM Close (pca9685)")

	var firstErr error
	for ch := range d.cycles {
		if err := d.board.SetPwm(ch, 0, 0); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.bus != nil {
		if err := d.bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
