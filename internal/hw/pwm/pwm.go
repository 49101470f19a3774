package pwm

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/SkidGo/internal/debug"
)

// Driver kinds accepted by NewDriver.
const (
	KindMock    = "mock"
	KindRPi     = "rpio"
	KindPCA9685 = "pca9685"
)

// Driver defines the abstract interface for PWM outputs.
// A channel is whatever the backend addresses: a BCM pin for the
// Raspberry Pi hardware PWM, an output index for a PCA9685 board.
// cycle is the period length in counts; duty is written in the same unit.
type Driver interface {
	SetupChannel(ch int, freqHz int, cycle uint32) error
	WriteDuty(ch int, duty uint32) error
	Close() error
}

// Options carries backend specific settings.
type Options struct {
	I2CBus  string // periph bus name, "" = first available
	I2CAddr uint16 // PCA9685 address, usually 0x40
}

// NewDriver creates a PWM driver for the given kind.
func NewDriver(kind string, opts Options) (Driver, error) {
	switch kind {
	case KindMock:
		debug.Info("Using MOCK PWM driver (development mode)")
		return NewMockDriver(), nil
	case KindRPi:
		return NewRPiDriver()
	case KindPCA9685:
		return NewPCA9685Driver(opts.I2CBus, opts.I2CAddr)
	default:
		return nil, fmt.Errorf("unsupported pwm driver: %q", kind)
	}
}

// MockDriver keeps the last duty of every channel in memory.
// Used for development on PC or testing.
type MockDriver struct {
	mu     sync.Mutex
	cycles map[int]uint32
	duties map[int]uint32
	closed bool
}

func NewMockDriver() *MockDriver {
	return &MockDriver{
		cycles: make(map[int]uint32),
		duties: make(map[int]uint32),
	}
}

func (m *MockDriver) SetupChannel(ch int, freqHz int, cycle uint32) error {
	debug.PWM("SetupChannel", ch, fmt.Sprintf("%dHz/%d", freqHz, cycle))
	if cycle == 0 {
		return fmt.Errorf("channel %d: cycle must be > 0", ch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles[ch] = cycle
	m.duties[ch] = 0
	return nil
}

func (m *MockDriver) WriteDuty(ch int, duty uint32) error {
	debug.PWM("WriteDuty", ch, duty)
	m.mu.Lock()
	defer m.mu.Unlock()
	cycle, ok := m.cycles[ch]
	if !ok {
		return fmt.Errorf("channel %d not set up", ch)
	}
	if duty > cycle {
		duty = cycle
	}
	m.duties[ch] = duty
	return nil
}

// Duty returns the last duty written to ch.
func (m *MockDriver) Duty(ch int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duties[ch]
}

// Cycle returns the cycle ch was set up with, 0 if it was not.
func (m *MockDriver) Cycle(ch int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles[ch]
}

// Closed reports whether Close was called.
func (m *MockDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockDriver) Close() error {
	debug.Trace("PWM Close (mock)")
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.duties {
		m.duties[ch] = 0
	}
	m.closed = true
	return nil
}
