package motor

import (
	"fmt"

	"github.com/cjeanneret/SkidGo/internal/debug"
	"github.com/cjeanneret/SkidGo/internal/hw/pwm"
)

// Config holds the hardware configuration for a DC motor driver input.
type Config struct {
	Name    string // "left" or "right", for logs
	Channel int    // PWM channel (BCM pin for rpio, output index for pca9685)
	FreqHz  int    // PWM frequency
	DutyMax int    // largest duty value, 2^bits - 1
}

// Motor drives one DC motor (or ESC/H-bridge enable line) with a PWM duty.
type Motor struct {
	pwm  pwm.Driver
	cfg  Config
	duty int
}

// NewMotor sets up the PWM channel and leaves the motor stopped.
func NewMotor(d pwm.Driver, cfg Config) (*Motor, error) {
	if cfg.DutyMax < 1 {
		return nil, fmt.Errorf("motor %s: duty max must be >= 1, got %d", cfg.Name, cfg.DutyMax)
	}
	if err := d.SetupChannel(cfg.Channel, cfg.FreqHz, uint32(cfg.DutyMax+1)); err != nil {
		return nil, fmt.Errorf("motor %s: %w", cfg.Name, err)
	}
	return &Motor{
		pwm: d,
		cfg: cfg,
	}, nil
}

// SetDuty writes a duty value. Values outside [0, DutyMax] are clamped.
func (m *Motor) SetDuty(duty int) error {
	if duty < 0 {
		duty = 0
	}
	if duty > m.cfg.DutyMax {
		duty = m.cfg.DutyMax
	}

	debug.Verbose("Motor %s: duty %d/%d on channel %d", m.cfg.Name, duty, m.cfg.DutyMax, m.cfg.Channel)

	if err := m.pwm.WriteDuty(m.cfg.Channel, uint32(duty)); err != nil {
		return err
	}
	m.duty = duty
	return nil
}

// Stop sets the duty to zero.
func (m *Motor) Stop() error {
	return m.SetDuty(0)
}

// Duty returns the last duty written successfully.
func (m *Motor) Duty() int {
	return m.duty
}

func (m *Motor) DutyMax() int {
	return m.cfg.DutyMax
}
