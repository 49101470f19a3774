package servo

import (
	"fmt"

	"github.com/cjeanneret/SkidGo/internal/debug"
	"github.com/cjeanneret/SkidGo/internal/hw/pwm"
)

const (
	MinAngle = 0
	MaxAngle = 180
)

// Config describes a hobby servo (SG90 and friends) on a PWM channel.
type Config struct {
	Channel    int
	PeriodHz   int // usually 50
	MinPulseUs int // pulse width at 0°
	MaxPulseUs int // pulse width at 180°
}

// PWMServo is a Servo driven by a PWM channel. The channel is set up with
// a cycle of one period in microseconds, so a duty value is a pulse width in µs.
type PWMServo struct {
	pwm   pwm.Driver
	cfg   Config
	cycle uint32
	angle int
}

// NewPWMServo sets up the channel. It does not move the servo; the first
// Write establishes the position.
func NewPWMServo(d pwm.Driver, cfg Config) (*PWMServo, error) {
	if cfg.PeriodHz <= 0 {
		return nil, fmt.Errorf("servo: period must be > 0 Hz, got %d", cfg.PeriodHz)
	}
	cycle := 1000000 / cfg.PeriodHz
	if cfg.MinPulseUs <= 0 || cfg.MinPulseUs >= cfg.MaxPulseUs || cfg.MaxPulseUs > cycle {
		return nil, fmt.Errorf("servo: pulse range %d-%dus invalid for a %dus period", cfg.MinPulseUs, cfg.MaxPulseUs, cycle)
	}
	if err := d.SetupChannel(cfg.Channel, cfg.PeriodHz, uint32(cycle)); err != nil {
		return nil, fmt.Errorf("servo: %w", err)
	}
	return &PWMServo{
		pwm:   d,
		cfg:   cfg,
		cycle: uint32(cycle),
		angle: -1,
	}, nil
}

func clampAngle(deg int) int {
	if deg < MinAngle {
		return MinAngle
	}
	if deg > MaxAngle {
		return MaxAngle
	}
	return deg
}

// PulseUs returns the pulse width for an angle, clamped to 0-180°.
func (s *PWMServo) PulseUs(deg int) int {
	deg = clampAngle(deg)
	span := s.cfg.MaxPulseUs - s.cfg.MinPulseUs
	return s.cfg.MinPulseUs + (deg*span+MaxAngle/2)/MaxAngle
}

func (s *PWMServo) Write(deg int) error {
	deg = clampAngle(deg)
	pulse := s.PulseUs(deg)
	debug.Verbose("Servo: %d° -> %dus on channel %d", deg, pulse, s.cfg.Channel)

	if err := s.pwm.WriteDuty(s.cfg.Channel, uint32(pulse)); err != nil {
		return err
	}
	s.angle = deg
	return nil
}

// Angle returns the last angle written, -1 before the first Write.
func (s *PWMServo) Angle() int {
	return s.angle
}
