package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SkidGo/internal/hw/pwm"
)

// MotorConfig holds the PWM output of one drive motor.
type MotorConfig struct {
	Pin       int `yaml:"pin"`         // BCM pin (rpio) or board channel (pca9685)
	PwmFreqHz int `yaml:"pwm_freq_hz"` // PWM frequency
}

// ElevatorConfig describes the elevator servo.
type ElevatorConfig struct {
	Pin        int    `yaml:"pin"`          // BCM pin (rpio) or board channel (pca9685)
	PeriodHz   int    `yaml:"period_hz"`    // servo frame rate, SG90 expects ~50Hz
	MinPulseUs int    `yaml:"min_pulse_us"` // pulse width at 0°
	MaxPulseUs int    `yaml:"max_pulse_us"` // pulse width at 180°
	Driver     string `yaml:"driver"`       // optional, defaults to output.driver
}

// OutputConfig selects the PWM backend.
type OutputConfig struct {
	Driver         string `yaml:"driver"`          // "mock", "rpio" or "pca9685"
	ResolutionBits int    `yaml:"resolution_bits"` // motor duty resolution, 10 = 0..1023
	I2CBus         string `yaml:"i2c_bus"`         // pca9685 only, "" = first bus
	I2CAddr        int    `yaml:"i2c_addr"`        // pca9685 only, default 0x40
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	LeftMotor  MotorConfig    `yaml:"left_motor"`
	RightMotor MotorConfig    `yaml:"right_motor"`
	Elevator   ElevatorConfig `yaml:"elevator"`
	Output     OutputConfig   `yaml:"output"`
	Defaults   DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath checks that path is a .yaml file inside a "configs" directory
// and does not use ".." to climb out of it.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Output.Driver == "" {
		c.Output.Driver = pwm.KindMock
	}
	if c.Output.ResolutionBits == 0 {
		c.Output.ResolutionBits = 10 // 0..1023
	}
	if c.Output.I2CAddr == 0 {
		c.Output.I2CAddr = 0x40
	}
	if c.LeftMotor.PwmFreqHz <= 0 {
		c.LeftMotor.PwmFreqHz = 1000
	}
	if c.RightMotor.PwmFreqHz <= 0 {
		c.RightMotor.PwmFreqHz = 1000
	}
	if c.Elevator.PeriodHz <= 0 {
		c.Elevator.PeriodHz = 50
	}
	if c.Elevator.MinPulseUs <= 0 {
		c.Elevator.MinPulseUs = 500
	}
	if c.Elevator.MaxPulseUs <= 0 {
		c.Elevator.MaxPulseUs = 2400
	}
}

// Validate checks value ranges and hardware constraints.
func (c *Config) Validate() error {
	if err := validDriver("output.driver", c.Output.Driver); err != nil {
		return err
	}
	if c.Elevator.Driver != "" {
		if err := validDriver("elevator.driver", c.Elevator.Driver); err != nil {
			return err
		}
	}
	if c.Output.ResolutionBits < 1 || c.Output.ResolutionBits > 16 {
		return fmt.Errorf("output.resolution_bits must be between 1 and 16, got %d", c.Output.ResolutionBits)
	}
	if c.Output.I2CAddr < 0x03 || c.Output.I2CAddr > 0x77 {
		return fmt.Errorf("output.i2c_addr must be between 0x03 and 0x77, got %#x", c.Output.I2CAddr)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	if c.LeftMotor.Pin < 0 || c.RightMotor.Pin < 0 || c.Elevator.Pin < 0 {
		return fmt.Errorf("pins must be >= 0")
	}
	if c.Elevator.MinPulseUs >= c.Elevator.MaxPulseUs {
		return fmt.Errorf("elevator.min_pulse_us (%d) must be < max_pulse_us (%d)", c.Elevator.MinPulseUs, c.Elevator.MaxPulseUs)
	}
	if periodUs := int(c.ServoPeriod() / time.Microsecond); c.Elevator.MaxPulseUs > periodUs {
		return fmt.Errorf("elevator.max_pulse_us (%d) exceeds the %dus servo period", c.Elevator.MaxPulseUs, periodUs)
	}
	if c.LeftMotor.Pin == c.RightMotor.Pin {
		return fmt.Errorf("left_motor and right_motor share pin %d", c.LeftMotor.Pin)
	}
	if c.Output.Driver == c.ElevatorDriver() && (c.Elevator.Pin == c.LeftMotor.Pin || c.Elevator.Pin == c.RightMotor.Pin) {
		return fmt.Errorf("elevator pin %d is already used by a motor", c.Elevator.Pin)
	}
	return c.validateRPiChannels()
}

// validateRPiChannels enforces the two-channel limit of the Raspberry Pi PWM block.
func (c *Config) validateRPiChannels() error {
	used := make(map[int]string)
	check := func(name string, pin int) error {
		ch, ok := pwm.RPiChannel(pin)
		if !ok {
			return fmt.Errorf("%s pin %d has no hardware PWM on rpio (use 12, 13, 18 or 19)", name, pin)
		}
		if other, taken := used[ch]; taken {
			return fmt.Errorf("%s pin %d shares PWM channel %d with %s; move one output to pca9685", name, pin, ch, other)
		}
		used[ch] = name
		return nil
	}

	if c.Output.Driver == pwm.KindRPi {
		if c.LeftMotor.PwmFreqHz != c.RightMotor.PwmFreqHz {
			return fmt.Errorf("rpio motors share one PWM clock: pwm_freq_hz must match (%d vs %d)", c.LeftMotor.PwmFreqHz, c.RightMotor.PwmFreqHz)
		}
		if err := check("left_motor", c.LeftMotor.Pin); err != nil {
			return err
		}
		if err := check("right_motor", c.RightMotor.Pin); err != nil {
			return err
		}
	}
	if c.ElevatorDriver() == pwm.KindRPi {
		if err := check("elevator", c.Elevator.Pin); err != nil {
			return err
		}
	}
	return nil
}

func validDriver(field, kind string) error {
	switch kind {
	case pwm.KindMock, pwm.KindRPi, pwm.KindPCA9685:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s; got %q", field, pwm.KindMock, pwm.KindRPi, pwm.KindPCA9685, kind)
	}
}

// ElevatorDriver returns the PWM backend of the elevator servo.
func (c *Config) ElevatorDriver() string {
	if c.Elevator.Driver != "" {
		return c.Elevator.Driver
	}
	return c.Output.Driver
}

// DutyMax returns the largest motor duty value, 2^resolution_bits - 1.
func (c *Config) DutyMax() int {
	return 1<<c.Output.ResolutionBits - 1
}

// ServoPeriod returns the duration of one servo frame.
func (c *Config) ServoPeriod() time.Duration {
	return time.Second / time.Duration(c.Elevator.PeriodHz)
}

// PWMOptions returns backend options for pwm.NewDriver.
func (c *Config) PWMOptions() pwm.Options {
	return pwm.Options{
		I2CBus:  c.Output.I2CBus,
		I2CAddr: uint16(c.Output.I2CAddr),
	}
}
