package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	cases := []string{
		"configs/default.yaml",
		"./configs/bench.yaml",
		filepath.Join(t.TempDir(), "configs", "rover.yaml"),
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err != nil {
			t.Errorf("expected valid path %q, got error: %v", path, err)
		}
	}
}

func TestValidateConfigPath_PathTraversal(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"configs/../../../etc/shadow",
		"../configs/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for traversal path %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_WrongExtension(t *testing.T) {
	cases := []string{
		"configs/default.json",
		"configs/default.yml",
		"configs/default.txt",
		"configs/default",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for extension in %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_NotInConfigsDir(t *testing.T) {
	cases := []string{
		"other/default.yaml",
		"default.yaml",
		"/tmp/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for path outside configs/ %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_EmptyPath(t *testing.T) {
	if err := ValidateConfigPath(""); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
left_motor:
  pin: 12
  pwm_freq_hz: 8000
right_motor:
  pin: 13
  pwm_freq_hz: 8000
elevator:
  pin: 0
  period_hz: 50
  min_pulse_us: 500
  max_pulse_us: 2400
  driver: pca9685
output:
  driver: rpio
  resolution_bits: 10
  i2c_bus: "1"
  i2c_addr: 0x41
defaults:
  debug_level: 2
`

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LeftMotor.Pin != 12 || cfg.RightMotor.Pin != 13 {
		t.Errorf("motor pins = %d/%d, want 12/13", cfg.LeftMotor.Pin, cfg.RightMotor.Pin)
	}
	if cfg.LeftMotor.PwmFreqHz != 8000 {
		t.Errorf("left_motor.pwm_freq_hz = %d, want 8000", cfg.LeftMotor.PwmFreqHz)
	}
	if cfg.Output.Driver != "rpio" {
		t.Errorf("output.driver = %q, want rpio", cfg.Output.Driver)
	}
	if cfg.ElevatorDriver() != "pca9685" {
		t.Errorf("ElevatorDriver() = %q, want pca9685", cfg.ElevatorDriver())
	}
	if cfg.Output.I2CAddr != 0x41 {
		t.Errorf("output.i2c_addr = %#x, want 0x41", cfg.Output.I2CAddr)
	}
	if cfg.DutyMax() != 1023 {
		t.Errorf("DutyMax() = %d, want 1023", cfg.DutyMax())
	}
	if cfg.Defaults.DebugLevel != 2 {
		t.Errorf("debug_level = %d, want 2", cfg.Defaults.DebugLevel)
	}
	opts := cfg.PWMOptions()
	if opts.I2CBus != "1" || opts.I2CAddr != 0x41 {
		t.Errorf("PWMOptions() = %+v", opts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "configs", "nope.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "left_motor: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
left_motor:
  pin: 1
right_motor:
  pin: 2
elevator:
  pin: 3
`
	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.Driver != "mock" {
		t.Errorf("output.driver default = %q, want mock", cfg.Output.Driver)
	}
	if cfg.Output.ResolutionBits != 10 {
		t.Errorf("resolution_bits default = %d, want 10", cfg.Output.ResolutionBits)
	}
	if cfg.Output.I2CAddr != 0x40 {
		t.Errorf("i2c_addr default = %#x, want 0x40", cfg.Output.I2CAddr)
	}
	if cfg.LeftMotor.PwmFreqHz != 1000 || cfg.RightMotor.PwmFreqHz != 1000 {
		t.Errorf("pwm_freq_hz defaults = %d/%d, want 1000", cfg.LeftMotor.PwmFreqHz, cfg.RightMotor.PwmFreqHz)
	}
	if cfg.Elevator.PeriodHz != 50 || cfg.Elevator.MinPulseUs != 500 || cfg.Elevator.MaxPulseUs != 2400 {
		t.Errorf("elevator defaults = %+v", cfg.Elevator)
	}
	if cfg.ElevatorDriver() != "mock" {
		t.Errorf("ElevatorDriver() = %q, want mock", cfg.ElevatorDriver())
	}
	if cfg.ServoPeriod() != 20*time.Millisecond {
		t.Errorf("ServoPeriod() = %v, want 20ms", cfg.ServoPeriod())
	}
}

func TestParse_Invalid(t *testing.T) {
	base := "left_motor: {pin: 1}\nright_motor: {pin: 2}\nelevator: {pin: 3}\n"
	cases := []struct {
		name  string
		yaml  string
		inErr string
	}{
		{"unknown_driver", base + "output: {driver: servoblaster}", "output.driver"},
		{"unknown_elevator_driver", "left_motor: {pin: 1}\nright_motor: {pin: 2}\nelevator: {pin: 3, driver: foo}", "elevator.driver"},
		{"resolution_too_high", base + "output: {resolution_bits: 17}", "resolution_bits"},
		{"resolution_negative", base + "output: {resolution_bits: -2}", "resolution_bits"},
		{"debug_level", base + "defaults: {debug_level: 9}", "debug_level"},
		{"i2c_addr", base + "output: {i2c_addr: 0x90}", "i2c_addr"},
		{"negative_pin", "left_motor: {pin: -1}\nright_motor: {pin: 2}\nelevator: {pin: 3}", "pins"},
		{"same_motor_pin", "left_motor: {pin: 4}\nright_motor: {pin: 4}\nelevator: {pin: 3}", "share pin"},
		{"elevator_on_motor_pin", "left_motor: {pin: 4}\nright_motor: {pin: 5}\nelevator: {pin: 5}", "already used"},
		{"pulse_order", "left_motor: {pin: 1}\nright_motor: {pin: 2}\nelevator: {pin: 3, min_pulse_us: 2500, max_pulse_us: 1000}", "min_pulse_us"},
		{"pulse_beyond_period", "left_motor: {pin: 1}\nright_motor: {pin: 2}\nelevator: {pin: 3, period_hz: 1000}", "servo period"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.inErr) {
				t.Errorf("error %q should mention %q", err, tc.inErr)
			}
		})
	}
}

func TestParse_RPiConstraints(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			"motors_on_both_channels",
			"output: {driver: rpio}\nleft_motor: {pin: 12}\nright_motor: {pin: 13}\nelevator: {pin: 0, driver: mock}",
			false,
		},
		{
			"motor_without_hardware_pwm",
			"output: {driver: rpio}\nleft_motor: {pin: 17}\nright_motor: {pin: 13}\nelevator: {pin: 0, driver: mock}",
			true,
		},
		{
			"motors_share_channel",
			"output: {driver: rpio}\nleft_motor: {pin: 12}\nright_motor: {pin: 18}\nelevator: {pin: 0, driver: mock}",
			true,
		},
		{
			"three_outputs_on_rpio",
			"output: {driver: rpio}\nleft_motor: {pin: 12}\nright_motor: {pin: 13}\nelevator: {pin: 19}",
			true,
		},
		{
			"mismatched_motor_frequency",
			"output: {driver: rpio}\nleft_motor: {pin: 12, pwm_freq_hz: 8000}\nright_motor: {pin: 13, pwm_freq_hz: 4000}\nelevator: {pin: 0, driver: mock}",
			true,
		},
		{
			"elevator_only_on_rpio",
			"output: {driver: pca9685}\nleft_motor: {pin: 0}\nright_motor: {pin: 1}\nelevator: {pin: 18, driver: rpio}",
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDutyMax(t *testing.T) {
	cases := []struct {
		bits int
		want int
	}{
		{8, 255},
		{10, 1023},
		{12, 4095},
		{16, 65535},
	}
	for _, tc := range cases {
		cfg := &Config{Output: OutputConfig{ResolutionBits: tc.bits}}
		if got := cfg.DutyMax(); got != tc.want {
			t.Errorf("DutyMax() with %d bits = %d, want %d", tc.bits, got, tc.want)
		}
	}
}
