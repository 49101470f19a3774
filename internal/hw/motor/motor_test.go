package motor

import (
	"errors"
	"testing"

	"github.com/cjeanneret/SkidGo/internal/hw/pwm"
)

// recordingDriver records PWM calls for verification.
type recordingDriver struct {
	setups []setupCall
	writes []writeCall
	fail   bool
}

type setupCall struct {
	ch     int
	freqHz int
	cycle  uint32
}

type writeCall struct {
	ch   int
	duty uint32
}

func (d *recordingDriver) SetupChannel(ch int, freqHz int, cycle uint32) error {
	d.setups = append(d.setups, setupCall{ch, freqHz, cycle})
	return nil
}

func (d *recordingDriver) WriteDuty(ch int, duty uint32) error {
	if d.fail {
		return errors.New("write failed")
	}
	d.writes = append(d.writes, writeCall{ch, duty})
	return nil
}

func (d *recordingDriver) Close() error {
	return nil
}

func TestNewMotor_SetsUpChannel(t *testing.T) {
	drv := &recordingDriver{}
	_, err := NewMotor(drv, Config{Name: "left", Channel: 12, FreqHz: 8000, DutyMax: 1023})
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}
	if len(drv.setups) != 1 {
		t.Fatalf("expected 1 setup call, got %d", len(drv.setups))
	}
	want := setupCall{12, 8000, 1024}
	if drv.setups[0] != want {
		t.Errorf("setup = %+v, want %+v", drv.setups[0], want)
	}
}

func TestNewMotor_InvalidDutyMax(t *testing.T) {
	if _, err := NewMotor(&recordingDriver{}, Config{Name: "left", DutyMax: 0}); err == nil {
		t.Error("expected error for DutyMax 0")
	}
}

func TestMotor_SetDuty(t *testing.T) {
	drv := &recordingDriver{}
	m, _ := NewMotor(drv, Config{Name: "right", Channel: 13, FreqHz: 8000, DutyMax: 1023})

	cases := []struct {
		name string
		in   int
		want uint32
	}{
		{"zero", 0, 0},
		{"half", 512, 512},
		{"max", 1023, 1023},
		{"over_max", 5000, 1023},
		{"negative", -3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			drv.writes = nil
			if err := m.SetDuty(tc.in); err != nil {
				t.Fatalf("SetDuty: %v", err)
			}
			if len(drv.writes) != 1 {
				t.Fatalf("expected 1 write, got %d", len(drv.writes))
			}
			if drv.writes[0].ch != 13 || drv.writes[0].duty != tc.want {
				t.Errorf("write = %+v, want ch=13 duty=%d", drv.writes[0], tc.want)
			}
			if m.Duty() != int(tc.want) {
				t.Errorf("Duty() = %d, want %d", m.Duty(), tc.want)
			}
		})
	}
}

func TestMotor_Stop(t *testing.T) {
	drv := &recordingDriver{}
	m, _ := NewMotor(drv, Config{Name: "left", Channel: 12, FreqHz: 8000, DutyMax: 255})
	_ = m.SetDuty(200)
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.Duty() != 0 {
		t.Errorf("Duty() after Stop = %d, want 0", m.Duty())
	}
}

func TestMotor_WriteErrorKeepsLastDuty(t *testing.T) {
	drv := &recordingDriver{}
	m, _ := NewMotor(drv, Config{Name: "left", Channel: 12, FreqHz: 8000, DutyMax: 1023})
	_ = m.SetDuty(100)
	drv.fail = true
	if err := m.SetDuty(900); err == nil {
		t.Fatal("expected error")
	}
	if m.Duty() != 100 {
		t.Errorf("Duty() = %d, want 100", m.Duty())
	}
}

func TestMotor_WithMockDriver(t *testing.T) {
	drv := pwm.NewMockDriver()
	m, err := NewMotor(drv, Config{Name: "left", Channel: 18, FreqHz: 8000, DutyMax: 1023})
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}
	_ = m.SetDuty(767)
	if got := drv.Duty(18); got != 767 {
		t.Errorf("mock duty = %d, want 767", got)
	}
}
