package output

import (
	"fmt"

	"github.com/cjeanneret/SkidGo/internal/logic/mixer"
)

// Supported PWM resolutions.
const (
	MinResolutionBits = 1
	MaxResolutionBits = 16
)

// DutyMaxForBits returns 2^bits - 1, the largest duty value at that resolution.
func DutyMaxForBits(bits int) (int, error) {
	if bits < MinResolutionBits || bits > MaxResolutionBits {
		return 0, fmt.Errorf("resolution must be between %d and %d bits, got %d", MinResolutionBits, MaxResolutionBits, bits)
	}
	return 1<<bits - 1, nil
}

// Translator maps mixed power percentages to device duty values and
// bounds the elevator angle.
type Translator struct {
	dutyMax int
}

// NewTranslator creates a translator for a PWM resolution in bits.
func NewTranslator(resolutionBits int) (*Translator, error) {
	dutyMax, err := DutyMaxForBits(resolutionBits)
	if err != nil {
		return nil, err
	}
	return &Translator{dutyMax: dutyMax}, nil
}

// DutyMax returns the duty value emitted for 100%.
func (t *Translator) DutyMax() int {
	return t.dutyMax
}

// Duty converts a power percentage to a duty value in [0, DutyMax].
// The percentage is clamped first; the map rounds half up so that
// 0 -> 0 and 100 -> DutyMax exactly.
func (t *Translator) Duty(pct int) int {
	pct = mixer.Clamp(pct, mixer.ThrottleMin, mixer.ThrottleMax)
	span := mixer.ThrottleMax - mixer.ThrottleMin
	return ((pct-mixer.ThrottleMin)*t.dutyMax + span/2) / span
}

// Angle bounds an elevator angle to [0, 180] degrees.
func (t *Translator) Angle(deg int) int {
	return mixer.Clamp(deg, mixer.ElevatorMinDeg, mixer.ElevatorMaxDeg)
}
