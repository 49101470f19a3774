package control

import (
	"fmt"

	"github.com/cjeanneret/SkidGo/internal/logic/mixer"
	"github.com/cjeanneret/SkidGo/internal/logic/output"
)

// Sink receives the computed outputs. Implementations write to hardware
// (see drive.Controller) or record values in tests.
type Sink interface {
	SetLeftDuty(duty int) error
	SetRightDuty(duty int) error
	SetElevator(deg int) error
}

// Outputs is one apply result: a duty per motor side and the servo angle.
type Outputs struct {
	DutyLeft    int `json:"duty_left"`
	DutyRight   int `json:"duty_right"`
	ElevatorDeg int `json:"elev"`
}

// Applier turns a snapshot into outputs and pushes them to a sink.
type Applier struct {
	translator *output.Translator
	sink       Sink
}

func NewApplier(t *output.Translator, sink Sink) *Applier {
	return &Applier{
		translator: t,
		sink:       sink,
	}
}

// Compute mixes both sides with mirrored steer and translates the result.
// It has no side effects.
func (a *Applier) Compute(s Snapshot) Outputs {
	leftPower, rightPower := mixer.Sides(s.Throttle, s.Steer)
	return Outputs{
		DutyLeft:    a.translator.Duty(leftPower),
		DutyRight:   a.translator.Duty(rightPower),
		ElevatorDeg: a.translator.Angle(s.ElevatorDeg),
	}
}

// Apply computes outputs for s and writes them to the sink.
// The returned Outputs are valid even when the sink reports an error.
func (a *Applier) Apply(s Snapshot) (Outputs, error) {
	out := a.Compute(s)

	if err := a.sink.SetLeftDuty(out.DutyLeft); err != nil {
		return out, fmt.Errorf("write left motor: %w", err)
	}
	if err := a.sink.SetRightDuty(out.DutyRight); err != nil {
		return out, fmt.Errorf("write right motor: %w", err)
	}
	if err := a.sink.SetElevator(out.ElevatorDeg); err != nil {
		return out, fmt.Errorf("write elevator: %w", err)
	}
	return out, nil
}
