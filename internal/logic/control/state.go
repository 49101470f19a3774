package control

import (
	"fmt"

	"github.com/cjeanneret/SkidGo/internal/logic/mixer"
)

// Snapshot is a consistent copy of the three setpoints.
type Snapshot struct {
	Throttle    int `json:"throttle"`
	Steer       int `json:"steer"`
	ElevatorDeg int `json:"elev"`
}

// String renders the snapshot as the confirmation line sent back to clients.
func (s Snapshot) String() string {
	return fmt.Sprintf("Throttle: %d%%  |  Steer: %d  |  Elevator: %d°", s.Throttle, s.Steer, s.ElevatorDeg)
}

// Neutral is the power-on state: motors stopped, elevator centered.
func Neutral() Snapshot {
	return Snapshot{
		Throttle:    mixer.ThrottleMin,
		Steer:       0,
		ElevatorDeg: mixer.ElevatorNeutralDeg,
	}
}

// Update carries the optional fields of one control request.
// Nil fields leave the stored value unchanged.
type Update struct {
	Throttle *int `json:"throttle,omitempty"`
	Steer    *int `json:"steer,omitempty"`
	Elevator *int `json:"elev,omitempty"`
}

// Empty reports whether the update carries no field.
func (u Update) Empty() bool {
	return u.Throttle == nil && u.Steer == nil && u.Elevator == nil
}

// State holds the current setpoints. Every setter clamps to its domain,
// so a State never holds an out-of-range value.
// State is not safe for concurrent use; Controller serializes access.
type State struct {
	throttle int
	steer    int
	elevator int
}

// NewState returns a state initialized to Neutral.
func NewState() *State {
	n := Neutral()
	return &State{throttle: n.Throttle, steer: n.Steer, elevator: n.ElevatorDeg}
}

func (s *State) SetThrottle(v int) {
	s.throttle = mixer.Clamp(v, mixer.ThrottleMin, mixer.ThrottleMax)
}

func (s *State) SetSteer(v int) {
	s.steer = mixer.Clamp(v, mixer.SteerMin, mixer.SteerMax)
}

func (s *State) SetElevator(v int) {
	s.elevator = mixer.Clamp(v, mixer.ElevatorMinDeg, mixer.ElevatorMaxDeg)
}

// ApplyUpdate stores every field present in u.
func (s *State) ApplyUpdate(u Update) {
	if u.Throttle != nil {
		s.SetThrottle(*u.Throttle)
	}
	if u.Steer != nil {
		s.SetSteer(*u.Steer)
	}
	if u.Elevator != nil {
		s.SetElevator(*u.Elevator)
	}
}

// Restore overwrites all three setpoints from a snapshot.
func (s *State) Restore(snap Snapshot) {
	s.SetThrottle(snap.Throttle)
	s.SetSteer(snap.Steer)
	s.SetElevator(snap.ElevatorDeg)
}

// Current returns a copy of the setpoints.
func (s *State) Current() Snapshot {
	return Snapshot{Throttle: s.throttle, Steer: s.steer, ElevatorDeg: s.elevator}
}
