package mixer

// Setpoint domains. Inputs outside these ranges are clamped, never rejected.
const (
	ThrottleMin = 0
	ThrottleMax = 100

	SteerMin = -100 // full left
	SteerMax = 100  // full right

	ElevatorMinDeg     = 0
	ElevatorMaxDeg     = 180
	ElevatorNeutralDeg = 90
)

// Clamp bounds v to the inclusive range [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
