package mixer

// Mix combines throttle and a signed steer contribution into the power of
// one side, in percent. The sum is clamped, not rescaled: a hard turn at
// high throttle saturates the outer side at ThrottleMax.
func Mix(throttle, steer int) int {
	return Clamp(throttle+steer, ThrottleMin, ThrottleMax)
}

// Sides returns the left and right power for a throttle/steer pair.
// Positive steer speeds up the right side and slows the left one.
func Sides(throttle, steer int) (left, right int) {
	return Mix(throttle, -steer), Mix(throttle, steer)
}
