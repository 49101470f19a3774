package drive

import (
	"errors"

	"github.com/cjeanneret/SkidGo/internal/hw/motor"
	"github.com/cjeanneret/SkidGo/internal/hw/servo"
)

// Controller owns the two drive motors and the elevator servo.
// It's the layer between the control logic (mixing, setpoints) and the
// hardware, and satisfies control.Sink.
type Controller struct {
	left     *motor.Motor
	right    *motor.Motor
	elevator servo.Servo
}

func NewController(left, right *motor.Motor, elevator servo.Servo) *Controller {
	return &Controller{
		left:     left,
		right:    right,
		elevator: elevator,
	}
}

func (c *Controller) SetLeftDuty(duty int) error {
	return c.left.SetDuty(duty)
}

func (c *Controller) SetRightDuty(duty int) error {
	return c.right.SetDuty(duty)
}

func (c *Controller) SetElevator(deg int) error {
	return c.elevator.Write(deg)
}

// StopMotors sets both motors to zero duty. Both are attempted even if
// the first one fails.
func (c *Controller) StopMotors() error {
	return errors.Join(c.left.Stop(), c.right.Stop())
}

// Duties returns the last duty written to each motor.
func (c *Controller) Duties() (left, right int) {
	return c.left.Duty(), c.right.Duty()
}
