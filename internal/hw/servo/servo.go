package servo

// Servo is the high-level interface used by the rest of the application.
// It represents an angular actuator regardless of how it's driven
// (hardware PWM, I2C PWM board, serial controller, etc.).
type Servo interface {
	// Write moves the servo to an absolute angle in degrees (0-180).
	Write(deg int) error
}
