package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/cjeanneret/SkidGo/internal/config"
	"github.com/cjeanneret/SkidGo/internal/debug"
	"github.com/cjeanneret/SkidGo/internal/hw/motor"
	"github.com/cjeanneret/SkidGo/internal/hw/pwm"
	"github.com/cjeanneret/SkidGo/internal/hw/servo"
	"github.com/cjeanneret/SkidGo/internal/logic/control"
	"github.com/cjeanneret/SkidGo/internal/logic/drive"
	"github.com/cjeanneret/SkidGo/internal/logic/output"
	"github.com/cjeanneret/SkidGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	resolutionBits := flag.Int("resolution_bits", 0, "override motor PWM resolution in bits (1-16)")
	throttle := flag.Int("throttle", 0, "CLI mode: throttle percent (0-100)")
	steer := flag.Int("steer", 0, "CLI mode: steer (-100 left .. 100 right)")
	elev := flag.Int("elev", 0, "CLI mode: elevator angle in degrees (0-180)")
	hold := flag.Duration("hold", 0, "CLI mode: how long to hold the command before returning to neutral (0 = until interrupted)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if err := validateCLIOverrides(*resolutionBits); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, *resolutionBits)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Motor driver", cfg.Output.Driver)
	debug.Value("Elevator driver", cfg.ElevatorDriver())
	debug.Value("Duty max", cfg.DutyMax())

	debug.Step(1, "Initializing PWM drivers")
	drivers, err := openDrivers(cfg, pwm.NewDriver)
	if err != nil {
		log.Fatalf("init PWM failed: %v", err)
	}
	defer func() {
		if err := drivers.Close(); err != nil {
			log.Printf("closing PWM drivers failed: %v", err)
		}
	}()

	debug.Step(2, "Initializing motors and elevator")
	ctl, err := buildController(cfg, drivers)
	if err != nil {
		log.Fatalf("init outputs failed: %v", err)
	}

	// Known physical state before any command can arrive.
	debug.Step(3, "Applying neutral outputs")
	if _, err := ctl.Init(); err != nil {
		log.Fatalf("apply neutral outputs failed: %v", err)
	}
	defer func() {
		if _, err := ctl.Reset(); err != nil {
			log.Printf("reset to neutral failed: %v", err)
		}
	}()

	if port := webPort.port(); port > 0 {
		webAddr := fmt.Sprintf(":%d", port)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		srv := web.NewServer(webAddr, broadcaster, ctl, web.DefaultLimits(cfg.DutyMax()))
		if err := srv.Run(ctx); err != nil {
			log.Printf("web server: %v", err)
		}
		return
	}

	{
		// Apply the command given on the command line, hold it, then go back to neutral
		u := cliUpdate(flag.CommandLine, *throttle, *steer, *elev)
		if err := runOnce(ctx, ctl, u, *hold); err != nil {
			log.Printf("command failed: %v", err)
		}
	}
}

// runOnce applies u and keeps it until hold elapses (hold <= 0: until ctx is done).
func runOnce(ctx context.Context, ctl *control.Controller, u control.Update, hold time.Duration) error {
	snap, out, err := ctl.Command(u)
	if err != nil {
		return err
	}
	debug.Summary(snap.String())
	debug.Info("Duty: left=%d right=%d, elevator=%d°", out.DutyLeft, out.DutyRight, out.ElevatorDeg)

	if hold > 0 {
		timer := time.NewTimer(hold)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return nil
	}
	<-ctx.Done()
	return nil
}

// cliUpdate builds an update from the -throttle, -steer and -elev flags that were
// set explicitly; unset flags leave the neutral value in place.
func cliUpdate(fs *flag.FlagSet, throttle, steer, elev int) control.Update {
	var u control.Update
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "throttle":
			u.Throttle = &throttle
		case "steer":
			u.Steer = &steer
		case "elev":
			u.Elevator = &elev
		}
	})
	return u
}

// validateCLIOverrides checks that a non-zero -resolution_bits is supported.
// Zero is ignored (it means "use config default").
func validateCLIOverrides(resolutionBits int) error {
	if resolutionBits == 0 {
		return nil
	}
	if resolutionBits < output.MinResolutionBits || resolutionBits > output.MaxResolutionBits {
		return fmt.Errorf("resolution_bits must be between %d and %d, got %d", output.MinResolutionBits, output.MaxResolutionBits, resolutionBits)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
func applyOverrides(cfg *config.Config, resolutionBits int) {
	if resolutionBits > 0 {
		cfg.Output.ResolutionBits = resolutionBits
	}
}

// driverSet holds one PWM driver per backend kind, so outputs on the same
// PCA9685 board or the same Pi PWM block share one instance.
type driverSet map[string]pwm.Driver

type openDriverFunc func(kind string, opts pwm.Options) (pwm.Driver, error)

func openDrivers(cfg *config.Config, open openDriverFunc) (driverSet, error) {
	set := make(driverSet)
	for _, kind := range []string{cfg.Output.Driver, cfg.ElevatorDriver()} {
		if _, ok := set[kind]; ok {
			continue
		}
		d, err := open(kind, cfg.PWMOptions())
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("open %s driver: %w", kind, err)
		}
		set[kind] = d
	}
	return set, nil
}

// Close closes every driver and joins their errors.
func (s driverSet) Close() error {
	var errs []error
	for kind, d := range s {
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// buildController wires motors, servo, translator and state together.
func buildController(cfg *config.Config, drivers driverSet) (*control.Controller, error) {
	motorDriver := drivers[cfg.Output.Driver]
	left, err := motor.NewMotor(motorDriver, motor.Config{
		Name:    "left",
		Channel: cfg.LeftMotor.Pin,
		FreqHz:  cfg.LeftMotor.PwmFreqHz,
		DutyMax: cfg.DutyMax(),
	})
	if err != nil {
		return nil, err
	}
	debug.PrintStruct("Left motor config", cfg.LeftMotor)

	right, err := motor.NewMotor(motorDriver, motor.Config{
		Name:    "right",
		Channel: cfg.RightMotor.Pin,
		FreqHz:  cfg.RightMotor.PwmFreqHz,
		DutyMax: cfg.DutyMax(),
	})
	if err != nil {
		return nil, err
	}
	debug.PrintStruct("Right motor config", cfg.RightMotor)

	elevator, err := servo.NewPWMServo(drivers[cfg.ElevatorDriver()], servo.Config{
		Channel:    cfg.Elevator.Pin,
		PeriodHz:   cfg.Elevator.PeriodHz,
		MinPulseUs: cfg.Elevator.MinPulseUs,
		MaxPulseUs: cfg.Elevator.MaxPulseUs,
	})
	if err != nil {
		return nil, err
	}
	debug.PrintStruct("Elevator config", cfg.Elevator)

	translator, err := output.NewTranslator(cfg.Output.ResolutionBits)
	if err != nil {
		return nil, err
	}

	sink := drive.NewController(left, right, elevator)
	return control.NewController(control.NewState(), control.NewApplier(translator, sink)), nil
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
