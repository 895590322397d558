package sim

import (
	"context"
	"fmt"

	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/integrators"
	"github.com/plasmakit/wallsim/internal/metrics"
	"github.com/plasmakit/wallsim/internal/physics"
)

// Default integration contract for the recycling scenario. Inventories
// are ~1e21-1e23 particles, so the absolute tolerance sits many orders
// below the smallest distinguishable inventory while still being huge on
// a unit scale. The step cap keeps the solver from striding over the
// thermal-release transition.
const (
	DefaultHorizon   = 180.0
	DefaultInitialDt = 1e-3
	DefaultMaxDt     = 1.5
	DefaultMinDt     = 1e-10
	DefaultRTol      = 1e-8
	DefaultATol      = 1e12
	DefaultMaxSteps  = 1_000_000

	DefaultNp0 = 1.8e21
	DefaultNw0 = 3.2e22
)

type Config struct {
	Horizon   float64
	InitialDt float64
	MaxDt     float64
	MinDt     float64
	RTol      float64
	ATol      float64
	MaxSteps  int

	// FixedDt switches to the fixed-step explicit integrator. Zero means
	// adaptive stiff integration, which is what the model needs once the
	// temperature ramp is underway.
	FixedDt float64
}

func DefaultConfig() Config {
	return Config{
		Horizon:   DefaultHorizon,
		InitialDt: DefaultInitialDt,
		MaxDt:     DefaultMaxDt,
		MinDt:     DefaultMinDt,
		RTol:      DefaultRTol,
		ATol:      DefaultATol,
		MaxSteps:  DefaultMaxSteps,
	}
}

// DefaultState returns the nominal initial inventories [Np0, Nw0].
func DefaultState() dynamo.State {
	return dynamo.State{DefaultNp0, DefaultNw0}
}

// floorCounter is implemented by systems that clamp inventories to a
// non-negativity floor inside the derivative.
type floorCounter interface {
	FloorClamps() uint64
}

// Simulator drives one system with one solver. It holds no state across
// Run calls beyond solver scratch buffers, which Run resets.
type Simulator struct {
	sys     dynamo.System
	stepper dynamo.StiffStepper
	fixed   dynamo.Integrator

	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

// New builds a simulator around an adaptive stiff stepper.
func New(sys dynamo.System, stepper dynamo.StiffStepper) *Simulator {
	return &Simulator{sys: sys, stepper: stepper}
}

// NewFixedStep builds a simulator around a fixed-step integrator.
func NewFixedStep(sys dynamo.System, integ dynamo.Integrator) *Simulator {
	return &Simulator{sys: sys, fixed: integ}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

type resetter interface{ Reset() }

// Run integrates from y0 over [0, cfg.Horizon] and returns the full
// trajectory. On solver failure the partial trajectory is discarded and
// a NonConvergenceError is returned; a trajectory is only ever returned
// complete.
func (s *Simulator) Run(ctx context.Context, y0 dynamo.State, cfg Config) (*dynamo.Trajectory, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(y0) != s.sys.Dim() {
		return nil, fmt.Errorf("initial state has %d components, system wants %d", len(y0), s.sys.Dim())
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	if r, ok := s.stepper.(resetter); ok {
		r.Reset()
	}

	traj := &dynamo.Trajectory{
		Times:   make([]float64, 0, 256),
		States:  make([]dynamo.State, 0, 256),
		Metrics: make(map[string]float64),
	}

	y := y0.Clone()
	t := 0.0
	s.record(traj, y, t)

	var err error
	if s.fixed != nil {
		err = s.runFixed(ctx, traj, y, cfg)
	} else {
		err = s.runAdaptive(ctx, traj, y, cfg)
	}
	if err != nil {
		return nil, err
	}

	if fc, ok := s.sys.(floorCounter); ok {
		traj.Stats.FloorClamps += fc.FloorClamps()
	}
	if er, ok := s.stepper.(interface{ Effort() (int, int) }); ok {
		traj.Stats.RHSEvals, traj.Stats.JacobianEvals = er.Effort()
	}
	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}
	return traj, nil
}

func (s *Simulator) runAdaptive(ctx context.Context, traj *dynamo.Trajectory, y dynamo.State, cfg Config) error {
	t := 0.0
	dt := cfg.InitialDt
	tol := dynamo.Tolerances{Rel: cfg.RTol, Abs: cfg.ATol}

	attempts := 0
	for t < cfg.Horizon {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if dt > cfg.MaxDt {
			dt = cfg.MaxDt
		}
		if remaining := cfg.Horizon - t; dt > remaining {
			dt = remaining
		}

		attempts++
		if attempts > cfg.MaxSteps {
			return dynamo.NonConvergenceError{Time: t, Dt: dt, Reason: "step budget exhausted"}
		}

		res, err := s.stepper.StepAdaptive(s.sys, y, t, dt, tol)
		if err != nil {
			return err
		}

		if res.ErrNorm > 1 {
			traj.Stats.StepsRejected++
			if res.NextDt < cfg.MinDt {
				return dynamo.NonConvergenceError{Time: t, Dt: dt, Reason: "tolerance unreachable above minimum step size"}
			}
			dt = res.NextDt
			continue
		}

		if !res.Y.IsValid() {
			return dynamo.NonConvergenceError{Time: t, Dt: dt, Reason: "state became NaN/Inf"}
		}

		t += dt
		y = res.Y
		traj.Stats.StepsAccepted++
		traj.Stats.LastDt = dt
		s.record(traj, y, t)

		dt = res.NextDt
		if dt < cfg.MinDt {
			dt = cfg.MinDt
		}
	}
	return nil
}

func (s *Simulator) runFixed(ctx context.Context, traj *dynamo.Trajectory, y dynamo.State, cfg Config) error {
	t := 0.0
	steps := int(cfg.Horizon / cfg.FixedDt)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		y = s.fixed.Step(s.sys, y, t, cfg.FixedDt)
		t += cfg.FixedDt

		if !y.IsValid() {
			return dynamo.NonConvergenceError{Time: t, Dt: cfg.FixedDt, Reason: "state became NaN/Inf"}
		}

		traj.Stats.StepsAccepted++
		traj.Stats.LastDt = cfg.FixedDt
		s.record(traj, y, t)
	}
	return nil
}

// record appends a sample, clamping any residual negative inventory to
// zero so the returned trajectory is physical.
func (s *Simulator) record(traj *dynamo.Trajectory, y dynamo.State, t float64) {
	sample := y.Clone()
	for i, v := range sample {
		if v < 0 {
			sample[i] = 0
			traj.Stats.FloorClamps++
		}
	}
	traj.Times = append(traj.Times, t)
	traj.States = append(traj.States, sample)
	for _, m := range s.metrics {
		m.Observe(sample, t)
	}
	for _, o := range s.observers {
		o.OnStep(sample, t)
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %f", cfg.Horizon)
	}
	if s.fixed != nil {
		if cfg.FixedDt <= 0 {
			return fmt.Errorf("fixed dt must be positive, got %f", cfg.FixedDt)
		}
		return nil
	}
	if cfg.InitialDt <= 0 || cfg.MinDt <= 0 || cfg.MaxDt <= 0 {
		return fmt.Errorf("step sizes must be positive")
	}
	if cfg.MaxDt < cfg.MinDt {
		return fmt.Errorf("max dt %g below min dt %g", cfg.MaxDt, cfg.MinDt)
	}
	if cfg.RTol <= 0 || cfg.ATol <= 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("step budget must be positive, got %d", cfg.MaxSteps)
	}
	return nil
}

// Integrate runs the standard heating scenario for one parameter set
// with a fresh system and solver workspace. Separate calls share nothing,
// which is what makes parameter sweeps trivially parallel.
func Integrate(ctx context.Context, p physics.Params, y0 dynamo.State, cfg Config) (*dynamo.Trajectory, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sys := physics.NewWallBalance(p, physics.Scenario{P: p})
	var s *Simulator
	if cfg.FixedDt > 0 {
		s = NewFixedStep(sys, integrators.NewRK4())
	} else {
		s = New(sys, integrators.NewRosenbrock())
	}
	s.AddMetric(metrics.NewTotalDrift())
	s.AddMetric(metrics.NewCapacityMargin(p.NwMax))
	return s.Run(ctx, y0, cfg)
}
