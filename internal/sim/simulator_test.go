package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/integrators"
)

type testDecay struct{}

func (testDecay) Dim() int { return 1 }
func (testDecay) Derive(y dynamo.State, t float64) dynamo.State {
	return dynamo.State{-y[0]}
}

// stubStepper always rejects with a shrinking step suggestion.
type stubStepper struct{}

func (stubStepper) StepAdaptive(sys dynamo.System, y dynamo.State, t, dt float64, tol dynamo.Tolerances) (dynamo.StepResult, error) {
	return dynamo.StepResult{Y: y.Clone(), ErrNorm: math.Inf(1), NextDt: dt * 0.2}, nil
}

// negStepper accepts every step but drifts the state negative.
type negStepper struct{}

func (negStepper) StepAdaptive(sys dynamo.System, y dynamo.State, t, dt float64, tol dynamo.Tolerances) (dynamo.StepResult, error) {
	return dynamo.StepResult{Y: dynamo.State{y[0] - 1.0}, ErrNorm: 0.5, NextDt: dt}, nil
}

func testConfig() Config {
	return Config{
		Horizon:   5.0,
		InitialDt: 1e-3,
		MaxDt:     0.5,
		MinDt:     1e-10,
		RTol:      1e-8,
		ATol:      1e-12,
		MaxSteps:  100000,
	}
}

func TestRunAdaptive(t *testing.T) {
	s := New(testDecay{}, integrators.NewRosenbrock())

	traj, err := s.Run(context.Background(), dynamo.State{1.0}, testConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if traj.Len() < 2 {
		t.Fatalf("expected multiple samples, got %d", traj.Len())
	}
	tEnd, yEnd := traj.Final()
	if math.Abs(tEnd-5.0) > 1e-9 {
		t.Errorf("expected final time 5, got %f", tEnd)
	}
	exact := math.Exp(-5.0)
	if math.Abs(yEnd[0]-exact) > 1e-6 {
		t.Errorf("expected y(5) ~ %g, got %g", exact, yEnd[0])
	}

	for i := 1; i < traj.Len(); i++ {
		if traj.Times[i] <= traj.Times[i-1] {
			t.Fatalf("times not strictly increasing at sample %d", i)
		}
	}
	if traj.Stats.StepsAccepted == 0 || traj.Stats.RHSEvals == 0 {
		t.Errorf("stats not populated: %+v", traj.Stats)
	}
}

func TestRunFixedStep(t *testing.T) {
	s := NewFixedStep(testDecay{}, integrators.NewRK4())

	cfg := testConfig()
	cfg.FixedDt = 0.01

	traj, err := s.Run(context.Background(), dynamo.State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if traj.Len() != 501 {
		t.Errorf("expected 501 samples, got %d", traj.Len())
	}
	_, yEnd := traj.Final()
	if math.Abs(yEnd[0]-math.Exp(-5.0)) > 1e-6 {
		t.Errorf("fixed-step result off: %g", yEnd[0])
	}
}

func TestRunReportsNonConvergence(t *testing.T) {
	s := New(testDecay{}, stubStepper{})

	traj, err := s.Run(context.Background(), dynamo.State{1.0}, testConfig())
	if traj != nil {
		t.Error("partial trajectory must be discarded on failure")
	}
	var nce dynamo.NonConvergenceError
	if !errors.As(err, &nce) {
		t.Fatalf("expected NonConvergenceError, got %v", err)
	}
}

func TestRunClampsNegativeSamples(t *testing.T) {
	s := New(testDecay{}, negStepper{})

	cfg := testConfig()
	cfg.InitialDt = 1.0
	cfg.MaxDt = 1.0

	traj, err := s.Run(context.Background(), dynamo.State{2.5}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, y := range traj.States {
		if y[0] < 0 {
			t.Fatalf("negative sample %d survived: %g", i, y[0])
		}
	}
	if traj.Stats.FloorClamps == 0 {
		t.Error("expected floor clamps to be counted")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	s := New(testDecay{}, integrators.NewRosenbrock())

	bad := []Config{
		{},
		{Horizon: -1},
		{Horizon: 5, InitialDt: 1e-3, MinDt: 1e-10, MaxDt: 1e-12, RTol: 1e-8, ATol: 1, MaxSteps: 10},
		{Horizon: 5, InitialDt: 1e-3, MinDt: 1e-10, MaxDt: 1, RTol: 0, ATol: 1, MaxSteps: 10},
		{Horizon: 5, InitialDt: 1e-3, MinDt: 1e-10, MaxDt: 1, RTol: 1e-8, ATol: 1, MaxSteps: 0},
	}
	for i, cfg := range bad {
		if _, err := s.Run(context.Background(), dynamo.State{1.0}, cfg); err == nil {
			t.Errorf("config %d should have been rejected", i)
		}
	}

	if _, err := s.Run(context.Background(), dynamo.State{1.0, 1.0}, testConfig()); err == nil {
		t.Error("dimension mismatch should have been rejected")
	}
}

func TestRunHonorsContext(t *testing.T) {
	s := New(testDecay{}, integrators.NewRosenbrock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Run(ctx, dynamo.State{1.0}, testConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error, got %v", err)
	}
}
