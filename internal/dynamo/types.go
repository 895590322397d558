package dynamo

import (
	"fmt"
	"math"
)

// State is an instantaneous particle inventory vector. For the wall
// balance model it is [Np, Nw] in particles.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System defines the right-hand side of an ODE system dy/dt = f(t, y).
// Implementations must not retain y across calls.
type System interface {
	Derive(y State, t float64) State
	Dim() int
}

// Integrator advances a system by one fixed step.
type Integrator interface {
	Step(sys System, y State, t, dt float64) State
}

// Tolerances bound the local error of an adaptive step. The scale applied
// per component i is Abs + Rel*|y_i|.
type Tolerances struct {
	Rel float64
	Abs float64
}

// StepResult is the outcome of a single adaptive step attempt.
type StepResult struct {
	Y       State
	ErrNorm float64
	NextDt  float64
}

// StiffStepper proposes a single implicit step together with its scaled
// local error estimate and a suggested size for the next attempt. The
// caller owns acceptance: a step is acceptable when ErrNorm <= 1.
type StiffStepper interface {
	StepAdaptive(sys System, y State, t, dt float64, tol Tolerances) (StepResult, error)
}

// Metric observes accepted states during a run and reduces them to a
// single value reported with the trajectory.
type Metric interface {
	Name() string
	Observe(y State, t float64)
	Value() float64
	Reset()
}

// Observer receives every accepted step, in time order.
type Observer interface {
	OnStep(y State, t float64)
}

// Stats records solver effort for one integration run.
type Stats struct {
	StepsAccepted int
	StepsRejected int
	RHSEvals      int
	JacobianEvals int
	LastDt        float64
	// FloorClamps counts derivative evaluations in which an inventory had
	// to be clamped to its non-negativity floor. Informational, not an
	// error: minor solver overshoot below zero is expected.
	FloorClamps uint64
}

// Trajectory is the result of one integration run: time-ordered samples
// of the state plus solver metadata. Immutable once returned.
type Trajectory struct {
	Times   []float64
	States  []State
	Stats   Stats
	Metrics map[string]float64
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Final returns the last sample of the trajectory.
func (tr *Trajectory) Final() (float64, State) {
	n := len(tr.Times)
	return tr.Times[n-1], tr.States[n-1]
}

// ErrInvalidParameter marks a parameter set that violates an invariant.
// It is always detected before integration begins; a run never starts
// from a partially applied parameter set.
var ErrInvalidParameter = fmt.Errorf("invalid parameter")

// NonConvergenceError reports that the solver could not satisfy the
// requested tolerances within its step-size limits. The partial
// trajectory is discarded; callers may retry with relaxed tolerances.
type NonConvergenceError struct {
	Time   float64
	Dt     float64
	Reason string
}

func (e NonConvergenceError) Error() string {
	return fmt.Sprintf("integration stalled at t=%.4f (dt=%.3e): %s", e.Time, e.Dt, e.Reason)
}
