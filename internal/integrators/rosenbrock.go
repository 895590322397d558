package integrators

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/plasmakit/wallsim/internal/dynamo"
)

// Modified Rosenbrock pair of order 2(3) (Shampine-Reichelt). One LU
// factorization of W = I - dt*d*J per step, three triangular solves.
// L-stable, which is what the thermal-release transition needs: the wall
// residence time collapses over many orders of magnitude as the
// temperature ramp kicks in.
var (
	rbD   = 1.0 / (2.0 + math.Sqrt2)
	rbE32 = 6.0 + math.Sqrt2
)

type Rosenbrock struct {
	safety   float64
	minScale float64
	maxScale float64

	rhsEvals int
	jacEvals int

	// scratch, sized on first use
	jac *mat.Dense
	w   *mat.Dense
	lu  mat.LU
	vec *mat.VecDense
	sol *mat.VecDense
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

// Reset clears the effort counters. Each integration run owns its own
// workspace, so callers reset between runs rather than sharing tallies.
func (r *Rosenbrock) Reset() {
	r.rhsEvals = 0
	r.jacEvals = 0
}

// Effort reports accumulated derivative and Jacobian evaluations.
func (r *Rosenbrock) Effort() (rhsEvals, jacEvals int) {
	return r.rhsEvals, r.jacEvals
}

func (r *Rosenbrock) ensureScratch(n int) {
	if r.jac == nil || r.vec.Len() != n {
		r.jac = mat.NewDense(n, n, nil)
		r.w = mat.NewDense(n, n, nil)
		r.vec = mat.NewVecDense(n, nil)
		r.sol = mat.NewVecDense(n, nil)
	}
}

func (r *Rosenbrock) eval(sys dynamo.System, y dynamo.State, t float64) dynamo.State {
	r.rhsEvals++
	return sys.Derive(y, t)
}

// jacobian fills r.jac with forward-difference columns around (y, f0).
func (r *Rosenbrock) jacobian(sys dynamo.System, y dynamo.State, t float64, f0 dynamo.State) {
	n := len(y)
	pert := y.Clone()
	sqrtEps := math.Sqrt(2.220446049250313e-16)
	for j := 0; j < n; j++ {
		dy := sqrtEps * math.Max(math.Abs(y[j]), 1.0)
		pert[j] = y[j] + dy
		fj := r.eval(sys, pert, t)
		pert[j] = y[j]
		for i := 0; i < n; i++ {
			r.jac.Set(i, j, (fj[i]-f0[i])/dy)
		}
	}
	r.jacEvals++
}

func (r *Rosenbrock) solveStage(b dynamo.State) (dynamo.State, error) {
	n := len(b)
	for i := 0; i < n; i++ {
		r.vec.SetVec(i, b[i])
	}
	if err := r.lu.SolveVecTo(r.sol, false, r.vec); err != nil {
		return nil, err
	}
	k := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		k[i] = r.sol.AtVec(i)
	}
	return k, nil
}

// StepAdaptive attempts one step of size dt and reports the candidate
// state, the scaled error norm (acceptable when <= 1) and a suggested
// next step size. A singular stage matrix is reported through StepResult
// with an infinite error norm so the caller retries with a smaller step.
func (r *Rosenbrock) StepAdaptive(sys dynamo.System, y dynamo.State, t, dt float64, tol dynamo.Tolerances) (dynamo.StepResult, error) {
	n := len(y)
	r.ensureScratch(n)

	f0 := r.eval(sys, y, t)
	r.jacobian(sys, y, t, f0)

	// df/dt by forward difference; the forcing terms are the only
	// explicit time dependence.
	tdelta := 1e-8 * (math.Abs(t) + dt)
	ft := r.eval(sys, y, t+tdelta)
	dfdt := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		dfdt[i] = (ft[i] - f0[i]) / tdelta
	}

	// W = I - dt*d*J
	hd := dt * rbD
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -hd * r.jac.At(i, j)
			if i == j {
				v += 1.0
			}
			r.w.Set(i, j, v)
		}
	}
	r.lu.Factorize(r.w)

	retry := func() dynamo.StepResult {
		return dynamo.StepResult{Y: y.Clone(), ErrNorm: math.Inf(1), NextDt: dt * r.minScale}
	}

	b := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		b[i] = f0[i] + hd*dfdt[i]
	}
	k1, err := r.solveStage(b)
	if err != nil {
		return retry(), nil
	}

	ymid := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		ymid[i] = y[i] + 0.5*dt*k1[i]
	}
	f1 := r.eval(sys, ymid, t+0.5*dt)

	for i := 0; i < n; i++ {
		b[i] = f1[i] - k1[i]
	}
	k2, err := r.solveStage(b)
	if err != nil {
		return retry(), nil
	}
	for i := 0; i < n; i++ {
		k2[i] += k1[i]
	}

	ynew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		ynew[i] = y[i] + dt*k2[i]
	}
	f2 := r.eval(sys, ynew, t+dt)

	for i := 0; i < n; i++ {
		b[i] = f2[i] - rbE32*(k2[i]-f1[i]) - 2.0*(k1[i]-f0[i]) + hd*dfdt[i]
	}
	k3, err := r.solveStage(b)
	if err != nil {
		return retry(), nil
	}

	// Embedded third-order error estimate, scaled per component.
	errNorm := 0.0
	for i := 0; i < n; i++ {
		est := dt / 6.0 * (k1[i] - 2.0*k2[i] + k3[i])
		scale := tol.Abs + tol.Rel*math.Max(math.Abs(y[i]), math.Abs(ynew[i]))
		errNorm = math.Max(errNorm, math.Abs(est)/scale)
	}

	var nextDt float64
	switch {
	case errNorm == 0:
		nextDt = dt * r.maxScale
	case math.IsNaN(errNorm) || math.IsInf(errNorm, 0):
		errNorm = math.Inf(1)
		nextDt = dt * r.minScale
	default:
		scale := r.safety * math.Pow(1.0/errNorm, 1.0/3.0)
		scale = math.Max(r.minScale, math.Min(r.maxScale, scale))
		nextDt = dt * scale
	}

	return dynamo.StepResult{Y: ynew, ErrNorm: errNorm, NextDt: nextDt}, nil
}
