package integrators

import (
	"testing"

	"github.com/plasmakit/wallsim/internal/dynamo"
)

type benchOscillator struct{}

func (benchOscillator) Dim() int { return 2 }
func (benchOscillator) Derive(y dynamo.State, t float64) dynamo.State {
	return dynamo.State{y[1], -y[0]}
}

func BenchmarkRK4(b *testing.B) {
	integ := NewRK4()
	y := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		y = integ.Step(benchOscillator{}, y, 0, 0.01)
	}
}

func BenchmarkRosenbrock(b *testing.B) {
	r := NewRosenbrock()
	y := dynamo.State{1.0, 0.0}
	tol := dynamo.Tolerances{Rel: 1e-6, Abs: 1e-9}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, _ := r.StepAdaptive(benchOscillator{}, y, 0, 0.01, tol)
		y = res.Y
	}
}
