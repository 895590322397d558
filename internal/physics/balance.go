package physics

import (
	"sync/atomic"

	"github.com/plasmakit/wallsim/internal/dynamo"
)

// WallBalance is the two-reservoir particle balance:
//
//	dNp/dt = fueling + prompt + release - Gamma - SPump
//	dNw/dt = entering*uptake - release
//
// where Gamma = Np/TauP is the incident flux, prompt = R0*Gamma returns
// immediately, entering = (1-R0)*Gamma reaches the wall, uptake saturates
// linearly as Nw approaches NwMax, and release = Nw/tauRelease(t) is the
// thermally activated wall outgassing.
//
// State layout: [Np, Nw].
type WallBalance struct {
	p Params
	f Forcing

	floorClamps atomic.Uint64
}

// NewWallBalance builds the balance system for one validated parameter
// set and forcing scenario.
func NewWallBalance(p Params, f Forcing) *WallBalance {
	return &WallBalance{p: p, f: f}
}

func (w *WallBalance) Dim() int { return 2 }

// Params returns the parameter set the system was built with.
func (w *WallBalance) Params() Params { return w.p }

// FloorClamps reports how many derivative evaluations clamped an
// inventory to its non-negativity floor.
func (w *WallBalance) FloorClamps() uint64 { return w.floorClamps.Load() }

func (w *WallBalance) Derive(y dynamo.State, t float64) dynamo.State {
	np, nw := y[0], y[1]

	// Solver overshoot may probe slightly negative inventories.
	if np < w.p.NpFloor || nw < 0 {
		w.floorClamps.Add(1)
	}
	if np < w.p.NpFloor {
		np = w.p.NpFloor
	}
	if nw < 0 {
		nw = 0
	}

	gamma := np / w.p.TauP
	prompt := w.p.R0 * gamma
	entering := (1.0 - w.p.R0) * gamma

	uptake := 1.0 - nw/w.p.NwMax
	if uptake < 0 {
		uptake = 0
	} else if uptake > 1 {
		uptake = 1
	}

	release := nw / w.f.ReleaseTimeConstant(t)
	fueling := w.f.FuelingRate(t)

	return dynamo.State{
		fueling + prompt + release - gamma - w.p.SPump,
		entering*uptake - release,
	}
}

// UptakeFactor is the saturating wall absorption fraction at inventory
// nw, clamped to [0,1]. Exposed for diagnostics and tests.
func (w *WallBalance) UptakeFactor(nw float64) float64 {
	u := 1.0 - nw/w.p.NwMax
	if u < 0 {
		return 0
	}
	if u > 1 {
		return 1
	}
	return u
}
