// Package diag derives interpretable flux series from an integrated
// trajectory. It is a pure projection: no feedback into the integration,
// recomputable at any time from a stored trajectory.
package diag

import (
	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
)

// Epsilon stabilizes the recycling ratio when the incident flux
// approaches zero. Physically expected fluxes are ~1e20-1e22 particles/s,
// so 1e6 never distorts a genuine ratio.
const Epsilon = 1e6

// LossOfControlMark is the heuristic near-unity recycling threshold. An
// effective recycling ratio above it means the wall returns essentially
// all incident particles and external fueling has lost density leverage.
const LossOfControlMark = 0.995

// Sample holds the derived quantities at one trajectory point.
type Sample struct {
	Time           float64
	IncidentFlux   float64 // Np/TauP [particles/s]
	PromptReturn   float64 // R0 * incident
	ThermalRelease float64 // Nw/tauRelease(t)
	ReturnFlux     float64 // prompt + thermal
	Recycling      float64 // return / (incident + Epsilon)
}

// Compute projects a trajectory into derived samples. The trajectory is
// read-only; forcing must be the same scenario the run was integrated
// with, or the release flux will not match.
func Compute(traj *dynamo.Trajectory, p physics.Params, f physics.Forcing) []Sample {
	samples := make([]Sample, traj.Len())
	for i := range samples {
		t := traj.Times[i]
		y := traj.States[i]
		samples[i] = At(t, y, p, f)
	}
	return samples
}

// At evaluates the derived quantities for a single (time, state) pair.
func At(t float64, y dynamo.State, p physics.Params, f physics.Forcing) Sample {
	incident := y[0] / p.TauP
	prompt := p.R0 * incident
	release := y[1] / f.ReleaseTimeConstant(t)
	ret := prompt + release
	return Sample{
		Time:           t,
		IncidentFlux:   incident,
		PromptReturn:   prompt,
		ThermalRelease: release,
		ReturnFlux:     ret,
		Recycling:      ret / (incident + Epsilon),
	}
}

// CrossingTime returns the first sample time at which the recycling
// ratio exceeds threshold, and whether such a crossing exists.
func CrossingTime(samples []Sample, threshold float64) (float64, bool) {
	for _, s := range samples {
		if s.Recycling > threshold {
			return s.Time, true
		}
	}
	return 0, false
}
