package physics

import "math"

// KBoltzmannEVK is the Boltzmann constant in eV/K. The release time
// constant is exponentially sensitive to it; keep the full literal.
const KBoltzmannEVK = 8.617333262145e-5

// Forcing supplies the time-dependent external drivers of the balance
// system, decoupled from solver internals. Implementations are pure
// functions of time.
type Forcing interface {
	// WallTemperature returns the prescribed wall temperature [K] at t.
	WallTemperature(t float64) float64
	// FuelingRate returns the gas-puff source [particles/s] at t.
	FuelingRate(t float64) float64
	// ReleaseTimeConstant returns the Arrhenius residence time [s] at t.
	ReleaseTimeConstant(t float64) float64
}

// Scenario is the standard heating-and-fueling scenario built from a
// parameter set.
type Scenario struct {
	P Params
}

// WallTemperature is constant at T0 until the ramp start, then follows a
// power-law ramp. Continuous at the breakpoint; the slope is not, which
// is acceptable for an imposed heating scenario.
func (s Scenario) WallTemperature(t float64) float64 {
	if t < s.P.RampStart {
		return s.P.T0K
	}
	return s.P.T0K + s.P.RampAmpK*math.Pow((t-s.P.RampStart)/s.P.RampWidth, s.P.RampExp)
}

// FuelingRate ramps smoothly from SIn toward (1+FuelGain)*SIn through a
// tanh sigmoid. Strictly positive and bounded for all finite t.
func (s Scenario) FuelingRate(t float64) float64 {
	return s.P.SIn * (1.0 + s.P.FuelGain*(1.0+math.Tanh((t-s.P.FuelCenter)/s.P.FuelWidth))/2.0)
}

// ReleaseTimeConstant is the thermally activated residence time
// tau0 * exp(Ea/(kB*T)). Strictly positive, strictly decreasing in T.
func (s Scenario) ReleaseTimeConstant(t float64) float64 {
	return s.P.Tau0 * math.Exp(s.P.EaEV/(KBoltzmannEVK*s.WallTemperature(t)))
}
