package physics

import (
	"fmt"

	"github.com/plasmakit/wallsim/internal/dynamo"
)

// Nominal scenario values. Several near-duplicate drafts of this model
// circulated with drifting constants (S_pump 1e18 vs 9e20, floors between
// 1e15 and 1e19); these are the unified defaults.
const (
	DefaultT0K    = 573.0  // baseline wall temperature [K]
	DefaultSIn    = 1.2e22 // fueling source term [particles/s]
	DefaultSPump  = 1.0e18 // effective exhaust sink [particles/s]
	DefaultR0     = 0.992  // baseline prompt recycling coefficient [-]
	DefaultNwMax  = 1.15e23 // effective wall capacity [particles]
	DefaultTauP   = 3.5    // effective particle confinement time [s]
	DefaultTau0   = 1.0e-12 // pre-exponential residence time [s]
	DefaultEaEV   = 1.05   // effective activation energy [eV]
	DefaultNpFloor = 1.0e18 // plasma inventory floor [particles]

	// Imposed wall-temperature ramp (scenario forcing, not a physical law).
	DefaultRampStart = 50.0  // [time units]
	DefaultRampWidth = 45.0  // [time units]
	DefaultRampAmpK  = 820.0 // [K]
	DefaultRampExp   = 3.1

	// Fueling ramp: tanh sigmoid from SIn toward (1+Gain)*SIn.
	DefaultFuelCenter = 15.0 // [time units]
	DefaultFuelWidth  = 4.0  // [time units]
	DefaultFuelGain   = 1.8
)

// Params is the immutable parameter set for one simulation run. Alternate
// scenarios are produced by copying the value and changing a field before
// any run starts, never by mutating a set a simulation already holds.
//
// All sources/sinks S* are [particles/s], inventories N* [particles],
// time scales [s].
type Params struct {
	T0K   float64 // baseline wall temperature [K]
	SIn   float64 // fueling source term
	SPump float64 // effective exhaust sink

	R0    float64 // prompt recycling coefficient, in [0,1]
	NwMax float64 // wall capacity, > 0

	TauP float64 // particle confinement time, > 0
	Tau0 float64 // pre-exponential residence time, > 0
	EaEV float64 // activation energy [eV], > 0

	// NpFloor keeps the plasma inventory away from zero inside the RHS so
	// flux ratios stay well conditioned. Chosen far below any physical
	// inventory scale (~1e21) so it never distorts a real state.
	NpFloor float64

	// Wall temperature ramp shape.
	RampStart float64
	RampWidth float64
	RampAmpK  float64
	RampExp   float64

	// Fueling ramp shape.
	FuelCenter float64
	FuelWidth  float64
	FuelGain   float64
}

// DefaultParams returns the nominal scenario.
func DefaultParams() Params {
	return Params{
		T0K:        DefaultT0K,
		SIn:        DefaultSIn,
		SPump:      DefaultSPump,
		R0:         DefaultR0,
		NwMax:      DefaultNwMax,
		TauP:       DefaultTauP,
		Tau0:       DefaultTau0,
		EaEV:       DefaultEaEV,
		NpFloor:    DefaultNpFloor,
		RampStart:  DefaultRampStart,
		RampWidth:  DefaultRampWidth,
		RampAmpK:   DefaultRampAmpK,
		RampExp:    DefaultRampExp,
		FuelCenter: DefaultFuelCenter,
		FuelWidth:  DefaultFuelWidth,
		FuelGain:   DefaultFuelGain,
	}
}

// Validate rejects any parameter set that violates an invariant. It runs
// before integration begins; a failing set is never partially applied.
func (p Params) Validate() error {
	check := func(name string, v float64) error {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %g", dynamo.ErrInvalidParameter, name, v)
		}
		return nil
	}
	if err := check("T0K", p.T0K); err != nil {
		return err
	}
	if err := check("NwMax", p.NwMax); err != nil {
		return err
	}
	if err := check("TauP", p.TauP); err != nil {
		return err
	}
	if err := check("Tau0", p.Tau0); err != nil {
		return err
	}
	if err := check("EaEV", p.EaEV); err != nil {
		return err
	}
	if err := check("RampWidth", p.RampWidth); err != nil {
		return err
	}
	if err := check("FuelWidth", p.FuelWidth); err != nil {
		return err
	}
	if p.R0 < 0 || p.R0 > 1 {
		return fmt.Errorf("%w: R0 must be in [0,1], got %g", dynamo.ErrInvalidParameter, p.R0)
	}
	if p.SIn < 0 {
		return fmt.Errorf("%w: SIn must be >= 0, got %g", dynamo.ErrInvalidParameter, p.SIn)
	}
	if p.SPump < 0 {
		return fmt.Errorf("%w: SPump must be >= 0, got %g", dynamo.ErrInvalidParameter, p.SPump)
	}
	if p.NpFloor < 0 {
		return fmt.Errorf("%w: NpFloor must be >= 0, got %g", dynamo.ErrInvalidParameter, p.NpFloor)
	}
	if p.RampStart < 0 {
		return fmt.Errorf("%w: RampStart must be >= 0, got %g", dynamo.ErrInvalidParameter, p.RampStart)
	}
	return nil
}

// WithEa returns a copy of p with the activation energy replaced. Used by
// sensitivity sweeps; the receiver is untouched.
func (p Params) WithEa(eaEV float64) Params {
	p.EaEV = eaEV
	return p
}
