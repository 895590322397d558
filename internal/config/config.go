package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
	"github.com/plasmakit/wallsim/internal/sim"
)

// Config is the yaml scenario file. Zero-valued fields fall back to the
// nominal defaults, so a file only needs the values it changes.
type Config struct {
	Params ParamsConfig `yaml:"params"`
	Init   InitConfig   `yaml:"init_state"`
	Solver SolverConfig `yaml:"solver"`
}

type ParamsConfig struct {
	T0K     float64 `yaml:"t0_k"`
	SIn     float64 `yaml:"s_in"`
	SPump   float64 `yaml:"s_pump"`
	R0      float64 `yaml:"r0"`
	NwMax   float64 `yaml:"nw_max"`
	TauP    float64 `yaml:"tau_p"`
	Tau0    float64 `yaml:"tau0"`
	EaEV    float64 `yaml:"ea_ev"`
	NpFloor float64 `yaml:"np_floor"`
}

type InitConfig struct {
	Np0 float64 `yaml:"np0"`
	Nw0 float64 `yaml:"nw0"`
}

type SolverConfig struct {
	Horizon  float64 `yaml:"horizon"`
	RTol     float64 `yaml:"rtol"`
	ATol     float64 `yaml:"atol"`
	MaxDt    float64 `yaml:"max_dt"`
	FixedDt  float64 `yaml:"fixed_dt"`
	MaxSteps int     `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Params: ParamsConfig{
			T0K:     physics.DefaultT0K,
			SIn:     physics.DefaultSIn,
			SPump:   physics.DefaultSPump,
			R0:      physics.DefaultR0,
			NwMax:   physics.DefaultNwMax,
			TauP:    physics.DefaultTauP,
			Tau0:    physics.DefaultTau0,
			EaEV:    physics.DefaultEaEV,
			NpFloor: physics.DefaultNpFloor,
		},
		Init: InitConfig{
			Np0: sim.DefaultNp0,
			Nw0: sim.DefaultNw0,
		},
		Solver: SolverConfig{
			Horizon:  sim.DefaultHorizon,
			RTol:     sim.DefaultRTol,
			ATol:     sim.DefaultATol,
			MaxDt:    sim.DefaultMaxDt,
			MaxSteps: sim.DefaultMaxSteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ModelParams maps the file onto a full parameter set. Ramp shape
// constants are not exposed in the file; they define the scenario, not
// the device.
func (c *Config) ModelParams() physics.Params {
	p := physics.DefaultParams()
	p.T0K = c.Params.T0K
	p.SIn = c.Params.SIn
	p.SPump = c.Params.SPump
	p.R0 = c.Params.R0
	p.NwMax = c.Params.NwMax
	p.TauP = c.Params.TauP
	p.Tau0 = c.Params.Tau0
	p.EaEV = c.Params.EaEV
	p.NpFloor = c.Params.NpFloor
	return p
}

// InitState returns the configured initial inventories.
func (c *Config) InitState() dynamo.State {
	return dynamo.State{c.Init.Np0, c.Init.Nw0}
}

// SimConfig maps the solver section onto the integration contract.
func (c *Config) SimConfig() sim.Config {
	sc := sim.DefaultConfig()
	sc.Horizon = c.Solver.Horizon
	sc.RTol = c.Solver.RTol
	sc.ATol = c.Solver.ATol
	sc.MaxDt = c.Solver.MaxDt
	sc.FixedDt = c.Solver.FixedDt
	sc.MaxSteps = c.Solver.MaxSteps
	return sc
}
