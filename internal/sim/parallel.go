package sim

import (
	"context"
	"sync"

	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
)

// SweepRun is the outcome of one scenario in a parameter sweep. A run
// that fails numerically carries its error here instead of aborting the
// sweep; the other scenarios are still worth having.
type SweepRun struct {
	Params physics.Params
	Traj   *dynamo.Trajectory
	Err    error
}

// SweepEa integrates one independent scenario per activation energy,
// concurrently. Each run gets its own parameter set, system and solver
// workspace; nothing mutable is shared. Results are ordered like eaEVs.
func SweepEa(ctx context.Context, base physics.Params, eaEVs []float64, y0 dynamo.State, cfg Config) []SweepRun {
	runs := make([]SweepRun, len(eaEVs))

	var wg sync.WaitGroup
	for i, ea := range eaEVs {
		wg.Add(1)
		go func(idx int, ea float64) {
			defer wg.Done()
			p := base.WithEa(ea)
			traj, err := Integrate(ctx, p, y0.Clone(), cfg)
			runs[idx] = SweepRun{Params: p, Traj: traj, Err: err}
		}(i, ea)
	}
	wg.Wait()

	return runs
}
