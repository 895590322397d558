package storage

import (
	"testing"

	"github.com/plasmakit/wallsim/internal/diag"
	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
)

func sampleRun() (physics.Params, *dynamo.Trajectory, []diag.Sample) {
	p := physics.DefaultParams()
	traj := &dynamo.Trajectory{
		Times:  []float64{0, 1, 2},
		States: []dynamo.State{{1.8e21, 3.2e22}, {2.0e21, 3.1e22}, {2.2e21, 3.0e22}},
		Stats:  dynamo.Stats{StepsAccepted: 3, RHSEvals: 18},
		Metrics: map[string]float64{
			"total_drift": 1.2e-10,
		},
	}
	samples := diag.Compute(traj, p, physics.Scenario{P: p})
	return p, traj, samples
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	p, traj, samples := sampleRun()
	runID, err := st.Save(p, traj, samples)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	ids, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != runID {
		t.Fatalf("expected [%s], got %v", runID, ids)
	}

	meta, err := st.LoadMetadata(runID)
	if err != nil {
		t.Fatalf("load metadata failed: %v", err)
	}
	if meta.ID != runID {
		t.Errorf("metadata id mismatch: %s", meta.ID)
	}
	if meta.Samples != traj.Len() {
		t.Errorf("expected %d samples, got %d", traj.Len(), meta.Samples)
	}
	if meta.Params.EaEV != p.EaEV {
		t.Errorf("params not round-tripped: %f", meta.Params.EaEV)
	}
	if meta.Stats.StepsAccepted != 3 {
		t.Errorf("stats not round-tripped: %+v", meta.Stats)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	np := series.Column("np")
	if len(np) != traj.Len() {
		t.Fatalf("expected %d rows, got %d", traj.Len(), len(np))
	}
	// exponential formatting keeps six significant decimals
	if diff := np[0] - traj.States[0][0]; diff > 1e15 || diff < -1e15 {
		t.Errorf("np[0] round trip too lossy: %g vs %g", np[0], traj.States[0][0])
	}
	reff := series.Column("r_eff")
	if reff == nil {
		t.Fatal("r_eff column missing")
	}
	if series.Column("bogus") != nil {
		t.Error("unknown column should be nil")
	}
}

func TestListEmptyStore(t *testing.T) {
	st := New(t.TempDir() + "/never-created")
	ids, err := st.List()
	if err != nil {
		t.Fatalf("list on absent dir should not fail: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no runs, got %v", ids)
	}
}
