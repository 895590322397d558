package metrics

import (
	"math"
	"testing"

	"github.com/plasmakit/wallsim/internal/dynamo"
)

func TestTotalDrift(t *testing.T) {
	m := NewTotalDrift()

	m.Observe(dynamo.State{1e21, 1e21}, 0)
	m.Observe(dynamo.State{1.5e21, 0.5e21}, 1)
	if m.Value() != 0 {
		t.Errorf("redistribution should not drift, got %g", m.Value())
	}

	m.Observe(dynamo.State{1e21, 1.2e21}, 2)
	want := 0.2e21 / 2e21
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected drift %g, got %g", want, m.Value())
	}

	// drift is a high-water mark
	m.Observe(dynamo.State{1e21, 1e21}, 3)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("drift high-water mark lost: %g", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("reset did not clear drift: %g", m.Value())
	}
}

func TestCapacityMargin(t *testing.T) {
	m := NewCapacityMargin(1e23)

	if m.Value() != 1.0 {
		t.Errorf("expected full margin before observations, got %g", m.Value())
	}

	m.Observe(dynamo.State{1e21, 2e22}, 0)
	m.Observe(dynamo.State{1e21, 9e22}, 1)
	m.Observe(dynamo.State{1e21, 5e22}, 2)

	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected min margin 0.1, got %g", m.Value())
	}

	m.Observe(dynamo.State{1e21, 2e23}, 3)
	if m.Value() != 0 {
		t.Errorf("over-capacity should clamp margin to zero, got %g", m.Value())
	}
}
