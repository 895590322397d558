package metrics

import (
	"math"

	"github.com/plasmakit/wallsim/internal/dynamo"
)

// TotalDrift tracks the relative drift of the total inventory Np+Nw over
// a run. In a closed configuration (no fueling, no pumping, full prompt
// recycling) the total is conserved and the drift measures integration
// error.
type TotalDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewTotalDrift() *TotalDrift {
	return &TotalDrift{name: "total_drift"}
}

func (d *TotalDrift) Name() string { return d.name }

func (d *TotalDrift) Observe(y dynamo.State, t float64) {
	total := 0.0
	for _, v := range y {
		total += v
	}
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++
	if d.initial != 0 {
		drift := math.Abs(total-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *TotalDrift) Value() float64 { return d.maxDrift }

func (d *TotalDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// CapacityMargin tracks the minimum remaining wall-uptake headroom
// 1 - Nw/NwMax seen over a run. A value near zero means the wall reached
// saturation at some point.
type CapacityMargin struct {
	name  string
	nwMax float64
	min   float64
	seen  bool
}

func NewCapacityMargin(nwMax float64) *CapacityMargin {
	return &CapacityMargin{name: "min_capacity_margin", nwMax: nwMax}
}

func (c *CapacityMargin) Name() string { return c.name }

func (c *CapacityMargin) Observe(y dynamo.State, t float64) {
	if len(y) < 2 {
		return
	}
	margin := 1.0 - y[1]/c.nwMax
	if margin < 0 {
		margin = 0
	}
	if !c.seen || margin < c.min {
		c.min = margin
		c.seen = true
	}
}

func (c *CapacityMargin) Value() float64 {
	if !c.seen {
		return 1.0
	}
	return c.min
}

func (c *CapacityMargin) Reset() {
	c.min = 0
	c.seen = false
}
