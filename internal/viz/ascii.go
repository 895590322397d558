package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/plasmakit/wallsim/internal/diag"
	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
)

// PlotSeries renders one named series as a terminal graph.
func PlotSeries(name string, data []float64, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(name),
	)
	return GraphStyle.Render(graph)
}

// RunReport renders the post-run summary: final inventories, recycling
// state and solver effort.
func RunReport(p physics.Params, traj *dynamo.Trajectory, samples []diag.Sample) string {
	var sb strings.Builder

	tEnd, yEnd := traj.Final()
	final := samples[len(samples)-1]

	row := func(label, value string) {
		sb.WriteString(LabelStyle.Render(label))
		sb.WriteString(ValueStyle.Render(value))
		sb.WriteString("\n")
	}

	sb.WriteString(TitleStyle.Render("wall recycling run"))
	sb.WriteString("\n\n")
	row("horizon", fmt.Sprintf("%.1f", tEnd))
	row("final Np", fmt.Sprintf("%.3e", yEnd[0]))
	row("final Nw", fmt.Sprintf("%.3e  (capacity %.3e)", yEnd[1], p.NwMax))
	row("final R_eff", fmt.Sprintf("%.6f", final.Recycling))

	if t, ok := diag.CrossingTime(samples, diag.LossOfControlMark); ok {
		row("R_eff > "+fmt.Sprintf("%.3f", diag.LossOfControlMark),
			WarnStyle.Render(fmt.Sprintf("t = %.1f (density control lost)", t)))
	} else {
		row("R_eff > "+fmt.Sprintf("%.3f", diag.LossOfControlMark),
			OKStyle.Render("not reached"))
	}

	sb.WriteString("\n")
	row("steps accepted", fmt.Sprintf("%d", traj.Stats.StepsAccepted))
	row("steps rejected", fmt.Sprintf("%d", traj.Stats.StepsRejected))
	row("rhs evals", fmt.Sprintf("%d", traj.Stats.RHSEvals))
	row("jacobian evals", fmt.Sprintf("%d", traj.Stats.JacobianEvals))
	row("floor clamps", fmt.Sprintf("%d", traj.Stats.FloorClamps))
	for name, v := range traj.Metrics {
		row(name, fmt.Sprintf("%.3e", v))
	}

	return PanelStyle.Render(sb.String())
}
