package viz

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/plasmakit/wallsim/internal/diag"
	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
)

const (
	watchWidth  = 78
	watchHeight = 10
)

type tickMsg time.Time

// WatchModel replays a completed trajectory sample by sample, animating
// the plasma inventory and the recycling ratio as the discharge unfolds.
type WatchModel struct {
	params  physics.Params
	traj    *dynamo.Trajectory
	samples []diag.Sample

	playHead int
	paused   bool
	rate     int // samples advanced per tick
}

func NewWatchModel(p physics.Params, traj *dynamo.Trajectory, samples []diag.Sample) WatchModel {
	return WatchModel{
		params:  p,
		traj:    traj,
		samples: samples,
		rate:    2,
	}
}

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) Init() tea.Cmd {
	return tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.playHead = 0
		case "+":
			if m.rate < 32 {
				m.rate *= 2
			}
		case "-":
			if m.rate > 1 {
				m.rate /= 2
			}
		}
		return m, nil
	case tickMsg:
		if !m.paused && m.playHead < m.traj.Len()-1 {
			m.playHead += m.rate
			if m.playHead > m.traj.Len()-1 {
				m.playHead = m.traj.Len() - 1
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m WatchModel) View() string {
	end := m.playHead + 1

	np := make([]float64, end)
	reff := make([]float64, end)
	for i := 0; i < end; i++ {
		np[i] = m.traj.States[i][0] / 1e21
		reff[i] = m.samples[i].Recycling
	}

	npGraph := asciigraph.Plot(np,
		asciigraph.Height(watchHeight),
		asciigraph.Width(watchWidth),
		asciigraph.Caption("Np [1e21]"),
	)
	reffGraph := asciigraph.Plot(reff,
		asciigraph.Height(watchHeight),
		asciigraph.Width(watchWidth),
		asciigraph.Caption("R_eff"),
	)

	t := m.traj.Times[m.playHead]
	y := m.traj.States[m.playHead]
	s := m.samples[m.playHead]

	status := fmt.Sprintf("t=%6.1f   Np=%.3e   Nw=%.3e   R_eff=%.5f", t, y[0], y[1], s.Recycling)
	if s.Recycling > diag.LossOfControlMark {
		status += "   " + WarnStyle.Render("near-unity recycling")
	}
	if m.paused {
		status += "   [paused]"
	}

	view := TitleStyle.Render("wallsim watch") + "\n" +
		GraphStyle.Render(npGraph) + "\n" +
		GraphStyle.Render(reffGraph) + "\n" +
		ValueStyle.Render(status) + "\n" +
		HelpStyle.Render("space pause · r restart · +/- speed · q quit")
	return view
}
