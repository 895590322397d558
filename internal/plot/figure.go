// Package plot renders a completed run into a stacked figure. It is the
// swappable rendering collaborator: it only reads trajectories and
// derived samples, never touches the integration.
package plot

import (
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/plasmakit/wallsim/internal/diag"
	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
)

var (
	lineColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	markerColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

func series(times []float64, values func(i int) float64) plotter.XYs {
	xys := make(plotter.XYs, len(times))
	for i := range times {
		xys[i].X = times[i]
		xys[i].Y = values(i)
	}
	return xys
}

func linePlot(title, yLabel string, xys plotter.XYs) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = yLabel

	ln, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	ln.LineStyle.Width = vg.Points(1.5)
	ln.LineStyle.Color = lineColor
	p.Add(plotter.NewGrid(), ln)
	return p, nil
}

func markerLine(p *plot.Plot, xMin, xMax, y float64) error {
	ln, err := plotter.NewLine(plotter.XYs{{X: xMin, Y: y}, {X: xMax, Y: y}})
	if err != nil {
		return err
	}
	ln.LineStyle.Width = vg.Points(1)
	ln.LineStyle.Color = markerColor
	ln.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(ln)
	return nil
}

// SaveFigure writes the standard four-panel figure (Np, Nw against
// capacity, return flux, R_eff against the near-unity marker) as a PNG.
func SaveFigure(path string, params physics.Params, traj *dynamo.Trajectory, samples []diag.Sample) error {
	times := traj.Times
	tMin, tMax := times[0], times[len(times)-1]

	npPlot, err := linePlot("plasma inventory", "Np [1e21]", series(times, func(i int) float64 {
		return traj.States[i][0] / 1e21
	}))
	if err != nil {
		return err
	}

	nwPlot, err := linePlot("wall inventory", "Nw [1e22]", series(times, func(i int) float64 {
		return traj.States[i][1] / 1e22
	}))
	if err != nil {
		return err
	}
	if err := markerLine(nwPlot, tMin, tMax, params.NwMax/1e22); err != nil {
		return err
	}

	retPlot, err := linePlot("return flux", "flux [1e21/s]", series(times, func(i int) float64 {
		return samples[i].ReturnFlux / 1e21
	}))
	if err != nil {
		return err
	}

	reffPlot, err := linePlot("effective recycling", "R_eff", series(times, func(i int) float64 {
		return samples[i].Recycling
	}))
	if err != nil {
		return err
	}
	if err := markerLine(reffPlot, tMin, tMax, diag.LossOfControlMark); err != nil {
		return err
	}

	rows := [][]*plot.Plot{{npPlot}, {nwPlot}, {retPlot}, {reffPlot}}

	img := vgimg.New(7*vg.Inch, 10*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 4,
		Cols: 1,
		PadY: vg.Millimeter * 3,
	}
	canvases := plot.Align(rows, tiles, dc)
	for i, row := range rows {
		row[0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return err
	}
	return nil
}
