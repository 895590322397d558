package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/plasmakit/wallsim/internal/config"
	"github.com/plasmakit/wallsim/internal/diag"
	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
	"github.com/plasmakit/wallsim/internal/plot"
	"github.com/plasmakit/wallsim/internal/sim"
	"github.com/plasmakit/wallsim/internal/storage"
	"github.com/plasmakit/wallsim/internal/viz"
)

var (
	dataDir string

	// parameters
	t0K     float64
	sIn     float64
	sPump   float64
	r0      float64
	nwMax   float64
	tauP    float64
	tau0    float64
	eaEV    float64
	npFloor float64

	// initial state and horizon
	np0     float64
	nw0     float64
	horizon float64

	// solver
	rtol    float64
	atol    float64
	maxDt   float64
	fixedDt float64

	configFile string
	pngPath    string
	noSave     bool

	eaValues  []float64
	threshold float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wallsim",
		Short: "0D plasma-wall hydrogen recycling model",
		Long:  "wallsim integrates a two-reservoir particle balance between plasma and wall inventories under a prescribed heating scenario, and reports when thermally activated wall release drives the effective recycling ratio toward unity.",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".wallsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate one scenario",
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&pngPath, "png", "", "write four-panel figure to this path")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip persisting the run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "activation energy sensitivity sweep",
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&eaValues, "ea-values", []float64{0.95, 1.0, 1.05, 1.10, 1.15}, "activation energies [eV]")
	sweepCmd.Flags().Float64Var(&threshold, "threshold", diag.LossOfControlMark, "recycling crossing threshold")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "integrate and replay the discharge live",
		RunE:  runWatch,
	}
	addScenarioFlags(watchCmd)

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, sweepCmd, watchCmd, plotCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&t0K, "t0", physics.DefaultT0K, "baseline wall temperature [K]")
	cmd.Flags().Float64Var(&sIn, "s-in", physics.DefaultSIn, "fueling source [particles/s]")
	cmd.Flags().Float64Var(&sPump, "s-pump", physics.DefaultSPump, "exhaust sink [particles/s]")
	cmd.Flags().Float64Var(&r0, "r0", physics.DefaultR0, "prompt recycling coefficient")
	cmd.Flags().Float64Var(&nwMax, "nw-max", physics.DefaultNwMax, "wall capacity [particles]")
	cmd.Flags().Float64Var(&tauP, "tau-p", physics.DefaultTauP, "confinement time [s]")
	cmd.Flags().Float64Var(&tau0, "tau0", physics.DefaultTau0, "pre-exponential residence time [s]")
	cmd.Flags().Float64Var(&eaEV, "ea", physics.DefaultEaEV, "activation energy [eV]")
	cmd.Flags().Float64Var(&npFloor, "np-floor", physics.DefaultNpFloor, "plasma inventory floor [particles]")
	cmd.Flags().Float64Var(&np0, "np0", sim.DefaultNp0, "initial plasma inventory")
	cmd.Flags().Float64Var(&nw0, "nw0", sim.DefaultNw0, "initial wall inventory")
	cmd.Flags().Float64Var(&horizon, "time", sim.DefaultHorizon, "integration horizon")
	cmd.Flags().Float64Var(&rtol, "rtol", sim.DefaultRTol, "relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", sim.DefaultATol, "absolute tolerance [particles]")
	cmd.Flags().Float64Var(&maxDt, "max-dt", sim.DefaultMaxDt, "maximum step size")
	cmd.Flags().Float64Var(&fixedDt, "fixed-dt", 0, "fixed step size (explicit RK4 instead of stiff solver)")
	cmd.Flags().StringVar(&configFile, "config", "", "scenario config file (yaml)")
}

// scenario assembles parameters, initial state and solver settings from
// config file plus flags. CLI flags override file values.
func scenario(cmd *cobra.Command) (physics.Params, dynamo.State, sim.Config, error) {
	p := physics.DefaultParams()
	y0 := sim.DefaultState()
	sc := sim.DefaultConfig()

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return p, nil, sc, fmt.Errorf("failed to load config: %w", err)
		}
		p = cfg.ModelParams()
		y0 = cfg.InitState()
		sc = cfg.SimConfig()
	}

	set := func(name string, dst *float64, v float64) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("t0", &p.T0K, t0K)
	set("s-in", &p.SIn, sIn)
	set("s-pump", &p.SPump, sPump)
	set("r0", &p.R0, r0)
	set("nw-max", &p.NwMax, nwMax)
	set("tau-p", &p.TauP, tauP)
	set("tau0", &p.Tau0, tau0)
	set("ea", &p.EaEV, eaEV)
	set("np-floor", &p.NpFloor, npFloor)
	set("np0", &y0[0], np0)
	set("nw0", &y0[1], nw0)
	set("time", &sc.Horizon, horizon)
	set("rtol", &sc.RTol, rtol)
	set("atol", &sc.ATol, atol)
	set("max-dt", &sc.MaxDt, maxDt)
	set("fixed-dt", &sc.FixedDt, fixedDt)

	return p, y0, sc, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	p, y0, sc, err := scenario(cmd)
	if err != nil {
		return err
	}

	traj, err := sim.Integrate(context.Background(), p, y0, sc)
	if err != nil {
		return err
	}
	samples := diag.Compute(traj, p, physics.Scenario{P: p})

	fmt.Println(viz.RunReport(p, traj, samples))

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(p, traj, samples)
		if err != nil {
			return err
		}
		fmt.Printf("saved as %s\n", runID)
	}

	if pngPath != "" {
		if err := plot.SaveFigure(pngPath, p, traj, samples); err != nil {
			return err
		}
		fmt.Printf("figure written to %s\n", pngPath)
	}

	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	p, y0, sc, err := scenario(cmd)
	if err != nil {
		return err
	}

	eas := append([]float64(nil), eaValues...)
	sort.Float64s(eas)

	runs := sim.SweepEa(context.Background(), p, eas, y0, sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Ea [eV]\tR_eff > %.3f at\tfinal Np\tfinal Nw\tsteps\n", threshold)
	for _, run := range runs {
		if run.Err != nil {
			fmt.Fprintf(w, "%.3f\terror: %v\t\t\t\n", run.Params.EaEV, run.Err)
			continue
		}
		samples := diag.Compute(run.Traj, run.Params, physics.Scenario{P: run.Params})
		crossing := "never"
		if t, ok := diag.CrossingTime(samples, threshold); ok {
			crossing = fmt.Sprintf("t=%.1f", t)
		}
		_, yEnd := run.Traj.Final()
		fmt.Fprintf(w, "%.3f\t%s\t%.3e\t%.3e\t%d\n",
			run.Params.EaEV, crossing, yEnd[0], yEnd[1], run.Traj.Stats.StepsAccepted)
	}
	return w.Flush()
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, y0, sc, err := scenario(cmd)
	if err != nil {
		return err
	}

	traj, err := sim.Integrate(context.Background(), p, y0, sc)
	if err != nil {
		return err
	}
	samples := diag.Compute(traj, p, physics.Scenario{P: p})

	program := tea.NewProgram(viz.NewWatchModel(p, traj, samples))
	_, err = program.Run()
	return err
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	np := series.Column("np")
	nw := series.Column("nw")
	reff := series.Column("r_eff")
	if np == nil || nw == nil || reff == nil {
		return fmt.Errorf("run %s: series missing expected columns", args[0])
	}

	scaled := make([]float64, len(np))
	for i, v := range np {
		scaled[i] = v / 1e21
	}
	fmt.Println(viz.PlotSeries("Np [1e21]", scaled, 80, 10))

	for i, v := range nw {
		scaled[i] = v / 1e22
	}
	fmt.Println(viz.PlotSeries("Nw [1e22]", scaled, 80, 10))

	fmt.Println(viz.PlotSeries("R_eff", reff, 80, 10))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	ids, err := st.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "run\ttimestamp\tEa [eV]\tsamples\tfloor clamps")
	for _, id := range ids {
		meta, err := st.LoadMetadata(id)
		if err != nil {
			fmt.Fprintf(w, "%s\tunreadable: %v\t\t\t\n", id, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%d\t%d\n",
			meta.ID, meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Params.EaEV, meta.Samples, meta.Stats.FloorClamps)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.LoadMetadata(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
