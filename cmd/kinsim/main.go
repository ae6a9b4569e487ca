package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kinsim/internal/analysis"
	"kinsim/internal/config"
	"kinsim/internal/integrators"
	"kinsim/internal/kinetics"
	"kinsim/internal/metrics"
	"kinsim/internal/network"
	"kinsim/internal/render"
	"kinsim/internal/stochastic"
	"kinsim/internal/storage"
	"kinsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	// run/live flags
	start      float64
	end        float64
	samples    int
	dt         float64
	tolerance  float64
	adaptive   bool
	solver     string
	seed       int64
	inline     string
	preset     string
	configFile string
	imageOut   string

	// plot/render/analyze flags
	selections []string
	outPath    string
	asSVG      bool
	combined   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kinsim",
		Short: "reaction network simulation lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %s", logLevel)
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".kinsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log verbosity")

	runCmd := &cobra.Command{
		Use:   "run [model-file]",
		Short: "simulate a model and record the time course",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&imageOut, "image", "", "also render a PNG to this path")

	checkCmd := &cobra.Command{
		Use:   "check [model-file]",
		Short: "parse a model and print its species, parameters, and reactions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  checkModel,
	}
	checkCmd.Flags().StringVar(&inline, "inline", "", "inline model source")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "terminal plot of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&selections, "species", nil, "species to plot (default all)")
	plotCmd.Flags().BoolVar(&combined, "combined", false, "single panel with all species")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a recorded run to an image file",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default figures/<run_id>.png)")
	renderCmd.Flags().BoolVar(&asSVG, "svg", false, "write SVG instead of PNG")
	renderCmd.Flags().StringSliceVar(&selections, "species", nil, "species to render (default all)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a run's time course as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a full run as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and decay analysis of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [model-file]",
		Short: "simulate with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&inline, "inline", "", "inline model source")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use a built-in model")
	liveCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	liveCmd.Flags().StringVar(&solver, "solver", "rk4", "integrator (euler, rk4, rk45)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in models",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, checkCmd, listCmd, plotCmd, renderCmd,
		exportCSVCmd, exportJSONCmd, analyzeCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&start, "start", config.DefaultStart, "start time")
	cmd.Flags().Float64Var(&end, "end", config.DefaultEnd, "end time")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of output rows")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "max internal timestep")
	cmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTol, "adaptive error tolerance")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step-size control")
	cmd.Flags().StringVar(&solver, "solver", config.DefaultSolver, "solver (euler, rk4, rk45, gillespie)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed (gillespie)")
	cmd.Flags().StringVar(&inline, "inline", "", "inline model source")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in model")
}

// resolveConfig merges preset, config file, and CLI flags; flags win.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "model"

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Apply(cfg)
		name = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if cfg.Name != "" {
			name = cfg.Name
		}
	}

	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", err
		}
		cfg.Model = string(data)
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	if inline != "" {
		cfg.Model = inline
		name = "inline"
	}

	if cmd.Flags().Changed("start") {
		cfg.Start = start
	}
	if cmd.Flags().Changed("end") {
		cfg.End = end
	}
	if cmd.Flags().Changed("samples") {
		cfg.Samples = samples
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if cmd.Flags().Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver = solver
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}

	if cfg.Model == "" && cfg.ModelFile == "" {
		return nil, "", fmt.Errorf("no model given: pass a model file, --inline, --preset, or --config")
	}

	return cfg, name, nil
}

// resolveDataDir prefers an explicit --data flag over the config file's
// data_dir, falling back to the flag default.
func resolveDataDir(cmd *cobra.Command, cfg *config.Config) string {
	if !cmd.Flags().Changed("data") && cfg.Output.DataDir != "" {
		return cfg.Output.DataDir
	}
	return dataDir
}

func getIntegrator(name string) (kinetics.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	case "rk45":
		return integrators.NewRK45(), nil
	}
	return nil, fmt.Errorf("unknown solver: %s", name)
}

func simCfg(cfg *config.Config) kinetics.Config {
	return kinetics.Config{
		Start:         cfg.Start,
		End:           cfg.End,
		Samples:       cfg.Samples,
		Dt:            cfg.Dt,
		Tolerance:     cfg.Tolerance,
		Adaptive:      cfg.Adaptive,
		ValidateState: true,
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	src, err := cfg.Source()
	if err != nil {
		return err
	}

	net, err := network.Load(src)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	logrus.Infof("loaded model %s: species=%v parameters=%v",
		name, net.SpeciesNames(), net.ParamNames())

	st := storage.New(resolveDataDir(cmd, cfg))
	if err := st.Init(); err != nil {
		return err
	}

	kcfg := simCfg(cfg)

	logrus.Infof("simulating from t=%g to t=%g with %d samples (%s)",
		kcfg.Start, kcfg.End, kcfg.Samples, cfg.Solver)
	began := time.Now()

	var result *kinetics.Result
	if cfg.Solver == "gillespie" {
		g := stochastic.New(net, cfg.Seed)
		result, err = g.Run(context.Background(), kcfg)
	} else {
		var integ kinetics.Integrator
		integ, err = getIntegrator(cfg.Solver)
		if err != nil {
			return err
		}
		sim := kinetics.New(net, integ)
		sim.AddMetric(metrics.NewConservation(net))
		sim.AddMetric(metrics.NewPositivity(1e-9))
		sim.AddMetric(metrics.NewMeanTotal())
		result, err = sim.Run(context.Background(), net.InitialState(), kcfg)
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(began)

	runID, err := st.Save(name, cfg.Solver, cfg.Seed, net.SpeciesNames(), kcfg, result)
	if err != nil {
		return err
	}

	logrus.Infof("completed in %v (%d internal steps)", elapsed, result.StepsTaken)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("rows: %d\n", len(result.States))

	final := result.States[len(result.States)-1]
	fmt.Println("\nfinal concentrations:")
	for i, sp := range net.SpeciesNames() {
		fmt.Printf("  [%s] = %.4f\n", sp, final[i])
	}

	if len(result.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		mnames := lo.Keys(result.Metrics)
		sort.Strings(mnames)
		for _, mname := range mnames {
			fmt.Printf("  %s: %.6g\n", mname, result.Metrics[mname])
		}
	}

	imagePath := imageOut
	if imagePath == "" {
		imagePath = cfg.Output.Image
	}
	if imagePath != "" {
		series, names, err := net.SeriesFor(result, cfg.Selections)
		if err != nil {
			return err
		}
		if err := render.WritePNG(imagePath, name, result.Times, series, names); err != nil {
			return err
		}
		logrus.Infof("image written to %s", imagePath)
	}

	return nil
}

func checkModel(cmd *cobra.Command, args []string) error {
	var src string
	switch {
	case inline != "":
		src = inline
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		src = string(data)
	default:
		return fmt.Errorf("pass a model file or --inline")
	}

	net, err := network.Load(src)
	if err != nil {
		return err
	}

	fmt.Printf("species:    %s\n", strings.Join(net.SpeciesNames(), ", "))
	fmt.Printf("parameters: %s\n", strings.Join(net.ParamNames(), ", "))
	fmt.Printf("balanced:   %v\n\n", net.Balanced())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Reaction", "Rate law"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, r := range net.Reactions {
		table.Append([]string{r.Name, r.Rate.String()})
	}
	table.Render()

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Model", "When", "Bounds", "Rows", "Solver", "Species"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, run := range runs {
		table.Append([]string{
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("[%g, %g]", run.Start, run.End),
			strconv.Itoa(run.Samples),
			run.Solver,
			strings.Join(run.Species, ","),
		})
	}
	table.Render()

	return nil
}

// selectSeries filters a run's columns down to --species, defaulting to all.
func selectSeries(meta *storage.RunMetadata, states [][]float64) ([][]float64, []string, error) {
	wanted := meta.Species
	if len(selections) > 0 {
		wanted = selections
	}

	series := make([][]float64, 0, len(wanted))
	names := make([]string, 0, len(wanted))
	for _, want := range wanted {
		idx := lo.IndexOf(meta.Species, want)
		if idx < 0 {
			return nil, nil, fmt.Errorf("run has no species %q (has: %v)", want, meta.Species)
		}
		col := make([]float64, len(states))
		for i := range states {
			if idx < len(states[i]) {
				col[i] = states[i][idx]
			}
		}
		series = append(series, col)
		names = append(names, want)
	}
	return series, names, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	_, states, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	series, names, err := selectSeries(meta, states)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("rows: %d\n\n", len(states))

	if combined {
		fmt.Println(render.TerminalCombined(series, names))
	} else {
		fmt.Print(render.Terminal(series, names))
	}

	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, states, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to render")
	}

	series, names, err := selectSeries(meta, states)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		ext := ".png"
		if asSVG {
			ext = ".svg"
		}
		if err := os.MkdirAll("figures", 0755); err != nil {
			return err
		}
		path = filepath.Join("figures", runID+ext)
	}

	if asSVG {
		err = render.WriteSVG(path, times, series, names)
	} else {
		err = render.WritePNG(path, meta.Model, times, series, names)
	}
	if err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, states, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := append([]string{"time"}, meta.Species...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, states, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, times, states)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, states, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 || len(times) < 2 {
		return fmt.Errorf("no data")
	}

	sampleDt := times[1] - times[0]

	fmt.Printf("analysis: %s (model %s)\n\n", meta.ID, meta.Model)

	for idx, name := range meta.Species {
		col := make([]float64, len(states))
		for i := range states {
			if idx < len(states[i]) {
				col[i] = states[i][idx]
			}
		}

		fmt.Printf("[%s]\n", name)
		if hl := analysis.HalfLife(times, col); hl > 0 {
			fmt.Printf("  half-life: %.4f\n", hl)
		}
		if period := analysis.DominantPeriod(col, sampleDt); period > 0 {
			fmt.Printf("  dominant period: %.4f\n", period)
		}

		ps := analysis.PowerSpectrum(col)
		plotData := ps[:len(ps)/4+1]
		graph := asciigraph.Plot(plotData,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("power spectrum [%s]", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	var src string
	switch {
	case inline != "":
		src = inline
	case preset != "":
		p := config.GetPreset(preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		src = p.Source
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		src = string(data)
	default:
		return fmt.Errorf("pass a model file, --inline, or --preset")
	}

	net, err := network.Load(src)
	if err != nil {
		return err
	}

	integ, err := getIntegrator(solver)
	if err != nil {
		return err
	}

	m := viz.NewModel(net, integ, dt)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Bounds", "Solver", "Description"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		table.Append([]string{
			name,
			fmt.Sprintf("[%g, %g] x%d", p.Start, p.End, p.Samples),
			p.Solver,
			p.Description,
		})
	}
	table.Render()

	return nil
}
