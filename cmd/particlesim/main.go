package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/particlesim/internal/analysis"
	"github.com/san-kum/particlesim/internal/automation"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/export"
	"github.com/san-kum/particlesim/internal/integrators"
	"github.com/san-kum/particlesim/internal/optim"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/storage"
	"github.com/san-kum/particlesim/internal/vec"
	"github.com/san-kum/particlesim/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	stepMs     int
	bufferMs   int
	durationMs int
	sampleMs   int
	speed      float64
	integrator string
	friction   bool
	// snapshot
	atMs    int
	outFile string
	scale   float64
	// run inspection
	particleID int
	field      string
	svgFile    string
	xField     string
	yField     string
	// divergence
	perturb float64
	// tuning
	metricName string
	vxRange    string
	vyRange    string
	massRange  string

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "particlesim",
		Short:         "2D particle gravity and collision simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".particlesim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario and store the sampled trajectory",
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scenario with live visualization",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render the state at one timestamp as SVG",
		RunE:  runSnapshot,
	}
	addScenarioFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&atMs, "at", 0, "timestamp in ms")
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	snapshotCmd.Flags().Float64Var(&scale, "scale", 1, "pixels per stage unit")

	divergeCmd := &cobra.Command{
		Use:   "diverge",
		Short: "compare a scenario against a perturbed copy",
		RunE:  runDiverge,
	}
	addScenarioFlags(divergeCmd)
	divergeCmd.Flags().IntVar(&particleID, "particle", 0, "particle to perturb and track")
	divergeCmd.Flags().Float64Var(&perturb, "perturb", 1e-3, "initial x offset")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search a particle's parameters against a metric",
		RunE:  runTune,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&particleID, "particle", 0, "particle to tune")
	tuneCmd.Flags().StringVar(&metricName, "metric", "energy_drift", "metric to minimize")
	tuneCmd.Flags().StringVar(&vxRange, "vx", "", "x velocity range lo:hi:step")
	tuneCmd.Flags().StringVar(&vyRange, "vy", "", "y velocity range lo:hi:step")
	tuneCmd.Flags().StringVar(&massRange, "mass", "", "mass range lo:hi:step")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of scenarios and store each run",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a particle's trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&particleID, "particle", 0, "particle id")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the x/y path as SVG")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&particleID, "particle", 0, "particle id")
	phaseCmd.Flags().StringVar(&xField, "x-axis", "x", "field for x-axis (x, y, vx, vy)")
	phaseCmd.Flags().StringVar(&yField, "y-axis", "vx", "field for y-axis (x, y, vx, vy)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&particleID, "particle", 0, "particle id")
	analyzeCmd.Flags().StringVar(&field, "field", "x", "field to analyze (x, y, vx, vy)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "replay a stored run and export it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICLES\tSTEP\tDURATION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%v\t%v\n", name, len(cfg.Particles), cfg.Step(), cfg.Duration())
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, snapshotCmd, divergeCmd, tuneCmd, batchCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, exportJSONCmd, presetsCmd)

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a named preset")
	cmd.Flags().IntVar(&stepMs, "step", config.DefaultStepMs, "step size in ms")
	cmd.Flags().IntVar(&bufferMs, "buffer", config.DefaultBufferMs, "look-ahead horizon in ms")
	cmd.Flags().IntVar(&durationMs, "duration", config.DefaultDurationMs, "duration in ms")
	cmd.Flags().IntVar(&sampleMs, "sample", config.DefaultSampleMs, "sample interval in ms")
	cmd.Flags().Float64Var(&speed, "speed", 1, "playback speed")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, fmt.Sprintf("integrator %v", integrators.Names()))
	cmd.Flags().BoolVar(&friction, "friction", false, "apply environment friction")
}

// loadScenario resolves preset, then config file, then explicitly set flags.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Info("config loaded", zap.String("path", configFile), zap.String("name", cfg.Name))
	}

	flags := cmd.Flags()
	if flags.Changed("step") {
		cfg.StepMs = stepMs
	}
	if flags.Changed("buffer") {
		cfg.BufferMs = bufferMs
	}
	if flags.Changed("duration") {
		cfg.DurationMs = durationMs
	}
	if flags.Changed("sample") {
		cfg.SampleMs = sampleMs
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("friction") {
		cfg.Friction = friction
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Steps))
	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, result.Metrics[name])
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return err
	}

	simulation := sim.NewSimulation(exp.Environment(), exp.Buffer(), sim.WithLogger(logger))
	if err := simulation.SetSpeed(cfg.Speed); err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(cfg.Name, simulation, exp.Buffer()))
	_, err = p.Run()
	return err
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return err
	}

	at := time.Duration(atMs) * time.Millisecond
	if err := exp.Buffer().Warm(at); err != nil {
		return err
	}
	step, err := exp.Buffer().Calculate(at)
	if err != nil {
		return err
	}

	svg := export.StepToSVG(exp.Environment(), step, scale)
	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (t=%v)\n", outFile, step.Timestamp)
	return nil
}

func runDiverge(cmd *cobra.Command, args []string) error {
	base, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if particleID < 0 || particleID >= len(base.Particles) {
		return fmt.Errorf("no particle %d in %s", particleID, base.Name)
	}

	perturbed := base.Clone()
	perturbed.Name = base.Name + "-perturbed"
	p := &perturbed.Particles[particleID]
	p.Position = vec.Add(p.Position, vec.New(perturb, 0))

	ctx, cancel := signalContext()
	defer cancel()

	results, err := experiment.RunAll(ctx, []*config.Config{base, perturbed}, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	sep := analysis.Separation(results[0].Steps, results[1].Steps, particleID)
	if len(sep) > 1 {
		graph := asciigraph.Plot(sep,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("separation of particle %d", particleID)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Printf("initial separation: %g\n", perturb)
	if len(sep) > 0 {
		fmt.Printf("final separation: %g\n", sep[len(sep)-1])
	}
	fmt.Printf("divergence rate: %.4f /s\n", analysis.DivergenceRate(sep, base.Sample()))
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	var params []optim.Param
	for _, r := range []struct {
		value string
		param func(int, []float64) optim.Param
	}{
		{vxRange, optim.VelocityX},
		{vyRange, optim.VelocityY},
		{massRange, optim.Mass},
	} {
		if r.value == "" {
			continue
		}
		values, err := optim.ParseRange(r.value)
		if err != nil {
			return err
		}
		params = append(params, r.param(particleID, values))
	}
	if len(params) == 0 {
		return errors.New("nothing to tune: set --vx, --vy or --mass")
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("tuning %s on %s...\n", metricName, cfg.Name)
	best, val, err := optim.NewGridSearch(params...).Search(ctx, cfg, metricName, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(best) {
		fmt.Fprintf(w, "  %s\t%g\n", name, best[name])
	}
	fmt.Fprintf(w, "  %s\t%.6g\n", metricName, val)
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ids, err := automation.RunScenario(ctx, scenario, st, logger)
	for _, id := range ids {
		fmt.Printf("run id: %s\n", id)
	}
	return err
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

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tSTEP\tINTEG\tPARTICLES\tSAMPLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\t%s\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			time.Duration(run.DurationMs)*time.Millisecond,
			time.Duration(run.StepMs)*time.Millisecond,
			run.Integrator,
			len(run.Particles),
			run.Samples,
		)
	}
	return w.Flush()
}

var fields = map[string]analysis.Field{
	"x":  analysis.PosX,
	"y":  analysis.PosY,
	"vx": analysis.VelX,
	"vy": analysis.VelY,
}

func loadSeries(runID string, id int, name string) (*storage.RunMetadata, []float64, error) {
	if _, ok := fields[name]; !ok {
		return nil, nil, fmt.Errorf("unknown field: %s (use x, y, vx or vy)", name)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}

	data, ok := traj.Series(storage.Column(id, name))
	if !ok {
		return nil, nil, fmt.Errorf("run %s has no particle %d", runID, id)
	}
	if len(data) == 0 {
		return nil, nil, errors.New("no data")
	}
	return meta, data, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	var meta *storage.RunMetadata
	series := make(map[string][]float64, len(fields))
	for _, name := range []string{"x", "y", "vx", "vy"} {
		m, data, err := loadSeries(runID, particleID, name)
		if err != nil {
			return err
		}
		meta, series[name] = m, data
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particle: %d\n", particleID)
	fmt.Printf("samples: %d\n\n", len(series["x"]))

	captions := map[string]string{
		"x":  "x position",
		"y":  "y position",
		"vx": "x velocity",
		"vy": "y velocity",
	}
	for _, name := range []string{"x", "y", "vx", "vy"} {
		graph := asciigraph.Plot(series[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[name]),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgFile != "" {
		portrait := &analysis.Portrait{ID: particleID, X: analysis.PosX, Y: analysis.PosY}
		for i := range series["x"] {
			portrait.Points = append(portrait.Points, analysis.Point{X: series["x"][i], Y: series["y"][i]})
		}
		svg := export.TrajectoryToSVG(portrait, 800, 600, "#00ffff")
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	meta, xs, err := loadSeries(runID, particleID, xField)
	if err != nil {
		return err
	}
	_, ys, err := loadSeries(runID, particleID, yField)
	if err != nil {
		return err
	}

	portrait := &analysis.Portrait{ID: particleID, X: fields[xField], Y: fields[yField]}
	for i := range min(len(xs), len(ys)) {
		portrait.Points = append(portrait.Points, analysis.Point{X: xs[i], Y: ys[i]})
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("particle: %d, x-axis: %s, y-axis: %s\n\n", particleID, xField, yField)
	fmt.Print(analysis.PortraitToASCII(portrait, 80, 24))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	meta, data, err := loadSeries(runID, particleID, field)
	if err != nil {
		return err
	}
	interval := time.Duration(meta.SampleMs) * time.Millisecond

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("particle %d, field %s\n\n", particleID, field)

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 1 {
		graph := asciigraph.Plot(ps[1:],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+field+")"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	period, ok := analysis.DominantPeriod(data, interval)
	if !ok {
		fmt.Println("no periodic component")
		return nil
	}
	fmt.Printf("dominant frequency: %.4f hz\n", 1/period.Seconds())
	fmt.Printf("period: %v\n", period)

	if crossings := analysis.Crossings(data, mean(data)); len(crossings) > 1 {
		first, last := crossings[0], crossings[len(crossings)-1]
		avg := time.Duration(last-first) * interval / time.Duration(len(crossings)-1)
		fmt.Printf("mean crossing period: %v (%d crossings)\n", avg, len(crossings))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	cfg, err := st.LoadScenario(runID)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return err
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, cfg, result)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
