package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/haloplate/internal/config"
	"github.com/san-kum/haloplate/internal/halo"
	"github.com/san-kum/haloplate/internal/logging"
	"github.com/san-kum/haloplate/internal/plate"
	"github.com/san-kum/haloplate/internal/solver"
)

var (
	dataDir string
	debug   bool
	logger  = zap.NewNop()

	rows       int
	cols       int
	ranks      int
	iters      int
	workers    int
	top        float64
	bottom     float64
	left       float64
	right      float64
	topology   string
	strategy   string
	diagnostic bool

	configFile string
	preset     string

	save       bool
	plot       bool
	heatmap    bool
	theme      string
	exportPath string
	svgPath    string
	tolerance  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "haloplate",
		Short:        "distributed heated plate solver",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(debug)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".haloplate", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "per-rank debug logging on stderr")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the solver on an in-process cohort",
		Args:  cobra.NoArgs,
		RunE:  runSolver,
	}
	addPlateFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under --data")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the residual history")
	runCmd.Flags().BoolVar(&heatmap, "heatmap", false, "render the final plate as a heat map")
	runCmd.Flags().StringVar(&theme, "theme", "thermal", "heat map theme")
	runCmd.Flags().StringVar(&exportPath, "export", "", "write the run as JSON to a file (- for stdout)")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final plate as SVG")
	runCmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "residual target for the convergence estimate")

	referenceCmd := &cobra.Command{
		Use:   "reference",
		Short: "run the single-process reference solver",
		Args:  cobra.NoArgs,
		RunE:  runReference,
	}
	addPlateFlags(referenceCmd)

	partitionCmd := &cobra.Command{
		Use:   "partition",
		Short: "show how columns are split across ranks",
		Args:  cobra.NoArgs,
		RunE:  showPartition,
	}
	addPlateFlags(partitionCmd)

	haloCmd := &cobra.Command{
		Use:   "halo",
		Short: "show every subdomain before and after one halo exchange",
		Args:  cobra.NoArgs,
		RunE:  runHaloDemo,
	}
	addPlateFlags(haloCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the solver with a live progress view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addPlateFlags(liveCmd)
	liveCmd.Flags().BoolVar(&save, "save", false, "store the run under --data")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&theme, "theme", "thermal", "heat map theme")
	showCmd.Flags().StringVar(&svgPath, "svg", "", "write the plate as SVG")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time the solver for 1..--ranks ranks and check it against the reference",
		Args:  cobra.NoArgs,
		RunE:  benchRanks,
	}
	addPlateFlags(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-14s %4dx%-4d ranks=%d iters=%d %s\n",
					name, p.Rows, p.Cols, p.Ranks, p.Iterations, p.Topology)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, referenceCmd, partitionCmd, haloCmd, liveCmd, listCmd, showCmd, benchCmd, presetsCmd)

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, plate.ErrConfiguration):
		return solver.ExitConfiguration
	case errors.Is(err, plate.ErrCommunication):
		return solver.ExitCommunication
	}
	return solver.ExitFailure
}

func addPlateFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().IntVar(&rows, "rows", def.Rows, "plate rows")
	cmd.Flags().IntVar(&cols, "cols", def.Cols, "plate columns")
	cmd.Flags().IntVarP(&ranks, "ranks", "n", def.Ranks, "number of ranks")
	cmd.Flags().IntVar(&iters, "iters", def.Iterations, "iterations")
	cmd.Flags().IntVar(&workers, "workers", 0, "update goroutines per rank (0 = NumCPU)")
	cmd.Flags().Float64Var(&top, "top", def.Boundary.Top, "top edge temperature")
	cmd.Flags().Float64Var(&bottom, "bottom", def.Boundary.Bottom, "bottom edge temperature")
	cmd.Flags().Float64Var(&left, "left", def.Boundary.Left, "left edge temperature")
	cmd.Flags().Float64Var(&right, "right", def.Boundary.Right, "right edge temperature")
	cmd.Flags().StringVar(&topology, "topology", def.Topology.String(), "open or periodic")
	cmd.Flags().StringVar(&strategy, "strategy", def.Strategy.String(), "sendrecv or nonblocking")
	cmd.Flags().BoolVar(&diagnostic, "diagnostic", false, "print every subdomain with its halo columns")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, the preset, the config file and explicitly
// set flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
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
	}

	flags := cmd.Flags()
	if flags.Changed("rows") {
		cfg.Rows = rows
	}
	if flags.Changed("cols") {
		cfg.Cols = cols
	}
	if flags.Changed("ranks") {
		cfg.Ranks = ranks
	}
	if flags.Changed("iters") {
		cfg.Iterations = iters
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("top") {
		cfg.Boundary.Top = top
	}
	if flags.Changed("bottom") {
		cfg.Boundary.Bottom = bottom
	}
	if flags.Changed("left") {
		cfg.Boundary.Left = left
	}
	if flags.Changed("right") {
		cfg.Boundary.Right = right
	}
	if flags.Changed("topology") {
		t, err := plate.ParseTopology(topology)
		if err != nil {
			return nil, err
		}
		cfg.Topology = t
	}
	if flags.Changed("strategy") {
		s, err := halo.ParseStrategy(strategy)
		if err != nil {
			return nil, err
		}
		cfg.Strategy = s
	}
	if flags.Changed("diagnostic") {
		cfg.Diagnostic = diagnostic
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func options(cfg *config.Config) solver.Options {
	return solver.Options{
		Strategy: cfg.Strategy,
		Mode:     cfg.Mode(),
		Workers:  cfg.Workers,
		Logger:   logger,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
