package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/haloplate/internal/analysis"
	"github.com/san-kum/haloplate/internal/collect"
	"github.com/san-kum/haloplate/internal/config"
	"github.com/san-kum/haloplate/internal/export"
	"github.com/san-kum/haloplate/internal/metrics"
	"github.com/san-kum/haloplate/internal/partition"
	"github.com/san-kum/haloplate/internal/reference"
	"github.com/san-kum/haloplate/internal/solver"
	"github.com/san-kum/haloplate/internal/storage"
	"github.com/san-kum/haloplate/internal/tui"
	"github.com/san-kum/haloplate/internal/viz"
)

func printHeader(cfg *config.Config) {
	fmt.Printf("NROWS: %d\nNCOLS: %d\n", cfg.Rows, cfg.Cols)
	fmt.Println("Final temperature distribution over heated plate:")
}

func runSolver(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := solver.Validate(cfg.Plate(), cfg.Ranks); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := options(cfg)
	opts.Sink = collect.NewTextSink(os.Stdout, cfg.Mode())

	logger.Debug("starting run",
		zap.Int("rows", cfg.Rows),
		zap.Int("cols", cfg.Cols),
		zap.Int("ranks", cfg.Ranks),
		zap.Int("iterations", cfg.Iterations),
		zap.Stringer("topology", cfg.Topology),
		zap.Stringer("strategy", cfg.Strategy))

	printHeader(cfg)
	result, err := solver.Run(ctx, cfg.Plate(), cfg.Ranks, opts)
	if err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", result.Elapsed)
	printConvergence(result.Residuals)

	if plot && len(result.Residuals) > 0 {
		fmt.Println()
		fmt.Println(viz.ResidualPlot(result.Residuals, 60, 10))
	}
	if heatmap {
		lo, hi := viz.Range(result.Grid)
		th := viz.GetTheme(theme)
		fmt.Println()
		fmt.Print(viz.Heatmap(result.Grid, lo, hi, th))
		fmt.Println(viz.Legend(lo, hi, 32, th))
	}

	if svgPath != "" {
		if err := writeSVG(svgPath, result.Grid, result.Residuals); err != nil {
			return err
		}
	}

	if exportPath != "" {
		if err := storage.ExportJSONFile(exportPath, cfg, result); err != nil {
			return err
		}
	}

	if save {
		return saveRun(cfg, result)
	}
	return nil
}

func saveRun(cfg *config.Config, result *solver.Result) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runReference(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	res, err := reference.Run(cfg.Plate())
	if err != nil {
		return err
	}

	printHeader(cfg)
	sink := collect.NewTextSink(os.Stdout, collect.Core)
	for i, row := range res.Grid {
		if err := sink.WriteRow(i, [][]float64{row}); err != nil {
			return err
		}
	}
	return nil
}

func showPartition(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	widths, err := partition.Widths(cfg.Cols, cfg.Ranks)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tOFFSET\tWIDTH\tCOLUMNS")
	for r, width := range widths {
		off, err := partition.Offset(cfg.Cols, cfg.Ranks, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d..%d\n", r, off, width, off, off+width-1)
	}
	return w.Flush()
}

func runHaloDemo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	before, after, err := solver.HaloDemo(ctx, cfg.Plate(), cfg.Ranks, cfg.Strategy)
	if err != nil {
		return err
	}
	widths, err := partition.Widths(cfg.Cols, cfg.Ranks)
	if err != nil {
		return err
	}

	fmt.Printf("before exchange (halos = %d):\n", solver.HaloFill)
	if err := printSegmented(before, widths); err != nil {
		return err
	}
	fmt.Printf("\nafter exchange (%s, %s):\n", cfg.Topology, cfg.Strategy)
	return printSegmented(after, widths)
}

// printSegmented splits diagnostic rows back into one segment per rank.
func printSegmented(grid [][]float64, widths []int) error {
	sink := collect.NewTextSink(os.Stdout, collect.Diagnostic)
	for i, row := range grid {
		segments := make([][]float64, len(widths))
		off := 0
		for r, w := range widths {
			segments[r] = row[off : off+w+2]
			off += w + 2
		}
		if err := sink.WriteRow(i, segments); err != nil {
			return err
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := solver.Validate(cfg.Plate(), cfg.Ranks); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	// rank logs would tear the alt screen
	opts := options(cfg)
	opts.Logger = nil

	final, err := tea.NewProgram(tui.NewModel(ctx, cfg.Plate(), cfg.Ranks, opts)).Run()
	if err != nil {
		return err
	}

	m := final.(tui.Model)
	if m.Err() != nil {
		return m.Err()
	}
	if save && m.Result() != nil {
		return saveRun(cfg, m.Result())
	}
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

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSHAPE\tRANKS\tITERS\tTOPOLOGY\tRESIDUAL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%d\t%s\t%.6f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Rows, run.Cols,
			run.Ranks,
			run.Iterations,
			run.Topology,
			run.FinalResidual(),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	grid, err := st.LoadGrid(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plate: %dx%d, %d ranks %v, %s, %s\n", meta.Rows, meta.Cols, meta.Ranks, meta.Widths, meta.Topology, meta.Strategy)
	fmt.Printf("iterations: %d in %v\n", meta.Iterations, meta.Elapsed)
	printConvergence(meta.Residuals)
	fmt.Println("\nmetrics:")
	for name, val := range metrics.Summarize(grid) {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	if len(meta.Residuals) > 0 {
		fmt.Println()
		fmt.Println(viz.ResidualPlot(meta.Residuals, 60, 10))
	}

	lo, hi := viz.Range(grid)
	th := viz.GetTheme(theme)
	fmt.Println()
	fmt.Print(viz.Heatmap(grid, lo, hi, th))
	fmt.Println(viz.Legend(lo, hi, 32, th))

	if svgPath != "" {
		return writeSVG(svgPath, grid, meta.Residuals)
	}
	return nil
}

func printConvergence(residuals []float64) {
	r := analysis.Analyze(residuals)
	if r.Iterations == 0 {
		return
	}
	fmt.Printf("final residual: %.6f\n", r.Final)
	if r.Converged {
		fmt.Println("converged: residual reached zero")
		return
	}
	if math.IsNaN(r.Rate) {
		return
	}
	fmt.Printf("convergence rate: %.4f per iteration\n", r.Rate)
	if n := analysis.IterationsTo(r.Final, tolerance, r.Rate); n >= 0 {
		fmt.Printf("estimated iterations to %g: %d more\n", tolerance, n)
	}
}

// writeSVG writes the plate to path and, when there is a history, the
// residual plot next to it as <name>-residuals.svg.
func writeSVG(path string, grid [][]float64, residuals []float64) error {
	lo, hi := viz.Range(grid)
	th := viz.GetTheme(theme)
	if err := os.WriteFile(path, []byte(export.GridToSVG(grid, lo, hi, th, 12)), 0644); err != nil {
		return err
	}

	history := export.ResidualsToSVG(residuals, 600, 200, string(th.Accent))
	if history == "" {
		return nil
	}
	ext := filepath.Ext(path)
	return os.WriteFile(strings.TrimSuffix(path, ext)+"-residuals"+ext, []byte(history), 0644)
}

func benchRanks(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	ref, err := reference.Run(cfg.Plate())
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %dx%d, %d iterations\n\n", cfg.Rows, cfg.Cols, cfg.Iterations)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANKS\tWIDTHS\tTIME\tSPEEDUP\tMAX DEV")

	var base time.Duration
	for n := 1; n <= min(cfg.Ranks, cfg.Cols); n++ {
		opts := options(cfg)
		result, err := solver.Run(ctx, cfg.Plate(), n, opts)
		if err != nil {
			return err
		}
		if n == 1 {
			base = result.Elapsed
		}

		dev := metrics.NewMaxDeviation(ref.Grid)
		dev.Observe(result.Grid)

		fmt.Fprintf(w, "%d\t%v\t%v\t%.2fx\t%.2e\n",
			n, result.Widths, result.Elapsed, float64(base)/float64(result.Elapsed), dev.Value())
	}
	return w.Flush()
}
