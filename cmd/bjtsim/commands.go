package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/bjtsim/internal/bjt"
	"github.com/verte-zerg/bjtsim/internal/chart"
	"github.com/verte-zerg/bjtsim/internal/config"
	"github.com/verte-zerg/bjtsim/internal/device"
	"github.com/verte-zerg/bjtsim/internal/export"
	"github.com/verte-zerg/bjtsim/internal/model"
	"github.com/verte-zerg/bjtsim/internal/store"
)

const defaultHistoryLast = 20

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List registered transistors",
		Args:  cobra.NoArgs,
		RunE:  runDevicesCmd,
	}
}

func runDevicesCmd(cmd *cobra.Command, _ []string) error {
	headers := []string{"Part", "Type", "Package", "IS (A)", "VT (V)", "VA (V)", "β", "VCEO", "VCBO", "VEBO", "IC max (mA)"}
	parts := device.All()
	rows := make([][]string, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, []string{
			p.Name,
			p.Type.String(),
			p.Package,
			strconv.FormatFloat(p.IS, 'g', 3, 64),
			formatNumber(p.VT),
			formatNumber(p.VA),
			formatNumber(p.Beta),
			formatNumber(p.VCEO),
			formatNumber(p.VCBO),
			formatNumber(p.VEBO),
			formatNumber(p.ICMax),
		})
	}
	right := map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true}
	return writeLines(cmd.OutOrStdout(), chart.FormatTable(headers, rows, right))
}

func newSweepCmd() *cobra.Command {
	flags := newSweepFlags()
	var (
		imagePath string
		pngPath   string
		csvPath   string
		save      bool
		noTable   bool
	)
	cmd := &cobra.Command{
		Use:       "sweep input|output|transfer",
		Short:     "Run one characteristic sweep",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"input", "output", "transfer"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := bjt.ParseKind(args[0])
			if err != nil {
				return err
			}
			fileCfg, err := loadConfig()
			if err != nil {
				return err
			}
			sweepCfg, err := flags.resolve(cmd, fileCfg)
			if err != nil {
				return err
			}
			if kind == bjt.KindTransfer && cmd.Flags().Changed("vce") {
				sweepCfg.VCETransfer = sweepCfg.VCEInput
			}
			outCfg, err := resolveOutputConfig(cmd, fileCfg)
			if err != nil {
				return err
			}
			session, err := newSession(sweepCfg)
			if err != nil {
				return err
			}

			logger.Debug().Str("device", session.Device()).Stringer("kind", kind).Msg("running sweep")
			res, err := session.Run(kind)
			if err != nil {
				return fmt.Errorf("failed to run %s sweep: %w", kind, err)
			}

			out := cmd.OutOrStdout()
			if err := chart.RenderSweep(out, res, chart.Options{Height: outCfg.PlotHeight}); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if !noTable {
				if _, err := fmt.Fprintln(out); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				if err := chart.RenderSweepTable(out, res); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}

			if imagePath != "" {
				if err := chart.SaveImage(imagePath, res); err != nil {
					return err
				}
				logger.Info().Str("path", imagePath).Msg("saved chart")
			}
			if pngPath != "" {
				if err := writePNG(pngPath, res); err != nil {
					return err
				}
				logger.Info().Str("path", pngPath).Msg("saved chart")
			}
			if csvPath != "" {
				if err := writeCSVFile(csvPath, res); err != nil {
					return err
				}
				logger.Info().Str("path", csvPath).Msg("saved csv")
			}
			if save {
				return recordRuns(cmd.Context(), []bjt.SweepResult{res}, nil)
			}
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().Int("height", chart.DefaultHeight, "plot height in rows")
	cmd.Flags().StringVar(&imagePath, "image", "", "save a chart image (format from extension: png, svg, pdf)")
	cmd.Flags().StringVar(&pngPath, "png", "", "save a PNG chart")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write samples as CSV")
	cmd.Flags().BoolVar(&save, "save", false, "record the run in history")
	cmd.Flags().BoolVar(&noTable, "no-table", false, "omit the data table")
	return cmd
}

func newParamsCmd() *cobra.Command {
	flags := newSweepFlags()
	var save bool
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Run all sweeps and print small-signal parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := loadConfig()
			if err != nil {
				return err
			}
			sweepCfg, err := flags.resolve(cmd, fileCfg)
			if err != nil {
				return err
			}
			session, err := newSession(sweepCfg)
			if err != nil {
				return err
			}
			if err := session.RunAll(); err != nil {
				return fmt.Errorf("failed to run sweeps: %w", err)
			}
			params, ok := session.Parameters()
			if !ok {
				return fmt.Errorf("no parameters derived for %s", session.Device())
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%s (%s)\n", session.Device(), sweepSummary(session.Sweeps())); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if err := chart.RenderParameters(out, params); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if save {
				return recordRuns(cmd.Context(), session.Sweeps(), &params)
			}
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&save, "save", false, "record the runs and parameters in history")
	return cmd
}

func newExportCmd() *cobra.Command {
	flags := newSweepFlags()
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run all sweeps and write them to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := loadConfig()
			if err != nil {
				return err
			}
			sweepCfg, err := flags.resolve(cmd, fileCfg)
			if err != nil {
				return err
			}
			outCfg, err := resolveOutputConfig(cmd, fileCfg)
			if err != nil {
				return err
			}
			session, err := newSession(sweepCfg)
			if err != nil {
				return err
			}
			if err := session.RunAll(); err != nil {
				return fmt.Errorf("failed to run sweeps: %w", err)
			}
			path, err := export.WriteFile(outCfg.ExportDir, session.Device(), time.Now(), session.Sweeps()...)
			if err != nil {
				return err
			}
			logger.Info().Str("path", path).Int("sweeps", len(session.Sweeps())).Msg("exported")
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().String("dir", config.DefaultExportDir(), "output directory")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		filter     model.RunFilter
		showID     int64
		showParams bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sweeps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if filter.Last < 0 {
				return fmt.Errorf("--last must be >= 0")
			}
			if filter.Kind != "" {
				kind, err := bjt.ParseKind(filter.Kind)
				if err != nil {
					return fmt.Errorf("--kind: %w", err)
				}
				filter.Kind = kind.String()
			}
			st, err := store.Open(config.DefaultDBPath())
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer closeStore(st)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()
			switch {
			case cmd.Flags().Changed("show"):
				return showRun(ctx, out, st, showID)
			case showParams:
				return listParameters(ctx, out, st, filter)
			default:
				return listRuns(ctx, out, st, filter)
			}
		},
	}
	cmd.Flags().StringVarP(&filter.Device, "device", "d", "", "device filter")
	cmd.Flags().StringVar(&filter.Kind, "kind", "", "sweep kind filter (input, output, transfer)")
	cmd.Flags().IntVar(&filter.Last, "last", defaultHistoryLast, "limit to last N runs (0 = all)")
	cmd.Flags().Int64Var(&showID, "show", 0, "print the stored sweep with this id")
	cmd.Flags().BoolVar(&showParams, "params", false, "list recorded parameter sets instead of runs")
	return cmd
}

func listRuns(ctx context.Context, out io.Writer, st *store.Store, filter model.RunFilter) error {
	runs, err := st.ListRuns(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded. Use --save or the workbench to record sweeps.")
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		fixed := bjt.Fixed{Name: r.FixedName, Value: r.FixedValue, Unit: r.FixedUnit}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Device,
			r.Kind,
			fixed.String(),
			strconv.Itoa(r.Points),
		})
	}
	headers := []string{"ID", "Recorded", "Device", "Kind", "Held", "Points"}
	return writeLines(out, chart.FormatTable(headers, rows, map[int]bool{0: true, 5: true}))
}

func listParameters(ctx context.Context, out io.Writer, st *store.Store, filter model.RunFilter) error {
	records, err := st.ListParameters(ctx, filter.Device, filter.Last)
	if err != nil {
		return fmt.Errorf("failed to list parameters: %w", err)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No parameters recorded.")
		return err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Device,
			fmt.Sprintf("%.2f", r.InputImpedance),
			fmt.Sprintf("%.2f", r.OutputImpedance),
			fmt.Sprintf("%.1f", r.CurrentGain),
		})
	}
	headers := []string{"ID", "Recorded", "Device", "Rin (kΩ)", "Rout (kΩ)", "β"}
	return writeLines(out, chart.FormatTable(headers, rows, map[int]bool{0: true, 3: true, 4: true, 5: true}))
}

func showRun(ctx context.Context, out io.Writer, st *store.Store, id int64) error {
	sw, err := st.LoadSweep(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if err := chart.RenderSweep(out, sw, chart.Options{}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return chart.RenderSweepTable(out, sw)
}

// recordRuns saves sweeps, and optionally their parameters, to history.
func recordRuns(ctx context.Context, sweeps []bjt.SweepResult, params *bjt.Parameters) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	at := time.Now()
	for _, sw := range sweeps {
		id, err := st.InsertSweep(ctx, sw, at)
		if err != nil {
			return fmt.Errorf("failed to save %s sweep: %w", sw.Kind, err)
		}
		logger.Info().Int64("id", id).Str("sweep", sw.Label()).Msg("recorded run")
	}
	if params != nil && len(sweeps) > 0 {
		if _, err := st.InsertParameters(ctx, sweeps[0].Device, *params, at); err != nil {
			return fmt.Errorf("failed to save parameters: %w", err)
		}
	}
	return nil
}

func writePNG(path string, sw bjt.SweepResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := chart.WriteImage(f, "png", sw); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close image: %w", err)
	}
	return nil
}

func writeCSVFile(path string, sw bjt.SweepResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create csv directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	if err := export.WriteCSV(f, sw); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close csv: %w", err)
	}
	return nil
}

func sweepSummary(sweeps []bjt.SweepResult) string {
	parts := make([]string, 0, len(sweeps))
	for _, sw := range sweeps {
		parts = append(parts, sw.Label())
	}
	return strings.Join(parts, ", ")
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
