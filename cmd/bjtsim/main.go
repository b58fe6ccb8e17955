// Package main provides the CLI entrypoint for bjtsim.
package main

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/bjtsim/internal/bench"
	"github.com/verte-zerg/bjtsim/internal/chart"
	"github.com/verte-zerg/bjtsim/internal/config"
	"github.com/verte-zerg/bjtsim/internal/device"
	"github.com/verte-zerg/bjtsim/internal/model"
	"github.com/verte-zerg/bjtsim/internal/store"
	"github.com/verte-zerg/bjtsim/internal/tui"
)

const maxPlotHeight = 60

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().Timestamp().Logger().Level(zerolog.InfoLevel)

var verbose bool

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := newSweepFlags()
	rootCmd := &cobra.Command{
		Use:           "bjtsim",
		Short:         "Bipolar transistor DC characteristics workbench",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				logger = logger.Level(zerolog.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkbench(cmd, flags)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	flags.register(rootCmd, true)
	rootCmd.Flags().Bool("history", true, "record sweeps in the history database")
	rootCmd.Flags().Int("height", chart.DefaultHeight, "plot height in rows")
	rootCmd.Flags().String("dir", config.DefaultExportDir(), "directory for CSV exports")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newParamsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// sweepFlags holds the device and held-constant values shared by the
// commands that simulate.
type sweepFlags struct {
	device      string
	vce         float64
	ib          float64
	vceTransfer float64
}

func newSweepFlags() *sweepFlags {
	return &sweepFlags{
		device:      device.Default,
		vce:         bench.DefaultVCEInput,
		ib:          bench.DefaultIBOutput,
		vceTransfer: bench.DefaultVCETransfer,
	}
}

func (f *sweepFlags) register(cmd *cobra.Command, withTransfer bool) {
	cmd.Flags().StringVarP(&f.device, "device", "d", f.device, "transistor part number")
	cmd.Flags().Float64Var(&f.vce, "vce", f.vce, "VCE held for the input sweep (V)")
	cmd.Flags().Float64Var(&f.ib, "ib", f.ib, "IB held for the output sweep (μA)")
	if withTransfer {
		cmd.Flags().Float64Var(&f.vceTransfer, "vce-transfer", f.vceTransfer, "VCE held for the transfer sweep (V)")
	}
}

// resolve merges config values into flags the user did not set.
func (f *sweepFlags) resolve(cmd *cobra.Command, fileCfg config.FileConfig) (model.SweepConfig, error) {
	applyStringConfig(cmd, "device", &f.device, fileCfg.Sweep.Device)
	applyFloatConfig(cmd, "vce", &f.vce, fileCfg.Sweep.VCE)
	applyFloatConfig(cmd, "ib", &f.ib, fileCfg.Sweep.IB)
	applyFloatConfig(cmd, "vce-transfer", &f.vceTransfer, fileCfg.Sweep.VCETransfer)

	cfg := model.SweepConfig{
		Device:      f.device,
		VCEInput:    f.vce,
		IBOutput:    f.ib,
		VCETransfer: f.vceTransfer,
	}
	if err := validateSweepConfig(cfg); err != nil {
		return model.SweepConfig{}, err
	}
	p, err := device.Lookup(cfg.Device)
	if err != nil {
		return model.SweepConfig{}, fmt.Errorf("--device: %w", err)
	}
	cfg.Device = p.Name
	return cfg, nil
}

func newSession(cfg model.SweepConfig) (*bench.Session, error) {
	session, err := bench.New(cfg.Device, bench.Inputs{
		VCEInput:    cfg.VCEInput,
		IBOutput:    cfg.IBOutput,
		VCETransfer: cfg.VCETransfer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return session, nil
}

func runWorkbench(cmd *cobra.Command, flags *sweepFlags) error {
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

	opts := tui.Options{
		ExportDir:  outCfg.ExportDir,
		PlotHeight: outCfg.PlotHeight,
		Logger:     logger,
	}
	if outCfg.History {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer closeStore(st)
		opts.Store = st
	}

	logger.Debug().Str("device", sweepCfg.Device).Bool("history", outCfg.History).Msg("starting workbench")
	program := tea.NewProgram(tui.NewModel(session, opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func resolveOutputConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.OutputConfig, error) {
	cfg := model.OutputConfig{
		PlotHeight: chart.DefaultHeight,
		ExportDir:  config.DefaultExportDir(),
		History:    true,
	}
	if cmd.Flags().Lookup("height") != nil {
		cfg.PlotHeight, _ = cmd.Flags().GetInt("height")
	}
	if cmd.Flags().Lookup("dir") != nil {
		cfg.ExportDir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Lookup("history") != nil {
		cfg.History, _ = cmd.Flags().GetBool("history")
	}
	applyIntConfig(cmd, "height", &cfg.PlotHeight, fileCfg.Output.PlotHeight)
	applyStringConfig(cmd, "dir", &cfg.ExportDir, fileCfg.Output.ExportDir)
	applyBoolConfig(cmd, "history", &cfg.History, fileCfg.Output.History)

	if err := validateOutputConfig(cfg); err != nil {
		return model.OutputConfig{}, err
	}
	return cfg, nil
}

func loadConfig() (config.FileConfig, error) {
	path := config.DefaultConfigPath()
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug().Str("path", path).Msg("config loaded")
	return fileCfg, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logger.Warn().Err(cerr).Msg("failed to close db")
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		logger.Info().Str("path", path).Msg("created config")
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# bjtsim configuration
# Uncomment a value to enable it. CLI flags override config values.

[sweep]
# device = %q          # Part number (%s)
# vce = %.1f              # VCE held for the input sweep (V)
# ib = %.1f              # IB held for the output sweep (μA)
# vce-transfer = %.1f     # VCE held for the transfer sweep (V)

[output]
# plot-height = %d        # Terminal plot height in rows
# export-dir = %q
# history = true          # Record sweeps in the history database
`,
		device.Default,
		strings.Join(device.Names(), ", "),
		bench.DefaultVCEInput,
		bench.DefaultIBOutput,
		bench.DefaultVCETransfer,
		chart.DefaultHeight,
		config.DefaultExportDir(),
	)
}

func validateSweepConfig(cfg model.SweepConfig) error {
	if strings.TrimSpace(cfg.Device) == "" {
		return fmt.Errorf("--device must not be empty")
	}
	if err := checkFlagValue("vce", cfg.VCEInput); err != nil {
		return err
	}
	if err := checkFlagValue("ib", cfg.IBOutput); err != nil {
		return err
	}
	return checkFlagValue("vce-transfer", cfg.VCETransfer)
}

func checkFlagValue(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("--%s must be a finite number", name)
	}
	if v < 0 {
		return fmt.Errorf("--%s must be >= 0", name)
	}
	return nil
}

func validateOutputConfig(cfg model.OutputConfig) error {
	if cfg.PlotHeight <= 0 || cfg.PlotHeight > maxPlotHeight {
		return fmt.Errorf("--height must be between 1 and %d", maxPlotHeight)
	}
	if strings.TrimSpace(cfg.ExportDir) == "" {
		return fmt.Errorf("--dir must not be empty")
	}
	return nil
}
