package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/cobra"

	"github.com/ironsheep/idcard-tools/internal/config"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// logLevelEnv names the environment variable read when --log-level is unset.
const logLevelEnv = "IDCARD_LOG_LEVEL"

// options holds the global flags. Empty values leave the configuration
// file's setting in place.
type options struct {
	configPath  string
	template    string
	roster      string
	photoDir    string
	outDir      string
	workers     int
	metricsFile string
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "idcard:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "idcard",
		Short: "Generate staff ID cards from a template and a roster",
		Long: `idcard finds the placeholder boxes of a card template, works out what each
box is for from the label printed inside it, and renders one card per roster
row with that person's name, numbers, role and photo.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "template configuration file (YAML)")
	pf.StringVarP(&opts.template, "template", "t", "", "template image or PDF")
	pf.StringVarP(&opts.roster, "roster", "r", "", "roster CSV file")
	pf.StringVar(&opts.photoDir, "photos", "", "directory holding <first>_<last>.<ext> photos")
	pf.StringVarP(&opts.outDir, "out", "o", "", "write cards into this directory instead of next to each photo")
	pf.IntVarP(&opts.workers, "workers", "w", 0, "records rendered at once (0 = one per logical CPU)")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write batch metrics in Prometheus text format to this file")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (env "+logLevelEnv+")")

	root.AddCommand(
		newRenderCmd(opts),
		newDetectCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "idcard %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

// loadConfig reads the configuration file, if any, and applies the flag
// overrides on top of it.
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.template != "" {
		cfg.Template = o.template
	}
	if o.roster != "" {
		cfg.Roster.Path = o.roster
	}
	if o.photoDir != "" {
		cfg.Roster.PhotoDir = o.photoDir
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.metricsFile != "" {
		cfg.MetricsFile = o.metricsFile
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// defaultWorkers is the logical CPU count, or 1 when it cannot be read.
func defaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// newLogger builds the stderr logger. The flag wins over the environment.
func (o *options) newLogger() (*slog.Logger, error) {
	level := o.logLevel
	if level == "" {
		level = os.Getenv(logLevelEnv)
	}

	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}

	// stdout carries results and the MCP protocol, so logs go to stderr.
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With("run_id", uuid.NewString()), nil
}
