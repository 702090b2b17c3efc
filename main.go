package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/metrics"
	"baseball-vector-search/infrastructure/vectorstore"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	verbose     bool
	debug       bool
	metricsFile string
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var current app

var rootCmd = &cobra.Command{
	Use:   "bbvec",
	Short: "Baseball player vector search toolkit",
	Long: `Prepare baseball player documents from the Lahman databank, embed them,
load them into several vector search backends and compare the backends'
"players like X" answers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if metricsFile != "" {
			cfg.Metrics.File = metricsFile
		}
		current = app{cfg: cfg, logger: newLogger(cfg.Logging), metrics: metrics.New()}
		slog.SetDefault(current.logger)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log at info level")
	pf.BoolVar(&debug, "debug", false, "log at debug level")
	pf.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
}

// newLogger builds the slog handler from config, with --debug and --verbose
// taking precedence over the configured level.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose && level > slog.LevelInfo {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens backend name wrapped with metrics. The caller closes it.
func openStore(ctx context.Context, name string) (domain.VectorStore, error) {
	store, err := vectorstore.New(ctx, name, current.cfg, current.logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return vectorstore.Instrument(store, current.metrics), nil
}

// main is the entry point of the bbvec command. Errors from any command
// are printed and the process exits with status 1.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if merr := writeMetrics(); merr != nil && err == nil {
		err = merr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		stop()
		os.Exit(1)
	}
}

// writeMetrics dumps the run's counters when a metrics file is configured,
// whether or not the command succeeded.
func writeMetrics() error {
	if current.cfg == nil || current.cfg.Metrics.File == "" {
		return nil
	}
	if err := current.metrics.WriteTextfile(current.cfg.Metrics.File); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
