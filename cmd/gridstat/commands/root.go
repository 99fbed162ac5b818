// Package commands implements the gridstat CLI commands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gridstat/pkg/config"
	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
	"github.com/Sumatoshi-tech/gridstat/pkg/render"
	"github.com/Sumatoshi-tech/gridstat/pkg/service"
	"github.com/Sumatoshi-tech/gridstat/pkg/version"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath  string
	Output      string
	InputFormat string
	Workers     int
	Verbose     bool
	NoColor     bool
}

// NewRootCommand creates the gridstat root command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "gridstat",
		Short: "Missing-aware statistics over gridded data",
		Long: `gridstat computes statistics over sequences and 2-D grids in which
NaN and infinite values mark missing data.

Commands:
  stat        Compute a statistic (mean, min, max, median, quantile, std, sum)
  quantile    Compute a quantile with linear interpolation
  missing     Count missing values
  statistics  List statistic names
  serve       Start the HTTP API
  mcp         Start the MCP server on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default: ./gridstat.yaml)")
	flags.StringVarP(&opts.Output, "output", "o", "", "output format: table, json or yaml")
	flags.StringVar(&opts.InputFormat, "format", "", "input format: json or yaml (default: from file extension)")
	flags.IntVarP(&opts.Workers, "workers", "w", 0, "row workers for grid input (0: GOMAXPROCS)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newStatCommand(opts),
		newQuantileCommand(opts),
		newMissingCommand(opts),
		newStatisticsCommand(opts),
		newVersionCommand(opts),
		newClockCommand(opts),
		newServeCommand(opts),
		newMCPCommand(opts),
	)

	return rootCmd
}

// env is the per-invocation runtime: configuration, telemetry and the service.
// red measures the mode's front end (HTTP routes or MCP tools) and is nil in
// CLI mode.
type env struct {
	cfg       *config.Config
	providers observability.Providers
	red       *observability.REDMetrics
	svc       *service.Service
	renderer  *render.Renderer
}

// loadConfig reads the config file and applies flag overrides.
func (o *GlobalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("output") {
		cfg.Output.Format = o.Output
	}

	if flags.Changed("workers") {
		cfg.Compute.Workers = o.Workers
	}

	if o.NoColor {
		cfg.Output.Color = false
	}

	if o.Verbose {
		cfg.Logging.Level = "debug"
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid flags: %w", validateErr)
	}

	return cfg, nil
}

// setup loads configuration and initializes telemetry for the given mode.
// The caller must call env.close.
func (o *GlobalOptions) setup(cmd *cobra.Command, mode observability.AppMode) (*env, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.Observability(mode, version.Version)
	obsCfg.LogOutput = cmd.ErrOrStderr()
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.Prometheus = mode == observability.ModeServe
	obsCfg.DebugTrace = o.Verbose

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	computeRED, err := observability.NewREDMetrics(providers.Meter, observability.LayerCompute)
	if err != nil {
		return nil, fmt.Errorf("register request metrics: %w", err)
	}

	var red *observability.REDMetrics

	if layer, ok := frontLayer(mode); ok {
		red, err = observability.NewREDMetrics(providers.Meter, layer)
		if err != nil {
			return nil, fmt.Errorf("register %s metrics: %w", layer, err)
		}
	}

	kernel, err := observability.NewKernelMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("register kernel metrics: %w", err)
	}

	svc := service.New(service.Deps{
		Logger: providers.Logger,
		Tracer: providers.Tracer,
		RED:    computeRED,
		Kernel: kernel,
	}, service.Defaults{
		Statistic: cfg.Compute.Statistic(),
		Quantile:  cfg.Compute.DefaultQuantile,
		Workers:   cfg.Compute.Workers,
	})

	return &env{
		cfg:       cfg,
		providers: providers,
		red:       red,
		svc:       svc,
		renderer:  render.New(cfg.Output.Color && !color.NoColor),
	}, nil
}

// frontLayer returns the metrics layer of the mode's front end.
func frontLayer(mode observability.AppMode) (observability.Layer, bool) {
	switch mode {
	case observability.ModeServe:
		return observability.LayerHTTP, true
	case observability.ModeMCP:
		return observability.LayerMCP, true
	case observability.ModeCLI:
	}

	return "", false
}

func (e *env) close(ctx context.Context) {
	shutdownErr := e.providers.Shutdown(context.WithoutCancel(ctx))
	if shutdownErr != nil {
		e.providers.Logger.WarnContext(ctx, "observability shutdown failed", "error", shutdownErr)
	}
}
