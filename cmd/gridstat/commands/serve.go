package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
	"github.com/Sumatoshi-tech/gridstat/pkg/server"
)

func newServeCommand(opts *GlobalOptions) *cobra.Command {
	var host string

	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server exposing the statistics kernel:

  GET  /v1/statistics   statistic names
  POST /v1/statistic    {statistic, quantile?, values | grid}
  POST /v1/quantile     {quantile, values | grid}
  POST /v1/missing      {values | grid}
  GET  /v1/version, /healthz, /readyz, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(cmd, observability.ModeServe)
			if err != nil {
				return err
			}
			defer e.close(cmd.Context())

			if cmd.Flags().Changed("host") {
				e.cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				e.cfg.Server.Port = port
			}

			validateErr := e.cfg.Validate()
			if validateErr != nil {
				return fmt.Errorf("invalid flags: %w", validateErr)
			}

			bodyLimit, err := e.cfg.Server.BodyLimit()
			if err != nil {
				return err
			}

			srv := server.New(e.svc, server.Deps{
				Logger:         e.providers.Logger,
				Tracer:         e.providers.Tracer,
				RED:            e.red,
				MetricsHandler: e.providers.MetricsHandler,
			}, server.Options{
				Addr:         e.cfg.Server.Address(),
				BodyLimit:    bodyLimit,
				ReadTimeout:  e.cfg.Server.ReadTimeout,
				WriteTimeout: e.cfg.Server.WriteTimeout,
				IdleTimeout:  e.cfg.Server.IdleTimeout,
			})

			runErr := srv.Run(cmd.Context())
			if runErr != nil {
				return fmt.Errorf("serve: %w", runErr)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default: server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: server.port)")

	return cmd
}
