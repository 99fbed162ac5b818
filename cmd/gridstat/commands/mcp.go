package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gridstat/pkg/mcp"
	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
)

func newMCPCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the statistics kernel as tools:
  - gridstat_statistic: mean, min, max, median, quantile, std or sum
  - gridstat_quantile: interpolated quantile of a sequence or grid rows
  - gridstat_missing: count of missing values`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(cmd, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer e.close(cmd.Context())

			srv := mcp.NewServer(mcp.ServerDeps{
				Service: e.svc,
				Logger:  e.providers.Logger,
				Metrics: e.red,
				Tracer:  e.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
