package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gridstat/pkg/clock"
	"github.com/Sumatoshi-tech/gridstat/pkg/render"
	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
	"github.com/Sumatoshi-tech/gridstat/pkg/version"
)

func newStatisticsCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "statistics",
		Short: "List the statistic names accepted by stat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			list := stats.Statistics()

			names := make([]string, len(list))
			for i, stat := range list {
				names[i] = stat.String()
			}

			renderer := render.New(cfg.Output.Color && !color.NoColor)

			return render.WriteValue(cmd.OutOrStdout(), cfg.Output.Format, names, renderer.Statistics(list))
		},
	}
}

type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit"  yaml:"commit"`
	Date    string `json:"date"    yaml:"date"`
}

func newVersionCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := outputFormat(cmd, opts)
			info := versionInfo{Version: version.Version, Commit: version.Commit, Date: version.Date}

			return render.WriteValue(cmd.OutOrStdout(), format, info, "gridstat "+version.String()+"\n")
		},
	}
}

type clockInfo struct {
	Now float64 `json:"now" yaml:"now"`
}

func newClockCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clock",
		Short: "Print the wall-clock time in seconds since the Unix epoch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := clock.Now()

			return render.WriteValue(cmd.OutOrStdout(), outputFormat(cmd, opts), clockInfo{Now: now}, fmt.Sprintf("%.6f\n", now))
		},
	}
}

// outputFormat returns the --output flag for commands that do not need the
// config file; it defaults to table.
func outputFormat(cmd *cobra.Command, opts *GlobalOptions) string {
	if cmd.Flags().Changed("output") {
		return strings.ToLower(opts.Output)
	}

	return render.FormatTable
}
