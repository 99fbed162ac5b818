package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gridstat/pkg/gridio"
	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
)

const stdinPath = "-"

type computeFunc func(context.Context, *gridio.Request) (*gridio.Result, error)

func newStatCommand(opts *GlobalOptions) *cobra.Command {
	var statistic string

	var quantile float64

	cmd := &cobra.Command{
		Use:   "stat [file|-]",
		Short: "Compute a statistic over a sequence or per grid row",
		Long: `Compute a statistic over a sequence, or per row over a grid.

Input is a JSON or YAML document: a request object with "values" or "grid",
or a bare array (1-D sequence, 2-D grid). Files ending in .lz4 are
decompressed. Missing values are null, "NaN", "Inf" (JSON) or .nan/.inf (YAML).

Examples:
  gridstat stat --statistic mean field.json
  gridstat stat --statistic quantile --quantile 0.9 field.yaml.lz4
  echo '[1, null, 3]' | gridstat stat -s max`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, opts, args, func(e *env) computeFunc { return e.svc.Statistic },
				func(req *gridio.Request) {
					if cmd.Flags().Changed("statistic") {
						req.Statistic = statistic
					}

					if cmd.Flags().Changed("quantile") {
						req.Quantile = &quantile
					}
				})
		},
	}

	cmd.Flags().StringVarP(&statistic, "statistic", "s", "", "statistic name (default: compute.default_statistic)")
	cmd.Flags().Float64VarP(&quantile, "quantile", "q", 0, "quantile fraction in [0, 1] for the quantile statistic")

	return cmd
}

func newQuantileCommand(opts *GlobalOptions) *cobra.Command {
	var quantile float64

	cmd := &cobra.Command{
		Use:   "quantile [file|-]",
		Short: "Compute a quantile over a sequence or per grid row",
		Long: `Compute a quantile with linear interpolation between the two nearest
valid values. Rows without valid values yield NaN.

Examples:
  gridstat quantile --quantile 0.1 ensemble.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, opts, args, func(e *env) computeFunc { return e.svc.Quantile },
				func(req *gridio.Request) {
					if cmd.Flags().Changed("quantile") {
						req.Quantile = &quantile
					}
				})
		},
	}

	cmd.Flags().Float64VarP(&quantile, "quantile", "q", 0, "quantile fraction in [0, 1] (default: compute.default_quantile)")

	return cmd
}

func newMissingCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "missing [file|-]",
		Short: "Count missing values in a grid or sequence",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, opts, args, func(e *env) computeFunc { return e.svc.Missing }, nil)
		},
	}
}

func runCompute(
	cmd *cobra.Command,
	opts *GlobalOptions,
	args []string,
	pick func(*env) computeFunc,
	override func(*gridio.Request),
) error {
	e, err := opts.setup(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer e.close(cmd.Context())

	path := stdinPath
	if len(args) > 0 {
		path = args[0]
	}

	req, err := readRequest(cmd, path, opts.InputFormat)
	if err != nil {
		return err
	}

	if override != nil {
		override(req)
	}

	res, err := pick(e)(cmd.Context(), req)
	if err != nil {
		return err
	}

	return e.renderer.WriteResult(cmd.OutOrStdout(), e.cfg.Output.Format, res)
}

func readRequest(cmd *cobra.Command, path, formatName string) (*gridio.Request, error) {
	var format gridio.Format

	if formatName != "" {
		parsed, err := gridio.ParseFormat(formatName)
		if err != nil {
			return nil, err
		}

		format = parsed
	}

	if path != stdinPath {
		req, err := gridio.ReadFile(path, format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		return req, nil
	}

	req, err := gridio.Decode(cmd.InOrStdin(), format)
	if err != nil {
		return nil, fmt.Errorf("stdin: %w", err)
	}

	return req, nil
}
