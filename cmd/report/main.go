package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"superstore-dashboard/internal/config"
	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/report"
	"superstore-dashboard/internal/services"
)

type reportFlags struct {
	file        string
	top         int
	strictDates bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:           "report",
		Short:         "Print the Superstore business report",
		Long:          "Load the Superstore transactions table and print KPIs, trends, breakdowns, top performers and insights.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cmd.Flags().Changed("file") {
				cfg.Dataset.Path = flags.file
			}
			if cmd.Flags().Changed("top") {
				cfg.Report.TopN = flags.top
			}
			if cmd.Flags().Changed("strict-dates") {
				cfg.Dataset.StrictDates = flags.strictDates
			}
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Transactions file, .csv or .xlsx (default from DATASET_PATH)")
	cmd.Flags().IntVarP(&flags.top, "top", "n", 0, "Number of top products and customers (default from REPORT_TOP_N)")
	cmd.Flags().BoolVar(&flags.strictDates, "strict-dates", false, "Fail on the first malformed date instead of rejecting the row")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger := observability.NewLoggerTo(stderr, cfg.Logger)

	ctx, cancel := context.WithTimeout(ctx, cfg.Dataset.LoadTimeout)
	defer cancel()

	src := loader.New(cfg.Dataset.Path, loader.WithLogger(logger))
	analytics := services.NewAnalytics(src, logger, services.Options{
		StrictDates: cfg.Dataset.StrictDates,
		TopN:        cfg.Report.TopN,
	})
	if err := analytics.Load(ctx); err != nil {
		return err
	}

	return report.Render(stdout, analytics.Dataset(), report.Options{TopN: cfg.Report.TopN})
}

// describe prints err for a person at a terminal, including the first lines
// of the file when no loader strategy could read it.
func describe(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)

	var loadErr *apperrors.DataLoadError
	if errors.As(err, &loadErr) && len(loadErr.Preview) > 0 {
		fmt.Fprintln(w, "first lines of the file:")
		for _, line := range loadErr.Preview {
			fmt.Fprintf(w, "  | %s\n", line)
		}
		fmt.Fprintf(w, "expected a header with the columns: %v\n", loader.RequiredColumns())
	}
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		describe(os.Stderr, err)
		os.Exit(1)
	}
}
