package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/complykit/screendiff"
	"github.com/complykit/screendiff/internal/config"
	"github.com/complykit/screendiff/internal/output"
	"github.com/complykit/screendiff/internal/server"
	"github.com/complykit/screendiff/internal/spreadsheet"
	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

// NewRunCommand screens a workbook of names and exports the comparison.
func (a *App) NewRunCommand() *cobra.Command {
	var (
		input       string
		outputPath  string
		policyName  string
		sourceNames []string
		viewNames   []string
		sequential  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Screen a workbook of names and export the comparison",
		Long: `Run reads names from the first column of the input workbook, screens
each against the configured sources, reconciles the matches, and writes
the comparison workbook.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := parseSourceIDs(sourceNames)
			if err != nil {
				return err
			}
			policy, err := reconcile.ParsePolicy(policyName)
			if err != nil {
				return err
			}
			views, err := spreadsheet.ParseViews(viewNames)
			if err != nil {
				return err
			}

			var extra []screendiff.Option
			if sequential {
				extra = append(extra, screendiff.WithConcurrency(false))
			}
			screener, err := a.NewScreener(ids, policy, extra...)
			if err != nil {
				return err
			}

			names, err := spreadsheet.ReadNames(input)
			if err != nil {
				return err
			}
			a.logger.Info().
				Int("names", len(names)).
				Str("input", input).
				Msg("starting screening run")

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.RunTimeout)
			defer cancel()

			set, err := screener.Run(ctx, names)
			if err != nil {
				return err
			}
			entries, err := screener.Entries(set)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return errors.ErrNoResults
			}

			if err := spreadsheet.NewWriter().Write(outputPath, entries, views); err != nil {
				return err
			}
			a.logger.Info().Str("output", outputPath).Msg("comparison workbook written")

			summary := output.Summarize(screener.SourceIDs(), set.List())
			return a.render(summary, output.SummaryToTableData(summary))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input .xlsx workbook with names in the first column")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "screendiff-results.xlsx", "output .xlsx workbook")
	cmd.Flags().StringVar(&policyName, "policy", "", "commonality policy: any-two or primary-pair")
	cmd.Flags().StringSliceVar(&sourceNames, "sources", nil, "sources to screen against, in priority order (default: all configured)")
	cmd.Flags().StringSliceVar(&viewNames, "views", nil, "workbook sheets: all, exclusive, common (default: all)")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "query sources one at a time instead of concurrently")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// NewServeCommand starts the HTTP screening service.
func (a *App) NewServeCommand() *cobra.Command {
	var (
		addr        string
		policyName  string
		sourceNames []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve screening runs over HTTP",
		Long: `Serve starts an HTTP server that accepts workbook uploads, screens
the names in them, and exposes the results as JSON and as a workbook
download.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := parseSourceIDs(sourceNames)
			if err != nil {
				return err
			}
			policy, err := reconcile.ParsePolicy(policyName)
			if err != nil {
				return err
			}

			screener, err := a.NewScreener(ids, policy)
			if err != nil {
				return err
			}

			return server.New(screener, addr, a.logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&policyName, "policy", "", "commonality policy: any-two or primary-pair")
	cmd.Flags().StringSliceVar(&sourceNames, "sources", nil, "sources to screen against, in priority order (default: all configured)")

	return cmd
}

// NewSourcesCommand lists the configured screening sources.
func (a *App) NewSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured screening sources",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.config.SourcesFile)
			if err != nil {
				return err
			}

			rows := output.SourceRows(cfg)
			return a.render(rows, output.SourcesToTableData(rows))
		},
	}
}

// NewVersionCommand prints version information.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "screendiff %s (commit %s, built %s)\n",
				a.version, a.commit, a.date)
			return nil
		},
	}
}

// render writes data to stdout in the configured format: tableData when
// a table is wanted, the raw data for JSON and YAML.
func (a *App) render(data any, tableData output.Data) error {
	format, err := output.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}
	format = output.DetectFormat(string(format))

	if format == output.FormatTable {
		return output.NewFormatter(format).Format(os.Stdout, tableData)
	}
	return output.NewFormatter(format).Format(os.Stdout, data)
}

// parseSourceIDs validates source names from a flag.
func parseSourceIDs(names []string) ([]screening.SourceID, error) {
	ids := make([]screening.SourceID, 0, len(names))
	for _, n := range names {
		id := screening.SourceID(n)
		if !id.IsValid() {
			return nil, errors.NewValidationError("sources", n, "unknown source")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
