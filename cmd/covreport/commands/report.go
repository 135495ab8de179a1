package commands

import (
	"errors"

	"covreport/internal/coverage"
	"covreport/internal/report"
	"covreport/internal/stats"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	reportDataDir string
	reportOutput  string
	clumpingRatio float64
	lookbackDays  int
	openInBrowser bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the opportunity comparison report",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := cfg.DataDir
		if reportDataDir != "" {
			dataDir = reportDataDir
		}

		datasets, err := coverage.LoadDir(dataDir)
		if err != nil {
			return err
		}

		opts := report.Options{
			Series: stats.Options{
				ClumpingRatio: cfg.ClumpingRatio,
				LookbackDays:  cfg.LookbackDays,
			},
			OutputPath: cfg.OutputPath,
		}
		if cmd.Flags().Changed("clumping-ratio") {
			opts.Series.ClumpingRatio = clumpingRatio
		}
		if cmd.Flags().Changed("lookback-days") {
			opts.Series.LookbackDays = lookbackDays
		}
		if reportOutput != "" {
			opts.OutputPath = reportOutput
		}

		file, err := report.Generate(cmd.Context(), datasets, opts)
		if err != nil {
			if errors.Is(err, report.ErrNoDatasets) {
				log.Warn().Str("dir", dataDir).Msg("No coverage datasets found, nothing to report")
				return nil
			}
			return err
		}

		if openInBrowser {
			if err := browser.OpenFile(file); err != nil {
				log.Warn().Err(err).Str("file", file).Msg("Failed to open report in browser")
			}
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDataDir, "data", "", "dataset directory (overrides configuration)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file path (overrides configuration)")
	reportCmd.Flags().Float64Var(&clumpingRatio, "clumping-ratio", 10.0, "ratio threshold for identifying clumped DUs")
	reportCmd.Flags().IntVar(&lookbackDays, "lookback-days", 10, "trailing window in days for the unique FLW count")
	reportCmd.Flags().BoolVar(&openInBrowser, "open", false, "open the generated report in the default browser")
	rootCmd.AddCommand(reportCmd)
}
