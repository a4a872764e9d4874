package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/trainload/catalog"
	"github.com/lucasjlepore/trainload/export"
	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/multisport"
	"github.com/lucasjlepore/trainload/pmc"
)

func newPMCCmd() *cobra.Command {
	var (
		stressCSV string
		outDir    string
		from      string
		to        string
	)

	cmd := &cobra.Command{
		Use:   "pmc",
		Short: "Compute a performance-management-chart series from a session stress ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stressCSV == "" || outDir == "" {
				return fmt.Errorf("--stress-csv and --out are required")
			}

			sessions, err := catalog.LoadSessionStressCSV(stressCSV)
			if err != nil {
				return fmt.Errorf("load session stress csv: %w", err)
			}

			factors := model.DefaultSportScaleFactors()
			daily := multisport.DailyTotals(sessions, factors)

			fromT, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fmt.Errorf("parse --from: %w", err)
			}
			toT, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fmt.Errorf("parse --to: %w", err)
			}

			series := pmc.Compute(fromT, toT, daily, pmc.DefaultConfig(), nil)

			outPath := filepath.Join(outDir, "pmc.parquet")
			if err := export.WritePMCParquet(outPath, series); err != nil {
				return fmt.Errorf("export pmc: %w", err)
			}
			fmt.Printf("pmc series: %s (%d days)\n", outPath, len(series))
			return nil
		},
	}

	cmd.Flags().StringVar(&stressCSV, "stress-csv", "", "path to a date,sport,tss ledger")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().StringVar(&from, "from", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "end date, YYYY-MM-DD")

	return cmd
}
