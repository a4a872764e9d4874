package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/trainload/decode"
	"github.com/lucasjlepore/trainload/export"
	"github.com/lucasjlepore/trainload/formula"
	"github.com/lucasjlepore/trainload/mmp"
	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/power"
	"github.com/lucasjlepore/trainload/quirks"
	"github.com/lucasjlepore/trainload/scalar"
	"github.com/lucasjlepore/trainload/validate"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		sessionPath string
		outDir      string
		ftp         float64
		sportName   string
		format      string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Decode a session file and compute its training-load metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionPath == "" || outDir == "" {
				return fmt.Errorf("--session and --out are required")
			}

			log.WithField("path", sessionPath).Info("decoding session")
			data, err := os.ReadFile(sessionPath)
			if err != nil {
				return fmt.Errorf("read session file: %w", err)
			}

			records, report, err := decode.Decode(data, decode.Options{Recovery: !strict})
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if report.Degraded {
				log.Warn("decode degraded: recovered from a CRC mismatch")
			}

			sport := model.Cycling
			switch sportName {
			case "running":
				sport = model.Running
			case "swimming":
				sport = model.Swimming
			case "rowing":
				sport = model.Rowing
			}

			w := buildWorkout(records, sport)
			w.SourceDevice = deviceFromRecords(records)

			quirkRegistry, err := quirks.NewRegistry(nil)
			if err != nil {
				return fmt.Errorf("build quirk registry: %w", err)
			}
			quirkRegistry.Apply(w)

			mode := validate.ModeFlag
			if strict {
				mode = validate.ModeStrict
			}
			vres, err := validate.Validate(w, validate.DefaultTables(), mode)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			if strict && len(vres.Removed) > 0 {
				return fmt.Errorf("validate: %d samples out of range", len(vres.Removed))
			}

			var ftpD *scalar.D
			if ftp > 0 {
				v := scalar.NewFromFloat(ftp)
				ftpD = &v
			}
			result := power.Compute(w.Samples, w.DurationS, sport, power.Thresholds{FTP: ftpD}, &power.Formula{Eval: formula.NewEvaluator()})
			log.WithFields(map[string]any{
				"method": result.Method.String(),
				"tss":    result.TSS.String(),
			}).Info("computed training stress")

			curve := mmp.Curve(w.Samples, nil)

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("make output dir: %w", err)
			}

			samplesPath := filepath.Join(outDir, "samples."+format)
			if format == "csv" {
				err = export.WriteSamplesCSV(samplesPath, w.Samples)
			} else {
				err = export.WriteSamplesParquet(samplesPath, w.Samples)
			}
			if err != nil {
				return fmt.Errorf("export samples: %w", err)
			}

			mmpPath := filepath.Join(outDir, "mmp.parquet")
			if err := export.WriteMMPParquet(mmpPath, curve); err != nil {
				return fmt.Errorf("export mmp: %w", err)
			}

			fmt.Printf("training stress score: %s (method=%s)\n", result.TSS.String(), result.Method.String())
			fmt.Printf("samples:  %s\n", samplesPath)
			fmt.Printf("mmp:      %s\n", mmpPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionPath, "session", "", "path to the input session file")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().Float64Var(&ftp, "ftp", 0, "functional threshold power override, in watts")
	cmd.Flags().StringVar(&sportName, "sport", "cycling", "sport: cycling|running|swimming|rowing")
	cmd.Flags().StringVar(&format, "format", "parquet", "sample export format: parquet|csv")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on CRC mismatch and range violations instead of flagging")

	return cmd
}
