// Package export writes canonical samples, MMP curves, and PMC series to
// parquet and CSV, generalizing the teacher's writeCanonicalParquet /
// writeCanonicalCSV in pipeline/run.go (and its companion row struct in
// pipeline/parquet_native.go) from a single ad hoc sample shape to the
// three row shapes this system produces.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/trainload/model"
)

type sampleRow struct {
	TimestampS   int32   `parquet:"name=timestamp_s, type=INT32, convertedtype=UINT_32"`
	PowerW       float64 `parquet:"name=power_w, type=DOUBLE"`
	HeartRateBPM float64 `parquet:"name=heart_rate_bpm, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	ElevationM   float64 `parquet:"name=elevation_m, type=DOUBLE"`
	HasPower     bool    `parquet:"name=has_power, type=BOOLEAN"`
	HasHeartRate bool    `parquet:"name=has_heart_rate, type=BOOLEAN"`
}

func toSampleRow(d model.DataPoint) sampleRow {
	row := sampleRow{TimestampS: int32(d.T)}
	if d.Power != nil {
		row.PowerW = d.Power.Float64()
		row.HasPower = true
	}
	if d.HeartRate != nil {
		row.HeartRateBPM = d.HeartRate.Float64()
		row.HasHeartRate = true
	}
	if d.Cadence != nil {
		row.CadenceRPM = d.Cadence.Float64()
	}
	if d.Speed != nil {
		row.SpeedMPS = d.Speed.Float64()
	}
	if d.Elevation != nil {
		row.ElevationM = d.Elevation.Float64()
	}
	return row
}

// WriteSamplesParquet writes canonical samples to a parquet file at path,
// mirroring the teacher's writeCanonicalParquet idiom (local file writer +
// SNAPPY compression, 4 parallel write goroutines).
func WriteSamplesParquet(path string, samples []model.DataPoint) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("export: open parquet file: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(sampleRow), 4)
	if err != nil {
		return fmt.Errorf("export: new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := toSampleRow(s)
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("export: write sample row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("export: flush parquet writer: %w", err)
	}
	return fw.Close()
}

// WriteSamplesCSV writes canonical samples to a CSV file, the teacher's CSV
// fallback path generalized to the new sample shape.
func WriteSamplesCSV(path string, samples []model.DataPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"timestamp_s", "power_w", "heart_rate_bpm", "cadence_rpm", "speed_mps", "elevation_m"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := toSampleRow(s)
		record := []string{
			strconv.FormatUint(uint64(row.TimestampS), 10),
			formatOptional(row.HasPower, row.PowerW),
			formatOptional(row.HasHeartRate, row.HeartRateBPM),
			strconv.FormatFloat(row.CadenceRPM, 'f', -1, 64),
			strconv.FormatFloat(row.SpeedMPS, 'f', -1, 64),
			strconv.FormatFloat(row.ElevationM, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatOptional(has bool, v float64) string {
	if !has {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type mmpRow struct {
	DurationS int64   `parquet:"name=duration_s, type=INT64"`
	PowerW    float64 `parquet:"name=power_w, type=DOUBLE"`
}

// WriteMMPParquet writes a mean-maximal-power curve, one row per duration,
// sorted ascending by duration.
func WriteMMPParquet(path string, curve model.MMPCurve) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("export: open parquet file: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(mmpRow), 4)
	if err != nil {
		return fmt.Errorf("export: new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	durations := make([]int, 0, len(curve))
	for d := range curve {
		durations = append(durations, d)
	}
	sort.Ints(durations)
	for _, d := range durations {
		row := mmpRow{DurationS: int64(d), PowerW: curve[d].Float64()}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("export: write mmp row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("export: flush parquet writer: %w", err)
	}
	return fw.Close()
}

type pmcRow struct {
	DateISO string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	CTL     float64 `parquet:"name=ctl, type=DOUBLE"`
	ATL     float64 `parquet:"name=atl, type=DOUBLE"`
	TSB     float64 `parquet:"name=tsb, type=DOUBLE"`
}

// WritePMCParquet writes a PMC series sorted ascending by date.
func WritePMCParquet(path string, series model.PMCSeries) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("export: open parquet file: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(pmcRow), 4)
	if err != nil {
		return fmt.Errorf("export: new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	days := make([]string, 0, len(series))
	byDay := make(map[string]model.PMCDay, len(series))
	for _, day := range series {
		key := day.Date.Format("2006-01-02")
		days = append(days, key)
		byDay[key] = day
	}
	sort.Strings(days)
	for _, key := range days {
		day := byDay[key]
		row := pmcRow{DateISO: key, CTL: day.CTL.Float64(), ATL: day.ATL.Float64(), TSB: day.TSB.Float64()}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("export: write pmc row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("export: flush parquet writer: %w", err)
	}
	return fw.Close()
}
