package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

func TestWriteSamplesParquetHandlesMissingPower(t *testing.T) {
	dir := t.TempDir()
	power := scalar.NewFromInt(200)
	samples := []model.DataPoint{
		{T: 0, Power: &power},
		{T: 1},
	}
	path := filepath.Join(dir, "samples.parquet")
	require.NoError(t, WriteSamplesParquet(path, samples))
}

func TestWriteSamplesCSVHandlesMissingFields(t *testing.T) {
	dir := t.TempDir()
	samples := []model.DataPoint{{T: 5}}
	path := filepath.Join(dir, "samples.csv")
	require.NoError(t, WriteSamplesCSV(path, samples))
}

func TestWriteMMPParquetWritesCurve(t *testing.T) {
	dir := t.TempDir()
	curve := model.MMPCurve{60: scalar.NewFromInt(300), 5: scalar.NewFromInt(500)}
	path := filepath.Join(dir, "mmp.parquet")
	require.NoError(t, WriteMMPParquet(path, curve))
}

func TestWritePMCParquetAcceptsUnsortedSeries(t *testing.T) {
	dir := t.TempDir()
	series := model.PMCSeries{
		{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), CTL: scalar.NewFromInt(10), ATL: scalar.NewFromInt(5), TSB: scalar.NewFromInt(5)},
		{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), CTL: scalar.NewFromInt(9), ATL: scalar.NewFromInt(4), TSB: scalar.NewFromInt(5)},
	}
	path := filepath.Join(dir, "pmc.parquet")
	require.NoError(t, WritePMCParquet(path, series))
}
