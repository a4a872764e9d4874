package multisport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

func TestScaledStressAppliesSportFactor(t *testing.T) {
	factors := model.DefaultSportScaleFactors()
	s := SessionStress{Day: time.Now(), Sport: model.Running, TSS: scalar.NewFromInt(100)}
	scaled := ScaledStress(s, factors)
	require.Equal(t, "130", scaled.String())
}

func TestDailyTotalsCombinesAcrossSports(t *testing.T) {
	factors := model.DefaultSportScaleFactors()
	day := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	sessions := []SessionStress{
		{Day: day, Sport: model.Cycling, TSS: scalar.NewFromInt(60)},
		{Day: day.Add(4 * time.Hour), Sport: model.Running, TSS: scalar.NewFromInt(50)},
	}
	totals := DailyTotals(sessions, factors)
	require.Len(t, totals, 1)
	for _, v := range totals {
		// 60*1.0 + 50*1.3 = 125
		require.Equal(t, "125", v.String())
	}
}

func TestBySportKeepsRawUnscaledTotals(t *testing.T) {
	sessions := []SessionStress{
		{Day: time.Now(), Sport: model.Running, TSS: scalar.NewFromInt(50)},
		{Day: time.Now(), Sport: model.Running, TSS: scalar.NewFromInt(30)},
	}
	totals := BySport(sessions)
	require.Equal(t, "80", totals[model.Running].String())
}

func TestWeeklyTotalsBucketsByMonday(t *testing.T) {
	factors := model.DefaultSportScaleFactors()
	monday := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	wednesday := monday.AddDate(0, 0, 2)
	sessions := []SessionStress{
		{Day: monday, Sport: model.Cycling, TSS: scalar.NewFromInt(40)},
		{Day: wednesday, Sport: model.Cycling, TSS: scalar.NewFromInt(60)},
	}
	totals := WeeklyTotals(sessions, factors)
	require.Len(t, totals, 1)
	for wk, v := range totals {
		require.Equal(t, time.Monday, wk.Weekday())
		require.Equal(t, "100", v.String())
	}
}
