// Package multisport aggregates training stress across sports, applying
// per-sport TSS scale factors before feeding combined daily stress into the
// PMC. Grounded on original_source/src/multisport.rs (the distillation
// dropped this module; the original's per-sport scaling table is
// supplemented here) and wired through model.SportScaleFactors.
package multisport

import (
	"time"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

// SessionStress is one workout's raw TSS, tagged by sport and day.
type SessionStress struct {
	Day   time.Time
	Sport model.Sport
	TSS   scalar.D
}

// ScaledStress applies the sport's scale factor to raw TSS.
func ScaledStress(s SessionStress, factors model.SportScaleFactors) scalar.D {
	return s.TSS.Mul(factors.For(s.Sport))
}

// DailyTotals sums scaled stress per day across all sports, for feeding into
// pmc.Compute as its daily stress map.
func DailyTotals(sessions []SessionStress, factors model.SportScaleFactors) map[time.Time]scalar.D {
	out := make(map[time.Time]scalar.D)
	for _, s := range sessions {
		day := truncateDay(s.Day)
		out[day] = out[day].Add(ScaledStress(s, factors))
	}
	return out
}

// BySport sums raw (unscaled) TSS per sport, for reporting each sport's
// contribution independently of the combined PMC feed.
func BySport(sessions []SessionStress) map[model.Sport]scalar.D {
	out := make(map[model.Sport]scalar.D)
	for _, s := range sessions {
		out[s.Sport] = out[s.Sport].Add(s.TSS)
	}
	return out
}

// WeeklyTotals sums scaled stress per ISO week (keyed by the Monday of that
// week), across sports.
func WeeklyTotals(sessions []SessionStress, factors model.SportScaleFactors) map[time.Time]scalar.D {
	out := make(map[time.Time]scalar.D)
	for _, s := range sessions {
		out[weekStart(s.Day)] = out[weekStart(s.Day)].Add(ScaledStress(s, factors))
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekStart(t time.Time) time.Time {
	day := truncateDay(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}
