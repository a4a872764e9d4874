// Package pmc implements the performance-management chart: a daily series
// of exponentially-weighted chronic (CTL) and acute (ATL) training load with
// the training-stress-balance (TSB) form derived from them. Grounded on
// original_source/src/pmc.rs's PmcMetrics/PmcConfig; the EWMA recurrence
// itself is plain arithmetic over scalar.D — no example repo or ecosystem
// library offers this exact seeded-EWMA-with-yesterday-indexed-balance
// primitive, so a hand implementation is the correct scope.
package pmc

import (
	"sort"
	"time"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

// Config carries the tunable constants spec §4.H fixes as defaults but the
// original Rust implementation exposes as configuration.
type Config struct {
	CTLTimeConstant   int // default 42
	ATLTimeConstant   int // default 7
	MinDataDays       int // default 14, informational only
	ATLSpikeThreshold scalar.D
	RampRateDays      int // window for CTLRampRate, 0 disables it
}

// DefaultConfig returns spec §4.H's defaults.
func DefaultConfig() Config {
	return Config{
		CTLTimeConstant:   42,
		ATLTimeConstant:   7,
		MinDataDays:       14,
		ATLSpikeThreshold: scalar.NewFromInt(10),
		RampRateDays:      7,
	}
}

// Seed carries caller-supplied CTL/ATL values for the day before the first
// day in the requested range, for resuming a historical computation.
type Seed struct {
	CTL, ATL scalar.D
}

// DailyStress maps a calendar day (truncated to midnight UTC) to the sum of
// that day's session TSS contributions (already multi-sport scaled).
type DailyStress map[time.Time]scalar.D

// Compute builds a chronologically sorted, gapless model.PMCSeries across
// [from, to] inclusive. Days with no entry in stress default to zero. If
// seed is nil, CTL/ATL for the day before from are both zero, per spec
// §4.H's seeding default.
func Compute(from, to time.Time, stress DailyStress, cfg Config, seed *Seed) model.PMCSeries {
	from = truncateDay(from)
	to = truncateDay(to)

	prevCTL, prevATL := scalar.Zero, scalar.Zero
	if seed != nil {
		prevCTL, prevATL = seed.CTL, seed.ATL
	}

	ctlTau := scalar.NewFromInt(int64(cfg.CTLTimeConstant))
	atlTau := scalar.NewFromInt(int64(cfg.ATLTimeConstant))

	var series model.PMCSeries
	var history []scalar.D // CTL history for ramp-rate lookback

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dailyStress := stress[d]

		tsb := prevCTL.Sub(prevATL)

		ctl := ewmaStep(prevCTL, dailyStress, ctlTau)
		atl := ewmaStep(prevATL, dailyStress, atlTau)

		entry := model.PMCDay{
			Date:        d,
			DailyStress: dailyStress,
			CTL:         ctl,
			ATL:         atl,
			TSB:         tsb,
		}

		history = append(history, ctl)
		if cfg.RampRateDays > 0 && len(history) > cfg.RampRateDays {
			prior := history[len(history)-1-cfg.RampRateDays]
			rate := ctl.Sub(prior)
			entry.CTLRampRate = &rate
		}
		if !cfg.ATLSpikeThreshold.IsZero() {
			delta := atl.Sub(prevATL)
			if delta.GreaterThan(cfg.ATLSpikeThreshold) {
				entry.ATLSpike = true
			}
		}

		series = append(series, entry)
		prevCTL, prevATL = ctl, atl
	}

	return series
}

// ewmaStep computes next = prev + (stress - prev) / tau, entirely in D.
func ewmaStep(prev, stress, tau scalar.D) scalar.D {
	delta := stress.Sub(prev)
	step, ok := delta.Div(tau)
	if !ok {
		return prev
	}
	return prev.Add(step).RoundDefault()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AggregateDailyStress sums each workout's (already multi-sport-scaled) TSS
// into its calendar day, per spec §4.H's "daily_stress[d] = sum of TSS of
// sessions on day d".
func AggregateDailyStress(workoutDates []time.Time, scaledTSS []scalar.D) DailyStress {
	out := make(DailyStress)
	for i, d := range workoutDates {
		day := truncateDay(d)
		out[day] = out[day].Add(scaledTSS[i])
	}
	return out
}

// SortedDays returns the series' dates in ascending order (it is already
// gapless and sorted by construction; this is a convenience accessor for
// callers holding a series from elsewhere).
func SortedDays(series model.PMCSeries) []time.Time {
	days := make([]time.Time, len(series))
	for i, e := range series {
		days[i] = e.Date
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
