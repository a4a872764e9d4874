// Package mmp computes the mean-maximal-power curve: the best rolling
// average power over each requested duration, aggregated across sessions by
// taking the max. Grounded on the teacher's bestRollingPower() helper in
// analyzer.go (same sliding-window-max idea, generalized from a single
// best-20-minute lookup to the full standard duration set).
package mmp

import (
	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

// BestAverage returns the maximum rolling average of power over any
// window-sample span in samples, or false if samples is shorter than window.
func BestAverage(samples []model.DataPoint, window int) (scalar.D, bool) {
	if window <= 0 || len(samples) < window {
		return scalar.Zero, false
	}
	powers := make([]float64, len(samples))
	for i, s := range samples {
		if s.Power != nil {
			powers[i] = s.Power.Float64()
		}
	}

	var windowSum float64
	for i := 0; i < window; i++ {
		windowSum += powers[i]
	}
	best := windowSum / float64(window)
	for i := window; i < len(powers); i++ {
		windowSum += powers[i] - powers[i-window]
		avg := windowSum / float64(window)
		if avg > best {
			best = avg
		}
	}
	return scalar.NewFromFloat(best).RoundDefault(), true
}

// Curve computes MMP[d] for every duration in durations (defaulting to
// model.StandardMMPDurations when nil) from a single session's samples.
func Curve(samples []model.DataPoint, durations []int) model.MMPCurve {
	if durations == nil {
		durations = model.StandardMMPDurations
	}
	out := make(model.MMPCurve, len(durations))
	for _, d := range durations {
		if best, ok := BestAverage(samples, d); ok {
			out[d] = best
		}
	}
	return out
}

// Aggregate combines MMP curves from multiple sessions by taking the max
// per duration across all contributing curves, per spec §4.I.
func Aggregate(curves []model.MMPCurve) model.MMPCurve {
	out := make(model.MMPCurve)
	for _, c := range curves {
		for d, v := range c {
			if existing, ok := out[d]; !ok || v.GreaterThan(existing) {
				out[d] = v
			}
		}
	}
	return out
}
