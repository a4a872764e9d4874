// Package validate applies per-sport range checks (flagging out-of-range
// readings) and a monotonicity check on t to a decoded sample stream before
// the metric engines consume it. Gaps in t are not detected or reported.
// Range tables are plain Go data: no example
// repository (including the Rust original, which hand-rolls its own
// validation_rules module) uses a rules-engine library for this, so a small
// sport-keyed table is the correct scope.
package validate

import (
	"fmt"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
	"github.com/lucasjlepore/trainload/trainerr"
)

// Range is an inclusive [Min, Max] bound for one sensor reading.
type Range struct {
	Min, Max float64
}

func (r Range) contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Table holds the range checks for one sport.
type Table struct {
	HeartRate Range
	Power     Range
	Cadence   Range
	Speed     Range
	Elevation Range
}

// DefaultTables returns the spec §4.F range tables, keyed by sport.
func DefaultTables() map[model.Sport]Table {
	hr := Range{30, 220}
	speed := Range{0, 25}
	elevation := Range{-500, 9000}
	return map[model.Sport]Table{
		model.Cycling:       {HeartRate: hr, Power: Range{0, 2000}, Cadence: Range{0, 200}, Speed: speed, Elevation: elevation},
		model.Running:       {HeartRate: hr, Power: Range{0, 500}, Cadence: Range{0, 300}, Speed: speed, Elevation: elevation},
		model.Swimming:      {HeartRate: hr, Power: Range{0, 500}, Cadence: Range{0, 300}, Speed: speed, Elevation: elevation},
		model.Rowing:        {HeartRate: hr, Power: Range{0, 2000}, Cadence: Range{0, 200}, Speed: speed, Elevation: elevation},
		model.CrossTraining: {HeartRate: hr, Power: Range{0, 2000}, Cadence: Range{0, 300}, Speed: speed, Elevation: elevation},
		model.Triathlon:     {HeartRate: hr, Power: Range{0, 2000}, Cadence: Range{0, 300}, Speed: speed, Elevation: elevation},
	}
}

// Mode selects strict vs. default (flagging) behavior for out-of-range
// samples.
type Mode int

const (
	ModeFlag Mode = iota
	ModeStrict
)

// Warning describes one range violation.
type Warning struct {
	SampleIndex int
	Field       string
	Value       float64
	Range       Range
}

func (w Warning) String() string {
	return fmt.Sprintf("sample %d: %s=%v outside [%v,%v]", w.SampleIndex, w.Field, w.Value, w.Range.Min, w.Range.Max)
}

// Result carries the validation outcome.
type Result struct {
	Warnings []Warning
	Removed  []int // sample indices removed, only populated in ModeStrict
}

// Validate checks monotonicity of t (a violation is always fatal, never
// flag-only) and range bounds for the given sport and mode. In ModeFlag,
// out-of-range samples are kept and reported as warnings. In ModeStrict,
// they are removed from w.Samples, listed in Result.Removed, and still
// reported as warnings. Validate returns no error for range violations in
// either mode; callers that want a hard failure in strict mode treat a
// non-empty Result.Removed as one.
func Validate(w *model.Workout, tables map[model.Sport]Table, mode Mode) (*Result, error) {
	table, ok := tables[w.Sport]
	if !ok {
		return nil, trainerr.New(trainerr.Config, "no validation table for sport %s", w.Sport)
	}

	var lastT uint32
	haveLast := false
	res := &Result{}
	kept := make([]model.DataPoint, 0, len(w.Samples))

	for i, s := range w.Samples {
		if haveLast && s.T <= lastT {
			return nil, trainerr.New(trainerr.Range, "out-of-order sample at index %d: t=%d <= previous t=%d", i, s.T, lastT).WithSample(i)
		}
		lastT = s.T
		haveLast = true

		violated := false
		if s.HeartRate != nil {
			if v := s.HeartRate.Float64(); !table.HeartRate.contains(v) {
				res.Warnings = append(res.Warnings, Warning{i, "heart_rate", v, table.HeartRate})
				violated = true
			}
		}
		if s.Power != nil {
			if v := s.Power.Float64(); !table.Power.contains(v) {
				res.Warnings = append(res.Warnings, Warning{i, "power", v, table.Power})
				violated = true
			}
		}
		if s.Cadence != nil {
			if v := s.Cadence.Float64(); !table.Cadence.contains(v) {
				res.Warnings = append(res.Warnings, Warning{i, "cadence", v, table.Cadence})
				violated = true
			}
		}
		if s.Speed != nil {
			if v := s.Speed.Float64(); !table.Speed.contains(v) {
				res.Warnings = append(res.Warnings, Warning{i, "speed", v, table.Speed})
				violated = true
			}
		}
		if s.Elevation != nil {
			if v := s.Elevation.Float64(); !table.Elevation.contains(v) {
				res.Warnings = append(res.Warnings, Warning{i, "elevation", v, table.Elevation})
				violated = true
			}
		}

		if violated && mode == ModeStrict {
			res.Removed = append(res.Removed, i)
			continue
		}
		kept = append(kept, s)
	}

	if mode == ModeStrict {
		w.Samples = kept
	}
	return res, nil
}

// Coverage returns the fraction of samples carrying a non-nil reading for
// the given extractor, used by §4.G's fallback-hierarchy coverage gates.
func Coverage(samples []model.DataPoint, has func(model.DataPoint) bool) scalar.D {
	if len(samples) == 0 {
		return scalar.Zero
	}
	var n int
	for _, s := range samples {
		if has(s) {
			n++
		}
	}
	ratio, ok := scalar.NewFromInt(int64(n)).Div(scalar.NewFromInt(int64(len(samples))))
	if !ok {
		return scalar.Zero
	}
	return ratio
}
