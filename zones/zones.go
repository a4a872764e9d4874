// Package zones maps threshold values to zone boundary tables and attributes
// time and stress to zones. Grounded on the teacher's buildPowerZones() in
// analyzer.go (7-zone Coggan table), extended to HR/pace/swim zones and
// IF^2-weighted TSS-in-zone per original_source/src/zones.rs.
package zones

import (
	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

// Zone is one boundary: [Low, High) in the metric's units, High of 0 with
// Top=true meaning [Low, +Inf).
type Zone struct {
	Name string
	Low  scalar.D
	High scalar.D
	Top  bool
}

// PowerZoneBoundaries are the 7-zone Coggan multipliers of FTP.
var PowerZoneBoundaries = []struct {
	Name       string
	Multiplier string
}{
	{"Z1 Active Recovery", "0"},
	{"Z2 Endurance", "0.55"},
	{"Z3 Tempo", "0.75"},
	{"Z4 Threshold", "0.90"},
	{"Z5 VO2max", "1.05"},
	{"Z6 Anaerobic", "1.20"},
	{"Z7 Neuromuscular", "1.50"},
}

// PowerZones builds the 7-zone Coggan table from FTP.
func PowerZones(ftp scalar.D) []Zone {
	return buildZones(ftp, []string{"0", "0.55", "0.75", "0.90", "1.05", "1.20", "1.50"},
		[]string{"Z1 Active Recovery", "Z2 Endurance", "Z3 Tempo", "Z4 Threshold", "Z5 VO2max", "Z6 Anaerobic", "Z7 Neuromuscular"})
}

// hrMultipliers are the 6-zone multipliers of LTHR.
var hrMultipliers = []string{"0", "0.81", "0.89", "0.93", "1.00", "1.03"}
var hrNames = []string{"Z1 Recovery", "Z2 Aerobic", "Z3 Tempo", "Z4 Threshold", "Z5a VO2max", "Z5b Anaerobic"}

// HRZones builds the 6-zone table from LTHR.
func HRZones(lthr scalar.D) []Zone {
	return buildZones(lthr, hrMultipliers, hrNames)
}

// PaceZones builds a 5-zone running pace table from threshold pace
// (seconds per distance unit; faster paces are numerically smaller, so
// multipliers here scale down from threshold, not up, compared to power).
func PaceZones(thresholdPace scalar.D) []Zone {
	return buildZones(thresholdPace, []string{"0", "0.80", "0.90", "0.97", "1.03"},
		[]string{"Z1 Easy", "Z2 Steady", "Z3 Tempo", "Z4 Threshold", "Z5 VO2max/faster"})
}

// SwimPaceZones builds a 3-zone swim table from critical swim speed.
func SwimPaceZones(css scalar.D) []Zone {
	return buildZones(css, []string{"0", "0.90", "1.00"}, []string{"Z1 Easy", "Z2 Steady", "Z3 Threshold+"})
}

func buildZones(threshold scalar.D, multipliers, names []string) []Zone {
	zones := make([]Zone, len(multipliers))
	for i, m := range multipliers {
		low := threshold.Mul(scalar.MustParse(m))
		var high scalar.D
		top := i == len(multipliers)-1
		if !top {
			high = threshold.Mul(scalar.MustParse(multipliers[i+1]))
		}
		zones[i] = Zone{Name: names[i], Low: low, High: high, Top: top}
	}
	return zones
}

// Contains reports whether v falls in the zone's half-open interval.
func (z Zone) Contains(v scalar.D) bool {
	if v.LessThan(z.Low) {
		return false
	}
	if z.Top {
		return true
	}
	return v.LessThan(z.High)
}

// TimeInZone sums, per zone, the sample interval (in seconds) whose
// instantaneous value of extract falls in that zone.
func TimeInZone(samples []model.DataPoint, zoneList []Zone, extract func(model.DataPoint) (scalar.D, bool)) map[string]uint32 {
	out := make(map[string]uint32, len(zoneList))
	for i := 1; i < len(samples); i++ {
		v, ok := extract(samples[i])
		if !ok {
			continue
		}
		dt := samples[i].T - samples[i-1].T
		for _, z := range zoneList {
			if z.Contains(v) {
				out[z.Name] += dt
				break
			}
		}
	}
	return out
}

// TSSInZone attributes per-sample stress (weighted by (v/threshold)^2, the
// same IF^2 weighting TSS itself uses) to each zone.
func TSSInZone(samples []model.DataPoint, zoneList []Zone, threshold scalar.D, extract func(model.DataPoint) (scalar.D, bool)) map[string]scalar.D {
	out := make(map[string]scalar.D, len(zoneList))
	for i := 1; i < len(samples); i++ {
		v, ok := extract(samples[i])
		if !ok {
			continue
		}
		dt := scalar.NewFromInt(int64(samples[i].T - samples[i-1].T))
		ratio, ok := v.Div(threshold)
		if !ok {
			continue
		}
		hours, _ := dt.Div(scalar.NewFromInt(3600))
		stress := hours.Mul(ratio.Mul(ratio)).Mul(scalar.NewFromInt(100))
		for _, z := range zoneList {
			if z.Contains(v) {
				out[z.Name] = out[z.Name].Add(stress)
				break
			}
		}
	}
	return out
}
