package power

import (
	"testing"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

func constantPowerSamples(watts float64, n int) []model.DataPoint {
	out := make([]model.DataPoint, n)
	for i := range out {
		p := scalar.NewFromFloat(watts)
		out[i] = model.DataPoint{T: uint32(i), Power: &p}
	}
	return out
}

// TestS1ConstantPowerSession matches spec scenario S1: 3600s at 200W,
// FTP=250W -> NP=200, IF=0.80, TSS=64.00.
func TestS1ConstantPowerSession(t *testing.T) {
	samples := constantPowerSamples(200, 3600)
	ftp := scalar.NewFromInt(250)

	res := Compute(samples, 3600, model.Cycling, Thresholds{FTP: &ftp}, nil)
	if res.Method != MethodPower {
		t.Fatalf("expected power method, got %v", res.Method)
	}
	if res.NP.String() != "200" {
		t.Fatalf("NP = %s, want 200", res.NP.String())
	}
	if res.IntensityFactor.String() != "0.8" {
		t.Fatalf("IF = %s, want 0.8", res.IntensityFactor.String())
	}
	if res.TSS.String() != "64" {
		t.Fatalf("TSS = %s, want 64", res.TSS.String())
	}
}

// TestS2Intervals matches spec scenario S2: 60 minutes alternating 1 minute
// at 300W / 1 minute at 100W, FTP=250W -> NP strictly above the 200W
// average, IF approx 0.98, TSS approx 96.
func TestS2Intervals(t *testing.T) {
	var samples []model.DataPoint
	for min := 0; min < 60; min++ {
		watts := 300.0
		if min%2 == 1 {
			watts = 100.0
		}
		for s := 0; s < 60; s++ {
			p := scalar.NewFromFloat(watts)
			samples = append(samples, model.DataPoint{T: uint32(len(samples)), Power: &p})
		}
	}
	ftp := scalar.NewFromInt(250)
	res := Compute(samples, 3600, model.Cycling, Thresholds{FTP: &ftp}, nil)

	if !res.NP.GreaterThan(scalar.NewFromInt(200)) {
		t.Fatalf("expected NP > 200, got %s", res.NP.String())
	}
	npFloat := res.NP.Float64()
	if npFloat < 230 || npFloat > 260 {
		t.Fatalf("NP out of expected range: %v", npFloat)
	}
	ifFloat := res.IntensityFactor.Float64()
	if ifFloat < 0.9 || ifFloat > 1.05 {
		t.Fatalf("IF out of expected range: %v", ifFloat)
	}
}

func TestInvariantNPWithinMeanAndMax(t *testing.T) {
	var samples []model.DataPoint
	watts := []float64{100, 400, 150, 350, 120, 380}
	for i, w := range watts {
		p := scalar.NewFromFloat(w)
		samples = append(samples, model.DataPoint{T: uint32(i), Power: &p})
	}
	np := NormalizedPower(samples)
	meanVal := scalar.NewFromFloat(mean(watts))
	maxVal := scalar.NewFromFloat(400)
	if np.LessThan(meanVal) {
		t.Fatalf("NP %s should be >= mean %s", np.String(), meanVal.String())
	}
	if np.GreaterThan(maxVal) {
		t.Fatalf("NP %s should be <= max %s", np.String(), maxVal.String())
	}
}

func TestFallbackToEstimatedWhenNoCoverage(t *testing.T) {
	res := Compute(nil, 3600, model.Cycling, Thresholds{}, nil)
	if res.Method != MethodEstimated {
		t.Fatalf("expected estimated fallback, got %v", res.Method)
	}
	if !res.LowConfidence {
		t.Fatal("expected low-confidence flag on estimated fallback")
	}
	if res.TSS.String() != "50" {
		t.Fatalf("TSS = %s, want 50", res.TSS.String())
	}
}

// TestPaceFallbackForRunning exercises the running pace tier: no power
// samples, so the engine falls through to rTSS using ThresholdPace.
func TestPaceFallbackForRunning(t *testing.T) {
	var samples []model.DataPoint
	pace := scalar.NewFromFloat(300) // seconds per km, at threshold
	for i := 0; i < 1800; i++ {
		p := pace
		samples = append(samples, model.DataPoint{T: uint32(i), Pace: &p})
	}
	thresholdPace := scalar.NewFromFloat(300)
	res := Compute(samples, 1800, model.Running, Thresholds{ThresholdPace: &thresholdPace}, nil)
	if res.Method != MethodPace {
		t.Fatalf("expected pace method, got %v", res.Method)
	}
	if res.IntensityFactor.String() != "1" {
		t.Fatalf("IF = %s, want 1", res.IntensityFactor.String())
	}
	if res.TSS.String() != "50" {
		t.Fatalf("TSS = %s, want 50", res.TSS.String())
	}
}

// TestSwimFallbackUsesCriticalSwimSpeed exercises spec §4.G's swimming
// fallback: a comparable sTSS computed from CriticalSwimSpeed rather than
// ThresholdPace, driven off Speed samples instead of Pace samples.
func TestSwimFallbackUsesCriticalSwimSpeed(t *testing.T) {
	var samples []model.DataPoint
	speed := scalar.NewFromFloat(1.5) // meters/second, at CSS
	for i := 0; i < 3600; i++ {
		v := speed
		samples = append(samples, model.DataPoint{T: uint32(i), Speed: &v})
	}
	css := scalar.NewFromFloat(1.5)
	res := Compute(samples, 3600, model.Swimming, Thresholds{CriticalSwimSpeed: &css}, nil)
	if res.Method != MethodPace {
		t.Fatalf("expected pace method (sTSS), got %v", res.Method)
	}
	if res.IntensityFactor.String() != "1" {
		t.Fatalf("IF = %s, want 1", res.IntensityFactor.String())
	}
	if res.TSS.String() != "100" {
		t.Fatalf("TSS = %s, want 100", res.TSS.String())
	}
}

// TestSwimFallbackIgnoresThresholdPace confirms a swim session with only
// Pace (not Speed) samples does not silently reuse the running pace tier.
func TestSwimFallbackIgnoresThresholdPace(t *testing.T) {
	var samples []model.DataPoint
	pace := scalar.NewFromFloat(90) // seconds per 100m
	for i := 0; i < 1800; i++ {
		p := pace
		samples = append(samples, model.DataPoint{T: uint32(i), Pace: &p})
	}
	thresholdPace := scalar.NewFromFloat(90)
	res := Compute(samples, 1800, model.Swimming, Thresholds{ThresholdPace: &thresholdPace}, nil)
	if res.Method != MethodEstimated {
		t.Fatalf("expected estimated fallback (no CSS/Speed present), got %v", res.Method)
	}
}

func TestFormulaOverride(t *testing.T) {
	samples := constantPowerSamples(200, 40)
	ftp := scalar.NewFromInt(250)
	f := &Formula{Expr: "(duration * IF ^ 2) * 100"}
	res := Compute(samples, 3600, model.Cycling, Thresholds{FTP: &ftp}, f)
	if res.FormulaError != nil {
		t.Fatalf("unexpected formula error: %v", res.FormulaError)
	}
}
