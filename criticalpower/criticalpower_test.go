package criticalpower

import (
	"testing"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

// TestS5CriticalPowerFit matches spec scenario S5: MMP points
// (180s,350W), (300s,320W), (600s,290W), (1200s,275W) -> CP approx 261W,
// W' approx 16kJ, r^2 > 0.99.
func TestS5CriticalPowerFit(t *testing.T) {
	points := []Point{
		{180, scalar.NewFromInt(350)},
		{300, scalar.NewFromInt(320)},
		{600, scalar.NewFromInt(290)},
		{1200, scalar.NewFromInt(275)},
	}
	fit := FitLinear(points)

	cp := fit.CP.Float64()
	wp := fit.WPrime.Float64()
	r2 := fit.RSquared.Float64()

	if cp < 255 || cp > 267 {
		t.Fatalf("CP = %v, want approx 261", cp)
	}
	if wp < 14000 || wp > 18000 {
		t.Fatalf("W' = %v, want approx 16000", wp)
	}
	if r2 < 0.99 {
		t.Fatalf("r^2 = %v, want > 0.99", r2)
	}
	if fit.LowConfidence() {
		t.Fatal("expected a high-confidence fit")
	}
}

func TestWPrimeBalanceInvariants(t *testing.T) {
	cp := scalar.NewFromInt(250)
	wPrime := scalar.NewFromInt(20000)

	var samples []model.DataPoint
	for i := 0; i < 300; i++ {
		watts := 300.0
		if i > 150 {
			watts = 150.0
		}
		p := scalar.NewFromFloat(watts)
		samples = append(samples, model.DataPoint{T: uint32(i), Power: &p})
	}

	trace := WPrimeBalance(samples, cp, wPrime)
	if !trace.Series[0].Equal(wPrime) {
		t.Fatalf("W'_bal[0] = %s, want %s", trace.Series[0].String(), wPrime.String())
	}
	for i, v := range trace.Series {
		if v.GreaterThan(wPrime) {
			t.Fatalf("W'_bal[%d] = %s exceeds W' = %s", i, v.String(), wPrime.String())
		}
	}
}

func TestTimeToExhaustionUndefinedBelowCP(t *testing.T) {
	_, ok := TimeToExhaustion(scalar.NewFromInt(10000), scalar.NewFromInt(250), scalar.NewFromInt(200))
	if ok {
		t.Fatal("expected undefined time-to-exhaustion for target <= CP")
	}
}

func TestTimeToExhaustionAboveCP(t *testing.T) {
	tte, ok := TimeToExhaustion(scalar.NewFromInt(20000), scalar.NewFromInt(250), scalar.NewFromInt(300))
	if !ok {
		t.Fatal("expected a defined time-to-exhaustion")
	}
	if tte.String() != "400" {
		t.Fatalf("tte = %s, want 400", tte.String())
	}
}
