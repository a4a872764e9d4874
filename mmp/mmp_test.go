package mmp

import (
	"testing"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

func makeSamples(watts []float64) []model.DataPoint {
	out := make([]model.DataPoint, len(watts))
	for i, w := range watts {
		p := scalar.NewFromFloat(w)
		out[i] = model.DataPoint{T: uint32(i), Power: &p}
	}
	return out
}

func TestBestAverageFindsPeakWindow(t *testing.T) {
	watts := []float64{100, 100, 100, 400, 400, 100, 100}
	best, ok := BestAverage(makeSamples(watts), 2)
	if !ok {
		t.Fatal("expected a result")
	}
	if best.String() != "400" {
		t.Fatalf("best = %s, want 400", best.String())
	}
}

func TestCurveIsWeaklyDecreasing(t *testing.T) {
	watts := make([]float64, 400)
	for i := range watts {
		watts[i] = 200 + float64(i%50)
	}
	curve := Curve(makeSamples(watts), []int{1, 5, 10, 30, 60, 120, 300})
	durations := []int{1, 5, 10, 30, 60, 120, 300}
	for i := 1; i < len(durations); i++ {
		prev, ok1 := curve[durations[i-1]]
		cur, ok2 := curve[durations[i]]
		if !ok1 || !ok2 {
			continue
		}
		if cur.GreaterThan(prev) {
			t.Fatalf("MMP[%d]=%s > MMP[%d]=%s, expected weakly decreasing", durations[i], cur.String(), durations[i-1], prev.String())
		}
	}
}

func TestAggregateTakesMax(t *testing.T) {
	a := model.MMPCurve{60: scalar.NewFromInt(200)}
	b := model.MMPCurve{60: scalar.NewFromInt(250)}
	agg := Aggregate([]model.MMPCurve{a, b})
	if agg[60].String() != "250" {
		t.Fatalf("got %s, want 250", agg[60].String())
	}
}
