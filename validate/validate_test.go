package validate

import (
	"testing"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

func TestOutOfOrderFailsValidation(t *testing.T) {
	w := &model.Workout{Sport: model.Cycling, Samples: []model.DataPoint{
		{T: 5}, {T: 3},
	}}
	_, err := Validate(w, DefaultTables(), ModeFlag)
	if err == nil {
		t.Fatal("expected error for out-of-order samples")
	}
}

func TestRangeFlaggedNotRemovedByDefault(t *testing.T) {
	power := scalar.NewFromInt(5000) // far outside cycling's 0-2000W
	w := &model.Workout{Sport: model.Cycling, Samples: []model.DataPoint{
		{T: 0, Power: &power},
	}}
	res, err := Validate(w, DefaultTables(), ModeFlag)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(res.Warnings))
	}
	if len(w.Samples) != 1 {
		t.Fatal("expected sample to be kept in flag mode")
	}
}

func TestRangeRemovedInStrictMode(t *testing.T) {
	power := scalar.NewFromInt(5000)
	w := &model.Workout{Sport: model.Cycling, Samples: []model.DataPoint{
		{T: 0, Power: &power},
	}}
	_, err := Validate(w, DefaultTables(), ModeStrict)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(w.Samples) != 0 {
		t.Fatal("expected sample to be removed in strict mode")
	}
}

func TestCoverage(t *testing.T) {
	p := scalar.NewFromInt(200)
	samples := []model.DataPoint{{Power: &p}, {}, {Power: &p}, {}}
	cov := Coverage(samples, func(d model.DataPoint) bool { return d.Power != nil })
	if cov.String() != "0.5" {
		t.Fatalf("coverage = %s, want 0.5", cov.String())
	}
}
