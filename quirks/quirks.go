// Package quirks implements the device-quirk pipeline: a sequence of pure
// corrections applied to a session's sample stream before the metric
// engines see it. The quirk-kind tagged union is grounded on
// original_source/src/device_quirks.rs's QuirkType enum, narrowed to the
// four kinds spec §4.E closes its set to.
package quirks

import (
	"fmt"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
	"github.com/lucasjlepore/trainload/trainerr"
)

// Kind discriminates the closed set of quirk kinds from spec §4.E.
type Kind int

const (
	KindCadenceScale Kind = iota
	KindLeadingPowerSpike
	KindLeftOnlyDoublePrevention
	KindRunningDynamicsScale
)

// Quirk is one registered correction. Exactly one of the Kind-specific
// parameter sets is meaningful, selected by Kind.
type Quirk struct {
	Kind Kind

	// KindCadenceScale
	CadenceFactor float64

	// KindLeadingPowerSpike
	ThresholdW float64
	WindowS    uint32

	// KindRunningDynamicsScale
	GCTScale  *float64
	VOScale   *float64
	GCTField  *model.DevFieldKey
	VOField   *model.DevFieldKey

	// applied string recorded into quality_flags when this quirk fires.
	label string
}

func (q Quirk) Label() string {
	if q.label != "" {
		return q.label
	}
	switch q.Kind {
	case KindCadenceScale:
		return fmt.Sprintf("CadenceScale(%v) applied", q.CadenceFactor)
	case KindLeadingPowerSpike:
		return fmt.Sprintf("LeadingPowerSpike(%v,%ds) applied", q.ThresholdW, q.WindowS)
	case KindLeftOnlyDoublePrevention:
		return "LeftOnlyDoublePrevention applied"
	case KindRunningDynamicsScale:
		return "RunningDynamicsScale applied"
	default:
		return "quirk applied"
	}
}

// CatalogEntry is one registry row: which devices a quirk applies to.
type CatalogEntry struct {
	ManufacturerID uint16
	ProductID      uint16
	FirmwareMin    int
	FirmwareMax    int // 0 means "no upper bound"
	Quirk          Quirk
	DefaultEnabled bool
}

func (e CatalogEntry) applies(dev model.SourceDevice) bool {
	if e.ManufacturerID != dev.ManufacturerID || e.ProductID != dev.ProductID {
		return false
	}
	if e.FirmwareMin != 0 && dev.FirmwareMajor < e.FirmwareMin {
		return false
	}
	if e.FirmwareMax != 0 && dev.FirmwareMajor > e.FirmwareMax {
		return false
	}
	return true
}

// Registry is an immutable-after-load ordered list of catalog entries.
// Registration order is preserved and is the order quirks are applied in.
type Registry struct {
	entries []CatalogEntry
}

// NewRegistry builds a registry from entries, validating that every Kind is
// one of the closed set. An unknown kind is fatal at load time, never at run
// time, per spec §4.E.
func NewRegistry(entries []CatalogEntry) (*Registry, error) {
	for i, e := range entries {
		switch e.Quirk.Kind {
		case KindCadenceScale, KindLeadingPowerSpike, KindLeftOnlyDoublePrevention, KindRunningDynamicsScale:
		default:
			return nil, trainerr.New(trainerr.Config, "unknown quirk kind %d at entry %d", e.Quirk.Kind, i)
		}
	}
	return &Registry{entries: append([]CatalogEntry(nil), entries...)}, nil
}

// Apply runs every enabled matching quirk, in registration order, against
// the workout's sample stream, mutating it in place and recording each
// application in QualityFlags. Missing device identifiers means no quirks
// apply and the session proceeds unchanged, per spec §4.E's failure
// semantics.
func (r *Registry) Apply(w *model.Workout) {
	if w.SourceDevice == nil {
		return
	}
	dev := *w.SourceDevice
	for _, e := range r.entries {
		if !e.DefaultEnabled {
			continue
		}
		if !e.applies(dev) {
			continue
		}
		applyQuirk(w, e.Quirk)
	}
}

func applyQuirk(w *model.Workout, q Quirk) {
	label := q.Label()
	if w.HasQualityFlag(label) {
		// Idempotence: applying the same quirk twice must equal applying it
		// once.
		return
	}
	switch q.Kind {
	case KindCadenceScale:
		factor := scalar.NewFromFloat(q.CadenceFactor)
		for i := range w.Samples {
			if w.Samples[i].Cadence != nil {
				scaled := w.Samples[i].Cadence.Mul(factor)
				w.Samples[i].Cadence = &scaled
			}
		}
	case KindLeadingPowerSpike:
		threshold := scalar.NewFromFloat(q.ThresholdW)
		for i := range w.Samples {
			if w.Samples[i].T > q.WindowS {
				break
			}
			if w.Samples[i].Power != nil && w.Samples[i].Power.GreaterThan(threshold) {
				zero := scalar.Zero
				w.Samples[i].Power = &zero
			}
		}
	case KindLeftOnlyDoublePrevention:
		for i := range w.Samples {
			s := &w.Samples[i]
			if s.LeftPower != nil && s.RightPower == nil && s.Power != nil {
				s.Power = nil
			}
		}
	case KindRunningDynamicsScale:
		for i := range w.Samples {
			divideDevField(w.Samples[i].DevFields, q.GCTField, q.GCTScale)
			divideDevField(w.Samples[i].DevFields, q.VOField, q.VOScale)
		}
	}
	w.AddQualityFlag(label)
}

func divideDevField(fields map[model.DevFieldKey]scalar.D, key *model.DevFieldKey, factor *float64) {
	if key == nil || factor == nil || fields == nil {
		return
	}
	v, ok := fields[*key]
	if !ok {
		return
	}
	if scaled, ok := v.Div(scalar.NewFromFloat(*factor)); ok {
		fields[*key] = scaled
	}
}
