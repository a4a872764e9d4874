// Package devfields implements the developer-field registry: a catalog
// mapping (application UUID, field number) to a named, scaled field
// definition, loaded once from a shipped catalog and optionally layered
// with additional catalogs (last writer wins per key).
package devfields

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
	"github.com/lucasjlepore/trainload/trainerr"
)

// Registry is an immutable-after-load mapping from (uuid, field number) to
// a field definition. The zero value is an empty registry.
type Registry struct {
	entries map[model.DevFieldKey]model.DeveloperFieldSpec
	apps    map[uuid.UUID]model.DeveloperFieldEntry
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[model.DevFieldKey]model.DeveloperFieldSpec),
		apps:    make(map[uuid.UUID]model.DeveloperFieldEntry),
	}
}

// Load layers entries onto the registry. Within a single Load call,
// duplicate (uuid, field number) pairs are a fatal Config error (spec §6:
// "duplicates within a UUID are fatal"). Across separate Load calls, the
// later call's entries win for any overlapping key.
func (r *Registry) Load(entries []model.DeveloperFieldEntry) error {
	seen := make(map[model.DevFieldKey]bool)
	for _, app := range entries {
		for num, spec := range app.Fields {
			key := model.DevFieldKey{UUID: app.UUID, FieldNumber: num}
			if seen[key] {
				return trainerr.New(trainerr.Config, "duplicate field %d for application %s", num, app.UUID)
			}
			seen[key] = true
			r.entries[key] = spec
		}
		r.apps[app.UUID] = app
	}
	return nil
}

// Lookup returns the field definition for (uuid, fieldNumber), or false if
// the UUID or field is unknown. Unknown UUIDs are not an error: the decoder
// passes their raw bytes through opaquely.
func (r *Registry) Lookup(id uuid.UUID, fieldNumber uint8) (model.DeveloperFieldSpec, bool) {
	spec, ok := r.entries[model.DevFieldKey{UUID: id, FieldNumber: fieldNumber}]
	return spec, ok
}

// ApplyScale computes actual = raw/scale + offset in D, per spec §4.D. If
// the spec has no scale/offset, raw is returned unchanged (still converted
// to D).
func ApplyScale(raw scalar.D, spec model.DeveloperFieldSpec) (scalar.D, error) {
	if spec.Scale == nil && spec.Offset == nil {
		return raw, nil
	}
	scale := scalar.NewFromInt(1)
	if spec.Scale != nil {
		scale = scalar.NewFromFloat(*spec.Scale)
	}
	offset := scalar.Zero
	if spec.Offset != nil {
		offset = scalar.NewFromFloat(*spec.Offset)
	}
	scaled, ok := raw.Div(scale)
	if !ok {
		return scalar.Zero, fmt.Errorf("devfields: zero scale for field %d", spec.Number)
	}
	return scaled.Add(offset), nil
}

// Applications returns the registered application entries, one per UUID, for
// diagnostics.
func (r *Registry) Applications() []model.DeveloperFieldEntry {
	out := make([]model.DeveloperFieldEntry, 0, len(r.apps))
	for _, a := range r.apps {
		out = append(out, a)
	}
	return out
}
