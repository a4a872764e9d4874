// Package catalog loads the YAML-configured developer-field and
// device-quirk catalogs (and the CSV session-stress ledger used by
// multisport aggregation) that feed the devfields and quirks registries.
// Grounded on the teacher's pipeline/run.go canonical-CSV read/write idiom
// for the CSV side; YAML parsing via gopkg.in/yaml.v3, the config-loading
// idiom rohankatakam-coderisk uses for its own catalogs (no fitness-domain
// example in the pack loads a developer-field-shaped catalog).
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/multisport"
	"github.com/lucasjlepore/trainload/quirks"
	"github.com/lucasjlepore/trainload/scalar"
	"github.com/lucasjlepore/trainload/trainerr"
)

type devFieldRowYAML struct {
	Number      uint8    `yaml:"number"`
	Name        string   `yaml:"name"`
	BaseType    string   `yaml:"base_type"`
	Units       string   `yaml:"units"`
	Scale       *float64 `yaml:"scale,omitempty"`
	Offset      *float64 `yaml:"offset,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

type devFieldAppYAML struct {
	UUID         string            `yaml:"uuid"`
	AppName      string            `yaml:"app_name"`
	Manufacturer string            `yaml:"manufacturer"`
	Version      string            `yaml:"version"`
	Fields       []devFieldRowYAML `yaml:"fields"`
}

// LoadDeveloperFields reads a YAML catalog of developer-field applications,
// one entry per application UUID, each carrying its own set of fields.
func LoadDeveloperFields(path string) ([]model.DeveloperFieldEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, trainerr.Wrap(trainerr.Config, err, "catalog: read developer field catalog").WithPath(path, 0)
	}
	var apps []devFieldAppYAML
	if err := yaml.Unmarshal(raw, &apps); err != nil {
		return nil, trainerr.Wrap(trainerr.Config, err, "catalog: parse developer field catalog").WithPath(path, 0)
	}

	out := make([]model.DeveloperFieldEntry, 0, len(apps))
	for _, a := range apps {
		id, err := uuid.Parse(a.UUID)
		if err != nil {
			return nil, trainerr.Wrap(trainerr.Config, err, "catalog: invalid uuid %q", a.UUID).WithPath(path, 0)
		}
		fields := make(map[uint8]model.DeveloperFieldSpec, len(a.Fields))
		for _, f := range a.Fields {
			fields[f.Number] = model.DeveloperFieldSpec{
				Number:      f.Number,
				Name:        f.Name,
				BaseType:    f.BaseType,
				Units:       f.Units,
				Scale:       f.Scale,
				Offset:      f.Offset,
				Description: f.Description,
			}
		}
		out = append(out, model.DeveloperFieldEntry{
			UUID:         id,
			AppName:      a.AppName,
			Manufacturer: a.Manufacturer,
			Version:      a.Version,
			Fields:       fields,
		})
	}
	return out, nil
}

type quirkYAML struct {
	ManufacturerID uint16   `yaml:"manufacturer_id"`
	ProductID      uint16   `yaml:"product_id"`
	FirmwareMin    int      `yaml:"firmware_min,omitempty"`
	FirmwareMax    int      `yaml:"firmware_max,omitempty"`
	DefaultEnabled bool     `yaml:"default_enabled"`
	Kind           string   `yaml:"kind"`
	CadenceFactor  float64  `yaml:"cadence_factor,omitempty"`
	ThresholdW     float64  `yaml:"threshold_w,omitempty"`
	WindowS        uint32   `yaml:"window_s,omitempty"`
	GCTScale       *float64 `yaml:"gct_scale,omitempty"`
	VOScale        *float64 `yaml:"vo_scale,omitempty"`
}

// LoadDeviceQuirks reads a YAML catalog of device-quirk entries into
// quirks.CatalogEntry values, ready for quirks.NewRegistry.
func LoadDeviceQuirks(path string) ([]quirks.CatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, trainerr.Wrap(trainerr.Config, err, "catalog: read device quirk catalog").WithPath(path, 0)
	}
	var rows []quirkYAML
	if err := yaml.Unmarshal(raw, &rows); err != nil {
		return nil, trainerr.Wrap(trainerr.Config, err, "catalog: parse device quirk catalog").WithPath(path, 0)
	}

	out := make([]quirks.CatalogEntry, 0, len(rows))
	for _, r := range rows {
		kind, err := parseQuirkKind(r.Kind)
		if err != nil {
			return nil, trainerr.Wrap(trainerr.Config, err, "catalog: unknown quirk kind").WithPath(path, 0)
		}
		q := quirks.Quirk{Kind: kind}
		switch kind {
		case quirks.KindCadenceScale:
			q.CadenceFactor = r.CadenceFactor
		case quirks.KindLeadingPowerSpike:
			q.ThresholdW = r.ThresholdW
			q.WindowS = r.WindowS
		case quirks.KindRunningDynamicsScale:
			q.GCTScale = r.GCTScale
			q.VOScale = r.VOScale
		}
		out = append(out, quirks.CatalogEntry{
			ManufacturerID: r.ManufacturerID,
			ProductID:      r.ProductID,
			FirmwareMin:    r.FirmwareMin,
			FirmwareMax:    r.FirmwareMax,
			Quirk:          q,
			DefaultEnabled: r.DefaultEnabled,
		})
	}
	return out, nil
}

func parseQuirkKind(s string) (quirks.Kind, error) {
	switch s {
	case "cadence_scale":
		return quirks.KindCadenceScale, nil
	case "leading_power_spike":
		return quirks.KindLeadingPowerSpike, nil
	case "left_only_double_prevention":
		return quirks.KindLeftOnlyDoublePrevention, nil
	case "running_dynamics_scale":
		return quirks.KindRunningDynamicsScale, nil
	default:
		return 0, fmt.Errorf("catalog: unrecognized quirk kind %q", s)
	}
}

// LoadSessionStressCSV reads a CSV ledger of per-session stress
// (date,sport,tss), the teacher's canonical-CSV idiom from
// pipeline/run.go's writeCanonicalCSV, generalized to a read path for
// multisport aggregation input.
func LoadSessionStressCSV(path string) ([]multisport.SessionStress, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, trainerr.Wrap(trainerr.Config, err, "catalog: open session stress csv").WithPath(path, 0)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, trainerr.Wrap(trainerr.Format, err, "catalog: parse session stress csv").WithPath(path, 0)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]multisport.SessionStress, 0, len(rows)-1)
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "date" {
			continue // header
		}
		if len(row) != 3 {
			return nil, trainerr.New(trainerr.Format, "catalog: expected 3 columns in session stress csv").WithPath(path, 0)
		}
		day, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, trainerr.Wrap(trainerr.Format, err, "catalog: invalid date").WithPath(path, 0)
		}
		tss, err := scalar.Parse(row[2])
		if err != nil {
			return nil, trainerr.Wrap(trainerr.Format, err, "catalog: invalid tss").WithPath(path, 0)
		}
		out = append(out, multisport.SessionStress{Day: day, Sport: parseSport(row[1]), TSS: tss})
	}
	return out, nil
}

func parseSport(s string) model.Sport {
	switch s {
	case "running":
		return model.Running
	case "swimming":
		return model.Swimming
	case "rowing":
		return model.Rowing
	case "cross_training":
		return model.CrossTraining
	case "triathlon":
		return model.Triathlon
	default:
		return model.Cycling
	}
}
