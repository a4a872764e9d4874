package main

import (
	"github.com/lucasjlepore/trainload/decode"
	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

// Record message field numbers, per the FIT global profile.
const (
	fieldPositionLat = 0
	fieldPositionLon = 1
	fieldAltitude    = 2
	fieldHeartRate   = 3
	fieldCadence     = 4
	fieldPower       = 7
	fieldSpeed       = 6
)

// buildWorkout converts a decoded record stream's global-message-20 Record
// entries into a model.Workout's sample series, the same "project one global
// message into a flat per-sample struct" idiom as the teacher's
// buildCanonicalSamples in pipeline/run.go, generalized to model.DataPoint.
func buildWorkout(records []decode.Record, sport model.Sport) *model.Workout {
	w := &model.Workout{Sport: sport}
	var start uint32
	haveStart := false
	for _, rec := range records {
		if rec.Kind != decode.RecordKindRecord {
			continue
		}
		if !haveStart {
			start = rec.Timestamp
			haveStart = true
		}
		point := model.DataPoint{T: rec.Timestamp - start}
		if v, ok := numericField(rec, fieldPower); ok {
			point.Power = v
		}
		if v, ok := numericField(rec, fieldHeartRate); ok {
			point.HeartRate = v
		}
		if v, ok := numericField(rec, fieldCadence); ok {
			point.Cadence = v
		}
		if v, ok := numericField(rec, fieldSpeed); ok {
			point.Speed = v
		}
		if v, ok := numericField(rec, fieldAltitude); ok {
			point.Elevation = v
		}
		w.Samples = append(w.Samples, point)
	}
	w.DurationS = w.MaxSampleT()
	return w
}

func numericField(rec decode.Record, fieldNumber uint8) (*scalar.D, bool) {
	v, ok := rec.Field(fieldNumber)
	if !ok {
		return nil, false
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint8:
		f = float64(t)
	case int32:
		f = float64(t)
	case int16:
		f = float64(t)
	default:
		return nil, false
	}
	d := scalar.NewFromFloat(f)
	return &d, true
}

// deviceFromRecords pulls manufacturer/product/firmware identifiers off the
// first device_info record, for quirk matching.
func deviceFromRecords(records []decode.Record) *model.SourceDevice {
	for _, rec := range records {
		if rec.Kind != decode.RecordKindDeviceInfo {
			continue
		}
		dev := model.SourceDevice{}
		if v, ok := rec.Field(2); ok {
			dev.ManufacturerID = toUint16(v)
		}
		if v, ok := rec.Field(4); ok {
			dev.ProductID = toUint16(v)
		}
		if v, ok := rec.Field(5); ok {
			dev.FirmwareMajor = toInt(v)
		}
		return &dev
	}
	return nil
}

func toUint16(v any) uint16 {
	switch t := v.(type) {
	case uint16:
		return t
	case uint32:
		return uint16(t)
	case int64:
		return uint16(t)
	default:
		return 0
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case uint16:
		return int(t)
	case uint8:
		return int(t)
	case int64:
		return int(t)
	default:
		return 0
	}
}
