// Package model defines the in-memory representation of a training session
// and the athlete-level context engines consult while computing metrics.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasjlepore/trainload/scalar"
)

// Sport identifies the activity discipline of a Workout.
type Sport int

const (
	Cycling Sport = iota
	Running
	Swimming
	Rowing
	CrossTraining
	Triathlon
)

func (s Sport) String() string {
	switch s {
	case Cycling:
		return "cycling"
	case Running:
		return "running"
	case Swimming:
		return "swimming"
	case Rowing:
		return "rowing"
	case CrossTraining:
		return "cross_training"
	case Triathlon:
		return "triathlon"
	default:
		return "unknown"
	}
}

// PrimarySource identifies which sensor stream a session's stress is best
// computed from.
type PrimarySource int

const (
	SourcePower PrimarySource = iota
	SourcePace
	SourceHeartRate
	SourceRPE
)

// DevFieldKey identifies a developer field by its owning application and
// field number.
type DevFieldKey struct {
	UUID        uuid.UUID
	FieldNumber uint8
}

// Position is a WGS-84 coordinate in decimal degrees.
type Position struct {
	Lat, Lon float64
}

// DataPoint is one sample within a session. t is seconds from session start.
// Every sensor reading is optional; nil means "not recorded".
type DataPoint struct {
	T           uint32
	Power       *scalar.D
	HeartRate   *scalar.D
	Pace        *scalar.D // seconds per unit distance, sport-defined
	Speed       *scalar.D
	Cadence     *scalar.D
	Elevation   *scalar.D
	Position    *Position
	LeftPower   *scalar.D
	RightPower  *scalar.D
	DevFields   map[DevFieldKey]scalar.D
}

// Clone returns a deep copy of the sample so callers can hand out read-only
// snapshots without aliasing pointer fields.
func (p DataPoint) Clone() DataPoint {
	out := p
	out.Power = clonePtr(p.Power)
	out.HeartRate = clonePtr(p.HeartRate)
	out.Pace = clonePtr(p.Pace)
	out.Speed = clonePtr(p.Speed)
	out.Cadence = clonePtr(p.Cadence)
	out.Elevation = clonePtr(p.Elevation)
	out.LeftPower = clonePtr(p.LeftPower)
	out.RightPower = clonePtr(p.RightPower)
	if p.Position != nil {
		pos := *p.Position
		out.Position = &pos
	}
	if p.DevFields != nil {
		out.DevFields = make(map[DevFieldKey]scalar.D, len(p.DevFields))
		for k, v := range p.DevFields {
			out.DevFields[k] = v
		}
	}
	return out
}

func clonePtr(p *scalar.D) *scalar.D {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Summary holds session-level aggregate metrics, derivable from Samples when
// present.
type Summary struct {
	AvgPower          *scalar.D
	MaxPower          *scalar.D
	NormalizedPower   *scalar.D
	AvgHeartRate      *scalar.D
	MaxHeartRate      *scalar.D
	AvgCadence        *scalar.D
	IntensityFactor   *scalar.D
	TrainingStress    *scalar.D
	VariabilityIndex  *scalar.D
	EfficiencyFactor  *scalar.D
	WorkAboveFTPKJ    *scalar.D
	WorkBelowFTPKJ    *scalar.D
}

// Clone returns a deep copy so callers can hand out read-only snapshots
// without aliasing the summary's scalar.D pointer fields.
func (s Summary) Clone() Summary {
	out := s
	out.AvgPower = clonePtr(s.AvgPower)
	out.MaxPower = clonePtr(s.MaxPower)
	out.NormalizedPower = clonePtr(s.NormalizedPower)
	out.AvgHeartRate = clonePtr(s.AvgHeartRate)
	out.MaxHeartRate = clonePtr(s.MaxHeartRate)
	out.AvgCadence = clonePtr(s.AvgCadence)
	out.IntensityFactor = clonePtr(s.IntensityFactor)
	out.TrainingStress = clonePtr(s.TrainingStress)
	out.VariabilityIndex = clonePtr(s.VariabilityIndex)
	out.EfficiencyFactor = clonePtr(s.EfficiencyFactor)
	out.WorkAboveFTPKJ = clonePtr(s.WorkAboveFTPKJ)
	out.WorkBelowFTPKJ = clonePtr(s.WorkBelowFTPKJ)
	return out
}

// SourceDevice identifies the recording hardware, consulted by the
// device-quirk pipeline.
type SourceDevice struct {
	ManufacturerID uint16
	ProductID      uint16
	FirmwareMajor  int
	FirmwareMinor  int
}

// Clone returns a copy; SourceDevice has no pointer/slice fields, so a value
// copy is already a deep copy.
func (d SourceDevice) Clone() SourceDevice { return d }

// Workout is a single recorded (or summary-only) training session.
type Workout struct {
	ID             string
	Date           time.Time
	Sport          Sport
	DurationS      uint32
	WorkoutType    string
	PrimarySource  PrimarySource
	Samples        []DataPoint // nil for summary-only sessions
	Summary        Summary
	Notes          string
	SourceDevice   *SourceDevice
	QualityFlags   []string
}

// Clone returns a deep copy of the session: every sample, the summary, the
// source device, and the quality-flag slice are all copied so a caller
// handed this clone can mutate it (e.g. via AddQualityFlag) without
// affecting the original, per §5's "clone on cache hit" requirement.
func (w *Workout) Clone() *Workout {
	if w == nil {
		return nil
	}
	out := *w
	if w.Samples != nil {
		out.Samples = make([]DataPoint, len(w.Samples))
		for i, s := range w.Samples {
			out.Samples[i] = s.Clone()
		}
	}
	out.Summary = w.Summary.Clone()
	if w.SourceDevice != nil {
		dev := w.SourceDevice.Clone()
		out.SourceDevice = &dev
	}
	if w.QualityFlags != nil {
		out.QualityFlags = append([]string(nil), w.QualityFlags...)
	}
	return &out
}

// AddQualityFlag appends flag if not already present, keeping the pipeline's
// idempotence guarantee visible on the session.
func (w *Workout) AddQualityFlag(flag string) {
	for _, f := range w.QualityFlags {
		if f == flag {
			return
		}
	}
	w.QualityFlags = append(w.QualityFlags, flag)
}

// HasQualityFlag reports whether flag has already been recorded.
func (w *Workout) HasQualityFlag(flag string) bool {
	for _, f := range w.QualityFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// MaxSampleT returns the largest sample timestamp, or 0 if there are no
// samples.
func (w *Workout) MaxSampleT() uint32 {
	var max uint32
	for _, s := range w.Samples {
		if s.T > max {
			max = s.T
		}
	}
	return max
}

// ThresholdHistoryEntry is one effective-dated value in an athlete's
// threshold timeline.
type ThresholdHistoryEntry struct {
	EffectiveFrom time.Time
	Value         scalar.D
}

// ThresholdHistory is an ordered (ascending EffectiveFrom) sequence of
// threshold values.
type ThresholdHistory []ThresholdHistoryEntry

// EffectiveAt returns the most recent entry with EffectiveFrom <= at, and
// whether one exists.
func (h ThresholdHistory) EffectiveAt(at time.Time) (scalar.D, bool) {
	var best *ThresholdHistoryEntry
	for i := range h {
		e := h[i]
		if e.EffectiveFrom.After(at) {
			continue
		}
		if best == nil || e.EffectiveFrom.After(best.EffectiveFrom) {
			best = &h[i]
		}
	}
	if best == nil {
		return scalar.Zero, false
	}
	return best.Value, true
}

// SportScaleFactors maps a Sport to its multi-sport TSS scaling factor.
type SportScaleFactors map[Sport]scalar.D

// DefaultSportScaleFactors returns the spec's default per-sport scale table.
func DefaultSportScaleFactors() SportScaleFactors {
	return SportScaleFactors{
		Cycling:       scalar.NewFromInt(1),
		Running:       scalar.MustParse("1.3"),
		Swimming:      scalar.MustParse("0.9"),
		Rowing:        scalar.NewFromInt(1),
		CrossTraining: scalar.NewFromInt(1),
	}
}

// For returns the scale factor for sport, defaulting to 1.0 for any sport
// missing from the table (e.g. Triathlon, whose legs carry their own
// factors).
func (f SportScaleFactors) For(sport Sport) scalar.D {
	if v, ok := f[sport]; ok {
		return v
	}
	return scalar.NewFromInt(1)
}

// AthleteProfile carries an athlete's thresholds (as timestamped history so
// past sessions can be recomputed with the threshold in effect that day),
// per-sport scale factors, and zone-model choices.
type AthleteProfile struct {
	ID                    string
	FTP                   ThresholdHistory
	LTHR                  ThresholdHistory
	MaxHR                 ThresholdHistory
	ThresholdPace         ThresholdHistory
	CSS                   ThresholdHistory
	RunningPowerThreshold ThresholdHistory
	SportScaleFactors     SportScaleFactors
	ZoneModelChoices      map[Sport]string
}

// PMCDay is one day's entry in a PMC series.
type PMCDay struct {
	Date         time.Time
	DailyStress  scalar.D
	CTL          scalar.D
	ATL          scalar.D
	TSB          scalar.D
	CTLRampRate  *scalar.D
	ATLSpike     bool
}

// PMCSeries is an ordered, gapless sequence of PMCDay keyed by calendar day.
type PMCSeries []PMCDay

// MMPCurve maps a duration in seconds to the best average power observed for
// that duration.
type MMPCurve map[int]scalar.D

// StandardMMPDurations is the standard duration set from spec §4.I.
var StandardMMPDurations = []int{1, 5, 10, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600, 5400, 7200}

// CPModelType discriminates the fitting method behind a CPModel.
type CPModelType int

const (
	CPModelTwoParameter CPModelType = iota
	CPModelThreeParameter
)

// CPModel is a fitted critical-power / W' model.
type CPModel struct {
	CP           scalar.D
	WPrime       scalar.D
	RSquared     scalar.D
	ModelType    CPModelType
	TimeConstant *scalar.D // only set for CPModelThreeParameter
	SamplesUsed  int
}

// LowConfidence reports whether the fit falls below the spec's confidence
// gate.
func (m CPModel) LowConfidence() bool {
	return m.RSquared.LessThan(scalar.MustParse("0.95")) || !m.CP.GreaterThan(scalar.Zero) || !m.WPrime.GreaterThan(scalar.Zero)
}

// DeviceQuirkEntry describes one catalog entry in the device-quirk registry.
type DeviceQuirkEntry struct {
	ManufacturerID  uint16
	ProductID       uint16
	FirmwareRange   string
	Description     string
	QuirkKind       string
	QuirkParams     map[string]float64
	DefaultEnabled  bool
}

// DeveloperFieldSpec describes one field within a DeveloperFieldEntry.
type DeveloperFieldSpec struct {
	Number      uint8
	Name        string
	BaseType    string
	Units       string
	Scale       *float64
	Offset      *float64
	Description string
}

// DeveloperFieldEntry is one application's set of developer field
// definitions, keyed by UUID in the registry.
type DeveloperFieldEntry struct {
	UUID         uuid.UUID
	AppName      string
	Manufacturer string
	Version      string
	Fields       map[uint8]DeveloperFieldSpec
}
