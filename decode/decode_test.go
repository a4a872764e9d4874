package decode

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/trainload/trainerr"
)

// buildTestFIT constructs a synthetic FIT file via tormoder/fit's own
// encoder, mirroring the teacher's buildTestFIT helper in
// llmexport/exporter_test.go.
func buildTestFIT(t *testing.T) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}

	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	start := time.Date(2026, 2, 26, 23, 0, 0, 0, time.UTC)
	event := fit.NewEventMsg()
	event.Timestamp = start
	event.Event = fit.EventTimer
	event.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, event)

	for i := 0; i < 5; i++ {
		rec := fit.NewRecordMsg()
		rec.Timestamp = start.Add(time.Duration(i) * time.Second)
		rec.HeartRate = 135
		rec.Power = uint16(200 + i)
		rec.Cadence = 90
		activity.Records = append(activity.Records, rec)
	}

	stop := fit.NewEventMsg()
	stop.Timestamp = start.Add(5 * time.Second)
	stop.Event = fit.EventTimer
	stop.EventType = fit.EventTypeStop
	activity.Events = append(activity.Events, stop)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeParsesRecords(t *testing.T) {
	data := buildTestFIT(t)

	records, report, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if report.Degraded {
		t.Fatal("expected a clean decode, got degraded report")
	}
	if !report.FileCRCValid {
		t.Fatal("expected valid file CRC")
	}
	if len(records) == 0 {
		t.Fatal("expected at least one record")
	}

	var sawRecord bool
	for _, r := range records {
		if r.Kind == RecordKindRecord {
			sawRecord = true
			if _, ok := r.Field(7); !ok { // power field number
				t.Fatal("expected decoded power field on a record message")
			}
		}
	}
	if !sawRecord {
		t.Fatal("expected at least one Record-kind message")
	}
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, _, err := Decode([]byte{1, 2, 3}, Options{})
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
	if kind, ok := trainerr.KindOf(err); !ok || kind != trainerr.Format {
		t.Fatalf("expected Format error, got %v", err)
	}
}

func TestDecodeStrictRejectsCorruptedCRC(t *testing.T) {
	data := buildTestFIT(t)
	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)-1] ^= 0xFF // flip every bit of the stored file CRC's high byte

	_, _, err := Decode(corrupted, Options{Recovery: false})
	if err == nil {
		t.Fatal("expected Integrity error in strict mode")
	}
	if kind, ok := trainerr.KindOf(err); !ok || kind != trainerr.Integrity {
		t.Fatalf("expected Integrity error, got %v", err)
	}
}

func TestDecodeRecoveryModeDegrades(t *testing.T) {
	data := buildTestFIT(t)
	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)-1] ^= 0xFF

	records, report, err := Decode(corrupted, Options{Recovery: true})
	if err != nil {
		t.Fatalf("expected no error in recovery mode, got %v", err)
	}
	if !report.Degraded {
		t.Fatal("expected degraded report in recovery mode")
	}
	found := false
	for _, f := range report.QualityFlags {
		if f == "CRC-recovered" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected CRC-recovered quality flag")
	}
	if len(records) == 0 {
		t.Fatal("expected records to still be returned in recovery mode")
	}
}
