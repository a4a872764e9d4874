//go:build js && wasm

// Command trainloadwasm exposes the analysis pipeline to a browser host via
// syscall/js, zip-packaging the resulting artifacts exactly as the teacher's
// cmd/fit_wasm does, rewired from pipeline.RunBytes to the decode -> quirks
// -> validate -> power/mmp -> export pipeline this system builds.
package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"sort"
	"syscall/js"
	"time"

	"github.com/lucasjlepore/trainload/decode"
	"github.com/lucasjlepore/trainload/export"
	"github.com/lucasjlepore/trainload/formula"
	"github.com/lucasjlepore/trainload/mmp"
	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/power"
	"github.com/lucasjlepore/trainload/quirks"
	"github.com/lucasjlepore/trainload/scalar"
	"github.com/lucasjlepore/trainload/validate"
)

func main() {
	js.Global().Set("analyzeSession", js.FuncOf(analyzeSession))
	select {}
}

func analyzeSession(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return map[string]any{
			"ok":    false,
			"error": "expected arguments: fileBytes(Uint8Array), options(object)",
		}
	}
	fileArg := args[0]
	optsArg := args[1]
	if fileArg.IsUndefined() || fileArg.IsNull() || fileArg.Get("length").Int() == 0 {
		return map[string]any{
			"ok":    false,
			"error": "session file bytes are required",
		}
	}

	fileBytes := make([]byte, fileArg.Get("length").Int())
	if n := js.CopyBytesToGo(fileBytes, fileArg); n == 0 {
		return map[string]any{
			"ok":    false,
			"error": "failed to read session bytes from JS input",
		}
	}

	ftpW := getFloat(optsArg, "ftp_w")
	format := getString(optsArg, "format", "parquet")

	files, warnings, err := runAnalysis(fileBytes, ftpW, format)
	if err != nil {
		return map[string]any{
			"ok":    false,
			"error": err.Error(),
		}
	}

	zipBytes, err := zipArtifacts(files)
	if err != nil {
		return map[string]any{
			"ok":    false,
			"error": fmt.Sprintf("create zip: %v", err),
		}
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	fileNames := make([]string, 0, len(files))
	for name := range files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	return map[string]any{
		"ok":       true,
		"zip":      payload,
		"warnings": stringsToAny(warnings),
		"files":    stringsToAny(fileNames),
	}
}

func runAnalysis(data []byte, ftpW float64, format string) (map[string][]byte, []string, error) {
	records, report, err := decode.Decode(data, decode.Options{Recovery: true})
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}

	var warnings []string
	if report.Degraded {
		warnings = append(warnings, "decode degraded: recovered from a CRC mismatch")
	}

	w := &model.Workout{Sport: model.Cycling, Samples: wasmSamplesFromRecords(records)}

	registry, err := quirks.NewRegistry(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("quirk registry: %w", err)
	}
	registry.Apply(w)

	result, err := validate.Validate(w, validate.DefaultTables(), validate.ModeFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("validate: %w", err)
	}
	for _, v := range result.Warnings {
		warnings = append(warnings, fmt.Sprintf("field %s out of range at sample %d: %v", v.Field, v.SampleIndex, v.Value))
	}

	var ftpD *scalar.D
	if ftpW > 0 {
		v := scalar.NewFromFloat(ftpW)
		ftpD = &v
	}
	tss := power.Compute(w.Samples, w.MaxSampleT(), w.Sport, power.Thresholds{FTP: ftpD}, &power.Formula{Eval: formula.NewEvaluator()})
	curve := mmp.Curve(w.Samples, nil)

	files := make(map[string][]byte)
	samplesBuf, err := marshalSamples(w.Samples, format)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal samples: %w", err)
	}
	files["samples."+format] = samplesBuf

	mmpBuf, err := marshalMMP(curve)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal mmp: %w", err)
	}
	files["mmp.parquet"] = mmpBuf

	files["summary.txt"] = []byte(fmt.Sprintf("tss=%s method=%s\n", tss.TSS.String(), tss.Method.String()))

	return files, warnings, nil
}

func wasmSamplesFromRecords(records []decode.Record) []model.DataPoint {
	out := make([]model.DataPoint, 0, len(records))
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
		if v, ok := rec.Field(7); ok {
			if f, ok := toFloat(v); ok {
				d := scalar.NewFromFloat(f)
				point.Power = &d
			}
		}
		out = append(out, point)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	default:
		return 0, false
	}
}

func marshalSamples(samples []model.DataPoint, format string) ([]byte, error) {
	var buf bytes.Buffer
	tmp, err := tempParquetPath(format)
	if err != nil {
		return nil, err
	}
	if format == "csv" {
		if err := export.WriteSamplesCSV(tmp, samples); err != nil {
			return nil, err
		}
	} else if err := export.WriteSamplesParquet(tmp, samples); err != nil {
		return nil, err
	}
	return readAndRemove(tmp, &buf)
}

func marshalMMP(curve model.MMPCurve) ([]byte, error) {
	var buf bytes.Buffer
	tmp, err := tempParquetPath("parquet")
	if err != nil {
		return nil, err
	}
	if err := export.WriteMMPParquet(tmp, curve); err != nil {
		return nil, err
	}
	return readAndRemove(tmp, &buf)
}

// tempParquetPath and readAndRemove exist because the export package writes
// parquet via a local file writer; the wasm host has no persistent
// filesystem concept the caller needs, so results are read back into memory
// and the temp file discarded immediately.
func tempParquetPath(format string) (string, error) {
	f, err := os.CreateTemp("", "trainload-*."+format)
	if err != nil {
		return "", err
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return name, nil
}

func readAndRemove(path string, buf *bytes.Buffer) ([]byte, error) {
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	buf.Write(data)
	return buf.Bytes(), nil
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range names {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.SetModTime(fixedTime)
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func getFloat(v js.Value, key string) float64 {
	if v.IsUndefined() || v.IsNull() {
		return 0
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeNumber {
		return 0
	}
	return out.Float()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
