package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trainload/quirks"
)

func TestLoadDeveloperFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devfields.yaml")
	yamlBody := `
- uuid: "11111111-1111-1111-1111-111111111111"
  app_name: "Stryd"
  manufacturer: "Stryd"
  version: "1.0"
  fields:
    - number: 0
      name: "ground_contact_time"
      base_type: "uint16"
      units: "ms"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	entries, err := LoadDeveloperFields(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Stryd", entries[0].AppName)
	_, ok := entries[0].Fields[0]
	require.True(t, ok, "expected field 0 to be present")
}

func TestLoadDeviceQuirks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quirks.yaml")
	yamlBody := `
- manufacturer_id: 1
  product_id: 2697
  default_enabled: true
  kind: cadence_scale
  cadence_factor: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	entries, err := LoadDeviceQuirks(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, quirks.KindCadenceScale, entries[0].Quirk.Kind)
	require.Equal(t, 0.5, entries[0].Quirk.CadenceFactor)

	_, err = quirks.NewRegistry(entries)
	require.NoError(t, err)
}

func TestLoadDeviceQuirksRejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quirks.yaml")
	yamlBody := `
- manufacturer_id: 1
  product_id: 2
  kind: not_a_real_kind
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	_, err := LoadDeviceQuirks(path)
	require.Error(t, err, "expected an error for an unrecognized quirk kind")
}

func TestLoadSessionStressCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stress.csv")
	body := "date,sport,tss\n2026-01-01,cycling,80\n2026-01-02,running,60\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	sessions, err := LoadSessionStressCSV(path)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
}
