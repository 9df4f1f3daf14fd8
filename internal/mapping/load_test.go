// internal/mapping/load_test.go
package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const fullDoc = `
device:
  name: Ventilation Unit
  manufacturer: Acme
  model: V-200
entities:
  - platform: sensor
    key: supply_temp
    unit: "°C"
    device_class: temperature
    state_class: measurement
    read:
      type: input
      address: 30
      data_type: int16
      scale: 0.1
  - platform: number
    key: target_temp
    min: 10
    max: 30
    step: 0.5
    read:
      type: holding
      address: 5
      data_type: uint16
      scale: 0.1
    write:
      type: holding
      address: 5
      scale: 0.1
  - platform: select
    key: mode
    options:
      - {label: "Auto", value: 0}
      - {label: "Boost", value: 3}
    read: {type: holding, address: 2}
    write: {type: holding, address: 2}
  - platform: select
    key: speed
    options: ["Low", "Mid", "High"]
    read: {type: holding, address: 3}
    write: {type: holding, address: 3}
  - platform: switch
    key: bypass
    read: {type: holding, address: 8, bit: 3}
    write: {type: holding, address: 8, bit: 3}
  - platform: button
    key: filter_reset
    write: {type: holding, address: 12}
`

func TestLoad_FullDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vent.yaml")
	if err := os.WriteFile(path, []byte(fullDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}

	if d.Device != (DeviceInfo{Name: "Ventilation Unit", Manufacturer: "Acme", Model: "V-200"}) {
		t.Fatalf("device = %+v", d.Device)
	}

	keys := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		keys = append(keys, e.Key)
	}
	want := []string{"supply_temp", "target_temp", "mode", "speed", "bypass", "filter_reset"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("entity order = %v, want %v", keys, want)
	}

	// Name defaults to key when absent.
	if d.Entities[0].Name != "supply_temp" {
		t.Fatalf("name default = %q", d.Entities[0].Name)
	}

	st := d.Entities[0]
	if st.Read == nil || st.Read.Type != RegInput || st.Read.DataType != Int16 || st.Read.Scale != 0.1 {
		t.Fatalf("supply_temp read = %+v", st.Read)
	}
	if st.Read.WordOrder != WordOrderAB {
		t.Fatalf("word order default = %q", st.Read.WordOrder)
	}

	// Legacy min/max spellings land in Minimum/Maximum.
	tt := d.Entities[1]
	if tt.Minimum == nil || *tt.Minimum != 10 || tt.Maximum == nil || *tt.Maximum != 30 {
		t.Fatalf("target_temp range = %+v %+v", tt.Minimum, tt.Maximum)
	}
	if tt.Step == nil || *tt.Step != 0.5 {
		t.Fatalf("target_temp step = %+v", tt.Step)
	}

	// Labeled options keep their values; bare labels get index values.
	mode := d.Entities[2]
	if !reflect.DeepEqual(mode.Options, []Option{{"Auto", 0}, {"Boost", 3}}) {
		t.Fatalf("mode options = %+v", mode.Options)
	}
	speed := d.Entities[3]
	if !reflect.DeepEqual(speed.Options, []Option{{"Low", 0}, {"Mid", 1}, {"High", 2}}) {
		t.Fatalf("speed options = %+v", speed.Options)
	}

	bp := d.Entities[4]
	if bp.Read.Bit == nil || *bp.Read.Bit != 3 || bp.Write.Bit == nil || *bp.Write.Bit != 3 {
		t.Fatalf("bypass bits = %+v %+v", bp.Read.Bit, bp.Write.Bit)
	}
	if bp.Read.Width() != 1 {
		t.Fatalf("bit read width = %d", bp.Read.Width())
	}

	// press_value defaults to 1; a button may be write-only.
	fr := d.Entities[5]
	if fr.PressValue != 1 || fr.Read != nil || fr.Write == nil {
		t.Fatalf("filter_reset = %+v", fr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var merr *Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *mapping.Error, got %T", err)
	}
}

func TestLoad_UnparsableYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("device: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var merr *Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *mapping.Error, got %T: %v", err, err)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"b.yaml", "a.yml", "notes.txt", "c.YAML"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := ListFiles(dir)
	want := []string{"a.yml", "b.yaml", "c.YAML"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListFiles = %v, want %v", got, want)
	}
}

func TestListFiles_MissingDir(t *testing.T) {
	if got := ListFiles(filepath.Join(t.TempDir(), "absent")); got != nil {
		t.Fatalf("ListFiles = %v, want nil", got)
	}
}
