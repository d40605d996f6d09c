package preset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJSONAppliesGlobalFields(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{
  "rpm": 3200,
  "intake_volume": 0.4,
  "exhaust_volume": 0.8,
  "engine_vibrations_volume": 0.15,
  "master_volume": 0.5,
  "intake_noise_factor": 0.02,
  "intake_noise_lp": { "delay": 0.002 },
  "engine_vibration_filter": { "delay": 0.0015 },
  "intake_valve_shift": 0.01,
  "exhaust_valve_shift": -0.01,
  "crankshaft_fluctuation": 0.05,
  "crankshaft_fluctuation_lp": { "delay": 0.01 },
  "cylinders": [
    {
      "crank_offset": 0,
      "intake_waveguide": { "chamber0": { "samples": { "delay": 0.02 } }, "alpha": -0.2, "beta": -0.2 },
      "exhaust_waveguide": { "chamber0": { "samples": { "delay": 0.02 } }, "alpha": -0.2, "beta": -0.2 },
      "extractor_waveguide": { "chamber0": { "samples": { "delay": 0.05 } }, "alpha": -0.1, "beta": -0.1 },
      "intake_open_refl": -0.9,
      "intake_closed_refl": 0.9,
      "exhaust_open_refl": -0.9,
      "exhaust_closed_refl": 0.9,
      "piston_motion_factor": 0.1,
      "ignition_factor": 1.0,
      "ignition_time": 0.06
    }
  ],
  "muffler": {
    "straight_pipe": { "chamber0": { "samples": { "delay": 0.1 } }, "alpha": -0.1, "beta": -0.1 },
    "muffler_elements": [
      { "chamber0": { "samples": { "delay": 0.03 } }, "alpha": -0.1, "beta": -0.1 }
    ]
  }
}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}

	e, err := LoadJSON(presetPath, 48000)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if e.RPM != 3200 {
		t.Fatalf("rpm mismatch: %v", e.RPM)
	}
	if e.IntakeVolume != 0.4 || e.ExhaustVolume != 0.8 || e.VibrationVolume != 0.15 {
		t.Fatalf("volume mismatch: %+v", e)
	}
	if e.MasterVolume != 0.5 {
		t.Fatalf("master_volume mismatch: %v", e.MasterVolume)
	}
	if len(e.Cylinders) != 1 {
		t.Fatalf("expected 1 cylinder, got %d", len(e.Cylinders))
	}
	cyl := e.Cylinders[0]
	if cyl.IntakeWaveguide.Delay != 0.02 || cyl.IntakeWaveguide.Alpha != -0.2 {
		t.Fatalf("intake waveguide mismatch: %+v", cyl.IntakeWaveguide)
	}
	if len(e.Muffler.Elements) != 1 {
		t.Fatalf("expected 1 muffler element, got %d", len(e.Muffler.Elements))
	}
}

func TestLoadJSONRejectsNonPositiveRPM(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{"rpm": 0}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	if _, err := LoadJSON(presetPath, 48000); err == nil {
		t.Fatalf("expected error for non-positive rpm")
	}
}

func TestLoadJSONRejectsOutOfRangeReflection(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{
  "cylinders": [
    {
      "intake_waveguide": { "chamber0": { "samples": { "delay": 0.02 } }, "alpha": -1.5, "beta": 0 },
      "exhaust_waveguide": { "chamber0": { "samples": { "delay": 0.02 } }, "alpha": 0, "beta": 0 },
      "extractor_waveguide": { "chamber0": { "samples": { "delay": 0.05 } }, "alpha": 0, "beta": 0 }
    }
  ]
}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	if _, err := LoadJSON(presetPath, 48000); err == nil {
		t.Fatalf("expected error for out-of-range reflection coefficient")
	}
}

func TestLoadJSONEmptyCylindersKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{"cylinders": []}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	e, err := LoadJSON(presetPath, 48000)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	// An empty cylinders array in the document leaves the default's
	// single cylinder in place (ApplyFile only replaces the slice when
	// the document supplies at least one entry).
	if len(e.Cylinders) == 0 {
		t.Fatalf("expected default cylinder to survive an empty override")
	}
}

func TestLoadJSONRejectsNonPositiveDelay(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{
  "cylinders": [
    {
      "intake_waveguide": { "chamber0": { "samples": { "delay": 0 } }, "alpha": 0, "beta": 0 },
      "exhaust_waveguide": { "chamber0": { "samples": { "delay": 0.02 } }, "alpha": 0, "beta": 0 },
      "extractor_waveguide": { "chamber0": { "samples": { "delay": 0.05 } }, "alpha": 0, "beta": 0 }
    }
  ]
}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	if _, err := LoadJSON(presetPath, 48000); err == nil {
		t.Fatalf("expected error for a non-positive waveguide delay")
	}
}

func TestLoadJSONRejectsOutOfRangeIgnitionTime(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{
  "cylinders": [
    {
      "ignition_time": 1.2,
      "intake_waveguide": { "chamber0": { "samples": { "delay": 0.02 } }, "alpha": 0, "beta": 0 },
      "exhaust_waveguide": { "chamber0": { "samples": { "delay": 0.02 } }, "alpha": 0, "beta": 0 },
      "extractor_waveguide": { "chamber0": { "samples": { "delay": 0.05 } }, "alpha": 0, "beta": 0 }
    }
  ]
}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	if _, err := LoadJSON(presetPath, 48000); err == nil {
		t.Fatalf("expected error for an out-of-range ignition_time")
	}
}

func TestNewDefaultEngineValidates(t *testing.T) {
	e := NewDefaultEngine(48000)
	if err := e.Validate(); err != nil {
		t.Fatalf("default engine record must validate: %v", err)
	}
}

func TestMarshalLoadFromBytesRoundTrip(t *testing.T) {
	original := NewDefaultEngine(48000)
	original.RPM = 4500
	original.IntakeVolume = 0.42

	b, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	reloaded, err := LoadFromBytes(b, 48000)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}

	if reloaded.RPM != original.RPM || reloaded.IntakeVolume != original.IntakeVolume {
		t.Fatalf("scalar round-trip mismatch: got=%+v want rpm=%v intake=%v", reloaded, original.RPM, original.IntakeVolume)
	}
	if len(reloaded.Cylinders) != len(original.Cylinders) {
		t.Fatalf("cylinder count mismatch: got=%d want=%d", len(reloaded.Cylinders), len(original.Cylinders))
	}
	if reloaded.Cylinders[0].IntakeWaveguide.Delay != original.Cylinders[0].IntakeWaveguide.Delay {
		t.Fatalf("waveguide delay round-trip mismatch: got=%v want=%v",
			reloaded.Cylinders[0].IntakeWaveguide.Delay, original.Cylinders[0].IntakeWaveguide.Delay)
	}
}
