package preset

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is the JSON schema for enginesound presets. Pointer fields
// distinguish "unset" from "zero" so ApplyFile only overrides what the
// document actually specifies, mirroring the teacher's piano preset
// schema's *float32/*bool fields.
type File struct {
	RPM                    *float64 `json:"rpm"`
	IntakeVolume           *float64 `json:"intake_volume"`
	ExhaustVolume          *float64 `json:"exhaust_volume"`
	EngineVibrationsVolume *float64 `json:"engine_vibrations_volume"`
	MasterVolume           *float64 `json:"master_volume"`

	Cylinders []CylinderRecord `json:"cylinders"`

	IntakeNoiseFactor *float64     `json:"intake_noise_factor"`
	IntakeNoiseLP     *DelayRecord `json:"intake_noise_lp"`

	EngineVibrationFilter *DelayRecord `json:"engine_vibration_filter"`

	Muffler *MufflerRecord `json:"muffler"`

	IntakeValveShift  *float64 `json:"intake_valve_shift"`
	ExhaustValveShift *float64 `json:"exhaust_valve_shift"`

	CrankshaftFluctuation   *float64     `json:"crankshaft_fluctuation"`
	CrankshaftFluctuationLP *DelayRecord `json:"crankshaft_fluctuation_lp"`
}

// DelayRecord is the `{ delay }` sub-record shared by every LowPassFilter
// field in the schema.
type DelayRecord struct {
	Delay float64 `json:"delay"`
}

// ChamberRecord holds one delay-line chamber of a WaveguideRecord.
type ChamberRecord struct {
	Samples DelayRecord `json:"samples"`
}

// WaveguideRecord mirrors a WaveguideSegment's construction parameters.
// chamber0 and chamber1 are accepted as independent sub-records for
// forward compatibility with the reference schema, but both chambers
// of a WaveguideSegment always share one physical pipe length: chamber0's
// delay is authoritative, and chamber1's is used only when chamber0 is
// absent (matches the reference implementation's single `delay` per
// WaveGuide::new).
type WaveguideRecord struct {
	Chamber0 ChamberRecord `json:"chamber0"`
	Chamber1 ChamberRecord `json:"chamber1"`
	Alpha    float64       `json:"alpha"`
	Beta     float64       `json:"beta"`
}

func (w WaveguideRecord) delaySeconds() float64 {
	if w.Chamber0.Samples.Delay != 0 {
		return w.Chamber0.Samples.Delay
	}
	return w.Chamber1.Samples.Delay
}

// CylinderRecord is one entry of the `cylinders` array.
type CylinderRecord struct {
	CrankOffset float64 `json:"crank_offset"`

	IntakeWaveguide    WaveguideRecord `json:"intake_waveguide"`
	ExhaustWaveguide   WaveguideRecord `json:"exhaust_waveguide"`
	ExtractorWaveguide WaveguideRecord `json:"extractor_waveguide"`

	IntakeOpenRefl    float64 `json:"intake_open_refl"`
	IntakeClosedRefl  float64 `json:"intake_closed_refl"`
	ExhaustOpenRefl   float64 `json:"exhaust_open_refl"`
	ExhaustClosedRefl float64 `json:"exhaust_closed_refl"`

	PistonMotionFactor float64 `json:"piston_motion_factor"`
	IgnitionFactor     float64 `json:"ignition_factor"`
	IgnitionTime       float64 `json:"ignition_time"`
}

// MufflerRecord is the `muffler` sub-document.
type MufflerRecord struct {
	StraightPipe    WaveguideRecord   `json:"straight_pipe"`
	MufflerElements []WaveguideRecord `json:"muffler_elements"`
}

// LoadJSON reads a preset file and returns a fully-resolved, validated
// Engine record ready for engine.NewEngine/Rebuild.
func LoadJSON(path string, sampleRate int) (*Engine, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	e := NewDefaultEngine(sampleRate)
	if err := ApplyFile(e, &f); err != nil {
		return nil, fmt.Errorf("apply %s: %w", path, err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return e, nil
}

// LoadFromBytes is LoadJSON for an in-memory document, used by drivers
// that already hold the preset bytes (and by the round-trip tests
// alongside Marshal).
func LoadFromBytes(b []byte, sampleRate int) (*Engine, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	e := NewDefaultEngine(sampleRate)
	if err := ApplyFile(e, &f); err != nil {
		return nil, fmt.Errorf("apply preset: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate preset: %w", err)
	}
	return e, nil
}

// Marshal serializes a fully-resolved Engine record back into the
// canonical preset JSON schema, the inverse of ApplyFile.
func Marshal(e *Engine) ([]byte, error) {
	f := File{
		RPM:                    &e.RPM,
		IntakeVolume:           &e.IntakeVolume,
		ExhaustVolume:          &e.ExhaustVolume,
		EngineVibrationsVolume: &e.VibrationVolume,
		MasterVolume:           &e.MasterVolume,
		Cylinders:              make([]CylinderRecord, len(e.Cylinders)),
		IntakeNoiseFactor:      &e.IntakeNoiseFactor,
		IntakeNoiseLP:          &DelayRecord{Delay: e.IntakeNoiseLP},
		EngineVibrationFilter:  &DelayRecord{Delay: e.VibrationFilterLP},
		Muffler: &MufflerRecord{
			StraightPipe:    waveguideToRecord(e.Muffler.StraightPipe),
			MufflerElements: make([]WaveguideRecord, len(e.Muffler.Elements)),
		},
		IntakeValveShift:        &e.IntakeValveShift,
		ExhaustValveShift:       &e.ExhaustValveShift,
		CrankshaftFluctuation:   &e.CrankshaftFluctuation,
		CrankshaftFluctuationLP: &DelayRecord{Delay: e.CrankshaftFluctuationLP},
	}
	for i, cyl := range e.Cylinders {
		f.Cylinders[i] = CylinderRecord{
			CrankOffset:        cyl.CrankOffset,
			IntakeWaveguide:    waveguideToRecord(cyl.IntakeWaveguide),
			ExhaustWaveguide:   waveguideToRecord(cyl.ExhaustWaveguide),
			ExtractorWaveguide: waveguideToRecord(cyl.ExtractorWaveguide),
			IntakeOpenRefl:     cyl.IntakeOpenRefl,
			IntakeClosedRefl:   cyl.IntakeClosedRefl,
			ExhaustOpenRefl:    cyl.ExhaustOpenRefl,
			ExhaustClosedRefl:  cyl.ExhaustClosedRefl,
			PistonMotionFactor: cyl.PistonMotionFactor,
			IgnitionFactor:     cyl.IgnitionFactor,
			IgnitionTime:       cyl.IgnitionTime,
		}
	}
	for i, el := range e.Muffler.Elements {
		f.Muffler.MufflerElements[i] = waveguideToRecord(el)
	}

	return json.MarshalIndent(f, "", "  ")
}

func waveguideToRecord(w Waveguide) WaveguideRecord {
	return WaveguideRecord{
		Chamber0: ChamberRecord{Samples: DelayRecord{Delay: w.Delay}},
		Chamber1: ChamberRecord{Samples: DelayRecord{Delay: w.Delay}},
		Alpha:    w.Alpha,
		Beta:     w.Beta,
	}
}

// ApplyFile applies a parsed preset file onto an existing Engine
// record, in the style of the teacher's piano preset.ApplyFile. It
// checks rpm and each cylinder's crank_offset as it copies them; the
// remaining rules are enforced by Engine.Validate.
func ApplyFile(dst *Engine, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination engine record")
	}
	if f == nil {
		return nil
	}

	if f.RPM != nil {
		if *f.RPM <= 0 {
			return fmt.Errorf("rpm must be > 0")
		}
		dst.RPM = *f.RPM
	}
	if f.IntakeVolume != nil {
		dst.IntakeVolume = *f.IntakeVolume
	}
	if f.ExhaustVolume != nil {
		dst.ExhaustVolume = *f.ExhaustVolume
	}
	if f.EngineVibrationsVolume != nil {
		dst.VibrationVolume = *f.EngineVibrationsVolume
	}
	if f.MasterVolume != nil {
		dst.MasterVolume = *f.MasterVolume
	}
	if f.IntakeNoiseFactor != nil {
		dst.IntakeNoiseFactor = *f.IntakeNoiseFactor
	}
	if f.IntakeNoiseLP != nil {
		dst.IntakeNoiseLP = f.IntakeNoiseLP.Delay
	}
	if f.EngineVibrationFilter != nil {
		dst.VibrationFilterLP = f.EngineVibrationFilter.Delay
	}
	if f.IntakeValveShift != nil {
		dst.IntakeValveShift = *f.IntakeValveShift
	}
	if f.ExhaustValveShift != nil {
		dst.ExhaustValveShift = *f.ExhaustValveShift
	}
	if f.CrankshaftFluctuation != nil {
		dst.CrankshaftFluctuation = *f.CrankshaftFluctuation
	}
	if f.CrankshaftFluctuationLP != nil {
		dst.CrankshaftFluctuationLP = f.CrankshaftFluctuationLP.Delay
	}

	if f.Muffler != nil {
		dst.Muffler = Muffler{
			StraightPipe: waveguideFromRecord(f.Muffler.StraightPipe),
			Elements:     make([]Waveguide, len(f.Muffler.MufflerElements)),
		}
		for i, el := range f.Muffler.MufflerElements {
			dst.Muffler.Elements[i] = waveguideFromRecord(el)
		}
	}

	if len(f.Cylinders) > 0 {
		dst.Cylinders = make([]Cylinder, len(f.Cylinders))
		for i, cr := range f.Cylinders {
			if cr.CrankOffset < 0 || cr.CrankOffset >= 1 {
				return fmt.Errorf("cylinders[%d].crank_offset must be in [0,1)", i)
			}
			dst.Cylinders[i] = Cylinder{
				CrankOffset:        cr.CrankOffset,
				IntakeWaveguide:    waveguideFromRecord(cr.IntakeWaveguide),
				ExhaustWaveguide:   waveguideFromRecord(cr.ExhaustWaveguide),
				ExtractorWaveguide: waveguideFromRecord(cr.ExtractorWaveguide),
				IntakeOpenRefl:     cr.IntakeOpenRefl,
				IntakeClosedRefl:   cr.IntakeClosedRefl,
				ExhaustOpenRefl:    cr.ExhaustOpenRefl,
				ExhaustClosedRefl:  cr.ExhaustClosedRefl,
				PistonMotionFactor: cr.PistonMotionFactor,
				IgnitionFactor:     cr.IgnitionFactor,
				IgnitionTime:       cr.IgnitionTime,
			}
		}
	}

	return nil
}

func waveguideFromRecord(r WaveguideRecord) Waveguide {
	return Waveguide{Delay: r.delaySeconds(), Alpha: r.Alpha, Beta: r.Beta}
}
