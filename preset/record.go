// Package preset holds the JSON preset schema and the resolved,
// validated parameter record that engine.NewEngine/Rebuild consumes.
package preset

import "fmt"

// Engine is a fully-resolved engine parameter record: every field a
// preset document can set, after defaulting and validation. Time
// values are in seconds; reflection coefficients are dimensionless in
// [-1, 1].
type Engine struct {
	SampleRate int

	RPM                                           float64
	IntakeVolume, ExhaustVolume, VibrationVolume float64
	MasterVolume                                 float64

	Cylinders []Cylinder

	IntakeNoiseFactor float64
	IntakeNoiseLP     float64

	VibrationFilterLP float64

	Muffler Muffler

	IntakeValveShift, ExhaustValveShift float64

	CrankshaftFluctuation   float64
	CrankshaftFluctuationLP float64
}

// Cylinder is one cylinder's resolved construction parameters.
type Cylinder struct {
	CrankOffset float64

	IntakeWaveguide, ExhaustWaveguide, ExtractorWaveguide Waveguide

	IntakeOpenRefl, IntakeClosedRefl   float64
	ExhaustOpenRefl, ExhaustClosedRefl float64

	PistonMotionFactor, IgnitionFactor, IgnitionTime float64
}

// Waveguide is a resolved WaveguideSegment's construction parameters.
type Waveguide struct {
	Delay float64 // seconds
	Alpha float64
	Beta  float64
}

// Muffler is the resolved muffler bank.
type Muffler struct {
	StraightPipe Waveguide
	Elements     []Waveguide
}

// NewDefaultEngine returns a minimal, valid single-cylinder engine
// record at the given sample rate — a starting point for ApplyFile or
// for driving the generator with no preset file at all.
func NewDefaultEngine(sampleRate int) *Engine {
	idleWaveguide := Waveguide{Delay: 0.01, Alpha: -0.1, Beta: -0.1}
	return &Engine{
		SampleRate:      sampleRate,
		RPM:             1200,
		IntakeVolume:    0.3,
		ExhaustVolume:   0.7,
		VibrationVolume: 0.2,
		MasterVolume:    0.3,
		Cylinders: []Cylinder{
			{
				CrankOffset:        0,
				IntakeWaveguide:    Waveguide{Delay: 0.02, Alpha: -0.1, Beta: -0.1},
				ExhaustWaveguide:   Waveguide{Delay: 0.02, Alpha: -0.1, Beta: -0.1},
				ExtractorWaveguide: Waveguide{Delay: 0.05, Alpha: -0.1, Beta: -0.1},
				IntakeOpenRefl:     -0.9,
				IntakeClosedRefl:   0.9,
				ExhaustOpenRefl:    -0.9,
				ExhaustClosedRefl:  0.9,
				PistonMotionFactor: 0.1,
				IgnitionFactor:     1.0,
				IgnitionTime:       0.05,
			},
		},
		IntakeNoiseFactor: 0.01,
		IntakeNoiseLP:     0.001,
		VibrationFilterLP: 0.001,
		Muffler: Muffler{
			StraightPipe: Waveguide{Delay: 0.1, Alpha: -0.1, Beta: -0.1},
			Elements:     []Waveguide{idleWaveguide},
		},
		IntakeValveShift:        0,
		ExhaustValveShift:       0,
		CrankshaftFluctuation:   0,
		CrankshaftFluctuationLP: 0.001,
	}
}

// Validate enforces the ConfigInvalid rules: positive delays, |reflection|
// <= 1, at least one cylinder, and ignition_time in [0,1). It never
// mutates the receiver.
func (e *Engine) Validate() error {
	if e.RPM <= 0 {
		return fmt.Errorf("rpm must be > 0, got %v", e.RPM)
	}
	if len(e.Cylinders) == 0 {
		return fmt.Errorf("at least one cylinder is required")
	}
	for i, cyl := range e.Cylinders {
		if cyl.CrankOffset < 0 || cyl.CrankOffset >= 1 {
			return fmt.Errorf("cylinders[%d].crank_offset must be in [0,1), got %v", i, cyl.CrankOffset)
		}
		if cyl.IgnitionTime < 0 || cyl.IgnitionTime >= 1 {
			return fmt.Errorf("cylinders[%d].ignition_time must be in [0,1), got %v", i, cyl.IgnitionTime)
		}
		if err := validateReflection(fmt.Sprintf("cylinders[%d].intake_open_refl", i), cyl.IntakeOpenRefl); err != nil {
			return err
		}
		if err := validateReflection(fmt.Sprintf("cylinders[%d].intake_closed_refl", i), cyl.IntakeClosedRefl); err != nil {
			return err
		}
		if err := validateReflection(fmt.Sprintf("cylinders[%d].exhaust_open_refl", i), cyl.ExhaustOpenRefl); err != nil {
			return err
		}
		if err := validateReflection(fmt.Sprintf("cylinders[%d].exhaust_closed_refl", i), cyl.ExhaustClosedRefl); err != nil {
			return err
		}
		if err := validateWaveguide(fmt.Sprintf("cylinders[%d].intake_waveguide", i), cyl.IntakeWaveguide); err != nil {
			return err
		}
		if err := validateWaveguide(fmt.Sprintf("cylinders[%d].exhaust_waveguide", i), cyl.ExhaustWaveguide); err != nil {
			return err
		}
		if err := validateWaveguide(fmt.Sprintf("cylinders[%d].extractor_waveguide", i), cyl.ExtractorWaveguide); err != nil {
			return err
		}
	}

	if err := validateWaveguide("muffler.straight_pipe", e.Muffler.StraightPipe); err != nil {
		return err
	}
	for i, el := range e.Muffler.Elements {
		if err := validateWaveguide(fmt.Sprintf("muffler.muffler_elements[%d]", i), el); err != nil {
			return err
		}
	}

	return nil
}

func validateWaveguide(path string, w Waveguide) error {
	if w.Delay <= 0 {
		return fmt.Errorf("%s.delay must be > 0, got %v", path, w.Delay)
	}
	if err := validateReflection(path+".alpha", w.Alpha); err != nil {
		return err
	}
	if err := validateReflection(path+".beta", w.Beta); err != nil {
		return err
	}
	return nil
}

func validateReflection(path string, v float64) error {
	if v < -1 || v > 1 {
		return fmt.Errorf("%s must be in [-1,1], got %v", path, v)
	}
	return nil
}
