package engine

import "github.com/cwbudde/enginesound/preset"

// NewEngine constructs an Engine from a validated parameter record.
// Returns ConfigInvalid, carrying record.Validate's message, without
// constructing anything if the record fails validation.
func NewEngine(record preset.Engine) (*Engine, error) {
	if err := record.Validate(); err != nil {
		return nil, configInvalid("%s", err)
	}

	sampleRate := record.SampleRate
	if sampleRate <= 0 {
		sampleRate = 48000
	}

	e := &Engine{
		sampleRate:              sampleRate,
		rpmTarget:               float32(record.RPM),
		rpmCurrent:              float32(record.RPM),
		rpmFilter:               NewLowPassFilter(rpmFilterDelaySeconds, sampleRate),
		intakeVolume:            float32(record.IntakeVolume),
		exhaustVolume:           float32(record.ExhaustVolume),
		vibrationVolume:         float32(record.VibrationVolume),
		masterVolume:            float32(record.MasterVolume),
		intakeValveShift:        float32(record.IntakeValveShift),
		exhaustValveShift:       float32(record.ExhaustValveShift),
		intakeNoiseFactor:       float32(record.IntakeNoiseFactor),
		intakeNoiseRNG:          newXorshiftRNG(intakeNoiseSeed),
		intakeNoiseLP:           NewLowPassFilter(float32(record.IntakeNoiseLP), sampleRate),
		vibrationFilter:         NewLowPassFilter(float32(record.VibrationFilterLP), sampleRate),
		crankshaftFluctuation:   float32(record.CrankshaftFluctuation),
		crankshaftRNG:           newXorshiftRNG(crankshaftNoiseSeed),
		crankshaftFluctuationLP: NewLowPassFilter(float32(record.CrankshaftFluctuationLP), sampleRate),
	}

	e.cylinders = make([]*Cylinder, len(record.Cylinders))
	for i, cr := range record.Cylinders {
		e.cylinders[i] = buildCylinder(cr, sampleRate, cylinderSeed(i))
	}
	e.muffler = buildMuffler(record.Muffler, sampleRate)

	return e, nil
}

// Rebuild constructs a replacement Engine from a fully-formed parameter
// record; the receiver is left untouched so a validation failure never
// disturbs the live instance (see control.Handle).
func (e *Engine) Rebuild(record preset.Engine) (*Engine, error) {
	return NewEngine(record)
}

func buildCylinder(rec preset.Cylinder, sampleRate int, seed uint32) *Cylinder {
	return NewCylinder(
		float32(rec.CrankOffset),
		buildWaveguide(rec.IntakeWaveguide, sampleRate),
		buildWaveguide(rec.ExhaustWaveguide, sampleRate),
		buildWaveguide(rec.ExtractorWaveguide, sampleRate),
		float32(rec.IntakeOpenRefl), float32(rec.IntakeClosedRefl),
		float32(rec.ExhaustOpenRefl), float32(rec.ExhaustClosedRefl),
		float32(rec.PistonMotionFactor), float32(rec.IgnitionFactor), float32(rec.IgnitionTime),
		seed,
	)
}

func buildMuffler(rec preset.Muffler, sampleRate int) *Muffler {
	elements := make([]*WaveguideSegment, len(rec.Elements))
	for i, el := range rec.Elements {
		elements[i] = buildWaveguide(el, sampleRate)
	}
	return NewMuffler(buildWaveguide(rec.StraightPipe, sampleRate), elements)
}

func buildWaveguide(rec preset.Waveguide, sampleRate int) *WaveguideSegment {
	delaySamples := float32(rec.Delay) * float32(sampleRate)
	return NewWaveguideSegment(delaySamples, float32(rec.Alpha), float32(rec.Beta))
}

// cylinderSeed derives a reproducible, decorrelated RNG seed per
// cylinder index from a fixed base, so rebuilding the same preset
// reproduces the same noise sequence per cylinder.
func cylinderSeed(i int) uint32 {
	return baseCylinderSeed + uint32(i)*0x9e3779b1
}
