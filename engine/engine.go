package engine

import "math"

// rpmFilterDelaySeconds smooths rpm_target -> rpm_current so fast
// parameter edits don't produce zipper noise in the crank velocity.
const rpmFilterDelaySeconds = 0.05

// dcRemovalPole is the single-pole coefficient of the post-mix
// DC-blocking high-pass.
const dcRemovalPole = 0.995

// unstableStreakLimit is the number of consecutive DC-removed samples
// with |y| > 1, measured before the tanh saturator, that counts as one
// ArithmeticUnstable event.
const unstableStreakLimit = 32

// Fixed, distinct seeds for the engine-owned noise sources (never
// shared with a Cylinder's own piston-ring RNG).
const (
	intakeNoiseSeed     uint32 = 0x1234abcd
	crankshaftNoiseSeed uint32 = 0x87654321
	baseCylinderSeed    uint32 = 0xc0ffee
)

// Engine is the top-level sound generator: a crankshaft phase driving
// a bank of Cylinders into three mixing buses (intake, exhaust,
// vibration), a Muffler on the exhaust bus, DC removal, and a soft
// saturator. Grounded on the reference implementation's Generator
// (gen.rs) and the teacher's Piano (piano/piano.go) as the "one struct
// owns everything reachable from Pull" shape.
type Engine struct {
	sampleRate int

	rpmTarget  float32
	rpmCurrent float32
	rpmFilter  *LowPassFilter

	phase float32 // crank phase in [0,1)

	intakeVolume, exhaustVolume, vibrationVolume float32
	masterVolume                                 float32

	cylinders        []*Cylinder
	exhaustCollector float32 // running manifold feedback, normalized by cylinder count each sample

	muffler *Muffler

	intakeValveShift, exhaustValveShift float32

	intakeNoiseFactor float32
	intakeNoiseRNG    *xorshiftRNG
	intakeNoiseLP     *LowPassFilter

	vibrationFilter *LowPassFilter

	crankshaftFluctuation   float32
	crankshaftRNG           *xorshiftRNG
	crankshaftFluctuationLP *LowPassFilter

	dcPrevIn, dcPrevOut float32

	unstableStreak int
	unstableEvents int
}

// Pull fills buffer with len(buffer) successive samples. Deterministic
// given the engine's current state and parameters held constant.
func (e *Engine) Pull(buffer []float32) {
	for i := range buffer {
		buffer[i] = e.step()
	}
}

func (e *Engine) step() float32 {
	e.rpmCurrent = e.rpmFilter.Process(e.rpmTarget)
	omega := e.rpmCurrent / 60

	if e.crankshaftFluctuation != 0 {
		noise := e.crankshaftRNG.step() * e.crankshaftFluctuation
		omega += e.crankshaftFluctuationLP.Process(noise)
	}

	e.phase = frac(e.phase + omega/float32(e.sampleRate)*0.5)

	collectorFeed := e.exhaustCollector
	if n := len(e.cylinders); n > 0 {
		collectorFeed /= float32(n)
	}

	var intakeSum, exhaustSum, vibrationSum, nextCollector float32
	for _, cyl := range e.cylinders {
		in, ex, vib := cyl.Step(e.phase, e.intakeValveShift, e.exhaustValveShift, collectorFeed)
		intakeSum += in
		exhaustSum += ex
		vibrationSum += vib
		nextCollector += ex
	}
	e.exhaustCollector = nextCollector

	intakeSum += e.intakeNoiseLP.Process(e.intakeNoiseRNG.step() * e.intakeNoiseFactor)

	exhaustOut := e.muffler.Step(exhaustSum)
	vibrationOut := e.vibrationFilter.Process(vibrationSum)

	y := intakeSum*e.intakeVolume + exhaustOut*e.exhaustVolume + vibrationOut*e.vibrationVolume
	y *= e.masterVolume

	hp := y - e.dcPrevIn + dcRemovalPole*e.dcPrevOut
	e.dcPrevIn = y
	e.dcPrevOut = hp

	e.trackStability(hp)

	return float32(math.Tanh(float64(hp)))
}

func (e *Engine) trackStability(preSaturation float32) {
	abs := preSaturation
	if abs < 0 {
		abs = -abs
	}
	if abs <= 1 {
		e.unstableStreak = 0
		return
	}
	e.unstableStreak++
	if e.unstableStreak == unstableStreakLimit {
		e.unstableEvents++
		e.unstableStreak = 0
	}
}

// UnstableSampleCount reports how many times the DC-removed signal has
// stayed saturated (|y| > 1) for unstableStreakLimit consecutive
// samples since construction or the last ResetSampler.
func (e *Engine) UnstableSampleCount() int {
	return e.unstableEvents
}

// SetParameter updates a single scalar parameter atomically.
// Structural changes (cylinder count, waveguide delay lengths) are
// rejected here and must go through Rebuild.
func (e *Engine) SetParameter(field string, value float64) error {
	v := float32(value)
	switch field {
	case "rpm":
		if v <= 0 {
			return configInvalid("rpm must be positive, got %v", value)
		}
		e.rpmTarget = v
	case "intake_volume":
		e.intakeVolume = v
	case "exhaust_volume":
		e.exhaustVolume = v
	case "engine_vibrations_volume":
		e.vibrationVolume = v
	case "master_volume":
		e.masterVolume = v
	case "intake_noise_factor":
		e.intakeNoiseFactor = v
	case "intake_valve_shift":
		e.intakeValveShift = v
	case "exhaust_valve_shift":
		e.exhaustValveShift = v
	case "crankshaft_fluctuation":
		e.crankshaftFluctuation = v
	case "intake_noise_lp":
		e.intakeNoiseLP.SetDelay(v, e.sampleRate)
	case "engine_vibration_filter":
		e.vibrationFilter.SetDelay(v, e.sampleRate)
	case "crankshaft_fluctuation_lp":
		e.crankshaftFluctuationLP.SetDelay(v, e.sampleRate)
	default:
		return configInvalid("field %q is structural or unknown; use Rebuild", field)
	}
	return nil
}

// ResetSampler zeros all filter and waveguide state. The crank phase
// is retained so a reset does not audibly jump the engine's position
// in its cycle.
func (e *Engine) ResetSampler() {
	e.rpmFilter.Reset()
	e.rpmCurrent = e.rpmTarget
	e.intakeNoiseLP.Reset()
	e.vibrationFilter.Reset()
	e.crankshaftFluctuationLP.Reset()
	e.dcPrevIn, e.dcPrevOut = 0, 0
	e.unstableStreak, e.unstableEvents = 0, 0
	e.exhaustCollector = 0

	for _, cyl := range e.cylinders {
		cyl.Reset()
	}
	e.muffler.Reset()
}
