package engine

// Cylinder is one piston-pressure generator gated by intake/exhaust
// valves, driving an intake waveguide, an exhaust waveguide, and an
// extractor waveguide that carries the exhaust pulse out to the
// collector manifold. Grounded on the reference implementation's
// Cylinder (gen.rs) and generalizing the teacher's per-voice string
// ownership in piano/voice.go (one owner, several owned waveguides).
type Cylinder struct {
	CrankOffset float32 // stable for the cylinder's lifetime, in [0,1)

	intakeWaveguide    *WaveguideSegment
	exhaustWaveguide   *WaveguideSegment
	extractorWaveguide *WaveguideSegment

	intakeOpenRefl    float32
	intakeClosedRefl  float32
	exhaustOpenRefl   float32
	exhaustClosedRefl float32

	PistonMotionFactor float32
	IgnitionFactor     float32
	IgnitionTime       float32 // in [0,1)

	seed uint32
	rng  *xorshiftRNG

	cylSound float32 // piston + ignition term, pre-filtering (vibration export)
}

// NewCylinder builds a cylinder from its waveguide segments (already
// sized to their preset delay lengths, with their static beta/outside
// reflection coefficients set; alpha on the intake/exhaust segments is
// overwritten every Step from the valve gate) and its excitation
// parameters. seed makes the piston-ring noise reproducible for this
// cylinder across rebuilds of the same preset.
func NewCylinder(
	crankOffset float32,
	intakeWaveguide, exhaustWaveguide, extractorWaveguide *WaveguideSegment,
	intakeOpenRefl, intakeClosedRefl, exhaustOpenRefl, exhaustClosedRefl float32,
	pistonMotionFactor, ignitionFactor, ignitionTime float32,
	seed uint32,
) *Cylinder {
	return &Cylinder{
		CrankOffset:        crankOffset,
		intakeWaveguide:    intakeWaveguide,
		exhaustWaveguide:   exhaustWaveguide,
		extractorWaveguide: extractorWaveguide,
		intakeOpenRefl:     intakeOpenRefl,
		intakeClosedRefl:   intakeClosedRefl,
		exhaustOpenRefl:    exhaustOpenRefl,
		exhaustClosedRefl:  exhaustClosedRefl,
		PistonMotionFactor: pistonMotionFactor,
		IgnitionFactor:     ignitionFactor,
		IgnitionTime:       ignitionTime,
		seed:               seed,
		rng:                newXorshiftRNG(seed),
	}
}

// pistonNoiseGain scales the white-noise component added to the
// piston's mechanical excitation; a small fixed fraction, matching the
// "small white-noise term" named in SPEC_FULL §4.4. It rides on
// PistonMotionFactor rather than being added unconditionally, so a
// zeroed piston motion factor still yields a silent cylinder.
const pistonNoiseGain = 0.02

// Step advances the cylinder by one sample given the engine's crank
// phase, the valve-shift offsets, and the manifold's previous-sample
// collector feed (the running exhaust pressure shared across all
// cylinders' extractors, normalized by cylinder count). It returns the
// cylinder's three bus contributions: intake, exhaust, vibration.
//
// The exhaust waveguide's outside-end injection is the extractor's own
// cylinder-side pop from this same tick — a feedback loop between the
// runner and the extractor that the reference implementation's
// Cylinder::pop/push pair also relies on, and which §4.4 leaves
// unstated beyond "symmetrically inject".
func (c *Cylinder) Step(enginePhase, intakeShift, exhaustShift, exhaustCollector float32) (intakeOut, exhaustOut, vibrationOut float32) {
	crank := frac(enginePhase + c.CrankOffset)

	piston := (pistonMotion(crank) + c.rng.step()*pistonNoiseGain) * c.PistonMotionFactor
	ignition := ignitionPulse(crank, c.IgnitionTime) * c.IgnitionFactor
	c.cylSound = piston + ignition

	inGate := intakeValveGate(frac(crank + intakeShift))
	exGate := exhaustValveGate(frac(crank + exhaustShift))

	c.intakeWaveguide.Alpha = c.intakeClosedRefl + (c.intakeOpenRefl-c.intakeClosedRefl)*inGate
	c.exhaustWaveguide.Alpha = c.exhaustClosedRefl + (c.exhaustOpenRefl-c.exhaustClosedRefl)*exGate

	_, in1 := c.intakeWaveguide.Pop()
	_, ex1 := c.exhaustWaveguide.Pop()
	extNear, extFar := c.extractorWaveguide.Pop()

	c.intakeWaveguide.Update(c.cylSound*(1-inGate), 0)
	c.exhaustWaveguide.Update(c.cylSound*(1-exGate), extNear)
	c.extractorWaveguide.Update(ex1, exhaustCollector)

	return in1, extFar, c.cylSound
}

// Reset clears all three waveguides and re-seeds the RNG so noise is
// reproducible from the same starting point.
func (c *Cylinder) Reset() {
	c.intakeWaveguide.Reset()
	c.exhaustWaveguide.Reset()
	c.extractorWaveguide.Reset()
	c.rng.reset(c.seed)
	c.cylSound = 0
}
