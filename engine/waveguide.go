package engine

// waveguideMaxAmplitude is the level beyond which WaveguideSegment
// starts compressing its output to fight runaway feedback loops
// (e.g. a misconfigured reflection pair close to +-1). Mirrors the
// reference implementation's WAVEGUIDE_MAX_AMP guard.
const waveguideMaxAmplitude = 20.0

// WaveguideSegment models a lossy 1-D acoustic pipe as a bidirectional
// pair of delay lines with reflective terminations, grounded on the
// reference gen.rs WaveGuide and generalizing the teacher's single
// delay StringWaveguide into a two-chamber pair.
type WaveguideSegment struct {
	chamber0 *DelayLine // carries the wave traveling toward the closed end
	chamber1 *DelayLine // carries the return wave

	delaySamples float32
	Alpha        float32 // reflection coefficient at the closed end
	Beta         float32 // reflection coefficient at the open end

	x0, x1 float32 // most recent popped outputs, used by Update

	dampened bool // set when the last Pop clamped a runaway sample
}

// NewWaveguideSegment creates a segment with both chambers sized for
// delaySamples of history and the given terminal reflection
// coefficients.
func NewWaveguideSegment(delaySamples, alpha, beta float32) *WaveguideSegment {
	return &WaveguideSegment{
		chamber0:     NewDelayLine(delaySamples),
		chamber1:     NewDelayLine(delaySamples),
		delaySamples: delaySamples,
		Alpha:        alpha,
		Beta:         beta,
	}
}

// dampen compresses samples beyond waveguideMaxAmplitude to prevent a
// misconfigured or transiently unstable segment from diverging.
func dampen(sample float32) (float32, bool) {
	abs := sample
	if abs < 0 {
		abs = -abs
	}
	if abs <= waveguideMaxAmplitude {
		return sample, false
	}
	sign := float32(1)
	if sample < 0 {
		sign = -1
	}
	compressed := sign * (-1/(abs-waveguideMaxAmplitude+1) + 1 + waveguideMaxAmplitude)
	return compressed, true
}

// Pop returns the two outputs of the segment: x0 is the output at the
// alpha (closed) end, x1 is the output at the beta (open) end. Callers
// must Pop before the corresponding Update in the same tick.
func (w *WaveguideSegment) Pop() (x0, x1 float32) {
	raw1, d1 := dampen(w.chamber1.SampleAt(w.delaySamples))
	raw0, d0 := dampen(w.chamber0.SampleAt(w.delaySamples))
	w.dampened = d0 || d1
	w.x1 = raw1
	w.x0 = raw0
	return w.x0, w.x1
}

// Update injects new samples at both ends, reflecting the tail of each
// direction into the opposite chamber, and advances both delay lines
// by one sample.
func (w *WaveguideSegment) Update(newX0, newX1 float32) {
	c0in := flushDenormal(newX0 + w.Alpha*w.x1)
	c1in := flushDenormal(newX1 + w.Beta*w.x0)
	w.chamber0.Advance(c0in)
	w.chamber1.Advance(c1in)
}

// Dampened reports whether the most recent Pop had to clamp a runaway
// sample (diagnostic only; does not affect ArithmeticUnstable).
func (w *WaveguideSegment) Dampened() bool {
	return w.dampened
}

// Reset zeros both chambers.
func (w *WaveguideSegment) Reset() {
	w.chamber0.Clear()
	w.chamber1.Clear()
	w.x0, w.x1 = 0, 0
	w.dampened = false
}
