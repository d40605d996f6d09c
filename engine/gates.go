package engine

import "math"

const (
	pi2 = 2 * math.Pi
	pi4 = 4 * math.Pi
)

// frac returns x - floor(x), wrapping into [0, 1).
func frac(x float32) float32 {
	f := x - float32(math.Floor(float64(x)))
	if f < 0 {
		f++
	}
	return f
}

// intakeValveGate returns the smooth, normalized (0..1) intake-valve
// opening for a crank position already shifted by s_intake, per
// SPEC_FULL §4.4: a sine-shaped ramp active over (0, 0.25) of the
// cycle. Grounded on the reference implementation's intake_valve.
func intakeValveGate(crankPos float32) float32 {
	if crankPos <= 0 || crankPos >= 0.25 {
		return 0
	}
	return float32(math.Sin(float64(crankPos) * pi4))
}

// exhaustValveGate returns the smooth, normalized (0..1) exhaust-valve
// opening, active over (0.75, 1.0) of the cycle. Grounded on the
// reference implementation's exhaust_valve (negated sine so the gate
// is non-negative across its active window).
func exhaustValveGate(crankPos float32) float32 {
	if crankPos <= 0.75 || crankPos >= 1.0 {
		return 0
	}
	return float32(-math.Sin(float64(crankPos) * pi4))
}

// pistonMotion is the deterministic piston displacement/pressure term
// driving mechanical excitation, independent of ignition.
func pistonMotion(crankPos float32) float32 {
	return float32(math.Cos(float64(crankPos) * pi4))
}

// ignitionPulse is a short combustion pressure pulse: a positive
// half-sine that starts at crank position 0.5 and lasts ignitionTime/2
// of the cycle. ignitionTime sets the pulse's width, not its position;
// the pulse is not centered on ignitionTime. Grounded on the reference
// implementation's fuel_ignition.
func ignitionPulse(crankPos, ignitionTime float32) float32 {
	if ignitionTime <= 0 {
		return 0
	}
	upper := 0.5 + ignitionTime/2
	if crankPos <= 0.5 || crankPos >= upper {
		return 0
	}
	return float32(math.Sin(float64((crankPos - 0.5) / ignitionTime * pi2)))
}
