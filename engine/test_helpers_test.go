package engine

import (
	"math"
	"testing"

	"github.com/cwbudde/enginesound/preset"
)

func windowRMS(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func maxAbs(samples []float32) float64 {
	var m float64
	for _, s := range samples {
		v := math.Abs(float64(s))
		if v > m {
			m = v
		}
	}
	return m
}

// countLocalMaxima counts strict interior local maxima, ignoring runs
// that don't clear minProminence above the local neighborhood.
func countLocalMaxima(samples []float32, minProminence float32) int {
	count := 0
	for i := 1; i < len(samples)-1; i++ {
		if samples[i] > samples[i-1] && samples[i] >= samples[i+1] && samples[i] > minProminence {
			count++
		}
	}
	return count
}

// autocorrelationFundamental estimates the fundamental frequency of a
// window via normalized autocorrelation peak search, mirroring the
// teacher's DFT-peak test helpers but in the time domain (cheaper for
// low fundamentals where the window would need to be very large for a
// DFT bin to resolve them).
func autocorrelationFundamental(samples []float32, sampleRate int, minHz, maxHz float64) float64 {
	minLag := int(float64(sampleRate) / maxHz)
	maxLag := int(float64(sampleRate) / minHz)
	if maxLag >= len(samples) {
		maxLag = len(samples) - 1
	}
	bestLag := minLag
	bestScore := -math.MaxFloat64
	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64
		n := 0
		for i := 0; i+lag < len(samples); i++ {
			sum += float64(samples[i]) * float64(samples[i+lag])
			n++
		}
		sum /= float64(n)
		if sum > bestScore {
			bestScore = sum
			bestLag = lag
		}
	}
	return float64(sampleRate) / float64(bestLag)
}

func singleCylinderRecord(sampleRate int) preset.Engine {
	e := *preset.NewDefaultEngine(sampleRate)
	return e
}

func mustEngine(t *testing.T, record preset.Engine) *Engine {
	t.Helper()
	e, err := NewEngine(record)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}
