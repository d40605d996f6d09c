package engine

// flushDenormal zeros x once its magnitude falls below 1e-30, well
// before it could decay into float32's subnormal range; adapted
// from the teacher's FlushDenormals: long-running feedback loops (the
// low-pass filters and waveguide delay lines) can ring down into
// denormal floats that are many times slower to compute on most FPUs,
// so every recurring accumulator flushes through this before it's
// stored back into state.
func flushDenormal(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}
	return x
}
