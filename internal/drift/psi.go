package drift

import "math"

// psiEpsilon floors bin probabilities so PSI stays finite when a bin is
// empty on one side.
const psiEpsilon = 1e-4

// CalculatePSI computes the Population Stability Index between two
// probability vectors of equal length. Inputs are renormalized to sum to one
// and floored at a small epsilon, so the result is finite and non-negative
// for any histogram pair with positive mass.
func CalculatePSI(actual, expected []float64) float64 {
	if len(actual) != len(expected) || len(actual) == 0 {
		return 0
	}

	actualNorm := normalize(actual)
	expectedNorm := normalize(expected)

	psi := 0.0
	for i := range actualNorm {
		a := math.Max(actualNorm[i], psiEpsilon)
		e := math.Max(expectedNorm[i], psiEpsilon)
		psi += (a - e) * math.Log(a/e)
	}
	return psi
}

// histogramPSI bins reference and current samples into shared equal-width
// bins over their combined observed range and computes PSI between the two
// normalized histograms. Sample sizes may differ; each histogram is
// normalized by its own total.
func histogramPSI(reference, current []float64, bins int) float64 {
	if len(reference) == 0 || len(current) == 0 {
		return 0
	}

	lo := math.Min(minOf(reference), minOf(current))
	hi := math.Max(maxOf(reference), maxOf(current))
	if hi == lo {
		// Both samples are constant at the same value.
		return 0
	}

	refHist := binCounts(reference, lo, hi, bins)
	curHist := binCounts(current, lo, hi, bins)
	return CalculatePSI(curHist, refHist)
}

func binCounts(values []float64, lo, hi float64, bins int) []float64 {
	width := (hi - lo) / float64(bins)
	counts := make([]float64, bins)
	for _, v := range values {
		bin := int((v - lo) / width)
		if bin >= bins {
			bin = bins - 1
		}
		if bin < 0 {
			bin = 0
		}
		counts[bin]++
	}
	return counts
}

func normalize(values []float64) []float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	out := make([]float64, len(values))
	if sum == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / sum
	}
	return out
}

func minOf(values []float64) float64 {
	lo := values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
	}
	return lo
}

func maxOf(values []float64) float64 {
	hi := values[0]
	for _, v := range values[1:] {
		if v > hi {
			hi = v
		}
	}
	return hi
}
