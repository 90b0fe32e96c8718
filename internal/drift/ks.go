package drift

import (
	"math"
	"sort"
)

// twoSampleKS computes the two-sample Kolmogorov-Smirnov statistic and an
// asymptotic p-value. The statistic is the maximum distance between the two
// empirical CDFs; the p-value uses the first term of the Kolmogorov series,
// which is accurate enough for thresholding at the sample sizes the drift
// monitor operates on.
func twoSampleKS(sample1, sample2 []float64) (statistic, pValue float64) {
	n1, n2 := len(sample1), len(sample2)
	if n1 == 0 || n2 == 0 {
		return 0, 1
	}

	sorted1 := append([]float64(nil), sample1...)
	sorted2 := append([]float64(nil), sample2...)
	sort.Float64s(sorted1)
	sort.Float64s(sorted2)

	var maxDiff float64
	i1, i2 := 0, 0
	for i1 < n1 || i2 < n2 {
		var x float64
		switch {
		case i1 >= n1:
			x = sorted2[i2]
		case i2 >= n2:
			x = sorted1[i1]
		default:
			x = math.Min(sorted1[i1], sorted2[i2])
		}

		for i1 < n1 && sorted1[i1] <= x {
			i1++
		}
		for i2 < n2 && sorted2[i2] <= x {
			i2++
		}

		cdf1 := float64(i1) / float64(n1)
		cdf2 := float64(i2) / float64(n2)
		if diff := math.Abs(cdf1 - cdf2); diff > maxDiff {
			maxDiff = diff
		}
	}

	if maxDiff <= 0 {
		return 0, 1
	}

	ne := float64(n1) * float64(n2) / float64(n1+n2)
	lambda := maxDiff * math.Sqrt(ne)
	p := 2 * math.Exp(-2*lambda*lambda)
	return maxDiff, math.Max(0, math.Min(1, p))
}
