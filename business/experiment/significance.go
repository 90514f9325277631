package experiment

import "math"

// pairwiseConfidence runs a two-proportion z-test and returns the confidence
// (0-1) that variant A converts better than variant B.
func pairwiseConfidence(aConv, aViews, bConv, bViews int64) float64 {
	if aViews == 0 || bViews == 0 {
		// Need traffic on both sides before the comparison means anything.
		return 0.5
	}

	pA := float64(aConv) / float64(aViews)
	pB := float64(bConv) / float64(bViews)

	// Pooled proportion under the null hypothesis pA = pB.
	pooled := float64(aConv+bConv) / float64(aViews+bViews)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(aViews) + 1/float64(bViews)))

	if se == 0 {
		switch {
		case pA > pB:
			return 1
		case pA < pB:
			return 0
		default:
			return 0.5
		}
	}

	z := (pA - pB) / se

	return normalCDF(z)
}

// wilsonInterval returns the Wilson score interval for a variant's conversion
// proportion, scaled to percent. Tighter than the normal approximation on
// small samples.
func wilsonInterval(conversions, impressions int64, confidence float64) (lower, upper float64) {
	if impressions == 0 {
		return 0, 0
	}

	z := zScore(confidence)
	p := float64(conversions) / float64(impressions)
	n := float64(impressions)

	denom := 1 + z*z/n
	center := (p + z*z/(2*n)) / denom
	spread := (z / denom) * math.Sqrt(p*(1-p)/n+z*z/(4*n*n))

	lower = (center - spread) * 100
	upper = (center + spread) * 100

	if lower < 0 {
		lower = 0
	}
	if upper > 100 {
		upper = 100
	}

	return lower, upper
}

func zScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.95:
		return 1.96
	case confidence >= 0.90:
		return 1.645
	case confidence >= 0.85:
		return 1.44
	default:
		return 1.28
	}
}

// normalCDF approximates the standard normal cumulative distribution using
// Abramowitz & Stegun formula 7.1.26.
func normalCDF(x float64) float64 {
	a1 := 0.254829592
	a2 := -0.284496736
	a3 := 1.421413741
	a4 := -1.453152027
	a5 := 1.061405429
	p := 0.3275911

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt2

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}
