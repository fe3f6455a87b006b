package stats

import "math"

// wilsonZ is the two-sided 95% normal quantile.
const wilsonZ = 1.959964

// WilsonInterval computes the Wilson score interval for successes in total
// trials. Unlike the normal approximation it stays sane at small n and at
// p near 0 or 1.
func WilsonInterval(successes, total int) Interval {
	if total <= 0 {
		return Interval{Lower: 0, Upper: 1}
	}
	p := float64(successes) / float64(total)
	n := float64(total)
	z := wilsonZ

	denom := 1 + z*z/n
	center := (p + z*z/(2*n)) / denom
	halfWidth := z * math.Sqrt(p*(1-p)/n+z*z/(4*n*n)) / denom

	lower := center - halfWidth
	upper := center + halfWidth
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}
	return Interval{Lower: lower, Upper: upper}
}
