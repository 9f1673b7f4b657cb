package bench

import (
	"math"
	"strconv"
)

// Metrics are derived from Totals. A ratio whose denominator is zero is NaN,
// meaning undefined; use Defined to test for it.
type Metrics struct {
	Recall    float64
	Precision float64
	F1        float64
}

// ComputeMetrics derives recall, precision and F1 from cumulative totals.
//
// Recall is Match/Ref and precision is Match/Can. F1 is their harmonic mean
// and is undefined when either input is undefined or both are zero.
func ComputeMetrics(t Totals) Metrics {
	m := Metrics{
		Recall:    ratio(t.Match, t.Ref),
		Precision: ratio(t.Match, t.Can),
	}
	m.F1 = harmonic(m.Recall, m.Precision)
	return m
}

func ratio(n, d int) float64 {
	if d == 0 {
		return math.NaN()
	}
	return float64(n) / float64(d)
}

func harmonic(r, p float64) float64 {
	if math.IsNaN(r) || math.IsNaN(p) || r+p == 0 {
		return math.NaN()
	}
	return 2 * r * p / (r + p)
}

// Defined reports whether v is a defined metric value.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// FormatMetric renders a metric for humans: "undefined" for NaN.
func FormatMetric(v float64) string {
	if !Defined(v) {
		return "undefined"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
