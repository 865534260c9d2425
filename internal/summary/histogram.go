package summary

import (
	"demography/pkg/serrors"
	"math"
	"slices"
)

// Histogram counts values into equal-width bins. Edges has one more element
// than Counts; every bin is half-open except the last, which includes its
// right edge.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// Doane bins values with Doane's rule, which adds bins for skewed data on top
// of Sturges' 1+log2(n). Identical values get a single bin of width one
// centred on them.
func Doane(values []float64) (Histogram, error) {
	if len(values) == 0 {
		return Histogram{}, serrors.With(serrors.ErrBadRequest, "no values to bin")
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Histogram{}, serrors.With(serrors.ErrBadRequest, "cannot bin %g at index %d", v, i)
		}
	}

	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	bins := 1
	if width := doaneWidth(values); width > 0 {
		bins = max(1, int(math.Ceil((hi-lo)/width)))
	}

	h := Histogram{
		Edges:  make([]float64, bins+1),
		Counts: make([]int, bins),
	}
	step := (hi - lo) / float64(bins)
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*step
	}
	h.Edges[bins] = hi

	for _, v := range values {
		i := min(int((v-lo)/step), bins-1)
		h.Counts[i]++
	}

	return h, nil
}

// doaneWidth returns the bin width of Doane's rule, or 0 when it is undefined
// (fewer than three values or no spread).
func doaneWidth(values []float64) float64 {
	if len(values) <= 2 {
		return 0
	}

	n := float64(len(values))
	m := mean(values)

	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	sigma := math.Sqrt(ss / n)
	if sigma == 0 {
		return 0
	}

	var g1 float64
	for _, v := range values {
		z := (v - m) / sigma
		g1 += z * z * z
	}
	g1 /= n

	sg1 := math.Sqrt(6 * (n - 2) / ((n + 1) * (n + 3)))
	span := slices.Max(values) - slices.Min(values)

	return span / (1 + math.Log2(n) + math.Log2(1+math.Abs(g1)/sg1))
}
