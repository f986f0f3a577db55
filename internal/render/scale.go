// Package render draws the semantic map: a scatterplot of the document layout with
// per-document opacity taken from the latest search intensities.
package render

import "math"

// LinearScale maps a continuous domain onto a range.
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// NewLinearScale uses the extent of values as the domain.
func NewLinearScale(values []float64, r0, r1 float64) LinearScale {
	lo, hi := extent(values)
	return LinearScale{D0: lo, D1: hi, R0: r0, R1: r1}
}

// Scale maps v into the range. A degenerate domain maps everything to the range midpoint.
func (s LinearScale) Scale(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Ticks returns roughly n round values inside the domain.
func (s LinearScale) Ticks(n int) []float64 {
	return Ticks(math.Min(s.D0, s.D1), math.Max(s.D0, s.D1), n)
}

func extent(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Ticks returns about count evenly spaced values in [start, stop] whose step is 1, 2
// or 5 times a power of ten.
func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, float64(count))
	if i2 < i1 {
		return nil
	}
	out := make([]float64, 0, int(i2-i1)+1)
	for i := i1; i <= i2; i++ {
		if inc < 0 {
			out = append(out, i/-inc)
		} else {
			out = append(out, i*inc)
		}
	}
	if reverse {
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
	}
	return out
}

// tickSpec returns the first and last tick index and the increment. A negative
// increment means 1/-inc, which keeps small steps exact.
func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / count
	power := math.Floor(math.Log10(step))
	ratio := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case ratio >= e10:
		factor = 10
	case ratio >= e5:
		factor = 5
	case ratio >= e2:
		factor = 2
	}
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = round(start * inc)
		i2 = round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = round(start / inc)
		i2 = round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && count >= 0.5 && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// round rounds half up.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}
