package features

import "math"

// Rolling window helpers with strict minimum-periods semantics: a
// window output is NaN until exactly `window` observations are
// available, and a NaN inside the window keeps the output NaN. NaN is
// the null marker throughout this package.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// PctChange computes day-over-day percentage change of close. The
// first element has no predecessor and stays NaN.
func PctChange(xs []float64) []float64 {
	out := nanSlice(len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

// RollingMean computes a simple rolling mean over `window` observations.
func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		defined := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				defined = false
				break
			}
			sum += xs[j]
		}
		if defined {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd computes a rolling sample standard deviation (ddof=1)
// over `window` observations.
func RollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		defined := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				defined = false
				break
			}
			sum += xs[j]
		}
		if !defined {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := xs[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// RSI computes the 14-style relative strength index from a
// pct-change series using simple rolling means of gains and losses.
// Division by a zero average loss is left to IEEE semantics: an
// all-gain window yields rs=+Inf and rsi=100, a flat window yields
// 0/0=NaN and the row stays undefined.
func RSI(pct []float64, window int) []float64 {
	gain := make([]float64, len(pct))
	loss := make([]float64, len(pct))
	for i, v := range pct {
		if math.IsNaN(v) {
			gain[i] = math.NaN()
			loss[i] = math.NaN()
			continue
		}
		gain[i] = math.Max(v, 0)
		loss[i] = math.Max(-v, 0)
	}

	avgGain := RollingMean(gain, window)
	avgLoss := RollingMean(loss, window)

	out := nanSlice(len(pct))
	for i := range out {
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
