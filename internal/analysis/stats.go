package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Correlation is a Pearson coefficient with its two-sided p-value.
type Correlation struct {
	R      float64
	PValue float64
	N      int
	// Slope and Intercept describe the least-squares line y = Slope*x + Intercept.
	Slope     float64
	Intercept float64
}

// Defined reports whether r is a number (both variables vary).
func (c Correlation) Defined() bool { return !math.IsNaN(c.R) }

// Pearson computes r, the t-test p-value with n-2 degrees of freedom and the
// regression line. It needs at least two pairs; r and p are NaN when either
// series is constant.
func Pearson(x, y []float64) (Correlation, error) {
	if len(x) != len(y) {
		return Correlation{}, fmt.Errorf("pearson: length mismatch %d vs %d", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return Correlation{}, fmt.Errorf("pearson: need at least 2 observations, got %d", n)
	}
	out := Correlation{N: n, R: math.NaN(), PValue: math.NaN(), Slope: math.NaN(), Intercept: math.NaN()}
	sx, err := stats.StandardDeviationSample(x)
	if err != nil {
		return out, fmt.Errorf("pearson: %w", err)
	}
	sy, err := stats.StandardDeviationSample(y)
	if err != nil {
		return out, fmt.Errorf("pearson: %w", err)
	}
	mx, _ := stats.Mean(x)
	my, _ := stats.Mean(y)
	if sx > 0 {
		cov, err := stats.Covariance(x, y)
		if err != nil {
			return out, fmt.Errorf("pearson: %w", err)
		}
		out.Slope = cov / (sx * sx)
		out.Intercept = my - out.Slope*mx
	}
	if sx == 0 || sy == 0 {
		return out, nil
	}
	r, err := stats.Pearson(x, y)
	if err != nil {
		return out, fmt.Errorf("pearson: %w", err)
	}
	r = math.Max(-1, math.Min(1, r))
	out.R = r
	out.PValue = pValue(r, n)
	return out, nil
}

func pValue(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	return math.Max(0, math.Min(1, p))
}

// BoxStats is a five-number summary used for box plots.
type BoxStats struct {
	Min, Q1, Median, Q3, Max float64
	Count                    int
}

// Box summarizes vals. Whiskers span the full range.
func Box(vals []float64) (BoxStats, error) {
	if len(vals) == 0 {
		return BoxStats{}, errors.New("box: empty input")
	}
	lo, _ := stats.Min(vals)
	hi, _ := stats.Max(vals)
	med, _ := stats.Median(vals)
	b := BoxStats{Min: lo, Max: hi, Median: med, Q1: med, Q3: med, Count: len(vals)}
	if len(vals) >= 2 {
		q, err := stats.Quartile(vals)
		if err != nil {
			return BoxStats{}, fmt.Errorf("box: %w", err)
		}
		b.Q1, b.Median, b.Q3 = q.Q1, q.Q2, q.Q3
	}
	return b, nil
}

// QuantileEdges splits vals into at most k equal-frequency bins and returns
// the k+1 (or fewer, after merging duplicates) non-decreasing edges.
func QuantileEdges(vals []float64, k int) ([]float64, error) {
	if len(vals) == 0 {
		return nil, errors.New("quantile bins: empty input")
	}
	if k < 1 {
		return nil, fmt.Errorf("quantile bins: invalid bin count %d", k)
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	edges := []float64{sorted[0]}
	for i := 1; i < k; i++ {
		q := linearQuantile(sorted, float64(i)/float64(k))
		if q > edges[len(edges)-1] {
			edges = append(edges, q)
		}
	}
	last := sorted[len(sorted)-1]
	if last > edges[len(edges)-1] || len(edges) == 1 {
		edges = append(edges, last)
	}
	return edges, nil
}

// linearQuantile interpolates between the closest ranks of sorted at
// position p*(n-1), the same rule pandas qcut applies.
func linearQuantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// BinIndex returns the bin for v given edges from QuantileEdges. Bins are
// right-closed; the first bin also includes the lowest edge. Values outside
// the edges return -1.
func BinIndex(edges []float64, v float64) int {
	if len(edges) < 2 || v < edges[0] || v > edges[len(edges)-1] {
		return -1
	}
	i := sort.SearchFloat64s(edges[1:], v)
	if i >= len(edges)-1 {
		i = len(edges) - 2
	}
	return i
}
