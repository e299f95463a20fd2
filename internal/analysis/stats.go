package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// CategoryCount is one raw value and how often it occurs.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Regression is an ordinary least squares fit y = Slope*x + Intercept.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	N         int     `json:"n"`
}

// Outlier is a value whose |z| exceeds the threshold.
type Outlier struct {
	RowID int     `json:"row_id"`
	Value float64 `json:"value"`
	Z     float64 `json:"z"`
}

// Count returns the number of numeric values in column.
func (e *Engine) Count(column string) (int, error) {
	vals, err := e.values(column)
	return len(vals), err
}

// Sum adds every numeric value in column.
func (e *Engine) Sum(column string) (float64, error) {
	vals, err := e.values(column)
	if err != nil {
		return 0, err
	}
	return sum(vals), nil
}

// Min returns the smallest value; NaN when the column has no values.
func (e *Engine) Min(column string) (float64, error) {
	vals, err := e.values(column)
	if err != nil {
		return 0, err
	}
	lo, _ := bounds(vals)
	return lo, nil
}

// Max returns the largest value; NaN when the column has no values.
func (e *Engine) Max(column string) (float64, error) {
	vals, err := e.values(column)
	if err != nil {
		return 0, err
	}
	_, hi := bounds(vals)
	return hi, nil
}

// Mean is the arithmetic average; NaN when the column has no values.
func (e *Engine) Mean(column string) (float64, error) {
	vals, err := e.values(column)
	if err != nil {
		return 0, err
	}
	return mean(vals), nil
}

// Median returns the middle value, averaging the two central values for an
// even count. An empty column has median 0.
func (e *Engine) Median(column string) (float64, error) {
	vals, err := e.values(column)
	if err != nil {
		return 0, err
	}
	return median(vals), nil
}

// StdDev is the sample standard deviation (n-1); 0 when fewer than two values.
func (e *Engine) StdDev(column string) (float64, error) {
	vals, err := e.values(column)
	if err != nil {
		return 0, err
	}
	return sampleStd(vals), nil
}

// ValueCounts lists raw values by descending count, ties ordered by value.
func (e *Engine) ValueCounts(column string) ([]CategoryCount, error) {
	counts, _, err := e.counts(column)
	if err != nil {
		return nil, err
	}
	return sortedCounts(counts), nil
}

// Mode returns the single most frequent raw value of column.
func (e *Engine) Mode(column string) (string, error) {
	counts, _, err := e.counts(column)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "", &dataset.NoModeError{Column: column}
	}
	tops := sortedCounts(counts)
	best := tops[0].Count
	var tied []string
	for _, c := range tops {
		if c.Count != best {
			break
		}
		tied = append(tied, c.Value)
	}
	if len(tied) > 1 {
		return "", &dataset.AmbiguousModeError{Column: column, Values: tied, Count: best}
	}
	return tied[0], nil
}

// Entropy is the Shannon entropy in bits of the raw value distribution.
func (e *Engine) Entropy(column string) (float64, error) {
	counts, total, err := e.counts(column)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	// Sum in a fixed order so results are reproducible.
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var h float64
	for _, k := range keys {
		p := float64(counts[k]) / float64(total)
		h -= p * math.Log2(p)
	}
	return h, nil
}

// Correlation is the Pearson coefficient over rows holding both columns. It is
// 0 when either side has no variance.
func (e *Engine) Correlation(a, b string) (float64, error) {
	xs, ys, err := e.pairs(a, b)
	if err != nil {
		return 0, err
	}
	return pearson(xs, ys), nil
}

// Regress fits y (dependent) against x (independent) over rows holding both.
func (e *Engine) Regress(x, y string) (Regression, error) {
	xs, ys, err := e.pairs(x, y)
	if err != nil {
		return Regression{}, err
	}
	if len(xs) < 2 {
		return Regression{}, &dataset.DatasetError{Op: "regression", Reason: "need at least two rows with both values"}
	}
	mx, my := mean(xs), mean(ys)
	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return Regression{}, &dataset.DatasetError{Op: "regression", Reason: "independent column has no variance"}
	}
	slope := sxy / sxx
	intercept := my - slope*mx
	var ssRes, ssTot float64
	for i := range xs {
		fit := slope*xs[i] + intercept
		ssRes += (ys[i] - fit) * (ys[i] - fit)
		ssTot += (ys[i] - my) * (ys[i] - my)
	}
	r2 := 1.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}
	return Regression{Slope: slope, Intercept: intercept, R2: r2, N: len(xs)}, nil
}

// Outliers flags rows whose |z| exceeds threshold. A threshold <= 0 uses
// DefaultOutlierThreshold. A column without spread has no outliers.
func (e *Engine) Outliers(column string, threshold float64) ([]Outlier, error) {
	obs, err := e.numeric(column)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}
	vals := make([]float64, len(obs))
	for i, o := range obs {
		vals[i] = o.value
	}
	m, sd := mean(vals), sampleStd(vals)
	if sd == 0 {
		return nil, nil
	}
	var out []Outlier
	for _, o := range obs {
		z := (o.value - m) / sd
		if math.Abs(z) > threshold {
			out = append(out, Outlier{RowID: o.id, Value: o.value, Z: z})
		}
	}
	e.log.Debug("outlier scan", "column", column, "threshold", threshold, "flagged", len(out))
	return out, nil
}

func sortedCounts(counts map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return sum(vals) / float64(len(vals))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	n := len(cp)
	if n%2 == 0 {
		return (cp[n/2-1] + cp[n/2]) / 2
	}
	return cp[n/2]
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func bounds(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var num, dx2, dy2 float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	denom := math.Sqrt(dx2 * dy2)
	if denom == 0 {
		return 0
	}
	r := num / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
