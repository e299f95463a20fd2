package analysis

import (
	"log/slog"
	"runtime"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultOutlierThreshold is the |z| above which a value is an outlier.
const DefaultOutlierThreshold = 3.0

// Options controls the statistics engine and the overview report.
type Options struct {
	// Workers bounds parallel row scans; 0 means GOMAXPROCS.
	Workers int
	// PartitionSize is the minimum number of rows handed to one scan worker.
	PartitionSize int
	// OutlierThreshold is the |z| cut-off used by Describe.
	OutlierThreshold float64
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopValues limits categorical value listings in the report.
	TopValues int
	// Correlations computes Pearson correlations among numeric columns in the report.
	Correlations bool
	Logger       *slog.Logger
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		PartitionSize:    1024,
		OutlierThreshold: DefaultOutlierThreshold,
		SampleRows:       5,
		TopValues:        8,
		Correlations:     true,
	}
}

// Engine computes statistics over one dataset. It only reads rows, so
// several engines may work on the same dataset as long as nothing mutates it.
type Engine struct {
	ds  *dataset.Dataset
	opt Options
	log *slog.Logger
}

// New returns an engine over ds.
func New(ds *dataset.Dataset, opt Options) *Engine {
	if opt.PartitionSize <= 0 {
		opt.PartitionSize = 1024
	}
	if opt.OutlierThreshold <= 0 {
		opt.OutlierThreshold = DefaultOutlierThreshold
	}
	return &Engine{ds: ds, opt: opt, log: logging.OrDiscard(opt.Logger)}
}

// Dataset returns the dataset the engine reads.
func (e *Engine) Dataset() *dataset.Dataset { return e.ds }

func (e *Engine) workers() int {
	if e.opt.Workers > 0 {
		return e.opt.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// partition splits rows into contiguous chunks, one per scan worker.
func (e *Engine) partition(rows []*dataset.Row) [][]*dataset.Row {
	n := len(rows)
	if n == 0 {
		return nil
	}
	parts := (n + e.opt.PartitionSize - 1) / e.opt.PartitionSize
	if w := e.workers(); parts > w {
		parts = w
	}
	size := (n + parts - 1) / parts
	out := make([][]*dataset.Row, 0, parts)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, rows[lo:hi])
	}
	return out
}

// scan runs fn over every partition in parallel and returns the per-partition
// results in row order. Merging happens on the caller's goroutine.
func scan[T any](e *Engine, fn func(rows []*dataset.Row) T) []T {
	parts := e.partition(e.ds.View())
	out := make([]T, len(parts))
	var g errgroup.Group
	for i, p := range parts {
		g.Go(func() error {
			out[i] = fn(p)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// observation is one numeric value with the row it came from.
type observation struct {
	id    int
	value float64
}

// numeric validates column and extracts its values in row order.
func (e *Engine) numeric(column string) ([]observation, error) {
	if err := e.ds.RequireNumeric(column); err != nil {
		return nil, err
	}
	chunks := scan(e, func(rows []*dataset.Row) []observation {
		var out []observation
		for _, r := range rows {
			if v, ok := r.Numeric(column); ok {
				out = append(out, observation{id: r.ID, value: v})
			}
		}
		return out
	})
	var all []observation
	for _, c := range chunks {
		all = append(all, c...)
	}
	return all, nil
}

func (e *Engine) values(column string) ([]float64, error) {
	obs, err := e.numeric(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.value
	}
	return out, nil
}

// counts tallies raw values of column. Each worker fills a private map; the
// maps are merged after the join.
func (e *Engine) counts(column string) (map[string]int, int, error) {
	if !e.ds.HasColumn(column) {
		return nil, 0, &dataset.UnknownColumnError{Column: column}
	}
	partials := scan(e, func(rows []*dataset.Row) map[string]int {
		m := make(map[string]int)
		for _, r := range rows {
			if v, ok := r.Get(column); ok {
				m[v]++
			}
		}
		return m
	})
	total := 0
	merged := make(map[string]int)
	for _, p := range partials {
		for k, n := range p {
			merged[k] += n
			total += n
		}
	}
	return merged, total, nil
}

// pairs extracts values of rows holding both columns.
func (e *Engine) pairs(a, b string) (xs, ys []float64, err error) {
	if err := e.ds.RequireNumeric(a); err != nil {
		return nil, nil, err
	}
	if err := e.ds.RequireNumeric(b); err != nil {
		return nil, nil, err
	}
	type pair struct{ x, y []float64 }
	chunks := scan(e, func(rows []*dataset.Row) pair {
		var p pair
		for _, r := range rows {
			x, okx := r.Numeric(a)
			y, oky := r.Numeric(b)
			if okx && oky {
				p.x = append(p.x, x)
				p.y = append(p.y, y)
			}
		}
		return p
	})
	for _, c := range chunks {
		xs = append(xs, c.x...)
		ys = append(ys, c.y...)
	}
	return xs, ys, nil
}
