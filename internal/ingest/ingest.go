// Package ingest builds a Dataset from already-parsed records. Records are
// turned into rows by a bounded worker pool; identifier assignment, row
// appends and schema growth are serialized, and the final dataset is put back
// into identifier order so the result does not depend on scheduling.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Field is one name/value pair of a keyed record.
type Field struct {
	Name  string
	Value string
}

// Object is a keyed record. Keys it does not carry are missing in the row.
type Object []Field

// Input is a parsed payload: either a Table or Objects.
type Input interface {
	source() string
}

// Table is positional input: a header naming the columns and rows of values.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

func (t Table) source() string { return t.Source }

// Objects is keyed input where every record brings its own keys.
type Objects struct {
	Source  string
	Records []Object
}

func (o Objects) source() string { return o.Source }

// Options controls ingestion.
type Options struct {
	// Workers bounds the number of concurrent row builders; 0 means GOMAXPROCS.
	Workers int
	// EmptyAsMissing leaves blank positional cells missing instead of storing "".
	EmptyAsMissing bool
	Logger         *slog.Logger
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{EmptyAsMissing: true}
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Import builds a new dataset from in. Either every record is ingested or an
// *dataset.ImportError is returned and no dataset is produced.
func Import(ctx context.Context, in Input, opt Options) (*dataset.Dataset, error) {
	log := logging.OrDiscard(opt.Logger)
	var (
		d   *dataset.Dataset
		err error
	)
	switch v := in.(type) {
	case Table:
		d, err = importTable(ctx, v, opt)
	case *Table:
		d, err = importTable(ctx, *v, opt)
	case Objects:
		d, err = importObjects(ctx, v, opt)
	case *Objects:
		d, err = importObjects(ctx, *v, opt)
	default:
		return nil, &dataset.ImportError{Reason: fmt.Sprintf("unsupported input %T", in)}
	}
	if err != nil {
		var ie *dataset.ImportError
		if errors.As(err, &ie) {
			return nil, err
		}
		return nil, &dataset.ImportError{Source: in.source(), Err: err}
	}
	log.Debug("ingest complete",
		"dataset", d.ID().String(),
		"source", in.source(),
		"rows", d.Len(),
		"columns", len(d.Schema()),
		"workers", opt.workers())
	return d, nil
}

func importTable(ctx context.Context, t Table, opt Options) (*dataset.Dataset, error) {
	header := make([]string, len(t.Header))
	seen := make(map[string]struct{}, len(t.Header))
	for i, h := range t.Header {
		h = strings.TrimSpace(h)
		if _, dup := seen[h]; dup {
			return nil, &dataset.ImportError{Source: t.Source, Reason: fmt.Sprintf("duplicate column %q in header", h)}
		}
		seen[h] = struct{}{}
		header[i] = h
	}
	// Reject over-long records up front so the reported record is deterministic.
	for i, rec := range t.Rows {
		if len(rec) > len(header) {
			return nil, &dataset.ImportError{
				Source: t.Source,
				Reason: "record has more values than header columns",
				Err:    &dataset.MalformedRowError{Record: i + 1, Got: len(rec), Want: len(header)},
			}
		}
	}

	a := newArena()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.workers())
	for i, rec := range t.Rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vals := make(map[string]string, len(rec))
			for j, v := range rec {
				if opt.EmptyAsMissing && strings.TrimSpace(v) == "" {
					continue
				}
				vals[header[j]] = v
			}
			return a.add(i, dataset.NewRow(vals))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a.build(header)
}

func importObjects(ctx context.Context, o Objects, opt Options) (*dataset.Dataset, error) {
	a := newArena()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.workers())
	for i, rec := range o.Records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vals := make(map[string]string, len(rec))
			keys := make([]string, 0, len(rec))
			for _, f := range rec {
				if _, dup := vals[f.Name]; !dup {
					keys = append(keys, f.Name)
				}
				vals[f.Name] = f.Value
			}
			a.mergeColumns(i, keys)
			return a.add(i, dataset.NewRow(vals))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a.build(a.columns())
}

// position orders discovered columns by the first record and field that
// carried them.
type position struct {
	record int
	field  int
}

func (p position) less(q position) bool {
	if p.record != q.record {
		return p.record < q.record
	}
	return p.field < q.field
}

// arena is the append-only staging store shared by ingestion workers.
type arena struct {
	mu    sync.Mutex
	rows  []*dataset.Row
	ids   map[int]struct{}
	first map[string]position
}

func newArena() *arena {
	return &arena{ids: make(map[int]struct{}), first: make(map[string]position)}
}

// add assigns id to r and appends it.
func (a *arena) add(id int, r *dataset.Row) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.ids[id]; dup {
		return &dataset.DatasetError{Op: "ingest", Reason: fmt.Sprintf("row id %d assigned twice", id)}
	}
	r.ID = id
	a.ids[id] = struct{}{}
	a.rows = append(a.rows, r)
	return nil
}

// mergeColumns records keys of one record in the shared schema.
func (a *arena) mergeColumns(record int, keys []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for j, k := range keys {
		p := position{record: record, field: j}
		if cur, ok := a.first[k]; !ok || p.less(cur) {
			a.first[k] = p
		}
	}
}

func (a *arena) columns() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.first))
	for k := range a.first {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return a.first[out[i]].less(a.first[out[j]]) })
	return out
}

func (a *arena) build(schema []string) (*dataset.Dataset, error) {
	a.mu.Lock()
	rows := a.rows
	a.mu.Unlock()
	d, err := dataset.FromRows(schema, rows)
	if err != nil {
		return nil, err
	}
	d.SortByID()
	return d, nil
}
