package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Report is a markdown-friendly overview of a dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Corr     *CorrMatrix
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    dataset.Kind
	NonNull int
	Missing int
	Unique  int
	Entropy float64
	// Numeric stats
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Std    float64
	// Outliers (z-score)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues []CategoryCount
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Describe summarizes every column of the dataset.
func (e *Engine) Describe(name string) (*Report, error) {
	rep := &Report{Name: name, Rows: e.ds.Len()}
	sampleRows := e.opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	schema := e.ds.Schema()
	for i, r := range e.ds.View() {
		if i >= sampleRows {
			break
		}
		row := make([]string, len(schema))
		for j, c := range schema {
			row[j], _ = r.Get(c)
		}
		rep.Samples = append(rep.Samples, row)
	}

	var numCols []string
	for _, c := range schema {
		s, err := e.summarize(c)
		if err != nil {
			return nil, err
		}
		if s.Kind == dataset.KindNumeric && s.NonNull > 0 {
			numCols = append(numCols, c)
		}
		if s.NonNull == 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s has no values", safeName(c)))
		}
		rep.Cols = append(rep.Cols, s)
	}

	if e.opt.Correlations && len(numCols) >= 2 {
		n := len(numCols)
		mat := make([][]float64, n)
		for i := range mat {
			mat[i] = make([]float64, n)
			mat[i][i] = 1
		}
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				r, err := e.Correlation(numCols[a], numCols[b])
				if err != nil {
					return nil, err
				}
				mat[a][b], mat[b][a] = r, r
			}
		}
		rep.Corr = &CorrMatrix{Columns: numCols, Values: mat}
	}
	e.log.Debug("describe", "dataset", e.ds.ID().String(), "rows", rep.Rows, "columns", len(rep.Cols))
	return rep, nil
}

func (e *Engine) summarize(column string) (ColumnSummary, error) {
	s := ColumnSummary{Name: column}
	counts, total, err := e.counts(column)
	if err != nil {
		return s, err
	}
	kind, err := e.ds.ColumnKind(column)
	if err != nil {
		return s, err
	}
	s.Kind = kind
	s.NonNull = total
	s.Missing = e.ds.Len() - total
	s.Unique = len(counts)
	s.Entropy, _ = e.Entropy(column)

	if kind == dataset.KindNumeric {
		if total == 0 {
			return s, nil
		}
		vals, err := e.values(column)
		if err != nil {
			return s, err
		}
		s.Min, s.Max = bounds(vals)
		s.Mean = mean(vals)
		s.Median = median(vals)
		s.Std = sampleStd(vals)
		thr := e.opt.OutlierThreshold
		outs, err := e.Outliers(column, thr)
		if err != nil {
			return s, err
		}
		s.OutlierThreshold = thr
		s.OutliersCount = len(outs)
		for _, o := range outs {
			if az := math.Abs(o.Z); az > s.OutliersMaxAbsZ {
				s.OutliersMaxAbsZ = az
			}
		}
		return s, nil
	}
	tops := sortedCounts(counts)
	if limit := e.opt.TopValues; limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	s.TopValues = tops
	return s, nil
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique))
		switch c.Kind {
		case dataset.KindNumeric:
			if c.NonNull == 0 {
				break
			}
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Median, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case dataset.KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				b.WriteString(fmt.Sprintf("; entropy %.3f bits", c.Entropy))
			}
		}
		b.WriteString("\n")
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		pairs := r.Corr.Pairs()
		maxp := 10
		if len(pairs) < maxp {
			maxp = len(pairs)
		}
		for i := 0; i < maxp; i++ {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pairs[i].A, pairs[i].B, pairs[i].R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Pairs lists the upper triangle of the matrix ordered by |r| descending.
func (m *CorrMatrix) Pairs() []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
