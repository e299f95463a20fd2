// Package plot prepares numeric series for an external renderer and runs it.
// Nothing here draws; the renderer is any command that reads a JSON request on
// stdin and writes the image to the path it is given.
package plot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/logging"
)

// Kind is a chart type.
type Kind string

const (
	Line      Kind = "line"
	Bar       Kind = "bar"
	Scatter   Kind = "scatter"
	Pie       Kind = "pie"
	Histogram Kind = "histogram"
)

// Kinds lists the supported chart types.
var Kinds = []Kind{Line, Bar, Scatter, Pie, Histogram}

// ParseKind accepts a chart name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	names := make([]string, len(Kinds))
	for i, known := range Kinds {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unsupported plot kind %q (use %s)", s, strings.Join(names, ", "))
}

// Series is the numeric values of one column in row order.
type Series struct {
	Column string    `json:"column"`
	Values []float64 `json:"values"`
}

// Request is the payload handed to the renderer.
type Request struct {
	DatasetID string   `json:"dataset_id"`
	Kind      Kind     `json:"kind"`
	Columns   []string `json:"columns"`
	Series    []Series `json:"series"`
	Output    string   `json:"output"`
}

// BuildRequest extracts the series for kind from ds. Every column must be
// numeric. Scatter plots take exactly two columns and only use rows holding
// both; pie charts take exactly one.
func BuildRequest(ds *dataset.Dataset, kind Kind, columns []string, output string) (*Request, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, errors.New("plot needs at least one column")
	}
	if strings.TrimSpace(output) == "" {
		return nil, errors.New("plot needs an output path")
	}
	switch kind {
	case Scatter:
		if len(columns) != 2 {
			return nil, fmt.Errorf("scatter plot needs exactly 2 columns, got %d", len(columns))
		}
	case Pie:
		if len(columns) != 1 {
			return nil, fmt.Errorf("pie chart needs exactly 1 column, got %d", len(columns))
		}
	}
	for _, c := range columns {
		if err := ds.RequireNumeric(c); err != nil {
			return nil, err
		}
	}

	req := &Request{DatasetID: ds.ID().String(), Kind: kind, Columns: columns, Output: output}
	if kind == Scatter {
		x := Series{Column: columns[0], Values: []float64{}}
		y := Series{Column: columns[1], Values: []float64{}}
		for _, r := range ds.View() {
			xv, okx := r.Numeric(columns[0])
			yv, oky := r.Numeric(columns[1])
			if okx && oky {
				x.Values = append(x.Values, xv)
				y.Values = append(y.Values, yv)
			}
		}
		req.Series = []Series{x, y}
		return req, nil
	}
	for _, c := range columns {
		vals, err := ds.NumericColumnValues(c)
		if err != nil {
			return nil, err
		}
		req.Series = append(req.Series, Series{Column: c, Values: vals})
	}
	return req, nil
}

// Runner invokes the external renderer as `Command... <kind> <output>`.
type Runner struct {
	// Command is split on whitespace; the first field is the executable.
	Command string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Run sends req as JSON on the renderer's stdin and waits for it to exit.
func (r Runner) Run(ctx context.Context, req *Request) error {
	log := logging.OrDiscard(r.Logger)
	argv := strings.Fields(r.Command)
	if len(argv) == 0 {
		return errors.New("no plot command configured (set plot_command)")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal plot request: %w", err)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	args := append(argv[1:], string(req.Kind), req.Output)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	log.Debug("plot start", "command", argv[0], "kind", req.Kind, "columns", req.Columns, "output", req.Output)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("plot command failed: %w: %s", err, msg)
		}
		return fmt.Errorf("plot command failed: %w", err)
	}
	log.Debug("plot done", "output", req.Output, "elapsed", time.Since(start))
	return nil
}
