package plot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/testutil"
)

func sample() *dataset.Dataset {
	d := dataset.New("Name", "Age", "Height")
	d.Insert(map[string]string{"Name": "John", "Age": "30", "Height": "180"})
	d.Insert(map[string]string{"Name": "Sarah", "Age": "25"})
	d.Insert(map[string]string{"Name": "Mike", "Age": "35", "Height": "175.5"})
	return d
}

func TestBuildRequestSeries(t *testing.T) {
	req, err := BuildRequest(sample(), Line, []string{"Age", "Height"}, "out.png")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if len(req.Series) != 2 {
		t.Fatalf("series = %d", len(req.Series))
	}
	if got := req.Series[0].Values; len(got) != 3 || got[0] != 30 || got[2] != 35 {
		t.Fatalf("age series = %v", got)
	}
	if got := req.Series[1].Values; len(got) != 2 || got[1] != 175.5 {
		t.Fatalf("height series = %v", got)
	}
	if req.DatasetID == "" || req.Output != "out.png" {
		t.Fatalf("request = %+v", req)
	}
}

func TestBuildRequestScatterPairsRows(t *testing.T) {
	req, err := BuildRequest(sample(), Scatter, []string{"Age", "Height"}, "s.png")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	x, y := req.Series[0].Values, req.Series[1].Values
	if len(x) != 2 || len(y) != 2 || x[1] != 35 || y[1] != 175.5 {
		t.Fatalf("scatter = %v / %v", x, y)
	}
}

func TestBuildRequestValidation(t *testing.T) {
	d := sample()
	cases := []struct {
		name    string
		kind    Kind
		columns []string
		output  string
	}{
		{"unknown kind", Kind("radar"), []string{"Age"}, "o.png"},
		{"no columns", Line, nil, "o.png"},
		{"no output", Line, []string{"Age"}, " "},
		{"scatter arity", Scatter, []string{"Age"}, "o.png"},
		{"pie arity", Pie, []string{"Age", "Height"}, "o.png"},
	}
	for _, tc := range cases {
		if _, err := BuildRequest(d, tc.kind, tc.columns, tc.output); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	_, err := BuildRequest(d, Bar, []string{"Name"}, "o.png")
	var nn *dataset.NotNumericError
	if !errors.As(err, &nn) {
		t.Fatalf("expected NotNumericError, got %v", err)
	}
	_, err = BuildRequest(d, Histogram, []string{"Weight"}, "o.png")
	var uc *dataset.UnknownColumnError
	if !errors.As(err, &uc) {
		t.Fatalf("expected UnknownColumnError, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Pie "); err != nil || k != Pie {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("radar"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunnerPassesRequestOnStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script renderer")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "render.sh")
	// args: <kind> <output>
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$1\" > \"$2.kind\"\ncat > \"$2\"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	out := filepath.Join(dir, "chart.png")
	req, err := BuildRequest(sample(), Pie, []string{"Age"}, out)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	r := Runner{Command: script, Logger: testutil.NewTestLogger(t)}
	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got Request
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("renderer received invalid json: %v", err)
	}
	if got.Kind != Pie || len(got.Series) != 1 || len(got.Series[0].Values) != 3 {
		t.Fatalf("renderer received %+v", got)
	}
	kind, _ := os.ReadFile(out + ".kind")
	if strings.TrimSpace(string(kind)) != "pie" {
		t.Fatalf("kind arg = %q", kind)
	}
}

func TestRunnerErrors(t *testing.T) {
	req := &Request{Kind: Line, Output: "x.png"}
	if err := (Runner{}).Run(context.Background(), req); err == nil {
		t.Fatalf("expected error without command")
	}
	if runtime.GOOS == "windows" {
		return
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fail.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	err := (Runner{Command: script}).Run(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
