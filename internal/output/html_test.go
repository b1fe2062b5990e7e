package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildHistogramsSharedRange(t *testing.T) {
	traces := []Trace{
		{Name: "fast", Micros: []int64{0, 1, 2, 3}},
		{Name: "slow", Micros: []int64{6, 7, 7, 9}},
	}
	hists := BuildHistograms(traces, 5)
	if len(hists) != 2 {
		t.Fatalf("expected 2 histograms, got %d", len(hists))
	}

	for _, h := range hists {
		if len(h.Bins) != 5 {
			t.Fatalf("%s: expected 5 bins, got %d", h.Name, len(h.Bins))
		}
		total := 0
		for _, b := range h.Bins {
			total += b.Count
		}
		if total != 4 {
			t.Errorf("%s: bins hold %d runs, want 4", h.Name, total)
		}
		if h.Lowest != 0 || h.Highest != 9*time.Microsecond {
			t.Errorf("%s: range %s..%s", h.Name, h.Lowest, h.Highest)
		}
	}

	fast := hists[0]
	if fast.Bins[0].Count != 2 || fast.Bins[0].Percent != 100 {
		t.Errorf("fast first bin = %+v", fast.Bins[0])
	}
	slow := hists[1]
	if slow.Bins[4].Count != 1 || slow.Bins[3].Count != 3 {
		t.Errorf("slow bins = %+v", slow.Bins)
	}
}

func TestBuildHistogramsNarrowRange(t *testing.T) {
	hists := BuildHistograms([]Trace{{Name: "same", Micros: []int64{5, 5, 5}}}, 30)
	if len(hists[0].Bins) != 1 || hists[0].Bins[0].Count != 3 {
		t.Fatalf("expected a single full bin, got %+v", hists[0].Bins)
	}
}

func TestBuildHistogramsEmpty(t *testing.T) {
	hists := BuildHistograms([]Trace{{Name: "none"}}, 0)
	if len(hists) != 1 || hists[0].Bins != nil {
		t.Fatalf("expected an empty histogram, got %+v", hists)
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	summary := sampleSummary()
	var buf bytes.Buffer
	traces := []Trace{{Name: "echo_10", Micros: []int64{1000, 2000, 3000}}}
	if err := GenerateHTMLReport(&buf, traces, &summary); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Precipice Benchmark Report",
		"echo_10",
		"01HZXAMPLE",
		"run_duration:avg &lt; 5",
		"PASS",
		`class="bar"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in HTML", want)
		}
	}
}

func TestGenerateHTMLReportWithoutSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, []Trace{{Name: "empty"}}, nil); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No runs recorded.") {
		t.Error("expected the empty trace notice")
	}
}

func TestExportHTML(t *testing.T) {
	base := filepath.Join(t.TempDir(), "report")
	path, err := ExportHTML(base, []Trace{{Name: "t", Micros: []int64{1, 2}}}, nil)
	if err != nil {
		t.Fatalf("ExportHTML() error = %v", err)
	}
	if path != base+".html" {
		t.Errorf("ExportHTML() path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(data, []byte("<html")) {
		t.Error("expected HTML content")
	}
}
