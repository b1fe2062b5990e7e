package output

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"
)

// DefaultHistogramBins is the number of buckets used by ExportHTML.
const DefaultHistogramBins = 30

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt string
	Summary     *Summary
	Histograms  []TraceHistogram
}

// TraceHistogram is one trace bucketed over the shared duration range.
type TraceHistogram struct {
	Name    string
	Runs    int
	Mean    time.Duration
	Lowest  time.Duration
	Highest time.Duration
	Bins    []HistogramBin
	Width   float64 // bar width in percent
}

// HistogramBin counts the runs whose duration falls in [Lower, Upper).
type HistogramBin struct {
	Lower   time.Duration
	Upper   time.Duration
	Count   int
	Percent float64 // height relative to the trace's tallest bin
}

// BuildHistograms buckets every trace over the combined min/max range so the
// traces are comparable.
func BuildHistograms(traces []Trace, bins int) []TraceHistogram {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	lo, hi, seen := int64(0), int64(0), false
	for _, t := range traces {
		for _, us := range t.Micros {
			if !seen || us < lo {
				lo = us
			}
			if !seen || us > hi {
				hi = us
			}
			seen = true
		}
	}
	span := hi - lo + 1
	if span < int64(bins) {
		bins = int(span)
	}
	width := float64(span) / float64(bins)

	out := make([]TraceHistogram, 0, len(traces))
	for _, t := range traces {
		h := TraceHistogram{
			Name:    t.Name,
			Runs:    len(t.Micros),
			Lowest:  time.Duration(lo) * time.Microsecond,
			Highest: time.Duration(hi) * time.Microsecond,
			Width:   100 / float64(bins),
		}
		if !seen {
			out = append(out, h)
			continue
		}
		counts := make([]int, bins)
		var sum int64
		for _, us := range t.Micros {
			idx := int(float64(us-lo) / width)
			if idx >= bins {
				idx = bins - 1
			}
			counts[idx]++
			sum += us
		}
		if len(t.Micros) > 0 {
			h.Mean = time.Duration(sum/int64(len(t.Micros))) * time.Microsecond
		}
		peak := 0
		for _, c := range counts {
			peak = max(peak, c)
		}
		h.Bins = make([]HistogramBin, bins)
		for i, c := range counts {
			bin := HistogramBin{
				Lower: time.Duration(lo+int64(float64(i)*width)) * time.Microsecond,
				Upper: time.Duration(lo+int64(float64(i+1)*width)) * time.Microsecond,
				Count: c,
			}
			if peak > 0 {
				bin.Percent = float64(c) / float64(peak) * 100
			}
			h.Bins[i] = bin
		}
		out = append(out, h)
	}
	return out
}

// GenerateHTMLReport renders a standalone HTML histogram report. summary may
// be nil when only imported traces are rendered.
func GenerateHTMLReport(w io.Writer, traces []Trace, summary *Summary) error {
	data := HTMLReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary:     summary,
		Histograms:  BuildHistograms(traces, DefaultHistogramBins),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": FormatDuration,
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// ExportHTML writes the report to base with an .html extension and returns
// the path written.
func ExportHTML(base string, traces []Trace, summary *Summary) (string, error) {
	path := withExtension(base, ".html")

	var buf bytes.Buffer
	if err := GenerateHTMLReport(&buf, traces, summary); err != nil {
		return "", err
	}
	if err := writeLocked(path, &buf); err != nil {
		return "", err
	}
	return path, nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Precipice Benchmark Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #0f766e 0%, #1e3a8a 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #0f766e;
        }
        .card.error { border-left-color: #ef4444; }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value { font-size: 1.6rem; font-weight: bold; }
        .section { margin-bottom: 40px; }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .histogram {
            display: flex;
            align-items: flex-end;
            height: 240px;
            border-bottom: 1px solid #9ca3af;
            margin-bottom: 8px;
        }
        .bar { background: #0f766e; margin: 0 1px; min-height: 1px; }
        .axis { display: flex; justify-content: space-between; font-size: 0.8rem; color: #6b7280; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 12px; border-bottom: 1px solid #e5e7eb; }
        th { background: #f8f9fa; font-size: 0.9rem; text-transform: uppercase; }
        .pass { color: #10b981; font-weight: bold; }
        .fail { color: #ef4444; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Precipice Benchmark Report</h1>
            {{with .Summary}}<div class="meta">{{.Binary}}{{range .Args}} {{.}}{{end}} | Session {{.SessionID}} | {{.Outcome}}</div>{{end}}
            <div class="meta">Generated: {{.GeneratedAt}}</div>
        </header>
        <div class="content">
            {{with .Summary}}
            <div class="section">
                <h2>Summary</h2>
                <div class="grid">
                    <div class="card"><h3>Timed Runs</h3><div class="value">{{.Stats.Runs}}/{{.Requested}}</div></div>
                    <div class="card{{if .Stats.Failures}} error{{end}}"><h3>Failed Runs</h3><div class="value">{{.Stats.Failures}}</div></div>
                    <div class="card"><h3>Mean</h3><div class="value">{{formatDuration .Stats.Mean}}</div></div>
                    <div class="card"><h3>Std Dev</h3><div class="value">{{formatDuration .Stats.StdDev}}</div></div>
                    <div class="card"><h3>P50</h3><div class="value">{{formatDuration .Stats.P50}}</div></div>
                    <div class="card"><h3>P99</h3><div class="value">{{formatDuration .Stats.P99}}</div></div>
                </div>
            </div>
            {{if .Thresholds}}
            <div class="section">
                <h2>Thresholds</h2>
                <table>
                    <thead><tr><th>Threshold</th><th>Actual</th><th>Status</th></tr></thead>
                    <tbody>
                        {{range .Thresholds}}
                        <tr>
                            <td>{{.Raw}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>{{if .Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
            {{end}}
            {{range .Histograms}}
            <div class="section">
                <h2>{{.Name}} <small>({{.Runs}} runs, mean {{formatDuration .Mean}})</small></h2>
                {{if .Bins}}
                {{$width := .Width}}
                <div class="histogram">
                    {{range .Bins}}<div class="bar" style="width: {{formatFloat $width}}%; height: {{formatFloat .Percent}}%" title="{{formatDuration .Lower}} to {{formatDuration .Upper}}: {{.Count}}"></div>{{end}}
                </div>
                <div class="axis">
                    <span>{{formatDuration .Lowest}}</span>
                    <span>{{formatDuration .Highest}}</span>
                </div>
                {{else}}
                <p>No runs recorded.</p>
                {{end}}
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
