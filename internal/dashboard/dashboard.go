// Package dashboard renders a live terminal view of a running benchmark.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/precipice/internal/metrics"
)

// sparklineWindow is the number of recent runs drawn in the sparkline.
const sparklineWindow = 120

// SessionConfig holds session parameters for display.
type SessionConfig struct {
	SessionID  string
	Binary     string
	Args       []string
	Runs       int // timed runs requested
	Warmup     int
	ChunkSize  int
	ConfigFile string
}

// Dashboard renders a live terminal UI for a benchmark session.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid          *ui.Grid
	summaryPara   *widgets.Paragraph
	progressGauge *widgets.Gauge
	durationSpark *widgets.SparklineGroup
	statsPara     *widgets.Paragraph
	exitList      *widgets.List
	startTime     time.Time
	cfg           SessionConfig
}

// New initializes the terminal and builds the dashboard. shutdownFunc is
// called when the user presses q or Ctrl+C.
func New(collector *metrics.Collector, cfg SessionConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := newDashboard(collector, cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(collector *metrics.Collector, cfg SessionConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		collector:    collector,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		startTime:    time.Now(),
		cfg:          cfg,
	}
	d.initWidgets()
	return d
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Session"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Timed Runs"
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	sparkline := widgets.NewSparkline()
	sparkline.Title = "Duration (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}
	d.durationSpark = widgets.NewSparklineGroup(sparkline)
	d.durationSpark.Title = "Recent Runs"
	d.durationSpark.BorderStyle.Fg = ui.ColorCyan

	d.statsPara = widgets.NewParagraph()
	d.statsPara.Title = "Duration Stats"
	d.statsPara.Text = "Waiting for data..."
	d.statsPara.BorderStyle.Fg = ui.ColorCyan

	d.exitList = widgets.NewList()
	d.exitList.Title = "Failed Runs"
	d.exitList.Rows = []string{"[No failures](fg:green)"}
	d.exitList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.progressGauge),
		),
		ui.NewRow(0.38,
			ui.NewCol(0.65, d.durationSpark),
			ui.NewCol(0.35, d.statsPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.exitList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.update()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Keep drawing until Stop so the final runs are shown.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	stats := d.collector.Stats(elapsed)

	d.summaryPara.Text = formatSummary(d.cfg, elapsed)

	d.progressGauge.Percent = progressPercent(stats.Runs, d.cfg.Runs)
	d.progressGauge.Label = fmt.Sprintf("%d/%d (%d%%) | %.1f runs/s", stats.Runs, d.cfg.Runs, d.progressGauge.Percent, stats.RunsPerSec)

	if data := sparklineData(d.collector.Recent(sparklineWindow)); len(data) > 0 {
		d.durationSpark.Sparklines[0].Data = data
		d.durationSpark.Title = fmt.Sprintf("Recent Runs | Last: %.2fms | Min: %.2fms | Max: %.2fms",
			data[len(data)-1], stats.MinMs, stats.MaxMs)
	}

	d.statsPara.Text = formatStats(stats)
	d.exitList.Rows = formatExitRows(stats.ExitCodes)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	ui.Render(d.grid)
}

func formatSummary(cfg SessionConfig, elapsed time.Duration) string {
	command := cfg.Binary
	if len(cfg.Args) > 0 {
		command += " " + strings.Join(cfg.Args, " ")
	}

	parts := []string{
		fmt.Sprintf("Warmup: %d", cfg.Warmup),
		fmt.Sprintf("Runs: %d", cfg.Runs),
	}
	if cfg.ChunkSize > 0 {
		parts = append(parts, fmt.Sprintf("Chunk: %d", cfg.ChunkSize))
	}
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.ConfigFile))
	}

	return fmt.Sprintf("Command: %s\nSession: %s | %s\nElapsed: %s | Press q to stop after the current chunk",
		command, cfg.SessionID, strings.Join(parts, " | "), elapsed.Round(time.Second))
}

func formatStats(stats metrics.Stats) string {
	return fmt.Sprintf(
		"Min:     %.2fms\nMean:    %.2fms\nStd Dev: %.2fms\nP50:     %.2fms\nP90:     %.2fms\nP99:     %.2fms\nMax:     %.2fms",
		stats.MinMs,
		stats.MeanMs,
		stats.StdDevMs,
		stats.P50Ms,
		stats.P90Ms,
		stats.P99Ms,
		stats.MaxMs,
	)
}

func formatExitRows(codes map[int]int) []string {
	rows := metrics.FlattenExitCodes(codes)
	if len(rows) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	if len(rows) > 10 {
		rows = rows[:10]
	}
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		formatted = append(formatted,
			fmt.Sprintf("[exit %d](fg:red) %s: %d", row.Code, metrics.DescribeExitCode(row.Code), row.Count))
	}
	return formatted
}

func progressPercent(done int64, total int) int {
	if total <= 0 {
		return 100
	}
	pct := int(done * 100 / int64(total))
	return min(pct, 100)
}

func sparklineData(recent []time.Duration) []float64 {
	if len(recent) == 0 {
		return nil
	}
	data := make([]float64, len(recent))
	for i, d := range recent {
		data[i] = float64(d) / float64(time.Millisecond)
	}
	return data
}
