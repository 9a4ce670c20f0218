// Package dashboard renders a live terminal view of a running load test.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/odysseylab/msgload/internal/metrics"
)

const (
	refreshInterval = 500 * time.Millisecond
	historyLen      = 100
	maxCaseRows     = 12
)

// RunConfig holds run parameters for display.
type RunConfig struct {
	Scenario    string        // Scenario name
	Executor    string        // constant-vus or ramping-vus
	Environment string        // test, staging or production
	BaseURL     string        // API root
	MaxVUs      int           // Peak virtual users the plan reaches
	Duration    time.Duration // Planned run length (0 = unlimited)
	Iterations  int           // Iteration budget (0 = unlimited)
	Rate        int           // Iteration starts per second (0 = unlimited)
	Timeout     time.Duration // Request timeout
	Retries     int           // Number of retries
	Cases       int           // Number of catalog cases in the mix
	ConfigFile  string        // Path to config file if used
}

// Dashboard renders a live terminal UI for load test metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid           *ui.Grid
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	vuGauge        *widgets.Gauge
	progressGauge  *widgets.Gauge
	statusList     *widgets.List
	caseTable      *widgets.Table
	summaryPara    *widgets.Paragraph
	checksPara     *widgets.Paragraph
	latencyHistory []float64
	lastSnapshot   time.Time
	startTime      time.Time
	runDuration    time.Duration
	cfg            RunConfig
}

// New creates a new Dashboard.
func New(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, historyLen),
		startTime:      time.Now(),
		lastSnapshot:   time.Now(),
		cfg:            cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "P95 (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	rps := widgets.NewSparkline()
	rps.Title = "Requests/sec"
	rps.LineColor = ui.ColorYellow
	rps.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline, rps)
	d.latencySparkle.Title = "Response Time"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Waiting for data..."
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.vuGauge = widgets.NewGauge()
	d.vuGauge.Title = "Virtual Users"
	d.vuGauge.BarColor = ui.ColorBlue
	d.vuGauge.BorderStyle.Fg = ui.ColorCyan
	d.vuGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Progress"
	d.progressGauge.BarColor = ui.ColorMagenta
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.statusList = widgets.NewList()
	d.statusList.Title = "Failures by Status"
	d.statusList.Rows = []string{"No failures"}
	d.statusList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.statusList.BorderStyle.Fg = ui.ColorCyan

	d.caseTable = widgets.NewTable()
	d.caseTable.Title = "Test Cases"
	d.caseTable.Rows = [][]string{caseHeader, {"Awaiting data", "", "", "", "", ""}}
	d.caseTable.TextStyle = ui.NewStyle(ui.ColorWhite)
	d.caseTable.RowSeparator = false
	d.caseTable.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.checksPara = widgets.NewParagraph()
	d.checksPara.Title = "Checks"
	d.checksPara.Text = "Waiting for data..."
	d.checksPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.12,
			ui.NewCol(0.5, d.vuGauge),
			ui.NewCol(0.5, d.progressGauge),
		),
		ui.NewRow(0.24,
			ui.NewCol(0.45, d.latencySparkle),
			ui.NewCol(0.25, d.latencyPara),
			ui.NewCol(0.30, d.checksPara),
		),
		ui.NewRow(0.50,
			ui.NewCol(0.72, d.caseTable),
			ui.NewCol(0.28, d.statusList),
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
	d.runDuration = time.Since(d.startTime)
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// FinalStats returns the statistics as of Stop.
func (d *Dashboard) FinalStats() metrics.Stats {
	return d.collector.Stats(d.runDuration)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Stop cancels the context once the run has drained.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case now := <-ticker.C:
			if now.Sub(d.lastSnapshot) >= time.Second {
				d.collector.Snapshot()
				d.lastSnapshot = now
			}
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

	if stats.Total > 0 {
		d.latencyHistory = append(d.latencyHistory, stats.P95LatencyMs)
		if len(d.latencyHistory) > historyLen {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		if series := rpsSeries(d.collector.History(), historyLen); len(series) > 0 {
			d.latencySparkle.Sparklines[1].Data = series
		}
		d.latencySparkle.Title = fmt.Sprintf(
			"Response Time | P95: %.0fms | Max: %.0fms",
			stats.P95LatencyMs,
			stats.MaxLatencyMs,
		)
	}

	d.vuGauge.Percent = percentOf(float64(stats.VUs), float64(d.cfg.MaxVUs))
	d.vuGauge.Label = fmt.Sprintf("%d / %d VUs", stats.VUs, d.cfg.MaxVUs)

	if d.cfg.Duration > 0 {
		d.progressGauge.Percent = percentOf(float64(elapsed), float64(d.cfg.Duration))
		d.progressGauge.Label = fmt.Sprintf("%s / %s", elapsed.Round(time.Second), d.cfg.Duration)
	} else {
		d.progressGauge.Label = elapsed.Round(time.Second).String()
	}

	d.summaryPara.Text = fmt.Sprintf(
		"%s\n%s\nRequests: %d | RPS: %.1f | Iterations: %d | Failed: %.2f%%",
		d.cfg.headline(),
		d.cfg.params(),
		stats.Total,
		stats.RequestsPerSec,
		stats.Iterations,
		stats.FailureRate()*100,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.0fms\nMean: %.0fms\nP50:  %.0fms\nP90:  %.0fms\nP95:  %.0fms\nP99:  %.0fms",
		stats.MinLatencyMs,
		stats.MeanLatencyMs,
		stats.P50LatencyMs,
		stats.P90LatencyMs,
		stats.P95LatencyMs,
		stats.P99LatencyMs,
	)

	d.checksPara.Text = formatChecks(stats)
	d.statusList.Rows = formatStatusListRows(stats.StatusBuckets)
	d.caseTable.Rows = formatCaseRows(stats, maxCaseRows)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// rpsSeries returns the requests/sec of the last limit snapshots.
func rpsSeries(history []metrics.DataPoint, limit int) []float64 {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]float64, len(history))
	for i, p := range history {
		out[i] = p.RequestsPerSec
	}
	return out
}

func percentOf(v, max float64) int {
	if max <= 0 {
		return 0
	}
	p := int(v / max * 100)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

func formatChecks(stats metrics.Stats) string {
	if stats.ChecksPassed+stats.ChecksFailed == 0 {
		return "Waiting for data..."
	}
	color := "green"
	if stats.CheckRate() < 0.9 {
		color = "red"
	}
	return fmt.Sprintf(
		"Checks:      [%.2f%%](fg:%s)\nPassed:      %d\nFailed:      %d\nAPI success: %.2f%%\nPeak VUs:    %d",
		stats.CheckRate()*100,
		color,
		stats.ChecksPassed,
		stats.ChecksFailed,
		stats.APISuccessRate()*100,
		stats.PeakVUs,
	)
}

var caseHeader = []string{"Case", "Category", "Reqs", "Fail", "P95 ms", "Status"}

func formatCaseRows(stats metrics.Stats, limit int) [][]string {
	rows := [][]string{caseHeader}
	if len(stats.Endpoints) == 0 {
		return append(rows, []string{"Awaiting data", "", "", "", "", ""})
	}
	names := make([]string, 0, len(stats.Endpoints))
	for name := range stats.Endpoints {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := stats.Endpoints[names[i]], stats.Endpoints[names[j]]
		if a.Total == b.Total {
			return names[i] < names[j]
		}
		return a.Total > b.Total
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	for _, name := range names {
		ep := stats.Endpoints[name]
		status := summarizeStatuses(ep.StatusBuckets, 2)
		if status == "" {
			status = "-"
		}
		rows = append(rows, []string{
			name,
			ep.Category,
			fmt.Sprintf("%d", ep.Total),
			fmt.Sprintf("%d", ep.Failures),
			fmt.Sprintf("%.0f", ep.P95LatencyMs),
			status,
		})
	}
	return rows
}

func formatStatusListRows(buckets map[string]map[string]int) []string {
	rows := metrics.FailureBreakdown(buckets)
	if len(rows) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	maxRows := len(rows)
	if maxRows > 10 {
		maxRows = 10
	}
	formatted := make([]string, 0, maxRows)
	for i := 0; i < maxRows; i++ {
		row := rows[i]
		formatted = append(formatted, fmt.Sprintf("[%s](fg:red) %d", row.Label(), row.Count))
	}
	return formatted
}

func summarizeStatuses(codes map[string]int, limit int) string {
	if len(codes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	sort.Slice(keys, func(i, j int) bool {
		if codes[keys[i]] == codes[keys[j]] {
			return keys[i] < keys[j]
		}
		return codes[keys[i]] > codes[keys[j]]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	parts := make([]string, 0, len(keys))
	for _, code := range keys {
		parts = append(parts, fmt.Sprintf("%s x%d", code, codes[code]))
	}
	return strings.Join(parts, ", ")
}

func (c RunConfig) headline() string {
	parts := []string{fmt.Sprintf("Scenario: %s", c.Scenario)}
	if c.Executor != "" {
		parts = append(parts, c.Executor)
	}
	if c.Environment != "" {
		parts = append(parts, fmt.Sprintf("Env: %s", c.Environment))
	}
	if c.BaseURL != "" {
		parts = append(parts, c.BaseURL)
	}
	return strings.Join(parts, " | ")
}

// params formats the run parameters for display.
func (c RunConfig) params() string {
	var parts []string

	if c.MaxVUs > 0 {
		parts = append(parts, fmt.Sprintf("VUs: %d", c.MaxVUs))
	}

	if c.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", c.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}

	if c.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", c.Duration))
	}

	if c.Iterations > 0 {
		parts = append(parts, fmt.Sprintf("Iterations: %d", c.Iterations))
	}

	if c.Cases > 0 {
		parts = append(parts, fmt.Sprintf("Cases: %d", c.Cases))
	}

	if c.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", c.Timeout))
	}

	if c.Retries > 0 {
		parts = append(parts, fmt.Sprintf("Retries: %d", c.Retries))
	}

	if c.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", c.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
