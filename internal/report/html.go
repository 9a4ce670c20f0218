package report

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/odysseylab/msgload/internal/summary"
)

// Presentation classes for summary cards.
const (
	ClassNominal    = "success"
	ClassCautionary = "warning"
	ClassCritical   = "error"
)

// DurationUnavailable is shown when the log lacked the timestamps needed for a duration.
const DurationUnavailable = "N/A"

// htmlData is what the template sees. Every field is preformatted so the
// template does no arithmetic.
type htmlData struct {
	GeneratedAt  string
	Source       string
	Duration     string
	Peak         string
	Iterations   int64
	Requests     int64
	Failures     int64
	FailureClass string
	ErrorRate    string
	ErrorStatus  string
}

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

// Render writes the HTML report for s. The output depends only on its
// arguments.
func Render(w io.Writer, s summary.Summary, source string, generatedAt time.Time) error {
	data := htmlData{
		GeneratedAt:  generatedAt.Format("2006-01-02 15:04:05 MST"),
		Source:       source,
		Duration:     FormatDuration(s),
		Peak:         strconv.FormatFloat(s.PeakConcurrency, 'f', -1, 64),
		Iterations:   s.Iterations,
		Requests:     s.Requests,
		Failures:     s.Failures,
		FailureClass: FailureClass(s.Failures),
		ErrorRate:    FormatErrorRate(s),
		ErrorStatus:  "✅ No Errors",
	}
	if s.Failures > 0 {
		data.ErrorStatus = "⚠️ Some Errors"
	}

	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// FailureClass maps a failure count to a card class. There is no cautionary
// band: any failure is critical.
func FailureClass(failures int64) string {
	if failures > 0 {
		return ClassCritical
	}
	return ClassNominal
}

// FormatErrorRate renders the failure ratio as a percentage with two decimals,
// or "0%" when no request was recorded.
func FormatErrorRate(s summary.Summary) string {
	rate, ok := s.ErrorRate()
	if !ok {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

// FormatDuration renders the run span in whole seconds.
func FormatDuration(s summary.Summary) string {
	secs, ok := s.DurationSeconds()
	if !ok {
		return DurationUnavailable
	}
	return fmt.Sprintf("%d seconds", secs)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Messaging API Load Test Report</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; margin: 20px; background: #f5f7fa; color: #2c3e50; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 20px 40px; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
        h1 { border-bottom: 2px solid #667eea; padding-bottom: 10px; }
        h2 { color: #4b5563; margin-top: 30px; }
        .info { background: #eef2ff; padding: 15px; border-radius: 6px; margin: 20px 0; line-height: 1.6; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; margin: 20px 0; }
        .card { background: #f8f9fa; border-radius: 8px; padding: 20px; border-left: 4px solid #667eea; }
        .card .value { font-size: 2rem; font-weight: bold; }
        .card .label { font-size: 0.9rem; color: #6c757d; text-transform: uppercase; letter-spacing: 0.5px; }
        .card.success { border-left-color: #10b981; }
        .card.warning { border-left-color: #f59e0b; }
        .card.error { border-left-color: #ef4444; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { text-align: left; padding: 12px; border-bottom: 1px solid #e5e7eb; }
        th { background: #f8f9fa; color: #4b5563; font-size: 0.9rem; text-transform: uppercase; }
        .footer { margin-top: 40px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Messaging API Load Test Report</h1>

        <div class="info">
            <strong>Generated:</strong> {{.GeneratedAt}}<br>
            <strong>Test Duration:</strong> {{.Duration}}<br>
            <strong>Source File:</strong> {{.Source}}
        </div>

        <h2>Test Metrics</h2>
        <div class="grid">
            <div class="card success">
                <div class="value">{{.Peak}}</div>
                <div class="label">Peak Virtual Users</div>
            </div>
            <div class="card">
                <div class="value">{{.Iterations}}</div>
                <div class="label">Total Iterations</div>
            </div>
            <div class="card">
                <div class="value">{{.Requests}}</div>
                <div class="label">HTTP Requests</div>
            </div>
            <div class="card {{.FailureClass}}" id="failures">
                <div class="value">{{.Failures}}</div>
                <div class="label">Failed Requests</div>
            </div>
        </div>

        <h2>Test Summary</h2>
        <table>
            <thead>
                <tr><th>Metric</th><th>Value</th><th>Status</th></tr>
            </thead>
            <tbody>
                <tr><td>Test File</td><td>{{.Source}}</td><td>✅ Completed</td></tr>
                <tr><td>Peak VUs</td><td>{{.Peak}}</td><td>✅ Recorded</td></tr>
                <tr><td>Iterations</td><td>{{.Iterations}}</td><td>✅ Recorded</td></tr>
                <tr><td>HTTP Requests</td><td>{{.Requests}}</td><td>✅ Recorded</td></tr>
                <tr><td>Failed Requests</td><td>{{.Failures}}</td><td>✅ Recorded</td></tr>
                <tr><td>Error Rate</td><td id="error-rate">{{.ErrorRate}}</td><td>{{.ErrorStatus}}</td></tr>
            </tbody>
        </table>

        <div class="footer">
            Generated by msgreport | {{.GeneratedAt}}
        </div>
    </div>
</body>
</html>
`
