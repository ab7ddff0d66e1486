package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReportFormat represents the report output format.
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter generates formatted reports from run data.
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter.
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{logger: logger}
}

// GenerateReport generates a report in the specified format.
func (f *Formatter) GenerateReport(report *RunReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatHTML:
		return f.generateHTMLReport(report, outputPath)
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		return fmt.Errorf("JSON format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func (f *Formatter) generateHTMLReport(report *RunReport, outputPath string) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		"statusClass": func(bugFound bool) string {
			if bugFound {
				return "fail"
			}
			return "pass"
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}

	f.logger.Info("HTML report generated", "path", outputPath)
	return nil
}

func (f *Formatter) generateTextReport(report *RunReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   FUZZING RUN REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	status := "NO BUG FOUND"
	if report.BugFound {
		status = "BUG FOUND"
	}

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:       %s\n", status))
	buf.WriteString(fmt.Sprintf("Run ID:       %s\n", report.RunID))
	buf.WriteString(fmt.Sprintf("Binary:       %s\n", report.Binary))
	buf.WriteString(fmt.Sprintf("Start Time:   %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:     %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration))
	buf.WriteString(fmt.Sprintf("Tree Size:    %d nodes\n", report.TreeSize))
	buf.WriteString(fmt.Sprintf("New Paths:    %d\n", report.NewPathsTotal))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:      %s\n", report.Message))
	}
	buf.WriteString("\n")

	if len(report.Rounds) > 0 {
		buf.WriteString("ROUNDS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		buf.WriteString(fmt.Sprintf("%-8s %-10s %-10s %-10s %-10s %-10s\n",
			"Round", "Node", "Addr", "Batch", "NewPaths", "Elapsed(s)"))
		for _, r := range report.Rounds {
			buf.WriteString(fmt.Sprintf("%-8d %-10d %#-10x %-10d %-10d %-10.3f\n",
				r.Round, r.SelectedNode, r.SelectedAddr, r.BatchSize, r.NewPaths, r.ElapsedSeconds))
		}
		buf.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(strings.Repeat("=", 80) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	f.logger.Info("text report generated", "path", outputPath)
	return nil
}

// CompareReports generates a comparison report across multiple runs of
// (possibly) the same binary.
func (f *Formatter) CompareReports(reports []*RunReport, outputPath string) error {
	if len(reports) < 2 {
		return fmt.Errorf("need at least 2 reports to compare")
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   FUZZING RUN COMPARISON\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.Before(reports[j].StartTime)
	})

	buf.WriteString(fmt.Sprintf("%-40s %-14s %-10s %-8s\n", "Run ID", "Binary", "Duration", "Bug"))
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	for _, r := range reports {
		bug := "no"
		if r.BugFound {
			bug = "yes"
		}
		buf.WriteString(fmt.Sprintf("%-40s %-14s %-10s %-8s\n", r.RunID, r.Binary, r.Duration, bug))
	}
	buf.WriteString("\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write comparison report: %w", err)
	}
	f.logger.Info("comparison report generated", "path", outputPath)
	return nil
}

// GetReportPath generates a report file path based on a run report and
// format.
func GetReportPath(report *RunReport, format ReportFormat, outputDir string) string {
	timestamp := report.StartTime.Format("20060102-150405")
	filename := fmt.Sprintf("report-%s-%s.%s", timestamp, report.RunID, string(format))
	return filepath.Join(outputDir, filename)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Fuzzing Run Report - {{.RunID}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 1000px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
        .container { background-color: white; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); padding: 30px; }
        h1, h2 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 8px 8px 0 0; margin: -30px -30px 30px -30px; }
        .status { display: inline-block; padding: 5px 15px; border-radius: 4px; font-weight: bold; margin-left: 10px; }
        .status.pass { background-color: #27ae60; color: white; }
        .status.fail { background-color: #e74c3c; color: white; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #3498db; color: white; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Fuzzing Run Report</h1>
            <p>{{.Binary}}</p>
            <p>Run ID: {{.RunID}}</p>
        </div>

        <h2>Summary <span class="status {{statusClass .BugFound}}">{{if .BugFound}}BUG FOUND{{else}}NO BUG FOUND{{end}}</span></h2>
        <p>Start: {{formatTime .StartTime}} &middot; End: {{formatTime .EndTime}} &middot; Duration: {{.Duration}}</p>
        <p>Tree size: {{.TreeSize}} nodes &middot; New paths: {{.NewPathsTotal}}</p>

        {{if .Rounds}}
        <h2>Rounds</h2>
        <table>
            <thead><tr><th>Round</th><th>Node</th><th>Addr</th><th>Batch</th><th>New Paths</th><th>Elapsed (s)</th></tr></thead>
            <tbody>
                {{range .Rounds}}
                <tr><td>{{.Round}}</td><td>{{.SelectedNode}}</td><td>{{.SelectedAddr}}</td><td>{{.BatchSize}}</td><td>{{.NewPaths}}</td><td>{{.ElapsedSeconds}}</td></tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        {{if .Errors}}
        <h2>Errors</h2>
        <ul>{{range .Errors}}<li>{{.}}</li>{{end}}</ul>
        {{end}}

        <p style="text-align: center; color: #7f8c8d; margin-top: 30px;">Generated {{formatTime .EndTime}}</p>
    </div>
</body>
</html>
`
