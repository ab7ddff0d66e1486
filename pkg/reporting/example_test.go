package reporting_test

import (
	"fmt"
	"os"
	"time"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
)

// Example demonstrates the reporting package usage.
func Example() {
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: os.Stdout,
	})

	logger.Info("fuzzing run starting")
	logger.Info("round completed", "round", 1, "new_paths", 2)

	storage, err := reporting.NewStorage("./test-reports", 10, logger)
	if err != nil {
		fmt.Printf("Failed to create storage: %v\n", err)
		return
	}
	defer os.RemoveAll("./test-reports")

	report := &reporting.RunReport{
		RunID:     reporting.NewRunID(),
		Binary:    "./target",
		StartTime: time.Now().Add(-5 * time.Minute),
		EndTime:   time.Now(),
		Duration:  "5m0s",
		Status:    reporting.RunStatusCompleted,
		BugFound:  false,
		Rounds: []reporting.RoundSummary{
			{Round: 1, SelectedNode: 0, SelectedAddr: 0x401000, BatchSize: 5, NewPaths: 2, ElapsedSeconds: 0.42},
		},
		TreeSize:      7,
		NewPathsTotal: 2,
	}

	path, err := storage.SaveReport(report)
	if err != nil {
		fmt.Printf("Failed to save report: %v\n", err)
		return
	}

	fmt.Printf("Report saved successfully\n")

	summaries, err := storage.ListReports()
	if err != nil {
		fmt.Printf("Failed to list reports: %v\n", err)
		return
	}

	fmt.Printf("Found %d report(s)\n", len(summaries))
	for _, summary := range summaries {
		fmt.Printf("  %s: %s (%s)\n", summary.RunID, summary.Binary, summary.Status)
	}

	loadedReport, err := storage.LoadReport(path)
	if err != nil {
		fmt.Printf("Failed to load report: %v\n", err)
		return
	}

	fmt.Printf("Loaded report for run: %s\n", loadedReport.RunID)

	formatter := reporting.NewFormatter(logger)

	textPath := "./test-reports/report.txt"
	if err := formatter.GenerateReport(report, reporting.ReportFormatText, textPath); err != nil {
		fmt.Printf("Failed to generate text report: %v\n", err)
		return
	}
	fmt.Printf("Text report generated\n")

	htmlPath := "./test-reports/report.html"
	if err := formatter.GenerateReport(report, reporting.ReportFormatHTML, htmlPath); err != nil {
		fmt.Printf("Failed to generate HTML report: %v\n", err)
		return
	}
	fmt.Printf("HTML report generated\n")

	// Output will vary due to timestamps and generated run IDs, so we
	// don't include it.
}
