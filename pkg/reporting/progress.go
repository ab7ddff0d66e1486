package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports MCTS round progress as the fuzzer runs.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current run state.
func (pr *ProgressReporter) ReportState(state LiveRunState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportPhaseTransition reports a Selection/Simulation/Expansion/
// Propagation phase transition within one round.
func (pr *ProgressReporter) ReportPhaseTransition(round int, from, to string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "phase_transition",
			"round":     round,
			"from":      from,
			"to":        to,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("round %d: %s -> %s\n", round, from, to)
	default:
		fmt.Printf("[PHASE] round %d: %s -> %s\n", round, from, to)
	}
}

// ReportRoundCompleted reports that one MCTS round has finished.
func (pr *ProgressReporter) ReportRoundCompleted(round RoundSummary) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "round_completed",
			"round":     round,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		bug := ""
		if round.BugFound {
			bug = " BUG FOUND"
		}
		fmt.Printf("round %-5d node=%-6d addr=%#x batch=%-3d new_paths=%-3d %.2fs%s\n",
			round.Round, round.SelectedNode, round.SelectedAddr, round.BatchSize,
			round.NewPaths, round.ElapsedSeconds, bug)
	default:
		fmt.Printf("[ROUND %d] node=%d addr=%#x batch=%d new_paths=%d elapsed=%.2fs bug=%v\n",
			round.Round, round.SelectedNode, round.SelectedAddr, round.BatchSize,
			round.NewPaths, round.ElapsedSeconds, round.BugFound)
	}
}

// ReportRunCompleted reports run completion.
func (pr *ProgressReporter) ReportRunCompleted(report *RunReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "run_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printRunSummary(report)
	default:
		pr.printRunSummary(report)
	}
}

// reportText outputs progress in plain text format.
func (pr *ProgressReporter) reportText(state LiveRunState) {
	fmt.Printf("[%s] round %d: %s | elapsed: %s | tree: %d nodes | new paths: %d\n",
		time.Now().Format("15:04:05"),
		state.Round,
		state.State,
		state.Elapsed.Round(time.Second),
		state.TreeSize,
		state.NewPaths,
	)
	if state.BugFound {
		fmt.Println("  bug found")
	}
}

// reportJSON outputs progress in JSON format.
func (pr *ProgressReporter) reportJSON(state LiveRunState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

// reportTUI outputs progress in terminal UI format.
func (pr *ProgressReporter) reportTUI(state LiveRunState) {
	pr.clearScreen()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("   Run: %s\n", state.RunID)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("state:   %s\n", state.State)
	fmt.Printf("round:   %d\n", state.Round)
	fmt.Printf("elapsed: %s\n", state.Elapsed.Round(time.Second))
	fmt.Printf("tree:    %d nodes\n", state.TreeSize)
	fmt.Printf("paths:   %d new this round\n", state.NewPaths)
	if state.BugFound {
		fmt.Println()
		fmt.Println("bug found")
	}
	fmt.Println()
	fmt.Println(strings.Repeat("-", 80))
}

// printRunSummary prints the final run summary.
func (pr *ProgressReporter) printRunSummary(report *RunReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("   RUN SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	status := "no bug found"
	if report.BugFound {
		status = "bug found"
	}

	fmt.Printf("run:      %s (%s)\n", report.RunID, status)
	fmt.Printf("binary:   %s\n", report.Binary)
	fmt.Printf("duration: %s\n", report.Duration)
	fmt.Printf("rounds:   %d\n", len(report.Rounds))
	fmt.Printf("tree:     %d nodes\n", report.TreeSize)
	fmt.Printf("paths:    %d new total\n", report.NewPathsTotal)

	if len(report.Errors) > 0 {
		fmt.Printf("errors:   %d\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	fmt.Println()
}

// clearScreen clears the terminal screen.
func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

// clearLine clears the current line.
func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}
