package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// RunDirName builds the per-run directory name
// "<binary-basename>_<MIN_SAMPLES>_<TIME_COEFF>_<start_epoch_seconds>".
func RunDirName(binary string, minSamples int, timeCoeff float64, startEpochSeconds int64) string {
	base := filepath.Base(binary)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%d_%s_%d", base, minSamples, trimFloat(timeCoeff), startEpochSeconds)
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// Sink persists new-path inputs and, optionally, TEST-COMP testcases for
// one fuzzing run. It is the Runner's and the orchestrator's only way of
// touching the filesystem for artefacts, mirroring how
// pkg/reporting.Storage is the sole writer of run reports.
type Sink struct {
	testsDir    string
	inputsDir   string
	saveInputs  bool
	saveTests   bool
	solvingSeq  int64
	programFile string
}

// Config configures a Sink.
type Config struct {
	OutputDir   string
	Binary      string
	ProgramFile string
	MinSamples  int
	TimeCoeff   float64
	StartEpoch  int64
	SaveInputs  bool
	SaveTests   bool
}

// New creates the per-run tests/ and inputs/ directories (as needed) and
// returns a Sink ready to persist artefacts for that run.
func New(cfg Config) (*Sink, error) {
	runDir := RunDirName(cfg.Binary, cfg.MinSamples, cfg.TimeCoeff, cfg.StartEpoch)

	s := &Sink{
		saveInputs:  cfg.SaveInputs,
		saveTests:   cfg.SaveTests,
		programFile: cfg.ProgramFile,
	}

	if cfg.SaveTests {
		s.testsDir = filepath.Join(cfg.OutputDir, "tests", runDir)
		if err := os.MkdirAll(s.testsDir, 0755); err != nil {
			return nil, fmt.Errorf("create tests directory: %w", err)
		}
		if cfg.ProgramFile != "" {
			if err := WriteMetadata(filepath.Join(s.testsDir, "metadata.xml"), cfg.ProgramFile); err != nil {
				return nil, err
			}
		}
	}
	if cfg.SaveInputs {
		s.inputsDir = filepath.Join(cfg.OutputDir, "inputs", runDir)
		if err := os.MkdirAll(s.inputsDir, 0755); err != nil {
			return nil, fmt.Errorf("create inputs directory: %w", err)
		}
	}

	return s, nil
}

// filename builds "<timestamp>_<solving_count>" per-file naming.
func (s *Sink) filename(timestamp int64) string {
	n := atomic.AddInt64(&s.solvingSeq, 1)
	return fmt.Sprintf("%d_%d", timestamp, n)
}

// SaveInput persists a raw byte input that discovered a new path.
func (s *Sink) SaveInput(timestamp int64, input []byte) error {
	if !s.saveInputs {
		return nil
	}
	path := filepath.Join(s.inputsDir, s.filename(timestamp))
	if err := os.WriteFile(path, input, 0644); err != nil {
		return fmt.Errorf("write input: %w", err)
	}
	return nil
}

// SaveTestcase persists a TEST-COMP testcase for a target execution that
// discovered a new path.
func (s *Sink) SaveTestcase(timestamp int64, stdout []byte) error {
	if !s.saveTests {
		return nil
	}
	path := filepath.Join(s.testsDir, s.filename(timestamp)+".xml")
	return WriteTestcase(path, stdout)
}
