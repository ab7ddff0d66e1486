// Package compile turns a C source file into the instrumented binary the
// rest of the search expects, one of three ways: a project Makefile, a
// manual svcomp-style tracejump pipeline, or the trace-cc wrapper.
package compile

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
)

// Mode selects how a C source file is compiled into an instrumented
// binary, mirroring the three branches of Legion's --compile flag.
type Mode string

const (
	ModeMake    Mode = "make"
	ModeSVCOMP  Mode = "svcomp"
	ModeTraceCC Mode = "trace-cc"
)

// Config bundles everything Compile needs. CC and Out mirror --cc and -o;
// Out is required for ModeSVCOMP, optional for ModeTraceCC (defaults to
// the source's stem), and ignored by ModeMake, which always builds
// "<stem>.instr".
type Config struct {
	Mode   Mode
	Source string
	Out    string
	CC     string
}

// DefaultCC is used when Config.CC is empty.
const DefaultCC = "cc"

// IsSource reports whether path names a C source or SV-COMP preprocessed
// file (.c or .i) rather than an already-compiled binary.
func IsSource(path string) bool {
	return strings.HasSuffix(path, ".c") || strings.HasSuffix(path, ".i")
}

// stem strips a source file's two-character extension (.c or .i).
func stem(source string) string {
	return source[:len(source)-2]
}

// Compile produces an instrumented binary from cfg.Source and returns its
// path. It shells out to the same external tools Legion does (make,
// the target C compiler, tracejump.py, trace-cc) rather than reimplementing
// any instrumentation itself — compile-time tracing is out of this
// module's scope, only orchestrating the external step is.
func Compile(cfg Config, logger *reporting.Logger) (string, error) {
	if cfg.CC == "" {
		cfg.CC = DefaultCC
	}

	switch cfg.Mode {
	case ModeMake, "":
		if cfg.Out != "" && logger != nil {
			logger.Warn("--compile make overrides -o BINARY")
		}
		binary := stem(cfg.Source) + ".instr"
		if logger != nil {
			logger.Info("making instrumented binary", "binary", binary)
		}
		if err := run(logger, "make", "-B", binary); err != nil {
			return "", err
		}
		return binary, nil

	case ModeSVCOMP:
		if cfg.Out == "" {
			return "", fmt.Errorf("compile: --compile svcomp requires -o BINARY")
		}
		binary := cfg.Out
		asm := binary + ".s"
		instrumentedAsm := binary + ".instr.s"
		if err := run(logger, cfg.CC, "-no-pie", "-o", asm, "-S", cfg.Source); err != nil {
			return "", err
		}
		if err := run(logger, "./tracejump.py", asm, instrumentedAsm); err != nil {
			return "", err
		}
		if err := run(logger, cfg.CC, "-no-pie", "-O1", "-o", binary,
			"__VERIFIER.c", "__trace_jump.s", instrumentedAsm); err != nil {
			return "", err
		}
		return binary, nil

	case ModeTraceCC:
		binary := cfg.Out
		if binary == "" {
			binary = stem(cfg.Source)
		}
		if logger != nil {
			logger.Info("compiling with trace-cc", "binary", binary)
		}
		if err := run(logger, "./trace-cc", "-static", "-L.", "-legion", "-o", binary, cfg.Source); err != nil {
			return "", err
		}
		return binary, nil

	default:
		return "", fmt.Errorf("compile: invalid compilation mode %q", cfg.Mode)
	}
}

// run shells out to an external compilation tool, surfacing stderr on
// failure since these tools (make, cc, tracejump.py) fail with diagnostics
// users need to see, not just an exit code.
func run(logger *reporting.Logger, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if logger != nil {
			logger.Error("compilation step failed", "cmd", name, "output", string(out))
		}
		return fmt.Errorf("compile: %s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}
