package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set by build flags

var rootCmd = &cobra.Command{
	Use:   "legion-fuzz FILE [SEEDS...]",
	Short: "Coverage-guided concolic fuzzer for instrumented binaries",
	Long: `legion-fuzz drives a Monte Carlo tree search over a target binary's
control-flow graph, alternating concrete execution with symbolic
single-stepping to decide what to try next. FILE is either an already
instrumented binary or a .c/.i source file to compile first; any
trailing positional arguments seed the initial batch.`,
	Version: version,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runLegion,
}

func init() {
	rootCmd.Flags().Int("min-samples", 5, "minimum samples drawn per simulation")
	rootCmd.Flags().Int("max-samples", 100, "maximum samples drawn per simulation")
	rootCmd.Flags().Float64("time-penalty", 0, "penalty factor for constraints that take longer to solve")
	rootCmd.Flags().Bool("coverage-only", false, "do not terminate when a bug is captured")
	rootCmd.Flags().Bool("save-inputs", false, "save new-path inputs as binary files")
	rootCmd.Flags().Bool("save-tests", false, "save new-path inputs as TEST-COMP XML testcases")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase output verbosity")
	rootCmd.Flags().StringP("output", "o", "", "output binary location when compiling from source")
	rootCmd.Flags().String("cc", "cc", "C compiler to use together with --compile svcomp")
	rootCmd.Flags().String("compile", "make", "how to compile a C input file (make, svcomp, trace-cc)")
	rootCmd.Flags().String("config", "", "path to a legion-fuzz.yaml config file")
	rootCmd.Flags().String("format", "text", "progress output format (text, json, tui)")
	rootCmd.Flags().String("engine", "http://127.0.0.1:8765/rpc", "symbolic execution backend RPC endpoint")
	rootCmd.Flags().Duration("max-duration", 0, "wall-clock run budget, 0 disables it")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
