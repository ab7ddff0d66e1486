package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihwankim/legion-fuzz/pkg/artifact"
	"github.com/jihwankim/legion-fuzz/pkg/budget"
	"github.com/jihwankim/legion-fuzz/pkg/compile"
	"github.com/jihwankim/legion-fuzz/pkg/config"
	"github.com/jihwankim/legion-fuzz/pkg/mcts"
	"github.com/jihwankim/legion-fuzz/pkg/reporting"
	"github.com/jihwankim/legion-fuzz/pkg/runner"
	"github.com/jihwankim/legion-fuzz/pkg/sampler"
	"github.com/jihwankim/legion-fuzz/pkg/symexec"
	"github.com/jihwankim/legion-fuzz/pkg/telemetry"
	"github.com/jihwankim/legion-fuzz/pkg/tree"
)

func runLegion(cmd *cobra.Command, args []string) error {
	file := args[0]
	seedPaths := args[1:]

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := reporting.LogLevel(cfg.Framework.LogLevel)
	if verbose {
		level = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  level,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})

	binary := file
	if compile.IsSource(file) {
		out, _ := cmd.Flags().GetString("output")
		ccProg, _ := cmd.Flags().GetString("cc")
		modeFlag, _ := cmd.Flags().GetString("compile")
		binary, err = compile.Compile(compile.Config{
			Mode:   compile.Mode(modeFlag),
			Source: file,
			Out:    out,
			CC:     ccProg,
		}, logger)
		if err != nil {
			return fmt.Errorf("compiling %s: %w", file, err)
		}
	}

	seeds, err := loadSeeds(seedPaths)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		seeds = [][]byte{{0}}
	}

	engine := buildEngine(cmd)

	var sink *artifact.Sink
	if cfg.Reporting.SaveInputs || cfg.Reporting.SaveTests {
		sink, err = artifact.New(artifact.Config{
			OutputDir:   cfg.Reporting.OutputDir,
			Binary:      binary,
			ProgramFile: file,
			MinSamples:  cfg.Search.MinSamples,
			TimeCoeff:   cfg.Search.TimePenalty,
			StartEpoch:  time.Now().Unix(),
			SaveInputs:  cfg.Reporting.SaveInputs,
			SaveTests:   cfg.Reporting.SaveTests,
		})
		if err != nil {
			return fmt.Errorf("creating artefact sink: %w", err)
		}
	}

	var feed *telemetry.LiveFeed
	var tserv *telemetryServer
	if cfg.Telemetry.Enabled {
		feed = telemetry.NewLiveFeed()
		tserv = startTelemetryServer(cfg.Telemetry.ListenAddr, feed, logger)
		defer tserv.Shutdown()
		defer feed.Close()
	}

	format, _ := cmd.Flags().GetString("format")
	progress := reporting.NewProgressReporter(reporting.OutputFormat(format), logger)

	var orc *mcts.Orchestrator
	var onRound func(reporting.RoundSummary)
	if feed != nil {
		onRound = func(summary reporting.RoundSummary) {
			telemetry.RecordRound(summary)
			telemetry.SetTreeSize(orc.Tree().Size())
			feed.Publish(summary)
		}
	}

	orc = mcts.New(mcts.Config{
		Binary: binary,
		Engine: engine,
		TreeParams: tree.Params{
			MinSamples: cfg.Search.MinSamples,
			MaxSamples: cfg.Search.MaxSamples,
			TimeCoeff:  cfg.Search.TimePenalty,
		},
		SamplerCfg: sampler.Config{
			MinSamples: cfg.Search.MinSamples,
			MaxSamples: cfg.Search.MaxSamples,
			MaxBytes:   cfg.Search.MaxBytes,
		},
		RunnerCfg: runner.Config{
			BugReturnCode: cfg.Runner.BugReturnCode,
			Timeout:       cfg.Runner.Timeout,
		},
		Budget: mcts.Budget{
			MaxPaths:     cfg.Search.MaxPaths,
			MaxRounds:    cfg.Search.MaxRounds,
			CoverageOnly: cfg.Search.CoverageOnly,
		},
		Seed:     cfg.Search.Seed,
		Sink:     sink,
		Progress: progress,
		OnRound:  onRound,
	}, logger)

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return fmt.Errorf("creating report storage: %w", err)
	}

	report := &reporting.RunReport{
		RunID:     reporting.NewRunID(),
		Binary:    binary,
		StartTime: time.Now(),
		Status:    reporting.RunStatusRunning,
	}

	wd := budget.New(cfg.Budget.MaxDuration)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wd.OnExpire(func(reason string) {
		logger.Warn("run budget expired", "reason", reason)
	})
	wd.Start(ctx)

	_, err = orc.Init(ctx, seeds)
	if err != nil {
		report.Status = reporting.RunStatusFailed
		report.Errors = append(report.Errors, err.Error())
		finishReport(report, storage)
		return fmt.Errorf("initialising search: %w", err)
	}

	runErr := orc.Run(ctx, report, wd.Expired)
	report.TreeSize = orc.Tree().Size()
	report.BugFound = report.BugFound || orc.BugFound()

	if runErr != nil && runErr != context.Canceled {
		report.Status = reporting.RunStatusFailed
		report.Errors = append(report.Errors, runErr.Error())
	} else {
		report.Status = reporting.RunStatusCompleted
	}

	finishReport(report, storage)
	progress.ReportRunCompleted(report)

	if report.Status == reporting.RunStatusFailed {
		return fmt.Errorf("run failed: %s", strings.Join(report.Errors, "; "))
	}
	return nil
}

func finishReport(report *reporting.RunReport, storage *reporting.Storage) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).String()
	if _, err := storage.SaveReport(report); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}
}

// applyFlagOverrides layers explicitly-set CLI flags over whatever Load
// produced, so a config file sets defaults a flag can still override.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min-samples") {
		cfg.Search.MinSamples, _ = flags.GetInt("min-samples")
	}
	if flags.Changed("max-samples") {
		cfg.Search.MaxSamples, _ = flags.GetInt("max-samples")
	}
	if flags.Changed("time-penalty") {
		cfg.Search.TimePenalty, _ = flags.GetFloat64("time-penalty")
	}
	if flags.Changed("coverage-only") {
		cfg.Search.CoverageOnly, _ = flags.GetBool("coverage-only")
	}
	if flags.Changed("save-inputs") {
		cfg.Reporting.SaveInputs, _ = flags.GetBool("save-inputs")
	}
	if flags.Changed("save-tests") {
		cfg.Reporting.SaveTests, _ = flags.GetBool("save-tests")
	}
	if flags.Changed("max-duration") {
		cfg.Budget.MaxDuration, _ = flags.GetDuration("max-duration")
	}
	if v, _ := flags.GetBool("verbose"); v {
		cfg.Framework.LogLevel = string(reporting.LogLevelDebug)
	}
}

func loadSeeds(paths []string) ([][]byte, error) {
	seeds := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading seed %s: %w", p, err)
		}
		seeds = append(seeds, data)
	}
	return seeds, nil
}

func buildEngine(cmd *cobra.Command) symexec.Engine {
	endpoint, _ := cmd.Flags().GetString("engine")
	return symexec.NewRPCEngine(endpoint, 0)
}
