// Package mcts implements the Selection/Simulation/Expansion/Propagation
// control loop that drives the search tree: each round asks the tree for
// a frontier Gold node, samples it, runs the target on the samples, and
// folds the resulting traces back in.
package mcts

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/jihwankim/legion-fuzz/pkg/artifact"
	"github.com/jihwankim/legion-fuzz/pkg/reporting"
	"github.com/jihwankim/legion-fuzz/pkg/runner"
	"github.com/jihwankim/legion-fuzz/pkg/sampler"
	"github.com/jihwankim/legion-fuzz/pkg/symexec"
	"github.com/jihwankim/legion-fuzz/pkg/tree"
)

// Phase names one step of a round, used for progress reporting only —
// the orchestrator itself is a single sequential call chain, not a
// state machine driven by a dispatch table.
type Phase int

const (
	PhaseSelection Phase = iota
	PhaseSimulation
	PhaseExpansion
	PhasePropagation
)

func (p Phase) String() string {
	switch p {
	case PhaseSelection:
		return "selection"
	case PhaseSimulation:
		return "simulation"
	case PhaseExpansion:
		return "expansion"
	case PhasePropagation:
		return "propagation"
	default:
		return "unknown"
	}
}

// Budget bounds a run per §4.F's gating conditions.
type Budget struct {
	MaxPaths     int
	MaxRounds    int
	CoverageOnly bool
}

// Config bundles everything New needs to build an Orchestrator.
type Config struct {
	Binary string
	Engine symexec.Engine

	TreeParams   tree.Params
	SamplerCfg   sampler.Config
	RunnerCfg    runner.Config
	Budget       Budget
	Seed         int64

	Sink     *artifact.Sink // may be nil: artefact persistence is optional
	Progress *reporting.ProgressReporter

	// OnRound, if set, is called with every round's summary right after
	// Progress sees it. It exists so a caller can mirror rounds onto
	// pkg/telemetry (Prometheus counters, the live websocket feed)
	// without the orchestrator importing telemetry itself.
	OnRound func(reporting.RoundSummary)
}

// Orchestrator owns one fuzzing run's tree, sampler and runner, and
// drives the round loop. Like the tree it wraps, it is single-threaded:
// the only concurrency in a run is the forked target process, drained
// synchronously before the next round begins (§5).
type Orchestrator struct {
	binary string
	engine symexec.Engine

	tree    *tree.Tree
	sampler *sampler.Sampler
	runner  *runner.Runner
	sink    *artifact.Sink
	logger  *reporting.Logger

	progress *reporting.ProgressReporter
	onRound  func(reporting.RoundSummary)
	budget   Budget

	round    int
	bugFound bool
}

// New creates an Orchestrator. Call Init before the first Step/Run.
func New(cfg Config, logger *reporting.Logger) *Orchestrator {
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Orchestrator{
		binary:   cfg.Binary,
		engine:   cfg.Engine,
		tree:     tree.New(cfg.TreeParams, rng),
		sampler:  sampler.New(cfg.Seed, cfg.Engine, cfg.SamplerCfg),
		runner:   runner.New(cfg.Binary, cfg.RunnerCfg, logger),
		sink:     cfg.Sink,
		logger:   logger,
		progress: cfg.Progress,
		onRound:  cfg.OnRound,
		budget:   cfg.Budget,
	}
}

// Tree exposes the underlying tree for inspection (invariant checks,
// DOT/Pretty dumps, reporting).
func (o *Orchestrator) Tree() *tree.Tree { return o.tree }

// BugFound reports whether any sampled execution so far returned the
// configured bug exit code.
func (o *Orchestrator) BugFound() bool { return o.bugFound }

// Round returns the number of rounds run so far, aborted rounds
// included.
func (o *Orchestrator) Round() int { return o.round }

// canContinue implements §4.F's budget gating: every condition must
// hold for another round to be attempted.
func (o *Orchestrator) canContinue() bool {
	if o.tree.Root() == tree.NoHandle {
		return false
	}
	if o.bugFound && !o.budget.CoverageOnly {
		return false
	}
	root := o.tree.Node(o.tree.Root())
	if o.budget.MaxPaths > 0 && int(root.SimWin) >= o.budget.MaxPaths {
		return false
	}
	if math.IsInf(o.tree.Score(o.tree.Root()), -1) {
		return false
	}
	if o.budget.MaxRounds > 0 && o.round >= o.budget.MaxRounds {
		return false
	}
	return true
}

// Run drives rounds until budget gating stops the search or ctx is
// cancelled, filling in report as it goes. It does not itself watch a
// wall-clock deadline — callers that want one pass shouldStop (for
// example pkg/budget.Watchdog.Expired), which Run checks between rounds.
// Run also checks ctx between rounds; a cancelled ctx additionally ends
// any target execution in flight, since the Runner executes under it.
func (o *Orchestrator) Run(ctx context.Context, report *reporting.RunReport, shouldStop func() bool) error {
	for o.canContinue() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if shouldStop != nil && shouldStop() {
			break
		}

		summary, err := o.Step(ctx)
		if err != nil {
			return err
		}
		report.Rounds = append(report.Rounds, summary)
		report.NewPathsTotal += summary.NewPaths
		if summary.BugFound {
			report.BugFound = true
		}
		if o.progress != nil {
			o.progress.ReportRoundCompleted(summary)
		}
		if o.onRound != nil {
			o.onRound(summary)
		}
	}

	report.TreeSize = o.tree.Size()
	report.BugFound = report.BugFound || o.bugFound
	return nil
}

// fatalRunnerErr wraps a runner error that §5/§7 classify as fatal for
// the whole process (timeout, contract violation) rather than a
// recoverable per-sample condition.
func fatalRunnerErr(binary string, err error) error {
	return fmt.Errorf("mcts: fatal runner error for %s: %w", binary, err)
}
