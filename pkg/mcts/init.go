package mcts

import (
	"context"
	"fmt"
	"time"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
)

// Init runs §4.F's Initialisation procedure: with no node to fuzz yet,
// draw the first batch from seeds (or random fuzzing absent any),
// execute it to learn main_addr, create the root, dye it Red with the
// engine's entry state, and fold the batch's traces in exactly as a
// normal round's Expansion and Propagation would.
func (o *Orchestrator) Init(ctx context.Context, seeds [][]byte) (reporting.RoundSummary, error) {
	start := time.Now()
	summary := reporting.RoundSummary{Round: 0, Timestamp: start}

	entry, err := o.engine.LoadEntry(o.binary)
	if err != nil {
		return summary, fmt.Errorf("mcts: load entry state: %w", err)
	}

	batch := seeds
	if len(batch) == 0 {
		random := o.sampler.Sample(ctx, nil)
		batch = random.Inputs
	}
	if len(batch) == 0 {
		return summary, fmt.Errorf("mcts: initial batch is empty")
	}

	var results []struct {
		trace  []uint64
		output []byte
	}
	var mainAddr uint64
	for i, input := range batch {
		res, execErr := o.runner.Execute(ctx, input)
		if execErr != nil {
			return summary, fatalRunnerErr(o.binary, execErr)
		}
		if len(res.Trace) == 0 {
			return summary, fmt.Errorf("mcts: initial execution %d produced an empty trace (contract violation)", i)
		}
		if i == 0 {
			mainAddr = res.Trace[0]
		} else if res.Trace[0] != mainAddr {
			return summary, fmt.Errorf("mcts: initial batch traces disagree on main address: %#x vs %#x", mainAddr, res.Trace[0])
		}
		results = append(results, struct {
			trace  []uint64
			output []byte
		}{trace: res.Trace, output: res.Output})
		if res.BugFound {
			o.bugFound = true
		}
	}

	root := o.tree.Init(int64(mainAddr), entry)
	gold := o.tree.Node(root).GoldChild()

	outcomes := make([]expansionOutcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, o.expand(r.trace))
	}

	o.propagateSelection(gold, len(batch))
	newPaths := 0
	for i, outcome := range outcomes {
		o.propagateTrace(outcome)
		if outcome.newPath {
			newPaths++
			o.persist(start.Unix(), batch[i], results[i].output)
		}
	}

	summary.SelectedNode = int(root)
	summary.SelectedAddr = int64(mainAddr)
	summary.BatchSize = len(batch)
	summary.NewPaths = newPaths
	summary.BugFound = o.bugFound
	summary.ElapsedSeconds = time.Since(start).Seconds()
	return summary, nil
}
