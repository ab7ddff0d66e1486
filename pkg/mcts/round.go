package mcts

import (
	"context"
	"time"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
	"github.com/jihwankim/legion-fuzz/pkg/runner"
	"github.com/jihwankim/legion-fuzz/pkg/tree"
)

// Step runs exactly one Selection -> Simulation -> Expansion ->
// Propagation round and returns its summary. An aborted round (the
// selector pruned an entire subtree mid-descent, per §4.F note 1)
// returns a summary with BatchSize 0 and does no simulation work; the
// caller's budget gating re-checks on the next call.
func (o *Orchestrator) Step(ctx context.Context) (reporting.RoundSummary, error) {
	start := time.Now()
	o.round++
	summary := reporting.RoundSummary{Round: o.round, Timestamp: start}

	gold, aborted, err := o.selection(ctx)
	if err != nil {
		return summary, err
	}
	summary.SelectedNode = int(gold)
	summary.SelectedAddr = o.tree.Node(gold).Addr
	if aborted {
		summary.ElapsedSeconds = time.Since(start).Seconds()
		return summary, nil
	}

	results, sampled, bugFound, err := o.simulate(ctx, gold)
	if err != nil {
		return summary, err
	}
	summary.BatchSize = len(sampled)
	summary.BugFound = bugFound
	if bugFound {
		o.bugFound = true
	}

	outcomes := make([]expansionOutcome, 0, len(results))
	for _, res := range results {
		outcomes = append(outcomes, o.expand(res.Trace))
	}

	o.propagateSelection(gold, len(sampled))
	newPaths := 0
	for i, outcome := range outcomes {
		o.propagateTrace(outcome)
		if outcome.newPath {
			newPaths++
			o.persist(start.Unix(), sampled[i], results[i].Output)
		}
	}
	summary.NewPaths = newPaths
	summary.ElapsedSeconds = time.Since(start).Seconds()
	return summary, nil
}

// selection descends from root via best_child until a Gold node is
// reached, colouring White nodes and pruning fully explored leaves
// along the way, per §4.F.1. aborted is true if an entire subtree was
// pruned mid-descent; the caller should treat this round as a no-op and
// let budget gating re-evaluate.
func (o *Orchestrator) selection(ctx context.Context) (gold tree.Handle, aborted bool, err error) {
	cur := o.tree.Root()
	for {
		n := o.tree.Node(cur)
		if n.Colour() == tree.Gold {
			return cur, false, nil
		}

		if o.tree.IsLeaf(cur) {
			o.tree.MarkFullyExplored(cur)
		}

		if n.Colour() == tree.White {
			if _, dyeErr := o.tree.Dye(o.engine, cur); dyeErr != nil {
				return tree.NoHandle, false, dyeErr
			}
			// Dye may have resolved the one thing that was blocking an
			// ancestor's fully_explored cascade (an un-dyed White node
			// in its path to a child already marked done).
			o.tree.ReconsiderAfterDye(cur)
		}

		if o.tree.Node(cur).FullyExplored {
			return o.tree.Root(), true, nil
		}

		next, ok := o.tree.BestChild(cur)
		if !ok {
			return o.tree.Root(), true, nil
		}
		cur = next
	}
}

// simulate samples the selected Gold node and runs the target on every
// produced input, per §4.E/§4.F.2. It stops early once a bug is found
// unless running coverage-only, but the returned sampled slice always
// matches the produced batch (for sel_try back-propagation) while
// results only covers what was actually executed.
func (o *Orchestrator) simulate(ctx context.Context, gold tree.Handle) (results []runner.Result, sampled [][]byte, bugFound bool, err error) {
	state := o.tree.State(gold)
	sampleResult := o.sampler.Sample(ctx, state)
	o.tree.AddAccumulatedTime(gold, sampleResult.Elapsed)
	if sampleResult.Exhausted {
		o.tree.MarkFullyExplored(gold)
	}
	sampled = sampleResult.Inputs

	for _, input := range sampled {
		res, execErr := o.runner.Execute(ctx, input)
		if execErr != nil {
			return results, sampled[:len(results)], bugFound, fatalRunnerErr(o.binary, execErr)
		}
		results = append(results, res)
		if res.BugFound {
			bugFound = true
			if !o.budget.CoverageOnly {
				break
			}
		}
	}
	return results, sampled, bugFound, nil
}

// persist hands a new-path discovery to the artefact sink, if one was
// configured (§4.G). Persistence failures are logged, not fatal: losing
// a test artefact must never abort an otherwise-healthy search.
func (o *Orchestrator) persist(timestamp int64, input []byte, stdout []byte) {
	if o.sink == nil {
		return
	}
	if err := o.sink.SaveInput(timestamp, input); err != nil && o.logger != nil {
		o.logger.Warn("failed to persist input", "error", err)
	}
	if err := o.sink.SaveTestcase(timestamp, stdout); err != nil && o.logger != nil {
		o.logger.Warn("failed to persist testcase", "error", err)
	}
}
