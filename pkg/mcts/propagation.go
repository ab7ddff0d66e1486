package mcts

import "github.com/jihwankim/legion-fuzz/pkg/tree"

// propagateSelection is §4.F.4(a): walk from the selected Gold node to
// the root, adding the batch size to each sel_try.
func (o *Orchestrator) propagateSelection(gold tree.Handle, batchSize int) {
	if batchSize == 0 {
		return
	}
	for cur := gold; cur != tree.NoHandle; cur = o.tree.Node(cur).Parent {
		o.tree.IncSelTry(cur, uint64(batchSize))
	}
}

// propagateTrace is §4.F.4(b): walk one trace's path from root,
// incrementing sim_try (and sim_win, if the trace was a new path) on
// every visited node, incrementing a Red node's Gold child's sim_try in
// lockstep, and finally marking the terminal node fully explored.
func (o *Orchestrator) propagateTrace(outcome expansionOutcome) {
	for _, h := range outcome.path {
		o.tree.IncSimTry(h)
		if outcome.newPath {
			o.tree.IncSimWin(h)
		}
		if n := o.tree.Node(h); n.Colour() == tree.Red {
			o.tree.IncSimTry(n.GoldChild())
		}
	}
	terminal := outcome.path[len(outcome.path)-1]
	o.tree.MarkFullyExplored(terminal)
}
