package mcts

import "github.com/jihwankim/legion-fuzz/pkg/tree"

// expansionOutcome records what walking one trace through the tree did,
// per §4.F.3: the path of nodes visited (root to terminal) and whether
// the trace counts as a new path.
type expansionOutcome struct {
	path    []tree.Handle
	newPath bool
}

// expand walks trace from root via match_child, creating missing White
// children and clearing the phantom flag of any matched phantom. trace's
// first element is the root's own address (every trace starts with
// main) and is not walked again.
func (o *Orchestrator) expand(trace []uint64) expansionOutcome {
	cur := o.tree.Root()
	path := []tree.Handle{cur}
	created := false

	for _, addr := range trace[1:] {
		child, ok := o.tree.MatchChild(cur, int64(addr))
		if ok {
			if o.tree.Node(child).Phantom {
				o.tree.ClearPhantom(child)
			}
		} else {
			child = o.tree.AddChild(cur, int64(addr))
			created = true
		}
		path = append(path, child)
		cur = child
	}

	terminal := path[len(path)-1]
	newPath := created || o.tree.Node(terminal).SimTry == 0
	// §4.F.3: clamp the terminal's sim_try to at least 1 here, before the
	// next trace in this batch is expanded, so a repeat of the same path
	// does not see sim_try==0 and get counted as a new path again.
	o.tree.ClampSimTry(terminal)
	return expansionOutcome{path: path, newPath: newPath}
}
