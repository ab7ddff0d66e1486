package tree

import "github.com/jihwankim/legion-fuzz/pkg/symexec"

// MarkFullyExplored marks h fully explored and propagates the marker
// upward as a bottom-up fixpoint per §4.C. Before marking h itself, it
// checks, on h:
//
//   - h is not White (it might yet reveal a sibling under symbolic
//     single-step, so marking never applies to, or climbs past, White);
//   - every one of h's non-Gold children is already marked — a
//     never-selected Red child (sel_try == 0) blocks this, since it may
//     still be an un-sampled phantom hiding a new subtree;
//   - h itself is not an un-sampled Red phantom (sel_try == 0): marking
//     it here, on the very visit that should sample it, would prune its
//     Gold child's subtree before it is ever explored.
//
// Only once all three hold does h get marked (along with its Gold
// Simulation child, if any) and the same check recurse to its parent.
func (t *Tree) MarkFullyExplored(h Handle) {
	n := t.node(h)
	if n.FullyExplored {
		return
	}
	if n.Colour() == White {
		return
	}
	if !t.eligible(h) {
		return
	}
	if n.Colour() == Red && n.SelTry == 0 {
		return
	}

	n.FullyExplored = true
	if d, ok := n.data.(redData); ok {
		t.node(d.gold).FullyExplored = true
	}

	if n.Parent == NoHandle {
		return
	}
	t.MarkFullyExplored(n.Parent)
}

// ReconsiderAfterDye re-checks h for fully_explored eligibility once its
// colour has just resolved away from White. MarkFullyExplored refuses to
// climb through (or mark) a White node precisely because an un-dyed node
// might still turn out to hide a sibling; once Dye classifies it, that
// doubt is gone, but the cascade that was previously halted there never
// replays itself, so the caller that just dyed h must ask again
// explicitly. MarkFullyExplored re-applies all of its own guards, so this
// is just a direct retry.
func (t *Tree) ReconsiderAfterDye(h Handle) {
	t.MarkFullyExplored(h)
}

func (t *Tree) eligible(h Handle) bool {
	n := t.node(h)
	for key, ch := range n.Children {
		if key == SimulationKey {
			continue
		}
		child := t.node(ch)
		if !child.FullyExplored {
			return false
		}
		if child.Colour() == Red && child.SelTry == 0 {
			return false
		}
	}
	return true
}

// DyeResult reports what the colouring protocol discovered about the
// White node it was run against.
type DyeResult int

const (
	// DyeDeadEnd means symbolic execution hit the program's end before
	// reaching w; w was marked fully explored.
	DyeDeadEnd DyeResult = iota
	// DyeMatched means w was dyed Black (its parent state forces exactly
	// one successor, and it is w).
	DyeMatched
	// DyeBranched means w's parent state has two or more feasible
	// successors; w and its siblings were dyed/created Red accordingly.
	DyeBranched
)

// Dye runs the colouring/phantom-discovery protocol for the first visit
// to a White node w, per §4.D. engine is used to single-step from w's
// parent's relevant symbolic state through any straight-line run of
// forced (Black) blocks until divergence, program end, or a match with
// w.addr.
func (t *Tree) Dye(engine symexec.Engine, w Handle) (DyeResult, error) {
	node := t.node(w)
	parent := t.node(node.Parent)
	state := t.State(node.Parent)

	for {
		successors, err := engine.Step(state)
		if err != nil {
			return DyeDeadEnd, err
		}

		switch len(successors) {
		case 0:
			// Symbolic execution ran off the end of the program without
			// ever diverging again: w stays White (no state to dye it
			// with) but is marked fully explored directly, and the
			// cascade resumes from its parent, whose own self-checks
			// decide how far it climbs.
			t.node(w).FullyExplored = true
			if node.Parent != NoHandle {
				t.MarkFullyExplored(node.Parent)
			}
			return DyeDeadEnd, nil

		case 1:
			succ := successors[0]
			if succ.Addr != node.Addr {
				// Forced step through an intermediate Black block;
				// keep walking from the new state without consuming
				// a tree node for it (it is not w, and not yet
				// represented unless a later trace creates it).
				state = succ
				continue
			}
			t.DyeBlack(w, succ)
			return DyeMatched, nil

		default:
			return t.dyeBranch(parent, w, successors), nil
		}
	}
}

// dyeBranch handles the >=2 successor case: for each successor, either
// dye a matching existing non-Gold child Red with that state, or create a
// new Red phantom child. w is always one of the successors (it is the
// node whose first visit triggered the protocol) and ends up dyed Red by
// the matching branch below.
func (t *Tree) dyeBranch(parent *Node, w Handle, successors []*symexec.State) DyeResult {
	for _, succ := range successors {
		if existing, ok := t.MatchChild(parent.Handle, succ.Addr); ok {
			// Only a White child is still waiting to be classified; a
			// child already dyed Red, Black or Gold keeps whatever
			// colour (and Gold subtree, statistics) it already has.
			if t.node(existing).Colour() == White {
				t.DyeRed(existing, succ)
			}
			continue
		}
		t.AddPhantomChild(parent.Handle, succ.Addr, succ)
	}
	return DyeBranched
}
