package tree

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
)

// CheckInvariants walks the whole arena and verifies the structural
// invariants of §3 hold. It is the non-interactive analogue of the
// original implementation's debug-mode assertion: rather than dropping
// into a debugger on the first violation, it collects every violation in
// one pass so a single run surfaces the whole inconsistency at once.
func (t *Tree) CheckInvariants() error {
	var result *multierror.Error

	for h := Handle(0); int(h) < len(t.arena); h++ {
		n := t.node(h)

		switch n.Colour() {
		case Red:
			gold := t.node(n.GoldChild())
			if gold.Colour() != Gold {
				result = multierror.Append(result, fmt.Errorf("node %d: Simulation child %d is not Gold", h, gold.Handle))
			}
			if gold.Addr != n.Addr {
				result = multierror.Append(result, fmt.Errorf("node %d: Gold child addr %#x != parent addr %#x", h, gold.Addr, n.Addr))
			}
			if len(gold.Children) != 0 {
				result = multierror.Append(result, fmt.Errorf("node %d: Gold child %d has children", h, gold.Handle))
			}

		case Gold:
			if len(n.Children) != 0 {
				result = multierror.Append(result, fmt.Errorf("node %d: Gold node has children", h))
			}

		case White:
			if _, ok := n.data.(whiteData); !ok {
				result = multierror.Append(result, fmt.Errorf("node %d: White node carries non-white data", h))
			}

		case Black:
			for key, ch := range n.Children {
				if key != SimulationKey && t.node(ch).Colour() == Gold {
					result = multierror.Append(result, fmt.Errorf("node %d: Black node has a Gold child under key %q", h, key))
				}
			}
		}

		if n.FullyExplored {
			for key, ch := range n.Children {
				if key == SimulationKey {
					continue
				}
				if !t.node(ch).FullyExplored {
					result = multierror.Append(result, fmt.Errorf("node %d: fully_explored but child %d (key %q) is not", h, ch, key))
				}
			}
			if !math.IsInf(t.Score(h), -1) && h != t.root {
				result = multierror.Append(result, fmt.Errorf("node %d: fully_explored but score is not -Inf", h))
			}
		}

		if n.SimWin > n.SimTry {
			result = multierror.Append(result, fmt.Errorf("node %d: sim_win (%d) > sim_try (%d)", h, n.SimWin, n.SimTry))
		}
	}

	return result.ErrorOrNil()
}
