// Package tree implements the coloured search tree: an arena of nodes
// addressed by stable integer handles (never raw pointers, so parent and
// child links never form a reference cycle and the whole tree is trivial
// to dump or snapshot), each tagged with a colour that determines what
// data it owns.
package tree

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/jihwankim/legion-fuzz/pkg/symexec"
)

// Handle is a stable reference to a node in a Tree's arena.
type Handle int

// NoHandle is the zero value of an absent handle (e.g. the root's parent).
const NoHandle Handle = -1

// Colour is one of White, Red, Gold or Black. See colourData for the data
// each colour carries.
type Colour int

const (
	White Colour = iota
	Red
	Gold
	Black
)

func (c Colour) String() string {
	switch c {
	case White:
		return "White"
	case Red:
		return "Red"
	case Gold:
		return "Gold"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}

// SimulationKey is the literal child key under which a Red node's Gold
// Simulation child is stored.
const SimulationKey = "Simulation"

// colourData is the tagged-variant payload a node carries depending on its
// colour, per the colour/phantom polymorphism design note: White carries
// nothing, Red carries its Gold child's handle, Gold carries the symbolic
// state and sampling cursor, Black carries its own symbolic state.
type colourData interface {
	colour() Colour
}

type whiteData struct{}

func (whiteData) colour() Colour { return White }

type redData struct {
	gold Handle
}

func (redData) colour() Colour { return Red }

type goldData struct {
	state  *symexec.State
	cursor symexec.Iterator
}

func (goldData) colour() Colour { return Gold }

type blackData struct {
	state *symexec.State
}

func (blackData) colour() Colour { return Black }

// Node is one position in the target's control-flow as witnessed (or
// inferred) so far.
type Node struct {
	Handle   Handle
	Addr     int64
	Parent   Handle
	Children map[string]Handle

	data    colourData
	Phantom bool

	SelTry          uint64
	SelWin          uint64
	SimTry          uint64
	SimWin          uint64
	AccumulatedTime time.Duration
	FullyExplored   bool
}

// Colour reports the node's current colour.
func (n *Node) Colour() Colour { return n.data.colour() }

// GoldChild returns the handle of a Red node's Gold Simulation child. It
// panics if n is not Red — callers must check Colour first.
func (n *Node) GoldChild() Handle {
	return n.data.(redData).gold
}

// State returns "the symbolic state relevant to scoring/sampling" for n,
// per the single-inspector design note: Red defers to its Gold child,
// Gold and Black own their state directly, White has none.
func (t *Tree) State(h Handle) *symexec.State {
	n := t.node(h)
	switch d := n.data.(type) {
	case redData:
		return t.node(d.gold).data.(goldData).state
	case goldData:
		return d.state
	case blackData:
		return d.state
	default:
		return nil
	}
}

// Cursor returns the sampling cursor stored on a Gold node, or nil for
// any other colour. Callers that install a new cursor must use SetCursor.
func (t *Tree) Cursor(h Handle) symexec.Iterator {
	n := t.node(h)
	gd, ok := n.data.(goldData)
	if !ok {
		return nil
	}
	return gd.cursor
}

// SetCursor installs the sampling cursor on a Gold node.
func (t *Tree) SetCursor(h Handle, it symexec.Iterator) {
	n := t.node(h)
	gd := n.data.(goldData)
	gd.cursor = it
	n.data = gd
}

// Params are the run-wide constants the UCB score formula depends on,
// bundled the way the design notes ask ("no hidden globals") rather than
// read from package-level state.
type Params struct {
	MinSamples int
	MaxSamples int
	TimeCoeff  float64
}

// rho is RHO = 1/sqrt(2) from the scoring formula.
var rho = 1 / math.Sqrt2

// Tree is the arena plus its run-wide parameters and RNG. It is not safe
// for concurrent use — the orchestrator that owns it is single-threaded.
type Tree struct {
	arena  []*Node
	root   Handle
	params Params
	rng    *rand.Rand
}

// New creates an empty tree. Rng should be seeded by the caller for
// reproducible tie-breaks across a run.
func New(params Params, rng *rand.Rand) *Tree {
	return &Tree{root: NoHandle, params: params, rng: rng}
}

// Root returns the handle of the root node, or NoHandle before Init.
func (t *Tree) Root() Handle { return t.root }

// Size returns the number of nodes in the tree, Gold children included.
func (t *Tree) Size() int { return len(t.arena) }

func (t *Tree) node(h Handle) *Node {
	return t.arena[h]
}

// Node exposes the node at h for read-only inspection by other packages
// (the orchestrator, the reporting sink, the DOT renderer).
func (t *Tree) Node(h Handle) *Node { return t.arena[h] }

func (t *Tree) alloc(addr int64, parent Handle, data colourData) Handle {
	h := Handle(len(t.arena))
	t.arena = append(t.arena, &Node{
		Handle:   h,
		Addr:     addr,
		Parent:   parent,
		Children: make(map[string]Handle),
		data:     data,
	})
	return h
}

func addrKey(addr int64) string {
	return strconv.FormatInt(addr, 10)
}

// Init creates the root node at mainAddr and dyes it Red with the
// SymEngine's entry state, per the Initialisation procedure in §4.F. It
// must be called exactly once, before any other Tree mutation.
func (t *Tree) Init(mainAddr int64, entry *symexec.State) Handle {
	root := t.alloc(mainAddr, NoHandle, whiteData{})
	t.root = root
	t.DyeRed(root, entry)
	return root
}

// AddChild creates a fresh White child of parent at addr. It is the
// lifecycle path for "a concrete trace mentions an address not yet among
// its parent's children".
func (t *Tree) AddChild(parent Handle, addr int64) Handle {
	h := t.alloc(addr, parent, whiteData{})
	t.node(parent).Children[addrKey(addr)] = h
	return h
}

// DyeBlack classifies a White node as Black: its parent's symbolic state
// has exactly one feasible successor, and it is it.
func (t *Tree) DyeBlack(h Handle, state *symexec.State) {
	n := t.node(h)
	n.data = blackData{state: state}
}

// DyeRed classifies a node as Red, creating its Gold Simulation child.
// Used both for a White node whose parent state has >=2 feasible
// successors and, recursively, for the root during Init.
func (t *Tree) DyeRed(h Handle, state *symexec.State) {
	n := t.node(h)
	gold := t.alloc(n.Addr, h, goldData{state: state})
	n.Children[SimulationKey] = gold
	n.data = redData{gold: gold}
}

// AddPhantomChild materializes a Red phantom child of parent at addr:
// a branch inferred from symbolic evidence before any concrete trace has
// exercised it. Unlike AddChild it skips the White stage entirely.
func (t *Tree) AddPhantomChild(parent Handle, addr int64, state *symexec.State) Handle {
	h := t.alloc(addr, parent, whiteData{})
	t.node(parent).Children[addrKey(addr)] = h
	t.DyeRed(h, state)
	t.node(h).Phantom = true
	return h
}

// MatchChild looks up the non-Gold child of parent keyed by addr.
func (t *Tree) MatchChild(parent Handle, addr int64) (Handle, bool) {
	h, ok := t.node(parent).Children[addrKey(addr)]
	return h, ok
}

// ClearPhantom marks a Red node as no longer phantom: a real trace has
// now reached it.
func (t *Tree) ClearPhantom(h Handle) {
	t.node(h).Phantom = false
}

// IncSelTry adds delta to n's sel_try, the statistic incremented during
// selection-path back-propagation.
func (t *Tree) IncSelTry(h Handle, delta uint64) {
	t.node(h).SelTry += delta
}

// IncSimTry adds 1 to n's sim_try.
func (t *Tree) IncSimTry(h Handle) {
	t.node(h).SimTry++
}

// IncSimWin adds 1 to n's sim_win.
func (t *Tree) IncSimWin(h Handle) {
	t.node(h).SimWin++
}

// ClampSimTry raises n's sim_try to 1 if it is still 0, the terminal-node
// clamp integrate_path applies before the next trace in a batch is folded
// in, so a later trace landing on the same terminal sees it as visited.
func (t *Tree) ClampSimTry(h Handle) {
	n := t.node(h)
	if n.SimTry == 0 {
		n.SimTry = 1
	}
}

// AddAccumulatedTime adds d to n's accumulated sampling time.
func (t *Tree) AddAccumulatedTime(h Handle, d time.Duration) {
	t.node(h).AccumulatedTime += d
}

// IsLeaf reports whether n has no non-Gold children — the condition under
// which Selection marks a node fully explored outright.
func (t *Tree) IsLeaf(h Handle) bool {
	n := t.node(h)
	for key := range n.Children {
		if key != SimulationKey {
			return false
		}
	}
	return true
}

// Score implements the UCB1-with-time-penalty formula of §4.C, including
// its special values (root, sel_try==0, fully_explored).
func (t *Tree) Score(h Handle) float64 {
	n := t.node(h)
	if n.FullyExplored {
		return math.Inf(-1)
	}
	if h == t.root {
		return math.Inf(1)
	}
	if n.SelTry == 0 {
		return math.Inf(1)
	}
	parent := t.node(n.Parent)

	exploit := float64(n.SimWin) / float64(n.SelTry)
	explore := math.Sqrt(2 * math.Log(float64(parent.SelTry)) / float64(n.SimTry+1))

	denom := math.Log2(float64(t.params.MinSamples)) + float64(n.SelTry) - 1
	denom = math.Ceil(denom)
	if denom < 1 {
		denom = 1
	}
	avgSolveTime := n.AccumulatedTime.Seconds() / denom

	expectedSamples := float64(t.params.MinSamples) * math.Pow(2, float64(n.SelTry))
	if expectedSamples > float64(t.params.MaxSamples) {
		expectedSamples = float64(t.params.MaxSamples)
	}
	penalty := t.params.TimeCoeff * avgSolveTime / expectedSamples

	return exploit + 2*rho*explore - penalty
}

// BestChild returns a uniformly random element of argmax score(child)
// over all of n's children, Gold included. Deterministic ordering would
// starve legitimate frontiers when many children tie at +Inf.
func (t *Tree) BestChild(h Handle) (Handle, bool) {
	n := t.node(h)
	if len(n.Children) == 0 {
		return NoHandle, false
	}

	var best []Handle
	bestScore := math.Inf(-1)
	for _, child := range n.Children {
		s := t.Score(child)
		switch {
		case s > bestScore:
			bestScore = s
			best = []Handle{child}
		case s == bestScore:
			best = append(best, child)
		}
	}
	if len(best) == 0 {
		return NoHandle, false
	}
	return best[t.rng.Intn(len(best))], true
}
