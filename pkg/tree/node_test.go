package tree_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/symexec"
	"github.com/jihwankim/legion-fuzz/pkg/tree"
)

func newTestTree() *tree.Tree {
	return tree.New(tree.Params{MinSamples: 5, MaxSamples: 100, TimeCoeff: 0.5}, rand.New(rand.NewSource(1)))
}

func TestInitDyesRootRed(t *testing.T) {
	tr := newTestTree()
	root := tr.Init(0x400500, &symexec.State{Addr: 0x400500})

	require.Equal(t, tree.Red, tr.Node(root).Colour())
	gold := tr.Node(root).GoldChild()
	assert.Equal(t, tree.Gold, tr.Node(gold).Colour())
	assert.Equal(t, tr.Node(root).Addr, tr.Node(gold).Addr)
	assert.Empty(t, tr.Node(gold).Children)
}

func TestUCBBoundary_I8(t *testing.T) {
	tr := newTestTree()
	root := tr.Init(0x400500, &symexec.State{Addr: 0x400500})
	child := tr.AddChild(root, 0x400520)

	assert.True(t, math.IsInf(tr.Score(child), 1), "unselected node must score +Inf")

	tr.IncSelTry(root, 1)
	tr.IncSelTry(child, 1)
	assert.False(t, math.IsInf(tr.Score(child), 1), "node with sel_try>0 must not score +Inf")
}

func TestFullyExploredSoundness_I4(t *testing.T) {
	tr := newTestTree()
	root := tr.Init(0x400500, &symexec.State{Addr: 0x400500})
	child := tr.AddChild(root, 0x400520)
	tr.DyeBlack(child, &symexec.State{Addr: 0x400520})

	tr.IncSelTry(root, 1)
	tr.IncSelTry(child, 1)

	tr.MarkFullyExplored(child)
	assert.True(t, tr.Node(child).FullyExplored)
	assert.True(t, math.IsInf(tr.Score(child), -1))
}

func TestFullyExploredNeverThroughUnselectedPhantom(t *testing.T) {
	tr := newTestTree()
	root := tr.Init(0x400500, &symexec.State{Addr: 0x400500})
	gold := tr.Node(root).GoldChild()

	// Root's own sel_try, incremented by every propagateSelection call
	// regardless of which descendant was sampled, is already nonzero by
	// the time any of its descendants could possibly be fully explored.
	tr.IncSelTry(root, 1)

	// Root's only non-Gold children: one phantom Red (never selected).
	phantom := tr.AddPhantomChild(root, 0x400600, &symexec.State{Addr: 0x400600})
	tr.MarkFullyExplored(gold)

	assert.False(t, tr.Node(root).FullyExplored, "root must not be marked while its phantom child has sel_try==0")

	tr.IncSelTry(phantom, 1)
	phantomGold := tr.Node(phantom).GoldChild()
	tr.MarkFullyExplored(phantomGold)
	assert.True(t, tr.Node(phantom).FullyExplored)
	assert.True(t, tr.Node(root).FullyExplored, "root becomes eligible once its phantom has been selected and exhausted")
}

func TestBestChildBreaksTiesRandomly(t *testing.T) {
	tr := newTestTree()
	root := tr.Init(0x400500, &symexec.State{Addr: 0x400500})
	a := tr.AddChild(root, 0x1)
	b := tr.AddChild(root, 0x2)

	seen := map[tree.Handle]bool{}
	for i := 0; i < 50; i++ {
		best, ok := tr.BestChild(root)
		require.True(t, ok)
		seen[best] = true
	}
	assert.True(t, seen[a] && seen[b], "every child tied at +Inf is eventually chosen")
}

func TestMatchChildIgnoresSimulationKey(t *testing.T) {
	tr := newTestTree()
	root := tr.Init(0x400500, &symexec.State{Addr: 0x400500})

	_, ok := tr.MatchChild(root, tr.Node(root).Addr)
	assert.False(t, ok, "the Gold Simulation child must not be reachable via MatchChild")
}

func TestIsLeaf(t *testing.T) {
	tr := newTestTree()
	root := tr.Init(0x400500, &symexec.State{Addr: 0x400500})
	gold := tr.Node(root).GoldChild()

	assert.True(t, tr.IsLeaf(gold))
	assert.True(t, tr.IsLeaf(root), "a Gold Simulation child alone does not make a node non-leaf")

	child := tr.AddChild(root, 0x400520)
	assert.False(t, tr.IsLeaf(root))
	assert.True(t, tr.IsLeaf(child))
}
