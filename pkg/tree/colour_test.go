package tree_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/symexec"
	"github.com/jihwankim/legion-fuzz/pkg/tree"
)

// TestDyeDeepLinearChain grounds end-to-end scenario 4: a long run of
// forced blocks between a Red root and a diverging node is walked in one
// Dye call, stepping through every intermediate block without creating a
// tree node for any of them (a node for one is created only if a trace
// later visits it).
func TestDyeDeepLinearChain(t *testing.T) {
	const chainLen = 20
	cfg := map[int64]symexec.Branch{}
	for i := int64(0); i < chainLen; i++ {
		cfg[i] = symexec.Branch{Successors: []int64{i + 1}}
	}
	cfg[chainLen] = symexec.Branch{Successors: []int64{chainLen + 1, chainLen + 2}}

	engine := symexec.NewReplayEngine(0, cfg)
	entry, err := engine.LoadEntry("target")
	require.NoError(t, err)

	tr := tree.New(tree.Params{MinSamples: 5, MaxSamples: 100}, rand.New(rand.NewSource(1)))
	root := tr.Init(0, entry)
	w := tr.AddChild(root, chainLen+1)

	result, err := tr.Dye(engine, w)
	require.NoError(t, err)
	assert.Equal(t, tree.DyeBranched, result)
	assert.Equal(t, tree.Red, tr.Node(w).Colour())

	sibling, ok := tr.MatchChild(root, chainLen+2)
	require.True(t, ok)
	assert.Equal(t, tree.Red, tr.Node(sibling).Colour())
	assert.True(t, tr.Node(sibling).Phantom, "the unvisited branch is a phantom")
	assert.False(t, tr.Node(w).Phantom, "w was reached by a real trace, so it is never a phantom")
}

// TestDyeDeadEnd grounds end-to-end scenario 5: an unsatisfiable
// sub-branch's single step returns no successors, so the node is marked
// fully explored immediately.
func TestDyeDeadEnd(t *testing.T) {
	cfg := map[int64]symexec.Branch{
		0: {Successors: nil},
		1: {Successors: nil},
	}
	engine := symexec.NewReplayEngine(0, cfg)
	entry, _ := engine.LoadEntry("target")

	tr := tree.New(tree.Params{MinSamples: 5, MaxSamples: 100}, rand.New(rand.NewSource(1)))
	root := tr.Init(0, entry)
	w := tr.AddChild(root, 1)

	result, err := tr.Dye(engine, w)
	require.NoError(t, err)
	assert.Equal(t, tree.DyeDeadEnd, result)
	assert.True(t, tr.Node(w).FullyExplored)
}

// TestDyeMatched grounds the forced single-successor case: w is dyed
// Black, not Red, and does not spawn a Gold Simulation child.
func TestDyeMatched(t *testing.T) {
	cfg := map[int64]symexec.Branch{
		0: {Successors: []int64{1}},
		1: {Successors: []int64{}},
	}
	engine := symexec.NewReplayEngine(0, cfg)
	entry, _ := engine.LoadEntry("target")

	tr := tree.New(tree.Params{MinSamples: 5, MaxSamples: 100}, rand.New(rand.NewSource(1)))
	root := tr.Init(0, entry)
	w := tr.AddChild(root, 1)

	result, err := tr.Dye(engine, w)
	require.NoError(t, err)
	assert.Equal(t, tree.DyeMatched, result)
	assert.Equal(t, tree.Black, tr.Node(w).Colour())
}
