package symexec

import (
	"context"
	"fmt"
)

// Branch describes the feasible successors of one address in a scripted
// control-flow graph, plus the concrete stdin values (if any) that would
// steer execution down each of those successors.
type Branch struct {
	Successors []int64
	// Models lists the concrete stdin values Iterate offers for a state
	// at this branch's own address; only the entry keyed by that address
	// is consulted. An address with no entry is treated as unconstrained:
	// HasConstraints reports false and Iterate ends at once.
	Models map[int64][]uint64
}

// ReplayEngine is a scripted Engine backed by a fixed control-flow graph.
// It exists so the tree, sampler and orchestrator can be exercised and
// tested deterministically without a real symbolic executor, which this
// project treats as an opaque external collaborator.
type ReplayEngine struct {
	Entry int64
	CFG   map[int64]Branch
}

// NewReplayEngine builds a ReplayEngine over the given control-flow graph.
func NewReplayEngine(entry int64, cfg map[int64]Branch) *ReplayEngine {
	return &ReplayEngine{Entry: entry, CFG: cfg}
}

func (e *ReplayEngine) LoadEntry(binary string) (*State, error) {
	if _, ok := e.CFG[e.Entry]; !ok {
		return nil, fmt.Errorf("symexec: replay engine has no branch for entry address %#x", e.Entry)
	}
	return &State{Addr: e.Entry, Backend: e.Entry}, nil
}

func (e *ReplayEngine) Step(s *State) ([]*State, error) {
	branch, ok := e.CFG[s.Addr]
	if !ok {
		return nil, nil
	}
	out := make([]*State, 0, len(branch.Successors))
	for _, addr := range branch.Successors {
		out = append(out, &State{Addr: addr, Backend: addr})
	}
	return out, nil
}

func (e *ReplayEngine) HasConstraints(s *State) bool {
	branch, ok := e.CFG[s.Addr]
	return ok && len(branch.Models[s.Addr]) > 0
}

func (e *ReplayEngine) Iterate(ctx context.Context, s *State) Iterator {
	branch := e.CFG[s.Addr]
	values := append([]uint64(nil), branch.Models[s.Addr]...)
	return &replayIterator{values: values}
}

type replayIterator struct {
	values []uint64
	pos    int
}

func (it *replayIterator) Next(ctx context.Context) (Sample, bool) {
	if it.pos >= len(it.values) {
		return Sample{}, false
	}
	v := it.values[it.pos]
	it.pos++
	return Sample{Value: v}, true
}
