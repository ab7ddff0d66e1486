// Package symexec defines the adapter boundary to a symbolic ("concolic")
// execution backend. The backend itself is an opaque external collaborator;
// this package only fixes the contract the rest of the fuzzer programs
// against (load an entry state, single-step it, and iterate concrete
// assignments of the symbolic stdin stream that satisfy its path condition).
package symexec

import "context"

// State is a position in a symbolic execution: a program counter plus
// whatever path-condition state the backend needs to step or solve from
// here. Backend is intentionally opaque — callers never inspect it, only
// pass it back to the Engine that produced it.
type State struct {
	Addr    int64
	Backend interface{}
}

// Sample is one element of the lazy stream produced by Iterate. Bottom
// mirrors the ⊥ sentinel of the contract: "the next concrete value would
// require an additional constraint-solving call". A caller that has
// already collected MIN_SAMPLES may treat Bottom as a cue to stop instead
// of paying for another solve.
type Sample struct {
	Value  uint64
	Bottom bool
}

// Iterator is the lazy stream of Iterate. Next returns ok=false once the
// path condition admits no more models; it never returns ok=false and a
// usable Sample at the same time.
type Iterator interface {
	Next(ctx context.Context) (sample Sample, ok bool)
}

// Engine is the full adapter surface. Any backend meeting this contract —
// a real symbolic executor or a scripted stand-in — may drive the fuzzer.
type Engine interface {
	// LoadEntry produces a state positioned at the target's entry point,
	// with standard input modeled as an unbounded symbolic byte stream.
	LoadEntry(binary string) (*State, error)

	// Step single-steps s, returning every feasible successor state. An
	// empty result means symbolic execution has reached a dead end (the
	// program exited on every path from s).
	Step(s *State) ([]*State, error)

	// HasConstraints reports whether s's path condition constrains
	// anything beyond "stdin is an unconstrained byte stream" — the
	// Sampler uses this to decide between constraint-guided and uniform
	// random sampling.
	HasConstraints(s *State) bool

	// Iterate yields concrete assignments of the symbolic stdin stream
	// that satisfy s's path condition.
	Iterate(ctx context.Context, s *State) Iterator
}
