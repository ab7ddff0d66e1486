// Package sampler turns a selected Gold node's symbolic state into a
// batch of concrete byte inputs, constraint-guided where a state carries
// constraints and uniformly random otherwise.
package sampler

import (
	"context"
	"math/bits"
	"math/rand"
	"time"

	"github.com/jihwankim/legion-fuzz/pkg/symexec"
)

// Config bounds a Sampler's behaviour. MaxBytes is Legion's MAX_BYTES:
// the length of each uniformly random input string.
type Config struct {
	MinSamples int
	MaxSamples int
	MaxBytes   int
}

// DefaultMaxBytes is used when Config.MaxBytes is left at zero.
const DefaultMaxBytes = 100

// Sampler produces input batches for one Gold node at a time. It is not
// safe for concurrent use (the orchestrator that owns it is
// single-threaded).
type Sampler struct {
	rng    *rand.Rand
	engine symexec.Engine
	cfg    Config
}

// New creates a Sampler seeded for reproducible random-path sampling.
func New(seed int64, engine symexec.Engine, cfg Config) *Sampler {
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed)), engine: engine, cfg: cfg}
}

// Result is the outcome of one Sample call.
type Result struct {
	// Inputs is the produced batch, each element already byte-encoded
	// per §4.E (minimum big-endian width for constraint-guided samples;
	// MaxBytes-long random strings otherwise).
	Inputs [][]byte
	// Exhausted is true when the constraint-guided stream ran out of
	// models before producing a batch; the caller must mark the node
	// fully explored and propagate.
	Exhausted bool
	Elapsed   time.Duration
}

// Sample builds a batch for a node whose relevant symbolic state is
// state. A nil state (no symbolic information at all) always takes the
// random path.
func (s *Sampler) Sample(ctx context.Context, state *symexec.State) Result {
	start := time.Now()
	if state != nil && s.engine.HasConstraints(state) {
		return s.sampleConstrained(ctx, state, start)
	}
	return s.sampleRandom(start)
}

func (s *Sampler) sampleConstrained(ctx context.Context, state *symexec.State, start time.Time) Result {
	it := s.engine.Iterate(ctx, state)
	var values []uint64

	for len(values) < s.cfg.MaxSamples {
		sample, ok := it.Next(ctx)
		if !ok {
			return Result{Inputs: encodeAll(values), Exhausted: true, Elapsed: time.Since(start)}
		}
		if sample.Bottom {
			if len(values) >= s.cfg.MinSamples {
				break
			}
			continue
		}
		values = append(values, sample.Value)
	}

	return Result{Inputs: encodeAll(values), Elapsed: time.Since(start)}
}

func (s *Sampler) sampleRandom(start time.Time) Result {
	inputs := make([][]byte, s.cfg.MinSamples)
	for i := range inputs {
		buf := make([]byte, s.cfg.MaxBytes)
		s.rng.Read(buf)
		inputs[i] = buf
	}
	return Result{Inputs: inputs, Elapsed: time.Since(start)}
}

// encodeValue big-endian encodes v into the minimum number of bytes its
// bit-width needs, rounded up to a byte.
func encodeValue(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	nbytes := (bits.Len64(v) + 7) / 8
	buf := make([]byte, nbytes)
	for i := nbytes - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

func encodeAll(values []uint64) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = encodeValue(v)
	}
	return out
}
