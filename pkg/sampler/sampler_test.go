package sampler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/sampler"
	"github.com/jihwankim/legion-fuzz/pkg/symexec"
)

func TestSampleRandomBounds_I9(t *testing.T) {
	s := sampler.New(1, symexec.NewReplayEngine(0, nil), sampler.Config{MinSamples: 5, MaxSamples: 100, MaxBytes: 16})
	result := s.Sample(context.Background(), nil)

	assert.Len(t, result.Inputs, 5)
	for _, in := range result.Inputs {
		assert.Len(t, in, 16)
	}
	assert.False(t, result.Exhausted)
}

func TestSampleConstrainedEncodesBigEndianMinimalWidth(t *testing.T) {
	engine := symexec.NewReplayEngine(0, map[int64]symexec.Branch{
		0: {Successors: nil, Models: map[int64][]uint64{0: {0x01, 0x0102, 0x010203}}},
	})
	state, err := engine.LoadEntry("target")
	require.NoError(t, err)

	s := sampler.New(1, engine, sampler.Config{MinSamples: 1, MaxSamples: 100})
	result := s.Sample(context.Background(), state)

	require.Len(t, result.Inputs, 3)
	assert.Equal(t, []byte{0x01}, result.Inputs[0])
	assert.Equal(t, []byte{0x01, 0x02}, result.Inputs[1])
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, result.Inputs[2])
}

func TestSampleConstrainedExhaustionBelowMinSamples(t *testing.T) {
	engine := symexec.NewReplayEngine(0, map[int64]symexec.Branch{
		0: {Successors: nil, Models: map[int64][]uint64{0: {0x1}}},
	})
	state, _ := engine.LoadEntry("target")

	s := sampler.New(1, engine, sampler.Config{MinSamples: 5, MaxSamples: 100})
	result := s.Sample(context.Background(), state)

	assert.True(t, result.Exhausted)
	assert.Len(t, result.Inputs, 1)
}

func TestSampleConstrainedStopsAfterMinSamplesOnBottom(t *testing.T) {
	engine := &bottomAfterMinEngine{min: 5}
	s := sampler.New(1, engine, sampler.Config{MinSamples: 5, MaxSamples: 100})
	result := s.Sample(context.Background(), &symexec.State{Addr: 0})

	assert.False(t, result.Exhausted)
	assert.Len(t, result.Inputs, 5)
}

// bottomAfterMinEngine yields exactly `min` concrete values, then Bottom
// forever. It exercises the "stop once MIN_SAMPLES produced" cue from
// §4.E without fabricating an exhausted stream.
type bottomAfterMinEngine struct{ min int }

func (e *bottomAfterMinEngine) LoadEntry(string) (*symexec.State, error) {
	return &symexec.State{}, nil
}
func (e *bottomAfterMinEngine) Step(*symexec.State) ([]*symexec.State, error) { return nil, nil }
func (e *bottomAfterMinEngine) HasConstraints(*symexec.State) bool           { return true }
func (e *bottomAfterMinEngine) Iterate(ctx context.Context, s *symexec.State) symexec.Iterator {
	return &bottomAfterMinIterator{min: e.min}
}

type bottomAfterMinIterator struct {
	min, n int
}

func (it *bottomAfterMinIterator) Next(ctx context.Context) (symexec.Sample, bool) {
	if it.n < it.min {
		it.n++
		return symexec.Sample{Value: uint64(it.n)}, true
	}
	return symexec.Sample{Bottom: true}, true
}
