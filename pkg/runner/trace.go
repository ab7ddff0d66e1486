package runner

import (
	"encoding/binary"
	"fmt"
)

// DecodeTrace parses the stderr stream of an instrumented binary: a
// concatenation of 64-bit little-endian block addresses, one per block
// transition, starting with main. A length not divisible by 8 is a
// contract violation of the binary, not a recoverable condition.
func DecodeTrace(data []byte) ([]uint64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("runner: trace stream length %d is not a multiple of 8 (contract violation)", len(data))
	}
	trace := make([]uint64, len(data)/8)
	for i := range trace {
		trace[i] = binary.LittleEndian.Uint64(data[i*8 : i*8+8])
	}
	return trace, nil
}
