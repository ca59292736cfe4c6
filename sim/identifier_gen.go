package sim

import "strings"

var hexDigits = []byte("0123456789abcdef")

// IdentifierLength is the length in hex characters of award identifiers and
// link hashes.
const IdentifierLength = 64

// An identifier generator.
// This uses a fast xorshift PRNG to generate random hex identifiers that look
// like hash digests. The statistical properties of these are not important to
// correctness.
type IdentifierGenerator struct {
	xorshiftState uint64
}

func NewIdentifierGenerator(seed uint64) *IdentifierGenerator {
	// xorshift never leaves the all-zero state.
	if seed == 0 {
		seed = 0x264803e715714f95
	}
	return &IdentifierGenerator{xorshiftState: seed}
}

// Sample returns n random hex characters.
func (c *IdentifierGenerator) Sample(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexDigits[c.nextN(len(hexDigits))]
	}
	return string(b)
}

// SampleWithMarker returns an identifier of IdentifierLength hex characters
// that starts with the given number of zeros, the proof marker.
func (c *IdentifierGenerator) SampleWithMarker(zeros int) string {
	zeros = min(max(zeros, 0), IdentifierLength)
	return strings.Repeat("0", zeros) + c.Sample(IdentifierLength-zeros)
}

func (c *IdentifierGenerator) nextN(n int) uint64 {
	bucketSize := uint64(1<<63) / uint64(n)
	limit := bucketSize * uint64(n)
	for {
		x := c.next()
		if x < limit {
			return x / bucketSize
		}
	}
}

func (c *IdentifierGenerator) next() uint64 {
	x := c.xorshiftState
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	c.xorshiftState = x
	return x
}
