package lottery

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"golang.org/x/crypto/blake2b"
)

// Stream names distinguish independent random streams derived for the same
// unit of work.
const (
	StreamAttempt = "attempt"
	StreamAward   = "award"
	StreamDraw    = "draw"
)

// DeriveSeed derives a seed for one logical unit of work, identified by round,
// entity index and stream name, from the seed of the whole run. Seeds are
// independent of the order in which work executes, which is what makes
// concurrent runs reproducible.
func DeriveSeed(runSeed int64, round uint64, index int, stream string) int64 {
	digest := unitDigest(runSeed, round, index, stream)
	return int64(binary.BigEndian.Uint64(digest[:8]) &^ (1 << 63))
}

// Ticket returns the 16 byte lottery ticket of the entity at index for the
// given round.
func Ticket(runSeed int64, round uint64, index int) []byte {
	digest := unitDigest(runSeed, round, index, "ticket")
	return digest[:16]
}

func unitDigest(runSeed int64, round uint64, index int, stream string) [32]byte {
	buf := make([]byte, 0, 24+len(stream))
	buf = binary.BigEndian.AppendUint64(buf, uint64(runSeed))
	buf = binary.BigEndian.AppendUint64(buf, round)
	buf = binary.BigEndian.AppendUint64(buf, uint64(index))
	buf = append(buf, stream...)
	return blake2b.Sum256(buf)
}

// TicketRank ranks the ticket of an entity with the given weight. Lower ranks
// are better.
//
// The Blake2b256 hash of the ticket is read as a uniform draw u in [0, 1) from
// its first 16 bytes, and the rank is -log2(u) / weight. -log2(u) is
// exponentially distributed, and the lowest of several exponential draws with
// rates w_i belongs to draw i with probability w_i / sum(w). Electing the
// lowest rank is therefore a proportional-share draw. The base of the
// logarithm scales every rank alike and leaves the election unchanged.
func TicketRank(ticket []byte, weight float64) float64 {
	if weight <= 0 {
		return math.Inf(1)
	}
	digest := blake2b.Sum256(ticket)
	return expDraw(digest[:16]) / weight
}

// expDraw maps the 128-bit big endian fraction u = b / 2^128 to -log2(u). The
// zero fraction maps to 129, one past the rank of the smallest non-zero
// fraction. It panics unless b is 16 bytes long.
func expDraw(b []byte) float64 {
	if len(b) != 16 {
		panic(fmt.Sprintf("draw must be 16 bytes, got %d", len(b)))
	}
	hi, lo := binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:])

	// Normalize so that the most significant set bit lands on bit 63 of top,
	// counting the shift in zeros.
	var zeros int
	var top uint64
	switch {
	case hi != 0:
		zeros = bits.LeadingZeros64(hi)
		top = hi<<zeros | lo>>(64-zeros)
	case lo != 0:
		zeros = 64 + bits.LeadingZeros64(lo)
		top = lo << (zeros - 64)
	default:
		return 129
	}

	// u = m * 2^-(zeros+1) with m = top / 2^63 in [1, 2). Keeping 53 bits of m
	// makes its conversion to float64 exact.
	m := float64(top>>11) / (1 << 52)
	return float64(zeros+1) - math.Log2(m)
}

// ElectByTicket returns the index of the entity with the lowest ticket rank.
// tickets and weights are parallel slices. Equal ranks resolve to the lower
// index. It returns -1 if no entity has positive weight.
func ElectByTicket(tickets [][]byte, weights []float64) int {
	winner := -1
	best := math.Inf(1)
	for i := range tickets {
		if rank := TicketRank(tickets[i], weights[i]); rank < best {
			best = rank
			winner = i
		}
	}
	return winner
}
