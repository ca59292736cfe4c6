package lottery

import (
	"bytes"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketRank_ExpDraw(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"just under one", "ffffffffffffffffffffffffffffffff", 1.6017132519074588e-16},
		{"half", "80000000000000000000000000000000", 1},
		{"quarter", "40000000000000000000000000000000", 2},
		{"three quarters", "c0000000000000000000000000000000", 0.4150374992788438},
		{"low half only", "00000000000000008000000000000000", 65},
		{"smallest", "00000000000000000000000000000001", 128},
		{"three in last byte", "00000000000000000000000000000003", 126.41503749927884},
		{"zero", "00000000000000000000000000000000", 129},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			draw, err := hex.DecodeString(test.input)
			require.NoError(t, err)
			assert.InDelta(t, test.want, expDraw(draw), 1e-12)
		})
	}

	require.Panics(t, func() { expDraw(make([]byte, 15)) })
}

func FuzzTicketRank_ExpDraw(f *testing.F) {
	f.Add(make([]byte, 16))
	f.Add(bytes.Repeat([]byte{0xff}, 16))
	f.Fuzz(func(t *testing.T, draw []byte) {
		if len(draw) != 16 {
			return
		}
		rank := expDraw(draw)
		require.GreaterOrEqual(t, rank, 0.0)
		require.LessOrEqual(t, rank, 129.0)
	})
}

func TestTicketRank(t *testing.T) {
	ticket := Ticket(7, 1, 0)
	require.Len(t, ticket, 16)

	t.Run("weighted by weight", func(t *testing.T) {
		rank1 := TicketRank(ticket, 10)
		rank2 := TicketRank(ticket, 11)
		require.Greater(t, rank1, 0.0)
		require.Less(t, rank2, rank1)
	})
	t.Run("infinite for zero weight", func(t *testing.T) {
		require.True(t, math.IsInf(TicketRank(ticket, 0), 1))
	})
}

func TestDeriveSeed(t *testing.T) {
	require.Equal(t, DeriveSeed(1, 2, 3, StreamAttempt), DeriveSeed(1, 2, 3, StreamAttempt))
	require.GreaterOrEqual(t, DeriveSeed(1, 2, 3, StreamAttempt), int64(0))

	seen := map[int64]struct{}{}
	for _, seed := range []int64{
		DeriveSeed(1, 2, 3, StreamAttempt),
		DeriveSeed(1, 2, 3, StreamAward),
		DeriveSeed(1, 2, 4, StreamAttempt),
		DeriveSeed(1, 3, 3, StreamAttempt),
		DeriveSeed(2, 2, 3, StreamAttempt),
	} {
		seen[seed] = struct{}{}
	}
	require.Len(t, seen, 5, "seeds of distinct units must differ")
}

func TestElectByTicket_ProportionalShare(t *testing.T) {
	weights := []float64{1, 3}
	const rounds = 40_000
	var wins [2]int
	for round := uint64(0); round < rounds; round++ {
		tickets := [][]byte{Ticket(99, round, 0), Ticket(99, round, 1)}
		wins[ElectByTicket(tickets, weights)]++
	}
	require.InDelta(t, 0.25, float64(wins[0])/rounds, 0.01)
	require.Equal(t, -1, ElectByTicket([][]byte{Ticket(1, 1, 0)}, []float64{0}))
}
