package ledger_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/filecoin-project/go-powersim/ledger"
	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"
)

func TestLedger_Credit(t *testing.T) {
	ctx := context.Background()
	subject, err := ledger.New()
	require.NoError(t, err)

	require.NoError(t, subject.Credit(ctx, "INSTANCE-01", 120_000))
	require.NoError(t, subject.Credit(ctx, "INSTANCE-02", 110_000))
	require.NoError(t, subject.Credit(ctx, "INSTANCE-01", 130_000))
	require.NoError(t, subject.Credit(ctx, "INSTANCE-03", 0))

	require.Equal(t, lottery.Amount(360_000), subject.TotalCredited())
	require.Equal(t, lottery.Amount(250_000), subject.BalanceOf("INSTANCE-01"))
	require.Equal(t, lottery.Amount(110_000), subject.BalanceOf("INSTANCE-02"))
	require.Zero(t, subject.BalanceOf("INSTANCE-03"))
	require.Zero(t, subject.BalanceOf("INSTANCE-99"))
	require.Len(t, subject.Balances(), 3)
}

func TestLedger_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	subject, err := ledger.New()
	require.NoError(t, err)
	require.NoError(t, subject.Credit(ctx, "INSTANCE-01", 100))

	err = subject.Credit(ctx, "INSTANCE-01", -1)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	err = subject.Credit(ctx, "INSTANCE-02", math.MaxInt64)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	require.Equal(t, lottery.Amount(100), subject.TotalCredited())
	require.Equal(t, map[lottery.EntityID]lottery.Amount{"INSTANCE-01": 100}, subject.Balances())
	entries, err := subject.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLedger_BalancesIsACopy(t *testing.T) {
	ctx := context.Background()
	subject, err := ledger.New()
	require.NoError(t, err)
	require.NoError(t, subject.Credit(ctx, "INSTANCE-01", 100))

	balances := subject.Balances()
	balances["INSTANCE-01"] = 1
	balances["INSTANCE-02"] = 2
	require.Equal(t, lottery.Amount(100), subject.BalanceOf("INSTANCE-01"))
	require.Zero(t, subject.BalanceOf("INSTANCE-02"))
}

func TestLedger_SumOfBalancesEqualsTotal(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1413))
	ids := []lottery.EntityID{"INSTANCE-01", "INSTANCE-02", "INSTANCE-03", "INSTANCE-04"}

	for i := 0; i < 20; i++ {
		subject, err := ledger.New()
		require.NoError(t, err)
		var want lottery.Amount
		for j := 0; j < 50; j++ {
			amount := lottery.Amount(rng.Int63n(200_000))
			require.NoError(t, subject.Credit(ctx, ids[rng.Intn(len(ids))], amount))
			want += amount

			var sum lottery.Amount
			for _, balance := range subject.Balances() {
				sum += balance
			}
			require.Equal(t, want, sum)
			require.Equal(t, want, subject.TotalCredited())
		}
	}
}

func TestLedger_Entries(t *testing.T) {
	for _, test := range []struct {
		name string
		opts []ledger.Option
	}{
		{"cbor", nil},
		{"zstd", []ledger.Option{ledger.WithCompression(true)}},
	} {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			subject, err := ledger.New(test.opts...)
			require.NoError(t, err)

			entries, err := subject.Entries(ctx)
			require.NoError(t, err)
			require.Empty(t, entries)

			// More than ten credits so that key ordering is exercised past one digit.
			var want []ledger.Entry
			balances := map[lottery.EntityID]lottery.Amount{}
			for i := 0; i < 12; i++ {
				id := lottery.EntityID([]string{"INSTANCE-01", "INSTANCE-02"}[i%2])
				amount := lottery.Amount(100_000 + i)
				require.NoError(t, subject.Credit(ctx, id, amount))
				balances[id] += amount
				want = append(want, ledger.Entry{
					Sequence: uint64(i + 1),
					Entity:   id,
					Amount:   amount,
					Balance:  balances[id],
				})
			}

			entries, err = subject.Entries(ctx)
			require.NoError(t, err)
			require.Equal(t, want, entries)
		})
	}
}

func TestLedger_SharedDatastore(t *testing.T) {
	ctx := context.Background()
	ds := dssync.MutexWrap(datastore.NewMapDatastore())

	one, err := ledger.New(ledger.WithDatastore(ds), ledger.WithNamespace(datastore.NewKey("/one")))
	require.NoError(t, err)
	other, err := ledger.New(ledger.WithDatastore(ds), ledger.WithNamespace(datastore.NewKey("/other")))
	require.NoError(t, err)

	require.NoError(t, one.Credit(ctx, "INSTANCE-01", 1))
	require.NoError(t, other.Credit(ctx, "INSTANCE-02", 2))

	has, err := ds.Has(ctx, datastore.NewKey("/one/credits/00000000000000000001"))
	require.NoError(t, err)
	require.True(t, has)

	entries, err := one.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, lottery.EntityID("INSTANCE-01"), entries[0].Entity)
}

func TestLedger_Options(t *testing.T) {
	_, err := ledger.New(ledger.WithDatastore(nil))
	require.Error(t, err)
	_, err = ledger.New(ledger.WithNamespace(datastore.NewKey("/")))
	require.Error(t, err)
}

type failingDatastore struct {
	datastore.Datastore
}

var errPutFailed = errors.New("put failed")

func (failingDatastore) Put(context.Context, datastore.Key, []byte) error { return errPutFailed }

func TestLedger_JournalFailureLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	subject, err := ledger.New(ledger.WithDatastore(failingDatastore{Datastore: datastore.NewMapDatastore()}))
	require.NoError(t, err)

	err = subject.Credit(ctx, "INSTANCE-01", 100)
	require.ErrorIs(t, err, errPutFailed)
	require.Zero(t, subject.TotalCredited())
	require.Empty(t, subject.Balances())
}

func TestEntry_CBOR(t *testing.T) {
	tests := []ledger.Entry{
		{},
		{Sequence: 1, Entity: "INSTANCE-01", Amount: 120_000, Balance: 120_000},
		{Sequence: math.MaxUint64, Entity: "🐉", Amount: math.MaxInt64, Balance: -1},
		{Sequence: 7, Entity: "INSTANCE-02", Amount: math.MinInt64, Balance: math.MinInt64},
	}
	for _, want := range tests {
		var buf bytes.Buffer
		require.NoError(t, want.MarshalCBOR(&buf))
		var got ledger.Entry
		require.NoError(t, got.UnmarshalCBOR(&buf))
		require.Equal(t, want, got)
	}

	var got ledger.Entry
	require.Error(t, got.UnmarshalCBOR(bytes.NewReader([]byte{0x83, 0x01, 0x60, 0x00})))
}

func TestEntry_CBORLayout(t *testing.T) {
	entry := ledger.Entry{Sequence: 1, Entity: "A", Amount: -1, Balance: 2}
	var buf bytes.Buffer
	require.NoError(t, entry.MarshalCBOR(&buf))
	// Array of four, uint 1, text "A", negative int -1, uint 2.
	require.Equal(t, []byte{0x84, 0x01, 0x61, 'A', 0x20, 0x02}, buf.Bytes())

	var got ledger.Entry
	require.ErrorIs(t, got.UnmarshalCBOR(bytes.NewReader([]byte{0x84, 0x01})), io.ErrUnexpectedEOF)
}
