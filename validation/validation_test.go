package validation

import (
	"strings"
	"testing"

	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/filecoin-project/go-powersim/sim"
	"github.com/stretchr/testify/require"
)

func validAward() *sim.AwardRecord {
	return &sim.AwardRecord{
		Sequence:        2800158,
		Round:           1,
		Winner:          "INSTANCE-01",
		Payout:          110_000,
		ProducedAt:      1_700_000_009,
		IdentifierHash:  "00000" + strings.Repeat("a1", 29) + "f",
		PriorLinkHash:   strings.Repeat("b2", 32),
		IntegrityDigest: strings.Repeat("c3", 32),
		ItemCount:       120,
		SizeBytes:       750_000,
		Nonce:           3_999_999_999,
	}
}

func TestPipeline_ReportsChecksInOrder(t *testing.T) {
	subject, err := New()
	require.NoError(t, err)
	report := subject.Validate(validAward())
	require.True(t, report.AllPassed)
	require.NoError(t, report.Err())

	var names []string
	for _, c := range report.Checks {
		names = append(names, c.Name)
		require.True(t, c.Passed, c.Name)
	}
	require.Equal(t, []string{
		CheckIdentifierFormat,
		CheckProofMarker,
		CheckSequencePositive,
		CheckTimestampPositive,
		CheckNonceRange,
		CheckPriorLinkLength,
		CheckPayoutPositive,
		CheckIntegrityDigestLength,
		CheckItemCountPositive,
		CheckSizeCeiling,
	}, names)
}

func TestPipeline_EachCheckFails(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sim.AwardRecord)
		want   []string
	}{
		{"uppercase hex", func(a *sim.AwardRecord) { a.IdentifierHash = strings.ToUpper(a.IdentifierHash) }, []string{CheckIdentifierFormat}},
		{"short identifier", func(a *sim.AwardRecord) { a.IdentifierHash = "00000abc" }, []string{CheckIdentifierFormat}},
		{"no proof marker", func(a *sim.AwardRecord) { a.IdentifierHash = "0001" + a.IdentifierHash[4:] }, []string{CheckProofMarker}},
		{"zero sequence", func(a *sim.AwardRecord) { a.Sequence = 0 }, []string{CheckSequencePositive}},
		{"zero timestamp", func(a *sim.AwardRecord) { a.ProducedAt = 0 }, []string{CheckTimestampPositive}},
		{"negative nonce", func(a *sim.AwardRecord) { a.Nonce = -1 }, []string{CheckNonceRange}},
		{"nonce beyond 32 bits", func(a *sim.AwardRecord) { a.Nonce = 1 << 32 }, []string{CheckNonceRange}},
		{"short prior link", func(a *sim.AwardRecord) { a.PriorLinkHash = "ab" }, []string{CheckPriorLinkLength}},
		{"zero payout", func(a *sim.AwardRecord) { a.Payout = 0 }, []string{CheckPayoutPositive}},
		{"long digest", func(a *sim.AwardRecord) { a.IntegrityDigest += "0" }, []string{CheckIntegrityDigestLength}},
		{"no items", func(a *sim.AwardRecord) { a.ItemCount = 0 }, []string{CheckItemCountPositive}},
		{"at size ceiling", func(a *sim.AwardRecord) { a.SizeBytes = 4_000_000 }, []string{CheckSizeCeiling}},
		{"several", func(a *sim.AwardRecord) { a.Sequence = 0; a.ItemCount = 0 }, []string{CheckSequencePositive, CheckItemCountPositive}},
	}
	subject, err := New()
	require.NoError(t, err)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			award := validAward()
			test.mutate(award)
			report := subject.Validate(award)
			require.False(t, report.AllPassed)
			require.Equal(t, test.want, report.Failed())

			err := report.Err()
			var failure *Failure
			require.ErrorAs(t, err, &failure)
			require.Equal(t, test.want, failure.Failed)
			require.ErrorIs(t, err, ErrCheckFailed)
			require.Len(t, failure.Unwrap(), len(test.want))
		})
	}
}

func TestPipeline_IsPureAndIdempotent(t *testing.T) {
	subject, err := New()
	require.NoError(t, err)
	award := validAward()
	award.Payout = 0
	before := *award

	first := subject.Validate(award)
	second := subject.Validate(award)
	require.Equal(t, first, second)
	require.Equal(t, before, *award, "validation must not mutate the award")
}

func TestPipeline_NilAwardFailsEverything(t *testing.T) {
	subject, err := New()
	require.NoError(t, err)
	report := subject.Validate(nil)
	require.False(t, report.AllPassed)
	require.Len(t, report.Failed(), 10)
}

func TestPipeline_Policy(t *testing.T) {
	failing := validAward()
	failing.ItemCount = 0

	reject, err := New()
	require.NoError(t, err)
	require.Equal(t, Reject, reject.Policy())
	require.False(t, reject.Accepts(reject.Validate(failing)))
	require.True(t, reject.Accepts(reject.Validate(validAward())))

	accept, err := New(WithPolicy(Accept))
	require.NoError(t, err)
	require.True(t, accept.Accepts(accept.Validate(failing)))

	p, err := ParsePolicy("accept")
	require.NoError(t, err)
	require.Equal(t, Accept, p)
	require.Equal(t, "accept", p.String())
	_, err = ParsePolicy("maybe")
	require.Error(t, err)
}

func TestPipeline_Configurable(t *testing.T) {
	award := validAward()
	award.IdentifierHash = "00" + award.IdentifierHash[5:] + "abc"
	award.SizeBytes = 2_000

	subject, err := New(WithProofMarkerLength(2), WithSizeCeiling(1_000))
	require.NoError(t, err)
	require.Equal(t, []string{CheckSizeCeiling}, subject.Validate(award).Failed())

	_, err = New(WithProofMarkerLength(-1))
	require.Error(t, err)
	_, err = New(WithSizeCeiling(0))
	require.Error(t, err)
	_, err = New(WithPolicy(Policy(9)))
	require.Error(t, err)
}

func TestPipeline_AcceptsMaterializedAwards(t *testing.T) {
	worker, err := sim.NewWorker()
	require.NoError(t, err)
	subject, err := New()
	require.NoError(t, err)
	for round := uint64(1); round <= 50; round++ {
		award := worker.Materialize(
			lottery.Entity{ID: "INSTANCE-01", Weight: 1},
			sim.RoundContext{RunSeed: 1, Round: round, Sequence: round, PriorLinkHash: strings.Repeat("0", 64), StartedAt: 1, Difficulty: 5},
			0,
		)
		report := subject.Validate(award)
		require.True(t, report.AllPassed, "failed: %v", report.Failed())
	}
}
