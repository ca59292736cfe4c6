// Package ledger keeps the balance of every entity credited with payouts,
// along with a journal of every credit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/filecoin-project/go-powersim/internal/encoding"
	"github.com/filecoin-project/go-powersim/internal/measurements"
	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"github.com/ipfs/go-datastore/query"
	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/xerrors"
)

var log = logging.Logger("powersim/ledger")

var (
	// ErrInvalidAmount is returned when a credit amount is negative or would
	// overflow the ledger total. The ledger is left unchanged.
	ErrInvalidAmount = errors.New("invalid credit amount")
	// ErrInvariantViolated signals that the sum of balances differs from the
	// total credited. It indicates a bug and is never recoverable.
	ErrInvariantViolated = errors.New("ledger invariant violated")
)

var creditsKey = datastore.NewKey("/credits")

// Ledger maps entities to their balance. Every credit is appended to a journal
// kept in a datastore.
//
// The sum of all balances always equals TotalCredited. Ledger is not safe for
// concurrent use; it expects a single writer.
type Ledger struct {
	journal  datastore.Datastore
	codec    encoding.EncodeDecoder[*Entry]
	balances map[lottery.EntityID]lottery.Amount
	total    lottery.Amount
	sequence uint64
}

// New instantiates an empty ledger.
func New(o ...Option) (*Ledger, error) {
	opts, err := newOptions(o...)
	if err != nil {
		return nil, err
	}
	var codec encoding.EncodeDecoder[*Entry] = encoding.NewCBOR[*Entry]()
	if opts.compress {
		if codec, err = encoding.NewZSTD[*Entry](); err != nil {
			return nil, xerrors.Errorf("instantiating journal codec: %w", err)
		}
	}
	ds := measurements.NewMeteredDatastore(meter, "ledger_journal", opts.ds)
	return &Ledger{
		journal:  namespace.Wrap(ds, opts.namespace),
		codec:    codec,
		balances: make(map[lottery.EntityID]lottery.Amount),
	}, nil
}

// Credit adds amount to the balance of the given entity and journals the
// credit. A negative amount fails with ErrInvalidAmount, leaving the ledger
// unchanged.
func (l *Ledger) Credit(ctx context.Context, id lottery.EntityID, amount lottery.Amount) (_err error) {
	defer func() {
		metrics.credits.Add(ctx, 1, metric.WithAttributes(measurements.Status(ctx, _err)))
	}()

	if amount < 0 {
		return xerrors.Errorf("crediting %s to %s: %w", amount, id, ErrInvalidAmount)
	}
	if amount > math.MaxInt64-l.total {
		return xerrors.Errorf("crediting %s to %s overflows total %s: %w", amount, id, l.total, ErrInvalidAmount)
	}

	entry := Entry{
		Sequence: l.sequence + 1,
		Entity:   id,
		Amount:   amount,
		Balance:  l.balances[id] + amount,
	}
	if err := l.append(ctx, &entry); err != nil {
		return xerrors.Errorf("journaling credit %d: %w", entry.Sequence, err)
	}

	l.sequence = entry.Sequence
	l.balances[id] = entry.Balance
	l.total += amount
	metrics.credited.Add(ctx, int64(amount))
	log.Debugw("credited", "entity", id, "amount", amount, "balance", entry.Balance, "sequence", entry.Sequence)

	return l.checkInvariant()
}

func (l *Ledger) append(ctx context.Context, entry *Entry) error {
	value, err := l.codec.Encode(entry)
	if err != nil {
		return err
	}
	return l.journal.Put(ctx, entryKey(entry.Sequence), value)
}

// entryKey zero pads the sequence so that keys sort in journal order.
func entryKey(sequence uint64) datastore.Key {
	return creditsKey.ChildString(fmt.Sprintf("%020d", sequence))
}

func (l *Ledger) checkInvariant() error {
	var sum lottery.Amount
	for _, balance := range l.balances {
		sum += balance
	}
	if sum != l.total {
		log.Errorw("ledger invariant violated", "sum", sum, "total", l.total)
		return xerrors.Errorf("sum of balances %s != total credited %s: %w", sum, l.total, ErrInvariantViolated)
	}
	return nil
}

// TotalCredited returns the sum of all credits.
func (l *Ledger) TotalCredited() lottery.Amount { return l.total }

// BalanceOf returns the balance of the given entity, zero if it was never
// credited.
func (l *Ledger) BalanceOf(id lottery.EntityID) lottery.Amount { return l.balances[id] }

// Balances returns a copy of all balances.
func (l *Ledger) Balances() map[lottery.EntityID]lottery.Amount {
	return maps.Clone(l.balances)
}

// Entries reads the journal back in the order credits were made.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	results, err := l.journal.Query(ctx, query.Query{
		Prefix: creditsKey.String(),
		Orders: []query.Order{query.OrderByKey{}},
	})
	if err != nil {
		return nil, xerrors.Errorf("querying journal: %w", err)
	}
	defer func() { _ = results.Close() }()

	var entries []Entry
	for result := range results.Next() {
		if result.Error != nil {
			return nil, xerrors.Errorf("reading journal: %w", result.Error)
		}
		var entry Entry
		if err := l.codec.Decode(result.Value, &entry); err != nil {
			return nil, xerrors.Errorf("decoding journal entry %s: %w", result.Key, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
