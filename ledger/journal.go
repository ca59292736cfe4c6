package ledger

import (
	"io"
	"math"

	"github.com/filecoin-project/go-powersim/lottery"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"
)

var (
	_ cbg.CBORMarshaler   = (*Entry)(nil)
	_ cbg.CBORUnmarshaler = (*Entry)(nil)
)

// Entry is one credit recorded in the ledger journal.
//
// On disk an entry is a CBOR array of its four fields in declaration order.
type Entry struct {
	// Sequence is the 1-based position of the credit in the journal.
	Sequence uint64
	Entity   lottery.EntityID
	Amount   lottery.Amount
	// Balance is the balance of Entity after the credit was applied.
	Balance lottery.Amount
}

const entryFields = 4

func (e *Entry) MarshalCBOR(w io.Writer) error {
	if e == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	if len(e.Entity) > cbg.MaxLength {
		return xerrors.Errorf("entity of %d bytes exceeds the maximum length", len(e.Entity))
	}

	cw := cbg.NewCborWriter(w)
	if err := cw.WriteMajorTypeHeader(cbg.MajArray, entryFields); err != nil {
		return err
	}
	if err := cw.WriteMajorTypeHeader(cbg.MajUnsignedInt, e.Sequence); err != nil {
		return err
	}
	if err := cw.WriteMajorTypeHeader(cbg.MajTextString, uint64(len(e.Entity))); err != nil {
		return err
	}
	if _, err := io.WriteString(cw, string(e.Entity)); err != nil {
		return err
	}
	if err := writeAmount(cw, e.Amount); err != nil {
		return err
	}
	return writeAmount(cw, e.Balance)
}

func (e *Entry) UnmarshalCBOR(r io.Reader) (_err error) {
	defer func() {
		if _err == io.EOF {
			_err = io.ErrUnexpectedEOF
		}
	}()
	*e = Entry{}
	cr := cbg.NewCborReader(r)

	if err := expectHeader(cr, cbg.MajArray, entryFields); err != nil {
		return xerrors.Errorf("reading entry: %w", err)
	}

	maj, sequence, err := cr.ReadHeader()
	switch {
	case err != nil:
		return err
	case maj != cbg.MajUnsignedInt:
		return xerrors.Errorf("sequence has major type %d, want unsigned int", maj)
	}

	maj, length, err := cr.ReadHeader()
	switch {
	case err != nil:
		return err
	case maj != cbg.MajTextString:
		return xerrors.Errorf("entity has major type %d, want text string", maj)
	case length > cbg.MaxLength:
		return xerrors.Errorf("entity of %d bytes exceeds the maximum length", length)
	}
	entity := make([]byte, length)
	if _, err := io.ReadFull(cr, entity); err != nil {
		return err
	}

	amount, err := readAmount(cr)
	if err != nil {
		return xerrors.Errorf("reading amount: %w", err)
	}
	balance, err := readAmount(cr)
	if err != nil {
		return xerrors.Errorf("reading balance: %w", err)
	}

	*e = Entry{
		Sequence: sequence,
		Entity:   lottery.EntityID(entity),
		Amount:   amount,
		Balance:  balance,
	}
	return nil
}

func expectHeader(cr *cbg.CborReader, major byte, extra uint64) error {
	maj, got, err := cr.ReadHeader()
	switch {
	case err != nil:
		return err
	case maj != major:
		return xerrors.Errorf("major type %d, want %d", maj, major)
	case got != extra:
		return xerrors.Errorf("%d fields, want %d", got, extra)
	}
	return nil
}

// Amounts use the CBOR integer encoding: non-negative values as unsigned ints,
// negative values v as negative ints carrying -1-v.
func writeAmount(cw *cbg.CborWriter, v lottery.Amount) error {
	if v >= 0 {
		return cw.WriteMajorTypeHeader(cbg.MajUnsignedInt, uint64(v))
	}
	return cw.WriteMajorTypeHeader(cbg.MajNegativeInt, uint64(-(v + 1)))
}

func readAmount(cr *cbg.CborReader) (lottery.Amount, error) {
	maj, extra, err := cr.ReadHeader()
	switch {
	case err != nil:
		return 0, err
	case extra > math.MaxInt64:
		return 0, xerrors.Errorf("amount %d overflows int64", extra)
	case maj == cbg.MajUnsignedInt:
		return lottery.Amount(extra), nil
	case maj == cbg.MajNegativeInt:
		return lottery.Amount(-1 - int64(extra)), nil
	default:
		return 0, xerrors.Errorf("amount has major type %d, want integer", maj)
	}
}
