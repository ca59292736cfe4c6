package ledger

import (
	"errors"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
)

// DefaultNamespace is the datastore key prefix under which the journal is
// stored.
var DefaultNamespace = datastore.NewKey("/powersim/ledger")

type Option func(*options) error

type options struct {
	ds        datastore.Datastore
	namespace datastore.Key
	compress  bool
}

func newOptions(o ...Option) (*options, error) {
	opts := &options{
		namespace: DefaultNamespace,
	}
	for _, apply := range o {
		if err := apply(opts); err != nil {
			return nil, err
		}
	}
	if opts.ds == nil {
		opts.ds = dssync.MutexWrap(datastore.NewMapDatastore())
	}
	return opts, nil
}

// WithDatastore sets the datastore in which the journal of credits is kept.
// Defaults to an in-memory datastore.
func WithDatastore(ds datastore.Datastore) Option {
	return func(o *options) error {
		if ds == nil {
			return errors.New("datastore cannot be nil")
		}
		o.ds = ds
		return nil
	}
}

// WithNamespace sets the key prefix of the journal within the datastore.
// Defaults to DefaultNamespace.
func WithNamespace(ns datastore.Key) Option {
	return func(o *options) error {
		if ns.String() == "/" {
			return errors.New("namespace cannot be the root key")
		}
		o.namespace = ns
		return nil
	}
}

// WithCompression sets whether journal entries are compressed with zstd.
// Disabled by default.
func WithCompression(enabled bool) Option {
	return func(o *options) error {
		o.compress = enabled
		return nil
	}
}
