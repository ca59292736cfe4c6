package measurements

import (
	"context"
	"time"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrKeyStore     = "store"
	attrKeyOperation = "operation"
)

var _ datastore.Datastore = (*meteredDatastore)(nil)

type meteredDatastore struct {
	delegate datastore.Datastore
	store    attribute.KeyValue

	latency metric.Float64Histogram
	bytes   metric.Int64Histogram
}

// NewMeteredDatastore wraps the delegate with metrics, measuring latency and
// bytes exchanged by operation. Measurements are labelled with the given store
// name, so that one meter can serve several stores.
func NewMeteredDatastore(meter metric.Meter, store string, delegate datastore.Datastore) datastore.Datastore {
	return &meteredDatastore{
		delegate: delegate,
		store:    attribute.String(attrKeyStore, store),
		latency: Must(meter.Float64Histogram("powersim_datastore_latency",
			metric.WithDescription("The datastore latency labelled by store, operation and status."),
			metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0),
			metric.WithUnit("s"))),
		bytes: Must(meter.Int64Histogram("powersim_datastore_bytes",
			metric.WithDescription("The datastore exchanged bytes labelled by store, operation and status."),
			metric.WithUnit("By"))),
	}
}

// observe records an operation that started at start. A negative size means
// the operation exchanges no payload.
func (m *meteredDatastore) observe(ctx context.Context, operation string, start time.Time, size int, err error) {
	attrs := metric.WithAttributes(m.store, attribute.String(attrKeyOperation, operation), Status(ctx, err))
	m.latency.Record(ctx, time.Since(start).Seconds(), attrs)
	if size >= 0 {
		m.bytes.Record(ctx, int64(size), attrs)
	}
}

func (m *meteredDatastore) Get(ctx context.Context, key datastore.Key) (value []byte, err error) {
	defer func(start time.Time) { m.observe(ctx, "get", start, len(value), err) }(time.Now())
	return m.delegate.Get(ctx, key)
}

func (m *meteredDatastore) Has(ctx context.Context, key datastore.Key) (exists bool, err error) {
	defer func(start time.Time) { m.observe(ctx, "has", start, -1, err) }(time.Now())
	return m.delegate.Has(ctx, key)
}

func (m *meteredDatastore) GetSize(ctx context.Context, key datastore.Key) (size int, err error) {
	defer func(start time.Time) { m.observe(ctx, "get-size", start, -1, err) }(time.Now())
	return m.delegate.GetSize(ctx, key)
}

func (m *meteredDatastore) Query(ctx context.Context, q query.Query) (results query.Results, err error) {
	defer func(start time.Time) { m.observe(ctx, "query", start, -1, err) }(time.Now())
	return m.delegate.Query(ctx, q)
}

func (m *meteredDatastore) Put(ctx context.Context, key datastore.Key, value []byte) (err error) {
	defer func(start time.Time) { m.observe(ctx, "put", start, len(value), err) }(time.Now())
	return m.delegate.Put(ctx, key, value)
}

func (m *meteredDatastore) Delete(ctx context.Context, key datastore.Key) (err error) {
	defer func(start time.Time) { m.observe(ctx, "delete", start, -1, err) }(time.Now())
	return m.delegate.Delete(ctx, key)
}

func (m *meteredDatastore) Sync(ctx context.Context, prefix datastore.Key) (err error) {
	defer func(start time.Time) { m.observe(ctx, "sync", start, -1, err) }(time.Now())
	return m.delegate.Sync(ctx, prefix)
}

func (m *meteredDatastore) Close() (err error) {
	defer func(start time.Time) { m.observe(context.Background(), "close", start, -1, err) }(time.Now())
	return m.delegate.Close()
}
