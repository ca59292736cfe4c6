package measurements_test

import (
	"context"
	"errors"
	"testing"

	"github.com/filecoin-project/go-powersim/internal/measurements"
	"github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestUtils_Must(t *testing.T) {
	require.Panics(t, func() {
		measurements.Must("fish", errors.New("🐠"))
	})
	require.Equal(t, "fish", measurements.Must("fish", nil))
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	canceled, cancel := context.WithCancel(ctx)
	cancel()

	require.Equal(t, measurements.AttrStatusSuccess, measurements.Status(ctx, nil))
	require.Equal(t, measurements.AttrStatusNotFound, measurements.Status(ctx, datastore.ErrNotFound))
	require.Equal(t, measurements.AttrStatusTimeout, measurements.Status(ctx, context.DeadlineExceeded))
	require.Equal(t, measurements.AttrStatusCanceled, measurements.Status(canceled, errors.New("fish")))
	require.Equal(t, measurements.AttrStatusError, measurements.Status(ctx, errors.New("fish")))
}

func TestMeteredDatastore_Delegates(t *testing.T) {
	ctx := context.Background()
	ds := measurements.NewMeteredDatastore(otel.Meter("test"), "test", datastore.NewMapDatastore())
	key := datastore.NewKey("/fish")

	require.NoError(t, ds.Put(ctx, key, []byte("lobster")))
	got, err := ds.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("lobster"), got)
	has, err := ds.Has(ctx, key)
	require.NoError(t, err)
	require.True(t, has)
	require.NoError(t, ds.Delete(ctx, key))
	_, err = ds.Get(ctx, key)
	require.ErrorIs(t, err, datastore.ErrNotFound)
	require.NoError(t, ds.Close())
}
