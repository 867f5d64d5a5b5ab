package locksession_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/internal/dlmhttp"
	"github.com/go-xlan/dlm-go-suo/locksession"
	"github.com/go-xlan/dlm-go-suo/storeadapter/memstore"
)

func TestCreateLockAcquireRelease(t *testing.T) {
	store := memstore.New()
	session := locksession.New(store, "orders")
	defer session.Close()

	handle := session.CreateLock("invoice-1",
		locksession.WithLeaseDuration(150*time.Millisecond),
		locksession.WithRefreshPeriod(30*time.Millisecond),
	)
	ctx := context.Background()

	require.NoError(t, handle.Acquire(ctx))
	require.True(t, handle.IsHeld())
	require.NoError(t, handle.Release(ctx))
}

func TestDeserializeLockHandoff(t *testing.T) {
	store := memstore.New()
	source := locksession.New(store, "orders")
	defer source.Close()
	destination := locksession.New(store, "orders")
	defer destination.Close()

	ctx := context.Background()
	handle := source.CreateLock("invoice-2",
		locksession.WithLeaseDuration(time.Second),
		locksession.WithRefreshPeriod(200*time.Millisecond),
	)
	require.NoError(t, handle.Acquire(ctx))

	blob, err := handle.Serialize()
	require.NoError(t, err)

	received, err := destination.DeserializeLock(ctx, blob)
	require.NoError(t, err)
	require.True(t, received.IsHeld())
	require.Equal(t, "invoice-2", received.Name())

	_, err = destination.DeserializeLock(ctx, blob)
	var alreadyInUse *dlmerrors.AlreadyInUseError
	require.ErrorAs(t, err, &alreadyInUse)

	require.NoError(t, received.Release(ctx))
}

func TestDeserializeLockWrongTable(t *testing.T) {
	store := memstore.New()
	source := locksession.New(store, "orders")
	defer source.Close()
	other := locksession.New(store, "shipments")
	defer other.Close()

	ctx := context.Background()
	handle := source.CreateLock("invoice-3")
	require.NoError(t, handle.Acquire(ctx))

	blob, err := handle.Serialize()
	require.NoError(t, err)

	_, err = other.DeserializeLock(ctx, blob)
	var wrongTable *dlmerrors.WrongTableError
	require.ErrorAs(t, err, &wrongTable)
}

func TestDeserializeLockMalformedToken(t *testing.T) {
	store := memstore.New()
	session := locksession.New(store, "orders")
	defer session.Close()

	_, err := session.DeserializeLock(context.Background(), "not json")
	var malformed *dlmerrors.MalformedTokenError
	require.ErrorAs(t, err, &malformed)
}

func TestMetricsObserveAcquireAndRelease(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := dlmhttp.NewMetrics(registry)

	store := memstore.New()
	session := locksession.New(store, "orders", locksession.WithMetrics(metrics))
	defer session.Close()

	handle := session.CreateLock("invoice-4",
		locksession.WithLeaseDuration(150*time.Millisecond),
		locksession.WithRefreshPeriod(30*time.Millisecond),
	)
	ctx := context.Background()

	require.NoError(t, handle.Acquire(ctx))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.AcquireTotalForTest("orders")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.HeldGaugeForTest("orders")))

	require.NoError(t, handle.Release(ctx))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReleaseTotalForTest("orders")))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.HeldGaugeForTest("orders")))
}

func TestGetSessionIsNotCached(t *testing.T) {
	store := memstore.New()
	a := locksession.GetSession(store, "orders")
	b := locksession.GetSession(store, "orders")
	defer a.Close()
	defer b.Close()

	require.NotSame(t, a, b)
}
