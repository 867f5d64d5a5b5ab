package refresher_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-xlan/dlm-go-suo/refresher"
)

type countingHandle struct {
	period time.Duration
	calls  atomic.Int32
	stolen atomic.Bool
}

func (h *countingHandle) RefreshOnce(ctx context.Context) bool {
	h.calls.Add(1)
	return !h.stolen.Load()
}

func (h *countingHandle) RefreshPeriod() time.Duration {
	return h.period
}

func TestRefresherCallsDueEntriesRepeatedly(t *testing.T) {
	r := refresher.New(nil)
	defer r.Stop()

	handle := &countingHandle{period: 20 * time.Millisecond}
	r.Register("lock-a", handle)

	require.Eventually(t, func() bool {
		return handle.calls.Load() >= 3
	}, 500*time.Millisecond, 10*time.Millisecond)
}

func TestRefresherDropsEntryOnSteal(t *testing.T) {
	r := refresher.New(nil)
	defer r.Stop()

	handle := &countingHandle{period: 15 * time.Millisecond}
	handle.stolen.Store(true)
	r.Register("lock-b", handle)

	require.Eventually(t, func() bool {
		return handle.calls.Load() >= 1
	}, 500*time.Millisecond, 10*time.Millisecond)

	callsAfterSteal := handle.calls.Load()
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, callsAfterSteal, handle.calls.Load())
}

func TestDeregisterStopsFutureCalls(t *testing.T) {
	r := refresher.New(nil)
	defer r.Stop()

	handle := &countingHandle{period: 15 * time.Millisecond}
	r.Register("lock-c", handle)

	require.Eventually(t, func() bool {
		return handle.calls.Load() >= 1
	}, 500*time.Millisecond, 10*time.Millisecond)

	r.Deregister("lock-c")
	callsAfterDeregister := handle.calls.Load()
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, callsAfterDeregister, handle.calls.Load())
}
