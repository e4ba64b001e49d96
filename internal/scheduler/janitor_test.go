package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingExpirer struct {
	calls   atomic.Int32
	removed int
	err     error
}

func (e *countingExpirer) CleanupExpired(context.Context) (int, error) {
	e.calls.Add(1)
	return e.removed, e.err
}

func TestJanitor_InvalidSchedule(t *testing.T) {
	_, err := NewJanitor("every so often", &countingExpirer{}, nil)
	require.Error(t, err)
	require.ErrorContains(t, err, "invalid schedule")
}

func TestJanitor_RunOnce(t *testing.T) {
	expirer := &countingExpirer{removed: 4}
	var swept int
	j, err := NewJanitor("@every 10m", expirer, func(removed int) { swept += removed })
	require.NoError(t, err)

	removed, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, removed)
	require.Equal(t, 4, swept)

	expirer.err = errors.New("db gone")
	_, err = j.RunOnce(context.Background())
	require.ErrorContains(t, err, "db gone")
	require.Equal(t, 4, swept, "failed sweeps are not reported")
}

func TestJanitor_RunsOnScheduleAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	expirer := &countingExpirer{}
	j, err := NewJanitor("@every 1s", expirer, nil)
	require.NoError(t, err)

	j.Start()
	require.Eventually(t, func() bool { return expirer.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	j.Stop()
}

func TestJanitor_SweepsMemoryStorage(t *testing.T) {
	storage := sessions.NewInMemoryStorage(time.Nanosecond)
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, "browser-1", sessions.RecordKey, []byte(`{"identity_id":"1"}`)))
	time.Sleep(time.Millisecond)

	j, err := NewJanitor("@hourly", storage, nil)
	require.NoError(t, err)

	removed, err := j.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}
