package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Success(t *testing.T) {
	t.Parallel()
	var count atomic.Int32
	inc := func(_ context.Context) error {
		count.Add(1)
		return nil
	}

	err := RunParallel(context.Background(), []Task{
		{Name: "storage", Func: inc},
		{Name: "queue", Func: inc},
		{Name: "notification", Func: inc},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	t.Parallel()
	assert.NoError(t, RunParallel(context.Background(), nil))
	assert.NoError(t, RunParallel(context.Background(), []Task{}))
}

func TestRunParallel_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	errStorage := errors.New("bucket create failed")
	errQueue := errors.New("queue create failed")
	var ran atomic.Int32

	err := RunParallel(context.Background(), []Task{
		{Name: "storage", Func: func(_ context.Context) error { ran.Add(1); return errStorage }},
		{Name: "queue", Func: func(_ context.Context) error { ran.Add(1); return errQueue }},
		{Name: "notification", Func: func(_ context.Context) error { ran.Add(1); return nil }},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errStorage)
	assert.ErrorIs(t, err, errQueue)
	assert.Equal(t, int32(3), ran.Load())
	assert.Equal(t, "storage: bucket create failed\nqueue: queue create failed", err.Error())
}

func TestRunParallel_RunsConcurrently(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	var started atomic.Int32
	wait := func(_ context.Context) error {
		if started.Add(1) == 2 {
			close(release)
		}
		select {
		case <-release:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("tasks did not overlap")
		}
	}

	require.NoError(t, RunParallel(context.Background(), []Task{
		{Name: "a", Func: wait},
		{Name: "b", Func: wait},
	}))
}

func TestRunParallel_Panic(t *testing.T) {
	t.Parallel()
	err := RunParallel(context.Background(), []Task{
		{Name: "boom", Func: func(_ context.Context) error { panic("nil provider") }},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom: panic: nil provider")
}

func TestRunParallel_PassesContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunParallel(ctx, []Task{
		{Name: "cancelled", Func: func(ctx context.Context) error { return ctx.Err() }},
	})

	assert.ErrorIs(t, err, context.Canceled)
}
