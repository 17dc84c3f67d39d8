package loopjob

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeLock struct {
	lockErr    error
	refreshErr error
	unlocked   atomic.Int32
}

func (f *fakeLock) Lock(context.Context) error    { return f.lockErr }
func (f *fakeLock) Refresh(context.Context) error { return f.refreshErr }
func (f *fakeLock) Unlock(context.Context) error {
	f.unlocked.Add(1)
	return nil
}

type fakeLocker struct {
	lock *fakeLock
}

func (f fakeLocker) NewLock(context.Context, string, time.Duration) (Lock, error) {
	return f.lock, nil
}

func TestInfiniteLoop_RunsUntilCancelled(t *testing.T) {
	t.Parallel()

	lock := &fakeLock{}
	ctx, cancel := context.WithCancel(t.Context())
	var runs atomic.Int32
	loop := NewInfiniteLoop(fakeLocker{lock: lock}, func(context.Context) error {
		if runs.Add(1) == 3 {
			cancel()
		}
		return errors.New("业务出错不影响循环")
	}, "test").WithInterval(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("取消之后没有退出")
	}
	assert.Equal(t, int32(3), runs.Load())
	assert.Equal(t, int32(1), lock.unlocked.Load())
}

func TestInfiniteLoop_LockHeldElsewhere(t *testing.T) {
	t.Parallel()

	lock := &fakeLock{lockErr: errors.New("lock held")}
	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	var runs atomic.Int32
	NewInfiniteLoop(fakeLocker{lock: lock}, func(context.Context) error {
		runs.Add(1)
		return nil
	}, "test").WithInterval(5 * time.Millisecond).Run(ctx)

	assert.Zero(t, runs.Load())
	assert.Zero(t, lock.unlocked.Load())
}

func TestInfiniteLoop_RefreshFailure(t *testing.T) {
	t.Parallel()

	lock := &fakeLock{refreshErr: errors.New("expired")}
	ctx, cancel := context.WithCancel(t.Context())
	var runs atomic.Int32
	loop := NewInfiniteLoop(fakeLocker{lock: lock}, func(context.Context) error {
		if runs.Add(1) == 2 {
			cancel()
		}
		return nil
	}, "test").WithInterval(5 * time.Millisecond)
	loop.Run(ctx)

	// 每次续约失败都会释放锁，重新抢
	assert.Equal(t, int32(2), runs.Load())
	assert.Equal(t, int32(2), lock.unlocked.Load())
}
