package loopjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

const (
	defaultTimeout  = 3 * time.Second
	defaultInterval = time.Minute
)

// Lock 分布式锁，dlock.Lock 满足这个接口
type Lock interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type Locker interface {
	NewLock(ctx context.Context, key string, expiration time.Duration) (Lock, error)
}

type dlockLocker struct {
	client dlock.Client
}

// FromDLock 把 dlock.Client 适配为 Locker
func FromDLock(client dlock.Client) Locker {
	return dlockLocker{client: client}
}

func (d dlockLocker) NewLock(ctx context.Context, key string, expiration time.Duration) (Lock, error) {
	lock, err := d.client.NewLock(ctx, key, expiration)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// InfiniteLoop 多个实例里只有抢到锁的那个执行 biz，ctx 取消时退出
type InfiniteLoop struct {
	locker   Locker
	key      string
	biz      func(ctx context.Context) error
	interval time.Duration
	logger   *elog.Component
}

func NewInfiniteLoop(locker Locker, biz func(ctx context.Context) error, key string) *InfiniteLoop {
	return &InfiniteLoop{
		locker:   locker,
		key:      key,
		biz:      biz,
		interval: defaultInterval,
		logger:   elog.DefaultLogger.With(elog.String("key", key)),
	}
}

// WithInterval 锁的过期时间，也是抢锁失败后的等待时间
func (l *InfiniteLoop) WithInterval(interval time.Duration) *InfiniteLoop {
	if interval > 0 {
		l.interval = interval
	}
	return l
}

func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		if err := l.holdAndRun(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn("任务循环中断，稍后重试", elog.FieldErr(err))
		}
		if !sleep(ctx, l.interval) {
			l.logger.Info("任务被取消，退出任务循环")
			return
		}
	}
}

// holdAndRun 抢到锁之后一直执行 biz，直到续约失败或者 ctx 取消
func (l *InfiniteLoop) holdAndRun(ctx context.Context) error {
	lock, err := l.locker.NewLock(ctx, l.key, l.interval)
	if err != nil {
		return fmt.Errorf("初始化分布式锁失败: %w", err)
	}
	lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	err = lock.Lock(lockCtx)
	cancel()
	if err != nil {
		// 锁被别的实例持有也走这里
		return fmt.Errorf("没有抢到分布式锁: %w", err)
	}
	defer func() {
		// ctx 可能已经取消，释放锁不能受它影响
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		if err := lock.Unlock(unlockCtx); err != nil {
			l.logger.Error("释放分布式锁失败", elog.FieldErr(err))
		}
	}()

	for {
		if err := l.biz(ctx); err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refreshCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Refresh(refreshCtx)
		cancel()
		if err != nil {
			return errors.Join(errors.New("分布式锁续约失败"), err)
		}
	}
}

// sleep ctx 取消时返回 false
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
