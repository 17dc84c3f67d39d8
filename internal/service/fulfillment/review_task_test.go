package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
)

type finderCall struct {
	afterUtime, afterID, before int64
	limit                       int
}

type fakeFinder struct {
	calls  []finderCall
	orders [][]domain.Order
	err    error
}

func (f *fakeFinder) FindStalePending(_ context.Context, afterUtime, afterID, before int64, limit int) ([]domain.Order, error) {
	f.calls = append(f.calls, finderCall{afterUtime: afterUtime, afterID: afterID, before: before, limit: limit})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.orders) == 0 {
		return nil, nil
	}
	res := f.orders[0]
	f.orders = f.orders[1:]
	return res, nil
}

func TestPendingReviewTask_Review(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(10_000_000)
	finder := &fakeFinder{orders: [][]domain.Order{
		{
			{ID: 1, Status: domain.OrderStatusPending, Utime: time.UnixMilli(1000)},
			{ID: 2, Status: domain.OrderStatusPending, Utime: time.UnixMilli(2000)},
		},
	}}
	task := NewPendingReviewTask(nil, finder, time.Minute)
	task.now = func() time.Time { return now }
	task.batch = 2
	task.backoff = time.Millisecond

	require.NoError(t, task.Review(t.Context()))
	require.NoError(t, task.Review(t.Context()))

	require.Len(t, finder.calls, 2)
	wantBefore := now.Add(-time.Minute).UnixMilli()
	assert.Equal(t, finderCall{before: wantBefore, limit: 2}, finder.calls[0])
	// 第二次从上次报告过的位置继续
	assert.Equal(t, finderCall{afterUtime: 2000, afterID: 2, before: wantBefore, limit: 2}, finder.calls[1])
}

// tableFinder 按 (utime, id) 顺序在内存里的订单上做游标分页
type tableFinder struct {
	orders   []domain.Order
	reported []int64
}

func (f *tableFinder) FindStalePending(_ context.Context, afterUtime, afterID, before int64, limit int) ([]domain.Order, error) {
	var res []domain.Order
	for _, o := range f.orders {
		ut := o.Utime.UnixMilli()
		if ut >= before || ut < afterUtime || (ut == afterUtime && o.ID <= afterID) {
			continue
		}
		if len(res) == limit {
			break
		}
		res = append(res, o)
	}
	for _, o := range res {
		f.reported = append(f.reported, o.ID)
	}
	return res, nil
}

func TestPendingReviewTask_ReviewSameUtime(t *testing.T) {
	t.Parallel()

	// 同一毫秒更新的订单跨了两批
	same := time.UnixMilli(1000)
	finder := &tableFinder{orders: []domain.Order{
		{ID: 1, Status: domain.OrderStatusPending, Utime: same},
		{ID: 2, Status: domain.OrderStatusPending, Utime: same},
		{ID: 3, Status: domain.OrderStatusPending, Utime: same},
		{ID: 4, Status: domain.OrderStatusPending, Utime: time.UnixMilli(2000)},
	}}
	task := NewPendingReviewTask(nil, finder, time.Minute)
	task.now = func() time.Time { return time.UnixMilli(10_000_000) }
	task.batch = 2
	task.backoff = time.Millisecond

	for range 3 {
		require.NoError(t, task.Review(t.Context()))
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, finder.reported)
}

func TestPendingReviewTask_ReviewError(t *testing.T) {
	t.Parallel()

	task := NewPendingReviewTask(nil, &fakeFinder{err: errors.New("db down")}, 0)
	assert.Equal(t, DefaultStaleAfter, task.staleAfter)
	require.Error(t, task.Review(t.Context()))
}
