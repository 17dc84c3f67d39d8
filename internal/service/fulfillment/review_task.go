package fulfillment

import (
	"context"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/loopjob"
	"github.com/gotomicro/ego/core/elog"
)

const (
	PendingReviewKey     = "orchestrator_pending_order_review"
	DefaultStaleAfter    = 30 * time.Minute
	defaultReviewBatch   = 50
	defaultReviewBackoff = time.Minute
)

// StaleOrderFinder 查找长时间停留在 pending 的订单
type StaleOrderFinder interface {
	FindStalePending(ctx context.Context, afterUtime, afterID, before int64, limit int) ([]domain.Order, error)
}

// PendingReviewTask 把供应商失败后一直停留在 pending 的订单报出来，交给人工重试或者退款。
// 多实例部署时只有抢到锁的实例在扫描
type PendingReviewTask struct {
	locker     loopjob.Locker
	finder     StaleOrderFinder
	staleAfter time.Duration
	batch      int
	backoff    time.Duration
	now        func() time.Time
	// 已经报告过的最后一个订单的 (utime, id)
	cursorUtime int64
	cursorID    int64
	logger *elog.Component
}

func NewPendingReviewTask(locker loopjob.Locker, finder StaleOrderFinder, staleAfter time.Duration) *PendingReviewTask {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &PendingReviewTask{
		locker:     locker,
		finder:     finder,
		staleAfter: staleAfter,
		batch:      defaultReviewBatch,
		backoff:    defaultReviewBackoff,
		now:        time.Now,
		logger:     elog.DefaultLogger.With(elog.String("task", PendingReviewKey)),
	}
}

// Start 阻塞到 ctx 取消
func (p *PendingReviewTask) Start(ctx context.Context) {
	loopjob.NewInfiniteLoop(p.locker, p.Review, PendingReviewKey).Run(ctx)
}

// Review 扫描一批，没有更多时休息一段时间
func (p *PendingReviewTask) Review(ctx context.Context) error {
	before := p.now().Add(-p.staleAfter).UnixMilli()
	orders, err := p.finder.FindStalePending(ctx, p.cursorUtime, p.cursorID, before, p.batch)
	if err != nil {
		return err
	}
	for _, o := range orders {
		p.logger.Warn("订单长时间待处理，需要人工处理",
			elog.Int64("orderID", o.ID),
			elog.Int64("userID", o.UserID),
			elog.String("plan", o.PlanID),
			elog.String("service", string(o.Service)),
			elog.String("price", o.Price.String()),
			elog.Any("pendingSince", o.Utime))
		p.advance(o.Utime.UnixMilli(), o.ID)
	}
	if len(orders) < p.batch {
		timer := time.NewTimer(p.backoff)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	return nil
}

func (p *PendingReviewTask) advance(utime, id int64) {
	if utime > p.cursorUtime || (utime == p.cursorUtime && id > p.cursorID) {
		p.cursorUtime, p.cursorID = utime, id
	}
}
