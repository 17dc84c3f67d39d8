package ioc

import (
	"github.com/redis/go-redis/v9"

	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/loopjob"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/ratelimit"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/fulfillment"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/manager"
)

func InitFulfillmentService(
	cfg OrchestratorConfig,
	repo repository.OrderRepository,
	m *manager.Manager,
	client redis.Cmdable,
) *fulfillment.Service {
	var opts []fulfillment.Option
	if limit := cfg.VerificationLimit; limit.Rate > 0 && limit.Interval > 0 {
		opts = append(opts, fulfillment.WithVerificationLimiter(
			ratelimit.NewRedisSlidingWindowLimiter(client, limit.Interval, limit.Rate)))
	}
	return fulfillment.NewService(repo, m, opts...)
}

func InitPendingReviewTask(cfg OrchestratorConfig, locker loopjob.Locker, repo repository.OrderRepository) *fulfillment.PendingReviewTask {
	return fulfillment.NewPendingReviewTask(locker, repo, cfg.ReviewStaleAfter)
}
