package ioc

import (
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"gitee.com/flycash/connectivity-orchestrator/internal/event/failover"
	id "gitee.com/flycash/connectivity-orchestrator/internal/pkg/id_generator"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository/cache"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository/cache/local"
	rediscache "gitee.com/flycash/connectivity-orchestrator/internal/repository/cache/redis"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/health"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/manager"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/metrics"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/tracing"
)

// InitManager 构造编排器并按配置注册供应商，健康检查由调用方启动
func InitManager(
	cfg OrchestratorConfig,
	client redis.Cmdable,
	tp trace.TracerProvider,
	events failover.EventProducer,
	ids *id.Generator,
) *manager.Manager {
	m := manager.NewManager(
		manager.WithMetrics(metrics.NewCollector(nil)),
		manager.WithTracer(tracing.NewTracer(tp)),
		manager.WithEventProducer(events),
		manager.WithHealthPublisher(health.NewRedisPublisher(client, health.DefaultSnapshotKey, cfg.SnapshotTTL)),
		manager.WithCoverageCache(initCoverageCache(cfg, client)),
	)
	registerFromConfig(m, provider.WithIDGenerator(ids))
	return m
}

func initCoverageCache(cfg OrchestratorConfig, client redis.Cmdable) cache.CoverageCache {
	if cfg.SharedCoverage {
		return rediscache.NewCache(client, cfg.CoverageTTL)
	}
	return local.NewLocalCache(cfg.CoverageTTL)
}
