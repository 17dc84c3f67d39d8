//go:build wireinject

package ioc

import (
	"github.com/google/wire"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"gitee.com/flycash/connectivity-orchestrator/internal/ioc"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository/dao"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitOrchestratorConfig,
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitRedisCmdable,
		ioc.InitDistributedLock,
		ioc.InitIDGenerator,
		ioc.InitFailoverProducer,
		ioc.InitZipkinTracer,
		wire.Bind(new(trace.TracerProvider), new(*sdktrace.TracerProvider)),
	)
	orderSet = wire.NewSet(
		dao.NewOrderDAO,
		repository.NewOrderRepository,
	)
	fulfillmentSet = wire.NewSet(
		ioc.InitManager,
		ioc.InitFulfillmentService,
		ioc.InitPendingReviewTask,
		ioc.InitTasks,
	)
)

func InitApp() *ioc.App {
	wire.Build(
		BaseSet,
		orderSet,
		fulfillmentSet,
		wire.Struct(new(ioc.App), "Config", "Manager", "Fulfillment", "Tasks", "Tracer"),
	)
	return new(ioc.App)
}
