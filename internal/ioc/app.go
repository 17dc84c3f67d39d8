package ioc

import (
	"context"
	"time"

	"github.com/gotomicro/ego/core/elog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gitee.com/flycash/connectivity-orchestrator/internal/service/fulfillment"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/manager"
)

// Task 后台任务，Start 阻塞到 ctx 结束
type Task interface {
	Start(ctx context.Context)
}

type App struct {
	Config      OrchestratorConfig
	Manager     *manager.Manager
	Fulfillment *fulfillment.Service
	Tasks       []Task
	Tracer      *sdktrace.TracerProvider
}

// StartTasks 启动健康检查和后台任务，ctx 结束时后台任务退出
func (a *App) StartTasks(ctx context.Context) {
	a.Manager.StartHealthChecks(a.Config.HealthInterval)
	for _, t := range a.Tasks {
		go t.Start(ctx)
	}
}

// Stop 停止健康检查并刷出未导出的 span
func (a *App) Stop(ctx context.Context) error {
	a.Manager.StopHealthChecks()
	if a.Tracer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.Tracer.Shutdown(ctx); err != nil {
		elog.Warn("关闭 tracer 失败", elog.FieldErr(err))
		return err
	}
	return nil
}

func InitTasks(review *fulfillment.PendingReviewTask) []Task {
	return []Task{review}
}
