package main

import (
	"context"

	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
	"github.com/gotomicro/ego/server/egovernor"
	"github.com/joho/godotenv"

	"gitee.com/flycash/connectivity-orchestrator/cmd/orchestrator/ioc"
	prodioc "gitee.com/flycash/connectivity-orchestrator/internal/ioc"
)

func main() {
	// 供应商凭证放在 .env 里，生产环境直接用环境变量
	if err := godotenv.Load(); err != nil {
		elog.Info("没有找到 .env，使用进程环境变量")
	}

	var (
		app    *prodioc.App
		cancel context.CancelFunc = func() {}
	)
	// ego.New 会加载配置，InitApp 必须在它之后
	server := ego.New(ego.WithBeforeStopClean(func() error {
		cancel()
		if app == nil {
			return nil
		}
		return app.Stop(context.Background())
	}))
	app = ioc.InitApp()

	var ctx context.Context
	ctx, cancel = context.WithCancel(context.Background())
	app.StartTasks(ctx)

	if err := server.Serve(
		egovernor.Load("server.governor").Build(),
	).Run(); err != nil {
		elog.Panic("startup", elog.FieldErr(err))
	}
}
