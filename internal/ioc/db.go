package ioc

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/ego-component/egorm"
	"github.com/gotomicro/ego/core/elog"

	"gitee.com/flycash/connectivity-orchestrator/internal/repository/dao"
)

func InitDB() *egorm.Component {
	db := egorm.Load("mysql").Build()
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Errorf("获取数据库连接失败: %w", err))
	}
	waitForDB(sqlDB)
	if err := dao.InitTables(db); err != nil {
		panic(fmt.Errorf("初始化订单表失败: %w", err))
	}
	return db
}

// waitForDB 容器环境里数据库可能比编排层晚就绪
func waitForDB(sqlDB *sql.DB) {
	const (
		maxInterval = 10 * time.Second
		maxRetries  = 10
		timeout     = 3 * time.Second
	)
	strategy, err := retry.NewExponentialBackoffRetryStrategy(time.Second, maxInterval, maxRetries)
	if err != nil {
		panic(err)
	}
	for {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err = sqlDB.PingContext(ctx)
		cancel()
		if err == nil {
			return
		}
		next, ok := strategy.Next()
		if !ok {
			panic(fmt.Errorf("等待数据库就绪失败: %w", err))
		}
		elog.Warn("数据库未就绪，稍后重试", elog.Duration("next", next), elog.FieldErr(err))
		time.Sleep(next)
	}
}
