package ioc

import (
	"github.com/meoying/dlock-go/redis"
	goredis "github.com/redis/go-redis/v9"

	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/loopjob"
)

func InitDistributedLock(client goredis.Cmdable) loopjob.Locker {
	return loopjob.FromDLock(redis.NewClient(client))
}
