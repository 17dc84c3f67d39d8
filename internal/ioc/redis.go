package ioc

import (
	"context"
	"time"

	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"

	redismetrics "gitee.com/flycash/connectivity-orchestrator/internal/pkg/redis/metrics"
)

func InitRedisClient() *redis.Client {
	type Config struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}
	var cfg Config
	err := econf.UnmarshalKey("redis", &cfg)
	if err != nil {
		panic(err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	client.AddHook(redismetrics.NewHook(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(err)
	}
	return client
}

// InitRedisCmdable 健康快照和分布式锁只需要 Cmdable
func InitRedisCmdable(client *redis.Client) redis.Cmdable {
	return client
}
