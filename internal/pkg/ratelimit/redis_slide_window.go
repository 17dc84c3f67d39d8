package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed lua/slide_window.lua
	slidingWindowScript string

	_ Limiter = (*RedisSlidingWindowLimiter)(nil)
)

type RedisSlidingWindowLimiter struct {
	cmd       redis.Cmdable
	interval  time.Duration
	rate      int
	keyPrefix string
	now       func() time.Time
}

// NewRedisSlidingWindowLimiter interval 内最多放行 rate 次
func NewRedisSlidingWindowLimiter(cmd redis.Cmdable, interval time.Duration, rate int) *RedisSlidingWindowLimiter {
	return &RedisSlidingWindowLimiter{
		cmd:       cmd,
		interval:  interval,
		rate:      rate,
		keyPrefix: "orchestrator:ratelimit:",
		now:       time.Now,
	}
}

func (r *RedisSlidingWindowLimiter) Limit(ctx context.Context, key string) (bool, error) {
	now := r.now().UnixMilli()
	// 同一毫秒内的多次请求需要不同的成员
	member := fmt.Sprintf("%d:%s", now, uuid.Must(uuid.NewV4()).String())
	return r.cmd.Eval(ctx, slidingWindowScript,
		[]string{r.keyPrefix + key},
		r.interval.Milliseconds(),
		r.rate,
		now,
		member,
	).Bool()
}
