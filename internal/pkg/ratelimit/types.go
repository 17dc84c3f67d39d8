package ratelimit

import "context"

//go:generate mockgen -source=./types.go -package=limitmocks -destination=./mocks/limiter.mock.go Limiter
type Limiter interface {
	// Limit 返回 true 表示应该限流，这次请求不计数
	Limit(ctx context.Context, key string) (bool, error)
}
