package retry

import (
	"fmt"
	"time"

	"github.com/ecodeclub/ekit/retry"
)

const (
	TypeLinear      = "linear"
	TypeFixed       = "fixed"
	TypeExponential = "exponential"
)

// Strategy 重试策略，和 ekit 的重试策略保持一致
type Strategy interface {
	// Next 返回下一次重试前需要等待的时间，第二个返回值为 false 表示不再重试
	Next() (time.Duration, bool)
}

type Config struct {
	Type               string                    `json:"type" yaml:"type"`
	Linear             *LinearConfig             `json:"linear" yaml:"linear"`
	FixedInterval      *FixedIntervalConfig      `json:"fixedInterval" yaml:"fixedInterval"`
	ExponentialBackoff *ExponentialBackoffConfig `json:"exponentialBackoff" yaml:"exponentialBackoff"`
}

type LinearConfig struct {
	// 基础间隔，第 n 次重试等待 n 倍
	BaseDelay  time.Duration `json:"baseDelay" yaml:"baseDelay"`
	MaxRetries int32         `json:"maxRetries" yaml:"maxRetries"`
}

type ExponentialBackoffConfig struct {
	InitialInterval time.Duration `json:"initialInterval" yaml:"initialInterval"`
	MaxInterval     time.Duration `json:"maxInterval" yaml:"maxInterval"`
	// 最大重试次数
	MaxRetries int32 `json:"maxRetries" yaml:"maxRetries"`
}

type FixedIntervalConfig struct {
	MaxRetries int32         `json:"maxRetries" yaml:"maxRetries"`
	Interval   time.Duration `json:"interval" yaml:"interval"`
}

// NewRetry 每次调用都会返回一个新的策略实例，策略本身是有状态的，不能跨请求复用
func NewRetry(cfg Config) (Strategy, error) {
	switch cfg.Type {
	case TypeLinear, "":
		if cfg.Linear == nil {
			return nil, fmt.Errorf("linear retry config is missing")
		}
		return NewLinearStrategy(cfg.Linear.BaseDelay, cfg.Linear.MaxRetries), nil
	case TypeFixed:
		if cfg.FixedInterval == nil {
			return nil, fmt.Errorf("fixed retry config is missing")
		}
		return retry.NewFixedIntervalRetryStrategy(cfg.FixedInterval.Interval, cfg.FixedInterval.MaxRetries)
	case TypeExponential:
		if cfg.ExponentialBackoff == nil {
			return nil, fmt.Errorf("exponential retry config is missing")
		}
		return retry.NewExponentialBackoffRetryStrategy(cfg.ExponentialBackoff.InitialInterval,
			cfg.ExponentialBackoff.MaxInterval, cfg.ExponentialBackoff.MaxRetries)
	default:
		return nil, fmt.Errorf("unknown retry type: %s", cfg.Type)
	}
}

// NewLinearConfig 线性退避配置
func NewLinearConfig(baseDelay time.Duration, maxRetries int32) Config {
	return Config{
		Type: TypeLinear,
		Linear: &LinearConfig{
			BaseDelay:  baseDelay,
			MaxRetries: maxRetries,
		},
	}
}
