package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/httpx"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/retry"
	"github.com/gotomicro/ego/core/elog"
	"golang.org/x/sync/singleflight"
)

// Prober 适配器提供的轻量探测，比如查询一个很便宜的资源
type Prober func(ctx context.Context) error

// Base 适配器公共部分：身份、配置、缓存的健康记录和探测合并。
// 适配器嵌入 *Base，自己实现 Initialize 并在校验通过后调用 Init
type Base struct {
	name        string
	serviceType domain.ServiceType
	tier        domain.Tier

	mu          sync.Mutex
	cfg         Config
	probe       Prober
	initialized atomic.Bool
	health      atomic.Pointer[domain.HealthRecord]
	probes      singleflight.Group

	logger *elog.Component
}

func NewBase(name string, serviceType domain.ServiceType, tier domain.Tier) *Base {
	b := &Base{
		name:        name,
		serviceType: serviceType,
		tier:        tier,
		logger: elog.DefaultLogger.With(
			elog.String("provider", name),
			elog.String("service", string(serviceType)),
		),
	}
	b.health.Store(&domain.HealthRecord{
		Available:  false,
		ObservedAt: time.Now(),
		Error:      errs.ErrProviderNotReady.Error(),
	})
	return b
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Type() domain.ServiceType {
	return b.serviceType
}

func (b *Base) Tier() domain.Tier {
	return b.tier
}

func (b *Base) Logger() *elog.Component {
	return b.logger
}

// Config 初始化之后只读
func (b *Base) Config() Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// Init 保存配置并标记为已初始化，初始化成功后视为可用，直到探测结果说明相反情况。
// 重复调用不会覆盖第一次的配置
func (b *Base) Init(cfg Config, probe Prober) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized.Load() {
		b.logger.Warn("重复初始化供应商，忽略")
		return nil
	}
	if probe == nil {
		return fmt.Errorf("%w: %s 没有提供探测方法", errs.ErrConfiguration, b.name)
	}
	b.cfg = cfg
	b.probe = probe
	b.health.Store(&domain.HealthRecord{Available: true, ObservedAt: time.Now()})
	b.initialized.Store(true)
	return nil
}

func (b *Base) Initialized() bool {
	return b.initialized.Load()
}

func (b *Base) IsAvailable() bool {
	return b.initialized.Load() && b.health.Load().Available
}

// CachedHealth 最近一次的健康记录，不触发探测
func (b *Base) CachedHealth() domain.HealthRecord {
	return *b.health.Load()
}

// HealthStatus 同一时刻对同一个供应商的多次探测会被合并成一次。
// 探测本身不受调用方取消的影响，只受探测超时约束；调用方先取消时直接拿到缓存的记录，
// 调用方的取消不会被记成供应商故障
func (b *Base) HealthStatus(ctx context.Context) domain.HealthRecord {
	if !b.initialized.Load() || ctx.Err() != nil {
		return b.CachedHealth()
	}
	ch := b.probes.DoChan(b.name, func() (any, error) {
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.probeTimeout())
		defer cancel()

		start := time.Now()
		err := b.probe(probeCtx)
		rec := domain.HealthRecord{
			Available:  err == nil,
			Latency:    time.Since(start),
			ObservedAt: time.Now(),
		}
		if err != nil {
			rec.Error = err.Error()
		}
		b.health.Store(&rec)
		return rec, nil
	})
	select {
	case res := <-ch:
		return res.Val.(domain.HealthRecord)
	case <-ctx.Done():
		return b.CachedHealth()
	}
}

func (b *Base) probeTimeout() time.Duration {
	if t := b.Config().Timeout; t > 0 {
		return t
	}
	return httpx.DefaultTimeout
}

// NewExecutor 按供应商配置构造请求执行器
func NewExecutor(name string, cfg Config, auth httpx.Authenticator, opts ...httpx.Option) (*httpx.Executor, error) {
	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = httpx.DefaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = httpx.DefaultRetryDelay
	}
	opts = append([]httpx.Option{httpx.WithAuthenticator(auth)}, opts...)
	return httpx.NewExecutor(name, httpx.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Retry:   retry.NewLinearConfig(delay, int32(maxRetries)),
	}, opts...)
}

// RequireFields 校验必填的凭证，缺失时返回 errs.ErrConfiguration
func RequireFields(name string, fields map[string]string) error {
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		if fields[field] == "" {
			return fmt.Errorf("%w: %s 缺少 %s", errs.ErrConfiguration, name, field)
		}
	}
	return nil
}
