package manager

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/event/failover"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository/cache"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/health"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/metrics"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/tracing"
	"github.com/gotomicro/ego/core/elog"
)

type Option func(m *Manager)

func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) {
		m.metrics = c
	}
}

func WithTracer(t *tracing.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

func WithEventProducer(p failover.EventProducer) Option {
	return func(m *Manager) {
		m.events = p
	}
}

func WithHealthPublisher(p health.Publisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

func WithCoverageCache(c cache.CoverageCache) Option {
	return func(m *Manager) {
		m.coverage = c
	}
}

type entry struct {
	provider provider.Provider
	seq      uint64
}

// Manager 供应商注册表和编排器，进程内只构造一个并注入给业务服务。
// 注册主要发生在启动阶段，之后以读为主
type Manager struct {
	mu        sync.RWMutex
	providers map[string]entry
	seq       uint64

	health    *health.Store
	trackerMu sync.Mutex
	tracker   *health.Tracker

	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	events    failover.EventProducer
	publisher health.Publisher
	coverage  cache.CoverageCache
	logger    *elog.Component
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		providers: make(map[string]entry),
		health:    health.NewStore(),
		logger:    elog.DefaultLogger.With(elog.String("component", "provider-manager")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register 初始化并注册供应商。缺少凭证的供应商返回 errs.ErrConfiguration 且不会被注册，
// 调用方可以跳过它继续启动
func (m *Manager) Register(p provider.Provider, cfg provider.Config) error {
	if err := p.Initialize(cfg); err != nil {
		if errors.Is(err, errs.ErrConfiguration) {
			m.logger.Warn("供应商配置不完整，跳过注册",
				elog.String("provider", p.Name()),
				elog.String("service", string(p.Type())),
				elog.FieldErr(err))
		}
		return fmt.Errorf("初始化供应商 %s 失败: %w", p.Name(), err)
	}
	m.RegisterProvider(p)
	return nil
}

// RegisterProvider 注册已经初始化好的供应商，同名的会被替换
func (m *Manager) RegisterProvider(p provider.Provider) {
	m.mu.Lock()
	m.seq++
	_, replaced := m.providers[p.Name()]
	m.providers[p.Name()] = entry{provider: p, seq: m.seq}
	m.health.Register(p.Name(), currentHealth(p))
	m.mu.Unlock()

	m.logger.Info("注册供应商",
		elog.String("provider", p.Name()),
		elog.String("service", string(p.Type())),
		elog.Int("tier", int(p.Tier())),
		elog.Any("operations", provider.Operations(p)),
		elog.Any("replaced", replaced))
}

type cachedHealth interface {
	CachedHealth() domain.HealthRecord
}

// currentHealth 供应商此刻的健康状态，不触发探测
func currentHealth(p provider.Provider) domain.HealthRecord {
	if c, ok := p.(cachedHealth); ok {
		return c.CachedHealth()
	}
	return domain.HealthRecord{Available: p.IsAvailable(), ObservedAt: time.Now()}
}

// Provider 按名字查找
func (m *Manager) Provider(name string) (provider.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.providers[name]
	return e.provider, ok
}

// Providers 按注册顺序返回全部供应商
func (m *Manager) Providers() []provider.Provider {
	m.mu.RLock()
	entries := make([]entry, 0, len(m.providers))
	for _, e := range m.providers {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.seq, b.seq)
	})
	res := make([]provider.Provider, 0, len(entries))
	for _, e := range entries {
		res = append(res, e.provider)
	}
	return res
}

// ActiveProviders 当前可用的供应商，只用于诊断和后台展示
func (m *Manager) ActiveProviders() []provider.Provider {
	all := m.Providers()
	res := make([]provider.Provider, 0, len(all))
	for _, p := range all {
		if p.IsAvailable() {
			res = append(res, p)
		}
	}
	return res
}

// HealthRecords 每个已注册供应商的最近一次健康记录
func (m *Manager) HealthRecords() map[string]domain.HealthRecord {
	return m.health.Snapshot()
}

// StartHealthChecks interval <= 0 时使用默认的 60s
func (m *Manager) StartHealthChecks(interval time.Duration) {
	m.trackerMu.Lock()
	defer m.trackerMu.Unlock()
	if m.tracker == nil {
		opts := []health.Option{health.WithMetrics(m.metrics)}
		if m.publisher != nil {
			opts = append(opts, health.WithPublisher(m.publisher))
		}
		m.tracker = health.NewTracker(m, m.health, opts...)
	}
	m.tracker.Start(interval)
}

func (m *Manager) StopHealthChecks() {
	m.trackerMu.Lock()
	tracker := m.tracker
	m.trackerMu.Unlock()
	if tracker != nil {
		tracker.Stop()
	}
}
