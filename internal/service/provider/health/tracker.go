package health

import (
	"context"
	"sync"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/metrics"
	"github.com/gotomicro/ego/core/elog"
	"golang.org/x/sync/errgroup"
)

const DefaultInterval = 60 * time.Second

// Source 提供当前注册的全部供应商
type Source interface {
	Providers() []provider.Provider
}

// Publisher 每轮探测结束后把快照发给外部，比如后台看板
type Publisher interface {
	Publish(ctx context.Context, snapshot map[string]domain.HealthRecord) error
}

type Option func(t *Tracker)

func WithMetrics(c *metrics.Collector) Option {
	return func(t *Tracker) {
		t.metrics = c
	}
}

func WithPublisher(p Publisher) Option {
	return func(t *Tracker) {
		t.publisher = p
	}
}

// Tracker 定时并发探测所有供应商。
// 探测失败只记录在健康记录里，不会向调用方返回错误
type Tracker struct {
	source    Source
	store     *Store
	metrics   *metrics.Collector
	publisher Publisher
	logger    *elog.Component

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTracker(source Source, store *Store, opts ...Option) *Tracker {
	t := &Tracker{
		source: source,
		store:  store,
		logger: elog.DefaultLogger.With(elog.String("component", "health-tracker")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start 启动后立刻探测一轮，之后每 interval 一轮。已经在运行时忽略
func (t *Tracker) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.logger.Warn("健康检查已经在运行")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx, interval, t.done)
	t.logger.Info("启动健康检查", elog.Duration("interval", interval))
}

// Stop 取消正在进行的探测并等待循环退出，可以重复调用
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.logger.Info("停止健康检查")
}

func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Tracker) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.CheckAll(ctx)
		}
	}
}

// CheckAll 并发探测一轮，单个供应商的探测时长由它自己的超时限制
func (t *Tracker) CheckAll(ctx context.Context) {
	providers := t.source.Providers()
	var eg errgroup.Group
	for _, p := range providers {
		eg.Go(func() error {
			t.check(ctx, p)
			return nil
		})
	}
	_ = eg.Wait()

	if t.publisher == nil || ctx.Err() != nil {
		return
	}
	if err := t.publisher.Publish(ctx, t.store.Snapshot()); err != nil {
		t.logger.Warn("发布健康快照失败", elog.FieldErr(err))
	}
}

func (t *Tracker) check(ctx context.Context, p provider.Provider) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("健康探测 panic", elog.String("provider", p.Name()), elog.Any("panic", r))
			t.store.Update(p.Name(), domain.HealthRecord{Available: false, ObservedAt: time.Now(), Error: "probe panic"})
		}
	}()
	rec := p.HealthStatus(ctx)
	if ctx.Err() != nil {
		// 停止期间拿到的是缓存记录，不发布
		return
	}
	if !t.store.Update(p.Name(), rec) {
		// 探测期间被注销
		return
	}
	t.metrics.ObserveHealth(p.Name(), p.Type(), rec)
	if !rec.Available {
		t.logger.Warn("供应商探测失败",
			elog.String("provider", p.Name()),
			elog.String("service", string(p.Type())),
			elog.String("error", rec.Error))
	}
}
