package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Hook 统计 Redis 命令、管道和建连，健康快照和分布式锁都走这个客户端
type Hook struct {
	commands   *prometheus.CounterVec
	durations  *prometheus.SummaryVec
	pipelines  *prometheus.CounterVec
	pipeSize   prometheus.Counter
	pipeTiming prometheus.Summary
	dials      *prometheus.CounterVec
}

// NewHook reg 为 nil 时注册到默认 Registerer
func NewHook(reg prometheus.Registerer) *Hook {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	objectives := map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001}
	h := &Hook{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_redis_commands_total",
			Help: "Redis 命令次数",
		}, []string{"command", "status"}),
		durations: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "orchestrator_redis_command_duration_seconds",
			Help:       "Redis 命令耗时（秒）",
			Objectives: objectives,
		}, []string{"command"}),
		pipelines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_redis_pipelines_total",
			Help: "Redis 管道执行次数",
		}, []string{"status"}),
		pipeSize: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_redis_pipeline_commands_total",
			Help: "Redis 管道里的命令总数",
		}),
		pipeTiming: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:       "orchestrator_redis_pipeline_duration_seconds",
			Help:       "Redis 管道耗时（秒）",
			Objectives: objectives,
		}),
		dials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_redis_dials_total",
			Help: "Redis 建连次数",
		}, []string{"status"}),
	}
	reg.MustRegister(h.commands, h.durations, h.pipelines, h.pipeSize, h.pipeTiming, h.dials)
	return h
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.durations.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		h.commands.WithLabelValues(cmd.Name(), status(err)).Inc()
		return err
	}
}

func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if len(cmds) == 0 {
			return next(ctx, cmds)
		}
		start := time.Now()
		err := next(ctx, cmds)
		h.pipeTiming.Observe(time.Since(start).Seconds())
		h.pipeSize.Add(float64(len(cmds)))

		st := status(err)
		for _, cmd := range cmds {
			if status(cmd.Err()) == statusError {
				st = statusError
				break
			}
		}
		h.pipelines.WithLabelValues(st).Inc()
		return err
	}
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		h.dials.WithLabelValues(status(err)).Inc()
		return conn, err
	}
}

// redis.Nil 表示 key 不存在，不算错误
func status(err error) string {
	if err != nil && !errors.Is(err, redis.Nil) {
		return statusError
	}
	return statusSuccess
}
