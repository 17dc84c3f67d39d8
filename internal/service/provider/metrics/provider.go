// Package metrics 供应商调用、故障转移和健康状态的指标
package metrics

import (
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// Collector 编排层的指标，nil 接收者上的调用都是空操作
type Collector struct {
	attemptDurationSummary *prometheus.SummaryVec
	attemptCounter         *prometheus.CounterVec
	failoverCounter        *prometheus.CounterVec
	healthGauge            *prometheus.GaugeVec
	healthLatencyGauge     *prometheus.GaugeVec
}

// NewCollector reg 为 nil 时注册到默认 registry
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		attemptDurationSummary: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "provider_attempt_duration_seconds",
				Help:       "供应商调用耗时统计（秒），包含执行器内部的重试",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
				MaxAge:     time.Minute * 5,
			},
			[]string{"provider", "operation", "status"},
		),
		attemptCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_attempt_total",
				Help: "供应商调用次数",
			},
			[]string{"provider", "service", "operation", "status"},
		),
		failoverCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_failover_total",
				Help: "主供应商失败后切换到备用供应商的次数",
			},
			[]string{"service", "operation", "outcome"},
		),
		healthGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "provider_up",
				Help: "最近一次探测是否可用，1 可用 0 不可用",
			},
			[]string{"provider", "service"},
		),
		healthLatencyGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "provider_probe_latency_seconds",
				Help: "最近一次探测耗时（秒）",
			},
			[]string{"provider", "service"},
		),
	}
	reg.MustRegister(c.attemptDurationSummary, c.attemptCounter, c.failoverCounter, c.healthGauge, c.healthLatencyGauge)
	return c
}

// ObserveAttempt status 取 StatusSuccess / StatusFailure / StatusError
func (c *Collector) ObserveAttempt(providerName string, service domain.ServiceType, operation, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.attemptCounter.WithLabelValues(providerName, string(service), operation, status).Inc()
	c.attemptDurationSummary.WithLabelValues(providerName, operation, status).Observe(duration.Seconds())
}

func (c *Collector) IncFailover(service domain.ServiceType, operation, outcome string) {
	if c == nil {
		return
	}
	c.failoverCounter.WithLabelValues(string(service), operation, outcome).Inc()
}

func (c *Collector) ObserveHealth(providerName string, service domain.ServiceType, rec domain.HealthRecord) {
	if c == nil {
		return
	}
	up := 0.0
	if rec.Available {
		up = 1
	}
	c.healthGauge.WithLabelValues(providerName, string(service)).Set(up)
	c.healthLatencyGauge.WithLabelValues(providerName, string(service)).Set(rec.Latency.Seconds())
}
