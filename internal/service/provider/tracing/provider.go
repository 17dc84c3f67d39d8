package tracing

import (
	"context"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "connectivity-orchestrator/provider"

// Tracer 给每次供应商调用开一个 span
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer tp 为 nil 时使用全局 TracerProvider
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		return &Tracer{tracer: otel.Tracer(instrumentation)}
	}
	return &Tracer{tracer: tp.Tracer(instrumentation)}
}

// Start 返回的 end 必须调用，outcome 为调用结果，err 为适配器返回的错误
func (t *Tracer) Start(ctx context.Context, providerName string, service domain.ServiceType, operation, role string) (context.Context, func(outcome *domain.Outcome, err error)) {
	if t == nil {
		return ctx, func(*domain.Outcome, error) {}
	}
	ctx, span := t.tracer.Start(ctx, "Provider."+operation,
		trace.WithAttributes(
			attribute.String("provider.name", providerName),
			attribute.String("provider.service", string(service)),
			attribute.String("provider.role", role),
		))
	return ctx, func(outcome *domain.Outcome, err error) {
		defer span.End()
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case outcome != nil && !outcome.Success:
			span.SetStatus(codes.Error, outcome.Error)
		default:
			span.SetAttributes(attribute.Bool("provider.success", true))
		}
	}
}
