package ioc

import (
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitZipkinTracer 没有配置 trace.zipkin.endpoint 时 span 不导出
func InitZipkinTracer() *sdktrace.TracerProvider {
	type Config struct {
		ServiceName string  `yaml:"serviceName"`
		Endpoint    string  `yaml:"endpoint"`
		SampleRatio float64 `yaml:"sampleRatio"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("trace.zipkin", &cfg); err != nil {
		panic(err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "connectivity-orchestrator"
	}
	if cfg.SampleRatio <= 0 {
		cfg.SampleRatio = 1
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	}
	if cfg.Endpoint != "" {
		exporter, err := zipkin.New(cfg.Endpoint)
		if err != nil {
			panic(err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	} else {
		elog.Warn("没有配置 zipkin，span 不会导出")
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp
}
