package provider

import (
	"net/http"
)

// Options 适配器的可选依赖
type Options struct {
	HTTPClient *http.Client
	IDs        IDGenerator
}

type Option func(o *Options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(o *Options) {
		o.IDs = ids
	}
}

func ApplyOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FallbackID 优先使用注入的生成器
func (o Options) FallbackID(prefix, reference string) string {
	if o.IDs != nil {
		if id, err := o.IDs.FallbackID(prefix); err == nil {
			return id
		}
	}
	if reference != "" {
		return prefix + "-" + reference
	}
	return prefix + "-unknown"
}
