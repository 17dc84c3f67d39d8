package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter = errors.New("参数错误")

	// ErrConfiguration 初始化时缺少必要的凭证，供应商不会被注册
	ErrConfiguration = errors.New("供应商配置错误")
	// ErrTimeout 单次请求超时
	ErrTimeout = errors.New("供应商请求超时")
	// ErrTransientProvider 5xx 或网络错误，可以重试
	ErrTransientProvider = errors.New("供应商暂时不可用")
	// ErrClientRequest 4xx，请求本身有问题，不重试
	ErrClientRequest = errors.New("供应商拒绝请求")

	ErrNoProviderAvailable  = errors.New("无可用供应商")
	ErrProviderNotFound     = errors.New("供应商不存在")
	ErrUnsupportedOperation = errors.New("供应商不支持该操作")
	ErrProviderNotReady     = errors.New("供应商未初始化")

	ErrOrderNotFound = errors.New("订单记录不存在")
	ErrRateLimited   = errors.New("请求过于频繁")
)
