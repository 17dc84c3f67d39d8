package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/retry"
	"github.com/gotomicro/ego/core/elog"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second

	// 错误信息里最多带这么多响应体
	maxErrorBody = 512
	maxBody      = 4 << 20
)

// Authenticator 给请求加上供应商要求的认证信息，每次尝试都会重新调用
type Authenticator interface {
	Authenticate(req *http.Request, body []byte) error
}

type Config struct {
	BaseURL string
	// Timeout 单次尝试的超时时间
	Timeout time.Duration
	Retry   retry.Config
}

// Request 一次逻辑请求，重试对调用方透明
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// StatusError 供应商返回了非 2xx 状态码
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status = %d, body = %s", e.StatusCode, e.Body)
}

// Executor 单个供应商的出站请求执行器。
// 每次尝试都有独立超时，只对超时、5xx 和网络错误重试，4xx 直接返回
type Executor struct {
	name     string
	client   *http.Client
	baseURL  string
	timeout  time.Duration
	retryCfg retry.Config
	auth     Authenticator
	logger   *elog.Component
}

type Option func(e *Executor)

func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		e.client = client
	}
}

func WithAuthenticator(auth Authenticator) Option {
	return func(e *Executor) {
		e.auth = auth
	}
}

func NewExecutor(name string, cfg Config, opts ...Option) (*Executor, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.Type == "" && cfg.Retry.Linear == nil {
		cfg.Retry = retry.NewLinearConfig(DefaultRetryDelay, DefaultMaxRetries)
	}
	// 提前校验一次重试配置
	if _, err := retry.NewRetry(cfg.Retry); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}
	e := &Executor{
		name:     name,
		client:   &http.Client{},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		retryCfg: cfg.Retry,
		logger:   elog.DefaultLogger.With(elog.String("provider", name)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Do 执行请求，out 不为 nil 时把响应体解析进去。
// 调用方只会看到最终结果，中间失败的尝试只记录日志
func (e *Executor) Do(ctx context.Context, req Request, out any) error {
	body, err := e.encode(req.Body)
	if err != nil {
		return err
	}
	return e.retry(ctx, req.Method+" "+req.Path, func(ctx context.Context) error {
		return e.attempt(ctx, req, body, out)
	})
}

// Invoke 用同样的超时和重试策略执行一个非 HTTP 调用，比如云厂商 SDK。
// fn 需要把错误归类成 errs.ErrTimeout / errs.ErrTransientProvider 才会被重试
func (e *Executor) Invoke(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return e.retry(ctx, op, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s 请求被取消: %w", e.name, err)
		}
		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		err := fn(attemptCtx)
		if err != nil && ctx.Err() != nil {
			return fmt.Errorf("%s 请求被取消: %w", e.name, ctx.Err())
		}
		if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, errs.ErrTimeout) {
			return fmt.Errorf("%w: %s 超过 %s", errs.ErrTimeout, op, e.timeout)
		}
		return err
	})
}

func (e *Executor) retry(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	strategy, err := retry.NewRetry(e.retryCfg)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}

	for n := 1; ; n++ {
		err = attempt(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		delay, ok := strategy.Next()
		if !ok {
			return err
		}
		e.logger.Warn("供应商请求失败，准备重试",
			elog.String("op", op),
			elog.Int("attempt", n),
			elog.Duration("delay", delay),
			elog.FieldErr(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s 请求被取消: %w", e.name, ctx.Err())
		case <-timer.C:
		}
	}
}

// DoOnce 只尝试一次，健康探测使用
func (e *Executor) DoOnce(ctx context.Context, req Request, out any) error {
	body, err := e.encode(req.Body)
	if err != nil {
		return err
	}
	return e.attempt(ctx, req, body, out)
}

func (e *Executor) encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: 序列化请求失败 %w", errs.ErrInvalidParameter, err)
	}
	return body, nil
}

func (e *Executor) attempt(ctx context.Context, req Request, body []byte, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s 请求被取消: %w", e.name, err)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := e.newRequest(attemptCtx, req, body)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return e.classifyTransportErr(ctx, req, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return e.classifyTransportErr(ctx, req, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s %s: %w", errs.ErrTransientProvider, req.Method, req.Path, newStatusError(resp.StatusCode, data))
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s %s: %w", errs.ErrClientRequest, req.Method, req.Path, newStatusError(resp.StatusCode, data))
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("%w: %s %s: %w", errs.ErrClientRequest, req.Method, req.Path, newStatusError(resp.StatusCode, data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s 解析响应失败: %w", e.name, err)
	}
	return nil
}

func (e *Executor) newRequest(ctx context.Context, req Request, body []byte) (*http.Request, error) {
	target := e.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidParameter, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if e.auth != nil {
		if err = e.auth.Authenticate(httpReq, body); err != nil {
			return nil, fmt.Errorf("%w: 认证信息生成失败 %w", errs.ErrConfiguration, err)
		}
	}
	return httpReq, nil
}

func (e *Executor) classifyTransportErr(ctx context.Context, req Request, err error) error {
	// 调用方取消，不再重试
	if ctx.Err() != nil {
		return fmt.Errorf("%s 请求被取消: %w", e.name, ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s 超过 %s", errs.ErrTimeout, req.Method, req.Path, e.timeout)
	}
	return fmt.Errorf("%w: %s %s: %w", errs.ErrTransientProvider, req.Method, req.Path, err)
}

func newStatusError(code int, body []byte) *StatusError {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return &StatusError{StatusCode: code, Body: s}
}

func retryable(err error) bool {
	return errors.Is(err, errs.ErrTimeout) || errors.Is(err, errs.ErrTransientProvider)
}
