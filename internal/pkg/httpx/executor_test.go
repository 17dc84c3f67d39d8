package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, url string, timeout time.Duration) *Executor {
	t.Helper()
	e, err := NewExecutor("test", Config{
		BaseURL: url,
		Timeout: timeout,
		Retry:   retry.NewLinearConfig(time.Millisecond, 3),
	}, WithAuthenticator(BearerAuth{Token: "token"}))
	require.NoError(t, err)
	return e
}

func TestExecutor_Do(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		statuses     []int
		wantErr      error
		wantAttempts int32
	}{
		{
			name:         "成功",
			statuses:     []int{http.StatusOK},
			wantAttempts: 1,
		},
		{
			name:         "404不重试",
			statuses:     []int{http.StatusNotFound},
			wantErr:      errs.ErrClientRequest,
			wantAttempts: 1,
		},
		{
			name:         "400不重试",
			statuses:     []int{http.StatusBadRequest},
			wantErr:      errs.ErrClientRequest,
			wantAttempts: 1,
		},
		{
			name:         "429不重试",
			statuses:     []int{http.StatusTooManyRequests},
			wantErr:      errs.ErrClientRequest,
			wantAttempts: 1,
		},
		{
			name:         "500重试到上限",
			statuses:     []int{http.StatusInternalServerError},
			wantErr:      errs.ErrTransientProvider,
			wantAttempts: 4,
		},
		{
			name:         "503之后恢复",
			statuses:     []int{http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK},
			wantAttempts: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(attempts.Add(1)) - 1
				assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
				status := tc.statuses[len(tc.statuses)-1]
				if n < len(tc.statuses) {
					status = tc.statuses[n]
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"id":"order-1"}`))
			}))
			defer server.Close()

			var out struct {
				ID string `json:"id"`
			}
			err := newTestExecutor(t, server.URL, time.Second).Do(t.Context(), Request{
				Method: http.MethodPost,
				Path:   "/orders",
				Body:   map[string]string{"plan": "p1"},
			}, &out)

			assert.Equal(t, tc.wantAttempts, attempts.Load())
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tc.statuses[len(tc.statuses)-1], statusErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "order-1", out.ID)
		})
	}
}

func TestExecutor_Timeout(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	err := newTestExecutor(t, server.URL, 20*time.Millisecond).Do(t.Context(), Request{Path: "/slow"}, nil)
	require.ErrorIs(t, err, errs.ErrTimeout)
	assert.Equal(t, int32(4), attempts.Load())
}

func TestExecutor_CancelledByCaller(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e, err := NewExecutor("test", Config{
		BaseURL: server.URL,
		Retry:   retry.NewLinearConfig(time.Second, 3),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = e.Do(ctx, Request{Path: "/orders"}, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, errs.ErrTimeout)
	// 等待重试的时候被取消，不会再发起第二次请求
	assert.Equal(t, int32(1), attempts.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecutor_DoOnce(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := newTestExecutor(t, server.URL, time.Second).DoOnce(t.Context(), Request{Path: "/ping"}, nil)
	require.ErrorIs(t, err, errs.ErrTransientProvider)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestNewExecutor_InvalidRetry(t *testing.T) {
	t.Parallel()

	_, err := NewExecutor("test", Config{Retry: retry.Config{Type: "unknown"}})
	require.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestExecutor_Invoke(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		fn           func(calls int32) func(ctx context.Context) error
		wantErr      error
		wantAttempts int32
	}{
		{
			name: "临时错误后成功",
			fn: func(calls int32) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					if calls < 2 {
						return errs.ErrTransientProvider
					}
					return nil
				}
			},
			wantAttempts: 3,
		},
		{
			name: "客户端错误不重试",
			fn: func(int32) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return errs.ErrClientRequest
				}
			},
			wantErr:      errs.ErrClientRequest,
			wantAttempts: 1,
		},
		{
			name: "超时归类后重试",
			fn: func(int32) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				}
			},
			wantErr:      errs.ErrTimeout,
			wantAttempts: 4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := newTestExecutor(t, "", 20*time.Millisecond)
			var attempts atomic.Int32
			err := e.Invoke(t.Context(), "SendSms", func(ctx context.Context) error {
				return tc.fn(attempts.Add(1) - 1)(ctx)
			})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantAttempts, attempts.Load())
		})
	}
}
