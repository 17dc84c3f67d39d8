package manager

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeESim 只实现下单、查询订单和国家列表
type fakeESim struct {
	*provider.Base
	healthy   atomic.Bool
	creates   atomic.Int32
	countries atomic.Int32
	create    func(ctx context.Context, req domain.ESimOrderRequest) (domain.ESimOrderResult, error)
}

func newESim(t *testing.T, name string, tier domain.Tier,
	create func(ctx context.Context, req domain.ESimOrderRequest) (domain.ESimOrderResult, error),
) *fakeESim {
	t.Helper()
	p := &fakeESim{Base: provider.NewBase(name, domain.ServiceESim, tier), create: create}
	p.healthy.Store(true)
	require.NoError(t, p.Initialize(provider.Config{APIKey: "k"}))
	return p
}

func (f *fakeESim) Initialize(cfg provider.Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("%w: %s 缺少 apiKey", errs.ErrConfiguration, f.Name())
	}
	return f.Init(cfg, func(context.Context) error {
		if f.healthy.Load() {
			return nil
		}
		return errors.New("probe failed")
	})
}

// markDown 让下一次探测失败，把缓存的状态改为不可用
func (f *fakeESim) markDown(t *testing.T) {
	t.Helper()
	f.healthy.Store(false)
	require.False(t, f.HealthStatus(t.Context()).Available)
}

func (f *fakeESim) CreateOrder(ctx context.Context, req domain.ESimOrderRequest) (domain.ESimOrderResult, error) {
	f.creates.Add(1)
	return f.create(ctx, req)
}

func (f *fakeESim) GetOrderStatus(_ context.Context, id string) (domain.OrderStatusResult, error) {
	return domain.OrderStatusResult{ProviderOrderID: id, Status: domain.OrderStatusActive, RawStatus: "GOT_RESOURCE"}, nil
}

func (f *fakeESim) ListCountries(context.Context) ([]domain.Country, error) {
	f.countries.Add(1)
	return []domain.Country{{Code: "JP", Name: "Japan"}}, nil
}

// bareVPN 没有任何可选能力
type bareVPN struct {
	*provider.Base
}

func newBareVPN(t *testing.T, name string, tier domain.Tier) *bareVPN {
	t.Helper()
	p := &bareVPN{Base: provider.NewBase(name, domain.ServiceVPN, tier)}
	require.NoError(t, p.Initialize(provider.Config{}))
	return p
}

func (b *bareVPN) Initialize(cfg provider.Config) error {
	return b.Init(cfg, func(context.Context) error { return nil })
}

func okOrder(id string) func(context.Context, domain.ESimOrderRequest) (domain.ESimOrderResult, error) {
	return func(context.Context, domain.ESimOrderRequest) (domain.ESimOrderResult, error) {
		return domain.ESimOrderResult{Outcome: domain.Outcome{Success: true}, ProviderOrderID: id}, nil
	}
}

func TestManager_RegisterProvider(t *testing.T) {
	t.Parallel()

	m := NewManager()
	first := newESim(t, "esimaccess", domain.TierPrimary, okOrder("1"))
	m.RegisterProvider(first)

	got, ok := m.Provider("esimaccess")
	require.True(t, ok)
	assert.Same(t, first, got)

	// 同名后注册的替换先注册的
	second := newESim(t, "esimaccess", domain.TierBackup, okOrder("2"))
	m.RegisterProvider(second)
	got, ok = m.Provider("esimaccess")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, m.Providers(), 1)

	_, ok = m.Provider("airalo")
	assert.False(t, ok)
}

func TestManager_Register(t *testing.T) {
	t.Parallel()

	m := NewManager()
	p := &fakeESim{Base: provider.NewBase("airalo", domain.ServiceESim, domain.TierBackup)}
	err := m.Register(p, provider.Config{})
	require.ErrorIs(t, err, errs.ErrConfiguration)
	_, ok := m.Provider("airalo")
	assert.False(t, ok)

	require.NoError(t, m.Register(p, provider.Config{APIKey: "k"}))
	_, ok = m.Provider("airalo")
	assert.True(t, ok)

	// 注册后的健康记录和供应商自己的状态一致
	rec, ok := m.HealthRecords()["airalo"]
	require.True(t, ok)
	assert.True(t, p.IsAvailable())
	assert.True(t, rec.Available)
}

func TestManager_RegisterHealthConsistent(t *testing.T) {
	t.Parallel()

	m := NewManager()
	first := newESim(t, "esimaccess", domain.TierPrimary, okOrder("1"))
	m.RegisterProvider(first)
	rec := m.HealthRecords()["esimaccess"]
	assert.Equal(t, first.IsAvailable(), rec.Available)
	assert.True(t, rec.Available)
	assert.Len(t, m.ActiveProviders(), 1)

	// 替换成一个已经探测失败的同名供应商
	second := newESim(t, "esimaccess", domain.TierPrimary, okOrder("2"))
	second.markDown(t)
	m.RegisterProvider(second)
	rec = m.HealthRecords()["esimaccess"]
	assert.Equal(t, second.IsAvailable(), rec.Available)
	assert.False(t, rec.Available)
	assert.Equal(t, "probe failed", rec.Error)

	// 再换回健康的，记录不能停留在上一个的状态
	third := newESim(t, "esimaccess", domain.TierPrimary, okOrder("3"))
	m.RegisterProvider(third)
	rec = m.HealthRecords()["esimaccess"]
	assert.Equal(t, third.IsAvailable(), rec.Available)
	assert.True(t, rec.Available)
}

func TestManager_Providers(t *testing.T) {
	t.Parallel()

	m := NewManager()
	a := newESim(t, "a", domain.TierBackup, okOrder("a"))
	b := newESim(t, "b", domain.TierPrimary, okOrder("b"))
	c := newBareVPN(t, "c", domain.TierPrimary)
	m.RegisterProvider(a)
	m.RegisterProvider(b)
	m.RegisterProvider(c)
	b.markDown(t)

	names := func(ps []provider.Provider) []string {
		res := make([]string, 0, len(ps))
		for _, p := range ps {
			res = append(res, p.Name())
		}
		return res
	}
	assert.Equal(t, []string{"a", "b", "c"}, names(m.Providers()))
	assert.Equal(t, []string{"a", "c"}, names(m.ActiveProviders()))
}

func TestManager_SelectProvider(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		// setup 返回要注册的供应商，按注册顺序
		setup      func(t *testing.T) []provider.Provider
		criteria   domain.SelectionCriteria
		wantErr    error
		wantPrim   string
		wantBackup string
	}{
		{
			name:     "没有供应商",
			setup:    func(*testing.T) []provider.Provider { return nil },
			criteria: domain.SelectionCriteria{Service: domain.ServiceESim},
			wantErr:  errs.ErrNoProviderAvailable,
		},
		{
			name: "只有其他类型的供应商",
			setup: func(t *testing.T) []provider.Provider {
				return []provider.Provider{newBareVPN(t, "vpnresellers", domain.TierPrimary)}
			},
			criteria: domain.SelectionCriteria{Service: domain.ServiceESim},
			wantErr:  errs.ErrNoProviderAvailable,
		},
		{
			name: "主备都可用",
			setup: func(t *testing.T) []provider.Provider {
				return []provider.Provider{
					newESim(t, "airalo", domain.TierBackup, okOrder("x")),
					newESim(t, "esimaccess", domain.TierPrimary, okOrder("x")),
				}
			},
			criteria:   domain.SelectionCriteria{Service: domain.ServiceESim, RequireBackup: true},
			wantPrim:   "esimaccess",
			wantBackup: "airalo",
		},
		{
			name: "只有一个候选",
			setup: func(t *testing.T) []provider.Provider {
				return []provider.Provider{newESim(t, "esimaccess", domain.TierPrimary, okOrder("x"))}
			},
			criteria: domain.SelectionCriteria{Service: domain.ServiceESim, RequireBackup: true},
			wantPrim: "esimaccess",
		},
		{
			name: "tier1 不可用时 tier2 成为主供应商",
			setup: func(t *testing.T) []provider.Provider {
				primary := newESim(t, "esimaccess", domain.TierPrimary, okOrder("x"))
				primary.markDown(t)
				return []provider.Provider{primary, newESim(t, "airalo", domain.TierBackup, okOrder("x"))}
			},
			criteria: domain.SelectionCriteria{Service: domain.ServiceESim, RequireBackup: true},
			wantPrim: "airalo",
		},
		{
			name: "主供应商是 tier1 时即使不要求也分配备用",
			setup: func(t *testing.T) []provider.Provider {
				return []provider.Provider{
					newESim(t, "a", domain.TierPrimary, okOrder("x")),
					newESim(t, "b", domain.TierPrimary, okOrder("x")),
				}
			},
			criteria:   domain.SelectionCriteria{Service: domain.ServiceESim},
			wantPrim:   "a",
			wantBackup: "b",
		},
		{
			name: "优先 tier2 作为备用",
			setup: func(t *testing.T) []provider.Provider {
				return []provider.Provider{
					newESim(t, "a", domain.TierPrimary, okOrder("x")),
					newESim(t, "b", domain.TierPrimary, okOrder("x")),
					newESim(t, "c", domain.TierBackup, okOrder("x")),
				}
			},
			criteria:   domain.SelectionCriteria{Service: domain.ServiceESim},
			wantPrim:   "a",
			wantBackup: "c",
		},
		{
			name: "主供应商是 tier2 且不要求备用",
			setup: func(t *testing.T) []provider.Provider {
				return []provider.Provider{
					newESim(t, "a", domain.TierBackup, okOrder("x")),
					newESim(t, "b", domain.TierBackup, okOrder("x")),
				}
			},
			criteria: domain.SelectionCriteria{Service: domain.ServiceESim},
			wantPrim: "a",
		},
		{
			name: "只有 tier2 但要求备用",
			setup: func(t *testing.T) []provider.Provider {
				return []provider.Provider{
					newESim(t, "a", domain.TierBackup, okOrder("x")),
					newESim(t, "b", domain.TierBackup, okOrder("x")),
				}
			},
			criteria:   domain.SelectionCriteria{Service: domain.ServiceESim, RequireBackup: true},
			wantPrim:   "a",
			wantBackup: "b",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := NewManager()
			for _, p := range tc.setup(t) {
				m.RegisterProvider(p)
			}
			sel, err := m.SelectProvider(tc.criteria)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Contains(t, err.Error(), string(tc.criteria.Service))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantPrim, sel.Primary.Name())
			assert.Contains(t, sel.Reason, tc.wantPrim)
			if tc.wantBackup == "" {
				assert.Nil(t, sel.Backup)
				return
			}
			require.NotNil(t, sel.Backup)
			assert.Equal(t, tc.wantBackup, sel.Backup.Name())
			assert.NotEqual(t, sel.Primary.Name(), sel.Backup.Name())
		})
	}
}

func TestManager_SelectProviderReason(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.RegisterProvider(newESim(t, "esimaccess", domain.TierPrimary, okOrder("x")))
	m.RegisterProvider(newESim(t, "airalo", domain.TierBackup, okOrder("x")))

	sel, err := m.SelectProvider(domain.SelectionCriteria{
		Service:        domain.ServiceESim,
		Region:         "jp",
		PrioritizeCost: true,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"selected esimaccess (primary, tier 1) for esim, backup airalo (backup); criteria: region=JP, cost-priority",
		sel.Reason)
}

func TestManager_HealthChecks(t *testing.T) {
	t.Parallel()

	m := NewManager()
	p := newESim(t, "esimaccess", domain.TierPrimary, okOrder("x"))
	m.RegisterProvider(p)

	m.StartHealthChecks(0)
	defer m.StopHealthChecks()
	assert.Eventually(t, func() bool {
		return m.HealthRecords()["esimaccess"].Available
	}, time.Second, 10*time.Millisecond)

	m.StopHealthChecks()
	// 重复停止是安全的
	m.StopHealthChecks()
}
