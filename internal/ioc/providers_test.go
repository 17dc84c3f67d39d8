package ioc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
)

type fakeRegistrar struct {
	registered []provider.Provider
	configs    []provider.Config
	err        error
}

func (f *fakeRegistrar) Register(p provider.Provider, cfg provider.Config) error {
	if f.err != nil {
		return f.err
	}
	if err := p.Initialize(cfg); err != nil {
		return err
	}
	f.registered = append(f.registered, p)
	f.configs = append(f.configs, cfg)
	return nil
}

func envOf(kv map[string]string) func(string) string {
	return func(key string) string {
		return kv[key]
	}
}

func TestProviderConfig_Config(t *testing.T) {
	t.Parallel()

	c := ProviderConfig{
		BaseURL:      "https://api.example.com",
		Subtype:      "profile-1",
		APIKeyEnv:    "TELNYX_KEY",
		APISecretEnv: "TELNYX_SECRET",
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		Extra:        map[string]string{"region": "cn-hangzhou", "signName": "static"},
		ExtraEnv:     map[string]string{"signName": "SIGN_NAME", "appID": "MISSING"},
	}
	cfg := c.Config(envOf(map[string]string{
		"TELNYX_KEY":    "k",
		"TELNYX_SECRET": "s",
		"SIGN_NAME":     "from-env",
	}))
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "s", cfg.APISecret)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "profile-1", cfg.Subtype)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	// 环境变量覆盖静态值，没设置的环境变量不会写入空串
	assert.Equal(t, map[string]string{"region": "cn-hangzhou", "signName": "from-env"}, cfg.Extra)
}

func TestRegisterProviders(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		cfgs      []ProviderConfig
		env       map[string]string
		regErr    error
		wantN     int
		wantNames []string
		wantTiers []domain.Tier
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name: "按配置注册",
			cfgs: []ProviderConfig{
				{Name: "esimaccess", Kind: "esimaccess", Tier: 1, APIKeyEnv: "ESIM_KEY", APISecretEnv: "ESIM_SECRET"},
				{Name: "vpn-main", Kind: "vpnresellers", APIKeyEnv: "VPN_KEY"},
			},
			env:       map[string]string{"ESIM_KEY": "k", "ESIM_SECRET": "s", "VPN_KEY": "v"},
			wantN:     2,
			wantNames: []string{"esimaccess", "vpn-main"},
			wantTiers: []domain.Tier{domain.TierPrimary, domain.TierPrimary},
			assertErr: assert.NoError,
		},
		{
			name: "缺少凭证的供应商被跳过",
			cfgs: []ProviderConfig{
				{Name: "telnyx", Kind: "telnyx", Tier: 2, APIKeyEnv: "TELNYX_KEY"},
				{Name: "vpn-main", Kind: "vpnresellers", APIKeyEnv: "VPN_KEY"},
			},
			env:       map[string]string{"VPN_KEY": "v"},
			wantN:     1,
			wantNames: []string{"vpn-main"},
			wantTiers: []domain.Tier{domain.TierPrimary},
			assertErr: assert.NoError,
		},
		{
			name: "禁用的供应商不注册",
			cfgs: []ProviderConfig{
				{Name: "telnyx", Kind: "telnyx", Tier: 2, Disabled: true, APIKeyEnv: "TELNYX_KEY"},
			},
			env:       map[string]string{"TELNYX_KEY": "k"},
			assertErr: assert.NoError,
		},
		{
			name:      "名字默认取类型",
			cfgs:      []ProviderConfig{{Kind: "telnyx", Tier: 2, APIKeyEnv: "TELNYX_KEY"}},
			env:       map[string]string{"TELNYX_KEY": "k"},
			wantN:     1,
			wantNames: []string{"telnyx"},
			wantTiers: []domain.Tier{domain.TierBackup},
			assertErr: assert.NoError,
		},
		{
			name: "未知类型",
			cfgs: []ProviderConfig{{Name: "x", Kind: "carrier-pigeon"}},
			assertErr: func(t assert.TestingT, err error, _ ...any) bool {
				return assert.ErrorIs(t, err, errs.ErrInvalidParameter)
			},
		},
		{
			name:   "注册失败直接返回",
			cfgs:   []ProviderConfig{{Name: "vpn-main", Kind: "vpnresellers", APIKeyEnv: "VPN_KEY"}},
			env:    map[string]string{"VPN_KEY": "v"},
			regErr: errors.New("boom"),
			assertErr: func(t assert.TestingT, err error, _ ...any) bool {
				return assert.EqualError(t, err, "boom")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := &fakeRegistrar{err: tc.regErr}
			n, err := RegisterProviders(r, tc.cfgs, envOf(tc.env))
			tc.assertErr(t, err)
			require.Equal(t, tc.wantN, n)
			names := make([]string, 0, len(r.registered))
			tiers := make([]domain.Tier, 0, len(r.registered))
			for _, p := range r.registered {
				names = append(names, p.Name())
				tiers = append(tiers, p.Tier())
			}
			if tc.wantN == 0 {
				assert.Empty(t, names)
				return
			}
			assert.Equal(t, tc.wantNames, names)
			assert.Equal(t, tc.wantTiers, tiers)
		})
	}
}

func TestFactories(t *testing.T) {
	t.Parallel()

	wantTypes := map[string]domain.ServiceType{
		"esimaccess":   domain.ServiceESim,
		"airalo":       domain.ServiceESim,
		"telnyx":       domain.ServiceCommunication,
		"aliyun":       domain.ServiceCommunication,
		"tencentcloud": domain.ServiceCommunication,
		"vpnresellers": domain.ServiceVPN,
	}
	require.Len(t, factories, len(wantTypes))
	for kind, typ := range wantTypes {
		p := factories[kind](kind, domain.TierPrimary)
		assert.Equal(t, typ, p.Type(), kind)
		assert.Equal(t, kind, p.Name())
	}
}
