package ioc

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/comms"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/esim"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/vpn"
)

// ProviderConfig providers 下的一项。凭证本身不写在配置文件里，只写环境变量名
type ProviderConfig struct {
	Name         string            `yaml:"name"`
	Kind         string            `yaml:"kind"`
	Tier         int               `yaml:"tier"`
	Disabled     bool              `yaml:"disabled"`
	BaseURL      string            `yaml:"baseURL"`
	Subtype      string            `yaml:"subtype"`
	APIKeyEnv    string            `yaml:"apiKeyEnv"`
	APISecretEnv string            `yaml:"apiSecretEnv"`
	Timeout      time.Duration     `yaml:"timeout"`
	MaxRetries   int               `yaml:"maxRetries"`
	RetryDelay   time.Duration     `yaml:"retryDelay"`
	Extra        map[string]string `yaml:"extra"`
	// ExtraEnv 从环境变量读取的附加参数，key 是参数名，value 是环境变量名
	ExtraEnv map[string]string `yaml:"extraEnv"`
}

// Config 读取环境变量，组装成适配器使用的配置
func (c ProviderConfig) Config(getenv func(string) string) provider.Config {
	cfg := provider.Config{
		BaseURL:    c.BaseURL,
		Subtype:    c.Subtype,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay,
		Extra:      make(map[string]string, len(c.Extra)+len(c.ExtraEnv)),
	}
	if c.APIKeyEnv != "" {
		cfg.APIKey = getenv(c.APIKeyEnv)
	}
	if c.APISecretEnv != "" {
		cfg.APISecret = getenv(c.APISecretEnv)
	}
	for k, v := range c.Extra {
		cfg.Extra[k] = v
	}
	for k, env := range c.ExtraEnv {
		if v := getenv(env); v != "" {
			cfg.Extra[k] = v
		}
	}
	return cfg
}

// Factory 按 kind 构造适配器
type Factory func(name string, tier domain.Tier, opts ...provider.Option) provider.Provider

var factories = map[string]Factory{
	"esimaccess": func(name string, tier domain.Tier, opts ...provider.Option) provider.Provider {
		return esim.NewESimAccess(name, tier, opts...)
	},
	"airalo": func(name string, tier domain.Tier, opts ...provider.Option) provider.Provider {
		return esim.NewAiralo(name, tier, opts...)
	},
	"telnyx": func(name string, tier domain.Tier, opts ...provider.Option) provider.Provider {
		return comms.NewTelnyx(name, tier, opts...)
	},
	"aliyun": func(name string, tier domain.Tier, opts ...provider.Option) provider.Provider {
		return comms.NewAliyun(name, tier, opts...)
	},
	"tencentcloud": func(name string, tier domain.Tier, opts ...provider.Option) provider.Provider {
		return comms.NewTencentCloud(name, tier, opts...)
	},
	"vpnresellers": func(name string, tier domain.Tier, opts ...provider.Option) provider.Provider {
		return vpn.NewVPNResellers(name, tier, opts...)
	},
}

// Registrar 注册时会调用 Initialize
type Registrar interface {
	Register(p provider.Provider, cfg provider.Config) error
}

// RegisterProviders 缺少凭证的供应商被跳过，其他错误直接返回。返回成功注册的数量
func RegisterProviders(r Registrar, cfgs []ProviderConfig, getenv func(string) string, opts ...provider.Option) (int, error) {
	registered := 0
	for _, c := range cfgs {
		if c.Disabled {
			continue
		}
		factory, ok := factories[c.Kind]
		if !ok {
			return registered, fmt.Errorf("%w: 供应商 %s 的类型 %q 不存在", errs.ErrInvalidParameter, c.Name, c.Kind)
		}
		name := c.Name
		if name == "" {
			name = c.Kind
		}
		tier := domain.Tier(c.Tier)
		if tier <= 0 {
			tier = domain.TierPrimary
		}
		err := r.Register(factory(name, tier, opts...), c.Config(getenv))
		switch {
		case err == nil:
			registered++
		case errors.Is(err, errs.ErrConfiguration):
			// 没配凭证的供应商不影响其他供应商
			continue
		default:
			return registered, err
		}
	}
	return registered, nil
}

func loadProviderConfigs() []ProviderConfig {
	var cfgs []ProviderConfig
	if err := econf.UnmarshalKey("providers", &cfgs); err != nil {
		panic(err)
	}
	return cfgs
}

func registerFromConfig(r Registrar, opts ...provider.Option) {
	n, err := RegisterProviders(r, loadProviderConfigs(), os.Getenv, opts...)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		elog.Warn("没有注册任何供应商，所有履约请求都会失败")
	}
}
