package provider

import (
	"context"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
)

// Config 单个供应商实例的连接参数，只属于这个实例，初始化之后不再修改
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	// Subtype 同一个适配器对接的不同产品线，比如 Telnyx 的 messaging profile
	Subtype string
	// Timeout 单次请求超时，默认 10s
	Timeout time.Duration
	// MaxRetries 0 表示使用默认值 3，小于 0 表示不重试
	MaxRetries int
	RetryDelay time.Duration
	Extra      map[string]string
}

// Provider 所有供应商都具备的生命周期能力
type Provider interface {
	Name() string
	Type() domain.ServiceType
	Tier() domain.Tier
	// Initialize 校验并保存配置，缺少必要凭证时返回 errs.ErrConfiguration
	Initialize(cfg Config) error
	// IsAvailable 读取缓存的可用状态，未初始化时总是 false
	IsAvailable() bool
	// HealthStatus 执行一次有超时的轻量探测并返回最新的健康记录，可以并发调用
	HealthStatus(ctx context.Context) domain.HealthRecord
}

// eSIM 能力

type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.ESimOrderRequest) (domain.ESimOrderResult, error)
}

type OrderStatusGetter interface {
	GetOrderStatus(ctx context.Context, providerOrderID string) (domain.OrderStatusResult, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, providerOrderID string) error
}

type CountryLister interface {
	ListCountries(ctx context.Context) ([]domain.Country, error)
}

type CoverageChecker interface {
	CountryCoverage(ctx context.Context, countryCode string) (domain.CountryCoverage, error)
}

// 通信能力

type SMSSender interface {
	SendSMS(ctx context.Context, req domain.MessageRequest) (domain.MessageResult, error)
}

type MMSSender interface {
	SendMMS(ctx context.Context, req domain.MessageRequest) (domain.MessageResult, error)
}

type VerificationSender interface {
	SendVerificationCode(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error)
}

type CodeVerifier interface {
	VerifyCode(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error)
}

type NumberCreator interface {
	CreatePhoneNumber(ctx context.Context, req domain.PhoneNumberRequest) (domain.PhoneNumberResult, error)
}

// VPN 能力

type VPNAccountCreator interface {
	CreateVPNAccount(ctx context.Context, req domain.VPNAccountRequest) (domain.VPNAccountResult, error)
}

type AccountStatusGetter interface {
	GetAccountStatus(ctx context.Context, accountID string) (domain.VPNAccountStatus, error)
}

type AccountSuspender interface {
	SuspendAccount(ctx context.Context, accountID string) error
}

type AccountReactivator interface {
	ReactivateAccount(ctx context.Context, accountID string) error
}

// ESimProvider 完整的 eSIM 供应商
type ESimProvider interface {
	Provider
	OrderCreator
	OrderStatusGetter
	OrderCanceller
	CountryLister
	CoverageChecker
}

// CommsProvider 完整的短信/语音供应商
type CommsProvider interface {
	Provider
	SMSSender
	MMSSender
	VerificationSender
	CodeVerifier
	NumberCreator
}

// VPNProvider 完整的 VPN 供应商
type VPNProvider interface {
	Provider
	VPNAccountCreator
	AccountStatusGetter
	AccountSuspender
	AccountReactivator
}

// IDGenerator 供应商响应里没有订单号时生成兜底ID
type IDGenerator interface {
	FallbackID(prefix string) (string, error)
}
