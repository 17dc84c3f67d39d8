package manager

import (
	"context"
	"strings"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

// CreateESimOrder 带主备切换的 eSIM 下单，结果里的 Provider 是实际完成下单的供应商
func (m *Manager) CreateESimOrder(ctx context.Context, req domain.ESimOrderRequest) domain.ESimOrderResult {
	return execute(ctx, m, domain.ServiceESim, provider.OpCreateOrder,
		func(ctx context.Context, c provider.OrderCreator) (domain.ESimOrderResult, error) {
			return c.CreateOrder(ctx, req)
		})
}

func (m *Manager) CreateVPNAccount(ctx context.Context, req domain.VPNAccountRequest) domain.VPNAccountResult {
	return execute(ctx, m, domain.ServiceVPN, provider.OpCreateVPNAccount,
		func(ctx context.Context, c provider.VPNAccountCreator) (domain.VPNAccountResult, error) {
			return c.CreateVPNAccount(ctx, req)
		})
}

func (m *Manager) SendSMS(ctx context.Context, req domain.MessageRequest) domain.MessageResult {
	return execute(ctx, m, domain.ServiceCommunication, provider.OpSendSMS,
		func(ctx context.Context, c provider.SMSSender) (domain.MessageResult, error) {
			return c.SendSMS(ctx, req)
		})
}

func (m *Manager) SendMMS(ctx context.Context, req domain.MessageRequest) domain.MessageResult {
	return execute(ctx, m, domain.ServiceCommunication, provider.OpSendMMS,
		func(ctx context.Context, c provider.MMSSender) (domain.MessageResult, error) {
			return c.SendMMS(ctx, req)
		})
}

// SendVerificationCode 结果里的 Provider 需要在校验时原样带回
func (m *Manager) SendVerificationCode(ctx context.Context, req domain.VerificationRequest) domain.VerificationResult {
	return execute(ctx, m, domain.ServiceCommunication, provider.OpSendVerificationCode,
		func(ctx context.Context, c provider.VerificationSender) (domain.VerificationResult, error) {
			return c.SendVerificationCode(ctx, req)
		})
}

// VerifyCode 请求里带了 Provider 时只在这个供应商上校验，验证码只有发送方认识，切换没有意义
func (m *Manager) VerifyCode(ctx context.Context, req domain.VerificationRequest) domain.VerificationResult {
	if req.Provider == "" {
		return execute(ctx, m, domain.ServiceCommunication, provider.OpVerifyCode,
			func(ctx context.Context, c provider.CodeVerifier) (domain.VerificationResult, error) {
				return c.VerifyCode(ctx, req)
			})
	}
	res, err := invoke(ctx, m, req.Provider, provider.OpVerifyCode,
		func(ctx context.Context, c provider.CodeVerifier) (domain.VerificationResult, error) {
			return c.VerifyCode(ctx, req)
		})
	if err != nil {
		return domain.VerificationResult{Outcome: domain.Outcome{Provider: req.Provider, Error: err.Error()}}
	}
	res.Provider = req.Provider
	return res
}

func (m *Manager) GetOrderStatus(ctx context.Context, providerName, providerOrderID string) (domain.OrderStatusResult, error) {
	return invoke(ctx, m, providerName, provider.OpGetOrderStatus,
		func(ctx context.Context, c provider.OrderStatusGetter) (domain.OrderStatusResult, error) {
			return c.GetOrderStatus(ctx, providerOrderID)
		})
}

func (m *Manager) CancelOrder(ctx context.Context, providerName, providerOrderID string) error {
	_, err := invoke(ctx, m, providerName, provider.OpCancelOrder,
		func(ctx context.Context, c provider.OrderCanceller) (struct{}, error) {
			return struct{}{}, c.CancelOrder(ctx, providerOrderID)
		})
	return err
}

func (m *Manager) GetAccountStatus(ctx context.Context, providerName, accountID string) (domain.VPNAccountStatus, error) {
	return invoke(ctx, m, providerName, provider.OpGetAccountStatus,
		func(ctx context.Context, c provider.AccountStatusGetter) (domain.VPNAccountStatus, error) {
			return c.GetAccountStatus(ctx, accountID)
		})
}

func (m *Manager) SuspendAccount(ctx context.Context, providerName, accountID string) error {
	_, err := invoke(ctx, m, providerName, provider.OpSuspendAccount,
		func(ctx context.Context, c provider.AccountSuspender) (struct{}, error) {
			return struct{}{}, c.SuspendAccount(ctx, accountID)
		})
	return err
}

func (m *Manager) ReactivateAccount(ctx context.Context, providerName, accountID string) error {
	_, err := invoke(ctx, m, providerName, provider.OpReactivateAccount,
		func(ctx context.Context, c provider.AccountReactivator) (struct{}, error) {
			return struct{}{}, c.ReactivateAccount(ctx, accountID)
		})
	return err
}

func (m *Manager) CreatePhoneNumber(ctx context.Context, providerName string, req domain.PhoneNumberRequest) (domain.PhoneNumberResult, error) {
	res, err := invoke(ctx, m, providerName, provider.OpCreatePhoneNumber,
		func(ctx context.Context, c provider.NumberCreator) (domain.PhoneNumberResult, error) {
			return c.CreatePhoneNumber(ctx, req)
		})
	if err == nil {
		res.Provider = providerName
	}
	return res, err
}

// ListCountries 国家列表变化很慢，配置了缓存时优先读缓存
func (m *Manager) ListCountries(ctx context.Context, providerName string) ([]domain.Country, error) {
	if m.coverage != nil {
		if countries, ok := m.coverage.Countries(providerName); ok {
			return countries, nil
		}
	}
	countries, err := invoke(ctx, m, providerName, provider.OpListCountries,
		func(ctx context.Context, c provider.CountryLister) ([]domain.Country, error) {
			return c.ListCountries(ctx)
		})
	if err != nil {
		return nil, err
	}
	if m.coverage != nil {
		m.coverage.SetCountries(providerName, countries)
	}
	return countries, nil
}

func (m *Manager) CountryCoverage(ctx context.Context, providerName, countryCode string) (domain.CountryCoverage, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if m.coverage != nil {
		if coverage, ok := m.coverage.Coverage(providerName, countryCode); ok {
			return coverage, nil
		}
	}
	coverage, err := invoke(ctx, m, providerName, provider.OpCountryCoverage,
		func(ctx context.Context, c provider.CoverageChecker) (domain.CountryCoverage, error) {
			return c.CountryCoverage(ctx, countryCode)
		})
	if err != nil {
		return domain.CountryCoverage{}, err
	}
	if m.coverage != nil {
		m.coverage.SetCoverage(providerName, coverage)
	} else {
		m.logger.Debug("没有配置覆盖信息缓存", elog.String("provider", providerName))
	}
	return coverage, nil
}
