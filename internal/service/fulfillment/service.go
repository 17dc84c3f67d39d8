package fulfillment

import (
	"context"
	"fmt"
	"strconv"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/ratelimit"
	"github.com/gotomicro/ego/core/elog"
)

// ESimPurchase 购买 eSIM 时用户填写的信息
type ESimPurchase struct {
	Email    string
	Quantity int
}

// VPNPurchase 购买 VPN 时用户填写的信息
type VPNPurchase struct {
	Username string
	Email    string
}

// Service 把套餐转换成供应商请求，并把结果回写到订单。
// 供应商失败时订单保持 pending，由人工重试或者退款，不会直接标记为失败
type Service struct {
	store        OrderStore
	orchestrator Orchestrator
	// limiter 按接收方限制验证码发送频率，为 nil 时不限制
	limiter ratelimit.Limiter
	logger  *elog.Component
}

type Option func(s *Service)

func WithVerificationLimiter(l ratelimit.Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

func NewService(store OrderStore, orchestrator Orchestrator, opts ...Option) *Service {
	s := &Service{
		store:        store,
		orchestrator: orchestrator,
		logger:       elog.DefaultLogger.With(elog.String("component", "fulfillment")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) PurchaseESim(ctx context.Context, userID int64, plan domain.Plan, in ESimPurchase) (domain.Order, domain.ESimOrderResult, error) {
	if plan.Service != domain.ServiceESim {
		return domain.Order{}, domain.ESimOrderResult{}, fmt.Errorf("%w: 套餐 %s 不是 eSIM 套餐", errs.ErrInvalidParameter, plan.ID)
	}
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return fulfil(ctx, s, userID, plan, map[string]any{"email": in.Email, "quantity": quantity},
		func(ctx context.Context, order domain.Order) domain.ESimOrderResult {
			return s.orchestrator.CreateESimOrder(ctx, domain.ESimOrderRequest{
				PlanID:       plan.ID,
				PackageCode:  plan.PackageCode,
				CountryCode:  plan.CountryCode,
				DataAmount:   plan.DataAmount,
				ValidityDays: plan.ValidityDays(),
				Quantity:     quantity,
				Email:        in.Email,
				ReferenceID:  reference(order),
			})
		},
		func(res domain.ESimOrderResult) (string, string) {
			// 有二维码优先用二维码，没有就给激活码
			if res.QRCodeURL != "" {
				return res.QRCodeURL, res.ProviderOrderID
			}
			return res.ActivationCode, res.ProviderOrderID
		})
}

func (s *Service) PurchaseVPN(ctx context.Context, userID int64, plan domain.Plan, in VPNPurchase) (domain.Order, domain.VPNAccountResult, error) {
	if plan.Service != domain.ServiceVPN {
		return domain.Order{}, domain.VPNAccountResult{}, fmt.Errorf("%w: 套餐 %s 不是 VPN 套餐", errs.ErrInvalidParameter, plan.ID)
	}
	return fulfil(ctx, s, userID, plan, map[string]any{"email": in.Email, "username": in.Username},
		func(ctx context.Context, order domain.Order) domain.VPNAccountResult {
			return s.orchestrator.CreateVPNAccount(ctx, domain.VPNAccountRequest{
				PlanID:       plan.ID,
				Username:     in.Username,
				Email:        in.Email,
				ValidityDays: plan.ValidityDays(),
				Region:       plan.Region,
				ReferenceID:  reference(order),
			})
		},
		func(res domain.VPNAccountResult) (string, string) {
			return res.ConfigURL, res.AccountID
		})
}

func (s *Service) SendSMS(ctx context.Context, userID int64, plan domain.Plan, msg domain.MessageRequest) (domain.Order, domain.MessageResult, error) {
	if err := s.checkMessage(plan, msg); err != nil {
		return domain.Order{}, domain.MessageResult{}, err
	}
	return fulfil(ctx, s, userID, plan, map[string]any{"to": msg.To},
		func(ctx context.Context, order domain.Order) domain.MessageResult {
			msg.ReferenceID = reference(order)
			return s.orchestrator.SendSMS(ctx, msg)
		}, messageArtifact)
}

func (s *Service) SendMMS(ctx context.Context, userID int64, plan domain.Plan, msg domain.MessageRequest) (domain.Order, domain.MessageResult, error) {
	if err := s.checkMessage(plan, msg); err != nil {
		return domain.Order{}, domain.MessageResult{}, err
	}
	if len(msg.MediaURLs) == 0 {
		return domain.Order{}, domain.MessageResult{}, fmt.Errorf("%w: 彩信缺少媒体文件", errs.ErrInvalidParameter)
	}
	return fulfil(ctx, s, userID, plan, map[string]any{"to": msg.To, "media": len(msg.MediaURLs)},
		func(ctx context.Context, order domain.Order) domain.MessageResult {
			msg.ReferenceID = reference(order)
			return s.orchestrator.SendMMS(ctx, msg)
		}, messageArtifact)
}

// SendVerificationCode 返回结果里的 Provider 需要在 CheckVerificationCode 时带回
func (s *Service) SendVerificationCode(ctx context.Context, userID int64, plan domain.Plan, req domain.VerificationRequest) (domain.Order, domain.VerificationResult, error) {
	if plan.Service != domain.ServiceCommunication || req.To == "" {
		return domain.Order{}, domain.VerificationResult{}, fmt.Errorf("%w: 验证码请求不合法", errs.ErrInvalidParameter)
	}
	if s.verificationLimited(ctx, req.To) {
		return domain.Order{}, domain.VerificationResult{}, fmt.Errorf("%w: %s", errs.ErrRateLimited, req.To)
	}
	return fulfil(ctx, s, userID, plan, map[string]any{"to": req.To, "channel": req.Channel},
		func(ctx context.Context, _ domain.Order) domain.VerificationResult {
			return s.orchestrator.SendVerificationCode(ctx, req)
		},
		func(res domain.VerificationResult) (string, string) {
			return "", res.VerificationID
		})
}

// CheckVerificationCode 只是校验，不产生订单
func (s *Service) CheckVerificationCode(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	if req.To == "" || req.Code == "" {
		return domain.VerificationResult{}, fmt.Errorf("%w: 缺少手机号或验证码", errs.ErrInvalidParameter)
	}
	return s.orchestrator.VerifyCode(ctx, req), nil
}

// verificationLimited 限流器出错时放行
func (s *Service) verificationLimited(ctx context.Context, to string) bool {
	if s.limiter == nil {
		return false
	}
	limited, err := s.limiter.Limit(ctx, "verification:"+to)
	if err != nil {
		s.logger.Warn("验证码限流检查失败，放行", elog.String("to", to), elog.FieldErr(err))
		return false
	}
	return limited
}

func (s *Service) checkMessage(plan domain.Plan, msg domain.MessageRequest) error {
	if plan.Service != domain.ServiceCommunication {
		return fmt.Errorf("%w: 套餐 %s 不是通信套餐", errs.ErrInvalidParameter, plan.ID)
	}
	if msg.To == "" {
		return fmt.Errorf("%w: 缺少接收方", errs.ErrInvalidParameter)
	}
	return nil
}

func messageArtifact(res domain.MessageResult) (string, string) {
	return "", res.MessageID
}

func reference(order domain.Order) string {
	return strconv.FormatInt(order.ID, 10)
}

type result[R any] interface {
	*R
	Base() *domain.Outcome
}

// fulfil 先落一条 pending 订单，再调用供应商，成功后把订单改为 active。
// artifact 返回回写到订单上的凭证地址和供应商侧的单号。
// 返回 error 只表示订单存储出错，供应商失败体现在结果里
func fulfil[R any, P result[R]](
	ctx context.Context, s *Service, userID int64, plan domain.Plan, extra map[string]any,
	call func(ctx context.Context, order domain.Order) R,
	artifact func(res R) (string, string),
) (domain.Order, R, error) {
	var res R
	order, err := s.store.CreatePending(ctx, userID, plan, extra)
	if err != nil {
		return domain.Order{}, res, fmt.Errorf("创建订单失败: %w", err)
	}

	res = call(ctx, order)
	outcome := P(&res).Base()
	if !outcome.Succeeded() {
		s.logger.Warn("供应商处理失败，订单保持待处理",
			elog.Int64("orderID", order.ID),
			elog.String("plan", plan.ID),
			elog.String("provider", outcome.Provider),
			elog.String("error", outcome.Error))
		return order, res, nil
	}

	artifactURL, providerOrderID := artifact(res)
	updated, err := s.store.UpdateStatus(ctx, order.ID, domain.OrderUpdate{
		Status:          domain.OrderStatusActive,
		ArtifactURL:     artifactURL,
		Provider:        outcome.Provider,
		ProviderOrderID: providerOrderID,
	})
	if err != nil {
		// 供应商已经完成，订单需要人工补偿
		s.logger.Error("供应商已完成但更新订单失败",
			elog.Int64("orderID", order.ID),
			elog.String("provider", outcome.Provider),
			elog.String("providerOrderID", providerOrderID),
			elog.FieldErr(err))
		return order, res, fmt.Errorf("更新订单 %d 失败: %w", order.ID, err)
	}
	return updated, res, nil
}
