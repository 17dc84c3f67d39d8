package fulfillment

import (
	"context"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
)

//go:generate mockgen -source=./types.go -package=fulfilmocks -destination=./mocks/fulfillment.mock.go OrderStore,Orchestrator

// OrderStore 店铺的订单存储
type OrderStore interface {
	// CreatePending 创建一条待处理的订单
	CreatePending(ctx context.Context, userID int64, plan domain.Plan, extra map[string]any) (domain.Order, error)
	// UpdateStatus 更新订单状态，返回更新后的订单
	UpdateStatus(ctx context.Context, orderID int64, update domain.OrderUpdate) (domain.Order, error)
}

// Orchestrator 带主备切换的供应商调用
type Orchestrator interface {
	CreateESimOrder(ctx context.Context, req domain.ESimOrderRequest) domain.ESimOrderResult
	CreateVPNAccount(ctx context.Context, req domain.VPNAccountRequest) domain.VPNAccountResult
	SendSMS(ctx context.Context, req domain.MessageRequest) domain.MessageResult
	SendMMS(ctx context.Context, req domain.MessageRequest) domain.MessageResult
	SendVerificationCode(ctx context.Context, req domain.VerificationRequest) domain.VerificationResult
	VerifyCode(ctx context.Context, req domain.VerificationRequest) domain.VerificationResult
}
