package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	fulfilmocks "gitee.com/flycash/connectivity-orchestrator/internal/service/fulfillment/mocks"
)

func TestServiceSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ServiceTestSuite))
}

type ServiceTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	store        *fulfilmocks.MockOrderStore
	orchestrator *fulfilmocks.MockOrchestrator
	svc          *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = fulfilmocks.NewMockOrderStore(s.ctrl)
	s.orchestrator = fulfilmocks.NewMockOrchestrator(s.ctrl)
	s.svc = NewService(s.store, s.orchestrator)
}

func (s *ServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func esimPlan() domain.Plan {
	return domain.Plan{
		ID:          "jp-5gb",
		Service:     domain.ServiceESim,
		PackageCode: "JP-5GB-30D",
		CountryCode: "JP",
		DataAmount:  "5GB",
		Validity:    "1 Year",
		Price:       decimal.RequireFromString("19.90"),
	}
}

func (s *ServiceTestSuite) pending(userID int64, plan domain.Plan) {
	s.store.EXPECT().CreatePending(gomock.Any(), userID, plan, gomock.Any()).
		Return(domain.Order{ID: 1001, UserID: userID, PlanID: plan.ID, Status: domain.OrderStatusPending}, nil)
}

func (s *ServiceTestSuite) TestPurchaseESim_Success() {
	t := s.T()
	plan := esimPlan()
	s.pending(7, plan)
	s.orchestrator.EXPECT().CreateESimOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.ESimOrderRequest) domain.ESimOrderResult {
			assert.Equal(t, 365, req.ValidityDays)
			assert.Equal(t, 1, req.Quantity)
			assert.Equal(t, "JP-5GB-30D", req.PackageCode)
			assert.Equal(t, "1001", req.ReferenceID)
			return domain.ESimOrderResult{
				Outcome:         domain.Outcome{Success: true, Provider: "airalo"},
				ProviderOrderID: "X",
				QRCodeURL:       "https://qr/X.png",
			}
		})
	s.store.EXPECT().UpdateStatus(gomock.Any(), int64(1001), domain.OrderUpdate{
		Status:          domain.OrderStatusActive,
		ArtifactURL:     "https://qr/X.png",
		Provider:        "airalo",
		ProviderOrderID: "X",
	}).Return(domain.Order{ID: 1001, Status: domain.OrderStatusActive, ArtifactURL: "https://qr/X.png"}, nil)

	order, res, err := s.svc.PurchaseESim(t.Context(), 7, plan, ESimPurchase{Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusActive, order.Status)
	assert.Equal(t, "https://qr/X.png", order.ArtifactURL)
	assert.Equal(t, "airalo", res.Provider)
}

func (s *ServiceTestSuite) TestPurchaseESim_ActivationCodeFallback() {
	t := s.T()
	plan := esimPlan()
	s.pending(7, plan)
	s.orchestrator.EXPECT().CreateESimOrder(gomock.Any(), gomock.Any()).
		Return(domain.ESimOrderResult{
			Outcome:         domain.Outcome{Success: true, Provider: "esimaccess"},
			ProviderOrderID: "B-1",
			ActivationCode:  "LPA:1$smdp.io$ABC",
		})
	s.store.EXPECT().UpdateStatus(gomock.Any(), int64(1001), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64, update domain.OrderUpdate) (domain.Order, error) {
			assert.Equal(t, "LPA:1$smdp.io$ABC", update.ArtifactURL)
			return domain.Order{ID: id, Status: update.Status, ArtifactURL: update.ArtifactURL}, nil
		})

	order, _, err := s.svc.PurchaseESim(t.Context(), 7, plan, ESimPurchase{Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusActive, order.Status)
}

func (s *ServiceTestSuite) TestPurchaseESim_ProviderFailureKeepsPending() {
	t := s.T()
	plan := esimPlan()
	s.pending(7, plan)
	s.orchestrator.EXPECT().CreateESimOrder(gomock.Any(), gomock.Any()).
		Return(domain.ESimOrderResult{Outcome: domain.Outcome{Provider: "esimaccess", Error: "primary down"}})
	// 失败时不更新订单
	s.store.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	order, res, err := s.svc.PurchaseESim(t.Context(), 7, plan, ESimPurchase{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.False(t, res.Success)
	assert.Equal(t, "primary down", res.Error)
}

func (s *ServiceTestSuite) TestPurchaseESim_StoreErrors() {
	t := s.T()
	plan := esimPlan()

	s.store.EXPECT().CreatePending(gomock.Any(), int64(7), plan, gomock.Any()).
		Return(domain.Order{}, errors.New("db down"))
	_, _, err := s.svc.PurchaseESim(t.Context(), 7, plan, ESimPurchase{})
	require.Error(t, err)

	s.pending(8, plan)
	s.orchestrator.EXPECT().CreateESimOrder(gomock.Any(), gomock.Any()).
		Return(domain.ESimOrderResult{Outcome: domain.Outcome{Success: true, Provider: "airalo"}, ProviderOrderID: "X"})
	s.store.EXPECT().UpdateStatus(gomock.Any(), int64(1001), gomock.Any()).
		Return(domain.Order{}, errs.ErrOrderNotFound)
	order, res, err := s.svc.PurchaseESim(t.Context(), 8, plan, ESimPurchase{})
	require.ErrorIs(t, err, errs.ErrOrderNotFound)
	// 供应商已经成功，结果仍然返回给调用方
	assert.True(t, res.Success)
	assert.Equal(t, int64(1001), order.ID)
}

func (s *ServiceTestSuite) TestPurchaseESim_WrongPlan() {
	t := s.T()
	plan := esimPlan()
	plan.Service = domain.ServiceVPN
	_, _, err := s.svc.PurchaseESim(t.Context(), 7, plan, ESimPurchase{})
	require.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func (s *ServiceTestSuite) TestPurchaseVPN() {
	t := s.T()
	plan := domain.Plan{ID: "vpn-3m", Service: domain.ServiceVPN, Validity: "3 months", Region: "eu"}
	s.pending(9, plan)
	s.orchestrator.EXPECT().CreateVPNAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.VPNAccountRequest) domain.VPNAccountResult {
			assert.Equal(t, 90, req.ValidityDays)
			assert.Equal(t, "eu", req.Region)
			assert.Equal(t, "neo", req.Username)
			return domain.VPNAccountResult{
				Outcome:   domain.Outcome{Success: true, Provider: "vpnresellers"},
				AccountID: "42",
				ConfigURL: "https://vpn/config/42",
			}
		})
	s.store.EXPECT().UpdateStatus(gomock.Any(), int64(1001), domain.OrderUpdate{
		Status:          domain.OrderStatusActive,
		ArtifactURL:     "https://vpn/config/42",
		Provider:        "vpnresellers",
		ProviderOrderID: "42",
	}).Return(domain.Order{ID: 1001, Status: domain.OrderStatusActive}, nil)

	order, res, err := s.svc.PurchaseVPN(t.Context(), 9, plan, VPNPurchase{Username: "neo"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusActive, order.Status)
	assert.Equal(t, "42", res.AccountID)
}

func (s *ServiceTestSuite) TestSendMessages() {
	t := s.T()
	plan := domain.Plan{ID: "sms-100", Service: domain.ServiceCommunication}

	s.pending(3, plan)
	s.orchestrator.EXPECT().SendSMS(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.MessageRequest) domain.MessageResult {
			assert.Equal(t, "1001", req.ReferenceID)
			return domain.MessageResult{Outcome: domain.Outcome{Success: true, Provider: "telnyx"}, MessageID: "m-1"}
		})
	s.store.EXPECT().UpdateStatus(gomock.Any(), int64(1001), domain.OrderUpdate{
		Status: domain.OrderStatusActive, Provider: "telnyx", ProviderOrderID: "m-1",
	}).Return(domain.Order{ID: 1001, Status: domain.OrderStatusActive}, nil)
	_, res, err := s.svc.SendSMS(t.Context(), 3, plan, domain.MessageRequest{To: "+15550001111", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", res.MessageID)

	_, _, err = s.svc.SendSMS(t.Context(), 3, plan, domain.MessageRequest{})
	require.ErrorIs(t, err, errs.ErrInvalidParameter)
	_, _, err = s.svc.SendMMS(t.Context(), 3, plan, domain.MessageRequest{To: "+15550001111"})
	require.ErrorIs(t, err, errs.ErrInvalidParameter)

	s.pending(3, plan)
	s.orchestrator.EXPECT().SendMMS(gomock.Any(), gomock.Any()).
		Return(domain.MessageResult{Outcome: domain.Outcome{Provider: "telnyx", Error: "unsupported"}})
	order, res, err := s.svc.SendMMS(t.Context(), 3, plan, domain.MessageRequest{
		To: "+15550001111", MediaURLs: []string{"https://x/y.png"},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func (s *ServiceTestSuite) TestVerification() {
	t := s.T()
	plan := domain.Plan{ID: "otp", Service: domain.ServiceCommunication}

	s.pending(5, plan)
	s.orchestrator.EXPECT().SendVerificationCode(gomock.Any(), gomock.Any()).
		Return(domain.VerificationResult{Outcome: domain.Outcome{Success: true, Provider: "aliyun"}, VerificationID: "v-1"})
	s.store.EXPECT().UpdateStatus(gomock.Any(), int64(1001), gomock.Any()).
		Return(domain.Order{ID: 1001, Status: domain.OrderStatusActive}, nil)
	_, sent, err := s.svc.SendVerificationCode(t.Context(), 5, plan, domain.VerificationRequest{To: "+8613800000000"})
	require.NoError(t, err)
	require.Equal(t, "aliyun", sent.Provider)

	// 校验不产生订单
	s.orchestrator.EXPECT().VerifyCode(gomock.Any(), domain.VerificationRequest{
		To: "+8613800000000", Code: "123456", Provider: "aliyun",
	}).Return(domain.VerificationResult{Outcome: domain.Outcome{Success: true, Provider: "aliyun"}, Valid: true})
	res, err := s.svc.CheckVerificationCode(t.Context(), domain.VerificationRequest{
		To: "+8613800000000", Code: "123456", Provider: sent.Provider,
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	_, err = s.svc.CheckVerificationCode(t.Context(), domain.VerificationRequest{To: "+8613800000000"})
	require.ErrorIs(t, err, errs.ErrInvalidParameter)
}

type fakeLimiter struct {
	limited bool
	err     error
	keys    []string
}

func (f *fakeLimiter) Limit(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.limited, f.err
}

func (s *ServiceTestSuite) TestVerification_RateLimited() {
	t := s.T()
	plan := domain.Plan{ID: "otp", Service: domain.ServiceCommunication}
	req := domain.VerificationRequest{To: "+8613800000000"}

	limiter := &fakeLimiter{limited: true}
	svc := NewService(s.store, s.orchestrator, WithVerificationLimiter(limiter))
	// 被限流时不落订单也不调用供应商
	_, _, err := svc.SendVerificationCode(t.Context(), 5, plan, req)
	require.ErrorIs(t, err, errs.ErrRateLimited)
	assert.Equal(t, []string{"verification:+8613800000000"}, limiter.keys)

	// 限流器故障时放行
	limiter = &fakeLimiter{err: errors.New("redis down")}
	svc = NewService(s.store, s.orchestrator, WithVerificationLimiter(limiter))
	s.pending(5, plan)
	s.orchestrator.EXPECT().SendVerificationCode(gomock.Any(), req).
		Return(domain.VerificationResult{Outcome: domain.Outcome{Success: false, Provider: "telnyx", Error: "x"}})
	order, res, err := svc.SendVerificationCode(t.Context(), 5, plan, req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}
