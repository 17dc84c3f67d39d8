package esim

import (
	"context"
	"fmt"
	"net/http"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/extract"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/httpx"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

const defaultESimAccessURL = "https://api.esimaccess.com"

var (
	_ provider.ESimProvider = (*ESimAccess)(nil)

	// 状态映射，key 为小写
	esimAccessStatuses = map[string]domain.OrderStatus{
		"create":           domain.OrderStatusPending,
		"paying":           domain.OrderStatusPending,
		"paid":             domain.OrderStatusPending,
		"getting_resource": domain.OrderStatusProcessing,
		"got_resource":     domain.OrderStatusActive,
		"in_use":           domain.OrderStatusActive,
		"used_up":          domain.OrderStatusExpired,
		"unused_expired":   domain.OrderStatusExpired,
		"used_expired":     domain.OrderStatusExpired,
		"cancel":           domain.OrderStatusCancelled,
		"revoked":          domain.OrderStatusCancelled,
		"failed":           domain.OrderStatusFailed,
	}

	esimAccessSuccess = extract.Rules{
		{Path: "success", Note: "所有接口的外层结构"},
	}
	esimAccessMessage = extract.Rules{
		{Path: "errorMsg", Note: "业务失败时的描述"},
		{Path: "errorCode", Note: "没有描述时只有错误码"},
	}
	esimAccessOrderID = extract.Rules{
		{Path: "obj.orderNo", Note: "下单接口文档字段"},
		{Path: "orderNo", Note: "部分环境不包 obj"},
		{Path: "obj.orderId"},
		{Path: "orderId"},
		{Path: "id"},
	}
	esimAccessICCID = extract.Rules{
		{Path: "obj.esimList.0.iccid"},
		{Path: "obj.iccid"},
	}
	esimAccessQRCode = extract.Rules{
		{Path: "obj.esimList.0.qrCodeUrl"},
		{Path: "obj.qrCodeUrl"},
		{Path: "qrCodeUrl"},
	}
	esimAccessActivation = extract.Rules{
		{Path: "obj.esimList.0.ac", Note: "LPA 激活码"},
		{Path: "obj.activationCode"},
	}
	esimAccessStatus = extract.Rules{
		{Path: "obj.esimList.0.esimStatus"},
		{Path: "obj.esimList.0.smdpStatus"},
		{Path: "obj.orderStatus"},
		{Path: "obj.status"},
	}
	esimAccessExpiry = extract.Rules{
		{Path: "obj.esimList.0.expiredTime"},
	}
)

// ESimAccess 使用签名头认证的 eSIM 供应商
type ESimAccess struct {
	*provider.Base
	opts     provider.Options
	executor *httpx.Executor
}

func NewESimAccess(name string, tier domain.Tier, opts ...provider.Option) *ESimAccess {
	return &ESimAccess{
		Base: provider.NewBase(name, domain.ServiceESim, tier),
		opts: provider.ApplyOptions(opts...),
	}
}

// Initialize APIKey 为 access code，APISecret 为签名密钥
func (p *ESimAccess) Initialize(cfg provider.Config) error {
	if err := provider.RequireFields(p.Name(), map[string]string{
		"accessCode": cfg.APIKey,
		"secretKey":  cfg.APISecret,
	}); err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultESimAccessURL
	}
	var execOpts []httpx.Option
	if p.opts.HTTPClient != nil {
		execOpts = append(execOpts, httpx.WithHTTPClient(p.opts.HTTPClient))
	}
	executor, err := provider.NewExecutor(p.Name(), cfg, httpx.NewHMACAuth(cfg.APIKey, cfg.APISecret), execOpts...)
	if err != nil {
		return err
	}
	p.executor = executor
	return p.Init(cfg, p.probe)
}

// probe 查询余额是最便宜的接口
func (p *ESimAccess) probe(ctx context.Context) error {
	body, err := p.call(ctx, "/api/v1/open/balance/query", map[string]any{}, true)
	if err != nil {
		return err
	}
	return p.envelopeErr(body)
}

func (p *ESimAccess) CreateOrder(ctx context.Context, req domain.ESimOrderRequest) (domain.ESimOrderResult, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	body, err := p.call(ctx, "/api/v1/open/esim/order", map[string]any{
		"transactionId": req.ReferenceID,
		"packageInfoList": []map[string]any{
			{"packageCode": req.PackageCode, "count": quantity},
		},
	}, false)
	if err != nil {
		return domain.ESimOrderResult{}, err
	}
	if err = p.envelopeErr(body); err != nil {
		return domain.ESimOrderResult{
			Outcome: domain.Outcome{Success: false, Provider: p.Name(), Error: err.Error()},
		}, nil
	}

	orderID, ok := esimAccessOrderID.String(body)
	if !ok {
		orderID = p.opts.FallbackID(p.Name(), req.ReferenceID)
		p.Logger().Warn("下单响应里没有订单号，使用兜底ID", elog.String("orderId", orderID))
	}
	res := domain.ESimOrderResult{
		Outcome:         domain.Outcome{Success: true, Provider: p.Name()},
		ProviderOrderID: orderID,
		Status:          domain.OrderStatusProcessing,
	}
	res.ICCID, _ = esimAccessICCID.String(body)
	res.QRCodeURL, _ = esimAccessQRCode.String(body)
	res.ActivationCode, _ = esimAccessActivation.String(body)
	if raw, ok := esimAccessStatus.String(body); ok {
		res.Status = p.normalize(raw)
	}
	return res, nil
}

func (p *ESimAccess) GetOrderStatus(ctx context.Context, providerOrderID string) (domain.OrderStatusResult, error) {
	body, err := p.call(ctx, "/api/v1/open/esim/query", map[string]any{
		"orderNo": providerOrderID,
		"pager":   map[string]int{"pageNum": 1, "pageSize": 1},
	}, false)
	if err != nil {
		return domain.OrderStatusResult{}, err
	}
	if err = p.envelopeErr(body); err != nil {
		return domain.OrderStatusResult{}, err
	}
	raw, _ := esimAccessStatus.String(body)
	res := domain.OrderStatusResult{
		ProviderOrderID: providerOrderID,
		Status:          p.normalize(raw),
		RawStatus:       raw,
	}
	res.ExpiresAt, _ = esimAccessExpiry.Time(body)
	return res, nil
}

func (p *ESimAccess) CancelOrder(ctx context.Context, providerOrderID string) error {
	body, err := p.call(ctx, "/api/v1/open/esim/cancel", map[string]any{
		"esimTranNo": providerOrderID,
	}, false)
	if err != nil {
		return err
	}
	return p.envelopeErr(body)
}

func (p *ESimAccess) ListCountries(ctx context.Context) ([]domain.Country, error) {
	body, err := p.call(ctx, "/api/v1/open/location/list", map[string]any{}, false)
	if err != nil {
		return nil, err
	}
	if err = p.envelopeErr(body); err != nil {
		return nil, err
	}
	items, _ := extract.Rules{{Path: "obj.locationList"}, {Path: "locationList"}}.Slice(body)
	countries := make([]domain.Country, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		code, ok := extract.Rules{{Path: "code"}, {Path: "locationCode"}}.String(m)
		if !ok {
			continue
		}
		name, _ := extract.Rules{{Path: "name"}, {Path: "locationName"}}.String(m)
		countries = append(countries, domain.Country{Code: code, Name: name})
	}
	return countries, nil
}

func (p *ESimAccess) CountryCoverage(ctx context.Context, countryCode string) (domain.CountryCoverage, error) {
	body, err := p.call(ctx, "/api/v1/open/package/list", map[string]any{
		"locationCode": countryCode,
	}, false)
	if err != nil {
		return domain.CountryCoverage{}, err
	}
	if err = p.envelopeErr(body); err != nil {
		return domain.CountryCoverage{}, err
	}
	packages, _ := extract.Rules{{Path: "obj.packageList"}, {Path: "packageList"}}.Slice(body)
	coverage := domain.CountryCoverage{CountryCode: countryCode, Supported: len(packages) > 0}
	seen := make(map[string]struct{})
	for _, pkg := range packages {
		m, ok := pkg.(map[string]any)
		if !ok {
			continue
		}
		operators, _ := extract.Rules{{Path: "locationNetworkList.0.operatorList"}}.Slice(m)
		for _, op := range operators {
			om, ok := op.(map[string]any)
			if !ok {
				continue
			}
			name, ok := extract.Rules{{Path: "operatorName"}}.String(om)
			if _, dup := seen[name]; !ok || dup {
				continue
			}
			seen[name] = struct{}{}
			coverage.Networks = append(coverage.Networks, name)
		}
	}
	return coverage, nil
}

func (p *ESimAccess) call(ctx context.Context, path string, in any, once bool) (map[string]any, error) {
	if p.executor == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrProviderNotReady, p.Name())
	}
	var raw extract.Body
	req := httpx.Request{Method: http.MethodPost, Path: path, Body: in}
	var err error
	if once {
		err = p.executor.DoOnce(ctx, req, &raw)
	} else {
		err = p.executor.Do(ctx, req, &raw)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// envelopeErr 外层 success=false 时返回错误
func (p *ESimAccess) envelopeErr(body map[string]any) error {
	if ok, found := esimAccessSuccess.Bool(body); !found || ok {
		return nil
	}
	msg, _ := esimAccessMessage.String(body)
	return fmt.Errorf("%w: %s", errs.ErrClientRequest, msg)
}

func (p *ESimAccess) normalize(raw string) domain.OrderStatus {
	status, known := domain.NormalizeOrderStatus(raw, esimAccessStatuses)
	if !known {
		p.Logger().Warn("未知的供应商订单状态，按 pending 处理", elog.String("status", raw))
	}
	return status
}
