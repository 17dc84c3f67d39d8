package esim

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/extract"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/httpx"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

const defaultAiraloURL = "https://partners-api.airalo.com"

// Airalo 只支持下单、查询和国家列表，不支持取消和覆盖查询
var (
	_ provider.Provider          = (*Airalo)(nil)
	_ provider.OrderCreator      = (*Airalo)(nil)
	_ provider.OrderStatusGetter = (*Airalo)(nil)
	_ provider.CountryLister     = (*Airalo)(nil)

	airaloStatuses = map[string]domain.OrderStatus{
		"pending":    domain.OrderStatusPending,
		"processing": domain.OrderStatusProcessing,
		"completed":  domain.OrderStatusActive,
		"active":     domain.OrderStatusActive,
		"finished":   domain.OrderStatusExpired,
		"expired":    domain.OrderStatusExpired,
		"refunded":   domain.OrderStatusCancelled,
		"cancelled":  domain.OrderStatusCancelled,
		"failed":     domain.OrderStatusFailed,
	}

	airaloOrderID = extract.Rules{
		{Path: "data.id", Note: "v2 下单响应"},
		{Path: "data.code", Note: "部分响应只有订单编码"},
		{Path: "id"},
	}
	airaloICCID = extract.Rules{
		{Path: "data.sims.0.iccid"},
	}
	airaloQRCode = extract.Rules{
		{Path: "data.sims.0.qrcode_url"},
		{Path: "data.qrcode_url"},
	}
	airaloActivation = extract.Rules{
		{Path: "data.sims.0.lpa", Note: "LPA 地址和匹配码分开返回"},
		{Path: "data.sims.0.qrcode"},
	}
	airaloStatus = extract.Rules{
		{Path: "data.status.slug"},
		{Path: "data.status"},
	}
	airaloExpiry = extract.Rules{
		{Path: "data.expired_at"},
	}
	airaloMessage = extract.Rules{
		{Path: "meta.message"},
		{Path: "message"},
	}
)

type Airalo struct {
	*provider.Base
	opts     provider.Options
	executor *httpx.Executor
}

func NewAiralo(name string, tier domain.Tier, opts ...provider.Option) *Airalo {
	return &Airalo{
		Base: provider.NewBase(name, domain.ServiceESim, tier),
		opts: provider.ApplyOptions(opts...),
	}
}

// Initialize APIKey 是换好的 access token
func (p *Airalo) Initialize(cfg provider.Config) error {
	if err := provider.RequireFields(p.Name(), map[string]string{"apiKey": cfg.APIKey}); err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAiraloURL
	}
	var execOpts []httpx.Option
	if p.opts.HTTPClient != nil {
		execOpts = append(execOpts, httpx.WithHTTPClient(p.opts.HTTPClient))
	}
	executor, err := provider.NewExecutor(p.Name(), cfg, httpx.BearerAuth{Token: cfg.APIKey}, execOpts...)
	if err != nil {
		return err
	}
	p.executor = executor
	return p.Init(cfg, p.probe)
}

func (p *Airalo) probe(ctx context.Context) error {
	if p.executor == nil {
		return errs.ErrProviderNotReady
	}
	return p.executor.DoOnce(ctx, httpx.Request{
		Method: http.MethodGet,
		Path:   "/v2/packages",
		Query:  url.Values{"limit": []string{"1"}},
	}, nil)
}

func (p *Airalo) CreateOrder(ctx context.Context, req domain.ESimOrderRequest) (domain.ESimOrderResult, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	body, err := p.do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/orders",
		Body: map[string]any{
			"package_id":  req.PackageCode,
			"quantity":    strconv.Itoa(quantity),
			"type":        "sim",
			"description": req.ReferenceID,
		},
	})
	if err != nil {
		return domain.ESimOrderResult{}, err
	}

	orderID, ok := airaloOrderID.String(body)
	if !ok {
		orderID = p.opts.FallbackID(p.Name(), req.ReferenceID)
		p.Logger().Warn("下单响应里没有订单号，使用兜底ID", elog.String("orderId", orderID))
	}
	res := domain.ESimOrderResult{
		Outcome:         domain.Outcome{Success: true, Provider: p.Name()},
		ProviderOrderID: orderID,
		Status:          domain.OrderStatusActive,
	}
	res.ICCID, _ = airaloICCID.String(body)
	res.QRCodeURL, _ = airaloQRCode.String(body)
	res.ActivationCode, _ = airaloActivation.String(body)
	if raw, ok := airaloStatus.String(body); ok {
		res.Status = p.normalize(raw)
	}
	return res, nil
}

func (p *Airalo) GetOrderStatus(ctx context.Context, providerOrderID string) (domain.OrderStatusResult, error) {
	body, err := p.do(ctx, httpx.Request{
		Method: http.MethodGet,
		Path:   "/v2/orders/" + url.PathEscape(providerOrderID),
	})
	if err != nil {
		return domain.OrderStatusResult{}, err
	}
	raw, _ := airaloStatus.String(body)
	res := domain.OrderStatusResult{
		ProviderOrderID: providerOrderID,
		Status:          p.normalize(raw),
		RawStatus:       raw,
	}
	res.ExpiresAt, _ = airaloExpiry.Time(body)
	return res, nil
}

func (p *Airalo) ListCountries(ctx context.Context) ([]domain.Country, error) {
	body, err := p.do(ctx, httpx.Request{Method: http.MethodGet, Path: "/v2/countries"})
	if err != nil {
		return nil, err
	}
	items, _ := extract.Rules{{Path: "data"}}.Slice(body)
	countries := make([]domain.Country, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		code, ok := extract.Rules{{Path: "country_code"}, {Path: "code"}}.String(m)
		if !ok {
			continue
		}
		name, _ := extract.Rules{{Path: "title"}, {Path: "name"}}.String(m)
		countries = append(countries, domain.Country{Code: code, Name: name})
	}
	return countries, nil
}

func (p *Airalo) do(ctx context.Context, req httpx.Request) (map[string]any, error) {
	if p.executor == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrProviderNotReady, p.Name())
	}
	var body extract.Body
	if err := p.executor.Do(ctx, req, &body); err != nil {
		return nil, err
	}
	if msg, ok := airaloMessage.String(body); ok {
		if _, hasData := body["data"]; !hasData {
			return nil, fmt.Errorf("%w: %s", errs.ErrClientRequest, msg)
		}
	}
	return body, nil
}

func (p *Airalo) normalize(raw string) domain.OrderStatus {
	status, known := domain.NormalizeOrderStatus(raw, airaloStatuses)
	if !known {
		p.Logger().Warn("未知的供应商订单状态，按 pending 处理", elog.String("status", raw))
	}
	return status
}
