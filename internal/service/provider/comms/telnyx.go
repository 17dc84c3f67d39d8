package comms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/extract"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/httpx"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

const defaultTelnyxURL = "https://api.telnyx.com"

var (
	_ provider.CommsProvider = (*Telnyx)(nil)

	telnyxMessageID = extract.Rules{
		{Path: "data.id", Note: "消息ID"},
		{Path: "id"},
	}
	telnyxMessageStatus = extract.Rules{
		{Path: "data.to.0.status", Note: "每个收件人单独的投递状态"},
		{Path: "data.status"},
	}
	telnyxVerificationID = extract.Rules{
		{Path: "data.id"},
	}
	telnyxVerifyCode = extract.Rules{
		{Path: "data.response_code", Note: "accepted / rejected"},
	}
	telnyxNumber = extract.Rules{
		{Path: "data.0.phone_number", Note: "可用号码搜索结果"},
	}
	telnyxNumberOrderID = extract.Rules{
		{Path: "data.id"},
	}
	telnyxError = extract.Rules{
		{Path: "errors.0.detail"},
		{Path: "errors.0.title"},
	}
)

// Telnyx 短信、彩信、验证码和号码。
// Extra 里的 messagingProfileId / verifyProfileId / from 对应控制台里的配置
type Telnyx struct {
	*provider.Base
	opts     provider.Options
	executor *httpx.Executor
}

func NewTelnyx(name string, tier domain.Tier, opts ...provider.Option) *Telnyx {
	return &Telnyx{
		Base: provider.NewBase(name, domain.ServiceCommunication, tier),
		opts: provider.ApplyOptions(opts...),
	}
}

func (p *Telnyx) Initialize(cfg provider.Config) error {
	if err := provider.RequireFields(p.Name(), map[string]string{"apiKey": cfg.APIKey}); err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelnyxURL
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

func (p *Telnyx) probe(ctx context.Context) error {
	if p.executor == nil {
		return errs.ErrProviderNotReady
	}
	return p.executor.DoOnce(ctx, httpx.Request{Method: http.MethodGet, Path: "/v2/balance"}, nil)
}

func (p *Telnyx) SendSMS(ctx context.Context, req domain.MessageRequest) (domain.MessageResult, error) {
	return p.send(ctx, req, nil)
}

func (p *Telnyx) SendMMS(ctx context.Context, req domain.MessageRequest) (domain.MessageResult, error) {
	if len(req.MediaURLs) == 0 {
		return domain.MessageResult{}, fmt.Errorf("%w: 彩信至少需要一个媒体地址", errs.ErrInvalidParameter)
	}
	return p.send(ctx, req, req.MediaURLs)
}

func (p *Telnyx) send(ctx context.Context, req domain.MessageRequest, media []string) (domain.MessageResult, error) {
	if req.To == "" {
		return domain.MessageResult{}, fmt.Errorf("%w: 收件人不能为空", errs.ErrInvalidParameter)
	}
	cfg := p.Config()
	from := req.From
	if from == "" {
		from = cfg.Extra["from"]
	}
	in := map[string]any{
		"to":   req.To,
		"from": from,
		"text": req.Body,
	}
	if profile := cfg.Extra["messagingProfileId"]; profile != "" {
		in["messaging_profile_id"] = profile
	}
	if len(media) > 0 {
		in["media_urls"] = media
		in["type"] = "MMS"
	}
	body, err := p.do(ctx, httpx.Request{Method: http.MethodPost, Path: "/v2/messages", Body: in})
	if err != nil {
		return domain.MessageResult{}, err
	}
	res := domain.MessageResult{Outcome: domain.Outcome{Success: true, Provider: p.Name()}}
	res.MessageID, _ = telnyxMessageID.String(body)
	res.Status, _ = telnyxMessageStatus.String(body)
	if res.MessageID == "" {
		res.MessageID = p.opts.FallbackID(p.Name(), req.ReferenceID)
	}
	return res, nil
}

func (p *Telnyx) SendVerificationCode(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	channel := req.Channel
	if channel == "" {
		channel = "sms"
	}
	body, err := p.do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/verifications/" + url.PathEscape(channel),
		Body: map[string]any{
			"phone_number":      req.To,
			"verify_profile_id": p.Config().Extra["verifyProfileId"],
		},
	})
	if err != nil {
		return domain.VerificationResult{}, err
	}
	res := domain.VerificationResult{Outcome: domain.Outcome{Success: true, Provider: p.Name()}}
	res.VerificationID, _ = telnyxVerificationID.String(body)
	return res, nil
}

// VerifyCode 验证码错误是正常的业务结果，不是调用失败
func (p *Telnyx) VerifyCode(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	body, err := p.do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/v2/verifications/by_phone_number/" + url.PathEscape(req.To) + "/actions/verify",
		Body: map[string]any{
			"code":              req.Code,
			"verify_profile_id": p.Config().Extra["verifyProfileId"],
		},
	})
	if err != nil {
		return domain.VerificationResult{}, err
	}
	code, _ := telnyxVerifyCode.String(body)
	return domain.VerificationResult{
		Outcome: domain.Outcome{Success: true, Provider: p.Name()},
		Valid:   code == "accepted",
	}, nil
}

// CreatePhoneNumber 先搜索一个可用号码再下单
func (p *Telnyx) CreatePhoneNumber(ctx context.Context, req domain.PhoneNumberRequest) (domain.PhoneNumberResult, error) {
	query := url.Values{
		"filter[country_code]": []string{req.CountryCode},
		"filter[limit]":        []string{"1"},
	}
	if req.AreaCode != "" {
		query.Set("filter[national_destination_code]", req.AreaCode)
	}
	for _, feature := range req.Features {
		query.Add("filter[features][]", feature)
	}
	search, err := p.do(ctx, httpx.Request{Method: http.MethodGet, Path: "/v2/available_phone_numbers", Query: query})
	if err != nil {
		return domain.PhoneNumberResult{}, err
	}
	number, ok := telnyxNumber.String(search)
	if !ok {
		return domain.PhoneNumberResult{
			Outcome: domain.Outcome{Success: false, Provider: p.Name(), Error: "没有可用号码"},
		}, nil
	}

	in := map[string]any{"phone_numbers": []map[string]string{{"phone_number": number}}}
	if profile := p.Config().Extra["messagingProfileId"]; profile != "" {
		in["messaging_profile_id"] = profile
	}
	order, err := p.do(ctx, httpx.Request{Method: http.MethodPost, Path: "/v2/number_orders", Body: in})
	if err != nil {
		return domain.PhoneNumberResult{}, err
	}
	numberID, ok := telnyxNumberOrderID.String(order)
	if !ok {
		numberID = p.opts.FallbackID(p.Name(), number)
		p.Logger().Warn("号码订单响应里没有ID，使用兜底ID", elog.String("numberId", numberID))
	}
	return domain.PhoneNumberResult{
		Outcome:     domain.Outcome{Success: true, Provider: p.Name()},
		NumberID:    numberID,
		PhoneNumber: number,
	}, nil
}

func (p *Telnyx) do(ctx context.Context, req httpx.Request) (map[string]any, error) {
	if p.executor == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrProviderNotReady, p.Name())
	}
	var body extract.Body
	if err := p.executor.Do(ctx, req, &body); err != nil {
		return nil, err
	}
	if msg, ok := telnyxError.String(body); ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrClientRequest, msg)
	}
	return body, nil
}
