package comms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/httpx"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	"github.com/alibabacloud-go/tea/tea"
)

const (
	aliyunEndpoint      = "dysmsapi.aliyuncs.com"
	aliyunDefaultRegion = "cn-hangzhou"
	aliyunOK            = "OK"
)

// 阿里云短信只有模板短信，没有彩信和号码业务
var (
	_ provider.SMSSender          = (*Aliyun)(nil)
	_ provider.VerificationSender = (*Aliyun)(nil)
	_ provider.CodeVerifier       = (*Aliyun)(nil)
)

type aliyunAPI interface {
	SendSms(request *dysmsapi.SendSmsRequest) (*dysmsapi.SendSmsResponse, error)
	QuerySmsSign(request *dysmsapi.QuerySmsSignRequest) (*dysmsapi.QuerySmsSignResponse, error)
}

// Aliyun APIKey/APISecret 是 AccessKey，Extra 需要 signName 和 templateCode，
// 验证码模板 verifyTemplateCode 不配置时复用 templateCode
type Aliyun struct {
	*provider.Base
	opts     provider.Options
	dial     func(cfg provider.Config) (aliyunAPI, error)
	client   aliyunAPI
	executor *httpx.Executor
	codes    *codeStore
}

func NewAliyun(name string, tier domain.Tier, opts ...provider.Option) *Aliyun {
	return &Aliyun{
		Base:  provider.NewBase(name, domain.ServiceCommunication, tier),
		opts:  provider.ApplyOptions(opts...),
		dial:  dialAliyun,
		codes: newCodeStore(),
	}
}

func dialAliyun(cfg provider.Config) (aliyunAPI, error) {
	region := cfg.Extra["regionId"]
	if region == "" {
		region = aliyunDefaultRegion
	}
	endpoint := aliyunEndpoint
	if cfg.BaseURL != "" {
		endpoint = strings.TrimPrefix(strings.TrimPrefix(cfg.BaseURL, "https://"), "http://")
	}
	conf := &openapi.Config{
		AccessKeyId:     tea.String(cfg.APIKey),
		AccessKeySecret: tea.String(cfg.APISecret),
		RegionId:        tea.String(region),
		Endpoint:        tea.String(endpoint),
	}
	if cfg.Timeout > 0 {
		conf.ReadTimeout = tea.Int(int(cfg.Timeout.Milliseconds()))
		conf.ConnectTimeout = tea.Int(int(cfg.Timeout.Milliseconds()))
	}
	return dysmsapi.NewClient(conf)
}

func (p *Aliyun) Initialize(cfg provider.Config) error {
	if err := provider.RequireFields(p.Name(), map[string]string{
		"accessKeyId":     cfg.APIKey,
		"accessKeySecret": cfg.APISecret,
		"signName":        cfg.Extra["signName"],
		"templateCode":    cfg.Extra["templateCode"],
	}); err != nil {
		return err
	}
	client, err := p.dial(cfg)
	if err != nil {
		return fmt.Errorf("%w: %s 创建客户端失败 %w", errs.ErrConfiguration, p.Name(), err)
	}
	executor, err := provider.NewExecutor(p.Name(), cfg, nil)
	if err != nil {
		return err
	}
	p.client = client
	p.executor = executor
	return p.Init(cfg, p.probe)
}

// probe 查询签名状态，只读
func (p *Aliyun) probe(ctx context.Context) error {
	if p.client == nil {
		return errs.ErrProviderNotReady
	}
	resp, err := await(ctx, func() (*dysmsapi.QuerySmsSignResponse, error) {
		return p.client.QuerySmsSign(&dysmsapi.QuerySmsSignRequest{
			SignName: tea.String(p.Config().Extra["signName"]),
		})
	})
	if err != nil {
		return classifyAliyun(err)
	}
	if resp.Body == nil || tea.StringValue(resp.Body.Code) != aliyunOK {
		return fmt.Errorf("%w: 签名查询失败", errs.ErrClientRequest)
	}
	return nil
}

func (p *Aliyun) SendSMS(ctx context.Context, req domain.MessageRequest) (domain.MessageResult, error) {
	if req.To == "" {
		return domain.MessageResult{}, fmt.Errorf("%w: 收件人不能为空", errs.ErrInvalidParameter)
	}
	cfg := p.Config()
	return p.send(ctx, req.To, cfg.Extra["templateCode"], map[string]string{"content": req.Body}, req.ReferenceID)
}

func (p *Aliyun) SendVerificationCode(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	if req.To == "" {
		return domain.VerificationResult{}, fmt.Errorf("%w: 收件人不能为空", errs.ErrInvalidParameter)
	}
	code, err := p.codes.issue(req.To)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	cfg := p.Config()
	template := cfg.Extra["verifyTemplateCode"]
	if template == "" {
		template = cfg.Extra["templateCode"]
	}
	res, err := p.send(ctx, req.To, template, map[string]string{"code": code}, "")
	if err != nil || !res.Success {
		p.codes.forget(req.To)
		return domain.VerificationResult{Outcome: res.Outcome}, err
	}
	return domain.VerificationResult{
		Outcome:        res.Outcome,
		VerificationID: res.MessageID,
	}, nil
}

func (p *Aliyun) VerifyCode(_ context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	return domain.VerificationResult{
		Outcome: domain.Outcome{Success: true, Provider: p.Name()},
		Valid:   p.codes.verify(req.To, req.Code),
	}, nil
}

func (p *Aliyun) send(ctx context.Context, to, template string, params map[string]string, reference string) (domain.MessageResult, error) {
	if p.client == nil {
		return domain.MessageResult{}, fmt.Errorf("%w: %s", errs.ErrProviderNotReady, p.Name())
	}
	param, err := json.Marshal(params)
	if err != nil {
		return domain.MessageResult{}, fmt.Errorf("%w: %w", errs.ErrInvalidParameter, err)
	}
	request := &dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(to),
		SignName:      tea.String(p.Config().Extra["signName"]),
		TemplateCode:  tea.String(template),
		TemplateParam: tea.String(string(param)),
	}
	if reference != "" {
		request.OutId = tea.String(reference)
	}

	var resp *dysmsapi.SendSmsResponse
	err = p.executor.Invoke(ctx, "SendSms", func(ctx context.Context) error {
		var er error
		resp, er = await(ctx, func() (*dysmsapi.SendSmsResponse, error) {
			return p.client.SendSms(request)
		})
		return classifyAliyun(er)
	})
	if err != nil {
		return domain.MessageResult{}, err
	}
	if resp.Body == nil {
		return domain.MessageResult{}, fmt.Errorf("%w: 响应为空", errs.ErrTransientProvider)
	}
	if code := tea.StringValue(resp.Body.Code); code != aliyunOK {
		return domain.MessageResult{
			Outcome: domain.Outcome{
				Success:  false,
				Provider: p.Name(),
				Error:    code + ": " + tea.StringValue(resp.Body.Message),
			},
		}, nil
	}
	return domain.MessageResult{
		Outcome:   domain.Outcome{Success: true, Provider: p.Name()},
		MessageID: tea.StringValue(resp.Body.BizId),
		Status:    aliyunOK,
	}, nil
}

// classifyAliyun 把 SDK 错误归类，5xx 和网络错误可以重试
func classifyAliyun(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var sdkErr *tea.SDKError
	if errors.As(err, &sdkErr) && sdkErr.StatusCode != nil {
		if *sdkErr.StatusCode >= 500 {
			return fmt.Errorf("%w: %w", errs.ErrTransientProvider, err)
		}
		if *sdkErr.StatusCode >= 400 {
			return fmt.Errorf("%w: %w", errs.ErrClientRequest, err)
		}
	}
	return fmt.Errorf("%w: %w", errs.ErrTransientProvider, err)
}
