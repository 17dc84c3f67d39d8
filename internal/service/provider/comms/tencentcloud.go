package comms

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/httpx"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	sdkerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	sms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

const (
	tencentDefaultRegion = "ap-guangzhou"
	tencentOK            = "Ok"
)

var (
	_ provider.SMSSender          = (*TencentCloud)(nil)
	_ provider.VerificationSender = (*TencentCloud)(nil)
	_ provider.CodeVerifier       = (*TencentCloud)(nil)
)

type tencentAPI interface {
	SendSmsWithContext(ctx context.Context, request *sms.SendSmsRequest) (*sms.SendSmsResponse, error)
	DescribeSmsSignListWithContext(ctx context.Context, request *sms.DescribeSmsSignListRequest) (*sms.DescribeSmsSignListResponse, error)
}

// TencentCloud APIKey/APISecret 是 SecretId/SecretKey。
// Extra: appId、signName、signId（探测用）、templateId、verifyTemplateId
type TencentCloud struct {
	*provider.Base
	opts     provider.Options
	dial     func(cfg provider.Config) (tencentAPI, error)
	client   tencentAPI
	executor *httpx.Executor
	codes    *codeStore
}

func NewTencentCloud(name string, tier domain.Tier, opts ...provider.Option) *TencentCloud {
	return &TencentCloud{
		Base:  provider.NewBase(name, domain.ServiceCommunication, tier),
		opts:  provider.ApplyOptions(opts...),
		dial:  dialTencent,
		codes: newCodeStore(),
	}
}

func dialTencent(cfg provider.Config) (tencentAPI, error) {
	region := cfg.Extra["region"]
	if region == "" {
		region = tencentDefaultRegion
	}
	cpf := profile.NewClientProfile()
	if cfg.BaseURL != "" {
		cpf.HttpProfile.Endpoint = strings.TrimPrefix(strings.TrimPrefix(cfg.BaseURL, "https://"), "http://")
	}
	if cfg.Timeout > 0 {
		cpf.HttpProfile.ReqTimeout = int(cfg.Timeout.Seconds())
	}
	return sms.NewClient(common.NewCredential(cfg.APIKey, cfg.APISecret), region, cpf)
}

func (p *TencentCloud) Initialize(cfg provider.Config) error {
	if err := provider.RequireFields(p.Name(), map[string]string{
		"secretId":   cfg.APIKey,
		"secretKey":  cfg.APISecret,
		"appId":      cfg.Extra["appId"],
		"signName":   cfg.Extra["signName"],
		"signId":     cfg.Extra["signId"],
		"templateId": cfg.Extra["templateId"],
	}); err != nil {
		return err
	}
	if _, err := strconv.ParseUint(cfg.Extra["signId"], 10, 64); err != nil {
		return fmt.Errorf("%w: %s signId 必须是数字", errs.ErrConfiguration, p.Name())
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

func (p *TencentCloud) probe(ctx context.Context) error {
	if p.client == nil {
		return errs.ErrProviderNotReady
	}
	signID, _ := strconv.ParseUint(p.Config().Extra["signId"], 10, 64)
	req := sms.NewDescribeSmsSignListRequest()
	req.SignIdSet = []*uint64{common.Uint64Ptr(signID)}
	req.International = common.Uint64Ptr(0)
	_, err := p.client.DescribeSmsSignListWithContext(ctx, req)
	return classifyTencent(err)
}

func (p *TencentCloud) SendSMS(ctx context.Context, req domain.MessageRequest) (domain.MessageResult, error) {
	if req.To == "" {
		return domain.MessageResult{}, fmt.Errorf("%w: 收件人不能为空", errs.ErrInvalidParameter)
	}
	return p.send(ctx, req.To, p.Config().Extra["templateId"], []string{req.Body}, req.ReferenceID)
}

func (p *TencentCloud) SendVerificationCode(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	if req.To == "" {
		return domain.VerificationResult{}, fmt.Errorf("%w: 收件人不能为空", errs.ErrInvalidParameter)
	}
	code, err := p.codes.issue(req.To)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	cfg := p.Config()
	template := cfg.Extra["verifyTemplateId"]
	if template == "" {
		template = cfg.Extra["templateId"]
	}
	res, err := p.send(ctx, req.To, template, []string{code}, "")
	if err != nil || !res.Success {
		p.codes.forget(req.To)
		return domain.VerificationResult{Outcome: res.Outcome}, err
	}
	return domain.VerificationResult{
		Outcome:        res.Outcome,
		VerificationID: res.MessageID,
	}, nil
}

func (p *TencentCloud) VerifyCode(_ context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	return domain.VerificationResult{
		Outcome: domain.Outcome{Success: true, Provider: p.Name()},
		Valid:   p.codes.verify(req.To, req.Code),
	}, nil
}

func (p *TencentCloud) send(ctx context.Context, to, template string, params []string, reference string) (domain.MessageResult, error) {
	if p.client == nil {
		return domain.MessageResult{}, fmt.Errorf("%w: %s", errs.ErrProviderNotReady, p.Name())
	}
	cfg := p.Config()
	request := sms.NewSendSmsRequest()
	request.SmsSdkAppId = common.StringPtr(cfg.Extra["appId"])
	request.SignName = common.StringPtr(cfg.Extra["signName"])
	request.TemplateId = common.StringPtr(template)
	request.TemplateParamSet = common.StringPtrs(params)
	request.PhoneNumberSet = common.StringPtrs([]string{to})
	if reference != "" {
		request.SessionContext = common.StringPtr(reference)
	}

	var resp *sms.SendSmsResponse
	err := p.executor.Invoke(ctx, "SendSms", func(ctx context.Context) error {
		var er error
		resp, er = p.client.SendSmsWithContext(ctx, request)
		return classifyTencent(er)
	})
	if err != nil {
		return domain.MessageResult{}, err
	}
	if resp.Response == nil || len(resp.Response.SendStatusSet) == 0 || resp.Response.SendStatusSet[0] == nil {
		return domain.MessageResult{}, fmt.Errorf("%w: 响应里没有发送状态", errs.ErrTransientProvider)
	}
	status := resp.Response.SendStatusSet[0]
	if code := stringValue(status.Code); code != tencentOK {
		return domain.MessageResult{
			Outcome: domain.Outcome{
				Success:  false,
				Provider: p.Name(),
				Error:    code + ": " + stringValue(status.Message),
			},
		}, nil
	}
	return domain.MessageResult{
		Outcome:   domain.Outcome{Success: true, Provider: p.Name()},
		MessageID: stringValue(status.SerialNo),
		Status:    tencentOK,
	}, nil
}

// classifyTencent 内部错误和网络错误可以重试，其他错误码都是请求本身的问题
func classifyTencent(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var sdkErr *sdkerrors.TencentCloudSDKError
	if errors.As(err, &sdkErr) {
		code := sdkErr.GetCode()
		if strings.HasPrefix(code, "InternalError") || code == "ClientError.NetworkError" {
			return fmt.Errorf("%w: %w", errs.ErrTransientProvider, err)
		}
		return fmt.Errorf("%w: %w", errs.ErrClientRequest, err)
	}
	return fmt.Errorf("%w: %w", errs.ErrTransientProvider, err)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
