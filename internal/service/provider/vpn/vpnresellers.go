package vpn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/extract"
	"gitee.com/flycash/connectivity-orchestrator/internal/pkg/httpx"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/gofrs/uuid"
	"github.com/gotomicro/ego/core/elog"
)

const defaultVPNResellersURL = "https://api.vpnresellers.com/v3_2"

var (
	_ provider.VPNProvider = (*VPNResellers)(nil)

	vpnResellersStatuses = map[string]domain.OrderStatus{
		"active":    domain.OrderStatusActive,
		"enabled":   domain.OrderStatusActive,
		"disabled":  domain.OrderStatusCancelled,
		"suspended": domain.OrderStatusCancelled,
		"expired":   domain.OrderStatusExpired,
		"pending":   domain.OrderStatusPending,
	}

	vpnAccountID = extract.Rules{
		{Path: "data.id", Note: "账号ID"},
		{Path: "id"},
	}
	vpnUsername = extract.Rules{
		{Path: "data.username"},
	}
	vpnStatus = extract.Rules{
		{Path: "data.status"},
	}
	vpnExpiry = extract.Rules{
		{Path: "data.expired_at"},
		{Path: "data.expire_at"},
	}
	vpnConfig = extract.Rules{
		{Path: "data.config_url", Note: "部分区域直接返回配置地址"},
		{Path: "data.file_body"},
	}
	vpnMessage = extract.Rules{
		{Path: "message"},
	}
)

// VPNResellers Extra 里的 configURL 是客户端配置下载页模板，%s 会被替换成账号ID
type VPNResellers struct {
	*provider.Base
	opts     provider.Options
	executor *httpx.Executor
	now      func() time.Time
}

func NewVPNResellers(name string, tier domain.Tier, opts ...provider.Option) *VPNResellers {
	return &VPNResellers{
		Base: provider.NewBase(name, domain.ServiceVPN, tier),
		opts: provider.ApplyOptions(opts...),
		now:  time.Now,
	}
}

func (p *VPNResellers) Initialize(cfg provider.Config) error {
	if err := provider.RequireFields(p.Name(), map[string]string{"apiKey": cfg.APIKey}); err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultVPNResellersURL
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

func (p *VPNResellers) probe(ctx context.Context) error {
	if p.executor == nil {
		return errs.ErrProviderNotReady
	}
	return p.executor.DoOnce(ctx, httpx.Request{Method: http.MethodGet, Path: "/servers"}, nil)
}

// CreateVPNAccount 建号之后按有效期设置过期时间，设置失败只记日志，账号已经可用
func (p *VPNResellers) CreateVPNAccount(ctx context.Context, req domain.VPNAccountRequest) (domain.VPNAccountResult, error) {
	username := req.Username
	if username == "" {
		username = p.opts.FallbackID("u", req.ReferenceID)
	}
	password, err := newPassword()
	if err != nil {
		return domain.VPNAccountResult{}, err
	}
	body, err := p.do(ctx, httpx.Request{
		Method: http.MethodPost,
		Path:   "/accounts",
		Body:   map[string]any{"username": username, "password": password},
	})
	if err != nil {
		return domain.VPNAccountResult{}, err
	}

	accountID, ok := vpnAccountID.String(body)
	if !ok {
		accountID = p.opts.FallbackID(p.Name(), req.ReferenceID)
		p.Logger().Warn("建号响应里没有账号ID，使用兜底ID", elog.String("accountId", accountID))
	}
	if got, ok := vpnUsername.String(body); ok {
		username = got
	}
	res := domain.VPNAccountResult{
		Outcome:   domain.Outcome{Success: true, Provider: p.Name()},
		AccountID: accountID,
		Username:  username,
		Password:  password,
	}
	if tpl := p.Config().Extra["configURL"]; tpl != "" {
		res.ConfigURL = strings.ReplaceAll(tpl, "%s", url.PathEscape(accountID))
	}

	if req.ValidityDays > 0 {
		expireAt := p.now().AddDate(0, 0, req.ValidityDays)
		_, err = p.do(ctx, httpx.Request{
			Method: http.MethodPut,
			Path:   "/accounts/" + url.PathEscape(accountID) + "/expire",
			Body:   map[string]any{"expire_at": expireAt.Format(time.DateOnly)},
		})
		if err != nil {
			p.Logger().Warn("设置账号过期时间失败", elog.String("accountId", accountID), elog.FieldErr(err))
		} else {
			res.ExpiresAt = expireAt
		}
	}
	return res, nil
}

func (p *VPNResellers) GetAccountStatus(ctx context.Context, accountID string) (domain.VPNAccountStatus, error) {
	body, err := p.do(ctx, httpx.Request{Method: http.MethodGet, Path: "/accounts/" + url.PathEscape(accountID)})
	if err != nil {
		return domain.VPNAccountStatus{}, err
	}
	raw, _ := vpnStatus.String(body)
	status, known := domain.NormalizeOrderStatus(raw, vpnResellersStatuses)
	if !known {
		p.Logger().Warn("未知的账号状态，按 pending 处理", elog.String("status", raw))
	}
	// 已经过了过期时间但状态还没刷新
	if expiry, ok := vpnExpiry.Time(body); ok && status == domain.OrderStatusActive && p.now().After(expiry) {
		status = domain.OrderStatusExpired
	}
	return domain.VPNAccountStatus{AccountID: accountID, Status: status, RawStatus: raw}, nil
}

func (p *VPNResellers) SuspendAccount(ctx context.Context, accountID string) error {
	_, err := p.do(ctx, httpx.Request{Method: http.MethodPut, Path: "/accounts/" + url.PathEscape(accountID) + "/disable"})
	return err
}

func (p *VPNResellers) ReactivateAccount(ctx context.Context, accountID string) error {
	_, err := p.do(ctx, httpx.Request{Method: http.MethodPut, Path: "/accounts/" + url.PathEscape(accountID) + "/enable"})
	return err
}

func (p *VPNResellers) do(ctx context.Context, req httpx.Request) (map[string]any, error) {
	if p.executor == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrProviderNotReady, p.Name())
	}
	var body extract.Body
	if err := p.executor.Do(ctx, req, &body); err != nil {
		return nil, err
	}
	if msg, ok := vpnMessage.String(body); ok {
		if _, hasData := body["data"]; !hasData {
			return nil, fmt.Errorf("%w: %s", errs.ErrClientRequest, msg)
		}
	}
	return body, nil
}

func newPassword() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", "")[:16], nil
}
