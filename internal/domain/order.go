package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态，各供应商的状态字符串在适配层映射到这里
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusActive     OrderStatus = "active"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusExpired    OrderStatus = "expired"
)

func (s OrderStatus) String() string {
	return string(s)
}

// NormalizeOrderStatus 把供应商返回的状态映射为 OrderStatus。
// mapping 的 key 需要是小写。未知状态返回 pending，第二个返回值为 false，调用方自行记录日志。
func NormalizeOrderStatus(raw string, mapping map[string]OrderStatus) (OrderStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := mapping[key]; ok {
		return status, true
	}
	return OrderStatusPending, false
}

// Order 外部订单存储里的订单记录
type Order struct {
	ID              int64
	UserID          int64
	PlanID          string
	Service         ServiceType
	Status          OrderStatus
	Price           decimal.Decimal
	Provider        string
	ProviderOrderID string
	ArtifactURL     string
	Extra           map[string]any
	Ctime           time.Time
	Utime           time.Time
}

// OrderUpdate 供应商完成之后回写订单的内容，空字段不覆盖
type OrderUpdate struct {
	Status          OrderStatus
	ArtifactURL     string
	Provider        string
	ProviderOrderID string
}

// Outcome 所有供应商调用结果的公共部分
type Outcome struct {
	Success bool
	// Provider 实际完成请求的供应商，对账依赖这个字段
	Provider string
	Error    string
}

func (o *Outcome) Base() *Outcome {
	return o
}

func (o Outcome) Succeeded() bool {
	return o.Success
}

type ESimOrderRequest struct {
	PlanID       string
	PackageCode  string
	CountryCode  string
	DataAmount   string
	ValidityDays int
	Quantity     int
	Email        string
	ReferenceID  string
}

type ESimOrderResult struct {
	Outcome
	ProviderOrderID string
	ICCID           string
	QRCodeURL       string
	ActivationCode  string
	Status          OrderStatus
}

type OrderStatusResult struct {
	ProviderOrderID string
	Status          OrderStatus
	RawStatus       string
	ExpiresAt       time.Time
}

type Country struct {
	Code string
	Name string
}

type CountryCoverage struct {
	CountryCode string
	Supported   bool
	Networks    []string
}

type VPNAccountRequest struct {
	PlanID       string
	Username     string
	Email        string
	ValidityDays int
	Region       string
	ReferenceID  string
}

type VPNAccountResult struct {
	Outcome
	AccountID string
	Username  string
	Password  string
	ConfigURL string
	ExpiresAt time.Time
}

type VPNAccountStatus struct {
	AccountID string
	Status    OrderStatus
	RawStatus string
}

type MessageRequest struct {
	To          string
	From        string
	Body        string
	MediaURLs   []string
	ReferenceID string
}

type MessageResult struct {
	Outcome
	MessageID string
	Status    string
}

type VerificationRequest struct {
	To      string
	Channel string // sms 或 call，空值按 sms 处理
	Locale  string
	// Code 校验时填写
	Code string
	// Provider 校验时填写发送验证码的供应商，保证同一个供应商完成发送和校验
	Provider string
}

type VerificationResult struct {
	Outcome
	VerificationID string
	Valid          bool
}

type PhoneNumberRequest struct {
	CountryCode string
	AreaCode    string
	Features    []string
}

type PhoneNumberResult struct {
	Outcome
	NumberID    string
	PhoneNumber string
}
