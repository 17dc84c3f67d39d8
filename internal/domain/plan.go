package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	defaultValidityDays = 30
	// 超过一百年的有效期按无法识别处理
	maxValidityDays = 36500
)

var validityPattern = regexp.MustCompile(`^(\d+)\s*(day|days|week|weeks|month|months|year|years)$`)

// Plan 店铺里售卖的套餐
type Plan struct {
	ID          string
	Name        string
	Service     ServiceType
	PackageCode string // 供应商侧的套餐编码
	CountryCode string
	Region      string
	DataAmount  string // 例如 "5GB"
	Validity    string // 例如 "30 days", "1 Year"
	Price       decimal.Decimal
}

// ValidityDays 见 ParseValidityDays
func (p Plan) ValidityDays() int {
	return ParseValidityDays(p.Validity)
}

// ParseValidityDays 把 "30 days"、"1 Year" 这种描述转换为天数。
// 一个月按 30 天，一年按 365 天，无法识别或者没有单位的一律按 30 天。
func ParseValidityDays(validity string) int {
	m := validityPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(validity)))
	if m == nil {
		return defaultValidityDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultValidityDays
	}
	// 先按单位换算上限再乘，避免溢出
	var unit int
	switch strings.TrimSuffix(m[2], "s") {
	case "day":
		unit = 1
	case "week":
		unit = 7
	case "month":
		unit = 30
	case "year":
		unit = 365
	default:
		return defaultValidityDays
	}
	if n > maxValidityDays/unit {
		return defaultValidityDays
	}
	return n * unit
}
