package domain

import (
	"fmt"
	"strings"
	"time"
)

// ServiceType 供应商能提供的服务类别
type ServiceType string

const (
	ServiceESim          ServiceType = "esim"
	ServiceCommunication ServiceType = "communication"
	ServiceVPN           ServiceType = "vpn"
)

func (s ServiceType) Valid() bool {
	return s == ServiceESim || s == ServiceCommunication || s == ServiceVPN
}

// Tier 供应商等级，越小越优先
type Tier int

const (
	TierPrimary Tier = 1
	TierBackup  Tier = 2
)

func (t Tier) Role() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierBackup:
		return "backup"
	default:
		return fmt.Sprintf("tier-%d", int(t))
	}
}

// HealthRecord 单个供应商的健康快照，每次探测整体替换，不保留历史
type HealthRecord struct {
	Available  bool
	Latency    time.Duration // 0 表示没有测到
	ObservedAt time.Time
	Error      string
}

// SelectionCriteria 一次选择供应商的条件
// Region, PrioritizeCost 和 PrioritizePerformance 目前只体现在选择理由里
type SelectionCriteria struct {
	Service               ServiceType
	Region                string
	PrioritizeCost        bool
	PrioritizePerformance bool
	RequireBackup         bool
}

// Hints 返回影响了本次选择的可选条件，用于拼接选择理由
func (c SelectionCriteria) Hints() []string {
	var hints []string
	if c.Region != "" {
		hints = append(hints, "region="+strings.ToUpper(c.Region))
	}
	if c.PrioritizeCost {
		hints = append(hints, "cost-priority")
	}
	if c.PrioritizePerformance {
		hints = append(hints, "performance-priority")
	}
	if c.RequireBackup {
		hints = append(hints, "backup-required")
	}
	return hints
}
