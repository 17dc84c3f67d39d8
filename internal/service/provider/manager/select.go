package manager

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

// Selection 一次选择的结果，不会被保存
type Selection struct {
	Primary provider.Provider
	// Backup 只有一个候选时为 nil
	Backup provider.Provider
	// Reason 诊断用的说明文字
	Reason string
}

// SelectProvider 按服务类型和可用状态过滤，再按 tier 升序排序。
// 地区、成本、性能这些条件目前只体现在 Reason 里，不影响排序
func (m *Manager) SelectProvider(criteria domain.SelectionCriteria) (Selection, error) {
	m.mu.RLock()
	candidates := make([]entry, 0, len(m.providers))
	for _, e := range m.providers {
		if e.provider.Type() == criteria.Service && e.provider.IsAvailable() {
			candidates = append(candidates, e)
		}
	}
	m.mu.RUnlock()

	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("%w: %s", errs.ErrNoProviderAvailable, criteria.Service)
	}
	// tier 相同时先注册的优先
	slices.SortFunc(candidates, func(a, b entry) int {
		if c := cmp.Compare(a.provider.Tier(), b.provider.Tier()); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	sel := Selection{Primary: candidates[0].provider}
	if len(candidates) > 1 && (criteria.RequireBackup || sel.Primary.Tier() == domain.TierPrimary) {
		sel.Backup = candidates[1].provider
		for _, e := range candidates[1:] {
			if e.provider.Tier() == domain.TierBackup {
				sel.Backup = e.provider
				break
			}
		}
	}
	sel.Reason = reason(sel, criteria)
	m.logger.Debug("选择供应商",
		elog.String("service", string(criteria.Service)),
		elog.String("reason", sel.Reason))
	return sel, nil
}

func reason(sel Selection, criteria domain.SelectionCriteria) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "selected %s (%s, tier %d) for %s",
		sel.Primary.Name(), sel.Primary.Tier().Role(), sel.Primary.Tier(), criteria.Service)
	if sel.Backup != nil {
		fmt.Fprintf(&sb, ", backup %s (%s)", sel.Backup.Name(), sel.Backup.Tier().Role())
	}
	if hints := criteria.Hints(); len(hints) > 0 {
		fmt.Fprintf(&sb, "; criteria: %s", strings.Join(hints, ", "))
	}
	return sb.String()
}
