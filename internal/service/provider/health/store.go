package health

import (
	"sync/atomic"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"github.com/ecodeclub/ekit/syncx"
)

// Store 每个已注册供应商一条健康记录。
// 写入方每次生成新的记录整体替换，读取方拿到的总是完整的快照，读路径不加锁
type Store struct {
	records syncx.Map[string, *atomic.Pointer[domain.HealthRecord]]
}

func NewStore() *Store {
	return &Store{}
}

// Register 新注册或者被同名供应商替换时，用供应商自己当前的健康记录初始化，
// 保证这里的记录和供应商的可用状态一致
func (s *Store) Register(name string, rec domain.HealthRecord) {
	ptr := &atomic.Pointer[domain.HealthRecord]{}
	ptr.Store(&rec)
	s.records.Store(name, ptr)
}

// Update 没有注册过的供应商直接忽略，返回 false
func (s *Store) Update(name string, rec domain.HealthRecord) bool {
	ptr, ok := s.records.Load(name)
	if !ok {
		return false
	}
	ptr.Store(&rec)
	return true
}

func (s *Store) Get(name string) (domain.HealthRecord, bool) {
	ptr, ok := s.records.Load(name)
	if !ok {
		return domain.HealthRecord{}, false
	}
	return *ptr.Load(), true
}

// Snapshot 所有记录的拷贝
func (s *Store) Snapshot() map[string]domain.HealthRecord {
	res := make(map[string]domain.HealthRecord)
	s.records.Range(func(name string, ptr *atomic.Pointer[domain.HealthRecord]) bool {
		res[name] = *ptr.Load()
		return true
	})
	return res
}
