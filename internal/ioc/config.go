package ioc

import (
	"time"

	"github.com/gotomicro/ego/core/econf"
)

// OrchestratorConfig 对应配置里的 orchestrator
type OrchestratorConfig struct {
	HealthInterval   time.Duration `yaml:"healthInterval"`
	// SnapshotTTL 健康快照在 Redis 里的过期时间，0 表示不过期
	SnapshotTTL      time.Duration `yaml:"snapshotTTL"`
	CoverageTTL      time.Duration `yaml:"coverageTTL"`
	// SharedCoverage 为 true 时覆盖信息缓存放在 Redis，多个副本共享
	SharedCoverage   bool          `yaml:"sharedCoverage"`
	ReviewStaleAfter time.Duration `yaml:"reviewStaleAfter"`
	MachineID        uint16        `yaml:"machineID"`
	// VerificationLimit 同一个号码在窗口内最多发送的验证码次数，Rate 为 0 表示不限制
	VerificationLimit struct {
		Interval time.Duration `yaml:"interval"`
		Rate     int           `yaml:"rate"`
	} `yaml:"verificationLimit"`
}

func InitOrchestratorConfig() OrchestratorConfig {
	var cfg OrchestratorConfig
	if err := econf.UnmarshalKey("orchestrator", &cfg); err != nil {
		panic(err)
	}
	if cfg.SnapshotTTL == 0 && cfg.HealthInterval > 0 {
		// 两个周期没有刷新就认为编排层不在线
		cfg.SnapshotTTL = 2 * cfg.HealthInterval
	}
	return cfg
}
