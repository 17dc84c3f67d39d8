package failover

import (
	"context"
	"time"
)

const FailoverTopic = "provider_failover_events"

// Outcome 备用供应商的执行结果
const (
	OutcomeRecovered  = "recovered"
	OutcomeBothFailed = "both_failed"
)

// Event 主供应商失败、切换到备用供应商的一次记录，用于对账和告警
type Event struct {
	Service      string    `json:"service"`
	Operation    string    `json:"operation"`
	Primary      string    `json:"primary"`
	Backup       string    `json:"backup"`
	Outcome      string    `json:"outcome"`
	PrimaryError string    `json:"primaryError"`
	BackupError  string    `json:"backupError,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

//go:generate mockgen -source=./event.go -package=evtmocks -destination=../mocks/failover_event_producer.mock.go EventProducer
type EventProducer interface {
	Produce(ctx context.Context, evt Event) error
}
