package health

import (
	"context"
	"encoding/json"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultSnapshotKey = "orchestrator:provider:health"

type snapshotEntry struct {
	Available  bool      `json:"available"`
	LatencyMs  int64     `json:"latencyMs"`
	ObservedAt time.Time `json:"observedAt"`
	Error      string    `json:"error,omitempty"`
}

// RedisPublisher 把快照写到一个 hash 里，field 是供应商名。
// 进程挂掉后 ttl 到期快照自动消失，看板据此判断编排层不在线
type RedisPublisher struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisPublisher(client redis.Cmdable, key string, ttl time.Duration) *RedisPublisher {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisPublisher{client: client, key: key, ttl: ttl}
}

func (p *RedisPublisher) Publish(ctx context.Context, snapshot map[string]domain.HealthRecord) error {
	if len(snapshot) == 0 {
		return nil
	}
	values := make([]any, 0, len(snapshot)*2)
	for name, rec := range snapshot {
		data, err := json.Marshal(snapshotEntry{
			Available:  rec.Available,
			LatencyMs:  rec.Latency.Milliseconds(),
			ObservedAt: rec.ObservedAt,
			Error:      rec.Error,
		})
		if err != nil {
			return err
		}
		values = append(values, name, string(data))
	}
	if err := p.client.HSet(ctx, p.key, values...).Err(); err != nil {
		return err
	}
	if p.ttl > 0 {
		return p.client.Expire(ctx, p.key, p.ttl).Err()
	}
	return nil
}
