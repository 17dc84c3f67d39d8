package failover

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ecodeclub/mq-api"
)

var _ EventProducer = (*Producer)(nil)

// Producer 基于 mq-api，默认配内存实现
type Producer struct {
	producer mq.Producer
}

func NewProducer(producer mq.Producer) *Producer {
	return &Producer{producer: producer}
}

func (p *Producer) Produce(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化故障转移事件失败: %w", err)
	}
	// 同一服务类型的事件落在同一个分区，保持顺序
	if _, err = p.producer.Produce(ctx, &mq.Message{
		Topic: FailoverTopic,
		Key:   []byte(evt.Service),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("投递故障转移事件失败: %w", err)
	}
	return nil
}
