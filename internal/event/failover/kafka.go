package failover

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

var _ EventProducer = (*KafkaProducer)(nil)

type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// KafkaProducer 同步等待投递结果
type KafkaProducer struct {
	producer kafkaProducer
	topic    string
}

func NewKafkaProducer(producer *kafka.Producer, topic string) *KafkaProducer {
	return newKafkaProducer(producer, topic)
}

func newKafkaProducer(producer kafkaProducer, topic string) *KafkaProducer {
	if topic == "" {
		topic = FailoverTopic
	}
	return &KafkaProducer{producer: producer, topic: topic}
}

func (p *KafkaProducer) Produce(ctx context.Context, evt Event) error {
	val, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化topic的消息失败 %w", err)
	}
	deliveryChan := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.Service),
		Value:          val,
	}, deliveryChan)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("未知的投递事件 %v", e)
		}
		return msg.TopicPartition.Error
	}
}
