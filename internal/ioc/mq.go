package ioc

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/ecodeclub/mq-api/memory"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"

	"gitee.com/flycash/connectivity-orchestrator/internal/event/failover"
)

// InitFailoverProducer 配置了 mq.kafka 时投递到 Kafka，否则用内存 MQ，只在进程内可见
func InitFailoverProducer() failover.EventProducer {
	type KafkaConfig struct {
		BootstrapServers string `yaml:"bootstrapServers"`
		ClientID         string `yaml:"clientID"`
		Topic            string `yaml:"topic"`
		Partitions       int    `yaml:"partitions"`
	}
	type Config struct {
		Kafka KafkaConfig `yaml:"kafka"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("mq", &cfg); err != nil {
		panic(err)
	}
	if cfg.Kafka.BootstrapServers == "" {
		elog.Warn("没有配置 Kafka，故障转移事件只投递到内存 MQ")
		return initMemoryProducer()
	}

	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = failover.FailoverTopic
	}
	initKafkaTopic(cfg.Kafka.BootstrapServers, topic, max(cfg.Kafka.Partitions, 1))
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Kafka.BootstrapServers,
		"client.id":         cfg.Kafka.ClientID,
	})
	if err != nil {
		panic(fmt.Errorf("创建 Kafka 生产者失败: %w", err))
	}
	return failover.NewKafkaProducer(producer, topic)
}

func initMemoryProducer() failover.EventProducer {
	q := memory.NewMQ()
	if err := q.CreateTopic(context.Background(), failover.FailoverTopic, 1); err != nil {
		panic(err)
	}
	producer, err := q.Producer(failover.FailoverTopic)
	if err != nil {
		panic(err)
	}
	return failover.NewProducer(producer)
}

func initKafkaTopic(servers, topic string, partitions int) {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": servers})
	if err != nil {
		panic(fmt.Errorf("创建 Kafka 连接失败: %w", err))
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}})
	if err != nil {
		panic(fmt.Errorf("创建 topic 失败: %w", err))
	}
	for _, res := range results {
		if code := res.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			panic(fmt.Errorf("创建 topic %s 失败: %w", res.Topic, res.Error))
		}
	}
}
