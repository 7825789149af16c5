// Package mq Kafka 通知投递适配器
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/Darkatse/StatusHub/internal/domain/entity"
	"github.com/Darkatse/StatusHub/internal/ports/out"
)

// KafkaNotificationSender 把通知事件发布到 Kafka topic
type KafkaNotificationSender struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaNotificationSender 创建 Kafka 发送器
func NewKafkaNotificationSender(brokers []string, topic string) (*KafkaNotificationSender, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 10 * time.Second
	// 同一用户的事件发到同一分区，保序
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaNotificationSender{producer: producer, topic: topic}, nil
}

func (s *KafkaNotificationSender) Send(ctx context.Context, event *entity.NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event failed: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", event.UserID)),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_source"), Value: []byte(event.Source)},
			{Key: []byte("timestamp"), Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}

	_, _, err = s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish notification event failed: %w", err)
	}
	return nil
}

// Close 关闭底层生产者
func (s *KafkaNotificationSender) Close() error {
	return s.producer.Close()
}

var _ out.NotificationSender = (*KafkaNotificationSender)(nil)
