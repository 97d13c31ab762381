package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces domain events to the broker. Events are keyed
// by pass token so per-pass ordering survives partitioning.
type KafkaPublisher struct {
	client *kgo.Client
}

func NewKafkaPublisher(brokers []string, clientID string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client}, nil
}

// EnsureTopics creates the event topics when they do not exist yet.
func (p *KafkaPublisher) EnsureTopics(ctx context.Context, replicas int16) error {
	admin := kadm.NewClient(p.client)
	_, err := admin.CreateTopics(ctx, 3, replicas, nil, TopicVisits, TopicPasses)
	if err != nil {
		return fmt.Errorf("ensure topics: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: encoded}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// PublishRaw produces an already-encoded payload, used by the outbox
// worker which stores payloads pre-marshalled.
func (p *KafkaPublisher) PublishRaw(ctx context.Context, topic, key string, payload []byte) error {
	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: payload}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() { p.client.Close() }
