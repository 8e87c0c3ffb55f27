// Package events publishes mint lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RigelNana/baselibrary/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Type string

const (
	MaterialMinted    Type = "material.minted"
	ContentUpdated    Type = "material.content_updated"
	ReconciliationGap Type = "material.reconciliation_gap"
	Reconciled        Type = "material.reconciled"
	MintFailed        Type = "material.mint_failed"
)

type Event struct {
	Type        Type      `json:"type"`
	AttemptID   string    `json:"attempt_id"`
	MaterialID  string    `json:"material_id,omitempty"`
	Wallet      string    `json:"wallet_address"`
	ContentHash string    `json:"content_hash"`
	IPFSCid     string    `json:"ipfs_cid,omitempty"`
	TxHash      string    `json:"tx_hash,omitempty"`
	TokenID     string    `json:"token_id,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	Error       string    `json:"error,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e Event) key() []byte {
	if e.MaterialID != "" {
		return []byte(e.MaterialID)
	}
	return []byte(e.AttemptID)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logrus.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

// Publish writes e keyed by material id so events for one material keep
// their order within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   e.key(),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.KafkaMessagesTotal.WithLabelValues("mint-service", p.topic, status).Inc()
	if err != nil {
		return fmt.Errorf("failed to write message to %s topic: %w", p.topic, err)
	}
	if p.logger != nil {
		p.logger.Debugf("published %s for attempt %s", e.Type, e.AttemptID)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
