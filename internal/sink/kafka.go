package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"vitalwatch/internal/config"
	"vitalwatch/internal/logger"
	"vitalwatch/internal/metrics"
	"vitalwatch/internal/models"
)

// Kafka sink errors
var (
	ErrSinkClosed      = errors.New("kafka sink is closed")
	ErrSerializeFailed = errors.New("failed to serialize alert")
)

// Kafka publishes alerts to a Kafka topic, partitioned by patient id so
// one patient's alerts stay ordered. Writers are pooled and publishes
// are retried with exponential backoff.
type Kafka struct {
	cfg     config.KafkaConfig
	writers []*kafka.Writer
	pool    chan *kafka.Writer
	closed  atomic.Bool

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewKafka creates a Kafka sink from config.
func NewKafka(cfg config.KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 2
	}

	k := &Kafka{
		cfg:     cfg,
		writers: make([]*kafka.Writer, cfg.PoolSize),
		pool:    make(chan *kafka.Writer, cfg.PoolSize),
	}

	for i := 0; i < cfg.PoolSize; i++ {
		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{}, // Partition by patient id
			WriteTimeout: cfg.WriteTimeout,
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  1, // Retry handled here, with backoff
			Async:        false,
		}
		k.writers[i] = writer
		k.pool <- writer
	}

	return k, nil
}

func (k *Kafka) Name() string { return "kafka" }

// Publish sends one alert to the topic.
func (k *Kafka) Publish(ctx context.Context, alert models.Alert) error {
	if k.closed.Load() {
		return ErrSinkClosed
	}

	data, err := json.Marshal(alert)
	if err != nil {
		k.failed.Add(1)
		metrics.SinkPublishTotal.WithLabelValues(k.Name(), "failed").Inc()
		return fmt.Errorf("%w: %v", ErrSerializeFailed, err)
	}

	msg := kafka.Message{
		Key:   []byte(alert.PatientID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "patient_id", Value: []byte(alert.PatientID)},
			{Key: "rule", Value: []byte(alert.Rule)},
		},
		Time: time.Now(),
	}

	var writer *kafka.Writer
	select {
	case writer = <-k.pool:
		defer func() { k.pool <- writer }()
	case <-ctx.Done():
		k.failed.Add(1)
		return ctx.Err()
	}

	start := time.Now()
	err = k.publishWithRetry(ctx, writer, msg)
	metrics.SinkPublishDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		k.failed.Add(1)
		metrics.SinkPublishTotal.WithLabelValues(k.Name(), "failed").Inc()
		return err
	}

	k.published.Add(1)
	metrics.SinkPublishTotal.WithLabelValues(k.Name(), "success").Inc()
	return nil
}

// publishWithRetry publishes a message with exponential backoff retry.
func (k *Kafka) publishWithRetry(ctx context.Context, writer *kafka.Writer, msg kafka.Message) error {
	log := logger.WithComponent("kafka_sink")
	var lastErr error
	backoff := k.cfg.RetryBackoff

	for attempt := 0; attempt <= k.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying kafka publish")

			metrics.SinkPublishRetries.Inc()

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Msg("kafka publish attempt failed")

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	log.Error().
		Err(lastErr).
		Int("max_retries", k.cfg.MaxRetries+1).
		Msg("kafka publish failed after all retries")

	return fmt.Errorf("failed after %d attempts: %w", k.cfg.MaxRetries+1, lastErr)
}

// Close closes all writers in the pool.
func (k *Kafka) Close() error {
	if k.closed.Swap(true) {
		return nil // Already closed
	}

	var errs []error
	for _, writer := range k.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing writers: %v", errs)
	}
	return nil
}

// Stats returns sink statistics.
func (k *Kafka) Stats() Stats {
	return Stats{
		Published: k.published.Load(),
		Failed:    k.failed.Load(),
	}
}

// Stats holds sink delivery counters.
type Stats struct {
	Published uint64
	Failed    uint64
}

// HealthCheck verifies the sink can reach a writer.
func (k *Kafka) HealthCheck(ctx context.Context) error {
	if k.closed.Load() {
		return ErrSinkClosed
	}

	var writer *kafka.Writer
	select {
	case writer = <-k.pool:
		defer func() { k.pool <- writer }()
	case <-ctx.Done():
		return ctx.Err()
	}

	_ = writer.Stats()
	return nil
}
