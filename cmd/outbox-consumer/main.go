package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/infra"
	"github.com/campuspoints/platform/internal/projection"
)

// Consumes the ledger event topics published by the outbox poller and
// folds them into per-user balance projections. Downstream reporting
// reads the projections instead of the primary database.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the consumer")
	}

	topics := []string{
		"campuspoints.ledger.transaction_posted",
		"campuspoints.ledger.redemption_processed",
		"campuspoints.ledger.suspicious_toggled",
		"campuspoints.user.user_created",
	}
	if s := os.Getenv("CONSUMER_TOPICS"); s != "" {
		topics = strings.Split(s, ",")
	}
	groupID := "campuspoints-ledger-consumer"
	if s := os.Getenv("CONSUMER_GROUP_ID"); s != "" {
		groupID = s
	}

	store := projection.NewInMemoryStore()

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, groupID, true, logger)
		wg.Add(1)
		go func(topic string, c *infra.KafkaConsumer) {
			defer wg.Done()
			defer c.Close()
			consume(ctx, c, topic, store, logger)
		}(topic, consumer)
	}

	logger.Info("outbox consumer started", "topics", topics, "group_id", groupID)
	wg.Wait()
	logger.Info("outbox consumer stopped")
	return nil
}

type eventEnvelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
}

func consume(ctx context.Context, c *infra.KafkaConsumer, topic string, store projection.Store, logger *slog.Logger) {
	for {
		msg, err := c.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("read message", "topic", topic, "error", err)
			continue
		}

		var envelope eventEnvelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			logger.Error("decode event", "topic", topic, "error", err)
			continue
		}

		if err := fold(ctx, store, envelope); err != nil {
			logger.Error("fold event", "topic", topic, "event_id", envelope.EventID, "error", err)
			continue
		}

		logger.Info("ledger event",
			"topic", topic,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
			"aggregate_id", envelope.AggregateID,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
	}
}

// fold applies one event to the balance projections. Rules mirror the
// ledger identity: suspicious rows contribute nothing and a redemption
// only counts once processed.
func fold(ctx context.Context, store projection.Store, envelope eventEnvelope) error {
	switch envelope.EventType {
	case string(domain.EventTransactionPosted):
		var tx domain.Transaction
		if err := json.Unmarshal(envelope.Payload, &tx); err != nil {
			// Stale projection is worse than a missing one.
			_ = projection.InvalidateBalance(ctx, store, envelope.AggregateID)
			return fmt.Errorf("decode transaction: %w", err)
		}
		if tx.Suspicious || (tx.Type == domain.TxRedemption && tx.ProcessedBy == nil) {
			return nil
		}
		_, err := projection.ApplyAmount(ctx, store, tx.UserID.String(), tx.Amount)
		return err

	case string(domain.EventRedemptionProcessed):
		var tx domain.Transaction
		if err := json.Unmarshal(envelope.Payload, &tx); err != nil {
			_ = projection.InvalidateBalance(ctx, store, envelope.AggregateID)
			return fmt.Errorf("decode transaction: %w", err)
		}
		_, err := projection.ApplyAmount(ctx, store, tx.UserID.String(), tx.Amount)
		return err

	case string(domain.EventSuspiciousToggled):
		var toggle struct {
			UserID       string `json:"user_id"`
			BalanceDelta int64  `json:"balance_delta"`
		}
		if err := json.Unmarshal(envelope.Payload, &toggle); err != nil {
			_ = projection.InvalidateBalance(ctx, store, envelope.AggregateID)
			return fmt.Errorf("decode toggle: %w", err)
		}
		_, err := projection.ApplyAmount(ctx, store, toggle.UserID, toggle.BalanceDelta)
		return err

	case string(domain.EventUserCreated):
		_, err := projection.ApplyAmount(ctx, store, envelope.AggregateID, 0)
		return err
	}

	return nil
}
