// Package worker consumes job notifications from RabbitMQ and drives the
// claim, process, settle lifecycle against the job store. The queue message
// is only a hint that a job row exists; the row is the source of truth.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tenderbharat/docvector/internal/core"
	"github.com/tenderbharat/docvector/internal/models"
)

// TenderProcessor is what the consumer invokes once a job is claimed.
type TenderProcessor interface {
	ProcessTender(ctx context.Context, payload models.JobPayload) (models.TenderResult, error)
}

// disposition tells the delivery loop how to settle the broker message.
type disposition int

const (
	ack disposition = iota
	nackRequeue
)

// jobMessage is the broker payload: just a pointer at a job row.
type jobMessage struct {
	JobID string `json:"job_id"`
}

type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queueName   string
	store       core.JobStore
	processor   TenderProcessor
	maxAttempts int
	logger      *slog.Logger
}

func NewConsumer(
	conn *amqp.Connection,
	queueName string,
	store core.JobStore,
	processor TenderProcessor,
	maxAttempts int,
	logger *slog.Logger,
) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declaring queue %q: %w", queueName, err)
	}

	// One unacked message at a time: a job can take minutes, and holding a
	// single delivery keeps redeliveries flowing to idle workers.
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("setting prefetch: %w", err)
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queueName:   queueName,
		store:       store,
		processor:   processor,
		maxAttempts: maxAttempts,
		logger:      logger,
	}, nil
}

// Start consumes deliveries sequentially until ctx is cancelled or the
// channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("starting consume on %q: %w", c.queueName, err)
	}

	c.logger.Info("consuming jobs", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %q closed", c.queueName)
			}
			switch c.processMessage(ctx, d.Body) {
			case nackRequeue:
				if err := d.Nack(false, true); err != nil {
					c.logger.Error("nack failed", "error", err)
				}
			default:
				if err := d.Ack(false); err != nil {
					c.logger.Error("ack failed", "error", err)
				}
			}
		}
	}
}

// processMessage runs the full lifecycle for one delivery and decides its
// settlement. Malformed or already-settled work is acked so the broker
// never redelivers it; transient store failures are nacked for redelivery.
func (c *Consumer) processMessage(ctx context.Context, body []byte) disposition {
	var msg jobMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.JobID == "" {
		c.logger.Warn("dropping malformed job message", "body", string(body))
		return ack
	}

	logger := c.logger.With("job_id", msg.JobID)

	claim, err := c.store.ClaimJob(ctx, msg.JobID)
	if err != nil {
		logger.Error("claim failed, requeueing", "error", err)
		return nackRequeue
	}
	if claim == nil {
		// Missing, already running elsewhere, or already settled.
		logger.Info("job not claimable, dropping delivery")
		return ack
	}

	var payload models.JobPayload
	if err := json.Unmarshal(claim.Payload, &payload); err != nil || payload.TenderID == "" {
		if err == nil {
			err = fmt.Errorf("payload has no tender_id")
		}
		logger.Error("invalid job payload", "error", err)
		c.fail(ctx, msg.JobID, fmt.Sprintf("invalid payload: %v", err), logger)
		return ack
	}

	logger.Info("processing tender", "tender_id", payload.TenderID, "attempt", claim.Attempts)

	result, err := c.processor.ProcessTender(ctx, payload)
	if err != nil {
		return c.settleFailure(ctx, msg.JobID, claim.Attempts, err, logger)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		// Result is plain structs; this cannot realistically fail, but a
		// completed job must not be lost over its report.
		logger.Error("marshalling result", "error", err)
		resultJSON = []byte(`{}`)
	}

	if err := c.store.CompleteJob(ctx, msg.JobID, resultJSON); err != nil {
		// The row is still running; a plain requeue would find it
		// unclaimable and drop the delivery, stranding the job. Settle it
		// like any other failure so the row is claimable again first.
		logger.Error("completing job", "error", err)
		return c.settleFailure(ctx, msg.JobID, claim.Attempts, fmt.Errorf("storing result: %w", err), logger)
	}

	logger.Info("tender processed",
		"tender_id", payload.TenderID,
		"processed_docs", result.ProcessedDocs,
		"skipped_docs", result.SkippedDocs,
		"errors", len(result.Errors))
	return ack
}

// settleFailure decides between a retry and a terminal failure. The job row
// is reset to pending before the nack so the redelivered message finds a
// claimable job.
func (c *Consumer) settleFailure(ctx context.Context, jobID string, attempts int, procErr error, logger *slog.Logger) disposition {
	if attempts >= c.maxAttempts {
		logger.Error("job failed permanently", "attempts", attempts, "error", procErr)
		c.fail(ctx, jobID, procErr.Error(), logger)
		return ack
	}

	logger.Warn("job failed, will retry", "attempts", attempts, "error", procErr)
	if err := c.store.ResetJob(ctx, jobID); err != nil {
		logger.Error("resetting job for retry", "error", err)
	}
	return nackRequeue
}

func (c *Consumer) fail(ctx context.Context, jobID, msg string, logger *slog.Logger) {
	if err := c.store.FailJob(ctx, jobID, msg); err != nil {
		logger.Error("marking job failed", "error", err)
	}
}

func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}
	return nil
}
