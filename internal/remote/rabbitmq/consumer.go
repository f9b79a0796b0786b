package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kirinyoku/tix-factory/internal/remote"
)

// Consumer executes queued commands. A delivery is acked once its chain and
// continuation ran. Undecodable messages and failed continuations are
// rejected without requeue: a chain is never run twice.
type Consumer struct {
	conn   *amqp.Connection
	cfg    Config
	exec   *remote.Executor
	logger *slog.Logger
}

func NewConsumer(conn *amqp.Connection, cfg Config, exec *remote.Executor, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{conn: conn, cfg: cfg.withDefaults(), exec: exec, logger: logger}
}

// Run consumes until ctx is done or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	const op = "rabbitmq.Consumer.Run"

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("%s: channel open: %w", op, err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		c.logger.Warn("set QoS failed", "error", err)
	}

	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: queue declare: %w", op, err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: consume: %w", op, err)
	}

	c.logger.Info("command consumer started", "queue", c.cfg.Queue, "prefetch", c.cfg.Prefetch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("%s: %w", op, errors.New("deliveries channel closed"))
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	env, err := Decode(d.Body)
	if err != nil {
		c.logger.Error("dropping undecodable command", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}

	// A chain started on a delivery finishes even if the consumer stops.
	if err := c.exec.Execute(context.WithoutCancel(ctx), env.Command); err != nil {
		c.logger.Error("continuation failed", "command", env.Command.ID, "error", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}
