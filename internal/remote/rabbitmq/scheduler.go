package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kirinyoku/tix-factory/internal/remote"
)

const DefaultQueue = "tixgo.commands"

type Config struct {
	URL      string
	Queue    string
	Prefetch int
}

func (c Config) withDefaults() Config {
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.Prefetch <= 0 {
		c.Prefetch = 16
	}
	return c
}

// Dial connects to the broker and declares the durable command queue.
func Dial(cfg Config) (*amqp.Connection, error) {
	const op = "rabbitmq.Dial"

	cfg = cfg.withDefaults()

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: channel open: %w", op, err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: queue declare: %w", op, err)
	}

	return conn, nil
}

// Publisher is the part of *amqp.Channel the scheduler needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Scheduler enqueues commands as persistent messages. Submit returns once the
// broker has the message; a Consumer runs it later.
type Scheduler struct {
	mu     sync.Mutex
	pub    Publisher
	queue  string
	exec   *remote.Executor
	clock  func() time.Time
	logger *slog.Logger
}

func NewScheduler(pub Publisher, queue string, exec *remote.Executor, logger *slog.Logger) *Scheduler {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{pub: pub, queue: queue, exec: exec, clock: time.Now, logger: logger}
}

func (s *Scheduler) Submit(ctx context.Context, cmd *remote.Command) error {
	const op = "rabbitmq.Scheduler.Submit"

	if err := s.exec.Validate(cmd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock().UTC()
	body, err := Encode(Envelope{EnqueuedAt: now.UnixMilli(), Command: cmd})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    cmd.ID.String(),
		Timestamp:    now,
		Body:         body,
	}

	// amqp channels are not safe for concurrent publishing.
	s.mu.Lock()
	err = s.pub.PublishWithContext(ctx, "", s.queue, false, false, msg)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Debug("command enqueued", "command", cmd.ID, "queue", s.queue, "bytes", len(body))
	return nil
}
