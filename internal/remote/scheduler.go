package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrSchedulerClosed = errors.New("scheduler closed")

// Scheduler accepts a command and runs it later. Submit returns once the
// command is accepted; the outcome is only observable through the callback.
type Scheduler interface {
	Submit(ctx context.Context, cmd *Command) error
}

// LocalScheduler runs every command on its own goroutine.
type LocalScheduler struct {
	exec   *Executor
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalScheduler(exec *Executor, logger *slog.Logger) *LocalScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalScheduler{exec: exec, logger: logger}
}

func (s *LocalScheduler) Submit(ctx context.Context, cmd *Command) error {
	const op = "remote.LocalScheduler.Submit"

	if err := s.exec.Validate(cmd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%s: %w", op, ErrSchedulerClosed)
	}

	// The chain outlives the request that issued it.
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.exec.Execute(ctx, cmd); err != nil {
			s.logger.Error("continuation failed", "command", cmd.ID, "error", err)
		}
	}()

	return nil
}

// Wait blocks until every submitted command has finished.
func (s *LocalScheduler) Wait() {
	s.wg.Wait()
}

// Close rejects new submissions and waits for the running ones.
func (s *LocalScheduler) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
