package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrGasBudget    = errors.New("gas budget exceeded")
	ErrEmptyCommand = errors.New("command has no stages")
)

// StageRunner applies a stage on behalf of cmd. results holds the outcome of
// the stages that ran before it.
type StageRunner interface {
	RunStage(ctx context.Context, cmd *Command, stage Stage, results []Result) (json.RawMessage, error)
}

type ExecutorConfig struct {
	StepTimeout time.Duration
	MaxGas      Gas
}

// Executor runs a command's stages in order and then delivers the results to
// its callback. A failed stage fails every stage after it without running them.
type Executor struct {
	runner StageRunner
	cfg    ExecutorConfig
	logger *slog.Logger
}

func NewExecutor(runner StageRunner, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 10 * time.Second
	}

	if cfg.MaxGas == 0 {
		cfg.MaxGas = 300 * TGas
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{runner: runner, cfg: cfg, logger: logger}
}

// Validate checks the static limits of a command before it is accepted.
func (e *Executor) Validate(cmd *Command) error {
	if len(cmd.Stages) == 0 {
		return ErrEmptyCommand
	}

	if g := cmd.Gas(); g > e.cfg.MaxGas {
		return fmt.Errorf("%w: %d > %d", ErrGasBudget, g, e.cfg.MaxGas)
	}

	return nil
}

// Run applies the stages and returns one result per stage.
func (e *Executor) Run(ctx context.Context, cmd *Command) []Result {
	results := make([]Result, 0, len(cmd.Stages))

	var failed error
	for i, st := range cmd.Stages {
		res := Result{Stage: i, Receiver: st.Receiver}

		if failed != nil {
			res.Error = fmt.Sprintf("not executed: stage %d failed", i-1)
			results = append(results, res)
			continue
		}

		v, err := e.runStage(ctx, cmd, st, results)
		if err != nil {
			failed = err
			res.Error = err.Error()
			e.logger.Warn("remote stage failed",
				"command", cmd.ID, "stage", i, "receiver", st.Receiver, "error", err)
		} else {
			res.Success = true
			res.Value = v
		}

		results = append(results, res)
	}

	return results
}

// Execute runs the command and then its callback. The returned error is the
// callback's: stage failures are data handed to the callback, not errors.
func (e *Executor) Execute(ctx context.Context, cmd *Command) error {
	var results []Result
	if err := e.Validate(cmd); err != nil {
		results = Failed(*cmd, err)
	} else {
		results = e.Run(ctx, cmd)
	}

	return e.Deliver(ctx, cmd, results)
}

// Deliver runs the callback of cmd with the given results.
func (e *Executor) Deliver(ctx context.Context, cmd *Command, results []Result) error {
	const op = "remote.Executor.Deliver"

	if cmd.Callback == nil {
		return nil
	}

	if _, err := e.runStage(ctx, cmd, *cmd.Callback, results); err != nil {
		return fmt.Errorf("%s: command %s: %w", op, cmd.ID, err)
	}

	return nil
}

func (e *Executor) runStage(ctx context.Context, cmd *Command, st Stage, results []Result) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StepTimeout)
	defer cancel()

	return e.runner.RunStage(ctx, cmd, st, results)
}
