package rewarder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// RoundRunner runs one scanning round
type RoundRunner interface {
	RunRound(ctx context.Context, start uint64) (uint64, bool, error)
}

// RewardSender pays queued rewards and recovers unconfirmed ones
type RewardSender interface {
	FlushQueue(ctx context.Context) error
	ConfirmUnconfirmed(ctx context.Context) error
}

// EngineConfig holds the loop timing
type EngineConfig struct {
	DefaultStartBlock uint64
	PollInterval      time.Duration
	ErrorCooldown     time.Duration
}

// Engine runs scanning rounds and reward flushes until stopped
type Engine struct {
	rounds RoundRunner
	sender RewardSender
	store  ProgressStore
	cfg    EngineConfig
	logger *zap.Logger

	ready      atomic.Bool
	startBlock atomic.Uint64
	completed  atomic.Int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewEngine creates a rewarder engine
func NewEngine(rounds RoundRunner, sender RewardSender, store ProgressStore, cfg EngineConfig, logger *zap.Logger) *Engine {
	return &Engine{
		rounds: rounds,
		sender: sender,
		store:  store,
		cfg:    cfg,
		logger: logger.Named("engine"),
		stopCh: make(chan struct{}),
	}
}

// Start loads the progress marker and starts the loop in the background
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Starting rewarder engine")

	start, err := StartBlock(ctx, e.store, e.cfg.DefaultStartBlock)
	if err != nil {
		return fmt.Errorf("failed to load start block: %w", err)
	}
	e.startBlock.Store(start)
	e.logger.Info("Loaded start block", zap.Uint64("start_block", start))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx)
	}()
	return nil
}

// Stop stops the loop after the current iteration
func (e *Engine) Stop() {
	e.logger.Info("Stopping rewarder engine")
	close(e.stopCh)
	e.wg.Wait()
	e.logger.Info("Rewarder engine stopped")
}

// IsReady reports whether startup recovery and the first flush completed
func (e *Engine) IsReady() bool {
	return e.ready.Load()
}

// StartBlock returns the first block of the next round
func (e *Engine) StartBlock() uint64 {
	return e.startBlock.Load()
}

// RoundsCompleted returns the number of rounds that advanced the progress marker
func (e *Engine) RoundsCompleted() int64 {
	return e.completed.Load()
}

func (e *Engine) run(ctx context.Context) {
	for {
		wait := e.cfg.PollInterval
		if err := e.iterate(ctx); err != nil {
			e.logger.Error("Error running rewarder, sleeping before retrying",
				zap.Duration("cooldown", e.cfg.ErrorCooldown),
				zap.Error(err))
			wait = e.cfg.ErrorCooldown
		} else {
			e.logger.Debug("Round complete, sleeping", zap.Duration("poll_interval", wait))
		}

		if !e.sleep(ctx, wait) {
			return
		}
	}
}

// iterate runs startup recovery until it succeeds once, then one round and one flush
func (e *Engine) iterate(ctx context.Context) error {
	if !e.ready.Load() {
		if err := e.recoverPending(ctx); err != nil {
			return err
		}
		e.ready.Store(true)
		e.logger.Info("Rewarder engine ready")
	}

	next, advanced, err := e.rounds.RunRound(ctx, e.startBlock.Load())
	if err != nil {
		return fmt.Errorf("round failed: %w", err)
	}
	if advanced {
		e.startBlock.Store(next)
		e.completed.Inc()
	}

	if err := e.sender.FlushQueue(ctx); err != nil {
		return fmt.Errorf("failed to send queued rewards: %w", err)
	}
	return nil
}

func (e *Engine) recoverPending(ctx context.Context) error {
	if err := e.sender.ConfirmUnconfirmed(ctx); err != nil {
		return fmt.Errorf("failed to confirm previously sent rewards: %w", err)
	}
	if err := e.sender.FlushQueue(ctx); err != nil {
		return fmt.Errorf("failed to send queued rewards: %w", err)
	}
	return nil
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-e.stopCh:
		return false
	case <-timer.C:
		return true
	}
}
