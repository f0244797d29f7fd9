// Package rewarder drives deposit scanning rounds and the reward payout loop.
package rewarder

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-rewarder/internal/metrics"
	"github.com/chainsafe/bridge-rewarder/pkg/deposits"
	"github.com/chainsafe/bridge-rewarder/pkg/ethereum"
	"github.com/chainsafe/bridge-rewarder/pkg/rewards"
)

// ChainHead reports the destination chain height
type ChainHead interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// EventFetcher returns the raw bridge events of an inclusive block range
type EventFetcher interface {
	Fetch(ctx context.Context, bridge common.Address, fromBlock, toBlock uint64) ([]*ethereum.CrossTransferEvent, error)
}

// DepositNormalizer turns raw bridge events into deposits
type DepositNormalizer interface {
	Normalize(ctx context.Context, bridge deposits.Bridge, events []*ethereum.CrossTransferEvent) ([]deposits.Deposit, error)
}

// RewardQueue decides whether a deposit earns a reward
type RewardQueue interface {
	Enqueue(ctx context.Context, d *deposits.Deposit) (rewards.Outcome, error)
}

// ProgressStore persists the scanning progress marker
type ProgressStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetLastProcessedBlock(ctx context.Context) (uint64, bool, error)
	SetLastProcessedBlock(ctx context.Context, block uint64) error
}

// RoundResult summarizes one scanning round
type RoundResult struct {
	FromBlock uint64
	ToBlock   uint64
	Deposits  int
	Queued    int
	Skipped   map[rewards.SkipReason]int
}

// RoundDriver scans every configured bridge for one block range at a time
type RoundDriver struct {
	head          ChainHead
	fetcher       EventFetcher
	normalizer    DepositNormalizer
	queue         RewardQueue
	store         ProgressStore
	bridges       []deposits.Bridge
	confirmations uint64
	logger        *zap.Logger
}

// NewRoundDriver creates a round driver. Bridges are scanned in the given order.
func NewRoundDriver(
	head ChainHead,
	fetcher EventFetcher,
	normalizer DepositNormalizer,
	queue RewardQueue,
	store ProgressStore,
	bridges []deposits.Bridge,
	confirmations uint64,
	logger *zap.Logger,
) *RoundDriver {
	return &RoundDriver{
		head:          head,
		fetcher:       fetcher,
		normalizer:    normalizer,
		queue:         queue,
		store:         store,
		bridges:       bridges,
		confirmations: confirmations,
		logger:        logger.Named("round"),
	}
}

// RunRound processes [start, height-confirmations] and returns the next start block.
// advanced is false when there is nothing new to scan; start is returned unchanged then.
// Rewards and the progress marker are written in one transaction.
func (d *RoundDriver) RunRound(ctx context.Context, start uint64) (next uint64, advanced bool, err error) {
	started := time.Now()
	logger := d.logger.With(zap.String("round_id", uuid.NewString()))

	defer func() {
		result := "advanced"
		switch {
		case err != nil:
			result = "failed"
		case !advanced:
			result = "idle"
		}
		metrics.RoundsTotal.WithLabelValues(result).Inc()
		metrics.RoundDuration.Observe(time.Since(started).Seconds())
	}()

	height, err := d.head.BlockNumber(ctx)
	if err != nil {
		return start, false, err
	}
	if height < d.confirmations || height-d.confirmations < start {
		logger.Info("No confirmed blocks to process",
			zap.Uint64("start_block", start),
			zap.Uint64("chain_height", height),
			zap.Uint64("confirmations", d.confirmations))
		return start, false, nil
	}
	toBlock := height - d.confirmations
	logger.Info("Processing new deposits", zap.Uint64("from_block", start), zap.Uint64("to_block", toBlock))

	var found []deposits.Deposit
	for _, bridge := range d.bridges {
		events, err := d.fetcher.Fetch(ctx, bridge.Address, start, toBlock)
		if err != nil {
			return start, false, fmt.Errorf("failed to fetch deposits for %s: %w", bridge.Name, err)
		}
		bridgeDeposits, err := d.normalizer.Normalize(ctx, bridge, events)
		if err != nil {
			return start, false, fmt.Errorf("failed to normalize deposits for %s: %w", bridge.Name, err)
		}
		metrics.BlocksProcessed.WithLabelValues(bridge.Name).Add(float64(toBlock - start + 1))
		logger.Info("Found deposits",
			zap.String("bridge", bridge.Name),
			zap.Int("events", len(events)),
			zap.Int("deposits", len(bridgeDeposits)))
		found = append(found, bridgeDeposits...)
	}

	result := RoundResult{
		FromBlock: start,
		ToBlock:   toBlock,
		Deposits:  len(found),
	}
	err = d.store.RunInTx(ctx, func(ctx context.Context) error {
		result.Queued = 0
		result.Skipped = make(map[rewards.SkipReason]int)
		for i := range found {
			outcome, err := d.queue.Enqueue(ctx, &found[i])
			if err != nil {
				return fmt.Errorf("failed to queue reward for deposit %s: %w", found[i].Key(), err)
			}
			if outcome.Queued {
				result.Queued++
			} else {
				result.Skipped[outcome.Reason]++
			}
		}
		return d.store.SetLastProcessedBlock(ctx, toBlock)
	})
	if err != nil {
		return start, false, err
	}

	metrics.LastProcessedBlock.Set(float64(toBlock))
	logger.Info("Round complete",
		zap.Uint64("to_block", toBlock),
		zap.Int("deposits", result.Deposits),
		zap.Int("queued", result.Queued),
		zap.Any("skipped", result.Skipped))
	return toBlock + 1, true, nil
}

// StartBlock returns the block after the progress marker, or defaultStart when none was stored
func StartBlock(ctx context.Context, store ProgressStore, defaultStart uint64) (uint64, error) {
	last, ok, err := store.GetLastProcessedBlock(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return defaultStart, nil
	}
	return last + 1, nil
}
