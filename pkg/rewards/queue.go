// Package rewards decides which deposits earn a reward and pays them out.
package rewards

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-rewarder/internal/metrics"
	"github.com/chainsafe/bridge-rewarder/pkg/db"
	"github.com/chainsafe/bridge-rewarder/pkg/deposits"
	"github.com/chainsafe/bridge-rewarder/pkg/retry"
)

// QueueConfig holds the reward policy
type QueueConfig struct {
	// Thresholds maps side token symbols to the minimum pre-fee deposit amount
	Thresholds             map[string]decimal.Decimal
	RewardRBTC             decimal.Decimal
	SkipContractRecipients bool
	Retry                  retry.Policy
}

// Queue evaluates deposits and records queued rewards
type Queue struct {
	store         Store
	chain         AccountReader
	thresholds    map[string]decimal.Decimal
	rewardWei     *big.Int
	skipContracts bool
	policy        retry.Policy
	logger        *zap.Logger
}

// NewQueue creates a reward queue
func NewQueue(store Store, chain AccountReader, cfg QueueConfig, logger *zap.Logger) *Queue {
	return &Queue{
		store:         store,
		chain:         chain,
		thresholds:    cfg.Thresholds,
		rewardWei:     ToWei(cfg.RewardRBTC),
		skipContracts: cfg.SkipContractRecipients,
		policy:        cfg.Retry,
		logger:        logger.Named("queue"),
	}
}

// ToWei converts an RBTC amount to wei, rounding down
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(18).Floor().BigInt()
}

// RewardWei returns the amount every queued reward pays
func (q *Queue) RewardWei() *big.Int {
	return new(big.Int).Set(q.rewardWei)
}

// Enqueue records a queued reward for the deposit if the user is eligible.
// It must run inside the transaction that advances the progress marker.
func (q *Queue) Enqueue(ctx context.Context, d *deposits.Deposit) (Outcome, error) {
	outcome, err := q.evaluate(ctx, d)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("queue", "enqueue").Inc()
		return Outcome{}, err
	}
	metrics.RewardOutcomes.WithLabelValues(outcome.Label()).Inc()
	return outcome, nil
}

func (q *Queue) evaluate(ctx context.Context, d *deposits.Deposit) (Outcome, error) {
	logger := q.logger.With(
		zap.String("user", d.UserAddress),
		zap.String("token", d.SideTokenSymbol),
		zap.String("amount", d.AmountDecimal.String()),
		zap.String("deposit_tx", d.TransactionHash),
		zap.Uint("log_index", d.LogIndex))

	threshold, ok := q.thresholds[d.SideTokenSymbol]
	if !ok {
		logger.Warn("Threshold not found for deposit, cannot process")
		return skipped(SkipNoThreshold), nil
	}
	if d.AmountDecimal.LessThan(threshold) {
		logger.Info("Threshold not met, not rewarding", zap.String("threshold", threshold.String()))
		return skipped(SkipBelowThreshold), nil
	}

	rewarded, err := q.store.UserHasReward(ctx, d.UserAddress)
	if err != nil {
		return Outcome{}, err
	}
	if rewarded {
		logger.Info("User has already been rewarded")
		return skipped(SkipAlreadyRewarded), nil
	}

	user := common.HexToAddress(d.UserAddress)

	if q.skipContracts {
		isContract, err := retry.Value(ctx, logger, "get recipient code", q.policy,
			func(ctx context.Context) (bool, error) {
				return q.chain.IsContract(ctx, user)
			})
		if err != nil {
			return Outcome{}, err
		}
		if isContract {
			logger.Info("Recipient is a contract, not rewarding")
			return skipped(SkipRecipientIsContract), nil
		}
	}

	balance, err := retry.Value(ctx, logger, "get user balance", q.policy,
		func(ctx context.Context) (*big.Int, error) {
			return q.chain.BalanceAt(ctx, user)
		})
	if err != nil {
		return Outcome{}, err
	}
	txCount, err := retry.Value(ctx, logger, "get user transaction count", q.policy,
		func(ctx context.Context) (uint64, error) {
			return q.chain.NonceAt(ctx, user)
		})
	if err != nil {
		return Outcome{}, err
	}
	if balance.Sign() != 0 || txCount != 0 {
		logger.Info("User already has balance or transactions, not rewarding",
			zap.String("balance_wei", balance.String()),
			zap.Uint64("transaction_count", txCount))
		return skipped(SkipUserBootstrapped), nil
	}

	reward := &db.Reward{
		Status:                    db.RewardStatusQueued,
		UserAddress:               d.UserAddress,
		RewardWei:                 q.RewardWei(),
		DepositSideTokenAddress:   d.SideTokenAddress,
		DepositSideTokenSymbol:    d.SideTokenSymbol,
		DepositMainTokenAddress:   d.MainTokenAddress,
		DepositAmountMinusFeesWei: d.AmountMinusFeesWei,
		DepositAmountDecimal:      d.AmountDecimal,
		DepositBlockNumber:        d.BlockNumber,
		DepositBlockHash:          d.BlockHash,
		DepositTransactionHash:    d.TransactionHash,
		DepositLogIndex:           d.LogIndex,
		DepositContractAddress:    d.ContractAddress,
	}
	if err := q.store.CreateReward(ctx, reward); err != nil {
		return Outcome{}, fmt.Errorf("failed to queue reward for %s: %w", d.UserAddress, err)
	}

	logger.Info("Reward queued",
		zap.Int64("reward_id", reward.ID),
		zap.String("reward_wei", reward.RewardWei.String()))
	metrics.RewardTransitions.WithLabelValues(string(db.RewardStatusQueued)).Inc()
	return queued(reward), nil
}
