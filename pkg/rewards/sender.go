package rewards

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-rewarder/internal/metrics"
	"github.com/chainsafe/bridge-rewarder/pkg/db"
	"github.com/chainsafe/bridge-rewarder/pkg/retry"
)

var (
	// ErrGasPriceTooHigh aborts a flush when the chain gas price exceeds the configured ceiling
	ErrGasPriceTooHigh = errors.New("gas price too high")
	// ErrReceiptTimeout is returned when a transaction receipt does not appear in time
	ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")
)

// costGasMultiplier reserves gas for two plain transfers on top of the reward value
const costGasMultiplier = 2

// SenderConfig holds the payout limits
type SenderConfig struct {
	MaxGasPrice *big.Int
	GasLimit    uint64
	// MaxPending caps submitted transactions awaiting confirmation
	MaxPending          int
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
	Retry               retry.Policy
}

// Sender drains queued rewards and confirms their transactions
type Sender struct {
	store  Store
	chain  Chain
	signer TransferSigner
	cfg    SenderConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSender creates a reward sender
func NewSender(store Store, chain Chain, signer TransferSigner, cfg SenderConfig, logger *zap.Logger) *Sender {
	if cfg.MaxPending < 1 {
		cfg.MaxPending = 1
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = time.Second
	}
	return &Sender{
		store:  store,
		chain:  chain,
		signer: signer,
		cfg:    cfg,
		logger: logger.Named("sender"),
		now:    time.Now,
	}
}

// WarnStuckSending logs rewards left in sending by an interrupted run. They are not resumed.
func (s *Sender) WarnStuckSending(ctx context.Context) ([]int64, error) {
	ids, err := s.store.ListRewardIDsByStatus(ctx, db.RewardStatusSending)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		s.logger.Warn("Rewards stuck in sending state need manual review",
			zap.Int64s("reward_ids", ids))
	}
	return ids, nil
}

// FlushQueue sends every queued reward in id order with sequential nonces.
// At most MaxPending transactions are left unconfirmed at any time.
func (s *Sender) FlushQueue(ctx context.Context) error {
	if _, err := s.WarnStuckSending(ctx); err != nil {
		return fmt.Errorf("failed to check rewards in sending state: %w", err)
	}

	ids, err := s.store.ListRewardIDsByStatus(ctx, db.RewardStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to list queued rewards: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Debug("No queued rewards")
		return nil
	}
	s.logger.Info("Sending queued rewards", zap.Int("count", len(ids)))

	gasPrice, err := retry.Value(ctx, s.logger, "get gas price", s.cfg.Retry, s.chain.SuggestGasPrice)
	if err != nil {
		return err
	}
	metrics.GasPrice.Set(float64(gasPrice.Uint64()))
	if gasPrice.Cmp(s.cfg.MaxGasPrice) > 0 {
		metrics.ErrorsTotal.WithLabelValues("sender", "gas_price_too_high").Inc()
		return fmt.Errorf("%w: %s wei exceeds %s wei", ErrGasPriceTooHigh, gasPrice, s.cfg.MaxGasPrice)
	}

	operator := s.signer.Address()
	nonce, err := retry.Value(ctx, s.logger, "get operator nonce", s.cfg.Retry,
		func(ctx context.Context) (uint64, error) {
			return s.chain.PendingNonceAt(ctx, operator)
		})
	if err != nil {
		return err
	}

	var pending []common.Hash
	inFlight := new(big.Int)

	for _, id := range ids {
		hash, cost, err := s.sendReward(ctx, id, nonce, gasPrice, inFlight)
		if err != nil {
			// already broadcast transactions still get their receipts recorded
			return errors.Join(err, s.confirmBatch(ctx, pending))
		}
		if cost == nil {
			continue
		}

		nonce++
		pending = append(pending, hash)
		inFlight.Add(inFlight, cost)

		if len(pending) >= s.cfg.MaxPending {
			if err := s.confirmBatch(ctx, pending); err != nil {
				return err
			}
			pending = pending[:0]
			inFlight.SetInt64(0)
		}
	}

	return s.confirmBatch(ctx, pending)
}

// sendReward pays one reward. A nil cost with a nil error means the reward was skipped.
func (s *Sender) sendReward(
	ctx context.Context,
	id int64,
	nonce uint64,
	gasPrice, inFlight *big.Int,
) (common.Hash, *big.Int, error) {
	logger := s.logger.With(zap.Int64("reward_id", id), zap.Uint64("nonce", nonce))

	var (
		reward *db.Reward
		tx     *types.Transaction
		cost   *big.Int
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.store.GetRewardForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != db.RewardStatusQueued {
			logger.Warn("Reward is no longer queued, skipping", zap.String("status", string(r.Status)))
			return nil
		}

		gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(costGasMultiplier*s.cfg.GasLimit))
		total := new(big.Int).Add(r.RewardWei, gasCost)

		balance, err := retry.Value(ctx, logger, "get operator balance", s.cfg.Retry,
			func(ctx context.Context) (*big.Int, error) {
				return s.chain.BalanceAt(ctx, s.signer.Address())
			})
		if err != nil {
			return err
		}
		metrics.OperatorBalance.Set(weiToFloat(balance))

		available := new(big.Int).Sub(balance, inFlight)
		if available.Cmp(total) < 0 {
			logger.Warn("Operator balance too low, leaving reward queued",
				zap.String("available_wei", available.String()),
				zap.String("required_wei", total.String()))
			return nil
		}

		signed, err := s.signer.SignTransfer(common.HexToAddress(r.UserAddress), r.RewardWei, nonce, gasPrice, s.cfg.GasLimit)
		if err != nil {
			return err
		}

		sentAt := s.now().UTC()
		n := nonce
		r.Status = db.RewardStatusSending
		r.RewardTransactionNonce = &n
		r.SentAt = &sentAt
		if err := s.store.UpdateReward(ctx, r); err != nil {
			return err
		}

		reward, tx, cost = r, signed, total
		return nil
	})
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("failed to prepare reward %d: %w", id, err)
	}
	if tx == nil {
		return common.Hash{}, nil, nil
	}
	metrics.RewardTransitions.WithLabelValues(string(db.RewardStatusSending)).Inc()

	logger.Info("Sending reward",
		zap.String("user", reward.UserAddress),
		zap.String("reward_wei", reward.RewardWei.String()),
		zap.String("tx_hash", tx.Hash().Hex()))

	sendErr := retry.Do(ctx, logger, "send reward transaction", s.cfg.Retry, func(ctx context.Context) error {
		err := s.chain.SendTransaction(ctx, tx)
		if err != nil && isAlreadyKnown(err) {
			// an earlier attempt reached the mempool
			return nil
		}
		return err
	})
	if sendErr != nil {
		reward.Status = db.RewardStatusErrorSending
		if err := s.store.UpdateReward(ctx, reward); err != nil {
			logger.Error("Failed to mark reward as error_sending", zap.Error(err))
		}
		metrics.RewardTransitions.WithLabelValues(string(db.RewardStatusErrorSending)).Inc()
		return common.Hash{}, nil, fmt.Errorf("failed to send reward %d: %w", id, sendErr)
	}

	reward.Status = db.RewardStatusSent
	reward.RewardTransactionHash = tx.Hash().Hex()
	if err := s.store.UpdateReward(ctx, reward); err != nil {
		return common.Hash{}, nil, fmt.Errorf("failed to mark reward %d as sent: %w", id, err)
	}
	metrics.RewardTransitions.WithLabelValues(string(db.RewardStatusSent)).Inc()

	return tx.Hash(), cost, nil
}

// ConfirmUnconfirmed waits for receipts of rewards left in sent by an interrupted run
func (s *Sender) ConfirmUnconfirmed(ctx context.Context) error {
	ids, err := s.store.ListRewardIDsByStatus(ctx, db.RewardStatusSent)
	if err != nil {
		return fmt.Errorf("failed to list sent rewards: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	s.logger.Info("Confirming previously sent rewards", zap.Int("count", len(ids)))

	hashes := make([]common.Hash, 0, len(ids))
	for _, id := range ids {
		r, err := s.store.GetReward(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load reward %d: %w", id, err)
		}
		if r.RewardTransactionHash == "" {
			s.logger.Warn("Sent reward has no transaction hash", zap.Int64("reward_id", id))
			continue
		}
		hashes = append(hashes, common.HexToHash(r.RewardTransactionHash))
	}

	for start := 0; start < len(hashes); start += s.cfg.MaxPending {
		end := min(start+s.cfg.MaxPending, len(hashes))
		if err := s.confirmBatch(ctx, hashes[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) confirmBatch(ctx context.Context, hashes []common.Hash) error {
	for _, hash := range hashes {
		receipt, err := s.waitForReceipt(ctx, hash)
		if err != nil {
			return err
		}
		if err := s.recordReceipt(ctx, hash, receipt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) recordReceipt(ctx context.Context, hash common.Hash, receipt *types.Receipt) error {
	logger := s.logger.With(zap.String("tx_hash", hash.Hex()))

	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.store.GetRewardByTxHash(ctx, hash.Hex())
		if errors.Is(err, db.ErrRewardNotFound) {
			logger.Warn("No reward found for confirmed transaction")
			return nil
		}
		if err != nil {
			return err
		}
		if r.Status != db.RewardStatusSent {
			logger.Warn("Unexpected reward status when confirming",
				zap.Int64("reward_id", r.ID),
				zap.String("status", string(r.Status)))
			return nil
		}

		if receipt.Status == types.ReceiptStatusSuccessful {
			r.Status = db.RewardStatusConfirmed
			logger.Info("Reward confirmed", zap.Int64("reward_id", r.ID), zap.Uint64("block", receipt.BlockNumber.Uint64()))
		} else {
			r.Status = db.RewardStatusErrorConfirming
			logger.Error("Reward transaction failed", zap.Int64("reward_id", r.ID))
		}
		if err := s.store.UpdateReward(ctx, r); err != nil {
			return err
		}
		metrics.RewardTransitions.WithLabelValues(string(r.Status)).Inc()
		return nil
	})
}

func (s *Sender) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.chain.TransactionReceipt(waitCtx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, goethereum.NotFound) {
			s.logger.Warn("Failed to get transaction receipt", zap.String("tx_hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.ErrorsTotal.WithLabelValues("sender", "receipt_timeout").Inc()
			return nil, fmt.Errorf("%w: %s after %s", ErrReceiptTimeout, hash.Hex(), s.cfg.ReceiptTimeout)
		case <-ticker.C:
		}
	}
}

func isAlreadyKnown(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}

func weiToFloat(wei *big.Int) float64 {
	f, _ := new(big.Float).SetInt(wei).Float64()
	return f
}
