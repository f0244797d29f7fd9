package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/bridge-rewarder/pkg/db/dao"
)

// ErrRewardNotFound is returned when a reward lookup finds no matching row
var ErrRewardNotFound = errors.New("reward not found")

type txKey struct{}

// Store persists the progress marker and rewards.
// Methods called inside RunInTx use its transaction.
type Store struct {
	db *bun.DB
}

// NewStore creates a postgres backed store
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) conn(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return s.db
}

// RunInTx runs fn in a transaction that commits when fn returns nil.
// A nested call joins the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GetLastProcessedBlock returns the progress marker; ok is false when none was written yet
func (s *Store) GetLastProcessedBlock(ctx context.Context) (block uint64, ok bool, err error) {
	info := new(dao.BlockInfoDao)
	err = s.conn(ctx).NewSelect().
		Model(info).
		Where("key = ?", LastProcessedBlockKey).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get last processed block: %w", err)
	}
	return uint64(info.BlockNumber), true, nil
}

// SetLastProcessedBlock upserts the progress marker
func (s *Store) SetLastProcessedBlock(ctx context.Context, block uint64) error {
	info := &dao.BlockInfoDao{
		Key:         LastProcessedBlockKey,
		BlockNumber: int64(block),
	}
	_, err := s.conn(ctx).NewInsert().
		Model(info).
		On("CONFLICT (key) DO UPDATE").
		Set("block_number = EXCLUDED.block_number").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set last processed block: %w", err)
	}
	return nil
}

// CreateReward inserts a reward and sets its ID and CreatedAt
func (s *Store) CreateReward(ctx context.Context, reward *Reward) error {
	row := toRewardDao(reward)
	_, err := s.conn(ctx).NewInsert().
		Model(row).
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	reward.ID = row.ID
	reward.CreatedAt = row.CreatedAt
	return nil
}

// GetReward returns a reward by id
func (s *Store) GetReward(ctx context.Context, id int64) (*Reward, error) {
	return s.getReward(ctx, false, "id = ?", id)
}

// GetRewardForUpdate returns a reward by id and locks its row until the transaction ends
func (s *Store) GetRewardForUpdate(ctx context.Context, id int64) (*Reward, error) {
	return s.getReward(ctx, true, "id = ?", id)
}

// GetRewardByTxHash returns the reward paid by a transaction
func (s *Store) GetRewardByTxHash(ctx context.Context, txHash string) (*Reward, error) {
	return s.getReward(ctx, false, "lower(reward_transaction_hash) = ?", strings.ToLower(txHash))
}

func (s *Store) getReward(ctx context.Context, forUpdate bool, where string, arg any) (*Reward, error) {
	row := new(dao.RewardDao)
	q := s.conn(ctx).NewSelect().Model(row).Where(where, arg)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return toReward(row)
}

// ListRewardIDsByStatus returns reward ids in ascending order
func (s *Store) ListRewardIDsByStatus(ctx context.Context, status RewardStatus) ([]int64, error) {
	var ids []int64
	err := s.conn(ctx).NewSelect().
		Model((*dao.RewardDao)(nil)).
		Column("id").
		Where("status = ?", string(status)).
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s rewards: %w", status, err)
	}
	return ids, nil
}

// UserHasReward reports whether any reward, in any status, exists for the address
func (s *Store) UserHasReward(ctx context.Context, userAddress string) (bool, error) {
	exists, err := s.conn(ctx).NewSelect().
		Model((*dao.RewardDao)(nil)).
		Where("lower(user_address) = ?", strings.ToLower(userAddress)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing reward: %w", err)
	}
	return exists, nil
}

// UpdateReward writes the mutable columns of a reward
func (s *Store) UpdateReward(ctx context.Context, reward *Reward) error {
	row := toRewardDao(reward)
	res, err := s.conn(ctx).NewUpdate().
		Model(row).
		Column("status", "reward_transaction_hash", "reward_transaction_nonce", "sent_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update reward %d: %w", reward.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRewardNotFound
	}
	return nil
}

// ListLatestRewards returns up to limit rewards, newest first
func (s *Store) ListLatestRewards(ctx context.Context, limit int) ([]*Reward, error) {
	var rows []dao.RewardDao
	err := s.conn(ctx).NewSelect().
		Model(&rows).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}

	rewards := make([]*Reward, len(rows))
	for i := range rows {
		r, err := toReward(&rows[i])
		if err != nil {
			return nil, err
		}
		rewards[i] = r
	}
	return rewards, nil
}

type statusCount struct {
	Status string `bun:"status"`
	Count  int    `bun:"count"`
}

// CountRewardsByStatus returns the number of rewards per status
func (s *Store) CountRewardsByStatus(ctx context.Context) (map[RewardStatus]int, error) {
	var rows []statusCount
	err := s.conn(ctx).NewSelect().
		Model((*dao.RewardDao)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count rewards: %w", err)
	}

	counts := make(map[RewardStatus]int, len(rows))
	for _, r := range rows {
		counts[RewardStatus(r.Status)] = r.Count
	}
	return counts, nil
}

func toRewardDao(r *Reward) *dao.RewardDao {
	row := &dao.RewardDao{
		ID:                        r.ID,
		Status:                    string(r.Status),
		UserAddress:               r.UserAddress,
		RewardWei:                 bigString(r.RewardWei),
		DepositSideTokenAddress:   r.DepositSideTokenAddress,
		DepositSideTokenSymbol:    r.DepositSideTokenSymbol,
		DepositMainTokenAddress:   r.DepositMainTokenAddress,
		DepositAmountMinusFeesWei: bigString(r.DepositAmountMinusFeesWei),
		DepositAmountDecimal:      r.DepositAmountDecimal.String(),
		DepositBlockNumber:        int64(r.DepositBlockNumber),
		DepositBlockHash:          r.DepositBlockHash,
		DepositTransactionHash:    r.DepositTransactionHash,
		DepositLogIndex:           int64(r.DepositLogIndex),
		DepositContractAddress:    r.DepositContractAddress,
		CreatedAt:                 r.CreatedAt,
		SentAt:                    r.SentAt,
	}
	if r.RewardTransactionHash != "" {
		row.RewardTransactionHash = &r.RewardTransactionHash
	}
	if r.RewardTransactionNonce != nil {
		nonce := int64(*r.RewardTransactionNonce)
		row.RewardTransactionNonce = &nonce
	}
	return row
}

func toReward(row *dao.RewardDao) (*Reward, error) {
	rewardWei, ok := new(big.Int).SetString(row.RewardWei, 10)
	if !ok {
		return nil, fmt.Errorf("reward %d has invalid reward_rbtc_wei %q", row.ID, row.RewardWei)
	}
	amountWei, ok := new(big.Int).SetString(row.DepositAmountMinusFeesWei, 10)
	if !ok {
		return nil, fmt.Errorf("reward %d has invalid deposit_amount_minus_fees_wei %q", row.ID, row.DepositAmountMinusFeesWei)
	}
	amountDecimal, err := decimal.NewFromString(row.DepositAmountDecimal)
	if err != nil {
		return nil, fmt.Errorf("reward %d has invalid deposit_amount_decimal: %w", row.ID, err)
	}

	r := &Reward{
		ID:                        row.ID,
		Status:                    RewardStatus(row.Status),
		UserAddress:               row.UserAddress,
		RewardWei:                 rewardWei,
		DepositSideTokenAddress:   row.DepositSideTokenAddress,
		DepositSideTokenSymbol:    row.DepositSideTokenSymbol,
		DepositMainTokenAddress:   row.DepositMainTokenAddress,
		DepositAmountMinusFeesWei: amountWei,
		DepositAmountDecimal:      amountDecimal,
		DepositBlockNumber:        uint64(row.DepositBlockNumber),
		DepositBlockHash:          row.DepositBlockHash,
		DepositTransactionHash:    row.DepositTransactionHash,
		DepositLogIndex:           uint(row.DepositLogIndex),
		DepositContractAddress:    row.DepositContractAddress,
		CreatedAt:                 row.CreatedAt,
		SentAt:                    row.SentAt,
	}
	if row.RewardTransactionHash != nil {
		r.RewardTransactionHash = *row.RewardTransactionHash
	}
	if row.RewardTransactionNonce != nil {
		nonce := uint64(*row.RewardTransactionNonce)
		r.RewardTransactionNonce = &nonce
	}
	return r, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
