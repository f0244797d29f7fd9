package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-rewarder/internal/metrics"
	"github.com/chainsafe/bridge-rewarder/pkg/db"
	"github.com/chainsafe/bridge-rewarder/pkg/deposits"
)

const (
	// DefaultRewardsLimit is the page size when no limit is given
	DefaultRewardsLimit = 50
	// MaxRewardsLimit caps the page size
	MaxRewardsLimit = 500
)

// ErrRewardNotFound is returned when the requested reward does not exist
var ErrRewardNotFound = errors.New("reward not found")

// Service defines the dashboard read operations
type Service interface {
	Status(ctx context.Context) (*StatusResponse, error)
	LatestRewards(ctx context.Context, limit int) (*RewardsResponse, error)
	Reward(ctx context.Context, id int64) (*RewardResponse, error)
}

// Store defines the read-only queries the dashboard runs
type Store interface {
	GetLastProcessedBlock(ctx context.Context) (uint64, bool, error)
	ListLatestRewards(ctx context.Context, limit int) ([]*db.Reward, error)
	GetReward(ctx context.Context, id int64) (*db.Reward, error)
	CountRewardsByStatus(ctx context.Context) (map[db.RewardStatus]int, error)
}

// BalanceReader reads the operator balance
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// Info is the static configuration shown on the dashboard
type Info struct {
	OperatorAddress common.Address
	RPCURL          string
	ExplorerURL     string
	Bridges         []deposits.Bridge
	Thresholds      map[string]decimal.Decimal
	RewardRBTC      decimal.Decimal
}

type service struct {
	store  Store
	chain  BalanceReader
	info   Info
	logger *zap.Logger
}

// NewService creates the dashboard service
func NewService(store Store, chain BalanceReader, info Info, logger *zap.Logger) Service {
	info.ExplorerURL = strings.TrimRight(info.ExplorerURL, "/")
	return &service{
		store:  store,
		chain:  chain,
		info:   info,
		logger: logger,
	}
}

// Status reports progress, balances and configuration.
// A failing balance lookup leaves the balance fields empty.
func (s *service) Status(ctx context.Context) (*StatusResponse, error) {
	resp := &StatusResponse{
		OperatorAddress:  lower(s.info.OperatorAddress),
		OperatorURL:      s.addressURL(lower(s.info.OperatorAddress)),
		RPCURL:           s.info.RPCURL,
		ExplorerURL:      s.info.ExplorerURL,
		RewardThresholds: make(map[string]string, len(s.info.Thresholds)),
		RewardRBTC:       s.info.RewardRBTC.String(),
		RewardCounts:     make(map[string]int),
	}

	last, ok, err := s.store.GetLastProcessedBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last processed block: %w", err)
	}
	if ok {
		resp.LastProcessedBlock = &last
	}

	counts, err := s.store.CountRewardsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count rewards: %w", err)
	}
	for _, status := range db.RewardStatuses {
		resp.RewardCounts[string(status)] = counts[status]
		metrics.PendingRewards.WithLabelValues(string(status)).Set(float64(counts[status]))
	}

	balance, err := s.chain.BalanceAt(ctx, s.info.OperatorAddress)
	if err != nil {
		s.logger.Warn("Failed to get operator balance", zap.Error(err))
	} else {
		resp.OperatorBalanceWei = balance.String()
		resp.OperatorBalanceRBTC = weiToRBTC(balance)
	}

	for _, b := range s.info.Bridges {
		addr := lower(b.Address)
		resp.Bridges = append(resp.Bridges, BridgeResponse{
			Name:    b.Name,
			Address: addr,
			URL:     s.addressURL(addr),
		})
	}

	symbols := make([]string, 0, len(s.info.Thresholds))
	for symbol := range s.info.Thresholds {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		resp.RewardThresholds[symbol] = s.info.Thresholds[symbol].String()
	}
	return resp, nil
}

// LatestRewards returns up to limit rewards, newest first
func (s *service) LatestRewards(ctx context.Context, limit int) (*RewardsResponse, error) {
	if limit <= 0 {
		limit = DefaultRewardsLimit
	}
	limit = min(limit, MaxRewardsLimit)

	rewards, err := s.store.ListLatestRewards(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := &RewardsResponse{
		Rewards: make([]*RewardResponse, len(rewards)),
		Limit:   limit,
	}
	for i, r := range rewards {
		resp.Rewards[i] = s.toRewardResponse(r)
	}
	return resp, nil
}

// Reward returns one reward
func (s *service) Reward(ctx context.Context, id int64) (*RewardResponse, error) {
	r, err := s.store.GetReward(ctx, id)
	if errors.Is(err, db.ErrRewardNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRewardNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return s.toRewardResponse(r), nil
}

func (s *service) toRewardResponse(r *db.Reward) *RewardResponse {
	resp := &RewardResponse{
		ID:                     r.ID,
		Status:                 string(r.Status),
		UserAddress:            r.UserAddress,
		UserURL:                s.addressURL(r.UserAddress),
		RewardWei:              r.RewardWei.String(),
		RewardRBTC:             weiToRBTC(r.RewardWei),
		DepositSideTokenSymbol: r.DepositSideTokenSymbol,
		DepositSideToken:       r.DepositSideTokenAddress,
		DepositMainToken:       r.DepositMainTokenAddress,
		DepositAmountWei:       r.DepositAmountMinusFeesWei.String(),
		DepositAmountDecimal:   r.DepositAmountDecimal.String(),
		DepositBlockNumber:     r.DepositBlockNumber,
		DepositTransactionHash: r.DepositTransactionHash,
		DepositTransactionURL:  s.txURL(r.DepositTransactionHash),
		DepositLogIndex:        r.DepositLogIndex,
		DepositContract:        r.DepositContractAddress,
		RewardTransactionHash:  r.RewardTransactionHash,
		RewardTransactionURL:   s.txURL(r.RewardTransactionHash),
		RewardTransactionNonce: r.RewardTransactionNonce,
		CreatedAt:              r.CreatedAt,
		SentAt:                 r.SentAt,
	}
	return resp
}

func (s *service) addressURL(addr string) string {
	if s.info.ExplorerURL == "" || addr == "" {
		return ""
	}
	return s.info.ExplorerURL + "/address/" + addr
}

func (s *service) txURL(hash string) string {
	if s.info.ExplorerURL == "" || hash == "" {
		return ""
	}
	return s.info.ExplorerURL + "/tx/" + hash
}

func weiToRBTC(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -18).String()
}

func lower(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
