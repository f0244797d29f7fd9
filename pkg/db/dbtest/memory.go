// Package dbtest provides an in-memory stand-in for db.Store in unit tests.
package dbtest

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chainsafe/bridge-rewarder/pkg/db"
)

type txKey struct{}

// MemoryStore keeps rewards and the progress marker in memory.
// RunInTx restores the previous state when fn fails.
type MemoryStore struct {
	mu        sync.Mutex
	rewards   map[int64]*db.Reward
	nextID    int64
	lastBlock *uint64

	// Fail lets a test inject an error into a named method before it runs
	Fail func(method string) error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rewards: make(map[int64]*db.Reward)}
}

func (s *MemoryStore) fail(method string) error {
	if s.Fail != nil {
		return s.Fail(method)
	}
	return nil
}

// RunInTx runs fn and rolls back every change made through the store when it fails
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	rewards := make(map[int64]*db.Reward, len(s.rewards))
	for id, r := range s.rewards {
		rewards[id] = clone(r)
	}
	nextID, lastBlock := s.nextID, s.lastBlock
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.rewards, s.nextID, s.lastBlock = rewards, nextID, lastBlock
		s.mu.Unlock()
		return err
	}
	return nil
}

// GetLastProcessedBlock returns the progress marker
func (s *MemoryStore) GetLastProcessedBlock(_ context.Context) (uint64, bool, error) {
	if err := s.fail("GetLastProcessedBlock"); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastBlock == nil {
		return 0, false, nil
	}
	return *s.lastBlock, true, nil
}

// SetLastProcessedBlock stores the progress marker
func (s *MemoryStore) SetLastProcessedBlock(_ context.Context, block uint64) error {
	if err := s.fail("SetLastProcessedBlock"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBlock = &block
	return nil
}

// CreateReward assigns the next id and stores a copy of the reward
func (s *MemoryStore) CreateReward(_ context.Context, reward *db.Reward) error {
	if err := s.fail("CreateReward"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	reward.ID = s.nextID
	reward.CreatedAt = time.Now().UTC()
	s.rewards[reward.ID] = clone(reward)
	return nil
}

// UserHasReward compares addresses case-insensitively
func (s *MemoryStore) UserHasReward(_ context.Context, userAddress string) (bool, error) {
	if err := s.fail("UserHasReward"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rewards {
		if strings.EqualFold(r.UserAddress, userAddress) {
			return true, nil
		}
	}
	return false, nil
}

// GetReward returns a copy of the reward
func (s *MemoryStore) GetReward(_ context.Context, id int64) (*db.Reward, error) {
	if err := s.fail("GetReward"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rewards[id]
	if !ok {
		return nil, db.ErrRewardNotFound
	}
	return clone(r), nil
}

// GetRewardForUpdate behaves like GetReward
func (s *MemoryStore) GetRewardForUpdate(ctx context.Context, id int64) (*db.Reward, error) {
	return s.GetReward(ctx, id)
}

// GetRewardByTxHash finds the reward paid by a transaction
func (s *MemoryStore) GetRewardByTxHash(_ context.Context, txHash string) (*db.Reward, error) {
	if err := s.fail("GetRewardByTxHash"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rewards {
		if r.RewardTransactionHash != "" && strings.EqualFold(r.RewardTransactionHash, txHash) {
			return clone(r), nil
		}
	}
	return nil, db.ErrRewardNotFound
}

// ListRewardIDsByStatus returns ids in ascending order
func (s *MemoryStore) ListRewardIDsByStatus(_ context.Context, status db.RewardStatus) ([]int64, error) {
	if err := s.fail("ListRewardIDsByStatus"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, r := range s.rewards {
		if r.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// UpdateReward replaces the stored reward
func (s *MemoryStore) UpdateReward(_ context.Context, reward *db.Reward) error {
	if err := s.fail("UpdateReward"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rewards[reward.ID]; !ok {
		return db.ErrRewardNotFound
	}
	s.rewards[reward.ID] = clone(reward)
	return nil
}

// ListLatestRewards returns up to limit rewards, newest first
func (s *MemoryStore) ListLatestRewards(_ context.Context, limit int) ([]*db.Reward, error) {
	if err := s.fail("ListLatestRewards"); err != nil {
		return nil, err
	}
	all := s.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// CountRewardsByStatus returns the number of rewards per status
func (s *MemoryStore) CountRewardsByStatus(_ context.Context) (map[db.RewardStatus]int, error) {
	if err := s.fail("CountRewardsByStatus"); err != nil {
		return nil, err
	}
	counts := make(map[db.RewardStatus]int)
	for _, r := range s.All() {
		counts[r.Status]++
	}
	return counts, nil
}

// Ping always succeeds unless a failure is injected
func (s *MemoryStore) Ping(_ context.Context) error {
	return s.fail("Ping")
}

// All returns copies of every reward in id order
func (s *MemoryStore) All() []*db.Reward {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*db.Reward, 0, len(s.rewards))
	for _, r := range s.rewards {
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FailOn returns a Fail func that injects err into one method
func FailOn(method string, err error) func(string) error {
	return func(m string) error {
		if m == method {
			return err
		}
		return nil
	}
}

// ErrInjected is a convenience error for failure injection
var ErrInjected = errors.New("injected failure")

func clone(r *db.Reward) *db.Reward {
	c := *r
	if r.RewardWei != nil {
		c.RewardWei = new(big.Int).Set(r.RewardWei)
	}
	if r.DepositAmountMinusFeesWei != nil {
		c.DepositAmountMinusFeesWei = new(big.Int).Set(r.DepositAmountMinusFeesWei)
	}
	if r.RewardTransactionNonce != nil {
		n := *r.RewardTransactionNonce
		c.RewardTransactionNonce = &n
	}
	if r.SentAt != nil {
		t := *r.SentAt
		c.SentAt = &t
	}
	return &c
}
