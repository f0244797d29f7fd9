package rewarder

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/bridge-rewarder/pkg/deposits"
	"github.com/chainsafe/bridge-rewarder/pkg/ethereum"
)

type mockChainHead struct {
	BlockNumberFunc func(ctx context.Context) (uint64, error)
}

func (m *mockChainHead) BlockNumber(ctx context.Context) (uint64, error) {
	if m.BlockNumberFunc != nil {
		return m.BlockNumberFunc(ctx)
	}
	return 0, nil
}

type fetchCall struct {
	Bridge    common.Address
	FromBlock uint64
	ToBlock   uint64
}

type mockFetcher struct {
	FetchFunc func(ctx context.Context, bridge common.Address, fromBlock, toBlock uint64) ([]*ethereum.CrossTransferEvent, error)
	calls     []fetchCall
}

func (m *mockFetcher) Fetch(ctx context.Context, bridge common.Address, fromBlock, toBlock uint64) ([]*ethereum.CrossTransferEvent, error) {
	m.calls = append(m.calls, fetchCall{Bridge: bridge, FromBlock: fromBlock, ToBlock: toBlock})
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, bridge, fromBlock, toBlock)
	}
	return nil, nil
}

type mockNormalizer struct {
	NormalizeFunc func(ctx context.Context, bridge deposits.Bridge, events []*ethereum.CrossTransferEvent) ([]deposits.Deposit, error)
}

func (m *mockNormalizer) Normalize(
	ctx context.Context,
	bridge deposits.Bridge,
	events []*ethereum.CrossTransferEvent,
) ([]deposits.Deposit, error) {
	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(ctx, bridge, events)
	}
	return nil, nil
}

// fakeAccounts reports every account as fresh
type fakeAccounts struct{}

func (fakeAccounts) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (fakeAccounts) NonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}

func (fakeAccounts) IsContract(context.Context, common.Address) (bool, error) {
	return false, nil
}

type mockRoundRunner struct {
	mu           sync.Mutex
	RunRoundFunc func(ctx context.Context, start uint64) (uint64, bool, error)
	starts       []uint64
}

func (m *mockRoundRunner) RunRound(ctx context.Context, start uint64) (uint64, bool, error) {
	m.mu.Lock()
	m.starts = append(m.starts, start)
	m.mu.Unlock()
	if m.RunRoundFunc != nil {
		return m.RunRoundFunc(ctx, start)
	}
	return start, false, nil
}

func (m *mockRoundRunner) Starts() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.starts...)
}

type mockSender struct {
	mu                     sync.Mutex
	FlushQueueFunc         func(ctx context.Context) error
	ConfirmUnconfirmedFunc func(ctx context.Context) error
	flushes                int
	confirms               int
}

func (m *mockSender) FlushQueue(ctx context.Context) error {
	m.mu.Lock()
	m.flushes++
	m.mu.Unlock()
	if m.FlushQueueFunc != nil {
		return m.FlushQueueFunc(ctx)
	}
	return nil
}

func (m *mockSender) ConfirmUnconfirmed(ctx context.Context) error {
	m.mu.Lock()
	m.confirms++
	m.mu.Unlock()
	if m.ConfirmUnconfirmedFunc != nil {
		return m.ConfirmUnconfirmedFunc(ctx)
	}
	return nil
}

func (m *mockSender) Counts() (flushes, confirms int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes, m.confirms
}
