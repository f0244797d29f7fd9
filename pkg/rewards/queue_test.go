package rewards

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-rewarder/pkg/db"
	"github.com/chainsafe/bridge-rewarder/pkg/db/dbtest"
	"github.com/chainsafe/bridge-rewarder/pkg/deposits"
	"github.com/chainsafe/bridge-rewarder/pkg/retry"
)

const (
	userAddr  = "0xca478e11953fe327b46dd71dd9fd31c92dc9a9ae"
	otherAddr = "0x5fc4d8b1f96a916683954272721cfe96ed5a3953"
)

func testDeposit(user string, amount string) *deposits.Deposit {
	wei, _ := new(big.Int).SetString("2495000000000000000", 10)
	return &deposits.Deposit{
		UserAddress:        user,
		SideTokenAddress:   "0x407ff7d4760d3a81b4740d268eb04490c7dfe7f2",
		SideTokenSymbol:    "DAIbs",
		MainTokenAddress:   "0x83241490517384cb28382bdd4d1534ee54d9350f",
		AmountMinusFeesWei: wei,
		AmountDecimal:      decimal.RequireFromString(amount),
		BlockNumber:        1785018,
		BlockHash:          "0x11dcc6cd8198159ae7fdf252a42101ad20fc50c614981d3291e562367f66791a",
		TransactionHash:    "0x0462cb7f734cd277d087a80205b4098ed4e447ec3c7847b68652dd2994a44980",
		LogIndex:           3,
		ContractAddress:    "0x8e7199d5f496ea862492f4f983a1627d723328fd",
		BridgeName:         "eth",
	}
}

func queueConfig(threshold string) QueueConfig {
	return QueueConfig{
		Thresholds: map[string]decimal.Decimal{"DAIbs": decimal.RequireFromString(threshold)},
		RewardRBTC: decimal.RequireFromString("0.01"),
		Retry:      retry.Immediate(2),
	}
}

func TestToWei(t *testing.T) {
	assert.Equal(t, "10000000000000000", ToWei(decimal.RequireFromString("0.01")).String())
	assert.Equal(t, "1", ToWei(decimal.RequireFromString("0.0000000000000000019")).String())
	assert.Equal(t, "0", ToWei(decimal.RequireFromString("0.0000000000000000001")).String())
}

func TestEnqueue_QueuesEligibleUser(t *testing.T) {
	store := dbtest.NewMemoryStore()
	q := NewQueue(store, &mockAccountReader{}, queueConfig("2.0"), zap.NewNop())

	out, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.NoError(t, err)
	require.True(t, out.Queued)
	require.NotNil(t, out.Reward)

	rewards := store.All()
	require.Len(t, rewards, 1)
	r := rewards[0]
	assert.Equal(t, db.RewardStatusQueued, r.Status)
	assert.Equal(t, userAddr, r.UserAddress)
	assert.Equal(t, "10000000000000000", r.RewardWei.String())
	assert.Equal(t, "DAIbs", r.DepositSideTokenSymbol)
	assert.Equal(t, "2495000000000000000", r.DepositAmountMinusFeesWei.String())
	assert.True(t, r.DepositAmountDecimal.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, uint(3), r.DepositLogIndex)
	assert.Empty(t, r.RewardTransactionHash)
	assert.Nil(t, r.RewardTransactionNonce)
	assert.Nil(t, r.SentAt)
}

func TestEnqueue_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		amount string
		queued bool
		reason SkipReason
	}{
		{name: "below threshold", symbol: "DAIbs", amount: "1.99", reason: SkipBelowThreshold},
		{name: "exactly threshold", symbol: "DAIbs", amount: "2.0", queued: true},
		{name: "unknown symbol", symbol: "USDTes", amount: "1000", reason: SkipNoThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := dbtest.NewMemoryStore()
			q := NewQueue(store, &mockAccountReader{}, queueConfig("2.0"), zap.NewNop())

			d := testDeposit(userAddr, tt.amount)
			d.SideTokenSymbol = tt.symbol
			out, err := q.Enqueue(context.Background(), d)
			require.NoError(t, err)
			assert.Equal(t, tt.queued, out.Queued)
			assert.Equal(t, tt.reason, out.Reason)
			if tt.queued {
				assert.Len(t, store.All(), 1)
			} else {
				assert.Empty(t, store.All())
			}
		})
	}
}

func TestEnqueue_ThresholdCheckedBeforeChainQueries(t *testing.T) {
	chain := &mockAccountReader{
		BalanceAtFunc: func(context.Context, common.Address) (*big.Int, error) {
			t.Fatal("balance must not be queried for deposits under the threshold")
			return nil, nil
		},
	}
	q := NewQueue(dbtest.NewMemoryStore(), chain, queueConfig("100"), zap.NewNop())

	out, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.NoError(t, err)
	assert.Equal(t, SkipBelowThreshold, out.Reason)
}

func TestEnqueue_OneRewardPerUser(t *testing.T) {
	store := dbtest.NewMemoryStore()
	q := NewQueue(store, &mockAccountReader{}, queueConfig("2.0"), zap.NewNop())
	ctx := context.Background()

	out, err := q.Enqueue(ctx, testDeposit(userAddr, "2.5"))
	require.NoError(t, err)
	require.True(t, out.Queued)

	// same user with different casing
	out, err = q.Enqueue(ctx, testDeposit("0xCA478E11953FE327B46DD71DD9FD31C92DC9A9AE", "5"))
	require.NoError(t, err)
	assert.False(t, out.Queued)
	assert.Equal(t, SkipAlreadyRewarded, out.Reason)

	out, err = q.Enqueue(ctx, testDeposit(otherAddr, "5"))
	require.NoError(t, err)
	assert.True(t, out.Queued)
	assert.Len(t, store.All(), 2)
}

func TestEnqueue_AlreadyRewardedInAnyStatus(t *testing.T) {
	store := dbtest.NewMemoryStore()
	require.NoError(t, store.CreateReward(context.Background(), &db.Reward{
		Status:      db.RewardStatusErrorSending,
		UserAddress: userAddr,
		RewardWei:   big.NewInt(1),
	}))
	q := NewQueue(store, &mockAccountReader{}, queueConfig("2.0"), zap.NewNop())

	out, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.NoError(t, err)
	assert.Equal(t, SkipAlreadyRewarded, out.Reason)
}

func TestEnqueue_BootstrappedUser(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		nonce   uint64
	}{
		{name: "has balance", balance: 1},
		{name: "has transactions", nonce: 1},
		{name: "has both", balance: 5, nonce: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &mockAccountReader{
				BalanceAtFunc: func(context.Context, common.Address) (*big.Int, error) {
					return big.NewInt(tt.balance), nil
				},
				NonceAtFunc: func(context.Context, common.Address) (uint64, error) {
					return tt.nonce, nil
				},
			}
			store := dbtest.NewMemoryStore()
			q := NewQueue(store, chain, queueConfig("2.0"), zap.NewNop())

			out, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
			require.NoError(t, err)
			assert.Equal(t, SkipUserBootstrapped, out.Reason)
			assert.Empty(t, store.All())
		})
	}
}

func TestEnqueue_ContractRecipient(t *testing.T) {
	chain := &mockAccountReader{
		IsContractFunc: func(context.Context, common.Address) (bool, error) {
			return true, nil
		},
	}

	cfg := queueConfig("2.0")
	q := NewQueue(dbtest.NewMemoryStore(), chain, cfg, zap.NewNop())
	out, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.NoError(t, err)
	assert.True(t, out.Queued, "contract check is disabled by default")

	cfg.SkipContractRecipients = true
	q = NewQueue(dbtest.NewMemoryStore(), chain, cfg, zap.NewNop())
	out, err = q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.NoError(t, err)
	assert.Equal(t, SkipRecipientIsContract, out.Reason)
}

func TestEnqueue_RetriesChainQueries(t *testing.T) {
	calls := 0
	chain := &mockAccountReader{
		BalanceAtFunc: func(context.Context, common.Address) (*big.Int, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("connection reset")
			}
			return big.NewInt(0), nil
		},
	}
	q := NewQueue(dbtest.NewMemoryStore(), chain, queueConfig("2.0"), zap.NewNop())

	out, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.NoError(t, err)
	assert.True(t, out.Queued)
	assert.Equal(t, 3, calls)
}

func TestEnqueue_ChainErrorIsReturned(t *testing.T) {
	calls := 0
	chain := &mockAccountReader{
		NonceAtFunc: func(context.Context, common.Address) (uint64, error) {
			calls++
			return 0, errors.New("node unavailable")
		},
	}
	store := dbtest.NewMemoryStore()
	q := NewQueue(store, chain, queueConfig("2.0"), zap.NewNop())

	_, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node unavailable")
	assert.Equal(t, 3, calls)
	assert.Empty(t, store.All())
}

func TestEnqueue_StoreErrorIsReturned(t *testing.T) {
	store := dbtest.NewMemoryStore()
	store.Fail = dbtest.FailOn("CreateReward", dbtest.ErrInjected)
	q := NewQueue(store, &mockAccountReader{}, queueConfig("2.0"), zap.NewNop())

	_, err := q.Enqueue(context.Background(), testDeposit(userAddr, "2.5"))
	require.ErrorIs(t, err, dbtest.ErrInjected)
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "queued", queued(&db.Reward{}).Label())
	assert.Equal(t, "user_bootstrapped", skipped(SkipUserBootstrapped).Label())
}
