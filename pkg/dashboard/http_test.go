package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-rewarder/pkg/db"
	"github.com/chainsafe/bridge-rewarder/pkg/db/dbtest"
	"github.com/chainsafe/bridge-rewarder/pkg/deposits"
)

type mockBalanceReader struct {
	BalanceAtFunc func(ctx context.Context, account common.Address) (*big.Int, error)
}

func (m *mockBalanceReader) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	if m.BalanceAtFunc != nil {
		return m.BalanceAtFunc(ctx, account)
	}
	return big.NewInt(0), nil
}

var testInfo = Info{
	OperatorAddress: common.HexToAddress("0x9A7E1B3F2B3C4D5E6F708192A3B4C5D6E7F80912"),
	RPCURL:          "https://public-node.testnet.rsk.co",
	ExplorerURL:     "https://explorer.testnet.rsk.co/",
	Bridges: []deposits.Bridge{
		{Name: "eth", Address: common.HexToAddress("0x8e7199d5f496ea862492f4f983a1627d723328fd")},
	},
	Thresholds: map[string]decimal.Decimal{
		"DAIbs":  decimal.RequireFromString("2"),
		"USDTes": decimal.RequireFromString("10.5"),
	},
	RewardRBTC: decimal.RequireFromString("0.01"),
}

func newTestServer(store Store, chain BalanceReader) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewLog(NewService(store, chain, testInfo, zap.NewNop()), zap.NewNop()), zap.NewNop())
	return r
}

func seedRewards(t *testing.T, store *dbtest.MemoryStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.CreateReward(context.Background(), &db.Reward{
			Status:                    db.RewardStatusQueued,
			UserAddress:               "0xca478e11953fe327b46dd71dd9fd31c92dc9a9ae",
			RewardWei:                 big.NewInt(10_000_000_000_000_000),
			DepositSideTokenSymbol:    "DAIbs",
			DepositAmountMinusFeesWei: big.NewInt(2_495_000_000_000_000_000),
			DepositAmountDecimal:      decimal.RequireFromString("2.5"),
			DepositTransactionHash:    "0x0462cb7f734cd277d087a80205b4098ed4e447ec3c7847b68652dd2994a44980",
		}))
	}
}

func get(t *testing.T, handler http.Handler, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestStatus(t *testing.T) {
	store := dbtest.NewMemoryStore()
	seedRewards(t, store, 2)
	require.NoError(t, store.SetLastProcessedBlock(context.Background(), 1_785_100))

	balance, _ := new(big.Int).SetString("1500000000000000000", 10)
	chain := &mockBalanceReader{
		BalanceAtFunc: func(_ context.Context, account common.Address) (*big.Int, error) {
			assert.Equal(t, testInfo.OperatorAddress, account)
			return balance, nil
		},
	}

	var got StatusResponse
	code := get(t, newTestServer(store, chain), "/status", &got)
	require.Equal(t, http.StatusOK, code)

	require.NotNil(t, got.LastProcessedBlock)
	assert.Equal(t, uint64(1_785_100), *got.LastProcessedBlock)
	assert.Equal(t, "0x9a7e1b3f2b3c4d5e6f708192a3b4c5d6e7f80912", got.OperatorAddress)
	assert.Equal(t, "https://explorer.testnet.rsk.co/address/0x9a7e1b3f2b3c4d5e6f708192a3b4c5d6e7f80912", got.OperatorURL)
	assert.Equal(t, "1500000000000000000", got.OperatorBalanceWei)
	assert.Equal(t, "1.5", got.OperatorBalanceRBTC)
	assert.Equal(t, "https://explorer.testnet.rsk.co", got.ExplorerURL)
	require.Len(t, got.Bridges, 1)
	assert.Equal(t, "eth", got.Bridges[0].Name)
	assert.Equal(t, "https://explorer.testnet.rsk.co/address/0x8e7199d5f496ea862492f4f983a1627d723328fd", got.Bridges[0].URL)
	assert.Equal(t, map[string]string{"DAIbs": "2", "USDTes": "10.5"}, got.RewardThresholds)
	assert.Equal(t, "0.01", got.RewardRBTC)
	assert.Equal(t, 2, got.RewardCounts["queued"])
	assert.Equal(t, 0, got.RewardCounts["confirmed"])
	assert.Len(t, got.RewardCounts, len(db.RewardStatuses))
}

func TestStatus_BalanceErrorIsTolerated(t *testing.T) {
	chain := &mockBalanceReader{
		BalanceAtFunc: func(context.Context, common.Address) (*big.Int, error) {
			return nil, errors.New("rpc down")
		},
	}

	var got StatusResponse
	code := get(t, newTestServer(dbtest.NewMemoryStore(), chain), "/status", &got)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, got.LastProcessedBlock)
	assert.Empty(t, got.OperatorBalanceWei)
}

func TestStatus_StoreErrorReturnsBadGateway(t *testing.T) {
	store := dbtest.NewMemoryStore()
	store.Fail = dbtest.FailOn("CountRewardsByStatus", dbtest.ErrInjected)

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	code := get(t, newTestServer(store, &mockBalanceReader{}), "/status", &got)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "failed to load status", got.Error)
	assert.Equal(t, http.StatusBadGateway, got.Code)
}

func TestListRewards(t *testing.T) {
	store := dbtest.NewMemoryStore()
	seedRewards(t, store, 3)
	handler := newTestServer(store, &mockBalanceReader{})

	var got RewardsResponse
	code := get(t, handler, "/rewards", &got)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, DefaultRewardsLimit, got.Limit)
	require.Len(t, got.Rewards, 3)
	assert.Equal(t, int64(3), got.Rewards[0].ID)
	assert.Equal(t, int64(1), got.Rewards[2].ID)

	r := got.Rewards[0]
	assert.Equal(t, "0.01", r.RewardRBTC)
	assert.Equal(t, "10000000000000000", r.RewardWei)
	assert.Equal(t, "2.5", r.DepositAmountDecimal)
	assert.Equal(t, "https://explorer.testnet.rsk.co/address/0xca478e11953fe327b46dd71dd9fd31c92dc9a9ae", r.UserURL)
	assert.Equal(t,
		"https://explorer.testnet.rsk.co/tx/0x0462cb7f734cd277d087a80205b4098ed4e447ec3c7847b68652dd2994a44980",
		r.DepositTransactionURL)
	assert.Empty(t, r.RewardTransactionURL)

	code = get(t, handler, "/rewards?limit=2", &got)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, got.Rewards, 2)

	code = get(t, handler, "/rewards?limit=100000", &got)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MaxRewardsLimit, got.Limit)
}

func TestListRewards_InvalidLimit(t *testing.T) {
	handler := newTestServer(dbtest.NewMemoryStore(), &mockBalanceReader{})

	for _, target := range []string{"/rewards?limit=abc", "/rewards?limit=0", "/rewards?limit=-3"} {
		code := get(t, handler, target, nil)
		assert.Equal(t, http.StatusBadRequest, code, target)
	}
}

func TestGetReward(t *testing.T) {
	store := dbtest.NewMemoryStore()
	seedRewards(t, store, 1)

	nonce := uint64(4)
	r, err := store.GetReward(context.Background(), 1)
	require.NoError(t, err)
	r.Status = db.RewardStatusSent
	r.RewardTransactionHash = "0x1111111111111111111111111111111111111111111111111111111111111111"
	r.RewardTransactionNonce = &nonce
	require.NoError(t, store.UpdateReward(context.Background(), r))

	var got RewardResponse
	code := get(t, newTestServer(store, &mockBalanceReader{}), "/rewards/1", &got)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sent", got.Status)
	require.NotNil(t, got.RewardTransactionNonce)
	assert.Equal(t, uint64(4), *got.RewardTransactionNonce)
	assert.Equal(t,
		"https://explorer.testnet.rsk.co/tx/0x1111111111111111111111111111111111111111111111111111111111111111",
		got.RewardTransactionURL)
}

func TestGetReward_Errors(t *testing.T) {
	handler := newTestServer(dbtest.NewMemoryStore(), &mockBalanceReader{})

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	code := get(t, handler, "/rewards/42", &got)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "reward not found", got.Error)

	code = get(t, handler, "/rewards/abc", &got)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid reward id", got.Error)
}
