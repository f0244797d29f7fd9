package rewards

import (
	"context"
	"math/big"

	"github.com/chainsafe/bridge-rewarder/pkg/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Store defines the reward persistence used by the queue and the sender
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateReward(ctx context.Context, reward *db.Reward) error
	UserHasReward(ctx context.Context, userAddress string) (bool, error)
	GetReward(ctx context.Context, id int64) (*db.Reward, error)
	GetRewardForUpdate(ctx context.Context, id int64) (*db.Reward, error)
	GetRewardByTxHash(ctx context.Context, txHash string) (*db.Reward, error)
	ListRewardIDsByStatus(ctx context.Context, status db.RewardStatus) ([]int64, error)
	UpdateReward(ctx context.Context, reward *db.Reward) error
}

// AccountReader reads destination chain account state
type AccountReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	IsContract(ctx context.Context, account common.Address) (bool, error)
}

// Chain defines the chain operations needed to pay and confirm rewards
type Chain interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TransferSigner signs value transfers from the operator account
type TransferSigner interface {
	Address() common.Address
	SignTransfer(to common.Address, value *big.Int, nonce uint64, gasPrice *big.Int, gasLimit uint64) (*types.Transaction, error)
}
