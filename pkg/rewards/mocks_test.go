package rewards

import (
	"context"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type mockAccountReader struct {
	BalanceAtFunc  func(ctx context.Context, account common.Address) (*big.Int, error)
	NonceAtFunc    func(ctx context.Context, account common.Address) (uint64, error)
	IsContractFunc func(ctx context.Context, account common.Address) (bool, error)
}

func (m *mockAccountReader) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	if m.BalanceAtFunc != nil {
		return m.BalanceAtFunc(ctx, account)
	}
	return big.NewInt(0), nil
}

func (m *mockAccountReader) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if m.NonceAtFunc != nil {
		return m.NonceAtFunc(ctx, account)
	}
	return 0, nil
}

func (m *mockAccountReader) IsContract(ctx context.Context, account common.Address) (bool, error) {
	if m.IsContractFunc != nil {
		return m.IsContractFunc(ctx, account)
	}
	return false, nil
}

type mockChain struct {
	BalanceAtFunc          func(ctx context.Context, account common.Address) (*big.Int, error)
	PendingNonceAtFunc     func(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPriceFunc    func(ctx context.Context) (*big.Int, error)
	SendTransactionFunc    func(ctx context.Context, tx *types.Transaction) error
	TransactionReceiptFunc func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	sent []*types.Transaction
}

func (m *mockChain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	if m.BalanceAtFunc != nil {
		return m.BalanceAtFunc(ctx, account)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), nil
}

func (m *mockChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if m.PendingNonceAtFunc != nil {
		return m.PendingNonceAtFunc(ctx, account)
	}
	return 0, nil
}

func (m *mockChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if m.SuggestGasPriceFunc != nil {
		return m.SuggestGasPriceFunc(ctx)
	}
	return big.NewInt(60_000_000), nil
}

func (m *mockChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if m.SendTransactionFunc != nil {
		if err := m.SendTransactionFunc(ctx, tx); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, tx)
	return nil
}

// TransactionReceipt reports every sent transaction as successfully mined by default
func (m *mockChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if m.TransactionReceiptFunc != nil {
		return m.TransactionReceiptFunc(ctx, txHash)
	}
	for _, tx := range m.sent {
		if tx.Hash() == txHash {
			return &types.Receipt{
				Status:      types.ReceiptStatusSuccessful,
				TxHash:      txHash,
				BlockNumber: big.NewInt(100),
			}, nil
		}
	}
	return nil, goethereum.NotFound
}

type mockSigner struct {
	address          common.Address
	SignTransferFunc func(to common.Address, value *big.Int, nonce uint64, gasPrice *big.Int, gasLimit uint64) (*types.Transaction, error)
}

func (m *mockSigner) Address() common.Address {
	return m.address
}

// SignTransfer returns an unsigned transaction; its hash is still unique per nonce and recipient
func (m *mockSigner) SignTransfer(
	to common.Address,
	value *big.Int,
	nonce uint64,
	gasPrice *big.Int,
	gasLimit uint64,
) (*types.Transaction, error) {
	if m.SignTransferFunc != nil {
		return m.SignTransferFunc(to, value, nonce, gasPrice, gasLimit)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
	}), nil
}
