package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/chainsafe/bridge-rewarder/internal/metrics"
	"github.com/chainsafe/bridge-rewarder/pkg/config"
	"github.com/chainsafe/bridge-rewarder/pkg/ethereum/contracts"
	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Client represents a rate limited client for the destination chain RPC endpoint
type Client struct {
	endpoint string
	client   *ethclient.Client
	limiter  ratelimit.Limiter
	logger   *zap.Logger

	mu      sync.Mutex
	bridges map[common.Address]*contracts.Bridge
	code    map[common.Address]bool
}

// NewClient dials the chain RPC endpoint
func NewClient(cfg config.ChainConfig, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	return &Client{
		endpoint: cfg.RPCURL,
		client:   client,
		limiter:  ratelimit.New(cfg.RequestsPerSecond),
		logger:   logger.Named("ethereum"),
		bridges:  make(map[common.Address]*contracts.Bridge),
		code:     make(map[common.Address]bool),
	}, nil
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Endpoint identifies the RPC endpoint this client talks to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// call throttles and instruments a single RPC operation
func (c *Client) call(operation string, fn func() error) error {
	c.limiter.Take()
	started := time.Now()
	err := fn()
	if errors.Is(err, goethereum.NotFound) {
		metrics.ObserveRPC(operation, nil, started)
		return err
	}
	metrics.ObserveRPC(operation, err, started)
	return err
}

// ChainID returns the chain id reported by the endpoint
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.call("eth_chainId", func() (err error) {
		id, err = c.client.ChainID(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	return id, nil
}

// BlockNumber returns the current chain height
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.call("eth_blockNumber", func() (err error) {
		height, err = c.client.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get block number: %w", err)
	}
	return height, nil
}

// BalanceAt returns the latest native balance of an account
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := c.call("eth_getBalance", func() (err error) {
		balance, err = c.client.BalanceAt(ctx, account, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", account.Hex(), err)
	}
	return balance, nil
}

// NonceAt returns the latest mined transaction count of an account
func (c *Client) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.call("eth_getTransactionCount", func() (err error) {
		nonce, err = c.client.NonceAt(ctx, account, nil)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction count of %s: %w", account.Hex(), err)
	}
	return nonce, nil
}

// PendingNonceAt returns the pending-inclusive transaction count of an account
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.call("eth_getTransactionCount_pending", func() (err error) {
		nonce, err = c.client.PendingNonceAt(ctx, account)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get pending nonce of %s: %w", account.Hex(), err)
	}
	return nonce, nil
}

// SuggestGasPrice returns the current gas price
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := c.call("eth_gasPrice", func() (err error) {
		price, err = c.client.SuggestGasPrice(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return price, nil
}

// SendTransaction broadcasts a signed transaction
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	err := c.call("eth_sendRawTransaction", func() error {
		return c.client.SendTransaction(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("failed to send transaction %s: %w", tx.Hash().Hex(), err)
	}
	return nil
}

// TransactionReceipt returns the receipt of a mined transaction.
// goethereum.NotFound is returned unchanged while the transaction is pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := c.call("eth_getTransactionReceipt", func() (err error) {
		receipt, err = c.client.TransactionReceipt(ctx, txHash)
		return err
	})
	if errors.Is(err, goethereum.NotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt of %s: %w", txHash.Hex(), err)
	}
	return receipt, nil
}

// IsContract reports whether code is deployed at the address. Results are memoized.
func (c *Client) IsContract(ctx context.Context, account common.Address) (bool, error) {
	c.mu.Lock()
	cached, ok := c.code[account]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var code []byte
	err := c.call("eth_getCode", func() (err error) {
		code, err = c.client.CodeAt(ctx, account, nil)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to get code at %s: %w", account.Hex(), err)
	}

	isContract := len(code) > 0
	c.mu.Lock()
	c.code[account] = isContract
	c.mu.Unlock()
	return isContract, nil
}

func (c *Client) bridge(address common.Address) (*contracts.Bridge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.bridges[address]; ok {
		return b, nil
	}
	b, err := contracts.NewBridge(address, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to bind bridge contract %s: %w", address.Hex(), err)
	}
	c.bridges[address] = b
	return b, nil
}

// FilterCrossTransfers returns the AcceptedCrossTransfer events of a bridge in the inclusive block range
func (c *Client) FilterCrossTransfers(
	ctx context.Context,
	bridgeAddress common.Address,
	fromBlock, toBlock uint64,
) ([]*CrossTransferEvent, error) {
	bridge, err := c.bridge(bridgeAddress)
	if err != nil {
		return nil, err
	}

	var events []*CrossTransferEvent
	err = c.call("eth_getLogs", func() error {
		opts := &bind.FilterOpts{
			Start:   fromBlock,
			End:     &toBlock,
			Context: ctx,
		}
		iter, err := bridge.FilterAcceptedCrossTransfer(opts, nil, nil)
		if err != nil {
			return err
		}
		defer iter.Close()

		for iter.Next() {
			ev := iter.Event
			events = append(events, &CrossTransferEvent{
				Contract:        ev.Raw.Address,
				TokenAddress:    ev.TokenAddress,
				To:              ev.To,
				Amount:          ev.Amount,
				Decimals:        ev.Decimals,
				Granularity:     ev.Granularity,
				FormattedAmount: ev.FormattedAmount,
				UserData:        ev.UserData,
				BlockNumber:     ev.Raw.BlockNumber,
				BlockHash:       ev.Raw.BlockHash,
				TxHash:          ev.Raw.TxHash,
				LogIndex:        ev.Raw.Index,
			})
		}
		return iter.Error()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter AcceptedCrossTransfer events in [%d, %d]: %w", fromBlock, toBlock, err)
	}

	c.logger.Debug("Fetched bridge events",
		zap.String("bridge", bridgeAddress.Hex()),
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", toBlock),
		zap.Int("count", len(events)))
	return events, nil
}

// IsKnownOriginToken reports whether the bridge treats the token as native to this chain
func (c *Client) IsKnownOriginToken(ctx context.Context, bridgeAddress, token common.Address) (bool, error) {
	bridge, err := c.bridge(bridgeAddress)
	if err != nil {
		return false, err
	}
	var known bool
	err = c.call("bridge_knownTokens", func() (err error) {
		known, err = bridge.KnownTokens(&bind.CallOpts{Context: ctx}, token)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to call knownTokens(%s): %w", token.Hex(), err)
	}
	return known, nil
}

// MappedSideToken returns the side token the bridge minted for an origin chain token
func (c *Client) MappedSideToken(ctx context.Context, bridgeAddress, token common.Address) (common.Address, error) {
	bridge, err := c.bridge(bridgeAddress)
	if err != nil {
		return common.Address{}, err
	}
	var side common.Address
	err = c.call("bridge_mappedTokens", func() (err error) {
		side, err = bridge.MappedTokens(&bind.CallOpts{Context: ctx}, token)
		return err
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to call mappedTokens(%s): %w", token.Hex(), err)
	}
	return side, nil
}

// TokenSymbol returns the ERC20 symbol of a token
func (c *Client) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	erc20, err := contracts.NewERC20Caller(token, c.client)
	if err != nil {
		return "", fmt.Errorf("failed to bind token %s: %w", token.Hex(), err)
	}
	var symbol string
	err = c.call("erc20_symbol", func() (err error) {
		symbol, err = erc20.Symbol(&bind.CallOpts{Context: ctx})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get symbol of %s: %w", token.Hex(), err)
	}
	return symbol, nil
}

// TokenDecimals returns the ERC20 decimals of a token
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	erc20, err := contracts.NewERC20Caller(token, c.client)
	if err != nil {
		return 0, fmt.Errorf("failed to bind token %s: %w", token.Hex(), err)
	}
	var decimals uint8
	err = c.call("erc20_decimals", func() (err error) {
		decimals, err = erc20.Decimals(&bind.CallOpts{Context: ctx})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get decimals of %s: %w", token.Hex(), err)
	}
	return decimals, nil
}
