package deposits

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chainsafe/bridge-rewarder/internal/metrics"
	"github.com/chainsafe/bridge-rewarder/pkg/ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrSideTokenNotFound is returned when the bridge has no mapping for an origin chain token
var ErrSideTokenNotFound = errors.New("side token not found")

// TokenResolver answers bridge and ERC20 queries
type TokenResolver interface {
	Endpoint() string
	IsKnownOriginToken(ctx context.Context, bridge, token common.Address) (bool, error)
	MappedSideToken(ctx context.Context, bridge, token common.Address) (common.Address, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
}

type tokenKey struct {
	endpoint string
	bridge   common.Address
	token    common.Address
}

type tokenEntry struct {
	side *SideToken
	err  error
}

// TokenCache memoizes side token lookups for the process lifetime.
// Origin tokens and missing mappings are cached too; RPC failures are not.
type TokenCache struct {
	mu      sync.Mutex
	entries map[tokenKey]tokenEntry
}

// NewTokenCache creates an empty cache
func NewTokenCache() *TokenCache {
	return &TokenCache{entries: make(map[tokenKey]tokenEntry)}
}

// Len returns the number of cached lookups
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SideToken resolves the side token of mainToken. A nil token with a nil error means
// mainToken originates on this chain and was not bridged in.
func (c *TokenCache) SideToken(
	ctx context.Context,
	resolver TokenResolver,
	bridge, mainToken common.Address,
) (*SideToken, error) {
	key := tokenKey{endpoint: resolver.Endpoint(), bridge: bridge, token: mainToken}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return entry.side, entry.err
	}

	side, err := resolveSideToken(ctx, resolver, bridge, mainToken)
	if err != nil && !errors.Is(err, ErrSideTokenNotFound) {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = tokenEntry{side: side, err: err}
	c.mu.Unlock()
	return side, err
}

func resolveSideToken(ctx context.Context, resolver TokenResolver, bridge, mainToken common.Address) (*SideToken, error) {
	isOrigin, err := resolver.IsKnownOriginToken(ctx, bridge, mainToken)
	if err != nil {
		return nil, err
	}
	if isOrigin {
		return nil, nil
	}

	sideAddress, err := resolver.MappedSideToken(ctx, bridge, mainToken)
	if err != nil {
		return nil, err
	}
	if sideAddress == (common.Address{}) {
		return nil, fmt.Errorf("%w for %s", ErrSideTokenNotFound, lowerHex(mainToken))
	}

	symbol, err := resolver.TokenSymbol(ctx, sideAddress)
	if err != nil {
		return nil, err
	}
	decimals, err := resolver.TokenDecimals(ctx, sideAddress)
	if err != nil {
		return nil, err
	}
	return &SideToken{Address: sideAddress, Symbol: symbol, Decimals: decimals}, nil
}

// Normalizer converts bridge events into deposits
type Normalizer struct {
	resolver      TokenResolver
	cache         *TokenCache
	feePercentage decimal.Decimal
	logger        *zap.Logger
}

// NewNormalizer creates a normalizer. feePercentage is the bridge fee as a fraction, e.g. 0.002.
func NewNormalizer(resolver TokenResolver, cache *TokenCache, feePercentage decimal.Decimal, logger *zap.Logger) *Normalizer {
	if cache == nil {
		cache = NewTokenCache()
	}
	return &Normalizer{
		resolver:      resolver,
		cache:         cache,
		feePercentage: feePercentage,
		logger:        logger.Named("normalizer"),
	}
}

// Normalize converts events of one bridge into deposits. Events of tokens that
// were not bridged in, have no side token or carry undecodable userData are
// logged and skipped. RPC failures abort the whole batch.
func (n *Normalizer) Normalize(ctx context.Context, bridge Bridge, events []*ethereum.CrossTransferEvent) ([]Deposit, error) {
	deposits := make([]Deposit, 0, len(events))
	seen := make(map[string]struct{}, len(events))

	for _, ev := range events {
		logger := n.logger.With(
			zap.String("bridge", bridge.Name),
			zap.String("tx_hash", ev.TxHash.Hex()),
			zap.Uint("log_index", ev.LogIndex))

		side, err := n.cache.SideToken(ctx, n.resolver, bridge.Address, ev.TokenAddress)
		switch {
		case errors.Is(err, ErrSideTokenNotFound):
			logger.Error("Side token not found", zap.String("main_token", lowerHex(ev.TokenAddress)))
			metrics.DepositsSkipped.WithLabelValues(bridge.Name, "side_token_not_found").Inc()
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to resolve side token of %s: %w", lowerHex(ev.TokenAddress), err)
		case side == nil:
			logger.Info("Token is not from another chain", zap.String("main_token", lowerHex(ev.TokenAddress)))
			metrics.DepositsSkipped.WithLabelValues(bridge.Name, "origin_token").Inc()
			continue
		}

		user := ev.To
		if len(ev.UserData) > 0 {
			decoded, err := ethereum.DecodeUserDataAddress(ev.UserData)
			if err != nil {
				logger.Warn("Skipping deposit with undecodable user data", zap.Error(err))
				metrics.DepositsSkipped.WithLabelValues(bridge.Name, "invalid_user_data").Inc()
				continue
			}
			user = decoded
		}

		d := Deposit{
			UserAddress:        lowerHex(user),
			SideTokenAddress:   lowerHex(side.Address),
			SideTokenSymbol:    side.Symbol,
			MainTokenAddress:   lowerHex(ev.TokenAddress),
			AmountMinusFeesWei: ev.FormattedAmount,
			AmountDecimal:      n.amountDecimal(ev, side),
			BlockNumber:        ev.BlockNumber,
			BlockHash:          ev.BlockHash.Hex(),
			TransactionHash:    ev.TxHash.Hex(),
			LogIndex:           ev.LogIndex,
			ContractAddress:    lowerHex(bridge.Address),
			BridgeName:         bridge.Name,
		}
		if _, dup := seen[d.Key()]; dup {
			logger.Warn("Duplicate event ignored")
			continue
		}
		seen[d.Key()] = struct{}{}

		metrics.DepositsDetected.WithLabelValues(bridge.Name, side.Symbol).Inc()
		deposits = append(deposits, d)
	}

	return deposits, nil
}

// amountDecimal is formattedAmount / 10^decimals / (1 - fee)
func (n *Normalizer) amountDecimal(ev *ethereum.CrossTransferEvent, side *SideToken) decimal.Decimal {
	if ev.FormattedAmount == nil {
		return decimal.Zero
	}
	amount := decimal.NewFromBigInt(ev.FormattedAmount, -int32(side.Decimals))
	return amount.Div(decimal.NewFromInt(1).Sub(n.feePercentage))
}
