package deposits

import (
	"context"

	"github.com/chainsafe/bridge-rewarder/pkg/ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type mockEventSource struct {
	FilterCrossTransfersFunc func(ctx context.Context, bridge common.Address, fromBlock, toBlock uint64) ([]*ethereum.CrossTransferEvent, error)
}

func (m *mockEventSource) FilterCrossTransfers(ctx context.Context, bridge common.Address, fromBlock, toBlock uint64) ([]*ethereum.CrossTransferEvent, error) {
	if m.FilterCrossTransfersFunc != nil {
		return m.FilterCrossTransfersFunc(ctx, bridge, fromBlock, toBlock)
	}
	return nil, nil
}

type mockTokenResolver struct {
	EndpointFunc           func() string
	IsKnownOriginTokenFunc func(ctx context.Context, bridge, token common.Address) (bool, error)
	MappedSideTokenFunc    func(ctx context.Context, bridge, token common.Address) (common.Address, error)
	TokenSymbolFunc        func(ctx context.Context, token common.Address) (string, error)
	TokenDecimalsFunc      func(ctx context.Context, token common.Address) (uint8, error)
}

func (m *mockTokenResolver) Endpoint() string {
	if m.EndpointFunc != nil {
		return m.EndpointFunc()
	}
	return "http://localhost:4444"
}

func (m *mockTokenResolver) IsKnownOriginToken(ctx context.Context, bridge, token common.Address) (bool, error) {
	if m.IsKnownOriginTokenFunc != nil {
		return m.IsKnownOriginTokenFunc(ctx, bridge, token)
	}
	return false, nil
}

func (m *mockTokenResolver) MappedSideToken(ctx context.Context, bridge, token common.Address) (common.Address, error) {
	if m.MappedSideTokenFunc != nil {
		return m.MappedSideTokenFunc(ctx, bridge, token)
	}
	return common.Address{}, nil
}

func (m *mockTokenResolver) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	if m.TokenSymbolFunc != nil {
		return m.TokenSymbolFunc(ctx, token)
	}
	return "", nil
}

func (m *mockTokenResolver) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	if m.TokenDecimalsFunc != nil {
		return m.TokenDecimalsFunc(ctx, token)
	}
	return 18, nil
}
