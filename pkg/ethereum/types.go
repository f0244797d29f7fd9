package ethereum

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CrossTransferEvent is an AcceptedCrossTransfer log emitted by a bridge contract
type CrossTransferEvent struct {
	Contract        common.Address
	TokenAddress    common.Address
	To              common.Address
	Amount          *big.Int
	Decimals        uint8
	Granularity     *big.Int
	FormattedAmount *big.Int
	UserData        []byte
	BlockNumber     uint64
	BlockHash       common.Hash
	TxHash          common.Hash
	LogIndex        uint
}
