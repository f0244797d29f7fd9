// Package deposits turns AcceptedCrossTransfer logs into normalized deposit records.
package deposits

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Bridge is a configured bridge contract
type Bridge struct {
	Name    string
	Address common.Address
}

// Deposit is a token transfer into the destination chain. Addresses are lowercase hex.
type Deposit struct {
	UserAddress        string
	SideTokenAddress   string
	SideTokenSymbol    string
	MainTokenAddress   string
	AmountMinusFeesWei *big.Int
	// AmountDecimal estimates the amount before the bridge fee; it only feeds the threshold check
	AmountDecimal   decimal.Decimal
	BlockNumber     uint64
	BlockHash       string
	TransactionHash string
	LogIndex        uint
	ContractAddress string
	BridgeName      string
}

// Key identifies the originating log
func (d *Deposit) Key() string {
	return fmt.Sprintf("%s:%d", d.TransactionHash, d.LogIndex)
}

// SideToken is the destination chain representation of a bridged token
type SideToken struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

func lowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
