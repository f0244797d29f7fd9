package db

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// RewardStatus is the lifecycle state of a reward
type RewardStatus string

const (
	RewardStatusQueued          RewardStatus = "queued"
	RewardStatusSending         RewardStatus = "sending"
	RewardStatusSent            RewardStatus = "sent"
	RewardStatusConfirmed       RewardStatus = "confirmed"
	RewardStatusErrorSending    RewardStatus = "error_sending"
	RewardStatusErrorConfirming RewardStatus = "error_confirming"
)

// RewardStatuses lists every status in lifecycle order
var RewardStatuses = []RewardStatus{
	RewardStatusQueued,
	RewardStatusSending,
	RewardStatusSent,
	RewardStatusConfirmed,
	RewardStatusErrorSending,
	RewardStatusErrorConfirming,
}

// IsTerminal reports whether no further transition is made automatically
func (s RewardStatus) IsTerminal() bool {
	switch s {
	case RewardStatusConfirmed, RewardStatusErrorSending, RewardStatusErrorConfirming:
		return true
	default:
		return false
	}
}

// LastProcessedBlockKey is the BlockInfo key of the scanning progress marker
const LastProcessedBlockKey = "last_processed_block"

// Reward is a one-time native currency reward owed to a depositing user.
// Rows are never deleted.
type Reward struct {
	ID          int64
	Status      RewardStatus
	UserAddress string
	RewardWei   *big.Int

	DepositSideTokenAddress   string
	DepositSideTokenSymbol    string
	DepositMainTokenAddress   string
	DepositAmountMinusFeesWei *big.Int
	DepositAmountDecimal      decimal.Decimal
	DepositBlockNumber        uint64
	DepositBlockHash          string
	DepositTransactionHash    string
	DepositLogIndex           uint
	DepositContractAddress    string

	RewardTransactionHash  string
	RewardTransactionNonce *uint64

	CreatedAt time.Time
	SentAt    *time.Time
}
