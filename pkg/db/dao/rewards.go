package dao

import (
	"time"

	"github.com/uptrace/bun"
)

// RewardDao is a data access object that maps directly to the 'rewards' table in PostgreSQL.
type RewardDao struct {
	bun.BaseModel `bun:"table:rewards,alias:r"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Status        string `bun:"status,notnull,type:varchar(32)"`
	UserAddress   string `bun:"user_address,notnull,type:varchar(42)"`
	RewardWei     string `bun:"reward_rbtc_wei,notnull,type:numeric(78,0)"`

	DepositSideTokenAddress   string `bun:"deposit_side_token_address,notnull,type:varchar(42)"`
	DepositSideTokenSymbol    string `bun:"deposit_side_token_symbol,notnull,type:varchar(64)"`
	DepositMainTokenAddress   string `bun:"deposit_main_token_address,notnull,type:varchar(42)"`
	DepositAmountMinusFeesWei string `bun:"deposit_amount_minus_fees_wei,notnull,type:numeric(78,0)"`
	DepositAmountDecimal      string `bun:"deposit_amount_decimal,notnull,type:numeric"`
	DepositBlockNumber        int64  `bun:"deposit_block_number,notnull"`
	DepositBlockHash          string `bun:"deposit_block_hash,notnull,type:varchar(66)"`
	DepositTransactionHash    string `bun:"deposit_transaction_hash,notnull,type:varchar(66)"`
	DepositLogIndex           int64  `bun:"deposit_log_index,notnull,use_zero"`
	DepositContractAddress    string `bun:"deposit_contract_address,notnull,type:varchar(42)"`

	RewardTransactionHash  *string `bun:"reward_transaction_hash,type:varchar(66)"`
	RewardTransactionNonce *int64  `bun:"reward_transaction_nonce"`

	CreatedAt time.Time  `bun:"created_at,notnull,nullzero,default:current_timestamp"`
	SentAt    *time.Time `bun:"sent_at"`
}
