// Package dashboard serves a read-only JSON view of the rewarder state.
package dashboard

import "time"

// StatusResponse describes the rewarder configuration and progress
type StatusResponse struct {
	LastProcessedBlock  *uint64           `json:"last_processed_block"`
	OperatorAddress     string            `json:"operator_address"`
	OperatorURL         string            `json:"operator_url,omitempty"`
	OperatorBalanceWei  string            `json:"operator_balance_wei,omitempty"`
	OperatorBalanceRBTC string            `json:"operator_balance_rbtc,omitempty"`
	RPCURL              string            `json:"rpc_url"`
	ExplorerURL         string            `json:"explorer_url,omitempty"`
	Bridges             []BridgeResponse  `json:"bridges"`
	RewardThresholds    map[string]string `json:"reward_thresholds"`
	RewardRBTC          string            `json:"reward_rbtc"`
	RewardCounts        map[string]int    `json:"reward_counts"`
}

// BridgeResponse is one configured bridge contract
type BridgeResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	URL     string `json:"url,omitempty"`
}

// RewardResponse is one reward with explorer links
type RewardResponse struct {
	ID                     int64      `json:"id"`
	Status                 string     `json:"status"`
	UserAddress            string     `json:"user_address"`
	UserURL                string     `json:"user_url,omitempty"`
	RewardWei              string     `json:"reward_rbtc_wei"`
	RewardRBTC             string     `json:"reward_rbtc"`
	DepositSideTokenSymbol string     `json:"deposit_side_token_symbol"`
	DepositSideToken       string     `json:"deposit_side_token_address"`
	DepositMainToken       string     `json:"deposit_main_token_address"`
	DepositAmountWei       string     `json:"deposit_amount_minus_fees_wei"`
	DepositAmountDecimal   string     `json:"deposit_amount_decimal"`
	DepositBlockNumber     uint64     `json:"deposit_block_number"`
	DepositTransactionHash string     `json:"deposit_transaction_hash"`
	DepositTransactionURL  string     `json:"deposit_transaction_url,omitempty"`
	DepositLogIndex        uint       `json:"deposit_log_index"`
	DepositContract        string     `json:"deposit_contract_address"`
	RewardTransactionHash  string     `json:"reward_transaction_hash,omitempty"`
	RewardTransactionURL   string     `json:"reward_transaction_url,omitempty"`
	RewardTransactionNonce *uint64    `json:"reward_transaction_nonce,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	SentAt                 *time.Time `json:"sent_at,omitempty"`
}

// RewardsResponse lists the latest rewards, newest first
type RewardsResponse struct {
	Rewards []*RewardResponse `json:"rewards"`
	Limit   int               `json:"limit"`
}
