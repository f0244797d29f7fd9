package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// OperatorKeyEnv overrides rewarder.operator_private_key when set.
const OperatorKeyEnv = "REWARDER_OPERATOR_PRIVATE_KEY"

var (
	maxRewardRBTC           = decimal.RequireFromString("0.1")
	maxDepositFeePercentage = decimal.RequireFromString("0.1")
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Chain      ChainConfig      `yaml:"chain"`
	Bridges    []BridgeConfig   `yaml:"bridges" validate:"required,min=1,dive"`
	Rewarder   RewarderConfig   `yaml:"rewarder"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port int    `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" default:"5432" validate:"gt=0,lte=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"bridge_rewarder"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`
}

// ChainConfig contains settings for the destination chain RPC endpoint
type ChainConfig struct {
	RPCURL                     string        `yaml:"rpc_url" validate:"required,url"`
	ExplorerURL                string        `yaml:"explorer_url" validate:"omitempty,url"`
	DefaultStartBlock          uint64        `yaml:"default_start_block"`
	RequiredBlockConfirmations uint64        `yaml:"required_block_confirmations" default:"10"`
	RequestsPerSecond          int           `yaml:"requests_per_second" default:"20" validate:"gt=0"`
	MaxGasPriceGwei            int64         `yaml:"max_gas_price_gwei" default:"10" validate:"gt=0"`
	ReceiptTimeout             time.Duration `yaml:"receipt_timeout" default:"5m"`
	ReceiptPollInterval        time.Duration `yaml:"receipt_poll_interval" default:"2s"`
}

// BridgeConfig names one bridge contract whose AcceptedCrossTransfer events are scanned
type BridgeConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Address string `yaml:"address" validate:"required,eth_addr"`
}

// RewarderConfig contains reward policy and loop settings
type RewarderConfig struct {
	OperatorPrivateKey     string                     `yaml:"operator_private_key"`
	RewardRBTC             decimal.Decimal            `yaml:"reward_rbtc"`
	DepositFeePercentage   decimal.Decimal            `yaml:"deposit_fee_percentage"`
	RewardThresholds       map[string]decimal.Decimal `yaml:"reward_thresholds"`
	SkipContractRecipients bool                       `yaml:"skip_contract_recipients"`
	PollInterval           time.Duration              `yaml:"poll_interval" default:"30s"`
	ErrorCooldown          time.Duration              `yaml:"error_cooldown" default:"60s"`
	BatchSize              uint64                     `yaml:"batch_size" default:"100" validate:"gte=1"`
	FetchRetries           uint64                     `yaml:"fetch_retries" default:"3"`
	MaxPendingTransactions int                        `yaml:"max_pending_transactions" default:"4" validate:"gte=1"`
	GasLimit               uint64                     `yaml:"gas_limit" default:"21000" validate:"gte=21000"`
	RetryMaxAttempts       uint64                     `yaml:"retry_max_attempts" default:"10"`
	RetryMaxBackoff        time.Duration              `yaml:"retry_max_backoff" default:"256s"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// Load loads configuration from a YAML file, applies defaults and validates the result
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML configuration bytes
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if key := os.Getenv(OperatorKeyEnv); key != "" {
		cfg.Rewarder.OperatorPrivateKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadDatabase reads only the database section, so migrations run without chain or key settings
func LoadDatabase(configPath string) (*DatabaseConfig, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg struct {
		Database DatabaseConfig `yaml:"database"`
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg.Database); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg.Database, nil
}

// Validate checks structural constraints first, then the reward policy limits
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Rewarder.OperatorPrivateKey == "" {
		return fmt.Errorf("rewarder.operator_private_key is required (or set %s)", OperatorKeyEnv)
	}

	seen := make(map[string]bool, len(c.Bridges))
	for _, b := range c.Bridges {
		if seen[b.Name] {
			return fmt.Errorf("duplicate bridge name %q", b.Name)
		}
		seen[b.Name] = true
		if !common.IsHexAddress(b.Address) {
			return fmt.Errorf("bridge %s address %q is not a valid hex address", b.Name, b.Address)
		}
	}

	r := c.Rewarder
	if !r.RewardRBTC.IsPositive() {
		return errors.New("rewarder.reward_rbtc must be positive")
	}
	if r.RewardRBTC.GreaterThan(maxRewardRBTC) {
		return fmt.Errorf(
			"rewarder.reward_rbtc %s is dangerously high, was the amount given in wei instead of decimal?",
			r.RewardRBTC.String(),
		)
	}
	if r.DepositFeePercentage.IsNegative() || r.DepositFeePercentage.GreaterThan(maxDepositFeePercentage) {
		return fmt.Errorf("rewarder.deposit_fee_percentage %s must be between 0 and 0.1", r.DepositFeePercentage.String())
	}
	if len(r.RewardThresholds) == 0 {
		return errors.New("rewarder.reward_thresholds is empty, no rewards would be given")
	}
	for symbol, threshold := range r.RewardThresholds {
		if strings.TrimSpace(symbol) == "" {
			return errors.New("rewarder.reward_thresholds contains an empty token symbol")
		}
		if !threshold.IsPositive() {
			return fmt.Errorf("rewarder.reward_thresholds[%s] must be positive", symbol)
		}
	}
	return nil
}

// BridgeAddresses returns the configured bridge addresses in configuration order
func (c *Config) BridgeAddresses() []common.Address {
	addrs := make([]common.Address, len(c.Bridges))
	for i, b := range c.Bridges {
		addrs[i] = common.HexToAddress(b.Address)
	}
	return addrs
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
