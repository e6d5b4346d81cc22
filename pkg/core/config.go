package core

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"ergoprover/pkg/address"
	"ergoprover/pkg/cost"
)

// Config holds the ledger parameters and prover settings
type Config struct {
	// Network selects the address prefix: "mainnet" or "testnet"
	Network string `toml:"network"`

	// Block-wide validation budget shared by all inputs of a transaction
	MaxBlockCost int64      `toml:"max_block_cost"`
	Costs        cost.Table `toml:"costs"`

	// Legacy BIP-32 child derivation for wallets created before the padding fix
	UsePre1627KeyDerivation bool `toml:"use_pre1627_derivation"`

	// Logging
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns mainnet parameters
func DefaultConfig() *Config {
	return &Config{
		Network:      "mainnet",
		MaxBlockCost: 1_000_000,
		Costs:        cost.DefaultTable(),
		LogLevel:     "info",
	}
}

// LoadConfig decodes a TOML file over the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("failed to load config %s: unknown keys %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if _, err := c.NetworkType(); err != nil {
		return err
	}
	if c.MaxBlockCost <= 0 {
		return fmt.Errorf("max_block_cost must be positive, got %d", c.MaxBlockCost)
	}
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// NetworkType returns the address network of the configuration
func (c *Config) NetworkType() (address.NetworkType, error) {
	return address.ParseNetwork(c.Network)
}

// Level returns the configured zerolog level
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q: %v", c.LogLevel, err)
	}
	return lvl, nil
}
