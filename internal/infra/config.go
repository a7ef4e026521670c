package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"perp_go/internal/domain"
)

// Config holds every application setting. Sensitive values are overridden
// from environment variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Network string `yaml:"network"` // "mainnet" or "testnet"

	API struct {
		Hyperliquid struct {
			MainnetURL   string `yaml:"mainnet_url"`
			TestnetURL   string `yaml:"testnet_url"`
			MainnetWSURL string `yaml:"mainnet_ws_url"`
			TestnetWSURL string `yaml:"testnet_ws_url"`
		} `yaml:"hyperliquid"`
		Wallet struct {
			Address    string `yaml:"address"`
			PrivateKey string `yaml:"private_key"`
		} `yaml:"wallet"`
	} `yaml:"api"`

	Poll struct {
		PricesIntervalSec    int `yaml:"prices_interval_sec"`
		PositionsIntervalSec int `yaml:"positions_interval_sec"`
		TradesIntervalSec    int `yaml:"trades_interval_sec"`
	} `yaml:"poll"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies environment
// overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if _, err := domain.ParseNetwork(c.Network); err != nil {
		return err
	}

	hl := c.API.Hyperliquid
	for _, u := range []string{hl.MainnetURL, hl.TestnetURL} {
		if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
			return fmt.Errorf("invalid Hyperliquid REST URL: %s", u)
		}
	}
	for _, u := range []string{hl.MainnetWSURL, hl.TestnetWSURL} {
		if !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
			return fmt.Errorf("invalid Hyperliquid WS URL: %s", u)
		}
	}

	if c.Poll.PricesIntervalSec <= 0 {
		return fmt.Errorf("prices poll interval must be positive")
	}
	if c.Poll.PositionsIntervalSec <= 0 {
		return fmt.Errorf("positions poll interval must be positive")
	}
	if c.Poll.TradesIntervalSec <= 0 {
		return fmt.Errorf("trades poll interval must be positive")
	}

	return nil
}

// SelectedNetwork returns the validated network.
func (c *Config) SelectedNetwork() domain.Network {
	n, _ := domain.ParseNetwork(c.Network)
	return n
}

// BaseURL returns the REST base URL for a network.
func (c *Config) BaseURL(n domain.Network) string {
	if n.IsTestnet() {
		return c.API.Hyperliquid.TestnetURL
	}
	return c.API.Hyperliquid.MainnetURL
}

// WSURL returns the websocket URL for a network.
func (c *Config) WSURL(n domain.Network) string {
	if n.IsTestnet() {
		return c.API.Hyperliquid.TestnetWSURL
	}
	return c.API.Hyperliquid.MainnetWSURL
}

// overrideWithEnv applies environment variables over file values.
// Environment always wins for secrets.
func overrideWithEnv(cfg *Config) {
	if cfg.API.Wallet.PrivateKey != "" {
		fmt.Println("⚠️  SECURITY WARNING: wallet private key found in config file.")
		fmt.Println("   Recommendation: use environment variables instead:")
		fmt.Println("   - PERP_WALLET_ADDRESS, PERP_PRIVATE_KEY")
	}

	if addr := os.Getenv("PERP_WALLET_ADDRESS"); addr != "" {
		cfg.API.Wallet.Address = addr
	}
	if key := os.Getenv("PERP_PRIVATE_KEY"); key != "" {
		cfg.API.Wallet.PrivateKey = key
	}
	if network := os.Getenv("PERP_NETWORK"); network != "" {
		cfg.Network = network
	}
}
