package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// NetworkConfig holds the connection and custody settings for one EVM network
type NetworkConfig struct {
	RPCUrl   string  `mapstructure:"rpc_url"`
	ChainID  uint64  `mapstructure:"chain_id"`
	Custody  string  `mapstructure:"custody"` // platform destination address for this network
	GasLimit *uint64 `mapstructure:"gas_limit"`
	GasPrice *int64  `mapstructure:"gas_price"`
}

// Config holds the application configuration
type Config struct {
	AggregatorJWT     string                   `mapstructure:"aggregator_jwt"`
	AggregatorBaseURL string                   `mapstructure:"aggregator_base_url"`
	PrivateKey        string                   `mapstructure:"private_key"`
	DefaultNetwork    string                   `mapstructure:"default_network"`
	Networks          map[string]NetworkConfig `mapstructure:"networks"`
	USDINRRate        float64                  `mapstructure:"usd_inr_rate"`
	SessionsFile      string                   `mapstructure:"sessions_file"`
	AutoConfirm       bool                     `mapstructure:"auto_confirm"`
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".rampa")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("aggregator_base_url", "https://1click.chaindefuser.com")
	viper.SetDefault("default_network", "ethereum")
	viper.SetDefault("usd_inr_rate", 83.0)

	// Read from environment variables
	viper.SetEnvPrefix("RAMPA")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Env vars bypass Unmarshal for plain keys, so pick them up explicitly
	if cfg.AggregatorJWT == "" {
		cfg.AggregatorJWT = viper.GetString("aggregator_jwt")
	}
	if cfg.PrivateKey == "" {
		cfg.PrivateKey = viper.GetString("private_key")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

// Network returns the configuration for the named network
func (c *Config) Network(name string) (NetworkConfig, error) {
	network, exists := c.Networks[name]
	if !exists {
		return NetworkConfig{}, fmt.Errorf("network %s not configured", name)
	}
	if network.RPCUrl == "" {
		return NetworkConfig{}, fmt.Errorf("RPC URL not configured for network %s", name)
	}
	return network, nil
}
