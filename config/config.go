// Package config loads the runtime configuration of the governance client from a YAML file and
// SX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/retry"
)

// LogConfig is the logging configuration.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`             // debug, info, warn or error
	Development bool   `mapstructure:"development" yaml:"development"` // Human readable console output
}

// ChainConfig is the per network connection configuration, keyed by network name.
type ChainConfig struct {
	RPCURLs    []string `mapstructure:"rpc_urls" yaml:"rpc_urls"`       // Endpoints in order of preference
	RelayerURL string   `mapstructure:"relayer_url" yaml:"relayer_url"` // Relay endpoint for signature flows
}

// AnchoringConfig is the configuration of the L2 timestamp to L1 block anchoring service.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type AnchoringConfig struct {
	URL    string `mapstructure:"url" yaml:"url"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // Secret: anchoring service API key
}

// MetadataConfig configures fetching of strategy metadata payloads.
type MetadataConfig struct {
	IPFSGateway string        `mapstructure:"ipfs_gateway" yaml:"ipfs_gateway"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RetryConfig is the bounded retry policy of every "wait for external state" call site.
type RetryConfig struct {
	MaxAttempts uint          `mapstructure:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	Backoff     string        `mapstructure:"backoff" yaml:"backoff"` // fixed or exponential
}

// CacheConfig sizes the resolver cache.
type CacheConfig struct {
	Size int `mapstructure:"size" yaml:"size"`
}

// SignerConfig holds the keys the CLI signs with.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type SignerConfig struct {
	EVMPrivateKey string `mapstructure:"evm_private_key" yaml:"evm_private_key"` // Secret: hex private key
	KMSKeyID      string `mapstructure:"kms_key_id" yaml:"kms_key_id"`           // AWS KMS key signing instead of the private key
	KMSKeyRegion  string `mapstructure:"kms_key_region" yaml:"kms_key_region"`
	AWSProfile    string `mapstructure:"aws_profile" yaml:"aws_profile"`
}

// Config wraps the entire configuration of the governance client.
type Config struct {
	Log       LogConfig              `mapstructure:"log" yaml:"log"`
	Manifests []string               `mapstructure:"manifests" yaml:"manifests"` // Network manifest files
	Chains    map[string]ChainConfig `mapstructure:"chains" yaml:"chains"`
	L1        ChainConfig            `mapstructure:"l1" yaml:"l1"` // L1 endpoints used for storage proofs
	Anchoring AnchoringConfig        `mapstructure:"anchoring" yaml:"anchoring"`
	Metadata  MetadataConfig         `mapstructure:"metadata" yaml:"metadata"`
	Retry     RetryConfig            `mapstructure:"retry" yaml:"retry"`
	Cache     CacheConfig            `mapstructure:"cache" yaml:"cache"`
	Signer    SignerConfig           `mapstructure:"signer" yaml:"signer"`
}

// Chain returns the connection configuration of a network.
func (c *Config) Chain(name string) (ChainConfig, error) {
	chain, ok := c.Chains[name]
	if !ok {
		return ChainConfig{}, fmt.Errorf("no chain configuration for network %q", name)
	}

	return chain, nil
}

// RetryPolicy converts the retry configuration to a retry.Policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		Delay:       c.Retry.Delay,
		MaxDelay:    c.Retry.MaxDelay,
		Backoff:     retry.Backoff(c.Retry.Backoff),
	}
}

// Logger builds the logger described by the log configuration.
func (c *Config) Logger() (logger.Logger, error) {
	lvl, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	lc := logger.Config{Level: lvl, Development: c.Log.Development}

	return lc.New()
}

// Validate checks the values that have no usable zero value.
func (c *Config) Validate() error {
	if c.Cache.Size <= 0 {
		return errors.New("cache.size must be positive")
	}
	switch retry.Backoff(c.Retry.Backoff) {
	case retry.BackoffFixed, retry.BackoffExponential:
	default:
		return fmt.Errorf("retry.backoff must be %q or %q, got %q", retry.BackoffFixed, retry.BackoffExponential, c.Retry.Backoff)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	// If the config file exists, we continue to read it, otherwise we fallback to using
	// environment variables
	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := newViper()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadFile loads the config from the file path only, ignoring environment variables.
func LoadFile(filePath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	policy := retry.DefaultPolicy()
	v.SetDefault("log.level", "info")
	v.SetDefault("metadata.ipfs_gateway", "https://ipfs.io")
	v.SetDefault("metadata.timeout", 10*time.Second)
	v.SetDefault("retry.max_attempts", policy.MaxAttempts)
	v.SetDefault("retry.delay", policy.Delay)
	v.SetDefault("retry.max_delay", policy.MaxDelay)
	v.SetDefault("retry.backoff", string(policy.Backoff))
	v.SetDefault("cache.size", 512)

	return v
}

var (
	// envBindings defines how environment variables map to configuration keys used by Viper.
	// The first name is preferred; later names are accepted for compatibility with the
	// variable names commonly used by governance tooling.
	envBindings = map[string][]string{
		"log.level":              {"SX_LOG_LEVEL"},
		"log.development":        {"SX_LOG_DEVELOPMENT"},
		"manifests":              {"SX_MANIFESTS"},
		"l1.rpc_urls":            {"SX_L1_RPC_URLS", "L1_RPC_URL"},
		"anchoring.url":          {"SX_ANCHORING_URL", "HERODOTUS_API_URL"},
		"anchoring.api_key":      {"SX_ANCHORING_API_KEY", "HERODOTUS_API_KEY"},
		"metadata.ipfs_gateway":  {"SX_METADATA_IPFS_GATEWAY"},
		"metadata.timeout":       {"SX_METADATA_TIMEOUT"},
		"retry.max_attempts":     {"SX_RETRY_MAX_ATTEMPTS"},
		"retry.delay":            {"SX_RETRY_DELAY"},
		"retry.max_delay":        {"SX_RETRY_MAX_DELAY"},
		"retry.backoff":          {"SX_RETRY_BACKOFF"},
		"cache.size":             {"SX_CACHE_SIZE"},
		"signer.evm_private_key": {"SX_SIGNER_EVM_PRIVATE_KEY", "PRIVATE_KEY"},
		"signer.kms_key_id":      {"SX_SIGNER_KMS_KEY_ID"},
		"signer.kms_key_region":  {"SX_SIGNER_KMS_KEY_REGION"},
		"signer.aws_profile":     {"SX_SIGNER_AWS_PROFILE"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(envs, 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
