// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/yaxeku/pumpfun-bundler/internal/types"
)

type Config struct {
	License            string `mapstructure:"license"`
	KeygenAccountID    string `mapstructure:"keygen_account_id"`
	KeygenProductToken string `mapstructure:"keygen_product_token"`
	KeygenProductID    string `mapstructure:"keygen_product_id"`

	RPCList     []string `mapstructure:"rpc_list"`
	QuoteAPIURL string   `mapstructure:"quote_api_url"`
	Mint        string   `mapstructure:"mint"`
	WalletsFile string   `mapstructure:"wallets_file"`

	RequestsPerSecond  int `mapstructure:"requests_per_second"`
	MaxRetries         int `mapstructure:"max_retries"`
	BaseDelayMs        int `mapstructure:"base_delay_ms"`
	NetworkDelayMs     int `mapstructure:"network_delay_ms"`
	RateLimitInitialMs int `mapstructure:"rate_limit_initial_ms"`
	RateLimitCapMs     int `mapstructure:"rate_limit_cap_ms"`
	StatusPollMs       int `mapstructure:"status_poll_ms"`
	StatusPollChecks   int `mapstructure:"status_poll_checks"`

	StaggerMs      int  `mapstructure:"stagger_ms"`
	CreatorFirst   bool `mapstructure:"creator_first"`
	InitialDelayMs int  `mapstructure:"initial_delay_ms"`

	SlippageBps  int    `mapstructure:"slippage_bps"`
	PriorityTier string `mapstructure:"priority_tier"`

	Trigger       string  `mapstructure:"trigger"`
	MarketCapSOL  float64 `mapstructure:"market_cap_sol"`
	TriggerPollMs int     `mapstructure:"trigger_poll_ms"`

	ExportDir    string `mapstructure:"export_dir"`
	ExportFormat string `mapstructure:"export_format"`

	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

const (
	TriggerManual    = "manual"
	TriggerMarketCap = "marketcap"

	DefaultQuoteAPIURL       = "https://quote-api.jup.ag/v6"
	DefaultRequestsPerSecond = 10
	DefaultMaxRetries        = 500
	DefaultBaseDelayMs       = 200
	DefaultNetworkDelayMs    = 500
	DefaultRateLimitInitMs   = 1000
	DefaultRateLimitCapMs    = 15000
	DefaultStatusPollMs      = 500
	DefaultStatusPollChecks  = 10
	DefaultSlippageBps       = 300
	DefaultTriggerPollMs     = 500
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"quote_api_url":         DefaultQuoteAPIURL,
		"requests_per_second":   DefaultRequestsPerSecond,
		"max_retries":           DefaultMaxRetries,
		"base_delay_ms":         DefaultBaseDelayMs,
		"network_delay_ms":      DefaultNetworkDelayMs,
		"rate_limit_initial_ms": DefaultRateLimitInitMs,
		"rate_limit_cap_ms":     DefaultRateLimitCapMs,
		"status_poll_ms":        DefaultStatusPollMs,
		"status_poll_checks":    DefaultStatusPollChecks,
		"slippage_bps":          DefaultSlippageBps,
		"priority_tier":         string(types.PriorityMedium),
		"trigger":               TriggerManual,
		"trigger_poll_ms":       DefaultTriggerPollMs,
		"export_format":         "csv",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.License == "" {
		return errors.New("missing license in configuration")
	}
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if err := validateURLWithCache(cfg.QuoteAPIURL, "http"); err != nil {
		return errors.New("invalid quote API URL protocol")
	}
	if cfg.Mint == "" {
		return errors.New("missing mint in configuration")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.Mint); err != nil {
		return fmt.Errorf("invalid mint address: %w", err)
	}
	if cfg.WalletsFile == "" {
		return errors.New("missing wallets_file in configuration")
	}
	if _, err := types.ParsePriorityLevel(cfg.PriorityTier); err != nil {
		return err
	}
	if err := validateTrigger(cfg); err != nil {
		return err
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	switch cfg.ExportFormat {
	case "", "csv", "json":
	default:
		return fmt.Errorf("unknown export_format: %q", cfg.ExportFormat)
	}
	return nil
}

func validateTrigger(cfg *Config) error {
	switch cfg.Trigger {
	case TriggerManual:
		return nil
	case TriggerMarketCap:
		if cfg.MarketCapSOL <= 0 {
			return errors.New("marketcap trigger requires market_cap_sol > 0")
		}
		return nil
	default:
		return fmt.Errorf("unknown trigger: %q", cfg.Trigger)
	}
}

func validateNumericParams(cfg *Config) error {
	if cfg.RequestsPerSecond <= 0 {
		return errors.New("invalid requests_per_second")
	}
	if cfg.MaxRetries <= 0 {
		return errors.New("invalid max_retries")
	}
	if cfg.BaseDelayMs <= 0 {
		return errors.New("invalid base_delay_ms")
	}
	if cfg.NetworkDelayMs <= 0 {
		return errors.New("invalid network_delay_ms")
	}
	if cfg.RateLimitInitialMs <= 0 || cfg.RateLimitCapMs < cfg.RateLimitInitialMs {
		return errors.New("invalid rate limit backoff bounds")
	}
	if cfg.StatusPollMs <= 0 || cfg.StatusPollChecks <= 0 {
		return errors.New("invalid status poll parameters")
	}
	if cfg.StaggerMs < 0 || cfg.InitialDelayMs < 0 {
		return errors.New("invalid launch delay parameters")
	}
	if cfg.SlippageBps <= 0 || cfg.SlippageBps > 10_000 {
		return errors.New("invalid slippage_bps")
	}
	if cfg.TriggerPollMs <= 0 {
		return errors.New("invalid trigger_poll_ms")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("PUMPFUN_BUNDLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envLicense := v.GetString("LICENSE")
	if envLicense != "" {
		cfg.License = envLicense
	}

	envMint := v.GetString("MINT")
	if envMint != "" {
		cfg.Mint = envMint
	}

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
	return nil
}
