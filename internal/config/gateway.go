package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// GatewayConfig tunes the payment gateway client and the status poller.
// It lives in a file (gateway.yml) rather than the environment so operators
// can adjust polling behaviour without a restart.
type GatewayConfig struct {
	BaseURL        string `mapstructure:"baseUrl"`
	SecretKey      string `mapstructure:"secretKey"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`

	PollMaxAttempts       int `mapstructure:"pollMaxAttempts"`
	PollBackoffCapSeconds int `mapstructure:"pollBackoffCapSeconds"`
	TransientRetrySeconds int `mapstructure:"transientRetrySeconds"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		BaseURL:               "https://api.paymongo.com",
		TimeoutSeconds:        12,
		PollMaxAttempts:       20,
		PollBackoffCapSeconds: 30,
		TransientRetrySeconds: 5,
	}
}

type GatewayConfigHolder struct {
	current atomic.Value // holds GatewayConfig
}

func NewGatewayConfigHolder() (*GatewayConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("gateway")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/hanapark/config")
	v.AddConfigPath("/etc/hanapark")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HANAPARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGatewayConfig()
	v.SetDefault("gateway.baseUrl", defaults.BaseURL)
	v.SetDefault("gateway.timeoutSeconds", defaults.TimeoutSeconds)
	v.SetDefault("gateway.pollMaxAttempts", defaults.PollMaxAttempts)
	v.SetDefault("gateway.pollBackoffCapSeconds", defaults.PollBackoffCapSeconds)
	v.SetDefault("gateway.transientRetrySeconds", defaults.TransientRetrySeconds)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg GatewayConfig
	if err := v.UnmarshalKey("gateway", &cfg); err != nil {
		return nil, err
	}
	if err := validateGatewayConfig(cfg); err != nil {
		return nil, err
	}

	holder := &GatewayConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(fsnotify.Event) {
		var next GatewayConfig
		if err := v.UnmarshalKey("gateway", &next); err != nil {
			log.Printf("gateway config reload failed: %v", err)
			return
		}
		if err := validateGatewayConfig(next); err != nil {
			log.Printf("gateway config reload rejected: %v", err)
			return
		}
		holder.current.Store(next)
	})

	return holder, nil
}

func NewGatewayConfigHolderFrom(cfg GatewayConfig) *GatewayConfigHolder {
	holder := &GatewayConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *GatewayConfigHolder) Get() GatewayConfig {
	return h.current.Load().(GatewayConfig)
}

func validateGatewayConfig(cfg GatewayConfig) error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return errors.New("gateway baseUrl is required")
	}
	if cfg.TimeoutSeconds <= 0 {
		return errors.New("gateway timeoutSeconds must be positive")
	}
	if cfg.PollMaxAttempts <= 0 {
		return errors.New("gateway pollMaxAttempts must be positive")
	}
	if cfg.PollBackoffCapSeconds <= 0 {
		return errors.New("gateway pollBackoffCapSeconds must be positive")
	}
	if cfg.TransientRetrySeconds <= 0 {
		return errors.New("gateway transientRetrySeconds must be positive")
	}
	return nil
}
