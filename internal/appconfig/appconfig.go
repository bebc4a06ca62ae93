// Package appconfig manages loading and interpreting the tool host configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultN8NURL is used when no workflow engine URL is configured.
	DefaultN8NURL = "http://localhost:5678"
	// DefaultCoinGeckoURL is the public CoinGecko API root.
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	// DefaultHTTPAddr is the listen address of the HTTP transport.
	DefaultHTTPAddr = ":8080"
	// DefaultProfile registers every tool.
	DefaultProfile = "all"

	defaultCoinGeckoTimeout = 15 * time.Second
	defaultMCPInitTimeout   = 10 * time.Second
	defaultHTTPTimeout      = 60 * time.Second
)

// Config represents the top-level application configuration.
type Config struct {
	Debug          bool      `json:"debug" yaml:"debug" mapstructure:"debug"`
	LogFile        string    `json:"logFile,omitempty" yaml:"logFile,omitempty" mapstructure:"logFile"`
	Profile        string    `json:"profile,omitempty" yaml:"profile,omitempty" mapstructure:"profile"`
	N8N            N8N       `json:"n8n" yaml:"n8n" mapstructure:"n8n"`
	CoinGecko      CoinGecko `json:"coingecko" yaml:"coingecko" mapstructure:"coingecko"`
	HTTP           HTTP      `json:"http" yaml:"http" mapstructure:"http"`
	Telemetry      Telemetry `json:"telemetry" yaml:"telemetry" mapstructure:"telemetry"`
	MCPBinary      string    `json:"mcpBinary,omitempty" yaml:"mcpBinary,omitempty" mapstructure:"mcpBinary"`
	MCPInitTimeout int       `json:"mcpInitTimeout,omitempty" yaml:"mcpInitTimeout,omitempty" mapstructure:"mcpInitTimeout"`
	ConfigPath     string    `json:"-" yaml:"-" mapstructure:"-"`
}

// N8N configures the workflow engine adapter.
type N8N struct {
	URL    string `json:"url" yaml:"url" mapstructure:"url"`
	APIKey string `json:"apiKey,omitempty" yaml:"apiKey,omitempty" mapstructure:"apiKey"`
	// TimeoutSeconds overrides the per-operation timeouts when positive.
	TimeoutSeconds int `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// CoinGecko configures the price index adapter.
type CoinGecko struct {
	URL            string `json:"url" yaml:"url" mapstructure:"url"`
	TimeoutSeconds int    `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// HTTP configures the HTTP transport.
type HTTP struct {
	Addr           string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Token          string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	TimeoutSeconds int    `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Telemetry configures trace export.
type Telemetry struct {
	OTLPEndpoint string `json:"otlpEndpoint,omitempty" yaml:"otlpEndpoint,omitempty" mapstructure:"otlpEndpoint"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"n8n.url":                "N8N_URL",
	"n8n.apiKey":             "N8N_API_KEY",
	"coingecko.url":          "COINGECKO_URL",
	"http.token":             "TOOLHOST_TOKEN",
	"telemetry.otlpEndpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("profile", DefaultProfile)
	v.SetDefault("n8n.url", DefaultN8NURL)
	v.SetDefault("coingecko.url", DefaultCoinGeckoURL)
	v.SetDefault("http.addr", DefaultHTTPAddr)
}

// BindEnv binds the environment overrides on v.
func BindEnv(v *viper.Viper) {
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// FromViper materializes the merged viper state into a Config.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration file at path (JSON or YAML, by extension),
// applies defaults and environment overrides, and validates the result. An
// empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found at %q", path)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
		}
	}
	return FromViper(v)
}

// LoadDotEnv loads environment variables from path. Missing files are ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Validate reports configuration errors that would only surface on the first call.
func (c Config) Validate() error {
	if strings.TrimSpace(c.N8N.URL) == "" {
		return errors.New("n8n.url must not be empty")
	}
	if strings.TrimSpace(c.CoinGecko.URL) == "" {
		return errors.New("coingecko.url must not be empty")
	}
	if c.N8N.TimeoutSeconds < 0 || c.CoinGecko.TimeoutSeconds < 0 || c.HTTP.TimeoutSeconds < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// N8NTimeout returns the configured n8n timeout, or zero to use per-operation defaults.
func (c Config) N8NTimeout() time.Duration {
	if c.N8N.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.N8N.TimeoutSeconds) * time.Second
}

// CoinGeckoTimeout returns the timeout for CoinGecko requests.
func (c Config) CoinGeckoTimeout() time.Duration {
	if c.CoinGecko.TimeoutSeconds <= 0 {
		return defaultCoinGeckoTimeout
	}
	return time.Duration(c.CoinGecko.TimeoutSeconds) * time.Second
}

// HTTPRequestTimeout bounds one request on the HTTP transport.
func (c Config) HTTPRequestTimeout() time.Duration {
	if c.HTTP.TimeoutSeconds <= 0 {
		return defaultHTTPTimeout
	}
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// MCPInitTimeoutDuration returns how long probe waits for a host to finish the handshake.
func (c Config) MCPInitTimeoutDuration() time.Duration {
	if c.MCPInitTimeout <= 0 {
		return defaultMCPInitTimeout
	}
	return time.Duration(c.MCPInitTimeout) * time.Second
}

// ProfileName returns the tool profile, defaulting to all tools.
func (c Config) ProfileName() string {
	if p := strings.TrimSpace(c.Profile); p != "" {
		return p
	}
	return DefaultProfile
}

// MCPBinaryPath returns the host binary probe should spawn, choosing a
// default based on the OS if not provided.
func (c Config) MCPBinaryPath() string {
	if b := strings.TrimSpace(c.MCPBinary); b != "" {
		return b
	}
	switch runtime.GOOS {
	case "windows":
		return "dist/toolhost_windows_amd64_v1/toolhost.exe"
	case "linux":
		return "dist/toolhost_linux_amd64_v1/toolhost"
	default:
		return "dist/toolhost"
	}
}

// Redacted returns a copy safe to print: secrets are masked.
func (c Config) Redacted() Config {
	c.N8N.APIKey = mask(c.N8N.APIKey)
	c.HTTP.Token = mask(c.HTTP.Token)
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
