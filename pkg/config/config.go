// Package config holds the per-invocation configuration for GitHub issue
// retrieval and loads it from flags, environment and an optional file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. GH_ISSUES_GITHUB_TOKEN.
const EnvPrefix = "GH_ISSUES"

// Configuration keys shared by flags, environment and config files.
const (
	KeyGitHubUser  = "github_user"
	KeyGitHubToken = "github_token"
	KeyGitHubAPI   = "github_api"
	KeyRedisURL    = "redis_url"
	KeyConcurrency = "concurrency"
	KeyMaxPages    = "max_pages"
	KeyTimeout     = "timeout"
	KeyLogLevel    = "log_level"
	KeyLogPretty   = "log_pretty"
	KeyAddr        = "addr"
)

var (
	// ErrMissingAPI is returned when no GitHub API base URL is configured.
	ErrMissingAPI = errors.New("github api base url is required")
)

// Config is immutable once loaded.
type Config struct {
	// GitHubUser and GitHubToken are optional credentials. Both together
	// select Basic auth, the token alone selects token auth.
	GitHubUser  string `mapstructure:"github_user"`
	GitHubToken string `mapstructure:"github_token"`

	// GitHubAPI is the repository API base, e.g.
	// https://api.github.com/repos/w3c/respec
	GitHubAPI string `mapstructure:"github_api"`

	// RedisURL enables the response cache when set (redis://host:port/db).
	RedisURL string `mapstructure:"redis_url"`

	// Concurrency caps simultaneous issue requests. 0 means unbounded.
	Concurrency int `mapstructure:"concurrency"`

	// MaxPages stops link traversal after this many pages. 0 means unbounded.
	MaxPages int `mapstructure:"max_pages"`

	Timeout time.Duration `mapstructure:"timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	// Addr is the listen address of the serve command.
	Addr string `mapstructure:"addr"`
}

// keys lists every configuration key, for environment binding.
var keys = []string{
	KeyGitHubUser, KeyGitHubToken, KeyGitHubAPI, KeyRedisURL, KeyConcurrency,
	KeyMaxPages, KeyTimeout, KeyLogLevel, KeyLogPretty, KeyAddr,
}

// DefaultConfig returns the defaults used when nothing else is configured.
// GitHubAPI has no default: it names the repository and must be set.
func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		LogLevel: "info",
		Addr:     ":8080",
	}
}

// HasCredentials reports whether any authorization header will be sent.
func (c Config) HasCredentials() bool {
	return c.GitHubToken != ""
}

// Validate checks the fields the fetchers depend on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GitHubAPI) == "" {
		return ErrMissingAPI
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0 (got %d)", c.Concurrency)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must be >= 0 (got %d)", c.MaxPages)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0 (got %s)", c.Timeout)
	}
	return nil
}

// APIBase returns GitHubAPI without a trailing slash.
func (c Config) APIBase() string {
	return strings.TrimRight(c.GitHubAPI, "/")
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String(KeyGitHubUser, "", "GitHub user name (Basic auth together with --github_token)")
	fs.String(KeyGitHubToken, "", "GitHub personal access token")
	fs.String(KeyGitHubAPI, "", "GitHub API base URL for the repository, e.g. https://api.github.com/repos/w3c/respec (required)")
	fs.String(KeyRedisURL, "", "Redis URL for the response cache (disabled when empty)")
	fs.Int(KeyConcurrency, d.Concurrency, "maximum parallel issue requests (0 = unbounded)")
	fs.Int(KeyMaxPages, d.MaxPages, "maximum pages followed by list traversal (0 = unbounded)")
	fs.Duration(KeyTimeout, d.Timeout, "HTTP client timeout")
	fs.String(KeyLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.Bool(KeyLogPretty, d.LogPretty, "human readable console logs")
	fs.String(KeyAddr, d.Addr, "listen address for serve")
}

// NewViper returns a viper instance with defaults and environment binding.
// When configFile is non-empty it is read as well.
func NewViper(fs *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyAddr, d.Addr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind each one.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	return v, nil
}

// FromViper decodes and validates a Config.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load is NewViper followed by FromViper.
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	v, err := NewViper(fs, configFile)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}
