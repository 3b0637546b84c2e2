package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Auth modes accepted by the API server.
const (
	AuthNone   = "none"
	AuthAPIKey = "api-key"
	AuthJWT    = "jwt"
)

// Config holds the API server configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP
	ListenAddr     string `envconfig:"LISTEN_ADDR" default:":8080"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`
	TLSCert        string `envconfig:"TLS_CERT"`
	TLSKey         string `envconfig:"TLS_KEY"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"100"`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"lifeos.db"`

	// Auth
	AuthMode       string        `envconfig:"AUTH_MODE" default:"jwt"`
	APIKey         string        `envconfig:"API_KEY"`
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER" default:"lifeos"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	TokenCacheSize int           `envconfig:"TOKEN_CACHE_SIZE" default:"1024"`

	// Domain
	TemplatesPath   string `envconfig:"TEMPLATES_PATH"`
	DefaultTimezone string `envconfig:"DEFAULT_TIMEZONE" default:"UTC"`
}

// Validate checks that the selected auth mode has what it needs.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthNone:
	case AuthAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=%s requires API_KEY", c.AuthMode)
		}
	case AuthJWT:
		if len(c.JWTSecret) < 16 {
			return fmt.Errorf("AUTH_MODE=%s requires JWT_SECRET of at least 16 bytes", c.AuthMode)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err)
	}
	return nil
}

// TLSEnabled returns true if both certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// CORSOriginList returns the configured CORS origins, trimmed.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadWithPrefix("")
}

// LoadWithPrefix reads configuration with a prefix and validates it.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %q: %w", prefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClientConfig configures the lifeosctl command line client.
type ClientConfig struct {
	ServerURL string        `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	Token     string        `envconfig:"TOKEN"`
	StateDir  string        `envconfig:"STATE_DIR" default:"~/.lifeos"`
	Timezone  string        `envconfig:"TIMEZONE" default:"Local"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"15s"`
	LogLevel  string        `envconfig:"LOG_LEVEL" default:"warn"`
}

// LoadClient reads LIFEOSCTL_* variables.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("LIFEOSCTL", &cfg); err != nil {
		return nil, fmt.Errorf("loading client config: %w", err)
	}
	return &cfg, nil
}
