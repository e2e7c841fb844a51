package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced by tests and ops tooling.
const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvBackendBaseURL = "STOREFRONT_BACKEND_BASE_URL"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Redis   RedisConfig
	Cache   CacheConfig
	CORS    CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig describes the remote storefront REST API the gateway
// reconciles against.
type BackendConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_BACKEND_BASE_URL" required:"true"`
	Timeout        time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"15s"`
	CSRFCookieName string        `envconfig:"STOREFRONT_BACKEND_CSRF_COOKIE" default:"csrftoken"`
	CSRFHeaderName string        `envconfig:"STOREFRONT_BACKEND_CSRF_HEADER" default:"X-CSRFToken"`
	UserAgent      string        `envconfig:"STOREFRONT_BACKEND_USER_AGENT" default:"storefront-gateway"`
}

func (b *BackendConfig) normalize() error {
	trimmed := strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvBackendBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) url", EnvBackendBaseURL)
	}
	b.BaseURL = trimmed
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a cache endpoint was provided at all. The
// gateway runs without one; caching is then a no-op.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

// CacheConfig tunes the read-through caches in front of the catalog and
// content proxies. The caches are best-effort; a cold or unreachable cache
// never fails a request.
type CacheConfig struct {
	Disabled   bool          `envconfig:"STOREFRONT_CACHE_DISABLED" default:"false"`
	ProductTTL time.Duration `envconfig:"STOREFRONT_CACHE_PRODUCT_TTL" default:"60s"`
	NavbarTTL  time.Duration `envconfig:"STOREFRONT_CACHE_NAVBAR_TTL" default:"5m"`
	ContentTTL time.Duration `envconfig:"STOREFRONT_CACHE_CONTENT_TTL" default:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}
