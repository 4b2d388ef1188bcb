// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	DBMaxOpenConns     int `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns     int `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeS int `mapstructure:"DB_CONN_MAX_LIFETIME_S"`

	JWTSecret        string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm     string `mapstructure:"JWT_ALGORITHM"`
	JWTExpireMinutes int    `mapstructure:"JWT_EXPIRE_MINUTES"`
	JWTIssuer        string `mapstructure:"JWT_ISSUER"`
	JWTAudience      string `mapstructure:"JWT_AUDIENCE"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty trusts nobody.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	CacheBackend          string `mapstructure:"CACHE_BACKEND"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	CacheTTLProducts      int    `mapstructure:"CACHE_TTL_PRODUCTS"`
	CacheTTLCategories    int    `mapstructure:"CACHE_TTL_CATEGORIES"`
	CacheTTLUsers         int    `mapstructure:"CACHE_TTL_USERS"`
	CacheCleanupIntervalS int    `mapstructure:"CACHE_CLEANUP_INTERVAL"`

	RateLimitEnabled       bool   `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitBackend       string `mapstructure:"RATE_LIMIT_BACKEND"`
	RateLimitRegister      string `mapstructure:"RATE_LIMIT_REGISTER"`
	RateLimitLogin         string `mapstructure:"RATE_LIMIT_LOGIN"`
	RateLimitProductCreate string `mapstructure:"RATE_LIMIT_PRODUCT_CREATE"`
	RateLimitProductUpdate string `mapstructure:"RATE_LIMIT_PRODUCT_UPDATE"`
	RateLimitProductList   string `mapstructure:"RATE_LIMIT_PRODUCT_LIST"`
	RateLimitSearch        string `mapstructure:"RATE_LIMIT_SEARCH"`
	RateLimitUpload        string `mapstructure:"RATE_LIMIT_UPLOAD"`

	UploadDir              string `mapstructure:"UPLOAD_DIR"`
	MaxUploadSize          int64  `mapstructure:"MAX_UPLOAD_SIZE"`
	AllowedImageExtensions string `mapstructure:"ALLOWED_IMAGE_EXTENSIONS"`
	ImageProcessingEnabled bool   `mapstructure:"IMAGE_PROCESSING_ENABLED"`
	ImageWebPVariants      bool   `mapstructure:"IMAGE_WEBP_VARIANTS"`
	ImageMaxPixels         int64  `mapstructure:"IMAGE_MAX_PIXELS"`
	MaxRequestSize         int    `mapstructure:"MAX_REQUEST_SIZE"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// RateRule is a parsed "<count>/<period>" rate limit.
type RateRule struct {
	Limit  int
	Window time.Duration
	Period string
}

// SetDefaults registers development defaults on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "marketplace")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "marketplace.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_S", 300)

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("JWT_EXPIRE_MINUTES", 30)
	v.SetDefault("JWT_ISSUER", "marketplace-api")
	v.SetDefault("JWT_AUDIENCE", "marketplace-client")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000")
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("CACHE_TTL_PRODUCTS", 300)
	v.SetDefault("CACHE_TTL_CATEGORIES", 600)
	v.SetDefault("CACHE_TTL_USERS", 900)
	v.SetDefault("CACHE_CLEANUP_INTERVAL", 60)

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_BACKEND", "memory")
	v.SetDefault("RATE_LIMIT_REGISTER", "5/minute")
	v.SetDefault("RATE_LIMIT_LOGIN", "10/minute")
	v.SetDefault("RATE_LIMIT_PRODUCT_CREATE", "20/hour")
	v.SetDefault("RATE_LIMIT_PRODUCT_UPDATE", "50/hour")
	v.SetDefault("RATE_LIMIT_PRODUCT_LIST", "100/minute")
	v.SetDefault("RATE_LIMIT_SEARCH", "60/minute")
	v.SetDefault("RATE_LIMIT_UPLOAD", "10/hour")

	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_SIZE", 5*1024*1024)
	v.SetDefault("ALLOWED_IMAGE_EXTENSIONS", ".jpg,.jpeg,.png,.gif,.webp")
	v.SetDefault("IMAGE_PROCESSING_ENABLED", true)
	v.SetDefault("IMAGE_WEBP_VARIANTS", false)
	v.SetDefault("IMAGE_MAX_PIXELS", 40_000_000)
	v.SetDefault("MAX_REQUEST_SIZE", 10*1024*1024)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base file is optional; env vars and defaults are enough to boot.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Defaults returns a Config populated only from SetDefaults.
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	config.normalize()
	return &config
}

func (c *Config) normalize() {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	c.RateLimitBackend = strings.ToLower(strings.TrimSpace(c.RateLimitBackend))
	c.JWTAlgorithm = strings.ToUpper(strings.TrimSpace(c.JWTAlgorithm))
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM %q is not supported", c.JWTAlgorithm)
	}
	if c.JWTExpireMinutes <= 0 {
		return errors.New("JWT_EXPIRE_MINUTES must be positive")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver)
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND %q is not supported", c.CacheBackend)
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND %q is not supported", c.RateLimitBackend)
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("MAX_UPLOAD_SIZE must be positive")
	}
	if c.ImageMaxPixels <= 0 {
		return errors.New("IMAGE_MAX_PIXELS must be positive")
	}
	for _, proxy := range c.TrustedProxyList() {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", proxy)
		}
	}
	for name, raw := range c.rateLimitSettings() {
		if _, err := ParseRateRule(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must not be 'disable' in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

func (c *Config) rateLimitSettings() map[string]string {
	return map[string]string{
		"RATE_LIMIT_REGISTER":       c.RateLimitRegister,
		"RATE_LIMIT_LOGIN":          c.RateLimitLogin,
		"RATE_LIMIT_PRODUCT_CREATE": c.RateLimitProductCreate,
		"RATE_LIMIT_PRODUCT_UPDATE": c.RateLimitProductUpdate,
		"RATE_LIMIT_PRODUCT_LIST":   c.RateLimitProductList,
		"RATE_LIMIT_SEARCH":         c.RateLimitSearch,
		"RATE_LIMIT_UPLOAD":         c.RateLimitUpload,
	}
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// TokenTTL is the lifetime of issued access tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpireMinutes) * time.Minute
}

// TrustedProxyList splits TRUSTED_PROXIES on commas.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ImageExtensions returns the lower-cased upload allow-list.
func (c *Config) ImageExtensions() []string {
	var exts []string
	for _, e := range strings.Split(c.AllowedImageExtensions, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// Rule parses one of the RATE_LIMIT_* values. Validate has already
// rejected malformed values, so a parse failure falls back to 60/minute.
func (c *Config) Rule(raw string) RateRule {
	r, err := ParseRateRule(raw)
	if err != nil {
		return RateRule{Limit: 60, Window: time.Minute, Period: "minute"}
	}
	return r
}

// ParseRateRule parses strings like "5/minute", "20/hour" or "3/30s".
func ParseRateRule(raw string) (RateRule, error) {
	count, period, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return RateRule{}, fmt.Errorf("rate limit %q must look like <count>/<period>", raw)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || limit <= 0 {
		return RateRule{}, fmt.Errorf("rate limit %q has an invalid count", raw)
	}
	period = strings.ToLower(strings.TrimSpace(period))
	var window time.Duration
	switch period {
	case "second", "sec", "s":
		window, period = time.Second, "second"
	case "minute", "min", "m":
		window, period = time.Minute, "minute"
	case "hour", "h":
		window, period = time.Hour, "hour"
	case "day", "d":
		window, period = 24*time.Hour, "day"
	default:
		window, err = time.ParseDuration(period)
		if err != nil || window <= 0 {
			return RateRule{}, fmt.Errorf("rate limit %q has an invalid period", raw)
		}
	}
	return RateRule{Limit: limit, Window: window, Period: period}, nil
}
