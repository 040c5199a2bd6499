package app

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
	"github.com/berat-eth/huglu-gateway/pkg/httpx"
	"github.com/berat-eth/huglu-gateway/pkg/jwtx"
)

type Config struct {
	Issuer   string // issuer claim for tokens (default: huglu-api)
	Audience string // audience claim for tokens (default: huglu-client)

	AccessSecret  []byte        // HS256 secret for access tokens (JWT_SECRET)
	RefreshSecret []byte        // HS256 secret for refresh tokens (JWT_REFRESH_SECRET)
	AccessTTL     time.Duration // access token lifetime (JWT_ACCESS_EXPIRY, "15m" style)
	RefreshTTL    time.Duration // refresh token lifetime (JWT_REFRESH_EXPIRY, "7d" style)

	MaxRequestSize   int64 // request size cap in bytes (MAX_REQUEST_SIZE, "10mb" style)
	MobileMultiplier int   // general-tier ceiling multiplier for mobile clients

	BlockThreshold int // reputation score above which IPs are denied
	WarnThreshold  int // reputation score above which IPs are logged

	SuspiciousIPDisabled bool // disables the broad suspicious-ip tier

	Tiers    map[string]domain.Tier
	Throttle ThrottleConfig

	RedisAddr string // optional: shared state store (GATEWAY_REDIS_ADDR)

	SweepInterval       time.Duration
	Env                 string
	LogLevel            string
	LogFormat           string
	Port                int
	ShutdownGracePeriod time.Duration
}

// ThrottleConfig mirrors service.ThrottleConfig but lives here so config
// stays free of service imports.
type ThrottleConfig struct {
	Window     time.Duration
	DelayAfter int
	DelayStep  time.Duration
	MaxDelay   time.Duration
}

// LoadConfig reads the environment. Every knob has a default; missing
// secrets are generated randomly, which keeps single-instance dev setups
// working while making restarts invalidate outstanding tokens.
func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("GATEWAY_ISSUER", "huglu-api"),
		Audience:             getEnvOrDefault("GATEWAY_AUDIENCE", "huglu-client"),
		AccessSecret:         secretFromEnv("JWT_SECRET"),
		RefreshSecret:        secretFromEnv("JWT_REFRESH_SECRET"),
		AccessTTL:            jwtx.ParseLifetime(os.Getenv("JWT_ACCESS_EXPIRY"), jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           jwtx.ParseLifetime(os.Getenv("JWT_REFRESH_EXPIRY"), jwtx.DefaultRefreshTokenTTL),
		MobileMultiplier:     getEnvIntOrDefault("GATEWAY_MOBILE_MULTIPLIER", 3),
		BlockThreshold:       getEnvIntOrDefault("GATEWAY_BLOCK_THRESHOLD", domain.DefaultBlockThreshold),
		WarnThreshold:        getEnvIntOrDefault("GATEWAY_WARN_THRESHOLD", domain.DefaultWarnThreshold),
		SuspiciousIPDisabled: getEnvBool("GATEWAY_DISABLE_SUSPICIOUS_IP_LIMITER"),
		RedisAddr:            os.Getenv("GATEWAY_REDIS_ADDR"),
		SweepInterval:        getEnvDurationOrDefault("GATEWAY_SWEEP_INTERVAL", 10*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	size, err := httpx.ParseSize(getEnvOrDefault("MAX_REQUEST_SIZE", "10mb"))
	if err != nil {
		size = 10 << 20
	}
	cfg.MaxRequestSize = size

	cfg.Tiers = loadTiers()

	cfg.Throttle = ThrottleConfig{
		Window:     getEnvDurationOrDefault("THROTTLE_WINDOW", 15*time.Minute),
		DelayAfter: getEnvIntOrDefault("THROTTLE_DELAY_AFTER", 50),
		DelayStep:  getEnvDurationOrDefault("THROTTLE_DELAY_STEP", 500*time.Millisecond),
		MaxDelay:   getEnvDurationOrDefault("THROTTLE_MAX_DELAY", 20*time.Second),
	}

	return cfg
}

// loadTiers starts from the built-in tier table and applies per-tier
// environment overrides: RATELIMIT_<TIER>_MAX and RATELIMIT_<TIER>_WINDOW
// (tier name upper-cased, dashes as underscores, e.g.
// RATELIMIT_WALLET_TRANSFER_MAX=20).
func loadTiers() map[string]domain.Tier {
	tiers := domain.DefaultTiers()
	for name, tier := range tiers {
		prefix := "RATELIMIT_" + strings.ReplaceAll(strings.ToUpper(name), "-", "_")

		if v := os.Getenv(prefix + "_MAX"); v != "" {
			if max, err := strconv.Atoi(v); err == nil && max >= 0 {
				tier.Max = max
			}
		}
		if v := os.Getenv(prefix + "_WINDOW"); v != "" {
			if window, err := time.ParseDuration(v); err == nil && window > 0 {
				tier.Window = window
			}
		}

		tiers[name] = tier
	}
	return tiers
}

// secretFromEnv decodes a hex secret from the environment or generates a
// random one, matching the platform's historical behavior for unset
// secrets.
func secretFromEnv(key string) []byte {
	if v := os.Getenv(key); v != "" {
		if b, err := hex.DecodeString(v); err == nil {
			return b
		}
		return []byte(v)
	}

	b := make([]byte, 64)
	_, _ = rand.Read(b)
	return b
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
