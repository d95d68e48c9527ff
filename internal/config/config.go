package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Membership policies for adding users to an organisation.
const (
	// MembershipPolicyMember requires the caller to already belong to the organisation.
	MembershipPolicyMember = "member"
	// MembershipPolicyOpen lets any authenticated caller add members.
	MembershipPolicyOpen = "open"
)

const minJWTSecretLength = 32

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

// JWTConfig holds access token signing configuration.
type JWTConfig struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
}

// RedisConfig holds the optional Redis connection used for login lockout.
type RedisConfig struct {
	URL string // empty disables the lockout limiter
}

// LoginConfig holds failed-login lockout settings.
type LoginConfig struct {
	MaxFailures   int
	LockoutWindow time.Duration
}

type Config struct {
	Port             string
	Environment      string
	LogLevel         string
	MigrationsPath   string
	RateLimitRPM     int
	MembershipPolicy string
	// TrustedProxies lists peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means clients are keyed by socket address.
	TrustedProxies []netip.Prefix
	Database         DatabaseConfig
	JWT              JWTConfig
	Redis            RedisConfig
	Login            LoginConfig
}

// Load reads configuration from environment variables, after loading a .env
// file if one is present. It fails fast with clear errors for missing
// required values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "staging" && env != "production" {
		return nil, fmt.Errorf("invalid ENV value %q: must be development, staging, or production", env)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if err := validateDatabaseURL(databaseURL); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return nil, fmt.Errorf("invalid JWT_SECRET: %w", err)
	}

	accessTTL, err := getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
	}
	if accessTTL <= 0 {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: must be positive")
	}

	lockoutWindow, err := getEnvDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_LOCKOUT_WINDOW: %w", err)
	}

	policy := strings.ToLower(strings.TrimSpace(os.Getenv("MEMBERSHIP_POLICY")))
	if policy == "" {
		policy = MembershipPolicyMember
	}
	if policy != MembershipPolicyMember && policy != MembershipPolicyOpen {
		return nil, fmt.Errorf("invalid MEMBERSHIP_POLICY value %q: must be member or open", policy)
	}

	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if redisURL != "" {
		if err := validateRedisURL(redisURL); err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
	}

	trustedProxies, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "orgdesk"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Port:             port,
		Environment:      env,
		LogLevel:         logLevel,
		MigrationsPath:   os.Getenv("MIGRATIONS_PATH"),
		RateLimitRPM:     getEnvInt("RATE_LIMIT_RPM", 120),
		MembershipPolicy: policy,
		TrustedProxies:   trustedProxies,
		Database: DatabaseConfig{
			URL:             databaseURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		},
		JWT: JWTConfig{
			Secret:    []byte(jwtSecret),
			Issuer:    issuer,
			AccessTTL: accessTTL,
		},
		Redis: RedisConfig{
			URL: redisURL,
		},
		Login: LoginConfig{
			MaxFailures:   getEnvInt("LOGIN_MAX_FAILURES", 5),
			LockoutWindow: lockoutWindow,
		},
	}, nil
}

// parseTrustedProxies parses a comma-separated list of IPs and CIDRs.
// A bare IP is treated as a single-address prefix.
func parseTrustedProxies(value string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("%q is not a valid CIDR", entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid IP address", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// validateJWTSecret rejects short or obviously placeholder signing secrets.
func validateJWTSecret(secret string) error {
	if strings.TrimSpace(secret) != secret {
		return fmt.Errorf("must not contain leading or trailing whitespace")
	}
	if len(secret) < minJWTSecretLength {
		return fmt.Errorf("too short: must be at least %d bytes, got %d", minJWTSecretLength, len(secret))
	}
	lower := strings.ToLower(secret)
	if strings.Contains(lower, "changeme") || strings.Contains(lower, "your-secret") {
		return fmt.Errorf("looks like a placeholder value")
	}
	return nil
}

// validateDatabaseURL ensures the database URL is a valid PostgreSQL connection string.
func validateDatabaseURL(dbURL string) error {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("URL must use postgres:// or postgresql:// scheme, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

func validateRedisURL(redisURL string) error {
	parsed, err := url.Parse(redisURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "redis" && parsed.Scheme != "rediss" {
		return fmt.Errorf("URL must use redis:// or rediss:// scheme, got %q", parsed.Scheme)
	}
	return nil
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(val)
}
