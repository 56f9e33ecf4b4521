package app

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aussiebroadwan/authsession/pkg/httpx"
	"github.com/aussiebroadwan/authsession/pkg/jwtx"
)

// DotEnvFile is read from the working directory when present. Process
// environment variables take precedence over its entries.
const DotEnvFile = ".env"

type Config struct {
	SecretKey   string // Required: HS256 signing secret, at least 32 bytes
	Issuer      string // Optional: iss claim (default: authsession)
	ServiceName string // Optional: route segment under /api/v1 (default: auth)

	AccessTokenTTL        time.Duration // default: 15m
	RefreshTokenTTL       time.Duration // default: 7d
	VerificationCodeTTL   time.Duration // default: 24h
	PasswordResetStoreTTL time.Duration // default: 15m
	PasswordResetTokenTTL time.Duration // default: 1h
	ResetLinkBase         string        // Required: front end page the reset link points at
	StoreTimeout          time.Duration // per-call network timeout (default: 3s)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // sqlite file (default: authsession.db)
	DatabaseURL    string // postgres DSN

	RedisAddr     string // default: localhost:6379
	RedisPassword string
	RedisDB       int

	EmailTransport string // smtp, amqp or log (default: smtp)
	SMTPHost       string
	SMTPPort       int // default: 587
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string
	AMQPURL        string
	EmailQueue     string // default: auth.email

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	TrustedProxies       string        // CIDRs or addresses whose forwarding headers are honored
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Refresh token sweep interval (default: 1h)
}

// LoadConfig reads the service configuration from the environment and the
// optional DotEnvFile. Invalid numbers and durations fall back to defaults.
func LoadConfig() Config {
	return loadConfigFrom(DotEnvFile)
}

func loadConfigFrom(dotenv string) Config {
	env := newEnvSource(dotenv)

	cfg := Config{
		SecretKey:   env.get("AUTH_SECRET_KEY"),
		Issuer:      env.getOrDefault("AUTH_ISSUER", "authsession"),
		ServiceName: env.getOrDefault("SERVICE_NAME", "auth"),

		AccessTokenTTL:        env.getDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:       env.getDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		VerificationCodeTTL:   env.getDurationOrDefault("VERIFICATION_CODE_TTL", 24*time.Hour),
		PasswordResetStoreTTL: env.getDurationOrDefault("PASSWORD_RESET_STORE_TTL", 15*time.Minute),
		PasswordResetTokenTTL: env.getDurationOrDefault("PASSWORD_RESET_TOKEN_TTL", jwtx.DefaultResetTokenTTL),
		ResetLinkBase:         env.get("RESET_LINK_BASE"),
		StoreTimeout:          env.getDurationOrDefault("STORE_TIMEOUT", 3*time.Second),

		DatabaseDriver: strings.ToLower(env.getOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseFile:   env.getOrDefault("DATABASE_FILE", "authsession.db"),
		DatabaseURL:    env.get("DATABASE_URL"),

		RedisAddr:     env.getOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.get("REDIS_PASSWORD"),
		RedisDB:       env.getIntOrDefault("REDIS_DB", 0),

		EmailTransport: strings.ToLower(env.getOrDefault("EMAIL_TRANSPORT", "smtp")),
		SMTPHost:       env.get("SMTP_HOST"),
		SMTPPort:       env.getIntOrDefault("SMTP_PORT", 587),
		SMTPUser:       env.get("SMTP_USER"),
		SMTPPassword:   env.get("SMTP_PASSWORD"),
		SMTPFrom:       env.get("SMTP_FROM"),
		AMQPURL:        env.get("AMQP_URL"),
		EmailQueue:     env.getOrDefault("EMAIL_QUEUE", "auth.email"),

		Env:                  env.getOrDefault("ENV", "dev"),
		LogLevel:             env.getOrDefault("LOG_LEVEL", "info"),
		LogFormat:            env.getOrDefault("LOG_FORMAT", "json"),
		Port:                 env.getIntOrDefault("PORT", 8080),
		TrustedProxies:       env.get("TRUSTED_PROXIES"),
		ShutdownGracePeriod:  env.getDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: env.getDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Older deployments configure refresh lifetime in whole days.
	if env.get("REFRESH_TOKEN_TTL") == "" {
		if days := env.getIntOrDefault("REFRESH_TOKEN_EXPIRE_DAYS", 0); days > 0 {
			cfg.RefreshTokenTTL = time.Duration(days) * 24 * time.Hour
		}
	}

	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}

	return cfg
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	if len(c.SecretKey) < jwtx.MinSecretSize {
		errs = append(errs, fmt.Errorf("AUTH_SECRET_KEY must be at least %d bytes", jwtx.MinSecretSize))
	}
	if c.ServiceName == "" || strings.Contains(c.ServiceName, "/") {
		errs = append(errs, errors.New("SERVICE_NAME must be a single path segment"))
	}

	for name, d := range map[string]time.Duration{
		"ACCESS_TOKEN_TTL":         c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL":        c.RefreshTokenTTL,
		"VERIFICATION_CODE_TTL":    c.VerificationCodeTTL,
		"PASSWORD_RESET_STORE_TTL": c.PasswordResetStoreTTL,
		"PASSWORD_RESET_TOKEN_TTL": c.PasswordResetTokenTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.RefreshTokenTTL > 0 && c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}

	if u, err := url.Parse(c.ResetLinkBase); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("RESET_LINK_BASE must be an absolute URL"))
	}

	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.EmailTransport {
	case "smtp":
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			errs = append(errs, errors.New("SMTP_HOST and SMTP_FROM (or SMTP_USER) are required for the smtp transport"))
		}
	case "amqp":
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required for the amqp transport"))
		}
	case "log":
		if c.Env == "prod" {
			errs = append(errs, errors.New("EMAIL_TRANSPORT=log is not allowed in prod"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_TRANSPORT %q", c.EmailTransport))
	}

	if c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	return errors.Join(errs...)
}

// envSource resolves keys against the process environment first and then
// the optional dotenv file.
type envSource struct {
	v *viper.Viper
}

func newEnvSource(dotenv string) envSource {
	v := viper.New()
	if dotenv != "" {
		v.SetConfigFile(dotenv)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // a missing file is fine
	}
	v.AutomaticEnv()
	return envSource{v: v}
}

func (e envSource) get(key string) string {
	return strings.TrimSpace(e.v.GetString(key))
}

func (e envSource) getOrDefault(key, defaultValue string) string {
	if value := e.get(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envSource) getIntOrDefault(key string, defaultValue int) int {
	value := e.get(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func (e envSource) getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := e.get(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
