package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

// Config aggregates runtime configuration for the console.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Backend  BackendConfig
	Demo     DemoConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines credential decoding parameters.
type AuthConfig struct {
	JWTSecret      string
	ClientCookie   string
	CookieSecure   bool
	CookieMaxAgeHr int
	BcryptCost     int
}

// StorageConfig selects the client storage driver.
type StorageConfig struct {
	Driver         string
	ClientTTLHours int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	NotifyChannel  string
	CrossInstances bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// BackendConfig points at the society's business API.
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// DemoAccount is a static offline-login credential.
type DemoAccount struct {
	Username string
	Password string
	Role     string
}

// DemoConfig enables the offline role-switch login.
type DemoConfig struct {
	Enabled  bool
	Accounts []DemoAccount
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	accounts, err := ParseDemoAccounts(os.Getenv("DEMO_ACCOUNTS"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEMO_ACCOUNTS: %w", err)
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverMemory))
	switch driver {
	case StorageDriverMemory, StorageDriverRedis, StorageDriverPostgres:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "coop-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("AUTH_JWT_SECRET", "dev-secret"),
			ClientCookie:   getEnv("AUTH_CLIENT_COOKIE", "console_cid"),
			CookieSecure:   getEnvAsBool("AUTH_COOKIE_SECURE", false),
			CookieMaxAgeHr: getEnvAsInt("AUTH_COOKIE_MAX_AGE_HOURS", 24*365),
			BcryptCost:     getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Storage: StorageConfig{
			Driver:         driver,
			ClientTTLHours: getEnvAsInt("STORAGE_CLIENT_TTL_HOURS", 0),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			NotifyChannel:  getEnv("REDIS_NOTIFY_CHANNEL", "console:storage-changed"),
			CrossInstances: getEnvAsBool("REDIS_CROSS_INSTANCE_NOTIFY", true),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://127.0.0.1:9090"), "/"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 10),
		},
		Demo: DemoConfig{
			Enabled:  getEnvAsBool("DEMO_LOGIN_ENABLED", len(accounts) > 0),
			Accounts: accounts,
		},
	}

	return cfg, nil
}

// ParseDemoAccounts parses "user:password:ROLE" entries separated by commas.
// The password may itself contain colons.
func ParseDemoAccounts(raw string) ([]DemoAccount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ",")
	accounts := make([]DemoAccount, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		first := strings.Index(entry, ":")
		last := strings.LastIndex(entry, ":")
		if first <= 0 || last <= first+1 || last == len(entry)-1 {
			return nil, fmt.Errorf("malformed entry %q", entry)
		}
		accounts = append(accounts, DemoAccount{
			Username: entry[:first],
			Password: entry[first+1 : last],
			Role:     entry[last+1:],
		})
	}
	return accounts, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the backend call timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ClientTTL returns how long a client namespace survives without writes; zero means forever.
func (s StorageConfig) ClientTTL() time.Duration {
	if s.ClientTTLHours <= 0 {
		return 0
	}
	return time.Duration(s.ClientTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
