package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrVerifierUnavailable is returned when authentication is required but no
	// token verifier can be built.
	ErrVerifierUnavailable = errors.New("config: AUTH_REQUIRED is set but JWT_SECRET is empty")
	// ErrUnknownTransport is returned for an EVENTS_TRANSPORT entry that names no publisher.
	ErrUnknownTransport = errors.New("config: unknown event transport")
	// ErrUnknownEventsMode is returned when EVENTS_MODE is neither direct nor outbox.
	ErrUnknownEventsMode = errors.New("config: unknown events mode")
)

// Event transports accepted in EVENTS_TRANSPORT.
const (
	TransportLog     = "log"
	TransportKafka   = "kafka"
	TransportNATS    = "nats"
	TransportRedis   = "redis"
	TransportJournal = "journal"
)

// Event delivery modes accepted in EVENTS_MODE.
const (
	ModeDirect = "direct"
	ModeOutbox = "outbox"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Auth        AuthConfig
	Mongo       MongoConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	NATS        NATSConfig
	Events      EventsConfig
	Outbox      OutboxConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	List        ListConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnablePprof   bool
	EnableMetrics bool
}

// AuthConfig controls bearer-token verification. When Required is false and no
// secret is set, the principal is read from the X-User-ID header.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Required bool
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	EnsureIndexes  bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	MaxAttempts  int
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
}

// EventsConfig selects where committed events go.
type EventsConfig struct {
	Transports   []string
	Mode         string
	RedisStream  string
	RedisMaxLen  int64
	JournalTable string
	// Origin is recorded as the "origin" metadata of every event.
	Origin string
}

// Uses reports whether transport is one of the configured transports.
func (c EventsConfig) Uses(transport string) bool {
	for _, t := range c.Transports {
		if t == transport {
			return true
		}
	}
	return false
}

// OutboxConfig configures the local bbolt outbox used in outbox mode.
type OutboxConfig struct {
	Path           string
	MaxSize        int
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
	BatchSize      int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// ListConfig bounds in-memory listings.
type ListConfig struct {
	FetchCap int
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "bizdesk"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnablePprof:   getBool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Auth: AuthConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			Issuer:   getString("JWT_ISSUER", "bizdesk"),
			Required: getBool("AUTH_REQUIRED", false),
		},
		Mongo: MongoConfig{
			URI:            getString("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getString("MONGO_DATABASE", "bizdesk"),
			ConnectTimeout: getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			EnsureIndexes:  getBool("MONGO_ENSURE_INDEXES", true),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "bizdesk"),
			User:            getString("DB_USER", "bizdesk"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:      getList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:        getString("KAFKA_TOPIC", "bizdesk.domain-events"),
			WriteTimeout: getDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
			MaxAttempts:  getInt("KAFKA_MAX_ATTEMPTS", 5),
		},
		NATS: NATSConfig{
			URL:           getString("NATS_URL", "nats://127.0.0.1:4222"),
			SubjectPrefix: getString("NATS_SUBJECT_PREFIX", "bizdesk.events"),
			MaxReconnects: getInt("NATS_MAX_RECONNECTS", 3),
		},
		Events: EventsConfig{
			Transports:   getList("EVENTS_TRANSPORT", []string{TransportLog}),
			Mode:         strings.ToLower(getString("EVENTS_MODE", ModeDirect)),
			RedisStream:  getString("EVENTS_REDIS_STREAM", "bizdesk:domain-events"),
			RedisMaxLen:  int64(getInt("EVENTS_REDIS_MAXLEN", 100_000)),
			JournalTable: getString("EVENTS_JOURNAL_TABLE", "domain_events"),
			Origin:       getString("EVENTS_ORIGIN", "bizdesk"),
		},
		Outbox: OutboxConfig{
			Path:           getString("OUTBOX_PATH", "./data/outbox.db"),
			MaxSize:        getInt("OUTBOX_MAX_SIZE", 1_000_000),
			RetentionHours: getInt("OUTBOX_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("OUTBOX_SYNC_INTERVAL", 5*time.Second),
			MaxRetry:       getInt("OUTBOX_MAX_RETRY", 5),
			BatchSize:      getInt("OUTBOX_BATCH_SIZE", 100),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		List: ListConfig{
			FetchCap: getInt("LIST_FETCH_CAP", 500),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Auth.Required && c.Auth.Secret == "" {
		return ErrVerifierUnavailable
	}
	for _, t := range c.Events.Transports {
		switch t {
		case TransportLog, TransportKafka, TransportNATS, TransportRedis, TransportJournal:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTransport, t)
		}
	}
	if c.Events.Mode != ModeDirect && c.Events.Mode != ModeOutbox {
		return fmt.Errorf("%w: %q", ErrUnknownEventsMode, c.Events.Mode)
	}
	return nil
}

// NeedsPostgres reports whether any component talks to Postgres.
func (c *Config) NeedsPostgres() bool {
	return c.Events.Uses(TransportJournal)
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getList splits a comma separated variable and drops blank entries.
func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
