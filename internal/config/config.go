package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "GAMESYNC_"

// Client конфигурация игрового клиента
type Client struct {
	ServerURL      string        `yaml:"server_url"`
	DataDir        string        `yaml:"data_dir"`
	LogLevel       string        `yaml:"log_level"`
	SyncInterval   time.Duration `yaml:"sync_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SyncTimeout    time.Duration `yaml:"sync_timeout"`
	RetryBase      time.Duration `yaml:"retry_base"`
	RetryCap       time.Duration `yaml:"retry_cap"`
	EventRetention time.Duration `yaml:"event_retention"`
}

// Server конфигурация сервера синхронизации
type Server struct {
	Address      string        `yaml:"address"`
	DatabasePath string        `yaml:"database_path"`
	JWTSecret    string        `yaml:"jwt_secret"`
	LogLevel     string        `yaml:"log_level"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	RateLimit    int           `yaml:"rate_limit"` // RateLimit запросов в минуту с одного адреса, 0 - без ограничения
}

// DefaultClient returns the client defaults
func DefaultClient() *Client {
	return &Client{
		ServerURL:      "http://localhost:8080",
		DataDir:        ".gamesync",
		LogLevel:       "info",
		SyncInterval:   5 * time.Minute,
		RequestTimeout: 15 * time.Second,
		SyncTimeout:    30 * time.Second,
		RetryBase:      2 * time.Second,
		RetryCap:       5 * time.Minute,
		EventRetention: 30 * 24 * time.Hour,
	}
}

// DefaultServer returns the server defaults
func DefaultServer() *Server {
	return &Server{
		Address:      ":8080",
		DatabasePath: "gamesync-server.db",
		JWTSecret:    "dev-secret-change-in-production",
		LogLevel:     "info",
		TokenTTL:     24 * time.Hour,
		RateLimit:    120,
	}
}

// LoadClient reads defaults, then the optional YAML file, then .env and
// GAMESYNC_* variables. Command-line flags are applied by the caller.
func LoadClient(path string) (*Client, error) {
	cfg := DefaultClient()
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}
	loadDotEnv()

	env := envReader{}
	env.str("SERVER_URL", &cfg.ServerURL)
	env.str("DATA_DIR", &cfg.DataDir)
	env.str("LOG_LEVEL", &cfg.LogLevel)
	env.duration("SYNC_INTERVAL", &cfg.SyncInterval)
	env.duration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	env.duration("SYNC_TIMEOUT", &cfg.SyncTimeout)
	env.duration("RETRY_BASE", &cfg.RetryBase)
	env.duration("RETRY_CAP", &cfg.RetryCap)
	env.duration("EVENT_RETENTION", &cfg.EventRetention)
	if err := env.err(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadServer is LoadClient for the server configuration
func LoadServer(path string) (*Server, error) {
	cfg := DefaultServer()
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}
	loadDotEnv()

	env := envReader{}
	env.str("ADDRESS", &cfg.Address)
	env.str("DATABASE_PATH", &cfg.DatabasePath)
	env.str("JWT_SECRET", &cfg.JWTSecret)
	env.str("LOG_LEVEL", &cfg.LogLevel)
	env.duration("TOKEN_TTL", &cfg.TokenTTL)
	env.int("RATE_LIMIT", &cfg.RateLimit)
	if err := env.err(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readFile decodes YAML into cfg. A missing file is not an error.
func readFile(path string, cfg any) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadDotEnv() {
	// .env необязателен; уже заданные переменные окружения не перезаписываются
	_ = godotenv.Load()
}

type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.lookup(key); ok {
		*dst = v
	}
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err))
		return
	}
	*dst = d
}

func (r *envReader) int(key string, dst *int) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err))
		return
	}
	*dst = n
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

// ParseLevel maps debug/info/warn/error to a slog level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// NewLogger creates a text logger. An unknown level falls back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	l, err := ParseLevel(level)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
	if err != nil {
		logger.Warn("Falling back to info log level", "error", err)
	}
	return logger
}
