package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         int
	MasterSecret string
	GinMode      string
	TLSCertFile  string
	TLSKeyFile   string
	TokenExpiry  time.Duration

	DatabaseURL string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string

	LogLevel string

	RemoteAuthURL string
	RemoteAPIURL  string

	PollInterval time.Duration
	ErrorBackoff time.Duration
}

// fileConfig is the optional YAML layer; env vars override it.
type fileConfig struct {
	Port          int    `yaml:"port"`
	GinMode       string `yaml:"ginMode"`
	DatabaseURL   string `yaml:"databaseUrl"`
	SQLitePath    string `yaml:"sqlitePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	LogLevel      string `yaml:"logLevel"`
	RemoteAuthURL string `yaml:"remoteAuthUrl"`
	RemoteAPIURL  string `yaml:"remoteApiUrl"`
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:         3000,
		GinMode:      "release",
		TokenExpiry:  7 * 24 * time.Hour,
		SQLitePath:   "feedpilot.db",
		LogLevel:     "info",
		PollInterval: 30 * time.Second,
		ErrorBackoff: 60 * time.Second,
	}

	if path := env.Getenv("CONFIG_FILE"); path != "" {
		file, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		if file.Port != 0 {
			cfg.Port = file.Port
		}
		if file.GinMode != "" {
			cfg.GinMode = file.GinMode
		}
		if file.SQLitePath != "" {
			cfg.SQLitePath = file.SQLitePath
		}
		if file.LogLevel != "" {
			cfg.LogLevel = file.LogLevel
		}
		cfg.DatabaseURL = file.DatabaseURL
		cfg.RedisAddr = file.RedisAddr
		cfg.RedisPassword = file.RedisPassword
		cfg.RemoteAuthURL = file.RemoteAuthURL
		cfg.RemoteAPIURL = file.RemoteAPIURL
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.MasterSecret = env.Getenv("MASTER_SECRET")
	if cfg.MasterSecret == "" {
		return Config{}, fmt.Errorf("MASTER_SECRET is required")
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	if raw := env.Getenv("TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
		}
		cfg.TokenExpiry = time.Duration(seconds) * time.Second
	}

	if raw := env.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := env.Getenv("SQLITE_PATH"); raw != "" {
		cfg.SQLitePath = raw
	}
	if raw := env.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	if raw := env.Getenv("REDIS_PASSWORD"); raw != "" {
		cfg.RedisPassword = raw
	}
	if raw := env.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := env.Getenv("REMOTE_AUTH_URL"); raw != "" {
		cfg.RemoteAuthURL = raw
	}
	if raw := env.Getenv("REMOTE_API_URL"); raw != "" {
		cfg.RemoteAPIURL = raw
	}

	if raw := env.Getenv("POLL_INTERVAL_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid POLL_INTERVAL_SECONDS")
		}
		cfg.PollInterval = time.Duration(seconds) * time.Second
	}
	if raw := env.Getenv("ERROR_BACKOFF_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid ERROR_BACKOFF_SECONDS")
		}
		cfg.ErrorBackoff = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file: %w", err)
	}
	return file, nil
}
