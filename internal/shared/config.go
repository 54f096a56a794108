package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Cooldown store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Cooldown    CooldownConfig    `toml:"cooldown"`
	Tokens      TokensConfig      `toml:"tokens"`
	Search      SearchConfig      `toml:"search"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and client limits.
type SpotifyConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	RedirectURI  string  `toml:"redirect_uri"`
	RateLimit    float64 `toml:"rate_limit"`
	Burst        int     `toml:"burst"`
}

// ServerConfig contains HTTP server and session cookie settings.
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	SessionSecret string `toml:"session_secret"`
	EncryptionKey string `toml:"encryption_key"`
	SecureCookies bool   `toml:"secure_cookies"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CooldownConfig controls the per-visitor queue cooldown.
type CooldownConfig struct {
	WindowSeconds int    `toml:"window_seconds"`
	Backend       string `toml:"backend"`
}

// Window returns the cooldown window as a [time.Duration].
func (c CooldownConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// TokensConfig locates the durable credential file.
type TokensConfig struct {
	Path string `toml:"path"`
}

// SearchConfig controls catalog search.
type SearchConfig struct {
	Limit int `toml:"limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains connection settings for the redis cooldown backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnv loads .env style files into the process environment.
//
// Missing files are skipped; variables already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides secrets and deployment settings from JUKEBOX_* variables.
func (c *Config) ApplyEnv() error {
	spotify := &c.Credentials.Spotify
	spotify.ClientID = GetEnv("JUKEBOX_SPOTIFY_CLIENT_ID", spotify.ClientID)
	spotify.ClientSecret = GetEnv("JUKEBOX_SPOTIFY_CLIENT_SECRET", spotify.ClientSecret)
	spotify.RedirectURI = GetEnv("JUKEBOX_SPOTIFY_REDIRECT_URI", spotify.RedirectURI)

	c.Server.SessionSecret = GetEnv("JUKEBOX_SESSION_SECRET", c.Server.SessionSecret)
	c.Server.EncryptionKey = GetEnv("JUKEBOX_ENCRYPTION_KEY", c.Server.EncryptionKey)
	c.Redis.Addr = GetEnv("JUKEBOX_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = GetEnv("JUKEBOX_REDIS_PASSWORD", c.Redis.Password)

	if v, ok := os.LookupEnv("JUKEBOX_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: JUKEBOX_PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	if v, ok := os.LookupEnv("JUKEBOX_COOLDOWN_SECONDS"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: JUKEBOX_COOLDOWN_SECONDS=%q", ErrInvalidConfig, v)
		}
		c.Cooldown.WindowSeconds = secs
	}

	return nil
}

// Validate reports configuration the server cannot run with.
//
// Values still equal to the placeholders of the example configuration are rejected: the host's credential
// travels in a cookie that must be signed and encrypted with keys nobody else knows.
func (c *Config) Validate() error {
	example := DefaultConfig()

	spotify := c.Credentials.Spotify
	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if spotify.ClientID == example.Credentials.Spotify.ClientID ||
		spotify.ClientSecret == example.Credentials.Spotify.ClientSecret {
		return fmt.Errorf("%w: spotify client_id and client_secret still hold the example placeholders", ErrMissingCredentials)
	}
	if spotify.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrInvalidConfig)
	}
	if len(c.Server.SessionSecret) < 32 {
		return fmt.Errorf("%w: server.session_secret must be at least 32 bytes", ErrInvalidConfig)
	}
	if c.Server.SessionSecret == example.Server.SessionSecret {
		return fmt.Errorf("%w: server.session_secret still holds the example placeholder", ErrInvalidConfig)
	}
	if n := len(c.Server.EncryptionKey); n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("%w: server.encryption_key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if c.Cooldown.WindowSeconds < 0 {
		return fmt.Errorf("%w: cooldown.window_seconds must not be negative", ErrInvalidConfig)
	}
	switch c.Cooldown.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown cooldown backend %q", ErrInvalidConfig, c.Cooldown.Backend)
	}
	if c.Search.Limit < 1 || c.Search.Limit > 50 {
		return fmt.Errorf("%w: search.limit must be between 1 and 50", ErrInvalidConfig)
	}
	if c.Tokens.Path == "" {
		return fmt.Errorf("%w: tokens.path must be set", ErrInvalidConfig)
	}
	return nil
}

// GetEnv returns the value of key, or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
