package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort       string `yaml:"app_port"`
	LogLevel      string `yaml:"log_level"`
	LogJSON       bool   `yaml:"log_json"`
	AllowedOrigin string `yaml:"allowed_origin"`

	// Room limits
	MaxParticipants int `yaml:"max_participants"`
	BotNameAttempts int `yaml:"bot_name_attempts"`

	// Round timing, milliseconds
	BotDelayMinMS  int `yaml:"bot_delay_min_ms"`
	BotDelayMaxMS  int `yaml:"bot_delay_max_ms"`
	ScoreTimeoutMS int `yaml:"score_timeout_ms"`

	// Board bounds for drop positions
	BoardMinX float64 `yaml:"board_min_x"`
	BoardMaxX float64 `yaml:"board_max_x"`

	JWTSecret   string `yaml:"jwt_secret"`
	DatabaseURL string `yaml:"database_url"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	APIRateLimit         int `yaml:"api_rate_limit"`
	APIRateWindowSeconds int `yaml:"api_rate_window_seconds"`
}

// ConfigEnv names the environment variable pointing at a YAML config file.
const ConfigEnv = "PEGFALL_CONFIG"

func Default() *Config {
	return &Config{
		AppPort:              "8080",
		LogLevel:             "info",
		MaxParticipants:      8,
		BotNameAttempts:      10,
		BotDelayMinMS:        1000,
		BotDelayMaxMS:        5000,
		ScoreTimeoutMS:       15000,
		BoardMinX:            40,
		BoardMaxX:            760,
		APIRateLimit:         60,
		APIRateWindowSeconds: 60,
	}
}

// Load builds the config from defaults, then the YAML file at path (or
// $PEGFALL_CONFIG), then the environment. A missing .env is fine.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	str("APP_PORT", &c.AppPort)
	str("LOG_LEVEL", &c.LogLevel)
	if v := os.Getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_JSON: %w", err))
		}
		c.LogJSON = b
	}
	str("ALLOWED_ORIGIN", &c.AllowedOrigin)
	num("MAX_PARTICIPANTS", &c.MaxParticipants)
	num("BOT_NAME_ATTEMPTS", &c.BotNameAttempts)
	num("BOT_DELAY_MIN_MS", &c.BotDelayMinMS)
	num("BOT_DELAY_MAX_MS", &c.BotDelayMaxMS)
	num("SCORE_TIMEOUT_MS", &c.ScoreTimeoutMS)
	float("BOARD_MIN_X", &c.BoardMinX)
	float("BOARD_MAX_X", &c.BoardMaxX)
	str("JWT_SECRET", &c.JWTSecret)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	num("REDIS_DB", &c.RedisDB)
	num("API_RATE_LIMIT", &c.APIRateLimit)
	num("API_RATE_WINDOW_SECONDS", &c.APIRateWindowSeconds)

	return errors.Join(errs...)
}

// Validate rejects values the room cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.AppPort == "" {
		errs = append(errs, errors.New("app_port is empty"))
	}
	if c.MaxParticipants < 1 {
		errs = append(errs, fmt.Errorf("max_participants must be at least 1, got %d", c.MaxParticipants))
	}
	if c.BotNameAttempts < 1 {
		errs = append(errs, fmt.Errorf("bot_name_attempts must be at least 1, got %d", c.BotNameAttempts))
	}
	if c.BotDelayMinMS < 0 || c.BotDelayMaxMS < c.BotDelayMinMS {
		errs = append(errs, fmt.Errorf("bot delay window [%d, %d] ms is invalid", c.BotDelayMinMS, c.BotDelayMaxMS))
	}
	if c.ScoreTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("score_timeout_ms must be positive, got %d", c.ScoreTimeoutMS))
	}
	if c.BoardMaxX <= c.BoardMinX {
		errs = append(errs, fmt.Errorf("board bounds [%g, %g] are empty", c.BoardMinX, c.BoardMaxX))
	}
	if c.APIRateLimit < 1 || c.APIRateWindowSeconds < 1 {
		errs = append(errs, errors.New("api rate limit and window must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) BotDelayMin() time.Duration {
	return time.Duration(c.BotDelayMinMS) * time.Millisecond
}

func (c *Config) BotDelayMax() time.Duration {
	return time.Duration(c.BotDelayMaxMS) * time.Millisecond
}

func (c *Config) ScoreTimeout() time.Duration {
	return time.Duration(c.ScoreTimeoutMS) * time.Millisecond
}

func (c *Config) APIRateWindow() time.Duration {
	return time.Duration(c.APIRateWindowSeconds) * time.Second
}
