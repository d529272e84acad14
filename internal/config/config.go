// internal/config/config.go
//
// Runtime configuration.
// Sources, lowest to highest precedence:
//   - built-in defaults (below),
//   - an optional YAML file (--config),
//   - environment: WORDLE_<SECTION>_<KEY>, plus PORT, JWT_SECRET, LOG_LEVEL and
//     REDIS_ADDR for compatibility with plain container setups. A .env file in the
//     working directory is loaded first and never overrides the real environment.
//
// The result is validated section by section before use.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/robalobadob/epiwordle/internal/words"
)

// DevJWTSecret is the fallback signing secret. Serving with it logs a warning.
const DevJWTSecret = "dev-secret-key-change-in-prod"

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"required|min:1|max:65535"`
	RequestTimeout  time.Duration `mapstructure:"requestTimeout" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" validate:"required"`
	ClientOrigin    string        `mapstructure:"clientOrigin"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic,disabled"`
	Pretty bool   `mapstructure:"pretty"`
}

type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwtSecret" validate:"required|minLen:8"`
	TokenTTL      time.Duration `mapstructure:"tokenTTL" validate:"required"`
	CookieName    string        `mapstructure:"cookieName" validate:"required"`
	SecureCookies bool          `mapstructure:"secureCookies"`
}

type GameConfig struct {
	MaxAttempts int `mapstructure:"maxAttempts" validate:"required|min:1|max:20"`
	WordLength  int `mapstructure:"wordLength" validate:"required|min:1"`
}

type ChatConfig struct {
	Driver      string `mapstructure:"driver" validate:"required|in:memory,redis"`
	MaxMessages int    `mapstructure:"maxMessages" validate:"required|min:1"`
	MaxLength   int    `mapstructure:"maxLength" validate:"required|min:1"`
	RedisAddr   string `mapstructure:"redisAddr"`
	RedisDB     int    `mapstructure:"redisDB" validate:"min:0"`
	RedisKey    string `mapstructure:"redisKey"`
}

type RateLimitConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Requests     int           `mapstructure:"requestsPerWindow" validate:"required|min:1"`
	AuthRequests int           `mapstructure:"authRequestsPerWindow" validate:"required|min:1"`
	Window       time.Duration `mapstructure:"window" validate:"required"`
}

type CacheConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	SizeMB         int           `mapstructure:"sizeMB" validate:"min:0"`
	LeaderboardTTL time.Duration `mapstructure:"leaderboardTTL"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type WordsConfig struct {
	// File replaces the embedded default list when the words table is empty.
	File string `mapstructure:"file"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Game      GameConfig      `mapstructure:"game"`
	Chat      ChatConfig      `mapstructure:"chat"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Words     WordsConfig     `mapstructure:"words"`
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.requestTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.clientOrigin", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("storage.path", "data/wordle.db")

	v.SetDefault("auth.jwtSecret", DevJWTSecret)
	v.SetDefault("auth.tokenTTL", 24*time.Hour)
	v.SetDefault("auth.cookieName", "token")
	v.SetDefault("auth.secureCookies", false)

	v.SetDefault("game.maxAttempts", 6)
	v.SetDefault("game.wordLength", words.Length)

	v.SetDefault("chat.driver", "memory")
	v.SetDefault("chat.maxMessages", 50)
	v.SetDefault("chat.maxLength", 200)
	v.SetDefault("chat.redisAddr", "")
	v.SetDefault("chat.redisDB", 0)
	v.SetDefault("chat.redisKey", "epiwordle:chat")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerWindow", 1000)
	v.SetDefault("rateLimit.authRequestsPerWindow", 20)
	v.SetDefault("rateLimit.window", 15*time.Minute)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.sizeMB", 4)
	v.SetDefault("cache.leaderboardTTL", 10*time.Second)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("words.file", "")
}

// Load reads the configuration. path may be empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WORDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range map[string][]string{
		"server.port":    {"WORDLE_SERVER_PORT", "PORT"},
		"auth.jwtSecret": {"WORDLE_AUTH_JWTSECRET", "JWT_SECRET"},
		"log.level":      {"WORDLE_LOG_LEVEL", "LOG_LEVEL"},
		"chat.redisAddr": {"WORDLE_CHAT_REDISADDR", "REDIS_ADDR"},
	} {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		ptr  any
	}{
		{"server", &c.Server},
		{"log", &c.Log},
		{"storage", &c.Storage},
		{"auth", &c.Auth},
		{"game", &c.Game},
		{"chat", &c.Chat},
		{"rateLimit", &c.RateLimit},
		{"cache", &c.Cache},
	}
	for _, s := range sections {
		v := validate.Struct(s.ptr)
		if !v.Validate() {
			return fmt.Errorf("invalid %s config: %s", s.name, v.Errors.One())
		}
	}

	if c.Game.WordLength != words.Length {
		return fmt.Errorf("invalid game config: wordLength must be %d to match the dictionary", words.Length)
	}
	if c.Chat.Driver == "redis" && c.Chat.RedisAddr == "" {
		return errors.New("invalid chat config: redisAddr is required with the redis driver")
	}
	if c.Cache.Enabled && c.Cache.LeaderboardTTL <= 0 {
		return errors.New("invalid cache config: leaderboardTTL must be positive")
	}
	return nil
}
