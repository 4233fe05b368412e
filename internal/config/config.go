package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration knobs for the relay.
type Config struct {
	HTTP struct {
		Addr         string        `mapstructure:"addr"`
		Port         int           `mapstructure:"port"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`
	VAPID struct {
		Subject       string `mapstructure:"subject"`
		PublicKey     string `mapstructure:"public_key"`
		PrivateKey    string `mapstructure:"private_key"`
		Store         string `mapstructure:"store"`
		LogPrivateKey bool   `mapstructure:"log_private_key"`
	} `mapstructure:"vapid"`
	Delivery struct {
		Timeout   time.Duration `mapstructure:"timeout"`
		TTL       int           `mapstructure:"ttl"`
		Urgency   string        `mapstructure:"urgency"`
		PruneGone bool          `mapstructure:"prune_gone"`
	} `mapstructure:"delivery"`
	Storage struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Frontend struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"frontend"`
	Auth struct {
		Enabled   bool   `mapstructure:"enabled"`
		Username  string `mapstructure:"username"`
		Password  string `mapstructure:"password"`
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Key store kinds accepted by vapid.store.
const (
	KeyStoreMemory = "memory"
	KeyStoreBolt   = "bolt"
)

// Load reads the configuration from disk/environment using Viper.
// A .env file in the working directory is applied to the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("push_relay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("http.port", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, env + defaults are enough to run
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListenAddr returns http.addr when set, otherwise ":<port>".
func (c *Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.HTTP.Addr); addr != "" {
		return addr
	}
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	switch strings.ToLower(c.VAPID.Store) {
	case KeyStoreMemory, KeyStoreBolt:
	default:
		return fmt.Errorf("unknown vapid store %q", c.VAPID.Store)
	}
	if (c.VAPID.PublicKey == "") != (c.VAPID.PrivateKey == "") {
		return fmt.Errorf("vapid public_key and private_key must be set together")
	}
	if c.Delivery.Timeout <= 0 {
		return fmt.Errorf("delivery timeout must be positive")
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")

	v.SetDefault("vapid.subject", "mailto:example@example.com")
	v.SetDefault("vapid.public_key", "")
	v.SetDefault("vapid.private_key", "")
	v.SetDefault("vapid.store", KeyStoreMemory)
	v.SetDefault("vapid.log_private_key", true)

	v.SetDefault("delivery.timeout", "10s")
	v.SetDefault("delivery.ttl", 2419200)
	v.SetDefault("delivery.urgency", "normal")
	v.SetDefault("delivery.prune_gone", true)

	v.SetDefault("storage.path", "./data/push-relay.db")

	v.SetDefault("frontend.dir", "./public")

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin123")
	v.SetDefault("auth.jwt_secret", "change-me-secret")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
