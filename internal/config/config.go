package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	App        AppConfig        `mapstructure:"app"`
	Simulation SimulationConfig `mapstructure:"sim"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Database   DatabaseConfig   `mapstructure:"db"`
	MDNS       MDNSConfig       `mapstructure:"mdns"`
}

type AppConfig struct {
	Port int `mapstructure:"port"`
}

type SimulationConfig struct {
	TickSpec string `mapstructure:"tick_spec"` // cron spec, e.g. "@every 10s"
	Seed     int64  `mapstructure:"seed"`      // 0 seeds from the clock
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Prefix      string        `mapstructure:"prefix"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type MDNSConfig struct {
	LocalName string `mapstructure:"local_name"`
}

var defaults = map[string]interface{}{
	"log_level":          "info",
	"app.port":           5069,
	"sim.tick_spec":      "@every 10s",
	"sim.seed":           0,
	"redis.addr":         "",
	"redis.prefix":       "palmwatch",
	"redis.snapshot_ttl": time.Hour,
	"mqtt.broker":        "",
	"mqtt.client_id":     "palmwatch",
	"mqtt.topic_prefix":  "plantation",
	"db.url":             "",
	"mdns.local_name":    "",
}

// LoadConfig reads configuration from config.yaml, .env, or env vars.
// Env vars win; APP_PORT maps to app.port and so on.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("CONFIG: No .env file loaded: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have no safe fallback
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port %d", c.App.Port)
	}
	if strings.TrimSpace(c.Simulation.TickSpec) == "" {
		return errors.New("simulation tick spec is empty")
	}
	if c.Redis.SnapshotTTL < 0 {
		return fmt.Errorf("negative redis snapshot ttl %s", c.Redis.SnapshotTTL)
	}
	return nil
}
