package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. EIGHTSLEEP_POD_HOST.
const EnvPrefix = "EIGHTSLEEP"

// Config is the full bridge configuration (configs/config.yml).
type Config struct {
	Port   string       `mapstructure:"port"`
	Log    LogConfig    `mapstructure:"log"`
	Pod    PodConfig    `mapstructure:"pod"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Alarm  AlarmConfig  `mapstructure:"alarm"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Events EventsConfig `mapstructure:"events"`
	Sim    SimConfig    `mapstructure:"sim"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PodConfig points at the companion server.
type PodConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	HistorySize  int           `mapstructure:"history_size"`
}

type UserConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type AuthConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	Users      []UserConfig  `mapstructure:"users"`
}

// AlarmConfig seeds the instant alarm settings.
type AlarmConfig struct {
	Intensity int    `mapstructure:"intensity"`
	Pattern   string `mapstructure:"pattern"`
	Duration  int    `mapstructure:"duration"`
}

type SyncConfig struct {
	SyncMode         bool `mapstructure:"sync_mode"`
	InstantAlarmSync bool `mapstructure:"instant_alarm_sync"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type EventsConfig struct {
	LogCapacity int         `mapstructure:"log_capacity"`
	Kafka       KafkaConfig `mapstructure:"kafka"`
}

// SimConfig is only read by cmd/podsim.
type SimConfig struct {
	Port string        `mapstructure:"port"`
	Tick time.Duration `mapstructure:"tick"`
}

var errEmptySigningKey = errors.New("auth.signing_key must be set when auth is enabled")

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("pod.host", "localhost")
	v.SetDefault("pod.port", 3000)
	v.SetDefault("pod.timeout", 10*time.Second)
	v.SetDefault("pod.poll_interval", 30*time.Second)
	v.SetDefault("pod.history_size", 10)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.users", []UserConfig{})

	v.SetDefault("alarm.intensity", 80)
	v.SetDefault("alarm.pattern", "rise")
	v.SetDefault("alarm.duration", 60)

	v.SetDefault("sync.sync_mode", false)
	v.SetDefault("sync.instant_alarm_sync", false)

	v.SetDefault("events.log_capacity", 500)
	v.SetDefault("events.kafka.brokers", []string{})
	v.SetDefault("events.kafka.topic", "eight-sleep.events")

	v.SetDefault("sim.port", "3000")
	v.SetDefault("sim.tick", time.Second)
}

// Load reads .env (if present), then <dir>/config.yml, then EIGHTSLEEP_* env overrides.
// A missing config file is not an error; defaults apply.
func Load(dir string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the bridge cannot run with.
func (c Config) Validate() error {
	if c.Pod.Host == "" {
		return errors.New("pod.host must be set")
	}
	if c.Pod.Port <= 0 || c.Pod.Port > 65535 {
		return fmt.Errorf("pod.port %d out of range", c.Pod.Port)
	}
	if c.Pod.PollInterval <= 0 {
		return fmt.Errorf("pod.poll_interval must be positive, got %s", c.Pod.PollInterval)
	}
	if c.Auth.Enabled && c.Auth.SigningKey == "" {
		return errEmptySigningKey
	}
	return nil
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
