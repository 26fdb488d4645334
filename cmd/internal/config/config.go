package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns" split_words:"true"`
	SlowQueryMS  int    `yaml:"slow_query_ms" split_words:"true"`
}

func (d DatabaseConfig) SlowQueryThreshold() time.Duration {
	return time.Duration(d.SlowQueryMS) * time.Millisecond
}

type EventsConfig struct {
	// Broker is one of none, amqp, redis or kafka. For kafka, URL is a
	// comma separated broker list.
	Broker string `yaml:"broker"`
	URL    string `yaml:"url"`
	Topic  string `yaml:"topic"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":6060"},
		Database: DatabaseConfig{URL: "sqlite://availability.db", SlowQueryMS: 100},
		Events:   EventsConfig{Broker: "none"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads .env into the environment, then the YAML file named by
// CONFIG_FILE (config.yaml when unset) and finally applies environment
// overrides. Missing .env and default config files are not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	path, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit {
		path = "config.yaml"
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from SECTION_FIELD variables such as
// DATABASE_URL or EVENTS_BROKER. Unset variables leave the field alone.
func (c *Config) applyEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}
	if c.Database.URL == "" {
		return errors.New("database url is required")
	}
	if c.Database.MaxOpenConns < 0 || c.Database.SlowQueryMS < 0 {
		return errors.New("database limits must not be negative")
	}
	switch c.Events.Broker {
	case "none", "":
	case "amqp", "redis", "kafka":
		if c.Events.URL == "" {
			return fmt.Errorf("events url is required for broker %q", c.Events.Broker)
		}
	default:
		return fmt.Errorf("unknown events broker %q", c.Events.Broker)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
