package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	libconfig "cellmon/backend/libs/config"
	"cellmon/backend/libs/sshexec"
)

// Defaults applied before the config file is read.
const (
	DefaultUser           = "root"
	DefaultDatabaseURL    = "postgres://postgres@localhost/postgres"
	DefaultTable          = "teltonika"
	DefaultInterval       = 60 * time.Second
	DefaultDialTimeout    = 5 * time.Second
	DefaultCommandTimeout = 10 * time.Second
)

// DefaultDevices are the wired WAN and mobile interfaces of a RUT-class router.
var DefaultDevices = []string{"eth1", "wwan0"}

// Device names are interpolated into a shell command.
var deviceName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:@-]*$`)

// RouterConfig describes the SSH endpoint.
type RouterConfig struct {
	Host           string        `yaml:"host" env:"CELLMON_HOST"`
	User           string        `yaml:"user" env:"CELLMON_USER"`
	Password       string        `yaml:"password" env:"CELLMON_PASSWORD"`
	HostKey        string        `yaml:"host_key" env:"HOST_KEY"`
	DialTimeout    time.Duration `yaml:"dial_timeout" env:"CELLMON_DIAL_TIMEOUT"`
	CommandTimeout time.Duration `yaml:"command_timeout" env:"CELLMON_COMMAND_TIMEOUT"`
	Devices        []string      `yaml:"devices" env:"CELLMON_DEVICES"`
}

// DatabaseConfig describes the telemetry table.
type DatabaseConfig struct {
	URL         string `yaml:"url" env:"CELLMON_DATABASE_URL"`
	Table       string `yaml:"table" env:"CELLMON_TABLE"`
	Hypertables bool   `yaml:"hypertables" env:"CELLMON_HYPERTABLES"`
}

// LogConfig controls logger level and encoding.
type LogConfig struct {
	Level    string `yaml:"level" env:"CELLMON_LOG_LEVEL"`
	Encoding string `yaml:"encoding" env:"CELLMON_LOG_ENCODING"`
	Quiet    bool   `yaml:"quiet" env:"CELLMON_QUIET"`
	Debug    bool   `yaml:"debug" env:"CELLMON_DEBUG"`
}

// RedisConfig enables the latest-sample mirror when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"CELLMON_REDIS_ADDR"`
	Password string `yaml:"password" env:"CELLMON_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"CELLMON_REDIS_DB"`
}

// Config defines cellular poller configuration.
type Config struct {
	Router   RouterConfig   `yaml:"router"`
	Database DatabaseConfig `yaml:"database"`
	Poll     struct {
		Interval time.Duration `yaml:"interval" env:"CELLMON_INTERVAL"`
	} `yaml:"poll"`
	Log  LogConfig `yaml:"log"`
	HTTP struct {
		// Addr enables /health and /metrics when set.
		Addr string `yaml:"addr" env:"CELLMON_METRICS_ADDR"`
	} `yaml:"http"`
	Redis RedisConfig `yaml:"redis"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.Router.User = DefaultUser
	cfg.Router.DialTimeout = DefaultDialTimeout
	cfg.Router.CommandTimeout = DefaultCommandTimeout
	cfg.Router.Devices = append([]string(nil), DefaultDevices...)
	cfg.Database.URL = DefaultDatabaseURL
	cfg.Database.Table = DefaultTable
	cfg.Poll.Interval = DefaultInterval
	cfg.Log.Encoding = "json"
	return cfg
}

// Load applies defaults, the optional YAML file at path, environment variables and then
// overrides, in that order, and validates the result.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg, path); err != nil {
		return nil, err
	}
	for _, apply := range overrides {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Router.Host) == "" {
		return errors.New("config: router host required")
	}
	if strings.TrimSpace(c.Router.User) == "" {
		return errors.New("config: router user required")
	}
	if c.Router.Password == "" {
		return errors.New("config: router password required")
	}
	if _, err := c.Router.PublicKey(); err != nil {
		return fmt.Errorf("config: router host key: %w", err)
	}
	if c.Router.DialTimeout <= 0 || c.Router.CommandTimeout <= 0 {
		return errors.New("config: router timeouts must be positive")
	}
	if len(c.Router.Devices) != len(DefaultDevices) {
		return fmt.Errorf("config: expected %d devices (wired, mobile), got %d", len(DefaultDevices), len(c.Router.Devices))
	}
	for _, d := range c.Router.Devices {
		if !deviceName.MatchString(d) {
			return fmt.Errorf("config: invalid device name %q", d)
		}
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("config: database url required")
	}
	if strings.TrimSpace(c.Database.Table) == "" {
		return errors.New("config: database table required")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("config: poll interval must be positive, got %s", c.Poll.Interval)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log encoding %q", c.Log.Encoding)
	}
	return nil
}

// PublicKey parses the pinned router host key.
func (r RouterConfig) PublicKey() (ssh.PublicKey, error) {
	if strings.TrimSpace(r.HostKey) == "" {
		return nil, errors.New("not set (use --host-key or HOST_KEY)")
	}
	return sshexec.ParseHostKey(r.HostKey)
}

// LogLevel resolves the effective level: debug wins over quiet, quiet over the configured level.
func (c *Config) LogLevel() string {
	switch {
	case c.Log.Debug:
		return "debug"
	case c.Log.Quiet:
		return "error"
	default:
		return c.Log.Level
	}
}

// RedisTTL is how long the mirrored sample stays valid.
func (c *Config) RedisTTL() time.Duration {
	return 3 * c.Poll.Interval
}
