package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config carries runtime options for resmon.
type Config struct {
	File             string        `yaml:"-"`
	Interval         time.Duration `yaml:"interval"`
	Listen           string        `yaml:"listen"`
	ProcessLimit     int           `yaml:"process_limit"`
	Containers       bool          `yaml:"containers"`
	DockerBinary     string        `yaml:"docker_binary"`
	ContainerTimeout time.Duration `yaml:"container_timeout"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	PasswordHash     string        `yaml:"password_hash"`
	JWTSecret        string        `yaml:"jwt_secret"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	CookieSecure     bool          `yaml:"cookie_secure"`
	History          int           `yaml:"history"`
	LogLevel         string        `yaml:"log_level"`
	LogJSON          bool          `yaml:"log_json"`
	JSON             bool          `yaml:"json"`
	JSONStream       bool          `yaml:"json_stream"`
}

func Default() Config {
	return Config{
		Interval:         3 * time.Second,
		Listen:           ":3000",
		ProcessLimit:     50,
		Containers:       true,
		DockerBinary:     "docker",
		ContainerTimeout: 5 * time.Second,
		Username:         "admin",
		Password:         "admin123",
		SessionTTL:       8 * time.Hour,
		History:          30,
		LogLevel:         "info",
	}
}

// BindFlags registers every option on fs with cfg's current values as defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.File, "config", "c", c.File, "YAML config file")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "refresh interval")
	fs.StringVar(&c.Listen, "listen", c.Listen, "HTTP listen address")
	fs.IntVar(&c.ProcessLimit, "processes", c.ProcessLimit, "number of top processes to report")
	fs.BoolVar(&c.Containers, "containers", c.Containers, "report docker containers")
	fs.StringVar(&c.DockerBinary, "docker", c.DockerBinary, "docker CLI binary")
	fs.DurationVar(&c.ContainerTimeout, "container-timeout", c.ContainerTimeout, "timeout for each docker CLI call")
	fs.StringVar(&c.Username, "username", c.Username, "dashboard username")
	fs.StringVar(&c.Password, "password", c.Password, "dashboard password")
	fs.StringVar(&c.PasswordHash, "password-hash", c.PasswordHash, "bcrypt hash of the dashboard password (overrides --password)")
	fs.StringVar(&c.JWTSecret, "jwt-secret", c.JWTSecret, "session signing secret (random when empty)")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "session lifetime")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "mark the session cookie Secure")
	fs.IntVar(&c.History, "history", c.History, "samples kept for charts")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug|info|warn|error")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "log as JSON")
	fs.BoolVar(&c.JSON, "json", c.JSON, "output one-shot JSON and exit")
	fs.BoolVar(&c.JSONStream, "json-stream", c.JSONStream, "stream NDJSON until interrupted")
}

// Resolve layers defaults < file < environment < explicitly set flags.
// fs must have been populated by BindFlags and parsed.
func Resolve(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()
	if f := fs.Lookup("config"); f != nil {
		cfg.File = f.Value.String()
	}
	if cfg.File != "" {
		if err := cfg.LoadFile(cfg.File); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}

	// re-bind onto cfg so only changed flags overwrite it
	over := cfg
	tmp := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
	over.BindFlags(tmp)
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if tf := tmp.Lookup(f.Name); tf != nil && err == nil {
			err = tf.Value.Set(f.Value.String())
		}
	})
	if err != nil {
		return Config{}, fmt.Errorf("apply flags: %w", err)
	}
	return over, over.Validate()
}

// LoadFile overlays the YAML file at path. Durations use Go syntax ("5s").
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays RESMON_* variables plus the legacy ADMIN_USERNAME,
// ADMIN_PASSWORD and JWT_SECRET names.
func (c *Config) ApplyEnv() error {
	var errs []error
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	dur := func(dst *time.Duration, key string) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			*dst = parsed
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	integer := func(dst *int, key string) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	boolean := func(dst *bool, key string) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	dur(&c.Interval, "RESMON_INTERVAL")
	str(&c.Listen, "RESMON_LISTEN")
	integer(&c.ProcessLimit, "RESMON_PROCESSES")
	boolean(&c.Containers, "RESMON_CONTAINERS")
	str(&c.DockerBinary, "RESMON_DOCKER")
	dur(&c.ContainerTimeout, "RESMON_CONTAINER_TIMEOUT")
	str(&c.Username, "RESMON_USERNAME", "ADMIN_USERNAME")
	str(&c.Password, "RESMON_PASSWORD", "ADMIN_PASSWORD")
	str(&c.PasswordHash, "RESMON_PASSWORD_HASH")
	str(&c.JWTSecret, "RESMON_JWT_SECRET", "JWT_SECRET")
	dur(&c.SessionTTL, "RESMON_SESSION_TTL")
	boolean(&c.CookieSecure, "RESMON_COOKIE_SECURE")
	integer(&c.History, "RESMON_HISTORY")
	str(&c.LogLevel, "RESMON_LOG_LEVEL")
	boolean(&c.LogJSON, "RESMON_LOG_JSON")
	return errors.Join(errs...)
}

// Validate rejects settings the sampler cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	if c.ContainerTimeout <= 0 {
		errs = append(errs, errors.New("container timeout must be positive"))
	}
	if c.ProcessLimit <= 0 {
		errs = append(errs, errors.New("process limit must be positive"))
	}
	if c.History <= 0 {
		errs = append(errs, errors.New("history must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
