// Package config provides functionality for managing configuration options
// for the application using command-line flags, a config file and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads from flags and config files in
// its string form ("1h", "30m").
type Duration time.Duration

// String implements flag.Value.
func (d Duration) String() string { return time.Duration(d).String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalText lets JSON and YAML config files carry durations as strings.
func (d *Duration) UnmarshalText(b []byte) error { return d.Set(string(b)) }

// SMTP holds outbound mail settings. An empty Host selects the logging notifier.
type SMTP struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
	// SSL selects implicit TLS instead of STARTTLS.
	SSL bool `json:"ssl" yaml:"ssl"`
}

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address" yaml:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	// RedisAddr selects the Redis session store when non-empty;
	// sessions are kept in PostgreSQL otherwise.
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"`

	// SessionSecret signs the session cookie. A random key is used when empty,
	// which invalidates sessions on restart.
	SessionSecret string `json:"session_secret" yaml:"session_secret"`

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool `json:"cookie_secure" yaml:"cookie_secure"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`

	SMTP SMTP `json:"smtp" yaml:"smtp"`

	// CleanupInterval is how often expired codes and sessions are purged.
	CleanupInterval Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	// OTPRetention is how long expired codes are kept before purging.
	OTPRetention Duration `json:"otp_retention" yaml:"otp_retention"`

	// Dev enables development conveniences: without an SMTP host, codes
	// are written to the log instead of failing startup.
	Dev bool `json:"dev" yaml:"dev"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-"`
}

func newFlagSet(name string, o *Options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&o.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.RedisAddr, "r", "", "redis address for sessions")
	fs.StringVar(&o.SessionSecret, "s", "", "session cookie signing secret")
	fs.BoolVar(&o.CookieSecure, "cookie-secure", false, "mark session cookie Secure")
	fs.StringVar(&o.LogLevel, "l", "info", "log level")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&o.TLSKey, "tls-key", "", "TLS key file")
	fs.BoolVar(&o.Dev, "dev", false, "development mode")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")

	o.CleanupInterval = Duration(time.Hour)
	o.OTPRetention = Duration(24 * time.Hour)
	o.SMTP.Port = 587
	fs.Var(&o.CleanupInterval, "cleanup-interval", "purge interval for expired rows")
	fs.Var(&o.OTPRetention, "otp-retention", "how long expired codes are kept")
	return fs
}

// Parse parses the command-line flags, config file and environment variables
// to set configuration values. It exits the process on malformed input.
func Parse() *Options {
	o, err := Load(os.Args[0], os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return o
}

// Load resolves options from args, then the config file, then the environment
// read through getenv. Later sources override earlier ones.
func Load(name string, args []string, getenv func(string) string) (*Options, error) {
	o := &Options{}
	if err := newFlagSet(name, o).Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			if err := readFile(o.Config, o); err != nil {
				return nil, err
			}
		}
	}

	if err := applyEnv(o, getenv); err != nil {
		return nil, err
	}
	return o, nil
}

func readFile(path string, o *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, o)
	default:
		err = json.Unmarshal(data, o)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func applyEnv(o *Options, getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS": &o.Port,
		"DATABASE_DSN":   &o.DatabaseDSN,
		"REDIS_ADDR":     &o.RedisAddr,
		"SESSION_SECRET": &o.SessionSecret,
		"LOG_LEVEL":      &o.LogLevel,
		"TLS_CERT":       &o.TLSCert,
		"TLS_KEY":        &o.TLSKey,
		"SMTP_HOST":      &o.SMTP.Host,
		"SMTP_USER":      &o.SMTP.Username,
		"SMTP_PASSWORD":  &o.SMTP.Password,
		"SMTP_FROM":      &o.SMTP.From,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		o.SMTP.Port = port
	}
	if v := getenv("SMTP_SSL"); v != "" {
		ssl, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SMTP_SSL: %w", err)
		}
		o.SMTP.SSL = ssl
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		o.CookieSecure = secure
	}
	if v := getenv("DEV_MODE"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEV_MODE: %w", err)
		}
		o.Dev = dev
	}
	return nil
}
