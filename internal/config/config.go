// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON file and
// environment variables, in that order of precedence (last wins).
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`

	// BcryptCost is the bcrypt work factor for new password hashes.
	BcryptCost int `json:"bcrypt_cost"`

	// HashWorkers bounds concurrent bcrypt operations.
	HashWorkers int `json:"hash_workers"`

	// AuthTimeout bounds the user store lookup of each authenticated request.
	AuthTimeout Duration `json:"auth_timeout"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// Duration is a time.Duration that reads "10s", "5m" or a bare number of
// seconds from JSON and the environment.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration must be a string or a number of seconds: %s", b)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) String() string { return time.Duration(*d).String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Options {
	return &Options{
		Port:        "localhost:8000",
		Config:      "config.json",
		LogLevel:    "info",
		BcryptCost:  12,
		HashWorkers: runtime.NumCPU(),
		AuthTimeout: Duration(5 * time.Second),
	}
}

// options holds the current configuration values.
var options = Defaults()

// init initializes command-line flags and sets default values.
func init() {
	registerFlags(flag.CommandLine, options)
}

func registerFlags(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address")
	fs.StringVar(&o.Config, "config", o.Config, "path to config file")
	fs.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level: debug, info, warn, error")
	fs.IntVar(&o.BcryptCost, "bcrypt-cost", o.BcryptCost, "bcrypt work factor")
	fs.IntVar(&o.HashWorkers, "hash-workers", o.HashWorkers, "max concurrent password hash operations")
	fs.Var(&o.AuthTimeout, "auth-timeout", "user lookup timeout for authenticated requests")
	fs.StringVar(&o.TLSCert, "tls-cert", o.TLSCert, "path to TLS certificate (enables HTTPS with -tls-key)")
	fs.StringVar(&o.TLSKey, "tls-key", o.TLSKey, "path to TLS private key")
}

// Parse parses the command-line flags, the config file and environment
// variables to set configuration values. It returns a pointer to the
// Options struct containing the parsed configuration values.
func Parse() (*Options, error) {
	flag.Parse()
	if err := load(options, os.Getenv); err != nil {
		return nil, err
	}
	return options, nil
}

// load overlays the JSON config file and then environment variables on o.
func load(o *Options, getenv func(string) string) error {
	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			data, err := os.ReadFile(o.Config)
			if err != nil {
				return fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, o); err != nil {
				return fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if v := getenv("SERVER_ADDRESS"); v != "" {
		o.Port = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		o.BcryptCost = n
	}
	if v := getenv("HASH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HASH_WORKERS: %w", err)
		}
		o.HashWorkers = n
	}
	if v := getenv("AUTH_TIMEOUT"); v != "" {
		if err := o.AuthTimeout.Set(v); err != nil {
			return fmt.Errorf("AUTH_TIMEOUT: %w", err)
		}
	}

	return nil
}
