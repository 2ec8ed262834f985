package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	commoncfg "github.com/MAR2807/ai-chatbot-v3/core/config"
	"github.com/MAR2807/ai-chatbot-v3/core/logx"
	"github.com/MAR2807/ai-chatbot-v3/internal/bedrock"
)

// Environment variables holding the AWS binding. They keep the names the
// front-end deployment already exports.
const (
	EnvAccessKeyID     = "NEXT_PUBLIC_AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "NEXT_PUBLIC_AWS_SECRET_ACCESS_KEY"
	EnvRegion          = "NEXT_PUBLIC_REGION_NAME"
)

// DefaultAllowedOrigin is the deployed web front-end.
const DefaultAllowedOrigin = "https://ai-chatbot-v3.vercel.app"

// ErrMissingEnv is returned by Validate when a required variable is unset.
var ErrMissingEnv = errors.New("missing required environment variables")

// AWSConfig binds the relay to an account and region. It is only read from
// the environment, never from the config file.
type AWSConfig struct {
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
	Region          string `yaml:"-"`
	Endpoint        string `yaml:"bedrock_endpoint"`
}

// RelayConfig holds configuration for the relay.
type RelayConfig struct {
	Port           int           `yaml:"port"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	DrainTimeout   time.Duration `yaml:"drain_timeout"`
	RedisAddr      string        `yaml:"redis_addr"`
	ConfigFile     string        `yaml:"-"`
	AWS            AWSConfig     `yaml:"aws"`
}

// SetDefaults initializes c with built-in defaults.
func (c *RelayConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.AllowedOrigins == nil {
		c.AllowedOrigins = []string{DefaultAllowedOrigin}
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 30 * time.Second
	}
	if c.ConfigFile == "" {
		c.ConfigFile = commoncfg.ConfigPath("relay.yaml")
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *RelayConfig) ApplyEnv() {
	if v := commoncfg.GetEnv(commoncfg.EnvConfigFile, ""); v != "" {
		c.ConfigFile = v
	}
	if v := commoncfg.GetEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := commoncfg.GetEnv("LOG_FORMAT", ""); v != "" {
		c.LogFormat = v
	}
	if v := commoncfg.GetEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		} else {
			logx.Log.Warn().Str("PORT", v).Int("port", c.Port).Msg("ignoring invalid PORT")
		}
	}
	if v := commoncfg.GetEnv("METRICS_PORT", ""); v != "" {
		c.MetricsAddr = metricsAddr(v)
	}
	if v := commoncfg.GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
	if v := commoncfg.GetEnv("DRAIN_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DrainTimeout = d
		} else {
			logx.Log.Warn().Str("DRAIN_TIMEOUT", v).Dur("drain_timeout", c.DrainTimeout).Msg("ignoring invalid DRAIN_TIMEOUT")
		}
	}
	if v := commoncfg.GetEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := commoncfg.GetEnv("BEDROCK_ENDPOINT", ""); v != "" {
		c.AWS.Endpoint = v
	}
	c.AWS.AccessKeyID = commoncfg.GetEnv(EnvAccessKeyID, "")
	c.AWS.SecretAccessKey = commoncfg.GetEnv(EnvSecretAccessKey, "")
	c.AWS.Region = commoncfg.GetEnv(EnvRegion, "")
}

// BindFlagsFromCurrent binds command line flags using the current config values as defaults.
func (c *RelayConfig) BindFlagsFromCurrent(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "relay config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log output format (console, json)")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen port")
	fs.Func("metrics-port", "Prometheus metrics listen address or port; defaults to the value of --port", func(v string) error {
		c.MetricsAddr = metricsAddr(v)
		return nil
	})
	fs.Func("allowed-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.AllowedOrigins = splitComma(v)
		return nil
	})
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "time to wait for in-flight invocations on shutdown (0 to exit immediately)")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL for shared lifecycle state")
	fs.StringVar(&c.AWS.Endpoint, "bedrock-endpoint", c.AWS.Endpoint, "override the Bedrock Runtime endpoint URL")
}

// LoadFile populates the config from a YAML file.
func (c *RelayConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate reports configuration the relay cannot start with.
func (c *RelayConfig) Validate() error {
	var missing []string
	if c.AWS.AccessKeyID == "" {
		missing = append(missing, EnvAccessKeyID)
	}
	if c.AWS.SecretAccessKey == "" {
		missing = append(missing, EnvSecretAccessKey)
	}
	if c.AWS.Region == "" {
		missing = append(missing, EnvRegion)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}
	for _, o := range c.AllowedOrigins {
		if o == "" || strings.Contains(o, "*") {
			return fmt.Errorf("allowed origin %q must be an explicit origin", o)
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Credentials returns the Bedrock binding described by c.
func (c *RelayConfig) Credentials() bedrock.Credentials {
	return bedrock.Credentials{
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		Region:          c.AWS.Region,
		Endpoint:        c.AWS.Endpoint,
	}
}

// FromEnv builds a validated config from defaults and the environment only.
// It is used where there is no command line, such as a Lambda function.
func FromEnv() (RelayConfig, error) {
	var c RelayConfig
	c.SetDefaults()
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return RelayConfig{}, err
	}
	return c, nil
}

// MetricsOnMainPort reports whether /metrics is served by the main listener.
// An empty MetricsAddr follows --port.
func (c *RelayConfig) MetricsOnMainPort() bool {
	return c.MetricsAddr == "" || c.MetricsAddr == fmt.Sprintf(":%d", c.Port)
}

func metricsAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

func splitComma(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
