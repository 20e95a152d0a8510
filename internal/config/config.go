// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the form mailer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// defaultConcurrency sends fan-out copies one at a time.
const defaultConcurrency = 1

// Config holds the complete application configuration.
type Config struct {
	Includes         []string      `yaml:"includes,omitempty"`
	Provider         string        `yaml:"provider"`
	FallbackProvider string        `yaml:"fallback_provider"`
	Settings         Settings      `yaml:"settings"`
	Mail             Layered       `yaml:"mail"`
	SES              SESConfig     `yaml:"ses"`
	Graph            GraphConfig   `yaml:"graph"`
	SMTP             SMTPConfig    `yaml:"smtp"`
	Resend           ResendConfig  `yaml:"resend"`
	Logging          LoggingConfig `yaml:"logging"`
}

// Settings holds the mailer-wide settings that must be valid before any
// message is composed.
type Settings struct {
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
	TemplatesDir string `yaml:"templates_dir"`
	Concurrency  int    `yaml:"concurrency"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sender       string `yaml:"sender"`
}

// SMTPConfig holds outbound SMTP relay configuration.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TLS      bool   `yaml:"tls"`
}

// ResendConfig holds Resend API configuration.
type ResendConfig struct {
	APIKey string `yaml:"api_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	cfg, err := readFile(path, make(map[string]bool))
	if err != nil {
		return nil, err
	}

	defaults := &Config{}
	defaults.applyDefaults()
	if err := mergo.Merge(cfg, defaults); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// readFile parses one YAML file and merges its includes into it. Values in
// the including file win over values from included files. seen holds the
// absolute paths already loaded; an include matching one of them is skipped.
func readFile(path string, seen map[string]bool) (*Config, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	seen[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	baseDir := filepath.Dir(path)
	for _, include := range cfg.Includes {
		includePath := include
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, include)
		}

		matches, err := filepath.Glob(includePath)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %s: %w", include, err)
		}

		for _, match := range matches {
			if abs, err := filepath.Abs(match); err == nil {
				match = abs
			}
			if seen[match] {
				continue
			}
			included, err := readFile(match, seen)
			if err != nil {
				return nil, fmt.Errorf("failed to load include %s: %w", match, err)
			}
			if err := mergo.Merge(cfg, included); err != nil {
				return nil, fmt.Errorf("failed to merge include %s: %w", match, err)
			}
		}
	}

	return cfg, nil
}

// loadDotEnv loads a .env file from the working directory if there is one.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}
}

// Validate checks the mailer-wide settings.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.FromEmail) == "" {
		return errors.New("from_email is required")
	}
	if _, err := mail.ParseAddress(s.FromEmail); err != nil {
		return fmt.Errorf("from_email %q is not a valid address: %w", s.FromEmail, err)
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", s.Concurrency)
	}
	return nil
}

// Validate checks the settings and that the selected providers have the
// credentials they need.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Settings.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, name := range []string{c.Provider, c.FallbackProvider} {
		if err := c.checkProvider(name); err != nil {
			errs = append(errs, err)
		}
	}
	if c.FallbackProvider != "" && c.FallbackProvider == c.Provider {
		errs = append(errs, fmt.Errorf("fallback_provider must differ from provider %q", c.Provider))
	}
	return errors.Join(errs...)
}

func (c *Config) checkProvider(name string) error {
	switch name {
	case "", "stdout":
		return nil
	case "ses":
		if !c.SESConfigured() {
			return errors.New("ses provider requires ses.region and ses.sender")
		}
	case "graph":
		if !c.GraphConfigured() {
			return errors.New("graph provider requires graph.tenant_id, graph.client_id, graph.client_secret and graph.sender")
		}
	case "smtp":
		if !c.SMTPConfigured() {
			return errors.New("smtp provider requires smtp.host")
		}
	case "resend":
		if !c.ResendConfigured() {
			return errors.New("resend provider requires resend.api_key")
		}
	default:
		return fmt.Errorf("unknown provider %q", name)
	}
	return nil
}

// From returns the default sender, formatted with the display name if set.
func (s Settings) From() string {
	if s.FromName == "" {
		return s.FromEmail
	}
	return (&mail.Address{Name: s.FromName, Address: s.FromEmail}).String()
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// GraphConfigured returns true if all four Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.Sender != ""
}

// SMTPConfigured returns true if an SMTP relay host is set.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != ""
}

// ResendConfigured returns true if a Resend API key is set.
func (c *Config) ResendConfigured() bool {
	return c.Resend.APIKey != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Settings.Concurrency = defaultConcurrency
	c.SMTP.Port = 587
	c.Logging.Level = "info"
	c.Logging.Format = "json"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("FALLBACK_PROVIDER"); v != "" {
		c.FallbackProvider = strings.ToLower(v)
	}

	if v := os.Getenv("FROM_EMAIL"); v != "" {
		c.Settings.FromEmail = v
	}
	if v := os.Getenv("FROM_NAME"); v != "" {
		c.Settings.FromName = v
	}
	if v := os.Getenv("TEMPLATES_DIR"); v != "" {
		c.Settings.TemplatesDir = v
	}
	if v := os.Getenv("SEND_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Settings.Concurrency = n
		}
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("GRAPH_TENANT_ID"); v != "" {
		c.Graph.TenantID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_ID"); v != "" {
		c.Graph.ClientID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_SECRET"); v != "" {
		c.Graph.ClientSecret = v
	}
	if v := os.Getenv("GRAPH_SENDER"); v != "" {
		c.Graph.Sender = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SMTP.TLS = b
		}
	}

	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		c.Resend.APIKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}
