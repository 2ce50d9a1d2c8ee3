// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for reply-composer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultMaxMessageSize is 10 MB in bytes.
const defaultMaxMessageSize = 10485760

// BuiltinTemplate is used when neither template.text nor template.file is set.
const BuiltinTemplate = "Hi,\n\nI'm following up on this from our thread:\n\n[CONTEXT]\n\nCould you confirm at your convenience? Replies can go straight to [EMAIL].\n\nThanks"

// Config holds the complete application configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Intake    IntakeConfig    `yaml:"intake"`
	TLS       TLSConfig       `yaml:"tls"`
	Template  TemplateConfig  `yaml:"template"`
	Provider  string          `yaml:"provider"`
	SES       SESConfig       `yaml:"ses"`
	Graph     GraphConfig     `yaml:"graph"`
	Gmail     GmailConfig     `yaml:"gmail"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig holds the JSON API listener settings.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
	TLS    bool   `yaml:"tls"`
}

// IntakeConfig holds the SMTP intake listener settings.
type IntakeConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Listen         string `yaml:"listen"`
	Hostname       string `yaml:"hostname"`
	Domain         string `yaml:"domain"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxMessageSize int64  `yaml:"max_message_size"`
}

// TLSConfig holds TLS certificate file paths and the hosts a generated
// certificate should cover.
type TLSConfig struct {
	CertFile string   `yaml:"cert_file"`
	KeyFile  string   `yaml:"key_file"`
	Hosts    []string `yaml:"hosts"`
}

// TemplateConfig holds the reply template and draft metadata.
type TemplateConfig struct {
	Text       string `yaml:"text"`
	File       string `yaml:"file"`
	ReplaceAll bool   `yaml:"replace_all"`
	Subject    string `yaml:"subject"`
	From       string `yaml:"from"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
	ReplyTo         string `yaml:"reply_to"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Sender       string `yaml:"sender"`
	Mode         string `yaml:"mode"`
}

// GmailConfig holds Gmail API configuration.
type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	User            string `yaml:"user"`
	Mode            string `yaml:"mode"`
}

// ClipboardConfig selects the OSC 52 passthrough mode.
type ClipboardConfig struct {
	Mode string `yaml:"mode"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// AuthEnabled returns true if both intake username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.Intake.Username != "" && c.Intake.Password != ""
}

// SESConfigured returns true if the region and sender are set. Credentials
// may come from the default AWS chain.
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

// GmailConfigured returns true if the OAuth client and token files are set.
func (c *Config) GmailConfigured() bool {
	return c.Gmail.CredentialsFile != "" && c.Gmail.TokenFile != ""
}

// DefaultTemplate resolves the template new sessions start with: inline
// text first, then the template file, then BuiltinTemplate.
func (c *Config) DefaultTemplate() (string, error) {
	if c.Template.Text != "" {
		return c.Template.Text, nil
	}
	if c.Template.File != "" {
		data, err := os.ReadFile(c.Template.File)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return BuiltinTemplate, nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.HTTP.Listen = ":8080"
	c.Intake.Listen = ":2525"
	c.Intake.Hostname = "localhost"
	c.Intake.MaxMessageSize = defaultMaxMessageSize
	c.Template.Subject = "Following up"
	c.Clipboard.Mode = "auto"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	setString(&c.HTTP.Listen, "HTTP_LISTEN")
	setBool(&c.HTTP.TLS, "HTTP_TLS")

	setBool(&c.Intake.Enabled, "INTAKE_ENABLED")
	setString(&c.Intake.Listen, "INTAKE_LISTEN")
	setString(&c.Intake.Hostname, "INTAKE_HOSTNAME")
	setString(&c.Intake.Domain, "INTAKE_DOMAIN")
	setString(&c.Intake.Username, "INTAKE_USERNAME")
	setString(&c.Intake.Password, "INTAKE_PASSWORD")
	if v := os.Getenv("INTAKE_MAX_MESSAGE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Intake.MaxMessageSize = size
		}
	}

	setString(&c.TLS.CertFile, "TLS_CERT_FILE")
	setString(&c.TLS.KeyFile, "TLS_KEY_FILE")
	if v := os.Getenv("TLS_HOSTS"); v != "" {
		c.TLS.Hosts = splitList(v)
	}

	setString(&c.Template.Text, "TEMPLATE_TEXT")
	setString(&c.Template.File, "TEMPLATE_FILE")
	setBool(&c.Template.ReplaceAll, "TEMPLATE_REPLACE_ALL")
	setString(&c.Template.Subject, "TEMPLATE_SUBJECT")
	setString(&c.Template.From, "TEMPLATE_FROM")

	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	setString(&c.SES.Region, "SES_REGION")
	setString(&c.SES.AccessKeyID, "SES_ACCESS_KEY_ID")
	setString(&c.SES.SecretAccessKey, "SES_SECRET_ACCESS_KEY")
	setString(&c.SES.Sender, "SES_SENDER")
	setString(&c.SES.ReplyTo, "SES_REPLY_TO")

	setString(&c.Graph.TenantID, "GRAPH_TENANT_ID")
	setString(&c.Graph.ClientID, "GRAPH_CLIENT_ID")
	setString(&c.Graph.ClientSecret, "GRAPH_CLIENT_SECRET")
	setString(&c.Graph.Sender, "GRAPH_SENDER")
	setString(&c.Graph.Mode, "GRAPH_MODE")

	setString(&c.Gmail.CredentialsFile, "GMAIL_CREDENTIALS_FILE")
	setString(&c.Gmail.TokenFile, "GMAIL_TOKEN_FILE")
	setString(&c.Gmail.User, "GMAIL_USER")
	setString(&c.Gmail.Mode, "GMAIL_MODE")

	if v := os.Getenv("CLIPBOARD_MODE"); v != "" {
		c.Clipboard.Mode = strings.ToLower(v)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setBool leaves dst untouched when the value does not parse.
func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
