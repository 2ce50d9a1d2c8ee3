package config

import (
	"os"
	"path/filepath"
	"testing"
)

var allEnvVars = []string{
	"HTTP_LISTEN", "HTTP_TLS",
	"INTAKE_ENABLED", "INTAKE_LISTEN", "INTAKE_HOSTNAME", "INTAKE_DOMAIN",
	"INTAKE_USERNAME", "INTAKE_PASSWORD", "INTAKE_MAX_MESSAGE_SIZE",
	"TLS_CERT_FILE", "TLS_KEY_FILE", "TLS_HOSTS",
	"TEMPLATE_TEXT", "TEMPLATE_FILE", "TEMPLATE_REPLACE_ALL", "TEMPLATE_SUBJECT", "TEMPLATE_FROM",
	"PROVIDER",
	"SES_REGION", "SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY", "SES_SENDER", "SES_REPLY_TO",
	"GRAPH_TENANT_ID", "GRAPH_CLIENT_ID", "GRAPH_CLIENT_SECRET", "GRAPH_SENDER", "GRAPH_MODE",
	"GMAIL_CREDENTIALS_FILE", "GMAIL_TOKEN_FILE", "GMAIL_USER", "GMAIL_MODE",
	"CLIPBOARD_MODE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range allEnvVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Listen != ":8080" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":8080")
	}
	if cfg.HTTP.TLS {
		t.Error("HTTP.TLS: got true, want false")
	}
	if cfg.Intake.Enabled {
		t.Error("Intake.Enabled: got true, want false")
	}
	if cfg.Intake.Listen != ":2525" {
		t.Errorf("Intake.Listen: got %q, want %q", cfg.Intake.Listen, ":2525")
	}
	if cfg.Intake.Hostname != "localhost" {
		t.Errorf("Intake.Hostname: got %q, want %q", cfg.Intake.Hostname, "localhost")
	}
	if cfg.Intake.MaxMessageSize != 10485760 {
		t.Errorf("Intake.MaxMessageSize: got %d, want %d", cfg.Intake.MaxMessageSize, 10485760)
	}
	if cfg.Provider != "" {
		t.Errorf("Provider: got %q, want empty", cfg.Provider)
	}
	if cfg.Template.Subject != "Following up" {
		t.Errorf("Template.Subject: got %q, want %q", cfg.Template.Subject, "Following up")
	}
	if cfg.Template.ReplaceAll {
		t.Error("Template.ReplaceAll: got true, want false")
	}
	if cfg.Clipboard.Mode != "auto" {
		t.Errorf("Clipboard.Mode: got %q, want %q", cfg.Clipboard.Mode, "auto")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_LISTEN", ":9090")
	t.Setenv("HTTP_TLS", "true")
	t.Setenv("INTAKE_ENABLED", "1")
	t.Setenv("INTAKE_LISTEN", ":9025")
	t.Setenv("INTAKE_DOMAIN", "replies.example.com")
	t.Setenv("INTAKE_USERNAME", "admin")
	t.Setenv("INTAKE_PASSWORD", "secret123")
	t.Setenv("INTAKE_MAX_MESSAGE_SIZE", "1048576")
	t.Setenv("TLS_CERT_FILE", "/certs/cert.pem")
	t.Setenv("TLS_KEY_FILE", "/certs/key.pem")
	t.Setenv("TLS_HOSTS", "composer.local, 10.0.0.5")
	t.Setenv("TEMPLATE_TEXT", "Hello [EMAIL]")
	t.Setenv("TEMPLATE_REPLACE_ALL", "true")
	t.Setenv("TEMPLATE_FROM", "me@example.com")
	t.Setenv("PROVIDER", "SES")
	t.Setenv("SES_REGION", "us-east-1")
	t.Setenv("SES_SENDER", "ses@example.com")
	t.Setenv("SES_REPLY_TO", "inbox@example.com")
	t.Setenv("GRAPH_TENANT_ID", "tid-123")
	t.Setenv("GRAPH_MODE", "draft")
	t.Setenv("GMAIL_CREDENTIALS_FILE", "/secrets/client.json")
	t.Setenv("GMAIL_TOKEN_FILE", "/secrets/token.json")
	t.Setenv("CLIPBOARD_MODE", "TMUX")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Listen != ":9090" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":9090")
	}
	if !cfg.HTTP.TLS {
		t.Error("HTTP.TLS: got false, want true")
	}
	if !cfg.Intake.Enabled {
		t.Error("Intake.Enabled: got false, want true")
	}
	if cfg.Intake.Listen != ":9025" {
		t.Errorf("Intake.Listen: got %q, want %q", cfg.Intake.Listen, ":9025")
	}
	if cfg.Intake.Domain != "replies.example.com" {
		t.Errorf("Intake.Domain: got %q, want %q", cfg.Intake.Domain, "replies.example.com")
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled(): got false, want true")
	}
	if cfg.Intake.MaxMessageSize != 1048576 {
		t.Errorf("Intake.MaxMessageSize: got %d, want %d", cfg.Intake.MaxMessageSize, 1048576)
	}
	if cfg.TLS.CertFile != "/certs/cert.pem" || cfg.TLS.KeyFile != "/certs/key.pem" {
		t.Errorf("TLS files: got %q / %q", cfg.TLS.CertFile, cfg.TLS.KeyFile)
	}
	if len(cfg.TLS.Hosts) != 2 || cfg.TLS.Hosts[0] != "composer.local" || cfg.TLS.Hosts[1] != "10.0.0.5" {
		t.Errorf("TLS.Hosts: got %v, want [composer.local 10.0.0.5]", cfg.TLS.Hosts)
	}
	if cfg.Template.Text != "Hello [EMAIL]" {
		t.Errorf("Template.Text: got %q, want %q", cfg.Template.Text, "Hello [EMAIL]")
	}
	if !cfg.Template.ReplaceAll {
		t.Error("Template.ReplaceAll: got false, want true")
	}
	if cfg.Template.From != "me@example.com" {
		t.Errorf("Template.From: got %q, want %q", cfg.Template.From, "me@example.com")
	}
	if cfg.Provider != "ses" {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, "ses")
	}
	if cfg.SES.ReplyTo != "inbox@example.com" {
		t.Errorf("SES.ReplyTo: got %q, want %q", cfg.SES.ReplyTo, "inbox@example.com")
	}
	if cfg.Graph.TenantID != "tid-123" || cfg.Graph.Mode != "draft" {
		t.Errorf("Graph: got %+v", cfg.Graph)
	}
	if !cfg.GmailConfigured() {
		t.Error("GmailConfigured(): got false, want true")
	}
	if cfg.Clipboard.Mode != "tmux" {
		t.Errorf("Clipboard.Mode: got %q, want %q", cfg.Clipboard.Mode, "tmux")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTAKE_MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("INTAKE_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Intake.MaxMessageSize != 10485760 {
		t.Errorf("Intake.MaxMessageSize: got %d, want %d (should keep default for invalid input)", cfg.Intake.MaxMessageSize, 10485760)
	}
	if cfg.Intake.Enabled {
		t.Error("Intake.Enabled: got true, want false (should keep default for invalid input)")
	}
}

func TestLoadFromFile(t *testing.T) {
	yamlContent := `
http:
  listen: ":8443"
  tls: true
intake:
  enabled: true
  listen: ":3025"
  username: "yamluser"
  password: "yamlpass"
  max_message_size: 5242880
template:
  file: "/yaml/reply.txt"
  replace_all: true
  subject: "Re: our call"
provider: gmail
gmail:
  credentials_file: "/yaml/client.json"
  token_file: "/yaml/token.json"
  user: "me"
tls:
  cert_file: "/yaml/cert.pem"
  key_file: "/yaml/key.pem"
  hosts: ["composer.internal"]
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// Clear env vars to ensure YAML values come through
	clearEnv(t)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Listen != ":8443" || !cfg.HTTP.TLS {
		t.Errorf("HTTP: got %+v", cfg.HTTP)
	}
	if !cfg.Intake.Enabled || cfg.Intake.Listen != ":3025" {
		t.Errorf("Intake: got %+v", cfg.Intake)
	}
	if cfg.Intake.Username != "yamluser" {
		t.Errorf("Intake.Username: got %q, want %q", cfg.Intake.Username, "yamluser")
	}
	if cfg.Intake.MaxMessageSize != 5242880 {
		t.Errorf("Intake.MaxMessageSize: got %d, want %d", cfg.Intake.MaxMessageSize, 5242880)
	}
	// YAML leaves unset fields at their defaults
	if cfg.Intake.Hostname != "localhost" {
		t.Errorf("Intake.Hostname: got %q, want %q", cfg.Intake.Hostname, "localhost")
	}
	if cfg.Template.File != "/yaml/reply.txt" || !cfg.Template.ReplaceAll {
		t.Errorf("Template: got %+v", cfg.Template)
	}
	if cfg.Template.Subject != "Re: our call" {
		t.Errorf("Template.Subject: got %q, want %q", cfg.Template.Subject, "Re: our call")
	}
	if cfg.Provider != "gmail" {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, "gmail")
	}
	if !cfg.GmailConfigured() || cfg.Gmail.User != "me" {
		t.Errorf("Gmail: got %+v", cfg.Gmail)
	}
	if len(cfg.TLS.Hosts) != 1 || cfg.TLS.Hosts[0] != "composer.internal" {
		t.Errorf("TLS.Hosts: got %v, want [composer.internal]", cfg.TLS.Hosts)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	yamlContent := `
intake:
  listen: ":3025"
  username: "yamluser"
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	clearEnv(t)
	t.Setenv("INTAKE_LISTEN", ":9025")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env var should override YAML
	if cfg.Intake.Listen != ":9025" {
		t.Errorf("Intake.Listen: got %q, want %q (env should override YAML)", cfg.Intake.Listen, ":9025")
	}
	// Empty env var should NOT override YAML value
	if cfg.Intake.Username != "yamluser" {
		t.Errorf("Intake.Username: got %q, want %q (empty env should not override YAML)", cfg.Intake.Username, "yamluser")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level: got %q, want %q (env should override YAML)", cfg.Logging.Level, "error")
	}
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestAuthEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		expect   bool
	}{
		{name: "both set", username: "user", password: "pass", expect: true},
		{name: "username only", username: "user", password: "", expect: false},
		{name: "password only", username: "", password: "pass", expect: false},
		{name: "neither set", username: "", password: "", expect: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Intake: IntakeConfig{Username: tt.username, Password: tt.password}}
			if got := cfg.AuthEnabled(); got != tt.expect {
				t.Errorf("AuthEnabled(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestGraphConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		graph  GraphConfig
		expect bool
	}{
		{
			name:   "all set",
			graph:  GraphConfig{TenantID: "t", ClientID: "c", ClientSecret: "s", Sender: "sender@example.com"},
			expect: true,
		},
		{
			name:   "missing tenant_id",
			graph:  GraphConfig{ClientID: "c", ClientSecret: "s", Sender: "sender@example.com"},
			expect: false,
		},
		{
			name:   "missing client_secret",
			graph:  GraphConfig{TenantID: "t", ClientID: "c", Sender: "sender@example.com"},
			expect: false,
		},
		{
			name:   "missing sender",
			graph:  GraphConfig{TenantID: "t", ClientID: "c", ClientSecret: "s"},
			expect: false,
		},
		{
			name:   "none set",
			graph:  GraphConfig{},
			expect: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Graph: tt.graph}
			if got := cfg.GraphConfigured(); got != tt.expect {
				t.Errorf("GraphConfigured(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestSESConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ses    SESConfig
		expect bool
	}{
		{
			name:   "region and sender set",
			ses:    SESConfig{Region: "us-east-1", Sender: "ses@example.com"},
			expect: true,
		},
		{
			name:   "missing region",
			ses:    SESConfig{Sender: "ses@example.com"},
			expect: false,
		},
		{
			name:   "missing sender",
			ses:    SESConfig{Region: "us-east-1"},
			expect: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{SES: tt.ses}
			if got := cfg.SESConfigured(); got != tt.expect {
				t.Errorf("SESConfigured(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestGmailConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		gmail  GmailConfig
		expect bool
	}{
		{name: "both files", gmail: GmailConfig{CredentialsFile: "c.json", TokenFile: "t.json"}, expect: true},
		{name: "credentials only", gmail: GmailConfig{CredentialsFile: "c.json"}, expect: false},
		{name: "token only", gmail: GmailConfig{TokenFile: "t.json"}, expect: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Gmail: tt.gmail}
			if got := cfg.GmailConfigured(); got != tt.expect {
				t.Errorf("GmailConfigured(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestDefaultTemplate(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "reply.txt")
	if err := os.WriteFile(path, []byte("From file: [EMAIL]"), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	tests := []struct {
		name    string
		tmpl    TemplateConfig
		want    string
		wantErr bool
	}{
		{name: "inline text wins", tmpl: TemplateConfig{Text: "Inline [EMAIL]", File: path}, want: "Inline [EMAIL]"},
		{name: "file", tmpl: TemplateConfig{File: path}, want: "From file: [EMAIL]"},
		{name: "builtin", tmpl: TemplateConfig{}, want: BuiltinTemplate},
		{name: "missing file", tmpl: TemplateConfig{File: filepath.Join(tmpDir, "nope.txt")}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Template: tt.tmpl}
			got, err := cfg.DefaultTemplate()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DefaultTemplate(): got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviderEnvVar(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     string
	}{
		{name: "ses", envValue: "ses", want: "ses"},
		{name: "clipboard", envValue: "clipboard", want: "clipboard"},
		{name: "uppercase GMAIL", envValue: "GMAIL", want: "gmail"},
		{name: "empty", envValue: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PROVIDER", tt.envValue)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Provider != tt.want {
				t.Errorf("Provider: got %q, want %q", cfg.Provider, tt.want)
			}
		})
	}
}
