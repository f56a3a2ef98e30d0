package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Mail provider names accepted by MailConfig.Provider.
const (
	MailProviderSendGrid = "sendgrid"
	MailProviderMailgun  = "mailgun"
	MailProviderSMTP     = "smtp"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
	Mail    MailConfig    `yaml:"mail" envconfig:"MAIL"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Output string `yaml:"output" envconfig:"OUTPUT"`
}

// ExportConfig contains export pipeline configuration.
type ExportConfig struct {
	// Cooldown is the fixed rate-limit window per principal. Export
	// endpoints and their email counterparts share one bucket.
	Cooldown time.Duration `yaml:"cooldown" envconfig:"COOLDOWN"`

	// AssetsDir is the base directory for organisation logo resolution.
	AssetsDir string `yaml:"assets_dir" envconfig:"ASSETS_DIR"`

	// Default organisation identity used when no per-request org is
	// supplied by the data layer.
	OrgName     string `yaml:"org_name" envconfig:"ORG_NAME"`
	OrgSlug     string `yaml:"org_slug" envconfig:"ORG_SLUG"`
	OrgLogo     string `yaml:"org_logo" envconfig:"ORG_LOGO"`
	OrgTimezone string `yaml:"org_timezone" envconfig:"ORG_TIMEZONE"`
}

// MailConfig contains delivery transport configuration. Exactly one
// provider is active, named by Provider; the per-provider blocks hold
// that provider's credentials.
type MailConfig struct {
	Provider    string        `yaml:"provider" envconfig:"PROVIDER"`
	FromName    string        `yaml:"from_name" envconfig:"FROM_NAME"`
	FromAddress string        `yaml:"from_address" envconfig:"FROM_ADDRESS"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`

	SendGrid SendGridConfig `yaml:"sendgrid" envconfig:"SENDGRID"`
	Mailgun  MailgunConfig  `yaml:"mailgun" envconfig:"MAILGUN"`
	SMTP     SMTPConfig     `yaml:"smtp" envconfig:"SMTP"`
}

// SendGridConfig contains SendGrid API credentials.
type SendGridConfig struct {
	APIKey string `yaml:"api_key" envconfig:"API_KEY"`
}

// MailgunConfig contains Mailgun API credentials.
type MailgunConfig struct {
	Domain  string `yaml:"domain" envconfig:"DOMAIN"`
	APIKey  string `yaml:"api_key" envconfig:"API_KEY"`
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
}

// SMTPConfig contains authenticated-relay transport configuration.
type SMTPConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	Username string `yaml:"username" envconfig:"USERNAME"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	SSL      bool   `yaml:"ssl" envconfig:"SSL"`
}

// defaultConfig returns the baseline configuration. File and
// environment values overlay these in that order.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "console",
		},
		Export: ExportConfig{
			Cooldown:    30 * time.Second,
			AssetsDir:   "assets",
			OrgName:     "Default Organisation",
			OrgSlug:     "default",
			OrgTimezone: "UTC",
		},
		Mail: MailConfig{
			Provider:    MailProviderSMTP,
			FromName:    "Report Export",
			FromAddress: "reports@example.com",
			Timeout:     15 * time.Second,
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
	}
}

// Load builds the configuration with precedence environment > YAML
// file (named by REPORTEXPORT_CONFIG) > built-in defaults.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("REPORTEXPORT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("REPORTEXPORT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Mail.Provider {
	case MailProviderSendGrid, MailProviderMailgun, MailProviderSMTP:
	default:
		return fmt.Errorf("invalid mail provider: %q", c.Mail.Provider)
	}
	if c.Export.Cooldown <= 0 {
		return fmt.Errorf("export cooldown must be positive, got %s", c.Export.Cooldown)
	}
	return nil
}
