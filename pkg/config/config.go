package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Extraction ExtractionConfig
	Invoice    InvoiceConfig
	Vision     VisionConfig
	Azure      AzureConfig
	Database   DatabaseConfig
	RabbitMQ   RabbitMQConfig
	Auth       AuthConfig
	CORS       CORSConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// InvoiceConfig holds defaults applied when a request leaves settings out
type InvoiceConfig struct {
	DefaultTaxRate float64 `mapstructure:"default_tax_rate"`
	DefaultTaxType string  `mapstructure:"default_tax_type"`
	DefaultRate    float64 `mapstructure:"default_rate"`

	QuotationServiceCharge float64 `mapstructure:"quotation_service_charge"`
	QuotationGST           float64 `mapstructure:"quotation_gst"`
}

// VisionConfig holds Google Cloud Vision credentials. Empty values fall back
// to application default credentials.
type VisionConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// AzureConfig holds Azure Computer Vision settings
type AzureConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Key      string `mapstructure:"key"`
}

// RabbitMQConfig holds RabbitMQ connection configuration. Publishing is
// disabled when URL is empty.
type RabbitMQConfig struct {
	URL            string        `mapstructure:"url"`
	Exchange       string        `mapstructure:"exchange"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// Enabled reports whether event publishing is configured
func (c *RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// AuthConfig configures the allowlist gate on tool routes
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Secret        string   `mapstructure:"secret"`
	Issuer        string   `mapstructure:"issuer"`
	AllowedEmails []string `mapstructure:"allowed_emails"`
}

// CORSConfig holds allowed origins for browser clients
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads configuration from environment and config files.
func Load(serviceName string) (*Config, error) {
	return loadConfig(serviceName)
}

// LoadWithValidation loads configuration and validates it for the current environment.
// Use this function in service main() for fail-fast behavior.
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := loadConfig(serviceName)
	if err != nil {
		return nil, err
	}

	if err := cfg.Extraction.Validate(); err != nil {
		return nil, fmt.Errorf("extraction configuration error: %w", err)
	}

	if err := cfg.Database.Validate(cfg.Server.Environment); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}

	if cfg.Auth.Enabled {
		if len(cfg.Auth.AllowedEmails) == 0 {
			return nil, errors.New("LUMINARY_AUTH_ALLOWED_EMAILS must list at least one email when auth is enabled")
		}
		if cfg.Server.Environment == EnvProduction || cfg.Server.Environment == EnvStaging {
			if cfg.Auth.Secret == "" || cfg.Auth.Secret == "dev-secret-change-in-production" {
				return nil, errors.New("LUMINARY_AUTH_SECRET must be set to a secure value in " + cfg.Server.Environment)
			}
		}
	}

	return cfg, nil
}

func loadConfig(serviceName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("LUMINARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/luminary")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma separated lists arrive as a single element from the environment
	cfg.Auth.AllowedEmails = splitList(cfg.Auth.AllowedEmails)
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.environment", EnvDevelopment)

	v.SetDefault("log.level", "info")

	// Extraction defaults
	v.SetDefault("extraction.upload_dir", "uploads")
	v.SetDefault("extraction.timeout", 30*time.Second)
	v.SetDefault("extraction.max_upload_size", "20MB")
	v.SetDefault("extraction.batch_workers", 4)
	v.SetDefault("extraction.max_batch_files", 20)
	v.SetDefault("extraction.ocr_engine", OCREngineTesseract)
	v.SetDefault("extraction.ocr_language", "eng")
	v.SetDefault("extraction.tesseract_path", "tesseract")
	v.SetDefault("extraction.enhance_images", true)

	// Invoice defaults
	v.SetDefault("invoice.default_tax_rate", 5)
	v.SetDefault("invoice.default_tax_type", "SPLIT")
	v.SetDefault("invoice.default_rate", 0)
	v.SetDefault("invoice.quotation_service_charge", 16)
	v.SetDefault("invoice.quotation_gst", 18)

	v.SetDefault("vision.credentials_file", "")
	v.SetDefault("vision.credentials_json", "")
	v.SetDefault("azure.endpoint", "")
	v.SetDefault("azure.key", "")

	// Database is optional; the audit trail is disabled without a URL
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "luminary.events")
	v.SetDefault("rabbitmq.reconnect_delay", 5*time.Second)
	v.SetDefault("rabbitmq.max_retries", 5)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.secret", "dev-secret-change-in-production")
	v.SetDefault("auth.issuer", "luminary")
	v.SetDefault("auth.allowed_emails", []string{})

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
