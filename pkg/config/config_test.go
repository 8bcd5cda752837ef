package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LUMINARY_SERVER_ENVIRONMENT",
		"LUMINARY_SERVER_PORT",
		"LUMINARY_DATABASE_URL",
		"LUMINARY_RABBITMQ_URL",
		"LUMINARY_AUTH_ENABLED",
		"LUMINARY_AUTH_SECRET",
		"LUMINARY_AUTH_ALLOWED_EMAILS",
		"LUMINARY_EXTRACTION_TIMEOUT",
		"LUMINARY_EXTRACTION_OCR_ENGINE",
		"LUMINARY_EXTRACTION_MAX_UPLOAD_SIZE",
		"LUMINARY_EXTRACTION_MAX_BATCH_FILES",
		"LUMINARY_CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("extract-service")
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, "uploads", cfg.Extraction.UploadDir)
	assert.Equal(t, OCREngineTesseract, cfg.Extraction.OCREngine)
	assert.Equal(t, "eng", cfg.Extraction.OCRLanguage)
	assert.Equal(t, int64(20_000_000), cfg.Extraction.MaxUploadSizeBytes())
	assert.Equal(t, 5.0, cfg.Invoice.DefaultTaxRate)
	assert.Equal(t, "SPLIT", cfg.Invoice.DefaultTaxType)
	assert.Equal(t, 16.0, cfg.Invoice.QuotationServiceCharge)
	assert.Equal(t, 18.0, cfg.Invoice.QuotationGST)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.RabbitMQ.Enabled())
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LUMINARY_SERVER_PORT", "8088")
	t.Setenv("LUMINARY_EXTRACTION_TIMEOUT", "5s")
	t.Setenv("LUMINARY_EXTRACTION_MAX_UPLOAD_SIZE", "1MB")
	t.Setenv("LUMINARY_AUTH_ALLOWED_EMAILS", "ops@luminary.in, accounts@luminary.in")

	cfg, err := Load("extract-service")
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, int64(1_000_000), cfg.Extraction.MaxUploadSizeBytes())
	assert.Equal(t, []string{"ops@luminary.in", "accounts@luminary.in"}, cfg.Auth.AllowedEmails)
}

func TestLoadWithValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name: "development defaults are valid",
		},
		{
			name:    "unknown ocr engine",
			env:     map[string]string{"LUMINARY_EXTRACTION_OCR_ENGINE": "paddle"},
			wantErr: "unknown ocr_engine",
		},
		{
			name:    "invalid upload size",
			env:     map[string]string{"LUMINARY_EXTRACTION_MAX_UPLOAD_SIZE": "lots"},
			wantErr: "invalid max_upload_size",
		},
		{
			name:    "batch needs at least one file",
			env:     map[string]string{"LUMINARY_EXTRACTION_MAX_BATCH_FILES": "0"},
			wantErr: "max_batch_files must be at least 1",
		},
		{
			name:    "auth enabled without allowlist",
			env:     map[string]string{"LUMINARY_AUTH_ENABLED": "true"},
			wantErr: "ALLOWED_EMAILS",
		},
		{
			name: "auth in production needs a real secret",
			env: map[string]string{
				"LUMINARY_SERVER_ENVIRONMENT":  EnvProduction,
				"LUMINARY_AUTH_ENABLED":        "true",
				"LUMINARY_AUTH_ALLOWED_EMAILS": "ops@luminary.in",
			},
			wantErr: "LUMINARY_AUTH_SECRET",
		},
		{
			name: "production rejects localhost audit database",
			env: map[string]string{
				"LUMINARY_SERVER_ENVIRONMENT": EnvProduction,
				"LUMINARY_DATABASE_URL":       "postgres://u:p@localhost:5432/audit",
			},
			wantErr: "localhost database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadWithValidation("extract-service")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}
}

func TestExtractionConfig_MaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		size string
		want int64
	}{
		{"20MB", 20_000_000},
		{"512kB", 512_000},
		{"1.5GB", 1_500_000_000},
		{"4096", 4096},
		{"garbage", 20_000_000},
		{"", 20_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			c := ExtractionConfig{MaxUploadSize: tt.size}
			assert.Equal(t, tt.want, c.MaxUploadSizeBytes())
		})
	}
}
