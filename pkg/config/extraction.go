package config

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// OCR engine identifiers
const (
	OCREngineTesseract = "tesseract"
	OCREngineVision    = "vision"
	OCREngineAzure     = "azure"
)

// ExtractionConfig holds challan extraction settings
type ExtractionConfig struct {
	UploadDir     string        `mapstructure:"upload_dir"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxUploadSize string        `mapstructure:"max_upload_size"`
	BatchWorkers  int           `mapstructure:"batch_workers"`
	MaxBatchFiles int           `mapstructure:"max_batch_files"`
	OCREngine     string        `mapstructure:"ocr_engine"`
	OCRLanguage   string        `mapstructure:"ocr_language"`
	TesseractPath string        `mapstructure:"tesseract_path"`
	EnhanceImages bool          `mapstructure:"enhance_images"`
}

// MaxUploadSizeBytes parses MaxUploadSize with decimal SI suffixes
// ("20MB" is 20,000,000 bytes, "512kB" is 512,000). Invalid values yield 20MB.
func (c *ExtractionConfig) MaxUploadSizeBytes() int64 {
	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil || size <= 0 {
		return 20 * units.MB
	}
	return size
}

// Validate checks the extraction settings
func (c *ExtractionConfig) Validate() error {
	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}

	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be at least 1")
	}
	if c.MaxBatchFiles < 1 {
		return fmt.Errorf("max_batch_files must be at least 1")
	}

	switch c.OCREngine {
	case OCREngineTesseract, OCREngineVision, OCREngineAzure:
	default:
		return fmt.Errorf("unknown ocr_engine %q (expected tesseract, vision or azure)", c.OCREngine)
	}

	return nil
}
