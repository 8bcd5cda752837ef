package processor

import (
	"context"
	"fmt"

	"github.com/luminary/luminary-backend/pkg/config"
	"github.com/luminary/luminary-backend/pkg/logger"
)

// NewOCREngine builds the engine named by cfg.Extraction.OCREngine.
func NewOCREngine(ctx context.Context, cfg *config.Config, log *logger.Logger) (OCREngine, error) {
	switch cfg.Extraction.OCREngine {
	case "", config.OCREngineTesseract:
		return NewTesseractEngine(NewExecRunner(log), cfg.Extraction.TesseractPath, cfg.Extraction.OCRLanguage), nil
	case config.OCREngineVision:
		engine, err := NewVisionEngine(ctx, cfg.Vision.CredentialsFile, cfg.Vision.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case config.OCREngineAzure:
		engine, err := NewAzureEngine(cfg.Azure.Endpoint, cfg.Azure.Key)
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Extraction.OCREngine)
	}
}

// NewDefaultRegistry registers PDF, DOCX, image and text processors in that order.
func NewDefaultRegistry(engine OCREngine, enhance bool, log *logger.Logger) *Registry {
	return NewRegistry(
		NewPDFProcessor(),
		NewDOCXProcessor(),
		NewImageProcessor(engine, enhance, log),
		NewTextProcessor(),
	)
}
