package processor

import (
	"context"
	"fmt"
	"strings"
)

// OCREngine recognises printed text in an image file.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, path string) (string, error)
}

// TesseractEngine shells out to the tesseract CLI:
// tesseract <file> stdout -l <lang>
type TesseractEngine struct {
	runner   Runner
	binary   string
	language string
}

func NewTesseractEngine(runner Runner, binary, language string) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{
		runner:   runner,
		binary:   binary,
		language: language,
	}
}

func (e *TesseractEngine) Name() string {
	return "tesseract"
}

func (e *TesseractEngine) Recognize(ctx context.Context, path string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.binary, path, "stdout", "-l", e.language)
	if err != nil {
		return "", &ProcessError{
			Op:      "tesseract.Recognize",
			Err:     fmt.Errorf("%w: %v", ErrOCRFailed, err),
			Details: strings.TrimSpace(truncate(string(errb), 512)),
		}
	}
	return string(out), nil
}
