package processor

import (
	"context"
	"os"

	"github.com/disintegration/imaging"
	"github.com/luminary/luminary-backend/pkg/logger"
)

const enhancedSuffix = ".ocr.png"

// ImageProcessor runs OCR over JPEG and PNG uploads. Images that cannot be
// decoded produce empty text rather than an error.
type ImageProcessor struct {
	engine  OCREngine
	enhance bool
	log     *logger.Logger
}

func NewImageProcessor(engine OCREngine, enhance bool, log *logger.Logger) *ImageProcessor {
	return &ImageProcessor{
		engine:  engine,
		enhance: enhance,
		log:     log,
	}
}

func (p *ImageProcessor) Name() string {
	return "image"
}

func (p *ImageProcessor) MIMETypes() []string {
	return []string{"image/jpeg", "image/jpg", "image/png"}
}

func (p *ImageProcessor) Extensions() []string {
	return []string{".jpg", ".jpeg", ".png"}
}

func (p *ImageProcessor) ExtractText(ctx context.Context, path string) (string, error) {
	const op = "image.ExtractText"

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		p.log.Warn().Err(err).Str("path", path).Msg("image could not be decoded, returning empty text")
		return "", nil
	}

	target := path
	if p.enhance {
		img := imaging.Grayscale(src)
		img = imaging.AdjustContrast(img, 30)
		img = imaging.Sharpen(img, 1.5)

		scratch := path + enhancedSuffix
		if err := imaging.Save(img, scratch); err != nil {
			p.log.Warn().Err(err).Msg("failed to save enhanced image, using original")
		} else {
			defer os.Remove(scratch)
			target = scratch
		}
	}

	text, err := p.engine.Recognize(ctx, target)
	if err != nil {
		return "", WrapProcessError(op, err, p.engine.Name())
	}
	return text, nil
}
