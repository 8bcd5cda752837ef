package processor

import (
	"context"
	"os"
	"strings"
)

// TextProcessor reads plain text files verbatim as UTF-8.
type TextProcessor struct{}

func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

func (p *TextProcessor) Name() string {
	return "text"
}

func (p *TextProcessor) MIMETypes() []string {
	return []string{"text/plain"}
}

func (p *TextProcessor) Extensions() []string {
	return []string{".txt"}
}

func (p *TextProcessor) ExtractText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", WrapProcessError("text.ExtractText", err, "read")
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ToValidUTF8(text, "\uFFFD"), nil
}
