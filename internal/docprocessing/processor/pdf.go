package processor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProcessor extracts the text layer of a PDF row by row. Embedded images
// are ignored, so scanned PDFs yield little or no text.
type PDFProcessor struct{}

func NewPDFProcessor() *PDFProcessor {
	return &PDFProcessor{}
}

func (p *PDFProcessor) Name() string {
	return "pdf"
}

func (p *PDFProcessor) MIMETypes() []string {
	return []string{"application/pdf", "application/x-pdf"}
}

func (p *PDFProcessor) Extensions() []string {
	return []string{".pdf"}
}

func (p *PDFProcessor) ExtractText(ctx context.Context, path string) (text string, err error) {
	const op = "pdf.ExtractText"

	// the parser panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ProcessError{Op: op, Err: ErrCorruptDocument, Details: fmt.Sprint(r)}
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", WrapProcessError(op, err, "open")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", WrapProcessError(op, err, "stat")
	}

	pages, err := api.PageCount(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", &ProcessError{Op: op, Err: ErrCorruptDocument, Details: err.Error()}
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", &ProcessError{Op: op, Err: ErrCorruptDocument, Details: err.Error()}
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage() && i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", WrapProcessError(op, err, fmt.Sprintf("page %d", i))
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", &ProcessError{Op: op, Err: ErrCorruptDocument, Details: fmt.Sprintf("page %d: %v", i, err)}
		}

		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}
