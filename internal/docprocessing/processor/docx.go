package processor

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// DOCXProcessor returns the raw paragraph text of a Word document, one
// paragraph per line. Formatting, tables and headers are dropped.
type DOCXProcessor struct{}

func NewDOCXProcessor() *DOCXProcessor {
	return &DOCXProcessor{}
}

func (p *DOCXProcessor) Name() string {
	return "docx"
}

func (p *DOCXProcessor) MIMETypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}

func (p *DOCXProcessor) Extensions() []string {
	return []string{".docx"}
}

func (p *DOCXProcessor) ExtractText(ctx context.Context, path string) (string, error) {
	const op = "docx.ExtractText"

	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", &ProcessError{Op: op, Err: ErrCorruptDocument, Details: err.Error()}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", &ProcessError{Op: op, Err: ErrCorruptDocument, Details: err.Error()}
		}
		defer rc.Close()

		text, err := paragraphText(ctx, rc)
		if err != nil {
			return "", WrapProcessError(op, err, docxBody)
		}
		return text, nil
	}

	return "", &ProcessError{Op: op, Err: ErrCorruptDocument, Details: "missing " + docxBody}
}

// paragraphText walks WordprocessingML tokens: w:t runs carry text, w:tab and
// w:br map to whitespace, w:p closes a line.
func paragraphText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		b      strings.Builder
		inText bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", errors.Join(ErrCorruptDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}
