package processor

import (
	"context"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
)

const mimeOctetStream = "application/octet-stream"

// Processor turns one document format into plain text.
// Implementations must only read the file at path.
type Processor interface {
	// Name returns the processor name for logging/audit
	Name() string

	// MIMETypes lists the media types this processor accepts
	MIMETypes() []string

	// Extensions lists the lower-case file extensions (with dot) this processor accepts
	Extensions() []string

	// ExtractText reads the document at path and returns its text
	ExtractText(ctx context.Context, path string) (string, error)
}

// Registry holds all registered processors and dispatches to the right one.
// Declared MIME type wins over the file extension; content sniffing is only
// used when neither is usable.
type Registry struct {
	processors []Processor
	byMIME     map[string]Processor
	byExt      map[string]Processor
}

// NewRegistry creates a new processor registry. When two processors claim
// the same MIME type or extension, the first one registered keeps it.
func NewRegistry(processors ...Processor) *Registry {
	r := &Registry{
		processors: processors,
		byMIME:     make(map[string]Processor),
		byExt:      make(map[string]Processor),
	}
	for _, p := range processors {
		for _, m := range p.MIMETypes() {
			m = normalizeMIME(m)
			if _, taken := r.byMIME[m]; !taken {
				r.byMIME[m] = p
			}
		}
		for _, ext := range p.Extensions() {
			ext = strings.ToLower(ext)
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = p
			}
		}
	}
	return r
}

// Processors returns the registered processors in registration order
func (r *Registry) Processors() []Processor {
	return r.processors
}

// Select picks the processor for doc or returns a
// *domain.UnsupportedFormatError.
func (r *Registry) Select(doc domain.UploadedDocument) (Processor, error) {
	declared := normalizeMIME(doc.MIMEType)
	if declared != "" && declared != mimeOctetStream {
		if p, ok := r.byMIME[declared]; ok {
			return p, nil
		}
	}

	ext := strings.ToLower(doc.Extension)
	if ext != "" {
		if p, ok := r.byExt[ext]; ok {
			return p, nil
		}
		return nil, &domain.UnsupportedFormatError{Format: ext}
	}

	if (declared == "" || declared == mimeOctetStream) && doc.Path != "" {
		if p := r.sniff(doc.Path); p != nil {
			return p, nil
		}
	}

	label := declared
	if label == "" {
		label = "unknown"
	}
	return nil, &domain.UnsupportedFormatError{Format: label}
}

func (r *Registry) sniff(path string) Processor {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return nil
	}
	for m := detected; m != nil; m = m.Parent() {
		if p, ok := r.byMIME[normalizeMIME(m.String())]; ok {
			return p
		}
	}
	return nil
}

func normalizeMIME(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		mediaType, _, _ = strings.Cut(raw, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
