package domain

import (
	"errors"
	"time"
)

// Document level failures. Field level absence is never an error.
var (
	ErrNoFileProvided    = errors.New("no file uploaded")
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrExtractionFailed  = errors.New("failed to extract data")
)

// UnsupportedFormatError names the extension or media type no processor accepts
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return ErrUnsupportedFormat.Error() + ": " + e.Format
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// Canonical record defaults
const (
	DefaultUnit             = "KG"
	DescriptionFireWood     = "Fire Wood"
	DescriptionBriquettes   = "Biomass Briquettes"
	DateLayout              = "02/01/2006"
	OutcomeSuccess          = "success"
	OutcomeUnsupported      = "unsupported_format"
	OutcomeExtractionFailed = "extraction_failed"
)

// UploadedDocument is a temporary server-local copy of one upload
type UploadedDocument struct {
	Path         string
	MIMEType     string
	Extension    string
	OriginalName string
	Size         int64
}

// ExtractedRecord is the structured result of parsing a challan
type ExtractedRecord struct {
	Date        string  `json:"date"`
	VehicleNo   string  `json:"vehicleNo"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
}

// ExtractionAuditEntry records one extraction attempt
type ExtractionAuditEntry struct {
	ID           string    `db:"id" json:"id"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MIMEType     string    `db:"mime_type" json:"mimeType"`
	Processor    string    `db:"processor" json:"processor"`
	Outcome      string    `db:"outcome" json:"outcome"`
	VehicleNo    string    `db:"vehicle_no" json:"vehicleNo"`
	Qty          float64   `db:"qty" json:"qty"`
	Unit         string    `db:"unit" json:"unit"`
	DurationMs   int64     `db:"duration_ms" json:"durationMs"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// BatchItem is the per-file outcome of a batch extraction
type BatchItem struct {
	File   string           `json:"file"`
	Record *ExtractedRecord `json:"data,omitempty"`
	Error  string           `json:"error,omitempty"`
}
