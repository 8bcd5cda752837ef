package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
	"github.com/luminary/luminary-backend/internal/docprocessing/fields"
	"github.com/luminary/luminary-backend/internal/docprocessing/processor"
	"github.com/luminary/luminary-backend/internal/docprocessing/storage"
	apperrors "github.com/luminary/luminary-backend/pkg/errors"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultBatchWorkers = 4

	sideEffectTimeout = 5 * time.Second
)

// AuditRecorder persists one row per extraction attempt
type AuditRecorder interface {
	Record(ctx context.Context, entry *domain.ExtractionAuditEntry) error
}

// EventPublisher announces successful extractions
type EventPublisher interface {
	PublishChallanExtracted(ctx context.Context, doc domain.UploadedDocument, processorName string, record domain.ExtractedRecord, took time.Duration)
}

// Option configures a Service
type Option func(*Service)

// WithAudit records every extraction attempt
func WithAudit(a AuditRecorder) Option {
	return func(s *Service) { s.audit = a }
}

// WithEvents publishes an event after each successful extraction
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock replaces time.Now for the date fallback
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTimeout bounds each processor run
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBatchWorkers bounds how many uploads of a batch run at once
func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// Service orchestrates extraction: select processor, read text, parse fields, clean up
type Service struct {
	registry *processor.Registry
	timeout  time.Duration
	workers  int
	now      func() time.Time
	audit    AuditRecorder
	events   EventPublisher
	log      *logger.Logger
}

// NewService creates a new extraction service
func NewService(registry *processor.Registry, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		timeout:  DefaultTimeout,
		workers:  DefaultBatchWorkers,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract turns one upload into a record. The upload is released on every
// return path, including a panic further down the stack.
func (s *Service) Extract(ctx context.Context, upload *storage.Upload) (*domain.ExtractedRecord, error) {
	if upload == nil {
		return nil, domain.ErrNoFileProvided
	}
	defer upload.Release()

	start := time.Now()
	doc := upload.Document()
	log := s.log.With().
		Str("request_id", httputil.GetRequestID(ctx)).
		Str("file", doc.OriginalName).
		Str("mime_type", doc.MIMEType).
		Logger()

	proc, err := s.registry.Select(doc)
	if err != nil {
		log.Warn().Err(err).Msg("no processor for upload")
		s.recordAudit(ctx, doc, "", domain.OutcomeUnsupported, nil, time.Since(start))
		return nil, err
	}

	text, err := s.run(ctx, proc, doc.Path)
	if err != nil {
		log.Error().Err(err).Str("processor", proc.Name()).Msg("text extraction failed")
		s.recordAudit(ctx, doc, proc.Name(), domain.OutcomeExtractionFailed, nil, time.Since(start))
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	record := fields.Parse(text, s.now())
	took := time.Since(start)

	log.Info().
		Str("processor", proc.Name()).
		Int("text_len", len(text)).
		Str("vehicle_no", record.VehicleNo).
		Float64("qty", record.Qty).
		Dur("duration", took).
		Msg("challan extracted")

	s.recordAudit(ctx, doc, proc.Name(), domain.OutcomeSuccess, &record, took)
	if s.events != nil {
		s.events.PublishChallanExtracted(detached(ctx), doc, proc.Name(), record, took)
	}

	return &record, nil
}

// ExtractBatch extracts every upload with bounded concurrency. Results keep
// the order of uploads; one failing file does not affect the others.
func (s *Service) ExtractBatch(ctx context.Context, uploads []*storage.Upload) []domain.BatchItem {
	items := make([]domain.BatchItem, len(uploads))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, up := range uploads {
		g.Go(func() error {
			items[i] = s.extractItem(ctx, up)
			return nil
		})
	}
	_ = g.Wait()

	return items
}

func (s *Service) extractItem(ctx context.Context, up *storage.Upload) (item domain.BatchItem) {
	if up != nil {
		item.File = up.OriginalName
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("file", item.File).Msg("batch item panicked")
			item.Record = nil
			item.Error = PublicError(domain.ErrExtractionFailed).Message
		}
	}()

	record, err := s.Extract(ctx, up)
	if err != nil {
		item.Error = PublicError(err).Message
		return item
	}
	item.Record = record
	return item
}

// run executes the processor off the caller's goroutine, bounded by the
// service timeout. Processor panics come back as errors.
func (s *Service) run(ctx context.Context, proc processor.Processor, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("processor %s panicked: %v", proc.Name(), r)}
			}
		}()
		text, err := proc.ExtractText(ctx, path)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("processor %s: %w", proc.Name(), ctx.Err())
	}
}

func (s *Service) recordAudit(ctx context.Context, doc domain.UploadedDocument, processorName, outcome string, record *domain.ExtractedRecord, took time.Duration) {
	if s.audit == nil {
		return
	}

	entry := &domain.ExtractionAuditEntry{
		ID:           uuid.NewString(),
		OriginalName: doc.OriginalName,
		MIMEType:     doc.MIMEType,
		Processor:    processorName,
		Outcome:      outcome,
		DurationMs:   took.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
	if record != nil {
		entry.VehicleNo = record.VehicleNo
		entry.Qty = record.Qty
		entry.Unit = record.Unit
	}

	auditCtx, cancel := context.WithTimeout(detached(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.audit.Record(auditCtx, entry); err != nil {
		s.log.Error().Err(err).Str("outcome", outcome).Msg("failed to write extraction audit")
	}
}

// PublicError maps an extraction error to the message and status shown to
// clients. Unknown errors become a generic extraction failure.
func PublicError(err error) *apperrors.AppError {
	var unsupported *domain.UnsupportedFormatError
	switch {
	case errors.Is(err, domain.ErrNoFileProvided):
		return apperrors.Wrap(err, "NO_FILE", "No file uploaded", http.StatusBadRequest)
	case errors.As(err, &unsupported):
		return apperrors.Wrap(err, "UNSUPPORTED_FORMAT", "Unsupported file type: "+unsupported.Format, http.StatusUnsupportedMediaType)
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return apperrors.Wrap(err, "UNSUPPORTED_FORMAT", "Unsupported file type", http.StatusUnsupportedMediaType)
	default:
		return apperrors.Wrap(err, "EXTRACTION_FAILED", "Failed to extract data", http.StatusInternalServerError)
	}
}

// detached keeps request values but drops cancellation so side effects
// still run after the client disconnects.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
