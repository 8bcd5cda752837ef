package service_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
	"github.com/luminary/luminary-backend/internal/docprocessing/processor"
	"github.com/luminary/luminary-backend/internal/docprocessing/service"
	"github.com/luminary/luminary-backend/internal/docprocessing/storage"
	"github.com/luminary/luminary-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC)

// stubProcessor claims one extension and behaves according to its fields
type stubProcessor struct {
	ext   string
	text  string
	err   error
	panic bool
	block bool
	calls atomic.Int32
}

func (p *stubProcessor) Name() string { return "stub" + p.ext }
func (p *stubProcessor) MIMETypes() []string { return nil }
func (p *stubProcessor) Extensions() []string { return []string{p.ext} }

func (p *stubProcessor) ExtractText(ctx context.Context, path string) (string, error) {
	p.calls.Add(1)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	if p.panic {
		panic("parser exploded")
	}
	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return p.text, p.err
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*domain.ExtractionAuditEntry
	err     error
}

func (a *recordingAudit) Record(_ context.Context, entry *domain.ExtractionAuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

type recordingEvents struct {
	mu      sync.Mutex
	records []domain.ExtractedRecord
}

func (e *recordingEvents) PublishChallanExtracted(_ context.Context, _ domain.UploadedDocument, _ string, record domain.ExtractedRecord, _ time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, record)
}

type fixture struct {
	store  *storage.UploadStore
	svc    *service.Service
	audit  *recordingAudit
	events *recordingEvents
}

func newFixture(t *testing.T, procs ...processor.Processor) *fixture {
	t.Helper()
	store, err := storage.NewUploadStore(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	f := &fixture{store: store, audit: &recordingAudit{}, events: &recordingEvents{}}
	f.svc = service.NewService(
		processor.NewRegistry(procs...),
		logger.Nop(),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithTimeout(200*time.Millisecond),
		service.WithBatchWorkers(2),
		service.WithAudit(f.audit),
		service.WithEvents(f.events),
	)
	return f
}

func (f *fixture) upload(t *testing.T, name, content string) *storage.Upload {
	t.Helper()
	up, err := f.store.Acquire(strings.NewReader(content), name, "")
	require.NoError(t, err)
	return up
}

func (f *fixture) assertStoreEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

const challanText = "DELIVERY CHALLAN\nDate: 20/11/2025\nVehicle: mh 12 fz 9334\nFire Wood 15,920 KG"

func TestExtract_Success(t *testing.T) {
	f := newFixture(t, &stubProcessor{ext: ".txt", text: challanText})

	rec, err := f.svc.Extract(context.Background(), f.upload(t, "challan.txt", "x"))
	require.NoError(t, err)

	assert.Equal(t, domain.ExtractedRecord{
		Date:        "20/11/2025",
		VehicleNo:   "MH12FZ9334",
		Description: "Fire Wood",
		Qty:         15920,
		Unit:        "KG",
	}, *rec)
	f.assertStoreEmpty(t)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, domain.OutcomeSuccess, f.audit.entries[0].Outcome)
	assert.Equal(t, "MH12FZ9334", f.audit.entries[0].VehicleNo)
	assert.Len(t, f.events.records, 1)
}

func TestExtract_EmptyTextUsesDefaults(t *testing.T) {
	f := newFixture(t, &stubProcessor{ext: ".png"})

	rec, err := f.svc.Extract(context.Background(), f.upload(t, "blank.png", "x"))
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractedRecord{
		Date:        "07/03/2026",
		Description: "Biomass Briquettes",
		Unit:        "KG",
	}, *rec)
}

func TestExtract_NilUpload(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoFileProvided)
	assert.Empty(t, f.audit.entries)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	proc := &stubProcessor{ext: ".txt"}
	f := newFixture(t, proc)

	_, err := f.svc.Extract(context.Background(), f.upload(t, "setup.exe", "MZ"))
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Zero(t, proc.calls.Load())
	f.assertStoreEmpty(t)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, domain.OutcomeUnsupported, f.audit.entries[0].Outcome)
	assert.Empty(t, f.events.records)
}

func TestExtract_FailuresReleaseUpload(t *testing.T) {
	tests := []struct {
		name string
		proc *stubProcessor
	}{
		{"processor error", &stubProcessor{ext: ".pdf", err: processor.ErrCorruptDocument}},
		{"processor panic", &stubProcessor{ext: ".pdf", panic: true}},
		{"processor timeout", &stubProcessor{ext: ".pdf", block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.proc)

			_, err := f.svc.Extract(context.Background(), f.upload(t, "broken.pdf", "x"))
			require.ErrorIs(t, err, domain.ErrExtractionFailed)
			f.assertStoreEmpty(t)

			require.Len(t, f.audit.entries, 1)
			assert.Equal(t, domain.OutcomeExtractionFailed, f.audit.entries[0].Outcome)
			assert.Empty(t, f.events.records)
		})
	}
}

func TestExtract_TimeoutIsReported(t *testing.T) {
	f := newFixture(t, &stubProcessor{ext: ".pdf", block: true})

	start := time.Now()
	_, err := f.svc.Extract(context.Background(), f.upload(t, "slow.pdf", "x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExtract_AuditFailureDoesNotChangeResult(t *testing.T) {
	f := newFixture(t, &stubProcessor{ext: ".txt", text: challanText})
	f.audit.err = errors.New("db down")

	rec, err := f.svc.Extract(context.Background(), f.upload(t, "challan.txt", "x"))
	require.NoError(t, err)
	assert.Equal(t, "MH12FZ9334", rec.VehicleNo)
}

func TestExtract_Deterministic(t *testing.T) {
	f := newFixture(t, &stubProcessor{ext: ".txt", text: challanText})

	first, err := f.svc.Extract(context.Background(), f.upload(t, "a.txt", "x"))
	require.NoError(t, err)
	second, err := f.svc.Extract(context.Background(), f.upload(t, "a.txt", "x"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractBatch_KeepsOrderAndIsolatesFailures(t *testing.T) {
	f := newFixture(t,
		&stubProcessor{ext: ".txt", text: challanText},
		&stubProcessor{ext: ".pdf", err: processor.ErrCorruptDocument},
	)

	uploads := []*storage.Upload{
		f.upload(t, "one.txt", "1"),
		f.upload(t, "two.pdf", "2"),
		f.upload(t, "three.exe", "3"),
		nil,
		f.upload(t, "five.txt", "5"),
	}

	items := f.svc.ExtractBatch(context.Background(), uploads)
	require.Len(t, items, 5)

	assert.Equal(t, "one.txt", items[0].File)
	require.NotNil(t, items[0].Record)
	assert.Equal(t, 15920.0, items[0].Record.Qty)
	assert.Empty(t, items[0].Error)

	assert.Equal(t, "two.pdf", items[1].File)
	assert.Nil(t, items[1].Record)
	assert.Equal(t, "Failed to extract data", items[1].Error)

	assert.Equal(t, "Unsupported file type: .exe", items[2].Error)
	assert.Equal(t, "No file uploaded", items[3].Error)
	assert.Equal(t, "five.txt", items[4].File)
	require.NotNil(t, items[4].Record)

	f.assertStoreEmpty(t)
}

func TestPublicError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"no file", domain.ErrNoFileProvided, 400, "No file uploaded"},
		{"unsupported with format", &domain.UnsupportedFormatError{Format: ".exe"}, 415, "Unsupported file type: .exe"},
		{"bare unsupported", domain.ErrUnsupportedFormat, 415, "Unsupported file type"},
		{"extraction failed", domain.ErrExtractionFailed, 500, "Failed to extract data"},
		{"anything else", errors.New("disk on fire"), 500, "Failed to extract data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := service.PublicError(tt.err)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.message, appErr.Message)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}
