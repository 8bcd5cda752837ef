package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
	"github.com/luminary/luminary-backend/internal/docprocessing/repository"
	"github.com/luminary/luminary-backend/internal/docprocessing/service"
	"github.com/luminary/luminary-backend/internal/docprocessing/storage"
	apperrors "github.com/luminary/luminary-backend/pkg/errors"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
)

const (
	fieldFile  = "file"
	fieldFiles = "files"
)

// Handler handles HTTP requests for challan extraction
type Handler struct {
	service       *service.Service
	store         *storage.UploadStore
	audit         *repository.AuditRepository
	maxUploadSize int64
	maxBatchFiles int
	log           *logger.Logger
}

// NewHandler creates a new extraction handler
func NewHandler(svc *service.Service, store *storage.UploadStore, maxUploadSize int64, maxBatchFiles int, log *logger.Logger) *Handler {
	return &Handler{
		service:       svc,
		store:         store,
		maxUploadSize: maxUploadSize,
		maxBatchFiles: maxBatchFiles,
		log:           log,
	}
}

// WithAudit exposes recent audit rows on GET /extract/audit
func (h *Handler) WithAudit(repo *repository.AuditRepository) *Handler {
	h.audit = repo
	return h
}

// Routes mounts the extraction endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/extract", h.Extract)
	r.Post("/extract/batch", h.ExtractBatch)
	if h.audit != nil {
		r.Get("/extract/audit", h.Audit)
	}
}

// Extract handles POST /api/extract
// Accepts multipart form with:
// - file: the challan (PDF, DOCX, JPEG/PNG or plain text)
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	uploads, err := h.receive(r, fieldFile, 1)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	defer releaseAll(uploads)

	var upload *storage.Upload
	if len(uploads) > 0 {
		upload = uploads[0]
	}

	record, err := h.service.Extract(r.Context(), upload)
	if err != nil {
		httputil.Error(w, service.PublicError(err))
		return
	}

	httputil.JSON(w, http.StatusOK, record)
}

// ExtractBatch handles POST /api/extract/batch
// Accepts multipart form with repeated "files" parts and returns one result
// per file in upload order.
func (h *Handler) ExtractBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize*int64(h.maxBatchFiles))

	uploads, err := h.receive(r, fieldFiles, h.maxBatchFiles)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	defer releaseAll(uploads)

	if len(uploads) == 0 {
		httputil.Error(w, service.PublicError(domain.ErrNoFileProvided))
		return
	}

	httputil.JSON(w, http.StatusOK, h.service.ExtractBatch(r.Context(), uploads))
}

// Audit handles GET /api/extract/audit?limit=N
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			httputil.Error(w, apperrors.BadRequest("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list extraction audit")
		httputil.Error(w, apperrors.Internal("failed to list extraction audit"))
		return
	}
	if entries == nil {
		entries = []domain.ExtractionAuditEntry{}
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// receive streams file parts named field into the upload store. Other parts
// are skipped. Anything already stored is released when an error is returned.
func (h *Handler) receive(r *http.Request, field string, limit int) (uploads []*storage.Upload, err error) {
	defer func() {
		if err != nil {
			releaseAll(uploads)
			uploads = nil
		}
	}()

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, service.PublicError(domain.ErrNoFileProvided)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return uploads, nil
		}
		if err != nil {
			return uploads, h.readError(err)
		}

		if part.FormName() != field || part.FileName() == "" {
			part.Close()
			continue
		}
		if len(uploads) >= limit {
			part.Close()
			if limit == 1 {
				continue
			}
			return uploads, apperrors.BadRequest("Too many files (max " + strconv.Itoa(limit) + ")")
		}

		up, err := h.acquire(part)
		if err != nil {
			return uploads, err
		}
		uploads = append(uploads, up)
	}
}

func (h *Handler) acquire(part *multipart.Part) (*storage.Upload, error) {
	defer part.Close()

	up, err := h.store.AcquireLimit(part, part.FileName(), part.Header.Get("Content-Type"), h.maxUploadSize)
	if err != nil {
		return nil, h.readError(err)
	}
	return up, nil
}

func (h *Handler) readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, storage.ErrTooLarge) {
		return apperrors.PayloadTooLarge("File too large")
	}
	h.log.Warn().Err(err).Msg("malformed multipart upload")
	return service.PublicError(domain.ErrNoFileProvided)
}

func releaseAll(uploads []*storage.Upload) {
	for _, up := range uploads {
		_ = up.Release()
	}
}
