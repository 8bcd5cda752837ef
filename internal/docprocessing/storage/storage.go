package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
	"github.com/luminary/luminary-backend/pkg/logger"
)

// ErrTooLarge is returned by AcquireLimit when the content exceeds the limit
var ErrTooLarge = errors.New("upload exceeds size limit")

// UploadStore writes uploads to a process-wide directory under unique names.
// Each upload is owned by its Upload handle and removed on Release.
type UploadStore struct {
	dir string
	log *logger.Logger
}

// NewUploadStore creates dir if needed and returns a store rooted there
func NewUploadStore(dir string, log *logger.Logger) (*UploadStore, error) {
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, log: log}, nil
}

// Dir returns the upload directory
func (s *UploadStore) Dir() string {
	return s.dir
}

// Acquire copies r to <dir>/<uuid><ext>. On failure no file is left behind.
func (s *UploadStore) Acquire(r io.Reader, originalName, mimeType string) (*Upload, error) {
	return s.AcquireLimit(r, originalName, mimeType, 0)
}

// AcquireLimit is Acquire with a cap of limit bytes. Content past the cap
// fails with ErrTooLarge and nothing is kept. A limit of 0 means no cap.
func (s *UploadStore) AcquireLimit(r io.Reader, originalName, mimeType string, limit int64) (*Upload, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	ext := safeExtension(originalName)
	path := filepath.Join(s.dir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if limit > 0 && size > limit {
		_ = os.Remove(path)
		return nil, ErrTooLarge
	}

	return &Upload{
		Path:         path,
		OriginalName: originalName,
		MIMEType:     mimeType,
		Extension:    ext,
		Size:         size,
		log:          s.log,
	}, nil
}

// Upload is one uploaded file on disk
type Upload struct {
	Path         string
	OriginalName string
	MIMEType     string
	Extension    string
	Size         int64

	log  *logger.Logger
	once sync.Once
	err  error
}

// Document describes the upload for processor selection
func (u *Upload) Document() domain.UploadedDocument {
	return domain.UploadedDocument{
		Path:         u.Path,
		MIMEType:     u.MIMEType,
		Extension:    u.Extension,
		OriginalName: u.OriginalName,
		Size:         u.Size,
	}
}

// Release deletes the file. Only the first call does any work; later calls
// return the first result.
func (u *Upload) Release() error {
	u.once.Do(func() {
		err := os.Remove(u.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			u.err = err
			if u.log != nil {
				u.log.Warn().Err(err).Str("path", u.Path).Msg("failed to remove upload")
			}
		}
	})
	return u.err
}

// safeExtension returns the lower-cased extension of name, or "" when it
// contains anything other than letters and digits.
func safeExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 16 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
