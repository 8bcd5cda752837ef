package httputil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/luminary/luminary-backend/pkg/errors"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "app error",
			err:        apperrors.PayloadTooLarge("File too large"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `{"error":"File too large"}`,
		},
		{
			name:       "wrapped app error",
			err:        errors.Join(errors.New("ctx"), apperrors.BadRequest("No file uploaded")),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"No file uploaded"}`,
		},
		{
			name:       "validation details",
			err:        apperrors.Validation(map[string]string{"taxRate": "must be less than or equal to 100"}),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"validation failed","details":{"taxRate":"must be less than or equal to 100"}}`,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"an unexpected error occurred"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			httputil.Error(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestJSONEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.JSON(rr, http.StatusOK, map[string]string{"unit": "KG"})
	assert.JSONEq(t, `{"success":true,"data":{"unit":"KG"}}`, rr.Body.String())
}

func TestText(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.Text(rr, http.StatusOK, "running")
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "running", rr.Body.String())
}

func TestAttachment(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.Attachment(rr, "application/octet-stream", "invoice.xlsx", []byte{1, 2, 3})
	assert.Equal(t, `attachment; filename="invoice.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, []byte{1, 2, 3}, rr.Body.Bytes())
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ A int }

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":1}`))
	require.NoError(t, httputil.DecodeJSON(req, &v))
	assert.Equal(t, 1, v.A)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := httputil.DecodeJSON(req, &v)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestValidate(t *testing.T) {
	type item struct {
		ID string `validate:"required"`
	}
	type payload struct {
		Type  string `validate:"oneof=SPLIT SINGLE"`
		Items []item `validate:"unique=ID,dive"`
	}

	assert.NoError(t, httputil.Validate(payload{Type: "SPLIT", Items: []item{{ID: "1"}, {ID: "2"}}}))

	err := httputil.Validate(payload{Type: "VAT", Items: []item{{ID: "1"}, {ID: "1"}}})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "must be one of: SPLIT SINGLE", appErr.Details["payload.Type"])
	assert.Equal(t, "must not contain duplicates", appErr.Details["payload.Items"])
}

func TestRequestID(t *testing.T) {
	var seen string
	h := httputil.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
}

func TestLogger_RecordsEmailSetDownstream(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("test", &buf)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := httputil.WithUserEmail(r.Context(), "owner@luminary.in")
		assert.Equal(t, "owner@luminary.in", httputil.GetUserEmail(ctx))
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	httputil.Logger(log)(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/extract", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "owner@luminary.in", entry["user_email"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "/api/extract", entry["path"])
}

func TestRecoverer(t *testing.T) {
	h := httputil.Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
}
