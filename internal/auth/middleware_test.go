package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/luminary/luminary-backend/internal/auth"
	"github.com/luminary/luminary-backend/internal/auth/jwt"
	"github.com/luminary/luminary-backend/pkg/config"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
	"github.com/luminary/luminary-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()

	tokens := jwt.NewManager(&config.AuthConfig{Secret: "test-secret", Issuer: "luminary"})
	gate := auth.NewAllowlist(tokens, []string{"Owner@Luminary.in", " accounts@luminary.in "}, logger.Nop())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.Text(w, http.StatusOK, httputil.GetUserEmail(r.Context()))
	})
	return gate.Middleware(next), tokens
}

func TestAllowlist_Middleware(t *testing.T) {
	h, tokens := setup(t)

	allowed, err := tokens.Issue("owner@luminary.in", time.Hour)
	require.NoError(t, err)
	stranger, err := tokens.Issue("someone@gmail.com", time.Hour)
	require.NoError(t, err)
	expired, err := tokens.Issue("owner@luminary.in", -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"allowed email", "Bearer " + allowed, http.StatusOK, "owner@luminary.in"},
		{"lower-case scheme", "bearer " + allowed, http.StatusOK, "owner@luminary.in"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"not on allowlist", "Bearer " + stranger, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest(http.MethodGet, "/api/invoice/totals", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := testutil.ExecuteRequest(h, req)
			testutil.AssertStatus(t, rr, tt.wantStatus)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestAllowlist_Allowed(t *testing.T) {
	gate := auth.NewAllowlist(nil, []string{"Owner@Luminary.in", ""}, logger.Nop())

	assert.True(t, gate.Allowed("owner@luminary.in"))
	assert.True(t, gate.Allowed(" OWNER@LUMINARY.IN"))
	assert.False(t, gate.Allowed(""))
	assert.False(t, gate.Allowed("other@luminary.in"))
}
