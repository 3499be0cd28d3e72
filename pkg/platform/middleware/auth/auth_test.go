package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "unicred/pkg/domain-errors"
	"unicred/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

func authedHandler(t *testing.T, sawUserID, sawRole *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*sawUserID = requestcontext.UserID(r.Context())
		*sawRole = requestcontext.Role(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.Default()

	t.Run("missing header", func(t *testing.T) {
		var userID, role string
		mw := RequireAuth(stubValidator{}, logger)(authedHandler(t, &userID, &role))

		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})

	t.Run("invalid token", func(t *testing.T) {
		var userID, role string
		validator := stubValidator{err: dErrors.New(dErrors.CodeUnauthorized, "invalid token")}
		mw := RequireAuth(validator, logger)(authedHandler(t, &userID, &role))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token populates context", func(t *testing.T) {
		var userID, role string
		validator := stubValidator{claims: &JWTClaims{UserID: "registrar-01", Role: "registrar"}}
		mw := RequireAuth(validator, logger)(authedHandler(t, &userID, &role))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "registrar-01", userID)
		assert.Equal(t, "registrar", role)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.Default()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	run := func(role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(requestcontext.WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		RequireRole("registrar", logger)(next).ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, run("registrar").Code)
	assert.Equal(t, http.StatusOK, run("admin").Code, "admin passes every role check")
	assert.Equal(t, http.StatusForbidden, run("viewer").Code)
	assert.Equal(t, http.StatusForbidden, run("").Code)
}
