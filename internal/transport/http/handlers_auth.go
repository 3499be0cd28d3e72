package httptransport

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"unicred/internal/directory"
	"unicred/internal/jwttoken"
	dErrors "unicred/pkg/domain-errors"
	"unicred/pkg/platform/httputil"
)

const tokenTTL = 24 * time.Hour

// TokenIssuer mints signed bearer tokens.
type TokenIssuer interface {
	Generate(userID, role string, expiresIn time.Duration) (string, error)
}

// FacultyDirectory is the slice of the directory the auth handler needs.
type FacultyDirectory interface {
	GetFaculty(ctx context.Context, facultyID string) (*directory.Faculty, error)
}

// AuthHandler exchanges a faculty identity plus the deployment bootstrap
// secret for a bearer token. The faculty record in the academic system
// decides the role: admin when the record is flagged, registrar otherwise.
type AuthHandler struct {
	tokens  TokenIssuer
	faculty FacultyDirectory
	secret  string
	logger  *slog.Logger
}

func NewAuthHandler(tokens TokenIssuer, faculty FacultyDirectory, secret string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, faculty: faculty, secret: secret, logger: logger}
}

type tokenRequest struct {
	FacultyID string `json:"facultyId"`
	Secret    string `json:"secret"`
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[tokenRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.FacultyID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "facultyId is required"))
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid bootstrap secret"))
		return
	}

	fac, err := h.faculty.GetFaculty(r.Context(), req.FacultyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if fac == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown faculty"))
		return
	}

	role := jwttoken.RoleRegistrar
	if fac.IsAdmin {
		role = jwttoken.RoleAdmin
	}
	token, err := h.tokens.Generate(fac.FacultyID, role, tokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "minting token", "faculty_id", fac.FacultyID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "could not mint token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"role":      role,
		"expiresIn": int(tokenTTL.Seconds()),
	})
}
