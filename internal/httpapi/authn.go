package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/biileprince/Employme-sub001/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth resolves the bearer token into an Identity on the context. Public
// paths and the optional-auth job listing pass through without a token; a
// token that is present is always validated, even on public paths, so an
// authenticated listing can still see who is asking.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		raw := strings.TrimSpace(r.Header.Get(authHeader))
		if raw == "" {
			if isPublicPath(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		token, err := extractBearerToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		id, err := auth.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, http.StatusInternalServerError, "authentication error")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))
	})
}

// requireRole extracts the identity and enforces the role gate. It writes the
// 401/403 response itself and reports whether the handler may proceed.
func requireRole(w http.ResponseWriter, r *http.Request, role auth.Role) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	if id.Role != role {
		writeError(w, http.StatusForbidden, "insufficient role")
		return auth.Identity{}, false
	}
	return id, true
}

func extractBearerToken(header string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(method, path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	if method != http.MethodGet {
		return false
	}
	// Public job browsing: the listing and single-job reads. Everything else
	// under /v1/jobs/ (my-jobs, mutations) needs an identity.
	if path == "/v1/jobs" {
		return true
	}
	if rest, ok := strings.CutPrefix(path, "/v1/jobs/"); ok {
		return rest != "" && rest != "my-jobs" && !strings.Contains(rest, "/")
	}
	return false
}
