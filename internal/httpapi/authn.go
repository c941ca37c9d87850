package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"edubook.org/internal/auth"
	"edubook.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// optionalAuthPaths get a principal when a valid token is presented but
// are never rejected for lacking one.
var optionalAuthPaths = []string{
	"/v1/info",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw := extractBearerToken(r.Header.Get(authHeader))

		if isOptionalAuthPath(r.URL.Path) {
			if p, err := a.auth.Authenticate(r.Context(), raw); err == nil {
				ctx := auth.ContextWithPrincipal(r.Context(), p)
				ctx = auth.ContextWithToken(ctx, raw)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
			return
		}

		p, err := a.auth.Authenticate(r.Context(), raw)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), p)
		ctx = auth.ContextWithToken(ctx, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeAuthError translates gate rejections. Only here does the coarse
// internal classification become a wire code; infrastructure failures
// stay a generic 500 so the client learns nothing about storage state.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if d, ok := auth.AsDenial(err); ok {
		switch d.Cause {
		case auth.DenialNoToken:
			writeError(w, r, http.StatusUnauthorized, codeNoToken, "authorization token required")
		case auth.DenialInvalidToken:
			writeError(w, r, http.StatusUnauthorized, codeInvalidToken, "invalid token")
		case auth.DenialTokenExpired:
			writeError(w, r, http.StatusUnauthorized, codeTokenExpired, "token expired")
		default:
			writeError(w, r, http.StatusUnauthorized, codeSessionRevoked, "session is no longer active")
		}
		return
	}
	obs.Logger().Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).
		Msg("authentication infrastructure failure")
	writeError(w, r, http.StatusInternalServerError, codeSessionValidation, "session validation failed")
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

func isOptionalAuthPath(path string) bool {
	for _, p := range optionalAuthPaths {
		if path == p {
			return true
		}
	}
	return false
}

var errNoPrincipal = errors.New("httpapi: no principal in context")

func principalOrError(r *http.Request) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, errNoPrincipal
	}
	return p, nil
}
