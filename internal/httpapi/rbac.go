package httpapi

import (
	"net/http"

	"edubook.org/internal/auth"
)

// authorize checks the capability table for the caller. It writes the
// rejection itself and reports whether the handler may proceed, along
// with the scope the grant carries.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, resource string, action auth.Action) (*auth.Principal, auth.Scope, bool) {
	p, err := principalOrError(r)
	if err != nil {
		// Should not happen behind withAuth; treat as unauthenticated.
		writeError(w, r, http.StatusUnauthorized, codeNoAuth, "authentication required")
		return nil, 0, false
	}
	scope, ok := auth.Allowed(p.Role, resource, action)
	if !ok {
		writeError(w, r, http.StatusForbidden, codeForbidden, "insufficient permissions")
		return nil, 0, false
	}
	return p, scope, true
}
