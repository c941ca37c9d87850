package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"edubook.org/internal/audit"
	"edubook.org/internal/auth"
	"edubook.org/internal/college"
	"edubook.org/internal/ids"
)

type collegeRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type collegeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *API) handleColleges(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listColleges(w, r)
	case http.MethodPost:
		a.createCollege(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listColleges(w http.ResponseWriter, r *http.Request) {
	p, scope, ok := a.authorize(w, r, "colleges", auth.ActionRead)
	if !ok {
		return
	}

	// College-bound callers see their own institution only.
	if scope == auth.ScopeCollege {
		c, err := a.colleges.FindByID(r.Context(), p.CollegeID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, codeServerError, "could not list colleges")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"colleges": []collegeResponse{
			{ID: c.ID, Name: c.Name, City: c.City, CreatedAt: c.CreatedAt},
		}})
		return
	}

	list, err := a.colleges.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, codeServerError, "could not list colleges")
		return
	}
	out := make([]collegeResponse, 0, len(list))
	for _, c := range list {
		out = append(out, collegeResponse{ID: c.ID, Name: c.Name, City: c.City, CreatedAt: c.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"colleges": out})
}

func (a *API) handleCollegeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/colleges/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
		return
	}

	p, scope, ok := a.authorize(w, r, "colleges", auth.ActionRead)
	if !ok {
		return
	}
	if !p.CanAccessCollege(scope, id) {
		writeError(w, r, http.StatusForbidden, codeForbidden, "cannot access another college")
		return
	}

	c, err := a.colleges.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, college.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, codeNotFound, "college not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, codeServerError, "could not load college")
		return
	}
	writeJSON(w, http.StatusOK, collegeResponse{ID: c.ID, Name: c.Name, City: c.City, CreatedAt: c.CreatedAt})
}

func (a *API) createCollege(w http.ResponseWriter, r *http.Request) {
	p, _, ok := a.authorize(w, r, "colleges", auth.ActionCreate)
	if !ok {
		return
	}

	var req collegeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	c := &college.College{
		ID:        ids.New(),
		Name:      strings.TrimSpace(req.Name),
		City:      strings.TrimSpace(req.City),
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err := a.colleges.Insert(r.Context(), c); err != nil {
		writeError(w, r, http.StatusInternalServerError, codeServerError, "could not create college")
		return
	}

	audit.LogEvent(r.Context(), "college.created", map[string]any{
		"college_id": c.ID,
		"actor_id":   p.UserID,
	})
	writeJSON(w, http.StatusCreated, collegeResponse{ID: c.ID, Name: c.Name, City: c.City, CreatedAt: c.CreatedAt})
}
