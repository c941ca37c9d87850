package httpapi

import (
	"errors"
	"net/http"
	"time"

	"edubook.org/internal/audit"
	"edubook.org/internal/auth"
	"edubook.org/internal/user"
)

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	CollegeID    string `json:"college_id"`
	AcademicYear int    `json:"academic_year"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	CollegeID    string `json:"college_id,omitempty"`
	AcademicYear int    `json:"academic_year,omitempty"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		CollegeID:    u.CollegeID,
		AcademicYear: u.AcademicYear,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	res, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		CollegeID:    req.CollegeID,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			writeError(w, r, http.StatusConflict, codeEmailInUse, "email already registered")
		case errors.Is(err, auth.ErrSessionCreation):
			writeError(w, r, http.StatusInternalServerError, codeSessionCreate, "session could not be created")
		default:
			writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		}
		return
	}

	audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"user_id": res.User.ID,
		"role":    string(res.User.Role),
	})
	writeJSON(w, http.StatusCreated, tokenResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toUserResponse(res.User),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, codeValidation, "email and password are required")
		return
	}

	res, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, r, http.StatusUnauthorized, codeInvalidCredentials, "invalid email or password")
		case errors.Is(err, auth.ErrSessionCreation):
			writeError(w, r, http.StatusInternalServerError, codeSessionCreate, "session could not be created")
		default:
			writeError(w, r, http.StatusInternalServerError, codeServerError, "login failed")
		}
		return
	}

	audit.LogEvent(r.Context(), "auth.session.created", map[string]any{
		"user_id":    res.User.ID,
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toUserResponse(res.User),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	p, err := principalOrError(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, codeNoAuth, "authentication required")
		return
	}
	raw, _ := auth.TokenFromContext(r.Context())
	a.auth.Logout(r.Context(), raw)

	audit.LogEvent(r.Context(), "auth.session.revoked", map[string]any{
		"user_id": p.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logout successful",
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	p, err := principalOrError(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, codeNoAuth, "authentication required")
		return
	}
	raw, _ := auth.TokenFromContext(r.Context())

	res, err := a.auth.Refresh(r.Context(), p, raw)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	audit.LogEvent(r.Context(), "auth.session.refreshed", map[string]any{
		"user_id": p.UserID,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toUserResponse(res.User),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	p, err := principalOrError(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, codeNoAuth, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:           p.UserID,
		Email:        p.Email,
		Role:         string(p.Role),
		CollegeID:    p.CollegeID,
		AcademicYear: p.AcademicYear,
	})
}
