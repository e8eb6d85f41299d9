package httpx

import (
	"net/http"
)

// AuthHandlers exposes the browser's Session Manager.
type AuthHandlers struct{}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type passwordUpdateRequest struct {
	Password string `json:"password"`
}

// SignUp handles POST /api/auth/signup. The new session is adopted once its signed_in
// notification arrives.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusCreated, c.Sessions.SignUp(r.Context(), req.Email, req.Password))
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Sessions.SignIn(r.Context(), req.Email, req.Password))
}

// SignOut handles POST /api/auth/signout. It always succeeds.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Sessions.SignOut(r.Context()))
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteResult(w, http.StatusOK, c.Sessions.RefreshSession(r.Context()))
}

// State handles GET /api/auth/state.
func (h *AuthHandlers) State(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	WriteData(w, http.StatusOK, c.Sessions.State())
}

// PasswordReset handles POST /api/auth/password-reset.
func (h *AuthHandlers) PasswordReset(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req passwordResetRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusAccepted, c.Sessions.SendPasswordReset(r.Context(), req.Email))
}

// PasswordResetConfirm handles POST /api/auth/password-reset/confirm.
func (h *AuthHandlers) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req passwordResetConfirmRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Sessions.ResetPassword(r.Context(), req.Token, req.Password))
}

// UpdatePassword handles POST /api/auth/password for the signed-in user.
func (h *AuthHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	c, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req passwordUpdateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteResult(w, http.StatusOK, c.Sessions.UpdatePassword(r.Context(), req.Password))
}
