package api

import (
	"errors"
	"net/http"

	"github.com/xtrntr/ihome/internal/auth"
	"github.com/xtrntr/ihome/internal/models"
)

type credentials struct {
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func sessionBody(user *models.User, token string) map[string]interface{} {
	return map[string]interface{}{
		"user_id": user.ID,
		"name":    user.Name,
		"token":   token,
	}
}

// Register handles user registration and logs the new user in
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Mobile, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	token, err := h.AuthService.IssueToken(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.Logger.WithField("user_id", user.ID).Info("User registered")
	writeJSON(w, http.StatusCreated, sessionBody(user, token))
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Mobile, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionBody(user, token))
}

// GetSession reports the logged-in user
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.AuthService.GetProfile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": user.ID, "name": user.Name})
}

// DeleteSession acknowledges a logout. Tokens are stateless, the client
// discards its copy.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetProfile returns the caller's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.AuthService.GetProfile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetName renames the caller
func (h *Handler) SetName(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" validate:"required"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.AuthService.SetName(r.Context(), userID, req.Name); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.Name})
}

// SetAvatar stores the uploaded "avatar" image
func (h *Handler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	data, err := h.readUpload(w, r, "avatar")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	url, err := h.AuthService.SetAvatar(r.Context(), userID, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// GetRealNameAuth returns the caller's recorded identity
func (h *Handler) GetRealNameAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	ra, err := h.AuthService.GetRealNameAuth(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ra)
}

// SetRealNameAuth records the caller's identity once
func (h *Handler) SetRealNameAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		RealName string `json:"real_name" validate:"required"`
		IDCard   string `json:"id_card" validate:"required"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.AuthService.SetRealNameAuth(r.Context(), userID, req.RealName, req.IDCard); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Identity recorded"})
}
