// FilePath: api/resources/api.resource.auth.go
package resources

import (
	"net/http"

	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// AuthHandlers encapsulates account and session handlers
type AuthHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Check whether any account exists
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /auth/check-first-user [get]
func (h *AuthHandlers) CheckFirstUser(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	first, err := h.hubservice.CheckFirstUser(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"isFirstUser": first})
}

// @Summary Check whether an email is registered
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.EmailRequest true "Email"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errors.APIError
// @Router /auth/check-email [post]
func (h *AuthHandlers) CheckEmail(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var req models.EmailRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	exists, err := h.hubservice.CheckEmail(r.Context(), req.Email)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"exists": exists})
}

// @Summary Register a new account
// @Description Creates an operator account with a default sensor and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Account details"
// @Success 201 {object} models.AuthResult
// @Failure 400 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /auth/register [post]
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var req models.RegisterRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	result, err := h.hubservice.Register(r.Context(), &req)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusCreated, result)
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResult
// @Failure 401 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var req models.LoginRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	result, err := h.hubservice.Login(r.Context(), &req)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// @Summary Current account
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]models.User
// @Router /auth/me [get]
// @Security BearerAuth
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, err := h.hubservice.Me(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]*models.User{"user": user})
}

// @Summary Update profile preferences
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.UserPreferences true "Preferences"
// @Success 200 {object} map[string]models.User
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /auth/preferences [patch]
// @Security BearerAuth
func (h *AuthHandlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var prefs models.UserPreferences
	if apiErr := decodeBody(r, &prefs); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	user, err := h.hubservice.UpdatePreferences(r.Context(), &prefs)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]*models.User{"user": user})
}

// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.ChangePasswordRequest true "Passwords"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} errors.APIError
// @Router /auth/change-password [post]
// @Security BearerAuth
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var req models.ChangePasswordRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	if err := h.hubservice.ChangePassword(r.Context(), &req); err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"success": true})
}

// @Summary Request a password reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.EmailRequest true "Email"
// @Success 200 {object} models.PasswordResetTicket
// @Failure 404 {object} errors.APIError
// @Router /auth/forgot-password [post]
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var req models.EmailRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	ticket, err := h.hubservice.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, ticket)
}

// @Summary Reset a password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.ResetPasswordRequest true "Reset"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /auth/reset-password [post]
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var req models.ResetPasswordRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	if err := h.hubservice.ResetPassword(r.Context(), &req); err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{
		"message": "Password reset successful. You can now login with your new password.",
	})
}

// @Summary Device pairing details
// @Tags auth
// @Produce json
// @Success 200 {object} models.DeviceConfig
// @Router /auth/device-config [get]
// @Security BearerAuth
func (h *AuthHandlers) DeviceConfig(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	cfg, err := h.hubservice.DeviceConfig(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, cfg)
}

// @Summary Delete the account and all of its data
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/delete-account [delete]
// @Security BearerAuth
func (h *AuthHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	if err := h.hubservice.DeleteAccount(r.Context()); err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Account and all associated data have been permanently deleted",
	})
}
