package controllers

import (
	"net/http"

	"identity-server/internal/logics"
	"identity-server/internal/models"

	"github.com/labstack/echo/v4"
)

// RequestPasswordResetRequest asks for a reset code on a confirmed credential
type RequestPasswordResetRequest struct {
	Domain     string `json:"domain" form:"domain"`
	Credential string `json:"credential" form:"credential"` // confirmed email or phone number
}

// RequestPasswordResetHandler issues a one-time reset code
// POST /password-reset
func RequestPasswordResetHandler(c echo.Context) error {
	req := new(RequestPasswordResetRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Credential == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "credential is required"})
	}

	site, err := findSite(c, req.Domain)
	if err != nil {
		return err
	}

	if err := logics.ResetSvc.Request(c.Request().Context(), site.ID, req.Credential); err != nil {
		return errorResponse(c, err)
	}

	content := map[string]interface{}{
		"site_id": site.ID,
	}
	logics.AuditLogSvc.AddLog(models.AuditLogTypePasswordResetRequested, content, nil)

	return c.NoContent(http.StatusNoContent)
}

// ConfirmPasswordResetRequest consumes a reset code and sets a new password
type ConfirmPasswordResetRequest struct {
	Domain      string `json:"domain" form:"domain"`
	Credential  string `json:"credential" form:"credential"`
	Code        string `json:"code" form:"code"`
	NewPassword string `json:"new_password" form:"new_password"`
}

// ConfirmPasswordResetHandler validates the reset code and changes the password
// POST /password-reset/confirm
func ConfirmPasswordResetHandler(c echo.Context) error {
	req := new(ConfirmPasswordResetRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Credential == "" || req.Code == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "credential, code and new_password are required"})
	}

	site, err := findSite(c, req.Domain)
	if err != nil {
		return err
	}

	user, err := logics.UserRepo.FindBySiteAndCredential(c.Request().Context(), site.ID, req.Credential)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to look up user"})
	}
	if user == nil {
		// Same response as a wrong code so the endpoint does not leak which
		// credentials exist.
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_reset_code"})
	}

	if err := logics.ResetSvc.Confirm(c.Request().Context(), user, req.Code, req.NewPassword); err != nil {
		return errorResponse(c, err)
	}

	logics.AuditLogSvc.AddLog(models.AuditLogTypePasswordResetConfirmed, map[string]interface{}{}, &user.ID)

	return c.NoContent(http.StatusNoContent)
}
