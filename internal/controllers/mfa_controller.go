package controllers

import (
	"net/http"

	"identity-server/internal/logics"
	"identity-server/internal/models"

	"github.com/labstack/echo/v4"
)

// MFAKeyResponse contains a freshly provisioned TOTP secret
type MFAKeyResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// GetMFAKeyHandler provisions a TOTP secret for enrollment
// GET /users/me/mfa/key
func GetMFAKeyHandler(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	secret, uri, err := logics.MFASvc.ProvisionKey(c.Request().Context(), user)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, MFAKeyResponse{
		Secret:          secret,
		ProvisioningURI: uri,
	})
}

// EnableMFARequest confirms enrollment of a provisioned secret
type EnableMFARequest struct {
	Secret string `json:"secret" form:"secret"`
	OTP    string `json:"otp" form:"otp"`
}

// EnableMFAHandler enrolls the provisioned TOTP secret
// POST /users/me/mfa/enable
func EnableMFAHandler(c echo.Context) error {
	req := new(EnableMFARequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Secret == "" || req.OTP == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "secret and otp are required"})
	}

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := logics.MFASvc.Enable(c.Request().Context(), user, req.Secret, req.OTP); err != nil {
		return errorResponse(c, err)
	}

	logics.AuditLogSvc.AddLog(models.AuditLogTypeMFAEnabled, map[string]interface{}{}, &user.ID)

	return c.NoContent(http.StatusNoContent)
}

// DisableMFARequest clears the enrolled secret
type DisableMFARequest struct {
	OTP string `json:"otp" form:"otp"`
}

// DisableMFAHandler disables MFA. The route is additionally guarded by the
// OTP middleware.
// POST /users/me/mfa/disable
func DisableMFAHandler(c echo.Context) error {
	req := new(DisableMFARequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := logics.MFASvc.Disable(c.Request().Context(), user, req.OTP); err != nil {
		return errorResponse(c, err)
	}

	logics.AuditLogSvc.AddLog(models.AuditLogTypeMFADisabled, map[string]interface{}{}, &user.ID)

	return c.NoContent(http.StatusNoContent)
}

// MFAStatusResponse reports whether an account has MFA enabled
type MFAStatusResponse struct {
	IsMFAEnabled bool `json:"is_mfa_enabled"`
}

// MFAStatusHandler is the public pre-login MFA status lookup
// GET /mfa/status?domain=&phone_number=
func MFAStatusHandler(c echo.Context) error {
	site, err := findSite(c, c.QueryParam("domain"))
	if err != nil {
		return err
	}

	enabled, err := logics.MFASvc.StatusByPhoneNumber(c.Request().Context(), site.ID, c.QueryParam("phone_number"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, MFAStatusResponse{IsMFAEnabled: enabled})
}
