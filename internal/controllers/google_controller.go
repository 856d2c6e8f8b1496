package controllers

import (
	"net/http"

	"identity-server/internal/logics"
	"identity-server/internal/models"

	"github.com/labstack/echo/v4"
)

// GoogleSignInRequest carries a Google ID token and the target tenant
type GoogleSignInRequest struct {
	IDToken string `json:"id_token" form:"id_token"`
	Domain  string `json:"domain" form:"domain"`
}

// GoogleSignInHandler is step 1 of Google sign-in. An existing user gets an
// access token; a new user gets a short-lived registration token and must
// complete registration with a phone number.
// POST /token/google
func GoogleSignInHandler(c echo.Context) error {
	req := new(GoogleSignInRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.IDToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id_token is required"})
	}

	site, err := findSite(c, req.Domain)
	if err != nil {
		return err
	}

	result, err := logics.GoogleSvc.SignIn(c.Request().Context(), site.ID, req.IDToken)
	if err != nil {
		return errorResponse(c, err)
	}

	if result.User != nil {
		logics.AuditLogSvc.AddLog(models.AuditLogTypeGoogleSignIn, map[string]interface{}{
			"site_id": site.ID,
		}, &result.User.ID)

		access, err := createAccessToken(result.User.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "authenticated",
			"access": access,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":            "phone_required",
		"google_auth_token": result.TempToken,
		"email":             result.Claims.Email,
		"first_name":        result.Claims.FirstName,
		"last_name":         result.Claims.LastName,
	})
}

// GoogleCompleteRegistrationRequest finishes sign-up for a new Google user
type GoogleCompleteRegistrationRequest struct {
	GoogleAuthToken string `json:"google_auth_token" form:"google_auth_token"`
	PhoneNumber     string `json:"phone_number" form:"phone_number"`
	Domain          string `json:"domain" form:"domain"`
}

// GoogleCompleteRegistrationHandler is step 2 of Google sign-in, new users only
// POST /token/google/complete
func GoogleCompleteRegistrationHandler(c echo.Context) error {
	req := new(GoogleCompleteRegistrationRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.GoogleAuthToken == "" || req.PhoneNumber == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "google_auth_token and phone_number are required"})
	}

	site, err := findSite(c, req.Domain)
	if err != nil {
		return err
	}

	claims, err := logics.GoogleSvc.ConsumeTempToken(c.Request().Context(), req.GoogleAuthToken)
	if err != nil {
		return errorResponse(c, err)
	}

	user, err := logics.RegistrationSvc.RegisterWithGoogle(c.Request().Context(), site.ID, claims, req.PhoneNumber)
	if err != nil {
		return errorResponse(c, err)
	}

	logics.AuditLogSvc.AddLog(models.AuditLogTypeUserRegistered, map[string]interface{}{
		"site_id": site.ID,
		"method":  "google",
	}, &user.ID)

	access, err := createAccessToken(user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status": "authenticated",
		"access": access,
	})
}
