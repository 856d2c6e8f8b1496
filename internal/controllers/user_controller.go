package controllers

import (
	"net/http"

	"identity-server/internal/identity"
	"identity-server/internal/logics"
	"identity-server/internal/models"

	"github.com/labstack/echo/v4"
)

// RegisterRequest is the payload for creating a new account
type RegisterRequest struct {
	Domain            string `json:"domain" form:"domain"`
	Email             string `json:"email" form:"email"`
	PhoneNumber       string `json:"phone_number" form:"phone_number"`
	Password          string `json:"password" form:"password"`
	FirstName         string `json:"first_name" form:"first_name"`
	LastName          string `json:"last_name" form:"last_name"`
	PreferredLanguage string `json:"preferred_language" form:"preferred_language"`
}

// RegisterHandler creates a user and dispatches both initial confirmation codes
// POST /users
func RegisterHandler(c echo.Context) error {
	req := new(RegisterRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Email == "" || req.PhoneNumber == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email, phone_number and password are required"})
	}

	site, err := findSite(c, req.Domain)
	if err != nil {
		return err
	}

	user, err := logics.RegistrationSvc.Register(c.Request().Context(), identity.RegisterParams{
		SiteID:            site.ID,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		Password:          req.Password,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	content := map[string]interface{}{
		"site_id": site.ID,
	}
	logics.AuditLogSvc.AddLog(models.AuditLogTypeUserRegistered, content, &user.ID)

	access, err := createAccessToken(user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusCreated, TokenResponse{Access: access})
}

// CredentialAvailabilityResponse reports which credentials are free on a site
type CredentialAvailabilityResponse struct {
	EmailAvailable       bool `json:"email_available"`
	PhoneNumberAvailable bool `json:"phone_number_available"`
}

// CredentialAvailabilityHandler checks email/phone availability before registration
// GET /users/availability?domain=&email=&phone_number=
func CredentialAvailabilityHandler(c echo.Context) error {
	site, err := findSite(c, c.QueryParam("domain"))
	if err != nil {
		return err
	}

	emailFree, phoneFree, err := logics.RegistrationSvc.CredentialAvailability(
		c.Request().Context(), site.ID, c.QueryParam("email"), c.QueryParam("phone_number"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, CredentialAvailabilityResponse{
		EmailAvailable:       emailFree,
		PhoneNumberAvailable: phoneFree,
	})
}

// MeResponse is the authenticated user's profile
type MeResponse struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	EmailCandidate         string `json:"email_candidate"`
	IsEmailConfirmed       bool   `json:"is_email_confirmed"`
	PhoneNumber            string `json:"phone_number"`
	PhoneNumberCandidate   string `json:"phone_number_candidate"`
	IsPhoneNumberConfirmed bool   `json:"is_phone_number_confirmed"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	PreferredLanguage      string `json:"preferred_language"`
	IsMFAEnabled           bool   `json:"is_mfa_enabled"`
}

// GetMeHandler returns the authenticated user's profile
// GET /users/me
func GetMeHandler(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MeResponse{
		ID:                     user.ID,
		Email:                  user.Email,
		EmailCandidate:         user.EmailCandidate,
		IsEmailConfirmed:       user.IsEmailConfirmed,
		PhoneNumber:            user.PhoneNumber,
		PhoneNumberCandidate:   user.PhoneNumberCandidate,
		IsPhoneNumberConfirmed: user.IsPhoneNumberConfirmed,
		FirstName:              user.FirstName,
		LastName:               user.LastName,
		PreferredLanguage:      user.PreferredLanguage,
		IsMFAEnabled:           user.MFASecretKey != "",
	})
}
