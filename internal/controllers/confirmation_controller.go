package controllers

import (
	"net/http"

	"identity-server/internal/identity"
	"identity-server/internal/logics"
	"identity-server/internal/models"

	"github.com/labstack/echo/v4"
)

// ConfirmCredentialRequest carries the PIN(s) of a confirmation attempt
type ConfirmCredentialRequest struct {
	Pin          string `json:"pin" form:"pin"`
	CandidatePin string `json:"candidate_pin" form:"candidate_pin"`
}

// ConfirmCredentialResponse is the per-field outcome of an attempt
type ConfirmCredentialResponse struct {
	Confirmed    bool  `json:"confirmed"`
	PinOK        bool  `json:"pin_ok"`
	CandidatePin *bool `json:"candidate_pin_ok,omitempty"` // absent when no candidate is pending
}

func confirmCredential(c echo.Context, kind identity.CredentialKind) error {
	req := new(ConfirmCredentialRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	result, err := logics.ConfirmationSvc.Confirm(c.Request().Context(), user, kind, req.Pin, req.CandidatePin)
	if err != nil {
		return errorResponse(c, err)
	}

	if !result.Confirmed() {
		content := map[string]interface{}{
			"credential": string(kind),
		}
		logics.AuditLogSvc.AddLog(models.AuditLogTypeConfirmationFailed, content, &user.ID)
	}

	resp := ConfirmCredentialResponse{
		Confirmed: result.Confirmed(),
		PinOK:     result.MainOK,
	}
	if result.Candidate != identity.CandidateNone {
		ok := result.Candidate == identity.CandidateCorrect
		resp.CandidatePin = &ok
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfirmEmailHandler verifies the email confirmation PIN(s)
// POST /users/me/email/confirm
func ConfirmEmailHandler(c echo.Context) error {
	return confirmCredential(c, identity.CredentialEmail)
}

// ConfirmPhoneNumberHandler verifies the phone number confirmation PIN(s)
// POST /users/me/phone-number/confirm
func ConfirmPhoneNumberHandler(c echo.Context) error {
	return confirmCredential(c, identity.CredentialPhoneNumber)
}

// SendConfirmationCodeRequest selects which confirmation code to (re)send
type SendConfirmationCodeRequest struct {
	Credential  string `json:"credential" form:"credential"` // "email" or "phone_number"
	Candidate   bool   `json:"candidate" form:"candidate"`
	GenerateNew bool   `json:"generate_new" form:"generate_new"`
}

// SendConfirmationCodeHandler re-dispatches a confirmation code
// POST /users/me/confirmation-codes
func SendConfirmationCodeHandler(c echo.Context) error {
	req := new(SendConfirmationCodeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	var kind identity.CredentialKind
	switch req.Credential {
	case "email":
		kind = identity.CredentialEmail
	case "phone_number":
		kind = identity.CredentialPhoneNumber
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "credential must be email or phone_number"})
	}

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	err = logics.ConfirmationSvc.SendCode(c.Request().Context(), user, kind, identity.SendOptions{
		Candidate:   req.Candidate,
		GenerateNew: req.GenerateNew,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	content := map[string]interface{}{
		"credential": string(kind),
		"candidate":  req.Candidate,
	}
	logics.AuditLogSvc.AddLog(models.AuditLogTypeConfirmationCodeSent, content, &user.ID)

	return c.NoContent(http.StatusNoContent)
}

// ChangeCredentialRequest carries the proposed replacement value
type ChangeCredentialRequest struct {
	Value string `json:"value" form:"value"`
}

func requestCredentialChange(c echo.Context, kind identity.CredentialKind) error {
	req := new(ChangeCredentialRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Value == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "value is required"})
	}

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := logics.ConfirmationSvc.RequestChange(c.Request().Context(), user, kind, req.Value); err != nil {
		return errorResponse(c, err)
	}

	content := map[string]interface{}{
		"credential": string(kind),
	}
	logics.AuditLogSvc.AddLog(models.AuditLogTypeCredentialChangeStarted, content, &user.ID)

	return c.NoContent(http.StatusNoContent)
}

// ChangeEmailHandler starts an email change: candidate registered, both codes sent
// POST /users/me/email
func ChangeEmailHandler(c echo.Context) error {
	return requestCredentialChange(c, identity.CredentialEmail)
}

// ChangePhoneNumberHandler starts a phone number change
// POST /users/me/phone-number
func ChangePhoneNumberHandler(c echo.Context) error {
	return requestCredentialChange(c, identity.CredentialPhoneNumber)
}
