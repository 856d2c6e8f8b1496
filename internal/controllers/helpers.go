package controllers

import (
	"errors"
	"net/http"
	"time"

	"identity-server/configs"
	"identity-server/internal/identity"
	"identity-server/internal/logics"
	"identity-server/internal/middlewares"
	"identity-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// TokenResponse carries the access token issued after a successful sign-in
// or registration.
type TokenResponse struct {
	Access string `json:"access"`
}

var errorStatus = map[string]int{
	identity.ErrAttemptsLimitReached:      http.StatusBadRequest,
	identity.ErrTooFrequentRequests:       http.StatusTooManyRequests,
	identity.ErrInvalidCredential:         http.StatusBadRequest,
	identity.ErrCredentialNotConfirmed:    http.StatusBadRequest,
	identity.ErrEmailAlreadyRegistered:    http.StatusBadRequest,
	identity.ErrPhoneAlreadyRegistered:    http.StatusBadRequest,
	identity.ErrInvalidPhoneNumber:        http.StatusBadRequest,
	identity.ErrInvalidOTP:                http.StatusBadRequest,
	identity.ErrMFAAlreadyEnabled:         http.StatusBadRequest,
	identity.ErrMFANotEnabled:             http.StatusBadRequest,
	identity.ErrInvalidResetCode:          http.StatusBadRequest,
	identity.ErrResetCodeExpired:          http.StatusBadRequest,
	identity.ErrInvalidGoogleIDToken:      http.StatusBadRequest,
	identity.ErrGoogleAuthTokenExpired:    http.StatusBadRequest,
	identity.ErrGoogleSignInNotConfigured: http.StatusServiceUnavailable,
	identity.ErrUserNotFound:              http.StatusNotFound,
	identity.ErrInternal:                  http.StatusInternalServerError,
}

// errorResponse translates an IdentityError into the JSON error envelope.
func errorResponse(c echo.Context, err error) error {
	var idErr *identity.IdentityError
	if errors.As(err, &idErr) {
		status, ok := errorStatus[idErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, map[string]string{"error": idErr.Code})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": identity.ErrInternal})
}

// findSite resolves a tenant by domain.
func findSite(c echo.Context, domain string) (*models.Site, error) {
	if domain == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "domain is required")
	}
	site, err := logics.SiteRepo.FindByDomain(c.Request().Context(), domain)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to look up site")
	}
	if site == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown domain")
	}
	return site, nil
}

// currentUser loads the authenticated user set by the JWT middleware.
func currentUser(c echo.Context) (*models.User, error) {
	userID, err := middlewares.GetUserIDFromContext(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := logics.UserRepo.FindByID(c.Request().Context(), userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return user, nil
}

// createAccessToken issues a short-lived HS256 access token for the user.
func createAccessToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	return token.SignedString([]byte(configs.Configs.Secrets.JwtSecret))
}
