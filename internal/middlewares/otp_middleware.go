package middlewares

import (
	"net/http"

	"identity-server/internal/identity"

	"github.com/labstack/echo/v4"
)

// OTPRequired guards sensitive routes behind a valid one-time password.
// The OTP comes from the X-OTP header. Must run after JWTMiddleware.
func OTPRequired(store identity.UserStore, mfa *identity.MFAService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := GetUserIDFromContext(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}

			user, err := store.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}

			if !mfa.CheckOTP(user, c.Request().Header.Get("X-OTP")) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": identity.ErrInvalidOTP})
			}
			return next(c)
		}
	}
}
