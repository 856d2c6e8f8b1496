package httpEngine

import (
	"net/http"
	"time"

	"identity-server/internal/controllers"
	"identity-server/internal/logics"
	"identity-server/internal/middlewares"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes sets up all the server routes
func RegisterRoutes(e *echo.Echo) {
	// Basic health check
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Hello, from Identity Server!")
	})

	// Rate limiter for the unauthenticated code-issuing endpoints
	sensitiveLimiter := middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      5,
				Burst:     10,
				ExpiresIn: 1 * time.Hour,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			if credential := ctx.FormValue("credential"); credential != "" {
				id += ":" + credential
			}
			return id, nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
		},
	}

	// Public endpoints
	userGroup := e.Group("/users")
	{
		userGroup.POST("", controllers.RegisterHandler, middleware.RateLimiterWithConfig(sensitiveLimiter))
		userGroup.GET("/availability", controllers.CredentialAvailabilityHandler)
	}

	e.POST("/password-reset", controllers.RequestPasswordResetHandler, middleware.RateLimiterWithConfig(sensitiveLimiter))
	e.POST("/password-reset/confirm", controllers.ConfirmPasswordResetHandler, middleware.RateLimiterWithConfig(sensitiveLimiter))

	e.GET("/mfa/status", controllers.MFAStatusHandler)

	e.POST("/token/google", controllers.GoogleSignInHandler, middleware.RateLimiterWithConfig(sensitiveLimiter))
	e.POST("/token/google/complete", controllers.GoogleCompleteRegistrationHandler, middleware.RateLimiterWithConfig(sensitiveLimiter))

	// Authenticated endpoints
	meGroup := e.Group("/users/me")
	meGroup.Use(middlewares.JWTMiddleware)
	{
		meGroup.GET("", controllers.GetMeHandler)

		meGroup.POST("/email", controllers.ChangeEmailHandler)
		meGroup.POST("/email/confirm", controllers.ConfirmEmailHandler)
		meGroup.POST("/phone-number", controllers.ChangePhoneNumberHandler)
		meGroup.POST("/phone-number/confirm", controllers.ConfirmPhoneNumberHandler)
		meGroup.POST("/confirmation-codes", controllers.SendConfirmationCodeHandler)

		meGroup.GET("/mfa/key", controllers.GetMFAKeyHandler)
		meGroup.POST("/mfa/enable", controllers.EnableMFAHandler)
		meGroup.POST("/mfa/disable", controllers.DisableMFAHandler,
			middlewares.OTPRequired(logics.UserRepo, logics.MFASvc))
	}
}
