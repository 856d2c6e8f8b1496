package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"identity-server/configs"
	"identity-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"
)

const (
	googleTempTokenType = "google_auth_temp"
	googleRegKeyPrefix  = "google:reg:"
)

// GoogleClaims is the subset of a verified Google ID token the sign-in flow
// needs.
type GoogleClaims struct {
	Sub       string
	Email     string
	FirstName string
	LastName  string
}

// GoogleSignInResult is the outcome of the first sign-in step: either an
// existing user, or a short-lived registration token for a new one.
type GoogleSignInResult struct {
	User      *models.User
	TempToken string
	Claims    GoogleClaims
}

// tempTokenClaims is the payload of the registration temp token. The jti is
// consumed once via Redis so a token cannot complete two registrations.
type tempTokenClaims struct {
	GoogleSub string `json:"google_sub"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// idTokenValidator matches idtoken.Validate; swapped out in tests.
type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleService implements Google sign-in: ID-token verification, the
// existing-user fast path, and the temp-token handshake that lets a new user
// finish registration with a phone number.
type GoogleService struct {
	store       UserStore
	redisClient *redis.Client
	clock       Clock
	googleCfg   *configs.GoogleConfig
	secret      string
	logger      *zap.Logger
	validate    idTokenValidator
}

func NewGoogleService(
	store UserStore,
	redisClient *redis.Client,
	clock Clock,
	googleCfg *configs.GoogleConfig,
	tempTokenSecret string,
	logger *zap.Logger,
) *GoogleService {
	return &GoogleService{
		store:       store,
		redisClient: redisClient,
		clock:       clock,
		googleCfg:   googleCfg,
		secret:      tempTokenSecret,
		logger:      logger,
		validate:    idtoken.Validate,
	}
}

// VerifyIDToken validates a Google ID token against the configured OAuth2
// client ID and extracts the claims the flow needs.
func (s *GoogleService) VerifyIDToken(ctx context.Context, token string) (GoogleClaims, error) {
	if s.googleCfg.OAuth2ClientID == "" {
		return GoogleClaims{}, NewIdentityError(ErrGoogleSignInNotConfigured, "Google sign-in is not configured")
	}

	payload, err := s.validate(ctx, token, s.googleCfg.OAuth2ClientID)
	if err != nil {
		return GoogleClaims{}, NewIdentityErrorWithCause(ErrInvalidGoogleIDToken, "Google ID token is invalid", err)
	}

	claims := GoogleClaims{
		Sub:       payload.Subject,
		Email:     stringClaim(payload.Claims, "email"),
		FirstName: stringClaim(payload.Claims, "given_name"),
		LastName:  stringClaim(payload.Claims, "family_name"),
	}
	if claims.Email == "" {
		return GoogleClaims{}, NewIdentityError(ErrInvalidGoogleIDToken, "Google ID token carries no email")
	}
	return claims, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// SignIn resolves a verified ID token to a site-scoped user. An existing
// user (matched by email) gets their Google subject linked on first use; an
// unknown email yields a temp token so the client can complete registration.
func (s *GoogleService) SignIn(ctx context.Context, siteID uint, idToken string) (GoogleSignInResult, error) {
	claims, err := s.VerifyIDToken(ctx, idToken)
	if err != nil {
		return GoogleSignInResult{}, err
	}

	user, err := s.store.FindBySiteAndEmail(ctx, siteID, claims.Email)
	if err != nil {
		return GoogleSignInResult{}, NewIdentityErrorWithCause(ErrInternal, "failed to look up user", err)
	}

	if user != nil {
		if user.GoogleSub == "" {
			user.GoogleSub = claims.Sub
			if err := s.store.Update(ctx, user); err != nil {
				return GoogleSignInResult{}, NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
			}
		}
		s.logger.Info("Google sign-in", zap.String("user_id", user.ID))
		return GoogleSignInResult{User: user, Claims: claims}, nil
	}

	tempToken, err := s.CreateTempToken(claims)
	if err != nil {
		return GoogleSignInResult{}, err
	}
	return GoogleSignInResult{TempToken: tempToken, Claims: claims}, nil
}

// CreateTempToken signs a short-lived HS256 token carrying the verified
// Google claims, bridging sign-in step 1 to the registration step.
func (s *GoogleService) CreateTempToken(claims GoogleClaims) (string, error) {
	now := s.clock.Now()
	expiry := time.Duration(s.googleCfg.TempTokenExpiryMin) * time.Minute
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tempTokenClaims{
		GoogleSub: claims.Sub,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		TokenType: googleTempTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	})

	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", NewIdentityErrorWithCause(ErrInternal, "failed to sign temp token", err)
	}
	return signed, nil
}

// decodeTempToken verifies the signature, expiry and token type of a
// registration temp token.
func (s *GoogleService) decodeTempToken(token string) (tempTokenClaims, error) {
	var claims tempTokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return tempTokenClaims{}, NewIdentityError(ErrGoogleAuthTokenExpired, "registration token has expired")
		}
		return tempTokenClaims{}, NewIdentityErrorWithCause(ErrInvalidGoogleIDToken, "registration token is invalid", err)
	}
	if claims.TokenType != googleTempTokenType {
		return tempTokenClaims{}, NewIdentityError(ErrInvalidGoogleIDToken, "registration token is invalid")
	}
	return claims, nil
}

// ConsumeTempToken decodes and invalidates a registration temp token. Each
// token works exactly once: its jti is marked in Redis for the token's
// remaining lifetime.
func (s *GoogleService) ConsumeTempToken(ctx context.Context, token string) (GoogleClaims, error) {
	claims, err := s.decodeTempToken(token)
	if err != nil {
		return GoogleClaims{}, err
	}

	ttl := time.Duration(s.googleCfg.TempTokenExpiryMin) * time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.clock.Now())
	}
	fresh, err := s.redisClient.SetNX(ctx, googleRegKeyPrefix+claims.ID, "1", ttl).Result()
	if err != nil {
		return GoogleClaims{}, NewIdentityErrorWithCause(ErrInternal, "failed to mark temp token used", err)
	}
	if !fresh {
		return GoogleClaims{}, NewIdentityError(ErrInvalidGoogleIDToken, "registration token was already used")
	}

	return GoogleClaims{
		Sub:       claims.GoogleSub,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}
