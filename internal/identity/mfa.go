package identity

import (
	"context"
	"fmt"
	"time"

	"identity-server/configs"
	"identity-server/internal/models"

	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const mfaSetupKeyPrefix = "mfa:setup:"

// MFAService enrolls and verifies per-user TOTP secrets. Provisioned but not
// yet confirmed secrets are parked in Redis with a TTL so an abandoned setup
// leaves no state on the user row.
type MFAService struct {
	store       UserStore
	redisClient *redis.Client
	identityCfg *configs.IdentityConfig
	debug       bool
	logger      *zap.Logger
}

func NewMFAService(
	store UserStore,
	redisClient *redis.Client,
	identityCfg *configs.IdentityConfig,
	debug bool,
	logger *zap.Logger,
) *MFAService {
	return &MFAService{
		store:       store,
		redisClient: redisClient,
		identityCfg: identityCfg,
		debug:       debug,
		logger:      logger,
	}
}

// CheckOTP verifies an OTP against the user's enrolled secret.
//
// Superusers outside debug mode must have MFA enrolled: with no secret their
// check always fails. For everyone else a missing secret means MFA is
// disabled and any OTP passes. Validation uses the standard 30-second step
// with the library's default skew tolerance.
func (s *MFAService) CheckOTP(user *models.User, otp string) bool {
	if user.IsSuperuser && !s.debug && user.MFASecretKey == "" {
		return false
	}
	if user.MFASecretKey == "" {
		return true
	}
	return totp.Validate(otp, user.MFASecretKey)
}

// ProvisionKey generates a fresh TOTP secret and its provisioning URI
// (issuer = configured domain, account = user's full name). The secret is
// stashed in Redis until Enable confirms it or the TTL drops it.
func (s *MFAService) ProvisionKey(ctx context.Context, user *models.User) (secret, uri string, err error) {
	if user.MFASecretKey != "" {
		return "", "", NewIdentityError(ErrMFAAlreadyEnabled, "MFA is already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.identityCfg.Domain,
		AccountName: user.FullName(),
	})
	if err != nil {
		return "", "", NewIdentityErrorWithCause(ErrInternal, "failed to generate TOTP key", err)
	}

	ttl := time.Duration(s.identityCfg.MFASetupTTLMin) * time.Minute
	if err := s.redisClient.Set(ctx, mfaSetupKey(user.ID), key.Secret(), ttl).Err(); err != nil {
		return "", "", NewIdentityErrorWithCause(ErrInternal, "failed to stash pending MFA secret", err)
	}

	return key.Secret(), key.URL(), nil
}

// Enable enrolls the candidate secret after verifying an OTP computed from
// it. The candidate must match the secret provisioned for this user.
func (s *MFAService) Enable(ctx context.Context, user *models.User, secret, otp string) error {
	if user.MFASecretKey != "" {
		return NewIdentityError(ErrMFAAlreadyEnabled, "MFA is already enabled")
	}

	pending, err := s.redisClient.Get(ctx, mfaSetupKey(user.ID)).Result()
	if err == redis.Nil {
		return NewIdentityError(ErrInvalidOTP, "no pending MFA setup, request a new key")
	}
	if err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to load pending MFA secret", err)
	}
	if secret != pending {
		return NewIdentityError(ErrInvalidOTP, "secret does not match the provisioned key")
	}

	if !totp.Validate(otp, secret) {
		return NewIdentityError(ErrInvalidOTP, "one-time password is invalid")
	}

	user.MFASecretKey = secret
	if err := s.store.Update(ctx, user); err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
	}

	if err := s.redisClient.Del(ctx, mfaSetupKey(user.ID)).Err(); err != nil {
		s.logger.Warn("failed to drop pending MFA secret", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("MFA enabled", zap.String("user_id", user.ID))
	return nil
}

// Disable clears the enrolled secret. A valid OTP for the current secret is
// required; the HTTP layer additionally guards this route with the OTP
// middleware.
func (s *MFAService) Disable(ctx context.Context, user *models.User, otp string) error {
	if user.MFASecretKey == "" {
		return NewIdentityError(ErrMFANotEnabled, "MFA is not enabled")
	}
	if !totp.Validate(otp, user.MFASecretKey) {
		return NewIdentityError(ErrInvalidOTP, "one-time password is invalid")
	}

	user.MFASecretKey = ""
	if err := s.store.Update(ctx, user); err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
	}

	s.logger.Info("MFA disabled", zap.String("user_id", user.ID))
	return nil
}

// StatusByPhoneNumber is the public pre-login lookup telling a client
// whether to prompt for an OTP.
func (s *MFAService) StatusByPhoneNumber(ctx context.Context, siteID uint, phoneNumber string) (bool, error) {
	user, err := s.store.FindBySiteAndPhoneNumber(ctx, siteID, phoneNumber)
	if err != nil {
		return false, NewIdentityErrorWithCause(ErrInternal, "failed to look up user", err)
	}
	if user == nil {
		return false, NewIdentityError(ErrUserNotFound, "no account matches this phone number")
	}
	return user.MFASecretKey != "", nil
}

func mfaSetupKey(userID string) string {
	return fmt.Sprintf("%s%s", mfaSetupKeyPrefix, userID)
}
