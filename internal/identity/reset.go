package identity

import (
	"context"
	"time"

	"identity-server/configs"
	"identity-server/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ResetService issues and consumes one-time password reset codes, scoped to
// a confirmed credential.
type ResetService struct {
	store       UserStore
	clock       Clock
	sendEmail   EmailSender
	sendSMS     SMSSender
	identityCfg *configs.IdentityConfig
	logger      *zap.Logger
}

func NewResetService(
	store UserStore,
	clock Clock,
	sendEmail EmailSender,
	sendSMS SMSSender,
	identityCfg *configs.IdentityConfig,
	logger *zap.Logger,
) *ResetService {
	return &ResetService{
		store:       store,
		clock:       clock,
		sendEmail:   sendEmail,
		sendSMS:     sendSMS,
		identityCfg: identityCfg,
		logger:      logger,
	}
}

// Request issues a reset code to the user owning the given confirmed
// credential on the site. Email delivery is unthrottled; SMS delivery goes
// through the password-reset cooldown window.
func (s *ResetService) Request(ctx context.Context, siteID uint, credential string) error {
	user, err := s.store.FindBySiteAndCredential(ctx, siteID, credential)
	if err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to look up user", err)
	}
	if user == nil {
		return NewIdentityError(ErrInvalidCredential, "no account matches this credential")
	}

	now := s.clock.Now()
	viaEmail := credential == user.Email

	if viaEmail {
		if !user.IsEmailConfirmed {
			return NewIdentityError(ErrCredentialNotConfirmed, "email is not confirmed")
		}
	} else {
		if !user.IsPhoneNumberConfirmed {
			return NewIdentityError(ErrCredentialNotConfirmed, "phone number is not confirmed")
		}
		if !smsWindowOpen(user, CodePasswordReset, now) {
			return NewIdentityError(ErrTooFrequentRequests, "reset code was requested too recently")
		}
		period := time.Duration(s.identityCfg.PasswordResetSMSPeriodMin) * time.Minute
		reserveSMSWindow(user, CodePasswordReset, now, period)
	}

	code := GeneratePin()
	user.PasswordResetCode = &code
	user.PasswordResetCodeIssuedAt = &now
	if err := s.store.Update(ctx, user); err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
	}

	body := Localize(user.PreferredLanguage, msgPasswordResetCode, s.identityCfg.Domain, code)
	var sendErr error
	if viaEmail {
		subject := Localize(user.PreferredLanguage, subjectPasswordResetCode, s.identityCfg.Domain)
		sendErr = s.sendEmail(user.Email, subject, body)
	} else {
		sendErr = s.sendSMS(user.PhoneNumber, body)
	}
	if sendErr != nil {
		s.logger.Warn("failed to dispatch password reset code",
			zap.String("user_id", user.ID), zap.Error(sendErr))
	}
	return nil
}

// Confirm consumes a reset code: checks it against the stored one and its
// issue-time TTL, then replaces the password and clears the code.
func (s *ResetService) Confirm(ctx context.Context, user *models.User, code, newPassword string) error {
	if user.PasswordResetCode == nil || parsePin(code) != *user.PasswordResetCode {
		return NewIdentityError(ErrInvalidResetCode, "reset code does not match")
	}

	ttl := time.Duration(s.identityCfg.PasswordResetCodeTTLMin) * time.Minute
	if user.PasswordResetCodeIssuedAt == nil || s.clock.Now().After(user.PasswordResetCodeIssuedAt.Add(ttl)) {
		return NewIdentityError(ErrResetCodeExpired, "reset code has expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to hash password", err)
	}
	user.Password = string(hash)
	user.PasswordResetCode = nil
	user.PasswordResetCodeIssuedAt = nil
	if err := s.store.Update(ctx, user); err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to persist user", err)
	}

	if user.Email != "" {
		subject := Localize(user.PreferredLanguage, subjectPasswordChanged, s.identityCfg.Domain)
		body := Localize(user.PreferredLanguage, msgPasswordChanged, s.identityCfg.Domain)
		if err := s.sendEmail(user.Email, subject, body); err != nil {
			s.logger.Warn("failed to send password changed notice",
				zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.logger.Info("password reset confirmed", zap.String("user_id", user.ID))
	return nil
}
