package identity

import (
	"context"
	"regexp"

	"identity-server/configs"
	"identity-server/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const userIDLength = 12

// RegisterParams carries the fields of a password-based registration.
type RegisterParams struct {
	SiteID            uint
	Email             string
	PhoneNumber       string
	Password          string
	FirstName         string
	LastName          string
	PreferredLanguage string
}

// RegistrationService creates site-scoped users and kicks off their initial
// credential confirmation.
type RegistrationService struct {
	store        UserStore
	confirmation *ConfirmationService
	identityCfg  *configs.IdentityConfig
	phonePattern *regexp.Regexp
	logger       *zap.Logger
}

func NewRegistrationService(
	store UserStore,
	confirmation *ConfirmationService,
	identityCfg *configs.IdentityConfig,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		store:        store,
		confirmation: confirmation,
		identityCfg:  identityCfg,
		phonePattern: regexp.MustCompile(identityCfg.PhoneNumberPattern),
		logger:       logger,
	}
}

func (s *RegistrationService) resolveLanguage(preferred string) string {
	for _, allowed := range s.identityCfg.AllowedLanguages {
		if preferred == allowed {
			return preferred
		}
	}
	return s.identityCfg.DefaultLanguage
}

func (s *RegistrationService) checkAvailability(ctx context.Context, siteID uint, email, phoneNumber string) error {
	taken, err := s.store.ExistsBySiteAndEmail(ctx, siteID, email)
	if err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to check email availability", err)
	}
	if taken {
		return NewIdentityError(ErrEmailAlreadyRegistered, "email is already registered on this site")
	}

	taken, err = s.store.ExistsBySiteAndPhoneNumber(ctx, siteID, phoneNumber)
	if err != nil {
		return NewIdentityErrorWithCause(ErrInternal, "failed to check phone number availability", err)
	}
	if taken {
		return NewIdentityError(ErrPhoneAlreadyRegistered, "phone number is already registered on this site")
	}
	return nil
}

// Register creates a user and sends both initial confirmation codes. The
// initial sends bypass the SMS cooldown: no code of any kind has been sent
// to this user yet.
func (s *RegistrationService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if !s.phonePattern.MatchString(params.PhoneNumber) {
		return nil, NewIdentityError(ErrInvalidPhoneNumber, "phone number has an invalid format")
	}
	if err := s.checkAvailability(ctx, params.SiteID, params.Email, params.PhoneNumber); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewIdentityErrorWithCause(ErrInternal, "failed to hash password", err)
	}

	id, err := gonanoid.New(userIDLength)
	if err != nil {
		return nil, NewIdentityErrorWithCause(ErrInternal, "failed to generate user id", err)
	}

	user := &models.User{
		ID:                id,
		SiteID:            params.SiteID,
		Email:             params.Email,
		PhoneNumber:       params.PhoneNumber,
		Password:          string(hash),
		FirstName:         params.FirstName,
		LastName:          params.LastName,
		PreferredLanguage: s.resolveLanguage(params.PreferredLanguage),
		IsActive:          true,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, NewIdentityErrorWithCause(ErrInternal, "failed to create user", err)
	}

	sendOpts := SendOptions{GenerateNew: true, IgnoreFrequencyLimit: true}
	if err := s.confirmation.SendCode(ctx, user, CredentialEmail, sendOpts); err != nil {
		s.logger.Warn("failed to send initial email confirmation code",
			zap.String("user_id", user.ID), zap.Error(err))
	}
	if err := s.confirmation.SendCode(ctx, user, CredentialPhoneNumber, sendOpts); err != nil {
		s.logger.Warn("failed to send initial phone confirmation code",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.Uint("site_id", params.SiteID))
	return user, nil
}

// RegisterWithGoogle finishes the Google sign-in handshake: the email comes
// from a verified ID token so it starts out confirmed, and no password is
// set. Only the phone number needs confirming.
func (s *RegistrationService) RegisterWithGoogle(ctx context.Context, siteID uint, claims GoogleClaims, phoneNumber string) (*models.User, error) {
	if !s.phonePattern.MatchString(phoneNumber) {
		return nil, NewIdentityError(ErrInvalidPhoneNumber, "phone number has an invalid format")
	}
	if err := s.checkAvailability(ctx, siteID, claims.Email, phoneNumber); err != nil {
		return nil, err
	}

	id, err := gonanoid.New(userIDLength)
	if err != nil {
		return nil, NewIdentityErrorWithCause(ErrInternal, "failed to generate user id", err)
	}

	user := &models.User{
		ID:                id,
		SiteID:            siteID,
		Email:             claims.Email,
		IsEmailConfirmed:  true,
		PhoneNumber:       phoneNumber,
		FirstName:         claims.FirstName,
		LastName:          claims.LastName,
		GoogleSub:         claims.Sub,
		PreferredLanguage: s.identityCfg.DefaultLanguage,
		IsActive:          true,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, NewIdentityErrorWithCause(ErrInternal, "failed to create user", err)
	}

	sendOpts := SendOptions{GenerateNew: true, IgnoreFrequencyLimit: true}
	if err := s.confirmation.SendCode(ctx, user, CredentialPhoneNumber, sendOpts); err != nil {
		s.logger.Warn("failed to send initial phone confirmation code",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("user registered via Google",
		zap.String("user_id", user.ID), zap.Uint("site_id", siteID))
	return user, nil
}

// CredentialAvailability reports whether an email and a phone number are
// free on the site. Pending candidate values count as taken.
func (s *RegistrationService) CredentialAvailability(ctx context.Context, siteID uint, email, phoneNumber string) (emailFree, phoneFree bool, err error) {
	emailTaken, err := s.store.ExistsBySiteAndEmail(ctx, siteID, email)
	if err != nil {
		return false, false, NewIdentityErrorWithCause(ErrInternal, "failed to check email availability", err)
	}
	phoneTaken, err := s.store.ExistsBySiteAndPhoneNumber(ctx, siteID, phoneNumber)
	if err != nil {
		return false, false, NewIdentityErrorWithCause(ErrInternal, "failed to check phone number availability", err)
	}
	return !emailTaken, !phoneTaken, nil
}
