package identity

import (
	"context"
	"testing"

	"identity-server/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newRegistrationFixture(existing ...*models.User) (*RegistrationService, *fakeStore, *capturingSenders) {
	store := newFakeStore(existing...)
	senders := &capturingSenders{}
	cfg := testIdentityConfig()
	confirmation := NewConfirmationService(store, newFakeClock(),
		senders.emailSender(), senders.smsSender(), cfg, zap.NewNop())
	svc := NewRegistrationService(store, confirmation, cfg, zap.NewNop())
	return svc, store, senders
}

func validParams() RegisterParams {
	return RegisterParams{
		SiteID:            1,
		Email:             "alice@example.com",
		PhoneNumber:       "+996507030927",
		Password:          "correct horse battery staple",
		FirstName:         "Alice",
		LastName:          "Smith",
		PreferredLanguage: "ko",
	}
}

func TestRegister_CreatesUserAndSendsBothCodes(t *testing.T) {
	svc, store, senders := newRegistrationFixture()

	user, err := svc.Register(context.Background(), validParams())
	assert.NoError(t, err)
	assert.Len(t, user.ID, 12)
	assert.Equal(t, "ko", user.PreferredLanguage)
	assert.False(t, user.IsEmailConfirmed)
	assert.False(t, user.IsPhoneNumberConfirmed)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct horse battery staple")))

	assert.NotZero(t, user.EmailConfirmationPin)
	assert.NotZero(t, user.PhoneNumberConfirmationPin)
	assert.Len(t, senders.emails, 1)
	assert.Len(t, senders.sms, 1)
	assert.Equal(t, "alice@example.com", senders.emails[0].Destination)
	assert.Equal(t, "+996507030927", senders.sms[0].Destination)

	stored, _ := store.FindByID(context.Background(), user.ID)
	assert.Same(t, user, stored)
}

func TestRegister_UnknownLanguageFallsBack(t *testing.T) {
	svc, _, _ := newRegistrationFixture()

	params := validParams()
	params.PreferredLanguage = "xx"
	user, err := svc.Register(context.Background(), params)
	assert.NoError(t, err)
	assert.Equal(t, "en", user.PreferredLanguage)
}

func TestRegister_InvalidPhoneNumber(t *testing.T) {
	svc, _, senders := newRegistrationFixture()

	params := validParams()
	params.PhoneNumber = "0507-030-927"
	_, err := svc.Register(context.Background(), params)
	assert.True(t, IsIdentityError(err, ErrInvalidPhoneNumber))
	assert.Empty(t, senders.sms)
}

func TestRegister_DuplicateCredentials(t *testing.T) {
	existing := &models.User{
		ID: "user00000001", SiteID: 1,
		Email:       "alice@example.com",
		PhoneNumber: "+996507030900",
	}
	svc, _, _ := newRegistrationFixture(existing)

	_, err := svc.Register(context.Background(), validParams())
	assert.True(t, IsIdentityError(err, ErrEmailAlreadyRegistered))

	params := validParams()
	params.Email = "fresh@example.com"
	params.PhoneNumber = "+996507030900"
	_, err = svc.Register(context.Background(), params)
	assert.True(t, IsIdentityError(err, ErrPhoneAlreadyRegistered))
}

func TestRegister_CandidateValueCountsAsTaken(t *testing.T) {
	existing := &models.User{
		ID: "user00000001", SiteID: 1,
		Email:          "other@example.com",
		EmailCandidate: "alice@example.com",
		PhoneNumber:    "+996507030900",
	}
	svc, _, _ := newRegistrationFixture(existing)

	_, err := svc.Register(context.Background(), validParams())
	assert.True(t, IsIdentityError(err, ErrEmailAlreadyRegistered))
}

func TestRegister_SameCredentialsDifferentSite(t *testing.T) {
	existing := &models.User{
		ID: "user00000001", SiteID: 2,
		Email:       "alice@example.com",
		PhoneNumber: "+996507030927",
	}
	svc, _, _ := newRegistrationFixture(existing)

	user, err := svc.Register(context.Background(), validParams())
	assert.NoError(t, err)
	assert.Equal(t, uint(1), user.SiteID)
}

func TestRegisterWithGoogle(t *testing.T) {
	svc, _, senders := newRegistrationFixture()

	claims := GoogleClaims{
		Sub:       "google-sub-1",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	}
	user, err := svc.RegisterWithGoogle(context.Background(), 1, claims, "+996507030927")
	assert.NoError(t, err)
	assert.True(t, user.IsEmailConfirmed, "email from a verified ID token starts out confirmed")
	assert.False(t, user.IsPhoneNumberConfirmed)
	assert.Equal(t, "google-sub-1", user.GoogleSub)
	assert.Empty(t, user.Password)

	// Only the phone number needs a code.
	assert.Empty(t, senders.emails)
	assert.Len(t, senders.sms, 1)
}

func TestCredentialAvailability(t *testing.T) {
	existing := &models.User{
		ID: "user00000001", SiteID: 1,
		Email:       "alice@example.com",
		PhoneNumber: "+996507030927",
	}
	svc, _, _ := newRegistrationFixture(existing)

	emailFree, phoneFree, err := svc.CredentialAvailability(
		context.Background(), 1, "alice@example.com", "+100000000000")
	assert.NoError(t, err)
	assert.False(t, emailFree)
	assert.True(t, phoneFree)

	emailFree, phoneFree, err = svc.CredentialAvailability(
		context.Background(), 2, "alice@example.com", "+996507030927")
	assert.NoError(t, err)
	assert.True(t, emailFree)
	assert.True(t, phoneFree)
}
