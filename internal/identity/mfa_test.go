package identity

import (
	"context"
	"testing"
	"time"

	"identity-server/internal/models"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newMFAFixture(debug bool, users ...*models.User) (*MFAService, *fakeStore) {
	store := newFakeStore(users...)
	// Redis is only touched by the provisioning flow, which is not under
	// test here.
	svc := NewMFAService(store, nil, testIdentityConfig(), debug, zap.NewNop())
	return svc, store
}

func TestCheckOTP_NoSecretMeansDisabled(t *testing.T) {
	svc, _ := newMFAFixture(false)
	user := &models.User{ID: "user00000001"}

	assert.True(t, svc.CheckOTP(user, "000000"))
	assert.True(t, svc.CheckOTP(user, ""))
	assert.True(t, svc.CheckOTP(user, "garbage"))
}

func TestCheckOTP_SuperuserMustEnroll(t *testing.T) {
	user := &models.User{ID: "user00000001", IsSuperuser: true}

	svc, _ := newMFAFixture(false)
	assert.False(t, svc.CheckOTP(user, "000000"), "superuser without secret must fail outside debug")

	debugSvc, _ := newMFAFixture(true)
	assert.True(t, debugSvc.CheckOTP(user, "000000"), "debug mode relaxes the superuser rule")
}

func TestCheckOTP_WithEnrolledSecret(t *testing.T) {
	svc, _ := newMFAFixture(false)

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "example.com", AccountName: "Alice Smith"})
	assert.NoError(t, err)
	user := &models.User{ID: "user00000001", MFASecretKey: key.Secret()}

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	assert.NoError(t, err)
	assert.True(t, svc.CheckOTP(user, code))
	assert.False(t, svc.CheckOTP(user, "000000"))
	assert.False(t, svc.CheckOTP(user, ""))
}

func TestDisable_RequiresEnrollment(t *testing.T) {
	user := &models.User{ID: "user00000001"}
	svc, _ := newMFAFixture(false, user)

	err := svc.Disable(context.Background(), user, "000000")
	assert.True(t, IsIdentityError(err, ErrMFANotEnabled))
}

func TestDisable_RequiresValidOTP(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "example.com", AccountName: "Alice Smith"})
	assert.NoError(t, err)
	user := &models.User{ID: "user00000001", MFASecretKey: key.Secret()}
	svc, store := newMFAFixture(false, user)

	err = svc.Disable(context.Background(), user, "000000")
	assert.True(t, IsIdentityError(err, ErrInvalidOTP))
	assert.NotEmpty(t, user.MFASecretKey)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	assert.NoError(t, err)
	err = svc.Disable(context.Background(), user, code)
	assert.NoError(t, err)
	assert.Empty(t, user.MFASecretKey)
	assert.Equal(t, 1, store.updateCalls)
}

func TestStatusByPhoneNumber(t *testing.T) {
	enrolled := &models.User{
		ID: "user00000001", SiteID: 1, PhoneNumber: "+996507030927", MFASecretKey: "SECRET",
	}
	plain := &models.User{
		ID: "user00000002", SiteID: 1, PhoneNumber: "+996507030928",
	}
	svc, _ := newMFAFixture(false, enrolled, plain)

	enabled, err := svc.StatusByPhoneNumber(context.Background(), 1, "+996507030927")
	assert.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = svc.StatusByPhoneNumber(context.Background(), 1, "+996507030928")
	assert.NoError(t, err)
	assert.False(t, enabled)

	_, err = svc.StatusByPhoneNumber(context.Background(), 1, "+100000000000")
	assert.True(t, IsIdentityError(err, ErrUserNotFound))
}
