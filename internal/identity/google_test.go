package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"identity-server/configs"
	"identity-server/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"
)

func newGoogleFixture(clientID string, users ...*models.User) (*GoogleService, *fakeStore, *fakeClock) {
	store := newFakeStore(users...)
	clock := newFakeClock()
	cfg := &configs.GoogleConfig{OAuth2ClientID: clientID, TempTokenExpiryMin: 15}
	// Redis is only touched by ConsumeTempToken's replay guard, which is not
	// under test here.
	svc := NewGoogleService(store, nil, clock, cfg, "temp-token-secret", zap.NewNop())
	return svc, store, clock
}

func stubValidator(payload *idtoken.Payload, err error) idTokenValidator {
	return func(_ context.Context, _ string, _ string) (*idtoken.Payload, error) {
		return payload, err
	}
}

func TestVerifyIDToken_NotConfigured(t *testing.T) {
	svc, _, _ := newGoogleFixture("")

	_, err := svc.VerifyIDToken(context.Background(), "token")
	assert.True(t, IsIdentityError(err, ErrGoogleSignInNotConfigured))
}

func TestVerifyIDToken_InvalidToken(t *testing.T) {
	svc, _, _ := newGoogleFixture("client-id")
	svc.validate = stubValidator(nil, errors.New("idtoken: token expired"))

	_, err := svc.VerifyIDToken(context.Background(), "token")
	assert.True(t, IsIdentityError(err, ErrInvalidGoogleIDToken))
}

func TestVerifyIDToken_RequiresEmail(t *testing.T) {
	svc, _, _ := newGoogleFixture("client-id")
	svc.validate = stubValidator(&idtoken.Payload{
		Subject: "sub-1",
		Claims:  map[string]interface{}{"given_name": "Alice"},
	}, nil)

	_, err := svc.VerifyIDToken(context.Background(), "token")
	assert.True(t, IsIdentityError(err, ErrInvalidGoogleIDToken))
}

func TestSignIn_ExistingUserLinksGoogleSub(t *testing.T) {
	user := &models.User{ID: "user00000001", SiteID: 1, Email: "alice@example.com"}
	svc, store, _ := newGoogleFixture("client-id", user)
	svc.validate = stubValidator(&idtoken.Payload{
		Subject: "google-sub-1",
		Claims: map[string]interface{}{
			"email":       "alice@example.com",
			"given_name":  "Alice",
			"family_name": "Smith",
		},
	}, nil)

	result, err := svc.SignIn(context.Background(), 1, "token")
	assert.NoError(t, err)
	assert.NotNil(t, result.User)
	assert.Empty(t, result.TempToken)
	assert.Equal(t, "google-sub-1", result.User.GoogleSub)
	assert.Equal(t, 1, store.updateCalls)

	// Second sign-in does not rewrite the already linked subject.
	_, err = svc.SignIn(context.Background(), 1, "token")
	assert.NoError(t, err)
	assert.Equal(t, 1, store.updateCalls)
}

func TestSignIn_NewUserGetsTempToken(t *testing.T) {
	svc, _, _ := newGoogleFixture("client-id")
	svc.validate = stubValidator(&idtoken.Payload{
		Subject: "google-sub-2",
		Claims: map[string]interface{}{
			"email":       "bob@example.com",
			"given_name":  "Bob",
			"family_name": "Jones",
		},
	}, nil)

	result, err := svc.SignIn(context.Background(), 1, "token")
	assert.NoError(t, err)
	assert.Nil(t, result.User)
	assert.NotEmpty(t, result.TempToken)
	assert.Equal(t, "bob@example.com", result.Claims.Email)
}

func TestTempToken_RoundTrip(t *testing.T) {
	svc, _, _ := newGoogleFixture("client-id")

	token, err := svc.CreateTempToken(GoogleClaims{
		Sub:       "google-sub-3",
		Email:     "carol@example.com",
		FirstName: "Carol",
		LastName:  "King",
	})
	assert.NoError(t, err)

	claims, err := svc.decodeTempToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "google-sub-3", claims.GoogleSub)
	assert.Equal(t, "carol@example.com", claims.Email)
	assert.Equal(t, "Carol", claims.FirstName)
	assert.Equal(t, "King", claims.LastName)
	assert.NotEmpty(t, claims.ID)
}

func TestTempToken_Expires(t *testing.T) {
	svc, _, clock := newGoogleFixture("client-id")

	token, err := svc.CreateTempToken(GoogleClaims{Sub: "google-sub-4", Email: "dan@example.com"})
	assert.NoError(t, err)

	clock.Advance(16 * time.Minute)
	_, err = svc.decodeTempToken(token)
	assert.True(t, IsIdentityError(err, ErrGoogleAuthTokenExpired))
}

func TestTempToken_RejectsForeignSignature(t *testing.T) {
	svc, _, _ := newGoogleFixture("client-id")
	other, _, _ := newGoogleFixture("client-id")
	other.secret = "a-different-secret"

	token, err := other.CreateTempToken(GoogleClaims{Sub: "google-sub-5", Email: "eve@example.com"})
	assert.NoError(t, err)

	_, err = svc.decodeTempToken(token)
	assert.True(t, IsIdentityError(err, ErrInvalidGoogleIDToken))
}
