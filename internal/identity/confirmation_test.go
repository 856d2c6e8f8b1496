package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"identity-server/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newConfirmationFixture() (*ConfirmationService, *fakeStore, *capturingSenders, *fakeClock, *models.User) {
	user := &models.User{
		ID:                "user00000001",
		SiteID:            1,
		Email:             "alice@example.com",
		PhoneNumber:       "+996507030927",
		PreferredLanguage: "en",
	}
	store := newFakeStore(user)
	senders := &capturingSenders{}
	clock := newFakeClock()
	svc := NewConfirmationService(store, clock, senders.emailSender(), senders.smsSender(),
		testIdentityConfig(), zap.NewNop())
	return svc, store, senders, clock, user
}

func TestConfirm_EmailEndToEnd(t *testing.T) {
	svc, store, _, _, user := newConfirmationFixture()
	user.EmailConfirmationPin = 123456

	result, err := svc.Confirm(context.Background(), user, CredentialEmail, "000000", "")
	assert.NoError(t, err)
	assert.False(t, result.MainOK)
	assert.Equal(t, CandidateNone, result.Candidate)
	assert.Equal(t, 1, user.EmailConfirmationAttempts)
	assert.False(t, user.IsEmailConfirmed)

	result, err = svc.Confirm(context.Background(), user, CredentialEmail, "123456", "")
	assert.NoError(t, err)
	assert.True(t, result.MainOK)
	assert.Equal(t, CandidateNone, result.Candidate)
	assert.True(t, result.Confirmed())
	assert.True(t, user.IsEmailConfirmed)
	assert.Equal(t, 0, user.EmailConfirmationAttempts)
	assert.Equal(t, 0, user.EmailConfirmationPin)
	assert.Equal(t, 2, store.updateCalls) // persisted after every attempt
}

func TestConfirm_AttemptsLimitReached(t *testing.T) {
	svc, store, _, _, user := newConfirmationFixture()
	user.EmailConfirmationPin = 123456

	limit := testIdentityConfig().EmailConfirmationAttemptsLimit
	for i := 0; i < limit; i++ {
		_, err := svc.Confirm(context.Background(), user, CredentialEmail, "999999", "")
		assert.NoError(t, err)
	}
	assert.Equal(t, limit, user.EmailConfirmationAttempts)

	persistedBefore := store.updateCalls
	_, err := svc.Confirm(context.Background(), user, CredentialEmail, "123456", "")
	assert.True(t, IsIdentityError(err, ErrAttemptsLimitReached))
	// Blocked attempts touch nothing, not even the correct PIN.
	assert.Equal(t, 123456, user.EmailConfirmationPin)
	assert.Equal(t, limit, user.EmailConfirmationAttempts)
	assert.Equal(t, persistedBefore, store.updateCalls)
}

func TestConfirm_SuccessIsIdempotent(t *testing.T) {
	svc, _, _, _, user := newConfirmationFixture()
	user.PhoneNumberConfirmationPin = 654321
	user.PhoneNumberCandidate = "+996507030928"
	user.PhoneNumberCandidateConfirmationPin = 111111

	result, err := svc.Confirm(context.Background(), user, CredentialPhoneNumber, "654321", "111111")
	assert.NoError(t, err)
	assert.True(t, result.Confirmed())
	assert.Equal(t, "+996507030928", user.PhoneNumber)

	// A replayed confirmation with empty PINs matches the zeroed slots but
	// finds no candidate left to promote.
	result, err = svc.Confirm(context.Background(), user, CredentialPhoneNumber, "", "")
	assert.NoError(t, err)
	assert.True(t, result.Confirmed())
	assert.Equal(t, CandidateNone, result.Candidate)
	assert.Equal(t, "+996507030928", user.PhoneNumber)
	assert.Equal(t, "", user.PhoneNumberCandidate)
}

func TestConfirm_CandidatePromotion(t *testing.T) {
	svc, _, senders, _, user := newConfirmationFixture()
	user.IsPhoneNumberConfirmed = true

	// User asks to change the confirmed number: candidate registered, a
	// resend goes to the main number and a fresh code to the candidate.
	err := svc.RequestChange(context.Background(), user, CredentialPhoneNumber, "+996507030928")
	assert.NoError(t, err)
	assert.Equal(t, "+996507030928", user.PhoneNumberCandidate)
	assert.Len(t, senders.sms, 2)
	assert.Equal(t, "+996507030927", senders.sms[0].Destination)
	assert.Equal(t, "+996507030928", senders.sms[1].Destination)

	mainPin := user.PhoneNumberConfirmationPin
	candidatePin := user.PhoneNumberCandidateConfirmationPin
	assert.NotZero(t, mainPin)
	assert.NotZero(t, candidatePin)

	result, err := svc.Confirm(context.Background(), user, CredentialPhoneNumber, "000001", "000002")
	assert.NoError(t, err)
	assert.False(t, result.MainOK)
	assert.Equal(t, CandidateIncorrect, result.Candidate)
	assert.Equal(t, 1, user.PhoneNumberConfirmationAttempts)

	result, err = svc.Confirm(context.Background(), user, CredentialPhoneNumber,
		pinString(mainPin), pinString(candidatePin))
	assert.NoError(t, err)
	assert.True(t, result.MainOK)
	assert.Equal(t, CandidateCorrect, result.Candidate)
	assert.Equal(t, "+996507030928", user.PhoneNumber)
	assert.Equal(t, "", user.PhoneNumberCandidate)
	assert.Equal(t, 0, user.PhoneNumberConfirmationAttempts)
	assert.Equal(t, 0, user.PhoneNumberConfirmationPin)
	assert.Equal(t, 0, user.PhoneNumberCandidateConfirmationPin)
}

func TestConfirm_CorrectMainWrongCandidateFails(t *testing.T) {
	svc, _, _, _, user := newConfirmationFixture()
	user.EmailConfirmationPin = 123456
	user.EmailCandidate = "alice-new@example.com"
	user.EmailCandidateConfirmationPin = 222222

	result, err := svc.Confirm(context.Background(), user, CredentialEmail, "123456", "999999")
	assert.NoError(t, err)
	assert.True(t, result.MainOK)
	assert.Equal(t, CandidateIncorrect, result.Candidate)
	assert.False(t, result.Confirmed())
	assert.False(t, user.IsEmailConfirmed)
	assert.Equal(t, 1, user.EmailConfirmationAttempts)
	// Nothing promoted, nothing cleared.
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice-new@example.com", user.EmailCandidate)
	assert.Equal(t, 123456, user.EmailConfirmationPin)
}

func TestConfirm_WrongMainCorrectCandidateFails(t *testing.T) {
	svc, _, _, _, user := newConfirmationFixture()
	user.EmailConfirmationPin = 123456
	user.EmailCandidate = "alice-new@example.com"
	user.EmailCandidateConfirmationPin = 222222

	result, err := svc.Confirm(context.Background(), user, CredentialEmail, "999999", "222222")
	assert.NoError(t, err)
	assert.False(t, result.MainOK)
	assert.Equal(t, CandidateCorrect, result.Candidate)
	assert.False(t, result.Confirmed())
	// A correct candidate PIN alone promotes nothing.
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice-new@example.com", user.EmailCandidate)
	assert.Equal(t, 222222, user.EmailCandidateConfirmationPin)
	assert.Equal(t, 1, user.EmailConfirmationAttempts)
}

func TestConfirm_MalformedPinNeverMatches(t *testing.T) {
	svc, _, _, _, user := newConfirmationFixture()
	user.EmailConfirmationPin = 123456

	for _, pin := range []string{"", "abc", "12a456", "-1"} {
		result, err := svc.Confirm(context.Background(), user, CredentialEmail, pin, "")
		assert.NoError(t, err)
		assert.False(t, result.MainOK, "pin %q must not match", pin)
	}
	assert.Equal(t, 4, user.EmailConfirmationAttempts)
}

func TestConfirm_ChangedNoticeGoesToOldAddress(t *testing.T) {
	svc, _, senders, _, user := newConfirmationFixture()
	user.EmailConfirmationPin = 123456
	user.EmailCandidate = "alice-new@example.com"
	user.EmailCandidateConfirmationPin = 222222

	_, err := svc.Confirm(context.Background(), user, CredentialEmail, "123456", "222222")
	assert.NoError(t, err)
	assert.Equal(t, "alice-new@example.com", user.Email)

	if assert.Len(t, senders.emails, 1) {
		assert.Equal(t, "alice@example.com", senders.emails[0].Destination)
	}
}

func TestConfirm_HooksRunAfterPersist(t *testing.T) {
	svc, _, _, _, user := newConfirmationFixture()
	user.PhoneNumberConfirmationPin = 654321

	var gotKind CredentialKind
	var gotValue string
	var gotInitial bool
	svc.AddHook(func(_ context.Context, u *models.User, kind CredentialKind, value string, initial bool) {
		gotKind = kind
		gotValue = value
		gotInitial = initial
	})

	_, err := svc.Confirm(context.Background(), user, CredentialPhoneNumber, "654321", "")
	assert.NoError(t, err)
	assert.Equal(t, CredentialPhoneNumber, gotKind)
	assert.Equal(t, "+996507030927", gotValue)
	assert.True(t, gotInitial)
}

func TestSendCode_CooldownRoundTrip(t *testing.T) {
	svc, _, senders, clock, user := newConfirmationFixture()

	err := svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{GenerateNew: true})
	assert.NoError(t, err)
	assert.Len(t, senders.sms, 1)
	firstPin := user.PhoneNumberConfirmationPin
	assert.NotZero(t, firstPin)

	unlocksAt := SMSUnlockTime(user, CodeConfirmation)
	if assert.NotNil(t, unlocksAt) {
		assert.Equal(t, clock.Now().Add(time.Minute), *unlocksAt)
	}

	// Immediate retry is throttled and changes nothing.
	err = svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{GenerateNew: true})
	assert.True(t, IsIdentityError(err, ErrTooFrequentRequests))
	assert.Equal(t, firstPin, user.PhoneNumberConfirmationPin)
	assert.Len(t, senders.sms, 1)

	clock.Advance(time.Minute + time.Second)
	err = svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{GenerateNew: true})
	assert.NoError(t, err)
	assert.Len(t, senders.sms, 2)
}

func TestSendCode_NeverUnlocksEarly(t *testing.T) {
	svc, _, _, clock, user := newConfirmationFixture()

	err := svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{GenerateNew: true})
	assert.NoError(t, err)

	elapsed := time.Duration(0)
	for _, offset := range []time.Duration{time.Second, 15 * time.Second, 30 * time.Second, 13 * time.Second} {
		clock.Advance(offset)
		elapsed += offset
		err = svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{})
		assert.True(t, IsIdentityError(err, ErrTooFrequentRequests),
			"send must stay locked until unlocks_at, %s before it", time.Minute-elapsed)
	}

	// At exactly unlocks_at the window is open again: the gate only blocks
	// while unlocks_at is strictly in the future.
	clock.Advance(time.Second)
	err = svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{})
	assert.NoError(t, err)
}

func TestSendCode_EmailHasNoCooldown(t *testing.T) {
	svc, _, senders, _, user := newConfirmationFixture()

	for i := 0; i < 3; i++ {
		err := svc.SendCode(context.Background(), user, CredentialEmail, SendOptions{})
		assert.NoError(t, err)
	}
	assert.Len(t, senders.emails, 3)
}

func TestSendCode_ReusesLivePin(t *testing.T) {
	svc, _, senders, _, user := newConfirmationFixture()
	user.EmailConfirmationPin = 123456

	err := svc.SendCode(context.Background(), user, CredentialEmail, SendOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 123456, user.EmailConfirmationPin)
	assert.Contains(t, senders.emails[0].Body, "123456")
}

func TestSendCode_RegeneratesConsumedPin(t *testing.T) {
	svc, _, _, _, user := newConfirmationFixture()
	// 0 means unset/consumed, a resend must mint a new PIN even without
	// GenerateNew.
	err := svc.SendCode(context.Background(), user, CredentialEmail, SendOptions{})
	assert.NoError(t, err)
	assert.NotZero(t, user.EmailConfirmationPin)
}

func TestSendCode_CandidateWithoutValueIsNoop(t *testing.T) {
	svc, store, senders, _, user := newConfirmationFixture()

	err := svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{Candidate: true})
	assert.NoError(t, err)
	assert.Empty(t, senders.sms)
	assert.Zero(t, store.updateCalls)
}

func TestSendCode_IgnoreFrequencyLimit(t *testing.T) {
	svc, _, senders, _, user := newConfirmationFixture()

	err := svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{GenerateNew: true})
	assert.NoError(t, err)
	err = svc.SendCode(context.Background(), user, CredentialPhoneNumber,
		SendOptions{GenerateNew: true, IgnoreFrequencyLimit: true})
	assert.NoError(t, err)
	assert.Len(t, senders.sms, 2)
}

func TestSendCode_BlockedAtAttemptsLimit(t *testing.T) {
	svc, _, senders, _, user := newConfirmationFixture()
	user.PhoneNumberConfirmationAttempts = testIdentityConfig().PhoneNumberConfirmationAttemptsLimit

	err := svc.SendCode(context.Background(), user, CredentialPhoneNumber, SendOptions{GenerateNew: true})
	assert.True(t, IsIdentityError(err, ErrAttemptsLimitReached))
	assert.Empty(t, senders.sms)
	assert.Nil(t, SMSUnlockTime(user, CodeConfirmation))
}

func pinString(pin int) string {
	return fmt.Sprintf("%06d", pin)
}
