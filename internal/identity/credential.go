package identity

import (
	"time"

	"identity-server/internal/models"
)

// CredentialKind selects which of the user's two credentials an operation
// works on.
type CredentialKind string

const (
	CredentialEmail       CredentialKind = "email"
	CredentialPhoneNumber CredentialKind = "phone_number"
)

// CodeKind distinguishes the rate-limited SMS code families.
type CodeKind string

const (
	CodeConfirmation          CodeKind = "confirmation"
	CodeCandidateConfirmation CodeKind = "candidate_confirmation"
	CodePasswordReset         CodeKind = "password_reset"
)

// CandidateResult reports what happened to the candidate slot during a
// confirmation attempt.
type CandidateResult int

const (
	// CandidateNone means no candidate value was pending.
	CandidateNone CandidateResult = iota
	// CandidateCorrect means the candidate PIN matched. The candidate is
	// promoted only when the whole attempt succeeds (Confirmed()).
	CandidateCorrect
	// CandidateIncorrect means a candidate was pending but its PIN did not
	// match, so the whole attempt failed.
	CandidateIncorrect
)

// credentialAccessor exposes one credential's fields on a user without
// string-keyed reflection. Every confirmation-engine path goes through one
// of the two instances below.
type credentialAccessor struct {
	kind CredentialKind

	value        func(u *models.User) string
	setValue     func(u *models.User, v string)
	candidate    func(u *models.User) string
	setCandidate func(u *models.User, v string)

	confirmed    func(u *models.User) bool
	setConfirmed func(u *models.User, v bool)

	pin             func(u *models.User) int
	setPin          func(u *models.User, v int)
	candidatePin    func(u *models.User) int
	setCandidatePin func(u *models.User, v int)

	attempts    func(u *models.User) int
	setAttempts func(u *models.User, v int)
}

var emailAccessor = credentialAccessor{
	kind: CredentialEmail,

	value:        func(u *models.User) string { return u.Email },
	setValue:     func(u *models.User, v string) { u.Email = v },
	candidate:    func(u *models.User) string { return u.EmailCandidate },
	setCandidate: func(u *models.User, v string) { u.EmailCandidate = v },

	confirmed:    func(u *models.User) bool { return u.IsEmailConfirmed },
	setConfirmed: func(u *models.User, v bool) { u.IsEmailConfirmed = v },

	pin:             func(u *models.User) int { return u.EmailConfirmationPin },
	setPin:          func(u *models.User, v int) { u.EmailConfirmationPin = v },
	candidatePin:    func(u *models.User) int { return u.EmailCandidateConfirmationPin },
	setCandidatePin: func(u *models.User, v int) { u.EmailCandidateConfirmationPin = v },

	attempts:    func(u *models.User) int { return u.EmailConfirmationAttempts },
	setAttempts: func(u *models.User, v int) { u.EmailConfirmationAttempts = v },
}

var phoneNumberAccessor = credentialAccessor{
	kind: CredentialPhoneNumber,

	value:        func(u *models.User) string { return u.PhoneNumber },
	setValue:     func(u *models.User, v string) { u.PhoneNumber = v },
	candidate:    func(u *models.User) string { return u.PhoneNumberCandidate },
	setCandidate: func(u *models.User, v string) { u.PhoneNumberCandidate = v },

	confirmed:    func(u *models.User) bool { return u.IsPhoneNumberConfirmed },
	setConfirmed: func(u *models.User, v bool) { u.IsPhoneNumberConfirmed = v },

	pin:             func(u *models.User) int { return u.PhoneNumberConfirmationPin },
	setPin:          func(u *models.User, v int) { u.PhoneNumberConfirmationPin = v },
	candidatePin:    func(u *models.User) int { return u.PhoneNumberCandidateConfirmationPin },
	setCandidatePin: func(u *models.User, v int) { u.PhoneNumberCandidateConfirmationPin = v },

	attempts:    func(u *models.User) int { return u.PhoneNumberConfirmationAttempts },
	setAttempts: func(u *models.User, v int) { u.PhoneNumberConfirmationAttempts = v },
}

func accessorFor(kind CredentialKind) credentialAccessor {
	if kind == CredentialEmail {
		return emailAccessor
	}
	return phoneNumberAccessor
}

// smsUnlockField maps an SMS code kind to its cooldown gate on the user row.
// Only phone-bound code kinds have gates; email codes are never throttled.
func smsUnlockField(kind CodeKind) (get func(u *models.User) *time.Time, set func(u *models.User, t *time.Time)) {
	switch kind {
	case CodeConfirmation:
		return func(u *models.User) *time.Time { return u.PhoneNumberConfirmationCodeSMSUnlocksAt },
			func(u *models.User, t *time.Time) { u.PhoneNumberConfirmationCodeSMSUnlocksAt = t }
	case CodeCandidateConfirmation:
		return func(u *models.User) *time.Time { return u.PhoneNumberCandidateConfirmationCodeSMSUnlocksAt },
			func(u *models.User, t *time.Time) { u.PhoneNumberCandidateConfirmationCodeSMSUnlocksAt = t }
	default:
		return func(u *models.User) *time.Time { return u.PasswordResetCodeSMSUnlocksAt },
			func(u *models.User, t *time.Time) { u.PasswordResetCodeSMSUnlocksAt = t }
	}
}
