package identity

import (
	"errors"
	"fmt"
)

// Domain error codes surfaced to API clients.
const (
	ErrAttemptsLimitReached      = "attempts_limit_reached"
	ErrTooFrequentRequests       = "too_frequent_requests"
	ErrInvalidCredential         = "invalid_credential"
	ErrCredentialNotConfirmed    = "credential_not_confirmed"
	ErrEmailAlreadyRegistered    = "email_already_registered"
	ErrPhoneAlreadyRegistered    = "phone_number_already_registered"
	ErrInvalidPhoneNumber        = "invalid_phone_number"
	ErrInvalidOTP                = "invalid_otp"
	ErrMFAAlreadyEnabled         = "mfa_already_enabled"
	ErrMFANotEnabled             = "mfa_not_enabled"
	ErrInvalidResetCode          = "invalid_reset_code"
	ErrResetCodeExpired          = "reset_code_expired"
	ErrInvalidGoogleIDToken      = "invalid_google_id_token"
	ErrGoogleAuthTokenExpired    = "google_auth_token_expired"
	ErrGoogleSignInNotConfigured = "google_sign_in_not_configured"
	ErrUserNotFound              = "user_not_found"
	ErrInternal                  = "internal_error"
)

// IdentityError carries a stable machine code plus a human message.
type IdentityError struct {
	Code    string
	Message string
	Err     error
}

func (e *IdentityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

func NewIdentityError(code, message string) *IdentityError {
	return &IdentityError{
		Code:    code,
		Message: message,
	}
}

func NewIdentityErrorWithCause(code, message string, cause error) *IdentityError {
	return &IdentityError{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

func IsIdentityError(err error, code string) bool {
	var idErr *IdentityError
	if errors.As(err, &idErr) {
		return idErr.Code == code
	}
	return false
}
