package models

// AuditLogType defines the types of auditable events in the system
// Used for categorizing and filtering audit logs
type AuditLogType string

const (
	// User management audit log types
	AuditLogTypeUserRegistered AuditLogType = "USER_REGISTERED" // New user registered

	// Credential confirmation audit log types
	AuditLogTypeConfirmationCodeSent    AuditLogType = "CONFIRMATION_CODE_SENT"    // PIN dispatched by email or SMS
	AuditLogTypeCredentialConfirmed     AuditLogType = "CREDENTIAL_CONFIRMED"      // Email or phone number confirmed
	AuditLogTypeConfirmationFailed      AuditLogType = "CONFIRMATION_FAILED"       // Wrong PIN submitted
	AuditLogTypeCredentialChanged       AuditLogType = "CREDENTIAL_CHANGED"        // Candidate promoted to main value
	AuditLogTypeCredentialChangeStarted AuditLogType = "CREDENTIAL_CHANGE_STARTED" // Candidate value registered

	// Password reset audit log types
	AuditLogTypePasswordResetRequested AuditLogType = "PASSWORD_RESET_REQUESTED" // Reset code issued
	AuditLogTypePasswordResetConfirmed AuditLogType = "PASSWORD_RESET_CONFIRMED" // Password changed via reset code

	// MFA audit log types
	AuditLogTypeMFAEnabled  AuditLogType = "MFA_ENABLED"  // TOTP secret enrolled
	AuditLogTypeMFADisabled AuditLogType = "MFA_DISABLED" // TOTP secret cleared

	// Google sign-in audit log types
	AuditLogTypeGoogleSignIn AuditLogType = "GOOGLE_SIGN_IN" // ID token accepted
)
