package configs

// IdentityConfig carries the numeric knobs of the credential confirmation,
// password reset and MFA flows. Zero values are replaced by ApplyDefaults.
type IdentityConfig struct {
	// Domain is the public domain of the deployment; used as sender suffix
	// (noreply@domain) and as the TOTP provisioning issuer.
	Domain string `yaml:"domain"`

	EmailConfirmationAttemptsLimit       int `yaml:"email_confirmation_attempts_limit"`
	PhoneNumberConfirmationAttemptsLimit int `yaml:"phone_number_confirmation_attempts_limit"`

	// Cooldown minutes between SMS sends, per code kind.
	PhoneNumberConfirmationSMSPeriodMin int `yaml:"phone_number_confirmation_sms_period_min"`
	PasswordResetSMSPeriodMin           int `yaml:"password_reset_sms_period_min"`

	// Minutes a password reset code stays valid after being issued.
	PasswordResetCodeTTLMin int `yaml:"password_reset_code_ttl_min"`

	// Minutes a provisioned-but-unconfirmed MFA secret is kept.
	MFASetupTTLMin int `yaml:"mfa_setup_ttl_min"`

	DefaultLanguage  string   `yaml:"default_language"`
	AllowedLanguages []string `yaml:"allowed_languages"`

	// PhoneNumberPattern validates phone numbers on registration/change.
	PhoneNumberPattern string `yaml:"phone_number_pattern"`
}

func (c *IdentityConfig) ApplyDefaults() {
	if c.EmailConfirmationAttemptsLimit == 0 {
		c.EmailConfirmationAttemptsLimit = 5
	}
	if c.PhoneNumberConfirmationAttemptsLimit == 0 {
		c.PhoneNumberConfirmationAttemptsLimit = 5
	}
	if c.PhoneNumberConfirmationSMSPeriodMin == 0 {
		c.PhoneNumberConfirmationSMSPeriodMin = 1
	}
	if c.PasswordResetSMSPeriodMin == 0 {
		c.PasswordResetSMSPeriodMin = 1
	}
	if c.PasswordResetCodeTTLMin == 0 {
		c.PasswordResetCodeTTLMin = 30
	}
	if c.MFASetupTTLMin == 0 {
		c.MFASetupTTLMin = 10
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	if len(c.AllowedLanguages) == 0 {
		c.AllowedLanguages = []string{"en", "ko"}
	}
	if c.PhoneNumberPattern == "" {
		c.PhoneNumberPattern = `^\+[0-9]{1,15}$`
	}
}
