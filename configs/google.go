package configs

type GoogleConfig struct {
	// OAuth2ClientID is the audience expected in Google ID tokens.
	// Google sign-in is disabled when empty.
	OAuth2ClientID     string `yaml:"oauth2_client_id"`
	TempTokenExpiryMin int    `yaml:"temp_token_expiry_min"`
}
