package configs

type SMSConfig struct {
	// Provider selects the outbound SMS gateway: "webhook" posts the message
	// to GatewayURL, "log" only writes it to the service log (development).
	Provider   string `yaml:"provider"`
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
	Sender     string `yaml:"sender"`
}
