package configs

type EmailConfig struct {
	SMTPHost    string `yaml:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	SenderEmail string `yaml:"sender_email"`
	SenderName  string `yaml:"sender_name"`
}
