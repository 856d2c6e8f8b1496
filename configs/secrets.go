package configs

type Secrets struct {
	JwtSecret       string `yaml:"jwt_secret"`
	TempTokenSecret string `yaml:"temp_token_secret"`
}
