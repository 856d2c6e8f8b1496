package configs

type ServiceConfig struct {
	Name     string `yaml:"name"`
	BaseURL  string `yaml:"base_url"`
	HttpPort string `yaml:"http_port"`
	Debug    bool   `yaml:"debug"`
}
