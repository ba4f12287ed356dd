package mockapi

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes the mock server's environment variables.
const EnvPrefix = "MOCK_POS"

// Config is read from MOCK_POS_* variables.
type Config struct {
	Host      string        `default:"127.0.0.1"`
	Port      int           `default:"0"`
	PortRange string        `split_words:"true" default:"8080-8090"`
	BasePath  string        `split_words:"true"`
	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev_secret_key_change_me"`
	TokenTTL  time.Duration `split_words:"true" default:"24h"`
	Seed      bool          `default:"true"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process(EnvPrefix, &cfg)
	return cfg, err
}
