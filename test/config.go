package test

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the connection settings for the integration suite, loaded
// from the environment.
type Config struct {
	// DSN is the URL of a live CouchDB server, including admin
	// credentials. The suite is skipped when it is empty.
	DSN string `mapstructure:"kivik_test_dsn"`

	// NoAuthDSN is the same server without credentials. Defaults to DSN
	// with its user information stripped.
	NoAuthDSN string `mapstructure:"kivik_test_dsn_noauth"`
}

// loadConfig reads integration-test settings from the environment, and from
// a .env file if one is present.
func loadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetDefault("kivik_test_dsn", "")
	v.SetDefault("kivik_test_dsn_noauth", "")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
