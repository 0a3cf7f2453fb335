package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load reads an optional .env file into the process environment and parses Config from it.
func Load(files ...string) (*Config, error) {
	// missing .env is fine in prod
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

func (c *Config) ServerAddr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}
