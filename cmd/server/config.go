package main

import (
	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, parsed once at startup from the
// environment and immutable afterwards.
type Config struct {
	ListenAddr      string `env:"LISTEN_ADDR" envDefault:":8080"`
	DSN             string `env:"DATABASE_DSN" envDefault:"file:auth.db?cache=shared"`
	SigningKey      string `env:"JWT_SIGNING_KEY,required"`
	TokenExpiration int    `env:"TOKEN_EXPIRATION_HOURS" envDefault:"24"`
	Issuer          string `env:"TOKEN_ISSUER" envDefault:"go-auth-api"`
	ContextKey      string `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	AuthScheme      string `env:"AUTH_SCHEME" envDefault:"Bearer"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

func (c *Config) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}
