// Package config loads typed configuration from environment variables.
//
// Values come from the process environment, optionally seeded from one or more
// .env files via github.com/joho/godotenv, and are decoded into struct fields
// tagged for github.com/caarlos0/env/v11:
//
//	type Config struct {
//	    Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	cfg, err := config.Load[Config]()
//
// Variables already present in the environment win over .env files.
package config
