package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type options struct {
	files   []string
	prefix  string
	environ map[string]string
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles loads the given .env files before parsing. Missing files are an error.
// Without this option Load tries ./.env and ignores its absence.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.files = append(o.files, files...) }
}

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses from the given map instead of the process environment.
// Intended for tests.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.environ = vars }
}

// Load parses the environment into a new T.
func Load[T any](opts ...Option) (T, error) {
	var cfg T
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environ == nil {
		if len(o.files) > 0 {
			if err := godotenv.Load(o.files...); err != nil {
				return cfg, errors.Join(ErrLoadingEnvFile, err)
			}
		} else {
			// .env is optional
			_ = godotenv.Load()
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      o.prefix,
		Environment: o.environ,
	}); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}

	return cfg, nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
