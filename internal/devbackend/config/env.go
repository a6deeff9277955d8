package config

import (
	"errors"
	"io/fs"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with ROOMCHAT_DEV_* environment variables,
// loading a .env file first when present. Panics on unparsable values.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		panic(err)
	}
}
