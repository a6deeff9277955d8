package config

import (
	"errors"
	"io/fs"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with ROOMCHAT_* environment variables. A .env
// file in the working directory is loaded first when present; variables
// already set in the process environment win over it.
//
// Unset variables leave the corresponding field untouched. Panics when a
// value cannot be parsed, like the other loaders.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		panic(err)
	}
}
