// Package config handles configuration for the development backend,
// including defaults, environment overlay and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/dmitrijs2005/roomchat/internal/common"
)

// Config holds runtime settings for the development backend.
//
// Fields:
//   - EndpointAddr: bind address of the HTTP and websocket listener.
//   - SecretKey: HMAC secret for signing credentials (HS256). Empty means a
//     random one per process, so credentials do not survive a restart.
//   - TokenValidityDuration: lifetime of issued credentials.
//   - Rooms: comma-separated names of the rooms created at startup.
//   - SeedUsers: create the two demo accounts at startup.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddr          string        `env:"ROOMCHAT_DEV_ADDR"`
	SecretKey             string        `env:"ROOMCHAT_DEV_SECRET"`
	TokenValidityDuration time.Duration `env:"ROOMCHAT_DEV_TOKEN_TTL"`
	Rooms                 string        `env:"ROOMCHAT_DEV_ROOMS"`
	SeedUsers             bool          `env:"ROOMCHAT_DEV_SEED_USERS"`
	LogLevel              string        `env:"ROOMCHAT_DEV_LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8000"
	c.SecretKey = ""
	c.TokenValidityDuration = 30 * time.Minute
	c.Rooms = "Allgemein,Gaming,Musik"
	c.SeedUsers = true
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate checks the loaded values and fills in a random secret when none
// was configured.
func (c *Config) Validate() error {
	if c.EndpointAddr == "" {
		return fmt.Errorf("endpoint address is required")
	}
	if c.TokenValidityDuration <= 0 {
		return fmt.Errorf("token validity must be positive, got %s", c.TokenValidityDuration)
	}
	if len(c.RoomNames()) == 0 {
		return fmt.Errorf("at least one room is required")
	}
	if c.SecretKey == "" {
		s, err := common.MakeRandHexString(32)
		if err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		c.SecretKey = s
	}
	return nil
}

// RoomNames splits Rooms, dropping blanks and duplicates.
func (c *Config) RoomNames() []string {
	names := lo.Map(strings.Split(c.Rooms, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Uniq(lo.Compact(names))
}
