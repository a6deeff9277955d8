package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8000", c.EndpointAddr)
	assert.Empty(t, c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.TokenValidityDuration)
	assert.Equal(t, []string{"Allgemein", "Gaming", "Musik"}, c.RoomNames())
	assert.True(t, c.SeedUsers)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_EnvThenFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Chdir(t.TempDir())

	t.Setenv("ROOMCHAT_DEV_ADDR", ":9000")
	t.Setenv("ROOMCHAT_DEV_SEED_USERS", "false")
	t.Setenv("ROOMCHAT_DEV_TOKEN_TTL", "2m")
	os.Args = []string{"devbackend", "-a", ":9100"}

	c := LoadConfig()

	assert.Equal(t, ":9100", c.EndpointAddr)
	assert.False(t, c.SeedUsers)
	assert.Equal(t, 2*time.Minute, c.TokenValidityDuration)
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()
	require.NoError(t, c.Validate())
	assert.Len(t, c.SecretKey, 64, "a random secret is generated")

	c.SecretKey = "fixed"
	require.NoError(t, c.Validate())
	assert.Equal(t, "fixed", c.SecretKey)

	c.Rooms = " , ,"
	assert.Error(t, c.Validate())

	c.LoadDefaults()
	c.TokenValidityDuration = 0
	assert.Error(t, c.Validate())
}

func TestRoomNames_TrimsAndDeduplicates(t *testing.T) {
	c := Config{Rooms: " a ,b,,a, c"}
	assert.Equal(t, []string{"a", "b", "c"}, c.RoomNames())
}
